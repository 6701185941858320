package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Probabilities holds the Kalshi win probability for each outcome of a 1X2 market.
// Values are expected in [0,1] but are not guaranteed to sum to 1.
type Probabilities struct {
	Home float64 `json:"home" validate:"gte=0,lte=1"`
	Draw float64 `json:"draw" validate:"gte=0,lte=1"`
	Away float64 `json:"away" validate:"gte=0,lte=1"`
}

// Sum returns the total of the three probabilities
func (p Probabilities) Sum() float64 {
	return p.Home + p.Draw + p.Away
}

// Normalized rescales the probabilities so they sum to 1.
// A zero total returns the probabilities unchanged.
func (p Probabilities) Normalized() Probabilities {
	total := p.Sum()
	if total <= 0 {
		return p
	}
	return Probabilities{
		Home: p.Home / total,
		Draw: p.Draw / total,
		Away: p.Away / total,
	}
}

// Event represents a football match with a three-way Kalshi market
type Event struct {
	ID          string        `json:"id" validate:"required"`
	StartTime   time.Time     `json:"start_time" validate:"required"`
	League      string        `json:"league"`
	HomeTeam    string        `json:"home_team" validate:"required"`
	AwayTeam    string        `json:"away_team" validate:"required"`
	KalshiProbs Probabilities `json:"kalshi_probs"`
}

// Matches reports whether the search term appears in the home team, away team or league.
// An empty term matches every event.
func (e *Event) Matches(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(e.HomeTeam), term) ||
		strings.Contains(strings.ToLower(e.AwayTeam), term) ||
		strings.Contains(strings.ToLower(e.League), term)
}

// Snapshot is the set of events returned by one refresh of the event source
type Snapshot struct {
	ID        uuid.UUID `json:"id"`
	Source    string    `json:"source"`
	FetchedAt time.Time `json:"fetched_at"`
	Events    []Event   `json:"events"`
}

// NewSnapshot creates a snapshot stamped with a fresh ID
func NewSnapshot(source string, fetchedAt time.Time, events []Event) *Snapshot {
	if events == nil {
		events = []Event{}
	}
	return &Snapshot{
		ID:        uuid.New(),
		Source:    source,
		FetchedAt: fetchedAt.UTC(),
		Events:    events,
	}
}

// FindEvent returns the event with the given ID, or nil if absent
func (s *Snapshot) FindEvent(id string) *Event {
	for i := range s.Events {
		if s.Events[i].ID == id {
			return &s.Events[i]
		}
	}
	return nil
}

// Filter returns the events matching the search term
func (s *Snapshot) Filter(term string) []Event {
	filtered := make([]Event, 0, len(s.Events))
	for _, ev := range s.Events {
		if ev.Matches(term) {
			filtered = append(filtered, ev)
		}
	}
	return filtered
}
