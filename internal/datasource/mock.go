package datasource

import (
	"context"
	"time"

	"github.com/yourusername/kalshi-analyzer/internal/models"
)

// MockSourceName identifies the built-in demo events
const MockSourceName = "mock"

// MockSource serves a fixed set of demo events so the analyzer stays usable without Kalshi
type MockSource struct {
	now func() time.Time
}

// NewMockSource creates a mock source. A nil clock uses time.Now.
func NewMockSource(now func() time.Time) *MockSource {
	if now == nil {
		now = time.Now
	}
	return &MockSource{now: now}
}

// Name returns the data source name
func (m *MockSource) Name() string {
	return MockSourceName
}

// FetchEvents returns the demo events, kicking off 24, 48 and 72 hours from now
func (m *MockSource) FetchEvents(ctx context.Context) (*Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := m.now().UTC()
	return &Batch{Source: MockSourceName, FetchedAt: now, Events: MockEvents(now)}, nil
}

// MockEvents builds the demo events relative to now
func MockEvents(now time.Time) []models.Event {
	return []models.Event{
		{
			ID:          "mock-1",
			StartTime:   now.Add(24 * time.Hour),
			League:      "Premier League (MOCK DATA)",
			HomeTeam:    "Manchester United",
			AwayTeam:    "Liverpool",
			KalshiProbs: models.Probabilities{Home: 0.40, Draw: 0.30, Away: 0.30},
		},
		{
			ID:          "mock-2",
			StartTime:   now.Add(48 * time.Hour),
			League:      "La Liga (MOCK DATA)",
			HomeTeam:    "Real Madrid",
			AwayTeam:    "Barcelona",
			KalshiProbs: models.Probabilities{Home: 0.45, Draw: 0.25, Away: 0.30},
		},
		{
			ID:          "mock-3",
			StartTime:   now.Add(72 * time.Hour),
			League:      "Bundesliga (MOCK DATA)",
			HomeTeam:    "Bayern Munich",
			AwayTeam:    "Borussia Dortmund",
			KalshiProbs: models.Probabilities{Home: 0.50, Draw: 0.28, Away: 0.22},
		},
	}
}
