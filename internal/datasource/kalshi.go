package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/yourusername/kalshi-analyzer/internal/metrics"
	"github.com/yourusername/kalshi-analyzer/internal/models"
)

const (
	// KalshiSourceName identifies the Kalshi trade API source
	KalshiSourceName = "kalshi"
	// DefaultKalshiURL is the Kalshi trade API host
	DefaultKalshiURL = "https://api.elections.kalshi.com"

	eventsPath         = "/trade-api/v2/events"
	defaultEventLimit  = 200
	unknownLeague      = "Unknown League"
	defaultHomeTeam    = "Team A"
	defaultAwayTeam    = "Team B"
	defaultHomeProb    = 0.33
	defaultDrawProb    = 0.33
	defaultAwayProb    = 0.34
	titleTeamSeparator = " vs "
)

var footballKeywords = []string{"football", "soccer", "premier league", "la liga"}

// KalshiClient implements EventSource for the Kalshi trade API
type KalshiClient struct {
	httpClient *RateLimitedHTTPClient
	baseURL    string
	signer     *Signer
	limit      int
	logger     *log.Logger
	now        func() time.Time
}

// KalshiEvent is an event as returned by the Kalshi events endpoint
type KalshiEvent struct {
	EventTicker  string         `json:"event_ticker"`
	SeriesTicker string         `json:"series_ticker"`
	Title        string         `json:"title"`
	Subtitle     string         `json:"subtitle"`
	Category     string         `json:"category"`
	SubCategory  string         `json:"sub_category"`
	Markets      []KalshiMarket `json:"markets"`
}

// KalshiMarket is a nested market of a Kalshi event
type KalshiMarket struct {
	Ticker   string  `json:"ticker"`
	Title    string  `json:"title"`
	YesAsk   float64 `json:"yes_ask"`
	OpenTime string  `json:"open_time"`
}

type kalshiEventsResponse struct {
	Events []KalshiEvent `json:"events"`
	Cursor string        `json:"cursor"`
}

// NewKalshiClient creates a new Kalshi API client. A nil signer makes every fetch
// fail with an authentication error.
func NewKalshiClient(httpClient *RateLimitedHTTPClient, baseURL string, signer *Signer, limit int, logger *log.Logger) *KalshiClient {
	if baseURL == "" {
		baseURL = DefaultKalshiURL
	}
	if limit <= 0 || limit > defaultEventLimit {
		limit = defaultEventLimit
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &KalshiClient{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		signer:     signer,
		limit:      limit,
		logger:     logger,
		now:        time.Now,
	}
}

// Name returns the data source name
func (c *KalshiClient) Name() string {
	return KalshiSourceName
}

// FetchEvents retrieves the open football events with nested markets
func (c *KalshiClient) FetchEvents(ctx context.Context) (*Batch, error) {
	raw, err := c.fetchRawEvents(ctx)
	if err != nil {
		return nil, err
	}

	football := FilterFootball(raw)
	c.logger.Printf("Kalshi events returned: %d, football events: %d", len(raw), len(football))

	fetchedAt := c.now()
	events := make([]models.Event, 0, len(football))
	for i := range football {
		events = append(events, ParseEvent(&football[i], fetchedAt))
	}

	return &Batch{Source: KalshiSourceName, FetchedAt: fetchedAt, Events: events}, nil
}

func (c *KalshiClient) fetchRawEvents(ctx context.Context) ([]KalshiEvent, error) {
	if c.signer == nil {
		return nil, NewDataSourceError(KalshiSourceName, ErrCodeAuthenticationFailed, "credentials not configured", ErrMissingCredentials)
	}

	query := url.Values{}
	query.Set("with_nested_markets", "true")
	query.Set("limit", strconv.Itoa(c.limit))
	query.Set("status", "open")
	endpoint := c.baseURL + eventsPath + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, NewDataSourceError(KalshiSourceName, ErrCodeNetworkError, "failed to create request", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	c.signer.Sign(req)

	start := time.Now()
	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		metrics.RecordUpstreamRequest(metrics.StatusClass(0), time.Since(start).Seconds())
		return nil, NewDataSourceError(KalshiSourceName, ErrCodeNetworkError, "failed to fetch events", err)
	}
	defer resp.Body.Close()
	metrics.RecordUpstreamRequest(metrics.StatusClass(resp.StatusCode), time.Since(start).Seconds())

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, NewDataSourceError(KalshiSourceName, ErrCodeAuthenticationFailed, "request rejected by Kalshi", nil)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, NewDataSourceError(KalshiSourceName, ErrCodeRateLimitExceeded, "rate limit exceeded", nil)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, NewDataSourceError(KalshiSourceName, ErrCodeServerError, fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(body)), nil)
	}

	var payload kalshiEventsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, NewDataSourceError(KalshiSourceName, ErrCodeInvalidData, "failed to parse response", err)
	}
	return payload.Events, nil
}

// IsFootball reports whether a Kalshi event is a football match
func IsFootball(ev *KalshiEvent) bool {
	category := strings.ToLower(ev.Category)
	if category == "sports" && strings.Contains(strings.ToLower(ev.SubCategory), "football") {
		return true
	}
	title := strings.ToLower(ev.Title)
	for _, kw := range footballKeywords {
		if strings.Contains(title, kw) {
			return true
		}
	}
	return false
}

// FilterFootball keeps the football events, preserving order
func FilterFootball(events []KalshiEvent) []KalshiEvent {
	filtered := make([]KalshiEvent, 0, len(events))
	for _, ev := range events {
		if IsFootball(&ev) {
			filtered = append(filtered, ev)
		}
	}
	return filtered
}

// ParseEvent converts a Kalshi event into a normalized 1X2 event.
// now is used as the start time when no market carries a parseable open time.
func ParseEvent(ev *KalshiEvent, now time.Time) models.Event {
	home, away := splitTeams(ev.Title)

	probs := models.Probabilities{
		Home: marketProbability(findMarket(ev.Markets, "home"), defaultHomeProb),
		Draw: marketProbability(findMarket(ev.Markets, "draw"), defaultDrawProb),
		Away: marketProbability(findMarket(ev.Markets, "away"), defaultAwayProb),
	}

	return models.Event{
		ID:          ev.EventTicker,
		StartTime:   startTime(ev.Markets, now),
		League:      league(ev),
		HomeTeam:    home,
		AwayTeam:    away,
		KalshiProbs: probs.Normalized(),
	}
}

func splitTeams(title string) (string, string) {
	if strings.TrimSpace(title) == "" {
		return defaultHomeTeam, defaultAwayTeam
	}
	parts := strings.Split(title, titleTeamSeparator)
	home := strings.TrimSpace(parts[0])
	away := defaultAwayTeam
	if len(parts) > 1 {
		away = strings.TrimSpace(parts[1])
	}
	return home, away
}

func findMarket(markets []KalshiMarket, keyword string) *KalshiMarket {
	for i := range markets {
		if strings.Contains(strings.ToLower(markets[i].Title), keyword) {
			return &markets[i]
		}
	}
	return nil
}

// marketProbability converts a yes ask in cents to a probability
func marketProbability(m *KalshiMarket, fallback float64) float64 {
	if m == nil || m.YesAsk <= 0 {
		return fallback
	}
	return m.YesAsk / 100
}

func startTime(markets []KalshiMarket, now time.Time) time.Time {
	if len(markets) > 0 && markets[0].OpenTime != "" {
		if t, err := time.Parse(time.RFC3339, markets[0].OpenTime); err == nil {
			return t.UTC()
		}
	}
	return now.UTC()
}

func league(ev *KalshiEvent) string {
	switch {
	case ev.Subtitle != "":
		return ev.Subtitle
	case ev.SeriesTicker != "":
		return ev.SeriesTicker
	default:
		return unknownLeague
	}
}
