package api

import (
	"time"

	"github.com/yourusername/kalshi-analyzer/internal/calculator"
	"github.com/yourusername/kalshi-analyzer/internal/models"
)

// displayPlaces is the rounding applied to the display copy of a result
const displayPlaces = 2

// CalculationRequest carries the dashboard inputs for one calculation.
// Numeric inputs stay strings; blank or malformed values are treated as absent.
type CalculationRequest struct {
	calculator.UserInputs
	TotalStake *float64 `json:"total_stake,omitempty" validate:"omitempty,gt=0"`
}

// Stake returns the requested total stake or 0 when the default should apply
func (r *CalculationRequest) Stake() float64 {
	if r.TotalStake == nil {
		return 0
	}
	return *r.TotalStake
}

// AdhocCalculationRequest calculates stakes for probabilities not tied to a stored event
type AdhocCalculationRequest struct {
	CalculationRequest
	KalshiProbs models.Probabilities `json:"kalshi_probs"`
}

// BatchCalculationRequest applies one set of inputs to every event matching Query
type BatchCalculationRequest struct {
	CalculationRequest
	Query string `json:"q"`
}

// CalculationResponse is a calculation result with a rounded copy for display
type CalculationResponse struct {
	Event   *models.Event            `json:"event,omitempty"`
	Result  calculator.Result        `json:"result"`
	Display calculator.Result        `json:"display"`
	Results calculator.OutcomeInputs `json:"results"`
}

// BatchCalculationResponse holds one response per event, in snapshot order
type BatchCalculationResponse struct {
	Calculations []CalculationResponse `json:"calculations"`
}

// EventsResponse lists events from a snapshot
type EventsResponse struct {
	Events     []models.Event `json:"events"`
	SnapshotID string         `json:"snapshot_id"`
	Source     string         `json:"source"`
	FetchedAt  time.Time      `json:"fetched_at"`
}

// HealthResponse is the API liveness payload
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// StreamMessage is pushed to websocket clients
type StreamMessage struct {
	Type      string         `json:"type"`
	Payload   EventsResponse `json:"payload"`
	Timestamp time.Time      `json:"timestamp"`
}

func newCalculationResponse(ev *models.Event, result calculator.Result, results calculator.OutcomeInputs) CalculationResponse {
	return CalculationResponse{
		Event:   ev,
		Result:  result,
		Display: result.Rounded(displayPlaces),
		Results: results,
	}
}

func newEventsResponse(events []models.Event, snapshot *models.Snapshot) EventsResponse {
	return EventsResponse{
		Events:     events,
		SnapshotID: snapshot.ID.String(),
		Source:     snapshot.Source,
		FetchedAt:  snapshot.FetchedAt,
	}
}
