package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/kalshi-analyzer/internal/calculator"
	"github.com/yourusername/kalshi-analyzer/internal/models"
	"github.com/yourusername/kalshi-analyzer/internal/service"
)

const (
	errFetchEvents   = "Failed to fetch events from Kalshi"
	errInvalidBody   = "Invalid request body"
	errEventNotFound = "Event not found"
	maxBodyBytes     = 1 << 20
)

// Analyzer is the service behind the HTTP API
type Analyzer interface {
	Events(ctx context.Context, query string) ([]models.Event, *models.Snapshot, error)
	CalculateEvent(ctx context.Context, id string, inputs calculator.UserInputs, totalStake float64) (*models.Event, calculator.Result, error)
	Calculate(eventID string, quote calculator.MarketQuote, risk calculator.RiskConfig, totalStake float64) calculator.Result
	EvaluateAll(ctx context.Context, query string, inputs calculator.UserInputs, totalStake float64) ([]service.EventCalculation, error)
	Subscribe() (uuid.UUID, <-chan *models.Snapshot)
	Unsubscribe(id uuid.UUID)
}

// Handler contains dependencies for HTTP handlers
type Handler struct {
	analyzer Analyzer
	validate *validator.Validate
	logger   *logrus.Logger
	now      func() time.Time
}

// NewHandler creates a new handler
func NewHandler(analyzer Analyzer, logger *logrus.Logger) *Handler {
	return &Handler{
		analyzer: analyzer,
		validate: validator.New(),
		logger:   logger,
		now:      time.Now,
	}
}

// Health returns API liveness
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: h.now().UTC().Format(time.RFC3339Nano),
	})
}

// ListEvents returns the current events, filtered by the q query parameter
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, snapshot, err := h.analyzer.Events(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newEventsResponse(events, snapshot))
}

// CalculateEvent calculates stakes for a stored event
func (h *Handler) CalculateEvent(w http.ResponseWriter, r *http.Request) {
	var req CalculationRequest
	if !h.decode(w, r, &req) {
		return
	}

	ev, result, err := h.analyzer.CalculateEvent(r.Context(), chi.URLParam(r, "id"), req.UserInputs, req.Stake())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newCalculationResponse(ev, result, req.Results))
}

// Calculate calculates stakes for probabilities supplied in the request
func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	var req AdhocCalculationRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.KalshiProbs.Sum() <= 0 {
		respondError(w, http.StatusBadRequest, errInvalidBody, models.ErrInvalidQuote.Error())
		return
	}

	result := h.analyzer.Calculate("", req.Quote(req.KalshiProbs), req.Risk(), req.Stake())
	respondJSON(w, http.StatusOK, newCalculationResponse(nil, result, req.Results))
}

// CalculateBatch applies the same inputs to every matching event in the snapshot
func (h *Handler) CalculateBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchCalculationRequest
	if !h.decode(w, r, &req) {
		return
	}

	calcs, err := h.analyzer.EvaluateAll(r.Context(), req.Query, req.UserInputs, req.Stake())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	resp := BatchCalculationResponse{Calculations: make([]CalculationResponse, 0, len(calcs))}
	for i := range calcs {
		resp.Calculations = append(resp.Calculations, newCalculationResponse(&calcs[i].Event, calcs[i].Result, req.Results))
	}
	respondJSON(w, http.StatusOK, resp)
}

// decode reads and validates a JSON body, writing a 400 on failure
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidBody, err.Error())
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidBody, formatValidationErrors(err))
		return false
	}
	return true
}

func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, models.ErrEventNotFound) {
		respondError(w, http.StatusNotFound, errEventNotFound, err.Error())
		return
	}

	if h.logger != nil {
		h.logger.WithFields(logrus.Fields{
			"request_id": GetRequestID(r.Context()),
			"error":      err.Error(),
		}).Error("Error fetching events")
	}
	respondError(w, http.StatusInternalServerError, errFetchEvents, err.Error())
}

func formatValidationErrors(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err.Error()
	}
	msgs := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		msgs = append(msgs, fmt.Sprintf("field '%s' failed '%s'", fe.Field(), fe.Tag()))
	}
	return strings.Join(msgs, "; ")
}

// respondJSON writes a JSON response. A body that cannot be encoded becomes a 500.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		status = http.StatusInternalServerError
		body, _ = json.Marshal(ErrorResponse{Error: "Failed to encode response", Message: err.Error()})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message, detail string) {
	respondJSON(w, status, ErrorResponse{Error: message, Message: detail})
}
