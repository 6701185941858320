package datasource

import (
	"context"
	"errors"
	"time"

	"github.com/yourusername/kalshi-analyzer/internal/models"
)

// EventSource defines the interface for fetching football events from external providers
type EventSource interface {
	// FetchEvents retrieves the currently open football events
	FetchEvents(ctx context.Context) (*Batch, error)

	// Name returns the name of the event source
	Name() string
}

// Batch is one fetch result. Source names the provider that actually served the events,
// which differs from the configured source after a fallback.
type Batch struct {
	Source    string
	FetchedAt time.Time
	Events    []models.Event
}

// DataSourceError represents errors from event source operations
type DataSourceError struct {
	Source  string // Event source name
	Code    string // Error code (e.g., "rate_limit_exceeded")
	Message string // Error message
	Err     error  // Underlying error
}

func (e DataSourceError) Error() string {
	if e.Err != nil {
		return e.Source + ": " + e.Code + ": " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Source + ": " + e.Code + ": " + e.Message
}

// Unwrap returns the underlying error
func (e DataSourceError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrCodeRateLimitExceeded    = "rate_limit_exceeded"
	ErrCodeAuthenticationFailed = "authentication_failed"
	ErrCodeNotFound             = "not_found"
	ErrCodeInvalidData          = "invalid_data"
	ErrCodeNetworkError         = "network_error"
	ErrCodeServerError          = "server_error"
	ErrCodeUnknown              = "unknown"
)

// Sentinel errors wrapped by DataSourceError
var (
	ErrMissingCredentials = errors.New("missing Kalshi key id or private key")
	ErrCircuitOpen        = errors.New("circuit breaker open")
)

// NewDataSourceError creates a new data source error
func NewDataSourceError(source, code, message string, err error) DataSourceError {
	return DataSourceError{
		Source:  source,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// ErrorCode returns the DataSourceError code carried by err, or ErrCodeUnknown
func ErrorCode(err error) string {
	var dsErr DataSourceError
	if errors.As(err, &dsErr) {
		return dsErr.Code
	}
	return ErrCodeUnknown
}
