package datasource

import (
	"context"
	"fmt"

	"github.com/yourusername/kalshi-analyzer/internal/logger"
)

// FallbackSource serves events from a fallback source when the primary has none
type FallbackSource struct {
	primary  EventSource
	fallback EventSource
	// onError also falls back when the primary fails instead of returning its error
	onError bool
	logger  *logger.SourceLogger
}

// NewFallbackSource wraps primary with fallback
func NewFallbackSource(primary, fallback EventSource, onError bool, log *logger.SourceLogger) *FallbackSource {
	return &FallbackSource{primary: primary, fallback: fallback, onError: onError, logger: log}
}

// Name returns the primary source name
func (f *FallbackSource) Name() string {
	return f.primary.Name()
}

// FetchEvents fetches from the primary, using the fallback when it returns no events
func (f *FallbackSource) FetchEvents(ctx context.Context) (*Batch, error) {
	batch, err := f.primary.FetchEvents(ctx)
	if err != nil {
		if !f.onError {
			return nil, err
		}
		return f.useFallback(ctx, fmt.Sprintf("primary failed: %v", err))
	}
	if len(batch.Events) == 0 {
		return f.useFallback(ctx, "no events returned")
	}
	return batch, nil
}

func (f *FallbackSource) useFallback(ctx context.Context, reason string) (*Batch, error) {
	if f.logger != nil {
		f.logger.LogFallback(f.primary.Name(), f.fallback.Name(), reason)
	}
	return f.fallback.FetchEvents(ctx)
}
