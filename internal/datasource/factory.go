package datasource

import (
	"fmt"
	"log"
	"time"

	"github.com/yourusername/kalshi-analyzer/internal/config"
	"github.com/yourusername/kalshi-analyzer/internal/logger"
	"github.com/yourusername/kalshi-analyzer/internal/metrics"
)

// Factory creates EventSource implementations based on configuration
type Factory struct {
	config       *config.Config
	logger       *log.Logger
	sourceLogger *logger.SourceLogger
}

// NewFactory creates a new event source factory
func NewFactory(cfg *config.Config, stdLogger *log.Logger, sourceLogger *logger.SourceLogger) *Factory {
	return &Factory{
		config:       cfg,
		logger:       stdLogger,
		sourceLogger: sourceLogger,
	}
}

// NewHTTPClient builds the rate-limited upstream client from the kalshi section
func (f *Factory) NewHTTPClient() *RateLimitedHTTPClient {
	httpCfg := DefaultHTTPClientConfig()
	httpCfg.Timeout = f.config.KalshiTimeout()
	httpCfg.MaxRetries = f.config.Kalshi.MaxRetries
	httpCfg.RateLimit = f.config.Kalshi.RateLimit

	client := NewRateLimitedHTTPClient(httpCfg, f.logger)
	client.OnTrip(func(failures int, openUntil time.Time) {
		metrics.RecordCircuitBreakerTrip()
		if f.sourceLogger != nil {
			f.sourceLogger.LogCircuitBreakerEvent("opened", failures, openUntil)
		}
	})
	return client
}

// NewEventSource creates the configured event source.
// Kalshi is wrapped with the mock fallback when refresh.mock_fallback is set.
func (f *Factory) NewEventSource() (EventSource, error) {
	mock := NewMockSource(nil)

	if !f.config.Kalshi.Enabled {
		if !f.config.Refresh.MockFallback {
			return nil, fmt.Errorf("no enabled event sources configured")
		}
		return mock, nil
	}

	var signer *Signer
	if f.config.HasKalshiCredentials() {
		s, err := NewSigner(f.config.Kalshi.KeyID, f.config.Kalshi.PrivateKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create kalshi signer: %w", err)
		}
		signer = s
	} else if f.logger != nil {
		f.logger.Printf("Kalshi credentials not configured; live fetches will fail")
	}

	kalshi := NewKalshiClient(f.NewHTTPClient(), f.config.Kalshi.APIURL, signer, f.config.Kalshi.EventLimit, f.logger)
	if !f.config.Refresh.MockFallback {
		return kalshi, nil
	}
	return NewFallbackSource(kalshi, mock, f.config.Refresh.FallbackOnError, f.sourceLogger), nil
}
