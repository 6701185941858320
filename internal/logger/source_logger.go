// Package logger provides event source logging.
package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// SourceLogger records refresh cycles and fallback decisions for event sources.
type SourceLogger struct {
	*logrus.Entry
}

// NewSourceLogger creates a new event source logger.
func NewSourceLogger(baseLogger *logrus.Logger) *SourceLogger {
	return &SourceLogger{
		Entry: baseLogger.WithField("component", "events"),
	}
}

// LogRefresh logs a successful snapshot refresh.
func (sl *SourceLogger) LogRefresh(snapshotID, source string, events int, duration time.Duration) {
	sl.WithFields(logrus.Fields{
		"snapshot_id": snapshotID,
		"source":      source,
		"events":      events,
		"duration_ms": float64(duration.Microseconds()) / 1000,
	}).Info("Event snapshot refreshed")
}

// LogRefreshError logs a failed refresh cycle.
func (sl *SourceLogger) LogRefreshError(source string, err error) {
	sl.WithFields(logrus.Fields{
		"source": source,
		"error":  err.Error(),
	}).Error("Event refresh failed")
}

// LogFallback logs a switch from the primary source to the fallback.
func (sl *SourceLogger) LogFallback(primary, fallback, reason string) {
	sl.WithFields(logrus.Fields{
		"primary":  primary,
		"fallback": fallback,
		"reason":   reason,
	}).Warn("Serving events from fallback source")
}

// LogCircuitBreakerEvent logs circuit breaker transitions on the upstream client.
func (sl *SourceLogger) LogCircuitBreakerEvent(eventType string, failures int, openUntil time.Time) {
	sl.WithFields(logrus.Fields{
		"event_type": eventType,
		"failures":   failures,
		"open_until": openUntil.Unix(),
	}).Warn("Circuit breaker event recorded")
}
