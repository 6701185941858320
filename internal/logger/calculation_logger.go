// Package logger provides calculation-specific logging.
package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// CalculationLogger provides dedicated logging for stake calculations.
type CalculationLogger struct {
	*logrus.Entry
}

// NewCalculationLogger creates a new calculation logger.
func NewCalculationLogger(baseLogger *logrus.Logger) *CalculationLogger {
	return &CalculationLogger{
		Entry: baseLogger.WithField("component", "calculator"),
	}
}

// CalculationRecord is the loggable summary of one calculation.
type CalculationRecord struct {
	EventID    string
	Policy     string
	Zebra      string
	TotalStake float64
	MaxLoss    float64
	HedgeUsed  bool
	Duration   time.Duration
}

// LogCalculation logs a completed stake calculation.
func (cl *CalculationLogger) LogCalculation(rec CalculationRecord) {
	fields := logrus.Fields{
		"event_id":    rec.EventID,
		"policy":      rec.Policy,
		"total_stake": rec.TotalStake,
		"max_loss":    rec.MaxLoss,
		"hedge_used":  rec.HedgeUsed,
		"duration_ms": float64(rec.Duration.Microseconds()) / 1000,
	}
	if rec.Zebra != "" {
		fields["zebra"] = rec.Zebra
	}
	cl.WithFields(fields).Debug("Stake calculation completed")
}

// LogBatch logs a batch calculation over a snapshot.
func (cl *CalculationLogger) LogBatch(snapshotID string, events int, duration time.Duration) {
	cl.WithFields(logrus.Fields{
		"snapshot_id": snapshotID,
		"events":      events,
		"duration_ms": float64(duration.Microseconds()) / 1000,
	}).Info("Batch calculation completed")
}
