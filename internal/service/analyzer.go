// Package service wires the event source, the snapshot store and the stake calculator.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/kalshi-analyzer/internal/calculator"
	"github.com/yourusername/kalshi-analyzer/internal/datasource"
	"github.com/yourusername/kalshi-analyzer/internal/logger"
	"github.com/yourusername/kalshi-analyzer/internal/metrics"
	"github.com/yourusername/kalshi-analyzer/internal/models"
	"github.com/yourusername/kalshi-analyzer/internal/store"
)

const (
	defaultTotalStake  = 100.0
	defaultConcurrency = 8
	subscriberBuffer   = 4
)

// Config holds the analyzer defaults
type Config struct {
	DefaultTotalStake float64
	Concurrency       int
}

// EventCalculation is the result of one event in a batch calculation
type EventCalculation struct {
	Event  models.Event      `json:"event"`
	Result calculator.Result `json:"result"`
}

// AnalyzerService serves event snapshots and stake calculations
type AnalyzerService struct {
	source       datasource.EventSource
	store        store.EventStore
	engine       *calculator.Engine
	calcLogger   *logger.CalculationLogger
	sourceLogger *logger.SourceLogger
	cfg          Config
	now          func() time.Time

	refreshMu   sync.Mutex
	lastRefresh atomic.Int64
	subMu       sync.RWMutex
	subscribers map[uuid.UUID]chan *models.Snapshot
}

// NewAnalyzerService creates a new analyzer service
func NewAnalyzerService(
	source datasource.EventSource,
	eventStore store.EventStore,
	engine *calculator.Engine,
	calcLogger *logger.CalculationLogger,
	sourceLogger *logger.SourceLogger,
	cfg Config,
) *AnalyzerService {
	if cfg.DefaultTotalStake <= 0 {
		cfg.DefaultTotalStake = defaultTotalStake
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if engine == nil {
		engine = calculator.NewEngine(calculator.DefaultOptions())
	}

	return &AnalyzerService{
		source:       source,
		store:        eventStore,
		engine:       engine,
		calcLogger:   calcLogger,
		sourceLogger: sourceLogger,
		cfg:          cfg,
		now:          time.Now,
		subscribers:  make(map[uuid.UUID]chan *models.Snapshot),
	}
}

// DefaultTotalStake returns the stake used when a request omits one
func (s *AnalyzerService) DefaultTotalStake() float64 {
	return s.cfg.DefaultTotalStake
}

// Refresh fetches events from the source and stores a new snapshot.
// Concurrent calls are serialized.
func (s *AnalyzerService) Refresh(ctx context.Context) error {
	_, err := s.refresh(ctx)
	return err
}

func (s *AnalyzerService) refresh(ctx context.Context) (*models.Snapshot, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	start := time.Now()
	batch, err := s.source.FetchEvents(ctx)
	if err != nil {
		metrics.RecordRefresh(s.source.Name(), "error", time.Since(start).Seconds())
		if s.sourceLogger != nil {
			s.sourceLogger.LogRefreshError(s.source.Name(), err)
		}
		return nil, fmt.Errorf("failed to fetch events: %w", err)
	}

	fetchedAt := batch.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = s.now()
	}
	snapshot := models.NewSnapshot(batch.Source, fetchedAt, batch.Events)

	if err := s.store.Put(ctx, snapshot); err != nil {
		metrics.RecordRefresh(batch.Source, "error", time.Since(start).Seconds())
		return nil, fmt.Errorf("failed to store snapshot: %w", err)
	}

	s.lastRefresh.Store(s.now().UnixNano())
	duration := time.Since(start)
	metrics.RecordRefresh(batch.Source, "success", duration.Seconds())
	metrics.UpdateEventsAvailable(len(snapshot.Events), snapshot.FetchedAt.Unix())
	if s.sourceLogger != nil {
		s.sourceLogger.LogRefresh(snapshot.ID.String(), snapshot.Source, len(snapshot.Events), duration)
	}

	s.publish(snapshot)
	return snapshot, nil
}

// LastRefresh returns when this process last stored a snapshot, or the zero time
func (s *AnalyzerService) LastRefresh() time.Time {
	ns := s.lastRefresh.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns).UTC()
}

// Snapshot returns the stored snapshot, refreshing first when none is stored
func (s *AnalyzerService) Snapshot(ctx context.Context) (*models.Snapshot, error) {
	snapshot, err := s.store.Latest(ctx)
	if err == nil {
		return snapshot, nil
	}
	if !errors.Is(err, models.ErrSnapshotNotFound) {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return s.refresh(ctx)
}

// Events returns the events of the current snapshot matching the search term
func (s *AnalyzerService) Events(ctx context.Context, query string) ([]models.Event, *models.Snapshot, error) {
	snapshot, err := s.Snapshot(ctx)
	if err != nil {
		return nil, nil, err
	}
	return snapshot.Filter(query), snapshot, nil
}

// Event returns a single event from the current snapshot
func (s *AnalyzerService) Event(ctx context.Context, id string) (*models.Event, error) {
	snapshot, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	ev := snapshot.FindEvent(id)
	if ev == nil {
		return nil, fmt.Errorf("%w: %s", models.ErrEventNotFound, id)
	}
	return ev, nil
}

// Calculate runs the stake calculation and records it
func (s *AnalyzerService) Calculate(eventID string, quote calculator.MarketQuote, risk calculator.RiskConfig, totalStake float64) calculator.Result {
	if totalStake <= 0 {
		totalStake = s.cfg.DefaultTotalStake
	}

	start := time.Now()
	result := s.engine.Calculate(quote, risk, totalStake)
	duration := time.Since(start)

	metrics.RecordCalculation(string(result.Policy), result.HedgeUsed, duration.Seconds())
	if s.calcLogger != nil {
		rec := logger.CalculationRecord{
			EventID:    eventID,
			Policy:     string(result.Policy),
			TotalStake: result.TotalStake,
			MaxLoss:    result.MaxLoss,
			HedgeUsed:  result.HedgeUsed,
			Duration:   duration,
		}
		if result.Zebra != nil {
			rec.Zebra = result.Zebra.String()
		}
		s.calcLogger.LogCalculation(rec)
	}
	return result
}

// CalculateEvent calculates stakes for a stored event from raw user inputs
func (s *AnalyzerService) CalculateEvent(ctx context.Context, id string, inputs calculator.UserInputs, totalStake float64) (*models.Event, calculator.Result, error) {
	ev, err := s.Event(ctx, id)
	if err != nil {
		return nil, calculator.Result{}, err
	}
	result := s.Calculate(ev.ID, inputs.Quote(ev.KalshiProbs), inputs.Risk(), totalStake)
	return ev, result, nil
}

// EvaluateAll applies the same inputs to every event matching query in the current snapshot.
// Results keep the snapshot order.
func (s *AnalyzerService) EvaluateAll(ctx context.Context, query string, inputs calculator.UserInputs, totalStake float64) ([]EventCalculation, error) {
	events, snapshot, err := s.Events(ctx, query)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	results := make([]EventCalculation, len(events))
	risk := inputs.Risk()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for i := range events {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ev := events[i]
			results[i] = EventCalculation{
				Event:  ev,
				Result: s.Calculate(ev.ID, inputs.Quote(ev.KalshiProbs), risk, totalStake),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if s.calcLogger != nil {
		s.calcLogger.LogBatch(snapshot.ID.String(), len(results), time.Since(start))
	}
	return results, nil
}

// Subscribe registers for new snapshots. Slow subscribers miss snapshots rather than block refreshes.
func (s *AnalyzerService) Subscribe() (uuid.UUID, <-chan *models.Snapshot) {
	id := uuid.New()
	ch := make(chan *models.Snapshot, subscriberBuffer)

	s.subMu.Lock()
	s.subscribers[id] = ch
	s.subMu.Unlock()
	return id, ch
}

// Unsubscribe removes a subscription and closes its channel
func (s *AnalyzerService) Unsubscribe(id uuid.UUID) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	if ch, ok := s.subscribers[id]; ok {
		delete(s.subscribers, id)
		close(ch)
	}
}

func (s *AnalyzerService) publish(snapshot *models.Snapshot) {
	s.subMu.RLock()
	defer s.subMu.RUnlock()
	for _, ch := range s.subscribers {
		select {
		case ch <- snapshot:
		default:
		}
	}
}

// Ping checks the snapshot store
func (s *AnalyzerService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
