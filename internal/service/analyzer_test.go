package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/kalshi-analyzer/internal/calculator"
	"github.com/yourusername/kalshi-analyzer/internal/datasource"
	"github.com/yourusername/kalshi-analyzer/internal/models"
	"github.com/yourusername/kalshi-analyzer/internal/store"
)

// MockEventSource mocks an event source
type MockEventSource struct {
	mock.Mock
}

func (m *MockEventSource) Name() string {
	return "kalshi"
}

func (m *MockEventSource) FetchEvents(ctx context.Context) (*datasource.Batch, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*datasource.Batch), args.Error(1)
}

var testNow = time.Date(2025, 10, 19, 12, 0, 0, 0, time.UTC)

func newTestService(src datasource.EventSource) *AnalyzerService {
	return NewAnalyzerService(src, store.NewMemoryStore(time.Minute), nil, nil, nil, Config{})
}

func mockService() *AnalyzerService {
	return newTestService(datasource.NewMockSource(func() time.Time { return testNow }))
}

func TestRefreshStoresSnapshot(t *testing.T) {
	svc := mockService()

	require.NoError(t, svc.Refresh(context.Background()))

	snap, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, datasource.MockSourceName, snap.Source)
	assert.Len(t, snap.Events, 3)
	assert.Equal(t, testNow, snap.FetchedAt)
}

func TestLastRefresh(t *testing.T) {
	src := &MockEventSource{}
	src.On("FetchEvents", mock.Anything).Return(&datasource.Batch{Source: "kalshi"}, nil).Once()
	src.On("FetchEvents", mock.Anything).Return(nil, errors.New("upstream down")).Once()

	svc := newTestService(src)
	svc.now = func() time.Time { return testNow }
	assert.True(t, svc.LastRefresh().IsZero())

	require.NoError(t, svc.Refresh(context.Background()))
	assert.Equal(t, testNow, svc.LastRefresh())

	svc.now = func() time.Time { return testNow.Add(time.Hour) }
	require.Error(t, svc.Refresh(context.Background()))
	assert.Equal(t, testNow, svc.LastRefresh())
}

func TestSnapshotRefreshesWhenEmpty(t *testing.T) {
	src := &MockEventSource{}
	src.On("FetchEvents", mock.Anything).Return(&datasource.Batch{
		Source: "kalshi",
		Events: []models.Event{{ID: "EPL-1", HomeTeam: "Arsenal", AwayTeam: "Chelsea", League: "Premier League"}},
	}, nil).Once()

	svc := newTestService(src)
	svc.now = func() time.Time { return testNow }

	snap, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testNow, snap.FetchedAt)

	_, err = svc.Snapshot(context.Background())
	require.NoError(t, err)
	src.AssertNumberOfCalls(t, "FetchEvents", 1)
}

func TestRefreshError(t *testing.T) {
	src := &MockEventSource{}
	src.On("FetchEvents", mock.Anything).Return(nil, errors.New("upstream down"))

	svc := newTestService(src)
	err := svc.Refresh(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream down")

	_, err = svc.Snapshot(context.Background())
	assert.Error(t, err)
}

func TestEventsFilter(t *testing.T) {
	svc := mockService()

	events, _, err := svc.Events(context.Background(), "liga")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "mock-2", events[0].ID)

	events, _, err = svc.Events(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, events, 3)
}

func TestEventNotFound(t *testing.T) {
	svc := mockService()

	_, err := svc.Event(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrEventNotFound)
}

func TestCalculateEvent(t *testing.T) {
	svc := mockService()
	inputs := calculator.UserInputs{
		ExchangeOdds:   calculator.OutcomeInputs{Home: "2.8"},
		WorkEvent:      true,
		MaxLossPercent: "10",
	}

	ev, result, err := svc.CalculateEvent(context.Background(), "mock-1", inputs, 0)
	require.NoError(t, err)
	assert.Equal(t, "Manchester United", ev.HomeTeam)
	assert.Equal(t, 100.0, result.TotalStake)
	assert.Equal(t, calculator.SourceExchange, result.Legs.Home.Source)
	assert.Equal(t, calculator.PolicyProfitPreserving, result.Policy)
	assert.InDelta(t, 100, result.TotalStaked(), 1e-9)
}

func TestEvaluateAllKeepsOrder(t *testing.T) {
	svc := mockService()

	results, err := svc.EvaluateAll(context.Background(), "", calculator.UserInputs{}, 250)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for i, id := range []string{"mock-1", "mock-2", "mock-3"} {
		assert.Equal(t, id, results[i].Event.ID)
		assert.Equal(t, 250.0, results[i].Result.TotalStake)
		assert.Equal(t, calculator.PolicyFairBook, results[i].Result.Policy)
	}
}

func TestEvaluateAllCancelled(t *testing.T) {
	svc := mockService()
	require.NoError(t, svc.Refresh(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.EvaluateAll(ctx, "", calculator.UserInputs{}, 100)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSubscribeReceivesSnapshots(t *testing.T) {
	svc := mockService()
	id, ch := svc.Subscribe()

	require.NoError(t, svc.Refresh(context.Background()))

	select {
	case snap := <-ch:
		assert.Len(t, snap.Events, 3)
	case <-time.After(time.Second):
		t.Fatal("expected snapshot")
	}

	svc.Unsubscribe(id)
	_, open := <-ch
	assert.False(t, open)

	svc.Unsubscribe(id)
}

func TestPing(t *testing.T) {
	assert.NoError(t, mockService().Ping(context.Background()))
}
