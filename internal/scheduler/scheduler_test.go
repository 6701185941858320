package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRefresher struct {
	calls atomic.Int32
}

func (r *countingRefresher) Refresh(ctx context.Context) error {
	r.calls.Add(1)
	return nil
}

func TestScheduleRefreshClampsInterval(t *testing.T) {
	s := NewScheduler(&countingRefresher{}, nil)
	require.NoError(t, s.ScheduleRefresh(1))
	require.NoError(t, s.Start())
	defer s.Stop()

	entries := s.Entries()
	require.Len(t, entries, 1)
	next := s.GetNextRun()
	assert.WithinDuration(t, time.Now().Add(MinRefreshInterval*time.Second), next, 2*time.Second)
}

func TestStartRequiresJobs(t *testing.T) {
	s := NewScheduler(&countingRefresher{}, nil)
	assert.Error(t, s.Start())
}

func TestScheduleWhileRunning(t *testing.T) {
	s := NewScheduler(&countingRefresher{}, nil)
	require.NoError(t, s.ScheduleRefresh(60))
	require.NoError(t, s.Start())
	defer s.Stop()

	assert.True(t, s.IsRunning())
	assert.Error(t, s.ScheduleRefresh(60))
	assert.Error(t, s.Start())
}

func TestScheduleCronInvalid(t *testing.T) {
	s := NewScheduler(&countingRefresher{}, nil)
	assert.Error(t, s.ScheduleCron("not a cron"))
	assert.NoError(t, s.ScheduleCron("*/5 * * * *"))
}

func TestStop(t *testing.T) {
	s := NewScheduler(&countingRefresher{}, nil)
	assert.NoError(t, s.Stop())

	require.NoError(t, s.ScheduleRefresh(60))
	require.NoError(t, s.Start())
	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.True(t, s.GetNextRun().IsZero())
}
