package worker_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netzstatus/netzstatus/internal/monitor"
	"github.com/netzstatus/netzstatus/internal/status"
	"github.com/netzstatus/netzstatus/internal/worker"
)

// stubRefresher counts calls and returns a canned snapshot or error.
type stubRefresher struct {
	calls    atomic.Int64
	snapshot *monitor.Snapshot
	err      error
}

func (s *stubRefresher) Refresh(_ context.Context) (*monitor.Snapshot, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return s.snapshot, nil
}

func fineSnapshot() *monitor.Snapshot {
	return &monitor.Snapshot{
		Verdict:     status.VerdictFine,
		Metrics:     status.Metrics{TotalServices: 10},
		GeneratedAt: time.Now(),
	}
}

func TestDefaultRefreshConfig(t *testing.T) {
	cfg := worker.DefaultRefreshConfig()

	assert.Equal(t, 60*time.Second, cfg.Interval)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
}

func TestRefreshJob_Run(t *testing.T) {
	refresher := &stubRefresher{snapshot: fineSnapshot()}
	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Monitor: refresher,
		Logger:  zerolog.Nop(),
	})

	result := job.Run(context.Background())

	require.NoError(t, result.Err)
	require.NotNil(t, result.Snapshot)
	assert.Equal(t, status.VerdictFine, result.Snapshot.Verdict)
	assert.Equal(t, int64(1), refresher.calls.Load())

	metrics := job.GetMetrics()
	assert.Equal(t, int64(1), metrics.TotalRefreshes)
	assert.Equal(t, int64(1), metrics.SuccessfulRefreshes)
	assert.Equal(t, int64(0), metrics.FailedRefreshes)
	assert.Equal(t, string(status.VerdictFine), metrics.LastVerdict)
}

func TestRefreshJob_RunFailure(t *testing.T) {
	refresher := &stubRefresher{err: errors.New("upstream down")}
	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Monitor: refresher,
		Logger:  zerolog.Nop(),
	})

	result := job.Run(context.Background())

	require.Error(t, result.Err)
	assert.Nil(t, result.Snapshot)

	metrics := job.GetMetrics()
	assert.Equal(t, int64(1), metrics.TotalRefreshes)
	assert.Equal(t, int64(1), metrics.FailedRefreshes)
	assert.Empty(t, metrics.LastVerdict)
}

func TestRefreshJob_RunLoop_TicksUntilCancelled(t *testing.T) {
	refresher := &stubRefresher{snapshot: fineSnapshot()}
	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config: worker.RefreshConfig{
			Interval: 10 * time.Millisecond,
			Timeout:  time.Second,
		},
		Monitor: refresher,
		Logger:  zerolog.Nop(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		job.RunLoop(ctx)
		close(done)
	}()

	// Immediate run plus at least one tick.
	assert.Eventually(t, func() bool {
		return refresher.calls.Load() >= 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("run loop did not stop after cancel")
	}
}

func TestRefreshJob_MetricsSnapshot(t *testing.T) {
	refresher := &stubRefresher{snapshot: fineSnapshot()}
	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Monitor: refresher,
		Logger:  zerolog.Nop(),
	})

	job.Run(context.Background())

	snap := job.MetricsSnapshot()
	assert.Equal(t, int64(1), snap["total_refreshes"])
	assert.Equal(t, string(status.VerdictFine), snap["last_verdict"])
}
