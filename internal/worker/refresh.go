package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/netzstatus/netzstatus/internal/monitor"
)

// Refresher produces a fresh network snapshot. Satisfied by
// monitor.Service.
type Refresher interface {
	Refresh(ctx context.Context) (*monitor.Snapshot, error)
}

// RefreshJob re-polls the departure boards on a schedule so the API
// serves warm snapshots instead of refreshing on the request path.
type RefreshJob struct {
	config  RefreshConfig
	monitor Refresher
	logger  zerolog.Logger

	metrics *RefreshMetrics
}

// RefreshMetrics tracks refresh job statistics.
type RefreshMetrics struct {
	mu sync.RWMutex

	TotalRefreshes      int64
	SuccessfulRefreshes int64
	FailedRefreshes     int64

	LastRefreshAt       time.Time
	LastRefreshDuration time.Duration
	LastVerdict         string
}

// RefreshJobConfig holds configuration for creating a RefreshJob.
type RefreshJobConfig struct {
	Config  RefreshConfig
	Monitor Refresher
	Logger  zerolog.Logger
}

// NewRefreshJob creates a new refresh job processor.
func NewRefreshJob(cfg RefreshJobConfig) *RefreshJob {
	config := cfg.Config
	if config.Interval <= 0 {
		config.Interval = DefaultRefreshConfig().Interval
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultRefreshConfig().Timeout
	}

	return &RefreshJob{
		config:  config,
		monitor: cfg.Monitor,
		logger:  cfg.Logger,
		metrics: &RefreshMetrics{},
	}
}

// RefreshResult contains the result of one refresh cycle.
type RefreshResult struct {
	StartTime time.Time
	Duration  time.Duration
	Snapshot  *monitor.Snapshot
	Err       error
}

// Run executes a single refresh cycle.
func (j *RefreshJob) Run(ctx context.Context) *RefreshResult {
	start := time.Now()

	cycleCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	snapshot, err := j.monitor.Refresh(cycleCtx)

	result := &RefreshResult{
		StartTime: start,
		Duration:  time.Since(start),
		Snapshot:  snapshot,
		Err:       err,
	}
	j.updateMetrics(result)

	if err != nil {
		j.logger.Error().
			Err(err).
			Dur("duration", result.Duration).
			Msg("snapshot refresh failed")
		return result
	}

	j.logger.Info().
		Str("verdict", string(snapshot.Verdict)).
		Int("total_services", snapshot.Metrics.TotalServices).
		Int("stations_failed", snapshot.StationsFailed).
		Dur("duration", result.Duration).
		Msg("snapshot refresh completed")

	return result
}

// RunLoop refreshes immediately and then on every interval tick until the
// context is cancelled.
func (j *RefreshJob) RunLoop(ctx context.Context) {
	j.logger.Info().
		Dur("interval", j.config.Interval).
		Msg("starting refresh loop")

	j.Run(ctx)

	ticker := time.NewTicker(j.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.logger.Info().Msg("refresh loop stopped")
			return
		case <-ticker.C:
			j.Run(ctx)
		}
	}
}

func (j *RefreshJob) updateMetrics(result *RefreshResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRefreshes++
	if result.Err != nil {
		j.metrics.FailedRefreshes++
	} else {
		j.metrics.SuccessfulRefreshes++
		j.metrics.LastVerdict = string(result.Snapshot.Verdict)
	}
	j.metrics.LastRefreshAt = result.StartTime
	j.metrics.LastRefreshDuration = result.Duration
}

// GetMetrics returns a copy of the current metrics.
func (j *RefreshJob) GetMetrics() RefreshMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return RefreshMetrics{
		TotalRefreshes:      j.metrics.TotalRefreshes,
		SuccessfulRefreshes: j.metrics.SuccessfulRefreshes,
		FailedRefreshes:     j.metrics.FailedRefreshes,
		LastRefreshAt:       j.metrics.LastRefreshAt,
		LastRefreshDuration: j.metrics.LastRefreshDuration,
		LastVerdict:         j.metrics.LastVerdict,
	}
}

// MetricsSnapshot returns the current metrics as a map for logging.
func (j *RefreshJob) MetricsSnapshot() map[string]interface{} {
	m := j.GetMetrics()
	return map[string]interface{}{
		"total_refreshes":       m.TotalRefreshes,
		"successful_refreshes":  m.SuccessfulRefreshes,
		"failed_refreshes":      m.FailedRefreshes,
		"last_refresh_at":       m.LastRefreshAt,
		"last_refresh_duration": m.LastRefreshDuration.String(),
		"last_verdict":          m.LastVerdict,
	}
}
