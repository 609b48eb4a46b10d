package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/netzstatus/netzstatus/internal/departures"
	"github.com/netzstatus/netzstatus/internal/linefilter"
	"github.com/netzstatus/netzstatus/internal/prefs"
	"github.com/netzstatus/netzstatus/internal/status"
)

// Monitor errors.
var (
	// ErrNoData is returned when every station fetch failed and no usable
	// stale snapshot remains.
	ErrNoData = errors.New("no departure data available")
)

// Source fetches one station's departure board.
type Source interface {
	// Departures fetches the normalized board for a station over the
	// look-ahead window.
	Departures(ctx context.Context, stationID string, window time.Duration) ([]departures.Departure, error)

	// Name returns the provider name for logging.
	Name() string
}

// Snapshot is one refresh cycle's complete result: the verdict with its
// metrics, the vehicle-type breakdown, and the reconciled filter state.
type Snapshot struct {
	Verdict   status.Verdict   `json:"verdict"`
	Metrics   status.Metrics   `json:"metrics"`
	Breakdown status.Breakdown `json:"breakdown"`
	Filter    linefilter.State `json:"filter"`

	GeneratedAt    time.Time `json:"generatedAt"`
	StationsPolled int       `json:"stationsPolled"`
	StationsFailed int       `json:"stationsFailed"`
	Provider       string    `json:"provider"`
}

// ServiceConfig holds the dependencies for creating a Service.
type ServiceConfig struct {
	Config      Config
	Source      Source
	Preferences *prefs.Store
	Logger      zerolog.Logger
}

// Service runs refresh cycles and caches the latest snapshot. The analysis
// itself is pure; all cross-cycle state lives here and in the preference
// store.
type Service struct {
	cfg    Config
	source Source
	prefs  *prefs.Store
	logger zerolog.Logger

	mu          sync.RWMutex
	snapshot    *Snapshot
	lastBatch   []departures.Departure
	refreshedAt time.Time
}

// NewService creates a new monitor service.
func NewService(cfg ServiceConfig) *Service {
	c := cfg.Config
	if len(c.Stations) == 0 {
		c.Stations = DefaultStations()
	}
	if c.Window <= 0 {
		c.Window = DefaultConfig().Window
	}
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConfig().Concurrency
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = DefaultConfig().FetchTimeout
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = DefaultConfig().CacheTTL
	}
	if c.StaleIfErrorTTL <= 0 {
		c.StaleIfErrorTTL = DefaultConfig().StaleIfErrorTTL
	}

	return &Service{
		cfg:    c,
		source: cfg.Source,
		prefs:  cfg.Preferences,
		logger: cfg.Logger,
	}
}

// Current returns the cached snapshot while it is fresh, refreshing
// otherwise. When a refresh fails outright, a stale snapshot within
// StaleIfErrorTTL is served instead.
func (s *Service) Current(ctx context.Context) (*Snapshot, error) {
	s.mu.RLock()
	if s.snapshot != nil && time.Since(s.refreshedAt) < s.cfg.CacheTTL {
		snapshot := s.snapshot
		s.mu.RUnlock()
		return snapshot, nil
	}
	s.mu.RUnlock()

	snapshot, err := s.Refresh(ctx)
	if err != nil {
		s.mu.RLock()
		defer s.mu.RUnlock()
		if s.snapshot != nil && time.Since(s.refreshedAt) < s.cfg.StaleIfErrorTTL {
			s.logger.Warn().
				Time("refreshed_at", s.refreshedAt).
				Msg("serving stale snapshot due to refresh failure")
			return s.snapshot, nil
		}
		return nil, err
	}

	return snapshot, nil
}

// Refresh fetches all station boards concurrently, merges the successful
// ones, reconciles the stored line selection against the fresh batch, and
// recomputes the snapshot.
//
// Partial fetch failure is tolerated: failed stations are logged and
// dropped from the batch. Only when every station fails does Refresh keep
// the previous snapshot and return an error.
func (s *Service) Refresh(ctx context.Context) (*Snapshot, error) {
	start := time.Now()
	merged, failed := s.fetchAll(ctx)

	if failed == len(s.cfg.Stations) {
		s.logger.Error().
			Int("stations", len(s.cfg.Stations)).
			Msg("all station fetches failed")
		return nil, ErrNoData
	}

	selected := s.loadSelection(ctx, merged)
	snapshot := s.compute(merged, selected)
	snapshot.StationsFailed = failed

	s.mu.Lock()
	s.snapshot = snapshot
	s.lastBatch = merged
	s.refreshedAt = snapshot.GeneratedAt
	s.mu.Unlock()

	s.logger.Info().
		Str("verdict", string(snapshot.Verdict)).
		Int("total_services", snapshot.Metrics.TotalServices).
		Int("disrupted", snapshot.Metrics.DisruptedCount).
		Int("stations_failed", failed).
		Dur("duration", time.Since(start)).
		Msg("snapshot refreshed")

	return snapshot, nil
}

// SetSelectedLines updates the active line filter. The selection is
// reconciled against the lines in the last fetched batch, persisted, and
// the snapshot recomputed without refetching.
func (s *Service) SetSelectedLines(ctx context.Context, lines []string) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snapshot == nil {
		return nil, ErrNoData
	}

	available := linefilter.ExtractUniqueLines(s.lastBatch)
	selected := linefilter.Reconcile(available, lines)
	s.prefs.Save(ctx, selected)

	snapshot := s.compute(s.lastBatch, selected)
	snapshot.StationsFailed = s.snapshot.StationsFailed
	s.snapshot = snapshot

	return snapshot, nil
}

// fetchAll fans out one fetch per station over a bounded worker pool and
// merges the successful boards.
func (s *Service) fetchAll(ctx context.Context) ([]departures.Departure, int) {
	stations := make(chan Station, len(s.cfg.Stations))
	results := make(chan stationResult, len(s.cfg.Stations))

	var wg sync.WaitGroup
	for i := 0; i < s.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for station := range stations {
				results <- s.fetchStation(ctx, station)
			}
		}()
	}

	for _, station := range s.cfg.Stations {
		stations <- station
	}
	close(stations)

	go func() {
		wg.Wait()
		close(results)
	}()

	var merged []departures.Departure
	failed := 0
	for result := range results {
		if result.err != nil {
			failed++
			s.logger.Warn().
				Err(result.err).
				Str("station", result.station.Name).
				Str("station_id", result.station.ID).
				Msg("station fetch failed, dropping from batch")
			continue
		}
		merged = append(merged, result.records...)
	}

	return merged, failed
}

type stationResult struct {
	station Station
	records []departures.Departure
	err     error
}

func (s *Service) fetchStation(ctx context.Context, station Station) stationResult {
	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()

	records, err := s.source.Departures(fetchCtx, station.ID, s.cfg.Window)
	return stationResult{station: station, records: records, err: err}
}

// loadSelection loads the persisted selection and reconciles it against the
// fresh batch. A pruned selection is written back so stale line names do
// not linger in storage.
func (s *Service) loadSelection(ctx context.Context, batch []departures.Departure) []string {
	stored := s.prefs.Load(ctx)
	if len(stored) == 0 {
		return nil
	}

	available := linefilter.ExtractUniqueLines(batch)
	selected := linefilter.Reconcile(available, stored)

	if len(selected) != len(stored) {
		s.logger.Debug().
			Int("stored", len(stored)).
			Int("kept", len(selected)).
			Msg("pruned stale lines from stored selection")
		s.prefs.Save(ctx, selected)
	}

	return selected
}

// compute runs the pure engine over one batch: filter, analyze, aggregate.
func (s *Service) compute(batch []departures.Departure, selected []string) *Snapshot {
	filtered := linefilter.FilterByLines(batch, selected)
	report := status.DetermineStatus(filtered, s.cfg.Thresholds)
	breakdown := status.AggregateByVehicleType(filtered, s.cfg.Thresholds)

	if selected == nil {
		selected = []string{}
	}

	return &Snapshot{
		Verdict:   report.Verdict,
		Metrics:   report.Metrics,
		Breakdown: breakdown,
		Filter: linefilter.State{
			AvailableLines: linefilter.ExtractUniqueLines(batch),
			SelectedLines:  selected,
		},
		GeneratedAt:    time.Now(),
		StationsPolled: len(s.cfg.Stations),
		Provider:       s.source.Name(),
	}
}
