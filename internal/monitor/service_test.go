package monitor_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netzstatus/netzstatus/internal/departures"
	"github.com/netzstatus/netzstatus/internal/monitor"
	"github.com/netzstatus/netzstatus/internal/prefs"
	"github.com/netzstatus/netzstatus/internal/status"
)

func intPtr(v int) *int {
	return &v
}

// mockSource serves canned boards per station ID.
type mockSource struct {
	mu        sync.Mutex
	boards    map[string][]departures.Departure
	errors    map[string]error
	callCount int
}

func (m *mockSource) Departures(_ context.Context, stationID string, _ time.Duration) ([]departures.Departure, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount++

	if err, ok := m.errors[stationID]; ok {
		return nil, err
	}
	return m.boards[stationID], nil
}

func (m *mockSource) Name() string {
	return "mock"
}

func (m *mockSource) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

func onLine(name, product string, delay *int, cancelled bool) departures.Departure {
	return departures.Departure{
		Line:      &departures.Line{Name: name, Product: product},
		Delay:     delay,
		Cancelled: cancelled,
	}
}

func newService(source monitor.Source, store *prefs.Store, cfg monitor.Config) *monitor.Service {
	if store == nil {
		store = prefs.NewStore(prefs.NewInMemoryRepository(), zerolog.Nop())
	}
	return monitor.NewService(monitor.ServiceConfig{
		Config:      cfg,
		Source:      source,
		Preferences: store,
		Logger:      zerolog.Nop(),
	})
}

func twoStations() monitor.Config {
	return monitor.Config{
		Stations: []monitor.Station{
			{ID: "a", Name: "Station A"},
			{ID: "b", Name: "Station B"},
		},
		Thresholds: status.Thresholds{DelaySeconds: 300, DegradedRatio: 0.25, FuckedRatio: 0.5},
	}
}

func TestService_Refresh_MergesStations(t *testing.T) {
	source := &mockSource{
		boards: map[string][]departures.Departure{
			"a": {
				onLine("U8", "subway", intPtr(600), false),
				onLine("U8", "subway", intPtr(0), false),
			},
			"b": {
				onLine("S1", "suburban", nil, true),
				onLine("S1", "suburban", intPtr(0), false),
			},
		},
	}
	service := newService(source, nil, twoStations())

	snapshot, err := service.Refresh(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, snapshot.Metrics.TotalServices)
	assert.Equal(t, 1, snapshot.Metrics.DelayedCount)
	assert.Equal(t, 1, snapshot.Metrics.CancelledCount)
	assert.Equal(t, status.VerdictDegraded, snapshot.Verdict) // ratio 0.5 does not clear the FUCKED boundary
	assert.Equal(t, []string{"S1", "U8"}, snapshot.Filter.AvailableLines)
	assert.Equal(t, []string{}, snapshot.Filter.SelectedLines)
	assert.Equal(t, 2, snapshot.StationsPolled)
	assert.Equal(t, 0, snapshot.StationsFailed)
	assert.Equal(t, "mock", snapshot.Provider)
}

func TestService_Refresh_ToleratesPartialFailure(t *testing.T) {
	source := &mockSource{
		boards: map[string][]departures.Departure{
			"a": {onLine("U8", "subway", nil, true)},
		},
		errors: map[string]error{
			"b": errors.New("fetch failed"),
		},
	}
	service := newService(source, nil, twoStations())

	snapshot, err := service.Refresh(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, snapshot.Metrics.TotalServices)
	assert.Equal(t, 1, snapshot.StationsFailed)
	assert.Equal(t, status.VerdictFucked, snapshot.Verdict)
}

func TestService_Refresh_AllStationsFailed(t *testing.T) {
	source := &mockSource{
		errors: map[string]error{
			"a": errors.New("down"),
			"b": errors.New("down"),
		},
	}
	service := newService(source, nil, twoStations())

	_, err := service.Refresh(context.Background())
	assert.ErrorIs(t, err, monitor.ErrNoData)
}

func TestService_Refresh_EmptyBoardsAreUnknown(t *testing.T) {
	// Successful fetches with no departures: no service right now, which
	// is indistinguishable from missing data and reported as UNKNOWN.
	source := &mockSource{boards: map[string][]departures.Departure{}}
	service := newService(source, nil, twoStations())

	snapshot, err := service.Refresh(context.Background())
	require.NoError(t, err)

	assert.Equal(t, status.VerdictUnknown, snapshot.Verdict)
	assert.Equal(t, status.Metrics{}, snapshot.Metrics)
}

func TestService_Refresh_AppliesStoredSelection(t *testing.T) {
	store := prefs.NewStore(prefs.NewInMemoryRepository(), zerolog.Nop())
	store.Save(context.Background(), []string{"U8"})

	source := &mockSource{
		boards: map[string][]departures.Departure{
			"a": {
				onLine("U8", "subway", nil, true),
				onLine("S1", "suburban", intPtr(0), false),
				onLine("S1", "suburban", intPtr(0), false),
			},
		},
	}
	cfg := twoStations()
	cfg.Stations = cfg.Stations[:1]
	service := newService(source, store, cfg)

	snapshot, err := service.Refresh(context.Background())
	require.NoError(t, err)

	// Only the single U8 departure survives the filter.
	assert.Equal(t, 1, snapshot.Metrics.TotalServices)
	assert.Equal(t, status.VerdictFucked, snapshot.Verdict)
	assert.Equal(t, []string{"U8"}, snapshot.Filter.SelectedLines)
	assert.Equal(t, []string{"S1", "U8"}, snapshot.Filter.AvailableLines)
}

func TestService_Refresh_PrunesStaleSelection(t *testing.T) {
	store := prefs.NewStore(prefs.NewInMemoryRepository(), zerolog.Nop())
	store.Save(context.Background(), []string{"U8", "U55"}) // U55 no longer exists

	source := &mockSource{
		boards: map[string][]departures.Departure{
			"a": {onLine("U8", "subway", intPtr(0), false)},
		},
	}
	cfg := twoStations()
	cfg.Stations = cfg.Stations[:1]
	service := newService(source, store, cfg)

	snapshot, err := service.Refresh(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"U8"}, snapshot.Filter.SelectedLines)
	// The pruned selection is written back to storage.
	assert.Equal(t, []string{"U8"}, store.Load(context.Background()))
}

func TestService_Current_ServesCachedSnapshot(t *testing.T) {
	source := &mockSource{
		boards: map[string][]departures.Departure{
			"a": {onLine("U8", "subway", intPtr(0), false)},
		},
	}
	cfg := twoStations()
	cfg.Stations = cfg.Stations[:1]
	cfg.CacheTTL = time.Hour
	service := newService(source, nil, cfg)

	_, err := service.Current(context.Background())
	require.NoError(t, err)
	_, err = service.Current(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, source.calls(), "second call must hit the cache")
}

func TestService_Current_ServesStaleOnError(t *testing.T) {
	source := &mockSource{
		boards: map[string][]departures.Departure{
			"a": {onLine("U8", "subway", intPtr(0), false)},
		},
	}
	cfg := twoStations()
	cfg.Stations = cfg.Stations[:1]
	cfg.CacheTTL = time.Nanosecond // force a refresh on every call
	cfg.StaleIfErrorTTL = time.Hour
	service := newService(source, nil, cfg)

	first, err := service.Current(context.Background())
	require.NoError(t, err)

	// Upstream goes dark; the previous snapshot is still served.
	source.mu.Lock()
	source.errors = map[string]error{"a": errors.New("down")}
	source.mu.Unlock()

	second, err := service.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestService_SetSelectedLines(t *testing.T) {
	store := prefs.NewStore(prefs.NewInMemoryRepository(), zerolog.Nop())
	source := &mockSource{
		boards: map[string][]departures.Departure{
			"a": {
				onLine("U8", "subway", nil, true),
				onLine("S1", "suburban", intPtr(0), false),
			},
		},
	}
	cfg := twoStations()
	cfg.Stations = cfg.Stations[:1]
	service := newService(source, store, cfg)

	_, err := service.Refresh(context.Background())
	require.NoError(t, err)
	calls := source.calls()

	snapshot, err := service.SetSelectedLines(context.Background(), []string{"S1", "U9"})
	require.NoError(t, err)

	// Recomputed from the cached batch, no refetch; stale U9 dropped.
	assert.Equal(t, calls, source.calls())
	assert.Equal(t, []string{"S1"}, snapshot.Filter.SelectedLines)
	assert.Equal(t, 1, snapshot.Metrics.TotalServices)
	assert.Equal(t, status.VerdictFine, snapshot.Verdict)
	assert.Equal(t, []string{"S1"}, store.Load(context.Background()))
}

func TestService_SetSelectedLines_BeforeFirstRefresh(t *testing.T) {
	service := newService(&mockSource{}, nil, twoStations())

	_, err := service.SetSelectedLines(context.Background(), []string{"U8"})
	assert.ErrorIs(t, err, monitor.ErrNoData)
}
