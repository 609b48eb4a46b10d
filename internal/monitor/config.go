// Package monitor drives the refresh cycle: fetch departure boards for the
// configured stations, apply the line filter, and reduce the batch to a
// network status snapshot.
package monitor

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/netzstatus/netzstatus/internal/status"
)

// Station is one departure board to poll.
type Station struct {
	// ID is the upstream stop ID (e.g., "900100003").
	ID string

	// Name is the human-readable station name, for logging and display.
	Name string
}

// Config holds the monitor's polling and analysis settings. It is built
// once at startup and threaded into the service explicitly.
type Config struct {
	// Stations are the departure boards merged into one batch per cycle.
	// If empty, uses DefaultStations.
	Stations []Station

	// Thresholds configure the status analysis.
	Thresholds status.Thresholds

	// Window is the departure-board look-ahead. Default: 10 minutes.
	Window time.Duration

	// Concurrency bounds the parallel station fetches. Default: 4.
	Concurrency int

	// FetchTimeout limits each station fetch. Default: 15 seconds.
	FetchTimeout time.Duration

	// CacheTTL is how long a snapshot is served without refreshing.
	// Default: 60 seconds.
	CacheTTL time.Duration

	// StaleIfErrorTTL allows serving a stale snapshot when every station
	// fetch fails. Default: 10 minutes.
	StaleIfErrorTTL time.Duration
}

// DefaultConfig returns the default monitor configuration.
func DefaultConfig() Config {
	return Config{
		Stations:        DefaultStations(),
		Thresholds:      status.DefaultThresholds(),
		Window:          10 * time.Minute,
		Concurrency:     4,
		FetchTimeout:    15 * time.Second,
		CacheTTL:        60 * time.Second,
		StaleIfErrorTTL: 10 * time.Minute,
	}
}

// DefaultStations returns the default set of Berlin hubs. The mix covers
// U-Bahn, S-Bahn, tram, and bus so the breakdown has data for every bucket.
func DefaultStations() []Station {
	return []Station{
		{ID: "900100003", Name: "S+U Alexanderplatz"},
		{ID: "900003201", Name: "S+U Berlin Hauptbahnhof"},
		{ID: "900023201", Name: "S+U Zoologischer Garten"},
		{ID: "900007102", Name: "U Osloer Str."},
		{ID: "900120005", Name: "S Ostkreuz"},
		{ID: "900100020", Name: "U Rosenthaler Platz"},
	}
}

// ConfigFromEnv builds a Config from environment variables, falling back to
// defaults for anything unset.
//
// STATIONS is a comma-separated list of "id:name" pairs; the name part is
// optional.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if raw := os.Getenv("STATIONS"); raw != "" {
		cfg.Stations = parseStations(raw)
	}
	if v, err := strconv.Atoi(os.Getenv("DELAY_THRESHOLD_SECONDS")); err == nil && v > 0 {
		cfg.Thresholds.DelaySeconds = v
	}
	if v, err := strconv.ParseFloat(os.Getenv("DEGRADED_RATIO"), 64); err == nil {
		cfg.Thresholds.DegradedRatio = v
	}
	if v, err := strconv.ParseFloat(os.Getenv("FUCKED_RATIO"), 64); err == nil {
		cfg.Thresholds.FuckedRatio = v
	}
	if v, err := time.ParseDuration(os.Getenv("DEPARTURE_WINDOW")); err == nil && v > 0 {
		cfg.Window = v
	}
	if v, err := strconv.Atoi(os.Getenv("FETCH_CONCURRENCY")); err == nil && v > 0 {
		cfg.Concurrency = v
	}
	if v, err := time.ParseDuration(os.Getenv("SNAPSHOT_CACHE_TTL")); err == nil && v > 0 {
		cfg.CacheTTL = v
	}

	return cfg
}

func parseStations(raw string) []Station {
	var stations []Station
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		id, name, _ := strings.Cut(entry, ":")
		if name == "" {
			name = id
		}
		stations = append(stations, Station{ID: id, Name: name})
	}
	return stations
}
