// Package vbb fetches departure boards from a VBB transport.rest API and
// normalizes them into departure records.
package vbb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/netzstatus/netzstatus/internal/departures"
	"github.com/netzstatus/netzstatus/internal/provider/resilience"
)

const (
	// ProviderName identifies this departures provider.
	ProviderName = "vbb"

	// DefaultBaseURL is the public transport.rest VBB endpoint.
	DefaultBaseURL = "https://v6.vbb.transport.rest"
)

// ClientConfig holds configuration for the VBB client.
type ClientConfig struct {
	// BaseURL is the API base URL (optional, defaults to the public
	// transport.rest instance).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional). If nil, uses a
	// resilient client with defaults.
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client fetches departure boards from the VBB API.
type Client struct {
	baseURL    string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates a new VBB client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(ProviderName))
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// Departures fetches the departure board for one station over the given
// look-ahead window and normalizes it.
func (c *Client) Departures(ctx context.Context, stationID string, window time.Duration) ([]departures.Departure, error) {
	minutes := int(window.Minutes())
	if minutes <= 0 {
		minutes = 10
	}

	endpoint := fmt.Sprintf("%s/stops/%s/departures?%s",
		c.baseURL,
		url.PathEscape(stationID),
		url.Values{
			"duration": []string{strconv.Itoa(minutes)},
			"remarks":  []string{"false"},
		}.Encode(),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var board departuresResponse
	if err := json.NewDecoder(resp.Body).Decode(&board); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	records := make([]departures.Departure, 0, len(board.Departures))
	for i := range board.Departures {
		records = append(records, c.toDeparture(&board.Departures[i]))
	}

	c.logger.Debug().
		Str("station", stationID).
		Int("departures", len(records)).
		Msg("departure board fetched")

	return records, nil
}

// toDeparture normalizes one raw HAFAS departure. Missing optional fields
// stay nil so downstream classification can distinguish "no data" from a
// zero value.
func (c *Client) toDeparture(raw *hafasDeparture) departures.Departure {
	d := departures.Departure{
		TripID:    raw.TripID,
		Direction: raw.Direction,
		Delay:     raw.Delay,
		Cancelled: raw.Cancelled,
	}

	if raw.Line != nil && (raw.Line.Name != "" || raw.Line.Product != "") {
		d.Line = &departures.Line{
			Name:    raw.Line.Name,
			Product: raw.Line.Product,
		}
	}

	if raw.Stop != nil {
		d.StopName = raw.Stop.Name
	}

	if ts := parseTime(raw.When); ts != nil {
		d.When = ts
	}
	if ts := parseTime(raw.PlannedWhen); ts != nil {
		d.PlannedWhen = ts
	}

	return d
}

func parseTime(value string) *time.Time {
	if value == "" {
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil
	}
	return &parsed
}

// transport.rest response structures.

type departuresResponse struct {
	Departures []hafasDeparture `json:"departures"`
}

type hafasDeparture struct {
	TripID      string      `json:"tripId"`
	Direction   string      `json:"direction"`
	When        string      `json:"when"`
	PlannedWhen string      `json:"plannedWhen"`
	Delay       *int        `json:"delay"`
	Cancelled   bool        `json:"cancelled"`
	Line        *hafasLine  `json:"line"`
	Stop        *hafasStop  `json:"stop"`
}

type hafasLine struct {
	Name    string `json:"name"`
	Product string `json:"product"`
}

type hafasStop struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
