package vbb_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netzstatus/netzstatus/internal/departures"
	"github.com/netzstatus/netzstatus/internal/departures/vbb"
	"github.com/netzstatus/netzstatus/internal/provider/resilience"
)

func TestClient_Name(t *testing.T) {
	client := vbb.NewClient(vbb.ClientConfig{Logger: zerolog.Nop()})

	assert.Equal(t, "vbb", client.Name())
}

func TestClient_Departures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stops/900007102/departures", r.URL.Path)
		assert.Equal(t, "10", r.URL.Query().Get("duration"))

		resp := map[string]interface{}{
			"departures": []map[string]interface{}{
				{
					"tripId":      "1|12345|0|86|30082026",
					"direction":   "S Wittenau",
					"when":        "2026-08-30T12:05:30+02:00",
					"plannedWhen": "2026-08-30T12:00:00+02:00",
					"delay":       330,
					"cancelled":   false,
					"line": map[string]string{
						"name":    "U8",
						"product": "subway",
					},
					"stop": map[string]string{
						"id":   "900007102",
						"name": "U Osloer Str.",
					},
				},
				{
					"tripId":      "1|54321|0|86|30082026",
					"direction":   "S+U Gesundbrunnen",
					"plannedWhen": "2026-08-30T12:03:00+02:00",
					"delay":       nil,
					"cancelled":   true,
					"line": map[string]string{
						"name":    "S1",
						"product": "suburban",
					},
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := vbb.NewClient(vbb.ClientConfig{
		BaseURL:    server.URL,
		HTTPClient: resilience.NewClient(resilience.DefaultClientConfig("vbb-test")),
		Logger:     zerolog.Nop(),
	})

	records, err := client.Departures(context.Background(), "900007102", 10*time.Minute)
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0]
	require.NotNil(t, first.Delay)
	assert.Equal(t, 330, *first.Delay)
	assert.False(t, first.Cancelled)
	require.NotNil(t, first.Line)
	assert.Equal(t, "U8", first.Line.Name)
	assert.Equal(t, departures.ProductSubway, departures.VehicleType(first))
	assert.Equal(t, "U Osloer Str.", first.StopName)
	require.NotNil(t, first.When)
	require.NotNil(t, first.PlannedWhen)

	second := records[1]
	assert.Nil(t, second.Delay, "absent delay must stay nil, not zero")
	assert.True(t, second.Cancelled)
	assert.Nil(t, second.When)
}

func TestClient_Departures_MissingLine(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		resp := map[string]interface{}{
			"departures": []map[string]interface{}{
				{
					"tripId":    "1|777|0|86|30082026",
					"direction": "somewhere",
					"cancelled": false,
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := vbb.NewClient(vbb.ClientConfig{
		BaseURL:    server.URL,
		HTTPClient: resilience.NewClient(resilience.DefaultClientConfig("vbb-test")),
		Logger:     zerolog.Nop(),
	})

	records, err := client.Departures(context.Background(), "900007102", 10*time.Minute)
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Nil(t, records[0].Line)
	assert.Equal(t, departures.ProductOther, departures.VehicleType(records[0]))
}

func TestClient_Departures_EmptyBoard(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"departures": []interface{}{}})
	}))
	defer server.Close()

	client := vbb.NewClient(vbb.ClientConfig{
		BaseURL:    server.URL,
		HTTPClient: resilience.NewClient(resilience.DefaultClientConfig("vbb-test")),
		Logger:     zerolog.Nop(),
	})

	records, err := client.Departures(context.Background(), "900007102", 10*time.Minute)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestClient_Departures_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := resilience.DefaultClientConfig("vbb-test")
	cfg.InitialInterval = time.Millisecond
	cfg.MaxRetries = 1
	breaker := resilience.DefaultBreakerConfig("vbb-test")
	breaker.ReadyToTrip = func(gobreaker.Counts) bool { return false }
	cfg.Breaker = &breaker

	client := vbb.NewClient(vbb.ClientConfig{
		BaseURL:    server.URL,
		HTTPClient: resilience.NewClient(cfg),
		Logger:     zerolog.Nop(),
	})

	_, err := client.Departures(context.Background(), "900007102", 10*time.Minute)
	assert.Error(t, err)
}
