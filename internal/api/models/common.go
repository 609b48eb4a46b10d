// Package models provides request and response models for the netzstatus API.
package models

import "time"

// HealthStatus enumerates service health states.
type HealthStatus string

const (
	HealthStatusOK       HealthStatus = "OK"
	HealthStatusDegraded HealthStatus = "DEGRADED"
	HealthStatusDown     HealthStatus = "DOWN"
)

// Health represents the health status of the service.
type Health struct {
	Status  HealthStatus           `json:"status"`
	Time    time.Time              `json:"time"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// LineSelection is the request and response body for the line filter.
// An empty SelectedLines means "no filter".
type LineSelection struct {
	SelectedLines []string `json:"selectedLines"`
}
