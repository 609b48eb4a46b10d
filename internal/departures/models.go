// Package departures defines the normalized departure record and the
// classification rules applied to it.
package departures

import "time"

// Product identifies the vehicle type of a line.
type Product string

const (
	ProductBus      Product = "bus"
	ProductTram     Product = "tram"
	ProductSuburban Product = "suburban"
	ProductSubway   Product = "subway"

	// ProductOther covers everything the monitor does not break down by
	// type: regional trains, ferries, and records with no usable line data.
	ProductOther Product = "other"
)

// Line describes the transit line a departure belongs to.
type Line struct {
	// Name is the public line name (e.g., "U8", "S1", "Bus 100").
	Name string `json:"name"`

	// Product is the raw product string from the upstream API
	// (e.g., "suburban", "subway"). Matched case-insensitively.
	Product string `json:"product"`
}

// Departure is a single normalized departure-board entry.
//
// Optional upstream fields are pointers: a nil Delay means the API supplied
// no realtime data for this departure, which is not the same as a delay of
// zero seconds and must be excluded from delay classification.
type Departure struct {
	// TripID identifies the journey, when known.
	TripID string `json:"tripId,omitempty"`

	// Line is nil when the upstream record carried no line information.
	Line *Line `json:"line,omitempty"`

	// Direction is the headsign text, passed through for display.
	Direction string `json:"direction,omitempty"`

	// When is the realtime departure timestamp, if available.
	When *time.Time `json:"when,omitempty"`

	// PlannedWhen is the scheduled departure timestamp, if available.
	PlannedWhen *time.Time `json:"plannedWhen,omitempty"`

	// Delay is the reported delay in seconds. Negative values mean the
	// vehicle runs early. Nil means no realtime data.
	Delay *int `json:"delay,omitempty"`

	// Cancelled reports whether the departure was cancelled.
	Cancelled bool `json:"cancelled"`

	// StopName is the station this departure was fetched for.
	StopName string `json:"stopName,omitempty"`
}

// LineName returns the line name, or "" when the record has no named line.
func (d Departure) LineName() string {
	if d.Line == nil {
		return ""
	}
	return d.Line.Name
}
