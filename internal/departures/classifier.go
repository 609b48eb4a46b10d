package departures

import "strings"

// IsDelayed reports whether a departure counts as delayed: not cancelled,
// realtime delay data present, and the delay strictly greater than the
// threshold in seconds. Cancelled departures are never delayed; cancellation
// takes precedence in all downstream counting.
func IsDelayed(d Departure, thresholdSeconds int) bool {
	if d.Cancelled {
		return false
	}
	if d.Delay == nil {
		return false
	}
	return *d.Delay > thresholdSeconds
}

// IsCancelled reports whether a departure counts as cancelled.
func IsCancelled(d Departure) bool {
	return d.Cancelled
}

// VehicleType buckets a departure by its line product. Records without line
// data, and products outside the four known names, map to ProductOther.
func VehicleType(d Departure) Product {
	if d.Line == nil {
		return ProductOther
	}

	switch strings.ToLower(d.Line.Product) {
	case "bus":
		return ProductBus
	case "tram":
		return ProductTram
	case "suburban":
		return ProductSuburban
	case "subway":
		return ProductSubway
	default:
		return ProductOther
	}
}
