package status

import "github.com/netzstatus/netzstatus/internal/departures"

// Breakdown keys. S-Bahn and U-Bahn keep their local names in the output
// even though the upstream products are "suburban" and "subway".
const (
	BucketBus   = "bus"
	BucketTram  = "tram"
	BucketSBahn = "sbahn"
	BucketUBahn = "ubahn"
)

// TypeCounts holds the disruption counts for one vehicle type.
type TypeCounts struct {
	Delayed   int `json:"delayed"`
	Cancelled int `json:"cancelled"`
}

// Breakdown maps vehicle-type bucket to its counts. All four buckets are
// always present, zero-initialized.
type Breakdown map[string]TypeCounts

// AggregateByVehicleType counts delayed and cancelled departures per vehicle
// type, using the same disjoint classification rules as DetermineStatus.
//
// Departures bucketed as "other" contribute to the overall metrics but not
// to this breakdown; it is a diagnostic view, not a full partition of the
// batch.
func AggregateByVehicleType(records []departures.Departure, t Thresholds) Breakdown {
	b := Breakdown{
		BucketBus:   {},
		BucketTram:  {},
		BucketSBahn: {},
		BucketUBahn: {},
	}

	for _, d := range records {
		key, ok := bucketFor(departures.VehicleType(d))
		if !ok {
			continue
		}

		counts := b[key]
		switch {
		case departures.IsCancelled(d):
			counts.Cancelled++
		case departures.IsDelayed(d, t.DelaySeconds):
			counts.Delayed++
		}
		b[key] = counts
	}

	return b
}

func bucketFor(p departures.Product) (string, bool) {
	switch p {
	case departures.ProductBus:
		return BucketBus, true
	case departures.ProductTram:
		return BucketTram, true
	case departures.ProductSuburban:
		return BucketSBahn, true
	case departures.ProductSubway:
		return BucketUBahn, true
	default:
		return "", false
	}
}
