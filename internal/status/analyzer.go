// Package status reduces a batch of departure records into an overall
// disruption verdict with numeric metrics and a per-vehicle-type breakdown.
package status

import (
	"math"

	"github.com/netzstatus/netzstatus/internal/departures"
)

// Verdict is the overall state of the network for one batch of departures.
type Verdict string

const (
	// VerdictFucked means the disruption ratio exceeds the upper threshold.
	VerdictFucked Verdict = "FUCKED"

	// VerdictDegraded means the ratio exceeds the lower threshold only.
	VerdictDegraded Verdict = "DEGRADED"

	// VerdictFine means the ratio is at or below the lower threshold.
	VerdictFine Verdict = "FINE"

	// VerdictUnknown means there were no departures to analyze. An empty
	// batch also covers the case where every upstream fetch failed, which
	// the analyzer deliberately cannot tell apart from no service.
	VerdictUnknown Verdict = "UNKNOWN"
)

// Thresholds configures the analysis. It is threaded explicitly into every
// call; there is no ambient configuration in this package.
//
// Callers must supply 0 <= DegradedRatio < FuckedRatio <= 1. The analyzer
// does not validate this.
type Thresholds struct {
	// DelaySeconds is the delay above which a departure counts as delayed.
	DelaySeconds int

	// DegradedRatio is the disruption ratio above which the verdict is
	// DEGRADED. The boundary itself is exclusive.
	DegradedRatio float64

	// FuckedRatio is the disruption ratio above which the verdict is
	// FUCKED. The boundary itself is exclusive.
	FuckedRatio float64
}

// DefaultThresholds returns the thresholds used when none are configured:
// 5 minutes of delay, degraded above 25% disrupted, fucked above 50%.
func DefaultThresholds() Thresholds {
	return Thresholds{
		DelaySeconds:  300,
		DegradedRatio: 0.25,
		FuckedRatio:   0.5,
	}
}

// Metrics are the counts and percentages derived from one batch.
//
// A cancelled departure is never also counted as delayed, so
// DelayedCount + CancelledCount == DisruptedCount always holds. The three
// percentages are rounded independently; PercentDelayed + PercentCancelled
// may therefore differ from PercentDisrupted by a point. That mismatch is
// accepted, not corrected.
type Metrics struct {
	TotalServices  int `json:"totalServices"`
	DelayedCount   int `json:"delayedCount"`
	CancelledCount int `json:"cancelledCount"`
	DisruptedCount int `json:"disruptedCount"`

	PercentDelayed   int `json:"percentDelayed"`
	PercentCancelled int `json:"percentCancelled"`
	PercentDisrupted int `json:"percentDisrupted"`
}

// Report is the verdict plus its supporting metrics for one analysis call.
type Report struct {
	Verdict Verdict `json:"verdict"`
	Metrics Metrics `json:"metrics"`
}

// DetermineStatus classifies every record and reduces the batch to a
// verdict. The input order is irrelevant. Malformed records fall back to
// the conservative branches of the classifier; the function never fails.
func DetermineStatus(records []departures.Departure, t Thresholds) Report {
	if len(records) == 0 {
		return Report{Verdict: VerdictUnknown}
	}

	m := Metrics{TotalServices: len(records)}
	for _, d := range records {
		switch {
		case departures.IsCancelled(d):
			m.CancelledCount++
		case departures.IsDelayed(d, t.DelaySeconds):
			m.DelayedCount++
		}
	}
	m.DisruptedCount = m.DelayedCount + m.CancelledCount

	m.PercentDelayed = percent(m.DelayedCount, m.TotalServices)
	m.PercentCancelled = percent(m.CancelledCount, m.TotalServices)
	m.PercentDisrupted = percent(m.DisruptedCount, m.TotalServices)

	ratio := float64(m.DisruptedCount) / float64(m.TotalServices)

	verdict := VerdictFine
	switch {
	case ratio > t.FuckedRatio:
		verdict = VerdictFucked
	case ratio > t.DegradedRatio:
		verdict = VerdictDegraded
	}

	return Report{Verdict: verdict, Metrics: m}
}

// percent rounds half-up; counts are never negative here.
func percent(count, total int) int {
	return int(math.Round(float64(count) / float64(total) * 100))
}
