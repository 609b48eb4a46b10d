// Package linefilter narrows a departure batch to a chosen set of lines and
// keeps the user's selection consistent with the lines actually present.
package linefilter

import (
	"sort"

	"github.com/netzstatus/netzstatus/internal/departures"
)

// State is the reconciled filter view handed to the serving layer:
// the lines present in the latest batch and the active selection.
// SelectedLines is always a subset of AvailableLines.
type State struct {
	AvailableLines []string `json:"availableLines"`
	SelectedLines  []string `json:"selectedLines"`
}

// ExtractUniqueLines returns the distinct line names present in the batch,
// sorted ascending. Records without a named line are skipped. The result is
// deterministic regardless of input order.
func ExtractUniqueLines(records []departures.Departure) []string {
	seen := make(map[string]struct{})
	for _, d := range records {
		name := d.LineName()
		if name == "" {
			continue
		}
		seen[name] = struct{}{}
	}

	lines := make([]string, 0, len(seen))
	for name := range seen {
		lines = append(lines, name)
	}
	sort.Strings(lines)

	return lines
}

// FilterByLines restricts the batch to departures on the selected lines.
//
// An empty selection means "no filter": the input is returned unchanged.
// Once a filter is active, records without a usable line name are excluded.
// The function is pure and idempotent.
func FilterByLines(records []departures.Departure, selected []string) []departures.Departure {
	if len(selected) == 0 {
		return records
	}

	want := make(map[string]struct{}, len(selected))
	for _, name := range selected {
		want[name] = struct{}{}
	}

	filtered := make([]departures.Departure, 0, len(records))
	for _, d := range records {
		name := d.LineName()
		if name == "" {
			continue
		}
		if _, ok := want[name]; ok {
			filtered = append(filtered, d)
		}
	}

	return filtered
}

// Reconcile drops selected lines no longer present in available, preserving
// the selection's order. Stale selections must never survive as phantom
// filters against departed lines.
func Reconcile(available, selected []string) []string {
	if len(selected) == 0 {
		return nil
	}

	present := make(map[string]struct{}, len(available))
	for _, name := range available {
		present[name] = struct{}{}
	}

	kept := make([]string, 0, len(selected))
	for _, name := range selected {
		if _, ok := present[name]; ok {
			kept = append(kept, name)
		}
	}

	return kept
}
