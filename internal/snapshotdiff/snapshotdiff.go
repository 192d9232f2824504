// Package snapshotdiff compares two snapshot.Projection values (e.g. two
// runs of the same job), highlights regressions/improvements in their
// level packing, and reports the change in their skew-advisory count.
package snapshotdiff

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/suranap/profstate/internal/snapshot"
)

// DiffReport contains the comparison between two projections.
type DiffReport struct {
	Changes      []MetricChange `json:"changes"`
	Regressions  int            `json:"regressions"`
	Improvements int            `json:"improvements"`
	SkewDelta    int            `json:"skew_report_delta"` // positive = more advisories now
}

// MetricChange represents a single metric difference between projections.
type MetricChange struct {
	Category     string  `json:"category"`
	Metric       string  `json:"metric"`
	OldValue     float64 `json:"old_value"`
	NewValue     float64 `json:"new_value"`
	Delta        float64 `json:"delta"`
	DeltaPct     float64 `json:"delta_pct"`
	Direction    string  `json:"direction"`    // "regression", "improvement", "unchanged"
	Significance string  `json:"significance"` // "high", "medium", "low"
}

// LoadProjection reads and parses a JSON projection file written by
// snapshot.WriteJSON.
func LoadProjection(path string) (*snapshot.Projection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var p snapshot.Projection
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &p, nil
}

// Compare computes differences between two projections. Per-container
// max_levels is "higher is worse": more levels is a regression. The change
// in the number of skew advisories is reported as SkewDelta only and is
// not counted as a regression or an improvement.
func Compare(baseline, current *snapshot.Projection) *DiffReport {
	diff := &DiffReport{
		SkewDelta: len(current.SkewReport) - len(baseline.SkewReport),
	}

	oldProcs := make(map[string]snapshot.ProcSummary)
	for _, p := range baseline.Procs {
		oldProcs[fmt.Sprintf("%v", p.ID)] = p
	}
	for _, p := range current.Procs {
		if old, ok := oldProcs[fmt.Sprintf("%v", p.ID)]; ok {
			addChange(diff, "proc", fmt.Sprintf("proc_%v_max_levels", p.ID), float64(old.MaxLevels), float64(p.MaxLevels), true)
		}
	}

	oldMems := make(map[string]snapshot.MemSummary)
	for _, m := range baseline.Mems {
		oldMems[fmt.Sprintf("%v", m.ID)] = m
	}
	for _, m := range current.Mems {
		if old, ok := oldMems[fmt.Sprintf("%v", m.ID)]; ok {
			addChange(diff, "mem", fmt.Sprintf("mem_%v_max_levels", m.ID), float64(old.MaxLevels), float64(m.MaxLevels), true)
		}
	}

	oldChans := make(map[string]snapshot.ChanSummary)
	for _, c := range baseline.Chans {
		oldChans[fmt.Sprintf("%v", c.ID)] = c
	}
	for _, c := range current.Chans {
		if old, ok := oldChans[fmt.Sprintf("%v", c.ID)]; ok {
			addChange(diff, "chan", fmt.Sprintf("chan_%v_max_levels", c.ID), float64(old.MaxLevels), float64(c.MaxLevels), true)
		}
	}

	for _, c := range diff.Changes {
		switch c.Direction {
		case "regression":
			diff.Regressions++
		case "improvement":
			diff.Improvements++
		}
	}

	return diff
}

func addChange(diff *DiffReport, category, metric string, oldVal, newVal float64, higherIsWorse bool) {
	delta := newVal - oldVal
	deltaPct := 0.0
	if oldVal != 0 {
		deltaPct = (delta / math.Abs(oldVal)) * 100
	}

	if math.Abs(deltaPct) < 1.0 && math.Abs(delta) < 0.1 {
		return
	}

	direction := "unchanged"
	if higherIsWorse {
		if deltaPct > 5 {
			direction = "regression"
		} else if deltaPct < -5 {
			direction = "improvement"
		}
	} else {
		if deltaPct < -5 {
			direction = "regression"
		} else if deltaPct > 5 {
			direction = "improvement"
		}
	}

	significance := "low"
	absPct := math.Abs(deltaPct)
	if absPct >= 50 {
		significance = "high"
	} else if absPct >= 20 {
		significance = "medium"
	}

	diff.Changes = append(diff.Changes, MetricChange{
		Category:     category,
		Metric:       metric,
		OldValue:     oldVal,
		NewValue:     newVal,
		Delta:        delta,
		DeltaPct:     deltaPct,
		Direction:    direction,
		Significance: significance,
	})
}

// FormatDiff returns a human-readable diff summary.
func FormatDiff(d *DiffReport) string {
	var sb strings.Builder

	sb.WriteString("=== Snapshot Diff ===\n")
	sb.WriteString(fmt.Sprintf("Skew advisories: %+d\n", d.SkewDelta))
	sb.WriteString(fmt.Sprintf("Regressions: %d, Improvements: %d\n\n", d.Regressions, d.Improvements))

	if d.Regressions > 0 {
		sb.WriteString("Regressions:\n")
		for _, c := range d.Changes {
			if c.Direction == "regression" {
				sb.WriteString(fmt.Sprintf("  [%s] %s/%s: %.2f -> %.2f (%+.1f%%)\n",
					strings.ToUpper(c.Significance), c.Category, c.Metric,
					c.OldValue, c.NewValue, c.DeltaPct))
			}
		}
		sb.WriteString("\n")
	}

	if d.Improvements > 0 {
		sb.WriteString("Improvements:\n")
		for _, c := range d.Changes {
			if c.Direction == "improvement" {
				sb.WriteString(fmt.Sprintf("  [%s] %s/%s: %.2f -> %.2f (%+.1f%%)\n",
					strings.ToUpper(c.Significance), c.Category, c.Metric,
					c.OldValue, c.NewValue, c.DeltaPct))
			}
		}
	}

	return sb.String()
}
