// Package snapshot projects a built state.State into a flat,
// JSON-serializable summary suitable for diffing two runs or inspecting a
// single ingest without walking the live container maps.
package snapshot

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/suranap/profstate/internal/ids"
	"github.com/suranap/profstate/internal/state"
)

// ProcSummary is one processor's post-pipeline statistics.
type ProcSummary struct {
	ID              ids.ProcID `json:"id"`
	Name            string     `json:"name"`
	IsIO            bool       `json:"is_io"`
	EntryCount      int        `json:"entry_count"`
	MaxLevels       int        `json:"max_levels"`
	DeviceMaxLevels int        `json:"device_max_levels"`
}

// MemSummary is one memory's post-pipeline statistics.
type MemSummary struct {
	ID               ids.MemID `json:"id"`
	Name             string    `json:"name"`
	Capacity         uint64    `json:"capacity"`
	ComputedCapacity uint64    `json:"computed_capacity"`
	InstCount        int       `json:"inst_count"`
	MaxLevels        int       `json:"max_levels"`
}

// ChanSummary is one channel's post-pipeline statistics.
type ChanSummary struct {
	ID         ids.ChanID `json:"id"`
	Name       string     `json:"name"`
	EntryCount int        `json:"entry_count"`
	MaxLevels  int         `json:"max_levels"`
}

// Projection is the full query-friendly view of a state.State: enough to
// diff two runs or render a report without re-running the pipeline.
type Projection struct {
	Procs               []ProcSummary `json:"procs"`
	Mems                []MemSummary  `json:"mems"`
	Chans               []ChanSummary `json:"chans"`
	HasCriticalPathData bool          `json:"has_critical_path_data"`
	SkewReport          []string      `json:"skew_report"`
}

// Project builds a Projection from a fully processed State (after
// ProcessRecords has run).
func Project(s *state.State) *Projection {
	p := &Projection{
		HasCriticalPathData: s.HasCriticalPathData(),
		SkewReport:          s.CheckMessageLatencies(),
	}

	for id, proc := range s.Procs {
		p.Procs = append(p.Procs, ProcSummary{
			ID:              id,
			Name:            proc.Name,
			IsIO:            proc.IsIO,
			EntryCount:      len(proc.HostEntries),
			MaxLevels:       proc.MaxLevels(),
			DeviceMaxLevels: proc.DeviceMaxLevels(),
		})
	}
	sort.Slice(p.Procs, func(i, j int) bool { return p.Procs[i].ID < p.Procs[j].ID })

	for id, m := range s.Mems {
		p.Mems = append(p.Mems, MemSummary{
			ID:               id,
			Name:             m.Name,
			Capacity:         m.Capacity,
			ComputedCapacity: m.ComputedCapacity(),
			InstCount:        len(m.Entries),
			MaxLevels:        m.MaxLevels(),
		})
	}
	sort.Slice(p.Mems, func(i, j int) bool { return p.Mems[i].ID < p.Mems[j].ID })

	for id, c := range s.Chans {
		p.Chans = append(p.Chans, ChanSummary{
			ID:         id,
			Name:       c.Name,
			EntryCount: len(c.Entries),
			MaxLevels:  c.MaxLevels(),
		})
	}
	sort.Slice(p.Chans, func(i, j int) bool {
		if p.Chans[i].ID.Kind != p.Chans[j].ID.Kind {
			return p.Chans[i].ID.Kind < p.Chans[j].ID.Kind
		}
		if p.Chans[i].ID.Src != p.Chans[j].ID.Src {
			return p.Chans[i].ID.Src < p.Chans[j].ID.Src
		}
		return p.Chans[i].ID.Dst < p.Chans[j].ID.Dst
	})

	return p
}

// WriteJSON serializes the projection as indented JSON. If path is "-" or
// empty, writes to stdout.
func WriteJSON(p *Projection, path string) error {
	var w io.Writer = os.Stdout
	if path != "" && path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(p); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	return nil
}
