// Package chan_ implements the channel container and its entry taxonomy:
// copies, fills, and dependent-partition operations. Named chan_ because
// chan is a reserved word.
package chan_

import (
	"sort"

	"github.com/suranap/profstate/internal/container"
	"github.com/suranap/profstate/internal/ident"
	"github.com/suranap/profstate/internal/ids"
	"github.com/suranap/profstate/internal/timeline"
)

// EntryKind discriminates the channel entry taxonomy.
type EntryKind int

const (
	KindCopy EntryKind = iota
	KindFill
	KindDepPart
)

// Entry is one channel entry.
type Entry struct {
	container.Base
	Kind    EntryKind
	Creator ident.ProfUID
	Range   timeline.TimeRange
}

func (e *Entry) UID() ident.ProfUID { return e.ProfUID }
func (e *Entry) SetLevel(l int)     { e.Base.SetLevel(l) }

// Chan is a channel container, one per ChanID.
type Chan struct {
	ID      ids.ChanID
	Name    string
	Entries map[ident.ProfUID]*Entry

	start     []container.TimePoint
	stacked   [][]container.TimePoint
	util      []container.TimePoint
	maxLevels int
}

// New returns an empty Chan container.
func New(id ids.ChanID, name string) *Chan {
	return &Chan{ID: id, Name: name, Entries: make(map[ident.ProfUID]*Entry)}
}

// AddEntry records a new entry.
func (c *Chan) AddEntry(e *Entry) { c.Entries[e.ProfUID] = e }

// SortTimeRange assigns levels using (start, stop).
func (c *Chan) SortTimeRange() {
	windows := make([]container.Window, 0, len(c.Entries))
	for uid, e := range c.Entries {
		var lo, hi uint64
		if e.Range.Start != nil {
			lo = uint64(*e.Range.Start)
		}
		if e.Range.Stop != nil {
			hi = uint64(*e.Range.Stop)
		}
		windows = append(windows, container.Window{UID: uid, Lo: lo, Hi: hi})
	}
	c.maxLevels, c.start = container.AssignLevels(windows, func(uid ident.ProfUID, l int) {
		c.Entries[uid].SetLevel(l)
	})

	c.util = nil
	for uid, e := range c.Entries {
		if e.Range.Start == nil || e.Range.Stop == nil {
			continue
		}
		c.util = append(c.util,
			container.TimePoint{Time: uint64(*e.Range.Start), First: true, UID: uid},
			container.TimePoint{Time: uint64(*e.Range.Stop), First: false, UID: uid},
		)
	}
	sort.Slice(c.util, func(a, b int) bool { return c.util[a].Time < c.util[b].Time })
}

// StackTimePoints builds the per-level bucketed point array.
func (c *Chan) StackTimePoints() {
	c.stacked = container.StackByLevel(c.start, c.maxLevels)
}

func (c *Chan) MaxLevels() int                           { return c.maxLevels }
func (c *Chan) TimePoints() []container.TimePoint         { return c.start }
func (c *Chan) TimePointsStacked() [][]container.TimePoint { return c.stacked }
func (c *Chan) UtilTimePoints() []container.TimePoint      { return c.util }
