// Package mem implements the memory container and its Inst entry type.
package mem

import (
	"sort"

	"github.com/suranap/profstate/internal/container"
	"github.com/suranap/profstate/internal/ident"
	"github.com/suranap/profstate/internal/ids"
	"github.com/suranap/profstate/internal/timeline"
)

// DynamicCapacity marks a memory whose declared capacity is zero or of a
// dynamic kind, requiring capacity to be computed by replaying the level
// sweep with size accounting.
const DynamicCapacity = 0

// Inst is a physical instance living in a memory. Its TimeRange's Start
// equals Ready (an instance starts running as soon as it is ready); Spawn
// is repurposed to store the allocation-response time.
type Inst struct {
	container.Base
	Size      uint64
	MemID     ids.MemID
	ISpace    uint64
	FSpace    uint64
	Tree      uint64
	Creator   ident.ProfUID
	Previous  *ident.ProfUID // predecessor instance, set on a redistrict event
	Range     timeline.TimeRange
}

func (i *Inst) UID() ident.ProfUID { return i.ProfUID }
func (i *Inst) SetLevel(l int)     { i.Base.SetLevel(l) }

// AllocatedImmediately reports whether this instance's allocation request
// and response coincided (no Spawn time recorded).
func (i *Inst) AllocatedImmediately() bool { return i.Range.AllocatedImmediately() }

// Mem is a memory container.
type Mem struct {
	ID       ids.MemID
	Name     string
	Capacity uint64 // 0 or DynamicCapacity triggers computed capacity

	Entries map[ident.ProfUID]*Inst

	start      []container.TimePoint
	stacked    [][]container.TimePoint
	util       []container.TimePoint
	maxLevels  int

	computedCapacity uint64
}

// New returns an empty Mem container.
func New(id ids.MemID, name string, capacity uint64) *Mem {
	return &Mem{ID: id, Name: name, Capacity: capacity, Entries: make(map[ident.ProfUID]*Inst)}
}

// AddEntry records a new instance.
func (m *Mem) AddEntry(i *Inst) { m.Entries[i.ProfUID] = i }

// window returns the level-assignment window for an instance: memories
// use (ready, stop) rather than (start, stop), since an instance is live
// in memory from the moment it is ready, not from when it first runs.
func window(i *Inst) (lo, hi uint64) {
	if i.Range.Ready != nil {
		lo = uint64(*i.Range.Ready)
	}
	if i.Range.Stop != nil {
		hi = uint64(*i.Range.Stop)
	}
	return lo, hi
}

// SortTimeRange assigns levels and, for dynamic-capacity memories,
// computes capacity by replaying the sweep with size accounting
// (max(size, 1) per live instance).
func (m *Mem) SortTimeRange() {
	windows := make([]container.Window, 0, len(m.Entries))
	for uid, i := range m.Entries {
		lo, hi := window(i)
		windows = append(windows, container.Window{UID: uid, Lo: lo, Hi: hi})
	}
	m.maxLevels, m.start = container.AssignLevels(windows, func(uid ident.ProfUID, l int) {
		m.Entries[uid].SetLevel(l)
	})

	m.util = nil
	for uid, i := range m.Entries {
		lo, hi := window(i)
		m.util = append(m.util,
			container.TimePoint{Time: lo, First: true, UID: uid},
			container.TimePoint{Time: hi, First: false, UID: uid},
		)
	}
	sort.Slice(m.util, func(a, b int) bool { return m.util[a].Time < m.util[b].Time })

	if m.Capacity == DynamicCapacity {
		m.computedCapacity = m.replaySizeSweep()
	}
}

func (m *Mem) replaySizeSweep() uint64 {
	type ev struct {
		t      uint64
		delta  int64
	}
	var events []ev
	for _, i := range m.Entries {
		lo, hi := window(i)
		size := i.Size
		if size < 1 {
			size = 1
		}
		events = append(events, ev{t: lo, delta: int64(size)}, ev{t: hi, delta: -int64(size)})
	}
	sort.Slice(events, func(a, b int) bool { return events[a].t < events[b].t })
	var cur, max int64
	for _, e := range events {
		cur += e.delta
		if cur > max {
			max = cur
		}
	}
	return uint64(max)
}

// ComputedCapacity returns the replay-computed capacity for a
// dynamic-capacity memory.
func (m *Mem) ComputedCapacity() uint64 { return m.computedCapacity }

// StackTimePoints builds the per-level bucketed point array.
func (m *Mem) StackTimePoints() {
	m.stacked = container.StackByLevel(m.start, m.maxLevels)
}

func (m *Mem) MaxLevels() int                          { return m.maxLevels }
func (m *Mem) TimePoints() []container.TimePoint        { return m.start }
func (m *Mem) TimePointsStacked() [][]container.TimePoint { return m.stacked }
func (m *Mem) UtilTimePoints() []container.TimePoint     { return m.util }
