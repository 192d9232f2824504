// Package proc implements the processor container and its entry taxonomy:
// tasks, meta-tasks, mapper/runtime/application calls, GPU kernels, and
// profiling tasks.
package proc

import (
	"fmt"
	"sort"

	"github.com/suranap/profstate/internal/container"
	"github.com/suranap/profstate/internal/ident"
	"github.com/suranap/profstate/internal/ids"
	"github.com/suranap/profstate/internal/timeline"
)

// WaitInterval is one interval during which an entry was blocked, either
// on a runtime event or delegated to a nested call. Exactly one of Event
// or Callee is set. Invariant: Start <= Ready <= End; Ready == End iff
// Callee is set (function returns are instantaneous).
type WaitInterval struct {
	Start     uint64
	Ready     uint64
	End       uint64
	Callee    *ident.ProfUID
	Event     *ids.EventID
	Backtrace *ids.BacktraceID
}

// Validate panics if the wait interval violates its invariant.
func (w WaitInterval) Validate() {
	if !(w.Start <= w.Ready && w.Ready <= w.End) {
		panic(fmt.Sprintf("proc: wait interval out of order: start=%d ready=%d end=%d", w.Start, w.Ready, w.End))
	}
	if w.Callee != nil && w.Ready != w.End {
		panic("proc: callee wait must have ready == end")
	}
	if w.Callee != nil && w.Event != nil {
		panic("proc: wait interval cannot set both callee and event")
	}
}

// EntryKind discriminates the processor entry taxonomy.
type EntryKind int

const (
	KindTask EntryKind = iota
	KindMetaTask
	KindMapperCall
	KindRuntimeCall
	KindApplicationCall
	KindGPUKernel
	KindProfTask
)

// Entry is one processor entry. Tasks and meta-tasks (and, after
// reconciliation, calls) own a Waiters list.
type Entry struct {
	container.Base
	Kind      EntryKind
	Creator   ident.ProfUID // initiating operation, or enclosing call/task after reconciliation
	Range     timeline.TimeRange
	Waiters   []WaitInterval
	OpID      ids.OpID
	TaskID    ids.TaskID    // valid for KindTask
	VariantID ids.VariantID // valid for KindTask, KindMetaTask
	CallKind  int           // valid for the three call kinds
	Name      string
}

func (e *Entry) UID() ident.ProfUID { return e.ProfUID }

func (e *Entry) SetLevel(l int) { e.Base.SetLevel(l) }

// AddWait appends a wait interval, keeping Waiters sorted by Start as
// required by the reconciliation pass.
func (e *Entry) AddWait(w WaitInterval) {
	w.Validate()
	i := sort.Search(len(e.Waiters), func(i int) bool { return e.Waiters[i].Start > w.Start })
	e.Waiters = append(e.Waiters, WaitInterval{})
	copy(e.Waiters[i+1:], e.Waiters[i:])
	e.Waiters[i] = w
}

// Proc is a processor container, partitioned into host and device
// (GPU-kernel) entries.
type Proc struct {
	ID         ids.ProcID
	Name       string
	IsIO       bool // I/O processors may run entries concurrently; no previous-executing lookup
	HostEntries   map[ident.ProfUID]*Entry
	DeviceEntries map[ident.ProfUID]*Entry // GPU-kernel entries only

	hostStart      []container.TimePoint
	hostStacked    [][]container.TimePoint
	hostUtil       []container.TimePoint
	hostMaxLevels  int
	deviceStart     []container.TimePoint
	deviceStacked   [][]container.TimePoint
	deviceUtil      []container.TimePoint
	deviceMaxLevels int

	LastTime uint64
}

// New returns an empty Proc container.
func New(id ids.ProcID, name string, isIO bool) *Proc {
	return &Proc{
		ID:            id,
		Name:          name,
		IsIO:          isIO,
		HostEntries:   make(map[ident.ProfUID]*Entry),
		DeviceEntries: make(map[ident.ProfUID]*Entry),
	}
}

// AddEntry records a new entry, routing GPU kernels to the device
// partition and everything else to the host partition.
func (p *Proc) AddEntry(e *Entry) {
	if e.Kind == KindGPUKernel {
		p.DeviceEntries[e.ProfUID] = e
	} else {
		p.HostEntries[e.ProfUID] = e
	}
	if e.Range.Stop != nil && uint64(*e.Range.Stop) > p.LastTime {
		p.LastTime = uint64(*e.Range.Stop)
	}
}

func windowsFor(entries map[ident.ProfUID]*Entry) []container.Window {
	ws := make([]container.Window, 0, len(entries))
	for uid, e := range entries {
		var lo, hi uint64
		if e.Range.Start != nil {
			lo = uint64(*e.Range.Start)
		}
		if e.Range.Stop != nil {
			hi = uint64(*e.Range.Stop)
		}
		ws = append(ws, container.Window{UID: uid, Lo: lo, Hi: hi})
	}
	return ws
}

func utilPointsFor(entries map[ident.ProfUID]*Entry) []container.TimePoint {
	var pts []container.TimePoint
	for uid, e := range entries {
		if e.Range.Start != nil && e.Range.Stop != nil {
			pts = append(pts,
				container.TimePoint{Time: uint64(*e.Range.Start), First: true, UID: uid},
				container.TimePoint{Time: uint64(*e.Range.Stop), First: false, UID: uid},
			)
		}
		for _, w := range e.Waiters {
			// Wait intervals subtract utilization: inverted polarity
			// (stop point first, start point second).
			pts = append(pts,
				container.TimePoint{Time: w.Start, First: false, UID: uid},
				container.TimePoint{Time: w.End, First: true, UID: uid},
			)
		}
	}
	sort.Slice(pts, func(i, j int) bool { return pts[i].Time < pts[j].Time })
	return pts
}

// SortTimeRange runs level assignment for both partitions. Safe to call
// concurrently with other containers' SortTimeRange (no shared mutation).
func (p *Proc) SortTimeRange() {
	setLevel := func(entries map[ident.ProfUID]*Entry) func(ident.ProfUID, int) {
		return func(uid ident.ProfUID, l int) { entries[uid].SetLevel(l) }
	}
	p.hostMaxLevels, p.hostStart = container.AssignLevels(windowsFor(p.HostEntries), setLevel(p.HostEntries))
	p.deviceMaxLevels, p.deviceStart = container.AssignLevels(windowsFor(p.DeviceEntries), setLevel(p.DeviceEntries))
	p.hostUtil = utilPointsFor(p.HostEntries)
	p.deviceUtil = utilPointsFor(p.DeviceEntries)
}

// StackTimePoints builds the per-level bucketed point arrays. Must run
// after SortTimeRange.
func (p *Proc) StackTimePoints() {
	p.hostStacked = container.StackByLevel(p.hostStart, p.hostMaxLevels)
	p.deviceStacked = container.StackByLevel(p.deviceStart, p.deviceMaxLevels)
}

func (p *Proc) MaxLevels() int             { return p.hostMaxLevels }
func (p *Proc) DeviceMaxLevels() int       { return p.deviceMaxLevels }
func (p *Proc) TimePoints() []container.TimePoint            { return p.hostStart }
func (p *Proc) DeviceTimePoints() []container.TimePoint       { return p.deviceStart }
func (p *Proc) TimePointsStacked() [][]container.TimePoint    { return p.hostStacked }
func (p *Proc) DeviceTimePointsStacked() [][]container.TimePoint { return p.deviceStacked }
func (p *Proc) UtilTimePoints() []container.TimePoint         { return p.hostUtil }
func (p *Proc) DeviceUtilTimePoints() []container.TimePoint   { return p.deviceUtil }

// FindPreviousExecutingEntry finds the entry that was running on this
// processor's host partition immediately before the given ready/start
// window, searching only within the given level. I/O processors return
// nothing, since they may run entries concurrently.
func (p *Proc) FindPreviousExecutingEntry(level int, ready, start uint64) (ident.ProfUID, uint64, uint64, bool) {
	if p.IsIO {
		return 0, 0, 0, false
	}
	if level < 0 || level >= len(p.hostStacked) {
		return 0, 0, 0, false
	}
	segments := p.runningSegments(level)
	return container.FindPreviousExecutingEntry(segments, ready, start)
}

// runningSegments splits each entry on the given level into sub-intervals
// around its wait holes.
func (p *Proc) runningSegments(level int) []container.RunningSegment {
	var segs []container.RunningSegment
	for _, pt := range p.hostStacked[level] {
		e := p.HostEntries[pt.UID]
		if e.Range.Start == nil || e.Range.Stop == nil {
			continue
		}
		cur := uint64(*e.Range.Start)
		stop := uint64(*e.Range.Stop)
		for _, w := range e.Waiters {
			if w.Start > cur {
				segs = append(segs, container.RunningSegment{UID: e.ProfUID, Start: cur, Stop: w.Start})
			}
			cur = w.End
		}
		if cur < stop {
			segs = append(segs, container.RunningSegment{UID: e.ProfUID, Start: cur, Stop: stop})
		}
	}
	sort.Slice(segs, func(i, j int) bool { return segs[i].Start < segs[j].Start })
	return segs
}
