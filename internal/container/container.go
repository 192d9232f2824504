// Package container implements the level-assignment sweep and the
// time-point derivations shared by every processor, memory, and channel
// container, plus the previous-executing-entry lookup used to reconcile
// nested calls against their enclosing task or meta-task.
package container

import (
	"container/heap"
	"math"
	"sort"

	"github.com/suranap/profstate/internal/ident"
)

// Base is the common header every container entry embeds. Level is
// assigned exactly once, by AssignLevels.
type Base struct {
	ProfUID  ident.ProfUID
	level    int
	assigned bool
}

// SetLevel assigns this entry's level. Calling it twice is a hard
// invariant violation: level is assigned exactly once.
func (b *Base) SetLevel(level int) {
	if b.assigned {
		panic("container: level assigned twice for the same entry")
	}
	b.level = level
	b.assigned = true
}

// Level returns the assigned level, or panics if none has been assigned.
func (b *Base) Level() int {
	if !b.assigned {
		panic("container: level read before assignment")
	}
	return b.level
}

// Leveled is implemented by any entry that can be swept for level
// assignment: it must expose a UID and a level-determining window (for
// processors: start/stop; for memories: ready/stop).
type Leveled interface {
	UID() ident.ProfUID
	SetLevel(level int)
}

// TimePoint is one endpoint ("first" start or "first=false" stop) of an
// entry's interval, or of a wait interval with inverted polarity when
// destined for UtilTimePoints.
type TimePoint struct {
	Time      uint64
	First     bool
	Secondary uint64
	UID       ident.ProfUID
	Level     int // filled in during the sweep for the retained start points
}

// byOrder sorts points by (time, first-before-stop, secondary): at equal
// times a start point is processed before a stop point, and ties within
// that are broken by the farthest-reaching interval first.
type byOrder []TimePoint

func (s byOrder) Len() int      { return len(s) }
func (s byOrder) Swap(i, j int) { s[i], s[j] = s[j], s[i] }
func (s byOrder) Less(i, j int) bool {
	if s[i].Time != s[j].Time {
		return s[i].Time < s[j].Time
	}
	oi, oj := 0, 0
	if !s[i].First {
		oi = 1
	}
	if !s[j].First {
		oj = 1
	}
	if oi != oj {
		return oi < oj
	}
	return s[i].Secondary < s[j].Secondary
}

// freeLevels is a min-heap of level numbers available for reuse.
type freeLevels []int

func (h freeLevels) Len() int            { return len(h) }
func (h freeLevels) Less(i, j int) bool  { return h[i] < h[j] }
func (h freeLevels) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *freeLevels) Push(x interface{}) { *h = append(*h, x.(int)) }
func (h *freeLevels) Pop() interface{} {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}

// Window returns the level-assignment interval for one entry: lo/hi
// (processors use start/stop, memories use ready/stop), plus the UID to
// re-identify the entry in the sorted order.
type Window struct {
	UID ident.ProfUID
	Lo  uint64
	Hi  uint64
}

// AssignLevels runs the free-level sweep over windows and calls setLevel
// for each UID with its assigned level. It returns maxLevels (one past
// the highest level used) and the sorted start-point stream (stop points
// already discarded).
func AssignLevels(windows []Window, setLevel func(ident.ProfUID, int)) (maxLevels int, startPoints []TimePoint) {
	points := make([]TimePoint, 0, len(windows)*2)
	for _, w := range windows {
		points = append(points, TimePoint{Time: w.Lo, First: true, Secondary: math.MaxUint64 - w.Hi, UID: w.UID})
		points = append(points, TimePoint{Time: w.Hi, First: false, Secondary: 0, UID: w.UID})
	}
	sort.Sort(byOrder(points))

	levelOf := make(map[ident.ProfUID]int, len(windows))
	free := &freeLevels{}
	heap.Init(free)

	for i := range points {
		p := &points[i]
		if p.First {
			var lvl int
			if free.Len() > 0 {
				lvl = heap.Pop(free).(int)
			} else {
				lvl = maxLevels
				maxLevels++
			}
			levelOf[p.UID] = lvl
			p.Level = lvl
			setLevel(p.UID, lvl)
		} else {
			heap.Push(free, levelOf[p.UID])
		}
	}

	startPoints = startPoints[:0]
	for _, p := range points {
		if p.First {
			startPoints = append(startPoints, p)
		}
	}
	return maxLevels, startPoints
}

// StackByLevel buckets a sorted start-point stream by assigned level,
// producing time_points_stacked.
func StackByLevel(points []TimePoint, maxLevels int) [][]TimePoint {
	stacked := make([][]TimePoint, maxLevels)
	for _, p := range points {
		stacked[p.Level] = append(stacked[p.Level], p)
	}
	return stacked
}

// RunningSegment is a sub-interval during which an entry was actually
// executing, split around its wait holes, used by
// FindPreviousExecutingEntry.
type RunningSegment struct {
	UID   ident.ProfUID
	Start uint64
	Stop  uint64
}

// FindPreviousExecutingEntry, given a (ready, start) window, searches
// one level's running segments (already sorted by Start ascending) for
// the most recent segment that overlaps [ready, start) and whose running
// sub-interval ends closest to start.
// ioCapable containers (which may run entries concurrently) should not
// call this; it is undefined there.
func FindPreviousExecutingEntry(segments []RunningSegment, ready, start uint64) (uid ident.ProfUID, runStart, runStop uint64, ok bool) {
	// binary search for the last segment with Start <= start.
	idx := sort.Search(len(segments), func(i int) bool {
		return segments[i].Start > start
	}) - 1

	bestFound := false
	var best RunningSegment
	for i := idx; i >= 0; i-- {
		seg := segments[i]
		if seg.Stop <= ready {
			// segments are sorted by Start; once a segment both starts
			// and stops before the window, keep scanning backward only
			// while segments might still overlap (Start could be < ready
			// with Stop > ready for an earlier, longer segment).
			continue
		}
		if seg.Start >= start {
			continue
		}
		// overlaps [ready, start)
		if !bestFound || closer(seg.Stop, start, best.Stop) {
			best = seg
			bestFound = true
		}
	}
	if !bestFound {
		return 0, 0, 0, false
	}
	return best.UID, best.Start, best.Stop, true
}

func closer(candidate, target, currentBest uint64) bool {
	cd := diff(candidate, target)
	bd := diff(currentBest, target)
	return cd < bd
}

func diff(a, b uint64) uint64 {
	if a > b {
		return a - b
	}
	return b - a
}
