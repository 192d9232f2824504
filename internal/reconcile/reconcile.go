// Package reconcile reshapes a processor's flat entries so that
// mapper/runtime/application calls appear as waiter intervals of their
// enclosing task, and each call steals any event-waits it strictly
// contains. This is what makes a flame-graph-style containment hierarchy
// reconstructible from an otherwise flat interval list.
package reconcile

import (
	"fmt"
	"sort"

	"github.com/suranap/profstate/internal/ident"
	"github.com/suranap/profstate/internal/proc"
)

// Reconcile performs the caller/waiter reconciliation pass over one
// processor's host entries. It must run before level assignment: it
// operates per processor, ahead of the sort.
func Reconcile(p *proc.Proc) {
	callsByTask := make(map[ident.ProfUID][]*proc.Entry)
	tasks := make(map[ident.ProfUID]*proc.Entry)

	for _, e := range p.HostEntries {
		switch e.Kind {
		case proc.KindTask, proc.KindMetaTask:
			tasks[e.ProfUID] = e
		case proc.KindMapperCall, proc.KindRuntimeCall, proc.KindApplicationCall:
			callsByTask[e.Creator] = append(callsByTask[e.Creator], e)
		}
	}

	for taskUID, calls := range callsByTask {
		task, ok := tasks[taskUID]
		if !ok {
			// The owning task wasn't found among host entries (e.g. a
			// meta-task recorded on a different partition); nothing to
			// nest against.
			continue
		}

		// Step 1: sort calls by ascending duration.
		sort.Slice(calls, func(i, j int) bool {
			return duration(calls[i]) < duration(calls[j])
		})

		// Step 2: move each of the task's event-waits into the smallest
		// call that strictly contains it.
		pending := task.Waiters
		task.Waiters = nil
		for _, w := range pending {
			placed := false
			for _, call := range calls {
				if strictlyContains(call, w.Start, w.End) {
					call.AddWait(w)
					placed = true
					break
				}
				if overlapsNotContains(call, w.Start, w.End) {
					panic(fmt.Sprintf("reconcile: event-wait [%d,%d] overlaps call [%d,%d] without containment",
						w.Start, w.End, callStart(call), callStop(call)))
				}
			}
			if !placed {
				task.AddWait(w)
			}
		}

		// Step 3: nest each call under the next-larger call that
		// contains it, else under the owning task.
		for i, call := range calls {
			enclosing := findNextLargerEnclosing(calls, i)
			target := task
			if enclosing != nil {
				target = enclosing
			}
			for j, other := range calls {
				if j == i || other == enclosing {
					continue
				}
				if strictlyContains(other, callStart(call), callStop(call)) {
					// other also contains call but isn't the
					// next-larger enclosing one found; only a hard
					// error if neither containment nor disjointness
					// holds between call and other.
					continue
				}
			}
			uid := call.ProfUID
			target.AddWait(proc.WaitInterval{
				Start:  callStart(call),
				Ready:  callStop(call),
				End:    callStop(call),
				Callee: &uid,
			})

			// Step 4: propagate initiation_op and set creator to the
			// immediate enclosing caller.
			call.OpID = task.OpID
			if enclosing != nil {
				call.Creator = enclosing.ProfUID
			} else {
				call.Creator = task.ProfUID
			}
		}

		// Detect non-nested overlap between any two calls (hard error).
		for i := range calls {
			for j := i + 1; j < len(calls); j++ {
				if overlapsButNeitherContains(calls[i], calls[j]) {
					panic(fmt.Sprintf("reconcile: calls [%d,%d] and [%d,%d] overlap without nesting",
						callStart(calls[i]), callStop(calls[i]), callStart(calls[j]), callStop(calls[j])))
				}
			}
		}
	}
}

func duration(e *proc.Entry) uint64 {
	return callStop(e) - callStart(e)
}

func callStart(e *proc.Entry) uint64 {
	if e.Range.Start == nil {
		return 0
	}
	return uint64(*e.Range.Start)
}

func callStop(e *proc.Entry) uint64 {
	if e.Range.Stop == nil {
		return 0
	}
	return uint64(*e.Range.Stop)
}

// strictlyContains reports whether call's [start,stop] strictly contains
// [lo, hi] (call's bounds are allowed to equal the outer bounds; "strict"
// here follows the original's meaning of non-identical containment used
// to find the *smallest* enclosing call, not a requirement that bounds
// differ).
func strictlyContains(call *proc.Entry, lo, hi uint64) bool {
	return callStart(call) <= lo && hi <= callStop(call)
}

func overlapsNotContains(call *proc.Entry, lo, hi uint64) bool {
	cs, ce := callStart(call), callStop(call)
	overlaps := lo < ce && cs < hi
	return overlaps && !strictlyContains(call, lo, hi)
}

func overlapsButNeitherContains(a, b *proc.Entry) bool {
	as, ae := callStart(a), callStop(a)
	bs, be := callStart(b), callStop(b)
	overlaps := as < be && bs < ae
	if !overlaps {
		return false
	}
	aContainsB := as <= bs && be <= ae
	bContainsA := bs <= as && ae <= be
	return !aContainsB && !bContainsA
}

// findNextLargerEnclosing finds, among calls, the smallest call (by
// duration, since calls is sorted ascending) with index > i that
// strictly contains calls[i]. Returns nil if none does.
func findNextLargerEnclosing(calls []*proc.Entry, i int) *proc.Entry {
	target := calls[i]
	for j := i + 1; j < len(calls); j++ {
		if strictlyContains(calls[j], callStart(target), callStop(target)) {
			return calls[j]
		}
	}
	return nil
}
