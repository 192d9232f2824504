// Package ident allocates dense profile UIDs and maintains the bijection
// between runtime fevents and those UIDs.
package ident

import "fmt"

// ProfUID is the dense 64-bit identifier assigned to any profiled entity.
type ProfUID uint64

// FEvent is a runtime-emitted first-class event identifier used to
// correlate a defining record with later references to the same entity.
type FEvent uint64

// Allocator hands out ProfUIDs and tracks the fevent <-> ProfUID bijection.
// Not safe for concurrent use; ingest is single-threaded per the
// concurrency model.
type Allocator struct {
	next      ProfUID
	byFevent  map[FEvent]ProfUID
	objects   map[FEvent]bool // fevents that have been create_object'd
	inverse   map[ProfUID]FEvent
	completed bool
}

// NewAllocator returns an empty Allocator.
func NewAllocator() *Allocator {
	return &Allocator{
		byFevent: make(map[FEvent]ProfUID),
		objects:  make(map[FEvent]bool),
	}
}

// CreateFresh returns the next sequential UID with no fevent association.
func (a *Allocator) CreateFresh() ProfUID {
	uid := a.next
	a.next++
	return uid
}

// CreateReference returns the UID interned for fevent, allocating one if
// this is the first mention. Many references to the same fevent collapse
// onto one UID.
func (a *Allocator) CreateReference(fe FEvent) ProfUID {
	if uid, ok := a.byFevent[fe]; ok {
		return uid
	}
	uid := a.CreateFresh()
	a.byFevent[fe] = uid
	return uid
}

// CreateObject returns the UID for fevent like CreateReference, but asserts
// this is the single defining mention of fevent: calling it twice for the
// same fevent is a hard invariant violation.
func (a *Allocator) CreateObject(fe FEvent) ProfUID {
	if a.objects[fe] {
		panic(fmt.Sprintf("ident: fevent %d defined as object more than once", fe))
	}
	a.objects[fe] = true
	return a.CreateReference(fe)
}

// CompleteParse inverts the forward fevent->UID table to support
// UID->fevent lookup, then clears the forward map. Idempotent: calling it
// a second time is a no-op because the allocator is already marked
// completed.
func (a *Allocator) CompleteParse() {
	if a.completed {
		return
	}
	a.inverse = make(map[ProfUID]FEvent, len(a.byFevent))
	for fe, uid := range a.byFevent {
		a.inverse[uid] = fe
	}
	a.byFevent = make(map[FEvent]ProfUID)
	a.completed = true
}

// FindFevent looks up the fevent that produced uid. Only valid after
// CompleteParse.
func (a *Allocator) FindFevent(uid ProfUID) (FEvent, bool) {
	fe, ok := a.inverse[uid]
	return fe, ok
}
