// Package dict holds interned entity dictionaries populated by descriptor
// records: task kinds, variants, operation kinds, mapper/runtime call
// kinds, provenances, index/field spaces, backtraces, and a handful of
// machine-wide descriptors.
package dict

import (
	"fmt"

	"github.com/suranap/profstate/internal/ids"
)

// TaskKind names a task kind by TaskID.
type TaskKind struct {
	ID   ids.TaskID
	Name string
}

// TaskVariant names a (task, variant) pair.
type TaskVariant struct {
	Task    ids.TaskID
	ID      ids.VariantID
	Name    string
	IsMeta  bool
	Message bool // message variants are the source of skew, see package skew
}

// OpKind names an operation-kind code.
type OpKind struct {
	ID   int
	Name string
}

// CallKind names a mapper, runtime, or application call kind.
type CallKind struct {
	ID   int
	Name string
}

// Provenance is an interned provenance string.
type Provenance struct {
	ID   ids.ProvenanceID
	Text string
}

// Backtrace is an interned backtrace string.
type Backtrace struct {
	ID   ids.BacktraceID
	Text string
}

// Machine holds the small set of machine/runtime-wide descriptors:
// RuntimeConfig, MachineDesc, ZeroTime, CalibrationErr.
type Machine struct {
	NumNodes      uint32
	ZeroTimeNS    uint64 // offset added to every logged timestamp
	CalibrationNS int64  // measured clock calibration error, informational
}

// Dict is the set of interned dictionaries built from descriptor records.
type Dict struct {
	TaskKinds    map[ids.TaskID]*TaskKind
	TaskVariants map[ids.VariantID]*TaskVariant
	OpKinds      map[int]*OpKind
	MapperCalls  map[int]*CallKind
	RuntimeCalls map[int]*CallKind
	Provenances  map[ids.ProvenanceID]*Provenance
	Backtraces   map[ids.BacktraceID]*Backtrace
	Machine      Machine
}

// New returns an empty Dict with all maps initialized.
func New() *Dict {
	return &Dict{
		TaskKinds:    make(map[ids.TaskID]*TaskKind),
		TaskVariants: make(map[ids.VariantID]*TaskVariant),
		OpKinds:      make(map[int]*OpKind),
		MapperCalls:  make(map[int]*CallKind),
		RuntimeCalls: make(map[int]*CallKind),
		Provenances:  make(map[ids.ProvenanceID]*Provenance),
		Backtraces:   make(map[ids.BacktraceID]*Backtrace),
	}
}

// SetTaskKind registers a task kind, asserting no name contradicts an
// existing registration — a contradictory update is a hard invariant
// violation, not a recoverable anomaly.
func (d *Dict) SetTaskKind(id ids.TaskID, name string) {
	if existing, ok := d.TaskKinds[id]; ok && existing.Name != name {
		panic(fmt.Sprintf("dict: task kind %d redefined %q -> %q", id, existing.Name, name))
	}
	d.TaskKinds[id] = &TaskKind{ID: id, Name: name}
}

// SetTaskVariant registers a task variant.
func (d *Dict) SetTaskVariant(task ids.TaskID, variant ids.VariantID, name string, isMeta, message bool) {
	d.TaskVariants[variant] = &TaskVariant{Task: task, ID: variant, Name: name, IsMeta: isMeta, Message: message}
}

// InternProvenance interns text under id, returning the existing entry if
// id was already registered (whatever its text).
func (d *Dict) InternProvenance(id ids.ProvenanceID, text string) *Provenance {
	if p, ok := d.Provenances[id]; ok {
		return p
	}
	p := &Provenance{ID: id, Text: text}
	d.Provenances[id] = p
	return p
}

// InternBacktrace interns a backtrace string under id.
func (d *Dict) InternBacktrace(id ids.BacktraceID, text string) *Backtrace {
	if b, ok := d.Backtraces[id]; ok {
		return b
	}
	b := &Backtrace{ID: id, Text: text}
	d.Backtraces[id] = b
	return b
}
