// Package timeline implements nanosecond timestamps and the five-field
// ordered time range every profiled entry carries.
package timeline

import "fmt"

// Timestamp is a nanosecond-resolution instant. The max uint64 value is
// reserved as "absent" is represented instead by a nil *Timestamp in
// TimeRange; Timestamp itself never carries that sentinel.
type Timestamp uint64

// TimeRange holds the five ordered instants of an entry's lifecycle. All
// fields are optional; when present they must satisfy
// create <= ready <= start <= stop. Spawn may run on a different clock
// than the rest (sender-side) and can therefore exceed Create -- that
// excess is the skew signal consumed by package skew.
type TimeRange struct {
	Spawn  *Timestamp
	Create *Timestamp
	Ready  *Timestamp
	Start  *Timestamp
	Stop   *Timestamp
}

// AllocatedImmediately reports whether no Spawn time was ever recorded,
// meaning the entity's allocation response coincided with its request.
func (r TimeRange) AllocatedImmediately() bool {
	return r.Spawn == nil
}

func clip(t *Timestamp, lo, hi uint64) *Timestamp {
	if t == nil {
		return nil
	}
	v := uint64(*t)
	if v < lo {
		v = lo
	}
	if v > hi {
		v = hi
	}
	v -= lo
	out := Timestamp(v)
	return &out
}

// TrimTimeRange clips all five fields into [0, hi-lo] after subtracting lo.
// It returns ok=false when the interval falls entirely outside [lo, hi],
// signaling the caller to drop the entry. The drop decision looks only at
// Stop and Start: an entry whose Stop is before lo, or whose Start is
// after hi, is dropped outright; Create/Ready never factor in, since they
// can legitimately fall inside the window while the entry's actual
// execution (Start..Stop) does not.
func TrimTimeRange(r TimeRange, lo, hi uint64) (out TimeRange, ok bool) {
	if hi < lo {
		panic(fmt.Sprintf("timeline: trim range hi(%d) < lo(%d)", hi, lo))
	}
	if r.Stop != nil && uint64(*r.Stop) < lo {
		return TimeRange{}, false
	}
	if r.Start != nil && uint64(*r.Start) > hi {
		return TimeRange{}, false
	}

	out.Spawn = clip(r.Spawn, lo, hi)
	out.Create = clip(r.Create, lo, hi)
	out.Ready = clip(r.Ready, lo, hi)
	out.Start = clip(r.Start, lo, hi)
	out.Stop = clip(r.Stop, lo, hi)
	return out, true
}

// Ptr returns a pointer to a Timestamp value, a convenience for building
// literals in tests and record dispatch.
func Ptr(v uint64) *Timestamp {
	t := Timestamp(v)
	return &t
}
