// Package record defines the Record sealed-interface variant set. The
// function that consumes one record and mutates State is State.Dispatch
// in package state.
package record

import (
	"github.com/suranap/profstate/internal/copysplit"
	"github.com/suranap/profstate/internal/ident"
	"github.com/suranap/profstate/internal/ids"
)

// Record is implemented by every concrete record type. isRecord is
// unexported so the variant set is sealed to this package, mirroring the
// teacher's pattern of small tagged structs dispatched by a type switch
// (there being no enum-with-payload construct in Go).
type Record interface {
	isRecord()
}

type base struct{}

func (base) isRecord() {}

// --- Machine/runtime descriptors (populate dictionaries) ---

// MapperName names a mapper by ID.
type MapperName struct {
	base
	MapperID uint32
	Name     string
}

// MapperCallDesc names a mapper call kind.
type MapperCallDesc struct {
	base
	Kind int
	Name string
}

// RuntimeCallDesc names a runtime call kind.
type RuntimeCallDesc struct {
	base
	Kind int
	Name string
}

// MetaDesc names a meta-task variant kind, optionally marking it as a
// message variant, the source of cross-node skew samples.
type MetaDesc struct {
	base
	VariantID ids.VariantID
	Name      string
	Message   bool
}

// OpDesc names an operation kind.
type OpDesc struct {
	base
	Kind int
	Name string
}

// MaxDimDesc records the maximum index-space dimensionality in use.
type MaxDimDesc struct {
	base
	MaxDim uint32
}

// RuntimeConfig carries small machine-wide runtime settings.
type RuntimeConfig struct {
	base
	NumNodes uint32
}

// MachineDesc supplements RuntimeConfig with machine topology metadata.
type MachineDesc struct {
	base
	NumNodes uint32
}

// ZeroTime records the offset added to every logged timestamp.
type ZeroTime struct {
	base
	ZeroTimeNS uint64
}

// Provenance interns a provenance string.
type Provenance struct {
	base
	ID   ids.ProvenanceID
	Text string
}

// CalibrationErr records a measured clock calibration error, informational
// only.
type CalibrationErr struct {
	base
	Nanos int64
}

// ProcDesc names a processor and its kind.
type ProcDesc struct {
	base
	ProcID ids.ProcID
	Kind   string
	IsIO   bool
}

// MemDesc names a memory, its capacity, and whether that capacity is
// dynamic.
type MemDesc struct {
	base
	MemID    ids.MemID
	Capacity uint64
	Dynamic  bool
}

// ProcMDesc describes a processor/memory affinity entry; carried for
// completeness, does not affect container semantics.
type ProcMDesc struct {
	base
	ProcID ids.ProcID
	MemID  ids.MemID
}

// IndexSpaceDesc, FieldSpaceDesc, and LogicalRegionDesc are descriptive
// metadata records; Dispatch does not store them and they do not affect
// timeline semantics.
type IndexSpaceDesc struct {
	base
	ID   uint64
	Name string
}

type FieldSpaceDesc struct {
	base
	ID   uint64
	Name string
}

type LogicalRegionDesc struct {
	base
	Tree uint64
	Name string
}

// PhysicalInstRegionDesc and PhysicalInstLayoutDesc describe an instance's
// region-tree and layout metadata. The region descriptor is attached to
// the instance draft; the layout descriptor is not stored.
type PhysicalInstRegionDesc struct {
	base
	InstUID ident.ProfUID
	ISpace  uint64
	FSpace  uint64
	Tree    uint64
}

type PhysicalInstLayoutDesc struct {
	base
	InstUID ident.ProfUID
	Fields  []string
}

// TaskKind names a task kind.
type TaskKind struct {
	base
	TaskID ids.TaskID
	Name   string
}

// TaskVariant names a task variant.
type TaskVariant struct {
	base
	TaskID    ids.TaskID
	VariantID ids.VariantID
	Name      string
}

// OperationInstance names one operation instance (the op's kind).
type OperationInstance struct {
	base
	OpID ids.OpID
	Kind int
}

// MultiTask marks an operation as a multi-task (index launch) point.
type MultiTask struct {
	base
	OpID   ids.OpID
	TaskID ids.TaskID
}

// SliceOwner records which multi-task owns a slice operation.
type SliceOwner struct {
	base
	OwnerOpID ids.OpID
	SliceOpID ids.OpID
}

// BacktraceDesc interns a backtrace string.
type BacktraceDesc struct {
	base
	ID   ids.BacktraceID
	Text string
}

// --- Wait-info rows (append to last matching task/meta entry) ---

// TaskWaitInfo is one wait interval on a task, naming either the event
// blocked on or (once reconciliation runs) a nested call.
type TaskWaitInfo struct {
	base
	OpID  ids.OpID
	Start uint64
	Ready uint64
	End   uint64
	Event *ids.EventID
}

// MetaWaitInfo is the meta-task equivalent of TaskWaitInfo.
type MetaWaitInfo struct {
	base
	VariantID ids.VariantID
	OpID      ids.OpID
	Start     uint64
	Ready     uint64
	End       uint64
	Event     *ids.EventID
}

// EventWaitInfo attaches a backtrace to a previously recorded wait that
// had none; the wait itself stays on the task entry it was recorded
// against.
type EventWaitInfo struct {
	base
	OpID      ids.OpID
	Event     ids.EventID
	Backtrace ids.BacktraceID
}

// --- Processor-entry records ---

// TaskInfo creates a Task processor entry.
type TaskInfo struct {
	base
	OpID      ids.OpID
	TaskID    ids.TaskID
	VariantID ids.VariantID
	ProcID    ids.ProcID
	Creator   ident.ProfUID
	Create    uint64
	Ready     uint64
	Start     uint64
	Stop      uint64
	FEvent    ident.FEvent
}

// ImplicitTaskInfo is TaskInfo's variant for implicitly-created top-level
// tasks.
type ImplicitTaskInfo struct {
	base
	TaskInfo
}

// GPUTaskInfo extends TaskInfo with device-side start/stop timestamps.
// Dispatch records it as a GPU-kernel entry built from its TaskInfo
// fields; GPUStart and GPUStop are not stored. If GPUStop precedes
// GPUStart, Dispatch logs a warning and keeps the entry; the timestamps
// are not truncated.
type GPUTaskInfo struct {
	base
	TaskInfo
	GPUStart uint64
	GPUStop  uint64
}

// MetaInfo creates a MetaTask processor entry.
type MetaInfo struct {
	base
	OpID      ids.OpID
	VariantID ids.VariantID
	ProcID    ids.ProcID
	Creator   ident.ProfUID
	Create    uint64
	Ready     uint64
	Start     uint64
	Stop      uint64
	FEvent    ident.FEvent
}

// MessageInfo is MetaInfo's specialization for message meta-tasks: Spawn
// runs on the sender's clock and may exceed Create, the skew signal that
// package skew accumulates per node pair.
type MessageInfo struct {
	base
	MetaInfo
	Spawn uint64
}

// SpawnInfo records the spawn time of an operation separately from its
// meta-task record, for operations whose message record arrives without
// an inline spawn field.
type SpawnInfo struct {
	base
	OpID  ids.OpID
	Spawn uint64
}

// MapperCallInfo, RuntimeCallInfo, and ApplicationCallInfo create the
// three call-kind processor entries, later reshaped by package reconcile.
type MapperCallInfo struct {
	base
	Kind    int
	OpID    ids.OpID
	ProcID  ids.ProcID
	Creator ident.ProfUID
	Start   uint64
	Stop    uint64
}

type RuntimeCallInfo struct {
	base
	Kind    int
	ProcID  ids.ProcID
	Creator ident.ProfUID
	Start   uint64
	Stop    uint64
}

type ApplicationCallInfo struct {
	base
	ProcID  ids.ProcID
	Creator ident.ProfUID
	Start   uint64
	Stop    uint64
	Name    string
}

// ProfTaskInfo describes a profiling callback about some other entity;
// its create/ready times are resolved by State.resolveProfTask by looking
// up the profiled entity's own recorded range.
type ProfTaskInfo struct {
	base
	ProcID         ids.ProcID
	ProfiledFEvent ident.FEvent
	FEvent         ident.FEvent
}

// --- Channel-entry drafts (copy/fill info; deferred via side tables) ---

// CopyInfo opens a copy draft keyed by FEvent; its per-instance rows
// arrive later as CopyInstInfo records, since the wire format emits them
// as a separate stream of rows rather than inline with the copy itself.
type CopyInfo struct {
	base
	OpID    ids.OpID
	Creator ident.ProfUID
	Create  uint64
	Ready   uint64
	Start   uint64
	Stop    uint64
	FEvent  ident.FEvent
}

// CopyInstInfo is one row of a copy's flat inst-info list.
type CopyInstInfo struct {
	base
	FEvent   ident.FEvent
	Row      copysplit.InstInfoRow
}

// FillInfo opens a fill draft keyed by FEvent.
type FillInfo struct {
	base
	OpID    ids.OpID
	Creator ident.ProfUID
	Create  uint64
	Ready   uint64
	Start   uint64
	Stop    uint64
	FEvent  ident.FEvent
}

// FillInstInfo is one row of a fill's inst-info list (fills have no
// indirection, so this carries only the destination memory).
type FillInstInfo struct {
	base
	FEvent ident.FEvent
	Dst    ids.MemID
}

// PartitionInfo creates a DepPart channel entry directly (dependent
// partitioning operations have no per-instance rows to defer).
type PartitionInfo struct {
	base
	OpID    ids.OpID
	Creator ident.ProfUID
	Create  uint64
	Ready   uint64
	Start   uint64
	Stop    uint64
}

// --- Instance drafts (deferred via side table keyed by UID) ---

// InstTimelineInfo opens an instance draft.
type InstTimelineInfo struct {
	base
	InstUID  ident.ProfUID
	MemID    ids.MemID
	Size     uint64
	Creator  ident.ProfUID
	Spawn    *uint64 // allocation-response time; nil means allocated_immediately
	Ready    uint64
	Destroy  uint64
}

// --- Event-DAG construction records ---

// EventMergerInfo records a Merge event node with incoming edges from its
// preconditions.
type EventMergerInfo struct {
	base
	Result        ids.EventID
	Preconditions []ids.EventID
	CreationTime  uint64
}

// EventTriggerInfo records a Trigger event with a precondition edge.
// Deduplicates iff the result and precondition belong to different
// owner nodes.
type EventTriggerInfo struct {
	base
	Result       ids.EventID
	Precondition ids.EventID
	CreationTime uint64
	TriggerTime  uint64
}

// EventPoisonInfo is EventTriggerInfo's poisoned-trigger counterpart.
type EventPoisonInfo struct {
	base
	Result       ids.EventID
	CreationTime uint64
}

// ExternalEventInfo records an externally-triggered event tagged with a
// provenance.
type ExternalEventInfo struct {
	base
	Result       ids.EventID
	Provenance   ids.ProvenanceID
	CreationTime uint64
	TriggerTime  uint64
}

// BarrierArrivalInfo records a barrier phase arrival; deduplicates,
// keeping the latest arrival.
type BarrierArrivalInfo struct {
	base
	Result       ids.EventID
	Precondition *ids.EventID
	CreationTime uint64
	TriggerTime  uint64
}

// ReservationAcquireInfo records a reservation-acquire event.
type ReservationAcquireInfo struct {
	base
	Result       ids.EventID
	Precondition ids.EventID
	CreationTime uint64
}

// CompletionQueueInfo records a completion-queue event with multiple
// incoming edges; the earliest to trigger determines its own trigger
// time.
type CompletionQueueInfo struct {
	base
	Result        ids.EventID
	Preconditions []ids.EventID
	CreationTime  uint64
}

// InstanceReadyInfo records the event that fires when an instance becomes
// ready for use.
type InstanceReadyInfo struct {
	base
	Result       ids.EventID
	Precondition ids.EventID
	InstUID      ident.ProfUID
	CreationTime uint64
}

// InstanceRedistrictInfo records a redistrict event: an instance is
// replaced by a successor sharing data.
type InstanceRedistrictInfo struct {
	base
	Result       ids.EventID
	Precondition ids.EventID
	OldInstUID   ident.ProfUID
	NewInstUID   ident.ProfUID
	CreationTime uint64
}
