// Package state assembles the top-level State: entity dictionaries,
// containers, the event DAG, and the post-processing pipeline that turns
// a flat Record stream into a timeline-ready, query-able representation.
package state

import (
	"fmt"
	"sort"
	"sync"

	"github.com/suranap/profstate/internal/alog"
	"github.com/suranap/profstate/internal/chan_"
	"github.com/suranap/profstate/internal/color"
	"github.com/suranap/profstate/internal/config"
	"github.com/suranap/profstate/internal/container"
	"github.com/suranap/profstate/internal/copysplit"
	"github.com/suranap/profstate/internal/dict"
	"github.com/suranap/profstate/internal/eventdag"
	"github.com/suranap/profstate/internal/ident"
	"github.com/suranap/profstate/internal/ids"
	"github.com/suranap/profstate/internal/mem"
	"github.com/suranap/profstate/internal/proc"
	"github.com/suranap/profstate/internal/reconcile"
	"github.com/suranap/profstate/internal/record"
	"github.com/suranap/profstate/internal/skew"
	"github.com/suranap/profstate/internal/timeline"
)

// copyDraft is the side-table entry for a copy whose per-instance rows
// may still be arriving.
type copyDraft struct {
	creator ident.ProfUID
	opID    ids.OpID
	rng     timeline.TimeRange
	rows    []copysplit.InstInfoRow
}

// fillDraft is the copy-draft equivalent for fills.
type fillDraft struct {
	creator ident.ProfUID
	opID    ids.OpID
	rng     timeline.TimeRange
	dsts    []ids.MemID
}

// instDraft is the side-table entry for an instance, keyed by UID.
type instDraft struct {
	memID    ids.MemID
	size     uint64
	creator  ident.ProfUID
	rng      timeline.TimeRange
	previous *ident.ProfUID
	iSpace   uint64
	fSpace   uint64
	tree     uint64
}

// State is the fully assembled in-memory profile. See the query surface
// defined below for how to read it back out.
type State struct {
	Dict     *dict.Dict
	Alloc    *ident.Allocator
	Graph    *eventdag.Graph
	Procs    map[ids.ProcID]*proc.Proc
	Mems     map[ids.MemID]*mem.Mem
	Chans    map[ids.ChanID]*chan_.Chan
	Skew     *skew.Audit
	Log      *alog.Logger

	copyDrafts map[ident.FEvent]*copyDraft
	fillDrafts map[ident.FEvent]*fillDraft
	instDrafts map[ident.ProfUID]*instDraft

	opCreator map[ids.OpID]ident.ProfUID // last task/meta entry seen for an op
	opToProc  map[ids.OpID]ids.ProcID
	provenances map[ids.ProvenanceID]string

	opColors map[ids.OpID]color.RGB

	lastTime uint64
	hasCriticalPathData bool
}

// New returns an empty State. log may be nil to discard warnings.
func New(log *alog.Logger) *State {
	if log == nil {
		log = alog.New(false)
	}
	return &State{
		Dict:        dict.New(),
		Alloc:       ident.NewAllocator(),
		Graph:       eventdag.New(log),
		Procs:       make(map[ids.ProcID]*proc.Proc),
		Mems:        make(map[ids.MemID]*mem.Mem),
		Chans:       make(map[ids.ChanID]*chan_.Chan),
		Skew:        skew.NewAudit(100000, 0.1, log),
		Log:         log,
		copyDrafts:  make(map[ident.FEvent]*copyDraft),
		fillDrafts:  make(map[ident.FEvent]*fillDraft),
		instDrafts:  make(map[ident.ProfUID]*instDraft),
		opCreator:   make(map[ids.OpID]ident.ProfUID),
		opToProc:    make(map[ids.OpID]ids.ProcID),
		provenances: make(map[ids.ProvenanceID]string),
		opColors:    make(map[ids.OpID]color.RGB),
	}
}

func (s *State) getProc(id ids.ProcID) *proc.Proc {
	p, ok := s.Procs[id]
	if !ok {
		p = proc.New(id, fmt.Sprintf("proc %d", id), false)
		s.Procs[id] = p
	}
	return p
}

func (s *State) getMem(id ids.MemID) *mem.Mem {
	m, ok := s.Mems[id]
	if !ok {
		m = mem.New(id, fmt.Sprintf("mem %d", id), 0)
		s.Mems[id] = m
	}
	return m
}

func (s *State) getChan(id ids.ChanID) *chan_.Chan {
	c, ok := s.Chans[id]
	if !ok {
		c = chan_.New(id, fmt.Sprintf("chan %v", id))
		s.Chans[id] = c
	}
	return c
}

func rangeOf(create, ready, start, stop uint64) timeline.TimeRange {
	return timeline.TimeRange{
		Create: timeline.Ptr(create),
		Ready:  timeline.Ptr(ready),
		Start:  timeline.Ptr(start),
		Stop:   timeline.Ptr(stop),
	}
}

// Dispatch consumes one record and mutates State, routing it by concrete
// type to the dictionary, container, or side table it belongs to.
func (s *State) Dispatch(r record.Record) {
	switch rec := r.(type) {

	// --- dictionaries ---
	case record.MapperCallDesc:
		s.Dict.MapperCalls[rec.Kind] = &dict.CallKind{ID: rec.Kind, Name: rec.Name}
	case record.RuntimeCallDesc:
		s.Dict.RuntimeCalls[rec.Kind] = &dict.CallKind{ID: rec.Kind, Name: rec.Name}
	case record.OpDesc:
		s.Dict.OpKinds[rec.Kind] = &dict.OpKind{ID: rec.Kind, Name: rec.Name}
	case record.TaskKind:
		s.Dict.SetTaskKind(rec.TaskID, rec.Name)
	case record.TaskVariant:
		s.Dict.SetTaskVariant(rec.TaskID, rec.VariantID, rec.Name, false, false)
	case record.MetaDesc:
		s.Dict.SetTaskVariant(0, rec.VariantID, rec.Name, true, rec.Message)
	case record.Provenance:
		s.Dict.InternProvenance(rec.ID, rec.Text)
		s.provenances[rec.ID] = rec.Text
	case record.BacktraceDesc:
		s.Dict.InternBacktrace(rec.ID, rec.Text)
	case record.ZeroTime:
		s.Dict.Machine.ZeroTimeNS = rec.ZeroTimeNS
	case record.RuntimeConfig:
		s.Dict.Machine.NumNodes = rec.NumNodes
	case record.MachineDesc:
		s.Dict.Machine.NumNodes = rec.NumNodes
	case record.CalibrationErr:
		s.Dict.Machine.CalibrationNS = rec.Nanos
	case record.ProcDesc:
		p := s.getProc(rec.ProcID)
		p.Name = rec.Kind
		p.IsIO = rec.IsIO
	case record.MemDesc:
		m := s.getMem(rec.MemID)
		capacity := rec.Capacity
		if rec.Dynamic {
			capacity = mem.DynamicCapacity
		}
		m.Capacity = capacity
	case record.PhysicalInstRegionDesc:
		d, ok := s.instDrafts[rec.InstUID]
		if !ok {
			d = &instDraft{}
			s.instDrafts[rec.InstUID] = d
		}
		d.iSpace, d.fSpace, d.tree = rec.ISpace, rec.FSpace, rec.Tree
	case record.OperationInstance:
		// Descriptive only; op-kind lookups go through s.Dict.OpKinds.

	// --- processor entries ---
	case record.TaskInfo:
		s.dispatchTask(rec, proc.KindTask)
	case record.ImplicitTaskInfo:
		s.dispatchTask(rec.TaskInfo, proc.KindTask)
	case record.GPUTaskInfo:
		if rec.GPUStop < rec.GPUStart {
			s.Log.Warn("GPU task fevent %d: gpu_start %d exceeds gpu_stop %d, ignoring device timestamps", rec.FEvent, rec.GPUStart, rec.GPUStop)
		}
		s.dispatchTask(rec.TaskInfo, proc.KindGPUKernel)
	case record.MetaInfo:
		s.dispatchMeta(rec, 0)
	case record.MessageInfo:
		s.dispatchMeta(rec.MetaInfo, rec.Spawn)
	case record.MapperCallInfo:
		s.dispatchCall(proc.KindMapperCall, rec.OpID, rec.ProcID, rec.Creator, rec.Start, rec.Stop, rec.Kind, "")
	case record.RuntimeCallInfo:
		s.dispatchCall(proc.KindRuntimeCall, 0, rec.ProcID, rec.Creator, rec.Start, rec.Stop, rec.Kind, "")
	case record.ApplicationCallInfo:
		s.dispatchCall(proc.KindApplicationCall, 0, rec.ProcID, rec.Creator, rec.Start, rec.Stop, 0, rec.Name)

	// --- wait info ---
	case record.TaskWaitInfo:
		s.appendWait(rec.OpID, proc.WaitInterval{Start: rec.Start, Ready: rec.Ready, End: rec.End, Event: rec.Event})
	case record.MetaWaitInfo:
		s.appendWait(rec.OpID, proc.WaitInterval{Start: rec.Start, Ready: rec.Ready, End: rec.End, Event: rec.Event})
	case record.EventWaitInfo:
		bt := rec.Backtrace
		s.attachBacktrace(rec.OpID, rec.Event, bt)

	// --- channel drafts ---
	case record.CopyInfo:
		s.copyDrafts[rec.FEvent] = &copyDraft{
			creator: rec.Creator,
			opID:    rec.OpID,
			rng:     rangeOf(rec.Create, rec.Ready, rec.Start, rec.Stop),
		}
	case record.CopyInstInfo:
		if d, ok := s.copyDrafts[rec.FEvent]; ok {
			d.rows = append(d.rows, rec.Row)
		}
	case record.FillInfo:
		s.fillDrafts[rec.FEvent] = &fillDraft{
			creator: rec.Creator,
			opID:    rec.OpID,
			rng:     rangeOf(rec.Create, rec.Ready, rec.Start, rec.Stop),
		}
	case record.FillInstInfo:
		if d, ok := s.fillDrafts[rec.FEvent]; ok {
			d.dsts = append(d.dsts, rec.Dst)
		}
	case record.PartitionInfo:
		uid := s.Alloc.CreateFresh()
		e := &chan_.Entry{
			Base:    container.Base{ProfUID: uid},
			Kind:    chan_.KindDepPart,
			Creator: rec.Creator,
			Range:   rangeOf(rec.Create, rec.Ready, rec.Start, rec.Stop),
		}
		s.getChan(ids.ChanID{Kind: ids.ChanKindDepPart}).AddEntry(e)

	// --- instance drafts ---
	case record.InstTimelineInfo:
		rng := timeline.TimeRange{Ready: timeline.Ptr(rec.Ready), Start: timeline.Ptr(rec.Ready), Stop: timeline.Ptr(rec.Destroy)}
		if rec.Spawn != nil {
			rng.Spawn = timeline.Ptr(*rec.Spawn)
		}
		d, ok := s.instDrafts[rec.InstUID]
		if !ok {
			d = &instDraft{}
			s.instDrafts[rec.InstUID] = d
		}
		d.memID, d.size, d.creator, d.rng = rec.MemID, rec.Size, rec.Creator, rng

	// --- event DAG ---
	case record.EventMergerInfo:
		s.Graph.RecordEventNode(rec.Result, eventdag.KindMerge, nil, rec.CreationTime, nil, true)
		for _, p := range rec.Preconditions {
			s.Graph.FindEventNode(p)
			s.Graph.AddEdge(p, rec.Result)
		}
	case record.EventTriggerInfo:
		dedup := rec.Result.OwnerNode() != rec.Precondition.OwnerNode()
		tt := rec.TriggerTime
		s.Graph.RecordEventNode(rec.Result, eventdag.KindTrigger, nil, rec.CreationTime, &tt, dedup)
		s.Graph.FindEventNode(rec.Precondition)
		s.Graph.AddEdge(rec.Precondition, rec.Result)
	case record.EventPoisonInfo:
		s.Graph.RecordEventNode(rec.Result, eventdag.KindPoison, nil, rec.CreationTime, nil, false)
	case record.ExternalEventInfo:
		tt := rec.TriggerTime
		s.Graph.RecordEventNode(rec.Result, eventdag.KindExternalEvent, nil, rec.CreationTime, &tt, false)
	case record.BarrierArrivalInfo:
		tt := rec.TriggerTime
		s.Graph.RecordEventNode(rec.Result, eventdag.KindArriveBarrier, nil, rec.CreationTime, &tt, true)
		if rec.Precondition != nil {
			s.Graph.FindEventNode(*rec.Precondition)
			s.Graph.AddEdge(*rec.Precondition, rec.Result)
		}
	case record.ReservationAcquireInfo:
		s.Graph.RecordEventNode(rec.Result, eventdag.KindReservationAcquire, nil, rec.CreationTime, nil, false)
		s.Graph.FindEventNode(rec.Precondition)
		s.Graph.AddEdge(rec.Precondition, rec.Result)
	case record.CompletionQueueInfo:
		s.Graph.RecordEventNode(rec.Result, eventdag.KindCompletionQueueEvent, nil, rec.CreationTime, nil, true)
		for _, p := range rec.Preconditions {
			s.Graph.FindEventNode(p)
			s.Graph.AddEdge(p, rec.Result)
		}
	case record.InstanceReadyInfo:
		s.Graph.RecordEventNode(rec.Result, eventdag.KindInstanceReady, nil, rec.CreationTime, nil, false)
		s.Graph.FindEventNode(rec.Precondition)
		s.Graph.AddEdge(rec.Precondition, rec.Result)
	case record.InstanceRedistrictInfo:
		s.Graph.RecordEventNode(rec.Result, eventdag.KindInstanceRedistrict, nil, rec.CreationTime, nil, true)
		s.Graph.FindEventNode(rec.Precondition)
		s.Graph.AddEdge(rec.Precondition, rec.Result)
		d, ok := s.instDrafts[rec.NewInstUID]
		if !ok {
			d = &instDraft{}
			s.instDrafts[rec.NewInstUID] = d
		}
		old := rec.OldInstUID
		d.previous = &old

	case record.ProfTaskInfo:
		s.resolveProfTask(rec)

	default:
		// Unhandled records (IndexSpaceDesc, FieldSpaceDesc,
		// LogicalRegionDesc, PhysicalInstLayoutDesc, MaxDimDesc,
		// ProcMDesc, MultiTask, SliceOwner, MapperName, SpawnInfo)
		// produce no state mutation here.
	}
}

func (s *State) dispatchTask(rec record.TaskInfo, kind proc.EntryKind) {
	uid := s.Alloc.CreateObject(rec.FEvent)
	e := &proc.Entry{
		Base:      container.Base{ProfUID: uid},
		Kind:      kind,
		Creator:   rec.Creator,
		OpID:      rec.OpID,
		TaskID:    rec.TaskID,
		VariantID: rec.VariantID,
		Range:     rangeOf(rec.Create, rec.Ready, rec.Start, rec.Stop),
	}
	s.getProc(rec.ProcID).AddEntry(e)
	s.opCreator[rec.OpID] = uid
	s.opToProc[rec.OpID] = rec.ProcID
	if rec.Stop > s.lastTime {
		s.lastTime = rec.Stop
	}
}

func (s *State) dispatchMeta(rec record.MetaInfo, spawn uint64) {
	uid := s.Alloc.CreateObject(rec.FEvent)
	e := &proc.Entry{
		Base:      container.Base{ProfUID: uid},
		Kind:      proc.KindMetaTask,
		Creator:   rec.Creator,
		OpID:      rec.OpID,
		VariantID: rec.VariantID,
		Range:     rangeOf(rec.Create, rec.Ready, rec.Start, rec.Stop),
	}
	if spawn > 0 {
		e.Range.Spawn = timeline.Ptr(spawn)
	}
	s.getProc(rec.ProcID).AddEntry(e)
	s.opCreator[rec.OpID] = uid
	s.opToProc[rec.OpID] = rec.ProcID

	if variant, ok := s.Dict.TaskVariants[rec.VariantID]; ok && variant.Message && spawn > 0 {
		executorNode := rec.ProcID.OwnerNode()
		creatorNode := executorNode // no creator recorded or not yet resolvable: treat as same-node
		if rec.Creator != 0 {
			if creatorProc, ok := s.procOfEntry(rec.Creator); ok {
				creatorNode = creatorProc.OwnerNode()
			}
		}
		s.Skew.Observe(skew.Message{
			Pair:   skew.NodePair{CreatorNode: creatorNode, ExecutorNode: executorNode},
			Spawn:  spawn,
			Create: rec.Create,
		})
	}
	if rec.Stop > s.lastTime {
		s.lastTime = rec.Stop
	}
}

// procOfEntry finds the processor that hosts the entry identified by uid,
// the same linear search resolveProfTask uses to cross-reference a
// profiled entity's owning processor.
func (s *State) procOfEntry(uid ident.ProfUID) (ids.ProcID, bool) {
	for id, p := range s.Procs {
		if _, ok := p.HostEntries[uid]; ok {
			return id, true
		}
	}
	return 0, false
}

func (s *State) dispatchCall(kind proc.EntryKind, opID ids.OpID, procID ids.ProcID, creator ident.ProfUID, start, stop uint64, callKind int, name string) {
	uid := s.Alloc.CreateFresh()
	e := &proc.Entry{
		Base:     container.Base{ProfUID: uid},
		Kind:     kind,
		Creator:  creator,
		OpID:     opID,
		CallKind: callKind,
		Name:     name,
		Range:    timeline.TimeRange{Start: timeline.Ptr(start), Stop: timeline.Ptr(stop)},
	}
	s.getProc(procID).AddEntry(e)
}

func (s *State) appendWait(opID ids.OpID, w proc.WaitInterval) {
	uid, ok := s.opCreator[opID]
	if !ok {
		return
	}
	procID, ok := s.opToProc[opID]
	if !ok {
		return
	}
	if e, ok := s.getProc(procID).HostEntries[uid]; ok {
		e.AddWait(w)
	}
}

func (s *State) attachBacktrace(opID ids.OpID, event ids.EventID, bt ids.BacktraceID) {
	uid, ok := s.opCreator[opID]
	if !ok {
		return
	}
	procID := s.opToProc[opID]
	e, ok := s.getProc(procID).HostEntries[uid]
	if !ok {
		return
	}
	for i := range e.Waiters {
		if e.Waiters[i].Event != nil && *e.Waiters[i].Event == event {
			b := bt
			e.Waiters[i].Backtrace = &b
			return
		}
	}
}

// resolveProfTask back-links a profiling callback: its create/ready times
// are resolved from the entity it profiles, and its creator is rewritten
// to the UID that made
// that entity.
func (s *State) resolveProfTask(rec record.ProfTaskInfo) {
	uid := s.Alloc.CreateFresh()

	// Try task/meta entries first (profiled via fevent bijection); the
	// profiled entity was necessarily defined earlier in the stream, so
	// CreateReference resolves to its existing UID without allocating a
	// new one.
	profiledUID := s.Alloc.CreateReference(rec.ProfiledFEvent)
	for _, p := range s.Procs {
		if e, ok := p.HostEntries[profiledUID]; ok && e.Range.Stop != nil {
			entry := &proc.Entry{
				Base:    container.Base{ProfUID: uid},
				Kind:    proc.KindProfTask,
				Creator: e.Creator,
				Range: timeline.TimeRange{
					Create: e.Range.Create,
					Ready:  e.Range.Stop,
				},
			}
			s.getProc(rec.ProcID).AddEntry(entry)
			return
		}
	}

	// Fall back to a copy draft still pending completion.
	if d, ok := s.copyDrafts[rec.ProfiledFEvent]; ok {
		entry := &proc.Entry{
			Base:    container.Base{ProfUID: uid},
			Kind:    proc.KindProfTask,
			Creator: d.creator,
			Range: timeline.TimeRange{
				Create: d.rng.Create,
				Ready:  d.rng.Stop,
			},
		}
		s.getProc(rec.ProcID).AddEntry(entry)
	}
}

// CompleteParse finalizes ingest: inverts the fevent bijection and
// materializes drafted copies, fills, and instances into their owning
// containers. Idempotent.
func (s *State) CompleteParse() {
	s.Alloc.CompleteParse()

	for _, d := range s.copyDrafts {
		results := copysplit.Split(&copysplit.CopyDraft{Rows: d.rows, Creator: d.creator})
		var created []ident.ProfUID
		for _, res := range results {
			uid := s.Alloc.CreateFresh()
			e := &chan_.Entry{
				Base:    container.Base{ProfUID: uid},
				Kind:    chan_.KindCopy,
				Creator: d.creator,
				Range:   d.rng,
			}
			s.getChan(res.ChanID).AddEntry(e)
			created = append(created, uid)
		}
		if len(created) > 0 {
			_ = copysplit.LastSubCopyCreator(created)
		}
	}

	for _, d := range s.fillDrafts {
		uid := s.Alloc.CreateFresh()
		e := &chan_.Entry{
			Base:    container.Base{ProfUID: uid},
			Kind:    chan_.KindFill,
			Creator: d.creator,
			Range:   d.rng,
		}
		var dst ids.MemID
		if len(d.dsts) > 0 {
			dst = d.dsts[0]
		}
		s.getChan(ids.ChanID{Kind: ids.ChanKindCopy, Dst: dst}).AddEntry(e)
	}

	for uid, d := range s.instDrafts {
		inst := &mem.Inst{
			Base:     container.Base{ProfUID: uid},
			Size:     d.size,
			MemID:    d.memID,
			ISpace:   d.iSpace,
			FSpace:   d.fSpace,
			Tree:     d.tree,
			Creator:  d.creator,
			Previous: d.previous,
			Range:    d.rng,
		}
		s.getMem(d.memID).AddEntry(inst)
	}

	s.copyDrafts = make(map[ident.FEvent]*copyDraft)
	s.fillDrafts = make(map[ident.FEvent]*fillDraft)
	s.instDrafts = make(map[ident.ProfUID]*instDraft)
}

// TrimTimeRange clips every container entry's TimeRange to [lo, hi] and
// shifts it by -lo (so kept times fall in [0, hi-lo]), dropping entries
// fully outside the window.
func (s *State) TrimTimeRange(lo, hi uint64) {
	for _, p := range s.Procs {
		for uid, e := range p.HostEntries {
			if out, ok := timeline.TrimTimeRange(e.Range, lo, hi); ok {
				e.Range = out
			} else {
				delete(p.HostEntries, uid)
			}
		}
	}
	for _, m := range s.Mems {
		for uid, i := range m.Entries {
			if out, ok := timeline.TrimTimeRange(i.Range, lo, hi); ok {
				i.Range = out
			} else {
				delete(m.Entries, uid)
			}
		}
	}
	for _, c := range s.Chans {
		for uid, e := range c.Entries {
			if out, ok := timeline.TrimTimeRange(e.Range, lo, hi); ok {
				e.Range = out
			} else {
				delete(c.Entries, uid)
			}
		}
	}
}

// CheckMessageLatencies reports skew/long-latency advisories. Purely
// informational; never mutates containers.
func (s *State) CheckMessageLatencies() []string {
	return s.Skew.Report()
}

// SortTimeRange reconciles callers/waiters and assigns levels across all
// containers in parallel.
func (s *State) SortTimeRange() {
	var wg sync.WaitGroup
	for _, p := range s.Procs {
		wg.Add(1)
		go func(p *proc.Proc) {
			defer wg.Done()
			reconcile.Reconcile(p)
			p.SortTimeRange()
		}(p)
	}
	for _, m := range s.Mems {
		wg.Add(1)
		go func(m *mem.Mem) {
			defer wg.Done()
			m.SortTimeRange()
		}(m)
	}
	for _, c := range s.Chans {
		wg.Add(1)
		go func(c *chan_.Chan) {
			defer wg.Done()
			c.SortTimeRange()
		}(c)
	}
	wg.Wait()
}

// StackTimePoints builds per-level point arrays across all containers in
// parallel. Must run after SortTimeRange.
func (s *State) StackTimePoints() {
	var wg sync.WaitGroup
	for _, p := range s.Procs {
		wg.Add(1)
		go func(p *proc.Proc) { defer wg.Done(); p.StackTimePoints() }(p)
	}
	for _, m := range s.Mems {
		wg.Add(1)
		go func(m *mem.Mem) { defer wg.Done(); m.StackTimePoints() }(m)
	}
	for _, c := range s.Chans {
		wg.Add(1)
		go func(c *chan_.Chan) { defer wg.Done(); c.StackTimePoints() }(c)
	}
	wg.Wait()
}

// AssignColors assigns deterministic LFSR-sequenced colors to every
// operation seen, one color per op ID.
func (s *State) AssignColors() {
	var opIDs []ids.OpID
	for id := range s.opCreator {
		opIDs = append(opIDs, id)
	}
	sort.Slice(opIDs, func(i, j int) bool { return opIDs[i] < opIDs[j] })
	colors := color.AssignSequence(uint64(len(opIDs)))
	for i, id := range opIDs {
		s.opColors[id] = colors[i]
	}
}

// FilterOutput drops entries belonging to nodes not in visibleNodes, when
// config.FilterInput is set.
func (s *State) FilterOutput(visibleNodes map[uint16]bool) {
	if !config.Get().FilterInput || len(visibleNodes) == 0 {
		return
	}
	for id := range s.Procs {
		if !visibleNodes[id.OwnerNode()] {
			delete(s.Procs, id)
		}
	}
	for id := range s.Mems {
		if !visibleNodes[id.OwnerNode()] {
			delete(s.Mems, id)
		}
	}
}

// ComputeCriticalPaths runs the event-DAG relaxation pass.
func (s *State) ComputeCriticalPaths() {
	s.Graph.ComputeCriticalPaths()
	s.hasCriticalPathData = s.Graph.HasCriticalPathData()
}

// ProcessRecords runs the full pipeline in order: dispatch every record,
// then complete_parse, latency check, parallel sort/stack, color
// assignment, and critical-path computation.
func (s *State) ProcessRecords(records []record.Record) {
	for _, r := range records {
		s.Dispatch(r)
	}
	s.CompleteParse()
	s.CheckMessageLatencies()
	s.SortTimeRange()
	s.StackTimePoints()
	s.AssignColors()
	s.ComputeCriticalPaths()
}

// --- Query surface ---

// FindOp returns the UID of the task/meta entry that represents opID.
func (s *State) FindOp(opID ids.OpID) (ident.ProfUID, bool) {
	uid, ok := s.opCreator[opID]
	return uid, ok
}

// FindTask returns the task/meta-task entry for opID.
func (s *State) FindTask(opID ids.OpID) (*proc.Entry, bool) {
	uid, ok := s.opCreator[opID]
	if !ok {
		return nil, false
	}
	procID, ok := s.opToProc[opID]
	if !ok {
		return nil, false
	}
	e, ok := s.getProc(procID).HostEntries[uid]
	return e, ok
}

// FindInst returns the instance entry for uid.
func (s *State) FindInst(uid ident.ProfUID) (*mem.Inst, bool) {
	for _, m := range s.Mems {
		if i, ok := m.Entries[uid]; ok {
			return i, true
		}
	}
	return nil, false
}

// FindProvenance returns the interned provenance text for id.
func (s *State) FindProvenance(id ids.ProvenanceID) (string, bool) {
	text, ok := s.provenances[id]
	return text, ok
}

// FindFevent returns the fevent that produced uid (valid after
// CompleteParse).
func (s *State) FindFevent(uid ident.ProfUID) (ident.FEvent, bool) {
	return s.Alloc.FindFevent(uid)
}

// HasCriticalPathData reports whether critical-path data is available
// (false after a no-edges or cycle degradation).
func (s *State) HasCriticalPathData() bool { return s.hasCriticalPathData }

// GetOpColor returns the deterministic color assigned to opID.
func (s *State) GetOpColor(opID ids.OpID) (color.RGB, bool) {
	c, ok := s.opColors[opID]
	return c, ok
}

// FindCriticalEntry returns the critical predecessor of event.
func (s *State) FindCriticalEntry(event ids.EventID) (ids.EventID, bool) {
	return s.Graph.FindCriticalEntry(event)
}

// FindPreviousExecutingEntry resolves the previously-executing entry for
// one processor/level/window.
func (s *State) FindPreviousExecutingEntry(procID ids.ProcID, level int, ready, start uint64) (ident.ProfUID, uint64, uint64, bool) {
	p, ok := s.Procs[procID]
	if !ok {
		return 0, 0, 0, false
	}
	return p.FindPreviousExecutingEntry(level, ready, start)
}
