package state

import (
	"testing"

	"github.com/suranap/profstate/internal/alog"
	"github.com/suranap/profstate/internal/copysplit"
	"github.com/suranap/profstate/internal/ids"
	"github.com/suranap/profstate/internal/proc"
	"github.com/suranap/profstate/internal/record"
	"github.com/suranap/profstate/internal/skew"
)

func TestProcessRecordsEndToEndTask(t *testing.T) {
	const procID = ids.ProcID(1)
	const opID = ids.OpID(42)

	s := New(alog.New(false))
	s.ProcessRecords([]record.Record{
		record.TaskKind{TaskID: 1, Name: "top_level_task"},
		record.TaskInfo{
			OpID: opID, TaskID: 1, VariantID: 1, ProcID: procID,
			Create: 0, Ready: 10, Start: 10, Stop: 100, FEvent: 1000,
		},
	})

	uid, ok := s.FindOp(opID)
	if !ok {
		t.Fatal("expected FindOp to resolve the task's UID")
	}
	entry, ok := s.FindTask(opID)
	if !ok {
		t.Fatal("expected FindTask to return the task entry")
	}
	if entry.ProfUID != uid {
		t.Fatalf("FindTask UID mismatch: got %v want %v", entry.ProfUID, uid)
	}
	if entry.Kind != proc.KindTask {
		t.Fatalf("expected KindTask, got %v", entry.Kind)
	}
	if *entry.Range.Stop != 100 {
		t.Fatalf("expected stop=100, got %v", *entry.Range.Stop)
	}

	fe, ok := s.FindFevent(uid)
	if !ok || fe != 1000 {
		t.Fatalf("expected fevent 1000 for uid, got %v ok=%v", fe, ok)
	}

	if _, ok := s.GetOpColor(opID); !ok {
		t.Fatal("expected a color to be assigned to the task's op")
	}
}

func TestProcessRecordsMapperCallNestedUnderTask(t *testing.T) {
	const procID = ids.ProcID(1)
	const opID = ids.OpID(7)

	s := New(alog.New(false))
	s.Dispatch(record.TaskInfo{
		OpID: opID, TaskID: 1, VariantID: 1, ProcID: procID,
		Create: 0, Ready: 0, Start: 0, Stop: 100, FEvent: 1,
	})
	taskUID, _ := s.FindOp(opID)
	s.Dispatch(record.MapperCallInfo{
		Kind: 1, OpID: opID, ProcID: procID, Creator: taskUID, Start: 20, Stop: 40,
	})
	s.CompleteParse()
	s.SortTimeRange()
	s.StackTimePoints()

	p := s.Procs[procID]
	task := p.HostEntries[taskUID]
	if len(task.Waiters) != 1 {
		t.Fatalf("expected the mapper call to be reconciled into a wait on the task, got %d waiters", len(task.Waiters))
	}
	if task.Waiters[0].Start != 20 || task.Waiters[0].End != 40 {
		t.Fatalf("unexpected wait interval: %+v", task.Waiters[0])
	}
}

func TestProcessRecordsMessageCreatorResolvesToCreatingProcessorsNode(t *testing.T) {
	// Node IDs live in bits 40-55 of a ProcID.
	const nodeA = ids.ProcID(1 << 40)
	const nodeB = ids.ProcID(2<<40) | 1

	s := New(alog.New(false))
	s.Dispatch(record.MetaDesc{VariantID: 9, Name: "remote_message", Message: true})
	// Absorb ProfUID 0 with a throwaway entity first: 0 doubles as the
	// creator sentinel Creator fields use for "no creator recorded", so
	// the real creating task below must not land on it.
	s.Dispatch(record.TaskInfo{
		OpID: 99, TaskID: 1, VariantID: 1, ProcID: nodeA,
		Create: 0, Ready: 0, Start: 0, Stop: 1, FEvent: 1,
	})
	s.Dispatch(record.TaskInfo{
		OpID: 1, TaskID: 1, VariantID: 1, ProcID: nodeA,
		Create: 0, Ready: 0, Start: 0, Stop: 10, FEvent: 100,
	})
	creatorUID, ok := s.FindOp(1)
	if !ok {
		t.Fatal("expected the creating task to resolve a UID")
	}
	// Spawn(90) is deliberately later than Create(50) so this message
	// contributes a skew sample for the resolved pair.
	s.Dispatch(record.MessageInfo{
		MetaInfo: record.MetaInfo{
			OpID: 2, VariantID: 9, ProcID: nodeB, Creator: creatorUID,
			Create: 50, Ready: 50, Start: 50, Stop: 60, FEvent: 200,
		},
		Spawn: 90,
	})
	s.CompleteParse()

	pair := skew.NodePair{CreatorNode: nodeA.OwnerNode(), ExecutorNode: nodeB.OwnerNode()}
	if mean := s.Skew.MeanSkew(pair); mean != 40 {
		t.Fatalf("expected the message's creator to resolve to node %d (mean skew 40 on pair %+v), got mean=%v",
			nodeA.OwnerNode(), pair, mean)
	}
}

func TestProcessRecordsCopySplitByMemoryPair(t *testing.T) {
	s := New(alog.New(false))
	s.Dispatch(record.CopyInfo{OpID: 1, Creator: 0, Create: 0, Ready: 0, Start: 0, Stop: 10, FEvent: 500})
	s.Dispatch(record.CopyInstInfo{FEvent: 500, Row: rowFor(1, 2)})
	s.Dispatch(record.CopyInstInfo{FEvent: 500, Row: rowFor(1, 3)})
	s.CompleteParse()

	chanAB := ids.ChanID{Kind: ids.ChanKindCopy, Src: 1, Dst: 2}
	chanAC := ids.ChanID{Kind: ids.ChanKindCopy, Src: 1, Dst: 3}
	if _, ok := s.Chans[chanAB]; !ok {
		t.Fatal("expected a channel for (1,2)")
	}
	if _, ok := s.Chans[chanAC]; !ok {
		t.Fatal("expected a channel for (1,3)")
	}
}

func TestProcessRecordsCriticalPathLinearChain(t *testing.T) {
	s := New(alog.New(false))
	s.Dispatch(record.ExternalEventInfo{Result: 1, CreationTime: 0, TriggerTime: 0})
	s.Dispatch(record.EventTriggerInfo{Result: 2, Precondition: 1, CreationTime: 20, TriggerTime: 10})
	s.Dispatch(record.EventTriggerInfo{Result: 3, Precondition: 2, CreationTime: 20, TriggerTime: 15})
	s.ComputeCriticalPaths()

	if !s.HasCriticalPathData() {
		t.Fatal("expected critical path data to be available for a connected chain")
	}
	if _, ok := s.FindCriticalEntry(3); !ok {
		t.Fatal("expected a critical predecessor for event 3")
	}
}

func TestFilterOutputRequiresFrozenConfig(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected FilterOutput to panic before config.Freeze is called")
		}
	}()
	s := New(alog.New(false))
	s.FilterOutput(map[uint16]bool{0: true})
}

func rowFor(src, dst ids.MemID) copysplit.InstInfoRow {
	return copysplit.InstInfoRow{Src: src, Dst: dst}
}
