package snapshot

import (
	"testing"

	"github.com/suranap/profstate/internal/alog"
	"github.com/suranap/profstate/internal/copysplit"
	"github.com/suranap/profstate/internal/ids"
	"github.com/suranap/profstate/internal/record"
	"github.com/suranap/profstate/internal/state"
)

func TestProjectSummarizesContainers(t *testing.T) {
	s := state.New(alog.New(false))
	s.ProcessRecords([]record.Record{
		record.ProcDesc{ProcID: 1, Kind: "cpu"},
		record.TaskInfo{OpID: 1, TaskID: 1, VariantID: 1, ProcID: 1, Create: 0, Ready: 0, Start: 0, Stop: 10, FEvent: 1},
	})

	p := Project(s)

	if len(p.Procs) != 1 {
		t.Fatalf("expected 1 proc summary, got %d", len(p.Procs))
	}
	if p.Procs[0].ID != ids.ProcID(1) || p.Procs[0].EntryCount != 1 {
		t.Fatalf("unexpected proc summary: %+v", p.Procs[0])
	}
	if p.Procs[0].MaxLevels != 1 {
		t.Fatalf("expected max_levels=1 for a single non-overlapping task, got %d", p.Procs[0].MaxLevels)
	}
}

func TestProjectOrdersChannelsDeterministically(t *testing.T) {
	s := state.New(alog.New(false))
	s.Dispatch(record.CopyInfo{OpID: 1, Create: 0, Ready: 0, Start: 0, Stop: 10, FEvent: 500})
	s.Dispatch(record.CopyInstInfo{FEvent: 500, Row: rowFor(2, 3)})
	s.Dispatch(record.CopyInfo{OpID: 2, Create: 0, Ready: 0, Start: 0, Stop: 10, FEvent: 501})
	s.Dispatch(record.CopyInstInfo{FEvent: 501, Row: rowFor(1, 2)})
	s.CompleteParse()
	s.SortTimeRange()
	s.StackTimePoints()

	p := Project(s)
	if len(p.Chans) != 2 {
		t.Fatalf("expected 2 channel summaries, got %d", len(p.Chans))
	}
	if p.Chans[0].ID.Src != ids.MemID(1) {
		t.Fatalf("expected channels sorted by src memory, got %+v", p.Chans)
	}
}

func rowFor(src, dst ids.MemID) copysplit.InstInfoRow {
	return copysplit.InstInfoRow{Src: src, Dst: dst}
}
