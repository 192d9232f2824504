package copysplit

import (
	"testing"

	"github.com/suranap/profstate/internal/ids"
)

func TestSplitByMemoryPair(t *testing.T) {
	memA := ids.MemID(1)
	memB := ids.MemID(2)
	draft := &CopyDraft{Rows: []InstInfoRow{
		{Src: memA, Dst: memA},
		{Src: memA, Dst: memA},
		{Src: memB, Dst: memB},
	}}

	results := Split(draft)
	if len(results) != 2 {
		t.Fatalf("expected 2 channel entries, got %d", len(results))
	}
	if results[0].ChanID != (ids.ChanID{Kind: ids.ChanKindCopy, Src: memA, Dst: memA}) {
		t.Errorf("unexpected first chan id: %+v", results[0].ChanID)
	}
	if len(results[0].Rows) != 2 {
		t.Errorf("expected 2 rows in first group, got %d", len(results[0].Rows))
	}
	if results[1].ChanID != (ids.ChanID{Kind: ids.ChanKindCopy, Src: memB, Dst: memB}) {
		t.Errorf("unexpected second chan id: %+v", results[1].ChanID)
	}
}

func TestSplitWithIndirectionMarker(t *testing.T) {
	memA := ids.MemID(1)
	memX := ids.MemID(9)
	draft := &CopyDraft{Rows: []InstInfoRow{
		{Src: memA, Dst: memA},
		{Indirect: true, Src: memX, SrcSet: true},
		{Dst: memA},
	}}

	results := Split(draft)
	if len(results) != 2 {
		t.Fatalf("expected 2 entries (plain copy + gather), got %d", len(results))
	}
	if results[1].ChanID.Kind != ids.ChanKindGather {
		t.Fatalf("expected second entry to be a Gather, got kind %d", results[1].ChanID.Kind)
	}
	if !results[1].Rows[0].Indirect {
		t.Fatal("expected the gather entry's first row to be the indirection marker")
	}
}

func TestSplitDoesNotMergeNonConsecutivePairRecurrence(t *testing.T) {
	memA := ids.MemID(1)
	memB := ids.MemID(2)
	draft := &CopyDraft{Rows: []InstInfoRow{
		{Src: memA, Dst: memA},
		{Src: memB, Dst: memB},
		{Src: memA, Dst: memA},
	}}

	results := Split(draft)
	if len(results) != 3 {
		t.Fatalf("expected 3 channel entries (A, B, A as separate consecutive runs), got %d", len(results))
	}
	wantKinds := []ids.ChanID{
		{Kind: ids.ChanKindCopy, Src: memA, Dst: memA},
		{Kind: ids.ChanKindCopy, Src: memB, Dst: memB},
		{Kind: ids.ChanKindCopy, Src: memA, Dst: memA},
	}
	for i, want := range wantKinds {
		if results[i].ChanID != want {
			t.Errorf("result %d: expected chan id %+v, got %+v", i, want, results[i].ChanID)
		}
		if len(results[i].Rows) != 1 {
			t.Errorf("result %d: expected 1 row, got %d", i, len(results[i].Rows))
		}
	}
}

func TestGatherScatterUnsupportedPanics(t *testing.T) {
	draft := &CopyDraft{Rows: []InstInfoRow{
		{Indirect: true, SrcSet: true, DstSet: true},
		{Src: ids.MemID(1), Dst: ids.MemID(2)},
	}}
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on gather-scatter (true,true)")
		}
	}()
	Split(draft)
}
