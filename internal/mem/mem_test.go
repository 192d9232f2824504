package mem

import (
	"testing"

	"github.com/suranap/profstate/internal/container"
	"github.com/suranap/profstate/internal/ident"
	"github.com/suranap/profstate/internal/ids"
	"github.com/suranap/profstate/internal/timeline"
)

func TestZeroEntryContainerHasNoLevels(t *testing.T) {
	m := New(ids.MemID(1), "sysmem", 1024)
	m.SortTimeRange()
	m.StackTimePoints()
	if m.MaxLevels() != 0 {
		t.Fatalf("expected max_levels 0, got %d", m.MaxLevels())
	}
	if len(m.TimePoints()) != 0 || len(m.UtilTimePoints()) != 0 {
		t.Fatal("expected empty point arrays for zero-entry container")
	}
}

func TestDynamicCapacityComputedBySizeReplay(t *testing.T) {
	m := New(ids.MemID(1), "sysmem", DynamicCapacity)
	m.AddEntry(&Inst{
		Base:  container.Base{ProfUID: ident.ProfUID(1)},
		Size:  100,
		Range: timeline.TimeRange{Ready: timeline.Ptr(0), Stop: timeline.Ptr(100)},
	})
	m.AddEntry(&Inst{
		Base:  container.Base{ProfUID: ident.ProfUID(2)},
		Size:  50,
		Range: timeline.TimeRange{Ready: timeline.Ptr(50), Stop: timeline.Ptr(200)},
	})
	m.SortTimeRange()
	if got := m.ComputedCapacity(); got != 150 {
		t.Fatalf("expected computed capacity 150 (concurrent overlap), got %d", got)
	}
}

func TestAllocatedImmediately(t *testing.T) {
	i := &Inst{Range: timeline.TimeRange{Ready: timeline.Ptr(0), Stop: timeline.Ptr(10)}}
	if !i.AllocatedImmediately() {
		t.Fatal("expected AllocatedImmediately with no Spawn recorded")
	}
}
