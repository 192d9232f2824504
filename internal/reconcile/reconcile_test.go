package reconcile

import (
	"testing"

	"github.com/suranap/profstate/internal/container"
	"github.com/suranap/profstate/internal/ident"
	"github.com/suranap/profstate/internal/ids"
	"github.com/suranap/profstate/internal/proc"
	"github.com/suranap/profstate/internal/timeline"
)

func TestMapperCallInsideTask(t *testing.T) {
	p := proc.New(ids.ProcID(1), "p0", false)

	task := &proc.Entry{
		Base:  container.Base{ProfUID: ident.ProfUID(1)},
		Kind:  proc.KindTask,
		Range: timeline.TimeRange{Start: timeline.Ptr(0), Stop: timeline.Ptr(1000)},
	}
	task.AddWait(proc.WaitInterval{Start: 200, Ready: 400, End: 400})
	p.AddEntry(task)

	call := &proc.Entry{
		Base:    container.Base{ProfUID: ident.ProfUID(2)},
		Kind:    proc.KindMapperCall,
		Creator: task.ProfUID,
		Range:   timeline.TimeRange{Start: timeline.Ptr(150), Stop: timeline.Ptr(450)},
	}
	p.AddEntry(call)

	Reconcile(p)

	if len(task.Waiters) != 1 {
		t.Fatalf("expected task to have exactly one (callee) waiter, got %d", len(task.Waiters))
	}
	if task.Waiters[0].Callee == nil || *task.Waiters[0].Callee != call.ProfUID {
		t.Fatalf("expected task's waiter to point at the mapper call")
	}

	if len(call.Waiters) != 1 {
		t.Fatalf("expected call to have stolen the event-wait, got %d waiters", len(call.Waiters))
	}
	if call.Waiters[0].Start != 200 || call.Waiters[0].End != 400 {
		t.Fatalf("unexpected wait on call: %+v", call.Waiters[0])
	}
}

func TestOverlappingNonNestedCallsPanic(t *testing.T) {
	p := proc.New(ids.ProcID(1), "p0", false)
	task := &proc.Entry{
		Base:  container.Base{ProfUID: ident.ProfUID(1)},
		Kind:  proc.KindTask,
		Range: timeline.TimeRange{Start: timeline.Ptr(0), Stop: timeline.Ptr(1000)},
	}
	p.AddEntry(task)

	a := &proc.Entry{
		Base:    container.Base{ProfUID: ident.ProfUID(2)},
		Kind:    proc.KindMapperCall,
		Creator: task.ProfUID,
		Range:   timeline.TimeRange{Start: timeline.Ptr(100), Stop: timeline.Ptr(300)},
	}
	b := &proc.Entry{
		Base:    container.Base{ProfUID: ident.ProfUID(3)},
		Kind:    proc.KindMapperCall,
		Creator: task.ProfUID,
		Range:   timeline.TimeRange{Start: timeline.Ptr(200), Stop: timeline.Ptr(400)},
	}
	p.AddEntry(a)
	p.AddEntry(b)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on overlapping non-nested calls")
		}
	}()
	Reconcile(p)
}
