package dict

import (
	"testing"

	"github.com/suranap/profstate/internal/ids"
)

func TestSetTaskKindRedefinitionPanics(t *testing.T) {
	d := New()
	d.SetTaskKind(ids.TaskID(1), "foo")
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on contradictory task kind redefinition")
		}
	}()
	d.SetTaskKind(ids.TaskID(1), "bar")
}

func TestSetTaskKindSameNameIsFine(t *testing.T) {
	d := New()
	d.SetTaskKind(ids.TaskID(1), "foo")
	d.SetTaskKind(ids.TaskID(1), "foo")
	if d.TaskKinds[ids.TaskID(1)].Name != "foo" {
		t.Fatal("expected task kind to remain foo")
	}
}

func TestInternProvenanceReturnsExisting(t *testing.T) {
	d := New()
	p1 := d.InternProvenance(ids.ProvenanceID(3), "alpha")
	p2 := d.InternProvenance(ids.ProvenanceID(3), "alpha")
	if p1 != p2 {
		t.Fatal("expected same provenance pointer on repeated intern")
	}
}
