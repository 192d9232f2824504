package record

import (
	"testing"

	"github.com/google/uuid"

	"github.com/suranap/profstate/internal/ids"
)

// TestSealedInterfaceCoversConcreteTypes checks a representative sample of
// concrete record types satisfy Record, and that their Text fields round
// trip distinct fixture values without collision across table entries.
func TestSealedInterfaceCoversConcreteTypes(t *testing.T) {
	tag := func() string { return "prov-" + uuid.NewString() }

	provText := tag()
	btText := tag()
	if provText == btText {
		t.Fatal("expected distinct fixture tags for provenance and backtrace")
	}

	records := []Record{
		Provenance{ID: ids.ProvenanceID(1), Text: provText},
		BacktraceDesc{ID: ids.BacktraceID(1), Text: btText},
		ProcDesc{ProcID: ids.ProcID(1), Kind: "cpu"},
	}

	seen := map[string]bool{}
	for _, r := range records {
		switch v := r.(type) {
		case Provenance:
			if v.Text != provText {
				t.Fatalf("provenance text mismatch: got %q", v.Text)
			}
			seen["provenance"] = true
		case BacktraceDesc:
			if v.Text != btText {
				t.Fatalf("backtrace text mismatch: got %q", v.Text)
			}
			seen["backtrace"] = true
		case ProcDesc:
			seen["proc_desc"] = true
		default:
			t.Fatalf("unexpected concrete type %T", r)
		}
	}
	for _, want := range []string{"provenance", "backtrace", "proc_desc"} {
		if !seen[want] {
			t.Errorf("expected a %s record in the fixture set", want)
		}
	}
}
