package color

import "testing"

func TestAssignSequenceDeterministic(t *testing.T) {
	a := AssignSequence(10)
	b := AssignSequence(10)
	if len(a) != len(b) {
		t.Fatalf("length mismatch: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("color sequence not deterministic at index %d: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestHSVWheelBounds(t *testing.T) {
	c := HSVWheel(0, 100)
	if c.R != 255 {
		t.Errorf("expected full red at step 0, got %+v", c)
	}
}

func TestLFSRCycleHasNoImmediateRepeat(t *testing.T) {
	l := NewLFSR(5)
	first := l.Next()
	second := l.Next()
	if first == second {
		t.Fatal("expected LFSR to advance on consecutive calls")
	}
}
