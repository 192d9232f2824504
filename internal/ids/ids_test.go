package ids

import "testing"

func TestProcIDLayout(t *testing.T) {
	id := ProcID((0x1d << 40) | 0x003)
	if got := id.OwnerNode(); got != 0x1d {
		t.Errorf("OwnerNode() = %#x, want %#x", got, 0x1d)
	}
	if got := id.ProcInNode(); got != 0x003 {
		t.Errorf("ProcInNode() = %#x, want %#x", got, 0x003)
	}
}

func TestMemIDLayout(t *testing.T) {
	id := MemID((0x2a << 40) | 0x07)
	if got := id.OwnerNode(); got != 0x2a {
		t.Errorf("OwnerNode() = %#x, want %#x", got, 0x2a)
	}
	if got := id.MemInNode(); got != 0x07 {
		t.Errorf("MemInNode() = %#x, want %#x", got, 0x07)
	}
}

func TestEventIDNormal(t *testing.T) {
	id := EventID((0x9 << 47) | 5)
	if id.IsBarrier() {
		t.Fatal("expected non-barrier event")
	}
	if got := id.OwnerNode(); got != 0x9 {
		t.Errorf("OwnerNode() = %#x, want %#x", got, 0x9)
	}
	if got := id.Generation(); got != 5 {
		t.Errorf("Generation() = %d, want 5", got)
	}
}

func TestEventIDBarrier(t *testing.T) {
	id := EventID((uint64(2) << 60) | (0x11 << 44) | 3)
	if !id.IsBarrier() {
		t.Fatal("expected barrier event")
	}
	if got := id.OwnerNode(); got != 0x11 {
		t.Errorf("OwnerNode() = %#x, want %#x", got, 0x11)
	}
	if got := id.Generation(); got != 3 {
		t.Errorf("Generation() = %d, want 3", got)
	}
}

func TestBarrierPreviousPhase(t *testing.T) {
	id := EventID((uint64(2) << 60) | (0x1 << 44) | 1)
	if _, ok := id.PreviousPhase(); ok {
		t.Fatal("generation 1 barrier must have no previous phase")
	}

	id2 := EventID((uint64(2) << 60) | (0x1 << 44) | 2)
	prev, ok := id2.PreviousPhase()
	if !ok {
		t.Fatal("generation 2 barrier must have a previous phase")
	}
	if prev != id2-1 {
		t.Errorf("PreviousPhase() = %d, want %d", prev, id2-1)
	}
}
