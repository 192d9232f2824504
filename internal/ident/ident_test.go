package ident

import "testing"

func TestCreateReferenceCollapses(t *testing.T) {
	a := NewAllocator()
	u1 := a.CreateReference(FEvent(7))
	u2 := a.CreateReference(FEvent(7))
	if u1 != u2 {
		t.Fatalf("expected same UID for repeated reference, got %d and %d", u1, u2)
	}
}

func TestCreateFreshIsSequential(t *testing.T) {
	a := NewAllocator()
	u1 := a.CreateFresh()
	u2 := a.CreateFresh()
	if u2 != u1+1 {
		t.Fatalf("expected sequential UIDs, got %d then %d", u1, u2)
	}
}

func TestCreateObjectDoubleDefinitionPanics(t *testing.T) {
	a := NewAllocator()
	a.CreateObject(FEvent(1))
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on double create_object")
		}
	}()
	a.CreateObject(FEvent(1))
}

func TestCompleteParseBijection(t *testing.T) {
	a := NewAllocator()
	uid := a.CreateObject(FEvent(42))
	a.CompleteParse()
	fe, ok := a.FindFevent(uid)
	if !ok || fe != FEvent(42) {
		t.Fatalf("expected fevent 42 for uid %d, got %d (ok=%v)", uid, fe, ok)
	}
}

func TestCompleteParseIdempotent(t *testing.T) {
	a := NewAllocator()
	uid := a.CreateObject(FEvent(5))
	a.CompleteParse()
	a.CompleteParse()
	fe, ok := a.FindFevent(uid)
	if !ok || fe != FEvent(5) {
		t.Fatal("second CompleteParse changed query results")
	}
}
