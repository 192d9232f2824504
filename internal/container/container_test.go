package container

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/suranap/profstate/internal/ident"
)

func TestAssignLevelsReusesFreedLevel(t *testing.T) {
	levels := map[ident.ProfUID]int{}
	set := func(u ident.ProfUID, l int) { levels[u] = l }

	windows := []Window{
		{UID: 1, Lo: 100, Hi: 500},
		{UID: 2, Lo: 200, Hi: 300},
		{UID: 3, Lo: 400, Hi: 600},
	}
	maxLevels, _ := AssignLevels(windows, set)

	if maxLevels != 2 {
		t.Fatalf("expected 2 levels, got %d", maxLevels)
	}
	if levels[1] != 0 {
		t.Errorf("entry 1 expected level 0, got %d", levels[1])
	}
	if levels[2] != 1 {
		t.Errorf("entry 2 expected level 1, got %d", levels[2])
	}
	if levels[3] != 1 {
		t.Errorf("entry 3 (starts after entry 2 frees level 1) expected level 1, got %d", levels[3])
	}
}

func TestAssignLevelsEmptyContainer(t *testing.T) {
	maxLevels, points := AssignLevels(nil, func(ident.ProfUID, int) {})
	if maxLevels != 0 {
		t.Fatalf("expected max_levels 0 for empty container, got %d", maxLevels)
	}
	if len(points) != 0 {
		t.Fatalf("expected empty point arrays, got %d", len(points))
	}
}

func TestAssignLevelsStartPointsMatchRetainedLevels(t *testing.T) {
	windows := []Window{
		{UID: 1, Lo: 100, Hi: 500},
		{UID: 2, Lo: 200, Hi: 300},
	}
	levels := map[ident.ProfUID]int{}
	_, points := AssignLevels(windows, func(u ident.ProfUID, l int) { levels[u] = l })

	want := []TimePoint{
		{Time: 100, First: true, Secondary: math.MaxUint64 - 500, UID: 1, Level: 0},
		{Time: 200, First: true, Secondary: math.MaxUint64 - 300, UID: 2, Level: 1},
	}
	if diff := cmp.Diff(want, points); diff != "" {
		t.Fatalf("start points mismatch (-want +got):\n%s", diff)
	}
}

func TestFindPreviousExecutingEntry(t *testing.T) {
	segments := []RunningSegment{
		{UID: 1, Start: 0, Stop: 100},
		{UID: 2, Start: 100, Stop: 150},
		{UID: 3, Start: 200, Stop: 400},
	}
	uid, _, stop, ok := FindPreviousExecutingEntry(segments, 0, 200)
	if !ok {
		t.Fatal("expected a previous executing entry")
	}
	if uid != 2 || stop != 150 {
		t.Fatalf("expected entry 2 ending at 150, got uid=%d stop=%d", uid, stop)
	}
}

func TestFindPreviousExecutingEntryNone(t *testing.T) {
	segments := []RunningSegment{{UID: 1, Start: 500, Stop: 600}}
	if _, _, _, ok := FindPreviousExecutingEntry(segments, 0, 100); ok {
		t.Fatal("expected no previous executing entry before any segment starts")
	}
}
