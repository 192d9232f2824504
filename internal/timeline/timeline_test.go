package timeline

import "testing"

func TestTrimTimeRangeClips(t *testing.T) {
	r := TimeRange{
		Create: Ptr(150),
		Ready:  Ptr(200),
		Start:  Ptr(300),
		Stop:   Ptr(400),
	}
	out, ok := TrimTimeRange(r, 100, 350)
	if !ok {
		t.Fatal("expected interval to be retained")
	}
	if *out.Create != 50 || *out.Ready != 100 || *out.Start != 200 || *out.Stop != 250 {
		t.Fatalf("unexpected clipped range: %+v", out)
	}
}

func TestTrimTimeRangeDropsFullyOutside(t *testing.T) {
	r := TimeRange{Create: Ptr(10), Ready: Ptr(20), Start: Ptr(30), Stop: Ptr(40)}
	if _, ok := TrimTimeRange(r, 1000, 2000); ok {
		t.Fatal("expected interval entirely before window to be dropped")
	}
	if _, ok := TrimTimeRange(r, 0, 5); ok {
		t.Fatal("expected interval entirely after window to be dropped")
	}
}

func TestTrimTimeRangeDropsOnStartStopAloneDespiteInWindowCreateReady(t *testing.T) {
	// create/ready fall inside [0,500] but start/stop do not; the drop
	// decision must follow start/stop alone and discard the entry.
	r := TimeRange{Create: Ptr(10), Ready: Ptr(20), Start: Ptr(600), Stop: Ptr(700)}
	if _, ok := TrimTimeRange(r, 0, 500); ok {
		t.Fatal("expected interval to be dropped based on start/stop alone")
	}
}

func TestAllocatedImmediately(t *testing.T) {
	r := TimeRange{Create: Ptr(1), Ready: Ptr(2), Start: Ptr(3), Stop: Ptr(4)}
	if !r.AllocatedImmediately() {
		t.Fatal("expected AllocatedImmediately with no Spawn set")
	}
	spawn := Ptr(0)
	r.Spawn = spawn
	if r.AllocatedImmediately() {
		t.Fatal("expected not AllocatedImmediately once Spawn is set")
	}
}
