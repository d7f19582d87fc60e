package jobs

import (
	"testing"

	"outpost.sim/internal/sim/world"
)

func TestBoardAdd_CreatesLinkedJob(t *testing.T) {
	m := NewManager(10)
	b := NewBoard(m)

	d := b.Add(DesignationDig, world.Point{X: 4, Y: 4}, 3)
	if d == nil {
		t.Fatal("add returned nil")
	}
	j := m.Job(d.JobID)
	if j == nil || j.Kind != KindMine || j.Status != StatusPending {
		t.Fatalf("linked job = %+v", j)
	}
	if j.Pos != (world.Point{X: 4, Y: 4}) || j.CreatedAt != 3 {
		t.Fatalf("linked job fields = %+v", j)
	}

	// Same position again is a silent no-op.
	if b.Add(DesignationChopTree, world.Point{X: 4, Y: 4}, 4) != nil {
		t.Fatal("duplicate designation accepted")
	}
	if m.PendingCount() != 1 {
		t.Fatalf("pending = %d", m.PendingCount())
	}
}

func TestBoardAdd_MapsKinds(t *testing.T) {
	m := NewManager(10)
	b := NewBoard(m)

	cases := []struct {
		dk   DesignationKind
		want Kind
	}{
		{DesignationDig, KindMine},
		{DesignationChannel, KindMine},
		{DesignationSmooth, KindMine},
		{DesignationChopTree, KindChopTree},
		{DesignationGatherPlants, KindHarvest},
	}
	for i, c := range cases {
		d := b.Add(c.dk, world.Point{X: i, Y: 9}, 0)
		if d == nil {
			t.Fatalf("%s: add failed", c.dk)
		}
		if got := m.Job(d.JobID).Kind; got != c.want {
			t.Fatalf("%s -> %s, want %s", c.dk, got, c.want)
		}
	}
}

func TestBoardRemove_CancelsJob(t *testing.T) {
	m := NewManager(10)
	b := NewBoard(m)
	d := b.Add(DesignationDig, world.Point{X: 1, Y: 1}, 0)

	b.Remove(d.Pos)
	if b.At(d.Pos) != nil {
		t.Fatal("designation survived remove")
	}
	if j := m.Job(d.JobID); j == nil || j.Status != StatusCancelled {
		t.Fatalf("linked job = %+v", j)
	}
	// Removing again is harmless.
	b.Remove(d.Pos)
}

func TestBoardComplete_DropsRecordOnly(t *testing.T) {
	m := NewManager(10)
	b := NewBoard(m)
	d := b.Add(DesignationChopTree, world.Point{X: 2, Y: 2}, 0)
	m.ClaimJob(d.JobID, "U1")

	b.Complete(d.Pos)
	if b.At(d.Pos) != nil {
		t.Fatal("designation survived complete")
	}
	// The job belongs to the worker; Complete never touches it.
	if j := m.Job(d.JobID); j == nil || j.Status != StatusClaimed {
		t.Fatalf("linked job = %+v", j)
	}
}

func TestBoardSweep_DropsRetiredDesignations(t *testing.T) {
	m := NewManager(10)
	b := NewBoard(m)
	live := b.Add(DesignationDig, world.Point{X: 1, Y: 1}, 0)
	stale := b.Add(DesignationDig, world.Point{X: 5, Y: 5}, 0)

	// Retired out-of-band, bypassing the board.
	m.CancelJob(stale.JobID)

	if n := b.Sweep(); n != 1 {
		t.Fatalf("swept %d, want 1", n)
	}
	if b.At(stale.Pos) != nil {
		t.Fatal("stale designation survived sweep")
	}
	if b.At(live.Pos) == nil {
		t.Fatal("live designation dropped by sweep")
	}
	if n := b.Sweep(); n != 0 {
		t.Fatalf("second sweep dropped %d", n)
	}
}

func TestBoardDesignations_OrderedByJobID(t *testing.T) {
	m := NewManager(10)
	b := NewBoard(m)
	b.Add(DesignationDig, world.Point{X: 3, Y: 0}, 0)
	b.Add(DesignationDig, world.Point{X: 1, Y: 0}, 0)
	b.Add(DesignationDig, world.Point{X: 2, Y: 0}, 0)

	ds := b.Designations()
	if len(ds) != 3 {
		t.Fatalf("len = %d", len(ds))
	}
	for i := 1; i < len(ds); i++ {
		if ds[i-1].JobID >= ds[i].JobID {
			t.Fatalf("not ordered: %d then %d", ds[i-1].JobID, ds[i].JobID)
		}
	}
}
