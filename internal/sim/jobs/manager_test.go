package jobs

import (
	"testing"

	"outpost.sim/internal/sim/world"
)

func TestJobLifecycle(t *testing.T) {
	m := NewManager(10)

	j := m.CreateJob(KindChopTree, world.Point{X: 3, Y: 3}, PriorityNormal, 5, 7)
	if j.Status != StatusPending || j.ID != 1 {
		t.Fatalf("created job = %+v", j)
	}
	if j.RequiredSkill != SkillWoodcutting {
		t.Fatalf("required skill = %s", j.RequiredSkill)
	}
	if j.CreatedAt != 7 || j.TotalWork != 5 || j.WorkRemaining != 5 {
		t.Fatalf("job fields = %+v", j)
	}
	if m.PendingCount() != 1 || m.ActiveCount() != 0 {
		t.Fatalf("counts pending=%d active=%d", m.PendingCount(), m.ActiveCount())
	}

	if !m.ClaimJob(j.ID, "U1") {
		t.Fatal("claim failed")
	}
	if j.Status != StatusClaimed || j.AssignedUnit != "U1" {
		t.Fatalf("after claim: %+v", j)
	}
	if m.PendingCount() != 0 || m.ActiveCount() != 1 {
		t.Fatalf("counts pending=%d active=%d", m.PendingCount(), m.ActiveCount())
	}
	// A claimed job cannot be claimed again.
	if m.ClaimJob(j.ID, "U2") {
		t.Fatal("double claim succeeded")
	}

	m.StartJob(j.ID)
	if j.Status != StatusInProgress {
		t.Fatalf("after start: %s", j.Status)
	}

	for i := 0; i < 4; i++ {
		if m.ApplyWork(j.ID, 1) {
			t.Fatalf("work done early at step %d", i)
		}
	}
	if j.Progress() != 80 {
		t.Fatalf("progress = %d", j.Progress())
	}
	if !m.ApplyWork(j.ID, 1) {
		t.Fatal("final work unit did not report done")
	}
	// Already at zero: no double completion signal.
	if m.ApplyWork(j.ID, 1) {
		t.Fatal("work reported done twice")
	}
	if j.Progress() != 100 {
		t.Fatalf("progress = %d", j.Progress())
	}

	m.CompleteJob(j.ID)
	if j.Status != StatusCompleted || j.AssignedUnit != "" {
		t.Fatalf("after complete: %+v", j)
	}
	if m.ActiveCount() != 0 || len(m.CompletedJobs()) != 1 {
		t.Fatal("completed job not in history")
	}
	// Terminal jobs stay terminal.
	m.CancelJob(j.ID)
	if j.Status != StatusCompleted {
		t.Fatalf("terminal status changed to %s", j.Status)
	}
}

func TestApplyWork_Guards(t *testing.T) {
	m := NewManager(10)
	j := m.CreateJob(KindMine, world.Point{X: 1, Y: 1}, PriorityNormal, 10, 0)

	// Pending jobs accept no work.
	if m.ApplyWork(j.ID, 5) {
		t.Fatal("work applied to pending job")
	}
	m.ClaimJob(j.ID, "U1")
	if m.ApplyWork(j.ID, 0) || m.ApplyWork(j.ID, -3) {
		t.Fatal("non-positive amount accepted")
	}
	// Overshoot floors at zero and still reports done exactly once.
	if !m.ApplyWork(j.ID, 99) {
		t.Fatal("overshoot did not complete")
	}
	if j.WorkRemaining != 0 {
		t.Fatalf("remaining = %d", j.WorkRemaining)
	}
	if m.ApplyWork(j.ID, 99) {
		t.Fatal("done reported twice")
	}
}

func TestReleaseJob_BackToPending(t *testing.T) {
	m := NewManager(10)
	j := m.CreateJob(KindHaul, world.Point{X: 2, Y: 2}, PriorityNormal, 0, 0)
	m.ClaimJob(j.ID, "U1")
	m.StartJob(j.ID)
	m.ApplyWork(j.ID, 3)

	m.ReleaseJob(j.ID)
	if j.Status != StatusPending || j.AssignedUnit != "" {
		t.Fatalf("after release: %+v", j)
	}
	if m.PendingCount() != 1 || m.ActiveCount() != 0 {
		t.Fatal("index slices out of sync after release")
	}
	// Progress survives the release.
	if j.WorkRemaining != BaseWork(KindHaul)-3 {
		t.Fatalf("remaining = %d", j.WorkRemaining)
	}
	if !m.ClaimJob(j.ID, "U2") {
		t.Fatal("released job not claimable")
	}
}

func TestFindJobForUnit_Ordering(t *testing.T) {
	m := NewManager(10)
	labor := map[Kind]bool{KindMine: true, KindChopTree: true}

	far := m.CreateJob(KindMine, world.Point{X: 20, Y: 20}, PriorityNormal, 0, 0)
	near := m.CreateJob(KindMine, world.Point{X: 2, Y: 0}, PriorityNormal, 0, 0)
	urgent := m.CreateJob(KindChopTree, world.Point{X: 30, Y: 30}, PriorityHigh, 0, 0)

	got := m.FindJobForUnit("U1", world.Point{}, labor, nil)
	if got == nil || got.ID != urgent.ID {
		t.Fatalf("best = %+v, want urgent %d", got, urgent.ID)
	}

	m.CancelJob(urgent.ID)
	got = m.FindJobForUnit("U1", world.Point{}, labor, nil)
	if got == nil || got.ID != near.ID {
		t.Fatalf("best = %+v, want near %d", got, near.ID)
	}

	// Equal priority and distance: lowest id wins.
	m.CancelJob(near.ID)
	tie := m.CreateJob(KindMine, world.Point{X: 20, Y: 20}, PriorityNormal, 0, 0)
	got = m.FindJobForUnit("U1", world.Point{}, labor, nil)
	if got == nil || got.ID != far.ID {
		t.Fatalf("best = %+v, want older %d over %d", got, far.ID, tie.ID)
	}
}

func TestFindJobForUnit_Filters(t *testing.T) {
	m := NewManager(10)
	j := m.CreateJob(KindCook, world.Point{X: 1, Y: 1}, PriorityNormal, 0, 0)
	j.MinSkillLevel = 3

	// Labor preference off.
	if got := m.FindJobForUnit("U1", world.Point{}, map[Kind]bool{}, nil); got != nil {
		t.Fatalf("labor-filtered job returned: %+v", got)
	}
	labor := map[Kind]bool{KindCook: true}
	// Skill too low.
	if got := m.FindJobForUnit("U1", world.Point{}, labor, map[Skill]int{SkillCooking: 2}); got != nil {
		t.Fatalf("under-skilled unit got job: %+v", got)
	}
	if got := m.FindJobForUnit("U1", world.Point{}, labor, map[Skill]int{SkillCooking: 3}); got == nil {
		t.Fatal("qualified unit found no job")
	}
}

func TestCompletedHistoryBounded(t *testing.T) {
	m := NewManager(2)
	var ids []int64
	for i := 0; i < 4; i++ {
		j := m.CreateJob(KindMine, world.Point{X: i, Y: 0}, PriorityNormal, 0, uint64(i))
		ids = append(ids, j.ID)
		m.CancelJob(j.ID)
	}
	if got := len(m.CompletedJobs()); got != 2 {
		t.Fatalf("history size = %d", got)
	}
	// The two oldest are evicted entirely.
	if m.Job(ids[0]) != nil || m.Job(ids[1]) != nil {
		t.Fatal("evicted jobs still resolvable")
	}
	if m.Job(ids[2]) == nil || m.Job(ids[3]) == nil {
		t.Fatal("recent jobs missing from history")
	}
}

func TestJobsAtPosition_CoversTargetPos(t *testing.T) {
	m := NewManager(10)
	j := m.CreateJob(KindMine, world.Point{X: 2, Y: 2}, PriorityNormal, 0, 0)
	tp := world.Point{X: 3, Y: 2}
	j.TargetPos = &tp

	if got := m.JobsAtPosition(world.Point{X: 2, Y: 2}); len(got) != 1 {
		t.Fatalf("jobs at stand pos = %d", len(got))
	}
	if got := m.JobsAtPosition(tp); len(got) != 1 {
		t.Fatalf("jobs at target pos = %d", len(got))
	}
	m.CancelJob(j.ID)
	if got := m.JobsAtPosition(tp); len(got) != 0 {
		t.Fatal("retired job still books its tile")
	}
}

func TestPendingCountsByKind(t *testing.T) {
	m := NewManager(10)
	m.CreateJob(KindMine, world.Point{X: 1, Y: 0}, PriorityNormal, 0, 0)
	m.CreateJob(KindMine, world.Point{X: 2, Y: 0}, PriorityNormal, 0, 0)
	claimed := m.CreateJob(KindMine, world.Point{X: 3, Y: 0}, PriorityNormal, 0, 0)
	m.ClaimJob(claimed.ID, "U1")

	counts := m.PendingCountsByKind()
	if counts[KindMine] != 2 {
		t.Fatalf("pending mine = %d", counts[KindMine])
	}
}
