package jobs

import (
	"sort"

	"outpost.sim/internal/sim/world"
)

// Manager owns the job table and is the single writer of job status. Index
// slices hold ids in creation order so iteration never depends on map order.
type Manager struct {
	jobs map[int64]*Job

	pending   []int64
	active    []int64
	completed []int64

	nextID     int64
	maxHistory int
}

func NewManager(maxCompletedHistory int) *Manager {
	if maxCompletedHistory <= 0 {
		maxCompletedHistory = 100
	}
	return &Manager{
		jobs:       map[int64]*Job{},
		maxHistory: maxCompletedHistory,
	}
}

// CreateJob always succeeds. workRequired <= 0 takes the per-kind base work.
func (m *Manager) CreateJob(kind Kind, pos world.Point, prio Priority, workRequired int, tick uint64) *Job {
	if workRequired <= 0 {
		workRequired = BaseWork(kind)
	}
	m.nextID++
	j := &Job{
		ID:            m.nextID,
		Kind:          kind,
		Status:        StatusPending,
		Priority:      prio,
		Pos:           pos,
		RequiredSkill: SkillFor(kind),
		WorkRemaining: workRequired,
		TotalWork:     workRequired,
		CreatedAt:     tick,
	}
	m.jobs[j.ID] = j
	m.pending = append(m.pending, j.ID)
	return j
}

func (m *Manager) Job(id int64) *Job { return m.jobs[id] }

// FindJobForUnit is a pure query: the best claimable job for the unit, or nil.
// Candidates are filtered by labor preference and minimum skill, then ordered
// by priority, Manhattan distance from the unit, and finally job id.
func (m *Manager) FindJobForUnit(unitID string, pos world.Point, labor map[Kind]bool, skills map[Skill]int) *Job {
	var cands []*Job
	for _, id := range m.pending {
		j := m.jobs[id]
		if j == nil || j.Status != StatusPending {
			continue
		}
		if !labor[j.Kind] {
			continue
		}
		if j.MinSkillLevel > 0 && skills[j.RequiredSkill] < j.MinSkillLevel {
			continue
		}
		cands = append(cands, j)
	}
	if len(cands) == 0 {
		return nil
	}
	sort.Slice(cands, func(i, k int) bool {
		a, b := cands[i], cands[k]
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		da, db := world.Manhattan(pos, a.Pos), world.Manhattan(pos, b.Pos)
		if da != db {
			return da < db
		}
		return a.ID < b.ID
	})
	return cands[0]
}

func (m *Manager) ClaimJob(id int64, unitID string) bool {
	j := m.jobs[id]
	if j == nil || !j.CanBeClaimed() {
		return false
	}
	j.Status = StatusClaimed
	j.AssignedUnit = unitID
	m.pending = removeID(m.pending, id)
	m.active = append(m.active, id)
	return true
}

// ReleaseJob hands a claimed or in-progress job back to the pending pool.
func (m *Manager) ReleaseJob(id int64) {
	j := m.jobs[id]
	if j == nil || !j.IsActive() {
		return
	}
	j.Status = StatusPending
	j.AssignedUnit = ""
	m.active = removeID(m.active, id)
	m.pending = append(m.pending, id)
}

// SuspendJob is ReleaseJob for temporary blocking (unreachable target etc.);
// the job lands back in pending and stays claimable.
func (m *Manager) SuspendJob(id int64) { m.ReleaseJob(id) }

func (m *Manager) StartJob(id int64) {
	j := m.jobs[id]
	if j == nil || j.Status != StatusClaimed {
		return
	}
	j.Status = StatusInProgress
}

// ApplyWork decrements remaining work on an active job, flooring at zero.
// It reports true only on the call that brings WorkRemaining to exactly 0.
func (m *Manager) ApplyWork(id int64, amount int) bool {
	j := m.jobs[id]
	if j == nil || !j.IsActive() || amount <= 0 {
		return false
	}
	if j.WorkRemaining <= 0 {
		return false
	}
	j.WorkRemaining -= amount
	if j.WorkRemaining < 0 {
		j.WorkRemaining = 0
	}
	return j.WorkRemaining == 0
}

func (m *Manager) CompleteJob(id int64) { m.finish(id, StatusCompleted) }
func (m *Manager) CancelJob(id int64)   { m.finish(id, StatusCancelled) }

func (m *Manager) finish(id int64, st Status) {
	j := m.jobs[id]
	if j == nil || j.IsTerminal() {
		return
	}
	m.pending = removeID(m.pending, id)
	m.active = removeID(m.active, id)
	j.Status = st
	j.AssignedUnit = ""
	m.completed = append(m.completed, id)
	m.trimHistory()
}

func (m *Manager) trimHistory() {
	for len(m.completed) > m.maxHistory {
		// Evict oldest by CreatedAt; ids are created monotonically so the
		// slice is already oldest-first, but resolve ties by id to be safe.
		oldest := 0
		for i := 1; i < len(m.completed); i++ {
			a, b := m.jobs[m.completed[i]], m.jobs[m.completed[oldest]]
			if a.CreatedAt < b.CreatedAt || (a.CreatedAt == b.CreatedAt && a.ID < b.ID) {
				oldest = i
			}
		}
		id := m.completed[oldest]
		m.completed = append(m.completed[:oldest], m.completed[oldest+1:]...)
		delete(m.jobs, id)
	}
}

func (m *Manager) PendingCount() int { return len(m.pending) }
func (m *Manager) ActiveCount() int  { return len(m.active) }

func (m *Manager) PendingJobs() []*Job { return m.jobsFor(m.pending) }
func (m *Manager) ActiveJobs() []*Job  { return m.jobsFor(m.active) }

func (m *Manager) CompletedJobs() []*Job { return m.jobsFor(m.completed) }

func (m *Manager) jobsFor(ids []int64) []*Job {
	out := make([]*Job, 0, len(ids))
	for _, id := range ids {
		if j := m.jobs[id]; j != nil {
			out = append(out, j)
		}
	}
	return out
}

func (m *Manager) JobsForUnit(unitID string) []*Job {
	var out []*Job
	for _, id := range m.active {
		if j := m.jobs[id]; j != nil && j.AssignedUnit == unitID {
			out = append(out, j)
		}
	}
	return out
}

// JobsAtPosition covers pending and active jobs only; retired jobs no longer
// book their tile.
func (m *Manager) JobsAtPosition(p world.Point) []*Job {
	var out []*Job
	for _, ids := range [][]int64{m.pending, m.active} {
		for _, id := range ids {
			j := m.jobs[id]
			if j == nil {
				continue
			}
			if j.Pos == p || (j.TargetPos != nil && *j.TargetPos == p) {
				out = append(out, j)
			}
		}
	}
	return out
}

func (m *Manager) JobsByKind(kind Kind) []*Job {
	var out []*Job
	for _, ids := range [][]int64{m.pending, m.active} {
		for _, id := range ids {
			if j := m.jobs[id]; j != nil && j.Kind == kind {
				out = append(out, j)
			}
		}
	}
	return out
}

// PendingCountsByKind is used by the demand engine's per-kind ceilings.
func (m *Manager) PendingCountsByKind() map[Kind]int {
	out := map[Kind]int{}
	for _, id := range m.pending {
		if j := m.jobs[id]; j != nil {
			out[j.Kind]++
		}
	}
	return out
}

func removeID(ids []int64, id int64) []int64 {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
