package jobs

import (
	"sort"

	"outpost.sim/internal/sim/world"
)

type DesignationKind string

const (
	DesignationDig          DesignationKind = "DIG"
	DesignationChannel      DesignationKind = "CHANNEL"
	DesignationStairs       DesignationKind = "STAIRS"
	DesignationRamp         DesignationKind = "RAMP"
	DesignationSmooth       DesignationKind = "SMOOTH"
	DesignationTrack        DesignationKind = "TRACK"
	DesignationChopTree     DesignationKind = "CHOP_TREE"
	DesignationGatherPlants DesignationKind = "GATHER_PLANTS"
)

// jobKindFor maps a terrain designation onto the job kind that fulfils it.
var jobKindFor = map[DesignationKind]Kind{
	DesignationDig:          KindMine,
	DesignationChannel:      KindMine,
	DesignationStairs:       KindMine,
	DesignationRamp:         KindMine,
	DesignationSmooth:       KindMine,
	DesignationTrack:        KindMine,
	DesignationChopTree:     KindChopTree,
	DesignationGatherPlants: KindHarvest,
}

type Designation struct {
	Kind  DesignationKind
	Pos   world.Point
	JobID int64
}

// Board bridges terrain designations to jobs, one job per designation. It
// holds a constructor-injected Manager and never duplicates its bookkeeping.
type Board struct {
	mgr *Manager

	byPos map[world.Point]*Designation
	order []world.Point
}

func NewBoard(mgr *Manager) *Board {
	return &Board{
		mgr:   mgr,
		byPos: map[world.Point]*Designation{},
	}
}

// Add creates a designation and its linked job. Returns nil if the position
// is already designated.
func (b *Board) Add(kind DesignationKind, pos world.Point, tick uint64) *Designation {
	if _, exists := b.byPos[pos]; exists {
		return nil
	}
	jk, ok := jobKindFor[kind]
	if !ok {
		return nil
	}
	j := b.mgr.CreateJob(jk, pos, PriorityNormal, 0, tick)
	d := &Designation{Kind: kind, Pos: pos, JobID: j.ID}
	b.byPos[pos] = d
	b.order = append(b.order, pos)
	return d
}

// Remove cancels the linked job (if still live) and drops the designation.
func (b *Board) Remove(pos world.Point) {
	d, ok := b.byPos[pos]
	if !ok {
		return
	}
	if d.JobID != 0 {
		b.mgr.CancelJob(d.JobID)
	}
	b.drop(pos)
}

// Complete drops the designation record only; the worker has already
// completed the job itself.
func (b *Board) Complete(pos world.Point) {
	if _, ok := b.byPos[pos]; !ok {
		return
	}
	b.drop(pos)
}

func (b *Board) At(pos world.Point) *Designation { return b.byPos[pos] }

func (b *Board) Designations() []*Designation {
	out := make([]*Designation, 0, len(b.order))
	for _, p := range b.order {
		if d := b.byPos[p]; d != nil {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JobID < out[j].JobID })
	return out
}

// Sweep drops designations whose job has since been retired out-of-band
// (e.g. cancelled directly on the manager). Run at a fixed cadence.
func (b *Board) Sweep() int {
	var stale []world.Point
	for _, p := range b.order {
		d := b.byPos[p]
		if d == nil {
			continue
		}
		j := b.mgr.Job(d.JobID)
		if j == nil || j.IsTerminal() {
			stale = append(stale, p)
		}
	}
	for _, p := range stale {
		b.drop(p)
	}
	return len(stale)
}

func (b *Board) drop(pos world.Point) {
	delete(b.byPos, pos)
	for i, p := range b.order {
		if p == pos {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
}
