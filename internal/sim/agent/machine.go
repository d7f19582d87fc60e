package agent

import (
	"math/rand"
	"sort"

	"outpost.sim/internal/sim/jobs"
	"outpost.sim/internal/sim/tuning"
	"outpost.sim/internal/sim/world"
)

// Machine advances one unit one tick. It holds no per-unit state of its own;
// everything mutable lives on the Unit, so the caller controls iteration
// order and therefore determinism.
type Machine struct {
	cfg   tuning.Tuning
	world World
	mgr   *jobs.Manager
	board *jobs.Board

	mood     Mood
	combat   Combat
	crafting Crafting
}

func NewMachine(cfg tuning.Tuning, w World, mgr *jobs.Manager, board *jobs.Board) *Machine {
	return &Machine{
		cfg:      cfg,
		world:    w,
		mgr:      mgr,
		board:    board,
		mood:     NopMood{},
		combat:   BasicCombat{},
		crafting: BasicCrafting{},
	}
}

func (m *Machine) SetMood(v Mood)         { m.mood = v }
func (m *Machine) SetCombat(v Combat)     { m.combat = v }
func (m *Machine) SetCrafting(v Crafting) { m.crafting = v }

// Step runs the fixed interrupt ladder for one unit. Earlier rungs short-
// circuit later ones; the order is load-bearing and must not be rearranged.
func (m *Machine) Step(u *Unit, tick uint64, rng *rand.Rand) {
	if u.State == StateDead {
		return
	}

	// Bookkeeping.
	u.Hunger++
	u.Thirst++
	u.Drowsiness++
	if u.ActionCounter > 0 {
		u.ActionCounter--
	}

	m.mood.OnTick(u, tick)

	// Death is a normal transition, not an error.
	if u.HP <= 0 || u.Hunger >= m.cfg.Needs.HungerDeath || u.Thirst >= m.cfg.Needs.ThirstDeath {
		m.die(u, tick)
		return
	}

	// Threat check: already-engaged units keep their state.
	if u.State != StateFighting && u.State != StateFleeing {
		if hostile, ok := m.nearestHostile(u); ok {
			m.releaseJob(u)
			u.Path = nil
			if u.HealthPct() > m.cfg.Threat.FleeHealthPct && u.Bravery*5 >= m.cfg.Threat.BraveryToFight {
				u.State = StateFighting
				u.FightTarget = hostile.ID
			} else {
				u.State = StateFleeing
			}
			u.AddEvent(Event{"t": tick, "type": "THREAT", "hostile": hostile.ID, "state": string(u.State)})
			return
		}
	}

	// Still recovering from the last action.
	if u.ActionCounter > 0 {
		return
	}

	if behavior, ok := m.mood.MentalBreak(u, tick, rng); ok {
		u.AddEvent(Event{"t": tick, "type": "MENTAL_BREAK", "behavior": behavior})
		m.wander(u, rng)
		u.ActionCounter = ActionDelay(m.cfg.Speed, u.Agility, rng)
		return
	}

	switch u.State {
	case StateIdle:
		m.stepIdle(u, tick, rng)
	case StateMoving:
		m.stepMoving(u, tick, rng)
	case StateWorking:
		m.stepWorking(u, tick, rng)
	case StateEating:
		m.stepEating(u, tick)
	case StateDrinking:
		m.stepDrinking(u, tick)
	case StateSleeping:
		m.stepSleeping(u, tick)
	case StateSocializing:
		m.stepSocializing(u, tick, rng)
	case StateFighting:
		m.stepFighting(u, tick, rng)
	case StateFleeing:
		m.stepFleeing(u, tick)
	case StateUnconscious:
		m.stepUnconscious(u)
	}

	u.ActionCounter = ActionDelay(m.cfg.Speed, u.Agility, rng)
}

func (m *Machine) die(u *Unit, tick uint64) {
	m.releaseJob(u)
	u.State = StateDead
	u.Path = nil
	m.mood.OnDeath(u, tick)
	u.AddEvent(Event{"t": tick, "type": "DEATH", "unit": u.ID})
}

// releaseJob hands any claimed job back to the pending pool; nothing is lost.
func (m *Machine) releaseJob(u *Unit) {
	if u.JobID == 0 {
		return
	}
	m.mgr.ReleaseJob(u.JobID)
	u.JobID = 0
}

func (m *Machine) nearestHostile(u *Unit) (world.UnitRef, bool) {
	refs := m.world.GetUnitsInRange(u.Pos, m.cfg.Threat.DetectRadius)
	var hostiles []world.UnitRef
	for _, r := range refs {
		if r.Hostile && !r.Dead {
			hostiles = append(hostiles, r)
		}
	}
	if len(hostiles) == 0 {
		return world.UnitRef{}, false
	}
	sort.Slice(hostiles, func(i, j int) bool {
		di, dj := world.Manhattan(u.Pos, hostiles[i].Pos), world.Manhattan(u.Pos, hostiles[j].Pos)
		if di != dj {
			return di < dj
		}
		return hostiles[i].ID < hostiles[j].ID
	})
	return hostiles[0], true
}

// wander takes a single step to a random passable neighbour.
func (m *Machine) wander(u *Unit, rng *rand.Rand) {
	dirs := [4]world.Point{{X: 0, Y: -1}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: -1, Y: 0}}
	start := rng.Intn(4)
	for i := 0; i < 4; i++ {
		d := dirs[(start+i)%4]
		next := world.Point{X: u.Pos.X + d.X, Y: u.Pos.Y + d.Y}
		if m.world.IsPassable(next) {
			u.Pos = next
			return
		}
	}
}
