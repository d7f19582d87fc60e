package agent

import (
	"math/rand"

	"outpost.sim/internal/sim/jobs"
	"outpost.sim/internal/sim/world"
)

// stepIdle: critical needs pre-empt everything, then job search, then a soft
// need roll, then a weighted idle activity.
func (m *Machine) stepIdle(u *Unit, tick uint64, rng *rand.Rand) {
	// Critical needs in fixed order: thirst, hunger, drowsiness.
	if u.Thirst >= m.cfg.Needs.ThirstCritical {
		m.seekDrink(u, tick)
		return
	}
	if u.Hunger >= m.cfg.Needs.HungerCritical {
		m.seekFood(u, tick)
		return
	}
	if u.Drowsiness >= m.cfg.Needs.DrowsinessCritical {
		m.seekSleep(u, tick)
		return
	}

	// Job search.
	if j := m.mgr.FindJobForUnit(u.ID, u.Pos, u.Labor, u.Skills); j != nil {
		if !m.mgr.ClaimJob(j.ID, u.ID) {
			return
		}
		if u.Pos == j.Pos {
			u.JobID = j.ID
			u.State = StateWorking
			m.mgr.StartJob(j.ID)
			return
		}
		path := m.world.FindPath(u.Pos, j.Pos)
		if path == nil {
			// Unreachable right now; hand it back instead of looping.
			m.mgr.ReleaseJob(j.ID)
			u.AddEvent(Event{"t": tick, "type": "JOB_UNREACHABLE", "job": j.ID, "pos": j.Pos.ToArray()})
			return
		}
		u.JobID = j.ID
		u.Path = path
		u.State = StateMoving
		return
	}

	// Soft needs: head off an approaching need early, some of the time.
	if rng.Intn(100) < 25 {
		switch {
		case u.Thirst >= m.cfg.Needs.ThirstCritical/2:
			m.seekDrink(u, tick)
			return
		case u.Hunger >= m.cfg.Needs.HungerCritical/2:
			m.seekFood(u, tick)
			return
		case u.Drowsiness >= m.cfg.Needs.DrowsinessCritical/2:
			m.seekSleep(u, tick)
			return
		}
	}

	// Idle activity, weighted by a roll: mostly wander, sometimes socialize,
	// rest, or train.
	switch roll := rng.Intn(100); {
	case roll < 50:
		m.wander(u, rng)
	case roll < 70:
		if m.adjacentColonist(u) != "" {
			u.State = StateSocializing
		} else {
			m.wander(u, rng)
		}
	case roll < 85:
		// Rest in place.
	default:
		m.train(u, rng)
	}
}

func (m *Machine) stepMoving(u *Unit, tick uint64, rng *rand.Rand) {
	// A thirst emergency interrupts travel.
	if u.Thirst >= m.cfg.Needs.ThirstCritical {
		m.releaseJob(u)
		u.Path = nil
		u.State = StateIdle
		m.seekDrink(u, tick)
		return
	}

	if len(u.Path) > 0 {
		next := u.Path[0]
		if !m.world.IsPassable(next) {
			// Terrain changed under us; try again from here.
			dest := u.Path[len(u.Path)-1]
			if path := m.world.FindPath(u.Pos, dest); path != nil {
				u.Path = path
				return
			}
			m.releaseJob(u)
			u.Path = nil
			u.State = StateIdle
			u.AddEvent(Event{"t": tick, "type": "PATH_BLOCKED", "pos": next.ToArray()})
			return
		}
		u.Pos = next
		u.Path = u.Path[1:]
		if len(u.Path) > 0 {
			return
		}
	}

	// Arrived: dispatch by what this tile offers, in fixed priority order.
	if u.Hunger >= m.cfg.Needs.HungerCritical/2 && m.foodAt(u.Pos) != nil {
		u.State = StateEating
		return
	}
	if u.Thirst >= m.cfg.Needs.ThirstCritical/2 && m.drinkAt(u.Pos) {
		u.State = StateDrinking
		return
	}
	if t, ok := m.world.GetTile(u.Pos); ok && t.Kind == world.TileBed && u.Drowsiness >= m.cfg.Needs.DrowsinessCritical/2 {
		u.State = StateSleeping
		return
	}
	if u.JobID != 0 {
		if j := m.mgr.Job(u.JobID); j != nil && j.AssignedUnit == u.ID && u.Pos == j.Pos {
			u.State = StateWorking
			m.mgr.StartJob(j.ID)
			return
		}
	}
	if m.adjacentColonist(u) != "" {
		u.State = StateSocializing
		return
	}
	u.State = StateIdle
}

func (m *Machine) stepWorking(u *Unit, tick uint64, rng *rand.Rand) {
	// Critical needs preempt work; the job goes back to the pool intact.
	if u.Thirst >= m.cfg.Needs.ThirstCritical || u.Hunger >= m.cfg.Needs.HungerCritical {
		m.releaseJob(u)
		u.State = StateIdle
		return
	}

	j := m.mgr.Job(u.JobID)
	if j == nil || !j.IsActive() || j.AssignedUnit != u.ID {
		u.JobID = 0
		u.State = StateIdle
		return
	}
	if j.Status == jobs.StatusClaimed {
		m.mgr.StartJob(j.ID)
	}
	if m.mgr.ApplyWork(j.ID, 1) {
		m.completeJob(u, j, tick, rng)
		u.GainSkillXP(j.RequiredSkill, 10)
		if m.board != nil {
			m.board.Complete(j.Pos)
		}
		m.mgr.CompleteJob(j.ID)
		u.JobID = 0
		u.State = StateIdle
		u.AddEvent(Event{"t": tick, "type": "JOB_DONE", "job": j.ID, "kind": string(j.Kind)})
	}
}

func (m *Machine) stepEating(u *Unit, tick uint64) {
	if it := m.foodAt(u.Pos); it != nil {
		m.world.RemoveItem(it.ID)
		u.Hunger = 0
		u.AddEvent(Event{"t": tick, "type": "ATE", "item": string(it.Kind)})
	} else {
		// Nothing left here; forage fallback keeps the loop from starving.
		u.Hunger /= 2
	}
	u.State = StateIdle
}

func (m *Machine) stepDrinking(u *Unit, tick uint64) {
	if it := m.drinkItemAt(u.Pos); it != nil {
		m.world.RemoveItem(it.ID)
	}
	u.Thirst = 0
	u.AddEvent(Event{"t": tick, "type": "DRANK"})
	u.State = StateIdle
}

func (m *Machine) stepSleeping(u *Unit, tick uint64) {
	u.Drowsiness -= 40
	if u.Drowsiness <= 0 {
		u.Drowsiness = 0
		u.State = StateIdle
		u.AddEvent(Event{"t": tick, "type": "WOKE"})
	}
}

func (m *Machine) stepSocializing(u *Unit, tick uint64, rng *rand.Rand) {
	partner := m.adjacentColonist(u)
	if partner == "" || rng.Intn(100) < 25 {
		u.State = StateIdle
		return
	}
	u.AddEvent(Event{"t": tick, "type": "SOCIAL", "with": partner})
}

func (m *Machine) stepFighting(u *Unit, tick uint64, rng *rand.Rand) {
	target := m.world.Unit(u.FightTarget)
	if target == nil || target.Dead {
		u.FightTarget = ""
		u.State = StateIdle
		return
	}
	if world.Manhattan(u.Pos, target.Pos) <= 1 {
		dmg := m.combat.ResolveAttack(u, target, rng)
		target.HP -= dmg
		u.AddEvent(Event{"t": tick, "type": "ATTACK", "target": target.ID, "dmg": dmg})
		if target.HP <= 0 {
			target.Dead = true
			m.world.UpdateUnit(*target)
			u.FightTarget = ""
			u.State = StateIdle
			u.AddEvent(Event{"t": tick, "type": "KILL", "target": target.ID})
			return
		}
		m.world.UpdateUnit(*target)
		return
	}
	m.stepToward(u, target.Pos)
}

func (m *Machine) stepFleeing(u *Unit, tick uint64) {
	hostile, ok := m.nearestHostile(u)
	if !ok {
		u.State = StateIdle
		return
	}
	m.stepAway(u, hostile.Pos)
}

func (m *Machine) stepUnconscious(u *Unit) {
	if u.HP < u.MaxHP {
		u.HP++
	}
	if u.HP*2 >= u.MaxHP {
		u.State = StateIdle
	}
}

// --- shared helpers ---

func (m *Machine) seekDrink(u *Unit, tick uint64) {
	if m.drinkAt(u.Pos) {
		u.State = StateDrinking
		return
	}
	if it := m.world.FindNearestItem(world.ItemDrink, u.Pos); it != nil {
		if m.pathTo(u, it.Pos) {
			return
		}
	}
	if p, ok := m.world.FindNearestTile(world.TileWater, u.Pos, 32); ok {
		if stand := m.standNextTo(p); stand != nil && m.pathTo(u, *stand) {
			return
		}
	}
	// No source exists or none is reachable: satisfy in place.
	u.Thirst = 0
	u.AddEvent(Event{"t": tick, "type": "DRANK", "source": "NONE"})
}

func (m *Machine) seekFood(u *Unit, tick uint64) {
	if m.foodAt(u.Pos) != nil {
		u.State = StateEating
		return
	}
	for _, kind := range []world.ItemKind{world.ItemMeal, world.ItemRawFish, world.ItemPlant} {
		if it := m.world.FindNearestItem(kind, u.Pos); it != nil {
			if m.pathTo(u, it.Pos) {
				return
			}
		}
	}
	u.Hunger = 0
	u.AddEvent(Event{"t": tick, "type": "ATE", "source": "NONE"})
}

func (m *Machine) seekSleep(u *Unit, tick uint64) {
	if p, ok := m.world.FindNearestTile(world.TileBed, u.Pos, 32); ok && p != u.Pos {
		if m.pathTo(u, p) {
			return
		}
	}
	// Sleep where we stand.
	u.State = StateSleeping
}

func (m *Machine) pathTo(u *Unit, dest world.Point) bool {
	if u.Pos == dest {
		u.Path = nil
		u.State = StateMoving
		return true
	}
	path := m.world.FindPath(u.Pos, dest)
	if path == nil {
		return false
	}
	u.Path = path
	u.State = StateMoving
	return true
}

func (m *Machine) standNextTo(p world.Point) *world.Point {
	dirs := [4]world.Point{{X: 0, Y: -1}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: -1, Y: 0}}
	for _, d := range dirs {
		n := world.Point{X: p.X + d.X, Y: p.Y + d.Y}
		if m.world.IsPassable(n) {
			return &n
		}
	}
	return nil
}

func (m *Machine) foodAt(p world.Point) *world.Item {
	for _, it := range m.world.GetItems(p) {
		switch it.Kind {
		case world.ItemMeal, world.ItemRawFish, world.ItemPlant:
			return it
		}
	}
	return nil
}

func (m *Machine) drinkItemAt(p world.Point) *world.Item {
	for _, it := range m.world.GetItems(p) {
		if it.Kind == world.ItemDrink {
			return it
		}
	}
	return nil
}

// drinkAt: a drink item here, or open water on an adjacent tile.
func (m *Machine) drinkAt(p world.Point) bool {
	if m.drinkItemAt(p) != nil {
		return true
	}
	dirs := [4]world.Point{{X: 0, Y: -1}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: -1, Y: 0}}
	for _, d := range dirs {
		if t, ok := m.world.GetTile(world.Point{X: p.X + d.X, Y: p.Y + d.Y}); ok && t.Kind == world.TileWater {
			return true
		}
	}
	return false
}

func (m *Machine) adjacentColonist(u *Unit) string {
	best := ""
	for _, r := range m.world.GetUnitsInRange(u.Pos, 1) {
		if r.ID == u.ID || !r.Colonist || r.Dead {
			continue
		}
		if best == "" || r.ID < best {
			best = r.ID
		}
	}
	return best
}

func (m *Machine) train(u *Unit, rng *rand.Rand) {
	skills := []jobs.Skill{
		jobs.SkillMining, jobs.SkillWoodcutting, jobs.SkillConstruction,
		jobs.SkillCrafting, jobs.SkillCooking, jobs.SkillFarming,
		jobs.SkillHunting, jobs.SkillFishing,
	}
	u.GainSkillXP(skills[rng.Intn(len(skills))], 2)
}

func (m *Machine) stepToward(u *Unit, dest world.Point) {
	path := m.world.FindPath(u.Pos, dest)
	if len(path) == 0 {
		return
	}
	u.Pos = path[0]
}

func (m *Machine) stepAway(u *Unit, from world.Point) {
	dirs := [4]world.Point{{X: 0, Y: -1}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: -1, Y: 0}}
	bestD := world.Manhattan(u.Pos, from)
	best := u.Pos
	for _, d := range dirs {
		n := world.Point{X: u.Pos.X + d.X, Y: u.Pos.Y + d.Y}
		if !m.world.IsPassable(n) {
			continue
		}
		if nd := world.Manhattan(n, from); nd > bestD {
			bestD = nd
			best = n
		}
	}
	u.Pos = best
}
