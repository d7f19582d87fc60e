package agent

import (
	"math/rand"

	"outpost.sim/internal/sim/jobs"
	"outpost.sim/internal/sim/world"
)

// completeJob applies the kind-specific side effects of a finished job.
// Failures (vanished item, escaped prey) are normal branches: the job still
// completes, it just yields nothing.
func (m *Machine) completeJob(u *Unit, j *jobs.Job, tick uint64, rng *rand.Rand) {
	switch j.Kind {
	case jobs.KindMine, jobs.KindDig:
		if it := m.world.MineTile(j.Target()); it != nil {
			u.AddEvent(Event{"t": tick, "type": "MINED", "item": string(it.Kind)})
		}

	case jobs.KindChopTree:
		if t, ok := m.world.GetTile(j.Target()); ok && t.Kind == world.TileTree {
			m.world.SetTile(world.Tile{Kind: world.TileGrass}, j.Target())
			m.world.AddItem(world.ItemWood, j.Pos)
			m.world.AddItem(world.ItemWood, j.Pos)
		}

	case jobs.KindHarvest:
		if t, ok := m.world.GetTile(j.Target()); ok && t.Kind == world.TileShrub {
			m.world.SetTile(world.Tile{Kind: world.TileGrass}, j.Target())
			m.world.AddItem(world.ItemPlant, j.Pos)
		}

	case jobs.KindPlant:
		if t, ok := m.world.GetTile(j.Target()); ok && t.Kind == world.TileGrass {
			m.world.SetTile(world.Tile{Kind: world.TileShrub}, j.Target())
		}

	case jobs.KindConstruct:
		m.world.SetTile(world.Tile{Kind: world.TileFloor}, j.Target())

	case jobs.KindBuildWorkshop:
		m.world.SetTile(world.Tile{Kind: world.TileWorkshop}, j.Target())

	case jobs.KindCraft:
		if j.ResultItem != "" {
			m.world.AddItem(j.ResultItem, j.Pos)
			q := m.crafting.Quality(u.Skills[j.RequiredSkill], rng)
			u.AddEvent(Event{"t": tick, "type": "CRAFTED", "item": string(j.ResultItem), "quality": q})
		}

	case jobs.KindHaul, jobs.KindStore:
		if it := m.world.Item(j.TargetItem); it != nil {
			it.Pos = j.Pos
		}

	case jobs.KindCook:
		if it := m.world.Item(j.TargetItem); it != nil && (it.Kind == world.ItemRawMeat || it.Kind == world.ItemRawFish) {
			m.world.RemoveItem(it.ID)
			m.world.AddItem(world.ItemMeal, j.Pos)
		}

	case jobs.KindBrew:
		// Two plants in: the linked one plus the nearest other.
		first := m.world.Item(j.TargetItem)
		if first == nil || first.Kind != world.ItemPlant {
			return
		}
		m.world.RemoveItem(first.ID)
		if second := m.world.FindNearestItem(world.ItemPlant, j.Pos); second != nil {
			m.world.RemoveItem(second.ID)
			m.world.AddItem(world.ItemDrink, j.Pos)
		}

	case jobs.KindHunt:
		target := m.world.Unit(j.TargetUnit)
		if target == nil || target.Dead {
			return
		}
		// Prey may have wandered out of reach by the time the work is done.
		if world.Manhattan(u.Pos, target.Pos) > 4 {
			u.AddEvent(Event{"t": tick, "type": "HUNT_ESCAPED", "target": target.ID})
			return
		}
		chance := 50 + u.Skills[jobs.SkillHunting]*3
		if chance > 90 {
			chance = 90
		}
		if rng.Intn(100) < chance {
			m.world.RemoveUnit(target.ID)
			m.world.AddItem(world.ItemRawMeat, target.Pos)
			u.AddEvent(Event{"t": tick, "type": "HUNT_KILL", "target": target.ID})
		} else {
			u.AddEvent(Event{"t": tick, "type": "HUNT_MISS", "target": target.ID})
		}

	case jobs.KindFish:
		chance := 40 + u.Skills[jobs.SkillFishing]*3
		if chance > 85 {
			chance = 85
		}
		if rng.Intn(100) < chance {
			m.world.AddItem(world.ItemRawFish, j.Pos)
			u.AddEvent(Event{"t": tick, "type": "FISH_CAUGHT"})
		}
	}
}
