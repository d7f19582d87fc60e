package autonomy

import (
	"sort"

	"outpost.sim/internal/sim/jobs"
	"outpost.sim/internal/sim/tuning"
	"outpost.sim/internal/sim/world"
)

// Stats counts generated jobs per category since startup.
type Stats struct {
	Total   int `json:"total"`
	Hunt    int `json:"hunt"`
	Fish    int `json:"fish"`
	Harvest int `json:"harvest"`
	Chop    int `json:"chop"`
	Mine    int `json:"mine"`
	Cook    int `json:"cook"`
	Brew    int `json:"brew"`
}

// Generator turns colony-need assessments into jobs. It remembers which
// positions it has already booked (dedup set) so repeated passes do not stack
// work on the same tiles, and spreads placements by a minimum spacing.
type Generator struct {
	cfg tuning.Autonomy

	// claimed maps a booked position to the job occupying it. Entries are
	// purged once the job retires.
	claimed map[world.Point]int64

	stats Stats
}

func NewGenerator(cfg tuning.Autonomy) *Generator {
	return &Generator{
		cfg:     cfg,
		claimed: map[world.Point]int64{},
	}
}

func (g *Generator) Stats() Stats { return g.stats }

// GenerateJobs runs one demand pass: purge stale bookings, honor the total
// backpressure cap, then walk the priority ladder. Returns jobs created.
func (g *Generator) GenerateJobs(w World, mgr *jobs.Manager, needs ColonyNeeds, hostile map[string]bool, center world.Point, tick uint64) int {
	g.purge(mgr)

	if mgr.PendingCount() >= g.cfg.MaxTotalJobs {
		return 0
	}
	counts := mgr.PendingCountsByKind()
	created := 0

	radius := g.cfg.ScanRadius
	add := func(kind jobs.Kind, wt WorkTarget, prio jobs.Priority, stat *int) *jobs.Job {
		j := g.createIfAbsent(mgr, kind, wt, prio, tick)
		if j != nil {
			counts[kind]++
			created++
			*stat++
			g.stats.Total++
		}
		return j
	}

	// Food pressure: hunt, fish, harvest.
	if needs.Food <= UrgencyHigh {
		for _, wt := range findHuntable(w, hostile, g.cfg.MaxHuntJobs) {
			if counts[jobs.KindHunt] >= g.cfg.MaxHuntJobs {
				break
			}
			add(jobs.KindHunt, wt, jobs.PriorityHigh, &g.stats.Hunt)
		}
		for _, wt := range findFishingSpots(w, center, radius, g.cfg.MaxFishJobs) {
			if counts[jobs.KindFish] >= g.cfg.MaxFishJobs {
				break
			}
			add(jobs.KindFish, wt, jobs.PriorityHigh, &g.stats.Fish)
		}
		for _, wt := range findShrubs(w, center, radius, g.cfg.MaxHarvestJobs) {
			if counts[jobs.KindHarvest] >= g.cfg.MaxHarvestJobs {
				break
			}
			add(jobs.KindHarvest, wt, jobs.PriorityHigh, &g.stats.Harvest)
		}
	}

	// Wood: ceiling scales with urgency.
	if needs.Wood <= UrgencyNormal {
		ceiling := 2
		switch needs.Wood {
		case UrgencyCritical:
			ceiling = 4
		case UrgencyHigh:
			ceiling = 3
		}
		for _, wt := range findTrees(w, center, radius, ceiling) {
			if counts[jobs.KindChopTree] >= ceiling {
				break
			}
			add(jobs.KindChopTree, wt, jobs.PriorityNormal, &g.stats.Chop)
		}
	}

	// Stone/ore: prefer ore tiles at high priority when ore is wanted.
	if needs.Stone <= UrgencyNormal || needs.Ore <= UrgencyHigh {
		preferOre := needs.Ore <= UrgencyHigh
		for _, wt := range findMineable(w, center, radius, g.cfg.MaxMineJobs, preferOre) {
			if counts[jobs.KindMine] >= g.cfg.MaxMineJobs {
				break
			}
			add(jobs.KindMine, wt, wt.Priority, &g.stats.Mine)
		}
	}

	// Plant top-up at below-normal priority when not already critical (the
	// food branch covers the critical case).
	if needs.Plant > UrgencyCritical && needs.Plant <= UrgencyNormal {
		for _, wt := range findShrubs(w, center, radius, 1) {
			if counts[jobs.KindHarvest] >= g.cfg.MaxHarvestJobs {
				break
			}
			add(jobs.KindHarvest, wt, jobs.PriorityLow, &g.stats.Harvest)
		}
	}

	// Cooking: one job per raw meat item, capped.
	for _, it := range w.ItemsByKind(world.ItemRawMeat) {
		if counts[jobs.KindCook] >= g.cfg.MaxCookJobs {
			break
		}
		wt := WorkTarget{Kind: TargetWorkshop, Pos: it.Pos}
		if j := add(jobs.KindCook, wt, jobs.PriorityNormal, &g.stats.Cook); j != nil {
			j.TargetItem = it.ID
			j.ResultItem = world.ItemMeal
		}
	}

	// Brewing: needs drink pressure and at least two plants on hand.
	if needs.Drink <= UrgencyNormal && w.CountItems(world.ItemPlant) >= 2 && counts[jobs.KindBrew] < g.cfg.MaxBrewJobs {
		if plants := w.ItemsByKind(world.ItemPlant); len(plants) > 0 {
			it := plants[0]
			wt := WorkTarget{Kind: TargetWorkshop, Pos: it.Pos}
			if j := add(jobs.KindBrew, wt, jobs.PriorityNormal, &g.stats.Brew); j != nil {
				j.TargetItem = it.ID
				j.ResultItem = world.ItemDrink
			}
		}
	}

	return created
}

// purge forgets booked positions whose job has retired.
func (g *Generator) purge(mgr *jobs.Manager) {
	var stale []world.Point
	for pos, id := range g.claimed {
		j := mgr.Job(id)
		if j == nil || j.IsTerminal() {
			stale = append(stale, pos)
		}
	}
	sort.Slice(stale, func(i, j int) bool {
		if stale[i].Y != stale[j].Y {
			return stale[i].Y < stale[j].Y
		}
		return stale[i].X < stale[j].X
	})
	for _, pos := range stale {
		delete(g.claimed, pos)
	}
}

// createIfAbsent enforces the dedup set, the manager's position index, and
// the minimum spacing between generated placements. A rejected candidate is
// simply skipped; the ladder moves on to the next one.
func (g *Generator) createIfAbsent(mgr *jobs.Manager, kind jobs.Kind, wt WorkTarget, prio jobs.Priority, tick uint64) *jobs.Job {
	if _, taken := g.claimed[wt.Pos]; taken {
		return nil
	}
	if wt.TargetPos != nil {
		if _, taken := g.claimed[*wt.TargetPos]; taken {
			return nil
		}
	}
	if len(mgr.JobsAtPosition(wt.Pos)) > 0 {
		return nil
	}
	if wt.TargetPos != nil && len(mgr.JobsAtPosition(*wt.TargetPos)) > 0 {
		return nil
	}
	for pos := range g.claimed {
		if world.Manhattan(pos, wt.Pos) < g.cfg.MinJobSpacing {
			return nil
		}
	}

	j := mgr.CreateJob(kind, wt.Pos, prio, 0, tick)
	if wt.TargetPos != nil {
		tp := *wt.TargetPos
		j.TargetPos = &tp
	}
	j.TargetUnit = wt.UnitID

	g.claimed[wt.Pos] = j.ID
	if wt.TargetPos != nil && *wt.TargetPos != wt.Pos {
		g.claimed[*wt.TargetPos] = j.ID
	}
	return j
}
