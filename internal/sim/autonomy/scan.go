package autonomy

import (
	"sort"

	"outpost.sim/internal/sim/jobs"
	"outpost.sim/internal/sim/world"
)

// World is the read-only surface the demand engine scans. *world.Grid
// satisfies it.
type World interface {
	GetTile(p world.Point) (world.Tile, bool)
	IsPassable(p world.Point) bool
	AdjacentPassable(p world.Point) (world.Point, bool)
	Units() []world.UnitRef
	ItemsByKind(kind world.ItemKind) []*world.Item
	CountItems(kind world.ItemKind) int
}

type TargetKind string

const (
	TargetTree     TargetKind = "TREE"
	TargetStone    TargetKind = "STONE"
	TargetOre      TargetKind = "ORE"
	TargetShrub    TargetKind = "SHRUB"
	TargetWater    TargetKind = "WATER"
	TargetHuntable TargetKind = "HUNTABLE"
	TargetWorkshop TargetKind = "WORKSHOP"
)

// WorkTarget is an ephemeral scan result: consumed immediately to create a
// job, never stored.
type WorkTarget struct {
	Kind TargetKind

	// Pos is where the worker would stand; TargetPos is the resource tile
	// when it differs (walls, trees, water).
	Pos       world.Point
	TargetPos *world.Point

	UnitID   string
	Priority jobs.Priority
}

// huntableKinds is the creature allow-list. Sapient enemy kinds share the
// world but are a combat problem, not a food source.
var huntableKinds = map[string]bool{
	"DEER": true,
	"BOAR": true,
	"ELK":  true,
	"HARE": true,
	"WOLF": true,
	"BEAR": true,
}

// scanTiles walks the square radius around center looking for resource tiles
// that a worker can stand next to. It keeps up to limit*3 candidates, orders
// them by priority then distance from center (scan order breaks exact ties),
// and truncates to limit.
func scanTiles(w World, center world.Point, radius, limit int, classify func(world.Tile) (jobs.Priority, bool)) []WorkTarget {
	if limit <= 0 {
		return nil
	}
	var cands []WorkTarget
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			p := world.Point{X: center.X + dx, Y: center.Y + dy}
			t, ok := w.GetTile(p)
			if !ok {
				continue
			}
			prio, want := classify(t)
			if !want {
				continue
			}
			stand, ok := w.AdjacentPassable(p)
			if !ok {
				continue
			}
			tp := p
			cands = append(cands, WorkTarget{
				Pos:       stand,
				TargetPos: &tp,
				Priority:  prio,
			})
			if len(cands) >= limit*3 {
				break
			}
		}
		if len(cands) >= limit*3 {
			break
		}
	}
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].Priority != cands[j].Priority {
			return cands[i].Priority < cands[j].Priority
		}
		return world.Manhattan(center, *cands[i].TargetPos) < world.Manhattan(center, *cands[j].TargetPos)
	})
	if len(cands) > limit {
		cands = cands[:limit]
	}
	return cands
}

func findTrees(w World, center world.Point, radius, limit int) []WorkTarget {
	out := scanTiles(w, center, radius, limit, func(t world.Tile) (jobs.Priority, bool) {
		return jobs.PriorityNormal, t.Kind == world.TileTree
	})
	for i := range out {
		out[i].Kind = TargetTree
	}
	return out
}

// findMineable prefers ore walls over stone walls when preferOre is set.
func findMineable(w World, center world.Point, radius, limit int, preferOre bool) []WorkTarget {
	out := scanTiles(w, center, radius, limit, func(t world.Tile) (jobs.Priority, bool) {
		switch t.Kind {
		case world.TileOreWall:
			if preferOre {
				return jobs.PriorityHigh, true
			}
			return jobs.PriorityNormal, true
		case world.TileStoneWall:
			return jobs.PriorityNormal, true
		}
		return 0, false
	})
	for i := range out {
		if t, _ := w.GetTile(*out[i].TargetPos); t.Kind == world.TileOreWall {
			out[i].Kind = TargetOre
		} else {
			out[i].Kind = TargetStone
		}
	}
	return out
}

func findShrubs(w World, center world.Point, radius, limit int) []WorkTarget {
	out := scanTiles(w, center, radius, limit, func(t world.Tile) (jobs.Priority, bool) {
		return jobs.PriorityNormal, t.Kind == world.TileShrub
	})
	for i := range out {
		out[i].Kind = TargetShrub
	}
	return out
}

// findFishingSpots returns passable land adjacent to water; the water tile is
// the target, the land is where the worker stands.
func findFishingSpots(w World, center world.Point, radius, limit int) []WorkTarget {
	out := scanTiles(w, center, radius, limit, func(t world.Tile) (jobs.Priority, bool) {
		return jobs.PriorityNormal, t.Kind == world.TileWater
	})
	for i := range out {
		out[i].Kind = TargetWater
	}
	return out
}

// findHuntable is a flat filter over living non-colonist units on the
// allow-list. Hostiles under engagement are excluded by the caller's set.
func findHuntable(w World, hostile map[string]bool, limit int) []WorkTarget {
	var out []WorkTarget
	for _, u := range w.Units() {
		if u.Dead || u.Colonist || hostile[u.ID] {
			continue
		}
		if !huntableKinds[u.Kind] {
			continue
		}
		out = append(out, WorkTarget{
			Kind:     TargetHuntable,
			Pos:      u.Pos,
			UnitID:   u.ID,
			Priority: jobs.PriorityHigh,
		})
		if len(out) >= limit {
			break
		}
	}
	return out
}
