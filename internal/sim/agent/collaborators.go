package agent

import (
	"math/rand"

	"outpost.sim/internal/sim/world"
)

// World is what the state machine needs from the terrain/item/unit store.
// *world.Grid satisfies it.
type World interface {
	GetTile(p world.Point) (world.Tile, bool)
	SetTile(t world.Tile, p world.Point)
	IsPassable(p world.Point) bool
	FindPath(from, to world.Point) []world.Point
	FindNearestTile(kind world.TileKind, from world.Point, radius int) (world.Point, bool)
	MineTile(p world.Point) *world.Item

	Item(id string) *world.Item
	GetItems(p world.Point) []*world.Item
	FindNearestItem(kind world.ItemKind, from world.Point) *world.Item
	AddItem(kind world.ItemKind, p world.Point) *world.Item
	RemoveItem(id string) bool

	Unit(id string) *world.UnitRef
	GetUnitsInRange(center world.Point, radius int) []world.UnitRef
	UpdateUnit(u world.UnitRef)
	RemoveUnit(id string)
}

// Mood records thoughts and may force a mental-break behavior for one tick.
type Mood interface {
	OnTick(u *Unit, tick uint64)
	OnDeath(u *Unit, tick uint64)
	// MentalBreak reports a behavior name when the unit snaps this tick.
	MentalBreak(u *Unit, tick uint64, rng *rand.Rand) (string, bool)
}

// Combat resolves one attack and returns the damage dealt to the defender.
type Combat interface {
	ResolveAttack(att *Unit, def *world.UnitRef, rng *rand.Rand) int
}

// Crafting computes an item quality for a worker's skill level.
type Crafting interface {
	Quality(skillLevel int, rng *rand.Rand) int
}

type NopMood struct{}

func (NopMood) OnTick(*Unit, uint64)  {}
func (NopMood) OnDeath(*Unit, uint64) {}
func (NopMood) MentalBreak(*Unit, uint64, *rand.Rand) (string, bool) {
	return "", false
}

// BasicCombat rolls flat damage scaled by the attacker's remaining health.
type BasicCombat struct{}

func (BasicCombat) ResolveAttack(att *Unit, def *world.UnitRef, rng *rand.Rand) int {
	base := 5 + rng.Intn(6)
	if att.HealthPct() < 50 {
		base = base * 2 / 3
	}
	return base
}

// BasicCrafting: quality 1..5, biased upward by skill.
type BasicCrafting struct{}

func (BasicCrafting) Quality(skillLevel int, rng *rand.Rand) int {
	q := 1 + rng.Intn(3) + skillLevel/5
	if q > 5 {
		q = 5
	}
	return q
}
