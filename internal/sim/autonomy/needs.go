package autonomy

import "outpost.sim/internal/sim/tuning"

// Urgency orders need channels; a lower value is more urgent.
type Urgency int

const (
	UrgencyCritical Urgency = iota
	UrgencyHigh
	UrgencyNormal
	UrgencyLow
)

func (u Urgency) String() string {
	switch u {
	case UrgencyCritical:
		return "CRITICAL"
	case UrgencyHigh:
		return "HIGH"
	case UrgencyNormal:
		return "NORMAL"
	default:
		return "LOW"
	}
}

// ColonyNeeds is a snapshot over six independent channels. It is recomputed
// on every assessment and never persisted across ticks.
type ColonyNeeds struct {
	Food  Urgency
	Drink Urgency
	Wood  Urgency
	Stone Urgency
	Ore   Urgency
	Plant Urgency
}

// ResourceCounts feeds an assessment. Food/Drink are edible/drinkable item
// counts; the rest are raw stock counts.
type ResourceCounts struct {
	Food       int
	Drink      int
	Wood       int
	Stone      int
	Ore        int
	Plant      int
	Population int
}

// AssessColonyNeeds is a pure function: each channel runs a four-way
// threshold ladder, with food and drink normalized per capita.
func AssessColonyNeeds(c ResourceCounts, th tuning.Needs) ColonyNeeds {
	pop := c.Population
	if pop < 1 {
		pop = 1
	}
	ladder := func(count, critical, high, normal int) Urgency {
		switch {
		case count < critical:
			return UrgencyCritical
		case count < high:
			return UrgencyHigh
		case count < normal:
			return UrgencyNormal
		default:
			return UrgencyLow
		}
	}
	return ColonyNeeds{
		Food:  ladder(c.Food/pop, th.FoodCritical, th.FoodHigh, th.FoodNormal),
		Drink: ladder(c.Drink/pop, th.DrinkCritical, th.DrinkHigh, th.DrinkNormal),
		Wood:  ladder(c.Wood, th.WoodCritical, th.WoodHigh, th.WoodNormal),
		Stone: ladder(c.Stone, th.StoneCritical, th.StoneHigh, th.StoneNormal),
		Ore:   ladder(c.Ore, th.OreCritical, th.OreHigh, th.OreNormal),
		Plant: ladder(c.Plant, th.PlantCritical, th.PlantHigh, th.PlantNormal),
	}
}
