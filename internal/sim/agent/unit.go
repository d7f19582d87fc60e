package agent

import (
	"outpost.sim/internal/sim/jobs"
	"outpost.sim/internal/sim/world"
)

type State string

const (
	StateIdle        State = "IDLE"
	StateMoving      State = "MOVING"
	StateWorking     State = "WORKING"
	StateEating      State = "EATING"
	StateDrinking    State = "DRINKING"
	StateSleeping    State = "SLEEPING"
	StateSocializing State = "SOCIALIZING"
	StateFighting    State = "FIGHTING"
	StateFleeing     State = "FLEEING"
	StateUnconscious State = "UNCONSCIOUS"
	StateDead        State = "DEAD"
)

// Event is a loosely-typed log entry attached to a unit for one tick.
type Event map[string]any

// Unit is a colonist advancing through the state machine each tick.
type Unit struct {
	ID   string
	Name string
	Kind string // creature kind; colonists are KIND COLONIST

	Pos   world.Point
	State State

	// ActionCounter gates how often the unit may act; it counts down one
	// per tick and the unit is skipped while it is positive.
	ActionCounter int

	// Monotonic need counters, reset on satisfaction.
	Hunger     int
	Thirst     int
	Drowsiness int

	HP    int
	MaxHP int

	// Traits 0..20, 10 = average.
	Agility int
	Bravery int

	Labor   map[jobs.Kind]bool
	Skills  map[jobs.Skill]int
	skillXP map[jobs.Skill]int

	Path  []world.Point
	JobID int64

	// FightTarget is the hostile unit id while fighting.
	FightTarget string

	Events []Event
}

const KindColonist = "COLONIST"

func NewColonist(id, name string, pos world.Point) *Unit {
	u := &Unit{
		ID:   id,
		Name: name,
		Kind: KindColonist,
		Pos:  pos,
	}
	u.initDefaults()
	return u
}

func (u *Unit) initDefaults() {
	if u.State == "" {
		u.State = StateIdle
	}
	if u.MaxHP == 0 {
		u.MaxHP = 100
	}
	if u.HP == 0 {
		u.HP = u.MaxHP
	}
	if u.Agility == 0 {
		u.Agility = 10
	}
	if u.Bravery == 0 {
		u.Bravery = 10
	}
	if u.Labor == nil {
		u.Labor = map[jobs.Kind]bool{}
		for _, k := range []jobs.Kind{
			jobs.KindMine, jobs.KindDig, jobs.KindChopTree, jobs.KindConstruct,
			jobs.KindBuildWorkshop, jobs.KindCraft, jobs.KindHaul, jobs.KindStore,
			jobs.KindCook, jobs.KindBrew, jobs.KindPlant, jobs.KindHarvest,
			jobs.KindHunt, jobs.KindFish,
		} {
			u.Labor[k] = true
		}
	}
	if u.Skills == nil {
		u.Skills = map[jobs.Skill]int{}
	}
	if u.skillXP == nil {
		u.skillXP = map[jobs.Skill]int{}
	}
}

func (u *Unit) AddEvent(e Event) { u.Events = append(u.Events, e) }

func (u *Unit) TakeEvents() []Event {
	ev := u.Events
	u.Events = nil
	return ev
}

// GainSkillXP accumulates experience; every 100 XP is a level, capped at 20.
func (u *Unit) GainSkillXP(s jobs.Skill, xp int) {
	if s == "" || xp <= 0 {
		return
	}
	u.skillXP[s] += xp
	for u.skillXP[s] >= 100 && u.Skills[s] < 20 {
		u.skillXP[s] -= 100
		u.Skills[s]++
	}
}

func (u *Unit) HealthPct() int {
	if u.MaxHP <= 0 {
		return 0
	}
	return u.HP * 100 / u.MaxHP
}

// Ref is the world-facing mirror of this unit.
func (u *Unit) Ref() world.UnitRef {
	return world.UnitRef{
		ID:       u.ID,
		Kind:     u.Kind,
		Pos:      u.Pos,
		HP:       u.HP,
		MaxHP:    u.MaxHP,
		Dead:     u.State == StateDead,
		Colonist: u.Kind == KindColonist,
	}
}
