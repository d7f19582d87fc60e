package jobs

import "outpost.sim/internal/sim/world"

type Kind string

const (
	KindMine          Kind = "MINE"
	KindDig           Kind = "DIG"
	KindChopTree      Kind = "CHOP_TREE"
	KindConstruct     Kind = "CONSTRUCT"
	KindBuildWorkshop Kind = "BUILD_WORKSHOP"
	KindCraft         Kind = "CRAFT"
	KindHaul          Kind = "HAUL"
	KindStore         Kind = "STORE"
	KindCook          Kind = "COOK"
	KindBrew          Kind = "BREW"
	KindPlant         Kind = "PLANT"
	KindHarvest       Kind = "HARVEST"
	KindHunt          Kind = "HUNT"
	KindFish          Kind = "FISH"
)

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusClaimed    Status = "CLAIMED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusSuspended  Status = "SUSPENDED"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

// Priority orders jobs; a lower value is more urgent.
type Priority int

const (
	PriorityHighest Priority = iota
	PriorityUrgent
	PriorityHigh
	PriorityNormal
	PriorityLow
	PriorityVeryLow
	PriorityLowest
)

type Skill string

const (
	SkillMining       Skill = "MINING"
	SkillWoodcutting  Skill = "WOODCUTTING"
	SkillConstruction Skill = "CONSTRUCTION"
	SkillCrafting     Skill = "CRAFTING"
	SkillHauling      Skill = "HAULING"
	SkillCooking      Skill = "COOKING"
	SkillBrewing      Skill = "BREWING"
	SkillFarming      Skill = "FARMING"
	SkillHunting      Skill = "HUNTING"
	SkillFishing      Skill = "FISHING"
)

// skillForKind is fixed; RequiredSkill is derived from Kind at creation.
var skillForKind = map[Kind]Skill{
	KindMine:          SkillMining,
	KindDig:           SkillMining,
	KindChopTree:      SkillWoodcutting,
	KindConstruct:     SkillConstruction,
	KindBuildWorkshop: SkillConstruction,
	KindCraft:         SkillCrafting,
	KindHaul:          SkillHauling,
	KindStore:         SkillHauling,
	KindCook:          SkillCooking,
	KindBrew:          SkillBrewing,
	KindPlant:         SkillFarming,
	KindHarvest:       SkillFarming,
	KindHunt:          SkillHunting,
	KindFish:          SkillFishing,
}

// baseWork is the default TotalWork (ticks of labor) per kind.
var baseWork = map[Kind]int{
	KindMine:          60,
	KindDig:           50,
	KindChopTree:      40,
	KindConstruct:     80,
	KindBuildWorkshop: 120,
	KindCraft:         50,
	KindHaul:          10,
	KindStore:         10,
	KindCook:          30,
	KindBrew:          40,
	KindPlant:         20,
	KindHarvest:       25,
	KindHunt:          30,
	KindFish:          35,
}

func SkillFor(k Kind) Skill { return skillForKind[k] }

func BaseWork(k Kind) int {
	if w, ok := baseWork[k]; ok {
		return w
	}
	return 50
}

type Job struct {
	ID       int64
	Kind     Kind
	Status   Status
	Priority Priority

	// Pos is where the worker must stand; TargetPos (if set) is the resource
	// tile itself, e.g. the wall being mined or the tree being felled.
	Pos       world.Point
	TargetPos *world.Point

	TargetItem string
	TargetUnit string
	WorkshopID string

	RequiredSkill Skill
	MinSkillLevel int

	WorkRemaining int
	TotalWork     int

	ResultItem   world.ItemKind
	AssignedUnit string
	CreatedAt    uint64
}

func (j *Job) CanBeClaimed() bool {
	return j.Status == StatusPending || j.Status == StatusSuspended
}

func (j *Job) IsActive() bool {
	return j.Status == StatusClaimed || j.Status == StatusInProgress
}

func (j *Job) IsTerminal() bool {
	return j.Status == StatusCompleted || j.Status == StatusCancelled
}

// Progress is 0..100.
func (j *Job) Progress() int {
	if j.TotalWork <= 0 {
		return 100
	}
	return 100 - j.WorkRemaining*100/j.TotalWork
}

// Target returns the resource tile when set, else the standing position.
func (j *Job) Target() world.Point {
	if j.TargetPos != nil {
		return *j.TargetPos
	}
	return j.Pos
}
