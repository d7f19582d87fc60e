package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	TickRateHz int `yaml:"tick_rate_hz"`

	// Cadences (in ticks).
	AutonomyEveryTicks    int `yaml:"autonomy_every_ticks"`
	DesignationSweepTicks int `yaml:"designation_sweep_ticks"`

	Jobs     Jobs     `yaml:"jobs"`
	Autonomy Autonomy `yaml:"autonomy"`
	Needs    Needs    `yaml:"needs"`
	Speed    Speed    `yaml:"speed"`
	Threat   Threat   `yaml:"threat"`
}

type Jobs struct {
	MaxCompletedHistory int `yaml:"max_completed_history"`
}

type Autonomy struct {
	MaxTotalJobs  int `yaml:"max_total_jobs"`
	MinJobSpacing int `yaml:"min_job_spacing"`
	ScanRadius    int `yaml:"scan_radius"`

	MaxHuntJobs    int `yaml:"max_hunt_jobs"`
	MaxFishJobs    int `yaml:"max_fish_jobs"`
	MaxHarvestJobs int `yaml:"max_harvest_jobs"`
	MaxMineJobs    int `yaml:"max_mine_jobs"`
	MaxCookJobs    int `yaml:"max_cook_jobs"`
	MaxBrewJobs    int `yaml:"max_brew_jobs"`
}

// Needs holds the per-channel urgency ladders. Food and drink are per-capita
// (counts divided by max(1, population)); the rest are absolute counts.
type Needs struct {
	FoodCritical  int `yaml:"food_critical"`
	FoodHigh      int `yaml:"food_high"`
	FoodNormal    int `yaml:"food_normal"`
	DrinkCritical int `yaml:"drink_critical"`
	DrinkHigh     int `yaml:"drink_high"`
	DrinkNormal   int `yaml:"drink_normal"`
	WoodCritical  int `yaml:"wood_critical"`
	WoodHigh      int `yaml:"wood_high"`
	WoodNormal    int `yaml:"wood_normal"`
	StoneCritical int `yaml:"stone_critical"`
	StoneHigh     int `yaml:"stone_high"`
	StoneNormal   int `yaml:"stone_normal"`
	OreCritical   int `yaml:"ore_critical"`
	OreHigh       int `yaml:"ore_high"`
	OreNormal     int `yaml:"ore_normal"`
	PlantCritical int `yaml:"plant_critical"`
	PlantHigh     int `yaml:"plant_high"`
	PlantNormal   int `yaml:"plant_normal"`

	// Per-tick survival counters and their trigger/death thresholds.
	HungerCritical     int `yaml:"hunger_critical"`
	HungerDeath        int `yaml:"hunger_death"`
	ThirstCritical     int `yaml:"thirst_critical"`
	ThirstDeath        int `yaml:"thirst_death"`
	DrowsinessCritical int `yaml:"drowsiness_critical"`
}

type Speed struct {
	BaseActionDelay int `yaml:"base_action_delay"`
	MinPercent      int `yaml:"min_percent"`
	MaxPercent      int `yaml:"max_percent"`
}

type Threat struct {
	DetectRadius   int `yaml:"detect_radius"`
	FleeHealthPct  int `yaml:"flee_health_pct"`
	BraveryToFight int `yaml:"bravery_to_fight"`
}

func Load(path string) (Tuning, error) {
	var t Tuning
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t.Defaulted(), nil
}

// Defaulted fills zero fields so tests can construct partial Tuning values.
func (t Tuning) Defaulted() Tuning {
	def := func(v *int, d int) {
		if *v == 0 {
			*v = d
		}
	}
	def(&t.TickRateHz, 10)
	def(&t.AutonomyEveryTicks, 50)
	def(&t.DesignationSweepTicks, 100)

	def(&t.Jobs.MaxCompletedHistory, 100)

	def(&t.Autonomy.MaxTotalJobs, 20)
	def(&t.Autonomy.MinJobSpacing, 3)
	def(&t.Autonomy.ScanRadius, 24)
	def(&t.Autonomy.MaxHuntJobs, 2)
	def(&t.Autonomy.MaxFishJobs, 2)
	def(&t.Autonomy.MaxHarvestJobs, 3)
	def(&t.Autonomy.MaxMineJobs, 3)
	def(&t.Autonomy.MaxCookJobs, 2)
	def(&t.Autonomy.MaxBrewJobs, 2)

	def(&t.Needs.FoodCritical, 1)
	def(&t.Needs.FoodHigh, 3)
	def(&t.Needs.FoodNormal, 6)
	def(&t.Needs.DrinkCritical, 1)
	def(&t.Needs.DrinkHigh, 3)
	def(&t.Needs.DrinkNormal, 6)
	def(&t.Needs.WoodCritical, 5)
	def(&t.Needs.WoodHigh, 15)
	def(&t.Needs.WoodNormal, 30)
	def(&t.Needs.StoneCritical, 5)
	def(&t.Needs.StoneHigh, 15)
	def(&t.Needs.StoneNormal, 30)
	def(&t.Needs.OreCritical, 3)
	def(&t.Needs.OreHigh, 8)
	def(&t.Needs.OreNormal, 15)
	def(&t.Needs.PlantCritical, 4)
	def(&t.Needs.PlantHigh, 10)
	def(&t.Needs.PlantNormal, 20)

	def(&t.Needs.HungerCritical, 800)
	def(&t.Needs.HungerDeath, 2400)
	def(&t.Needs.ThirstCritical, 500)
	def(&t.Needs.ThirstDeath, 1500)
	def(&t.Needs.DrowsinessCritical, 1200)

	def(&t.Speed.BaseActionDelay, 10)
	def(&t.Speed.MinPercent, 50)
	def(&t.Speed.MaxPercent, 200)

	def(&t.Threat.DetectRadius, 8)
	def(&t.Threat.FleeHealthPct, 40)
	def(&t.Threat.BraveryToFight, 40)
	return t
}
