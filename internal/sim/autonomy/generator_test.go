package autonomy

import (
	"testing"

	"outpost.sim/internal/sim/jobs"
	"outpost.sim/internal/sim/tuning"
	"outpost.sim/internal/sim/world"
)

func autonomyCfg() tuning.Autonomy {
	return tuning.Tuning{}.Defaulted().Autonomy
}

// calmNeeds has every channel satisfied; tests flip individual channels.
func calmNeeds() ColonyNeeds {
	return ColonyNeeds{
		Food:  UrgencyLow,
		Drink: UrgencyLow,
		Wood:  UrgencyLow,
		Stone: UrgencyLow,
		Ore:   UrgencyLow,
		Plant: UrgencyLow,
	}
}

func TestGenerateJobs_BackpressureCap(t *testing.T) {
	cfg := autonomyCfg()
	g := NewGenerator(cfg)
	grid := world.NewGrid(64, 64)
	mgr := jobs.NewManager(100)

	for i := 0; i < cfg.MaxTotalJobs; i++ {
		mgr.CreateJob(jobs.KindHaul, world.Point{X: 60, Y: i}, jobs.PriorityLow, 0, 0)
	}
	grid.SetTile(world.Tile{Kind: world.TileTree}, world.Point{X: 10, Y: 10})

	needs := calmNeeds()
	needs.Wood = UrgencyCritical
	if created := g.GenerateJobs(grid, mgr, needs, nil, world.Point{X: 10, Y: 10}, 0); created != 0 {
		t.Fatalf("created %d jobs past the cap", created)
	}
	if mgr.PendingCount() != cfg.MaxTotalJobs {
		t.Fatalf("pending = %d", mgr.PendingCount())
	}
}

func TestGenerateJobs_SpacingRejectsClusters(t *testing.T) {
	g := NewGenerator(autonomyCfg())
	grid := world.NewGrid(64, 64)
	mgr := jobs.NewManager(100)

	// Two trees one tile apart (inside min spacing of 3), one well away.
	grid.SetTile(world.Tile{Kind: world.TileTree}, world.Point{X: 10, Y: 10})
	grid.SetTile(world.Tile{Kind: world.TileTree}, world.Point{X: 11, Y: 10})
	grid.SetTile(world.Tile{Kind: world.TileTree}, world.Point{X: 25, Y: 10})

	needs := calmNeeds()
	needs.Wood = UrgencyCritical
	created := g.GenerateJobs(grid, mgr, needs, nil, world.Point{X: 12, Y: 10}, 0)
	if created != 2 {
		t.Fatalf("created = %d, want 2 (cluster collapsed to one)", created)
	}
	for _, j := range mgr.PendingJobs() {
		if j.Kind != jobs.KindChopTree {
			t.Fatalf("unexpected kind %s", j.Kind)
		}
	}
}

func TestGenerateJobs_RepeatPassDoesNotStack(t *testing.T) {
	g := NewGenerator(autonomyCfg())
	grid := world.NewGrid(64, 64)
	mgr := jobs.NewManager(100)
	grid.SetTile(world.Tile{Kind: world.TileTree}, world.Point{X: 10, Y: 10})

	needs := calmNeeds()
	needs.Wood = UrgencyCritical
	first := g.GenerateJobs(grid, mgr, needs, nil, world.Point{X: 12, Y: 10}, 0)
	second := g.GenerateJobs(grid, mgr, needs, nil, world.Point{X: 12, Y: 10}, 50)
	if first != 1 || second != 0 {
		t.Fatalf("first=%d second=%d", first, second)
	}
}

func TestGenerateJobs_PurgeAllowsRebooking(t *testing.T) {
	g := NewGenerator(autonomyCfg())
	grid := world.NewGrid(64, 64)
	mgr := jobs.NewManager(100)
	grid.SetTile(world.Tile{Kind: world.TileTree}, world.Point{X: 10, Y: 10})

	needs := calmNeeds()
	needs.Wood = UrgencyCritical
	g.GenerateJobs(grid, mgr, needs, nil, world.Point{X: 12, Y: 10}, 0)
	j := mgr.PendingJobs()[0]
	mgr.CancelJob(j.ID)

	// The tree is still standing; a later pass rebooks it.
	if created := g.GenerateJobs(grid, mgr, needs, nil, world.Point{X: 12, Y: 10}, 50); created != 1 {
		t.Fatalf("rebook created = %d", created)
	}
}

func TestGenerateJobs_FoodPressure(t *testing.T) {
	g := NewGenerator(autonomyCfg())
	grid := world.NewGrid(64, 64)
	mgr := jobs.NewManager(100)

	grid.AddUnit(world.UnitRef{ID: "C1", Kind: "DEER", Pos: world.Point{X: 20, Y: 20}})
	grid.AddUnit(world.UnitRef{ID: "C2", Kind: "WOLF", Pos: world.Point{X: 22, Y: 20}, Hostile: true})
	grid.SetTile(world.Tile{Kind: world.TileWater}, world.Point{X: 10, Y: 30})
	grid.SetTile(world.Tile{Kind: world.TileShrub}, world.Point{X: 30, Y: 10})

	needs := calmNeeds()
	needs.Food = UrgencyCritical
	hostile := map[string]bool{"C2": true}
	created := g.GenerateJobs(grid, mgr, needs, hostile, world.Point{X: 20, Y: 20}, 0)
	if created != 3 {
		t.Fatalf("created = %d, want hunt+fish+harvest", created)
	}

	byKind := map[jobs.Kind]*jobs.Job{}
	for _, j := range mgr.PendingJobs() {
		byKind[j.Kind] = j
	}
	hunt := byKind[jobs.KindHunt]
	if hunt == nil || hunt.TargetUnit != "C1" {
		t.Fatalf("hunt job = %+v", hunt)
	}
	if hunt.Priority != jobs.PriorityHigh {
		t.Fatalf("hunt priority = %d", hunt.Priority)
	}
	fish := byKind[jobs.KindFish]
	if fish == nil || fish.TargetPos == nil || *fish.TargetPos != (world.Point{X: 10, Y: 30}) {
		t.Fatalf("fish job = %+v", fish)
	}
	// The worker stands on land next to the water, never in it.
	if !grid.IsPassable(fish.Pos) {
		t.Fatalf("fish stand pos %v is impassable", fish.Pos)
	}
	if byKind[jobs.KindHarvest] == nil {
		t.Fatal("no harvest job")
	}

	st := g.Stats()
	if st.Hunt != 1 || st.Fish != 1 || st.Harvest != 1 || st.Total != 3 {
		t.Fatalf("stats = %+v", st)
	}
}

func TestGenerateJobs_CookLinksRawMeat(t *testing.T) {
	cfg := autonomyCfg()
	g := NewGenerator(cfg)
	grid := world.NewGrid(64, 64)
	mgr := jobs.NewManager(100)

	// Three carcasses, spread past min spacing; the cook cap is two.
	grid.AddItem(world.ItemRawMeat, world.Point{X: 10, Y: 10})
	grid.AddItem(world.ItemRawMeat, world.Point{X: 20, Y: 10})
	grid.AddItem(world.ItemRawMeat, world.Point{X: 30, Y: 10})

	created := g.GenerateJobs(grid, mgr, calmNeeds(), nil, world.Point{X: 20, Y: 10}, 0)
	if created != cfg.MaxCookJobs {
		t.Fatalf("created = %d, want %d", created, cfg.MaxCookJobs)
	}
	for _, j := range mgr.PendingJobs() {
		if j.Kind != jobs.KindCook {
			t.Fatalf("unexpected kind %s", j.Kind)
		}
		it := grid.Item(j.TargetItem)
		if it == nil || it.Kind != world.ItemRawMeat {
			t.Fatalf("cook job target = %+v", it)
		}
		if j.ResultItem != world.ItemMeal {
			t.Fatalf("cook result = %s", j.ResultItem)
		}
	}
}

func TestGenerateJobs_BrewNeedsTwoPlants(t *testing.T) {
	g := NewGenerator(autonomyCfg())
	grid := world.NewGrid(64, 64)
	mgr := jobs.NewManager(100)
	grid.AddItem(world.ItemPlant, world.Point{X: 10, Y: 10})

	needs := calmNeeds()
	needs.Drink = UrgencyHigh
	if created := g.GenerateJobs(grid, mgr, needs, nil, world.Point{X: 10, Y: 10}, 0); created != 0 {
		t.Fatalf("brewed with one plant: created=%d", created)
	}

	grid.AddItem(world.ItemPlant, world.Point{X: 12, Y: 10})
	created := g.GenerateJobs(grid, mgr, needs, nil, world.Point{X: 10, Y: 10}, 50)
	if created != 1 {
		t.Fatalf("created = %d", created)
	}
	j := mgr.PendingJobs()[0]
	if j.Kind != jobs.KindBrew || j.ResultItem != world.ItemDrink || j.TargetItem == "" {
		t.Fatalf("brew job = %+v", j)
	}
}

func TestGenerateJobs_OrePreferredUnderOrePressure(t *testing.T) {
	g := NewGenerator(autonomyCfg())
	grid := world.NewGrid(64, 64)
	mgr := jobs.NewManager(100)

	// Stone closer to center than ore; ore pressure should still rank it first.
	grid.SetTile(world.Tile{Kind: world.TileStoneWall}, world.Point{X: 12, Y: 10})
	grid.SetTile(world.Tile{Kind: world.TileOreWall}, world.Point{X: 20, Y: 10})

	needs := calmNeeds()
	needs.Ore = UrgencyCritical
	created := g.GenerateJobs(grid, mgr, needs, nil, world.Point{X: 10, Y: 10}, 0)
	if created < 1 {
		t.Fatalf("created = %d", created)
	}

	var oreJob *jobs.Job
	for _, j := range mgr.PendingJobs() {
		if j.TargetPos != nil && *j.TargetPos == (world.Point{X: 20, Y: 10}) {
			oreJob = j
		}
	}
	if oreJob == nil {
		t.Fatal("ore wall not booked")
	}
	if oreJob.Priority != jobs.PriorityHigh {
		t.Fatalf("ore job priority = %d", oreJob.Priority)
	}
}
