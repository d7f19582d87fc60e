package world

import "testing"

func TestGenerate_SameSeedSameMap(t *testing.T) {
	a := Generate(GenConfig{Seed: 42})
	b := Generate(GenConfig{Seed: 42})

	if a.W != b.W || a.H != b.H {
		t.Fatalf("dims differ: %dx%d vs %dx%d", a.W, a.H, b.W, b.H)
	}
	for y := 0; y < a.H; y++ {
		for x := 0; x < a.W; x++ {
			p := Point{X: x, Y: y}
			ta, _ := a.GetTile(p)
			tb, _ := b.GetTile(p)
			if ta.Kind != tb.Kind {
				t.Fatalf("tile %v differs: %s vs %s", p, ta.Kind, tb.Kind)
			}
		}
	}
}

func TestGenerate_DifferentSeedDiffers(t *testing.T) {
	a := Generate(GenConfig{Seed: 1})
	b := Generate(GenConfig{Seed: 2})
	for y := 0; y < a.H; y++ {
		for x := 0; x < a.W; x++ {
			p := Point{X: x, Y: y}
			ta, _ := a.GetTile(p)
			tb, _ := b.GetTile(p)
			if ta.Kind != tb.Kind {
				return
			}
		}
	}
	t.Fatal("seeds 1 and 2 produced identical maps")
}

func TestGenerate_HasExpectedFeatures(t *testing.T) {
	g := Generate(GenConfig{Seed: 7})
	counts := map[TileKind]int{}
	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			tl, _ := g.GetTile(Point{X: x, Y: y})
			counts[tl.Kind]++
		}
	}
	if counts[TileWater] == 0 {
		t.Fatal("no pond generated")
	}
	if counts[TileTree] == 0 || counts[TileShrub] == 0 {
		t.Fatalf("no vegetation: trees=%d shrubs=%d", counts[TileTree], counts[TileShrub])
	}
	if counts[TileStoneWall] == 0 {
		t.Fatal("no stone patches generated")
	}
}
