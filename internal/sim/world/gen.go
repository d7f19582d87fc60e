package world

import "math/rand"

type GenConfig struct {
	Width, Height int
	Seed          int64

	Trees       int
	Shrubs      int
	StonePatch  int // wall tiles per stone patch
	StoneCount  int // number of patches
	OrePerPatch int
	PondRadius  int
}

func (c GenConfig) defaulted() GenConfig {
	def := func(v *int, d int) {
		if *v == 0 {
			*v = d
		}
	}
	def(&c.Width, 64)
	def(&c.Height, 64)
	def(&c.Trees, 40)
	def(&c.Shrubs, 25)
	def(&c.StonePatch, 12)
	def(&c.StoneCount, 4)
	def(&c.OrePerPatch, 3)
	def(&c.PondRadius, 4)
	return c
}

// Generate builds a grid from the seed alone; the same config always yields
// the same map.
func Generate(cfg GenConfig) *Grid {
	cfg = cfg.defaulted()
	g := NewGrid(cfg.Width, cfg.Height)
	rng := rand.New(rand.NewSource(cfg.Seed))

	place := func(kind TileKind) Point {
		for tries := 0; tries < 200; tries++ {
			p := Point{X: rng.Intn(g.W), Y: rng.Intn(g.H)}
			if t, _ := g.GetTile(p); t.Kind == TileGrass {
				g.SetTile(Tile{Kind: kind}, p)
				return p
			}
		}
		return Point{}
	}

	// One pond near a random corner quadrant.
	cx := rng.Intn(g.W/2) + g.W/4
	cy := rng.Intn(g.H/2) + g.H/4
	for y := cy - cfg.PondRadius; y <= cy+cfg.PondRadius; y++ {
		for x := cx - cfg.PondRadius; x <= cx+cfg.PondRadius; x++ {
			p := Point{X: x, Y: y}
			if g.InBounds(p) && Manhattan(p, Point{X: cx, Y: cy}) <= cfg.PondRadius {
				g.SetTile(Tile{Kind: TileWater}, p)
			}
		}
	}

	// Stone patches with embedded ore.
	for i := 0; i < cfg.StoneCount; i++ {
		anchor := place(TileStoneWall)
		placed := 1
		ore := 0
		for tries := 0; placed < cfg.StonePatch && tries < 100; tries++ {
			p := Point{
				X: anchor.X + rng.Intn(7) - 3,
				Y: anchor.Y + rng.Intn(7) - 3,
			}
			if t, ok := g.GetTile(p); ok && t.Kind == TileGrass {
				kind := TileStoneWall
				if ore < cfg.OrePerPatch && rng.Intn(3) == 0 {
					kind = TileOreWall
					ore++
				}
				g.SetTile(Tile{Kind: kind}, p)
				placed++
			}
		}
	}

	for i := 0; i < cfg.Trees; i++ {
		place(TileTree)
	}
	for i := 0; i < cfg.Shrubs; i++ {
		place(TileShrub)
	}
	return g
}
