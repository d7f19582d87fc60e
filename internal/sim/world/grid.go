package world

import (
	"fmt"
	"sort"
	"sync/atomic"
)

// Grid is the authoritative tile/item/unit store. All access happens from the
// colony loop goroutine; there is no internal locking.
type Grid struct {
	W, H  int
	tiles []Tile

	items   map[string]*Item
	itemIDs []string // creation order, kept sorted-stable for determinism

	units   map[string]*UnitRef
	unitIDs []string

	nextItemNum atomic.Uint64
}

func NewGrid(w, h int) *Grid {
	g := &Grid{
		W:     w,
		H:     h,
		tiles: make([]Tile, w*h),
		items: map[string]*Item{},
		units: map[string]*UnitRef{},
	}
	for i := range g.tiles {
		g.tiles[i] = Tile{Kind: TileGrass}
	}
	return g
}

func (g *Grid) InBounds(p Point) bool {
	return p.X >= 0 && p.X < g.W && p.Y >= 0 && p.Y < g.H
}

func (g *Grid) GetTile(p Point) (Tile, bool) {
	if !g.InBounds(p) {
		return Tile{}, false
	}
	return g.tiles[p.Y*g.W+p.X], true
}

func (g *Grid) SetTile(t Tile, p Point) {
	if !g.InBounds(p) {
		return
	}
	g.tiles[p.Y*g.W+p.X] = t
}

func (g *Grid) IsPassable(p Point) bool {
	t, ok := g.GetTile(p)
	return ok && t.Walkable()
}

// MineTile converts a wall tile to floor and returns the yielded item, if any.
func (g *Grid) MineTile(p Point) *Item {
	t, ok := g.GetTile(p)
	if !ok {
		return nil
	}
	var yield ItemKind
	switch t.Kind {
	case TileStoneWall:
		yield = ItemStone
	case TileOreWall:
		yield = ItemOre
	default:
		return nil
	}
	g.SetTile(Tile{Kind: TileFloor}, p)
	return g.AddItem(yield, p)
}

func (g *Grid) AddItem(kind ItemKind, p Point) *Item {
	id := fmt.Sprintf("I%d", g.nextItemNum.Add(1))
	it := &Item{ID: id, Kind: kind, Pos: p}
	g.items[id] = it
	g.itemIDs = append(g.itemIDs, id)
	return it
}

func (g *Grid) RemoveItem(id string) bool {
	if _, ok := g.items[id]; !ok {
		return false
	}
	delete(g.items, id)
	for i, iid := range g.itemIDs {
		if iid == id {
			g.itemIDs = append(g.itemIDs[:i], g.itemIDs[i+1:]...)
			break
		}
	}
	return true
}

func (g *Grid) Item(id string) *Item { return g.items[id] }

func (g *Grid) GetItems(p Point) []*Item {
	var out []*Item
	for _, id := range g.itemIDs {
		if it := g.items[id]; it != nil && it.Pos == p {
			out = append(out, it)
		}
	}
	return out
}

// ItemsByKind returns items of one kind in creation order.
func (g *Grid) ItemsByKind(kind ItemKind) []*Item {
	var out []*Item
	for _, id := range g.itemIDs {
		if it := g.items[id]; it != nil && it.Kind == kind {
			out = append(out, it)
		}
	}
	return out
}

func (g *Grid) CountItems(kind ItemKind) int {
	n := 0
	for _, it := range g.items {
		if it.Kind == kind {
			n++
		}
	}
	return n
}

// FindNearestItem returns the closest item of the given kind by Manhattan
// distance, ties broken by creation order.
func (g *Grid) FindNearestItem(kind ItemKind, from Point) *Item {
	var best *Item
	bestD := 0
	for _, id := range g.itemIDs {
		it := g.items[id]
		if it == nil || it.Kind != kind {
			continue
		}
		d := Manhattan(from, it.Pos)
		if best == nil || d < bestD {
			best = it
			bestD = d
		}
	}
	return best
}

func (g *Grid) AddUnit(u UnitRef) {
	if _, ok := g.units[u.ID]; !ok {
		g.unitIDs = append(g.unitIDs, u.ID)
	}
	cp := u
	g.units[u.ID] = &cp
}

func (g *Grid) UpdateUnit(u UnitRef) { g.AddUnit(u) }

func (g *Grid) RemoveUnit(id string) {
	if _, ok := g.units[id]; !ok {
		return
	}
	delete(g.units, id)
	for i, uid := range g.unitIDs {
		if uid == id {
			g.unitIDs = append(g.unitIDs[:i], g.unitIDs[i+1:]...)
			break
		}
	}
}

func (g *Grid) Unit(id string) *UnitRef { return g.units[id] }

// Units returns all unit records sorted by id for deterministic iteration.
func (g *Grid) Units() []UnitRef {
	out := make([]UnitRef, 0, len(g.units))
	for _, id := range g.unitIDs {
		if u := g.units[id]; u != nil {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (g *Grid) GetUnitsInRange(center Point, radius int) []UnitRef {
	var out []UnitRef
	for _, u := range g.Units() {
		if Manhattan(center, u.Pos) <= radius {
			out = append(out, u)
		}
	}
	return out
}

// FindPath runs a 4-neighbour BFS from -> to over walkable tiles. The returned
// path excludes the start and ends at the destination; nil means unreachable.
// Neighbour expansion order is fixed so equal-length paths resolve identically.
func (g *Grid) FindPath(from, to Point) []Point {
	if from == to {
		return []Point{}
	}
	if !g.InBounds(from) || !g.IsPassable(to) {
		return nil
	}
	prev := map[Point]Point{}
	seen := map[Point]bool{from: true}
	queue := []Point{from}
	dirs := [4]Point{{0, -1}, {1, 0}, {0, 1}, {-1, 0}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, d := range dirs {
			next := Point{X: cur.X + d.X, Y: cur.Y + d.Y}
			if seen[next] || !g.IsPassable(next) {
				continue
			}
			seen[next] = true
			prev[next] = cur
			if next == to {
				return reconstruct(prev, from, to)
			}
			queue = append(queue, next)
		}
	}
	return nil
}

func reconstruct(prev map[Point]Point, from, to Point) []Point {
	var rev []Point
	for p := to; p != from; p = prev[p] {
		rev = append(rev, p)
	}
	out := make([]Point, 0, len(rev))
	for i := len(rev) - 1; i >= 0; i-- {
		out = append(out, rev[i])
	}
	return out
}

// FindNearestTile returns the closest tile of the given kind within radius,
// scanning rings outward so the first hit is the nearest.
func (g *Grid) FindNearestTile(kind TileKind, from Point, radius int) (Point, bool) {
	for r := 0; r <= radius; r++ {
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				if absInt(dx)+absInt(dy) != r {
					continue
				}
				p := Point{X: from.X + dx, Y: from.Y + dy}
				if t, ok := g.GetTile(p); ok && t.Kind == kind {
					return p, true
				}
			}
		}
	}
	return Point{}, false
}

// AdjacentPassable returns the first walkable 4-neighbour of p, scanning in
// the same fixed order as pathfinding.
func (g *Grid) AdjacentPassable(p Point) (Point, bool) {
	dirs := [4]Point{{0, -1}, {1, 0}, {0, 1}, {-1, 0}}
	for _, d := range dirs {
		n := Point{X: p.X + d.X, Y: p.Y + d.Y}
		if g.IsPassable(n) {
			return n, true
		}
	}
	return Point{}, false
}
