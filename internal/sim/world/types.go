package world

// Point is a 2D tile coordinate.
type Point struct{ X, Y int }

func (p Point) ToArray() [2]int { return [2]int{p.X, p.Y} }

func Manhattan(a, b Point) int {
	return absInt(a.X-b.X) + absInt(a.Y-b.Y)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

type TileKind string

const (
	TileGrass     TileKind = "GRASS"
	TileDirt      TileKind = "DIRT"
	TileFloor     TileKind = "FLOOR"
	TileStoneWall TileKind = "STONE_WALL"
	TileOreWall   TileKind = "ORE_WALL"
	TileTree      TileKind = "TREE"
	TileShrub     TileKind = "SHRUB"
	TileWater     TileKind = "WATER"
	TileWorkshop  TileKind = "WORKSHOP"
	TileBed       TileKind = "BED"
	TileStockpile TileKind = "STOCKPILE"
)

type Tile struct {
	Kind TileKind
}

func (t Tile) Walkable() bool {
	switch t.Kind {
	case TileStoneWall, TileOreWall, TileTree, TileWater:
		return false
	default:
		return true
	}
}

type ItemKind string

const (
	ItemWood    ItemKind = "WOOD"
	ItemStone   ItemKind = "STONE"
	ItemOre     ItemKind = "ORE"
	ItemPlant   ItemKind = "PLANT"
	ItemRawMeat ItemKind = "RAW_MEAT"
	ItemRawFish ItemKind = "RAW_FISH"
	ItemMeal    ItemKind = "MEAL"
	ItemDrink   ItemKind = "DRINK"
	ItemSeed    ItemKind = "SEED"
)

type Item struct {
	ID   string
	Kind ItemKind
	Pos  Point
}

// UnitRef is the world-side record of a unit: position, kind and the health
// fields threat/hunt checks need. The colony loop keeps it in sync with the
// full agent state after every step.
type UnitRef struct {
	ID       string
	Kind     string // creature kind, e.g. COLONIST, DEER, WOLF, GOBLIN
	Pos      Point
	HP       int
	MaxHP    int
	Dead     bool
	Colonist bool
	Hostile  bool
}
