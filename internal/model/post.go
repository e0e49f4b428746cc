package model

import "github.com/udisondev/railgo/internal/config"

// PostType tags the Post union.
// TOWN - population lives here, eats product, uses armor for defense and evolution.
// MARKET - provides trains with the product resource.
// STORAGE - provides trains with the armor resource.
type PostType int

const (
	PostTown    PostType = 1
	PostMarket  PostType = 2
	PostStorage PostType = 3
)

func (t PostType) String() string {
	switch t {
	case PostTown:
		return "TOWN"
	case PostMarket:
		return "MARKET"
	case PostStorage:
		return "STORAGE"
	default:
		return "UNKNOWN"
	}
}

// Post is a dynamic object residing at a point. It is a tagged union over
// {Town, Market, Storage}: which fields are meaningful depends on Type.
type Post struct {
	Idx      int
	Name     string
	Type     PostType
	PointIdx int
	Events   []Event

	// Town only:
	Level      int
	Population int
	PlayerIdx  string // owner, "" until a player takes the town as home

	// Town and Market:
	Product int
	// Town and Storage:
	Armor int

	// Level-derived (town) or fixed at creation (market/storage):
	PopulationCapacity int
	ProductCapacity    int
	ArmorCapacity      int
	TrainCooldown      int
	NextLevelPrice     int

	// Market and Storage:
	Replenishment int
}

// NewTown creates a level-1 town with level-derived capacities applied.
func NewTown(idx int, name string, pointIdx, population, product, armor int, levels map[int]config.TownLevel) *Post {
	p := &Post{
		Idx:        idx,
		Name:       name,
		Type:       PostTown,
		PointIdx:   pointIdx,
		Level:      1,
		Population: population,
		Product:    product,
		Armor:      armor,
	}
	p.applyTownLevel(levels[p.Level])
	return p
}

// NewMarket creates a market filled to capacity.
func NewMarket(idx int, name string, pointIdx, product, replenishment int) *Post {
	return &Post{
		Idx:             idx,
		Name:            name,
		Type:            PostMarket,
		PointIdx:        pointIdx,
		Product:         product,
		ProductCapacity: product,
		Replenishment:   replenishment,
	}
}

// NewStorage creates a storage filled to capacity.
func NewStorage(idx int, name string, pointIdx, armor, replenishment int) *Post {
	return &Post{
		Idx:           idx,
		Name:          name,
		Type:          PostStorage,
		PointIdx:      pointIdx,
		Armor:         armor,
		ArmorCapacity: armor,
		Replenishment: replenishment,
	}
}

func (p *Post) applyTownLevel(lvl config.TownLevel) {
	p.PopulationCapacity = lvl.PopulationCapacity
	p.ProductCapacity = lvl.ProductCapacity
	p.ArmorCapacity = lvl.ArmorCapacity
	p.TrainCooldown = lvl.TrainCooldown
	p.NextLevelPrice = lvl.NextLevelPrice
}

// SetLevel moves the town to the given level and re-applies the
// level-derived capacities.
func (p *Post) SetLevel(level int, levels map[int]config.TownLevel) {
	p.Level = level
	p.applyTownLevel(levels[level])
}
