package model

import "github.com/udisondev/railgo/internal/config"

// Train transports goods along lines. Position is an integer on the current
// line; Speed is -1, 0 or +1. GoodsType is 0 while the train is empty,
// otherwise the post type the goods were first loaded at.
type Train struct {
	Idx       int
	LineIdx   int
	Position  int
	Speed     int
	PlayerIdx string
	Level     int

	Goods     int
	GoodsType PostType

	// Level-derived:
	GoodsCapacity   int
	FuelCapacity    int
	FuelConsumption int
	NextLevelPrice  int

	Fuel     int
	Events   []Event
	Cooldown int
}

// NewTrain creates a level-1 train with a full tank.
func NewTrain(idx int, levels map[int]config.TrainLevel) *Train {
	t := &Train{Idx: idx, Level: 1}
	t.applyLevel(levels[t.Level])
	t.Fuel = t.FuelCapacity
	return t
}

func (t *Train) applyLevel(lvl config.TrainLevel) {
	t.GoodsCapacity = lvl.GoodsCapacity
	t.FuelCapacity = lvl.FuelCapacity
	t.FuelConsumption = lvl.FuelConsumption
	t.NextLevelPrice = lvl.NextLevelPrice
}

// SetLevel moves the train to the given level and re-applies the
// level-derived attributes.
func (t *Train) SetLevel(level int, levels map[int]config.TrainLevel) {
	t.Level = level
	t.applyLevel(levels[level])
}
