package mapdata

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Definition is the parsed form of one map file:
//
//	name: map02
//	size: [330, 248]
//	points: [[10, 10], [60, 10], ...]
//	posts:
//	  - {point: 1, name: town-one, type: 1, population: 3, product: 60, armor: 100}
//	  - {point: 3, name: market-big, type: 2, product: 120, replenishment: 5}
//	lines: [[10, 1, 2], [10, 2, 3], ...]
//
// Point references in posts and lines are 1-based indexes into points.
type Definition struct {
	Name   string    `yaml:"name"`
	Size   [2]int    `yaml:"size"`
	Points [][2]int  `yaml:"points"`
	Posts  []PostDef `yaml:"posts"`
	Lines  [][3]int  `yaml:"lines"`
}

// PostDef describes one post. Replenishment is a pointer to distinguish
// "absent" (defaults to 1) from an explicit zero.
type PostDef struct {
	Point         int    `yaml:"point"`
	Name          string `yaml:"name"`
	Type          int    `yaml:"type"`
	Population    int    `yaml:"population"`
	Armor         int    `yaml:"armor"`
	Product       int    `yaml:"product"`
	Replenishment *int   `yaml:"replenishment"`
}

// ReplenishmentOrDefault returns the configured replenishment rate, 1 if unset.
func (p PostDef) ReplenishmentOrDefault() int {
	if p.Replenishment == nil {
		return 1
	}
	return *p.Replenishment
}

// Parse decodes and validates one map definition.
func Parse(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parsing map definition: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// Validate checks structural integrity of the definition.
func (d *Definition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("map definition has no name")
	}
	if len(d.Points) == 0 {
		return fmt.Errorf("map %q has no points", d.Name)
	}
	usedPoints := make(map[int]bool, len(d.Posts))
	for i, post := range d.Posts {
		if post.Point < 1 || post.Point > len(d.Points) {
			return fmt.Errorf("map %q: post %d references point %d, have %d points",
				d.Name, i+1, post.Point, len(d.Points))
		}
		if usedPoints[post.Point] {
			return fmt.Errorf("map %q: point %d carries more than one post", d.Name, post.Point)
		}
		usedPoints[post.Point] = true
		if post.Type < 1 || post.Type > 3 {
			return fmt.Errorf("map %q: post %q has unknown type %d", d.Name, post.Name, post.Type)
		}
	}
	for i, line := range d.Lines {
		length, p0, p1 := line[0], line[1], line[2]
		if length < 1 {
			return fmt.Errorf("map %q: line %d has length %d, want >= 1", d.Name, i+1, length)
		}
		if p0 < 1 || p0 > len(d.Points) || p1 < 1 || p1 > len(d.Points) {
			return fmt.Errorf("map %q: line %d references points (%d, %d), have %d points",
				d.Name, i+1, p0, p1, len(d.Points))
		}
	}
	return nil
}

// TownCount returns the number of town posts; it bounds num_players at game
// creation.
func (d *Definition) TownCount() int {
	n := 0
	for _, p := range d.Posts {
		if p.Type == 1 {
			n++
		}
	}
	return n
}
