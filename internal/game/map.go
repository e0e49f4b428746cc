package game

import (
	"sort"

	"github.com/udisondev/railgo/internal/config"
	"github.com/udisondev/railgo/internal/mapdata"
	"github.com/udisondev/railgo/internal/model"
)

// Rating is one row of the per-game rating table, keyed by player id on
// map layer 1.
type Rating struct {
	Idx    string `json:"idx"`
	Name   string `json:"name"`
	Rating int    `json:"rating"`
}

// Map is one game's materialized snapshot of a map definition. All entities
// refer to each other by integer id through these tables; there is no
// cyclic ownership.
type Map struct {
	Idx         int
	Name        string
	Size        [2]int
	Points      map[int]*model.Point
	Lines       map[int]*model.Line
	Posts       map[int]*model.Post
	Coordinates map[int]model.Coordinate
	Trains      map[int]*model.Train
	Ratings     map[string]*Rating

	towns    []*model.Post
	markets  []*model.Post
	storages []*model.Post
}

// newMap materializes the definition: points and lines get 1-based ids in
// definition order, posts likewise.
func newMap(def *mapdata.Definition, idx int, rules *config.Game) *Map {
	m := &Map{
		Idx:         idx,
		Name:        def.Name,
		Size:        def.Size,
		Points:      make(map[int]*model.Point, len(def.Points)),
		Lines:       make(map[int]*model.Line, len(def.Lines)),
		Posts:       make(map[int]*model.Post, len(def.Posts)),
		Coordinates: make(map[int]model.Coordinate, len(def.Points)),
		Trains:      make(map[int]*model.Train),
		Ratings:     make(map[string]*Rating),
	}

	for i, xy := range def.Points {
		id := i + 1
		m.Points[id] = &model.Point{Idx: id}
		m.Coordinates[id] = model.Coordinate{Idx: id, X: xy[0], Y: xy[1]}
	}

	for i, pd := range def.Posts {
		id := i + 1
		var post *model.Post
		switch model.PostType(pd.Type) {
		case model.PostTown:
			post = model.NewTown(id, pd.Name, pd.Point, pd.Population, pd.Product, pd.Armor, rules.TownLevels)
			m.towns = append(m.towns, post)
		case model.PostMarket:
			post = model.NewMarket(id, pd.Name, pd.Point, pd.Product, pd.ReplenishmentOrDefault())
			m.markets = append(m.markets, post)
		case model.PostStorage:
			post = model.NewStorage(id, pd.Name, pd.Point, pd.Armor, pd.ReplenishmentOrDefault())
			m.storages = append(m.storages, post)
		}
		m.Posts[id] = post
		m.Points[pd.Point].PostIdx = id
	}

	for i, ld := range def.Lines {
		id := i + 1
		m.Lines[id] = &model.Line{Idx: id, Length: ld[0], Points: [2]int{ld[1], ld[2]}}
	}

	return m
}

// AddTrain registers the train in the map's train table.
func (m *Map) AddTrain(t *model.Train) {
	m.Trains[t.Idx] = t
}

// homeLine returns the lowest-id line incident to the point. Trains placed
// into a town always start on it.
func (m *Map) homeLine(pointIdx int) *model.Line {
	var best *model.Line
	for _, line := range m.Lines {
		if !line.HasPoint(pointIdx) {
			continue
		}
		if best == nil || line.Idx < best.Idx {
			best = line
		}
	}
	return best
}

func (m *Map) sortedTrains() []*model.Train {
	trains := make([]*model.Train, 0, len(m.Trains))
	for _, t := range m.Trains {
		trains = append(trains, t)
	}
	sort.Slice(trains, func(i, j int) bool { return trains[i].Idx < trains[j].Idx })
	return trains
}

func (m *Map) sortedPosts() []*model.Post {
	posts := make([]*model.Post, 0, len(m.Posts))
	for _, p := range m.Posts {
		posts = append(posts, p)
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].Idx < posts[j].Idx })
	return posts
}

func (m *Map) sortedPoints() []*model.Point {
	points := make([]*model.Point, 0, len(m.Points))
	for _, p := range m.Points {
		points = append(points, p)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Idx < points[j].Idx })
	return points
}

func (m *Map) sortedLines() []*model.Line {
	lines := make([]*model.Line, 0, len(m.Lines))
	for _, l := range m.Lines {
		lines = append(lines, l)
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].Idx < lines[j].Idx })
	return lines
}
