package game

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/udisondev/railgo/internal/model"
	"github.com/udisondev/railgo/internal/protocol"
)

// Wire views. The python-era clients expect "present null" for values that
// exist but are empty (goods_type of an empty train, next_level_price at max
// level), so those fields are pointers without omitempty.

type pointView struct {
	Idx     int  `json:"idx"`
	PostIdx *int `json:"post_idx"`
}

type lineView struct {
	Idx    int    `json:"idx"`
	Length int    `json:"length"`
	Points [2]int `json:"points"`
}

type trainView struct {
	Idx             int           `json:"idx"`
	LineIdx         int           `json:"line_idx"`
	Position        int           `json:"position"`
	Speed           int           `json:"speed"`
	PlayerIdx       string        `json:"player_idx"`
	Level           int           `json:"level"`
	GoodsCapacity   int           `json:"goods_capacity"`
	Fuel            int           `json:"fuel"`
	FuelCapacity    int           `json:"fuel_capacity"`
	FuelConsumption int           `json:"fuel_consumption"`
	NextLevelPrice  *int          `json:"next_level_price"`
	Goods           int           `json:"goods"`
	GoodsType       *int          `json:"goods_type"`
	Events          []model.Event `json:"events"`
	Cooldown        int           `json:"cooldown"`
}

type townView struct {
	Idx                int           `json:"idx"`
	Name               string        `json:"name"`
	Type               int           `json:"type"`
	PointIdx           int           `json:"point_idx"`
	Events             []model.Event `json:"events"`
	Level              int           `json:"level"`
	Population         int           `json:"population"`
	Product            int           `json:"product"`
	Armor              int           `json:"armor"`
	PlayerIdx          *string       `json:"player_idx"`
	PopulationCapacity int           `json:"population_capacity"`
	ProductCapacity    int           `json:"product_capacity"`
	ArmorCapacity      int           `json:"armor_capacity"`
	TrainCooldown      int           `json:"train_cooldown"`
	NextLevelPrice     *int          `json:"next_level_price"`
}

type marketView struct {
	Idx             int           `json:"idx"`
	Name            string        `json:"name"`
	Type            int           `json:"type"`
	PointIdx        int           `json:"point_idx"`
	Events          []model.Event `json:"events"`
	Product         int           `json:"product"`
	ProductCapacity int           `json:"product_capacity"`
	Replenishment   int           `json:"replenishment"`
}

type storageView struct {
	Idx           int           `json:"idx"`
	Name          string        `json:"name"`
	Type          int           `json:"type"`
	PointIdx      int           `json:"point_idx"`
	Events        []model.Event `json:"events"`
	Armor         int           `json:"armor"`
	ArmorCapacity int           `json:"armor_capacity"`
	Replenishment int           `json:"replenishment"`
}

type playerView struct {
	Idx    string      `json:"idx"`
	Name   string      `json:"name"`
	Rating int         `json:"rating"`
	Home   pointView   `json:"home"`
	Town   interface{} `json:"town"`
	Trains []trainView `json:"trains"`
	InGame bool        `json:"in_game"`
}

type layer0View struct {
	Idx    int         `json:"idx"`
	Name   string      `json:"name"`
	Points []pointView `json:"points"`
	Lines  []lineView  `json:"lines"`
}

type layer1View struct {
	Idx     int                `json:"idx"`
	Posts   []interface{}      `json:"posts"`
	Trains  []trainView        `json:"trains"`
	Ratings map[string]*Rating `json:"ratings"`
}

type layer10View struct {
	Idx         int                `json:"idx"`
	Size        [2]int             `json:"size"`
	Coordinates []model.Coordinate `json:"coordinates"`
}

func eventsView(events []model.Event) []model.Event {
	if events == nil {
		return []model.Event{}
	}
	return events
}

func (g *Game) trainView(t *model.Train) trainView {
	v := trainView{
		Idx:             t.Idx,
		LineIdx:         t.LineIdx,
		Position:        t.Position,
		Speed:           t.Speed,
		PlayerIdx:       t.PlayerIdx,
		Level:           t.Level,
		GoodsCapacity:   t.GoodsCapacity,
		Fuel:            t.Fuel,
		FuelCapacity:    t.FuelCapacity,
		FuelConsumption: t.FuelConsumption,
		Goods:           t.Goods,
		Events:          eventsView(t.Events),
		Cooldown:        t.Cooldown,
	}
	if _, ok := g.rules.TrainLevels[t.Level+1]; ok {
		price := t.NextLevelPrice
		v.NextLevelPrice = &price
	}
	if t.GoodsType != 0 {
		gt := int(t.GoodsType)
		v.GoodsType = &gt
	}
	return v
}

func (g *Game) postView(p *model.Post) interface{} {
	switch p.Type {
	case model.PostTown:
		v := townView{
			Idx:                p.Idx,
			Name:               p.Name,
			Type:               int(p.Type),
			PointIdx:           p.PointIdx,
			Events:             eventsView(p.Events),
			Level:              p.Level,
			Population:         p.Population,
			Product:            p.Product,
			Armor:              p.Armor,
			PopulationCapacity: p.PopulationCapacity,
			ProductCapacity:    p.ProductCapacity,
			ArmorCapacity:      p.ArmorCapacity,
			TrainCooldown:      p.TrainCooldown,
		}
		if p.PlayerIdx != "" {
			owner := p.PlayerIdx
			v.PlayerIdx = &owner
		}
		if _, ok := g.rules.TownLevels[p.Level+1]; ok {
			price := p.NextLevelPrice
			v.NextLevelPrice = &price
		}
		return v
	case model.PostMarket:
		return marketView{
			Idx:             p.Idx,
			Name:            p.Name,
			Type:            int(p.Type),
			PointIdx:        p.PointIdx,
			Events:          eventsView(p.Events),
			Product:         p.Product,
			ProductCapacity: p.ProductCapacity,
			Replenishment:   p.Replenishment,
		}
	default:
		return storageView{
			Idx:           p.Idx,
			Name:          p.Name,
			Type:          int(p.Type),
			PointIdx:      p.PointIdx,
			Events:        eventsView(p.Events),
			Armor:         p.Armor,
			ArmorCapacity: p.ArmorCapacity,
			Replenishment: p.Replenishment,
		}
	}
}

func (g *Game) pointView(p *model.Point) pointView {
	v := pointView{Idx: p.Idx}
	if p.PostIdx != 0 {
		post := p.PostIdx
		v.PostIdx = &post
	}
	return v
}

// PlayerView renders the LOGIN/PLAYER response for the given player.
func (g *Game) PlayerView(player *model.Player) ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.playerViewLocked(player)
}

func (g *Game) playerViewLocked(player *model.Player) ([]byte, error) {
	v := playerView{
		Idx:    player.Idx,
		Name:   player.Name,
		Rating: player.Rating,
		Home:   g.pointView(player.Home),
		Town:   g.postView(player.Town),
		Trains: make([]trainView, 0, len(player.Trains)),
		InGame: player.InGame,
	}
	for _, t := range g.m.sortedTrains() {
		if t.PlayerIdx == player.Idx {
			v.Trains = append(v.Trains, g.trainView(t))
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding player view: %w", err)
	}
	return data, nil
}

// Layer renders a map layer. Layer 0 is static topology, layer 1 the
// dynamic posts/trains/ratings, layer 10 the coordinates. Reading layer 1
// consumes the player's pending event messages; observers keep them.
func (g *Game) Layer(player *model.Player, layer int) ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	known := layer == 0 || layer == 1 || layer == 10
	if !known || (g.rules.LayerHidden(layer) && !g.observed) {
		return nil, protocol.ResourceNotFoundf("Map layer not found, layer: %d", layer)
	}
	slog.Debug("load game map layer", "game", g.name, "layer", layer)

	var view interface{}
	switch layer {
	case 0:
		v := layer0View{Idx: g.m.Idx, Name: g.m.Name}
		for _, p := range g.m.sortedPoints() {
			v.Points = append(v.Points, g.pointView(p))
		}
		for _, l := range g.m.sortedLines() {
			v.Lines = append(v.Lines, lineView{Idx: l.Idx, Length: l.Length, Points: l.Points})
		}
		view = v
	case 1:
		v := layer1View{Idx: g.m.Idx, Ratings: g.m.Ratings}
		for _, p := range g.m.sortedPosts() {
			v.Posts = append(v.Posts, g.postView(p))
		}
		for _, t := range g.m.sortedTrains() {
			v.Trains = append(v.Trains, g.trainView(t))
		}
		view = v
	case 10:
		v := layer10View{Idx: g.m.Idx, Size: g.m.Size}
		for _, p := range g.m.sortedPoints() {
			v.Coordinates = append(v.Coordinates, g.m.Coordinates[p.Idx])
		}
		view = v
	}

	data, err := json.Marshal(view)
	if err != nil {
		return nil, fmt.Errorf("encoding map layer %d: %w", layer, err)
	}

	if layer == 1 && !g.observed && player != nil {
		g.cleanPlayerEvents(player)
	}
	return data, nil
}

// cleanPlayerEvents drops delivered event messages: the player's trains and
// town. Events are read-once on map layer 1.
func (g *Game) cleanPlayerEvents(player *model.Player) {
	for _, t := range player.Trains {
		t.Events = nil
	}
	player.Town.Events = nil
}
