package model

import "github.com/udisondev/railgo/internal/config"

// Player is a participant of one game. The identity (id, name, password)
// persists in the players table across games; everything else is per-game
// state. Credentials never live on this struct so they cannot leak through
// serialization.
type Player struct {
	Idx    string
	Name   string
	Rating int

	Trains map[int]*Train
	Home   *Point // home point of the player's town
	Town   *Post

	InGame     bool
	TurnCalled bool
}

// NewPlayer creates a player with no game state attached yet.
func NewPlayer(idx, name string) *Player {
	return &Player{
		Idx:    idx,
		Name:   name,
		Trains: make(map[int]*Train),
	}
}

// AddTrain attaches a train to the player.
func (p *Player) AddTrain(t *Train) {
	t.PlayerIdx = p.Idx
	p.Trains[t.Idx] = t
}

// SetHome assigns the town and its point to the player.
func (p *Player) SetHome(point *Point, town *Post) {
	town.PlayerIdx = p.Idx
	p.Home = point
	p.Town = town
}

// RecalculateRating updates and returns the player's rating:
// population*1000 + product + armor + 2 * sum of level-up prices already
// paid for the player's trains and town.
func (p *Player) RecalculateRating(rules *config.Game) int {
	rating := p.Town.Population * 1000
	rating += p.Town.Product + p.Town.Armor

	paid := 0
	for _, t := range p.Trains {
		for lvl := 1; lvl < t.Level; lvl++ {
			paid += rules.TrainLevels[lvl].NextLevelPrice
		}
	}
	for lvl := 1; lvl < p.Town.Level; lvl++ {
		paid += rules.TownLevels[lvl].NextLevelPrice
	}
	rating += paid * 2

	p.Rating = rating
	return rating
}
