package game

import (
	"context"
	"sort"
	"sync"

	"github.com/udisondev/railgo/internal/config"
	"github.com/udisondev/railgo/internal/mapdata"
)

// Registry tracks the live games by name. Finished games unregister
// themselves through the OnFinish hook.
type Registry struct {
	mu    sync.Mutex
	games map[string]*Game

	rules *config.Game
	maps  *mapdata.Store
	rec   ActionRecorder
	store GameStore
}

// NewRegistry creates an empty registry sharing the rules, map store and
// persistence across games.
func NewRegistry(rules *config.Game, maps *mapdata.Store, rec ActionRecorder, store GameStore) *Registry {
	return &Registry{
		games: make(map[string]*Game),
		rules: rules,
		maps:  maps,
		rec:   rec,
		store: store,
	}
}

// Open returns the named live game, creating it when absent. numPlayers and
// numTurns apply on creation only; <= 0 picks the configured defaults.
func (r *Registry) Open(ctx context.Context, name string, numPlayers, numTurns int) (*Game, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if g, ok := r.games[name]; ok {
		return g, false, nil
	}

	if numPlayers <= 0 {
		numPlayers = r.rules.DefaultNumPlayers
	}
	if numTurns == 0 {
		numTurns = r.rules.DefaultNumTurns
	}
	g, err := New(ctx, Params{
		Name:       name,
		NumPlayers: numPlayers,
		NumTurns:   numTurns,
		Rules:      r.rules,
		Maps:       r.maps,
		Recorder:   r.rec,
		Store:      r.store,
		OnFinish:   r.remove,
	})
	if err != nil {
		return nil, false, err
	}
	r.games[name] = g
	return g, true, nil
}

// Get returns the named live game, or nil.
func (r *Registry) Get(name string) *Game {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.games[name]
}

// List returns the live games in name order.
func (r *Registry) List() []*Game {
	r.mu.Lock()
	defer r.mu.Unlock()
	games := make([]*Game, 0, len(r.games))
	for _, g := range r.games {
		games = append(games, g)
	}
	sort.Slice(games, func(i, j int) bool { return games[i].name < games[j].name })
	return games
}

// StopAll finishes every live game; used on server shutdown.
func (r *Registry) StopAll() {
	for _, g := range r.List() {
		g.Finish("server shutdown")
	}
}

func (r *Registry) remove(g *Game) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.games[g.name] == g {
		delete(r.games, g.name)
	}
}
