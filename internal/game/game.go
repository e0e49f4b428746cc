package game

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/udisondev/railgo/internal/config"
	"github.com/udisondev/railgo/internal/mapdata"
	"github.com/udisondev/railgo/internal/model"
	"github.com/udisondev/railgo/internal/protocol"
)

// State is the game lifecycle.
type State int

const (
	StateInit     State = 1
	StateRun      State = 2
	StateFinished State = 3
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateRun:
		return "RUN"
	case StateFinished:
		return "FINISHED"
	default:
		return "UNKNOWN"
	}
}

// ActionRecorder appends one record to the durable action log. Appends are
// atomic per record; ordering within a game follows call order.
type ActionRecorder interface {
	Record(gameID int64, code protocol.Action, message []byte, playerID string)
}

// GameStore persists the game row itself: creation at INIT, and the
// per-player summary once the game finishes.
type GameStore interface {
	CreateGame(ctx context.Context, name string, mapID, numPlayers, numTurns int) (int64, error)
	FinishGame(ctx context.Context, gameID int64, summary []byte) error
}

// PlayerSummary is what a finished game stores per player.
type PlayerSummary struct {
	Name   string `json:"name"`
	Rating int    `json:"rating"`
}

type pendingMove struct {
	lineIdx int
	speed   int
}

// Params configures one game instance.
type Params struct {
	Name       string
	MapName    string // empty means the store's active map
	NumPlayers int
	NumTurns   int // <= 0 means unlimited
	Observed   bool
	Rules      *config.Game
	Maps       *mapdata.Store
	Recorder   ActionRecorder // nil for observed games
	Store      GameStore      // nil for observed games
	OnFinish   func(*Game)    // registry unregistration hook
}

// Game is one logical game instance. All state behind mu; handler
// operations and the tick driver both take it. The driver goroutine exists
// only between the INIT->RUN transition and finish.
type Game struct {
	name     string
	id       int64
	rules    *config.Game
	observed bool

	numPlayers int
	numTurns   int

	rec      ActionRecorder
	store    GameStore
	onFinish func(*Game)

	mu             sync.Mutex
	state          State
	currentTick    int
	m              *Map
	players        map[string]*model.Player
	trains         map[int]*model.Train
	pendingMoves   map[int]pendingMove
	eventCooldowns map[model.EventType]int

	// forceTick wakes the driver before TickTime elapses; tickDone is the
	// completion broadcast for the current tick generation, closed after
	// every tick and replaced under mu.
	forceTick chan struct{}
	tickDone  chan struct{}
	stopCh    chan struct{}
	stopOnce  sync.Once
}

// New creates a game on its chosen map in state INIT and registers the game
// row in the store. num_players must not exceed the number of towns.
func New(ctx context.Context, p Params) (*Game, error) {
	var def *mapdata.Definition
	if p.MapName == "" {
		def = p.Maps.Active()
	} else {
		def = p.Maps.ByName(p.MapName)
	}
	if def == nil {
		return nil, fmt.Errorf("the map is not found: %q", p.MapName)
	}
	if p.NumPlayers > def.TownCount() {
		return nil, protocol.BadCommandf(
			"Unable to create game with %d players, maximum players count is %d",
			p.NumPlayers, def.TownCount())
	}

	g := &Game{
		name:           p.Name,
		rules:          p.Rules,
		observed:       p.Observed,
		numPlayers:     p.NumPlayers,
		numTurns:       p.NumTurns,
		rec:            p.Recorder,
		store:          p.Store,
		onFinish:       p.OnFinish,
		state:          StateInit,
		m:              newMap(def, p.Maps.ID(def.Name), p.Rules),
		players:        make(map[string]*model.Player),
		trains:         make(map[int]*model.Train),
		pendingMoves:   make(map[int]pendingMove),
		eventCooldowns: make(map[model.EventType]int),
		forceTick:      make(chan struct{}, 1),
		tickDone:       make(chan struct{}),
		stopCh:         make(chan struct{}),
	}

	// Random events cannot fire during the opening ticks.
	g.eventCooldowns[model.EventHijackersAssault] = p.Rules.Hijackers.StartCooldown()
	g.eventCooldowns[model.EventParasitesAssault] = p.Rules.Parasites.StartCooldown()
	g.eventCooldowns[model.EventRefugeesArrival] = p.Rules.Refugees.StartCooldown()

	if !g.observed && g.store != nil {
		id, err := g.store.CreateGame(ctx, g.name, g.m.Idx, g.numPlayers, g.numTurns)
		if err != nil {
			return nil, fmt.Errorf("registering game %q: %w", g.name, err)
		}
		g.id = id
	}

	slog.Info("game created", "name", g.name, "map", g.m.Name, "num_players", g.numPlayers)
	return g, nil
}

// Name returns the game's registry name.
func (g *Game) Name() string { return g.name }

// ID returns the game row id in the store (0 for observed games).
func (g *Game) ID() int64 { return g.id }

// NumPlayers returns the configured roster size.
func (g *Game) NumPlayers() int { return g.numPlayers }

// NumTurns returns the configured turn cap (<= 0: unlimited).
func (g *Game) NumTurns() int { return g.numTurns }

// State returns the current lifecycle state.
func (g *Game) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Tick advances the simulation one step. Observed games have no tick
// driver; the observer steps them through this during replay.
func (g *Game) Tick() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.tick()
}

// CurrentTick returns the number of completed ticks.
func (g *Game) CurrentTick() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.currentTick
}

// AddPlayer admits the player, or re-attaches a returning one with state
// preserved. When the roster reaches num_players the game transitions
// INIT->RUN and the tick driver starts.
func (g *Game) AddPlayer(player *model.Player) (*model.Player, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == StateFinished {
		return nil, protocol.AccessDeniedf("The game is finished")
	}

	if existing, ok := g.players[player.Idx]; ok {
		existing.InGame = true
		return existing, nil
	}

	if len(g.players) == g.numPlayers {
		return nil, protocol.AccessDeniedf("The maximum number of players reached")
	}
	g.players[player.Idx] = player
	player.InGame = true

	// Pick the first town without an owner as the player's home.
	var town *model.Post
	for _, t := range g.m.towns {
		if t.PlayerIdx == "" {
			town = t
			break
		}
	}
	homePoint := g.m.Points[town.PointIdx]
	player.SetHome(homePoint, town)

	startIdx := len(g.trains) + 1
	for i := 0; i < g.rules.TrainsCount; i++ {
		train := model.NewTrain(startIdx+i, g.rules.TrainLevels)
		player.AddTrain(train)
		g.m.AddTrain(train)
		g.trains[train.Idx] = train
		g.putTrainIntoTown(train, true, false)
	}

	g.m.Ratings[player.Idx] = &Rating{Idx: player.Idx, Name: player.Name, Rating: player.Rating}

	slog.Info("player joined", "game", g.name, "player", player.Name, "town", town.Name)

	if len(g.players) == g.numPlayers && g.state == StateInit {
		g.state = StateRun
		slog.Info("game started", "name", g.name)
		if !g.observed {
			go g.runLoop()
		}
	}

	return player, nil
}

// RemovePlayer marks the player as out of the game; the game finishes when
// nobody remains in it.
func (g *Game) RemovePlayer(player *model.Player) {
	g.mu.Lock()
	player.InGame = false
	anyLeft := false
	for _, p := range g.players {
		if p.InGame {
			anyLeft = true
			break
		}
	}
	g.mu.Unlock()

	if !anyLeft {
		g.Finish("no players left")
	}
}

// Finish moves the game to FINISHED (idempotent), releases the driver and
// every turn waiter, persists the per-player summary and unregisters the
// game.
func (g *Game) Finish(reason string) {
	g.stopOnce.Do(func() {
		g.mu.Lock()
		g.state = StateFinished
		summary := make(map[string]PlayerSummary, len(g.players))
		for idx, p := range g.players {
			summary[idx] = PlayerSummary{Name: p.Name, Rating: p.Rating}
		}
		g.mu.Unlock()

		close(g.stopCh)
		slog.Info("game finished", "name", g.name, "reason", reason)

		if !g.observed && g.store != nil {
			data, err := json.Marshal(summary)
			if err == nil {
				err = g.store.FinishGame(context.Background(), g.id, data)
			}
			if err != nil {
				slog.Error("failed to store game summary", "game", g.name, "err", err)
			}
		}
		if g.onFinish != nil {
			g.onFinish(g)
		}
	})
}

// Turn marks the player ready for the next tick and waits for it. When all
// roster players are ready the tick runs immediately instead of waiting out
// TickTime. Failing to observe a tick within TurnTimeout is a TIMEOUT.
func (g *Game) Turn(player *model.Player) error {
	g.mu.Lock()
	if g.state != StateRun {
		state := g.state
		g.mu.Unlock()
		return protocol.InappropriateGameStatef("Game state is not 'RUN', state: %s", state)
	}
	player.TurnCalled = true
	allReady := true
	for _, p := range g.players {
		if !p.TurnCalled {
			allReady = false
			break
		}
	}
	done := g.tickDone
	g.mu.Unlock()

	if allReady {
		select {
		case g.forceTick <- struct{}{}:
		default:
		}
	}

	select {
	case <-done:
		return nil
	case <-g.stopCh:
		return protocol.InappropriateGameStatef("The game is finished")
	case <-time.After(g.rules.TurnTimeout()):
		return protocol.Timeoutf("Game tick did not happen")
	}
}

// MoveTrain changes the path or speed of a train. See the endpoint matrix
// in moveBetweenLines for the in-motion case.
func (g *Game) MoveTrain(player *model.Player, trainIdx, speed, lineIdx int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	train, ok := g.trains[trainIdx]
	if !ok {
		return protocol.ResourceNotFoundf("Train index not found, index: %d", trainIdx)
	}
	lineTo, ok := g.m.Lines[lineIdx]
	if !ok {
		return protocol.ResourceNotFoundf("Line index not found, index: %d", lineIdx)
	}
	if train.PlayerIdx != player.Idx {
		return protocol.AccessDeniedf("Train's owner mismatch")
	}
	delete(g.pendingMoves, trainIdx)

	if train.Cooldown > 0 {
		return protocol.BadCommandf("The train is under cooldown, cooldown: %d", train.Cooldown)
	}

	// Stop, reverse, or keep running on the same line:
	if speed == 0 || train.LineIdx == lineIdx {
		train.Speed = speed
		return nil
	}

	lineFrom := g.m.Lines[train.LineIdx]
	if train.Speed == 0 {
		return g.moveParkedTrain(train, lineFrom, lineTo, speed)
	}
	return g.moveBetweenLines(train, lineFrom, lineTo, speed)
}

// moveParkedTrain departs a standing train onto another line. The train can
// only leave from one of its line's endpoints, and only onto a line sharing
// that endpoint.
func (g *Game) moveParkedTrain(train *model.Train, lineFrom, lineTo *model.Line, speed int) error {
	switch train.Position {
	case lineFrom.Length:
		if !lineTo.HasPoint(lineFrom.Points[1]) {
			return protocol.BadCommandf(
				"The end of the train's line is not connected to the next line, "+
					"train's line: %d, next line: %d", lineFrom.Idx, lineTo.Idx)
		}
		train.LineIdx = lineTo.Idx
		train.Speed = speed
		if lineFrom.Points[1] == lineTo.Points[0] {
			train.Position = 0
		} else {
			train.Position = lineTo.Length
		}
	case 0:
		if !lineTo.HasPoint(lineFrom.Points[0]) {
			return protocol.BadCommandf(
				"The beginning of the train's line is not connected to the next line, "+
					"train's line: %d, next line: %d", lineFrom.Idx, lineTo.Idx)
		}
		train.LineIdx = lineTo.Idx
		train.Speed = speed
		if lineFrom.Points[0] == lineTo.Points[0] {
			train.Position = 0
		} else {
			train.Position = lineTo.Length
		}
	default:
		return protocol.BadCommandf(
			"The train is standing on the line (between line's points), " +
				"player have to continue run the train")
	}
	return nil
}

// moveBetweenLines steers a moving train to the next segment: the far
// endpoint in the current direction must match the entry endpoint implied
// by the new speed sign. The move is stored and applied at the junction.
func (g *Game) moveBetweenLines(train *model.Train, lineFrom, lineTo *model.Line, speed int) error {
	var ok bool
	switch {
	case train.Speed > 0 && speed > 0:
		ok = lineFrom.Points[1] == lineTo.Points[0]
	case train.Speed > 0 && speed < 0:
		ok = lineFrom.Points[1] == lineTo.Points[1]
	case train.Speed < 0 && speed > 0:
		ok = lineFrom.Points[0] == lineTo.Points[0]
	case train.Speed < 0 && speed < 0:
		ok = lineFrom.Points[0] == lineTo.Points[1]
	}
	if !ok {
		return protocol.BadCommandf(
			"The train is not able to switch the current line to the next line, "+
				"or new speed is incorrect, train's line: %d, next line: %d, "+
				"train's speed: %d, new speed: %d", lineFrom.Idx, lineTo.Idx, train.Speed, speed)
	}
	g.pendingMoves[train.Idx] = pendingMove{lineIdx: lineTo.Idx, speed: speed}
	return nil
}

// Upgrade raises the level of the given towns and trains, paying with the
// armor of the player's town. Trains must stand in their own town.
func (g *Game) Upgrade(player *model.Player, postIdxs, trainIdxs []int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	posts := make([]*model.Post, 0, len(postIdxs))
	for _, idx := range postIdxs {
		post, ok := g.m.Posts[idx]
		if !ok {
			return protocol.ResourceNotFoundf("Post index not found, index: %d", idx)
		}
		if post.Type != model.PostTown {
			return protocol.BadCommandf("The post is not a Town, post: %d", idx)
		}
		if post.PlayerIdx != player.Idx {
			return protocol.AccessDeniedf("Town's owner mismatch")
		}
		posts = append(posts, post)
	}

	trains := make([]*model.Train, 0, len(trainIdxs))
	for _, idx := range trainIdxs {
		train, ok := g.trains[idx]
		if !ok {
			return protocol.ResourceNotFoundf("Train index not found, index: %d", idx)
		}
		if train.PlayerIdx != player.Idx {
			return protocol.AccessDeniedf("Train's owner mismatch")
		}
		trains = append(trains, train)
	}

	for _, post := range posts {
		if _, ok := g.rules.TownLevels[post.Level+1]; !ok {
			return protocol.BadCommandf("Not all entities requested for upgrade have next levels")
		}
	}
	for _, train := range trains {
		if _, ok := g.rules.TrainLevels[train.Level+1]; !ok {
			return protocol.BadCommandf("Not all entities requested for upgrade have next levels")
		}
	}

	armorNeeded := 0
	for _, post := range posts {
		armorNeeded += post.NextLevelPrice
	}
	for _, train := range trains {
		armorNeeded += train.NextLevelPrice
	}
	if player.Town.Armor < armorNeeded {
		return protocol.BadCommandf(
			"Not enough armor resource for upgrade, player's armor: %d, "+
				"armor needed to upgrade: %d", player.Town.Armor, armorNeeded)
	}

	for _, train := range trains {
		if !g.trainAtPost(train, player.Town) {
			return protocol.BadCommandf("The train is not in Town now, train: %d", train.Idx)
		}
	}

	for _, post := range posts {
		player.Town.Armor -= post.NextLevelPrice
		post.SetLevel(post.Level+1, g.rules.TownLevels)
		slog.Info("post upgraded", "game", g.name, "post", post.Idx, "level", post.Level)
	}
	for _, train := range trains {
		player.Town.Armor -= train.NextLevelPrice
		train.SetLevel(train.Level+1, g.rules.TrainLevels)
		slog.Info("train upgraded", "game", g.name, "train", train.Idx, "level", train.Level)
	}
	return nil
}

// trainAtPoint returns the point the train stands at, or 0.
func (g *Game) trainAtPoint(train *model.Train) int {
	line := g.m.Lines[train.LineIdx]
	if train.Position == 0 || train.Position == line.Length {
		return line.EndpointAt(train.Position)
	}
	return 0
}

// trainAtPost reports whether the train stands at the given post's point.
func (g *Game) trainAtPost(train *model.Train, post *model.Post) bool {
	pointIdx := g.trainAtPoint(train)
	if pointIdx == 0 {
		return false
	}
	return g.m.Points[pointIdx].PostIdx == post.Idx
}

// putTrainIntoTown parks the train at its owner's home town on the lowest
// incident line.
func (g *Game) putTrainIntoTown(train *model.Train, withUnload, withCooldown bool) {
	home := g.players[train.PlayerIdx].Home
	line := g.m.homeLine(home.Idx)
	train.LineIdx = line.Idx
	if home.Idx == line.Points[0] {
		train.Position = 0
	} else {
		train.Position = line.Length
	}
	train.Speed = 0
	if withUnload {
		train.Goods = 0
		train.GoodsType = 0
	}
	if withCooldown {
		town := g.players[train.PlayerIdx].Town
		train.Cooldown = town.TrainCooldown
	}
}

// Players returns the roster sorted by join-stable player id.
func (g *Game) sortedPlayers() []*model.Player {
	players := make([]*model.Player, 0, len(g.players))
	for _, p := range g.players {
		players = append(players, p)
	}
	sort.Slice(players, func(i, j int) bool {
		return players[i].Town.Idx < players[j].Town.Idx
	})
	return players
}
