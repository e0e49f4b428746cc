// Package observer serves replays of recorded games: it rebuilds a game
// instance from the action log and lets the client seek through its ticks.
package observer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/udisondev/railgo/internal/config"
	"github.com/udisondev/railgo/internal/db"
	"github.com/udisondev/railgo/internal/game"
	"github.com/udisondev/railgo/internal/mapdata"
	"github.com/udisondev/railgo/internal/model"
	"github.com/udisondev/railgo/internal/protocol"
)

// Catalog reads recorded games and their action logs.
type Catalog interface {
	ListGames(ctx context.Context, turnCode uint32) ([]db.GameRow, error)
	GetGame(ctx context.Context, gameID int64, turnCode uint32) (*db.GameRow, error)
	ListActions(ctx context.Context, gameID int64) ([]db.ActionRow, error)
}

// Observer is one observing session. It owns a private observed game
// instance rebuilt from the log; seeking forward replays actions, seeking
// backward resets and replays from scratch.
type Observer struct {
	catalog Catalog
	rules   *config.Game
	maps    *mapdata.Store

	game     *game.Game
	gameName string
	mapName  string

	numPlayers int
	players    map[string]*model.Player
	actions    []db.ActionRow

	maxTurn       int
	currentTurn   int
	currentAction int
}

// New creates an observer session over the catalog.
func New(catalog Catalog, rules *config.Game, maps *mapdata.Store) *Observer {
	return &Observer{
		catalog: catalog,
		rules:   rules,
		maps:    maps,
		players: make(map[string]*model.Player),
	}
}

type gameInfo struct {
	Idx        int64           `json:"idx"`
	Name       string          `json:"name"`
	CreatedAt  string          `json:"created_at"`
	MapIdx     int             `json:"map_idx"`
	Length     int             `json:"length"`
	NumPlayers int             `json:"num_players"`
	Ratings    json.RawMessage `json:"ratings"`
}

type gamesList struct {
	Games []gameInfo `json:"games"`
}

// Games lists every recorded game with its replay length in ticks.
func (o *Observer) Games(ctx context.Context) ([]byte, error) {
	rows, err := o.catalog.ListGames(ctx, uint32(protocol.ActionTurn))
	if err != nil {
		return nil, fmt.Errorf("listing recorded games: %w", err)
	}

	list := gamesList{Games: make([]gameInfo, 0, len(rows))}
	for _, row := range rows {
		list.Games = append(list.Games, gameInfo{
			Idx:        row.ID,
			Name:       row.Name,
			CreatedAt:  row.CreatedAt.Format(o.rules.TimeFormat),
			MapIdx:     row.MapID,
			Length:     row.Length,
			NumPlayers: row.NumPlayers,
			Ratings:    ratingsOf(row.Data),
		})
	}
	data, err := json.Marshal(list)
	if err != nil {
		return nil, fmt.Errorf("encoding games list: %w", err)
	}
	return data, nil
}

func ratingsOf(data []byte) json.RawMessage {
	if len(data) == 0 {
		return json.RawMessage("null")
	}
	return json.RawMessage(data)
}

// SelectGame binds the session to a recorded game and rewinds to tick 0.
func (o *Observer) SelectGame(ctx context.Context, gameID int64) error {
	row, err := o.catalog.GetGame(ctx, gameID, uint32(protocol.ActionTurn))
	if err != nil {
		return fmt.Errorf("loading game %d: %w", gameID, err)
	}
	if row == nil {
		return protocol.ResourceNotFoundf("Game index not found, index: %d", gameID)
	}
	def := o.maps.ByID(row.MapID)
	if def == nil {
		return protocol.ResourceNotFoundf("Map not found for game, map: %d", row.MapID)
	}
	actions, err := o.catalog.ListActions(ctx, gameID)
	if err != nil {
		return fmt.Errorf("loading actions of game %d: %w", gameID, err)
	}

	o.gameName = row.Name
	o.mapName = def.Name
	o.numPlayers = row.NumPlayers
	o.actions = actions
	o.maxTurn = row.Length
	if err := o.resetGame(); err != nil {
		return err
	}
	slog.Info("observer selected game", "game", o.gameName, "length", o.maxTurn)
	return nil
}

func (o *Observer) resetGame() error {
	g, err := game.New(context.Background(), game.Params{
		Name:       o.gameName,
		MapName:    o.mapName,
		NumPlayers: o.numPlayers,
		Observed:   true,
		Rules:      o.rules,
		Maps:       o.maps,
	})
	if err != nil {
		return fmt.Errorf("rebuilding observed game: %w", err)
	}
	o.game = g
	o.players = make(map[string]*model.Player)
	o.currentTurn = 0
	o.currentAction = 0
	return nil
}

// Seek moves the replay to the absolute tick, clamped to [0, maxTurn].
// Backward seeks rebuild the game and replay forward from the start.
func (o *Observer) Seek(turn int) error {
	if o.game == nil {
		return protocol.BadCommandf("A game is not chosen")
	}
	turn = min(max(turn, 0), o.maxTurn)

	switch {
	case turn == o.currentTurn:
		return nil
	case turn > o.currentTurn:
		if err := o.replay(turn - o.currentTurn); err != nil {
			return err
		}
	default:
		if err := o.resetGame(); err != nil {
			return err
		}
		if turn > 0 {
			if err := o.replay(turn); err != nil {
				return err
			}
		}
	}
	o.currentTurn = turn
	return nil
}

// replay applies recorded actions in order until the given number of TURN
// records has been consumed.
func (o *Observer) replay(turns int) error {
	ticks := 0
	for _, action := range o.actions[o.currentAction:] {
		o.currentAction++
		if err := o.applyAction(action); err != nil {
			return err
		}
		if protocol.Action(action.Code) == protocol.ActionTurn {
			ticks++
			o.currentTurn++
			if ticks >= turns {
				break
			}
		}
	}
	return nil
}

func (o *Observer) applyAction(action db.ActionRow) error {
	var playerID string
	if action.PlayerID != nil {
		playerID = *action.PlayerID
	}
	player := o.players[playerID]

	switch protocol.Action(action.Code) {
	case protocol.ActionLogin:
		var msg struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(action.Message, &msg); err != nil {
			return fmt.Errorf("decoding recorded login: %w", err)
		}
		p := model.NewPlayer(playerID, msg.Name)
		o.players[playerID] = p
		if _, err := o.game.AddPlayer(p); err != nil {
			return fmt.Errorf("replaying login of %q: %w", msg.Name, err)
		}

	case protocol.ActionMove:
		var msg struct {
			TrainIdx int `json:"train_idx"`
			Speed    int `json:"speed"`
			LineIdx  int `json:"line_idx"`
		}
		if err := json.Unmarshal(action.Message, &msg); err != nil {
			return fmt.Errorf("decoding recorded move: %w", err)
		}
		if err := o.game.MoveTrain(player, msg.TrainIdx, msg.Speed, msg.LineIdx); err != nil {
			return fmt.Errorf("replaying move: %w", err)
		}

	case protocol.ActionUpgrade:
		var msg struct {
			Posts  []int `json:"posts"`
			Trains []int `json:"trains"`
		}
		if err := json.Unmarshal(action.Message, &msg); err != nil {
			return fmt.Errorf("decoding recorded upgrade: %w", err)
		}
		if err := o.game.Upgrade(player, msg.Posts, msg.Trains); err != nil {
			return fmt.Errorf("replaying upgrade: %w", err)
		}

	case protocol.ActionTurn:
		o.game.Tick()

	case protocol.ActionEvent:
		var event model.Event
		if err := json.Unmarshal(action.Message, &event); err != nil {
			return fmt.Errorf("decoding recorded event: %w", err)
		}
		switch event.Type {
		case model.EventHijackersAssault:
			o.game.ApplyHijackersAssault(*event.HijackersPower)
		case model.EventParasitesAssault:
			o.game.ApplyParasitesAssault(*event.ParasitesPower)
		case model.EventRefugeesArrival:
			o.game.ApplyRefugeesArrival(*event.RefugeesNumber)
		default:
			return fmt.Errorf("unknown recorded event type: %d", event.Type)
		}

	case protocol.ActionLogout:
		if player != nil {
			o.game.RemovePlayer(player)
		}

	default:
		slog.Error("unknown recorded action code", "code", action.Code)
	}
	return nil
}

// Layer renders a map layer of the replayed game at its current tick.
func (o *Observer) Layer(layer int) ([]byte, error) {
	if o.game == nil {
		return nil, protocol.BadCommandf("A game is not chosen")
	}
	return o.game.Layer(nil, layer)
}
