package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/udisondev/railgo/internal/game"
	"github.com/udisondev/railgo/internal/model"
	"github.com/udisondev/railgo/internal/observer"
	"github.com/udisondev/railgo/internal/protocol"
)

// session is the per-connection state machine: Fresh until LOGIN or
// OBSERVER, then LoggedIn or Observing until the connection closes.
type session struct {
	srv  *Server
	conn net.Conn

	player *model.Player
	game   *game.Game
	obs    *observer.Observer
	closed bool
}

func newSession(srv *Server, conn net.Conn) *session {
	return &session{srv: srv, conn: conn}
}

// run reads frames until the peer disconnects or LOGOUT closes the session.
func (s *session) run(ctx context.Context) {
	defer s.finish()

	var framer protocol.Framer
	buf := make([]byte, s.srv.cfg.ReceiveChunkSize)
	for !s.closed {
		n, err := s.conn.Read(buf)
		if err != nil {
			slog.Info("connection lost", "remote", s.conn.RemoteAddr())
			return
		}
		requests, err := framer.Feed(buf[:n])
		if err != nil {
			slog.Error("broken frame stream, closing connection",
				"remote", s.conn.RemoteAddr(), "err", err)
			return
		}
		for _, req := range requests {
			if err := s.serve(ctx, req); err != nil {
				slog.Error("failed to write response, closing connection",
					"remote", s.conn.RemoteAddr(), "err", err)
				return
			}
			if s.closed {
				return
			}
		}
	}
}

// finish releases the session's game seat on any disconnect path.
func (s *session) finish() {
	if s.game != nil && s.player != nil {
		s.game.RemovePlayer(s.player)
		s.record(protocol.ActionLogout, nil)
	}
}

// serve dispatches one request and writes exactly one response frame. The
// returned error is a transport failure only; command failures become error
// responses.
func (s *session) serve(ctx context.Context, req protocol.Request) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic on command execution",
				"action", req.Action.String(), "panic", r)
			err = protocol.WriteResponse(s.conn, protocol.ResultInternalServerError, nil)
		}
	}()

	slog.Debug("request", "remote", s.conn.RemoteAddr(), "action", req.Action.String())

	payload, herr := s.handle(ctx, req)
	result := protocol.ResultOf(herr)
	if herr != nil {
		slog.Warn("command failed",
			"action", req.Action.String(), "result", result.String(), "err", herr)
		payload = protocol.ErrorPayload(herr)
	}
	return protocol.WriteResponse(s.conn, result, payload)
}

func (s *session) handle(ctx context.Context, req protocol.Request) ([]byte, error) {
	data, err := decodePayload(req.Payload)
	if err != nil {
		return nil, err
	}

	if s.obs != nil {
		return s.handleObserving(ctx, req.Action, data)
	}
	if s.player != nil {
		return s.handleLoggedIn(ctx, req.Action, req.Payload, data)
	}
	return s.handleFresh(ctx, req.Action, data)
}

func (s *session) handleFresh(ctx context.Context, action protocol.Action, data map[string]json.RawMessage) ([]byte, error) {
	switch action {
	case protocol.ActionLogin:
		return s.onLogin(ctx, data)
	case protocol.ActionObserver:
		return s.onObserver(ctx)
	case protocol.ActionGames:
		return s.onGames()
	default:
		return nil, protocol.BadCommandf("No such action: %d", action)
	}
}

func (s *session) handleLoggedIn(ctx context.Context, action protocol.Action, raw []byte, data map[string]json.RawMessage) ([]byte, error) {
	switch action {
	case protocol.ActionLogin:
		return nil, protocol.BadCommandf("You are already logged in")
	case protocol.ActionLogout:
		return s.onLogout()
	case protocol.ActionMove:
		return s.onMove(raw, data)
	case protocol.ActionUpgrade:
		return s.onUpgrade(raw, data)
	case protocol.ActionTurn:
		return nil, s.game.Turn(s.player)
	case protocol.ActionPlayer:
		return s.game.PlayerView(s.player)
	case protocol.ActionMap:
		return s.onMap(data)
	case protocol.ActionGames:
		return s.onGames()
	default:
		return nil, protocol.BadCommandf("No such action: %d", action)
	}
}

func (s *session) handleObserving(ctx context.Context, action protocol.Action, data map[string]json.RawMessage) ([]byte, error) {
	switch action {
	case protocol.ActionObserver:
		return s.obs.Games(ctx)
	case protocol.ActionGame:
		idx, err := intKey(data, "idx")
		if err != nil {
			return nil, err
		}
		return nil, s.obs.SelectGame(ctx, int64(idx))
	case protocol.ActionTurn:
		idx, err := intKey(data, "idx")
		if err != nil {
			return nil, err
		}
		return nil, s.obs.Seek(idx)
	case protocol.ActionMap:
		layer, err := intKey(data, "layer")
		if err != nil {
			return nil, err
		}
		return s.obs.Layer(layer)
	default:
		return nil, protocol.BadCommandf("No such action: %d", action)
	}
}

type loginRequest struct {
	Name       string `json:"name"`
	Password   string `json:"password"`
	Game       string `json:"game"`
	NumPlayers int    `json:"num_players"`
	NumTurns   int    `json:"num_turns"`
}

func (s *session) onLogin(ctx context.Context, data map[string]json.RawMessage) ([]byte, error) {
	if err := checkKeys(data, "name"); err != nil {
		return nil, err
	}
	var req loginRequest
	if err := unmarshalPayload(data, &req); err != nil {
		return nil, err
	}

	gameName := req.Game
	if gameName == "" {
		gameName = fmt.Sprintf("Game of %s", req.Name)
	} else if err := checkKeys(data, "num_players"); err != nil {
		return nil, err
	}

	playerID, err := s.authenticate(ctx, req.Name, req.Password)
	if err != nil {
		return nil, err
	}

	g, created, err := s.srv.registry.Open(ctx, gameName, req.NumPlayers, req.NumTurns)
	if err != nil {
		return nil, err
	}
	if req.NumPlayers > 0 && g.NumPlayers() != req.NumPlayers {
		return nil, protocol.BadCommandf(
			"Incorrect players number requested, game: %s, game players number: %d, "+
				"requested players number: %d", gameName, g.NumPlayers(), req.NumPlayers)
	}

	player, err := g.AddPlayer(model.NewPlayer(playerID, req.Name))
	if err != nil {
		if created {
			g.Finish("first login failed")
		}
		return nil, err
	}
	s.game = g
	s.player = player

	// The raw login payload carries the password, so the replay record is
	// rebuilt from scratch.
	msg, _ := json.Marshal(map[string]string{"name": req.Name})
	s.record(protocol.ActionLogin, msg)

	slog.Info("player logged in", "player", req.Name, "game", gameName)
	return g.PlayerView(player)
}

// authenticate looks up or registers the named player and returns its
// stable id.
func (s *session) authenticate(ctx context.Context, name, password string) (string, error) {
	row, err := s.srv.players.GetByName(ctx, name)
	if err != nil {
		return "", fmt.Errorf("looking up player %q: %w", name, err)
	}
	if row != nil {
		switch {
		case row.Password == "" && password == "":
		case row.Password == "":
			return "", protocol.AccessDeniedf("Password mismatch")
		default:
			if bcrypt.CompareHashAndPassword([]byte(row.Password), []byte(password)) != nil {
				return "", protocol.AccessDeniedf("Password mismatch")
			}
		}
		return row.ID, nil
	}

	id := uuid.NewString()
	var hash string
	if password != "" {
		h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return "", fmt.Errorf("hashing password for %q: %w", name, err)
		}
		hash = string(h)
	}
	if err := s.srv.players.Create(ctx, id, name, hash); err != nil {
		return "", fmt.Errorf("registering player %q: %w", name, err)
	}
	return id, nil
}

func (s *session) onLogout() ([]byte, error) {
	slog.Info("player logged out", "player", s.player.Name)
	s.game.RemovePlayer(s.player)
	s.record(protocol.ActionLogout, nil)
	s.game = nil
	s.player = nil
	s.closed = true
	return nil, nil
}

func (s *session) onMove(raw []byte, data map[string]json.RawMessage) ([]byte, error) {
	if err := checkKeys(data, "train_idx", "speed", "line_idx"); err != nil {
		return nil, err
	}
	var req struct {
		TrainIdx int `json:"train_idx"`
		Speed    int `json:"speed"`
		LineIdx  int `json:"line_idx"`
	}
	if err := unmarshalPayload(data, &req); err != nil {
		return nil, err
	}
	if err := s.game.MoveTrain(s.player, req.TrainIdx, req.Speed, req.LineIdx); err != nil {
		return nil, err
	}
	s.record(protocol.ActionMove, raw)
	return nil, nil
}

func (s *session) onUpgrade(raw []byte, data map[string]json.RawMessage) ([]byte, error) {
	if err := checkAnyKey(data, "trains", "posts"); err != nil {
		return nil, err
	}
	var req struct {
		Posts  []int `json:"posts"`
		Trains []int `json:"trains"`
	}
	if err := unmarshalPayload(data, &req); err != nil {
		return nil, err
	}
	if err := s.game.Upgrade(s.player, req.Posts, req.Trains); err != nil {
		return nil, err
	}
	s.record(protocol.ActionUpgrade, raw)
	return nil, nil
}

func (s *session) onMap(data map[string]json.RawMessage) ([]byte, error) {
	layer, err := intKey(data, "layer")
	if err != nil {
		return nil, err
	}
	return s.game.Layer(s.player, layer)
}

func (s *session) onObserver(ctx context.Context) ([]byte, error) {
	if s.game != nil || s.obs != nil {
		return nil, protocol.BadCommandf("Impossible to connect as observer")
	}
	obs := observer.New(s.srv.catalog, &s.srv.cfg.Game, s.srv.maps)
	games, err := obs.Games(ctx)
	if err != nil {
		return nil, err
	}
	s.obs = obs
	return games, nil
}

type joinableGame struct {
	Name       string `json:"name"`
	NumPlayers int    `json:"num_players"`
	NumTurns   int    `json:"num_turns"`
	State      int    `json:"state"`
}

// onGames lists games still waiting for players.
func (s *session) onGames() ([]byte, error) {
	list := struct {
		Games []joinableGame `json:"games"`
	}{Games: []joinableGame{}}
	for _, g := range s.srv.registry.List() {
		if g.State() != game.StateInit {
			continue
		}
		list.Games = append(list.Games, joinableGame{
			Name:       g.Name(),
			NumPlayers: g.NumPlayers(),
			NumTurns:   g.NumTurns(),
			State:      int(g.State()),
		})
	}
	data, err := json.Marshal(list)
	if err != nil {
		return nil, fmt.Errorf("encoding games list: %w", err)
	}
	return data, nil
}

// record appends one action to the durable log of the session's game.
func (s *session) record(action protocol.Action, message []byte) {
	if s.srv.rec == nil || s.game == nil || s.player == nil {
		return
	}
	s.srv.rec.Record(s.game.ID(), action, message, s.player.Idx)
}

// decodePayload parses the request payload into a key-indexed form for key
// validation. An empty payload is an empty object.
func decodePayload(payload []byte) (map[string]json.RawMessage, error) {
	if len(payload) == 0 {
		return map[string]json.RawMessage{}, nil
	}
	var data map[string]json.RawMessage
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, protocol.BadCommandf("The command's payload is not a dictionary")
	}
	return data, nil
}

func unmarshalPayload(data map[string]json.RawMessage, dst any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("re-encoding payload: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return protocol.BadCommandf("The command's payload is malformed: %v", err)
	}
	return nil
}

func checkKeys(data map[string]json.RawMessage, keys ...string) error {
	for _, key := range keys {
		if _, ok := data[key]; !ok {
			return missingKeys(keys)
		}
	}
	return nil
}

func checkAnyKey(data map[string]json.RawMessage, keys ...string) error {
	for _, key := range keys {
		if _, ok := data[key]; ok {
			return nil
		}
	}
	return missingKeys(keys)
}

func missingKeys(keys []string) error {
	return protocol.BadCommandf(
		"The command's payload does not contain all needed keys, "+
			"following keys are expected: ['%s']", strings.Join(keys, "', '"))
}

func intKey(data map[string]json.RawMessage, key string) (int, error) {
	if err := checkKeys(data, key); err != nil {
		return 0, err
	}
	var v int
	if err := json.Unmarshal(data[key], &v); err != nil {
		return 0, protocol.BadCommandf("The key %q is not an integer", key)
	}
	return v, nil
}
