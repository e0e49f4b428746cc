// Package testutil provides in-memory persistence fakes and fixture maps
// shared by package tests and the integration suite.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/udisondev/railgo/internal/db"
	"github.com/udisondev/railgo/internal/protocol"
)

// MemStore is an in-memory stand-in for the PostgreSQL layer. It satisfies
// game.GameStore, game.ActionRecorder, server.PlayerStore and
// observer.Catalog. Unlike the production recorder it appends
// synchronously, so tests observe a deterministic action log.
type MemStore struct {
	mu sync.Mutex

	nextGameID   int64
	nextActionID int64
	games        map[int64]db.GameRow
	actions      map[int64][]db.ActionRow
	players      map[string]db.PlayerRow
}

// NewMemStore creates an empty store.
func NewMemStore() *MemStore {
	return &MemStore{
		games:   make(map[int64]db.GameRow),
		actions: make(map[int64][]db.ActionRow),
		players: make(map[string]db.PlayerRow),
	}
}

// CreateGame registers a game row and returns its id.
func (s *MemStore) CreateGame(_ context.Context, name string, mapID, numPlayers, numTurns int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextGameID++
	s.games[s.nextGameID] = db.GameRow{
		ID:         s.nextGameID,
		Name:       name,
		CreatedAt:  time.Now(),
		MapID:      mapID,
		NumPlayers: numPlayers,
		NumTurns:   numTurns,
	}
	return s.nextGameID, nil
}

// FinishGame stores the final summary on the game row.
func (s *MemStore) FinishGame(_ context.Context, gameID int64, summary []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := s.games[gameID]
	row.Data = summary
	s.games[gameID] = row
	return nil
}

// Record appends one action-log record synchronously.
func (s *MemStore) Record(gameID int64, code protocol.Action, message []byte, playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextActionID++
	if len(message) == 0 {
		message = []byte("{}")
	}
	var pid *string
	if playerID != "" {
		p := playerID
		pid = &p
	}
	s.actions[gameID] = append(s.actions[gameID], db.ActionRow{
		ID:        s.nextActionID,
		GameID:    gameID,
		Code:      uint32(code),
		Message:   message,
		CreatedAt: time.Now(),
		PlayerID:  pid,
	})
}

// GetByName returns the named player row, or nil.
func (s *MemStore) GetByName(_ context.Context, name string) (*db.PlayerRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.players[name]
	if !ok {
		return nil, nil
	}
	return &row, nil
}

// Create registers a player identity.
func (s *MemStore) Create(_ context.Context, id, name, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players[name] = db.PlayerRow{
		ID:        id,
		Name:      name,
		Password:  passwordHash,
		CreatedAt: time.Now(),
	}
	return nil
}

// ListGames returns every recorded game with its replay length.
func (s *MemStore) ListGames(_ context.Context, turnCode uint32) ([]db.GameRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := make([]db.GameRow, 0, len(s.games))
	for id := int64(1); id <= s.nextGameID; id++ {
		row, ok := s.games[id]
		if !ok {
			continue
		}
		row.Length = s.turnCountLocked(id, turnCode)
		rows = append(rows, row)
	}
	return rows, nil
}

// GetGame returns one recorded game, or nil.
func (s *MemStore) GetGame(_ context.Context, gameID int64, turnCode uint32) (*db.GameRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.games[gameID]
	if !ok {
		return nil, nil
	}
	row.Length = s.turnCountLocked(gameID, turnCode)
	return &row, nil
}

// ListActions returns the game's action log in recording order.
func (s *MemStore) ListActions(_ context.Context, gameID int64) ([]db.ActionRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]db.ActionRow(nil), s.actions[gameID]...), nil
}

// Actions returns a copy of the recorded log for direct assertions.
func (s *MemStore) Actions(gameID int64) []db.ActionRow {
	rows, _ := s.ListActions(context.Background(), gameID)
	return rows
}

func (s *MemStore) turnCountLocked(gameID int64, turnCode uint32) int {
	n := 0
	for _, a := range s.actions[gameID] {
		if a.Code == turnCode {
			n++
		}
	}
	return n
}
