package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// GameRow is one row of the games table. Length is the number of recorded
// TURN actions, i.e. the replay length in ticks.
type GameRow struct {
	ID         int64
	Name       string
	CreatedAt  time.Time
	MapID      int
	NumPlayers int
	NumTurns   int
	Data       []byte
	Length     int
}

// GameRepository manages rows of the games table.
type GameRepository struct {
	db *pgxpool.Pool
}

// NewGameRepository creates a GameRepository over the pool.
func NewGameRepository(db *pgxpool.Pool) *GameRepository {
	return &GameRepository{db: db}
}

// CreateGame inserts a new game row and returns its id.
func (r *GameRepository) CreateGame(ctx context.Context, name string, mapID, numPlayers, numTurns int) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx,
		`INSERT INTO games (name, map_id, num_players, num_turns)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		name, mapID, numPlayers, numTurns,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("creating game %q: %w", name, err)
	}
	return id, nil
}

// FinishGame stores the final per-player summary on the game row.
func (r *GameRepository) FinishGame(ctx context.Context, gameID int64, summary []byte) error {
	_, err := r.db.Exec(ctx,
		`UPDATE games SET data = $1, updated_at = now() WHERE id = $2`,
		summary, gameID,
	)
	if err != nil {
		return fmt.Errorf("finishing game %d: %w", gameID, err)
	}
	return nil
}

const gameWithLengthQuery = `
	SELECT g.id, g.name, g.created_at, COALESCE(g.map_id, 0),
	       g.num_players, g.num_turns, COALESCE(g.data, 'null'), COUNT(a.id)
	FROM games g
	LEFT JOIN actions a ON a.game_id = g.id AND a.code = $1
`

// ListGames returns every recorded game with its replay length. turnCode is
// the action code counted as one tick.
func (r *GameRepository) ListGames(ctx context.Context, turnCode uint32) ([]GameRow, error) {
	rows, err := r.db.Query(ctx,
		gameWithLengthQuery+` GROUP BY g.id ORDER BY g.id`, turnCode)
	if err != nil {
		return nil, fmt.Errorf("listing games: %w", err)
	}
	defer rows.Close()

	var games []GameRow
	for rows.Next() {
		var g GameRow
		if err := rows.Scan(&g.ID, &g.Name, &g.CreatedAt, &g.MapID,
			&g.NumPlayers, &g.NumTurns, &g.Data, &g.Length); err != nil {
			return nil, fmt.Errorf("scanning game row: %w", err)
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

// GetGame returns one game with its replay length, or nil when absent.
func (r *GameRepository) GetGame(ctx context.Context, gameID int64, turnCode uint32) (*GameRow, error) {
	var g GameRow
	err := r.db.QueryRow(ctx,
		gameWithLengthQuery+` WHERE g.id = $2 GROUP BY g.id`, turnCode, gameID,
	).Scan(&g.ID, &g.Name, &g.CreatedAt, &g.MapID,
		&g.NumPlayers, &g.NumTurns, &g.Data, &g.Length)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("querying game %d: %w", gameID, err)
	}
	return &g, nil
}
