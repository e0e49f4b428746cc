package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ActionRow is one record of a game's action log.
type ActionRow struct {
	ID        int64
	GameID    int64
	Code      uint32
	Message   []byte
	CreatedAt time.Time
	PlayerID  *string
}

// ActionRepository manages the append-only action log.
type ActionRepository struct {
	db *pgxpool.Pool
}

// NewActionRepository creates an ActionRepository over the pool.
func NewActionRepository(db *pgxpool.Pool) *ActionRepository {
	return &ActionRepository{db: db}
}

// Append inserts one action record. An empty message is stored as '{}', an
// empty playerID as NULL.
func (r *ActionRepository) Append(ctx context.Context, gameID int64, code uint32, message []byte, playerID string) error {
	if len(message) == 0 {
		message = []byte("{}")
	}
	var pid *string
	if playerID != "" {
		pid = &playerID
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO actions (game_id, code, message, player_id)
		 VALUES ($1, $2, $3, $4)`,
		gameID, code, message, pid,
	)
	if err != nil {
		return fmt.Errorf("appending action for game %d: %w", gameID, err)
	}
	return nil
}

// ListByGame returns the game's full action log in recording order.
func (r *ActionRepository) ListByGame(ctx context.Context, gameID int64) ([]ActionRow, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, game_id, code, message, created_at, player_id
		 FROM actions
		 WHERE game_id = $1
		 ORDER BY created_at, id`,
		gameID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing actions for game %d: %w", gameID, err)
	}
	defer rows.Close()

	var actions []ActionRow
	for rows.Next() {
		var a ActionRow
		if err := rows.Scan(&a.ID, &a.GameID, &a.Code, &a.Message, &a.CreatedAt, &a.PlayerID); err != nil {
			return nil, fmt.Errorf("scanning action row: %w", err)
		}
		actions = append(actions, a)
	}
	return actions, rows.Err()
}
