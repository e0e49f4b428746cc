package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PlayerRow is one row of the players table. Password holds a bcrypt hash,
// empty when the player registered without one.
type PlayerRow struct {
	ID        string
	Name      string
	Password  string
	CreatedAt time.Time
}

// PlayerRepository manages registered player identities.
type PlayerRepository struct {
	db *pgxpool.Pool
}

// NewPlayerRepository creates a PlayerRepository over the pool.
func NewPlayerRepository(db *pgxpool.Pool) *PlayerRepository {
	return &PlayerRepository{db: db}
}

// GetByName returns the named player, or nil when unknown.
func (r *PlayerRepository) GetByName(ctx context.Context, name string) (*PlayerRow, error) {
	var p PlayerRow
	err := r.db.QueryRow(ctx,
		`SELECT id, name, COALESCE(password, ''), created_at
		 FROM players WHERE name = $1`, name,
	).Scan(&p.ID, &p.Name, &p.Password, &p.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("querying player %q: %w", name, err)
	}
	return &p, nil
}

// Create registers a new player identity.
func (r *PlayerRepository) Create(ctx context.Context, id, name, passwordHash string) error {
	var pwd *string
	if passwordHash != "" {
		pwd = &passwordHash
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO players (id, name, password) VALUES ($1, $2, $3)`,
		id, name, pwd,
	)
	if err != nil {
		return fmt.Errorf("creating player %q: %w", name, err)
	}
	return nil
}
