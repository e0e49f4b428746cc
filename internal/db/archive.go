package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Archive bundles read access to recorded games and their action logs for
// the observer.
type Archive struct {
	games   *GameRepository
	actions *ActionRepository
}

// NewArchive creates an Archive over the pool.
func NewArchive(db *pgxpool.Pool) *Archive {
	return &Archive{
		games:   NewGameRepository(db),
		actions: NewActionRepository(db),
	}
}

// ListGames returns every recorded game with its replay length.
func (a *Archive) ListGames(ctx context.Context, turnCode uint32) ([]GameRow, error) {
	return a.games.ListGames(ctx, turnCode)
}

// GetGame returns one recorded game, or nil when absent.
func (a *Archive) GetGame(ctx context.Context, gameID int64, turnCode uint32) (*GameRow, error) {
	return a.games.GetGame(ctx, gameID, turnCode)
}

// ListActions returns the game's action log in recording order.
func (a *Archive) ListActions(ctx context.Context, gameID int64) ([]ActionRow, error) {
	return a.actions.ListByGame(ctx, gameID)
}
