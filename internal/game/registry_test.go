package game

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/railgo/internal/model"
	"github.com/udisondev/railgo/internal/testutil"
)

func newTestRegistry(t *testing.T) (*Registry, *testutil.MemStore) {
	t.Helper()
	store := testutil.NewMemStore()
	r := NewRegistry(testRules(), testutil.Maps(t), store, store)
	t.Cleanup(r.StopAll)
	return r, store
}

func TestRegistryOpenCreatesOnce(t *testing.T) {
	r, _ := newTestRegistry(t)

	g, created, err := r.Open(context.Background(), "alpha", 1, -1)
	require.NoError(t, err)
	assert.True(t, created)

	same, created, err := r.Open(context.Background(), "alpha", 1, -1)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Same(t, g, same)

	assert.Same(t, g, r.Get("alpha"))
	assert.Nil(t, r.Get("beta"))
}

func TestRegistryOpenDefaults(t *testing.T) {
	r, _ := newTestRegistry(t)

	g, _, err := r.Open(context.Background(), "defaults", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, g.NumPlayers())
	assert.Equal(t, -1, g.NumTurns())
}

func TestRegistryListSortsByName(t *testing.T) {
	r, _ := newTestRegistry(t)
	_, _, err := r.Open(context.Background(), "bravo", 1, -1)
	require.NoError(t, err)
	_, _, err = r.Open(context.Background(), "alpha", 1, -1)
	require.NoError(t, err)

	games := r.List()
	require.Len(t, games, 2)
	assert.Equal(t, "alpha", games[0].Name())
	assert.Equal(t, "bravo", games[1].Name())
}

func TestRegistryDropsFinishedGame(t *testing.T) {
	r, _ := newTestRegistry(t)
	g, _, err := r.Open(context.Background(), "short", 1, -1)
	require.NoError(t, err)

	g.Finish("test")
	assert.Nil(t, r.Get("short"))
}

func TestRegistryStopAll(t *testing.T) {
	r, _ := newTestRegistry(t)
	g, _, err := r.Open(context.Background(), "doomed", 1, -1)
	require.NoError(t, err)
	_, err = g.AddPlayer(model.NewPlayer("p1", "p1"))
	require.NoError(t, err)

	r.StopAll()
	assert.Equal(t, StateFinished, g.State())
	assert.Empty(t, r.List())
}
