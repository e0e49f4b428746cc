package observer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/udisondev/railgo/internal/config"
	"github.com/udisondev/railgo/internal/game"
	"github.com/udisondev/railgo/internal/mapdata"
	"github.com/udisondev/railgo/internal/model"
	"github.com/udisondev/railgo/internal/protocol"
	"github.com/udisondev/railgo/internal/testutil"
)

// recordGame plays a short deterministic game into the store, the way the
// session layer records it: one player, one move command, one parasites
// assault between the first and second of three ticks.
func recordGame(t *testing.T, rules *config.Game, store *testutil.MemStore, maps *mapdata.Store) *game.Game {
	t.Helper()
	g, err := game.New(context.Background(), game.Params{
		Name:       "recorded",
		MapName:    "linear",
		NumPlayers: 1,
		NumTurns:   -1,
		Rules:      rules,
		Maps:       maps,
		Recorder:   store,
		Store:      store,
	})
	require.NoError(t, err)
	t.Cleanup(func() { g.Finish("test done") })

	p, err := g.AddPlayer(model.NewPlayer("p1", "alice"))
	require.NoError(t, err)
	store.Record(g.ID(), protocol.ActionLogin, []byte(`{"name":"alice"}`), "p1")

	require.NoError(t, g.MoveTrain(p, 1, 1, 1))
	store.Record(g.ID(), protocol.ActionMove, []byte(`{"train_idx":1,"speed":1,"line_idx":1}`), "p1")

	g.Tick()
	g.ApplyParasitesAssault(2)
	g.Tick()
	g.Tick()
	return g
}

func testSetup(t *testing.T) (*Observer, *game.Game) {
	t.Helper()
	rules := config.Testing()
	rules.TrainsCount = 2
	store := testutil.NewMemStore()
	maps := testutil.Maps(t)
	g := recordGame(t, &rules, store, maps)
	return New(store, &rules, maps), g
}

func TestGamesList(t *testing.T) {
	obs, g := testSetup(t)

	data, err := obs.Games(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(1), gjson.GetBytes(data, "games.#").Int())
	assert.Equal(t, g.ID(), gjson.GetBytes(data, "games.0.idx").Int())
	assert.Equal(t, "recorded", gjson.GetBytes(data, "games.0.name").String())
	assert.Equal(t, int64(3), gjson.GetBytes(data, "games.0.length").Int())
	assert.Equal(t, int64(1), gjson.GetBytes(data, "games.0.num_players").Int())
	// Unfinished games have no final ratings yet.
	assert.Equal(t, gjson.Null, gjson.GetBytes(data, "games.0.ratings").Type)
}

func TestSeekWithoutGame(t *testing.T) {
	obs, _ := testSetup(t)
	err := obs.Seek(1)
	assert.EqualError(t, err, "A game is not chosen")
	_, err = obs.Layer(1)
	assert.EqualError(t, err, "A game is not chosen")
}

func TestSelectUnknownGame(t *testing.T) {
	obs, _ := testSetup(t)
	err := obs.SelectGame(context.Background(), 99)
	assert.EqualError(t, err, "Game index not found, index: 99")
	assert.Equal(t, protocol.ResultResourceNotFound, protocol.ResultOf(err))
}

func TestReplayForward(t *testing.T) {
	obs, g := testSetup(t)
	require.NoError(t, obs.SelectGame(context.Background(), g.ID()))

	// Turn 0: nothing applied yet, the map is empty of trains.
	data, err := obs.Layer(1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), gjson.GetBytes(data, "trains.#").Int())

	require.NoError(t, obs.Seek(1))
	data, err = obs.Layer(1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), gjson.GetBytes(data, "trains.#").Int())
	assert.Equal(t, int64(1), gjson.GetBytes(data, "trains.0.position").Int())
	assert.Equal(t, int64(1), gjson.GetBytes(data, "trains.0.line_idx").Int())
	assert.Equal(t, int64(197), gjson.GetBytes(data, "posts.0.product").Int())

	require.NoError(t, obs.Seek(3))
	data, err = obs.Layer(1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), gjson.GetBytes(data, "trains.0.position").Int())
	// 200 - 3 ticks of consumption - the parasites assault.
	assert.Equal(t, int64(189), gjson.GetBytes(data, "posts.0.product").Int())
}

func TestReplayBackward(t *testing.T) {
	obs, g := testSetup(t)
	require.NoError(t, obs.SelectGame(context.Background(), g.ID()))
	require.NoError(t, obs.Seek(3))

	// A backward seek rebuilds the game and replays forward.
	require.NoError(t, obs.Seek(2))
	data, err := obs.Layer(1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), gjson.GetBytes(data, "trains.0.position").Int())
	assert.Equal(t, int64(192), gjson.GetBytes(data, "posts.0.product").Int())

	require.NoError(t, obs.Seek(0))
	data, err = obs.Layer(1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), gjson.GetBytes(data, "trains.#").Int())
}

func TestSeekClamps(t *testing.T) {
	obs, g := testSetup(t)
	require.NoError(t, obs.SelectGame(context.Background(), g.ID()))

	require.NoError(t, obs.Seek(100))
	data, err := obs.Layer(1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), gjson.GetBytes(data, "trains.0.position").Int())

	require.NoError(t, obs.Seek(-5))
	data, err = obs.Layer(1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), gjson.GetBytes(data, "trains.#").Int())
}

func TestReplayMatchesLiveGame(t *testing.T) {
	obs, g := testSetup(t)
	require.NoError(t, obs.SelectGame(context.Background(), g.ID()))
	require.NoError(t, obs.Seek(3))

	live, err := g.Layer(nil, 1)
	require.NoError(t, err)
	replayed, err := obs.Layer(1)
	require.NoError(t, err)
	assert.JSONEq(t, string(live), string(replayed))
}

func TestObserverSeesHiddenLayers(t *testing.T) {
	rules := config.Testing()
	rules.TrainsCount = 2
	rules.HiddenMapLayers = []int{10}
	store := testutil.NewMemStore()
	maps := testutil.Maps(t)
	g := recordGame(t, &rules, store, maps)

	obs := New(store, &rules, maps)
	require.NoError(t, obs.SelectGame(context.Background(), g.ID()))
	_, err := obs.Layer(10)
	assert.NoError(t, err)
}
