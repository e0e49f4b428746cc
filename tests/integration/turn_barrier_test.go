package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/udisondev/railgo/internal/protocol"
	"github.com/udisondev/railgo/internal/testutil"
)

// TestTurnBarrier verifies that a tick fires only once every seated player
// has called TURN, and that both waiters are then released together.
func TestTurnBarrier(t *testing.T) {
	skipShort(t)
	_, addr := startServer(t, "twin")

	alice := testutil.Dial(t, addr)
	alice.MustOkey(protocol.ActionLogin, `{"name":"alice","game":"duel","num_players":2}`)

	// The game has one empty seat, so a turn is not possible yet.
	msg := alice.MustFail(protocol.ActionTurn, "", protocol.ResultInappropriateGameState)
	assert.Equal(t, "Game state is not 'RUN', state: INIT", msg)

	bob := testutil.Dial(t, addr)
	bob.MustOkey(protocol.ActionLogin, `{"name":"bob","game":"duel","num_players":2}`)

	alice.MustOkey(protocol.ActionMove, `{"train_idx":1,"speed":1,"line_idx":1}`)

	aliceDone := make(chan protocol.Result, 1)
	go func() {
		result, _, err := alice.TryDo(protocol.ActionTurn, "")
		if err != nil {
			result = protocol.ResultInternalServerError
		}
		aliceDone <- result
	}()

	// Alice alone cannot push the tick through.
	select {
	case <-aliceDone:
		t.Fatal("turn completed before every player was ready")
	case <-time.After(200 * time.Millisecond):
	}

	start := time.Now()
	bob.MustOkey(protocol.ActionTurn, "")
	select {
	case result := <-aliceDone:
		assert.Equal(t, protocol.ResultOkey, result)
	case <-time.After(2 * time.Second):
		t.Fatal("first waiter was not released by the forced tick")
	}
	require.Less(t, time.Since(start), 5*time.Second,
		"the barrier must force the tick instead of waiting out the period")

	// The shared tick moved Alice's train.
	_, body := alice.Do(protocol.ActionMap, `{"layer":1}`)
	assert.Equal(t, int64(1), gjson.GetBytes(body, "trains.0.position").Int())
}

// TestTurnLimitEndsGame plays a capped game to its last tick.
func TestTurnLimitEndsGame(t *testing.T) {
	skipShort(t)
	store, addr := startServer(t, "linear")
	c := testutil.Dial(t, addr)
	c.MustOkey(protocol.ActionLogin, `{"name":"alice","game":"sprint","num_players":1,"num_turns":2}`)

	c.MustOkey(protocol.ActionTurn, "")
	c.MustOkey(protocol.ActionTurn, "")

	// After the cap the game finishes and refuses further turns.
	require.Eventually(t, func() bool {
		result, _ := c.Do(protocol.ActionTurn, "")
		return result == protocol.ResultInappropriateGameState
	}, 2*time.Second, 50*time.Millisecond)

	// The final summary lands on the game row.
	require.Eventually(t, func() bool {
		row, err := store.GetGame(context.Background(), 1, uint32(protocol.ActionTurn))
		return err == nil && row != nil && len(row.Data) > 0
	}, 2*time.Second, 50*time.Millisecond)

	row, err := store.GetGame(context.Background(), 1, uint32(protocol.ActionTurn))
	require.NoError(t, err)
	assert.Equal(t, "alice", gjson.GetBytes(row.Data, "*.name").String())
	assert.Equal(t, 2, row.Length)
}
