package game

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/railgo/internal/model"
	"github.com/udisondev/railgo/internal/protocol"
	"github.com/udisondev/railgo/internal/testutil"
)

func TestApplyHijackersAssault(t *testing.T) {
	rules := testRules()
	g, players := newObservedGame(t, rules, "twin", "p1", "p2")
	players[0].Town.Armor = 1

	g.ApplyHijackersAssault(5)

	// Armor 1 absorbs one point; the remaining four kill population.
	assert.Equal(t, 0, players[0].Town.Population)
	assert.Equal(t, 0, players[0].Town.Armor)

	// The second town's armor holds.
	assert.Equal(t, 3, players[1].Town.Population)
	assert.Equal(t, 95, players[1].Town.Armor)

	assert.Equal(t, 5*rules.Hijackers.CooldownCoefficient,
		g.eventCooldowns[model.EventHijackersAssault])

	for _, p := range players {
		require.NotEmpty(t, p.Town.Events)
		event := p.Town.Events[len(p.Town.Events)-1]
		assert.Equal(t, model.EventHijackersAssault, event.Type)
		require.NotNil(t, event.HijackersPower)
		assert.Equal(t, 5, *event.HijackersPower)
	}
}

func TestApplyParasitesAssault(t *testing.T) {
	rules := testRules()
	g, players := newObservedGame(t, rules, "twin", "p1", "p2")

	g.ApplyParasitesAssault(4)
	assert.Equal(t, 196, players[0].Town.Product)
	assert.Equal(t, 196, players[1].Town.Product)
	assert.Equal(t, 4*rules.Parasites.CooldownCoefficient,
		g.eventCooldowns[model.EventParasitesAssault])
}

func TestApplyRefugeesArrival(t *testing.T) {
	g, players := newObservedGame(t, testRules(), "linear", "p1")
	town := players[0].Town

	g.ApplyRefugeesArrival(4)
	assert.Equal(t, 7, town.Population)
}

func TestApplyRefugeesArrivalClampsAtCapacity(t *testing.T) {
	g, players := newObservedGame(t, testRules(), "linear", "p1")
	town := players[0].Town
	town.Population = 8

	g.ApplyRefugeesArrival(5)
	assert.Equal(t, town.PopulationCapacity, town.Population)

	var overflow bool
	for _, e := range town.Events {
		if e.Type == model.EventResourceOverflow && e.Population != nil {
			overflow = true
		}
	}
	assert.True(t, overflow)
}

func TestEventsAreRecorded(t *testing.T) {
	store := testutil.NewMemStore()
	g, _ := newRecordedGame(t, testRules(), store, -1, "p1")

	g.ApplyHijackersAssault(2)

	rows := store.Actions(g.ID())
	require.Len(t, rows, 1)
	assert.Equal(t, uint32(protocol.ActionEvent), rows[0].Code)

	var event model.Event
	require.NoError(t, json.Unmarshal(rows[0].Message, &event))
	assert.Equal(t, model.EventHijackersAssault, event.Type)
	require.NotNil(t, event.HijackersPower)
	assert.Equal(t, 2, *event.HijackersPower)
}

func TestDisabledEventsNeverFire(t *testing.T) {
	store := testutil.NewMemStore()
	g, players := newRecordedGame(t, testRules(), store, -1, "p1")
	// Probability zero keeps scenarios deterministic.
	for i := 0; i < 20; i++ {
		g.Tick()
	}
	for _, e := range players[0].Town.Events {
		assert.NotEqual(t, model.EventHijackersAssault, e.Type)
		assert.NotEqual(t, model.EventParasitesAssault, e.Type)
		assert.NotEqual(t, model.EventRefugeesArrival, e.Type)
	}
}
