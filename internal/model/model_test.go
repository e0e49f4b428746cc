package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/railgo/internal/config"
)

func testLevels() (map[int]config.TownLevel, map[int]config.TrainLevel) {
	g := config.DefaultGame()
	return g.TownLevels, g.TrainLevels
}

func TestNewTrain(t *testing.T) {
	_, trainLevels := testLevels()
	train := NewTrain(1, trainLevels)
	assert.Equal(t, 1, train.Level)
	assert.Equal(t, 40, train.GoodsCapacity)
	assert.Equal(t, train.FuelCapacity, train.Fuel)
	assert.Equal(t, 40, train.NextLevelPrice)
}

func TestTrainSetLevel(t *testing.T) {
	_, trainLevels := testLevels()
	train := NewTrain(1, trainLevels)
	train.SetLevel(2, trainLevels)
	assert.Equal(t, 80, train.GoodsCapacity)
	assert.Equal(t, 800, train.FuelCapacity)
	assert.Equal(t, 80, train.NextLevelPrice)
}

func TestNewTownAppliesLevelTable(t *testing.T) {
	townLevels, _ := testLevels()
	town := NewTown(1, "town-one", 1, 3, 60, 100, townLevels)
	assert.Equal(t, 10, town.PopulationCapacity)
	assert.Equal(t, 200, town.ProductCapacity)
	assert.Equal(t, 2, town.TrainCooldown)
	assert.Equal(t, 100, town.NextLevelPrice)

	town.SetLevel(2, townLevels)
	assert.Equal(t, 20, town.PopulationCapacity)
	assert.Equal(t, 1, town.TrainCooldown)
}

func TestNewMarketAndStorageStartFull(t *testing.T) {
	market := NewMarket(2, "market", 3, 120, 5)
	assert.Equal(t, 120, market.Product)
	assert.Equal(t, 120, market.ProductCapacity)

	storage := NewStorage(3, "storage", 4, 48, 2)
	assert.Equal(t, 48, storage.Armor)
	assert.Equal(t, 48, storage.ArmorCapacity)
}

func TestLineEndpoints(t *testing.T) {
	line := &Line{Idx: 1, Length: 10, Points: [2]int{3, 7}}
	assert.True(t, line.HasPoint(3))
	assert.True(t, line.HasPoint(7))
	assert.False(t, line.HasPoint(5))
	assert.Equal(t, 3, line.EndpointAt(0))
	assert.Equal(t, 7, line.EndpointAt(10))
}

func TestRecalculateRating(t *testing.T) {
	rules := config.DefaultGame()
	p := NewPlayer("p1", "alice")
	town := NewTown(1, "town", 1, 3, 60, 100, rules.TownLevels)
	p.SetHome(&Point{Idx: 1, PostIdx: 1}, town)

	assert.Equal(t, 3*1000+60+100, p.RecalculateRating(&rules))
	assert.Equal(t, p.Rating, 3160)

	// Paid upgrades count double.
	train := NewTrain(1, rules.TrainLevels)
	p.AddTrain(train)
	train.SetLevel(3, rules.TrainLevels)
	town.SetLevel(2, rules.TownLevels)
	want := 3*1000 + 60 + 100 + 2*(40+80+100)
	assert.Equal(t, want, p.RecalculateRating(&rules))
}

func TestEventSerialization(t *testing.T) {
	data, err := json.Marshal(NewHijackersEvent(7, 3))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":2,"tick":7,"hijackers_power":3}`, string(data))

	// Kind-specific zero values survive the round trip.
	data, err = json.Marshal(NewGameOverEvent(9))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":100,"tick":9,"population":0}`, string(data))

	data, err = json.Marshal(NewProductLackEvent(4))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":6,"tick":4,"product":0}`, string(data))

	var event Event
	require.NoError(t, json.Unmarshal([]byte(`{"type":1,"tick":2,"train":5}`), &event))
	assert.Equal(t, EventTrainCollision, event.Type)
	require.NotNil(t, event.Train)
	assert.Equal(t, 5, *event.Train)
}

func TestSetHomeMarksOwnership(t *testing.T) {
	rules := config.DefaultGame()
	p := NewPlayer("p1", "alice")
	town := NewTown(1, "town", 1, 3, 60, 100, rules.TownLevels)
	p.SetHome(&Point{Idx: 1, PostIdx: 1}, town)
	assert.Equal(t, "p1", town.PlayerIdx)
	assert.Same(t, town, p.Town)
}
