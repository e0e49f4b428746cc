package testutil

import (
	"fmt"
	"testing"

	"github.com/udisondev/railgo/internal/mapdata"
)

// linearMapYAML is a chain of ten points connected by nine lines of length
// ten, with the only town at point 1 and a market at the far end. Trains
// start parked on line 1 at position 0 and can run the whole chain forward.
const linearMapYAML = `
name: linear
size: [330, 100]
points: [[10, 50], [42, 50], [74, 50], [106, 50], [138, 50], [170, 50], [202, 50], [234, 50], [266, 50], [298, 50]]
posts:
  - {point: 1, name: town-one, type: 1, population: 3, product: 200, armor: 100}
  - {point: 10, name: market-far, type: 2, product: 120, replenishment: 5}
lines:
  - [10, 1, 2]
  - [10, 2, 3]
  - [10, 3, 4]
  - [10, 4, 5]
  - [10, 5, 6]
  - [10, 6, 7]
  - [10, 7, 8]
  - [10, 8, 9]
  - [10, 9, 10]
`

// twinMapYAML is a two-town map: each town sits at one end of a shared
// middle line, with a market and a storage on side branches. Used by
// multi-player and collision scenarios.
const twinMapYAML = `
name: twin
size: [200, 200]
points: [[10, 100], [100, 100], [190, 100], [100, 10], [100, 190]]
posts:
  - {point: 1, name: town-west, type: 1, population: 3, product: 200, armor: 100}
  - {point: 3, name: town-east, type: 1, population: 3, product: 200, armor: 100}
  - {point: 4, name: market-north, type: 2, product: 100, replenishment: 2}
  - {point: 5, name: storage-south, type: 3, armor: 100, replenishment: 2}
lines:
  - [4, 1, 2]
  - [4, 2, 3]
  - [3, 2, 4]
  - [3, 2, 5]
`

// LinearMap parses the linear fixture map.
func LinearMap(tb testing.TB) *mapdata.Definition {
	tb.Helper()
	return mustParse(tb, linearMapYAML)
}

// TwinMap parses the two-town fixture map.
func TwinMap(tb testing.TB) *mapdata.Definition {
	tb.Helper()
	return mustParse(tb, twinMapYAML)
}

// Maps builds a map store over the fixture maps, linear first.
func Maps(tb testing.TB) *mapdata.Store {
	tb.Helper()
	store := mapdata.NewStore(LinearMap(tb), TwinMap(tb))
	if err := store.SetActive("linear"); err != nil {
		tb.Fatal(err)
	}
	return store
}

func mustParse(tb testing.TB, src string) *mapdata.Definition {
	tb.Helper()
	def, err := mapdata.Parse([]byte(src))
	if err != nil {
		tb.Fatal(fmt.Errorf("parsing fixture map: %w", err))
	}
	return def
}
