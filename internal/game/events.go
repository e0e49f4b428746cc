package game

import (
	"encoding/json"
	"log/slog"
	"math/rand"

	"github.com/udisondev/railgo/internal/config"
	"github.com/udisondev/railgo/internal/model"
	"github.com/udisondev/railgo/internal/protocol"
)

// hijackersAssault rolls the event when off cooldown. Never fires in
// observed games; those replay recorded events instead.
func (g *Game) hijackersAssault() {
	if g.eventCooldowns[model.EventHijackersAssault] > 0 || g.observed {
		return
	}
	if power, ok := roll(g.rules.Hijackers); ok {
		g.ApplyHijackersAssault(power)
	}
}

func (g *Game) parasitesAssault() {
	if g.eventCooldowns[model.EventParasitesAssault] > 0 || g.observed {
		return
	}
	if power, ok := roll(g.rules.Parasites); ok {
		g.ApplyParasitesAssault(power)
	}
}

func (g *Game) refugeesArrival() {
	if g.eventCooldowns[model.EventRefugeesArrival] > 0 || g.observed {
		return
	}
	if number, ok := roll(g.rules.Refugees); ok {
		g.ApplyRefugeesArrival(number)
	}
}

// roll draws the event: probability is a percentage, the power uniform from
// [PowerMin, PowerMax].
func roll(e config.RandomEvent) (int, bool) {
	if rand.Intn(100)+1 > e.Probability {
		return 0, false
	}
	return e.PowerMin + rand.Intn(e.PowerMax-e.PowerMin+1), true
}

// ApplyHijackersAssault reduces every town's armor by the given power; the
// unabsorbed remainder kills population. Exported so the observer can
// replay recorded assaults deterministically.
func (g *Game) ApplyHijackersAssault(power int) {
	slog.Info("hijackers assault", "game", g.name, "power", power)
	event := model.NewHijackersEvent(g.currentTick, power)
	for _, player := range g.sortedPlayers() {
		town := player.Town
		town.Population = max(town.Population-max(power-town.Armor, 0), 0)
		town.Armor = max(town.Armor-power, 0)
		town.Events = append(town.Events, event)
	}
	g.eventCooldowns[model.EventHijackersAssault] = power * g.rules.Hijackers.CooldownCoefficient
	g.recordEvent(event)
}

// ApplyParasitesAssault reduces every town's product by the given power.
func (g *Game) ApplyParasitesAssault(power int) {
	slog.Info("parasites assault", "game", g.name, "power", power)
	event := model.NewParasitesEvent(g.currentTick, power)
	for _, player := range g.sortedPlayers() {
		town := player.Town
		town.Product = max(town.Product-power, 0)
		town.Events = append(town.Events, event)
	}
	g.eventCooldowns[model.EventParasitesAssault] = power * g.rules.Parasites.CooldownCoefficient
	g.recordEvent(event)
}

// ApplyRefugeesArrival grows every town's population up to its capacity.
func (g *Game) ApplyRefugeesArrival(number int) {
	slog.Info("refugees arrival", "game", g.name, "number", number)
	event := model.NewRefugeesEvent(g.currentTick, number)
	for _, player := range g.sortedPlayers() {
		town := player.Town
		town.Population += max(min(town.PopulationCapacity-town.Population, number), 0)
		town.Events = append(town.Events, event)
		if town.Population == town.PopulationCapacity {
			town.Events = append(town.Events,
				model.NewPopulationOverflowEvent(g.currentTick, town.Population))
		}
	}
	g.eventCooldowns[model.EventRefugeesArrival] = number * g.rules.Refugees.CooldownCoefficient
	g.recordEvent(event)
}

func (g *Game) recordEvent(event model.Event) {
	if g.observed || g.rec == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("failed to encode event", "game", g.name, "err", err)
		return
	}
	g.rec.Record(g.id, protocol.ActionEvent, data, "")
}
