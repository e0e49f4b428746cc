package game

import (
	"log/slog"
	"time"

	"github.com/udisondev/railgo/internal/model"
	"github.com/udisondev/railgo/internal/protocol"
)

// runLoop drives ticks: every TickTime seconds, or earlier when every
// roster player has called TURN. Exits when the game leaves RUN.
func (g *Game) runLoop() {
	period := g.rules.TickPeriod()
	timer := time.NewTimer(period)
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
		case <-g.forceTick:
			if !timer.Stop() {
				<-timer.C
			}
		case <-g.stopCh:
			return
		}

		g.mu.Lock()
		if g.state != StateRun {
			g.mu.Unlock()
			return
		}
		g.tick()
		for _, p := range g.players {
			p.TurnCalled = false
		}
		// Release this tick's waiters and start a new generation.
		close(g.tickDone)
		g.tickDone = make(chan struct{})
		turnsDone := g.numTurns > 0 && g.currentTick >= g.numTurns
		g.mu.Unlock()

		// A force signal racing with the timer must not trigger a stale
		// extra tick.
		select {
		case <-g.forceTick:
		default:
		}

		if turnsDone {
			g.Finish("turn limit reached")
			return
		}
		timer.Reset(period)
	}
}

// tick advances the simulation by one step. Caller holds mu.
func (g *Game) tick() {
	g.currentTick++
	slog.Info("game tick", "game", g.name, "tick", g.currentTick)

	g.updateCooldowns()
	g.replenishPosts()
	g.moveTrains()
	g.handleCollisions()
	g.processTrainsAtPoints()
	g.updateTowns()
	g.refugeesArrival()
	g.hijackersAssault()
	g.parasitesAssault()
	g.recalculateRatings()
	g.retireEvents()

	if !g.observed && g.rec != nil {
		g.rec.Record(g.id, protocol.ActionTurn, nil, "")
	}
}

// updateCooldowns counts down random-event and train cooldowns at the
// beginning of the tick.
func (g *Game) updateCooldowns() {
	for event, cd := range g.eventCooldowns {
		if cd > 0 {
			g.eventCooldowns[event] = cd - 1
		}
	}
	for _, train := range g.m.sortedTrains() {
		if train.Cooldown > 0 {
			train.Cooldown--
		}
	}
}

// replenishPosts restores markets and storages toward capacity.
func (g *Game) replenishPosts() {
	for _, market := range g.m.markets {
		if market.Product < market.ProductCapacity {
			market.Product = min(market.Product+market.Replenishment, market.ProductCapacity)
		}
	}
	for _, storage := range g.m.storages {
		if storage.Armor < storage.ArmorCapacity {
			storage.Armor = min(storage.Armor+storage.Replenishment, storage.ArmorCapacity)
		}
	}
}

// moveTrains advances each train one position along its line and burns fuel.
// A train running out of fuel is towed home with a cooldown.
func (g *Game) moveTrains() {
	for _, train := range g.m.sortedTrains() {
		if g.rules.FuelEnabled && train.Speed != 0 {
			train.Fuel -= train.FuelConsumption
			if train.Fuel < 0 {
				g.putTrainIntoTown(train, true, true)
			}
		}
		line := g.m.Lines[train.LineIdx]
		if train.Speed > 0 && train.Position < line.Length {
			train.Position++
		} else if train.Speed < 0 && train.Position > 0 {
			train.Position--
		}
	}
}

// handleCollisions detects colliding train pairs and sends both trains of
// each pair home, empty and on cooldown. Two trains collide when they stand
// at the same point (towns excluded), when they occupy the same position of
// the same line, or when they are about to cross between adjacent positions.
func (g *Game) handleCollisions() {
	if !g.rules.CollisionsEnabled {
		return
	}

	type pair struct{ a, b *model.Train }
	var collisions []pair

	trains := g.m.sortedTrains()
	for i, t1 := range trains {
		line1 := g.m.Lines[t1.LineIdx]
		point1 := g.trainAtPoint(t1)
		for _, t2 := range trains[i+1:] {
			point2 := g.trainAtPoint(t2)

			if point1 != 0 && point1 == point2 {
				if postIdx := g.m.Points[point1].PostIdx; postIdx != 0 &&
					g.m.Posts[postIdx].Type == model.PostTown {
					continue
				}
				collisions = append(collisions, pair{t1, t2})
				continue
			}

			if line1.Idx != t2.LineIdx {
				continue
			}
			if t1.Position == t2.Position {
				if t1.Speed != 0 || t2.Speed != 0 {
					collisions = append(collisions, pair{t1, t2})
				}
				continue
			}
			if t1.Speed == 0 || t2.Speed == 0 {
				continue
			}
			// Head-on crossing: adjacent positions, opposite directions.
			dist := t1.Position - t2.Position
			if dist < 0 {
				dist = -dist
			}
			if dist == 1 && sign(t1.Speed)+sign(t2.Speed) == 0 {
				collisions = append(collisions, pair{t1, t2})
			}
		}
	}

	for _, c := range collisions {
		slog.Info("trains collision", "game", g.name, "trains", []int{c.a.Idx, c.b.Idx})
		g.putTrainIntoTown(c.a, true, true)
		g.putTrainIntoTown(c.b, true, true)
		c.a.Events = append(c.a.Events, model.NewCollisionEvent(g.currentTick, c.b.Idx))
		c.b.Events = append(c.b.Events, model.NewCollisionEvent(g.currentTick, c.a.Idx))
	}
}

// processTrainsAtPoints handles every train standing at a line endpoint:
// exchange goods with the local post and apply the postponed move, or stop.
func (g *Game) processTrainsAtPoints() {
	for _, train := range g.m.sortedTrains() {
		line := g.m.Lines[train.LineIdx]
		if train.Position != 0 && train.Position != line.Length {
			continue
		}
		pointIdx := line.EndpointAt(train.Position)
		if postIdx := g.m.Points[pointIdx].PostIdx; postIdx != 0 {
			g.trainInPost(train, g.m.Posts[postIdx])
		}
		g.applyNextTrainMove(train)
	}
}

// applyNextTrainMove switches the train onto its postponed line, or stops
// the train when no move is queued.
func (g *Game) applyNextTrainMove(train *model.Train) {
	next, ok := g.pendingMoves[train.Idx]
	if !ok {
		train.Speed = 0
		return
	}
	if next.lineIdx == train.LineIdx {
		line := g.m.Lines[train.LineIdx]
		if (train.Speed > 0 && train.Position == line.Length) ||
			(train.Speed < 0 && train.Position == 0) {
			train.Speed = 0
		}
		return
	}
	train.Speed = next.speed
	train.LineIdx = next.lineIdx
	if train.Speed > 0 {
		train.Position = 0
	} else if train.Speed < 0 {
		train.Position = g.m.Lines[train.LineIdx].Length
	}
}

// trainInPost exchanges goods between the train and the post it stands at.
// Towns absorb goods from their own trains and refuel them; markets and
// storages load the train up to its capacity.
func (g *Game) trainInPost(train *model.Train, post *model.Post) {
	switch {
	case post.Type == model.PostTown && train.PlayerIdx == post.PlayerIdx:
		goods := 0
		switch train.GoodsType {
		case model.PostMarket:
			goods = max(min(train.Goods, post.ProductCapacity-post.Product), 0)
			post.Product += goods
			if post.Product >= post.ProductCapacity {
				post.Events = append(post.Events, model.NewProductOverflowEvent(g.currentTick, post.Product))
			}
		case model.PostStorage:
			goods = max(min(train.Goods, post.ArmorCapacity-post.Armor), 0)
			post.Armor += goods
			if post.Armor >= post.ArmorCapacity {
				post.Events = append(post.Events, model.NewArmorOverflowEvent(g.currentTick, post.Armor))
			}
		}
		if g.rules.TrainAlwaysDevastated {
			train.Goods = 0
		} else {
			train.Goods -= goods
		}
		if train.Goods == 0 {
			train.GoodsType = 0
		}
		train.Fuel = train.FuelCapacity

	case post.Type == model.PostMarket:
		if train.GoodsType == 0 || train.GoodsType == post.Type {
			product := max(min(post.Product, train.GoodsCapacity-train.Goods), 0)
			post.Product -= product
			train.Goods += product
			train.GoodsType = post.Type
		}

	case post.Type == model.PostStorage:
		if train.GoodsType == 0 || train.GoodsType == post.Type {
			armor := max(min(post.Armor, train.GoodsCapacity-train.Goods), 0)
			post.Armor -= armor
			train.Goods += armor
			train.GoodsType = post.Type
		}
	}
}

// updateTowns feeds each town's population from its product stock. Hunger
// kills one citizen per tick; exhausted resources raise lack events, a
// dead town raises GAME_OVER.
func (g *Game) updateTowns() {
	for _, player := range g.sortedPlayers() {
		town := player.Town
		if town.Product < town.Population {
			town.Population = max(town.Population-1, 0)
		}
		town.Product = max(town.Product-town.Population, 0)
		if town.Population == 0 {
			town.Events = append(town.Events, model.NewGameOverEvent(g.currentTick))
		}
		if town.Product == 0 {
			town.Events = append(town.Events, model.NewProductLackEvent(g.currentTick))
		}
		if town.Armor == 0 {
			town.Events = append(town.Events, model.NewArmorLackEvent(g.currentTick))
		}
	}
}

// recalculateRatings refreshes each player's rating and the layer-1 table.
func (g *Game) recalculateRatings() {
	for _, player := range g.players {
		g.m.Ratings[player.Idx].Rating = player.RecalculateRating(g.rules)
	}
}

// retireEvents trims every event list to the newest MaxEventMessages.
func (g *Game) retireEvents() {
	keep := g.rules.MaxEventMessages
	for _, train := range g.m.Trains {
		if len(train.Events) > keep {
			train.Events = train.Events[len(train.Events)-keep:]
		}
	}
	for _, post := range g.m.Posts {
		if len(post.Events) > keep {
			post.Events = post.Events[len(post.Events)-keep:]
		}
	}
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
