package game

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/plus3/ooftn-persist/ecs"
)

var directions = []Pos{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

// Populate spawns the player and n goblins around the origin.
func Populate(w *ecs.World, n int, rng *rand.Rand) ecs.Entity {
	player := w.NewNamed("player")
	ecs.AddTag[Player](w, player)
	ecs.Set(w, player, Unit{Name: "Hero"})
	ecs.Set(w, player, Health{Max: 10, Current: 10})
	ecs.Set(w, player, Pos{})

	for i := range n {
		gobbo := w.NewNamed(fmt.Sprintf("gobbo %d", i+1))
		ecs.Set(w, gobbo, Unit{Name: fmt.Sprintf("Goblin #%d", i+1)})
		ecs.Set(w, gobbo, Health{Max: 5, Current: 5})
		ecs.Set(w, gobbo, Pos{X: rng.IntN(21) - 10, Y: rng.IntN(21) - 10})
	}
	return player
}

// Step lets the player hit and shove random goblins, then runs one frame.
func Step(w *ecs.World, scheduler *ecs.Scheduler, rng *rand.Rand) {
	player, ok := w.Lookup("player")
	if !ok {
		scheduler.Once(1)
		return
	}
	goblins := Goblins(w)
	if len(goblins) > 0 {
		target := goblins[rng.IntN(len(goblins))]
		NewDamageEvent(w, DamageKind(rng.IntN(4)), 1+rng.IntN(2), player, target)
		shoved := goblins[rng.IntN(len(goblins))]
		NewPushEvent(w, directions[rng.IntN(len(directions))], 1, player, shoved)
	}
	scheduler.Once(1)
}

// Goblins returns the living units that are not the player, ordered by id.
func Goblins(w *ecs.World) []ecs.Entity {
	view := ecs.NewView[struct {
		*Unit
		*Health
	}](w)
	var goblins []ecs.Entity
	for e := range view.Iter() {
		if !ecs.Has[Player](w, e) {
			goblins = append(goblins, e)
		}
	}
	slices.Sort(goblins)
	return goblins
}
