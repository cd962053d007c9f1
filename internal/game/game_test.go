package game_test

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/ooftn-persist/ecs"
	"github.com/plus3/ooftn-persist/internal/game"
	"github.com/plus3/ooftn-persist/persist"
)

func newWorld(t *testing.T) *ecs.World {
	t.Helper()
	w, err := game.NewWorld()
	require.NoError(t, err)
	return w
}

func spawnGoblin(w *ecs.World, name, unit string, pos game.Pos) ecs.Entity {
	e := w.NewNamed(name)
	ecs.Set(w, e, game.Health{Max: 5, Current: 5})
	ecs.Set(w, e, game.Unit{Name: unit})
	ecs.Set(w, e, pos)
	return e
}

func TestDamageEvent(t *testing.T) {
	w := newWorld(t)
	player := w.NewNamed("player")
	enemy := spawnGoblin(w, "gobbo", "Goblin McGobbo", game.Pos{})
	enemy2 := spawnGoblin(w, "gobbo 2", "Goblina McGobbo", game.Pos{})

	ev := game.NewDamageEvent(w, game.Cutting, 2, player, enemy, enemy2)
	game.NewScheduler(w).Once(1)

	assert.Equal(t, 3, ecs.Get[game.Health](w, enemy).Current)
	assert.Equal(t, 3, ecs.Get[game.Health](w, enemy2).Current)
	assert.False(t, w.IsAlive(ev))
	assert.Equal(t, []string{
		"Goblin McGobbo takes 2 Cutting damage.",
		"Goblina McGobbo takes 2 Cutting damage.",
	}, ecs.NewSingleton[game.MessageLog](w).Get().Messages)
}

func TestPushEvent(t *testing.T) {
	w := newWorld(t)
	player := w.NewNamed("player")
	enemy := spawnGoblin(w, "gobbo", "Goblin McGobbo", game.Pos{X: 3, Y: 2})
	enemy2 := spawnGoblin(w, "gobbo 2", "Goblina McGobbo", game.Pos{})

	ev := game.NewPushEvent(w, game.Pos{X: 1, Y: 1}, 1, player, enemy, enemy2)
	game.NewScheduler(w).Once(1)

	assert.Equal(t, game.Pos{X: 4, Y: 3}, *ecs.Get[game.Pos](w, enemy))
	assert.Equal(t, game.Pos{X: 1, Y: 1}, *ecs.Get[game.Pos](w, enemy2))
	assert.False(t, w.IsAlive(ev))
}

func TestRemoveDead(t *testing.T) {
	w := newWorld(t)
	player := w.NewNamed("player")
	enemy := spawnGoblin(w, "gobbo", "Goblin McGobbo", game.Pos{})

	game.NewDamageEvent(w, game.Fire, 5, player, enemy)
	scheduler := game.NewScheduler(w)
	scheduler.Once(1)

	assert.False(t, w.IsAlive(enemy))
	_, found := w.Lookup("gobbo")
	assert.False(t, found)
	messages := ecs.NewSingleton[game.MessageLog](w).Get().Messages
	assert.Equal(t, "Goblin McGobbo dies.", messages[len(messages)-1])
}

func TestSaveAndLoadAcrossWorlds(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 7))
	w := newWorld(t)
	game.Populate(w, 6, rng)
	scheduler := game.NewScheduler(w)
	for range 5 {
		game.Step(w, scheduler, rng)
	}

	snapshot, err := persist.Extract(w)
	require.NoError(t, err)
	text, err := persist.Marshal(snapshot)
	require.NoError(t, err)
	assert.NotContains(t, string(text), "DamageEvent")
	assert.NotContains(t, string(text), "Target")

	loaded, err := persist.Reload(persist.WorldFactory(game.Components), text)
	require.NoError(t, err)

	goblins := game.Goblins(w)
	require.Len(t, game.Goblins(loaded), len(goblins))
	for _, gobbo := range goblins {
		name := w.Name(gobbo)
		restored, ok := loaded.Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, ecs.Get[game.Health](w, gobbo), ecs.Get[game.Health](loaded, restored), name)
		assert.Equal(t, ecs.Get[game.Pos](w, gobbo), ecs.Get[game.Pos](loaded, restored), name)
		assert.Equal(t, ecs.Get[game.Unit](w, gobbo), ecs.Get[game.Unit](loaded, restored), name)
	}

	player, ok := loaded.Lookup("player")
	require.True(t, ok)
	assert.True(t, ecs.Has[game.Player](loaded, player))
	assert.Equal(t,
		ecs.NewSingleton[game.MessageLog](w).Get().Messages,
		ecs.NewSingleton[game.MessageLog](loaded).Get().Messages)

	// Both worlds keep playing the same game from here.
	rngA := rand.New(rand.NewPCG(9, 9))
	rngB := rand.New(rand.NewPCG(9, 9))
	loadedScheduler := game.NewScheduler(loaded)
	for range 5 {
		game.Step(w, scheduler, rngA)
		game.Step(loaded, loadedScheduler, rngB)
	}
	assert.Equal(t,
		ecs.NewSingleton[game.MessageLog](w).Get().Messages,
		ecs.NewSingleton[game.MessageLog](loaded).Get().Messages)
}
