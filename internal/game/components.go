package game

import (
	"fmt"

	"github.com/plus3/ooftn-persist/ecs"
	"github.com/plus3/ooftn-persist/persist"
)

type Player struct{}

type Unit struct {
	Name string `json:"name"`
}

type Health struct {
	Max     int `json:"max"`
	Current int `json:"current"`
}

type Pos struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Pos) Add(o Pos) Pos {
	return Pos{X: p.X + o.X, Y: p.Y + o.Y}
}

func (p Pos) Scale(n int) Pos {
	return Pos{X: p.X * n, Y: p.Y * n}
}

// MessageLog is the world-wide log shown to the player. It lives as a
// singleton.
type MessageLog struct {
	Messages []string `json:"messages"`
}

func (l *MessageLog) Addf(format string, args ...any) {
	l.Messages = append(l.Messages, fmt.Sprintf(format, args...))
}

type DamageKind int

const (
	Cutting DamageKind = iota
	Blunt
	Pierce
	Fire
)

func (k DamageKind) String() string {
	switch k {
	case Cutting:
		return "Cutting"
	case Blunt:
		return "Blunt"
	case Pierce:
		return "Pierce"
	case Fire:
		return "Fire"
	}
	return fmt.Sprintf("DamageKind(%d)", int(k))
}

// DamageEvent hits every entity its event entity targets. The event entity
// also carries the DamageKind.
type DamageEvent struct {
	Amount int
}

// PushEvent moves every targeted entity.
type PushEvent struct {
	Direction Pos
	Distance  int
}

// Target relates an event to an entity it affects.
type Target struct{}

// Origin relates an event to the entity that caused it.
type Origin struct{}

// Components registers the game types. Events and their relations are
// transient and are never saved.
var Components = persist.ModuleFunc(func(w *ecs.World) error {
	ecs.Component[Target](w)
	ecs.Component[Origin](w)
	ecs.Component[DamageEvent](w)
	ecs.Component[PushEvent](w)

	if _, err := persist.Component[Pos](w); err != nil {
		return err
	}
	if _, err := persist.Tag[Player](w); err != nil {
		return err
	}
	if _, err := persist.Component[Health](w); err != nil {
		return err
	}
	if _, err := persist.Component[Unit](w); err != nil {
		return err
	}
	if _, err := persist.Enum(w, Cutting, Blunt, Pierce, Fire); err != nil {
		return err
	}
	if _, err := persist.Component[MessageLog](w); err != nil {
		return err
	}
	ecs.NewSingleton(w, MessageLog{})
	return nil
})

// NewWorld creates an empty game world.
func NewWorld() (*ecs.World, error) {
	return persist.NewWorld(Components)
}

// NewDamageEvent spawns an event dealing amount damage of kind to targets.
func NewDamageEvent(w *ecs.World, kind DamageKind, amount int, origin ecs.Entity, targets ...ecs.Entity) ecs.Entity {
	ev := w.Spawn(DamageEvent{Amount: amount}, kind)
	link(w, ev, origin, targets)
	return ev
}

// NewPushEvent spawns an event pushing targets distance steps in direction.
func NewPushEvent(w *ecs.World, direction Pos, distance int, origin ecs.Entity, targets ...ecs.Entity) ecs.Entity {
	ev := w.Spawn(PushEvent{Direction: direction, Distance: distance})
	link(w, ev, origin, targets)
	return ev
}

func link(w *ecs.World, ev, origin ecs.Entity, targets []ecs.Entity) {
	ecs.AddFirst[Origin](w, ev, origin)
	for _, target := range targets {
		ecs.AddFirst[Target](w, ev, target)
	}
}

// Targets yields every entity the event targets.
func Targets(w *ecs.World, ev ecs.Entity) []ecs.Entity {
	relation, ok := ecs.ComponentOf[Target](w)
	if !ok {
		return nil
	}
	var targets []ecs.Entity
	for id := range w.Each(ev) {
		if id.IsPair() && id.First() == relation {
			targets = append(targets, id.Second())
		}
	}
	return targets
}
