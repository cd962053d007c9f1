package ecs_test

import (
	"github.com/plus3/ooftn-persist/ecs"
)

// Common test component types
type Position struct {
	X, Y float32
}

type Velocity struct {
	DX, DY float32
}

type Name struct {
	Value string
}

type Health struct {
	Current int
	Max     int
}

type PlayerController struct{}

// Likes is a tag relation.
type Likes struct{}

// Owes is a relation carrying data.
type Owes struct {
	Amount int
}

// Custom primitive types for testing non-struct components
type Score int32

func newTestWorld() *ecs.World {
	w := ecs.New()
	ecs.Component[Position](w)
	ecs.Component[Velocity](w)
	ecs.Component[Name](w)
	ecs.Component[Health](w)
	ecs.Component[PlayerController](w)
	ecs.Component[Likes](w)
	ecs.Component[Owes](w)
	ecs.Component[Score](w)
	return w
}
