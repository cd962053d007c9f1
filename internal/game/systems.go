package game

import (
	"github.com/plus3/ooftn-persist/ecs"
)

type DamageSystem struct {
	Log    ecs.Singleton[MessageLog]
	Events ecs.Query[struct {
		*DamageEvent
		*DamageKind
	}]
}

func (s *DamageSystem) Execute(frame *ecs.UpdateFrame) {
	w := frame.World
	log := s.Log.Get()
	for ev, event := range s.Events.Iter() {
		for _, target := range Targets(w, ev) {
			hp := ecs.Get[Health](w, target)
			unit := ecs.Get[Unit](w, target)
			if hp == nil || unit == nil {
				continue
			}
			log.Addf("%s takes %d %s damage.", unit.Name, event.Amount, *event.DamageKind)
			hp.Current -= event.Amount
		}
	}
}

type PushSystem struct {
	Log    ecs.Singleton[MessageLog]
	Events ecs.Query[struct {
		*PushEvent
	}]
}

func (s *PushSystem) Execute(frame *ecs.UpdateFrame) {
	w := frame.World
	log := s.Log.Get()
	for ev, event := range s.Events.Iter() {
		for _, target := range Targets(w, ev) {
			pos := ecs.Get[Pos](w, target)
			unit := ecs.Get[Unit](w, target)
			if pos == nil || unit == nil {
				continue
			}
			log.Addf("%s gets pushed.", unit.Name)
			*pos = pos.Add(event.Direction.Scale(event.Distance))
		}
	}
}

// EventCleanupSystem deletes events once every handler has seen them.
type EventCleanupSystem struct {
	Damage ecs.Query[struct{ *DamageEvent }]
	Push   ecs.Query[struct{ *PushEvent }]
}

func (s *EventCleanupSystem) Execute(frame *ecs.UpdateFrame) {
	for ev := range s.Damage.Iter() {
		frame.Commands.Delete(ev)
	}
	for ev := range s.Push.Iter() {
		frame.Commands.Delete(ev)
	}
}

type RemoveDeadSystem struct {
	Log   ecs.Singleton[MessageLog]
	Units ecs.Query[struct {
		*Unit
		*Health
	}]
}

func (s *RemoveDeadSystem) Execute(frame *ecs.UpdateFrame) {
	log := s.Log.Get()
	for e, unit := range s.Units.Iter() {
		if unit.Health.Current <= 0 {
			log.Addf("%s dies.", unit.Unit.Name)
			frame.Commands.Delete(e)
		}
	}
}

// NewScheduler registers the game systems in the order they must run.
func NewScheduler(w *ecs.World) *ecs.Scheduler {
	scheduler := ecs.NewScheduler(w)
	scheduler.Register(&DamageSystem{})
	scheduler.Register(&PushSystem{})
	scheduler.Register(&EventCleanupSystem{})
	scheduler.Register(&RemoveDeadSystem{})
	return scheduler
}
