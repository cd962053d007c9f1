package ecs

// Commands provides a buffer for deferred world operations that are executed
// once the current system has finished. This prevents structural changes to
// the world while systems iterate over it.
type Commands struct {
	spawns  []spawnCommand
	deletes []Entity
	adds    []addCommand
	sets    []setCommand
	removes []removeCommand
	defers  []deferCommand
}

func newCommands() *Commands {
	return &Commands{}
}

type deferCommand struct {
	fn func()
}

type spawnCommand struct {
	components []any
}

type addCommand struct {
	entity Entity
	id     Id
}

type setCommand struct {
	entity    Entity
	component any
}

type removeCommand struct {
	entity Entity
	id     Id
}

// Defer queues a function execution operation.
func (c *Commands) Defer(fn func()) {
	c.defers = append(c.defers, deferCommand{fn: fn})
}

// Spawn queues an entity spawn operation with the given components.
func (c *Commands) Spawn(components ...any) {
	c.spawns = append(c.spawns, spawnCommand{components: components})
}

// Delete queues an entity deletion operation.
func (c *Commands) Delete(entity Entity) {
	c.deletes = append(c.deletes, entity)
}

// Add queues attaching an id (tag, component or pair) to an entity.
func (c *Commands) Add(entity Entity, id Id) {
	c.adds = append(c.adds, addCommand{entity: entity, id: id})
}

// SetComponent queues storing a component value, keyed by its Go type.
func (c *Commands) SetComponent(entity Entity, component any) {
	c.sets = append(c.sets, setCommand{entity: entity, component: component})
}

// Remove queues detaching an id from an entity.
func (c *Commands) Remove(entity Entity, id Id) {
	c.removes = append(c.removes, removeCommand{entity: entity, id: id})
}

// Flush applies all commands to the world, reseting the buffer state.
// Operations on entities deleted in the same flush are dropped.
func (c *Commands) Flush(w *World) {
	deletedEntities := make(map[Entity]bool)

	for _, e := range c.deletes {
		if !w.IsAlive(e) {
			continue
		}
		w.Delete(e)
		deletedEntities[e] = true
	}

	for _, cmd := range c.removes {
		if !deletedEntities[cmd.entity] && w.IsAlive(cmd.entity) {
			w.Remove(cmd.entity, cmd.id)
		}
	}

	for _, cmd := range c.adds {
		if !deletedEntities[cmd.entity] && w.IsAlive(cmd.entity) {
			w.Add(cmd.entity, cmd.id)
		}
	}

	for _, cmd := range c.sets {
		if !deletedEntities[cmd.entity] && w.IsAlive(cmd.entity) {
			w.SetComponent(cmd.entity, cmd.component)
		}
	}

	for _, cmd := range c.spawns {
		w.Spawn(cmd.components...)
	}

	for _, df := range c.defers {
		df.fn()
	}

	c.spawns = c.spawns[:0]
	c.deletes = c.deletes[:0]
	c.adds = c.adds[:0]
	c.sets = c.sets[:0]
	c.removes = c.removes[:0]
	c.defers = c.defers[:0]
}
