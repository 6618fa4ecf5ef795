package naive

import "reflect"

// GetComponent returns a pointer to entity's component of type T, or nil if the
// entity doesn't carry one. The pointer aliases the archetype's backing slice,
// so mutations through it are visible to subsequent queries within the frame.
func GetComponent[T any](ecs *Ecs, id EntityId) *T {
	archId, ok := ecs.entityIndex[id]
	if !ok {
		return nil
	}
	arch := ecs.archetypes[archId]
	row := arch.entities[id]

	var zero T
	cid := ecs.getComponentId(reflect.TypeOf(zero))
	data, ok := arch.componentData[cid]
	if !ok {
		return nil
	}
	slice := data.([]T)
	return &slice[row]
}

// HasComponent reports whether an entity carries a component of type T.
func HasComponent[T any](ecs *Ecs, id EntityId) bool {
	return GetComponent[T](ecs, id) != nil
}

// Exists reports whether an entity is currently live in the world.
func (ecs *Ecs) Exists(id EntityId) bool {
	_, ok := ecs.entityIndex[id]
	return ok
}

// AllComponents returns a snapshot (copies) of every component value attached
// to an entity. Used by the command socket's query_entity.
func (ecs *Ecs) AllComponents(id EntityId) []any {
	archId, ok := ecs.entityIndex[id]
	if !ok {
		return nil
	}
	arch := ecs.archetypes[archId]
	row := arch.entities[id]

	res := make([]any, 0, len(arch.componentData))
	for _, data := range arch.componentData {
		res = append(res, reflectSliceGet(data, int(row)).Interface())
	}
	return res
}
