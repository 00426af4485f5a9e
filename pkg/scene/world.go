// Package scene provides the entity world: spatial transforms, parent links,
// camera mounts, and lifecycle hooks that porthole's frame pipeline runs over.
package scene

import (
	"github.com/taigrr/porthole/pkg/math3d"
	"github.com/taigrr/porthole/pkg/render"
)

// Entity is a unique identifier for an entity. Zero is never a valid entity.
type Entity uint64

// DespawnHook is invoked for every entity being despawned, children first,
// while the entity's components are still readable.
type DespawnHook func(w *World, e Entity)

// World contains all entities and their components.
//
// The world is not safe for concurrent mutation; the frame pipeline runs its
// stages in a fixed order on one goroutine (see portal.Pipeline).
type World struct {
	nextID Entity

	alive    map[Entity]struct{}
	names    map[Entity]string
	parents  map[Entity]Entity
	children map[Entity][]Entity

	local map[Entity]math3d.Transform
	world map[Entity]math3d.Transform

	cameras map[Entity]*render.Camera
	frusta  map[Entity]render.Frustum

	despawnHooks []DespawnHook
}

// NewWorld creates an empty world.
func NewWorld() *World {
	return &World{
		nextID:   1,
		alive:    make(map[Entity]struct{}),
		names:    make(map[Entity]string),
		parents:  make(map[Entity]Entity),
		children: make(map[Entity][]Entity),
		local:    make(map[Entity]math3d.Transform),
		world:    make(map[Entity]math3d.Transform),
		cameras:  make(map[Entity]*render.Camera),
		frusta:   make(map[Entity]render.Frustum),
	}
}

// Spawn creates a new entity with an identity transform.
func (w *World) Spawn(name string) Entity {
	id := w.nextID
	w.nextID++
	w.alive[id] = struct{}{}
	if name != "" {
		w.names[id] = name
	}
	w.local[id] = math3d.TransformIdentity()
	w.world[id] = math3d.TransformIdentity()
	return id
}

// Despawn removes an entity and all of its descendants. Registered despawn
// hooks run for each removed entity, children first, while its components are
// still readable. Despawning a dead entity is a no-op.
func (w *World) Despawn(e Entity) {
	if !w.Alive(e) {
		return
	}

	for _, child := range append([]Entity(nil), w.children[e]...) {
		w.Despawn(child)
	}

	for _, hook := range w.despawnHooks {
		hook(w, e)
	}

	if parent, ok := w.parents[e]; ok {
		w.removeChild(parent, e)
	}
	delete(w.alive, e)
	delete(w.names, e)
	delete(w.parents, e)
	delete(w.children, e)
	delete(w.local, e)
	delete(w.world, e)
	delete(w.cameras, e)
	delete(w.frusta, e)
}

// OnDespawn registers a hook invoked for every despawned entity.
func (w *World) OnDespawn(hook DespawnHook) {
	w.despawnHooks = append(w.despawnHooks, hook)
}

// Alive reports whether the entity exists.
func (w *World) Alive(e Entity) bool {
	_, ok := w.alive[e]
	return ok
}

// Name returns the entity's diagnostic name, or "" if unnamed.
func (w *World) Name(e Entity) string {
	return w.names[e]
}

// SetParent links an entity under a parent for transform propagation.
// A zero parent detaches the entity back to the root set.
func (w *World) SetParent(e, parent Entity) {
	if !w.Alive(e) {
		return
	}
	if old, ok := w.parents[e]; ok {
		w.removeChild(old, e)
		delete(w.parents, e)
	}
	if parent != 0 && w.Alive(parent) {
		w.parents[e] = parent
		w.children[parent] = append(w.children[parent], e)
	}
}

func (w *World) removeChild(parent, child Entity) {
	kids := w.children[parent]
	for i, c := range kids {
		if c == child {
			kids[i] = kids[len(kids)-1]
			w.children[parent] = kids[:len(kids)-1]
			return
		}
	}
}

// SetTransform sets the entity's local transform.
func (w *World) SetTransform(e Entity, t math3d.Transform) {
	if w.Alive(e) {
		w.local[e] = t
	}
}

// SetWorldTransform sets the entity's world transform directly, bypassing
// propagation. Callers that reposition entities mid-frame set both the local
// and world transform so later stages observe a consistent pose.
func (w *World) SetWorldTransform(e Entity, t math3d.Transform) {
	if w.Alive(e) {
		w.world[e] = t
	}
}

// Transform returns the entity's local transform.
func (w *World) Transform(e Entity) (math3d.Transform, bool) {
	t, ok := w.local[e]
	return t, ok
}

// WorldTransform returns the entity's world transform as of the last
// propagation (or the last direct write).
func (w *World) WorldTransform(e Entity) (math3d.Transform, bool) {
	t, ok := w.world[e]
	return t, ok
}

// AttachCamera mounts a camera on the entity.
func (w *World) AttachCamera(e Entity, cam *render.Camera) {
	if w.Alive(e) {
		w.cameras[e] = cam
	}
}

// Camera returns the camera mounted on the entity, if any.
func (w *World) Camera(e Entity) (*render.Camera, bool) {
	cam, ok := w.cameras[e]
	return cam, ok
}

// Cameras returns all camera-bearing entities, ordered by camera render
// order (lower first) with entity id as the tie-breaker.
func (w *World) Cameras() []Entity {
	out := make([]Entity, 0, len(w.cameras))
	for e := range w.cameras {
		out = append(out, e)
	}
	// insertion sort; camera counts are tiny
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && w.cameraLess(out[j], out[j-1]); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

func (w *World) cameraLess(a, b Entity) bool {
	ca, cb := w.cameras[a], w.cameras[b]
	if ca.Order != cb.Order {
		return ca.Order < cb.Order
	}
	return a < b
}

// SetFrustum stores the view frustum for a camera-bearing entity.
func (w *World) SetFrustum(e Entity, f render.Frustum) {
	if w.Alive(e) {
		w.frusta[e] = f
	}
}

// Frustum returns the stored frustum for the entity.
func (w *World) Frustum(e Entity) (render.Frustum, bool) {
	f, ok := w.frusta[e]
	return f, ok
}

// PropagateTransforms recomputes world transforms from local transforms,
// parents before children. Entities without a parent copy local to world.
// This runs once per frame before any pose-consuming stage.
func (w *World) PropagateTransforms() {
	for e := range w.alive {
		if _, hasParent := w.parents[e]; !hasParent {
			w.propagateFrom(e, math3d.TransformIdentity(), false)
		}
	}
}

func (w *World) propagateFrom(e Entity, parentWorld math3d.Transform, hasParent bool) {
	local := w.local[e]
	if hasParent {
		w.world[e] = parentWorld.Mul(local)
	} else {
		w.world[e] = local
	}
	for _, child := range w.children[e] {
		w.propagateFrom(child, w.world[e], true)
	}
}

// EntityCount returns the number of live entities.
func (w *World) EntityCount() int {
	return len(w.alive)
}
