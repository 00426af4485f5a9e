package pick

import (
	"math"
	"sort"

	"github.com/taigrr/porthole/pkg/math3d"
	"github.com/taigrr/porthole/pkg/models"
	"github.com/taigrr/porthole/pkg/scene"
)

// Hit is a ray intersection with a registered mesh.
type Hit struct {
	Entity   scene.Entity
	Position math3d.Vec3 // world space
	Normal   math3d.Vec3 // world space, unit length
	Distance float64     // along the ray from its origin
}

// Backend holds pickable meshes keyed by entity and casts rays against them
// using the entities' world transforms.
type Backend struct {
	world  *scene.World
	meshes map[scene.Entity]*models.Mesh
}

// NewBackend creates a backend bound to a world.
func NewBackend(w *scene.World) *Backend {
	b := &Backend{
		world:  w,
		meshes: make(map[scene.Entity]*models.Mesh),
	}
	w.OnDespawn(func(_ *scene.World, e scene.Entity) {
		delete(b.meshes, e)
	})
	return b
}

// Register makes an entity's mesh pickable. A nil mesh unregisters.
func (b *Backend) Register(e scene.Entity, m *models.Mesh) {
	if m == nil {
		delete(b.meshes, e)
		return
	}
	b.meshes[e] = m
}

// Cast intersects the ray with every registered mesh and returns hits
// ordered near to far. Backfaces count; portal surfaces are pickable from
// either side and cull-mode filtering happens upstream.
func (b *Backend) Cast(ray Ray) []Hit {
	var hits []Hit
	for e, mesh := range b.meshes {
		pose, ok := b.world.WorldTransform(e)
		if !ok {
			continue
		}
		model := pose.Mat4()
		for i := range mesh.TriangleCount() {
			p0, p1, p2 := mesh.Triangle(i)
			a := model.MulVec3(p0)
			v1 := model.MulVec3(p1)
			v2 := model.MulVec3(p2)
			if t, ok := intersectTriangle(ray, a, v1, v2); ok {
				n := v1.Sub(a).Cross(v2.Sub(a)).Normalize()
				hits = append(hits, Hit{
					Entity:   e,
					Position: ray.At(t),
					Normal:   n,
					Distance: t,
				})
			}
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].Entity < hits[j].Entity
	})
	return hits
}

// CastFirst returns the nearest hit, if any.
func (b *Backend) CastFirst(ray Ray) (Hit, bool) {
	hits := b.Cast(ray)
	if len(hits) == 0 {
		return Hit{}, false
	}
	return hits[0], true
}

const intersectEpsilon = 1e-12

// intersectTriangle runs Moller-Trumbore against a single triangle and
// returns the ray parameter of the hit. Backfacing triangles hit too.
func intersectTriangle(ray Ray, v0, v1, v2 math3d.Vec3) (float64, bool) {
	edge1 := v1.Sub(v0)
	edge2 := v2.Sub(v0)

	h := ray.Dir.Cross(edge2)
	det := edge1.Dot(h)
	if math.Abs(det) < intersectEpsilon {
		return 0, false // ray parallel to triangle plane
	}

	invDet := 1 / det
	s := ray.Origin.Sub(v0)
	u := s.Dot(h) * invDet
	if u < 0 || u > 1 {
		return 0, false
	}

	q := s.Cross(edge1)
	v := ray.Dir.Dot(q) * invDet
	if v < 0 || u+v > 1 {
		return 0, false
	}

	t := edge2.Dot(q) * invDet
	if t <= intersectEpsilon {
		return 0, false
	}
	return t, true
}
