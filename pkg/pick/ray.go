// Package pick casts rays against scene geometry and reports ordered hits.
package pick

import (
	"github.com/taigrr/porthole/pkg/math3d"
	"github.com/taigrr/porthole/pkg/render"
)

// Ray is a half-line in world space. Dir is unit length.
type Ray struct {
	Origin math3d.Vec3
	Dir    math3d.Vec3
}

// At returns the point at parameter t along the ray.
func (r Ray) At(t float64) math3d.Vec3 {
	return r.Origin.Add(r.Dir.Scale(t))
}

// ScreenPointToRay builds a world-space ray through the given pixel of a
// width x height viewport seen by the camera at pose. The bool result is
// false when the view-projection is not invertible.
func ScreenPointToRay(cam *render.Camera, pose math3d.Transform, px math3d.Vec2, width, height int) (Ray, bool) {
	if width <= 0 || height <= 0 {
		return Ray{}, false
	}

	ndcX := 2*px.X/float64(width) - 1
	ndcY := 1 - 2*px.Y/float64(height) // pixel Y grows downward

	inv := cam.ViewProjection(pose).Inverse()

	near := inv.MulVec4(math3d.V4(ndcX, ndcY, -1, 1))
	far := inv.MulVec4(math3d.V4(ndcX, ndcY, 1, 1))
	if near.W == 0 || far.W == 0 {
		return Ray{}, false
	}

	nearPt := near.PerspectiveDivide()
	farPt := far.PerspectiveDivide()

	dir := farPt.Sub(nearPt).Normalize()
	if dir.Len() == 0 {
		return Ray{}, false
	}

	return Ray{Origin: pose.Translation, Dir: dir}, true
}
