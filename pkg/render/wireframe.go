package render

import (
	"image/color"

	"github.com/taigrr/porthole/pkg/math3d"
)

// EdgeMesh is the geometry surface the wireframe renderer consumes.
// models.Mesh implements it.
type EdgeMesh interface {
	EdgeCount() int
	Edge(i int) (a, b math3d.Vec3)
}

// Wireframe renders 3D wireframe geometry into a render target for one
// camera pose. Every segment is clipped against the camera's frustum before
// projection, so a frustum whose near half-space was replaced (see the portal
// frustum clipper) hides exactly the geometry behind that plane.
type Wireframe struct {
	camera  *Camera
	pose    math3d.Transform
	frustum Frustum
	target  *Target
}

// NewWireframe creates a wireframe renderer for one camera pass.
func NewWireframe(camera *Camera, pose math3d.Transform, frustum Frustum, target *Target) *Wireframe {
	return &Wireframe{
		camera:  camera,
		pose:    pose,
		frustum: frustum,
		target:  target,
	}
}

// DrawLine3D draws a world-space line segment, clipped to the frustum.
func (w *Wireframe) DrawLine3D(p1, p2 math3d.Vec3, c color.RGBA) {
	a, b, ok := clipSegment(p1, p2, w.frustum)
	if !ok {
		return
	}

	s1, ok1 := w.camera.WorldToViewport(w.pose, a, w.target.Width, w.target.Height)
	s2, ok2 := w.camera.WorldToViewport(w.pose, b, w.target.Width, w.target.Height)
	if !ok1 || !ok2 {
		return
	}

	w.target.DrawLine(int(s1.X), int(s1.Y), int(s2.X), int(s2.Y), c)
}

// clipSegment clips a segment against all frustum half-spaces.
// Returns the surviving portion, or ok=false if fully outside.
func clipSegment(a, b math3d.Vec3, f Frustum) (math3d.Vec3, math3d.Vec3, bool) {
	t0, t1 := 0.0, 1.0
	d := b.Sub(a)

	for i := range f.Planes {
		p := f.Planes[i]
		da := p.DistanceToPoint(a)
		denom := p.Normal.Dot(d)

		if denom == 0 {
			if da < 0 {
				return a, b, false
			}
			continue
		}

		t := -da / denom
		if denom < 0 {
			// leaving the half-space
			if t < t1 {
				t1 = t
			}
		} else {
			// entering the half-space
			if t > t0 {
				t0 = t
			}
		}
		if t0 > t1 {
			return a, b, false
		}
	}

	return a.Add(d.Scale(t0)), a.Add(d.Scale(t1)), true
}

// DrawMesh draws a mesh's edges transformed by a model matrix.
func (w *Wireframe) DrawMesh(mesh EdgeMesh, model math3d.Mat4, c color.RGBA) {
	for i := 0; i < mesh.EdgeCount(); i++ {
		a, b := mesh.Edge(i)
		w.DrawLine3D(model.MulVec3(a), model.MulVec3(b), c)
	}
}

// DrawCube draws an axis-aligned wireframe cube.
func (w *Wireframe) DrawCube(center math3d.Vec3, size float64, c color.RGBA) {
	half := size / 2

	vertices := [8]math3d.Vec3{
		{X: center.X - half, Y: center.Y - half, Z: center.Z - half},
		{X: center.X + half, Y: center.Y - half, Z: center.Z - half},
		{X: center.X + half, Y: center.Y + half, Z: center.Z - half},
		{X: center.X - half, Y: center.Y + half, Z: center.Z - half},
		{X: center.X - half, Y: center.Y - half, Z: center.Z + half},
		{X: center.X + half, Y: center.Y - half, Z: center.Z + half},
		{X: center.X + half, Y: center.Y + half, Z: center.Z + half},
		{X: center.X - half, Y: center.Y + half, Z: center.Z + half},
	}

	for _, edge := range cubeEdges {
		w.DrawLine3D(vertices[edge[0]], vertices[edge[1]], c)
	}
}

var cubeEdges = [12][2]int{
	// back face
	{0, 1}, {1, 2}, {2, 3}, {3, 0},
	// front face
	{4, 5}, {5, 6}, {6, 7}, {7, 4},
	// connecting edges
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

// DrawGrid draws a grid on the XZ plane at y=0.
func (w *Wireframe) DrawGrid(size, step float64, c color.RGBA) {
	half := size / 2
	for x := -half; x <= half; x += step {
		w.DrawLine3D(math3d.V3(x, 0, -half), math3d.V3(x, 0, half), c)
	}
	for z := -half; z <= half; z += step {
		w.DrawLine3D(math3d.V3(-half, 0, z), math3d.V3(half, 0, z), c)
	}
}

// DrawAxes draws the coordinate axes at the origin.
func (w *Wireframe) DrawAxes(length float64) {
	origin := math3d.Zero3()
	w.DrawLine3D(origin, math3d.V3(length, 0, 0), ColorRed)
	w.DrawLine3D(origin, math3d.V3(0, length, 0), ColorGreen)
	w.DrawLine3D(origin, math3d.V3(0, 0, length), ColorBlue)
}
