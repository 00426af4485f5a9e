package render

import (
	"math"

	"github.com/taigrr/porthole/pkg/math3d"
)

// Tonemapping selects the tone-mapping curve applied on presentation.
type Tonemapping int

const (
	TonemappingNone Tonemapping = iota
	TonemappingReinhard
	TonemappingACES
)

// ColorGrading holds post-exposure color adjustment parameters.
type ColorGrading struct {
	Saturation float64
	Contrast   float64
	Gamma      float64
}

// DefaultColorGrading returns neutral grading.
func DefaultColorGrading() ColorGrading {
	return ColorGrading{Saturation: 1, Contrast: 1, Gamma: 1}
}

// Projection holds perspective projection parameters.
type Projection struct {
	FOVY   float64 // vertical field of view in radians
	Aspect float64 // width / height
	Near   float64
	Far    float64
}

// Viewport is an explicit render region in physical pixels.
type Viewport struct {
	X, Y          int
	Width, Height int
}

// OutputKind distinguishes where a camera's image goes.
type OutputKind int

const (
	// OutputSurface renders to the primary output surface (the terminal).
	OutputSurface OutputKind = iota
	// OutputTexture renders to an off-screen render target.
	OutputTexture
)

// Output wires a camera to its destination.
type Output struct {
	Kind   OutputKind
	Target TargetHandle // valid when Kind == OutputTexture
}

// Camera is a camera parameter snapshot plus output wiring. The camera's pose
// lives on its entity's transform, not here; view matrices are computed from
// a pose passed in by the caller.
type Camera struct {
	Projection   Projection
	Exposure     float64
	Tonemapping  Tonemapping
	ColorGrading ColorGrading

	// Order is the render priority: lower orders draw first.
	Order int

	// Viewport, when set, overrides output-surface sizing.
	Viewport *Viewport

	Output Output
}

// NewCamera creates a camera with default settings rendering to the surface.
func NewCamera() *Camera {
	return &Camera{
		Projection: Projection{
			FOVY:   math.Pi / 3, // 60 degrees
			Aspect: 16.0 / 9.0,
			Near:   0.1,
			Far:    1000,
		},
		Exposure:     1,
		ColorGrading: DefaultColorGrading(),
	}
}

// Snapshot returns a copy of the camera's rendering parameters, without the
// output wiring or render order. Used when a derived camera inherits another
// camera's look.
func (c *Camera) Snapshot() Camera {
	cp := *c
	cp.Viewport = nil
	cp.Output = Output{}
	cp.Order = 0
	if c.Viewport != nil {
		vp := *c.Viewport
		cp.Viewport = &vp
	}
	return cp
}

// ProjectionMatrix returns the perspective projection matrix.
func (c *Camera) ProjectionMatrix() math3d.Mat4 {
	return math3d.Perspective(c.Projection.FOVY, c.Projection.Aspect, c.Projection.Near, c.Projection.Far)
}

// ViewMatrix returns the view matrix for the given camera pose.
func ViewMatrix(pose math3d.Transform) math3d.Mat4 {
	rot := pose.Rotation.Inverse().Mat4()
	trans := math3d.Translate(pose.Translation.Negate())
	return rot.Mul(trans)
}

// ViewProjection returns the combined view-projection matrix for a pose.
func (c *Camera) ViewProjection(pose math3d.Transform) math3d.Mat4 {
	return c.ProjectionMatrix().Mul(ViewMatrix(pose))
}

// WorldToViewport projects a world-space point into pixel coordinates of a
// width x height output viewed from the given pose. The bool result is false
// when the point does not project (on or behind the viewing plane). Points
// outside the viewport bounds still project; callers that care reject on
// their own.
func (c *Camera) WorldToViewport(pose math3d.Transform, worldPos math3d.Vec3, width, height int) (math3d.Vec2, bool) {
	clip := c.ViewProjection(pose).MulVec4(math3d.V4FromV3(worldPos, 1))
	if clip.W <= 0 {
		return math3d.Vec2{}, false
	}

	ndc := clip.PerspectiveDivide()
	x := (ndc.X + 1) * 0.5 * float64(width)
	y := (1 - ndc.Y) * 0.5 * float64(height) // Y is flipped
	return math3d.V2(x, y), true
}
