package portal

import (
	"io"
	"math"
	"testing"

	"github.com/taigrr/porthole/pkg/math3d"
	"github.com/taigrr/porthole/pkg/render"
	"github.com/taigrr/porthole/pkg/scene"
)

const epsilon = 1e-9

func vec3Close(a, b math3d.Vec3) bool {
	return math.Abs(a.X-b.X) < epsilon &&
		math.Abs(a.Y-b.Y) < epsilon &&
		math.Abs(a.Z-b.Z) < epsilon
}

func quatClose(a, b math3d.Quat) bool {
	// q and -q are the same rotation
	d := math.Abs(a.Dot(b))
	return math.Abs(d-1) < epsilon
}

// rig is a minimal world with a primary camera, a portal surface, and a
// target anchor, with the portal attached and linked.
type rig struct {
	world   *scene.World
	manager *Manager
	primary scene.Entity
	surface scene.Entity
	anchor  scene.Entity
	portal  *Portal
}

func newRig(t *testing.T, primaryPose, surfacePose, anchorPose math3d.Transform) *rig {
	t.Helper()

	w := scene.NewWorld()
	m := NewManager(w, 200, 100)
	m.SetLogOutput(io.Discard)

	primary := w.Spawn("primary")
	w.AttachCamera(primary, render.NewCamera())
	w.SetTransform(primary, primaryPose)

	surface := w.Spawn("portal")
	w.SetTransform(surface, surfacePose)

	anchor := w.Spawn("anchor")
	w.SetTransform(anchor, anchorPose)

	w.PropagateTransforms()

	p := New(primary, anchor)
	m.Attach(surface, p)
	if p.Linked == 0 {
		t.Fatal("portal did not link")
	}

	return &rig{world: w, manager: m, primary: primary, surface: surface, anchor: anchor, portal: p}
}

func (r *rig) secondaryPose(t *testing.T) math3d.Transform {
	t.Helper()
	pose, ok := r.world.WorldTransform(r.portal.Linked)
	if !ok {
		t.Fatal("secondary viewpoint has no world transform")
	}
	return pose
}

func TestSyncTranslationClosedForm(t *testing.T) {
	p := math3d.TransformAt(math3d.V3(1, 2, 3))
	s := math3d.TransformAt(math3d.V3(-4, 0, 7))
	a := math3d.TransformAt(math3d.V3(10, -5, 2))

	r := newRig(t, p, s, a)
	r.manager.SyncTransforms()

	got := r.secondaryPose(t)
	want := p.Translation.Sub(s.Translation).Add(a.Translation)
	if !vec3Close(got.Translation, want) {
		t.Errorf("secondary translation = %v, want %v", got.Translation, want)
	}
	if !quatClose(got.Rotation, p.Rotation) {
		t.Errorf("secondary rotation = %v, want primary rotation %v", got.Rotation, p.Rotation)
	}
}

func TestSyncSelfReferencingPortalIsIdentity(t *testing.T) {
	// surface and anchor share a pose: the portal maps the world onto itself
	pose := math3d.TransformAt(math3d.V3(3, 1, -2))
	pose.Rotation = math3d.QuatFromAxisAngle(math3d.V3(0, 1, 0), 0.7)

	primary := math3d.TransformAt(math3d.V3(8, 2, 5))
	primary.Rotation = math3d.QuatFromAxisAngle(math3d.V3(1, 0, 0), -0.3)

	w := scene.NewWorld()
	m := NewManager(w, 200, 100)
	m.SetLogOutput(io.Discard)

	prim := w.Spawn("primary")
	w.AttachCamera(prim, render.NewCamera())
	w.SetTransform(prim, primary)

	both := w.Spawn("portal")
	w.SetTransform(both, pose)
	w.PropagateTransforms()

	p := New(prim, both)
	m.Attach(both, p)
	if p.Linked == 0 {
		t.Fatal("portal did not link")
	}
	m.SyncTransforms()

	got, _ := w.WorldTransform(p.Linked)
	if !vec3Close(got.Translation, primary.Translation) {
		t.Errorf("translation = %v, want %v", got.Translation, primary.Translation)
	}
	if !quatClose(got.Rotation, primary.Rotation) {
		t.Errorf("rotation = %v, want %v", got.Rotation, primary.Rotation)
	}
}

func TestSyncRotatedAnchor(t *testing.T) {
	// anchor faces +X: the surface-to-anchor delta is a 90 degree yaw
	anchor := math3d.TransformAt(math3d.V3(10, 0, 0))
	anchor.Rotation = math3d.QuatFromAxisAngle(math3d.V3(0, 1, 0), -math.Pi/2)

	// primary one unit in front of the surface at the origin
	primary := math3d.TransformAt(math3d.V3(0, 0, 1))

	r := newRig(t, primary, math3d.TransformIdentity(), anchor)
	r.manager.SyncTransforms()

	got := r.secondaryPose(t)
	// the viewer's offset from the surface re-applies from the anchor,
	// rotated into the anchor frame: one unit along world -X here
	want := anchor.Translation.Add(anchor.Rotation.Rotate(primary.Translation))
	if !vec3Close(want, math3d.V3(9, 0, 0)) {
		t.Fatalf("test setup broken: expected offset (9,0,0), got %v", want)
	}
	if !vec3Close(got.Translation, want) {
		t.Errorf("translation = %v, want %v", got.Translation, want)
	}
	if !quatClose(got.Rotation, anchor.Rotation.Mul(primary.Rotation)) {
		t.Errorf("rotation = %v, want %v", got.Rotation, anchor.Rotation.Mul(primary.Rotation))
	}
}

func TestSyncPrimaryRotationEquivariance(t *testing.T) {
	surface := math3d.TransformAt(math3d.V3(0, 0, -5))
	anchor := math3d.TransformAt(math3d.V3(20, 0, 0))
	anchor.Rotation = math3d.QuatFromAxisAngle(math3d.V3(0, 1, 0), 1.1)
	delta := surface.Rotation.Inverse().Mul(anchor.Rotation)

	primary := math3d.TransformAt(math3d.V3(0, 0, 0))

	r := newRig(t, primary, surface, anchor)
	r.manager.SyncTransforms()
	before := r.secondaryPose(t)

	// rotate the primary; the secondary rotates by the same delta expressed
	// through the surface-to-anchor frame mapping
	turn := math3d.QuatFromAxisAngle(math3d.V3(0, 1, 0), 0.4)
	rotated := primary
	rotated.Rotation = turn.Mul(primary.Rotation)
	r.world.SetTransform(r.primary, rotated)
	r.world.PropagateTransforms()
	r.manager.SyncTransforms()
	after := r.secondaryPose(t)

	want := delta.Mul(turn.Mul(primary.Rotation))
	if !quatClose(after.Rotation, want) {
		t.Errorf("rotated secondary = %v, want %v", after.Rotation, want)
	}
	if !quatClose(before.Rotation, delta.Mul(primary.Rotation)) {
		t.Errorf("baseline secondary = %v, want %v", before.Rotation, delta.Mul(primary.Rotation))
	}
}

func TestSyncSkipsUnresolvablePrimary(t *testing.T) {
	r := newRig(t, math3d.TransformAt(math3d.V3(0, 0, 5)), math3d.TransformIdentity(), math3d.TransformAt(math3d.V3(10, 0, 0)))
	r.manager.SyncTransforms()
	before := r.secondaryPose(t)

	// a dead primary makes the portal skip, not fault; the stale pose stays
	r.world.Despawn(r.primary)
	r.manager.SyncTransforms()
	after := r.secondaryPose(t)

	if !vec3Close(before.Translation, after.Translation) {
		t.Errorf("pose changed after primary despawn: %v -> %v", before.Translation, after.Translation)
	}
}

func TestSyncWritesLocalAndWorld(t *testing.T) {
	r := newRig(t, math3d.TransformAt(math3d.V3(1, 1, 1)), math3d.TransformIdentity(), math3d.TransformAt(math3d.V3(5, 0, 0)))
	r.manager.SyncTransforms()

	local, _ := r.world.Transform(r.portal.Linked)
	world, _ := r.world.WorldTransform(r.portal.Linked)
	if !vec3Close(local.Translation, world.Translation) {
		t.Errorf("local %v and world %v desynchronized", local.Translation, world.Translation)
	}
}

func TestClipNearPlaneOnAnchor(t *testing.T) {
	anchor := math3d.TransformAt(math3d.V3(10, 2, -3))
	anchor.Rotation = math3d.QuatFromAxisAngle(math3d.V3(0, 1, 0), 0.9)

	r := newRig(t, math3d.TransformAt(math3d.V3(0, 0, 5)), math3d.TransformIdentity(), anchor)
	r.manager.SyncTransforms()
	r.manager.ClipFrusta()

	f, ok := r.world.Frustum(r.portal.Linked)
	if !ok {
		t.Fatal("secondary viewpoint has no frustum")
	}

	near := f.Planes[render.FrustumNear]
	forward := anchor.Forward()
	if !vec3Close(near.Normal, forward) {
		t.Errorf("near normal = %v, want anchor forward %v", near.Normal, forward)
	}
	if l := near.Normal.Len(); math.Abs(l-1) > epsilon {
		t.Errorf("near normal length = %v, want 1", l)
	}
	// the anchor sits exactly on its own exit plane
	if d := near.DistanceToPoint(anchor.Translation); math.Abs(d) > epsilon {
		t.Errorf("anchor distance to near plane = %v, want 0", d)
	}
}

func TestClipHidesGeometryBeforeExitSurface(t *testing.T) {
	// anchor at x=10 facing -Z (identity orientation)
	anchor := math3d.TransformAt(math3d.V3(10, 0, 0))
	r := newRig(t, math3d.TransformAt(math3d.V3(0, 0, 5)), math3d.TransformIdentity(), anchor)
	r.manager.SyncTransforms()
	r.manager.ClipFrusta()

	f, _ := r.world.Frustum(r.portal.Linked)
	near := f.Planes[render.FrustumNear]

	// a point behind the exit plane (on the viewpoint's side) is clipped
	if d := near.DistanceToPoint(math3d.V3(10, 0, 4)); d >= 0 {
		t.Errorf("point between viewpoint and exit has distance %v, want < 0", d)
	}
	// a point beyond the exit plane survives
	if d := near.DistanceToPoint(math3d.V3(10, 0, -4)); d <= 0 {
		t.Errorf("point beyond exit has distance %v, want > 0", d)
	}
}

func TestUpdatePrimaryFrusta(t *testing.T) {
	r := newRig(t, math3d.TransformAt(math3d.V3(0, 0, 5)), math3d.TransformIdentity(), math3d.TransformAt(math3d.V3(10, 0, 0)))
	r.manager.UpdatePrimaryFrusta()

	f, ok := r.world.Frustum(r.primary)
	if !ok {
		t.Fatal("primary camera has no frustum after update")
	}
	// the primary at z=5 looking down -Z sees the origin
	if !f.ContainsPoint(math3d.V3(0, 0, 0)) {
		t.Error("primary frustum rejects a point straight ahead")
	}
	if f.ContainsPoint(math3d.V3(0, 0, 100)) {
		t.Error("primary frustum accepts a point behind the camera")
	}
}
