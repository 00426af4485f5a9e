package scene

import (
	"math"
	"testing"

	"github.com/taigrr/porthole/pkg/math3d"
	"github.com/taigrr/porthole/pkg/render"
)

const epsilon = 1e-9

func vec3Close(a, b math3d.Vec3) bool {
	return math.Abs(a.X-b.X) < epsilon &&
		math.Abs(a.Y-b.Y) < epsilon &&
		math.Abs(a.Z-b.Z) < epsilon
}

func TestSpawnDespawn(t *testing.T) {
	w := NewWorld()

	e := w.Spawn("thing")
	if e == 0 {
		t.Fatal("Spawn returned the zero entity")
	}
	if !w.Alive(e) {
		t.Fatal("entity not alive after spawn")
	}
	if w.Name(e) != "thing" {
		t.Errorf("Name = %q, want %q", w.Name(e), "thing")
	}

	w.Despawn(e)
	if w.Alive(e) {
		t.Error("entity alive after despawn")
	}
	if w.EntityCount() != 0 {
		t.Errorf("EntityCount = %d, want 0", w.EntityCount())
	}

	// double despawn is a no-op
	w.Despawn(e)
}

func TestDespawnCascade(t *testing.T) {
	w := NewWorld()

	root := w.Spawn("root")
	child := w.Spawn("child")
	grandchild := w.Spawn("grandchild")
	w.SetParent(child, root)
	w.SetParent(grandchild, child)

	var order []Entity
	w.OnDespawn(func(_ *World, e Entity) {
		order = append(order, e)
	})

	w.Despawn(root)

	if len(order) != 3 {
		t.Fatalf("hook ran %d times, want 3", len(order))
	}
	// children before parents
	if order[0] != grandchild || order[1] != child || order[2] != root {
		t.Errorf("despawn order = %v, want [%v %v %v]", order, grandchild, child, root)
	}
	for _, e := range []Entity{root, child, grandchild} {
		if w.Alive(e) {
			t.Errorf("entity %v alive after cascade", e)
		}
	}
}

func TestDespawnHookSeesComponents(t *testing.T) {
	w := NewWorld()

	e := w.Spawn("cam")
	w.AttachCamera(e, render.NewCamera())

	sawCamera := false
	w.OnDespawn(func(w *World, e Entity) {
		_, sawCamera = w.Camera(e)
	})

	w.Despawn(e)
	if !sawCamera {
		t.Error("despawn hook could not read the camera component")
	}
}

func TestPropagateTransforms(t *testing.T) {
	w := NewWorld()

	parent := w.Spawn("parent")
	child := w.Spawn("child")
	w.SetParent(child, parent)

	w.SetTransform(parent, math3d.TransformAt(math3d.V3(10, 0, 0)))
	w.SetTransform(child, math3d.TransformAt(math3d.V3(0, 5, 0)))
	w.PropagateTransforms()

	got, ok := w.WorldTransform(child)
	if !ok {
		t.Fatal("child has no world transform")
	}
	if !vec3Close(got.Translation, math3d.V3(10, 5, 0)) {
		t.Errorf("child world translation = %v, want (10,5,0)", got.Translation)
	}
}

func TestPropagateRotatedParent(t *testing.T) {
	w := NewWorld()

	parent := w.Spawn("parent")
	child := w.Spawn("child")
	w.SetParent(child, parent)

	// parent rotated 90 degrees about Y carries the child's +X offset to -Z
	pt := math3d.TransformIdentity()
	pt.Rotation = math3d.QuatFromAxisAngle(math3d.V3(0, 1, 0), math.Pi/2)
	w.SetTransform(parent, pt)
	w.SetTransform(child, math3d.TransformAt(math3d.V3(1, 0, 0)))
	w.PropagateTransforms()

	got, _ := w.WorldTransform(child)
	if !vec3Close(got.Translation, math3d.V3(0, 0, -1)) {
		t.Errorf("child world translation = %v, want (0,0,-1)", got.Translation)
	}
}

func TestSetParentDetach(t *testing.T) {
	w := NewWorld()

	parent := w.Spawn("parent")
	child := w.Spawn("child")
	w.SetParent(child, parent)
	w.SetParent(child, 0)

	w.SetTransform(parent, math3d.TransformAt(math3d.V3(10, 0, 0)))
	w.SetTransform(child, math3d.TransformAt(math3d.V3(1, 0, 0)))
	w.PropagateTransforms()

	got, _ := w.WorldTransform(child)
	if !vec3Close(got.Translation, math3d.V3(1, 0, 0)) {
		t.Errorf("detached child translation = %v, want (1,0,0)", got.Translation)
	}
}

func TestCamerasOrdered(t *testing.T) {
	w := NewWorld()

	a := w.Spawn("a")
	b := w.Spawn("b")
	c := w.Spawn("c")

	camA := render.NewCamera()
	camA.Order = 0
	camB := render.NewCamera()
	camB.Order = -1
	camC := render.NewCamera()
	camC.Order = 0

	w.AttachCamera(a, camA)
	w.AttachCamera(b, camB)
	w.AttachCamera(c, camC)

	got := w.Cameras()
	want := []Entity{b, a, c} // order -1 first, then id tie-break
	if len(got) != len(want) {
		t.Fatalf("len(Cameras) = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Cameras[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSetWorldTransformDirect(t *testing.T) {
	w := NewWorld()

	e := w.Spawn("e")
	w.SetWorldTransform(e, math3d.TransformAt(math3d.V3(3, 3, 3)))

	got, _ := w.WorldTransform(e)
	if !vec3Close(got.Translation, math3d.V3(3, 3, 3)) {
		t.Errorf("world translation = %v, want (3,3,3)", got.Translation)
	}
}

func TestFrustumStore(t *testing.T) {
	w := NewWorld()

	e := w.Spawn("cam")
	if _, ok := w.Frustum(e); ok {
		t.Error("unexpected frustum before SetFrustum")
	}

	var f render.Frustum
	f.Planes[render.FrustumNear] = render.PlaneThrough(math3d.V3(0, 0, -1), math3d.V3(0, 0, 1))
	w.SetFrustum(e, f)

	got, ok := w.Frustum(e)
	if !ok {
		t.Fatal("Frustum not stored")
	}
	if got.Planes[render.FrustumNear] != f.Planes[render.FrustumNear] {
		t.Error("stored frustum differs")
	}
}
