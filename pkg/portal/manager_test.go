package portal

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/taigrr/porthole/pkg/math3d"
	"github.com/taigrr/porthole/pkg/render"
	"github.com/taigrr/porthole/pkg/scene"
)

func TestAttachLinksSecondaryViewpoint(t *testing.T) {
	w := scene.NewWorld()
	m := NewManager(w, 200, 100)
	m.SetLogOutput(io.Discard)

	primary := w.Spawn("primary")
	primaryCam := render.NewCamera()
	primaryCam.Order = 3
	primaryCam.Exposure = 2.5
	w.AttachCamera(primary, primaryCam)

	surface := w.Spawn("portal")
	anchor := w.Spawn("anchor")
	w.SetTransform(anchor, math3d.TransformAt(math3d.V3(10, 0, 0)))
	w.PropagateTransforms()

	p := New(primary, anchor)
	m.Attach(surface, p)

	if p.Linked == 0 {
		t.Fatal("portal did not link")
	}
	if !w.Alive(p.Linked) {
		t.Fatal("linked viewpoint is not alive")
	}

	cam, ok := w.Camera(p.Linked)
	if !ok {
		t.Fatal("linked viewpoint has no camera")
	}
	if cam.Order != primaryCam.Order-1 {
		t.Errorf("secondary Order = %d, want %d", cam.Order, primaryCam.Order-1)
	}
	if cam.Exposure != primaryCam.Exposure {
		t.Errorf("secondary Exposure = %v, want the primary snapshot %v", cam.Exposure, primaryCam.Exposure)
	}
	if cam.Output.Kind != render.OutputTexture {
		t.Error("secondary camera does not render to a texture")
	}

	target, ok := m.Targets().Get(cam.Output.Target)
	if !ok {
		t.Fatal("render target handle does not resolve")
	}
	if target.Width != 200 || target.Height != 100 {
		t.Errorf("target size = %dx%d, want 200x100", target.Width, target.Height)
	}
	if len(target.Pix) != 200*100*render.BytesPerPixel {
		t.Errorf("buffer length = %d, want %d", len(target.Pix), 200*100*render.BytesPerPixel)
	}

	pose, _ := w.WorldTransform(p.Linked)
	if !vec3Close(pose.Translation, math3d.V3(10, 0, 0)) {
		t.Errorf("secondary spawned at %v, want anchor position", pose.Translation)
	}

	pt, ok := m.PassThrough(surface)
	if !ok {
		t.Fatal("no pass-through pointer bound")
	}
	if pt.Pointer < SyntheticPointerBase {
		t.Errorf("pass-through pointer %d below the synthetic base", pt.Pointer)
	}
	if pt.Viewpoint != p.Linked {
		t.Errorf("pass-through bound to %v, want %v", pt.Viewpoint, p.Linked)
	}
}

func TestAttachExplicitViewportWins(t *testing.T) {
	w := scene.NewWorld()
	m := NewManager(w, 200, 100)
	m.SetLogOutput(io.Discard)

	primary := w.Spawn("primary")
	cam := render.NewCamera()
	cam.Viewport = &render.Viewport{Width: 64, Height: 32}
	w.AttachCamera(primary, cam)
	surface := w.Spawn("portal")
	anchor := w.Spawn("anchor")

	p := New(primary, anchor)
	m.Attach(surface, p)

	sc, _ := w.Camera(p.Linked)
	target, ok := m.Targets().Get(sc.Output.Target)
	if !ok {
		t.Fatal("no target")
	}
	if target.Width != 64 || target.Height != 32 {
		t.Errorf("target size = %dx%d, want the explicit viewport 64x32", target.Width, target.Height)
	}
}

func TestAttachWithoutCameraStaysInert(t *testing.T) {
	w := scene.NewWorld()
	m := NewManager(w, 200, 100)
	var logged bytes.Buffer
	m.SetLogOutput(&logged)

	primary := w.Spawn("no-camera")
	surface := w.Spawn("portal")
	anchor := w.Spawn("anchor")

	p := New(primary, anchor)
	m.Attach(surface, p)

	if p.Linked != 0 {
		t.Error("portal linked despite missing camera")
	}
	if !strings.Contains(logged.String(), "setup failed") {
		t.Errorf("setup failure not logged: %q", logged.String())
	}
	if m.Targets().Len() != 0 {
		t.Errorf("inert portal allocated %d targets", m.Targets().Len())
	}

	// inert portals are skipped by every stage, not retried
	m.SyncTransforms()
	m.ClipFrusta()
	if p.Linked != 0 {
		t.Error("inert portal linked by a frame stage")
	}
}

func TestAttachWithoutSurfaceSizeStaysInert(t *testing.T) {
	w := scene.NewWorld()
	m := NewManager(w, 0, 0)
	m.SetLogOutput(io.Discard)

	primary := w.Spawn("primary")
	w.AttachCamera(primary, render.NewCamera())
	surface := w.Spawn("portal")
	anchor := w.Spawn("anchor")

	p := New(primary, anchor)
	m.Attach(surface, p)
	if p.Linked != 0 {
		t.Error("portal linked despite unresolvable viewport size")
	}
}

func TestDetachTearsDownEverything(t *testing.T) {
	r := newRig(t, math3d.TransformAt(math3d.V3(0, 0, 5)), math3d.TransformIdentity(), math3d.TransformAt(math3d.V3(10, 0, 0)))
	linked := r.portal.Linked

	r.manager.Detach(r.surface)

	if r.world.Alive(linked) {
		t.Error("secondary viewpoint alive after detach")
	}
	if r.manager.Targets().Len() != 0 {
		t.Errorf("%d targets remain after detach", r.manager.Targets().Len())
	}
	if _, ok := r.manager.PassThrough(r.surface); ok {
		t.Error("pass-through state remains after detach")
	}
	if _, ok := r.manager.Portal(r.surface); ok {
		t.Error("portal record remains after detach")
	}

	// later stages soft-skip; nothing dangles
	r.manager.SyncTransforms()
	r.manager.ClipFrusta()
	r.manager.HandleResize(300, 150)
}

func TestOwnerDespawnCascades(t *testing.T) {
	r := newRig(t, math3d.TransformAt(math3d.V3(0, 0, 5)), math3d.TransformIdentity(), math3d.TransformAt(math3d.V3(10, 0, 0)))
	linked := r.portal.Linked

	r.world.Despawn(r.surface)

	if r.world.Alive(linked) {
		t.Error("secondary viewpoint alive after owner despawn")
	}
	if r.manager.Targets().Len() != 0 {
		t.Error("render target survived owner despawn")
	}
	if _, ok := r.manager.Portal(r.surface); ok {
		t.Error("portal record survived owner despawn")
	}
	if r.manager.PortalCount() != 0 {
		t.Errorf("PortalCount = %d, want 0", r.manager.PortalCount())
	}
}

func TestSecondaryDespawnReleasesOwnership(t *testing.T) {
	r := newRig(t, math3d.TransformAt(math3d.V3(0, 0, 5)), math3d.TransformIdentity(), math3d.TransformAt(math3d.V3(10, 0, 0)))
	linked := r.portal.Linked

	// despawning the viewpoint directly (not through Detach) still releases
	// the buffer and pointer state and unlinks the portal
	r.world.Despawn(linked)

	if r.manager.Targets().Len() != 0 {
		t.Error("render target survived viewpoint despawn")
	}
	if _, ok := r.manager.PassThrough(r.surface); ok {
		t.Error("pass-through state survived viewpoint despawn")
	}
	if r.portal.Linked != 0 {
		t.Error("portal still linked to a dead viewpoint")
	}

	r.manager.SyncTransforms() // must soft-skip
}

func TestSyntheticPointersDistinctAcrossCycles(t *testing.T) {
	w := scene.NewWorld()
	m := NewManager(w, 200, 100)
	m.SetLogOutput(io.Discard)

	primary := w.Spawn("primary")
	w.AttachCamera(primary, render.NewCamera())
	anchor := w.Spawn("anchor")

	seen := make(map[PointerID]bool)
	for range 3 {
		surface := w.Spawn("portal")
		p := New(primary, anchor)
		m.Attach(surface, p)
		pt, ok := m.PassThrough(surface)
		if !ok {
			t.Fatal("no pass-through after attach")
		}
		if seen[pt.Pointer] {
			t.Errorf("pointer id %d reused", pt.Pointer)
		}
		seen[pt.Pointer] = true
		m.Detach(surface)
	}
}

func TestHandleResize(t *testing.T) {
	w := scene.NewWorld()
	m := NewManager(w, 200, 100)
	m.SetLogOutput(io.Discard)

	primary := w.Spawn("primary")
	w.AttachCamera(primary, render.NewCamera())
	anchor := w.Spawn("anchor")

	surfaceA := w.Spawn("portal-a")
	pa := New(primary, anchor)
	m.Attach(surfaceA, pa)

	surfaceB := w.Spawn("portal-b")
	pb := New(primary, anchor)
	m.Attach(surfaceB, pb)

	m.HandleResize(320, 180)

	for _, p := range []*Portal{pa, pb} {
		cam, _ := w.Camera(p.Linked)
		target, ok := m.Targets().Get(cam.Output.Target)
		if !ok {
			t.Fatal("target missing after resize")
		}
		if target.Width != 320 || target.Height != 180 {
			t.Errorf("target size = %dx%d, want 320x180", target.Width, target.Height)
		}
	}
	if gw, gh := m.SurfaceSize(); gw != 320 || gh != 180 {
		t.Errorf("SurfaceSize = %dx%d, want 320x180", gw, gh)
	}

	// destroyed portals drop out of resize handling entirely
	m.Detach(surfaceB)
	m.HandleResize(64, 64)

	camA, _ := w.Camera(pa.Linked)
	target, _ := m.Targets().Get(camA.Output.Target)
	if target.Width != 64 || target.Height != 64 {
		t.Errorf("surviving target = %dx%d, want 64x64", target.Width, target.Height)
	}
	if m.Targets().Len() != 1 {
		t.Errorf("Targets().Len() = %d, want 1", m.Targets().Len())
	}
}

func TestNewPortalDefaults(t *testing.T) {
	p := New(1, 2)
	if p.CullMode != CullBack {
		t.Errorf("CullMode = %v, want CullBack", p.CullMode)
	}
	if p.Linked != 0 {
		t.Error("new portal already linked")
	}
	if got := p.WithCullMode(CullNone).CullMode; got != CullNone {
		t.Errorf("WithCullMode = %v, want CullNone", got)
	}
}
