package portal

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/taigrr/porthole/pkg/render"
	"github.com/taigrr/porthole/pkg/scene"
)

// Manager owns the portal table, the render target store, and the pointer
// pass-through states. It reacts to portal attach/detach and to despawn of
// the owning entities, and runs the per-frame portal stages.
//
// Like the world it operates on, the manager is driven from one goroutine by
// the frame pipeline.
type Manager struct {
	world   *scene.World
	targets *render.TargetStore
	log     *log.Logger

	portals map[scene.Entity]*Portal
	owners  map[scene.Entity]scene.Entity // secondary viewpoint -> portal entity
	pass    map[scene.Entity]*PassThrough // portal entity -> pass-through state

	nextPointer PointerID

	surfaceWidth  int
	surfaceHeight int

	inputs []Input
	hits   []Hit
}

// NewManager creates a manager over the given world. Surface dimensions are
// the initial physical size of the output surface; pass zeros when only
// cameras with explicit viewports will host portals.
func NewManager(w *scene.World, surfaceWidth, surfaceHeight int) *Manager {
	m := &Manager{
		world:         w,
		targets:       render.NewTargetStore(),
		log:           log.New(os.Stderr, "portal: ", log.LstdFlags),
		portals:       make(map[scene.Entity]*Portal),
		owners:        make(map[scene.Entity]scene.Entity),
		pass:          make(map[scene.Entity]*PassThrough),
		nextPointer:   SyntheticPointerBase,
		surfaceWidth:  surfaceWidth,
		surfaceHeight: surfaceHeight,
	}
	w.OnDespawn(m.onDespawn)
	return m
}

// SetLogOutput redirects the manager's diagnostics.
func (m *Manager) SetLogOutput(w io.Writer) {
	m.log.SetOutput(w)
}

// Targets exposes the render target store for the renderer's read phase.
func (m *Manager) Targets() *render.TargetStore {
	return m.targets
}

// Portal returns the record attached to the entity, if any.
func (m *Manager) Portal(e scene.Entity) (*Portal, bool) {
	p, ok := m.portals[e]
	return p, ok
}

// PassThrough returns the pass-through pointer state for a portal entity.
func (m *Manager) PassThrough(e scene.Entity) (*PassThrough, bool) {
	p, ok := m.pass[e]
	return p, ok
}

// PortalCount returns the number of attached portals, linked or inert.
func (m *Manager) PortalCount() int {
	return len(m.portals)
}

// Attach registers a portal record on an entity and runs setup synchronously.
// Setup failures leave the portal attached but inert (Linked stays zero) and
// are logged, never fatal; an inert portal is skipped by every frame stage.
func (m *Manager) Attach(e scene.Entity, p *Portal) {
	if !m.world.Alive(e) {
		m.log.Printf("attach on dead entity %d ignored", e)
		return
	}
	m.portals[e] = p

	if err := m.setup(e, p); err != nil {
		m.log.Printf("portal %d setup failed: %v", e, err)
	}
}

// setup provisions the render target, spawns the secondary viewpoint, and
// binds the pass-through pointer. On any failure nothing is linked.
func (m *Manager) setup(e scene.Entity, p *Portal) error {
	primaryCam, ok := m.world.Camera(p.PrimaryCamera)
	if !ok {
		return fmt.Errorf("primary viewpoint %d has no camera", p.PrimaryCamera)
	}

	width, height, err := m.viewportSize(primaryCam)
	if err != nil {
		return fmt.Errorf("viewport size: %w", err)
	}

	anchor, ok := m.world.WorldTransform(p.Target)
	if !ok {
		return fmt.Errorf("target anchor %d has no world transform", p.Target)
	}

	handle := m.targets.Create(width, height)

	secondary := m.world.Spawn(fmt.Sprintf("%s/view", m.world.Name(e)))
	cam := primaryCam.Snapshot()
	cam.Order = primaryCam.Order - 1 // draw before the primary composites us
	cam.Output = render.Output{Kind: render.OutputTexture, Target: handle}
	m.world.AttachCamera(secondary, &cam)
	m.world.SetTransform(secondary, anchor)
	m.world.SetWorldTransform(secondary, anchor)

	m.owners[secondary] = e
	m.pass[e] = &PassThrough{
		Pointer:   m.allocPointer(),
		Viewpoint: secondary,
	}
	p.Linked = secondary
	return nil
}

// viewportSize resolves the render target size: explicit camera viewport
// first, then the output surface's physical size.
func (m *Manager) viewportSize(cam *render.Camera) (int, int, error) {
	if vp := cam.Viewport; vp != nil {
		if vp.Width <= 0 || vp.Height <= 0 {
			return 0, 0, fmt.Errorf("degenerate viewport %dx%d", vp.Width, vp.Height)
		}
		return vp.Width, vp.Height, nil
	}
	if m.surfaceWidth > 0 && m.surfaceHeight > 0 {
		return m.surfaceWidth, m.surfaceHeight, nil
	}
	return 0, 0, fmt.Errorf("no viewport and no output surface size")
}

func (m *Manager) allocPointer() PointerID {
	id := m.nextPointer
	m.nextPointer++
	return id
}

// Detach removes the portal record from an entity and tears down everything
// it owns: the secondary viewpoint, its render target, and its pass-through
// pointer. Detaching an inert or unknown portal is a no-op beyond removing
// the record.
func (m *Manager) Detach(e scene.Entity) {
	p, ok := m.portals[e]
	if !ok {
		return
	}
	delete(m.portals, e)

	if p.Linked == 0 {
		return
	}
	m.teardownLinked(p.Linked)
	delete(m.pass, e)
}

// teardownLinked removes a secondary viewpoint and its buffer.
func (m *Manager) teardownLinked(secondary scene.Entity) {
	if cam, ok := m.world.Camera(secondary); ok && cam.Output.Kind == render.OutputTexture {
		m.targets.Remove(cam.Output.Target)
	}
	delete(m.owners, secondary)
	if m.world.Alive(secondary) {
		m.world.Despawn(secondary)
	}
}

// onDespawn keeps the portal table consistent with entity lifecycle: a dying
// portal entity detaches its portal, and a dying secondary viewpoint releases
// its buffer and pointer state even when despawned directly.
func (m *Manager) onDespawn(_ *scene.World, e scene.Entity) {
	if _, ok := m.portals[e]; ok {
		m.Detach(e)
	}
	if owner, ok := m.owners[e]; ok {
		if cam, ok := m.world.Camera(e); ok && cam.Output.Kind == render.OutputTexture {
			m.targets.Remove(cam.Output.Target)
		}
		delete(m.owners, e)
		delete(m.pass, owner)
		if p, ok := m.portals[owner]; ok {
			p.Linked = 0
		}
	}
}
