package portal

import (
	"github.com/taigrr/porthole/pkg/render"
)

// UpdatePrimaryFrusta recomputes the view frustum of every surface-output
// camera from its current world pose. The host runs this between transform
// sync and the portal clip so the primary cull volumes are fresh.
func (m *Manager) UpdatePrimaryFrusta() {
	for _, e := range m.world.Cameras() {
		cam, _ := m.world.Camera(e)
		if cam.Output.Kind != render.OutputSurface {
			continue
		}
		pose, ok := m.world.WorldTransform(e)
		if !ok {
			continue
		}
		m.world.SetFrustum(e, cam.FrustumForPose(pose))
	}
}

// ClipFrusta rebuilds each linked viewpoint's frustum from its just-synced
// pose and replaces the near half-space with the plane of the portal's exit
// surface: through the target anchor's position, facing the anchor's forward
// direction. Geometry between the secondary viewpoint and the exit surface
// falls behind that plane and is never drawn.
func (m *Manager) ClipFrusta() {
	for _, p := range m.portals {
		if p.Linked == 0 {
			continue
		}
		cam, ok := m.world.Camera(p.Linked)
		if !ok {
			continue
		}
		pose, ok := m.world.WorldTransform(p.Linked)
		if !ok {
			continue
		}
		anchor, ok := m.world.WorldTransform(p.Target)
		if !ok {
			continue
		}

		f := cam.FrustumForPose(pose)
		// PlaneThrough clamps a degenerate normal to the zero plane, so a
		// malformed anchor orientation never puts a NaN in the frustum.
		f.SetHalfSpace(render.FrustumNear, render.PlaneThrough(anchor.Translation, anchor.Forward()))
		m.world.SetFrustum(p.Linked, f)
	}
}
