package portal

import (
	"github.com/taigrr/porthole/pkg/math3d"
	"github.com/taigrr/porthole/pkg/scene"
)

// SyncTransforms recomputes every linked secondary viewpoint's pose from the
// primary viewer, the portal surface, and the target anchor. Runs after world
// transform propagation and before any render or frustum work.
//
// Standing at distance d in front of the portal surface places the secondary
// view at distance d in front of the target anchor, looking the way the
// primary looks re-expressed in the surface-to-anchor frame.
func (m *Manager) SyncTransforms() {
	for e, p := range m.portals {
		if p.Linked == 0 {
			continue
		}
		pose, ok := m.secondaryPose(e, p)
		if !ok {
			continue // transiently unresolvable, retry next frame
		}
		// local and world are written together so the renderer and the
		// picking remapper observe the same pose this frame
		m.world.SetTransform(p.Linked, pose)
		m.world.SetWorldTransform(p.Linked, pose)
	}
}

// secondaryPose derives the linked viewpoint pose for one portal. Returns
// false when any of the three source transforms cannot be resolved.
func (m *Manager) secondaryPose(e scene.Entity, p *Portal) (math3d.Transform, bool) {
	primary, ok := m.world.WorldTransform(p.PrimaryCamera)
	if !ok {
		return math3d.Transform{}, false
	}
	surface, ok := m.world.WorldTransform(e)
	if !ok {
		return math3d.Transform{}, false
	}
	anchor, ok := m.world.WorldTransform(p.Target)
	if !ok {
		return math3d.Transform{}, false
	}

	pose := primary
	pose.Translation = primary.Translation.Sub(surface.Translation).Add(anchor.Translation)
	delta := surface.Rotation.Inverse().Mul(anchor.Rotation)
	return pose.RotateAround(anchor.Translation, delta), true
}
