package portal

import (
	"github.com/taigrr/porthole/pkg/math3d"
	"github.com/taigrr/porthole/pkg/render"
)

// FeedInput buffers one device pointer action for this frame. Arrival order
// is preserved through propagation.
func (m *Manager) FeedInput(in Input) {
	m.inputs = append(m.inputs, in)
}

// FeedHits supplies the picking backend's hit list for the previous frame.
func (m *Manager) FeedHits(hits []Hit) {
	m.hits = append(m.hits, hits...)
}

// Propagate remaps buffered pointer actions through the portals their rays
// struck. For each hit on a linked portal the hit's world position is
// projected into the portal's render-target pixel space; every buffered
// action of the hit's source pointer is re-emitted at that location under the
// portal's synthetic pointer. Hits that fail to project, and hits on inert
// portals, are dropped. Both buffers are consumed.
//
// A ray that struck several portal surfaces redirects through each of them;
// per source pointer the redirected stream keeps the original action order.
func (m *Manager) Propagate() []Input {
	var out []Input

	for _, hit := range m.hits {
		p, ok := m.portals[hit.Entity]
		if !ok || p.Linked == 0 {
			continue
		}
		pt, ok := m.pass[hit.Entity]
		if !ok {
			continue
		}
		loc, ok := m.remapHit(p, hit)
		if !ok {
			continue
		}
		pt.Location = loc

		for _, in := range m.inputs {
			if in.Pointer != hit.Pointer {
				continue
			}
			out = append(out, Input{
				Pointer:  pt.Pointer,
				Position: loc,
				Action:   in.Action,
			})
		}
	}

	m.inputs = m.inputs[:0]
	m.hits = m.hits[:0]
	return out
}

// remapHit projects a hit's world position into the linked viewpoint's
// render-target pixel space. The projection uses the secondary camera's
// projection with the primary viewer's pose, mirroring how the portal
// surface itself was seen. Points on or behind the viewing plane drop.
func (m *Manager) remapHit(p *Portal, hit Hit) (math3d.Vec2, bool) {
	primary, ok := m.world.WorldTransform(p.PrimaryCamera)
	if !ok {
		return math3d.Vec2{}, false
	}
	cam, ok := m.world.Camera(p.Linked)
	if !ok || cam.Output.Kind != render.OutputTexture {
		return math3d.Vec2{}, false
	}
	target, ok := m.targets.Get(cam.Output.Target)
	if !ok {
		return math3d.Vec2{}, false
	}
	return cam.WorldToViewport(primary, hit.Position, target.Width, target.Height)
}
