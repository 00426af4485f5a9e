package portal

import "github.com/taigrr/porthole/pkg/render"

// HandleResize records the output surface's new physical size and resizes
// every live portal render target to match. Contents are discarded; the
// buffers are repainted in full next frame. Targets whose handle no longer
// resolves are skipped.
func (m *Manager) HandleResize(width, height int) {
	m.surfaceWidth = width
	m.surfaceHeight = height
	if width <= 0 || height <= 0 {
		return
	}

	for _, p := range m.portals {
		if p.Linked == 0 {
			continue
		}
		cam, ok := m.world.Camera(p.Linked)
		if !ok || cam.Output.Kind != render.OutputTexture {
			continue
		}
		m.targets.Resize(cam.Output.Target, width, height)
	}
}

// SurfaceSize returns the last recorded output surface size.
func (m *Manager) SurfaceSize() (int, int) {
	return m.surfaceWidth, m.surfaceHeight
}
