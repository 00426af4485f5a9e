// Package portal keeps a live secondary view of the world behind each portal
// surface: it derives the secondary camera pose from the primary viewer every
// frame, clips the secondary frustum to the portal's exit plane, and remaps
// pointer input that strikes a portal surface into the secondary view.
package portal

import "github.com/taigrr/porthole/pkg/scene"

// CullMode is the face-culling policy for a portal surface.
type CullMode int

const (
	CullBack CullMode = iota
	CullFront
	CullNone
)

func (c CullMode) String() string {
	switch c {
	case CullBack:
		return "back"
	case CullFront:
		return "front"
	case CullNone:
		return "none"
	}
	return "unknown"
}

// Portal links a primary viewer to a target anchor. The portal surface is the
// entity the record is attached to; Linked is zero until setup completes and
// is written exactly once, by the manager.
type Portal struct {
	// PrimaryCamera is the viewer whose motion drives the secondary view.
	PrimaryCamera scene.Entity

	// Target is the exit anchor: the secondary view is centered on its pose.
	Target scene.Entity

	CullMode CullMode

	// Linked is the secondary viewpoint entity, zero while the portal is
	// inert.
	Linked scene.Entity
}

// New creates a portal record for the given viewer and exit anchor.
func New(primary, target scene.Entity) *Portal {
	return &Portal{
		PrimaryCamera: primary,
		Target:        target,
		CullMode:      CullBack,
	}
}

// WithCullMode sets the culling policy and returns the portal.
func (p *Portal) WithCullMode(mode CullMode) *Portal {
	p.CullMode = mode
	return p
}
