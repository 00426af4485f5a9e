package portal

import (
	"github.com/taigrr/porthole/pkg/math3d"
	"github.com/taigrr/porthole/pkg/scene"
)

// PointerID identifies a pointer. Device pointers use small ids assigned by
// the input layer; ids at or above SyntheticPointerBase are allocated by the
// manager for portal pass-through and never collide with devices.
type PointerID uint32

// SyntheticPointerBase is the first pointer id reserved for pass-through
// pointers.
const SyntheticPointerBase PointerID = 1 << 16

// ActionKind enumerates pointer actions.
type ActionKind int

const (
	ActionMove ActionKind = iota
	ActionPress
	ActionRelease
	ActionScroll
	ActionCancel
)

func (a ActionKind) String() string {
	switch a {
	case ActionMove:
		return "move"
	case ActionPress:
		return "press"
	case ActionRelease:
		return "release"
	case ActionScroll:
		return "scroll"
	case ActionCancel:
		return "cancel"
	}
	return "unknown"
}

// Action is one pointer action with its payload. Button is meaningful for
// press/release, Scroll for scroll.
type Action struct {
	Kind   ActionKind
	Button int
	Scroll math3d.Vec2
}

// Input is a pointer event: an action at a 2-D location, attributed to a
// pointer.
type Input struct {
	Pointer  PointerID
	Position math3d.Vec2
	Action   Action
}

// Hit is a ray-cast result attributed to the pointer whose ray produced it.
type Hit struct {
	Entity   scene.Entity
	Position math3d.Vec3 // world space
	Pointer  PointerID
}

// PassThrough is the synthetic pointer bound to one secondary viewpoint. It
// is created at portal setup, repositioned every frame by the picking
// propagator, and destroyed with the viewpoint.
type PassThrough struct {
	Pointer   PointerID
	Viewpoint scene.Entity
	Location  math3d.Vec2 // render-target pixel space
}
