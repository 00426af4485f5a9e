package math3d

import "math"

// Transform is a rigid pose with scale: translation, rotation, and scale,
// applied scale-first, then rotation, then translation.
type Transform struct {
	Translation Vec3
	Rotation    Quat
	Scale       Vec3
}

// TransformIdentity returns the identity transform.
func TransformIdentity() Transform {
	return Transform{
		Rotation: QuatIdentity(),
		Scale:    V3(1, 1, 1),
	}
}

// TransformAt returns an identity-oriented transform at the given position.
func TransformAt(translation Vec3) Transform {
	t := TransformIdentity()
	t.Translation = translation
	return t
}

// Mat4 returns the transform as a matrix (translate * rotate * scale).
func (t Transform) Mat4() Mat4 {
	m := t.Rotation.Mat4().Mul(Scale(t.Scale))
	m.SetTranslation(t.Translation)
	return m
}

// Mul composes two transforms: the result applies child first, then t.
// This is the parent-to-world composition used by scene-graph propagation.
func (t Transform) Mul(child Transform) Transform {
	return Transform{
		Translation: t.Translation.Add(t.Rotation.Rotate(child.Translation.Mul(t.Scale))),
		Rotation:    t.Rotation.Mul(child.Rotation),
		Scale:       t.Scale.Mul(child.Scale),
	}
}

// Apply transforms a point from local space into the transform's space.
func (t Transform) Apply(p Vec3) Vec3 {
	return t.Translation.Add(t.Rotation.Rotate(p.Mul(t.Scale)))
}

// Forward returns the transform's forward direction: the rotation applied to
// the world forward vector (0, 0, -1). The result has unit length.
func (t Transform) Forward() Vec3 {
	return t.Rotation.Rotate(Forward())
}

// Up returns the transform's up direction.
func (t Transform) Up() Vec3 {
	return t.Rotation.Rotate(Up())
}

// Right returns the transform's right direction.
func (t Transform) Right() Vec3 {
	return t.Rotation.Rotate(Right())
}

// WithTranslation returns a copy of the transform with a new translation.
func (t Transform) WithTranslation(v Vec3) Transform {
	t.Translation = v
	return t
}

// RotateAround rotates the transform by q about the given world-space point.
// Both translation and rotation change: the translation orbits the point and
// the orientation picks up the same rotation.
func (t Transform) RotateAround(point Vec3, q Quat) Transform {
	t.Translation = point.Add(q.Rotate(t.Translation.Sub(point)))
	t.Rotation = q.Mul(t.Rotation)
	return t
}

// LookAt orients the transform so its forward direction points at target.
func (t Transform) LookAt(target, up Vec3) Transform {
	f := target.Sub(t.Translation).Normalize()
	if f.Len() == 0 {
		return t
	}
	r := f.Cross(up).Normalize()
	if r.Len() == 0 {
		// forward is parallel to up; pick an arbitrary right axis
		r = V3(1, 0, 0)
	}
	u := r.Cross(f)

	// Basis columns: right, up, -forward (camera convention).
	m := Mat4{
		r.X, r.Y, r.Z, 0,
		u.X, u.Y, u.Z, 0,
		-f.X, -f.Y, -f.Z, 0,
		0, 0, 0, 1,
	}
	t.Rotation = quatFromRotationMat4(m)
	return t
}

// quatFromRotationMat4 extracts a unit quaternion from a pure rotation matrix.
func quatFromRotationMat4(m Mat4) Quat {
	trace := m.Get(0, 0) + m.Get(1, 1) + m.Get(2, 2)
	var q Quat
	switch {
	case trace > 0:
		s := 0.5 / math.Sqrt(trace+1)
		q.W = 0.25 / s
		q.X = (m.Get(2, 1) - m.Get(1, 2)) * s
		q.Y = (m.Get(0, 2) - m.Get(2, 0)) * s
		q.Z = (m.Get(1, 0) - m.Get(0, 1)) * s
	case m.Get(0, 0) > m.Get(1, 1) && m.Get(0, 0) > m.Get(2, 2):
		s := 2 * math.Sqrt(1+m.Get(0, 0)-m.Get(1, 1)-m.Get(2, 2))
		q.W = (m.Get(2, 1) - m.Get(1, 2)) / s
		q.X = 0.25 * s
		q.Y = (m.Get(0, 1) + m.Get(1, 0)) / s
		q.Z = (m.Get(0, 2) + m.Get(2, 0)) / s
	case m.Get(1, 1) > m.Get(2, 2):
		s := 2 * math.Sqrt(1+m.Get(1, 1)-m.Get(0, 0)-m.Get(2, 2))
		q.W = (m.Get(0, 2) - m.Get(2, 0)) / s
		q.X = (m.Get(0, 1) + m.Get(1, 0)) / s
		q.Y = 0.25 * s
		q.Z = (m.Get(1, 2) + m.Get(2, 1)) / s
	default:
		s := 2 * math.Sqrt(1+m.Get(2, 2)-m.Get(0, 0)-m.Get(1, 1))
		q.W = (m.Get(1, 0) - m.Get(0, 1)) / s
		q.X = (m.Get(0, 2) + m.Get(2, 0)) / s
		q.Y = (m.Get(1, 2) + m.Get(2, 1)) / s
		q.Z = 0.25 * s
	}
	return q.Normalize()
}
