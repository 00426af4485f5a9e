// Package models provides mesh geometry for porthole: procedural shapes, GLB
// loading, and the triangle/edge views the renderer and picking backend use.
package models

import (
	"github.com/taigrr/porthole/pkg/math3d"
)

// Mesh represents triangle geometry. Shading attributes beyond normals are
// out of scope here; the wireframe renderer and the picking backend only
// need positions and connectivity.
type Mesh struct {
	Name     string
	Vertices []Vertex
	Faces    []Face

	// Bounding box (calculated on load)
	BoundsMin math3d.Vec3
	BoundsMax math3d.Vec3

	edges [][2]int // lazily built unique edge list
}

// Vertex holds per-vertex attributes.
type Vertex struct {
	Position math3d.Vec3
	Normal   math3d.Vec3
}

// Face represents a triangle face with vertex indices.
type Face struct {
	V [3]int // indices into Mesh.Vertices
}

// NewMesh creates an empty mesh.
func NewMesh(name string) *Mesh {
	return &Mesh{Name: name}
}

// CalculateBounds computes the axis-aligned bounding box.
func (m *Mesh) CalculateBounds() {
	if len(m.Vertices) == 0 {
		return
	}

	m.BoundsMin = m.Vertices[0].Position
	m.BoundsMax = m.Vertices[0].Position

	for _, v := range m.Vertices[1:] {
		m.BoundsMin = m.BoundsMin.Min(v.Position)
		m.BoundsMax = m.BoundsMax.Max(v.Position)
	}
}

// Center returns the center of the bounding box.
func (m *Mesh) Center() math3d.Vec3 {
	return m.BoundsMin.Add(m.BoundsMax).Scale(0.5)
}

// Size returns the dimensions of the bounding box.
func (m *Mesh) Size() math3d.Vec3 {
	return m.BoundsMax.Sub(m.BoundsMin)
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Faces)
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

// Triangle returns the three corner positions of face i.
func (m *Mesh) Triangle(i int) (a, b, c math3d.Vec3) {
	f := m.Faces[i]
	return m.Vertices[f.V[0]].Position, m.Vertices[f.V[1]].Position, m.Vertices[f.V[2]].Position
}

// CalculateNormals computes face normals and assigns them to vertices
// (flat shading).
func (m *Mesh) CalculateNormals() {
	for i := range m.Faces {
		f := &m.Faces[i]
		v0 := m.Vertices[f.V[0]].Position
		v1 := m.Vertices[f.V[1]].Position
		v2 := m.Vertices[f.V[2]].Position

		normal := v1.Sub(v0).Cross(v2.Sub(v0)).Normalize()

		m.Vertices[f.V[0]].Normal = normal
		m.Vertices[f.V[1]].Normal = normal
		m.Vertices[f.V[2]].Normal = normal
	}
}

// Transform applies a transformation matrix to all vertices.
func (m *Mesh) Transform(mat math3d.Mat4) {
	for i := range m.Vertices {
		m.Vertices[i].Position = mat.MulVec3(m.Vertices[i].Position)
		m.Vertices[i].Normal = mat.MulVec3Dir(m.Vertices[i].Normal).Normalize()
	}
	m.CalculateBounds()
}

// Clone creates a deep copy of the mesh.
func (m *Mesh) Clone() *Mesh {
	clone := &Mesh{
		Name:      m.Name,
		Vertices:  make([]Vertex, len(m.Vertices)),
		Faces:     make([]Face, len(m.Faces)),
		BoundsMin: m.BoundsMin,
		BoundsMax: m.BoundsMax,
	}
	copy(clone.Vertices, m.Vertices)
	copy(clone.Faces, m.Faces)
	return clone
}

// EdgeCount returns the number of unique edges.
// Implements render.EdgeMesh.
func (m *Mesh) EdgeCount() int {
	m.buildEdges()
	return len(m.edges)
}

// Edge returns the endpoint positions of unique edge i.
// Implements render.EdgeMesh.
func (m *Mesh) Edge(i int) (a, b math3d.Vec3) {
	m.buildEdges()
	e := m.edges[i]
	return m.Vertices[e[0]].Position, m.Vertices[e[1]].Position
}

// buildEdges collects each undirected face edge once. The cache is built on
// first use and invalidated by nothing: meshes are treated as immutable
// connectivity once drawn (Transform moves vertices, not indices).
func (m *Mesh) buildEdges() {
	if m.edges != nil || len(m.Faces) == 0 {
		return
	}

	seen := make(map[[2]int]struct{}, len(m.Faces)*3)
	for _, f := range m.Faces {
		for j := 0; j < 3; j++ {
			a, b := f.V[j], f.V[(j+1)%3]
			if a > b {
				a, b = b, a
			}
			key := [2]int{a, b}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			m.edges = append(m.edges, key)
		}
	}
}

// NewQuad creates a unit quad in the XY plane centered at the origin, facing
// +Z, scaled to width x height. Portal surfaces use this shape.
func NewQuad(name string, width, height float64) *Mesh {
	hw, hh := width/2, height/2
	m := &Mesh{
		Name: name,
		Vertices: []Vertex{
			{Position: math3d.V3(-hw, -hh, 0)},
			{Position: math3d.V3(hw, -hh, 0)},
			{Position: math3d.V3(hw, hh, 0)},
			{Position: math3d.V3(-hw, hh, 0)},
		},
		Faces: []Face{
			{V: [3]int{0, 1, 2}},
			{V: [3]int{0, 2, 3}},
		},
	}
	m.CalculateNormals()
	m.CalculateBounds()
	return m
}

// NewBox creates an axis-aligned box centered at the origin.
func NewBox(name string, sx, sy, sz float64) *Mesh {
	hx, hy, hz := sx/2, sy/2, sz/2
	m := &Mesh{
		Name: name,
		Vertices: []Vertex{
			{Position: math3d.V3(-hx, -hy, -hz)},
			{Position: math3d.V3(hx, -hy, -hz)},
			{Position: math3d.V3(hx, hy, -hz)},
			{Position: math3d.V3(-hx, hy, -hz)},
			{Position: math3d.V3(-hx, -hy, hz)},
			{Position: math3d.V3(hx, -hy, hz)},
			{Position: math3d.V3(hx, hy, hz)},
			{Position: math3d.V3(-hx, hy, hz)},
		},
		Faces: []Face{
			// -Z
			{V: [3]int{0, 2, 1}}, {V: [3]int{0, 3, 2}},
			// +Z
			{V: [3]int{4, 5, 6}}, {V: [3]int{4, 6, 7}},
			// -X
			{V: [3]int{0, 4, 7}}, {V: [3]int{0, 7, 3}},
			// +X
			{V: [3]int{1, 2, 6}}, {V: [3]int{1, 6, 5}},
			// -Y
			{V: [3]int{0, 1, 5}}, {V: [3]int{0, 5, 4}},
			// +Y
			{V: [3]int{3, 7, 6}}, {V: [3]int{3, 6, 2}},
		},
	}
	m.CalculateNormals()
	m.CalculateBounds()
	return m
}
