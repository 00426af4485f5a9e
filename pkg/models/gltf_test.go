package models

import (
	"math"
	"testing"
	"unsafe"

	"github.com/qmuntal/gltf"
)

func f32le(vals ...float32) []byte {
	out := make([]byte, 0, len(vals)*4)
	for _, v := range vals {
		bits := *(*uint32)(unsafe.Pointer(&v))
		out = append(out, byte(bits), byte(bits>>8), byte(bits>>16), byte(bits>>24))
	}
	return out
}

func u16le(vals ...uint16) []byte {
	out := make([]byte, 0, len(vals)*2)
	for _, v := range vals {
		out = append(out, byte(v), byte(v>>8))
	}
	return out
}

// quadDoc builds an in-memory document with a single indexed quad
// (two triangles) in the XY plane.
func quadDoc() *gltf.Document {
	positions := f32le(
		0, 0, 0,
		1, 0, 0,
		1, 1, 0,
		0, 1, 0,
	)
	indices := u16le(0, 1, 2, 0, 2, 3)

	data := append(append([]byte{}, positions...), indices...)
	posView, idxView := 0, 1
	idxAccessor := 1

	return &gltf.Document{
		Buffers: []*gltf.Buffer{{ByteLength: len(data), Data: data}},
		BufferViews: []*gltf.BufferView{
			{Buffer: 0, ByteOffset: 0, ByteLength: len(positions)},
			{Buffer: 0, ByteOffset: len(positions), ByteLength: len(indices)},
		},
		Accessors: []*gltf.Accessor{
			{BufferView: &posView, ComponentType: gltf.ComponentFloat, Type: gltf.AccessorVec3, Count: 4},
			{BufferView: &idxView, ComponentType: gltf.ComponentUshort, Type: gltf.AccessorScalar, Count: 6},
		},
		Meshes: []*gltf.Mesh{{
			Name: "quad",
			Primitives: []*gltf.Primitive{{
				Attributes: map[string]int{gltf.POSITION: 0},
				Indices:    &idxAccessor,
				Mode:       gltf.PrimitiveTriangles,
			}},
		}},
	}
}

func TestAppendGLTFMeshIndexed(t *testing.T) {
	doc := quadDoc()
	mesh := NewMesh("test")

	if err := appendGLTFMesh(doc, doc.Meshes[0], mesh); err != nil {
		t.Fatalf("appendGLTFMesh: %v", err)
	}

	if mesh.VertexCount() != 4 {
		t.Errorf("vertex count = %d, want 4", mesh.VertexCount())
	}
	if mesh.TriangleCount() != 2 {
		t.Fatalf("triangle count = %d, want 2", mesh.TriangleCount())
	}

	if got := mesh.Vertices[2].Position; math.Abs(got.X-1) > 1e-6 || math.Abs(got.Y-1) > 1e-6 {
		t.Errorf("vertex 2 = %v, want (1, 1, 0)", got)
	}
	if f := mesh.Faces[1]; f.V != [3]int{0, 2, 3} {
		t.Errorf("face 1 = %v, want [0 2 3]", f.V)
	}
}

func TestAppendGLTFMeshUnindexed(t *testing.T) {
	doc := quadDoc()
	doc.Meshes[0].Primitives[0].Indices = nil

	mesh := NewMesh("test")
	if err := appendGLTFMesh(doc, doc.Meshes[0], mesh); err != nil {
		t.Fatalf("appendGLTFMesh: %v", err)
	}

	// 4 vertices form one sequential triangle, the trailing vertex is unused.
	if mesh.TriangleCount() != 1 {
		t.Errorf("triangle count = %d, want 1", mesh.TriangleCount())
	}
	if f := mesh.Faces[0]; f.V != [3]int{0, 1, 2} {
		t.Errorf("face 0 = %v, want [0 1 2]", f.V)
	}
}

func TestAppendGLTFMeshSkipsNonTriangles(t *testing.T) {
	doc := quadDoc()
	doc.Meshes[0].Primitives[0].Mode = gltf.PrimitiveLines

	mesh := NewMesh("test")
	if err := appendGLTFMesh(doc, doc.Meshes[0], mesh); err != nil {
		t.Fatalf("appendGLTFMesh: %v", err)
	}
	if mesh.VertexCount() != 0 || mesh.TriangleCount() != 0 {
		t.Errorf("line primitive produced geometry: %d verts, %d tris",
			mesh.VertexCount(), mesh.TriangleCount())
	}
}

func TestReadIndicesStrided(t *testing.T) {
	// Indices interleaved with 2 bytes of padding per element.
	raw := []byte{
		0, 0, 0xFF, 0xFF,
		1, 0, 0xFF, 0xFF,
		2, 0, 0xFF, 0xFF,
	}
	view := 0
	doc := &gltf.Document{
		Buffers:     []*gltf.Buffer{{ByteLength: len(raw), Data: raw}},
		BufferViews: []*gltf.BufferView{{Buffer: 0, ByteLength: len(raw), ByteStride: 4}},
		Accessors: []*gltf.Accessor{
			{BufferView: &view, ComponentType: gltf.ComponentUshort, Type: gltf.AccessorScalar, Count: 3},
		},
	}

	indices, err := readIndices(doc, 0)
	if err != nil {
		t.Fatalf("readIndices: %v", err)
	}
	for i, want := range []int{0, 1, 2} {
		if indices[i] != want {
			t.Errorf("index %d = %d, want %d", i, indices[i], want)
		}
	}
}

func TestReadVec3AccessorRejectsExternalBuffer(t *testing.T) {
	view := 0
	doc := &gltf.Document{
		Buffers:     []*gltf.Buffer{{URI: "mesh.bin", ByteLength: 12}},
		BufferViews: []*gltf.BufferView{{Buffer: 0, ByteLength: 12}},
		Accessors: []*gltf.Accessor{
			{BufferView: &view, ComponentType: gltf.ComponentFloat, Type: gltf.AccessorVec3, Count: 1},
		},
	}

	if _, err := readVec3Accessor(doc, 0); err == nil {
		t.Error("external buffer URI should fail")
	}
}
