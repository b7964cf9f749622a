// Package models holds the pyramid's geometry and its glTF interchange.
package models

import (
	"image/color"

	"github.com/taigrr/pyramid/pkg/math3d"
)

// Mesh is a small indexed polygon mesh with one flat color per face.
type Mesh struct {
	Name     string
	Vertices []math3d.Vec3
	Faces    []Face

	// Bounding box (calculated on construction and load)
	BoundsMin math3d.Vec3
	BoundsMax math3d.Vec3
}

// Face is a triangle or quad. V holds indices into Mesh.Vertices in
// emission order.
type Face struct {
	V     []int
	Color color.RGBA
}

// IsQuad reports whether the face has four corners.
func (f Face) IsQuad() bool {
	return len(f.V) == 4
}

// Triangles splits the face into triangles as index triples, fanning quads
// around their first corner.
func (f Face) Triangles() [][3]int {
	switch len(f.V) {
	case 3:
		return [][3]int{{f.V[0], f.V[1], f.V[2]}}
	case 4:
		return [][3]int{
			{f.V[0], f.V[1], f.V[2]},
			{f.V[0], f.V[2], f.V[3]},
		}
	default:
		return nil
	}
}

// NewMesh creates an empty mesh.
func NewMesh(name string) *Mesh {
	return &Mesh{
		Name:     name,
		Vertices: make([]math3d.Vec3, 0),
		Faces:    make([]Face, 0),
	}
}

// CalculateBounds computes the axis-aligned bounding box.
func (m *Mesh) CalculateBounds() {
	if len(m.Vertices) == 0 {
		m.BoundsMin, m.BoundsMax = math3d.Zero3(), math3d.Zero3()
		return
	}

	m.BoundsMin = m.Vertices[0]
	m.BoundsMax = m.Vertices[0]

	for _, v := range m.Vertices[1:] {
		m.BoundsMin = m.BoundsMin.Min(v)
		m.BoundsMax = m.BoundsMax.Max(v)
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

// GetBounds returns the axis-aligned bounding box.
func (m *Mesh) GetBounds() (lo, hi math3d.Vec3) {
	return m.BoundsMin, m.BoundsMax
}

// TriangleCount returns the number of triangles after quads are split.
func (m *Mesh) TriangleCount() int {
	n := 0
	for _, f := range m.Faces {
		n += len(f.Triangles())
	}
	return n
}

// VertexCount returns the number of distinct vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

// EmittedVertexCount returns how many vertices one immediate-mode pass over
// the faces issues.
func (m *Mesh) EmittedVertexCount() int {
	n := 0
	for _, f := range m.Faces {
		n += len(f.V)
	}
	return n
}

// Clone creates a deep copy of the mesh.
func (m *Mesh) Clone() *Mesh {
	clone := &Mesh{
		Name:      m.Name,
		Vertices:  make([]math3d.Vec3, len(m.Vertices)),
		Faces:     make([]Face, len(m.Faces)),
		BoundsMin: m.BoundsMin,
		BoundsMax: m.BoundsMax,
	}
	copy(clone.Vertices, m.Vertices)
	for i, f := range m.Faces {
		clone.Faces[i] = Face{V: append([]int(nil), f.V...), Color: f.Color}
	}
	return clone
}
