package render

import "github.com/taigrr/pyramid/pkg/math3d"

// Primitive selects how vertices between Begin and End are grouped.
type Primitive int

const (
	// Triangles groups every 3 vertices into a triangle.
	Triangles Primitive = iota
	// Quads groups every 4 vertices into a quad.
	Quads
)

func (p Primitive) String() string {
	switch p {
	case Triangles:
		return "triangles"
	case Quads:
		return "quads"
	default:
		return "unknown"
	}
}

// VertexCount returns how many vertices make up one primitive.
func (p Primitive) VertexCount() int {
	if p == Quads {
		return 4
	}
	return 3
}

// PolygonMode selects filled or outlined primitives.
type PolygonMode int

const (
	// Fill paints the interior of each face.
	Fill PolygonMode = iota
	// Line draws only the edges of each face.
	Line
)

// Backend is an immediate-mode drawing sink. Calls follow the classic
// fixed-function order: Clear, SetTransform, then Begin, Color and Vertex
// calls, End, and finally Present.
//
// Implementations are not safe for concurrent use.
type Backend interface {
	Viewport(x, y, width, height int)
	EnableDepthTest()
	SetClearColor(c Color)
	SetPolygonMode(mode PolygonMode)
	Clear()

	// SetTransform sets the matrix applied to every following vertex,
	// taking model space straight to clip space.
	SetTransform(m math3d.Mat4)

	Begin(p Primitive)
	Color(c Color)
	Vertex(v math3d.Vec3)
	End()

	Present() error
}
