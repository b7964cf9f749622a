package render

import (
	"errors"
	"math"

	"github.com/taigrr/pyramid/pkg/math3d"
)

// ErrNoViewport is returned by Present before the first Viewport call.
var ErrNoViewport = errors.New("rasterizer: viewport not set")

// A quad clipped by one plane gains at most one vertex.
const maxClipVerts = 8

// RasterStats counts work done since the last Clear.
type RasterStats struct {
	Primitives int // Primitives completed between Begin and End
	Culled     int // Primitives entirely behind the near plane
	Fragments  int // Pixels written
}

// Rasterizer is a software Backend drawing flat-colored primitives into a
// double-buffered Framebuffer with a depth buffer.
//
// A Rasterizer is not safe for concurrent use.
type Rasterizer struct {
	front, back *Framebuffer
	zbuffer     []float64 // Depth buffer (row-major, NDC z)

	vx, vy, vw, vh int // Viewport

	clearColor Color
	depthTest  bool
	mode       PolygonMode
	transform  math3d.Mat4

	inPrimitive bool
	prim        Primitive
	color       Color
	pending     [4]math3d.Vec4
	npending    int

	clipBuf [maxClipVerts]math3d.Vec4

	Stats RasterStats
}

var _ Backend = (*Rasterizer)(nil)

// NewRasterizer creates a rasterizer with no viewport. Call Viewport before
// drawing.
func NewRasterizer() *Rasterizer {
	return &Rasterizer{
		front:      NewFramebuffer(0, 0),
		back:       NewFramebuffer(0, 0),
		clearColor: ColorBlack,
		transform:  math3d.Identity(),
	}
}

// Viewport maps NDC to the pixel rectangle (x, y, width, height), with y
// measured from the top. Width and height are clamped to at least 1 and
// both buffers grow to hold the rectangle.
func (r *Rasterizer) Viewport(x, y, width, height int) {
	x, y = max(x, 0), max(y, 0)
	width, height = max(width, 1), max(height, 1)
	r.vx, r.vy, r.vw, r.vh = x, y, width, height

	fw, fh := x+width, y+height
	if r.back.Width != fw || r.back.Height != fh {
		r.back.Resize(fw, fh)
		r.front.Resize(fw, fh)
		r.front.Clear(r.clearColor)
		r.zbuffer = make([]float64, fw*fh)
		r.clearDepth()
	}
}

// EnableDepthTest turns on depth testing for filled primitives.
func (r *Rasterizer) EnableDepthTest() {
	r.depthTest = true
}

// DepthTest reports whether depth testing is on.
func (r *Rasterizer) DepthTest() bool {
	return r.depthTest
}

// SetClearColor sets the color used by Clear.
func (r *Rasterizer) SetClearColor(c Color) {
	r.clearColor = c
}

// SetPolygonMode selects filled or outlined primitives. Outlines ignore the
// depth buffer.
func (r *Rasterizer) SetPolygonMode(mode PolygonMode) {
	r.mode = mode
}

// Clear fills the back buffer with the clear color and resets depth to +Inf.
func (r *Rasterizer) Clear() {
	r.back.Clear(r.clearColor)
	r.clearDepth()
	r.Stats = RasterStats{}
}

func (r *Rasterizer) clearDepth() {
	n := len(r.zbuffer)
	if n == 0 {
		return
	}
	r.zbuffer[0] = math.Inf(1)
	for i := 1; i < n; i *= 2 {
		copy(r.zbuffer[i:], r.zbuffer[:i])
	}
}

// SetTransform sets the model-to-clip matrix for following vertices.
func (r *Rasterizer) SetTransform(m math3d.Mat4) {
	r.transform = m
}

// Begin starts a primitive batch. A Begin inside an open batch restarts it.
func (r *Rasterizer) Begin(p Primitive) {
	r.inPrimitive = true
	r.prim = p
	r.npending = 0
}

// Color sets the flat color of the following primitives.
func (r *Rasterizer) Color(c Color) {
	r.color = c
}

// Vertex adds a vertex to the open batch. Vertices outside Begin/End are
// ignored.
func (r *Rasterizer) Vertex(v math3d.Vec3) {
	if !r.inPrimitive {
		return
	}
	r.pending[r.npending] = r.transform.MulVec4(math3d.V4FromV3(v, 1))
	r.npending++
	if r.npending == r.prim.VertexCount() {
		r.drawPolygon(r.pending[:r.npending], r.color)
		r.npending = 0
	}
}

// End closes the batch, dropping an incomplete trailing primitive.
func (r *Rasterizer) End() {
	r.inPrimitive = false
	r.npending = 0
}

// Present swaps the back buffer to the front.
func (r *Rasterizer) Present() error {
	if r.back.Width == 0 || r.back.Height == 0 {
		return ErrNoViewport
	}
	r.front, r.back = r.back, r.front
	return nil
}

// Front returns the most recently presented frame. It stays valid until the
// next Present.
func (r *Rasterizer) Front() *Framebuffer {
	return r.front
}

// Size returns the framebuffer dimensions.
func (r *Rasterizer) Size() (width, height int) {
	return r.back.Width, r.back.Height
}

// getDepth returns the depth at (x, y).
func (r *Rasterizer) getDepth(x, y int) float64 {
	if x < 0 || x >= r.back.Width || y < 0 || y >= r.back.Height {
		return math.Inf(1)
	}
	return r.zbuffer[y*r.back.Width+x]
}

// screenVertex holds a vertex transformed to screen space.
type screenVertex struct {
	X, Y float64 // Screen coordinates
	Z    float64 // NDC depth
}

func (r *Rasterizer) drawPolygon(clip []math3d.Vec4, c Color) {
	r.Stats.Primitives++

	poly := clipNear(clip, r.clipBuf[:0])
	if len(poly) < 3 {
		r.Stats.Culled++
		return
	}

	var sv [maxClipVerts]screenVertex
	for i, p := range poly {
		if p.W <= 0 {
			r.Stats.Culled++
			return
		}
		s, ok := r.toScreen(p)
		if !ok {
			return
		}
		sv[i] = s
	}
	verts := sv[:len(poly)]

	if r.mode == Line {
		for i := range verts {
			r.drawEdge(verts[i], verts[(i+1)%len(verts)], c)
		}
		return
	}

	for i := 1; i+1 < len(verts); i++ {
		r.fillTriangle(verts[0], verts[i], verts[i+1], c)
	}
}

// toScreen performs the perspective divide and viewport mapping (y down).
func (r *Rasterizer) toScreen(p math3d.Vec4) (screenVertex, bool) {
	ndc := p.PerspectiveDivide()
	if !ndc.IsFinite() {
		return screenVertex{}, false
	}
	return screenVertex{
		X: float64(r.vx) + (ndc.X+1)*0.5*float64(r.vw),
		Y: float64(r.vy) + (1-ndc.Y)*0.5*float64(r.vh),
		Z: ndc.Z,
	}, true
}

// clipNear clips a convex polygon in clip space against the near plane
// z >= -w (Sutherland-Hodgman) and appends the result to out.
func clipNear(in []math3d.Vec4, out []math3d.Vec4) []math3d.Vec4 {
	for i, cur := range in {
		next := in[(i+1)%len(in)]
		dc, dn := cur.Z+cur.W, next.Z+next.W
		if dc >= 0 {
			out = append(out, cur)
		}
		if (dc >= 0) != (dn >= 0) {
			out = append(out, cur.Lerp(next, dc/(dc-dn)))
		}
	}
	return out
}

// edgeCoeffs returns A, B, C such that A*x + B*y + C is the cross product of
// (p1 - p0) and (p - p0): positive left of the edge, zero on it.
func edgeCoeffs(x0, y0, x1, y1 float64) (a, b, c float64) {
	return y0 - y1, x1 - x0, x0*y1 - x1*y0
}

// fillTriangle fills a screen-space triangle of either winding using edge
// functions stepped incrementally across the bounding box.
func (r *Rasterizer) fillTriangle(v0, v1, v2 screenVertex, c Color) {
	area2 := (v1.X-v0.X)*(v2.Y-v0.Y) - (v1.Y-v0.Y)*(v2.X-v0.X)
	if area2 == 0 || math.IsNaN(area2) {
		return
	}
	invArea := 1.0 / area2

	w, h := r.back.Width, r.back.Height
	minX := clampPixel(math.Floor(min(v0.X, v1.X, v2.X)), w)
	maxX := clampPixel(math.Ceil(max(v0.X, v1.X, v2.X)), w)
	minY := clampPixel(math.Floor(min(v0.Y, v1.Y, v2.Y)), h)
	maxY := clampPixel(math.Ceil(max(v0.Y, v1.Y, v2.Y)), h)
	minX, maxX = max(minX, 0), min(maxX, w-1)
	minY, maxY = max(minY, 0), min(maxY, h-1)
	if minX > maxX || minY > maxY {
		return
	}

	// Edge i is opposite vertex i, so its normalized value is that vertex's
	// barycentric weight.
	a0, b0, c0 := edgeCoeffs(v1.X, v1.Y, v2.X, v2.Y)
	a1, b1, c1 := edgeCoeffs(v2.X, v2.Y, v0.X, v0.Y)
	a2, b2, c2 := edgeCoeffs(v0.X, v0.Y, v1.X, v1.Y)
	a0, b0, c0 = a0*invArea, b0*invArea, c0*invArea
	a1, b1, c1 = a1*invArea, b1*invArea, c1*invArea
	a2, b2, c2 = a2*invArea, b2*invArea, c2*invArea

	px := float64(minX) + 0.5
	for y := minY; y <= maxY; y++ {
		py := float64(y) + 0.5
		w0 := a0*px + b0*py + c0
		w1 := a1*px + b1*py + c1
		w2 := a2*px + b2*py + c2

		for x := minX; x <= maxX; x++ {
			if w0 >= 0 && w1 >= 0 && w2 >= 0 {
				r.plot(x, y, w0*v0.Z+w1*v1.Z+w2*v2.Z, c)
			}
			w0 += a0
			w1 += a1
			w2 += a2
		}
	}
}

// clampPixel converts f to a pixel index in [-1, n], clamping in float
// space so far off-screen vertices cannot overflow int.
func clampPixel(f float64, n int) int {
	return int(math3d.Clamp(f, -1, float64(n)))
}

func (r *Rasterizer) plot(x, y int, z float64, c Color) {
	i := y*r.back.Width + x
	if r.depthTest {
		if z < -1 || z > 1 || !(z < r.zbuffer[i]) {
			return
		}
		r.zbuffer[i] = z
	}
	r.back.Pixels[i] = c
	r.Stats.Fragments++
}

// drawEdge draws a screen-space segment clipped to the framebuffer.
func (r *Rasterizer) drawEdge(a, b screenVertex, c Color) {
	x0, y0, x1, y1, ok := clipSegment(a.X, a.Y, b.X, b.Y,
		0, 0, float64(r.back.Width-1), float64(r.back.Height-1))
	if !ok {
		return
	}
	r.back.DrawLine(int(math.Round(x0)), int(math.Round(y0)), int(math.Round(x1)), int(math.Round(y1)), c)
}

// clipSegment clips a segment to a rectangle (Liang-Barsky).
func clipSegment(x0, y0, x1, y1, xmin, ymin, xmax, ymax float64) (cx0, cy0, cx1, cy1 float64, ok bool) {
	dx, dy := x1-x0, y1-y0
	t0, t1 := 0.0, 1.0

	edges := [4][2]float64{
		{-dx, x0 - xmin},
		{dx, xmax - x0},
		{-dy, y0 - ymin},
		{dy, ymax - y0},
	}
	for _, e := range edges {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return 0, 0, 0, 0, false
			}
			continue
		}
		t := q / p
		if p < 0 {
			if t > t1 {
				return 0, 0, 0, 0, false
			}
			t0 = max(t0, t)
		} else {
			if t < t0 {
				return 0, 0, 0, 0, false
			}
			t1 = min(t1, t)
		}
	}
	return x0 + t0*dx, y0 + t0*dy, x0 + t1*dx, y0 + t1*dy, true
}
