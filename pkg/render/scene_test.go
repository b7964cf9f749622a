package render

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/taigrr/pyramid/pkg/math3d"
	"github.com/taigrr/pyramid/pkg/models"
)

// call is one recorded Backend invocation.
type call struct {
	op     string
	color  Color
	prim   Primitive
	mode   PolygonMode
	vertex math3d.Vec3
	matrix math3d.Mat4
	rect   [4]int
}

// recorder is a Backend that records calls instead of drawing.
type recorder struct {
	calls      []call
	presentErr error
}

func (r *recorder) add(c call) { r.calls = append(r.calls, c) }

func (r *recorder) Viewport(x, y, w, h int) { r.add(call{op: "viewport", rect: [4]int{x, y, w, h}}) }
func (r *recorder) EnableDepthTest()        { r.add(call{op: "depth"}) }
func (r *recorder) SetClearColor(c Color)   { r.add(call{op: "clearColor", color: c}) }
func (r *recorder) SetPolygonMode(m PolygonMode) {
	r.add(call{op: "polygonMode", mode: m})
}
func (r *recorder) Clear()                     { r.add(call{op: "clear"}) }
func (r *recorder) SetTransform(m math3d.Mat4) { r.add(call{op: "transform", matrix: m}) }
func (r *recorder) Begin(p Primitive)          { r.add(call{op: "begin", prim: p}) }
func (r *recorder) Color(c Color)              { r.add(call{op: "color", color: c}) }
func (r *recorder) Vertex(v math3d.Vec3)       { r.add(call{op: "vertex", vertex: v}) }
func (r *recorder) End()                       { r.add(call{op: "end"}) }
func (r *recorder) Present() error {
	r.add(call{op: "present"})
	return r.presentErr
}

func (r *recorder) reset() { r.calls = nil }

// ops returns the recorded operation names, keeping only those listed.
func (r *recorder) ops(keep ...string) []string {
	var out []string
	for _, c := range r.calls {
		for _, k := range keep {
			if c.op == k {
				out = append(out, c.op)
				break
			}
		}
	}
	return out
}

func (r *recorder) filter(op string) []call {
	var out []call
	for _, c := range r.calls {
		if c.op == op {
			out = append(out, c)
		}
	}
	return out
}

func equalOps(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func expectedFrameOps() []string {
	ops := []string{"clear"}
	for range 4 {
		ops = append(ops, "color", "vertex", "vertex", "vertex")
	}
	ops = append(ops, "color", "vertex", "vertex", "vertex", "vertex", "present")
	return ops
}

// brokenView reproduces the eye == target == origin camera.
type brokenView struct{}

func (brokenView) View() (math3d.Mat4, error) {
	return math3d.LookAt(math3d.Zero3(), math3d.Zero3(), math3d.Up())
}

func (brokenView) Name() string { return "broken" }

// nanView returns a view matrix with a NaN element and no error.
type nanView struct{}

func (nanView) View() (math3d.Mat4, error) {
	m := math3d.Identity()
	m[0] = math.NaN()
	return m, nil
}

func (nanView) Name() string { return "nan" }

func TestRenderEndToEnd(t *testing.T) {
	rec := &recorder{}
	r := NewRenderer(rec)
	proj := r.Configure(800, 600)

	fs := FrameState{Angle: 0, Offset: math3d.V3(0, -6, -1)}
	if err := r.Render(fs, proj, math3d.Identity()); err != nil {
		t.Fatalf("Render: %v", err)
	}

	got := rec.ops("depth", "clear", "color", "vertex", "present")
	want := append([]string{"depth"}, expectedFrameOps()...)
	if !equalOps(got, want) {
		t.Fatalf("call order:\n got %v\nwant %v", got, want)
	}

	colors := rec.filter("color")
	wantColors := []Color{models.Red, models.Green, models.Blue, models.Yellow, models.Gray}
	for i, c := range colors {
		if c.color != wantColors[i] {
			t.Errorf("color %d = %v, want %v", i, c.color, wantColors[i])
		}
	}

	begins := rec.filter("begin")
	if len(begins) != 2 || begins[0].prim != Triangles || begins[1].prim != Quads {
		t.Errorf("begin calls = %v, want triangles then quads", begins)
	}

	transforms := rec.filter("transform")
	if len(transforms) != 1 {
		t.Fatalf("got %d transforms, want 1", len(transforms))
	}
	wantM := proj.Mul(math3d.Translate(fs.Offset))
	if !transforms[0].matrix.ApproxEqual(wantM, 1e-12) {
		t.Errorf("transform = %v, want %v", transforms[0].matrix, wantM)
	}

	cc := rec.filter("clearColor")
	if len(cc) == 0 || cc[0].color != CornflowerBlue {
		t.Errorf("clear color = %v, want cornflower blue", cc)
	}
}

func TestRenderVertexOrder(t *testing.T) {
	rec := &recorder{}
	r := NewRenderer(rec)
	r.Configure(640, 480)
	rec.reset()

	if err := r.Render(FrameState{Offset: DefaultOffset}, r.Projection().Matrix(), math3d.Identity()); err != nil {
		t.Fatal(err)
	}

	mesh := models.Pyramid()
	var want []math3d.Vec3
	for _, f := range mesh.Faces {
		for _, idx := range f.V {
			want = append(want, mesh.Vertices[idx])
		}
	}

	verts := rec.filter("vertex")
	if len(verts) != len(want) {
		t.Fatalf("emitted %d vertices, want %d", len(verts), len(want))
	}
	for i := range want {
		if verts[i].vertex != want[i] {
			t.Errorf("vertex %d = %v, want %v", i, verts[i].vertex, want[i])
		}
	}
}

func TestRenderAlwaysSixteenVertices(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	rec := &recorder{}
	r := NewRenderer(rec)
	proj := r.Configure(800, 600)

	for range 100 {
		rec.reset()
		fs := FrameState{
			Angle:  (rng.Float64()*2 - 1) * 1000,
			Offset: math3d.V3(rng.Float64()*10-5, rng.Float64()*10-5, rng.Float64()*20-10),
		}
		if err := r.Render(fs, proj, math3d.Identity()); err != nil {
			t.Fatalf("Render(%+v): %v", fs, err)
		}
		if got := rec.ops("clear", "color", "vertex", "present"); !equalOps(got, expectedFrameOps()) {
			t.Fatalf("Render(%+v) ops = %v", fs, got)
		}
	}
}

func TestRenderRejectsInvalidFrameState(t *testing.T) {
	rec := &recorder{}
	r := NewRenderer(rec)
	proj := r.Configure(800, 600)
	rec.reset()

	tests := []FrameState{
		{Angle: math.NaN(), Offset: DefaultOffset},
		{Angle: 0, Offset: math3d.V3(0, math.Inf(1), -6)},
	}
	for _, fs := range tests {
		err := r.Render(fs, proj, math3d.Identity())
		if !errors.Is(err, ErrInvalidFrameState) {
			t.Errorf("Render(%+v) error = %v, want ErrInvalidFrameState", fs, err)
		}
	}
	if len(rec.calls) != 0 {
		t.Errorf("invalid frames issued calls: %v", rec.ops("clear", "vertex", "present"))
	}
}

func TestRenderRejectsNonFiniteMatrices(t *testing.T) {
	rec := &recorder{}
	r := NewRenderer(rec)
	proj := r.Configure(800, 600)
	rec.reset()

	badView := math3d.Identity()
	badView[0] = math.NaN()
	infProj := proj
	infProj[5] = math.Inf(1)

	tests := []struct {
		name       string
		projection math3d.Mat4
		view       math3d.Mat4
	}{
		{"nan view", proj, badView},
		{"inf projection", infProj, math3d.Identity()},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec.reset()
			err := r.Render(FrameState{Offset: DefaultOffset}, tc.projection, tc.view)
			if !errors.Is(err, ErrInvalidTransform) {
				t.Errorf("Render error = %v, want ErrInvalidTransform", err)
			}
			if n := len(rec.filter("vertex")); n != 0 {
				t.Errorf("issued %d vertices, want 0", n)
			}
			if len(rec.calls) != 0 {
				t.Errorf("issued calls: %v", rec.ops("clear", "transform", "present"))
			}
		})
	}
}

func TestFrameSkipsNonFiniteView(t *testing.T) {
	rec := &recorder{}
	r := NewRenderer(rec, WithView(nanView{}))
	r.Configure(800, 600)
	rec.reset()

	if err := r.Frame(FrameState{Offset: DefaultOffset}); err != nil {
		t.Fatalf("Frame returned %v, want nil", err)
	}
	if got := rec.ops("clear", "vertex", "present"); !equalOps(got, []string{"clear", "present"}) {
		t.Errorf("non-finite view ops = %v, want [clear present]", got)
	}
	if st := r.Stats(); st.SkippedFrames != 1 {
		t.Errorf("SkippedFrames = %d, want 1", st.SkippedFrames)
	}
}

func TestFrameSkipsDegenerateCamera(t *testing.T) {
	rec := &recorder{}
	r := NewRenderer(rec, WithView(brokenView{}))
	r.Configure(800, 600)
	rec.reset()

	if err := r.Frame(FrameState{Offset: DefaultOffset}); err != nil {
		t.Fatalf("Frame returned %v, want nil", err)
	}
	if got := rec.ops("clear", "vertex", "present"); !equalOps(got, []string{"clear", "present"}) {
		t.Errorf("degenerate frame ops = %v, want [clear present]", got)
	}

	stats := r.Stats()
	if stats.Frames != 1 || stats.SkippedFrames != 1 {
		t.Errorf("stats = %+v, want 1 frame, 1 skipped", stats)
	}
	if r.Visible(FrameState{Offset: DefaultOffset}) {
		t.Error("Visible with a degenerate camera should be false")
	}
}

func TestFrameSkipsInvalidStateAndRecovers(t *testing.T) {
	rec := &recorder{}
	r := NewRenderer(rec)
	r.Configure(800, 600)

	rec.reset()
	if err := r.Frame(FrameState{Angle: math.Inf(-1), Offset: DefaultOffset}); err != nil {
		t.Fatalf("Frame: %v", err)
	}
	if len(rec.filter("vertex")) != 0 {
		t.Error("invalid frame state emitted geometry")
	}

	rec.reset()
	if err := r.Frame(FrameState{Angle: 30, Offset: DefaultOffset}); err != nil {
		t.Fatalf("Frame: %v", err)
	}
	if got := rec.ops("clear", "color", "vertex", "present"); !equalOps(got, expectedFrameOps()) {
		t.Errorf("recovered frame ops = %v", got)
	}

	stats := r.Stats()
	if stats.Frames != 2 || stats.SkippedFrames != 1 || stats.OffscreenFrames != 0 {
		t.Errorf("stats = %+v, want 2 frames, 1 skipped, 0 offscreen", stats)
	}
}

func TestFramePresentError(t *testing.T) {
	boom := errors.New("boom")
	rec := &recorder{presentErr: boom}
	r := NewRenderer(rec)
	r.Configure(800, 600)

	if err := r.Frame(FrameState{Offset: DefaultOffset}); !errors.Is(err, boom) {
		t.Errorf("Frame error = %v, want wrapped present error", err)
	}
	if err := r.Frame(FrameState{Angle: math.NaN()}); !errors.Is(err, boom) {
		t.Errorf("skipped Frame error = %v, want wrapped present error", err)
	}
}

func TestRendererFramingAndDistance(t *testing.T) {
	r := NewRenderer(&recorder{})
	r.Configure(800, 600)

	tests := []struct {
		name    string
		fs      FrameState
		framing Framing
		dist    float64
	}{
		{"default offset", FrameState{Offset: DefaultOffset}, FramingFull, math.Sqrt(36.25)},
		{"turned in place", FrameState{Angle: 30, Offset: DefaultOffset}, FramingFull, math.Sqrt(36.25)},
		{"straddling the near plane", FrameState{Offset: math3d.V3(0, 0, -1)}, FramingPartial, math.Sqrt(1.25)},
		{"behind the camera", FrameState{Offset: math3d.V3(0, 0, 10)}, FramingOff, math.Sqrt(100.25)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := r.Framing(tc.fs); got != tc.framing {
				t.Errorf("Framing = %v, want %v", got, tc.framing)
			}
			if got := r.Visible(tc.fs); got != (tc.framing != FramingOff) {
				t.Errorf("Visible = %v", got)
			}
			d, ok := r.Distance(tc.fs)
			if !ok || math.Abs(d-tc.dist) > 1e-9 {
				t.Errorf("Distance = %v, %v, want %v", d, ok, tc.dist)
			}
		})
	}

	broken := NewRenderer(&recorder{}, WithView(nanView{}))
	broken.Configure(800, 600)
	if got := broken.Framing(FrameState{Offset: DefaultOffset}); got != FramingOff {
		t.Errorf("Framing with a non-finite view = %v, want off-screen", got)
	}
	if _, ok := broken.Distance(FrameState{Offset: DefaultOffset}); ok {
		t.Error("Distance with a non-finite view reported ok")
	}
}

func TestFrameCountsOffscreen(t *testing.T) {
	rec := &recorder{}
	r := NewRenderer(rec)
	r.Configure(800, 600)

	behind := FrameState{Offset: math3d.V3(0, 0, 10)}
	if r.Visible(behind) {
		t.Error("pyramid behind the camera reported visible")
	}
	if !r.Visible(FrameState{Offset: DefaultOffset}) {
		t.Error("pyramid at the default offset reported invisible")
	}

	rec.reset()
	if err := r.Frame(behind); err != nil {
		t.Fatal(err)
	}
	if r.Stats().OffscreenFrames != 1 {
		t.Errorf("OffscreenFrames = %d, want 1", r.Stats().OffscreenFrames)
	}
	// Geometry is still emitted.
	if n := len(rec.filter("vertex")); n != 16 {
		t.Errorf("offscreen frame emitted %d vertices, want 16", n)
	}
}

func TestFrameUsesLookAtView(t *testing.T) {
	eye, target := math3d.V3(0, 3, 0), math3d.V3(0, 0, -6)
	view, err := NewLookAtView(eye, target, math3d.Up())
	if err != nil {
		t.Fatal(err)
	}

	rec := &recorder{}
	r := NewRenderer(rec, WithView(view))
	proj := r.Configure(800, 600)
	rec.reset()

	fs := FrameState{Angle: 15, Offset: DefaultOffset}
	if err := r.Frame(fs); err != nil {
		t.Fatal(err)
	}

	v, _ := math3d.LookAt(eye, target, math3d.Up())
	want := proj.Mul(v).Mul(fs.Model())
	got := rec.filter("transform")
	if len(got) != 1 || !got[0].matrix.ApproxEqual(want, 1e-12) {
		t.Errorf("transform = %v, want %v", got, want)
	}
}

func TestConfigureClampsAndForwardsViewport(t *testing.T) {
	rec := &recorder{}
	r := NewRenderer(rec)

	zero := r.Configure(800, 0)
	one := r.Configure(800, 1)
	if zero != one {
		t.Errorf("Configure(800, 0) = %v, want Configure(800, 1) = %v", zero, one)
	}
	if !zero.IsFinite() {
		t.Errorf("Configure(800, 0) produced non-finite matrix %v", zero)
	}

	vps := rec.filter("viewport")
	if len(vps) != 2 || vps[0].rect != [4]int{0, 0, 800, 1} {
		t.Errorf("viewports = %v, want (0, 0, 800, 1)", vps)
	}

	if m := r.Configure(0, -5); !m.IsFinite() {
		t.Errorf("Configure(0, -5) produced non-finite matrix %v", m)
	}
}

func TestSetWireframeAndClearColor(t *testing.T) {
	rec := &recorder{}
	r := NewRenderer(rec, WithClearColor(RGB(1, 2, 3)))
	rec.reset()

	r.SetWireframe(true)
	r.SetWireframe(false)
	modes := rec.filter("polygonMode")
	if len(modes) != 2 || modes[0].mode != Line || modes[1].mode != Fill {
		t.Errorf("polygon modes = %v, want line then fill", modes)
	}

	r.SetClearColor(ColorBlack)
	if r.ClearColor() != ColorBlack {
		t.Errorf("ClearColor = %v", r.ClearColor())
	}
	if cc := rec.filter("clearColor"); len(cc) != 1 || cc[0].color != ColorBlack {
		t.Errorf("clear color calls = %v", cc)
	}
}

func TestFrameStateModel(t *testing.T) {
	fs := FrameState{Angle: 90, Offset: DefaultOffset}
	p := fs.Model().MulVec3(math3d.V3(1, 0, 0))
	if !p.ApproxEqual(math3d.V3(0, 0, -7), 1e-12) {
		t.Errorf("model * +X = %v, want (0, 0, -7)", p)
	}
}

func BenchmarkRendererFrame(b *testing.B) {
	rast := NewRasterizer()
	r := NewRenderer(rast)
	r.Configure(160, 96)
	fs := FrameState{Offset: DefaultOffset}

	for b.Loop() {
		fs.Angle += 1
		_ = r.Frame(fs)
	}
}
