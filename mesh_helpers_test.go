package fabric

import (
	"math"
	"testing"
)

func runNode(t *testing.T, n Node) {
	t.Helper()
	if err := n.Execute(tickCtx(0), nil, nil); err != nil {
		t.Fatalf("%s: %v", n.Name(), err)
	}
}

// --- Rect ---

func TestRectGeometryNode(t *testing.T) {
	n := NewRectGeometryNode("rect", 40, 20)
	runNode(t, n)
	geo, ok := n.OutputGeometry.Value()
	if !ok {
		t.Fatal("no geometry published")
	}
	if len(geo.Vertices) != 4 || geo.TriangleCount() != 2 {
		t.Fatalf("verts=%d tris=%d", len(geo.Vertices), geo.TriangleCount())
	}
	if b := geo.Bounds(); b != (Rect{Width: 40, Height: 20}) {
		t.Errorf("Bounds = %+v", b)
	}
	// Clockwise TL, TR, BR, BL with normalized UVs.
	br := geo.Vertices[2]
	if br.DstX != 40 || br.DstY != 20 || br.SrcX != 1 || br.SrcY != 1 {
		t.Errorf("bottom-right = %+v", br)
	}
	if a := signedArea(geo.Vertices[0], geo.Vertices[1], geo.Vertices[2]); a <= 0 {
		t.Errorf("first triangle area = %v, want front-facing", a)
	}
}

func TestRectGeometrySizeInlet(t *testing.T) {
	g := NewGraph()
	size := NewValueNode("size", Vec2{8, 6})
	n := NewRectGeometryNode("rect", 1, 1)
	g.MustAddNode(size, n)
	g.MustConnect(size.Output, n.InputSize)
	runNode(t, size)
	runNode(t, n)
	if geo, _ := n.OutputGeometry.Value(); geo.Bounds() != (Rect{Width: 8, Height: 6}) {
		t.Errorf("Bounds = %+v, want 8x6", geo.Bounds())
	}

	size.Set(Vec2{0, 6})
	runNode(t, size)
	runNode(t, n)
	if n.OutputGeometry.HasValue() {
		t.Error("zero-width rect should publish nothing")
	}
}

// --- Polygon ---

func TestBuildPolygonFan(t *testing.T) {
	pts := []Vec2{{0, 0}, {10, 0}, {10, 10}, {5, 15}, {0, 10}}
	verts, inds := buildPolygonFan(pts)
	if len(verts) != 5 || len(inds) != 9 {
		t.Fatalf("verts=%d inds=%d, want 5 and 9", len(verts), len(inds))
	}
	want := []uint16{0, 1, 2, 0, 2, 3, 0, 3, 4}
	for i := range want {
		if inds[i] != want[i] {
			t.Fatalf("inds = %v, want %v", inds, want)
		}
	}
	if v := verts[3]; v.SrcX != 0.5 || v.SrcY != 1 {
		t.Errorf("apex UV = (%v,%v), want (0.5,1)", v.SrcX, v.SrcY)
	}
	if v, _ := buildPolygonFan(pts[:2]); v != nil {
		t.Error("fewer than 3 points should build nothing")
	}
}

func TestPolygonGeometryNode(t *testing.T) {
	n := NewPolygonGeometryNode("poly", []Vec2{{0, 0}, {4, 0}, {0, 4}})
	runNode(t, n)
	if geo, ok := n.OutputGeometry.Value(); !ok || geo.TriangleCount() != 1 {
		t.Fatal("triangle not published")
	}
	n.SetPoints([]Vec2{{0, 0}, {1, 1}})
	if !n.IsDirty() {
		t.Error("SetPoints should mark dirty")
	}
	runNode(t, n)
	if n.OutputGeometry.HasValue() {
		t.Error("degenerate polygon should publish nothing")
	}
}

func TestPolygonGeometryLimits(t *testing.T) {
	ring := func(n int) []Vec2 {
		pts := make([]Vec2, n)
		for i := range pts {
			a := 2 * math.Pi * float64(i) / float64(n)
			pts[i] = Vec2{X: math.Cos(a), Y: math.Sin(a)}
		}
		return pts
	}
	tests := []struct {
		name   string
		points int
		want   bool
	}{
		{"two points", 2, false},
		{"triangle", 3, true},
		{"exactly 16-bit", 1 << 16, true},
		{"too many vertices", 1<<16 + 1, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			n := NewPolygonGeometryNode("poly", ring(tc.points))
			runNode(t, n)
			if got := n.OutputGeometry.HasValue(); got != tc.want {
				t.Errorf("published = %v, want %v", got, tc.want)
			}
		})
	}

	// A published polygon that used to be valid is cleared, not wrapped.
	n := NewPolygonGeometryNode("poly", ring(3))
	runNode(t, n)
	n.SetPoints(ring(1<<16 + 1))
	runNode(t, n)
	if n.OutputGeometry.HasValue() {
		t.Error("oversized polygon left the previous geometry published")
	}
}

// --- Grid ---

func TestGridGeometryNode(t *testing.T) {
	n := NewGridGeometryNode("grid", 30, 20, 3, 2)
	runNode(t, n)
	geo, ok := n.OutputGeometry.Value()
	if !ok {
		t.Fatal("no geometry published")
	}
	if len(geo.Vertices) != 12 || geo.TriangleCount() != 12 {
		t.Fatalf("verts=%d tris=%d, want 12 and 12", len(geo.Vertices), geo.TriangleCount())
	}
	last := geo.Vertices[11]
	if last.DstX != 30 || last.DstY != 20 || last.SrcX != 1 || last.SrcY != 1 {
		t.Errorf("last vertex = %+v", last)
	}
	for i := 0; i < len(geo.Indices); i += 3 {
		a := signedArea(geo.Vertices[geo.Indices[i]], geo.Vertices[geo.Indices[i+1]], geo.Vertices[geo.Indices[i+2]])
		if a <= 0 {
			t.Fatalf("triangle %d not front-facing (area %v)", i/3, a)
		}
	}
}

func TestGridGeometryDeform(t *testing.T) {
	g := NewGraph()
	phase := NewValueNode("phase", math.Pi/2)
	n := NewGridGeometryNode("wave", 10, 10, 1, 1)
	n.Deform = func(col, row int, rest Vec2, p float64) Vec2 {
		return Vec2{X: rest.X, Y: rest.Y + math.Sin(p)*float64(col)}
	}
	g.MustAddNode(phase, n)
	g.MustConnect(phase.Output, n.InputPhase)
	runNode(t, phase)
	runNode(t, n)

	geo, _ := n.OutputGeometry.Value()
	if geo.Vertices[0].DstY != 0 || geo.Vertices[1].DstY != 1 {
		t.Errorf("deformed Y = %v, %v; want 0, 1", geo.Vertices[0].DstY, geo.Vertices[1].DstY)
	}

	// Rest positions are kept, so deformation does not accumulate.
	runNode(t, n)
	if geo.Vertices[1].DstY != 1 {
		t.Errorf("second build Y = %v, want 1", geo.Vertices[1].DstY)
	}
}

func TestGridGeometryLimits(t *testing.T) {
	tests := []struct {
		name       string
		w, h       float64
		cols, rows int
		want       bool
	}{
		{"zero width", 0, 10, 2, 2, false},
		{"clamped cells", 10, 10, 0, -1, true},
		{"too many vertices", 10, 10, 300, 300, false},
		{"exactly 16-bit", 10, 10, 255, 255, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			n := NewGridGeometryNode("grid", tc.w, tc.h, tc.cols, tc.rows)
			runNode(t, n)
			if got := n.OutputGeometry.HasValue(); got != tc.want {
				t.Errorf("published = %v, want %v", got, tc.want)
			}
		})
	}
}

func BenchmarkGridGeometry_32x32(b *testing.B) {
	n := NewGridGeometryNode("grid", 256, 256, 32, 32)
	n.Deform = func(_, _ int, rest Vec2, p float64) Vec2 {
		return Vec2{X: rest.X, Y: rest.Y + math.Sin(p+rest.X)}
	}
	ctx := tickCtx(0)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = n.Execute(ctx, nil, nil)
	}
}
