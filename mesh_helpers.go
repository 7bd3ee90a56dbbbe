package fabric

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// --- Rect ---

// RectGeometryNode produces an axis-aligned quad with its top-left corner at
// the local origin. The Size inlet overrides Width and Height when connected.
type RectGeometryNode struct {
	BaseNode
	InputSize      *Inlet[Vec2]
	OutputGeometry *Outlet[*Geometry]

	Width, Height float64

	geometry Geometry
}

// NewRectGeometryNode creates a w x h quad source.
func NewRectGeometryNode(name string, w, h float64) *RectGeometryNode {
	n := &RectGeometryNode{Width: w, Height: h}
	n.Init(name, NodeTypeGeneric)
	n.InputSize = NewInlet[Vec2](&n.BaseNode, "Size")
	n.OutputGeometry = NewOutlet[*Geometry](&n.BaseNode, "Geometry")
	return n
}

func (n *RectGeometryNode) Execute(_ *ExecutionContext, _ *ebiten.Image, _ *CommandBuffer) error {
	size := n.InputSize.ValueOr(Vec2{X: n.Width, Y: n.Height})
	if size.X <= 0 || size.Y <= 0 {
		n.OutputGeometry.Clear()
		return nil
	}
	n.geometry.Vertices, n.geometry.Indices = buildQuad(n.geometry.Vertices, n.geometry.Indices, size.X, size.Y)
	n.OutputGeometry.Send(&n.geometry)
	return nil
}

// buildQuad writes a clockwise w x h quad into the given buffers.
func buildQuad(verts []ebiten.Vertex, inds []uint16, w, h float64) ([]ebiten.Vertex, []uint16) {
	fw, fh := float32(w), float32(h)
	verts = append(verts[:0],
		ebiten.Vertex{DstX: 0, DstY: 0, SrcX: 0, SrcY: 0, ColorR: 1, ColorG: 1, ColorB: 1, ColorA: 1},
		ebiten.Vertex{DstX: fw, DstY: 0, SrcX: 1, SrcY: 0, ColorR: 1, ColorG: 1, ColorB: 1, ColorA: 1},
		ebiten.Vertex{DstX: fw, DstY: fh, SrcX: 1, SrcY: 1, ColorR: 1, ColorG: 1, ColorB: 1, ColorA: 1},
		ebiten.Vertex{DstX: 0, DstY: fh, SrcX: 0, SrcY: 1, ColorR: 1, ColorG: 1, ColorB: 1, ColorA: 1},
	)
	inds = append(inds[:0], 0, 1, 2, 0, 2, 3)
	return verts, inds
}

// --- Polygon ---

// PolygonGeometryNode fan-triangulates a convex polygon. The Points inlet
// overrides the static Points when connected. Fewer than 3 points publish
// nothing.
type PolygonGeometryNode struct {
	BaseNode
	InputPoints    *Inlet[[]Vec2]
	OutputGeometry *Outlet[*Geometry]

	Points []Vec2

	geometry Geometry
}

// NewPolygonGeometryNode creates a polygon source from points.
func NewPolygonGeometryNode(name string, points []Vec2) *PolygonGeometryNode {
	n := &PolygonGeometryNode{Points: points}
	n.Init(name, NodeTypeGeneric)
	n.InputPoints = NewInlet[[]Vec2](&n.BaseNode, "Points")
	n.OutputGeometry = NewOutlet[*Geometry](&n.BaseNode, "Geometry")
	return n
}

// SetPoints replaces the static points and marks the node dirty.
func (n *PolygonGeometryNode) SetPoints(points []Vec2) {
	n.Points = points
	n.MarkDirty()
}

func (n *PolygonGeometryNode) Execute(_ *ExecutionContext, _ *ebiten.Image, _ *CommandBuffer) error {
	points := n.InputPoints.ValueOr(n.Points)
	verts, inds := buildPolygonFan(points)
	if verts == nil {
		n.OutputGeometry.Clear()
		return nil
	}
	n.geometry.Vertices, n.geometry.Indices = verts, inds
	n.OutputGeometry.Send(&n.geometry)
	return nil
}

// buildPolygonFan generates vertices and indices for a fan-triangulated polygon.
// N vertices, 3*(N-2) indices. UVs are mapped to the bounding box of the points.
// Polygons with fewer than 3 points or more points than 16-bit indices can
// address build nothing.
func buildPolygonFan(points []Vec2) ([]ebiten.Vertex, []uint16) {
	n := len(points)
	if n < 3 || n > 1<<16 {
		return nil, nil
	}

	verts := make([]ebiten.Vertex, n)
	inds := make([]uint16, (n-2)*3)

	minX, minY := points[0].X, points[0].Y
	maxX, maxY := minX, minY
	for _, p := range points[1:] {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	bw, bh := maxX-minX, maxY-minY

	for i, p := range points {
		var u, v float32
		if bw > 0 {
			u = float32((p.X - minX) / bw)
		}
		if bh > 0 {
			v = float32((p.Y - minY) / bh)
		}
		verts[i] = ebiten.Vertex{
			DstX: float32(p.X), DstY: float32(p.Y),
			SrcX: u, SrcY: v,
			ColorR: 1, ColorG: 1, ColorB: 1, ColorA: 1,
		}
	}

	for i := 0; i < n-2; i++ {
		inds[i*3+0] = 0
		inds[i*3+1] = uint16(i + 1)
		inds[i*3+2] = uint16(i + 2)
	}
	return verts, inds
}

// --- Grid ---

// GridGeometryNode produces a subdivided plane. When Deform is set, every
// vertex is displaced from its rest position using the Phase inlet, so a
// tween driving Phase animates the surface.
type GridGeometryNode struct {
	BaseNode
	InputPhase     *Inlet[float64]
	OutputGeometry *Outlet[*Geometry]

	Width, Height float64
	Cols, Rows    int
	// Deform maps a rest position to a displaced one.
	Deform func(col, row int, rest Vec2, phase float64) Vec2

	geometry Geometry
	rest     []Vec2
}

// NewGridGeometryNode creates a w x h plane split into cols x rows cells.
func NewGridGeometryNode(name string, w, h float64, cols, rows int) *GridGeometryNode {
	n := &GridGeometryNode{Width: w, Height: h, Cols: cols, Rows: rows}
	n.Init(name, NodeTypeGeneric)
	n.InputPhase = NewInlet[float64](&n.BaseNode, "Phase")
	n.OutputGeometry = NewOutlet[*Geometry](&n.BaseNode, "Geometry")
	return n
}

func (n *GridGeometryNode) Execute(_ *ExecutionContext, _ *ebiten.Image, _ *CommandBuffer) error {
	if n.Width <= 0 || n.Height <= 0 {
		n.OutputGeometry.Clear()
		return nil
	}
	cols, rows := max(n.Cols, 1), max(n.Rows, 1)
	vcols := cols + 1
	if vcols*(rows+1) > 1<<16 {
		n.OutputGeometry.Clear()
		return nil
	}
	n.build(cols, rows)

	if n.Deform != nil {
		phase := n.InputPhase.ValueOr(0)
		for i, p := range n.rest {
			d := n.Deform(i%vcols, i/vcols, p, phase)
			n.geometry.Vertices[i].DstX = float32(d.X)
			n.geometry.Vertices[i].DstY = float32(d.Y)
		}
	}
	n.OutputGeometry.Send(&n.geometry)
	return nil
}

// build regenerates the rest mesh for the current dimensions.
func (n *GridGeometryNode) build(cols, rows int) {
	vcols, vrows := cols+1, rows+1
	numVerts := vcols * vrows

	verts := n.geometry.Vertices[:0]
	rest := n.rest[:0]
	cellW := n.Width / float64(cols)
	cellH := n.Height / float64(rows)
	for r := 0; r < vrows; r++ {
		for c := 0; c < vcols; c++ {
			x := float64(c) * cellW
			y := float64(r) * cellH
			verts = append(verts, ebiten.Vertex{
				DstX: float32(x), DstY: float32(y),
				SrcX: float32(c) / float32(cols), SrcY: float32(r) / float32(rows),
				ColorR: 1, ColorG: 1, ColorB: 1, ColorA: 1,
			})
			rest = append(rest, Vec2{X: x, Y: y})
		}
	}

	inds := n.geometry.Indices[:0]
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			tl := uint16(r*vcols + c)
			tr := tl + 1
			bl := uint16((r+1)*vcols + c)
			br := bl + 1
			inds = append(inds, tl, tr, bl, tr, br, bl)
		}
	}
	n.geometry.Vertices, n.geometry.Indices, n.rest = verts[:numVerts], inds, rest
}
