package fabric

import (
	"github.com/google/uuid"
	"github.com/hajimehoshi/ebiten/v2"
)

// SceneObject is an externally visible object produced by an Object, Light
// or Mesh node and consumed by a Renderer.
type SceneObject interface {
	ObjectID() uuid.UUID
	// Children returns nested objects. Leaf objects return nil.
	Children() []SceneObject
}

// CullMode selects which triangle winding is discarded at draw time.
// Front-facing triangles have clockwise screen-space winding (positive signed
// area with Y pointing down).
type CullMode uint8

const (
	CullBack  CullMode = iota // discard back-facing triangles
	CullFront                 // discard front-facing triangles
	CullNone                  // keep everything
)

func (m CullMode) String() string {
	switch m {
	case CullBack:
		return "Back"
	case CullFront:
		return "Front"
	case CullNone:
		return "None"
	default:
		return "Unknown"
	}
}

// ParseCullMode maps "Back", "Front" and "None" to a CullMode. Unknown names
// fall back to CullBack.
func ParseCullMode(s string) CullMode {
	switch s {
	case "Front":
		return CullFront
	case "None":
		return CullNone
	default:
		return CullBack
	}
}

// Geometry is an indexed triangle list in local space. Vertex SrcX/SrcY hold
// normalized UVs in [0, 1]; the renderer scales them to the material image.
type Geometry struct {
	Vertices []ebiten.Vertex
	Indices  []uint16
}

// TriangleCount returns the number of complete triangles.
func (g *Geometry) TriangleCount() int {
	if g == nil {
		return 0
	}
	return len(g.Indices) / 3
}

// Bounds returns the local-space bounding box of the vertices.
func (g *Geometry) Bounds() Rect {
	if g == nil || len(g.Vertices) == 0 {
		return Rect{}
	}
	minX := float64(g.Vertices[0].DstX)
	minY := float64(g.Vertices[0].DstY)
	maxX, maxY := minX, minY
	for _, v := range g.Vertices[1:] {
		x, y := float64(v.DstX), float64(v.DstY)
		if x < minX {
			minX = x
		}
		if x > maxX {
			maxX = x
		}
		if y < minY {
			minY = y
		}
		if y > maxY {
			maxY = y
		}
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Material describes how geometry is shaded.
type Material struct {
	// Image is sampled through the geometry UVs. Nil draws solid color.
	Image *ebiten.Image
	Color Color
	Blend BlendMode
}

// Mesh pairs geometry with a material at a transform.
type Mesh struct {
	id          uuid.UUID
	Geometry    *Geometry
	Material    *Material
	Transform   Transform
	CullMode    CullMode
	CastsShadow bool
}

// NewMesh creates a mesh with a fresh id.
func NewMesh(geometry *Geometry, material *Material) *Mesh {
	return &Mesh{
		id:          uuid.New(),
		Geometry:    geometry,
		Material:    material,
		Transform:   NewTransform(),
		CastsShadow: true,
	}
}

func (m *Mesh) ObjectID() uuid.UUID     { return m.id }
func (m *Mesh) Children() []SceneObject { return nil }

// Light is a radial light in world space.
type Light struct {
	id        uuid.UUID
	Transform Transform
	Radius    float64
	Color     Color
	// Intensity in [0, 1].
	Intensity float64
	// ShadowStrength scales how strongly shadow casters block this light.
	ShadowStrength float64
	Enabled        bool
}

// NewLight creates an enabled white light.
func NewLight(radius float64) *Light {
	return &Light{
		id:             uuid.New(),
		Transform:      NewTransform(),
		Radius:         radius,
		Color:          ColorWhite,
		Intensity:      1,
		ShadowStrength: 0.5,
		Enabled:        true,
	}
}

func (l *Light) ObjectID() uuid.UUID     { return l.id }
func (l *Light) Children() []SceneObject { return nil }

// Group is a container of scene objects.
type Group struct {
	id       uuid.UUID
	children []SceneObject
}

// NewGroup creates an empty group.
func NewGroup() *Group {
	return &Group{id: uuid.New()}
}

func (g *Group) ObjectID() uuid.UUID     { return g.id }
func (g *Group) Children() []SceneObject { return g.children }

// SetChildren replaces the group's children.
func (g *Group) SetChildren(children []SceneObject) {
	g.children = append(g.children[:0], children...)
}
