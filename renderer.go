package fabric

import (
	"errors"
	"image"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
)

// ErrNoTarget is returned by SceneRenderer.Draw when given a nil target.
var ErrNoTarget = errors.New("fabric: nil render target")

// Renderer turns the aggregated frame into draw work. The executor calls it
// once per tick.
type Renderer interface {
	Draw(target *ebiten.Image, cb *CommandBuffer, scene *Scene, cameras []*Camera, viewports []Rect) error
}

// SceneRenderer is the Ebitengine Renderer: meshes drawn per camera, then a
// light map composited over them when the scene has lights.
type SceneRenderer struct {
	ClearColor Color
	// Ambient is the darkness of unlit areas in [0, 1] when lights are
	// present. Scenes without lights are drawn unlit.
	Ambient float64

	lights lightMap

	meshes   []*Mesh
	lightBuf []*Light
	verts    []ebiten.Vertex
	inds     []uint16
}

// NewSceneRenderer creates a renderer with a black clear color.
func NewSceneRenderer() *SceneRenderer {
	return &SceneRenderer{ClearColor: ColorBlack, Ambient: 0.6}
}

// Dispose releases the light map textures.
func (r *SceneRenderer) Dispose() {
	r.lights.dispose()
}

// Draw clears target and records one pass per camera. Camera i renders into
// viewports[i], falling back to the last viewport, then to target's bounds.
func (r *SceneRenderer) Draw(target *ebiten.Image, cb *CommandBuffer, scene *Scene, cameras []*Camera, viewports []Rect) error {
	if target == nil {
		return ErrNoTarget
	}
	cb.Fill(target, r.ClearColor)
	if len(cameras) == 0 || scene == nil {
		return nil
	}
	r.collect(scene)

	b := target.Bounds()
	full := Rect{X: float64(b.Min.X), Y: float64(b.Min.Y), Width: float64(b.Dx()), Height: float64(b.Dy())}

	for i, cam := range cameras {
		if cam == nil {
			continue
		}
		vp := full
		switch {
		case i < len(viewports):
			vp = viewports[i]
		case len(viewports) > 0:
			vp = viewports[len(viewports)-1]
		}
		if vp.Empty() {
			continue
		}
		dst := target.SubImage(image.Rect(
			int(vp.X), int(vp.Y),
			int(vp.X+vp.Width), int(vp.Y+vp.Height),
		)).(*ebiten.Image)

		view := cam.ViewMatrix(vp)
		visible := cam.VisibleBounds(vp)
		for _, m := range r.meshes {
			r.drawMesh(dst, cb, m, view, visible)
		}
		if len(r.lightBuf) > 0 {
			r.drawLights(dst, cb, full, view)
		}
	}
	return nil
}

// collect flattens the scene into the mesh and light lists.
func (r *SceneRenderer) collect(scene *Scene) {
	r.meshes = r.meshes[:0]
	r.lightBuf = r.lightBuf[:0]
	scene.Flatten(func(obj SceneObject) {
		switch o := obj.(type) {
		case *Mesh:
			r.meshes = append(r.meshes, o)
		case *Light:
			if o.Enabled && o.Radius > 0 {
				r.lightBuf = append(r.lightBuf, o)
			}
		}
	})
}

// drawMesh transforms, tints and culls a mesh, then records it.
func (r *SceneRenderer) drawMesh(dst *ebiten.Image, cb *CommandBuffer, m *Mesh, view [6]float64, visible Rect) {
	g := m.Geometry
	if g == nil || len(g.Vertices) == 0 || len(g.Indices) < 3 {
		return
	}
	world := m.Transform.Matrix()
	if aabb := worldAABB(world, g.Bounds()); aabb.Width > 0 || aabb.Height > 0 {
		if !aabb.Intersects(visible) {
			return
		}
	}

	tint := ColorWhite
	var img *ebiten.Image
	blend := BlendNormal
	if m.Material != nil {
		tint = m.Material.Color
		img = m.Material.Image
		blend = m.Material.Blend
	}

	r.verts = transformVertices(g.Vertices, r.verts, multiplyAffine(view, world), tint, uvMapFor(img))
	r.inds = cullTriangles(r.verts, g.Indices, m.CullMode, r.inds)
	if len(r.inds) == 0 {
		return
	}
	cb.DrawTriangles(dst, img, r.verts, r.inds, blend)
}

// uvMap converts normalized geometry UVs to source pixel coordinates.
type uvMap struct {
	sx, sy, ox, oy float32
}

// uvMapFor maps UVs onto img's bounds, or onto the center of the shared white
// pixel when img is nil.
func uvMapFor(img *ebiten.Image) uvMap {
	if img == nil {
		return uvMap{ox: 0.5, oy: 0.5}
	}
	b := img.Bounds()
	return uvMap{sx: float32(b.Dx()), sy: float32(b.Dy()), ox: float32(b.Min.X), oy: float32(b.Min.Y)}
}

// transformVertices applies an affine transform and color tint to src,
// writing into dst (grown as needed) and returning it. Source coordinates
// are normalized UVs scaled through uv.
//
// Matrix layout: [0]=a, [1]=b, [2]=c, [3]=d, [4]=tx, [5]=ty
// newX = a*x + c*y + tx, newY = b*x + d*y + ty
func transformVertices(src, dst []ebiten.Vertex, m [6]float64, tint Color, uv uvMap) []ebiten.Vertex {
	if cap(dst) < len(src) {
		dst = make([]ebiten.Vertex, len(src))
	}
	dst = dst[:len(src)]

	a, b, c, d, tx, ty := m[0], m[1], m[2], m[3], m[4], m[5]
	cr := float32(tint.R)
	cg := float32(tint.G)
	cbl := float32(tint.B)
	ca := float32(tint.A)

	for i := range src {
		s := &src[i]
		ox := float64(s.DstX)
		oy := float64(s.DstY)
		dst[i] = ebiten.Vertex{
			DstX:   float32(a*ox + c*oy + tx),
			DstY:   float32(b*ox + d*oy + ty),
			SrcX:   s.SrcX*uv.sx + uv.ox,
			SrcY:   s.SrcY*uv.sy + uv.oy,
			ColorR: s.ColorR * cr * ca,
			ColorG: s.ColorG * cg * ca,
			ColorB: s.ColorB * cbl * ca,
			ColorA: s.ColorA * ca,
		}
	}
	return dst
}

// cullTriangles copies the triangles of inds that survive mode into dst.
// Winding is measured on the already transformed screen-space verts.
func cullTriangles(verts []ebiten.Vertex, inds []uint16, mode CullMode, dst []uint16) []uint16 {
	dst = dst[:0]
	n := len(inds) - len(inds)%3
	for i := 0; i < n; i += 3 {
		i0, i1, i2 := inds[i], inds[i+1], inds[i+2]
		if int(i0) >= len(verts) || int(i1) >= len(verts) || int(i2) >= len(verts) {
			continue
		}
		if mode != CullNone {
			area := signedArea(verts[i0], verts[i1], verts[i2])
			front := area > 0
			if area == 0 || (mode == CullBack && !front) || (mode == CullFront && front) {
				continue
			}
		}
		dst = append(dst, i0, i1, i2)
	}
	return dst
}

// signedArea is twice the signed area of a screen-space triangle; positive
// means clockwise on a Y-down screen.
func signedArea(a, b, c ebiten.Vertex) float64 {
	return float64(b.DstX-a.DstX)*float64(c.DstY-a.DstY) -
		float64(b.DstY-a.DstY)*float64(c.DstX-a.DstX)
}

// viewScale is the uniform scale a view matrix applies to lengths.
func viewScale(m [6]float64) float64 {
	return math.Sqrt(math.Abs(m[0]*m[3] - m[2]*m[1]))
}
