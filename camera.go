package fabric

import (
	"math"
)

// Projection selects how a camera maps world units onto its viewport.
type Projection uint8

const (
	// ProjectionViewport maps one world unit to one pixel at zoom 1, centered
	// on the viewport.
	ProjectionViewport Projection = iota
	// ProjectionOrthographic maps the world rectangle [Left, Right] x
	// [Top, Bottom] onto the viewport.
	ProjectionOrthographic
)

// Camera is the view into the scene: position, zoom, rotation and
// projection. A Camera node publishes one per tick.
type Camera struct {
	// X and Y are the world-space position the camera centers on.
	X, Y float64
	// Zoom is the scale factor (1.0 = no zoom, >1 = zoom in, <1 = zoom out).
	Zoom float64
	// Rotation is the camera rotation in radians (clockwise).
	Rotation float64

	Projection Projection
	// Orthographic extents in world units, relative to (X, Y).
	Left, Right, Top, Bottom float64
	// Aspect is the last viewport width/height reported through SetAspect.
	Aspect float64
}

// NewCamera creates a viewport-projection camera.
func NewCamera() *Camera {
	return &Camera{Zoom: 1, Aspect: 1}
}

// NewOrthographicCamera creates an orthographic camera showing height world
// units vertically, centered on the origin, with a square aspect until
// SetAspect is called.
func NewOrthographicCamera(height float64) *Camera {
	c := &Camera{
		Zoom:       1,
		Projection: ProjectionOrthographic,
		Top:        -height / 2,
		Bottom:     height / 2,
	}
	c.SetAspect(1)
	return c
}

// SetAspect records the viewport aspect. Orthographic cameras recompute their
// horizontal extents so world units stay square.
func (c *Camera) SetAspect(aspect float64) {
	if aspect <= 0 || math.IsNaN(aspect) || math.IsInf(aspect, 0) {
		return
	}
	c.Aspect = aspect
	if c.Projection == ProjectionOrthographic {
		h := c.Bottom - c.Top
		c.Left = -aspect * h / 2
		c.Right = aspect * h / 2
	}
}

// ViewMatrix returns the world-to-screen matrix for the given viewport.
func (c *Camera) ViewMatrix(vp Rect) [6]float64 {
	z := c.Zoom
	if z == 0 {
		z = 1
	}
	sin, cos := math.Sincos(-c.Rotation)

	// Zoom * Rotate(-rot) * Translate(-X, -Y)
	view := [6]float64{
		z * cos,
		z * sin,
		-z * sin,
		z * cos,
		z * (-cos*c.X + sin*c.Y),
		z * (-sin*c.X - cos*c.Y),
	}

	var proj [6]float64
	switch c.Projection {
	case ProjectionOrthographic:
		w := c.Right - c.Left
		h := c.Bottom - c.Top
		if w == 0 || h == 0 {
			return identityTransform
		}
		sx := vp.Width / w
		sy := vp.Height / h
		proj = [6]float64{sx, 0, 0, sy, vp.X - c.Left*sx, vp.Y - c.Top*sy}
	default:
		proj = [6]float64{1, 0, 0, 1, vp.X + vp.Width/2, vp.Y + vp.Height/2}
	}
	return multiplyAffine(proj, view)
}

// WorldToScreen converts world coordinates to screen coordinates within vp.
func (c *Camera) WorldToScreen(vp Rect, wx, wy float64) (sx, sy float64) {
	return transformPoint(c.ViewMatrix(vp), wx, wy)
}

// ScreenToWorld converts screen coordinates within vp to world coordinates.
func (c *Camera) ScreenToWorld(vp Rect, sx, sy float64) (wx, wy float64) {
	return transformPoint(invertAffine(c.ViewMatrix(vp)), sx, sy)
}

// VisibleBounds returns the axis-aligned bounding rect of the camera's visible
// area in world space.
func (c *Camera) VisibleBounds(vp Rect) Rect {
	inv := invertAffine(c.ViewMatrix(vp))

	vx := vp.X
	vy := vp.Y
	vr := vx + vp.Width
	vb := vy + vp.Height

	x0, y0 := transformPoint(inv, vx, vy)
	x1, y1 := transformPoint(inv, vr, vy)
	x2, y2 := transformPoint(inv, vr, vb)
	x3, y3 := transformPoint(inv, vx, vb)

	minX := math.Min(math.Min(x0, x1), math.Min(x2, x3))
	minY := math.Min(math.Min(y0, y1), math.Min(y2, y3))
	maxX := math.Max(math.Max(x0, x1), math.Max(x2, x3))
	maxY := math.Max(math.Max(y0, y1), math.Max(y2, y3))

	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// worldAABB computes the axis-aligned bounding box of a local rectangle
// transformed by m.
func worldAABB(m [6]float64, local Rect) Rect {
	x0, y0 := transformPoint(m, local.X, local.Y)
	x1, y1 := transformPoint(m, local.X+local.Width, local.Y)
	x2, y2 := transformPoint(m, local.X+local.Width, local.Y+local.Height)
	x3, y3 := transformPoint(m, local.X, local.Y+local.Height)

	minX := math.Min(math.Min(x0, x1), math.Min(x2, x3))
	minY := math.Min(math.Min(y0, y1), math.Min(y2, y3))
	maxX := math.Max(math.Max(x0, x1), math.Max(x2, x3))
	maxY := math.Max(math.Max(y0, y1), math.Max(y2, y3))

	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}
