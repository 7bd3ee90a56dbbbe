package fabric

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
)

// identityTransform is the identity affine matrix.
var identityTransform = [6]float64{1, 0, 0, 1, 0, 0}

// Transform is the position/scale/rotation description shared by every
// object-like node.
type Transform struct {
	Position Vec2
	Scale    Vec2
	// Rotation in radians, clockwise.
	Rotation float64
	// Pivot is the local-space origin for scale and rotation.
	Pivot Vec2
}

// NewTransform returns the identity transform (unit scale).
func NewTransform() Transform {
	return Transform{Scale: Vec2{1, 1}}
}

// Matrix computes the affine matrix [a, b, c, d, tx, ty].
//
// Composition order:
//
//	Translate(-Pivot) -> Scale -> Rotate -> Translate(Position)
func (t Transform) Matrix() [6]float64 {
	sx, sy := t.Scale.X, t.Scale.Y
	sin, cos := math.Sincos(t.Rotation)

	preTx := -t.Pivot.X * sx
	preTy := -t.Pivot.Y * sy

	return [6]float64{
		cos * sx,
		sin * sx,
		-sin * sy,
		cos * sy,
		cos*preTx - sin*preTy + t.Position.X,
		sin*preTx + cos*preTy + t.Position.Y,
	}
}

// multiplyAffine multiplies two 2D affine matrices: result = parent * child.
//
//	Matrix layout: [a, b, c, d, tx, ty]
//	| a  c  tx |
//	| b  d  ty |
//	| 0  0   1 |
func multiplyAffine(p, c [6]float64) [6]float64 {
	return [6]float64{
		p[0]*c[0] + p[2]*c[1],
		p[1]*c[0] + p[3]*c[1],
		p[0]*c[2] + p[2]*c[3],
		p[1]*c[2] + p[3]*c[3],
		p[0]*c[4] + p[2]*c[5] + p[4],
		p[1]*c[4] + p[3]*c[5] + p[5],
	}
}

// invertAffine computes the inverse of a 2D affine matrix.
// Returns the identity matrix if the matrix is singular.
func invertAffine(m [6]float64) [6]float64 {
	det := m[0]*m[3] - m[2]*m[1]
	if det > -1e-12 && det < 1e-12 {
		return identityTransform
	}
	invDet := 1.0 / det
	a := m[3] * invDet
	b := -m[1] * invDet
	c := -m[2] * invDet
	d := m[0] * invDet
	return [6]float64{
		a, b, c, d,
		-(a*m[4] + c*m[5]),
		-(b*m[4] + d*m[5]),
	}
}

// transformPoint applies an affine matrix to (x, y).
func transformPoint(m [6]float64, x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// affineGeoM converts an affine matrix to an ebiten.GeoM.
func affineGeoM(m [6]float64) ebiten.GeoM {
	var g ebiten.GeoM
	g.SetElement(0, 0, m[0])
	g.SetElement(1, 0, m[1])
	g.SetElement(0, 1, m[2])
	g.SetElement(1, 1, m[3])
	g.SetElement(0, 2, m[4])
	g.SetElement(1, 2, m[5])
	return g
}

// --- Object inputs ---

// ObjectInputs are the optional transform inlets of an object-like node. A
// connected inlet with a present value overrides the node's static field.
type ObjectInputs struct {
	Position *Inlet[Vec2]
	Rotation *Inlet[float64]
	Scale    *Inlet[Vec2]
}

// NewObjectInputs declares the Position, Rotation and Scale inlets on n.
func NewObjectInputs(n *BaseNode) ObjectInputs {
	return ObjectInputs{
		Position: NewInlet[Vec2](n, "Position"),
		Rotation: NewInlet[float64](n, "Rotation"),
		Scale:    NewInlet[Vec2](n, "Scale"),
	}
}

// Evaluate returns static with every present inlet value applied.
func (o ObjectInputs) Evaluate(static Transform) Transform {
	t := static
	if v, ok := o.Position.Value(); ok {
		t.Position = v
	}
	if v, ok := o.Rotation.Value(); ok {
		t.Rotation = v
	}
	if v, ok := o.Scale.Value(); ok {
		t.Scale = v
	}
	return t
}
