package fabric

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
)

// lightMap is the offscreen darkness texture a SceneRenderer composites over
// lit scenes: filled with ambient darkness, with feathered circles erased at
// each light.
type lightMap struct {
	image       *ebiten.Image
	w, h        int
	circleCache map[int]*ebiten.Image
}

// ensure returns a light map image of exactly (w x h), reallocating on size
// change.
func (lm *lightMap) ensure(w, h int) *ebiten.Image {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	if lm.image == nil || lm.w != w || lm.h != h {
		if lm.image != nil {
			lm.image.Deallocate()
		}
		lm.image = ebiten.NewImage(w, h)
		lm.w, lm.h = w, h
	}
	return lm.image
}

// circle returns a cached circle texture for the given radius, generating
// one if it doesn't exist. Radius is quantized to the nearest integer to
// avoid generating separate textures for tiny differences.
func (lm *lightMap) circle(radius float64) *ebiten.Image {
	key := int(math.Ceil(radius))
	if key < 1 {
		key = 1
	}
	if lm.circleCache == nil {
		lm.circleCache = make(map[int]*ebiten.Image)
	}
	if img, ok := lm.circleCache[key]; ok {
		return img
	}
	img := generateCircle(float64(key))
	lm.circleCache[key] = img
	return img
}

// dispose releases the light map and cached circles.
func (lm *lightMap) dispose() {
	if lm.image != nil {
		lm.image.Deallocate()
		lm.image = nil
	}
	for _, img := range lm.circleCache {
		img.Deallocate()
	}
	lm.circleCache = nil
}

// drawLights records the light map for one camera pass and composites it over
// dst with multiply blending. full is the whole target in pixel space.
func (r *SceneRenderer) drawLights(dst *ebiten.Image, cb *CommandBuffer, full Rect, view [6]float64) {
	img := r.lights.ensure(int(full.Width), int(full.Height))
	// Light map pixels start at the target's origin.
	toMap := multiplyAffine([6]float64{1, 0, 0, 1, -full.X, -full.Y}, view)

	cb.Clear(img)
	cb.Fill(img, Color{0, 0, 0, clamp01(r.Ambient)})

	shadow := 0.0
	for _, l := range r.lightBuf {
		m := multiplyAffine(toMap, l.Transform.Matrix())
		x, y := transformPoint(m, 0, 0)
		radius := l.Radius * viewScale(m)
		if radius < 0.5 {
			continue
		}
		intensity := float32(clamp01(l.Intensity))
		circle := r.lights.circle(radius)
		size := float64(circle.Bounds().Dx())

		var geo ebiten.GeoM
		geo.Scale(radius*2/size, radius*2/size)
		geo.Translate(x-radius, y-radius)

		// Erase pass: punch a hole in the darkness.
		var cs ebiten.ColorScale
		cs.Scale(intensity, intensity, intensity, intensity)
		cb.DrawImage(img, circle, geo, cs, BlendErase)

		// Color tint pass for non-white lights.
		if c := l.Color; c != (Color{}) && c != ColorWhite {
			tintAlpha := intensity * 0.3
			var tint ebiten.ColorScale
			tint.Scale(float32(c.R)*tintAlpha, float32(c.G)*tintAlpha, float32(c.B)*tintAlpha, tintAlpha)
			cb.DrawImage(img, circle, geo, tint, BlendAdd)
		}
		shadow = math.Max(shadow, clamp01(l.ShadowStrength))
	}

	if shadow > 0 {
		casterTint := Color{0, 0, 0, clamp01(r.Ambient) * shadow}
		for _, m := range r.meshes {
			if !m.CastsShadow || m.Geometry == nil {
				continue
			}
			world := multiplyAffine(toMap, m.Transform.Matrix())
			r.verts = transformVertices(m.Geometry.Vertices, r.verts, world, casterTint, uvMapFor(nil))
			r.inds = cullTriangles(r.verts, m.Geometry.Indices, CullNone, r.inds)
			cb.DrawTriangles(img, nil, r.verts, r.inds, BlendNormal)
		}
	}

	var geo ebiten.GeoM
	geo.Translate(full.X, full.Y)
	cb.DrawImage(dst, img, geo, ebiten.ColorScale{}, BlendMultiply)
}

// generateCircle creates a feathered white circle image with the given radius.
// Uses smoothstep falloff and premultiplied alpha.
func generateCircle(radius float64) *ebiten.Image {
	size := int(math.Ceil(radius * 2))
	if size < 1 {
		size = 1
	}
	img := ebiten.NewImage(size, size)
	pix := make([]byte, size*size*4)

	cx, cy := radius, radius
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx := float64(x) + 0.5 - cx
			dy := float64(y) + 0.5 - cy
			dist := math.Sqrt(dx*dx+dy*dy) / radius

			var alpha float64
			if dist < 1 {
				// smoothstep: 1 at center, 0 at edge
				t := 1 - dist
				alpha = t * t * (3 - 2*t)
			}

			a := uint8(alpha * 255)
			off := (y*size + x) * 4
			pix[off+0] = a // premultiplied white
			pix[off+1] = a
			pix[off+2] = a
			pix[off+3] = a
		}
	}
	img.WritePixels(pix)
	return img
}
