package fabric

import (
	"image"

	"github.com/hajimehoshi/ebiten/v2"
)

// --- Render texture pool ---

// texturePool manages reusable offscreen ebiten.Images keyed by exact
// dimensions. After warmup, acquire/release are zero-alloc.
type texturePool struct {
	buckets map[uint64][]*ebiten.Image
}

// sharedTexturePool backs every RenderNode so resizes recycle textures.
var sharedTexturePool texturePool

// poolKey packs width and height into a single uint64.
func poolKey(w, h int) uint64 {
	return uint64(w)<<32 | uint64(h)
}

// acquire returns a cleared offscreen image of exactly (w, h) pixels.
func (p *texturePool) acquire(w, h int) *ebiten.Image {
	key := poolKey(w, h)
	if p.buckets != nil {
		if stack := p.buckets[key]; len(stack) > 0 {
			img := stack[len(stack)-1]
			p.buckets[key] = stack[:len(stack)-1]
			img.Clear()
			return img
		}
	}
	return ebiten.NewImageWithOptions(
		image.Rect(0, 0, w, h),
		&ebiten.NewImageOptions{Unmanaged: true},
	)
}

// release returns an image to the pool. The image is cleared on the next
// acquire, not here.
func (p *texturePool) release(img *ebiten.Image) {
	if img == nil {
		return
	}
	b := img.Bounds()
	key := poolKey(b.Dx(), b.Dy())
	if p.buckets == nil {
		p.buckets = make(map[uint64][]*ebiten.Image)
	}
	p.buckets[key] = append(p.buckets[key], img)
}

// size returns the number of pooled images.
func (p *texturePool) size() int {
	n := 0
	for _, stack := range p.buckets {
		n += len(stack)
	}
	return n
}
