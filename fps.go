package fabric

import (
	"fmt"
	"image/color"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// fpsOverlay draws FPS, TPS and the last frame's node counts in the top-left
// corner. The text is refreshed every ~0.5 seconds.
type fpsOverlay struct {
	img        *ebiten.Image
	lastUpdate time.Time
}

func (o *fpsOverlay) draw(screen *ebiten.Image, stats FrameStats, now time.Time) {
	if o.img == nil {
		// 140x48 fits three lines of debug text.
		o.img = ebiten.NewImage(140, 48)
	}
	if o.lastUpdate.IsZero() || now.Sub(o.lastUpdate) >= 500*time.Millisecond {
		o.lastUpdate = now
		o.img.Clear()
		// Semi-transparent background for readability
		o.img.Fill(color.RGBA{0, 0, 0, 128})
		ebitenutil.DebugPrint(o.img, fmt.Sprintf("FPS: %.1f\nTPS: %.1f\nNodes: %d/%d",
			ebiten.ActualFPS(), ebiten.ActualTPS(), stats.Executed, stats.Visited))
	}
	screen.DrawImage(o.img, nil)
}
