package fabric

import (
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

// RunConfig configures the window opened by Run.
type RunConfig struct {
	Title         string
	Width, Height int
	Resizable     bool
	// ShowFPS draws an FPS and node-count overlay.
	ShowFPS bool
	// Update runs once per tick before drawing. Returning an error stops the
	// game; ebiten.Termination ends it cleanly.
	Update func() error
	// ScreenshotDir receives Game.Screenshot captures. Empty means
	// DefaultScreenshotDir.
	ScreenshotDir string
	// Script, when set, is stepped once per Update before the Update hook.
	Script *Script
}

// Game adapts a GraphExecutor to ebiten.Game: Layout reports size changes
// through OnResize and Draw runs one tick and commits its command buffer.
type Game struct {
	exec    *GraphExecutor
	cb      *CommandBuffer
	update  func() error
	showFPS bool
	fps     fpsOverlay
	script  *Script

	screenshotDir string
	shots         []string

	width, height int
	scale         float64
	stats         FrameStats

	deviceScale func() float64
}

// NewGame creates a Game driving exec.
func NewGame(exec *GraphExecutor, cfg RunConfig) *Game {
	dir := cfg.ScreenshotDir
	if dir == "" {
		dir = DefaultScreenshotDir
	}
	return &Game{
		exec:          exec,
		cb:            NewCommandBuffer(),
		update:        cfg.Update,
		showFPS:       cfg.ShowFPS,
		script:        cfg.Script,
		screenshotDir: dir,
		deviceScale:   func() float64 { return ebiten.Monitor().DeviceScaleFactor() },
	}
}

// Stats returns the statistics of the last drawn frame.
func (g *Game) Stats() FrameStats { return g.stats }

func (g *Game) Update() error {
	if g.script != nil {
		if err := g.script.step(g); err != nil {
			return err
		}
		if g.script.quit && len(g.shots) == 0 {
			return ebiten.Termination
		}
	}
	if g.update != nil {
		return g.update()
	}
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.stats = g.exec.OnFrame(screen, g.cb)
	g.cb.Commit()
	g.flushScreenshots(screen)
	if g.showFPS {
		g.fps.draw(screen, g.stats, time.Now())
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	scale := g.deviceScale()
	if outsideWidth != g.width || outsideHeight != g.height || scale != g.scale {
		g.width, g.height, g.scale = outsideWidth, outsideHeight, scale
		g.exec.OnResize(Vec2{X: float64(outsideWidth), Y: float64(outsideHeight)}, scale)
	}
	return outsideWidth, outsideHeight
}

// Run opens a window and drives exec until the window closes or Update
// returns an error.
func Run(exec *GraphExecutor, cfg RunConfig) error {
	if cfg.Title != "" {
		ebiten.SetWindowTitle(cfg.Title)
	}
	if cfg.Width > 0 && cfg.Height > 0 {
		ebiten.SetWindowSize(cfg.Width, cfg.Height)
	}
	if cfg.Resizable {
		ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	}
	return ebiten.RunGame(NewGame(exec, cfg))
}
