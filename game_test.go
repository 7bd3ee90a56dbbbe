package fabric

import (
	"errors"
	"testing"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

func newTestGame(g *Graph, r Renderer, cfg RunConfig) *Game {
	game := NewGame(NewGraphExecutor(g, r), cfg)
	game.deviceScale = func() float64 { return 1 }
	return game
}

func TestGameLayoutResizesOnChange(t *testing.T) {
	g := NewGraph()
	n := newTestNode("n", NodeTypeMesh, 0, nil)
	g.MustAddNode(n)
	game := newTestGame(g, nil, RunConfig{})

	w, h := game.Layout(640, 480)
	if w != 640 || h != 480 {
		t.Fatalf("Layout = %dx%d", w, h)
	}
	game.Layout(640, 480)
	game.Layout(640, 480)
	if n.resizes != 1 {
		t.Fatalf("resizes = %d after repeated identical layouts, want 1", n.resizes)
	}

	game.Layout(800, 480)
	if n.resizes != 2 || n.lastSize != (Vec2{800, 480}) {
		t.Fatalf("resizes = %d size = %v", n.resizes, n.lastSize)
	}

	game.deviceScale = func() float64 { return 2 }
	game.Layout(800, 480)
	if n.resizes != 3 {
		t.Errorf("scale change should resize, resizes = %d", n.resizes)
	}
}

func TestGameDrawRunsTick(t *testing.T) {
	g := NewGraph()
	n := newTestNode("n", NodeTypeMesh, 0, nil)
	g.MustAddNode(n, newTestNode("cam", NodeTypeCamera, 0, nil))
	r := &recordingRenderer{}
	game := newTestGame(g, r, RunConfig{})

	screen := ebiten.NewImage(64, 64)
	game.Layout(64, 64)
	game.Draw(screen)
	if r.calls != 1 || n.execs != 1 {
		t.Fatalf("calls=%d execs=%d", r.calls, n.execs)
	}
	if s := game.Stats(); s.Executed != 2 || s.Objects != 1 || s.Cameras != 1 {
		t.Errorf("Stats = %+v", s)
	}
	if game.cb.Len() != 0 {
		t.Error("Draw should commit its command buffer")
	}
	if vps := r.viewports[0]; len(vps) != 1 || vps[0] != (Rect{Width: 64, Height: 64}) {
		t.Errorf("viewports = %v", vps)
	}
}

func TestGameDrawWithSceneRenderer(t *testing.T) {
	g := NewGraph()
	sprite := NewImageMeshNode("sprite", ensureWhitePixel())
	g.MustAddNode(sprite, NewCameraNode("cam"))
	game := newTestGame(g, NewSceneRenderer(), RunConfig{ShowFPS: true})

	screen := ebiten.NewImage(32, 32)
	game.Layout(32, 32)
	game.Draw(screen)
	if game.Stats().DrawFailed {
		t.Fatal("draw failed")
	}
	if game.fps.img == nil {
		t.Error("FPS overlay not drawn")
	}
}

func TestGameUpdate(t *testing.T) {
	game := newTestGame(NewGraph(), nil, RunConfig{})
	if err := game.Update(); err != nil {
		t.Fatalf("Update without callback = %v", err)
	}
	calls := 0
	game = newTestGame(NewGraph(), nil, RunConfig{Update: func() error {
		calls++
		if calls == 2 {
			return ebiten.Termination
		}
		return nil
	}})
	if err := game.Update(); err != nil {
		t.Fatal(err)
	}
	if err := game.Update(); !errors.Is(err, ebiten.Termination) {
		t.Fatalf("err = %v, want ebiten.Termination", err)
	}
}

func TestFPSOverlayRefreshInterval(t *testing.T) {
	var o fpsOverlay
	screen := ebiten.NewImage(200, 100)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	o.draw(screen, FrameStats{}, start)
	if !o.lastUpdate.Equal(start) {
		t.Fatal("first draw should render the text")
	}
	o.draw(screen, FrameStats{}, start.Add(100*time.Millisecond))
	if !o.lastUpdate.Equal(start) {
		t.Error("text refreshed before the interval elapsed")
	}
	later := start.Add(600 * time.Millisecond)
	o.draw(screen, FrameStats{}, later)
	if !o.lastUpdate.Equal(later) {
		t.Error("text not refreshed after the interval")
	}
}
