package fabric

import (
	"fmt"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
)

// buildSpriteGraph wires n image meshes whose positions are driven by
// looping tweens, plus one camera.
func buildSpriteGraph(n int, animated bool) *Graph {
	g := NewGraph()
	img := ebiten.NewImage(8, 8)
	for i := 0; i < n; i++ {
		sprite := NewImageMeshNode(fmt.Sprintf("sprite %d", i), img)
		g.MustAddNode(sprite)
		if animated {
			x := float64(i%32) * 10
			tw := NewTweenNode(fmt.Sprintf("tween %d", i), Vec2{X: x, Y: 0}, Vec2{X: x, Y: 200}, 2, nil)
			tw.SetYoyo(true)
			g.MustAddNode(tw)
			g.MustConnect(tw.Output, sprite.Position)
		}
	}
	g.MustAddNode(NewCameraNode("cam"))
	return g
}

func benchmarkFrame(b *testing.B, n int, animated bool) {
	g := buildSpriteGraph(n, animated)
	e := NewGraphExecutor(g, NewSceneRenderer())
	screen := ebiten.NewImage(320, 240)
	e.OnResize(Vec2{X: 320, Y: 240}, 1)
	cb := NewCommandBuffer()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.OnFrame(screen, cb)
		cb.Reset()
	}
}

func BenchmarkFrameStatic_100(b *testing.B)    { benchmarkFrame(b, 100, false) }
func BenchmarkFrameStatic_1000(b *testing.B)   { benchmarkFrame(b, 1000, false) }
func BenchmarkFrameAnimated_100(b *testing.B)  { benchmarkFrame(b, 100, true) }
func BenchmarkFrameAnimated_1000(b *testing.B) { benchmarkFrame(b, 1000, true) }

func BenchmarkGraphConnect(b *testing.B) {
	for i := 0; i < b.N; i++ {
		buildSpriteGraph(100, true)
	}
}
