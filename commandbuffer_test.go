package fabric

import (
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
)

func testQuad(x float32) ([]ebiten.Vertex, []uint16) {
	verts := []ebiten.Vertex{
		{DstX: x, DstY: 0, ColorR: 1, ColorG: 1, ColorB: 1, ColorA: 1},
		{DstX: x + 1, DstY: 0, ColorR: 1, ColorG: 1, ColorB: 1, ColorA: 1},
		{DstX: x + 1, DstY: 1, ColorR: 1, ColorG: 1, ColorB: 1, ColorA: 1},
		{DstX: x, DstY: 1, ColorR: 1, ColorG: 1, ColorB: 1, ColorA: 1},
	}
	return verts, []uint16{0, 1, 2, 0, 2, 3}
}

// --- Recording ---

func TestCommandBufferRecordsInOrder(t *testing.T) {
	target := ebiten.NewImage(4, 4)
	img := ebiten.NewImage(2, 2)
	cb := NewCommandBuffer()
	cb.Clear(target)
	cb.Fill(target, ColorBlack)
	cb.DrawImage(target, img, ebiten.GeoM{}, ebiten.ColorScale{}, BlendAdd)
	v, i := testQuad(0)
	cb.DrawTriangles(target, img, v, i, BlendNormal)

	want := []CommandType{CommandClear, CommandFill, CommandImage, CommandTriangles}
	if cb.Len() != len(want) {
		t.Fatalf("Len = %d, want %d", cb.Len(), len(want))
	}
	for k, cmd := range cb.Commands() {
		if cmd.Type != want[k] {
			t.Errorf("command %d type = %v, want %v", k, cmd.Type, want[k])
		}
	}
	if cb.Commands()[2].Blend != BlendAdd {
		t.Error("blend not recorded")
	}
}

func TestCommandBufferCopiesTriangles(t *testing.T) {
	cb := NewCommandBuffer()
	v, i := testQuad(0)
	cb.DrawTriangles(ebiten.NewImage(4, 4), nil, v, i, BlendNormal)
	v[0].DstX = 99
	i[0] = 3
	cmd := cb.Commands()[0]
	if cmd.Vertices[0].DstX != 0 || cmd.Indices[0] != 0 {
		t.Fatal("recorded triangles alias the caller's slices")
	}
}

func TestCommandBufferSkipsEmptyTriangles(t *testing.T) {
	cb := NewCommandBuffer()
	target := ebiten.NewImage(4, 4)
	cb.DrawTriangles(target, nil, nil, []uint16{0}, BlendNormal)
	v, _ := testQuad(0)
	cb.DrawTriangles(target, nil, v, nil, BlendNormal)
	if cb.Len() != 0 {
		t.Fatalf("Len = %d, want 0", cb.Len())
	}
}

func TestCommandBufferReset(t *testing.T) {
	cb := NewCommandBuffer()
	cb.Clear(ebiten.NewImage(1, 1))
	cb.Reset()
	if cb.Len() != 0 {
		t.Fatal("Reset left commands")
	}
	if cb.Commit() != 0 {
		t.Fatal("commit after reset issued draw calls")
	}
}

// --- Batching ---

func TestCommandBufferBatching(t *testing.T) {
	target := ebiten.NewImage(8, 8)
	other := ebiten.NewImage(8, 8)
	imgA := ebiten.NewImage(2, 2)
	imgB := ebiten.NewImage(2, 2)

	tests := []struct {
		name   string
		record func(cb *CommandBuffer)
		want   int
	}{
		{"same key merges", func(cb *CommandBuffer) {
			for k := 0; k < 5; k++ {
				v, i := testQuad(float32(k))
				cb.DrawTriangles(target, imgA, v, i, BlendNormal)
			}
		}, 1},
		{"image change splits", func(cb *CommandBuffer) {
			v, i := testQuad(0)
			cb.DrawTriangles(target, imgA, v, i, BlendNormal)
			cb.DrawTriangles(target, imgB, v, i, BlendNormal)
			cb.DrawTriangles(target, imgA, v, i, BlendNormal)
		}, 3},
		{"blend change splits", func(cb *CommandBuffer) {
			v, i := testQuad(0)
			cb.DrawTriangles(target, imgA, v, i, BlendNormal)
			cb.DrawTriangles(target, imgA, v, i, BlendAdd)
		}, 2},
		{"target change splits", func(cb *CommandBuffer) {
			v, i := testQuad(0)
			cb.DrawTriangles(target, imgA, v, i, BlendNormal)
			cb.DrawTriangles(other, imgA, v, i, BlendNormal)
		}, 2},
		{"fill breaks batch", func(cb *CommandBuffer) {
			v, i := testQuad(0)
			cb.DrawTriangles(target, imgA, v, i, BlendNormal)
			cb.Fill(target, ColorWhite)
			cb.DrawTriangles(target, imgA, v, i, BlendNormal)
		}, 3},
		{"nil target skipped", func(cb *CommandBuffer) {
			cb.Clear(nil)
			cb.DrawImage(target, nil, ebiten.GeoM{}, ebiten.ColorScale{}, BlendNormal)
		}, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cb := NewCommandBuffer()
			tc.record(cb)
			if got := cb.countBatches(); got != tc.want {
				t.Errorf("countBatches = %d, want %d", got, tc.want)
			}
			if got := cb.Commit(); got != tc.want {
				t.Errorf("Commit = %d draw calls, want %d", got, tc.want)
			}
			if cb.Len() != 0 {
				t.Error("Commit should empty the buffer")
			}
		})
	}
}

func TestCommandBufferVertexCeilingSplitsBatch(t *testing.T) {
	target := ebiten.NewImage(8, 8)
	cb := NewCommandBuffer()
	// Two commands of 40000 vertices cannot share a 16-bit index space.
	verts := make([]ebiten.Vertex, 40000)
	inds := []uint16{0, 1, 2}
	cb.DrawTriangles(target, nil, verts, inds, BlendNormal)
	cb.DrawTriangles(target, nil, verts, inds, BlendNormal)
	if got := cb.countBatches(); got != 2 {
		t.Fatalf("countBatches = %d, want 2", got)
	}
	if got := cb.Commit(); got != 2 {
		t.Fatalf("Commit = %d, want 2", got)
	}
}

func BenchmarkCommandBufferCommit_1000Quads(b *testing.B) {
	target := ebiten.NewImage(64, 64)
	v, i := testQuad(0)
	cb := NewCommandBuffer()
	b.ReportAllocs()
	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		for k := 0; k < 1000; k++ {
			cb.DrawTriangles(target, nil, v, i, BlendNormal)
		}
		cb.Commit()
	}
}
