package fabric

import (
	"strings"
	"testing"
)

// --- RenderTexture ---

func TestRenderTextureSwap(t *testing.T) {
	var pool texturePool
	rt := newRenderTexture(&pool)
	if rt.Front() != nil {
		t.Fatal("Front before first swap should be nil")
	}
	a := rt.swap(8, 8)
	if rt.Front() != a || rt.Width() != 8 || rt.Height() != 8 {
		t.Fatal("swap did not publish the new front image")
	}
	b := rt.swap(8, 8)
	if b == a {
		t.Fatal("consecutive swaps must alternate images")
	}
	if c := rt.swap(8, 8); c != a {
		t.Fatal("third swap should reuse the first image")
	}
}

func TestRenderTextureResize(t *testing.T) {
	var pool texturePool
	rt := newRenderTexture(&pool)
	rt.swap(8, 8)
	rt.swap(8, 8)
	img := rt.swap(16, 4)
	if b := img.Bounds(); b.Dx() != 16 || b.Dy() != 4 {
		t.Fatalf("resized image = %v", b)
	}
	if pool.size() != 2 {
		t.Errorf("pool size = %d, want both old images returned", pool.size())
	}
}

func TestRenderTextureDispose(t *testing.T) {
	var pool texturePool
	rt := newRenderTexture(&pool)
	rt.swap(4, 4)
	rt.Dispose()
	if rt.Front() != nil || pool.size() != 1 {
		t.Fatalf("Front=%v pool=%d after Dispose", rt.Front(), pool.size())
	}
	if img := rt.swap(4, 4); img == nil {
		t.Fatal("texture unusable after Dispose")
	}
	if pool.size() != 0 {
		t.Error("swap after Dispose should take the pooled image")
	}
}

// --- RenderNode ---

func newIsolatedRenderNode(w, h int) (*RenderNode, *texturePool) {
	pool := &texturePool{}
	n := NewRenderNode("render", w, h)
	n.texture = newRenderTexture(pool)
	return n, pool
}

func TestRenderNodeAbsentInputs(t *testing.T) {
	n, _ := newIsolatedRenderNode(16, 16)
	if !n.IsDirty() {
		t.Fatal("render node is always dirty")
	}
	n.MarkClean()
	if !n.IsDirty() {
		t.Fatal("render node is always dirty, even after executing")
	}
	n.OutputColorTexture.Send(nil)
	if err := n.Execute(tickCtx(0), nil, NewCommandBuffer()); err != nil {
		t.Fatal(err)
	}
	if n.OutputColorTexture.HasValue() {
		t.Error("missing camera or scene should publish nothing")
	}
}

func renderGraph(t *testing.T, n *RenderNode) (*Graph, *ImageMeshNode, *CameraNode) {
	t.Helper()
	g := NewGraph()
	sprite := NewImageMeshNode("sprite", ensureWhitePixel())
	cam := NewCameraNode("cam")
	g.MustAddNode(sprite, cam, n)
	g.MustConnect(cam.OutputCamera, n.InputCamera)
	g.MustConnect(sprite.OutputMesh, n.InputScene)
	return g, sprite, cam
}

func TestRenderNodeRendersIntoTexture(t *testing.T) {
	n, _ := newIsolatedRenderNode(32, 16)
	n.ClearColor = ColorWhite
	g, _, _ := renderGraph(t, n)

	cb := NewCommandBuffer()
	NewGraphExecutor(g, nil).OnFrame(nil, cb)

	tex, ok := n.OutputColorTexture.Value()
	if !ok || tex != n.Texture().Front() {
		t.Fatal("render output should be the texture front image")
	}
	if b := tex.Bounds(); b.Dx() != 32 || b.Dy() != 16 {
		t.Errorf("texture = %v, want 32x16", b)
	}
	cmds := cb.Commands()
	if len(cmds) == 0 || cmds[0].Type != CommandFill || cmds[0].Target != tex || cmds[0].Color != ColorWhite {
		t.Fatal("render pass should begin by filling its texture with the clear color")
	}
	if len(triangleCommands(cb)) != 1 {
		t.Errorf("triangle commands = %d, want 1", len(triangleCommands(cb)))
	}
	cb.Commit()
}

func TestRenderNodeInvalidResolution(t *testing.T) {
	n, _ := newIsolatedRenderNode(0, 16)
	g, _, _ := renderGraph(t, n)
	stats := NewGraphExecutor(g, nil).OnFrame(nil, nil)
	if stats.Faults != 1 {
		t.Fatalf("Faults = %d, want 1", stats.Faults)
	}
	if n.OutputColorTexture.HasValue() {
		t.Error("faulted render node should publish nothing")
	}

	err := n.Execute(tickCtx(0), nil, NewCommandBuffer())
	if err == nil || !strings.Contains(err.Error(), "invalid resolution 0x16") {
		t.Errorf("err = %v", err)
	}
}

func TestRenderNodeFeedback(t *testing.T) {
	n, _ := newIsolatedRenderNode(16, 16)
	g := NewGraph()
	geo := NewRectGeometryNode("geo", 8, 8)
	mat := NewMaterialNode("mat")
	mesh := NewMeshNode("mesh")
	cam := NewCameraNode("cam")
	g.MustAddNode(mesh, cam, geo, mat, n)
	g.MustConnect(geo.OutputGeometry, mesh.InputGeometry)
	g.MustConnect(mat.OutputMaterial, mesh.InputMaterial)
	g.MustConnect(n.OutputColorTexture, mat.InputImage)
	g.MustConnect(cam.OutputCamera, n.InputCamera)
	g.MustConnect(mesh.OutputMesh, n.InputScene)

	e := NewGraphExecutor(g, nil)
	cb := NewCommandBuffer()

	stats := e.OnFrame(nil, cb)
	if stats.Feedback == 0 {
		t.Fatal("render loop not detected as feedback")
	}
	if n.OutputColorTexture.HasValue() {
		t.Fatal("first tick has no previous mesh to render")
	}
	cb.Commit()

	e.OnFrame(nil, cb)
	first, ok := n.OutputColorTexture.Value()
	if !ok {
		t.Fatal("second tick should render the first tick's mesh")
	}
	cb.Commit()

	e.OnFrame(nil, cb)
	second, _ := n.OutputColorTexture.Value()
	if second == first {
		t.Fatal("feedback render wrote into the texture it samples")
	}
	sampled := false
	for _, c := range triangleCommands(cb) {
		if c.Image == first {
			sampled = true
		}
	}
	if !sampled {
		t.Error("third tick should sample the previous tick's texture")
	}
	cb.Commit()
}

func TestRenderNodeDisableReleasesTextures(t *testing.T) {
	n, pool := newIsolatedRenderNode(8, 8)
	g, _, _ := renderGraph(t, n)
	e := NewGraphExecutor(g, nil)
	e.OnFrame(nil, nil)
	if n.Texture().Front() == nil {
		t.Fatal("nothing rendered")
	}
	n.DisableExecution(e.CurrentContext())
	if n.Texture().Front() != nil || pool.size() != 1 {
		t.Errorf("Front=%v pool=%d after disable", n.Texture().Front(), pool.size())
	}
	if n.OutputColorTexture.HasValue() {
		t.Error("disabled render node should publish nothing")
	}
	n.Dispose()
}
