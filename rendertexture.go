package fabric

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
)

// RenderTexture is a pair of offscreen images used alternately: each render
// goes into the back image, which then becomes the front. The front image of
// the previous render stays readable while the next one is drawn.
type RenderTexture struct {
	images [2]*ebiten.Image
	front  int
	w, h   int
	pool   *texturePool
}

func newRenderTexture(pool *texturePool) *RenderTexture {
	return &RenderTexture{pool: pool, front: -1}
}

// Width returns the texture width in pixels.
func (rt *RenderTexture) Width() int { return rt.w }

// Height returns the texture height in pixels.
func (rt *RenderTexture) Height() int { return rt.h }

// Front returns the most recently rendered image, or nil before the first
// swap.
func (rt *RenderTexture) Front() *ebiten.Image {
	if rt.front < 0 {
		return nil
	}
	return rt.images[rt.front]
}

// swap makes the back image the front one and returns it, reallocating both
// images when the size changes.
func (rt *RenderTexture) swap(w, h int) *ebiten.Image {
	if w != rt.w || h != rt.h {
		rt.Dispose()
		rt.w, rt.h = w, h
	}
	rt.front = (rt.front + 1) % 2
	if rt.images[rt.front] == nil {
		rt.images[rt.front] = rt.pool.acquire(w, h)
	}
	return rt.images[rt.front]
}

// Dispose returns both images to the pool. The texture may be reused; the
// next swap acquires fresh images.
func (rt *RenderTexture) Dispose() {
	for i, img := range rt.images {
		rt.pool.release(img)
		rt.images[i] = nil
	}
	rt.front = -1
}

// --- Render node ---

// RenderNode renders the scene on its Scene inlet through the camera on its
// Camera inlet into an offscreen texture published on ColorTexture. It is
// always dirty. Because it renders into alternating images, its previous
// output may be fed back into its own inputs.
type RenderNode struct {
	BaseNode
	InputCamera        *Inlet[*Camera]
	InputScene         *Inlet[SceneObject]
	OutputColorTexture *Outlet[*ebiten.Image]

	Width, Height int
	ClearColor    Color

	renderer *SceneRenderer
	texture  *RenderTexture
	scene    *Scene
	cameras  []*Camera
	viewport []Rect
}

// NewRenderNode creates a render node with the given resolution.
func NewRenderNode(name string, w, h int) *RenderNode {
	n := &RenderNode{
		Width:      w,
		Height:     h,
		ClearColor: Color{},
		renderer:   NewSceneRenderer(),
		texture:    newRenderTexture(&sharedTexturePool),
		scene:      NewScene(),
		cameras:    make([]*Camera, 1),
		viewport:   make([]Rect, 1),
	}
	n.Init(name, NodeTypeRenderer)
	n.InputCamera = NewInlet[*Camera](&n.BaseNode, "Camera")
	n.InputScene = NewInlet[SceneObject](&n.BaseNode, "Scene")
	n.OutputColorTexture = NewOutlet[*ebiten.Image](&n.BaseNode, "ColorTexture")
	return n
}

// Renderer returns the node's own SceneRenderer for tuning ambient light.
func (n *RenderNode) Renderer() *SceneRenderer { return n.renderer }

// Texture returns the node's render texture pair.
func (n *RenderNode) Texture() *RenderTexture { return n.texture }

func (n *RenderNode) IsDirty() bool { return true }

func (n *RenderNode) Execute(_ *ExecutionContext, _ *ebiten.Image, cb *CommandBuffer) error {
	cam, ok := n.InputCamera.Value()
	if !ok || cam == nil {
		n.OutputColorTexture.Clear()
		return nil
	}
	obj, ok := n.InputScene.Value()
	if !ok || obj == nil {
		n.OutputColorTexture.Clear()
		return nil
	}
	if n.Width <= 0 || n.Height <= 0 {
		return fmt.Errorf("render node %q: invalid resolution %dx%d", n.Name(), n.Width, n.Height)
	}

	tex := n.texture.swap(n.Width, n.Height)
	n.scene.reset()
	n.scene.add(obj)
	n.cameras[0] = cam
	n.viewport[0] = Rect{Width: float64(n.Width), Height: float64(n.Height)}
	n.renderer.ClearColor = n.ClearColor
	if err := n.renderer.Draw(tex, cb, n.scene, n.cameras, n.viewport); err != nil {
		return err
	}
	n.OutputColorTexture.Send(tex)
	return nil
}

// DisableExecution also returns the render textures to the pool.
func (n *RenderNode) DisableExecution(ctx *ExecutionContext) {
	n.BaseNode.DisableExecution(ctx)
	n.texture.Dispose()
}

// Dispose releases the node's textures and light map.
func (n *RenderNode) Dispose() {
	n.texture.Dispose()
	n.renderer.Dispose()
}
