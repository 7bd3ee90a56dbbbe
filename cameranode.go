package fabric

import "github.com/hajimehoshi/ebiten/v2"

// CameraNode publishes a viewport-projection Camera. Position, Zoom and
// Rotation inlets override the static fields when connected and present.
// Resize updates the camera aspect.
type CameraNode struct {
	BaseNode
	InputPosition *Inlet[Vec2]
	InputZoom     *Inlet[float64]
	InputRotation *Inlet[float64]
	OutputCamera  *Outlet[*Camera]

	Position Vec2
	Zoom     float64
	Rotation float64

	camera *Camera
}

// NewCameraNode creates a camera node centered on the origin at zoom 1.
func NewCameraNode(name string) *CameraNode {
	n := &CameraNode{}
	n.init(name, NewCamera())
	return n
}

func (n *CameraNode) init(name string, cam *Camera) {
	n.Zoom = 1
	n.camera = cam
	n.Init(name, NodeTypeCamera)
	n.InputPosition = NewInlet[Vec2](&n.BaseNode, "Position")
	n.InputZoom = NewInlet[float64](&n.BaseNode, "Zoom")
	n.InputRotation = NewInlet[float64](&n.BaseNode, "Rotation")
	n.OutputCamera = NewOutlet[*Camera](&n.BaseNode, "Camera")
}

func (n *CameraNode) Execute(_ *ExecutionContext, _ *ebiten.Image, _ *CommandBuffer) error {
	pos := n.InputPosition.ValueOr(n.Position)
	c := n.camera
	c.X, c.Y = pos.X, pos.Y
	c.Zoom = n.InputZoom.ValueOr(n.Zoom)
	if c.Zoom <= 0 {
		c.Zoom = 1
	}
	c.Rotation = n.InputRotation.ValueOr(n.Rotation)
	n.OutputCamera.Send(c)
	return nil
}

// Resize sets the camera aspect from the new viewport size.
func (n *CameraNode) Resize(size Vec2, _ float64) {
	if size.Y <= 0 {
		return
	}
	n.camera.SetAspect(size.X / size.Y)
	n.MarkDirty()
}

// Camera returns the camera published this tick.
func (n *CameraNode) Camera() (*Camera, bool) {
	return n.OutputCamera.Value()
}

// OrthographicCameraNode publishes an orthographic Camera showing Height
// world units vertically. Resize recomputes the horizontal extents.
type OrthographicCameraNode struct {
	CameraNode

	Height float64
}

// NewOrthographicCameraNode creates an orthographic camera node.
func NewOrthographicCameraNode(name string, height float64) *OrthographicCameraNode {
	n := &OrthographicCameraNode{Height: height}
	n.init(name, NewOrthographicCamera(height))
	return n
}

func (n *OrthographicCameraNode) Execute(ctx *ExecutionContext, target *ebiten.Image, cb *CommandBuffer) error {
	if h := n.Height; h > 0 && h != n.camera.Bottom-n.camera.Top {
		n.camera.Top, n.camera.Bottom = -h/2, h/2
		n.camera.SetAspect(n.camera.Aspect)
	}
	return n.CameraNode.Execute(ctx, target, cb)
}
