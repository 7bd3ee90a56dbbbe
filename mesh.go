package fabric

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// --- Material ---

// MaterialNode publishes a Material. The Image and Color inlets override the
// static fields when connected and present.
type MaterialNode struct {
	BaseNode
	InputImage     *Inlet[*ebiten.Image]
	InputColor     *Inlet[Color]
	OutputMaterial *Outlet[*Material]

	Image *ebiten.Image
	Color Color
	Blend BlendMode

	material Material
}

// NewMaterialNode creates a white, normal-blended material source.
func NewMaterialNode(name string) *MaterialNode {
	n := &MaterialNode{Color: ColorWhite}
	n.Init(name, NodeTypeGeneric)
	n.InputImage = NewInlet[*ebiten.Image](&n.BaseNode, "Image")
	n.InputColor = NewInlet[Color](&n.BaseNode, "Color")
	n.OutputMaterial = NewOutlet[*Material](&n.BaseNode, "Material")
	return n
}

func (n *MaterialNode) Execute(_ *ExecutionContext, _ *ebiten.Image, _ *CommandBuffer) error {
	n.material.Image = n.InputImage.ValueOr(n.Image)
	n.material.Color = n.InputColor.ValueOr(n.Color)
	n.material.Blend = n.Blend
	n.OutputMaterial.Send(&n.material)
	return nil
}

// --- Mesh ---

// MeshNode combines geometry and material into a Mesh scene object. Both
// inputs are required; if either is absent the node publishes nothing.
type MeshNode struct {
	BaseNode
	ObjectInputs
	InputGeometry *Inlet[*Geometry]
	InputMaterial *Inlet[*Material]
	OutputMesh    *Outlet[SceneObject]

	Transform   Transform
	CullMode    CullMode
	CastsShadow bool

	mesh *Mesh
}

// NewMeshNode creates a Mesh node with an identity transform.
func NewMeshNode(name string) *MeshNode {
	n := &MeshNode{Transform: NewTransform(), CastsShadow: true}
	n.Init(name, NodeTypeMesh)
	n.ObjectInputs = NewObjectInputs(&n.BaseNode)
	n.InputGeometry = NewInlet[*Geometry](&n.BaseNode, "Geometry")
	n.InputMaterial = NewInlet[*Material](&n.BaseNode, "Material")
	n.OutputMesh = NewOutlet[SceneObject](&n.BaseNode, "Mesh")
	return n
}

func (n *MeshNode) Execute(_ *ExecutionContext, _ *ebiten.Image, _ *CommandBuffer) error {
	geo, ok := n.InputGeometry.Value()
	if !ok || geo == nil {
		n.OutputMesh.Clear()
		return nil
	}
	mat, ok := n.InputMaterial.Value()
	if !ok || mat == nil {
		n.OutputMesh.Clear()
		return nil
	}
	if n.mesh == nil {
		n.mesh = NewMesh(geo, mat)
	}
	n.mesh.Geometry = geo
	n.mesh.Material = mat
	n.mesh.Transform = n.Evaluate(n.Transform)
	n.mesh.CullMode = n.CullMode
	n.mesh.CastsShadow = n.CastsShadow
	n.OutputMesh.Send(n.mesh)
	return nil
}

// SceneObject returns the mesh published this tick.
func (n *MeshNode) SceneObject() (SceneObject, bool) {
	return n.OutputMesh.Value()
}

// --- Image mesh ---

// ImageMeshNode draws a caller-supplied image as a textured quad of the
// image's pixel size. A nil Image publishes nothing.
type ImageMeshNode struct {
	BaseNode
	ObjectInputs
	InputColor *Inlet[Color]
	OutputMesh *Outlet[SceneObject]

	Image       *ebiten.Image
	Color       Color
	Blend       BlendMode
	Transform   Transform
	CullMode    CullMode
	CastsShadow bool

	geometry Geometry
	material Material
	mesh     *Mesh
}

// NewImageMeshNode creates an image quad source for img.
func NewImageMeshNode(name string, img *ebiten.Image) *ImageMeshNode {
	n := &ImageMeshNode{Image: img, Color: ColorWhite, Transform: NewTransform()}
	n.Init(name, NodeTypeMesh)
	n.ObjectInputs = NewObjectInputs(&n.BaseNode)
	n.InputColor = NewInlet[Color](&n.BaseNode, "Color")
	n.OutputMesh = NewOutlet[SceneObject](&n.BaseNode, "Mesh")
	return n
}

// SetImage replaces the image and marks the node dirty.
func (n *ImageMeshNode) SetImage(img *ebiten.Image) {
	n.Image = img
	n.MarkDirty()
}

func (n *ImageMeshNode) Execute(_ *ExecutionContext, _ *ebiten.Image, _ *CommandBuffer) error {
	if n.Image == nil {
		n.OutputMesh.Clear()
		return nil
	}
	b := n.Image.Bounds()
	n.geometry.Vertices, n.geometry.Indices = buildQuad(n.geometry.Vertices, n.geometry.Indices, float64(b.Dx()), float64(b.Dy()))
	n.material = Material{Image: n.Image, Color: n.InputColor.ValueOr(n.Color), Blend: n.Blend}

	if n.mesh == nil {
		n.mesh = NewMesh(&n.geometry, &n.material)
	}
	n.mesh.Transform = n.Evaluate(n.Transform)
	n.mesh.CullMode = n.CullMode
	n.mesh.CastsShadow = n.CastsShadow
	n.OutputMesh.Send(n.mesh)
	return nil
}

// SceneObject returns the mesh published this tick.
func (n *ImageMeshNode) SceneObject() (SceneObject, bool) {
	return n.OutputMesh.Value()
}
