package fabric

import "github.com/hajimehoshi/ebiten/v2"

// ValueNode publishes a constant. It executes once, then again only after Set.
type ValueNode[T any] struct {
	BaseNode
	Output *Outlet[T]

	value T
}

// NewValueNode creates a Generic source node holding v.
func NewValueNode[T any](name string, v T) *ValueNode[T] {
	n := &ValueNode[T]{value: v}
	n.Init(name, NodeTypeGeneric)
	n.Output = NewOutlet[T](&n.BaseNode, "Value")
	return n
}

// Set replaces the value and marks the node dirty.
func (n *ValueNode[T]) Set(v T) {
	n.value = v
	n.MarkDirty()
}

// Get returns the held value.
func (n *ValueNode[T]) Get() T { return n.value }

func (n *ValueNode[T]) Execute(_ *ExecutionContext, _ *ebiten.Image, _ *CommandBuffer) error {
	n.Output.Send(n.value)
	return nil
}
