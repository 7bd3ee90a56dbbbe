package fabric

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
)

// GroupNode collects scene objects from its Child inlets into one Group.
// Absent children are skipped; with no child present the node publishes
// nothing.
type GroupNode struct {
	BaseNode
	Children    []*Inlet[SceneObject]
	OutputGroup *Outlet[SceneObject]

	group *Group
	buf   []SceneObject
}

// NewGroupNode creates a group with count child inlets named "Child 1" to
// "Child <count>".
func NewGroupNode(name string, count int) *GroupNode {
	n := &GroupNode{group: NewGroup()}
	n.Init(name, NodeTypeObject)
	for i := range count {
		n.Children = append(n.Children, NewInlet[SceneObject](&n.BaseNode, fmt.Sprintf("Child %d", i+1)))
	}
	n.OutputGroup = NewOutlet[SceneObject](&n.BaseNode, "Group")
	return n
}

// Child returns the i-th child inlet.
func (n *GroupNode) Child(i int) *Inlet[SceneObject] { return n.Children[i] }

func (n *GroupNode) Execute(_ *ExecutionContext, _ *ebiten.Image, _ *CommandBuffer) error {
	n.buf = n.buf[:0]
	for _, in := range n.Children {
		if obj, ok := in.Value(); ok && obj != nil {
			n.buf = append(n.buf, obj)
		}
	}
	if len(n.buf) == 0 {
		n.OutputGroup.Clear()
		return nil
	}
	n.group.SetChildren(n.buf)
	n.OutputGroup.Send(n.group)
	return nil
}

// SceneObject returns the group published this tick.
func (n *GroupNode) SceneObject() (SceneObject, bool) {
	return n.OutputGroup.Value()
}
