package fabric

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/hajimehoshi/ebiten/v2"
)

// Node is a unit of computation with typed ports. Concrete nodes embed
// BaseNode, which supplies everything except Execute.
type Node interface {
	ID() uuid.UUID
	Name() string
	Type() NodeType
	// Ports returns the node's ports in declaration order.
	Ports() []Port
	// InputNodes returns the nodes feeding this node's inlets, one entry per
	// connected inlet in declaration order. Disconnected inlets contribute
	// nothing.
	InputNodes() []Node

	// Execute reads the current inlet values and publishes new outlet values.
	// A node missing a required input clears its outlets and returns nil; a
	// returned error is a node fault.
	Execute(ctx *ExecutionContext, target *ebiten.Image, cb *CommandBuffer) error

	MarkClean()
	MarkDirty()
	IsDirty() bool
	State() NodeState

	// Resize is called on every viewport change, independent of execution.
	Resize(size Vec2, scale float64)

	EnableExecution(ctx *ExecutionContext)
	DisableExecution(ctx *ExecutionContext)
	ExecutionEnabled() bool

	base() *BaseNode
}

// NodeState is a node's position in the {Dirty, Clean} x {cached output,
// no cached output} state machine.
type NodeState uint8

const (
	StatePending NodeState = iota // dirty, never produced output
	StateStale                    // dirty, holds output from an earlier tick
	StateFresh                    // clean, output is current
	StateIdle                     // clean, no output (execution disabled)
)

func (s NodeState) String() string {
	switch s {
	case StatePending:
		return "Pending"
	case StateStale:
		return "Stale"
	case StateFresh:
		return "Fresh"
	case StateIdle:
		return "Idle"
	default:
		return "Unknown"
	}
}

// Dirty reports whether the state requires execution.
func (s NodeState) Dirty() bool { return s == StatePending || s == StateStale }

// Cached reports whether the state holds output from a previous execution.
func (s NodeState) Cached() bool { return s == StateStale || s == StateFresh }

// BaseNode carries identity, ports, graph membership, and the dirty/cached
// state shared by all nodes.
type BaseNode struct {
	id       uuid.UUID
	name     string
	typ      NodeType
	ports    []Port
	graph    *Graph
	dirty    bool
	cached   bool
	disabled bool
}

// Init assigns a fresh id and resets the node to StatePending. Call it from
// the concrete node's constructor before declaring ports.
func (n *BaseNode) Init(name string, typ NodeType) {
	n.id = uuid.New()
	n.name = name
	n.typ = typ
	n.ports = nil
	n.graph = nil
	n.dirty = true
	n.cached = false
	n.disabled = false
}

func (n *BaseNode) ID() uuid.UUID          { return n.id }
func (n *BaseNode) Name() string           { return n.name }
func (n *BaseNode) Type() NodeType         { return n.typ }
func (n *BaseNode) Ports() []Port          { return n.ports }
func (n *BaseNode) base() *BaseNode        { return n }
func (n *BaseNode) Graph() *Graph          { return n.graph }
func (n *BaseNode) IsDirty() bool          { return n.dirty }
func (n *BaseNode) String() string         { return fmt.Sprintf("%s(%s %s)", n.typ, n.name, n.id) }
func (n *BaseNode) ExecutionEnabled() bool { return !n.disabled }

func (n *BaseNode) addPort(p Port) {
	if n.graph != nil {
		panic(fmt.Sprintf("fabric: port %q declared on node %q after it joined a graph", p.Name(), n.name))
	}
	n.ports = append(n.ports, p)
}

// InputNodes resolves each connected inlet's upstream outlet to its node.
func (n *BaseNode) InputNodes() []Node {
	if n.graph == nil {
		return nil
	}
	var deps []Node
	for _, p := range n.ports {
		in, ok := p.(inletPort)
		if !ok || in.Source() == uuid.Nil {
			continue
		}
		if ref, ok := n.graph.outlets[in.Source()]; ok {
			deps = append(deps, ref.node)
		}
	}
	return deps
}

// Inlets returns the inlet ports in declaration order.
func (n *BaseNode) Inlets() []Port { return n.portsOfKind(PortInlet) }

// Outlets returns the outlet ports in declaration order.
func (n *BaseNode) Outlets() []Port { return n.portsOfKind(PortOutlet) }

func (n *BaseNode) portsOfKind(kind PortKind) []Port {
	var out []Port
	for _, p := range n.ports {
		if p.Kind() == kind {
			out = append(out, p)
		}
	}
	return out
}

// ClearOutlets publishes absence on every outlet.
func (n *BaseNode) ClearOutlets() {
	for _, p := range n.ports {
		if o, ok := p.(outletPort); ok {
			o.Clear()
		}
	}
}

// MarkClean records a successful execution.
func (n *BaseNode) MarkClean() {
	n.dirty = false
	n.cached = true
}

// MarkDirty flags the node for execution on the next visit. Disabled nodes
// stay clean until re-enabled.
func (n *BaseNode) MarkDirty() {
	if n.disabled {
		return
	}
	n.dirty = true
}

// State reports the node's base state. Nodes that override IsDirty are
// reported by the executor through their IsDirty, not this value.
func (n *BaseNode) State() NodeState {
	switch {
	case n.dirty && n.cached:
		return StateStale
	case n.dirty:
		return StatePending
	case n.cached:
		return StateFresh
	default:
		return StateIdle
	}
}

// Resize is a no-op by default.
func (n *BaseNode) Resize(size Vec2, scale float64) {}

// DisableExecution masks the node out of traversal, clears its outputs and
// dirties its consumers so the absence reaches them on the next tick.
func (n *BaseNode) DisableExecution(ctx *ExecutionContext) {
	n.disabled = true
	n.dirty = false
	n.cached = false
	n.ClearOutlets()
	if n.graph != nil {
		n.graph.markConsumersDirty(n.id)
	}
}

// EnableExecution puts the node back into traversal; it re-executes on the
// next tick that reaches it.
func (n *BaseNode) EnableExecution(ctx *ExecutionContext) {
	n.disabled = false
	n.dirty = true
}
