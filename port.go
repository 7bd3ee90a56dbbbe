package fabric

import (
	"fmt"
	"reflect"

	"github.com/google/uuid"
)

// PortKind distinguishes consuming endpoints from publishing ones.
type PortKind uint8

const (
	PortInlet  PortKind = iota // consumes a value published elsewhere
	PortOutlet                 // publishes a value
)

func (k PortKind) String() string {
	switch k {
	case PortInlet:
		return "Inlet"
	case PortOutlet:
		return "Outlet"
	default:
		return "Unknown"
	}
}

// Port is a typed, named connection endpoint owned by exactly one node.
type Port interface {
	ID() uuid.UUID
	Name() string
	Kind() PortKind
	// ValueType is the payload type. Connections require identical types.
	ValueType() reflect.Type
	// HasValue reports whether a value is currently present.
	HasValue() bool
}

// outletPort is the untyped view of an Outlet used by the graph and executor.
type outletPort interface {
	Port
	Clear()
	owner() *BaseNode
}

// inletPort is the untyped view of an Inlet used by the graph.
type inletPort interface {
	Port
	Source() uuid.UUID
	setSource(id uuid.UUID)
	owner() *BaseNode
}

// Outlet publishes an optional value of type T. The zero state is absent.
type Outlet[T any] struct {
	id      uuid.UUID
	name    string
	node    *BaseNode
	value   T
	present bool
}

// NewOutlet declares an outlet on n. Ports must be declared before the node is
// added to a graph; declaring one afterwards panics.
func NewOutlet[T any](n *BaseNode, name string) *Outlet[T] {
	o := &Outlet[T]{id: uuid.New(), name: name, node: n}
	n.addPort(o)
	return o
}

func (o *Outlet[T]) ID() uuid.UUID           { return o.id }
func (o *Outlet[T]) Name() string            { return o.name }
func (o *Outlet[T]) Kind() PortKind          { return PortOutlet }
func (o *Outlet[T]) ValueType() reflect.Type { return reflect.TypeFor[T]() }
func (o *Outlet[T]) HasValue() bool          { return o.present }
func (o *Outlet[T]) owner() *BaseNode        { return o.node }

// Send publishes v.
func (o *Outlet[T]) Send(v T) {
	o.value = v
	o.present = true
}

// Clear publishes absence and drops the held value.
func (o *Outlet[T]) Clear() {
	var zero T
	o.value = zero
	o.present = false
}

// Value returns the published value and whether one is present.
func (o *Outlet[T]) Value() (T, bool) {
	return o.value, o.present
}

func (o *Outlet[T]) String() string {
	return fmt.Sprintf("Outlet[%s](%s)", o.ValueType(), o.name)
}

// Inlet consumes the value of at most one upstream Outlet of the same type.
// It stores only the upstream outlet's id and resolves it through the owning
// graph on every read, so removing the upstream node simply makes the inlet
// read absent.
type Inlet[T any] struct {
	id     uuid.UUID
	name   string
	node   *BaseNode
	source uuid.UUID
}

// NewInlet declares an inlet on n. Ports must be declared before the node is
// added to a graph; declaring one afterwards panics.
func NewInlet[T any](n *BaseNode, name string) *Inlet[T] {
	in := &Inlet[T]{id: uuid.New(), name: name, node: n}
	n.addPort(in)
	return in
}

func (in *Inlet[T]) ID() uuid.UUID           { return in.id }
func (in *Inlet[T]) Name() string            { return in.name }
func (in *Inlet[T]) Kind() PortKind          { return PortInlet }
func (in *Inlet[T]) ValueType() reflect.Type { return reflect.TypeFor[T]() }
func (in *Inlet[T]) owner() *BaseNode        { return in.node }

// Source returns the id of the upstream outlet, or uuid.Nil when disconnected.
func (in *Inlet[T]) Source() uuid.UUID { return in.source }

func (in *Inlet[T]) setSource(id uuid.UUID) { in.source = id }

// Connected reports whether the inlet has an upstream outlet.
func (in *Inlet[T]) Connected() bool { return in.source != uuid.Nil }

// HasValue reports whether the upstream outlet currently holds a value.
func (in *Inlet[T]) HasValue() bool {
	_, ok := in.Value()
	return ok
}

// Value resolves the upstream outlet and returns its value. Disconnected
// inlets, inlets outside a graph, and absent upstream values all report false.
func (in *Inlet[T]) Value() (T, bool) {
	var zero T
	if in.source == uuid.Nil || in.node == nil || in.node.graph == nil {
		return zero, false
	}
	ref, ok := in.node.graph.outlets[in.source]
	if !ok {
		return zero, false
	}
	out, ok := ref.port.(*Outlet[T])
	if !ok {
		return zero, false
	}
	return out.Value()
}

// ValueOr returns the upstream value, or fallback when it is absent.
func (in *Inlet[T]) ValueOr(fallback T) T {
	if v, ok := in.Value(); ok {
		return v
	}
	return fallback
}

func (in *Inlet[T]) String() string {
	return fmt.Sprintf("Inlet[%s](%s)", in.ValueType(), in.name)
}
