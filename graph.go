package fabric

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Errors reported by Graph construction and lookup.
var (
	ErrDuplicateNode  = errors.New("fabric: node already belongs to a graph")
	ErrUnknownPort    = errors.New("fabric: port does not belong to a node in this graph")
	ErrPortDirection  = errors.New("fabric: connections run from an outlet to an inlet")
	ErrTypeMismatch   = errors.New("fabric: port payload types differ")
	ErrSelfLoop       = errors.New("fabric: connection links a node to itself")
	ErrInletConnected = errors.New("fabric: inlet already has an upstream outlet")
	ErrUnknownNode    = errors.New("fabric: no node with that name")
)

// ConnectionError describes a rejected Connect call. It unwraps to one of the
// sentinel errors above.
type ConnectionError struct {
	From string
	To   string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect %s -> %s: %v", e.From, e.To, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// Connection is a directed link from an outlet to an inlet.
type Connection struct {
	FromNode uuid.UUID
	Outlet   uuid.UUID
	ToNode   uuid.UUID
	Inlet    uuid.UUID
}

type outletRef struct {
	port outletPort
	node Node
}

type inletRef struct {
	port inletPort
	node Node
}

// Graph is an unordered set of nodes plus the connections among their ports.
// Evaluation order is never stored; the executor derives it every tick.
type Graph struct {
	order   []Node
	nodes   map[uuid.UUID]Node
	outlets map[uuid.UUID]outletRef
	inlets  map[uuid.UUID]inletRef
	links   []Connection
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:   make(map[uuid.UUID]Node),
		outlets: make(map[uuid.UUID]outletRef),
		inlets:  make(map[uuid.UUID]inletRef),
	}
}

// AddNode adds n and freezes its port list.
func (g *Graph) AddNode(n Node) error {
	b := n.base()
	if b.graph != nil {
		return fmt.Errorf("add %s: %w", b, ErrDuplicateNode)
	}
	b.graph = g
	g.order = append(g.order, n)
	g.nodes[n.ID()] = n
	for _, p := range n.Ports() {
		switch tp := p.(type) {
		case outletPort:
			g.outlets[p.ID()] = outletRef{port: tp, node: n}
		case inletPort:
			g.inlets[p.ID()] = inletRef{port: tp, node: n}
		}
	}
	return nil
}

// MustAddNode is AddNode for graph construction code that cannot recover.
func (g *Graph) MustAddNode(nodes ...Node) {
	for _, n := range nodes {
		if err := g.AddNode(n); err != nil {
			panic(err)
		}
	}
}

// RemoveNode removes the node and every connection touching it. Inlets it
// fed read absent from then on and their nodes are marked dirty. Reports
// whether the node was present.
func (g *Graph) RemoveNode(id uuid.UUID) bool {
	n, ok := g.nodes[id]
	if !ok {
		return false
	}
	g.markConsumersDirty(id)

	kept := g.links[:0]
	for _, c := range g.links {
		if c.FromNode == id || c.ToNode == id {
			if ref, ok := g.inlets[c.Inlet]; ok {
				ref.port.setSource(uuid.Nil)
			}
			continue
		}
		kept = append(kept, c)
	}
	g.links = kept

	for _, p := range n.Ports() {
		delete(g.outlets, p.ID())
		delete(g.inlets, p.ID())
	}
	for i, o := range g.order {
		if o.ID() == id {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
	delete(g.nodes, id)
	n.base().graph = nil
	return true
}

// Node returns the node with the given id.
func (g *Graph) Node(id uuid.UUID) (Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// NodeByName returns the first node, in insertion order, named name.
func (g *Graph) NodeByName(name string) (Node, bool) {
	for _, n := range g.order {
		if n.Name() == name {
			return n, true
		}
	}
	return nil, false
}

// Nodes returns all nodes in insertion order. The returned slice must not be
// mutated.
func (g *Graph) Nodes() []Node { return g.order }

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.order) }

// Connections returns all links in the order they were made.
func (g *Graph) Connections() []Connection {
	out := make([]Connection, len(g.links))
	copy(out, g.links)
	return out
}

// markConsumersDirty flags every node fed by id.
func (g *Graph) markConsumersDirty(id uuid.UUID) {
	for _, c := range g.links {
		if c.FromNode == id && c.ToNode != id {
			if n, ok := g.nodes[c.ToNode]; ok {
				n.MarkDirty()
			}
		}
	}
}

// Connect links an outlet to an inlet of the same payload type and marks the
// inlet's node dirty.
func (g *Graph) Connect(from, to Port) error {
	fail := func(err error) error {
		return &ConnectionError{From: g.describe(from), To: g.describe(to), Err: err}
	}

	if from.Kind() != PortOutlet || to.Kind() != PortInlet {
		return fail(ErrPortDirection)
	}
	src, ok := g.outlets[from.ID()]
	if !ok {
		return fail(ErrUnknownPort)
	}
	dst, ok := g.inlets[to.ID()]
	if !ok {
		return fail(ErrUnknownPort)
	}
	if src.node.ID() == dst.node.ID() {
		return fail(ErrSelfLoop)
	}
	if from.ValueType() != to.ValueType() {
		return fail(fmt.Errorf("%w: %s vs %s", ErrTypeMismatch, from.ValueType(), to.ValueType()))
	}
	if dst.port.Source() != uuid.Nil {
		return fail(ErrInletConnected)
	}

	dst.port.setSource(from.ID())
	dst.node.MarkDirty()
	g.links = append(g.links, Connection{
		FromNode: src.node.ID(),
		Outlet:   from.ID(),
		ToNode:   dst.node.ID(),
		Inlet:    to.ID(),
	})
	return nil
}

// MustConnect is Connect for graph construction code that cannot recover.
func (g *Graph) MustConnect(from, to Port) {
	if err := g.Connect(from, to); err != nil {
		panic(err)
	}
}

// Disconnect removes the inlet's upstream link and marks the inlet's node
// dirty. Reports whether a link existed.
func (g *Graph) Disconnect(inlet Port) bool {
	ref, ok := g.inlets[inlet.ID()]
	if !ok || ref.port.Source() == uuid.Nil {
		return false
	}
	ref.port.setSource(uuid.Nil)
	ref.node.MarkDirty()
	for i, c := range g.links {
		if c.Inlet == inlet.ID() {
			g.links = append(g.links[:i], g.links[i+1:]...)
			break
		}
	}
	return true
}

// Consumers returns the nodes fed by the node with the given id, without
// duplicates, in connection order.
func (g *Graph) Consumers(id uuid.UUID) []Node {
	var out []Node
	for _, c := range g.links {
		if c.FromNode != id {
			continue
		}
		n := g.nodes[c.ToNode]
		dup := false
		for _, o := range out {
			if o.ID() == n.ID() {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, n)
		}
	}
	return out
}

func (g *Graph) describe(p Port) string {
	if ref, ok := g.outlets[p.ID()]; ok {
		return ref.node.Name() + "." + p.Name()
	}
	if ref, ok := g.inlets[p.ID()]; ok {
		return ref.node.Name() + "." + p.Name()
	}
	return p.Name()
}
