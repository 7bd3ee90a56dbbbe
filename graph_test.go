package fabric

import (
	"errors"
	"testing"
)

func TestGraphAddNode(t *testing.T) {
	g := NewGraph()
	a := newTestNode("a", NodeTypeGeneric, 0, nil)
	b := newTestNode("b", NodeTypeMesh, 0, nil)
	if err := g.AddNode(a); err != nil {
		t.Fatal(err)
	}
	if err := g.AddNode(b); err != nil {
		t.Fatal(err)
	}
	if g.Len() != 2 {
		t.Fatalf("Len = %d, want 2", g.Len())
	}
	if nodes := g.Nodes(); nodes[0] != Node(a) || nodes[1] != Node(b) {
		t.Error("Nodes should keep insertion order")
	}
	if got, ok := g.Node(b.ID()); !ok || got != Node(b) {
		t.Error("Node lookup failed")
	}
	if a.Graph() != g {
		t.Error("node should record its graph")
	}

	err := g.AddNode(a)
	if !errors.Is(err, ErrDuplicateNode) {
		t.Fatalf("re-adding: err = %v, want ErrDuplicateNode", err)
	}
	if err := NewGraph().AddNode(a); !errors.Is(err, ErrDuplicateNode) {
		t.Fatalf("adding to a second graph: err = %v, want ErrDuplicateNode", err)
	}
}

func TestGraphConnectValidation(t *testing.T) {
	g := NewGraph()
	a := newTestNode("a", NodeTypeGeneric, 1, nil)
	b := newTestNode("b", NodeTypeGeneric, 2, nil)
	strNode := NewValueNode("str", "text")
	outside := newTestNode("outside", NodeTypeGeneric, 1, nil)
	g.MustAddNode(a, b, strNode)

	tests := []struct {
		name     string
		from, to Port
		want     error
	}{
		{"inlet to inlet", a.Ins[0], b.Ins[0], ErrPortDirection},
		{"outlet to outlet", a.Out, b.Out, ErrPortDirection},
		{"unknown outlet", outside.Out, b.Ins[0], ErrUnknownPort},
		{"unknown inlet", a.Out, outside.Ins[0], ErrUnknownPort},
		{"self loop", a.Out, a.Ins[0], ErrSelfLoop},
		{"type mismatch", strNode.Output, b.Ins[0], ErrTypeMismatch},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := g.Connect(tc.from, tc.to)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
			var ce *ConnectionError
			if !errors.As(err, &ce) {
				t.Fatalf("err %T is not a *ConnectionError", err)
			}
		})
	}
	if n := len(g.Connections()); n != 0 {
		t.Fatalf("rejected connections were recorded: %d", n)
	}

	g.MustConnect(a.Out, b.Ins[0])
	err := g.Connect(a.Out, b.Ins[0])
	if !errors.Is(err, ErrInletConnected) {
		t.Fatalf("second connect: err = %v, want ErrInletConnected", err)
	}
	// One outlet may feed many inlets.
	if err := g.Connect(a.Out, b.Ins[1]); err != nil {
		t.Fatalf("fan-out connect: %v", err)
	}
}

func TestConnectionErrorMessage(t *testing.T) {
	g := NewGraph()
	a := newTestNode("a", NodeTypeGeneric, 1, nil)
	g.MustAddNode(a)
	err := g.Connect(a.Out, a.Ins[0])
	want := "connect a.Out -> a.In: " + ErrSelfLoop.Error()
	if err == nil || err.Error() != want {
		t.Fatalf("Error() = %v, want %q", err, want)
	}
}

func TestMustConnectPanics(t *testing.T) {
	g := NewGraph()
	a := newTestNode("a", NodeTypeGeneric, 1, nil)
	g.MustAddNode(a)
	defer func() {
		if recover() == nil {
			t.Fatal("MustConnect should panic on a self loop")
		}
	}()
	g.MustConnect(a.Out, a.Ins[0])
}

func TestGraphInputNodesFollowPortOrder(t *testing.T) {
	g := NewGraph()
	p := newTestNode("p", NodeTypeGeneric, 0, nil)
	q := newTestNode("q", NodeTypeGeneric, 0, nil)
	m := newTestNode("m", NodeTypeMesh, 3, nil)
	g.MustAddNode(p, q, m)
	g.MustConnect(q.Out, m.Ins[0])
	g.MustConnect(p.Out, m.Ins[2])

	deps := m.InputNodes()
	if len(deps) != 2 || deps[0] != Node(q) || deps[1] != Node(p) {
		t.Fatalf("InputNodes = %v, want [q p]", deps)
	}
	if len(p.InputNodes()) != 0 {
		t.Error("source node should have no inputs")
	}
}

func TestGraphConsumersDeduplicated(t *testing.T) {
	g := NewGraph()
	src := newTestNode("src", NodeTypeGeneric, 0, nil)
	a := newTestNode("a", NodeTypeGeneric, 2, nil)
	b := newTestNode("b", NodeTypeGeneric, 1, nil)
	g.MustAddNode(src, a, b)
	g.MustConnect(src.Out, a.Ins[0])
	g.MustConnect(src.Out, a.Ins[1])
	g.MustConnect(src.Out, b.Ins[0])

	got := g.Consumers(src.ID())
	if len(got) != 2 || got[0] != Node(a) || got[1] != Node(b) {
		t.Fatalf("Consumers = %v, want [a b]", got)
	}
}

func TestGraphDisconnect(t *testing.T) {
	g := NewGraph()
	a := newTestNode("a", NodeTypeGeneric, 0, nil)
	b := newTestNode("b", NodeTypeGeneric, 1, nil)
	g.MustAddNode(a, b)
	g.MustConnect(a.Out, b.Ins[0])

	if !g.Disconnect(b.Ins[0]) {
		t.Fatal("Disconnect returned false")
	}
	if g.Disconnect(b.Ins[0]) {
		t.Fatal("second Disconnect should report false")
	}
	if b.Ins[0].Connected() || len(g.Connections()) != 0 || len(b.InputNodes()) != 0 {
		t.Fatal("link not fully removed")
	}
	// The inlet can be reconnected.
	g.MustConnect(a.Out, b.Ins[0])
}

func TestGraphEditsDirtyAffectedNodes(t *testing.T) {
	g := NewGraph()
	a := newTestNode("a", NodeTypeGeneric, 0, nil)
	b := newTestNode("b", NodeTypeGeneric, 1, nil)
	c := newTestNode("c", NodeTypeGeneric, 1, nil)
	g.MustAddNode(a, b, c)
	clean := func() {
		for _, n := range []*testNode{a, b, c} {
			n.MarkClean()
		}
	}

	clean()
	g.MustConnect(a.Out, b.Ins[0])
	if !b.IsDirty() || a.IsDirty() {
		t.Errorf("after Connect: a dirty=%v b dirty=%v, want false true", a.IsDirty(), b.IsDirty())
	}

	clean()
	g.Disconnect(b.Ins[0])
	if !b.IsDirty() || a.IsDirty() {
		t.Errorf("after Disconnect: a dirty=%v b dirty=%v, want false true", a.IsDirty(), b.IsDirty())
	}

	g.MustConnect(a.Out, b.Ins[0])
	g.MustConnect(a.Out, c.Ins[0])
	clean()
	g.RemoveNode(a.ID())
	if !b.IsDirty() || !c.IsDirty() {
		t.Errorf("after RemoveNode: b dirty=%v c dirty=%v, want both", b.IsDirty(), c.IsDirty())
	}
}

func TestGraphRemoveNode(t *testing.T) {
	g := NewGraph()
	a := newTestNode("a", NodeTypeGeneric, 0, nil)
	b := newTestNode("b", NodeTypeGeneric, 1, nil)
	c := newTestNode("c", NodeTypeGeneric, 1, nil)
	g.MustAddNode(a, b, c)
	g.MustConnect(a.Out, b.Ins[0])
	g.MustConnect(b.Out, c.Ins[0])

	if !g.RemoveNode(b.ID()) {
		t.Fatal("RemoveNode returned false")
	}
	if g.RemoveNode(b.ID()) {
		t.Fatal("removing twice should report false")
	}
	if g.Len() != 2 || len(g.Connections()) != 0 {
		t.Fatalf("Len = %d, links = %d", g.Len(), len(g.Connections()))
	}
	if c.Ins[0].Connected() {
		t.Error("downstream inlet should be disconnected")
	}
	if b.Graph() != nil {
		t.Error("removed node should leave the graph")
	}
	// A removed node can join another graph.
	if err := NewGraph().AddNode(b); err != nil {
		t.Fatalf("re-adding removed node: %v", err)
	}
}
