package fabric

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrNodePanic wraps a panic recovered from a node's Execute.
var ErrNodePanic = errors.New("fabric: node panicked")

const tracerName = "github.com/phanxgames/fabric"

// ObjectProvider is implemented by Object, Light and Mesh nodes whose output
// joins the aggregated scene.
type ObjectProvider interface {
	SceneObject() (SceneObject, bool)
}

// CameraProvider is implemented by Camera nodes.
type CameraProvider interface {
	Camera() (*Camera, bool)
}

// FrameObserver receives the statistics of every completed tick.
type FrameObserver interface {
	ObserveFrame(stats FrameStats)
}

// FrameStats summarizes one tick.
type FrameStats struct {
	Frame uint64
	// Visited counts nodes whose dependencies were resolved this tick.
	Visited int
	// Executed counts Execute calls, including faulted ones.
	Executed int
	// Cached counts visited nodes skipped because they were clean.
	Cached int
	Faults int
	// Feedback counts dependencies found on the active path and read with
	// their previous tick's output.
	Feedback   int
	Objects    int
	Cameras    int
	DrawFailed bool

	Traverse  time.Duration
	Aggregate time.Duration
	Draw      time.Duration
}

// Total returns the time spent in the tick.
func (s FrameStats) Total() time.Duration {
	return s.Traverse + s.Aggregate + s.Draw
}

// ExecutorOption configures a GraphExecutor.
type ExecutorOption func(*GraphExecutor)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) ExecutorOption {
	return func(e *GraphExecutor) {
		e.log = l.With().Str("component", "fabric.executor").Logger()
	}
}

// WithClock replaces time.Now as the source of tick timestamps.
func WithClock(now func() time.Time) ExecutorOption {
	return func(e *GraphExecutor) { e.now = now }
}

// WithMetrics registers an observer called after every tick.
func WithMetrics(o FrameObserver) ExecutorOption {
	return func(e *GraphExecutor) { e.observer = o }
}

// WithTracer sets the tracer used for per-tick spans.
func WithTracer(t trace.Tracer) ExecutorOption {
	return func(e *GraphExecutor) { e.tracer = t }
}

// WithDebug enables per-tick debug logging of FrameStats.
func WithDebug(enabled bool) ExecutorOption {
	return func(e *GraphExecutor) { e.debug = enabled }
}

// visitFrame is one entry of the explicit traversal stack.
type visitFrame struct {
	node Node
	deps []Node
	next int
}

// GraphExecutor evaluates a Graph once per tick and hands the aggregated
// scene to a Renderer. It is not safe for concurrent use; a tick runs to
// completion on the calling goroutine.
type GraphExecutor struct {
	graph    *Graph
	renderer Renderer
	log      zerolog.Logger
	now      func() time.Time
	observer FrameObserver
	tracer   trace.Tracer
	debug    bool

	lastTime  time.Time
	frame     uint64
	viewports []Rect

	scene   *Scene
	cameras []*Camera
	ownCB   *CommandBuffer

	visited map[uuid.UUID]struct{}
	onPath  map[uuid.UUID]struct{}
	stack   []visitFrame
	roots   []Node
}

// NewGraphExecutor creates an executor for g. r may be nil, in which case
// nodes are evaluated but nothing is drawn.
func NewGraphExecutor(g *Graph, r Renderer, opts ...ExecutorOption) *GraphExecutor {
	e := &GraphExecutor{
		graph:    g,
		renderer: r,
		log:      zerolog.Nop(),
		now:      time.Now,
		tracer:   otel.Tracer(tracerName),
		scene:    NewScene(),
		ownCB:    NewCommandBuffer(),
		visited:  make(map[uuid.UUID]struct{}),
		onPath:   make(map[uuid.UUID]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.lastTime = e.now()
	return e
}

// Graph returns the executed graph.
func (e *GraphExecutor) Graph() *Graph { return e.graph }

// FrameNumber returns the number of completed OnFrame ticks.
func (e *GraphExecutor) FrameNumber() uint64 { return e.frame }

// Viewports returns the viewports recorded by the last OnResize.
func (e *GraphExecutor) Viewports() []Rect { return e.viewports }

// CurrentContext builds the context the next tick would receive.
func (e *GraphExecutor) CurrentContext() *ExecutionContext {
	now := e.now()
	return NewExecutionContext(Timing{
		Time:        now,
		Delta:       now.Sub(e.lastTime),
		DisplayTime: now,
		SystemTime:  now,
		FrameNumber: e.frame,
	}, nil, nil)
}

// OnFrame runs one tick against target. Draw work is recorded into cb for the
// caller to commit; a nil cb makes the executor commit its own buffer before
// returning.
func (e *GraphExecutor) OnFrame(target *ebiten.Image, cb *CommandBuffer) FrameStats {
	ctx := e.CurrentContext()
	own := cb == nil
	if own {
		cb = e.ownCB
	}
	stats := e.Execute(ctx, target, cb)
	if own {
		cb.Commit()
	}
	e.lastTime = ctx.Time()
	e.frame++
	return stats
}

// OnResize broadcasts the new viewport size to every node in the graph,
// reachable or not, and records it as the renderer's viewport.
func (e *GraphExecutor) OnResize(size Vec2, scale float64) {
	for _, n := range e.graph.Nodes() {
		n.Resize(size, scale)
	}
	e.viewports = append(e.viewports[:0], Rect{Width: size.X, Height: size.Y})
	e.log.Debug().
		Float64("width", size.X).
		Float64("height", size.Y).
		Float64("scale", scale).
		Int("nodes", e.graph.Len()).
		Msg("resize")
}

// EnableExecution re-enables every node in the graph.
func (e *GraphExecutor) EnableExecution() {
	ctx := e.CurrentContext()
	for _, n := range e.graph.Nodes() {
		n.EnableExecution(ctx)
	}
}

// DisableExecution masks every node in the graph out of traversal.
func (e *GraphExecutor) DisableExecution() {
	ctx := e.CurrentContext()
	for _, n := range e.graph.Nodes() {
		n.DisableExecution(ctx)
	}
}

// Execute evaluates the graph with ctx: it resolves every root's
// dependencies depth-first, executes dirty nodes at most once, aggregates
// scene objects and cameras, and calls the renderer. It never fails; node and
// renderer faults are logged and counted in the returned stats.
func (e *GraphExecutor) Execute(ctx *ExecutionContext, target *ebiten.Image, cb *CommandBuffer) FrameStats {
	stats := FrameStats{Frame: ctx.FrameNumber()}
	_, span := e.tracer.Start(context.Background(), "fabric.frame",
		trace.WithAttributes(attribute.Int64("fabric.frame", int64(ctx.FrameNumber()))))
	defer span.End()

	t0 := e.now()
	clear(e.visited)
	clear(e.onPath)
	for _, root := range e.selectRoots() {
		e.resolve(root, ctx, target, cb, &stats, span)
	}

	t1 := e.now()
	e.aggregate()
	stats.Objects = e.scene.Len()
	stats.Cameras = len(e.cameras)

	t2 := e.now()
	if e.renderer != nil {
		if err := e.renderer.Draw(target, cb, e.scene, e.cameras, e.viewportsFor(target)); err != nil {
			stats.DrawFailed = true
			span.RecordError(err)
			span.SetStatus(codes.Error, "renderer failed")
			e.log.Error().Err(err).Uint64("frame", stats.Frame).Msg("renderer draw failed")
		}
	}
	t3 := e.now()

	stats.Traverse = t1.Sub(t0)
	stats.Aggregate = t2.Sub(t1)
	stats.Draw = t3.Sub(t2)

	span.SetAttributes(
		attribute.Int("fabric.visited", stats.Visited),
		attribute.Int("fabric.executed", stats.Executed),
		attribute.Int("fabric.faults", stats.Faults),
		attribute.Int("fabric.feedback", stats.Feedback),
		attribute.Int("fabric.objects", stats.Objects),
		attribute.Int("fabric.cameras", stats.Cameras),
	)
	if e.debug {
		e.debugLog(stats)
	}
	if e.observer != nil {
		e.observer.ObserveFrame(stats)
	}
	return stats
}

// selectRoots returns renderable and camera nodes in graph order, followed by
// renderer sinks.
func (e *GraphExecutor) selectRoots() []Node {
	e.roots = e.roots[:0]
	for _, n := range e.graph.Nodes() {
		if t := n.Type(); t.IsRenderable() || t == NodeTypeCamera {
			e.roots = append(e.roots, n)
		}
	}
	for _, n := range e.graph.Nodes() {
		if n.Type() == NodeTypeRenderer {
			e.roots = append(e.roots, n)
		}
	}
	return e.roots
}

// resolve visits root and its transitive inputs with an explicit stack.
// A dependency already on the stack is a feedback edge: it is not descended
// into, so its consumer reads the output it published on an earlier tick.
func (e *GraphExecutor) resolve(root Node, ctx *ExecutionContext, target *ebiten.Image, cb *CommandBuffer, stats *FrameStats, span trace.Span) {
	if !root.ExecutionEnabled() {
		return
	}
	if _, done := e.visited[root.ID()]; done {
		return
	}

	e.stack = append(e.stack[:0], visitFrame{node: root, deps: root.InputNodes()})
	e.onPath[root.ID()] = struct{}{}

	for len(e.stack) > 0 {
		top := &e.stack[len(e.stack)-1]
		if top.next < len(top.deps) {
			dep := top.deps[top.next]
			top.next++
			id := dep.ID()
			if _, done := e.visited[id]; done {
				continue
			}
			if _, active := e.onPath[id]; active {
				stats.Feedback++
				continue
			}
			if !dep.ExecutionEnabled() {
				continue
			}
			e.onPath[id] = struct{}{}
			e.stack = append(e.stack, visitFrame{node: dep, deps: dep.InputNodes()})
			continue
		}

		n := top.node
		e.stack[len(e.stack)-1] = visitFrame{}
		e.stack = e.stack[:len(e.stack)-1]
		delete(e.onPath, n.ID())
		e.visited[n.ID()] = struct{}{}
		stats.Visited++
		e.run(n, ctx, target, cb, stats, span)
	}
}

// run executes n if it is dirty and propagates dirtiness to its consumers.
func (e *GraphExecutor) run(n Node, ctx *ExecutionContext, target *ebiten.Image, cb *CommandBuffer, stats *FrameStats, span trace.Span) {
	if !n.IsDirty() {
		stats.Cached++
		return
	}

	stats.Executed++
	if err := safeExecute(n, ctx, target, cb); err != nil {
		stats.Faults++
		n.base().ClearOutlets()
		span.RecordError(err, trace.WithAttributes(
			attribute.String("fabric.node", n.Name()),
			attribute.String("fabric.node_type", n.Type().String()),
		))
		e.log.Warn().
			Err(err).
			Str("node", n.Name()).
			Stringer("node_id", n.ID()).
			Stringer("node_type", n.Type()).
			Uint64("frame", ctx.FrameNumber()).
			Msg("node execution failed")
	} else {
		n.MarkClean()
	}

	for _, c := range e.graph.Consumers(n.ID()) {
		c.MarkDirty()
	}
}

// safeExecute calls n.Execute, converting a panic into an error.
func safeExecute(n Node, ctx *ExecutionContext, target *ebiten.Image, cb *CommandBuffer) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrNodePanic, r)
		}
	}()
	return n.Execute(ctx, target, cb)
}

// aggregate rebuilds the scene and camera list from enabled root nodes.
func (e *GraphExecutor) aggregate() {
	e.scene.reset()
	for i := range e.cameras {
		e.cameras[i] = nil
	}
	e.cameras = e.cameras[:0]

	for _, n := range e.graph.Nodes() {
		if !n.ExecutionEnabled() {
			continue
		}
		switch t := n.Type(); {
		case t.IsRenderable():
			if p, ok := n.(ObjectProvider); ok {
				if obj, ok := p.SceneObject(); ok {
					e.scene.add(obj)
				}
			}
		case t == NodeTypeCamera:
			if p, ok := n.(CameraProvider); ok {
				if cam, ok := p.Camera(); ok && cam != nil && !containsCamera(e.cameras, cam) {
					e.cameras = append(e.cameras, cam)
				}
			}
		}
	}
}

func containsCamera(cams []*Camera, c *Camera) bool {
	for _, existing := range cams {
		if existing == c {
			return true
		}
	}
	return false
}

// viewportsFor returns the recorded viewports, or target's bounds before the
// first resize.
func (e *GraphExecutor) viewportsFor(target *ebiten.Image) []Rect {
	if len(e.viewports) > 0 || target == nil {
		return e.viewports
	}
	b := target.Bounds()
	return []Rect{{X: float64(b.Min.X), Y: float64(b.Min.Y), Width: float64(b.Dx()), Height: float64(b.Dy())}}
}
