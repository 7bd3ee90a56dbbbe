package fabric

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// tweenTrack animates up to 4 float32 channels with a shared duration and
// easing function.
type tweenTrack struct {
	tweens   [4]*gween.Tween
	from, to [4]float32
	values   [4]float32
	count    int
	duration float32
	fn       ease.TweenFunc

	loop, yoyo bool
	done       bool
}

func newTweenTrack(from, to []float32, duration float32, fn ease.TweenFunc) *tweenTrack {
	if fn == nil {
		fn = ease.Linear
	}
	t := &tweenTrack{count: len(from), duration: duration, fn: fn}
	copy(t.from[:], from)
	copy(t.to[:], to)
	t.rewind()
	return t
}

// rewind recreates the tweens from the current endpoints.
func (t *tweenTrack) rewind() {
	for i := 0; i < t.count; i++ {
		t.tweens[i] = gween.New(t.from[i], t.to[i], t.duration, t.fn)
		t.values[i] = t.from[i]
	}
	t.done = false
}

// advance moves every channel forward by dt seconds. When all channels
// finish, the track loops, reverses, or stops.
func (t *tweenTrack) advance(dt float32) {
	if t.done {
		return
	}
	finished := true
	for i := 0; i < t.count; i++ {
		v, ok := t.tweens[i].Update(dt)
		t.values[i] = v
		if !ok {
			finished = false
		}
	}
	if !finished {
		return
	}
	switch {
	case t.yoyo:
		t.from, t.to = t.to, t.from
		t.rewind()
	case t.loop:
		t.rewind()
	default:
		t.done = true
	}
}

// --- Vec2 tween ---

// TweenNode animates a Vec2 from one point to another. It stays dirty while
// running and settles on the end value once finished.
type TweenNode struct {
	BaseNode
	Output *Outlet[Vec2]

	track *tweenTrack
}

// NewTweenNode creates a tween over duration seconds. A nil fn is linear.
func NewTweenNode(name string, from, to Vec2, duration float32, fn ease.TweenFunc) *TweenNode {
	n := &TweenNode{
		track: newTweenTrack(
			[]float32{float32(from.X), float32(from.Y)},
			[]float32{float32(to.X), float32(to.Y)},
			duration, fn,
		),
	}
	n.Init(name, NodeTypeGeneric)
	n.Output = NewOutlet[Vec2](&n.BaseNode, "Value")
	return n
}

// SetLoop restarts from the start value each time the tween finishes.
func (n *TweenNode) SetLoop(loop bool) { n.track.loop = loop }

// SetYoyo reverses direction each time the tween finishes. Takes precedence
// over SetLoop.
func (n *TweenNode) SetYoyo(yoyo bool) { n.track.yoyo = yoyo }

// Done reports whether a non-repeating tween has reached its end value.
func (n *TweenNode) Done() bool { return n.track.done }

// Restart rewinds the tween and marks the node dirty.
func (n *TweenNode) Restart() {
	n.track.rewind()
	n.MarkDirty()
}

func (n *TweenNode) IsDirty() bool {
	return !n.track.done || n.BaseNode.IsDirty()
}

func (n *TweenNode) Execute(ctx *ExecutionContext, _ *ebiten.Image, _ *CommandBuffer) error {
	n.track.advance(ctx.DeltaSeconds())
	v := n.track.values
	n.Output.Send(Vec2{X: float64(v[0]), Y: float64(v[1])})
	return nil
}

// --- Scalar tween ---

// ScalarTweenNode animates a single float64 with the same rules as TweenNode.
type ScalarTweenNode struct {
	BaseNode
	Output *Outlet[float64]

	track *tweenTrack
}

// NewScalarTweenNode creates a scalar tween over duration seconds.
func NewScalarTweenNode(name string, from, to float64, duration float32, fn ease.TweenFunc) *ScalarTweenNode {
	n := &ScalarTweenNode{
		track: newTweenTrack([]float32{float32(from)}, []float32{float32(to)}, duration, fn),
	}
	n.Init(name, NodeTypeGeneric)
	n.Output = NewOutlet[float64](&n.BaseNode, "Value")
	return n
}

func (n *ScalarTweenNode) SetLoop(loop bool) { n.track.loop = loop }
func (n *ScalarTweenNode) SetYoyo(yoyo bool) { n.track.yoyo = yoyo }
func (n *ScalarTweenNode) Done() bool        { return n.track.done }

func (n *ScalarTweenNode) Restart() {
	n.track.rewind()
	n.MarkDirty()
}

func (n *ScalarTweenNode) IsDirty() bool {
	return !n.track.done || n.BaseNode.IsDirty()
}

func (n *ScalarTweenNode) Execute(ctx *ExecutionContext, _ *ebiten.Image, _ *CommandBuffer) error {
	n.track.advance(ctx.DeltaSeconds())
	n.Output.Send(float64(n.track.values[0]))
	return nil
}
