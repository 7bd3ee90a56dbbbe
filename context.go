package fabric

import "time"

// Timing is the clock snapshot for one tick.
type Timing struct {
	Time        time.Time
	Delta       time.Duration
	DisplayTime time.Time
	SystemTime  time.Time
	FrameNumber uint64
}

// IterationInfo describes a tick that is one pass of a repeated evaluation.
// Reserved for iterating subgraphs; nil in ordinary frames.
type IterationInfo struct {
	Index int
	Count int
}

// EventInfo describes an external event that triggered the tick. Nil in
// ordinary frames.
type EventInfo struct {
	Name    string
	Payload any
}

// ExecutionContext is the read-only per-tick input shared by every node
// visited in that tick.
type ExecutionContext struct {
	timing    Timing
	iteration *IterationInfo
	event     *EventInfo
}

// NewExecutionContext builds a context for callers that drive
// GraphExecutor.Execute themselves.
func NewExecutionContext(timing Timing, iteration *IterationInfo, event *EventInfo) *ExecutionContext {
	return &ExecutionContext{timing: timing, iteration: iteration, event: event}
}

func (c *ExecutionContext) Time() time.Time           { return c.timing.Time }
func (c *ExecutionContext) Delta() time.Duration      { return c.timing.Delta }
func (c *ExecutionContext) DisplayTime() time.Time    { return c.timing.DisplayTime }
func (c *ExecutionContext) SystemTime() time.Time     { return c.timing.SystemTime }
func (c *ExecutionContext) FrameNumber() uint64       { return c.timing.FrameNumber }
func (c *ExecutionContext) Timing() Timing            { return c.timing }
func (c *ExecutionContext) Iteration() *IterationInfo { return c.iteration }
func (c *ExecutionContext) Event() *EventInfo         { return c.event }

// DeltaSeconds returns Delta in seconds, the unit tweens advance by.
func (c *ExecutionContext) DeltaSeconds() float32 {
	return float32(c.timing.Delta.Seconds())
}
