package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/phanxgames/fabric"
)

// OTel records frame statistics as OpenTelemetry instruments.
type OTel struct {
	frames     metric.Int64Counter
	executions metric.Int64Counter
	faults     metric.Int64Counter
	feedback   metric.Int64Counter
	objects    metric.Int64Histogram
	duration   metric.Float64Histogram

	phaseTraverse  metric.MeasurementOption
	phaseAggregate metric.MeasurementOption
	phaseDraw      metric.MeasurementOption
}

// NewOTel creates the fabric instruments on meter.
func NewOTel(meter metric.Meter) (*OTel, error) {
	frames, err := meter.Int64Counter("fabric.frames",
		metric.WithDescription("Total number of executed ticks"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating fabric.frames counter: %w", err)
	}

	executions, err := meter.Int64Counter("fabric.node.executions",
		metric.WithDescription("Total number of node Execute calls"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating fabric.node.executions counter: %w", err)
	}

	faults, err := meter.Int64Counter("fabric.node.faults",
		metric.WithDescription("Total number of faulted node executions"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating fabric.node.faults counter: %w", err)
	}

	feedback, err := meter.Int64Counter("fabric.feedback",
		metric.WithDescription("Total number of dependencies read with their previous tick's value"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating fabric.feedback counter: %w", err)
	}

	objects, err := meter.Int64Histogram("fabric.scene.objects",
		metric.WithDescription("Scene objects aggregated per tick"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating fabric.scene.objects histogram: %w", err)
	}

	duration, err := meter.Float64Histogram("fabric.frame.duration",
		metric.WithDescription("Duration of tick phases in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating fabric.frame.duration histogram: %w", err)
	}

	return &OTel{
		frames:         frames,
		executions:     executions,
		faults:         faults,
		feedback:       feedback,
		objects:        objects,
		duration:       duration,
		phaseTraverse:  metric.WithAttributes(attribute.String("phase", "traverse")),
		phaseAggregate: metric.WithAttributes(attribute.String("phase", "aggregate")),
		phaseDraw:      metric.WithAttributes(attribute.String("phase", "draw")),
	}, nil
}

func (o *OTel) ObserveFrame(s fabric.FrameStats) {
	ctx := context.Background()
	o.frames.Add(ctx, 1)
	o.executions.Add(ctx, int64(s.Executed))
	o.faults.Add(ctx, int64(s.Faults))
	o.feedback.Add(ctx, int64(s.Feedback))
	o.objects.Record(ctx, int64(s.Objects))
	o.duration.Record(ctx, s.Traverse.Seconds(), o.phaseTraverse)
	o.duration.Record(ctx, s.Aggregate.Seconds(), o.phaseAggregate)
	o.duration.Record(ctx, s.Draw.Seconds(), o.phaseDraw)
}
