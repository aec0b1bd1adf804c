// Package obstrace wires one OpenTelemetry span per pipeline.Check call,
// carrying stage timings as span attributes, exported to stdout.
package obstrace

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

const tracerName = "github.com/asgard/deconflict/internal/pipeline"

// NewProvider builds a TracerProvider that writes spans to stdout. Callers
// should register it with otel.SetTracerProvider and Shutdown it on exit.
func NewProvider(ctx context.Context) (*sdktrace.TracerProvider, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}

	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		semconv.ServiceName("deconflict"),
	))
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	return tp, nil
}

// StartCheckSpan starts a span for one pipeline.Check call.
func StartCheckSpan(ctx context.Context, droneID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "pipeline.Check",
		trace.WithAttributes(attribute.String("drone_id", droneID)))
}

// RecordStageTimings attaches per-stage durations (milliseconds) to span.
func RecordStageTimings(span trace.Span, stage1, stage2, stage3, total float64) {
	span.SetAttributes(
		attribute.Float64("stage1_ms", stage1),
		attribute.Float64("stage2_ms", stage2),
		attribute.Float64("stage3_ms", stage3),
		attribute.Float64("total_ms", total),
	)
}
