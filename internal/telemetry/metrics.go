package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "github.com/guillermoBallester/askdb"

// Instruments implements port.Instrumentation on top of OTel metrics.
type Instruments struct {
	QueryCount         metric.Int64Counter
	QueryDuration      metric.Float64Histogram
	QueryErrors        metric.Int64Counter
	ToolDuration       metric.Float64Histogram
	GateDecisions      metric.Int64Counter
	GenerationDuration metric.Float64Histogram
	GenerationAttempts metric.Int64Histogram
}

// NewInstruments creates instruments from the global MeterProvider.
func NewInstruments() *Instruments {
	return newInstrumentsFromMeter(otel.Meter(meterName))
}

// NoopInstruments returns instruments that record nothing.
func NoopInstruments() *Instruments {
	return newInstrumentsFromMeter(noop.NewMeterProvider().Meter(meterName))
}

func newInstrumentsFromMeter(meter metric.Meter) *Instruments {
	// The SDK hands back working noop instruments alongside any error.
	queryCount, _ := meter.Int64Counter("askdb.query.count",
		metric.WithDescription("Statements executed"),
	)
	queryDuration, _ := meter.Float64Histogram("askdb.query.duration",
		metric.WithDescription("Statement execution duration"),
		metric.WithUnit("ms"),
	)
	queryErrors, _ := meter.Int64Counter("askdb.query.errors",
		metric.WithDescription("Statements that failed or were refused"),
	)
	toolDuration, _ := meter.Float64Histogram("askdb.tool.duration",
		metric.WithDescription("MCP tool call duration"),
		metric.WithUnit("ms"),
	)
	decisions, _ := meter.Int64Counter("askdb.gate.decisions",
		metric.WithDescription("Safety gate verdicts by classification and decision"),
	)
	genDuration, _ := meter.Float64Histogram("askdb.llm.generation.duration",
		metric.WithDescription("Time to produce candidate SQL, retries included"),
		metric.WithUnit("ms"),
	)
	genAttempts, _ := meter.Int64Histogram("askdb.llm.generation.attempts",
		metric.WithDescription("Translator calls per generated candidate"),
	)

	return &Instruments{
		QueryCount:         queryCount,
		QueryDuration:      queryDuration,
		QueryErrors:        queryErrors,
		ToolDuration:       toolDuration,
		GateDecisions:      decisions,
		GenerationDuration: genDuration,
		GenerationAttempts: genAttempts,
	}
}

func (i *Instruments) RecordQueryDuration(ctx context.Context, ms float64) {
	i.QueryDuration.Record(ctx, ms)
}

func (i *Instruments) IncrementQueryCount(ctx context.Context) {
	i.QueryCount.Add(ctx, 1)
}

func (i *Instruments) IncrementQueryErrors(ctx context.Context) {
	i.QueryErrors.Add(ctx, 1)
}

func (i *Instruments) RecordToolDuration(ctx context.Context, ms float64) {
	i.ToolDuration.Record(ctx, ms)
}

func (i *Instruments) RecordDecision(ctx context.Context, classification, decision string) {
	i.GateDecisions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("gate.classification", classification),
		attribute.String("gate.decision", decision),
	))
}

func (i *Instruments) RecordGeneration(ctx context.Context, ms float64, attempts int) {
	i.GenerationDuration.Record(ctx, ms)
	i.GenerationAttempts.Record(ctx, int64(attempts))
}
