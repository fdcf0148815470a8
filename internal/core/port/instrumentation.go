package port

import "context"

// Instrumentation records application-level metrics.
type Instrumentation interface {
	RecordQueryDuration(ctx context.Context, ms float64)
	IncrementQueryCount(ctx context.Context)
	IncrementQueryErrors(ctx context.Context)
	RecordToolDuration(ctx context.Context, ms float64)
	RecordDecision(ctx context.Context, classification, decision string)
	RecordGeneration(ctx context.Context, ms float64, attempts int)
}

// NoopInstrumentation discards all metrics.
type NoopInstrumentation struct{}

func (NoopInstrumentation) RecordQueryDuration(context.Context, float64)   {}
func (NoopInstrumentation) IncrementQueryCount(context.Context)            {}
func (NoopInstrumentation) IncrementQueryErrors(context.Context)           {}
func (NoopInstrumentation) RecordToolDuration(context.Context, float64)    {}
func (NoopInstrumentation) RecordDecision(context.Context, string, string) {}
func (NoopInstrumentation) RecordGeneration(context.Context, float64, int) {}
