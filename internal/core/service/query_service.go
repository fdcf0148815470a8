package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/guillermoBallester/askdb/internal/core/domain"
	"github.com/guillermoBallester/askdb/internal/core/port"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type toolNameKey struct{}

type questionKey struct{}

// WithToolName returns a context carrying the tool or command name recorded
// in the history log.
func WithToolName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, toolNameKey{}, name)
}

func toolNameFromCtx(ctx context.Context) string {
	if v, ok := ctx.Value(toolNameKey{}).(string); ok {
		return v
	}
	return ""
}

// WithQuestion attaches the natural-language question that produced the SQL.
func WithQuestion(ctx context.Context, question string) context.Context {
	return context.WithValue(ctx, questionKey{}, question)
}

func questionFromCtx(ctx context.Context) string {
	if v, ok := ctx.Value(questionKey{}).(string); ok {
		return v
	}
	return ""
}

// Outcome is the result of one pass through the gate. Result is nil when the
// statement was blocked pending confirmation.
type Outcome struct {
	Verdict  domain.Verdict
	Result   *port.Result
	Duration time.Duration
}

func (o *Outcome) Blocked() bool {
	return o.Verdict.Blocked()
}

// QueryServiceConfig is the execution policy of a QueryService.
type QueryServiceConfig struct {
	// ReadOnly refuses every statement that is not READ_ONLY, confirmed or not.
	ReadOnly bool
	Masks    domain.ColumnMasks
}

// QueryService runs candidate SQL through the safety gate and, when allowed,
// the executor.
type QueryService struct {
	gate     *domain.Gate
	executor port.QueryExecutor
	history  port.HistoryRecorder
	logger   *slog.Logger
	cfg      QueryServiceConfig
	tracer   trace.Tracer
	inst     port.Instrumentation
	now      func() time.Time
}

func NewQueryService(gate *domain.Gate, executor port.QueryExecutor, history port.HistoryRecorder, logger *slog.Logger, cfg QueryServiceConfig, tracer trace.Tracer, inst port.Instrumentation) *QueryService {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("noop")
	}
	if inst == nil {
		inst = port.NoopInstrumentation{}
	}
	return &QueryService{
		gate:     gate,
		executor: executor,
		history:  history,
		logger:   logger,
		cfg:      cfg,
		tracer:   tracer,
		inst:     inst,
		now:      time.Now,
	}
}

// Gate exposes the gate so callers can classify without executing.
func (s *QueryService) Gate() *domain.Gate { return s.gate }

// Execute gates sql and runs it when the decision is PROCEED. A statement
// blocked pending confirmation is not an error: the returned Outcome reports
// it and the caller re-invokes with confirmed=true once the user agrees.
func (s *QueryService) Execute(ctx context.Context, sql string, confirmed bool) (*Outcome, error) {
	ctx, span := s.tracer.Start(ctx, "QueryService.Execute",
		trace.WithAttributes(
			attribute.String("db.operation.name", "query"),
			attribute.String("db.statement", sql),
			attribute.Bool("gate.confirmed", confirmed),
		),
	)
	defer span.End()

	if strings.TrimSpace(sql) == "" {
		span.SetStatus(codes.Error, domain.ErrEmptyQuery.Error())
		return nil, domain.ErrEmptyQuery
	}

	v := s.gate.Evaluate(sql, confirmed)
	classification, decision := v.Classification.String(), v.Decision.String()
	s.inst.RecordDecision(ctx, classification, decision)
	span.SetAttributes(
		attribute.String("gate.classification", classification),
		attribute.String("gate.decision", decision),
		attribute.Bool("gate.limited", v.Limited),
	)

	entry := port.HistoryEntry{
		Time:           s.now(),
		Source:         toolNameFromCtx(ctx),
		Question:       questionFromCtx(ctx),
		SQL:            v.SQL,
		Classification: classification,
		Decision:       decision,
		Confirmed:      confirmed,
	}
	out := &Outcome{Verdict: v}

	if s.cfg.ReadOnly && v.Classification != domain.ReadOnly {
		err := fmt.Errorf("%s statement refused: %w", classification, domain.ErrReadOnly)
		s.logger.WarnContext(ctx, "statement refused by read-only mode",
			slog.String("db.statement", sql),
			slog.String("gate.classification", classification),
			slog.String("error.type", "read_only"),
		)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.inst.IncrementQueryErrors(ctx)
		entry.Status = port.StatusError
		entry.Error = err.Error()
		s.history.Record(ctx, entry)
		return nil, err
	}

	if v.Blocked() {
		s.logger.InfoContext(ctx, "statement blocked pending confirmation",
			slog.String("db.statement", sql),
			slog.String("gate.classification", classification),
			slog.String("gate.decision", decision),
		)
		entry.Status = port.StatusBlocked
		s.history.Record(ctx, entry)
		return out, nil
	}

	readOnly := v.Classification == domain.ReadOnly
	start := time.Now()
	res, err := s.executor.Execute(ctx, port.Statement{SQL: v.SQL, ReadOnly: readOnly})
	out.Duration = time.Since(start)
	durationMS := out.Duration.Milliseconds()

	s.inst.RecordQueryDuration(ctx, float64(durationMS))
	entry.DurationMS = durationMS

	if err != nil {
		s.logger.ErrorContext(ctx, "statement failed",
			slog.String("db.statement", v.SQL),
			slog.String("gate.classification", classification),
			slog.String("error.type", "execution_error"),
			slog.String("error", err.Error()),
		)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.inst.IncrementQueryErrors(ctx)
		entry.Status = port.StatusError
		entry.Error = err.Error()
		s.history.Record(ctx, entry)
		return nil, err
	}

	if readOnly {
		s.cfg.Masks.Apply(res.Rows)
		entry.Rows = int64(len(res.Rows))
		span.SetAttributes(attribute.Int("db.response.rows", len(res.Rows)))
	} else {
		entry.Rows = res.RowsAffected
		span.SetAttributes(attribute.Int64("db.response.rows_affected", res.RowsAffected))
	}
	s.inst.IncrementQueryCount(ctx)
	entry.Status = port.StatusOK
	s.history.Record(ctx, entry)

	out.Result = res
	return out, nil
}

// Explain returns the plan of a READ_ONLY statement without running it.
func (s *QueryService) Explain(ctx context.Context, sql string) ([]map[string]any, error) {
	ctx, span := s.tracer.Start(ctx, "QueryService.Explain",
		trace.WithAttributes(
			attribute.String("db.operation.name", "explain"),
			attribute.String("db.statement", sql),
		),
	)
	defer span.End()

	if strings.TrimSpace(sql) == "" {
		return nil, domain.ErrEmptyQuery
	}
	if c := s.gate.Classify(sql); c != domain.ReadOnly {
		err := fmt.Errorf("%s: %w", c, domain.ErrExplainNotReadOnly)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	plan, err := s.executor.Explain(ctx, sql)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return plan, nil
}
