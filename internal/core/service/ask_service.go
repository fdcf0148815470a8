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

// DefaultMaxAttempts bounds how often the translator is asked again after an
// empty or invalid answer.
const DefaultMaxAttempts = 3

// Candidate is generated SQL ready to be handed to QueryService.
type Candidate struct {
	SQL            string                `json:"sql"`
	Classification domain.Classification `json:"classification"`
	Attempts       int                   `json:"attempts"`
	// ValidationError is set when every attempt failed validation; SQL then
	// holds the last attempt and should be shown as uncertain.
	ValidationError string `json:"validation_error,omitempty"`
	Provider        string `json:"provider,omitempty"`
	Model           string `json:"model,omitempty"`
}

func (c *Candidate) Uncertain() bool {
	return c.ValidationError != ""
}

type AskConfig struct {
	MaxAttempts int // <= 0 means DefaultMaxAttempts
}

// AskService turns questions into candidate SQL. READ_ONLY candidates are
// checked with EXPLAIN and regenerated with the database error as feedback.
type AskService struct {
	translator  port.Translator
	explorer    *ExplorerService
	gate        *domain.Gate
	executor    port.QueryExecutor
	logger      *slog.Logger
	maxAttempts int
	tracer      trace.Tracer
	inst        port.Instrumentation
}

func NewAskService(translator port.Translator, explorer *ExplorerService, gate *domain.Gate, executor port.QueryExecutor, logger *slog.Logger, cfg AskConfig, tracer trace.Tracer, inst port.Instrumentation) *AskService {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("noop")
	}
	if inst == nil {
		inst = port.NoopInstrumentation{}
	}
	return &AskService{
		translator:  translator,
		explorer:    explorer,
		gate:        gate,
		executor:    executor,
		logger:      logger,
		maxAttempts: cfg.MaxAttempts,
		tracer:      tracer,
		inst:        inst,
	}
}

func (s *AskService) Generate(ctx context.Context, question string) (*Candidate, error) {
	ctx, span := s.tracer.Start(ctx, "AskService.Generate")
	defer span.End()

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.ErrEmptyQuestion
	}

	schema, err := s.explorer.SchemaSummary(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("schema summary: %w", err)
	}

	start := time.Now()
	cand := &Candidate{}
	var feedback string
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		cand.Attempts = attempt

		res, err := s.translator.Translate(ctx, port.TranslateRequest{
			Question: question,
			Schema:   schema,
			Feedback: feedback,
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("translate: %w", err)
		}
		cand.Provider, cand.Model = res.Provider, res.Model

		sql := CleanSQL(res.SQL)
		if sql == "" {
			feedback = "empty response"
			cand.ValidationError = feedback
			continue
		}
		cand.SQL = sql
		cand.Classification = s.gate.Classify(sql)
		if cand.Classification != domain.ReadOnly {
			cand.ValidationError = ""
			break
		}

		if _, err := s.executor.Explain(ctx, sql); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger.WarnContext(ctx, "generated SQL failed validation",
				slog.Int("attempt", attempt),
				slog.String("db.statement", sql),
				slog.String("error", err.Error()),
			)
			feedback = err.Error()
			cand.ValidationError = feedback
			continue
		}
		cand.ValidationError = ""
		break
	}

	s.inst.RecordGeneration(ctx, float64(time.Since(start).Milliseconds()), cand.Attempts)
	span.SetAttributes(
		attribute.Int("llm.attempts", cand.Attempts),
		attribute.String("gen_ai.request.model", cand.Model),
	)

	if cand.SQL == "" {
		span.SetStatus(codes.Error, domain.ErrNoSQLGenerated.Error())
		return nil, domain.ErrNoSQLGenerated
	}
	span.SetAttributes(
		attribute.String("db.statement", cand.SQL),
		attribute.String("gate.classification", cand.Classification.String()),
	)
	return cand, nil
}

var dialectLines = map[string]bool{
	"sql":        true,
	"sqlite":     true,
	"mysql":      true,
	"postgresql": true,
	"postgres":   true,
	"duckdb":     true,
}

// CleanSQL strips markdown code fences and a leading bare dialect line
// ("sql", "postgresql", ...) from model output.
func CleanSQL(raw string) string {
	t := strings.TrimSpace(raw)
	t = strings.TrimSpace(strings.Trim(t, "`"))

	first, rest, found := strings.Cut(t, "\n")
	if dialectLines[strings.ToLower(strings.TrimSpace(first))] {
		if !found {
			return ""
		}
		t = rest
	}
	return strings.TrimSpace(t)
}
