package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/guillermoBallester/askdb/internal/adapter/duckdb"
	"github.com/guillermoBallester/askdb/internal/adapter/llm"
	"github.com/guillermoBallester/askdb/internal/adapter/policy"
	"github.com/guillermoBallester/askdb/internal/adapter/postgres"
	"github.com/guillermoBallester/askdb/internal/adapter/sqlite"
	"github.com/guillermoBallester/askdb/internal/config"
	"github.com/guillermoBallester/askdb/internal/core/domain"
	"github.com/guillermoBallester/askdb/internal/core/port"
	"github.com/guillermoBallester/askdb/internal/core/service"
	"github.com/guillermoBallester/askdb/internal/history"
	"github.com/guillermoBallester/askdb/internal/secrets"
	"github.com/guillermoBallester/askdb/internal/telemetry"
	"go.opentelemetry.io/otel/trace"
)

// app holds the wired services for one command invocation.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	explorer *service.ExplorerService
	query    *service.QueryService
	ask      *service.AskService // nil without an LLM key
	memory   *history.Memory

	tracer trace.Tracer
	inst   port.Instrumentation

	closers []func(context.Context) error
}

// newApp loads configuration and connects everything. minLevel raises the
// log level floor, so interactive commands keep stderr quiet.
func newApp(ctx context.Context, overrides config.Overrides, minLevel slog.Level) (*app, error) {
	cfg, err := config.Load(overrides)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	// Logs go to stderr; stdout belongs to the MCP stdio transport and chat output.
	level := max(cfg.LogLevel, minLevel)
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	a := &app{cfg: cfg, logger: logger}
	if err := a.wire(ctx); err != nil {
		_ = a.close(context.Background())
		return nil, err
	}
	return a, nil
}

func (a *app) wire(ctx context.Context) error {
	cfg := a.cfg

	a.logger.Info("starting askdb",
		slog.String("version", version),
		slog.String("database_url", redactDSN(cfg.DatabaseURL)),
		slog.Bool("read_only", cfg.ReadOnly),
		slog.Int("max_rows", cfg.MaxRows),
		slog.String("query_timeout", cfg.QueryTimeout.String()),
		slog.String("classifier", cfg.Classifier),
	)

	a.tracer = telemetry.NoopTracer()
	a.inst = telemetry.NoopInstruments()
	if cfg.OTelEnabled {
		provider, err := telemetry.Init(ctx, "askdb", version)
		if err != nil {
			return fmt.Errorf("initializing telemetry: %w", err)
		}
		a.closers = append(a.closers, provider.Shutdown)
		a.tracer = telemetry.Tracer()
		a.inst = telemetry.NewInstruments()
		a.logger.Info("opentelemetry enabled")
	}

	explorer, executor, dialect, err := a.openDatabase(ctx)
	if err != nil {
		return err
	}

	var masks domain.ColumnMasks
	if cfg.PolicyFile != "" {
		pol, err := policy.LoadFromFile(cfg.PolicyFile)
		if err != nil {
			return fmt.Errorf("loading policy: %w", err)
		}
		explorer = policy.NewExplorer(explorer, pol)
		masks = pol.Masks()
		a.logger.Info("policy loaded", slog.String("file", cfg.PolicyFile), slog.Int("masked_columns", len(masks)))
	}

	recorder, err := a.openHistory()
	if err != nil {
		return err
	}

	gateCfg := domain.GateConfig{MaxRows: cfg.MaxRows}
	if cfg.Classifier == config.ClassifierParser {
		gateCfg.Classifier = domain.NewParserClassifier()
	}
	gate := domain.NewGate(gateCfg)

	a.explorer = service.NewExplorerService(explorer)
	a.query = service.NewQueryService(gate, executor, recorder, a.logger,
		service.QueryServiceConfig{ReadOnly: cfg.ReadOnly, Masks: masks}, a.tracer, a.inst)

	translator, err := a.newTranslator(ctx, dialect)
	if err != nil {
		return err
	}
	if translator != nil {
		a.ask = service.NewAskService(translator, a.explorer, gate, executor, a.logger,
			service.AskConfig{MaxAttempts: cfg.LLM.MaxAttempts}, a.tracer, a.inst)
	}
	return nil
}

func (a *app) openDatabase(ctx context.Context) (port.SchemaExplorer, port.QueryExecutor, string, error) {
	cfg := a.cfg

	if duckdb.IsURL(cfg.DatabaseURL) {
		db, err := duckdb.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, "", fmt.Errorf("opening duckdb: %w", err)
		}
		a.closers = append(a.closers, func(context.Context) error { return db.Close() })
		a.logger.Info("database opened", slog.String("db.system", "duckdb"))
		return duckdb.NewExplorer(db, cfg.Schemas), duckdb.NewExecutor(db, cfg.QueryTimeout), "DuckDB", nil
	}

	if sqlite.IsURL(cfg.DatabaseURL) {
		db, err := sqlite.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, "", fmt.Errorf("opening sqlite: %w", err)
		}
		a.closers = append(a.closers, func(context.Context) error { return db.Close() })
		a.logger.Info("database opened", slog.String("db.system", "sqlite"))
		return sqlite.NewExplorer(db, cfg.Schemas), sqlite.NewExecutor(db, cfg.QueryTimeout), "SQLite", nil
	}

	pool, err := postgres.NewPool(ctx, postgres.PoolConfig{
		DatabaseURL:     cfg.DatabaseURL,
		MaxConns:        cfg.PoolMaxConns,
		MinConns:        cfg.PoolMinConns,
		MaxConnLifetime: cfg.PoolMaxConnLifetime,
	})
	if err != nil {
		return nil, nil, "", fmt.Errorf("connecting to database: %w", err)
	}
	a.closers = append(a.closers, func(context.Context) error { pool.Close(); return nil })
	a.logger.Info("database pool connected",
		slog.String("db.system", "postgresql"),
		slog.Int("pool_max_conns", int(cfg.PoolMaxConns)),
	)
	return postgres.NewExplorer(pool, cfg.Schemas), postgres.NewExecutor(pool, cfg.QueryTimeout), "PostgreSQL", nil
}

func (a *app) openHistory() (port.HistoryRecorder, error) {
	a.memory = history.NewMemory(history.DefaultMemorySize)
	recorders := history.Tee{a.memory}

	if a.cfg.HistoryFile != "" {
		file, err := history.NewFileRecorder(a.cfg.HistoryFile)
		if err != nil {
			return nil, fmt.Errorf("opening history file: %w", err)
		}
		recorders = append(recorders, file)
		a.logger.Info("query history enabled", slog.String("file", a.cfg.HistoryFile))
	}
	a.closers = append(a.closers, func(context.Context) error { return recorders.Close() })
	return recorders, nil
}

// newTranslator returns nil when no API key is configured in the
// environment or the OS keyring.
func (a *app) newTranslator(ctx context.Context, dialect string) (*llm.Translator, error) {
	lc := a.cfg.LLM

	key := lc.APIKey
	if key == "" {
		key = keyringAPIKey(a.logger)
	}
	if key == "" {
		a.logger.Info("no LLM API key configured; natural-language questions disabled")
		return nil, nil
	}

	prompt, err := llm.LoadSystemPrompt(lc.SystemPromptFile)
	if err != nil {
		return nil, fmt.Errorf("loading system prompt: %w", err)
	}
	tr, err := llm.NewTranslator(ctx, llm.Config{
		BaseURL:      lc.BaseURL,
		APIKey:       key,
		Model:        lc.Model,
		Temperature:  lc.Temperature,
		Timeout:      lc.Timeout,
		SystemPrompt: prompt,
		Dialect:      dialect,
	})
	if err != nil {
		return nil, fmt.Errorf("creating LLM client: %w", err)
	}
	a.logger.Info("llm configured", slog.String("gen_ai.request.model", lc.Model), slog.String("base_url", lc.BaseURL))
	return tr, nil
}

func keyringAPIKey(logger *slog.Logger) string {
	store, err := secrets.Open()
	if err != nil {
		logger.Debug("keyring unavailable", slog.String("error", err.Error()))
		return ""
	}
	key, err := store.LLMAPIKey()
	if err != nil {
		logger.Warn("reading API key from keyring", slog.String("error", err.Error()))
		return ""
	}
	return key
}

// close releases resources in reverse order of acquisition.
func (a *app) close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
