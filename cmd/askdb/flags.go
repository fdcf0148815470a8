package main

import (
	"time"

	"github.com/guillermoBallester/askdb/internal/config"
	"github.com/spf13/pflag"
)

// flagValues receives the raw flag values; overridesFrom turns the ones the
// user actually set into config.Overrides.
type flagValues struct {
	databaseURL     string
	readOnly        bool
	logLevel        string
	maxRows         int
	queryTimeout    time.Duration
	schemas         []string
	policyFile      string
	classifier      string
	transport       string
	httpAddr        string
	httpBearerToken string
	historyFile     string
	otel            bool

	poolMaxConns        int32
	poolMinConns        int32
	poolMaxConnLifetime time.Duration

	llmBaseURL string
	llmModel   string
}

func registerFlags(fs *pflag.FlagSet, v *flagValues) {
	fs.StringVar(&v.databaseURL, "database-url", "", "database URL: postgres://…, duckdb://<file> or sqlite://<file> (env DATABASE_URL)")
	fs.BoolVar(&v.readOnly, "read-only", false, "refuse every statement that is not READ_ONLY (env READ_ONLY)")
	fs.StringVar(&v.logLevel, "log-level", "", "debug, info, warn or error (env LOG_LEVEL)")
	fs.IntVar(&v.maxRows, "max-rows", 0, "row limit added to read-only queries (env MAX_ROWS)")
	fs.DurationVar(&v.queryTimeout, "query-timeout", 0, "statement timeout (env QUERY_TIMEOUT)")
	fs.StringSliceVar(&v.schemas, "schemas", nil, "schemas to expose, comma separated (env SCHEMAS)")
	fs.StringVar(&v.policyFile, "policy-file", "", "policy YAML with descriptions and column masks (env POLICY_FILE)")
	fs.StringVar(&v.classifier, "classifier", "", "statement classifier: parser or keyword (env CLASSIFIER)")
	fs.StringVar(&v.transport, "transport", "", "MCP transport: stdio or http (env TRANSPORT)")
	fs.StringVar(&v.httpAddr, "http-addr", "", "listen address for the http transport (env HTTP_ADDR)")
	fs.StringVar(&v.httpBearerToken, "http-bearer-token", "", "bearer token required by the http transport (env HTTP_BEARER_TOKEN)")
	fs.StringVar(&v.historyFile, "history-file", "", "append query history as NDJSON to this file (env HISTORY_FILE)")
	fs.BoolVar(&v.otel, "otel", false, "export OpenTelemetry traces and metrics (env OTEL_ENABLED)")

	fs.Int32Var(&v.poolMaxConns, "pool-max-conns", 0, "maximum pool connections (env POOL_MAX_CONNS)")
	fs.Int32Var(&v.poolMinConns, "pool-min-conns", 0, "minimum pool connections (env POOL_MIN_CONNS)")
	fs.DurationVar(&v.poolMaxConnLifetime, "pool-max-conn-lifetime", 0, "maximum connection lifetime (env POOL_MAX_CONN_LIFETIME)")

	fs.StringVar(&v.llmBaseURL, "llm-base-url", "", "OpenAI-compatible API base URL (env LLM_BASE_URL)")
	fs.StringVar(&v.llmModel, "llm-model", "", "model name (env LLM_MODEL)")
}

func overridesFrom(fs *pflag.FlagSet, v *flagValues) config.Overrides {
	o := config.Overrides{OTelEnabled: v.otel}
	set := func(name string) bool { return fs.Changed(name) }

	if set("database-url") {
		o.DatabaseURL = &v.databaseURL
	}
	if set("read-only") {
		o.ReadOnly = &v.readOnly
	}
	if set("log-level") {
		o.LogLevel = &v.logLevel
	}
	if set("max-rows") {
		o.MaxRows = &v.maxRows
	}
	if set("query-timeout") {
		o.QueryTimeout = &v.queryTimeout
	}
	if set("schemas") {
		o.Schemas = v.schemas
	}
	if set("policy-file") {
		o.PolicyFile = &v.policyFile
	}
	if set("classifier") {
		o.Classifier = &v.classifier
	}
	if set("transport") {
		o.Transport = &v.transport
	}
	if set("http-addr") {
		o.HTTPAddr = &v.httpAddr
	}
	if set("http-bearer-token") {
		o.HTTPBearerToken = &v.httpBearerToken
	}
	if set("history-file") {
		o.HistoryFile = &v.historyFile
	}
	if set("pool-max-conns") {
		o.PoolMaxConns = &v.poolMaxConns
	}
	if set("pool-min-conns") {
		o.PoolMinConns = &v.poolMinConns
	}
	if set("pool-max-conn-lifetime") {
		o.PoolMaxConnLifetime = &v.poolMaxConnLifetime
	}
	if set("llm-base-url") {
		o.LLMBaseURL = &v.llmBaseURL
	}
	if set("llm-model") {
		o.LLMModel = &v.llmModel
	}
	return o
}

// parseFlags parses args on a standalone flag set and returns the overrides.
func parseFlags(args []string) (config.Overrides, error) {
	fs := pflag.NewFlagSet("askdb", pflag.ContinueOnError)
	var v flagValues
	registerFlags(fs, &v)
	if err := fs.Parse(args); err != nil {
		return config.Overrides{}, err
	}
	return overridesFrom(fs, &v), nil
}
