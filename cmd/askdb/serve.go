package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/guillermoBallester/askdb/internal/adapter/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(flags *flagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the database to agents over MCP (stdio or http)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, overridesFrom(cmd.Flags(), flags), slog.LevelDebug)
			if err != nil {
				return err
			}
			defer func() {
				closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := a.close(closeCtx); err != nil {
					a.logger.Error("shutdown", slog.String("error", err.Error()))
				}
			}()

			srv := mcp.NewServer(version, mcp.Services{
				Explorer: a.explorer,
				Query:    a.query,
				Ask:      a.ask,
			}, a.logger, a.tracer, a.inst)

			if a.cfg.Transport == "http" {
				return serveHTTP(ctx, srv, a.cfg.HTTPAddr, a.cfg.HTTPBearerToken, a.logger)
			}

			a.logger.Info("serving MCP over stdio")
			if err := mcpserver.NewStdioServer(srv).Listen(ctx, os.Stdin, os.Stdout); err != nil {
				return fmt.Errorf("stdio server: %w", err)
			}
			a.logger.Info("shutdown complete")
			return nil
		},
	}
}

func serveHTTP(ctx context.Context, srv *mcpserver.MCPServer, addr, token string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/mcp", bearerAuthMiddleware(mcpserver.NewStreamableHTTPServer(srv), token))
	mux.HandleFunc("/health", healthHandler)

	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           recoveryMiddleware(mux, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving MCP over http", slog.String("server.address", addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	logger.Info("shutdown complete")
	return nil
}
