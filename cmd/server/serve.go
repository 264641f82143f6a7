package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/socialxp/internal/config"
	"github.com/rpggio/socialxp/internal/domain/ledger"
	"github.com/rpggio/socialxp/internal/mcp"
	"github.com/rpggio/socialxp/internal/transport"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the ledger over MCP (stdio or HTTP) and JSON-RPC",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}
	addServeFlags(cmd.Flags())
	return cmd
}

func addServeFlags(flags *pflag.FlagSet) {
	flags.String("transport", "", `transport mode, "stdio" or "http" (overrides SOCIALXP_TRANSPORT_MODE)`)
	flags.Int("port", 0, "HTTP port (overrides SOCIALXP_SERVER_PORT)")
	flags.String("db", "", "database path (overrides SOCIALXP_DB_PATH)")
}

// applyServeFlags copies explicitly set flags over the loaded configuration.
// Subcommands without these flags leave cfg untouched.
func applyServeFlags(flags *pflag.FlagSet, cfg *config.Config) error {
	if f := flags.Lookup("transport"); f != nil && f.Changed {
		cfg.Transport.Mode = f.Value.String()
	}
	if f := flags.Lookup("port"); f != nil && f.Changed {
		port, err := flags.GetInt("port")
		if err != nil {
			return err
		}
		cfg.Server.Port = port
	}
	if f := flags.Lookup("db"); f != nil && f.Changed {
		cfg.DB.Path = f.Value.String()
	}
	return nil
}

func (a *app) serve(ctx context.Context) error {
	services := a.services()

	relay, err := ledger.ParseAddress(a.cfg.Ledger.Relay)
	if err != nil {
		return err
	}

	// Without auth every caller acts as the relay, the bot being the
	// primary client.
	mcpServer := mcp.NewServer(mcp.Config{
		Services:      services,
		Resolver:      a.keys,
		AuthEnabled:   a.cfg.Auth.Enabled,
		TransportMode: a.cfg.Transport.Mode,
		DefaultCaller: relay,
		Logger:        a.logger,
	})

	if a.cfg.Transport.Mode == "stdio" {
		return runStdioMode(ctx, a.logger, mcpServer)
	}

	identity := transport.StaticCaller(relay)
	if a.cfg.Auth.Enabled {
		identity = transport.AuthMiddleware(a.keys)
	}
	router := transport.NewServer(mcp.NewHandler(services), identity)
	router.With(identity).Get("/events", transport.EventStream(a.events))
	return runHTTPMode(a.logger, router, mcpServer, a.cfg.Server.Host, a.cfg.Server.Port)
}

func runStdioMode(ctx context.Context, logger *slog.Logger, mcpServer *sdkmcp.Server) error {
	logger.Info("starting stdio transport", "auth", "disabled")

	// Setup signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Run blocks until stdin closes or context is canceled
	if err := mcpServer.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		return fmt.Errorf("stdio server error: %w", err)
	}
	logger.Info("shutting down")
	return nil
}

func runHTTPMode(logger *slog.Logger, router *chi.Mux, mcpServer *sdkmcp.Server, host string, port int) error {
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(r *http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{
			Stateless:      false,
			SessionTimeout: 30 * time.Minute,
		},
	)
	router.Handle("/mcp", mcpHandler)
	router.Handle("/mcp/*", mcpHandler)

	addr := fmt.Sprintf("%s:%d", host, port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	return waitForShutdown(logger, httpServer, errCh)
}

func waitForShutdown(logger *slog.Logger, server *http.Server, errCh <-chan error) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-stop:
	case err, ok := <-errCh:
		if ok && err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	return nil
}
