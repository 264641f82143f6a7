package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/rpggio/socialxp/internal/command"
	"github.com/rpggio/socialxp/internal/config"
	"github.com/rpggio/socialxp/internal/domain/event"
	"github.com/rpggio/socialxp/internal/domain/ledger"
	"github.com/rpggio/socialxp/internal/mcp"
	"github.com/rpggio/socialxp/internal/sqlite"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// app holds the wired services shared by every subcommand.
type app struct {
	cfg    config.Config
	logger *slog.Logger
	closer []io.Closer

	db     *sqlite.DB
	keys   *sqlite.APIKeyResolver
	ledger *ledger.Service
	events *event.Service
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "socialxp",
		Short:         "Multi-tenant reward ledger server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.open(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			a.close()
		},
	}

	serve := newServeCmd(a)
	root.RunE = serve.RunE
	addServeFlags(root.Flags())

	root.AddCommand(
		serve,
		newAuditCmd(a),
		newFeesCmd(a),
		newKeysCmd(a),
	)

	return root
}

// open loads configuration, applies flag overrides and wires the services.
func (a *app) open(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if err := applyServeFlags(cmd.Flags(), &cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	a.cfg = cfg

	// Use stderr for logs in stdio mode to keep stdout clean for JSON-RPC.
	logWriter := io.Writer(os.Stdout)
	if cfg.Transport.Mode == "stdio" || !isServeCmd(cmd) {
		logWriter = os.Stderr
	}
	if logPath := os.Getenv("SOCIALXP_LOG_PATH"); logPath != "" {
		fileWriter, file, err := newLogFileWriter(logPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		} else {
			a.closer = append(a.closer, file)
			logWriter = fileWriter
		}
	}
	a.logger = slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	if err := ensureDBDir(cfg.DB.Path); err != nil {
		return fmt.Errorf("failed to prepare database path: %w", err)
	}

	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	a.db = db
	a.closer = append(a.closer, db)

	if err := db.RunMigrations(); err != nil {
		return err
	}

	ledgerCfg, err := cfg.LedgerConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	a.keys = sqlite.NewAPIKeyResolver(db)
	a.events = event.NewService(sqlite.NewEventRepository(db), a.logger)
	a.ledger, err = ledger.NewService(
		sqlite.NewStore(db),
		ledger.NewStaticPrice(cfg.Ledger.UnitPrice),
		ledgerCfg,
		a.logger,
		ledger.WithPublisher(a.events),
	)
	if err != nil {
		return fmt.Errorf("failed to create ledger: %w", err)
	}
	return nil
}

func isServeCmd(cmd *cobra.Command) bool {
	return cmd.Name() == "serve" || !cmd.HasParent()
}

func (a *app) close() {
	for i := len(a.closer) - 1; i >= 0; i-- {
		_ = a.closer[i].Close()
	}
	a.closer = nil
}

// services bundles the dependencies of the MCP and JSON-RPC surfaces.
func (a *app) services() mcp.Services {
	return mcp.Services{
		Ledger:   a.ledger,
		Events:   a.events,
		Commands: command.NewDispatcher(a.ledger, a.logger),
	}
}

// ownerCall is the identity of administrative subcommands.
func (a *app) ownerCall(requestID string) (ledger.Call, error) {
	owner, err := ledger.ParseAddress(a.cfg.Ledger.Owner)
	if err != nil {
		return ledger.Call{}, err
	}
	return ledger.Call{Caller: owner, RequestID: requestID}, nil
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
