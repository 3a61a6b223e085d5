package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/tally/internal/codec"
	"github.com/rpggio/tally/internal/config"
	"github.com/rpggio/tally/internal/domain/activity"
	"github.com/rpggio/tally/internal/domain/session"
	"github.com/rpggio/tally/internal/filestore"
	"github.com/rpggio/tally/internal/mcp"
	"github.com/rpggio/tally/internal/sqlite"
	"github.com/rpggio/tally/internal/transport"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	opts, err := parseFlags(args, os.Stderr)
	if err != nil {
		return err
	}
	if opts.help {
		printHelp(os.Stderr, opts.flags)
		return nil
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	opts.apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	// Use stderr for logs in stdio mode to keep stdout clean for JSON-RPC.
	logWriter := io.Writer(os.Stdout)
	if cfg.Transport.Mode == config.ModeStdio {
		logWriter = os.Stderr
	}
	if cfg.Log.Path != "" {
		logFile, err := openCappedLog(cfg.Log.Path, defaultLogMaxBytes, defaultLogKeepBytes)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		} else {
			defer logFile.Close()
			logWriter = logFile
		}
	}
	logger := slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	deps, closeDeps, err := openStore(cfg.Store, logger)
	if err != nil {
		return err
	}
	defer closeDeps()

	// Stdio serves one client for the life of the process; HTTP clients come and go.
	var registryOpts []session.RegistryOption
	if cfg.Transport.Mode == config.ModeHTTP {
		registryOpts = append(registryOpts, session.WithIdleTimeout(cfg.Server.SessionTimeout))
	}
	registry := session.NewRegistry(session.Config{
		Store:    deps.store,
		Activity: deps.activityLogger(),
		Logger:   logger,
	}, registryOpts...)
	mcpServer := mcp.NewServer(mcp.Config{
		Sessions: registry,
		Activity: deps.activityService(),
		Logger:   logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Transport.Mode == config.ModeStdio {
		return runStdioMode(ctx, logger, mcpServer)
	}

	var auth func(http.Handler) http.Handler
	if cfg.Auth.Enabled {
		auth = transport.AuthMiddleware(transport.NewStaticToken(cfg.Auth.Token))
	}
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(r *http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{
			Stateless:      false,
			SessionTimeout: cfg.Server.SessionTimeout,
		},
	)
	router := transport.NewServer(mcp.NewHandler(registry, deps.activityService()), transport.Options{
		Auth:   auth,
		MCP:    mcpHandler,
		Logger: logger,
	})
	return runHTTPMode(ctx, logger, router, cfg.Server)
}

type storeDeps struct {
	store    session.Store
	activity *activity.Service
}

// The nil checks keep a nil *activity.Service out of the interfaces.
func (d storeDeps) activityLogger() session.ActivityLogger {
	if d.activity == nil {
		return nil
	}
	return d.activity
}

func (d storeDeps) activityService() mcp.ActivityService {
	if d.activity == nil {
		return nil
	}
	return d.activity
}

func openStore(cfg config.StoreConfig, logger *slog.Logger) (storeDeps, func(), error) {
	c, err := codec.ForFormat(cfg.Format)
	if err != nil {
		return storeDeps{}, nil, err
	}
	if err := ensureDir(cfg.Path); err != nil {
		return storeDeps{}, nil, fmt.Errorf("prepare store path: %w", err)
	}

	if cfg.Driver == config.DriverFile {
		logger.Info("using file store", "path", cfg.Path, "format", c.Name())
		return storeDeps{store: filestore.New(cfg.Path, c, logger)}, func() {}, nil
	}

	db, err := sqlite.New(cfg.Path)
	if err != nil {
		return storeDeps{}, nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.RunMigrations(); err != nil {
		db.Close()
		return storeDeps{}, nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("using sqlite store", "path", cfg.Path, "format", c.Name())
	return storeDeps{
		store:    sqlite.NewProjectStore(db, c, logger),
		activity: activity.NewService(sqlite.NewActivityRepository(db), logger),
	}, func() { db.Close() }, nil
}

func runStdioMode(ctx context.Context, logger *slog.Logger, mcpServer *sdkmcp.Server) error {
	logger.Info("starting stdio transport")

	// Run blocks until stdin closes or context is canceled
	if err := mcpServer.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio server: %w", err)
	}
	logger.Info("shutting down")
	return nil
}

func runHTTPMode(ctx context.Context, logger *slog.Logger, router http.Handler, cfg config.ServerConfig) error {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func ensureDir(path string) error {
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
