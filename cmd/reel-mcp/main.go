package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mmcdole/reel/internal/catalog"
	"github.com/mmcdole/reel/internal/config"
	"github.com/mmcdole/reel/internal/domain"
	"github.com/mmcdole/reel/internal/logging"
	"github.com/mmcdole/reel/internal/mcpsrv"
	"github.com/mmcdole/reel/internal/session"
	"github.com/mmcdole/reel/internal/store"
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	var configFile string
	flag.StringVar(&configFile, "config", "", "path to a config file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, configFile); err != nil {
		fmt.Fprintf(os.Stderr, "reel-mcp: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configFile string) error {
	var (
		cfg *config.Config
		err error
	)
	if configFile != "" {
		cfg, err = config.LoadConfigFile(configFile)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// stdout carries the protocol, so logs only go to the configured file
	logger, err := logging.SetupLogger(&cfg.Logging)
	if err != nil {
		logger = logging.NullLogger()
	}
	slog.SetDefault(logger)

	catalog.Version = Version

	creds, err := store.NewSessionStore(cfg.Session.StorePath, cfg.Server.URL)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	defer creds.Close()

	gate := session.NewGate(creds, logger)
	if err := gate.Check(); err != nil {
		return fmt.Errorf("%w; run `reel` to log in first", err)
	}

	client := catalog.NewClient(cfg.Server.URL, gate, catalog.Options{
		Timeout:           cfg.Server.Timeout,
		RequestsPerSecond: cfg.Server.RequestsPerSecond,
		Burst:             cfg.Server.Burst,
	}, logger)
	remote := catalog.NewBreakerClient(client, catalog.DefaultBreakerSettings(), logger)

	tab, err := domain.ParseCategory(cfg.UI.DefaultTab)
	if err != nil {
		tab = domain.CategoryAll
	}
	sess := session.New(remote, gate, session.Options{
		PageSize:       cfg.Catalog.PageSize,
		BulkPageSize:   cfg.Catalog.BulkPageSize,
		MinQueryLength: cfg.Search.MinLength,
		WindowRange:    cfg.Pagination.WindowRange,
		DefaultTab:     tab,
	}, logger)
	defer sess.Close()

	if err := sess.Mount(ctx); err != nil {
		if errors.Is(err, domain.ErrAuth) {
			return fmt.Errorf("%w; run `reel` to log in first", err)
		}
		// the first page failing is reported through catalog_view notices
		logger.Warn("initial load failed", "error", err)
	}

	logger.Info("starting mcp server", "version", Version, "server", cfg.Server.URL)
	server := mcpsrv.NewServer(sess, Version, logger)
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("stdio mcp server failed: %w", err)
	}
	return nil
}
