package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/mmcdole/reel/internal/catalog"
	"github.com/mmcdole/reel/internal/config"
	"github.com/mmcdole/reel/internal/domain"
	"github.com/mmcdole/reel/internal/logging"
	"github.com/mmcdole/reel/internal/session"
	"github.com/mmcdole/reel/internal/store"
	"github.com/mmcdole/reel/internal/tui"
)

// Version is set at build time via -ldflags
var Version = "dev"

const maxLoginAttempts = 3

func main() {
	var (
		showVersion bool
		logout      bool
		signup      bool
		configFile  string
	)
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.BoolVar(&logout, "logout", false, "clear the stored session and exit")
	flag.BoolVar(&signup, "signup", false, "create an account before logging in")
	flag.StringVar(&configFile, "config", "", "path to a config file")
	flag.Parse()

	if showVersion {
		fmt.Printf("reel %s\n", Version)
		return
	}

	if err := run(configFile, logout, signup); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configFile string, logout, signup bool) error {
	// Load configuration
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

	// Setup logger
	logger, err := logging.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = logging.NullLogger()
	}
	slog.SetDefault(logger)

	catalog.Version = Version
	logger.Info("starting reel", "version", Version, "server", cfg.Server.URL)

	creds, err := store.NewSessionStore(cfg.Session.StorePath, cfg.Server.URL)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	defer creds.Close()

	gate := session.NewGate(creds, logger)

	if logout {
		if err := gate.Logout(); err != nil {
			return err
		}
		fmt.Println("Logged out.")
		return nil
	}

	client := catalog.NewClient(cfg.Server.URL, gate, catalog.Options{
		Timeout:           cfg.Server.Timeout,
		RequestsPerSecond: cfg.Server.RequestsPerSecond,
		Burst:             cfg.Server.Burst,
	}, logger)
	remote := catalog.NewBreakerClient(client, catalog.DefaultBreakerSettings(), logger)
	login := catalog.NewLoginFlow(client, logger)

	for {
		if err := gate.Check(); err != nil {
			logger.Info("no usable session, starting login", "reason", err)
			if err := signIn(gate, login, signup, logger); err != nil {
				return err
			}
			signup = false
			saveFirstRunConfig(cfg, logger)
		}

		sess := session.New(remote, gate, sessionOptions(cfg), logger)

		logger.Info("starting TUI")
		result, err := tui.Run(sess, logger)
		sess.Close()
		if err != nil {
			logger.Error("TUI error", "error", err)
			return fmt.Errorf("TUI error: %w", err)
		}

		switch {
		case result.LoggedOut:
			fmt.Println("Logged out.")
			logger.Info("user logged out")
			return nil
		case result.AuthRequired:
			fmt.Println("Your session has expired. Please log in again.")
			continue
		}

		logger.Info("shutting down")
		return nil
	}
}

// signIn runs the terminal login flow until it succeeds or attempts run out
func signIn(gate *session.Gate, login *catalog.LoginFlow, signup bool, logger *slog.Logger) error {
	var lastErr error
	for attempt := 1; attempt <= maxLoginAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		cred, err := login.Run(ctx, signup)
		cancel()

		if err == nil {
			if err := gate.SignIn(cred); err != nil {
				return fmt.Errorf("failed to save session: %w", err)
			}
			logger.Info("signed in", "username", cred.Username)
			return nil
		}

		lastErr = err
		switch {
		case errors.Is(err, domain.ErrServerOffline):
			return fmt.Errorf("cannot reach the catalog server: %w", err)
		case errors.Is(err, domain.ErrValidation):
			fmt.Printf("✗ %v\n", err)
		default:
			msg := domain.RemoteDetail(err)
			if msg == "" {
				msg = err.Error()
			}
			fmt.Printf("✗ %s\n", msg)
		}
	}
	return fmt.Errorf("authentication failed: %w", lastErr)
}

// saveFirstRunConfig writes the settings in use when no config file was loaded,
// so the server URL survives the next run
func saveFirstRunConfig(cfg *config.Config, logger *slog.Logger) {
	if cfg.File != "" {
		return
	}
	path, err := config.SaveConfig(cfg)
	if err != nil {
		logger.Warn("failed to save config", "error", err)
		return
	}
	cfg.File = path
	fmt.Printf("✓ Configuration saved to %s\n", path)
}

func sessionOptions(cfg *config.Config) session.Options {
	tab, err := domain.ParseCategory(cfg.UI.DefaultTab)
	if err != nil {
		tab = domain.CategoryAll
	}
	return session.Options{
		PageSize:       cfg.Catalog.PageSize,
		BulkPageSize:   cfg.Catalog.BulkPageSize,
		Debounce:       cfg.Search.Debounce,
		MinQueryLength: cfg.Search.MinLength,
		WindowRange:    cfg.Pagination.WindowRange,
		DefaultTab:     tab,
	}
}
