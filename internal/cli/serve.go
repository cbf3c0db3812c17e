package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/speak2fill/speak2fill/internal/api"
	"github.com/speak2fill/speak2fill/internal/catalog"
	"github.com/speak2fill/speak2fill/internal/config"
	"github.com/speak2fill/speak2fill/internal/speech"
	"github.com/speak2fill/speak2fill/internal/store"
	"github.com/speak2fill/speak2fill/internal/turn"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr     string
	Database string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long: `Run the HTTP API server.

Configuration is read from the config file and SPEAK2FILL_* environment
variables. The --addr and --db flags override the configured values.

Speech and field-inference endpoints activate only when the corresponding
API keys are configured; without them the turn state machine still works
with literal transcribed text.

Examples:
  speak2fill serve
  speak2fill serve --addr :9000 --db ./sessions.db`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (overrides config)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (overrides config)")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load configuration", err)
	}
	if opts.Addr != "" {
		cfg.Server.Addr = opts.Addr
	}
	if opts.Database != "" {
		cfg.Database.Path = opts.Database
	}

	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if dir := dirOf(cfg.Database.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return WrapExitError(ExitCommandError, "failed to create database directory", err)
		}
	}

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	var speechClient speech.Client
	if key := config.ResolveAPIKey(cfg.Sarvam.APIKey, cfg.Sarvam.APIKeyEnv); key != "" {
		speechClient = speech.NewSarvamClient(cfg.Sarvam.BaseURL, key,
			speech.WithTimeout(cfg.Sarvam.Timeout))
		logger.Info("speech service enabled", "base_url", cfg.Sarvam.BaseURL)
	} else {
		logger.Info("speech service disabled: no API key configured")
	}

	var builder catalog.Builder
	if key := config.ResolveAPIKey(cfg.Gemini.APIKey, cfg.Gemini.APIKeyEnv); key != "" {
		builder = catalog.NewGeminiBuilder(cfg.Gemini.BaseURL, key,
			catalog.WithModel(cfg.Gemini.Model),
			catalog.WithTimeout(cfg.Gemini.Timeout))
		logger.Info("field inference enabled", "model", cfg.Gemini.Model)
	} else {
		logger.Info("field inference disabled: no API key configured")
	}

	svc := newTurnService(st, cfg, speechClient, logger)

	handler := &api.Handler{
		Store:   st,
		Service: svc,
		Speech:  speechClient,
		Catalog: builder,
		Logger:  logger,
	}

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      api.NewRouter(handler),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	if builder != nil && cfg.Gemini.Warmup {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.Gemini.Timeout)
			defer cancel()
			if err := builder.Warmup(ctx); err != nil {
				logger.Warn("field inference warmup failed", "error", err)
			} else {
				logger.Debug("field inference warmed up")
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", cfg.Server.Addr, "db", cfg.Database.Path)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return WrapExitError(ExitCommandError, "server failed", err)
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
	}

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return WrapExitError(ExitCommandError, "shutdown failed", err)
	}

	return nil
}

// newTurnService assembles the turn service from configuration. The speech
// client, when present, serves both value extraction and localization.
func newTurnService(st *store.Store, cfg config.Config, sc speech.Client, logger *slog.Logger) *turn.Service {
	var procOpts []turn.ProcessorOption
	if sc != nil {
		procOpts = append(procOpts, turn.WithExtractor(sc))
	}
	if len(cfg.Language.ConfirmationKeywords) > 0 {
		procOpts = append(procOpts, turn.WithKeywords(turn.NewKeywords(cfg.Language.ConfirmationKeywords)))
	}

	var compOpts []turn.ComposerOption
	if sc != nil {
		compOpts = append(compOpts, turn.WithLocalizer(sc))
	}

	return turn.NewService(st,
		turn.WithProcessor(turn.NewProcessor(procOpts...)),
		turn.WithComposer(turn.NewComposer(compOpts...)),
		turn.WithDefaultLanguage(cfg.Language.Default),
		turn.WithLogger(logger),
	)
}

// dirOf returns the parent directory of path, or "" for bare filenames and
// the in-memory database.
func dirOf(path string) string {
	if path == "" || path == ":memory:" {
		return ""
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return ""
	}
	return dir
}
