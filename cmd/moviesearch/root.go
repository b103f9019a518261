package main

import (
	"context"
	"fmt"
	"io"

	"github.com/Sternrassler/movie-search/internal/config"
	"github.com/Sternrassler/movie-search/internal/state"
	"github.com/Sternrassler/movie-search/pkg/client"
	"github.com/Sternrassler/movie-search/pkg/logging"
	"github.com/Sternrassler/movie-search/pkg/metrics"
	"github.com/Sternrassler/movie-search/pkg/pagination"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	logLevel  string
	ephemeral bool
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "moviesearch",
		Short: "Search the movie catalog from the terminal",
		Long: `moviesearch searches a remote movie catalog by title and shows the
results as an infinitely scrolling list of cards.

Run without a subcommand to start the interactive UI.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, opts)
		},
	}

	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error); overrides LOG_LEVEL")
	root.PersistentFlags().BoolVar(&opts.ephemeral, "ephemeral", false, "keep view state in memory only")

	root.AddCommand(
		newTUICmd(opts),
		newSearchCmd(opts),
		newStateCmd(opts),
		newVersionCmd(),
	)

	return root
}

// loadConfig reads the environment and applies flag overrides.
func loadConfig(opts *globalOptions) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if opts.ephemeral {
		cfg.StateBackend = config.BackendMemory
	}
	return cfg, nil
}

// setupLogging points the global logger at out.
func setupLogging(cfg *config.Config, out io.Writer) zerolog.Logger {
	logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.LogLevel),
		Pretty: cfg.LogPretty,
		Output: out,
	})
	return logging.NewLogger("cli")
}

// openBackend opens the configured view state backend.
func openBackend(ctx context.Context, cfg *config.Config) (state.Backend, error) {
	switch cfg.StateBackend {
	case config.BackendMemory:
		return state.NewMemoryBackend(state.Snapshot{}), nil
	case config.BackendRedis:
		return state.DialRedisBackend(ctx, cfg.RedisURL)
	default:
		dir, err := cfg.StateDirectory()
		if err != nil {
			return nil, err
		}
		return state.NewFileBackend(dir)
	}
}

// openStore opens the view state store on the configured backend.
func openStore(ctx context.Context, cfg *config.Config) (*state.Store, error) {
	backend, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s state backend: %w", cfg.StateBackend, err)
	}
	store, err := state.Open(ctx, backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	return store, nil
}

// app holds the components a search session needs.
type app struct {
	cfg    *config.Config
	client *client.Client
	store  *state.Store
	coord  *pagination.Coordinator
	logger zerolog.Logger
}

// newApp wires the catalog client, view state store and coordinator, and
// starts the metrics server when METRICS_ADDR is set.
func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*app, error) {
	if err := cfg.RequireAPIKey(); err != nil {
		return nil, err
	}

	c, err := client.New(client.Config{
		BaseURL:   cfg.CatalogBaseURL,
		APIKey:    cfg.APIKey,
		Language:  cfg.Language,
		UserAgent: "moviesearch/" + version,
	})
	if err != nil {
		return nil, fmt.Errorf("create catalog client: %w", err)
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		c.Close()
		return nil, err
	}

	if cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsAddr); err != nil {
				logger.Error().Err(err).Msg("Metrics server failed")
			}
		}()
	}

	return &app{
		cfg:    cfg,
		client: c,
		store:  store,
		coord:  pagination.NewCoordinator(c),
		logger: logger,
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to close state backend")
	}
	a.client.Close()
}
