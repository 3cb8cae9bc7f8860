package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/arcanaland/builderbot/internal/build"
	"github.com/arcanaland/builderbot/internal/cache"
	"github.com/arcanaland/builderbot/internal/config"
	"github.com/arcanaland/builderbot/internal/lease"
	"github.com/arcanaland/builderbot/internal/store"
)

var (
	configPath string
	envOnly    bool
	verbose    bool

	cfg    *config.Config
	logger *slog.Logger
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "builderbot",
	Short: "Build printable card sheets from a shared asset store",
	Long: `Builderbot mirrors card data, art and template graphics from a shared store,
renders every card and uploads a JPEG, a single-card PDF and a duplicates PDF
per card. A build only runs when the sources changed since the last one.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		switch {
		case envOnly:
			cfg, err = config.FromEnv()
		case configPath != "":
			cfg, err = config.LoadFile(configPath)
		default:
			cfg, err = config.LoadConfig()
		}
		if err != nil {
			return err
		}
		logger = newLogger(cfg.Debug || verbose)
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default is $XDG_CONFIG_HOME/builderbot/config.toml)")
	RootCmd.PersistentFlags().BoolVar(&envOnly, "env-only", false, "Read settings from BUILDERBOT_* variables only, ignoring config files")
	RootCmd.MarkFlagsMutuallyExclusive("config", "env-only")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	RootCmd.AddCommand(validateCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return RootCmd.Execute()
}

// newLogger logs text to a terminal and JSON everywhere else
func newLogger(debug bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if debug {
		opts.Level = slog.LevelDebug
	}
	if term.IsTerminal(int(os.Stderr.Fd())) {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}

// openStore returns the configured store
func openStore() store.RevisionedStore {
	return store.NewDir(cfg.StoreRoot)
}

// openCache loads the local mirror of every namespace
func openCache(ctx context.Context, s store.RevisionedStore) (*cache.Cache, error) {
	c := cache.New(cfg.CacheDir, s, logger)
	if err := c.Load(ctx); err != nil {
		return nil, fmt.Errorf("loading cache: %w", err)
	}
	return c, nil
}

// saveCache persists the cache manifests. A failure only costs redownloads
// next run, so it is logged.
func saveCache(c *cache.Cache) {
	if err := c.Save(); err != nil {
		logger.Error("saving cache manifests", slog.Any("error", err))
	}
}

// newBuilder wires a Builder, guarded by Redis when a URL is configured.
// The returned func closes the Redis connection.
func newBuilder(ctx context.Context) (*build.Builder, func(), error) {
	s := openStore()
	if cfg.RedisURL == "" {
		return build.NewBuilder(cfg, s, logger), func() {}, nil
	}

	client, err := lease.Dial(ctx, cfg.RedisURL, logger)
	if err != nil {
		return nil, nil, err
	}
	b := build.NewBuilder(cfg, s, logger, build.WithLocker(lease.NewRedis(client, logger)))
	return b, func() { client.Close() }, nil
}
