package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mmahmad/whatsapp-cli-macos/internal/config"
	"github.com/mmahmad/whatsapp-cli-macos/internal/engine"
	"github.com/mmahmad/whatsapp-cli-macos/internal/store"
)

var (
	cfgFile string
	dbPath  string
	verbose bool
	cfg     *config.Config
	logger  *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "wasearch",
	Short: "Fuzzy search for your WhatsApp messages",
	Long: `wasearch searches the WhatsApp Desktop message database on macOS with
typo-tolerant fuzzy matching, fuzzy contact resolution, and paginated
results. The database is always opened read-only.

WhatsApp Desktop must be installed and signed in; wasearch reads its
local ChatStorage.sqlite directly.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		}))

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		return nil
	},
}

// Execute runs the root command with a background context.
// Prefer ExecuteContext for signal-aware execution.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with the given context,
// enabling graceful shutdown when the context is cancelled.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// databasePath returns the message database location: the --db flag, then
// the config override, then autodiscovery under the WhatsApp group
// containers.
func databasePath() (string, error) {
	if dbPath != "" {
		return dbPath, nil
	}
	if cfg.Data.ChatStorage != "" {
		return cfg.Data.ChatStorage, nil
	}
	return store.Discover()
}

// openEngine opens the store and wraps it in a search engine configured
// from the loaded config.
func openEngine() (*engine.Engine, func(), error) {
	path, err := databasePath()
	if err != nil {
		return nil, nil, err
	}
	s, err := store.Open(path)
	if err != nil {
		return nil, nil, err
	}
	eng, err := engine.New(s, engine.Options{
		CacheEntries: cfg.Cache.MaxEntries,
		PrefilterCap: cfg.Search.PrefilterCap,
		Logger:       logger,
	})
	if err != nil {
		s.Close()
		return nil, nil, err
	}
	return eng, func() { s.Close() }, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.wasearch/config.toml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to ChatStorage.sqlite (default: autodiscover)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
