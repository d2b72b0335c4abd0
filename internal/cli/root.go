// Package cli implements the flatblog command line: the HTTP server plus
// offline post management against the same posts file.
package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/yourusername/flatblog/internal/config"
	"github.com/yourusername/flatblog/internal/logging"
	"github.com/yourusername/flatblog/internal/post"
	"github.com/yourusername/flatblog/internal/storage"
)

// version is overridden at build time with -ldflags "-X ...cli.version=...".
var version = "dev"

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	verbose    bool
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// NewRootCmd builds the full command tree. Running the root command with no
// subcommand starts the server.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:           "flatblog",
		Short:         "A minimal blog backed by a flat JSON file",
		Long:          `flatblog serves a small blog whose posts live in a single JSON file, and manages those posts from the command line.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "config.yaml", "Path to configuration file (YAML or TOML)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(newServeCmd(opts))
	rootCmd.AddCommand(newPostsCmd(opts))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("flatblog version %s\n", version)
		},
	}
}

// setup loads configuration and builds the logger.
func setup(cmd *cobra.Command, opts *globalOptions) (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadOrDefault(opts.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format, opts.verbose)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return cfg, logger, nil
}

// openStore opens the post store described by cfg.
func openStore(cfg *config.Config, logger *slog.Logger, observer post.Observer) (*post.Store, error) {
	store, err := post.Open(
		storage.NewJSONStore(cfg.Storage.PostsFile),
		cfg.Storage.ExportDir,
		post.WithLogger(logger),
		post.WithObserver(observer),
	)
	if err != nil {
		return nil, err
	}
	return store, nil
}
