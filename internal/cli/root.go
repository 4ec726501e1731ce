// Package cli implements the captionsort commands.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cognicore/captionsort/pkg/captionsort/config"
	"github.com/cognicore/captionsort/pkg/captionsort/store"
	"github.com/cognicore/captionsort/pkg/captionsort/store/sqlite"
)

// app holds the state shared by every command of one invocation.
type app struct {
	configPath string
	verbose    bool
	logger     *zap.Logger
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "captionsort",
		Short: "Sort and clean comma-separated caption tags",
		Long: `captionsort rewrites the caption files of an image dataset so that tags are
grouped by category, ordered by group priority and, inside a group, by token
length. Banned, empty and rare tags are removed on the way.

Tags that match no group and are frequent enough to keep stop the run: add
them to a group file or to the banned list first.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := zap.NewProductionConfig()
			if a.verbose {
				cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			logger, err := cfg.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "YAML run configuration")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Debug logging")

	root.AddCommand(
		newRunCmd(a),
		newStatsCmd(a),
		newValidateCmd(a),
		newHistoryCmd(a),
	)
	return root
}

// Execute runs the command tree against os.Args.
func Execute() {
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// addSettingsFlags registers the flags that override RunConfig fields.
func addSettingsFlags(cmd *cobra.Command) {
	d := config.Default()
	f := cmd.Flags()
	f.StringP("groups", "g", d.GroupsDir, "Directory of group definition files")
	f.StringP("banned", "b", d.BannedFile, "Banned tag file")
	f.IntP("keep-first-n", "k", d.KeepFirstN, "Keep the first N tags of each caption in place")
	f.Int64P("threshold", "t", d.Threshold, "Drop tags occurring fewer times across the dataset")
	f.IntP("workers", "w", d.Workers, "Sorting workers (0 = one per CPU)")
	f.String("tokenizer", d.Tokenizer, "Tokenizer encoding used to measure tags")
	f.Bool("decode-entities", d.DecodeEntities, "Decode HTML entities such as &amp; in tags")
	f.String("report-db", d.ReportDB, "SQLite file recording run reports")
}

// settings loads the run configuration and applies the flags the user set.
func (a *app) settings(cmd *cobra.Command) (config.RunConfig, error) {
	cfg := config.Default()
	if a.configPath != "" {
		loaded, err := config.LoadRunConfig(a.configPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	f := cmd.Flags()
	if f.Changed("groups") {
		cfg.GroupsDir, _ = f.GetString("groups")
	}
	if f.Changed("banned") {
		cfg.BannedFile, _ = f.GetString("banned")
	}
	if f.Changed("keep-first-n") {
		cfg.KeepFirstN, _ = f.GetInt("keep-first-n")
	}
	if f.Changed("threshold") {
		cfg.Threshold, _ = f.GetInt64("threshold")
	}
	if f.Changed("workers") {
		cfg.Workers, _ = f.GetInt("workers")
	}
	if f.Changed("tokenizer") {
		cfg.Tokenizer, _ = f.GetString("tokenizer")
	}
	if f.Changed("decode-entities") {
		cfg.DecodeEntities, _ = f.GetBool("decode-entities")
	}
	if f.Changed("report-db") {
		cfg.ReportDB, _ = f.GetString("report-db")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	a.logger.Debug("settings resolved",
		zap.String("groups_dir", cfg.GroupsDir),
		zap.String("banned_file", cfg.BannedFile),
		zap.Int("keep_first_n", cfg.KeepFirstN),
		zap.Int64("threshold", cfg.Threshold),
		zap.String("tokenizer", cfg.Tokenizer))
	return cfg, nil
}

// components loads the groups and banned tags named by cfg.
func (a *app) components(cfg config.RunConfig) (*config.Components, error) {
	loader := &config.Loader{
		GroupsDir:  cfg.GroupsDir,
		BannedPath: cfg.BannedFile,
		GroupOrder: cfg.GroupOrder,
		Logger:     a.logger,
	}
	return loader.Load()
}

// openStore opens the report database, or returns nil when none is configured.
func (a *app) openStore(ctx context.Context, cfg config.RunConfig) (store.Store, error) {
	if cfg.ReportDB == "" {
		return nil, nil
	}
	st, err := sqlite.OpenSQLite(ctx, cfg.ReportDB)
	if err != nil {
		return nil, fmt.Errorf("open report db: %w", err)
	}
	return st, nil
}
