package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cognicore/captionsort/internal/dataset"
	"github.com/cognicore/captionsort/internal/report"
	"github.com/cognicore/captionsort/pkg/captionsort"
	"github.com/cognicore/captionsort/pkg/captionsort/caption"
	"github.com/cognicore/captionsort/pkg/captionsort/config"
	"github.com/cognicore/captionsort/pkg/captionsort/internalerr"
	"github.com/cognicore/captionsort/pkg/captionsort/store"
	"github.com/cognicore/captionsort/pkg/captionsort/tokenize"
)

func newRunCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <dataset-dir>",
		Short: "Clean, group and sort every caption file under a directory",
		Long: `Loads every .txt caption under the dataset directory, removes empty and banned
tags, classifies tags into groups, sorts each group by token length, drops tags
below the count threshold and rewrites the files.

Nothing is written when tags remain unsorted, with --dry-run, or when the
confirmation prompt is declined.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSort(cmd, args[0])
		},
	}

	addSettingsFlags(cmd)
	cmd.Flags().Bool("dry-run", false, "Report what would change without writing")
	cmd.Flags().BoolP("yes", "y", false, "Write without asking for confirmation")
	cmd.Flags().Bool("show-groups", false, "Print the groups of every caption")
	cmd.Flags().Int("top", 50, "Number of tag counts to print (0 = all)")
	return cmd
}

// pipeline is everything a command needs to process one dataset.
type pipeline struct {
	cfg     config.RunConfig
	entries []*caption.Entry
	opts    captionsort.Options
	lengths *tokenize.Cache
}

// loadPipeline resolves settings, loads configuration and captions and
// prepares sorter options. Writer, confirmation and store are left to the
// caller.
func (a *app) loadPipeline(cmd *cobra.Command, root string) (*pipeline, error) {
	cfg, err := a.settings(cmd)
	if err != nil {
		return nil, err
	}
	comp, err := a.components(cfg)
	if err != nil {
		return nil, err
	}

	tok, err := tokenize.NewTiktoken(cfg.Tokenizer)
	if err != nil {
		return nil, err
	}
	lengths := tokenize.NewCache(tok)

	entries, err := dataset.Load(root, dataset.Options{
		DecodeEntities: cfg.DecodeEntities,
		Exclude:        []string{cfg.GroupsDir, cfg.BannedFile, cfg.ReportDB},
		Logger:         a.logger,
	})
	if err != nil {
		return nil, err
	}

	return &pipeline{
		cfg:     cfg,
		entries: entries,
		lengths: lengths,
		opts: captionsort.Options{
			Registry:   comp.Registry,
			Banned:     comp.Banned,
			Lengths:    lengths,
			KeepFirstN: cfg.KeepFirstN,
			Threshold:  cfg.Threshold,
			Workers:    cfg.Workers,
			Logger:     a.logger,
		},
	}, nil
}

func (a *app) runSort(cmd *cobra.Command, root string) error {
	ctx := cmd.Context()
	p, err := a.loadPipeline(cmd, root)
	if err != nil {
		return err
	}

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	yes, _ := cmd.Flags().GetBool("yes")
	showGroups, _ := cmd.Flags().GetBool("show-groups")
	top, _ := cmd.Flags().GetInt("top")

	st, err := a.openStore(ctx, p.cfg)
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
		p.opts.Store = st
	}

	out := report.New(cmd.OutOrStdout())
	reported := false
	details := func(res *captionsort.Result) {
		reported = true
		out.Banned(res.Banned)
		if showGroups {
			out.Groups(res.Entries)
		}
		out.Counts(res.Counts, top)
		out.Unsorted(res.Unsorted, res.Threshold)
		out.Pruned(res.Pruned, res.Counts, res.Threshold)
		out.Unresolved(res.Unresolved)
	}

	p.opts.Writer = dataset.FileWriter{}
	p.opts.DryRun = dryRun
	if !yes {
		p.opts.Confirm = func(res *captionsort.Result) (bool, error) {
			details(res)
			return confirm(cmd.InOrStdin(), cmd.OutOrStdout(),
				fmt.Sprintf("\nSave changes to %d caption file(s)?", len(res.Entries)))
		}
	}

	res, err := captionsort.New(p.opts).Run(ctx, root, p.entries)
	if res != nil {
		if !reported {
			details(res)
		}
		out.Summary(res)
	}

	cache := p.lengths.Stats()
	a.logger.Debug("token length cache", zap.Int64("hits", cache.Hits), zap.Int64("misses", cache.Misses))

	var unresolved *internalerr.UnresolvedClassificationError
	switch {
	case errors.As(err, &unresolved):
		return fmt.Errorf("nothing written: %w", err)
	case err != nil:
		return err
	case res.Outcome == store.OutcomeDeclined:
		fmt.Fprintln(cmd.OutOrStdout(), "Changes discarded.")
	}
	return nil
}

// confirm asks a yes/no question; anything but y or yes is a no.
func confirm(in io.Reader, out io.Writer, question string) (bool, error) {
	fmt.Fprintf(out, "%s (y/N) ", question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
