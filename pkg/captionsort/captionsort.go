package captionsort

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/cognicore/captionsort/pkg/captionsort/banlist"
	"github.com/cognicore/captionsort/pkg/captionsort/caption"
	"github.com/cognicore/captionsort/pkg/captionsort/counts"
	"github.com/cognicore/captionsort/pkg/captionsort/groups"
	"github.com/cognicore/captionsort/pkg/captionsort/internalerr"
	"github.com/cognicore/captionsort/pkg/captionsort/store"
	"github.com/cognicore/captionsort/pkg/captionsort/tokenize"
)

// Writer persists a rendered caption line for an entry.
type Writer interface {
	Write(e *caption.Entry, line string) error
}

// ConfirmFunc is asked before any caption is rewritten, with the processed
// result. Returning false leaves every file untouched.
type ConfirmFunc func(res *Result) (bool, error)

// Options configures a Sorter
type Options struct {
	Registry   *groups.Registry
	Banned     *banlist.Set
	Lengths    tokenize.Lengther
	KeepFirstN int
	Threshold  int64
	Workers    int // 0 = one per CPU

	Writer  Writer
	Confirm ConfirmFunc
	DryRun  bool

	Store  store.Store // optional run report sink
	Logger *zap.Logger
	Now    func() time.Time
}

// Sorter runs the caption sorting pipeline
type Sorter struct {
	opts   Options
	logger *zap.Logger

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// New creates a Sorter with the given dependencies
func New(opts Options) *Sorter {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Sorter{
		opts:    opts,
		logger:  opts.Logger,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// Result describes one processed corpus
type Result struct {
	RunID     string
	Root      string
	StartedAt time.Time
	Entries   []*caption.Entry

	EmptyRemoved  int      // empty tag occurrences dropped
	Banned        []string // distinct banned tags removed
	BannedRemoved int      // banned tag occurrences dropped
	Counts        counts.Counts
	Threshold     int64
	Unsorted      []counts.UnsortedTag // every unsorted tag before pruning
	Pruned        []string             // distinct tags below threshold
	PrunedRemoved int                  // pruned tag occurrences dropped
	Unresolved    []counts.UnsortedTag

	Written int
	Outcome store.Outcome
}

// UnresolvedTags returns the names of unresolved unsorted tags.
func (r *Result) UnresolvedTags() []string {
	out := make([]string, len(r.Unresolved))
	for i, u := range r.Unresolved {
		out[i] = u.Tag
	}
	return out
}

func (s *Sorter) newRunID(t time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), s.entropy).String()
}

// Process cleans, classifies, sorts and prunes entries in place. It fails
// before touching any entry when the group configuration is unusable.
// Unresolved unsorted tags are reported in the result, not as an error.
func (s *Sorter) Process(ctx context.Context, root string, entries []*caption.Entry) (*Result, error) {
	if s.opts.Registry == nil || s.opts.Lengths == nil {
		return nil, fmt.Errorf("sorter: registry and lengths are required: %w", internalerr.ErrInvalidConfig)
	}
	if err := s.opts.Registry.Require(s.opts.KeepFirstN); err != nil {
		return nil, err
	}

	started := s.opts.Now()
	res := &Result{
		RunID:     s.newRunID(started),
		Root:      root,
		StartedAt: started,
		Entries:   entries,
		Threshold: s.opts.Threshold,
	}
	logger := s.logger.With(zap.String("run", res.RunID))

	// 1. Cleanup and classification, sequential per entry
	banned := make(map[string]struct{})
	for _, e := range entries {
		res.EmptyRemoved += e.CleanupEmpty()

		before := len(e.RawTags)
		for _, tag := range e.CleanupBanned(s.opts.Banned) {
			banned[tag] = struct{}{}
		}
		res.BannedRemoved += before - len(e.RawTags)

		if err := e.Classify(s.opts.Registry, s.opts.KeepFirstN); err != nil {
			return nil, err
		}
	}
	res.Banned = sortedKeys(banned)
	logger.Info("entries classified",
		zap.Int("entries", len(entries)),
		zap.Int("empty_removed", res.EmptyRemoved),
		zap.Int("banned_removed", res.BannedRemoved))

	// 2. Per-group sort on the worker pool
	if err := s.sortAll(ctx, entries); err != nil {
		return nil, err
	}

	// 3. Corpus counts and threshold pruning against one snapshot
	res.Counts = counts.Aggregate(entries)
	res.Unsorted = counts.Unresolved(entries, res.Counts, 0)
	before := res.Counts.Total()
	res.Pruned = counts.Prune(entries, res.Counts, s.opts.Threshold)
	res.PrunedRemoved = int(before - counts.Aggregate(entries).Total())
	res.Unresolved = counts.Unresolved(entries, res.Counts, s.opts.Threshold)

	logger.Info("corpus pruned",
		zap.Int("distinct_tags", len(res.Counts)),
		zap.Int64("threshold", s.opts.Threshold),
		zap.Int("pruned", len(res.Pruned)),
		zap.Int("unresolved", len(res.Unresolved)))

	return res, nil
}

// Run processes entries and, when every gate passes, rewrites their caption
// files. Gates, in order: unresolved unsorted tags (error), dry run,
// confirmation. No file is written unless all of them pass.
func (s *Sorter) Run(ctx context.Context, root string, entries []*caption.Entry) (*Result, error) {
	res, err := s.Process(ctx, root, entries)
	if err != nil {
		return nil, err
	}

	if len(res.Unresolved) > 0 {
		res.Outcome = store.OutcomeUnresolved
		s.record(ctx, res)
		return res, &internalerr.UnresolvedClassificationError{Tags: res.UnresolvedTags()}
	}

	if s.opts.DryRun {
		res.Outcome = store.OutcomeDryRun
		s.record(ctx, res)
		return res, nil
	}

	if s.opts.Confirm != nil {
		ok, err := s.opts.Confirm(res)
		if err != nil {
			return res, fmt.Errorf("confirm: %w", err)
		}
		if !ok {
			res.Outcome = store.OutcomeDeclined
			s.record(ctx, res)
			return res, nil
		}
	}

	if err := s.Commit(ctx, res); err != nil {
		res.Outcome = store.OutcomeFailed
		s.record(ctx, res)
		return res, err
	}
	res.Outcome = store.OutcomeWritten
	s.record(ctx, res)
	return res, nil
}

// Commit renders every entry and then writes them all. Rendering happens
// first so an entry that cannot be rendered stops the commit before the
// first write.
func (s *Sorter) Commit(ctx context.Context, res *Result) error {
	if s.opts.Writer == nil {
		return fmt.Errorf("sorter: no writer configured: %w", internalerr.ErrInvalidConfig)
	}

	lines := make([]string, len(res.Entries))
	for i, e := range res.Entries {
		line, err := e.Render()
		if err != nil {
			return err
		}
		lines[i] = line
	}

	for i, e := range res.Entries {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("commit stopped after %d of %d entries: %w", res.Written, len(res.Entries), err)
		}
		if err := s.opts.Writer.Write(e, lines[i]); err != nil {
			return fmt.Errorf("commit stopped after %d of %d entries: %w", res.Written, len(res.Entries), err)
		}
		res.Written++
	}

	s.logger.Info("captions written", zap.String("run", res.RunID), zap.Int("written", res.Written))
	return nil
}

// record saves the run report. Failures are only logged.
func (s *Sorter) record(ctx context.Context, res *Result) {
	if s.opts.Store == nil {
		return
	}

	run := store.Run{
		ID:         res.RunID,
		StartedAt:  res.StartedAt,
		Root:       res.Root,
		Entries:    len(res.Entries),
		Written:    res.Written,
		Threshold:  s.opts.Threshold,
		KeepFirstN: s.opts.KeepFirstN,
		Outcome:    res.Outcome,
		Banned:     res.Banned,
		Pruned:     res.Pruned,
	}
	for _, tc := range res.Counts.Sorted() {
		run.Counts = append(run.Counts, store.TagCount{Tag: tc.Tag, Count: tc.Count})
	}
	for _, u := range res.Unresolved {
		run.Unsorted = append(run.Unsorted, store.TagCount{Tag: u.Tag, Count: u.Count})
	}

	if err := s.opts.Store.SaveRun(ctx, run); err != nil {
		s.logger.Warn("failed to save run report", zap.String("run", res.RunID), zap.Error(err))
	}
}

// IsFatal reports whether err is one of the errors that stop a run before any
// file is written.
func IsFatal(err error) bool {
	return errors.Is(err, internalerr.ErrDuplicateMembership) ||
		errors.Is(err, internalerr.ErrMissingReservedGroup) ||
		errors.Is(err, internalerr.ErrUnresolvedTags)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
