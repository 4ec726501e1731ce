package captionsort

import (
	"context"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cognicore/captionsort/pkg/captionsort/caption"
)

// sortAll sorts the groups of every entry on a fixed pool of workers fed from
// a queue. Each entry is handled by exactly one worker; the token length
// cache is the only state the workers share. It returns once every entry is
// sorted.
func (s *Sorter) sortAll(ctx context.Context, entries []*caption.Entry) error {
	workers := s.opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(entries) {
		workers = len(entries)
	}
	if workers == 0 {
		return nil
	}

	s.logger.Debug("sorting groups", zap.Int("entries", len(entries)), zap.Int("workers", workers))

	queue := make(chan *caption.Entry)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for e := range queue {
				e.SortGroups(s.opts.Lengths)
			}
			return nil
		})
	}

feed:
	for _, e := range entries {
		select {
		case queue <- e:
		case <-gctx.Done():
			break feed
		}
	}
	close(queue)

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
