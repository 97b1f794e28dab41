package vitals

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Collect runs one aggregation cycle: all seven collectors are launched
// concurrently, the join waits for every one of them to settle (collectors
// never fail, so there is no early exit), and the resolved scalar set is
// merged into the store as a single unit. Returns the post-merge snapshot.
//
// Collect is idempotent: repeated calls re-sample the provider and replace
// the scalar set, while render records appended between cycles are
// preserved.
func (s *Session) Collect(ctx context.Context) Snapshot {
	var sc Scalars

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sc.FirstContentfulPaint = s.FirstContentfulPaint(gctx)
		return nil
	})
	g.Go(func() error {
		sc.LargestContentfulPaint = s.LargestContentfulPaint(gctx)
		return nil
	})
	g.Go(func() error {
		sc.TimeToInteractive = s.TimeToInteractive(gctx)
		return nil
	})
	g.Go(func() error {
		sc.CumulativeLayoutShift = s.CumulativeLayoutShift(gctx)
		return nil
	})
	g.Go(func() error {
		sc.FirstInputDelay = s.FirstInputDelay(gctx)
		return nil
	})
	g.Go(func() error {
		sc.InteractionToNextPaint = s.InteractionToNextPaint(gctx)
		return nil
	})
	g.Go(func() error {
		sc.TimeToFirstByte = s.TimeToFirstByte(gctx)
		return nil
	})

	// Each goroutine writes a distinct field; the join is the only
	// synchronisation point before the merge.
	_ = g.Wait()

	s.store.MergeScalars(sc)
	return s.store.Snapshot()
}
