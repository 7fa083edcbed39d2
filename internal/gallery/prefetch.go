package gallery

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/fieldops/fieldview/internal/media"
)

const defaultPrefetchLimit = 4

// Prefetch runs reqs with at most limit loads in flight and returns the
// results in request order. Load failures are reported in each Result, not
// as an error; only context cancellation stops the batch early, in which
// case unstarted requests carry the context error.
func Prefetch(ctx context.Context, resolver media.Resolver, reqs []Request, limit int) []Result {
	if limit <= 0 {
		limit = defaultPrefetchLimit
	}
	results := make([]Result, len(reqs))
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(limit)
	for i, req := range reqs {
		if err := gctx.Err(); err != nil {
			results[i] = Result{Request: req, Err: &media.Error{Kind: media.KindNetwork, Ref: req.Ref, Err: err}}
			continue
		}
		group.Go(func() error {
			results[i] = Load(gctx, resolver, req)
			return nil
		})
	}
	_ = group.Wait()
	return results
}
