package concurrent

import (
	"context"

	"github.com/zeusync/mudcore/pkg/sequence"
	"golang.org/x/sync/errgroup"
)

// Map applies mapFn to every element in parallel, preserving input order in the result.
// The first error aborts the remaining work and is returned.
func Map[T any, R any](ctx context.Context, i *sequence.Iterator[T], limit int, mapFn func(context.Context, T) (R, error)) ([]R, error) {
	in := i.Collect()
	out := make([]R, len(in))

	group, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		group.SetLimit(limit)
	}
	for idx, value := range in {
		group.Go(func() error {
			r, err := mapFn(gctx, value)
			if err != nil {
				return err
			}
			out[idx] = r
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
