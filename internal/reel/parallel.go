package reel

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

// ForEachOrdered calls fn for each index in [0, n) using at most workers
// goroutines and stores the results by index. With workers <= 1 the
// calls are made in order and stop at the first error, so later indices
// are never attempted.
//
// When more than one call fails, the lowest index that failed for a
// reason other than cancellation is returned with its error. Results at
// and after the failing index must not be used.
func ForEachOrdered[T any](ctx context.Context, n, workers int, fn func(ctx context.Context, i int) (T, error)) ([]T, int, error) {
	results := make([]T, n)
	if workers <= 1 || n <= 1 {
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return results, i, err
			}
			r, err := fn(ctx, i)
			if err != nil {
				return results, i, err
			}
			results[i] = r
		}
		return results, -1, nil
	}

	errs := make([]error, n)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				errs[i] = err
				return err
			}
			r, err := fn(gctx, i)
			if err != nil {
				errs[i] = err
				return err
			}
			results[i] = r
			return nil
		})
	}
	g.Wait()

	// Cancellation errors are secondary to the failure that caused them.
	failed := -1
	for i, err := range errs {
		if err == nil {
			continue
		}
		if failed < 0 {
			failed = i
		}
		if !errors.Is(err, context.Canceled) {
			failed = i
			break
		}
	}
	if failed >= 0 {
		return results, failed, errs[failed]
	}
	return results, -1, nil
}
