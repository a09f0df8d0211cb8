package monitor

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/driftwatch/driftwatch/internal/fingerprint"
)

// Sweep evaluates each path once with its own monitor and returns the
// divergences found. Objects are independent, so they run concurrently up to
// limit workers; each object still sees a strictly sequential
// stat-compute-evaluate cycle.
func Sweep(ctx context.Context, paths []string, algo fingerprint.Algorithm, policy LinkPolicy, store Store, limit int) ([]Change, error) {
	if limit <= 0 {
		limit = 4
	}

	var mu sync.Mutex
	var changes []Change

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(limit)

	for _, path := range paths {
		if ctx.Err() != nil {
			break
		}
		group.Go(func() error {
			mon, err := New(NewFileResource(path, policy, store), algo)
			if err != nil {
				return err
			}
			result, err := mon.Retrieve()
			if err != nil {
				return err
			}
			if result.Outcome != Changed {
				return nil
			}
			desc, err := mon.ChangeDescription()
			if err != nil {
				desc = result.Fingerprint.String()
			}
			mu.Lock()
			changes = append(changes, Change{
				Path:        path,
				Fingerprint: result.Fingerprint,
				Prior:       result.Prior,
				Description: desc,
			})
			mu.Unlock()
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return changes, err
	}
	return changes, nil
}
