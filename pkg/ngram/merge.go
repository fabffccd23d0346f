package ngram

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Reduce folds every staged partial for one order into a single table using
// a binary tree reduction: adjacent partials are merged in pairs, halving the
// working set each round, with an unpaired leftover carried forward to the
// next round. This bounds the merge depth to ceil(log2 k) for k partials, and
// because Merge is associative and commutative the pair merges of a round can
// run concurrently without changing the result.
//
// Every consumed staging file is deleted once the reduction succeeds. A
// partial whose order does not match order fails the reduction.
func Reduce(ctx context.Context, staging *Staging, order int) (*Table, error) {
	paths, err := staging.List()
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no staged partials for order %d", order)
	}

	tables := make([]*Table, len(paths))
	for i, path := range paths {
		if tables[i], err = LoadTable(path); err != nil {
			return nil, err
		}
		if tables[i].Order != order {
			return nil, fmt.Errorf("staged partial %s has order %d, want %d: %w", path, tables[i].Order, order, ErrOrderMismatch)
		}
	}

	for len(tables) > 1 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		next := make([]*Table, (len(tables)+1)/2)
		var g errgroup.Group
		for i := 0; i+1 < len(tables); i += 2 {
			g.Go(func() error {
				merged, err := Merge(tables[i], tables[i+1])
				if err != nil {
					return err
				}
				next[i/2] = merged
				return nil
			})
		}
		if len(tables)%2 == 1 {
			next[len(next)-1] = tables[len(tables)-1]
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		tables = next
	}

	for _, path := range paths {
		if err := staging.Remove(path); err != nil {
			return nil, err
		}
	}
	return tables[0], nil
}
