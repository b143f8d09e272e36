package learning

import (
	"context"

	"github.com/zpam/bnclass/pkg/schema"
	"golang.org/x/sync/errgroup"
)

// ShardCounts splits rows into at most shards contiguous shards and counts
// each one in its own goroutine. The returned slice is in shard order.
func ShardCounts(ctx context.Context, s *schema.Schema, rows [][]string, v Variant, shards int) ([]*Counts, error) {
	if shards < 1 {
		shards = 1
	}
	if shards > len(rows) && len(rows) > 0 {
		shards = len(rows)
	}
	size := (len(rows) + shards - 1) / shards

	results := make([]*Counts, shards)
	g, ctx := errgroup.WithContext(ctx)

	for shard := 0; shard < shards; shard++ {
		lo := shard * size
		hi := min(lo+size, len(rows))
		if lo > hi {
			lo = hi
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			counts, err := countRows(s, rows[lo:hi], lo+1, v)
			if err != nil {
				return err
			}
			results[shard] = counts
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// TrainParallel counts rows in shards and sums the shard counts after the pass
func TrainParallel(ctx context.Context, s *schema.Schema, rows [][]string, v Variant, shards int) (*Counts, error) {
	parts, err := ShardCounts(ctx, s, rows, v, shards)
	if err != nil {
		return nil, err
	}
	merged := NewCounts(v)
	for _, part := range parts {
		if err := merged.Merge(part); err != nil {
			return nil, err
		}
	}
	return merged, nil
}
