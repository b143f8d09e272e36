package eval

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"github.com/zpam/bnclass/pkg/learning"
	"golang.org/x/sync/errgroup"
)

// Run classifies every row of src with m and returns the accuracy report.
// With workers > 1 the rows are classified in parallel against the shared,
// read-only count model; results are always recorded in row order.
func Run(ctx context.Context, m learning.Classifier, src learning.RowSource, workers int) (*Report, error) {
	s := m.Schema()
	if s == nil || m.Counts() == nil {
		return nil, learning.ErrUninitializedModel
	}

	var rows [][]string
	for row := 1; ; row++ {
		fields, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read test instance %d", row)
		}
		if err := s.Validate(row, fields); err != nil {
			return nil, err
		}
		rows = append(rows, fields)
	}

	predictions, err := classifyAll(ctx, m, rows, workers)
	if err != nil {
		return nil, err
	}

	ev := NewEvaluator(s.ClassNames())
	for i, fields := range rows {
		_, actual, _ := s.Split(i+1, fields)
		if err := ev.RecordInstance(predictions[i], actual); err != nil {
			return nil, errors.Wrapf(err, "test instance %d", i+1)
		}
	}
	return ev.Report(), nil
}

func classifyAll(ctx context.Context, m learning.Classifier, rows [][]string, workers int) ([][]string, error) {
	n := m.Schema().NumAttributes()
	predictions := make([][]string, len(rows))

	classify := func(ctx context.Context, lo, hi int) error {
		for i := lo; i < hi; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			pred, err := m.Classify(rows[i][:n])
			if err != nil {
				return errors.Wrapf(err, "failed to classify test instance %d", i+1)
			}
			predictions[i] = pred
		}
		return nil
	}

	if workers <= 1 || len(rows) < 2 {
		if err := classify(ctx, 0, len(rows)); err != nil {
			return nil, err
		}
		return predictions, nil
	}

	workers = min(workers, len(rows))
	size := (len(rows) + workers - 1) / workers

	g, gctx := errgroup.WithContext(ctx)
	for lo := 0; lo < len(rows); lo += size {
		hi := min(lo+size, len(rows))
		g.Go(func() error {
			return classify(gctx, lo, hi)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return predictions, nil
}
