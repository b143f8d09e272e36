package cmd

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/zpam/bnclass/pkg/config"
	"github.com/zpam/bnclass/pkg/dataset"
	"github.com/zpam/bnclass/pkg/learning"
	"github.com/zpam/bnclass/pkg/profiler"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// modelFlags are shared by the run and train commands
type modelFlags struct {
	classes   int
	threshold int
	verbose   int
	workers   int
	shards    int
	redis     bool
}

func (f *modelFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.classes, "classes", "c", 1, "Number of class attributes (multidimensional)")
	cmd.Flags().IntVarP(&f.threshold, "threshold", "t", 0, "AODE minimum super-parent support")
	cmd.Flags().IntVarP(&f.verbose, "verbose", "v", 0, "Verbose mode 0-3")
	cmd.Flags().IntVarP(&f.workers, "workers", "w", 1, "Parallel classification workers")
	cmd.Flags().IntVarP(&f.shards, "shards", "s", 1, "Parallel training shards")
	cmd.Flags().BoolVar(&f.redis, "redis", false, "Sum counts in the Redis count store")
}

// apply overrides the loaded configuration with the flags set on the command line
func (f *modelFlags) apply(cmd *cobra.Command, variant string, c *config.Config) error {
	v, err := learning.ParseVariant(variant)
	if err != nil {
		return err
	}
	c.Model.Type = v.String()

	flags := cmd.Flags()
	if flags.Changed("classes") {
		c.Model.Classes = f.classes
	}
	if flags.Changed("threshold") {
		c.Model.Threshold = f.threshold
	}
	if flags.Changed("verbose") {
		c.Model.Verbose = f.verbose
	}
	if flags.Changed("workers") {
		c.Performance.Workers = f.workers
	}
	if flags.Changed("shards") {
		c.Performance.Shards = f.shards
	}
	if flags.Changed("redis") {
		c.Store.Enabled = f.redis
	}
	return c.Validate()
}

// trained is the outcome of the training phase
type trained struct {
	model    learning.Classifier
	relation string
}

// trainModel reads the training dataset and fits a classifier to it
func trainModel(ctx context.Context, c *config.Config, path string, prof *profiler.Profiler) (*trained, error) {
	m, err := learning.New(c.Model.Type, c.Model.Threshold)
	if err != nil {
		return nil, err
	}

	r, err := dataset.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	s, err := r.Header.Schema(c.Model.Classes)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid training dataset %s", path)
	}

	var counts *learning.Counts
	err = prof.Time(profiler.PhaseTrain, func() error {
		rows, err := r.ReadAll()
		if err != nil {
			return errors.Wrapf(err, "failed to read %s", path)
		}
		logger.Debug("training dataset loaded",
			zap.String("path", path),
			zap.Int("instances", len(rows)),
			zap.Int("shards", c.Performance.Shards))

		if !c.Store.Enabled {
			counts, err = learning.TrainParallel(ctx, s, rows, m.Variant(), c.Performance.Shards)
			return err
		}
		shards, err := learning.ShardCounts(ctx, s, rows, m.Variant(), c.Performance.Shards)
		if err != nil {
			return err
		}
		return prof.Time(profiler.PhaseStore, func() error {
			counts, err = storeCounts(ctx, c.Store, shards)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	if err := m.Fit(s, counts); err != nil {
		return nil, err
	}
	logger.Info("model trained",
		zap.String("model", m.Name()),
		zap.String("dataset", path),
		zap.Int("instances", counts.Instances),
		zap.Int("entries", counts.Len()))

	return &trained{model: m, relation: r.Header.Relation}, nil
}

// storeCounts pushes every shard to the Redis count store and reads the summed counts back
func storeCounts(ctx context.Context, sc config.StoreConfig, shards []*learning.Counts) (counts *learning.Counts, err error) {
	store, err := learning.NewRedisCountStore(ctx, &learning.RedisConfig{
		RedisURL:    sc.RedisURL,
		KeyPrefix:   sc.KeyPrefix,
		DatabaseNum: sc.DatabaseNum,
		BatchSize:   sc.BatchSize,
	})
	if err != nil {
		return nil, err
	}
	defer func() {
		err = multierr.Append(err, store.Close())
	}()

	if sc.Reset {
		if err := store.Reset(ctx); err != nil {
			return nil, err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, shard := range shards {
		g.Go(func() error {
			return store.Push(gctx, shard)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	logger.Debug("shard counts pushed",
		zap.String("prefix", sc.KeyPrefix),
		zap.Int("shards", len(shards)))

	return store.Load(ctx)
}

var trainFlags modelFlags

var trainCmd = &cobra.Command{
	Use:   "train <nbc|aode> <training>",
	Short: "Train a classifier and print its diagnostics",
	Long: `Train an NBC or AODE classifier on a categorical dataset and print what it learned.

With --redis the counts are summed into the shared Redis count store. Setting
store.reset to false lets several train runs over parts of a dataset build one model.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := trainFlags.apply(cmd, args[0], cfg); err != nil {
			return err
		}

		prof := profiler.New()
		t, err := trainModel(cmd.Context(), cfg, args[1], prof)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		// train alone always prints the summary
		verbose := cfg.Model.Verbose
		if verbose < 1 {
			verbose = 1
		}
		if err := learning.PrintStats(out, t.model, args[1], t.relation, verbose); err != nil {
			return err
		}
		if cfg.Store.Enabled {
			fmt.Fprintf(out, ">> counts stored under %s\n\n", cfg.Store.KeyPrefix)
		}
		prof.PrintReport(out)
		return nil
	},
}

func init() {
	trainFlags.register(trainCmd)
}
