package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/zpam/bnclass/pkg/config"
	"github.com/zpam/bnclass/pkg/dataset"
	"github.com/zpam/bnclass/pkg/eval"
	"github.com/zpam/bnclass/pkg/learning"
	"github.com/zpam/bnclass/pkg/profiler"
	"go.uber.org/zap"
)

var runFlags modelFlags

var runCmd = &cobra.Command{
	Use:   "run <nbc|aode> <training> <test>",
	Short: "Train a classifier and measure its accuracy",
	Long: `Train an NBC or AODE classifier on the training dataset, classify every instance
of the test dataset and report per-class accuracy.

Both datasets must declare the same attributes with the same domains.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := runFlags.apply(cmd, args[0], cfg); err != nil {
			return err
		}
		return runEvaluation(cmd.Context(), cmd.OutOrStdout(), cfg, args[1], args[2])
	},
}

func runEvaluation(ctx context.Context, out io.Writer, c *config.Config, training, test string) error {
	prof := profiler.New()

	t, err := trainModel(ctx, c, training, prof)
	if err != nil {
		return err
	}
	if err := learning.PrintStats(out, t.model, training, t.relation, c.Model.Verbose); err != nil {
		return err
	}

	r, err := dataset.Open(test)
	if err != nil {
		return err
	}
	defer r.Close()

	s, err := r.Header.Schema(c.Model.Classes)
	if err != nil {
		return errors.Wrapf(err, "invalid test dataset %s", test)
	}
	if err := t.model.Schema().Compatible(s); err != nil {
		return errors.Wrapf(err, "test dataset %s does not match the training dataset", test)
	}

	var report *eval.Report
	err = prof.Time(profiler.PhaseTest, func() error {
		report, err = eval.Run(ctx, t.model, r, c.Performance.Workers)
		return err
	})
	if err != nil {
		return errors.Wrapf(err, "failed to test %s", test)
	}
	logger.Info("model tested",
		zap.String("model", t.model.Name()),
		zap.String("dataset", test),
		zap.Int("instances", report.Instances),
		zap.Int("workers", c.Performance.Workers))

	if c.Model.Verbose > 0 {
		fmt.Fprintf(out, "=== TEST ===\n\n")
		fmt.Fprintf(out, ">> test dataset: %s\n", test)
		fmt.Fprintf(out, ">> number of instances  = %s\n", humanize.Comma(int64(report.Instances)))
		fmt.Fprintf(out, ">> number of fields     = %d\n\n", s.Len())
	}
	report.Print(out)

	if c.Model.Verbose > 0 {
		prof.PrintReport(out)
	}
	return nil
}

func init() {
	runFlags.register(runCmd)
}
