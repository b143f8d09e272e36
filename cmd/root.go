package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/zpam/bnclass/pkg/config"
	"github.com/zpam/bnclass/pkg/logging"
	"go.uber.org/zap"
)

var (
	configPath string
	logLevel   string

	// set up by the root command before any subcommand runs
	cfg    = config.DefaultConfig()
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "bnclass",
	Short: "bnclass - categorical Bayesian classifiers (NBC and AODE)",
	Long: `bnclass trains Naive Bayes (NBC) and Averaged One-Dependence Estimator (AODE)
classifiers on categorical datasets and measures their accuracy on a test dataset.

Datasets may carry several class attributes; each one is predicted independently.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return errors.Wrap(err, "failed to load configuration")
		}
		if logLevel != "" {
			loaded.Logging.Level = logLevel
		}

		l, err := logging.New(loaded.Logging)
		if err != nil {
			return errors.Wrap(err, "failed to set up logging")
		}
		cfg, logger = loaded, l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(configCmd)
}
