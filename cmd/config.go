package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/zpam/bnclass/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
	Long:  `Generate and inspect bnclass configuration files`,
}

var configGenCmd = &cobra.Command{
	Use:   "generate [config-file]",
	Short: "Generate default configuration file",
	Long:  `Generate a configuration file holding every option at its default value`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "config.yaml"
		if len(args) > 0 {
			path = args[0]
		}

		if _, err := os.Stat(path); err == nil {
			overwrite, _ := cmd.Flags().GetBool("force")
			if !overwrite {
				return fmt.Errorf("config file already exists: %s (use --force to overwrite)", path)
			}
		}

		if err := config.DefaultConfig().SaveConfig(path); err != nil {
			return fmt.Errorf("failed to save config: %v", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Configuration file generated: %s\n", path)
		fmt.Fprintf(out, "Use 'bnclass run --config %s ...' to use it\n", path)
		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate <config-file>",
	Short: "Validate configuration file",
	Long:  `Validate a configuration file for syntax and logical errors`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.LoadConfig(args[0])
		if err != nil {
			return fmt.Errorf("configuration validation failed: %v", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Configuration is valid: %s\n", args[0])

		if warnings := configWarnings(c); len(warnings) > 0 {
			fmt.Fprintf(out, "\nWarnings:\n")
			for _, w := range warnings {
				fmt.Fprintf(out, "  - %s\n", w)
			}
		}
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show [config-file]",
	Short: "Show configuration",
	Long:  `Display a configuration file, or the defaults when no file is given`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		c := config.DefaultConfig()
		if len(args) > 0 {
			loaded, err := config.LoadConfig(args[0])
			if err != nil {
				return fmt.Errorf("failed to load config: %v", err)
			}
			c = loaded
			fmt.Fprintf(out, "Configuration: %s\n\n", args[0])
		} else {
			fmt.Fprintf(out, "Default Configuration:\n\n")
		}

		printConfig(out, c)
		return nil
	},
}

func printConfig(out io.Writer, c *config.Config) {
	fmt.Fprintf(out, "Model:\n")
	fmt.Fprintf(out, "  Type: %s\n", c.Model.Type)
	fmt.Fprintf(out, "  Classes: %d\n", c.Model.Classes)
	fmt.Fprintf(out, "  Threshold: %d\n", c.Model.Threshold)
	fmt.Fprintf(out, "  Verbose: %d\n", c.Model.Verbose)

	fmt.Fprintf(out, "\nPerformance:\n")
	fmt.Fprintf(out, "  Workers: %d\n", c.Performance.Workers)
	fmt.Fprintf(out, "  Shards: %d\n", c.Performance.Shards)

	fmt.Fprintf(out, "\nLogging:\n")
	fmt.Fprintf(out, "  Level: %s\n", c.Logging.Level)
	fmt.Fprintf(out, "  Format: %s\n", c.Logging.Format)
	if c.Logging.File != "" {
		fmt.Fprintf(out, "  File: %s\n", c.Logging.File)
	}

	fmt.Fprintf(out, "\nStore:\n")
	fmt.Fprintf(out, "  Enabled: %v\n", c.Store.Enabled)
	fmt.Fprintf(out, "  Redis: %s (db %d)\n", c.Store.RedisURL, c.Store.DatabaseNum)
	fmt.Fprintf(out, "  Key prefix: %s\n", c.Store.KeyPrefix)
}

// configWarnings reports settings that are valid but probably unintended
func configWarnings(c *config.Config) []string {
	var warnings []string

	if c.Model.Type == "nbc" && c.Model.Threshold > 0 {
		warnings = append(warnings, "threshold only affects the aode model")
	}
	if c.Model.Verbose == 3 {
		warnings = append(warnings, "verbose level 3 prints every count entry")
	}
	if c.Store.Enabled && !c.Store.Reset {
		warnings = append(warnings, "store reset is disabled - counts accumulate across runs")
	}

	return warnings
}

func init() {
	configCmd.AddCommand(configGenCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configShowCmd)

	configGenCmd.Flags().Bool("force", false, "Overwrite existing config file")
}
