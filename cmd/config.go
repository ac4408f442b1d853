package cmd

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tabmine/bayes-classifier/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
	Long:  `Generate and manage bcl configuration files`,
}

var configGenCmd = &cobra.Command{
	Use:   "generate [config-file]",
	Short: "Generate default configuration file",
	Long:  `Generate a configuration file holding the default value of every option`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := "bcl.yaml"
		if len(args) > 0 {
			configPath = args[0]
		}

		// Check if file already exists
		if _, err := AppFs.Stat(configPath); err == nil {
			overwrite, _ := cmd.Flags().GetBool("force")
			if !overwrite {
				return fmt.Errorf("config file already exists: %s (use --force to overwrite)", configPath)
			}
		}

		defaultConfig := config.DefaultConfig()
		if err := defaultConfig.SaveConfig(AppFs, configPath); err != nil {
			return fmt.Errorf("failed to save config: %v", err)
		}

		out := cmd.OutOrStdout()
		color.New(color.FgGreen).Fprintf(out, "Configuration file generated: %s\n", configPath)
		fmt.Fprintf(out, "Use 'bcl --config %s <command>' to use the configuration\n", configPath)
		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate config-file",
	Short: "Validate configuration file",
	Long:  `Validate a configuration file for syntax and logical errors`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := args[0]
		cfg, err := config.LoadConfig(AppFs, configPath)
		if err != nil {
			return fmt.Errorf("configuration validation failed: %v", err)
		}

		out := cmd.OutOrStdout()
		color.New(color.FgGreen).Fprintf(out, "Configuration is valid: %s\n", configPath)
		if warnings := validateConfigLogic(cfg); len(warnings) > 0 {
			warn := color.New(color.FgYellow)
			warn.Fprintf(out, "\nWarnings:\n")
			for _, w := range warnings {
				warn.Fprintf(out, "  - %s\n", w)
			}
		}
		fmt.Fprintln(out)
		printConfig(out, cfg)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show [config-file]",
	Short: "Show current configuration",
	Long:  `Display the configuration with all values`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		var cfg *config.Config
		if len(args) > 0 {
			var err error
			if cfg, err = config.LoadConfig(AppFs, args[0]); err != nil {
				return fmt.Errorf("failed to load config: %v", err)
			}
			fmt.Fprintf(out, "Configuration: %s\n\n", args[0])
		} else {
			cfg = config.DefaultConfig()
			fmt.Fprintf(out, "Default Configuration:\n\n")
		}
		printConfig(out, cfg)
		return nil
	},
}

func printConfig(out io.Writer, cfg *config.Config) {
	cl := cfg.Classifier
	fmt.Fprintf(out, "Classifier:\n")
	fmt.Fprintf(out, "  Type: %s\n", cl.Type)
	fmt.Fprintf(out, "  Laplace correction: %g\n", cl.Laplace)
	fmt.Fprintf(out, "  Estimation: %v\n", estimationFlags(cfg))
	if cl.Simplify != "" {
		fmt.Fprintf(out, "  Simplify: %s (%s)\n", cl.Simplify, cl.Criterion)
	}
	fmt.Fprintf(out, "  Max line length: %d\n", cl.MaxLineLength)

	ex := cfg.Execution
	fmt.Fprintf(out, "\nExecution:\n")
	fmt.Fprintf(out, "  Threshold: %g\n", ex.Threshold)
	fmt.Fprintf(out, "  Class column: %s\n", ex.ClassColumn)
	if ex.ProbColumn != "" {
		fmt.Fprintf(out, "  Probability column: %s (%s)\n", ex.ProbColumn, ex.ProbFormat)
	}

	tb := cfg.Table
	fmt.Fprintf(out, "\nTables:\n")
	fmt.Fprintf(out, "  Field separators: %q\n", tb.FieldSeps)
	fmt.Fprintf(out, "  Null characters: %q\n", tb.NullChars)
	fmt.Fprintf(out, "  Weights: %v\n", tb.Weights)

	st := cfg.Store
	fmt.Fprintf(out, "\nStore:\n")
	fmt.Fprintf(out, "  Backend: %s\n", st.Backend)
	switch st.Backend {
	case "file":
		fmt.Fprintf(out, "  Path: %s\n", st.Path)
	case "sqlite":
		fmt.Fprintf(out, "  Database: %s\n", st.SqliteDSN)
	case "redis":
		fmt.Fprintf(out, "  URL: %s (db %d, prefix %s)\n", st.RedisURL, st.DatabaseNum, st.KeyPrefix)
	}
	fmt.Fprintf(out, "  Cache size: %d\n", st.CacheSize)

	lg := cfg.Logging
	fmt.Fprintf(out, "\nLogging:\n")
	fmt.Fprintf(out, "  Level: %s (%s)\n", lg.Level, lg.Format)
	if lg.File != "" {
		fmt.Fprintf(out, "  File: %s\n", lg.File)
	}
}

// validateConfigLogic performs additional logical validation
func validateConfigLogic(cfg *config.Config) []string {
	var warnings []string

	if cfg.Classifier.Criterion != "accuracy" && cfg.Classifier.Simplify == "" {
		warnings = append(warnings, "A simplification criterion is set but simplification is off")
	}
	if cfg.Classifier.Type == "full" && cfg.Classifier.DWNull {
		warnings = append(warnings, "dwnull has no effect on full Bayes classifiers")
	}
	if cfg.Execution.Threshold == 0 || cfg.Execution.Threshold == 1 {
		warnings = append(warnings, "A threshold of 0 or 1 always predicts the same class in two-class problems")
	}
	if cfg.Store.Backend != "file" && cfg.Store.CacheSize == 0 {
		warnings = append(warnings, "Every model read goes to the store backend (cache_size is 0)")
	}
	return warnings
}

func estimationFlags(cfg *config.Config) []string {
	flags := []string{}
	if cfg.Classifier.DWNull {
		flags = append(flags, "dwnull")
	}
	if cfg.Classifier.MaxLLH {
		flags = append(flags, "maxllh")
	}
	return flags
}

func init() {
	configCmd.AddCommand(configGenCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configShowCmd)

	configGenCmd.Flags().Bool("force", false, "Overwrite existing config file")
}
