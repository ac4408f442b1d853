package cmd

import (
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// AppFs is the file system the commands read and write. Tests replace
// it with an in-memory one.
var AppFs = afero.NewOsFs()

var (
	cfgFile  string
	logLevel string
	logFile  string
	profile  bool
)

var rootCmd = &cobra.Command{
	Use:   "bcl",
	Short: "bcl - naive and full Bayes classifiers",
	Long: `bcl induces naive and full Bayes classifiers from table files,
executes them on new data and manages a store of induced models.

A domain file declares the attributes, e.g.

  dom(outlook) = { sunny, overcast, rain };
  dom(temp)    = IR;

and a table file holds one record per line with a header naming the
columns.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Log file (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&profile, "profile", false, "Print a timing report of the command phases")

	rootCmd.AddCommand(induceCmd)
	rootCmd.AddCommand(execCmd)
	rootCmd.AddCommand(randCmd)
	rootCmd.AddCommand(xvalCmd)
	rootCmd.AddCommand(describeCmd)
	rootCmd.AddCommand(storeCmd)
	rootCmd.AddCommand(configCmd)
}
