package cli

import (
	"github.com/spf13/cobra"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:           "qc-tracker",
	Short:         "QC task tracking backend",
	Long:          "qc-tracker serves the QC task, report and feedback API and manages its users.",
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to an optional dotenv file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(userCmd)
}
