package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "csoarc",
	Short: "csoarc reads Counter-Strike Online NAR and PAK archives",
	Long: `csoarc opens .nar and .pak game archives, choosing a loader by
file extension, and lists, extracts, or verifies their contents.`,
}

// Execute adds all child commands to the root command and runs it. It
// is called by main.main and only needs to happen once.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "write debug-level logging to stderr")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		verbose, _ := cmd.Flags().GetBool("verbose")
		if verbose {
			logrus.SetLevel(logrus.DebugLevel)
		}
	}
}
