package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

// rootCmd runs the sync when called without any subcommand
var rootCmd = &cobra.Command{
	Use:   "consul-sync",
	Short: "Keep consul services in sync with the endpoints declared in the cluster",
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return runCmd.PreRunE(cmd, args)
	},
	Run: func(cmd *cobra.Command, args []string) {
		runCmd.Run(cmd, args)
	},
	SilenceUsage: true,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (env variables are read anyway)")
}
