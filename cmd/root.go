package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var (
	configPath = "./config/aqua-engine.yaml"

	rootCmd = &cobra.Command{
		Use:   "aqua-engine",
		Short: "AquaNode workflow engine CLI",
		Long: `AquaNode CLI to run and interact with the workflow engine.
Each sub command can be used for a single service

Such as "aqua-engine serve" or "aqua-engine run -f workflow.json" and so on
`,
	}
)

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", configPath, "Path to config file")
}
