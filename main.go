package main

import (
	"os"

	"github.com/amolj/index_alerter/cmd"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "index-alerter",
	Short: "PostgreSQL index alerter",
	Long: `PostgreSQL index alerter: samples a workload's planner costs against
hypothetical indexes and recommends indexes worth creating.`,
}

func init() {
	cobra.OnInitialize()
	rootCmd.AddCommand(cmd.NewSampleCmd())
	rootCmd.AddCommand(cmd.NewAlertCmd())
	rootCmd.AddCommand(cmd.NewPreCheckCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
