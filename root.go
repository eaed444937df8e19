package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version    = "dev"
	configPath string
)

// rootCmd runs the terminal client when called without a subcommand
var rootCmd = &cobra.Command{
	Use:   "cubetimer",
	Short: "Cube Timer - spacebar stopwatch for speedcubing",
	Long: `Cube Timer is a spacebar-driven stopwatch for timing puzzle solves.
The terminal client saves every stopped time to a collaborator server, which
also serves a browser version of the same timer.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd, args)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
