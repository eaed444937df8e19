package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"cubetimer/internal/config"
)

var configShowSecrets bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long:  `Print the configuration after defaults, the config file and CUBETIMER_* environment variables are applied.`,
	RunE:  runConfig,
}

func init() {
	configCmd.Flags().BoolVar(&configShowSecrets, "show-secrets", false, "Print passwords instead of masking them")
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "Configuration is invalid: %v\n", err)
		return err
	}

	source := configPath
	if source == "" {
		source = "defaults and environment"
	}
	color.New(color.FgGreen).Fprintf(os.Stderr, "# Configuration loaded from %s\n", source)

	return dumpConfig(os.Stdout, cfg, configShowSecrets)
}

func dumpConfig(w io.Writer, cfg *config.Config, showSecrets bool) error {
	out := *cfg
	if !showSecrets && out.Storage.Redis.Password != "" {
		out.Storage.Redis.Password = "********"
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&out); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return enc.Close()
}
