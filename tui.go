package main

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"cubetimer/internal"
	"cubetimer/internal/client"
	"cubetimer/internal/config"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Run the terminal timer",
	Long: `Run the terminal timer. Press SPACE to start and stop; every stopped
time is saved to the configured server.`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logFile, err := openLogFile(cfg.TUI.LogFile)
	if err != nil {
		return err
	}
	defer logFile.Close()

	logger := setupLogger(cfg.Logging, logFile)
	logger.Info().
		Str("version", version).
		Str("server", cfg.Client.ServerURL).
		Msg("Starting Cube Timer")

	c := client.New(cfg.Client.ServerURL, config.ParseDuration(cfg.Client.Timeout, 5*time.Second))

	m, err := internal.NewModel(internal.Options{
		Client:       c,
		RepeatWindow: config.ParseDuration(cfg.TUI.RepeatWindow, internal.DefaultRepeatWindow),
		LiveUpdates:  cfg.TUI.LiveUpdates,
		Logger:       logger,
	})
	if err != nil {
		return err
	}
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run terminal UI: %w", err)
	}

	logger.Info().Msg("Cube Timer stopped")
	return nil
}
