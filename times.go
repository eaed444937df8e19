package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"cubetimer/internal/chart"
	"cubetimer/internal/client"
	"cubetimer/internal/config"
	"cubetimer/internal/record"
)

var timesChart bool

var timesCmd = &cobra.Command{
	Use:   "times",
	Short: "Print saved times from the server",
	Long:  `Print every time saved on the configured server, newest first.`,
	RunE:  runTimes,
}

func init() {
	timesCmd.Flags().BoolVar(&timesChart, "chart", false, "Also plot the history")
	rootCmd.AddCommand(timesCmd)
}

func runTimes(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	timeout := config.ParseDuration(cfg.Client.Timeout, 5*time.Second)
	c := client.New(cfg.Client.ServerURL, timeout)

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	records, err := c.Records(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch times from %s: %w", c.BaseURL(), err)
	}

	printRecords(os.Stdout, records)

	if timesChart {
		parser, err := chart.NewParser(0)
		if err != nil {
			return err
		}
		fmt.Println()
		fmt.Println(chart.Render(parser.Series(record.Times(records)), chart.Options{Height: 10}))
	}
	return nil
}

func printRecords(w io.Writer, records []record.Record) {
	header := color.New(color.FgCyan, color.Bold)
	dim := color.New(color.FgHiBlack)

	header.Fprintf(w, "Saved times (%d)\n", len(records))
	if len(records) == 0 {
		dim.Fprintln(w, "No times recorded yet.")
		return
	}

	newest := record.Newest(records)
	for i, rec := range newest {
		fmt.Fprintf(w, "%4d. %s", len(newest)-i, rec.Time)
		if !rec.CreatedAt.IsZero() {
			dim.Fprintf(w, "  %s", rec.CreatedAt.Local().Format(time.DateTime))
		}
		fmt.Fprintln(w)
	}
}
