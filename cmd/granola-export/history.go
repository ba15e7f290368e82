// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/granola-export/internal/state"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded export runs",
	Long: `History prints the export runs recorded in the state ledger, newest first.
--export writes the whole ledger (runs and exported notes) to ledger.yaml or
ledger.json in the output directory.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().String("output-dir", defaultOutputDir, "directory holding the state ledger")
	historyCmd.Flags().Int("max-results", 20, "maximum number of runs to show (0 shows all)")
	historyCmd.Flags().Bool("json", false, "output runs as JSON")
	historyCmd.Flags().String("export", "", "write the ledger to the output directory: yaml or json")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	dir := viper.GetString("output_dir")
	format, _ := cmd.Flags().GetString("export")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	store, err := state.OpenExisting(dir)
	if errors.Is(err, state.ErrNoLedger) {
		if format != "" {
			return fmt.Errorf("no export ledger in %s: run export first", dir)
		}
		return formatRuns(cmd.OutOrStdout(), []state.Run{}, jsonOutput)
	}
	if err != nil {
		return err
	}
	defer store.Close()

	switch format {
	case "":
	case "yaml":
		path, err := store.ExportYAML(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", path)
		return nil
	case "json":
		path, err := store.ExportJSON(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", path)
		return nil
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}

	maxResults, _ := cmd.Flags().GetInt("max-results")
	runs, err := store.Runs(ctx, maxResults)
	if err != nil {
		return err
	}
	return formatRuns(cmd.OutOrStdout(), runs, jsonOutput)
}

func formatRuns(w io.Writer, runs []state.Run, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(w, "No export runs recorded.")
		return nil
	}

	fmt.Fprintf(w, "%-4s  %-20s  %-8s  %5s  %5s  %9s  %7s  %6s  %11s\n",
		"Run", "Started", "Duration", "Fetch", "Saved", "Unchanged", "Skipped", "Failed", "Transcripts")
	fmt.Fprintln(w, strings.Repeat("-", 95))
	for _, r := range runs {
		duration := "-"
		if !r.FinishedAt.IsZero() {
			duration = r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String()
		}
		fmt.Fprintf(w, "%-4d  %-20s  %-8s  %5d  %5d  %9d  %7d  %6d  %11d\n",
			r.ID, r.StartedAt.Local().Format("2006-01-02 15:04:05"), duration,
			r.Fetched, r.Saved, r.Unchanged, r.Skipped, r.Failed, r.Transcripts)
	}
	return nil
}
