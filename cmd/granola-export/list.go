// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/granola-export/internal/export"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List exported notes",
	Long: `List reads the YAML preamble of every Markdown file in the output directory
and prints one row per note. Files without a preamble are ignored.`,
	RunE: runList,
}

func init() {
	listCmd.Flags().String("output-dir", defaultOutputDir, "directory holding exported notes")
	listCmd.Flags().Bool("json", false, "output notes as JSON")

	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	notes, err := export.ListNotes(viper.GetString("output_dir"))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatNotes(cmd.OutOrStdout(), notes, jsonOutput)
}

func formatNotes(w io.Writer, notes []export.NoteInfo, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(notes)
	}

	if len(notes) == 0 {
		fmt.Fprintln(w, "No exported notes found.")
		return nil
	}

	fmt.Fprintf(w, "%-10s  %-40s  %-10s  %s\n", "Created", "Title", "Transcript", "File")
	fmt.Fprintln(w, strings.Repeat("-", 100))
	for _, n := range notes {
		created := n.Created
		if len(created) > 10 {
			created = created[:10]
		}
		title := n.Title
		if len([]rune(title)) > 40 {
			title = string([]rune(title)[:37]) + "..."
		}
		transcript := "no"
		if n.HasTranscript {
			transcript = "yes"
		}
		fmt.Fprintf(w, "%-10s  %-40s  %-10s  %s\n", created, title, transcript, n.Path)
	}

	fmt.Fprintf(w, "\n%d notes\n", len(notes))
	return nil
}
