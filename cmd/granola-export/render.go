// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/granola-export/internal/render"
	"github.com/pdiddy/granola-export/pkg/types"
)

var renderCmd = &cobra.Command{
	Use:   "render [file|-]",
	Short: "Render a ProseMirror JSON document as Markdown",
	Long: `Render reads a ProseMirror document tree (or a whole Granola document, in
which case its summary panel or notes are used) from a file or stdin and
prints the Markdown. --transcript appends a rendered utterance array.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().String("transcript", "", "JSON file with an utterance array to append")
	renderCmd.Flags().String("timezone", "Local", "time zone for transcript timestamps")

	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	src := "-"
	if len(args) == 1 {
		src = args[0]
	}
	data, err := readInput(cmd.InOrStdin(), src)
	if err != nil {
		return err
	}
	tree, err := decodeTree(data)
	if err != nil {
		return err
	}

	out := render.Document(tree)

	transcriptFile, _ := cmd.Flags().GetString("transcript")
	if transcriptFile != "" {
		raw, err := os.ReadFile(transcriptFile)
		if err != nil {
			return fmt.Errorf("reading transcript: %w", err)
		}
		var utterances []types.Utterance
		if err := json.Unmarshal(raw, &utterances); err != nil {
			return fmt.Errorf("parsing transcript %s: %w", transcriptFile, err)
		}
		loc, err := loadLocation(viper.GetString("timezone"))
		if err != nil {
			return err
		}
		r := &render.TranscriptRenderer{Location: loc}
		out += "\n\n---\n\n" + r.Render(utterances)
	}

	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

func readInput(stdin io.Reader, src string) ([]byte, error) {
	if src == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", src, err)
	}
	return data, nil
}

// decodeTree accepts either a bare node or a Granola document object.
func decodeTree(data []byte) (*types.DocumentNode, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("parsing document JSON: %w", err)
	}
	if _, ok := fields["type"]; ok {
		var node types.DocumentNode
		if err := json.Unmarshal(data, &node); err != nil {
			return nil, fmt.Errorf("parsing document JSON: %w", err)
		}
		return &node, nil
	}

	var doc types.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing document JSON: %w", err)
	}
	return doc.Summary(), nil
}
