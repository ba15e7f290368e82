// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/granola-export/internal/export"
	"github.com/pdiddy/granola-export/internal/granola"
	"github.com/pdiddy/granola-export/internal/logger"
	"github.com/pdiddy/granola-export/internal/secrets"
	"github.com/pdiddy/granola-export/internal/state"
	"github.com/pdiddy/granola-export/pkg/types"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export notes and transcripts to Markdown files",
	Long: `Export reads the access token (from GRANOLA_EXPORT_ACCESS_TOKEN, the
.secrets/granola-access-token file, or the Granola desktop session), lists
documents from the Granola API, and writes one Markdown file per note into the
output directory. Transcripts are read from the desktop app's local cache.

Only notes modified since the last successful export (minus a day of overlap)
are considered; pass --full to consider every note and --force to rewrite
notes that have not changed.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().String("output-dir", defaultOutputDir, "directory for exported notes and the state ledger")
	exportCmd.Flags().String("granola-dir", "", "Granola desktop data directory (default: <user config dir>/Granola)")
	exportCmd.Flags().String("secrets-dir", secrets.DefaultDir, "directory of secret files; granola-access-token overrides the desktop session")
	exportCmd.Flags().String("api-base", granola.DefaultBaseURL, "Granola API base URL")
	exportCmd.Flags().Int("limit", 0, "maximum number of documents to fetch (0 fetches all)")
	exportCmd.Flags().Int("page-size", granola.DefaultPageSize, "documents requested per API call")
	exportCmd.Flags().Duration("timeout", granola.DefaultTimeout, "HTTP request timeout")
	exportCmd.Flags().Duration("overlap", export.DefaultOverlap, "overlap subtracted from the last export date")
	exportCmd.Flags().String("timezone", "Local", "time zone for transcript timestamps")
	exportCmd.Flags().Bool("force", false, "rewrite notes even when unchanged")
	exportCmd.Flags().Bool("full", false, "ignore the last export date and consider every note")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	exportCfg, err := exportConfig()
	if err != nil {
		return err
	}
	apiCfg := apiConfig()

	if apiCfg.AccessToken == "" {
		secs, err := secrets.Load(viper.GetString("secrets_dir"))
		if err != nil {
			return err
		}
		if tok, ok := secs.Get(secrets.AccessTokenKey); ok {
			logger.Info("using access token from %s", viper.GetString("secrets_dir"))
			apiCfg.AccessToken = tok
		}
	}
	if apiCfg.AccessToken == "" {
		creds, err := granola.LoadCredentials(exportCfg.GranolaDir)
		if err != nil {
			return fmt.Errorf("loading Granola credentials: %w", err)
		}
		apiCfg.AccessToken = creds.AccessToken
		if creds.Email != "" {
			fmt.Fprintf(os.Stderr, "Authenticated as %s\n", creds.Email)
		}
	}

	transcripts, err := granola.LoadTranscripts(exportCfg.GranolaDir)
	if err != nil {
		logger.Warn("transcripts unavailable: %v", err)
		transcripts = granola.Transcripts{}
	}
	logger.Info("loaded transcripts for %d documents", len(transcripts))

	client := granola.NewClient(nil, apiCfg.AccessToken, apiCfg)
	docs, err := client.ListDocuments(ctx)
	if err != nil {
		var se *granola.StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusUnauthorized {
			return fmt.Errorf("the Granola API rejected the access token; sign in to the desktop app again: %w", err)
		}
		return err
	}
	fmt.Fprintf(os.Stdout, "Fetched %d documents\n", len(docs))

	store, err := state.Open(exportCfg.OutputDir)
	if err != nil {
		return err
	}
	defer store.Close()

	result, err := export.New(store, exportCfg).Run(ctx, docs, transcripts, os.Stdout)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Output directory: %s\n", exportCfg.OutputDir)
	if result.HasFailures() {
		return fmt.Errorf("%d note(s) failed to export", result.Failed)
	}
	return nil
}

func exportConfig() (types.ExportConfig, error) {
	loc, err := loadLocation(viper.GetString("timezone"))
	if err != nil {
		return types.ExportConfig{}, err
	}

	granolaDir := viper.GetString("granola_dir")
	if granolaDir == "" {
		granolaDir, err = granola.DefaultDir()
		if err != nil {
			return types.ExportConfig{}, err
		}
	}

	return types.ExportConfig{
		GranolaDir: granolaDir,
		OutputDir:  viper.GetString("output_dir"),
		Overlap:    viper.GetDuration("overlap"),
		Full:       viper.GetBool("full"),
		Force:      viper.GetBool("force"),
		Location:   loc,
	}, nil
}

func apiConfig() types.APIConfig {
	return types.APIConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   viper.GetDuration("timeout"),
			UserAgent: viper.GetString("user_agent"),
		},
		BaseURL:           viper.GetString("api_base"),
		AccessToken:       viper.GetString("access_token"),
		PageSize:          viper.GetInt("page_size"),
		Limit:             viper.GetInt("limit"),
		RequestsPerSecond: viper.GetFloat64("requests_per_second"),
		MaxRetries:        viper.GetInt("max_retries"),
	}
}
