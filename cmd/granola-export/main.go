// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the granola-export CLI. It exports
// Granola meeting notes, with their AI summaries and transcripts, to a
// directory of Markdown files.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pdiddy/granola-export/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

const (
	appName          = "granola-export"
	envPrefix        = "GRANOLA_EXPORT"
	defaultOutputDir = "granola-notes"
)

// rootCmd is the base command for the granola-export CLI.
var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "Export Granola meeting notes to Markdown",
	Long: `granola-export reads the Granola desktop app's session and transcript cache,
lists your documents from the Granola API, and writes one Markdown file per
note: a YAML preamble, the AI summary, and the full transcript when one exists.

Runs are incremental. A SQLite ledger in the output directory remembers what
was exported, so later runs only rewrite notes that changed.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := bindFlags(cmd.Flags()); err != nil {
			return err
		}
		logger.SetVerbose(viper.GetBool("verbose"))
		if used := viper.ConfigFileUsed(); used != "" {
			logger.Info("using config file %s", used)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./granola-export.yaml or ~/.config/granola-export/granola-export.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "print diagnostic logs to stderr")

	viper.SetDefault("output_dir", defaultOutputDir)
	viper.SetDefault("timezone", "Local")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(appName)
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", appName))
		}
	}

	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfgFile != "" {
			fmt.Fprintf(os.Stderr, "Error reading config file %s: %v\n", cfgFile, err)
		}
	}
}

// bindFlags binds every flag of the running command to the viper key of
// the same name with dashes turned into underscores, so config files and
// GRANOLA_EXPORT_* variables fill in flags the user did not pass.
func bindFlags(flags *pflag.FlagSet) error {
	var err error
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Name == "config" || err != nil {
			return
		}
		err = viper.BindPFlag(configKey(f.Name), f)
	})
	if err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}
	return nil
}

func configKey(flag string) string {
	return strings.ReplaceAll(flag, "-", "_")
}

// loadLocation resolves the configured time zone. Empty and "Local" mean the
// system zone.
func loadLocation(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("loading time zone %q: %w", name, err)
	}
	return loc, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
