package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"tkscraper/pkg/logger"
	"tkscraper/pkg/ui"
)

var (
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:   "tkscraper",
	Short: "Discover TikTok creators by keyword and push their profiles to an ingestion API",
	Long: `tkscraper searches TikTok for a keyword or hashtag, collects one video per
creator with its comments and replies, enriches the creator from their public
profile and posts an influencer profile to an ingestion API.

Features:
  - Concurrent per-video processing with a bounded worker pool
  - Comment and reply pagination with creator-reply tagging
  - Engagement rate and last-post date per creator
  - Optional local JSON dataset of every processed record
  - Supervised runs that restart after a configurable delay
  - Secure session storage using the system keychain`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", logger.Version, gitCommit, buildDate),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet || logLevel == "error" {
			ui.SetQuietMode(true)
		}

		switch cmd.Name() {
		case "version", "help", "completion":
			return
		}
		if tuiFlag := cmd.Flags().Lookup("tui"); tuiFlag != nil && tuiFlag.Value.String() == "true" {
			return
		}
		ui.PrintLogo()
	},
	SilenceUsage: true,
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.PrintError("Error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./.tkscraper.yaml or ~/.config/tkscraper/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")

	rootCmd.SetVersionTemplate(`tkscraper {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)
	rootCmd.SilenceErrors = true
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
