// Package main provides the cura CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/seibert-lab/cura/internal/notify"
	"github.com/seibert-lab/cura/internal/session"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

// verbose enables debug logging
var verbose bool

func main() {
	// Pick up CURA_API_KEY and friends from a local .env if present
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		// Print the error since we have SilenceErrors: true
		// This ensures Cobra errors (like missing required flags) are visible
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "cura",
	Short: "Study curation and reconciliation CLI",
	Long: `cura assembles a corpus of scientific studies from remote search,
bibliography files, PDFs, and manual entry, then curates it through a
staged workflow.

Core features:
  - Import from Sleuth bibliography files, PubMed summaries, and PDFs
  - Duplicate detection within a batch and against the project
  - Case-by-case adjudication of candidate duplicates
  - A column board tracking each study's curation stage
  - Dirty-tracked study editing synced against the persistence API

Board and case state live in git-versionable JSON under .cura/ with an
ephemeral SQLite cache of remote studies. All commands output JSON by
default for scripting.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")
	rootCmd.Version = Version
}

// mustLogger builds the command logger, exits on error.
func mustLogger() *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	if verbose {
		cfg = zap.NewDevelopmentConfig()
		cfg.OutputPaths = []string{"stderr"}
	}
	logger, err := cfg.Build()
	if err != nil {
		exitWithError(ExitError, "building logger: %v", err)
	}
	return logger
}

// mustOpenSession opens the project session rooted at the working
// directory, exits on error. The caller is responsible for Close.
func mustOpenSession(logger *zap.Logger) *session.Session {
	cwd, err := os.Getwd()
	if err != nil {
		exitWithError(ExitError, "getting current directory: %v", err)
	}

	s, err := session.Open(cwd, logger)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	// Surface engine events as they happen in human mode; JSON
	// consumers read the command's structured response instead.
	if humanOutput {
		s.Hub.Subscribe(func(e notify.Event) {
			fmt.Fprintf(os.Stderr, "[%s] %s\n", e.Level, e.Message)
		})
	}
	return s
}

// mustSaveSession persists board and case state, exits on error.
func mustSaveSession(s *session.Session) {
	if err := s.Save(); err != nil {
		exitWithError(ExitError, "saving project state: %v", err)
	}
}
