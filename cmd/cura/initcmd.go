package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/seibert-lab/cura/internal/config"
)

var (
	initProjectID string
	initColumns   []string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a cura project in the current directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting current directory: %w", err)
		}

		if config.IsProject(cwd) {
			exitWithError(ExitConfigError, "already a cura project: %s", config.CuraPath(cwd))
		}
		if err := os.MkdirAll(config.CuraPath(cwd), 0755); err != nil {
			return fmt.Errorf("creating project directory: %w", err)
		}

		cfg := &config.Config{
			ProjectID: initProjectID,
			Columns:   initColumns,
		}
		if err := cfg.Save(cwd); err != nil {
			return err
		}

		if humanOutput {
			outputHuman("Initialized cura project in %s\n", config.CuraPath(cwd))
			return nil
		}
		return outputJSON(StatusResponse{Status: "initialized", Path: config.CuraPath(cwd)})
	},
}

func init() {
	initCmd.Flags().StringVar(&initProjectID, "project", "", "Remote project identifier")
	initCmd.Flags().StringSliceVar(&initColumns, "columns", nil, "Workflow column names (default: search results, screening, eligibility, included)")
	rootCmd.AddCommand(initCmd)
}
