package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/seibert-lab/cura/internal/dupe"
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Show the curation board",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := mustLogger()
		defer logger.Sync()
		s := mustOpenSession(logger)
		defer s.Close()

		if humanOutput {
			for i, col := range s.Pipeline.Columns() {
				outputHuman("%d. %s (%d)\n", i, col.Name, len(col.StubIDs))
				stubs, err := s.Pipeline.StubsIn(i)
				if err != nil {
					return err
				}
				for _, stub := range stubs {
					marker := "  "
					if stub.ExclusionTag != "" {
						marker = "  [" + stub.ExclusionTag + "] "
					}
					outputHuman("%s%s  %s\n", marker, stub.ID, formatStubLine(stub))
				}
			}
			return nil
		}
		return outputJSON(s.Pipeline.State())
	},
}

var moveCmd = &cobra.Command{
	Use:   "move <stub-id> <from-column> <to-column>",
	Short: "Move a stub between board columns",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := mustLogger()
		defer logger.Sync()
		s := mustOpenSession(logger)
		defer s.Close()

		from, err := strconv.Atoi(args[1])
		if err != nil {
			exitWithError(ExitError, "from-column must be an index: %v", err)
		}
		to, err := strconv.Atoi(args[2])
		if err != nil {
			exitWithError(ExitError, "to-column must be an index: %v", err)
		}

		if err := s.Pipeline.MoveStub(args[0], from, to); err != nil {
			exitWithError(ExitDataError, "%v", err)
		}
		mustSaveSession(s)

		if humanOutput {
			outputHuman("Moved %s to column %d\n", args[0], to)
			return nil
		}
		return outputJSON(StatusResponse{Status: "moved"})
	},
}

var promoteCmd = &cobra.Command{
	Use:   "promote",
	Short: "Apply resolved duplicate cases to the board",
	Long: `For every resolved case, move duplicates into the exclusion column
and advance cleared stubs to the next workflow column. Unresolved
cases are left for further adjudication.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := mustLogger()
		defer logger.Sync()
		s := mustOpenSession(logger)
		defer s.Close()

		report, err := s.Pipeline.PromoteResolvedDuplicates(s.Ledger.Cases())
		if err != nil {
			exitWithError(ExitDataError, "%v", err)
		}

		// Applied cases leave the ledger; pending ones stay for the
		// next adjudication round.
		var remaining []dupe.Case
		for _, c := range s.Ledger.Cases() {
			if !c.Resolved() {
				remaining = append(remaining, c)
			}
		}
		s.ResetLedger(remaining)
		mustSaveSession(s)

		if humanOutput {
			outputHuman("Excluded %d, advanced %d, skipped %d pending\n",
				report.Excluded, report.Advanced, report.Skipped)
			return nil
		}
		return outputJSON(report)
	},
}

func init() {
	rootCmd.AddCommand(boardCmd)
	rootCmd.AddCommand(moveCmd)
	rootCmd.AddCommand(promoteCmd)
}
