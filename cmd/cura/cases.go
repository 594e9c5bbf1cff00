package main

import (
	"github.com/spf13/cobra"

	"github.com/seibert-lab/cura/internal/dupe"
)

var casesPendingOnly bool

var casesCmd = &cobra.Command{
	Use:   "cases",
	Short: "List duplicate cases awaiting adjudication",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := mustLogger()
		defer logger.Sync()
		s := mustOpenSession(logger)
		defer s.Close()

		cases := s.Ledger.Cases()
		if casesPendingOnly {
			var pending []dupe.Case
			for _, c := range cases {
				if !c.Resolved() {
					pending = append(pending, c)
				}
			}
			cases = pending
		}

		if humanOutput {
			if len(cases) == 0 {
				outputHuman("No duplicate cases.\n")
				return nil
			}
			for _, c := range cases {
				status := "pending"
				if c.Resolved() {
					status = "resolved"
				}
				outputHuman("%s [%s] %s\n", c.ID, status, formatStubLine(c.Stub))
				for i, cand := range c.Candidates {
					outputHuman("  %d. [%s %.2f %s] %s\n",
						i, cand.MatchedBy, cand.Score, cand.Resolution, formatStubLine(cand.Stub))
				}
			}
			return nil
		}
		return outputJSON(cases)
	},
}

var (
	resolveDuplicate    bool
	resolveNotDuplicate bool
	resolveDismiss      bool
	resolveCandidate    int
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <case-id>",
	Short: "Adjudicate one duplicate case",
	Long: `Record the duplicate decision for one candidate of a case, or
dismiss the whole case as a false positive with --dismiss. A case is
resolved once every candidate has a decision; run 'cura promote' to
apply resolved cases to the board.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := mustLogger()
		defer logger.Sync()
		s := mustOpenSession(logger)
		defer s.Close()

		caseID := args[0]
		var err error
		switch {
		case resolveDismiss:
			err = s.Ledger.AutoResolveAllNotDuplicate(caseID)
		case resolveDuplicate:
			err = s.Ledger.MarkDuplicate(caseID, resolveCandidate)
		case resolveNotDuplicate:
			err = s.Ledger.MarkNotDuplicate(caseID, resolveCandidate)
		default:
			exitWithError(ExitError, "one of --duplicate, --not-duplicate, or --dismiss is required")
		}
		if err != nil {
			exitWithError(ExitDataError, "%v", err)
		}
		mustSaveSession(s)

		c, _ := s.Ledger.Case(caseID)
		if humanOutput {
			status := "pending"
			if c.Resolved() {
				status = "resolved"
			}
			outputHuman("Case %s is %s (%d candidates pending)\n", caseID, status, c.Pending())
			return nil
		}
		return outputJSON(c)
	},
}

func init() {
	casesCmd.Flags().BoolVar(&casesPendingOnly, "pending", false, "Show only unresolved cases")

	resolveCmd.Flags().BoolVar(&resolveDuplicate, "duplicate", false, "Mark the candidate as an actual duplicate")
	resolveCmd.Flags().BoolVar(&resolveNotDuplicate, "not-duplicate", false, "Mark the candidate as a false positive")
	resolveCmd.Flags().BoolVar(&resolveDismiss, "dismiss", false, "Mark every pending candidate as not-duplicate")
	resolveCmd.Flags().IntVar(&resolveCandidate, "candidate", 0, "Candidate index within the case")

	rootCmd.AddCommand(casesCmd)
	rootCmd.AddCommand(resolveCmd)
}
