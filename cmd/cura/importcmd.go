package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/seibert-lab/cura/internal/dupe"
	"github.com/seibert-lab/cura/internal/ingest"
	"github.com/seibert-lab/cura/internal/session"
	"github.com/seibert-lab/cura/internal/study"
)

// entryColumn is where imported stubs land before screening.
const entryColumn = 0

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import studies from files or manual entry",
}

var importSleuthCmd = &cobra.Command{
	Use:   "sleuth <file>",
	Short: "Import a Sleuth bibliography text file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := mustLogger()
		defer logger.Sync()
		s := mustOpenSession(logger)
		defer s.Close()

		data, err := os.ReadFile(args[0])
		if err != nil {
			exitWithError(ExitDataError, "reading %s: %v", args[0], err)
		}

		file, parseErrs := ingest.ParseSleuth(data)
		res := ingest.NewNormalizer(logger).NormalizeSleuthBatch(file.Entries)
		for _, e := range parseErrs {
			res.Errors = append(res.Errors, e)
		}

		return finishImport(s, res)
	},
}

var importPubMedCmd = &cobra.Command{
	Use:   "pubmed <file>",
	Short: "Import a JSON file of PubMed summary records",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := mustLogger()
		defer logger.Sync()
		s := mustOpenSession(logger)
		defer s.Close()

		data, err := os.ReadFile(args[0])
		if err != nil {
			exitWithError(ExitDataError, "reading %s: %v", args[0], err)
		}

		articles, err := ingest.ParsePubMedSummaries(data)
		if err != nil {
			exitWithError(ExitDataError, "parsing %s: %v", args[0], err)
		}
		res := ingest.NewNormalizer(logger).NormalizePubMedBatch(articles)

		return finishImport(s, res)
	},
}

var importPDFCmd = &cobra.Command{
	Use:   "pdf <file>...",
	Short: "Import studies by extracting identifiers from PDFs",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := mustLogger()
		defer logger.Sync()
		s := mustOpenSession(logger)
		defer s.Close()

		n := ingest.NewNormalizer(logger)
		var res ingest.BatchResult
		for _, path := range args {
			stub, err := n.FromPDF(path)
			if err != nil {
				res.Errors = append(res.Errors, err)
				continue
			}
			res.Stubs = append(res.Stubs, stub)
		}

		return finishImport(s, res)
	},
}

var manualEntry ingest.ManualEntry

var importManualCmd = &cobra.Command{
	Use:   "manual",
	Short: "Add a single study by hand",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := mustLogger()
		defer logger.Sync()
		s := mustOpenSession(logger)
		defer s.Close()

		stub, err := ingest.NewNormalizer(logger).FromManual(manualEntry)
		if err != nil {
			exitWithError(ExitDataError, "%v", err)
		}

		return finishImport(s, ingest.BatchResult{Stubs: []study.Stub{stub}})
	},
}

// finishImport runs duplicate detection over the normalized batch,
// places the stubs on the board, and persists the session.
func finishImport(s *session.Session, res ingest.BatchResult) error {
	if len(res.Stubs) == 0 && len(res.Errors) == 0 {
		exitWithError(ExitDataError, "nothing to import")
	}

	// Position the new stubs where they will land so candidate
	// references carry their final coordinates.
	base, err := s.Pipeline.StubsIn(entryColumn)
	if err != nil {
		return err
	}
	newLocated := make([]dupe.Located, len(res.Stubs))
	for i, stub := range res.Stubs {
		newLocated[i] = dupe.Located{Stub: stub, ColumnIndex: entryColumn, StudyIndex: len(base) + i}
	}

	existing := s.Pipeline.LocatedAll()
	existing = append(existing, cachedLocated(s)...)

	newCases := dupe.FindDuplicates(newLocated, existing)

	if err := s.Pipeline.AddStubs(entryColumn, res.Stubs); err != nil {
		exitWithError(ExitDataError, "placing stubs: %v", err)
	}
	s.ResetLedger(append(s.Ledger.Cases(), newCases...))
	mustSaveSession(s)

	resp := ImportResponse{
		Imported: len(res.Stubs),
		Skipped:  res.Skipped(),
		Cases:    len(newCases),
	}
	for _, e := range res.Errors {
		resp.Errors = append(resp.Errors, e.Error())
	}

	if humanOutput {
		outputHuman("Imported %d studies (%d skipped, %d duplicate cases)\n",
			resp.Imported, resp.Skipped, resp.Cases)
		for _, stub := range res.Stubs {
			outputHuman("  + %s\n", truncateString(stub.Title, ImportTitleMaxLen))
		}
		for _, msg := range resp.Errors {
			fmt.Fprintf(os.Stderr, "  skipped: %s\n", msg)
		}
		return nil
	}
	return outputJSON(resp)
}

// cachedLocated exposes the project's remotely cached studies to the
// matcher. They are not on the board, so they carry no column.
func cachedLocated(s *session.Session) []dupe.Located {
	studies, err := s.Cache.Studies(s.Config.ProjectID)
	if err != nil {
		s.Logger.Warn("reading study cache", zap.Error(err))
		return nil
	}

	out := make([]dupe.Located, len(studies))
	for i, st := range studies {
		out[i] = dupe.Located{
			Stub: study.Stub{
				ID:      st.ID,
				Title:   st.Title,
				Authors: st.Authors,
				Journal: st.Journal,
				Year:    st.Year,
				DOI:     st.DOI,
				PMID:    st.PMID,
				Source:  study.SourceRemoteSearch,
			},
			ColumnIndex: -1,
			StudyIndex:  i,
		}
	}
	return out
}

func init() {
	importManualCmd.Flags().StringVar(&manualEntry.Title, "title", "", "Study title")
	importManualCmd.Flags().StringVar(&manualEntry.Authors, "authors", "", "Author list, e.g. \"Smith J; Jones K\"")
	importManualCmd.Flags().StringVar(&manualEntry.Journal, "journal", "", "Journal name")
	importManualCmd.Flags().IntVar(&manualEntry.Year, "year", 0, "Publication year")
	importManualCmd.Flags().StringVar(&manualEntry.DOI, "doi", "", "DOI")
	importManualCmd.Flags().StringVar(&manualEntry.PMID, "pmid", "", "PubMed ID")
	importManualCmd.Flags().StringVar(&manualEntry.Note, "note", "", "Free-form note")

	importCmd.AddCommand(importSleuthCmd)
	importCmd.AddCommand(importPubMedCmd)
	importCmd.AddCommand(importPDFCmd)
	importCmd.AddCommand(importManualCmd)
	rootCmd.AddCommand(importCmd)
}
