package main

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/seibert-lab/cura/internal/entity"
	"github.com/seibert-lab/cura/internal/remote"
	"github.com/seibert-lab/cura/internal/study"
	"github.com/seibert-lab/cura/internal/syncer"
)

var studyCmd = &cobra.Command{
	Use:   "study",
	Short: "Read and edit studies through the persistence API",
}

var studyGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Fetch one study",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := mustLogger()
		defer logger.Sync()
		s := mustOpenSession(logger)
		defer s.Close()

		store := s.StudyStore(args[0])
		if err := s.Studies.RequestRefresh(context.Background(), store, args[0]); err != nil {
			exitRemoteError(err)
		}

		st, _ := store.Remote()
		if humanOutput {
			outputHuman("%s\n", st.Title)
			if len(st.Authors) > 0 {
				outputHuman("  %s\n", study.FormatAuthors(st.Authors, 10))
			}
			if st.Journal != "" || st.Year != 0 {
				outputHuman("  %s (%d)\n", st.Journal, st.Year)
			}
			if st.DOI != "" {
				outputHuman("  doi: %s\n", st.DOI)
			}
			for _, a := range st.Analyses {
				outputHuman("  analysis %s: %d points\n", a.Name, len(a.Points))
			}
			return nil
		}
		return outputJSON(st)
	},
}

var studyEditFields []string

var studyEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit study fields and save",
	Long: `Fetch the study, apply the given field edits to the working copy,
and push the result. Values parse as JSON where possible, otherwise
as strings; a literal null clears the field.

  cura study edit abc123 --set title="New title" --set year=2020`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := mustLogger()
		defer logger.Sync()
		s := mustOpenSession(logger)
		defer s.Close()

		patch, err := parsePatch(studyEditFields)
		if err != nil {
			exitWithError(ExitError, "%v", err)
		}
		if len(patch) == 0 {
			exitWithError(ExitError, "at least one --set field is required")
		}

		ctx := context.Background()
		store := s.StudyStore(args[0])
		if err := s.Studies.RequestRefresh(ctx, store, args[0]); err != nil {
			exitRemoteError(err)
		}
		if err := store.ApplyLocalEdit(patch); err != nil {
			exitWithError(ExitDataError, "%v", err)
		}
		if err := s.Studies.RequestSave(ctx, store, args[0]); err != nil {
			exitRemoteError(err)
		}

		st, _ := store.Remote()
		if humanOutput {
			outputHuman("Saved %s\n", st.ID)
			return nil
		}
		return outputJSON(st)
	},
}

var studyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a study and invalidate the cached listing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := mustLogger()
		defer logger.Sync()
		s := mustOpenSession(logger)
		defer s.Close()

		if err := s.Studies.RequestDelete(context.Background(), args[0]); err != nil {
			exitRemoteError(err)
		}
		if err := s.Cache.MarkStale(s.Config.ProjectID); err != nil {
			exitWithError(ExitError, "marking cache stale: %v", err)
		}

		if humanOutput {
			outputHuman("Deleted %s\n", args[0])
			return nil
		}
		return outputJSON(StatusResponse{Status: "deleted"})
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Refresh the local study cache from the persistence API",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := mustLogger()
		defer logger.Sync()
		s := mustOpenSession(logger)
		defer s.Close()

		studies, err := remote.List[study.Study](
			context.Background(), s.Client, remote.KindStudy, s.Config.ProjectID)
		if err != nil {
			exitRemoteError(err)
		}
		if err := s.Cache.ReplaceStudies(s.Config.ProjectID, studies); err != nil {
			exitWithError(ExitError, "updating cache: %v", err)
		}
		s.Invalidations.Clear(string(remote.KindStudy))

		if humanOutput {
			outputHuman("Cached %d studies\n", len(studies))
			return nil
		}
		return outputJSON(struct {
			Cached int `json:"cached"`
		}{Cached: len(studies)})
	},
}

// parsePatch converts --set key=value pairs into an entity patch.
func parsePatch(fields []string) (entity.Patch, error) {
	patch := make(entity.Patch, len(fields))
	for _, f := range fields {
		key, raw, ok := strings.Cut(f, "=")
		if !ok || key == "" {
			return nil, errors.New("--set expects key=value, got " + f)
		}

		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			v = raw // Not valid JSON, treat as a plain string
		}
		patch[key] = v
	}
	return patch, nil
}

// exitRemoteError maps persistence and conflict failures to exit codes.
func exitRemoteError(err error) {
	switch {
	case errors.Is(err, syncer.ErrEditConflict):
		exitWithError(ExitConflict, "%v", err)
	case remote.IsNotFound(err):
		exitWithError(ExitDataError, "%v", err)
	case remote.IsUnavailable(err) || remote.IsRejected(err):
		exitWithError(ExitRemoteError, "%v", err)
	default:
		exitWithError(ExitError, "%v", err)
	}
}

func init() {
	studyEditCmd.Flags().StringArrayVar(&studyEditFields, "set", nil, "Field edit as key=value (repeatable)")

	studyCmd.AddCommand(studyGetCmd)
	studyCmd.AddCommand(studyEditCmd)
	studyCmd.AddCommand(studyDeleteCmd)
	rootCmd.AddCommand(studyCmd)
	rootCmd.AddCommand(syncCmd)
}
