package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/seibert-lab/cura/internal/entity"
	"github.com/seibert-lab/cura/internal/study"
)

var annotationCmd = &cobra.Command{
	Use:     "annotation",
	Aliases: []string{"ann"},
	Short:   "Read and edit annotations through the persistence API",
}

var annotationGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Fetch one annotation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := mustLogger()
		defer logger.Sync()
		s := mustOpenSession(logger)
		defer s.Close()

		store := s.AnnotationStore(args[0])
		if err := s.Annotations.RequestRefresh(context.Background(), store, args[0]); err != nil {
			exitRemoteError(err)
		}

		a, _ := store.Remote()
		if humanOutput {
			outputHuman("%s (study %s)\n", a.ID, a.StudyID)
			for _, kt := range a.Schema {
				line := "  " + kt.Key + " (" + string(kt.Type) + ")"
				if v, ok := a.Notes[kt.Key]; ok {
					raw, _ := json.Marshal(v)
					line += " = " + string(raw)
				}
				outputHuman("%s\n", line)
			}
			return nil
		}
		return outputJSON(a)
	},
}

var annotationNoteFields []string

var annotationEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit annotation notes and save",
	Long: `Fetch the annotation, apply the given note edits to the working
copy, and push the result. Every key must be declared by the
annotation's note schema and every value must match the declared
type; a literal null clears a value. Values parse as JSON where
possible, otherwise as strings.

  cura annotation edit abc123 --note quality=4 --note included=true`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := mustLogger()
		defer logger.Sync()
		s := mustOpenSession(logger)
		defer s.Close()

		if len(annotationNoteFields) == 0 {
			exitWithError(ExitError, "at least one --note field is required")
		}

		ctx := context.Background()
		store := s.AnnotationStore(args[0])
		if err := s.Annotations.RequestRefresh(ctx, store, args[0]); err != nil {
			exitRemoteError(err)
		}

		local, _ := store.Local()
		patch, err := buildNotePatch(local, annotationNoteFields)
		if err != nil {
			exitWithError(ExitDataError, "%v", err)
		}
		if err := store.ApplyLocalEdit(patch); err != nil {
			exitWithError(ExitDataError, "%v", err)
		}
		if err := s.Annotations.RequestSave(ctx, store, args[0]); err != nil {
			exitRemoteError(err)
		}

		a, _ := store.Remote()
		if humanOutput {
			outputHuman("Saved %s\n", a.ID)
			return nil
		}
		return outputJSON(a)
	},
}

// buildNotePatch merges --note key=value pairs into the annotation's
// notes and validates the merged map against the declared schema.
// Nothing reaches the working copy unless every value conforms.
func buildNotePatch(a study.Annotation, fields []string) (entity.Patch, error) {
	merged := make(map[string]study.NoteValue, len(a.Notes)+len(fields))
	for k, v := range a.Notes {
		merged[k] = v
	}
	for _, f := range fields {
		key, raw, ok := strings.Cut(f, "=")
		if !ok || key == "" {
			return nil, errors.New("--note expects key=value, got " + f)
		}
		val, err := parseNoteValue(raw)
		if err != nil {
			return nil, fmt.Errorf("note %s: %w", key, err)
		}
		merged[key] = val
	}
	if err := study.ValidateNotes(a.Schema, merged); err != nil {
		return nil, err
	}
	return entity.Patch{"notes": merged}, nil
}

// parseNoteValue decodes a flag value as JSON when it is valid JSON,
// otherwise as a plain string.
func parseNoteValue(raw string) (study.NoteValue, error) {
	if !json.Valid([]byte(raw)) {
		return study.StringValue(raw), nil
	}
	var v study.NoteValue
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return study.NoteValue{}, err
	}
	return v, nil
}

func init() {
	annotationEditCmd.Flags().StringArrayVar(&annotationNoteFields, "note", nil, "Note edit as key=value (repeatable)")

	annotationCmd.AddCommand(annotationGetCmd)
	annotationCmd.AddCommand(annotationEditCmd)
	rootCmd.AddCommand(annotationCmd)
}
