package ingest

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/seibert-lab/cura/internal/study"
)

// SleuthEntry is one study block from a Sleuth text export: comment
// lines carrying identifiers and the author/year label, followed by
// whitespace-separated coordinate rows.
type SleuthEntry struct {
	DOI          string
	PMID         string
	AuthorYear   string // e.g. "Smith et al., 2019"
	AnalysisName string // text after ":" on the author/year line
	Subjects     int
	Space        string // coordinate reference space, e.g. "MNI"
	Coordinates  []study.Point
}

// SleuthFile is a parsed Sleuth export.
type SleuthFile struct {
	Space   string
	Entries []SleuthEntry
}

// ParseSleuth parses a Sleuth bibliography export. Blocks that cannot
// be parsed are reported as malformed-record errors alongside the
// entries that succeeded; the batch proceeds.
//
// Format, per block (blank-line separated):
//
//	// Reference=MNI
//	// DOI=10.1002/hbm.23456
//	// PubMedId=12345678
//	// Smith et al., 2019: Working Memory
//	// Subjects=12
//	-42.0  24.0  30.0
//	 36.0 -58.0  44.0
func ParseSleuth(data []byte) (SleuthFile, []error) {
	var file SleuthFile
	var errs []error

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var block []string
	blockStart := 1
	line := 0

	flush := func() {
		if len(block) == 0 {
			return
		}
		entry, err := parseSleuthBlock(block, file.Space)
		if err != nil {
			errs = append(errs, &RecordError{
				Index:  len(file.Entries) + len(errs),
				Source: fmt.Sprintf("sleuth block at line %d", blockStart),
				Reason: err.Error(),
			})
		} else if entry != nil {
			file.Entries = append(file.Entries, *entry)
		}
		block = nil
	}

	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			flush()
			continue
		}
		// File-wide reference space header may precede any block.
		if space, ok := parseDirective(text, "Reference"); ok && file.Space == "" {
			file.Space = space
			continue
		}
		if len(block) == 0 {
			blockStart = line
		}
		block = append(block, text)
	}
	flush()

	if err := scanner.Err(); err != nil {
		errs = append(errs, fmt.Errorf("reading sleuth file: %w", err))
	}

	return file, errs
}

// parseSleuthBlock parses one block of comment and coordinate lines.
// Returns (nil, nil) for blocks that contain only directives.
func parseSleuthBlock(lines []string, space string) (*SleuthEntry, error) {
	entry := &SleuthEntry{Space: space}

	sawLabel := false
	for _, l := range lines {
		if strings.HasPrefix(l, "//") {
			comment := strings.TrimSpace(strings.TrimPrefix(l, "//"))
			if comment == "" {
				continue
			}
			if v, ok := parseDirective(l, "DOI"); ok {
				entry.DOI = v
				continue
			}
			if v, ok := parseDirective(l, "PubMedId"); ok {
				entry.PMID = v
				continue
			}
			if v, ok := parseDirective(l, "Subjects"); ok {
				if n, err := strconv.Atoi(v); err == nil {
					entry.Subjects = n
				}
				continue
			}
			if v, ok := parseDirective(l, "Reference"); ok {
				entry.Space = v
				continue
			}
			// First free-form comment is the author/year label, with an
			// optional ": analysis name" suffix.
			if !sawLabel {
				sawLabel = true
				if idx := strings.Index(comment, ":"); idx >= 0 {
					entry.AuthorYear = strings.TrimSpace(comment[:idx])
					entry.AnalysisName = strings.TrimSpace(comment[idx+1:])
				} else {
					entry.AuthorYear = comment
				}
			}
			continue
		}

		pt, err := parseCoordinate(l)
		if err != nil {
			return nil, err
		}
		entry.Coordinates = append(entry.Coordinates, pt)
	}

	if !sawLabel && entry.DOI == "" && entry.PMID == "" {
		if len(entry.Coordinates) == 0 {
			return nil, nil // Directive-only block, nothing to import
		}
		return nil, fmt.Errorf("coordinate block has no study label or identifier")
	}

	return entry, nil
}

// parseDirective matches "// Key=Value" comment lines.
func parseDirective(line, key string) (string, bool) {
	comment := strings.TrimSpace(strings.TrimPrefix(line, "//"))
	if !strings.HasPrefix(comment, key) {
		return "", false
	}
	rest := strings.TrimSpace(comment[len(key):])
	if !strings.HasPrefix(rest, "=") {
		return "", false
	}
	return strings.TrimSpace(rest[1:]), true
}

// parseCoordinate parses one whitespace-separated x y z row.
func parseCoordinate(line string) (study.Point, error) {
	fields := strings.Fields(line)
	if len(fields) != 3 {
		return study.Point{}, fmt.Errorf("coordinate row %q: want 3 values, got %d", line, len(fields))
	}
	var vals [3]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return study.Point{}, fmt.Errorf("coordinate row %q: %w", line, err)
		}
		vals[i] = v
	}
	return study.Point{X: vals[0], Y: vals[1], Z: vals[2]}, nil
}
