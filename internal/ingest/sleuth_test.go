package ingest

import (
	"strings"
	"testing"
)

const sampleSleuth = `// Reference=MNI

// DOI=10.1002/hbm.23456
// PubMedId=12345678
// Smith et al., 2019: Working Memory
// Subjects=12
-42.0  24.0  30.0
 36.0 -58.0  44.0

// Garcia & Lee, 2004
0.0  0.0  0.0
`

func TestParseSleuth(t *testing.T) {
	file, errs := ParseSleuth([]byte(sampleSleuth))
	if len(errs) != 0 {
		t.Fatalf("ParseSleuth() errors = %v", errs)
	}
	if file.Space != "MNI" {
		t.Errorf("Space = %q, want MNI", file.Space)
	}
	if len(file.Entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(file.Entries))
	}

	e := file.Entries[0]
	if e.DOI != "10.1002/hbm.23456" {
		t.Errorf("DOI = %q", e.DOI)
	}
	if e.PMID != "12345678" {
		t.Errorf("PMID = %q", e.PMID)
	}
	if e.AuthorYear != "Smith et al., 2019" {
		t.Errorf("AuthorYear = %q", e.AuthorYear)
	}
	if e.AnalysisName != "Working Memory" {
		t.Errorf("AnalysisName = %q", e.AnalysisName)
	}
	if e.Subjects != 12 {
		t.Errorf("Subjects = %d, want 12", e.Subjects)
	}
	if e.Space != "MNI" {
		t.Errorf("entry Space = %q, want MNI", e.Space)
	}
	if len(e.Coordinates) != 2 {
		t.Fatalf("got %d coordinates, want 2", len(e.Coordinates))
	}
	if e.Coordinates[0].X != -42 || e.Coordinates[0].Y != 24 || e.Coordinates[0].Z != 30 {
		t.Errorf("first coordinate = %+v", e.Coordinates[0])
	}

	e = file.Entries[1]
	if e.AuthorYear != "Garcia & Lee, 2004" {
		t.Errorf("AuthorYear = %q", e.AuthorYear)
	}
	if e.AnalysisName != "" {
		t.Errorf("AnalysisName = %q, want empty", e.AnalysisName)
	}
	if len(e.Coordinates) != 1 {
		t.Errorf("got %d coordinates, want 1", len(e.Coordinates))
	}
}

func TestParseSleuth_MalformedBlocks(t *testing.T) {
	input := strings.Join([]string{
		"// Smith et al., 2010",
		"1.0 2.0 3.0",
		"",
		"// Jones, 2011",
		"not a coordinate",
		"",
		"4.0 5.0 6.0", // coordinates with no label or identifier
	}, "\n")

	file, errs := ParseSleuth([]byte(input))
	if len(file.Entries) != 1 {
		t.Errorf("got %d entries, want 1", len(file.Entries))
	}
	if len(errs) != 2 {
		t.Fatalf("got %d errors, want 2: %v", len(errs), errs)
	}
	for _, err := range errs {
		if !IsMalformed(err) {
			t.Errorf("error %v should be a malformed record", err)
		}
	}
}

func TestParseSleuth_DirectiveOnlyBlockSkipped(t *testing.T) {
	input := "// Reference=TAL\n\n// Subjects=5\n"
	file, errs := ParseSleuth([]byte(input))
	if len(errs) != 0 {
		t.Fatalf("errors = %v", errs)
	}
	if len(file.Entries) != 0 {
		t.Errorf("got %d entries, want 0", len(file.Entries))
	}
	if file.Space != "TAL" {
		t.Errorf("Space = %q, want TAL", file.Space)
	}
}

func TestParseSleuth_Empty(t *testing.T) {
	file, errs := ParseSleuth(nil)
	if len(errs) != 0 || len(file.Entries) != 0 {
		t.Errorf("empty input: entries = %d, errors = %v", len(file.Entries), errs)
	}
}

func TestParseCoordinate(t *testing.T) {
	tests := []struct {
		line    string
		wantErr bool
	}{
		{"1.0 2.0 3.0", false},
		{"-42  24\t30", false},
		{"1.0 2.0", true},
		{"1.0 2.0 3.0 4.0", true},
		{"a b c", true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			_, err := parseCoordinate(tt.line)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseCoordinate(%q) error = %v, wantErr %v", tt.line, err, tt.wantErr)
			}
		})
	}
}
