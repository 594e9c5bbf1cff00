package ingest

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/seibert-lab/cura/internal/study"
)

// seqIDs replaces UUID assignment with a deterministic sequence.
func seqIDs(n *Normalizer) {
	i := 0
	n.NewID = func() string {
		i++
		return fmt.Sprintf("stub-%d", i)
	}
}

func TestParseAuthorYear(t *testing.T) {
	tests := []struct {
		input    string
		wantLast []string
		wantYear int
	}{
		{"Smith et al., 2019", []string{"Smith"}, 2019},
		{"Garcia & Lee, 2004", []string{"Garcia", "Lee"}, 2004},
		{"Nakamura, Fujii and Chen, 1998", []string{"Nakamura", "Fujii", "Chen"}, 1998},
		{"Smith", []string{"Smith"}, 0},
		{"2020", nil, 2020},
		{"", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			authors, year := ParseAuthorYear(tt.input)
			if year != tt.wantYear {
				t.Errorf("year = %d, want %d", year, tt.wantYear)
			}
			if len(authors) != len(tt.wantLast) {
				t.Fatalf("got %d authors %v, want %d", len(authors), authors, len(tt.wantLast))
			}
			for i, want := range tt.wantLast {
				if authors[i].Last != want {
					t.Errorf("author %d last = %q, want %q", i, authors[i].Last, want)
				}
			}
		})
	}
}

func TestSplitName(t *testing.T) {
	tests := []struct {
		input     string
		wantFirst string
		wantLast  string
	}{
		{"Jane Smith", "Jane", "Smith"},
		{"Smith", "", "Smith"},
		{"Mary Anne Garcia", "Mary Anne", "Garcia"},
		{"Robert Downey Jr.", "Robert", "Downey Jr."},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			first, last := splitName(tt.input)
			if first != tt.wantFirst || last != tt.wantLast {
				t.Errorf("splitName(%q) = (%q, %q), want (%q, %q)",
					tt.input, first, last, tt.wantFirst, tt.wantLast)
			}
		})
	}
}

func TestFromSleuth(t *testing.T) {
	n := NewNormalizer(nil)
	seqIDs(n)

	stub, err := n.FromSleuth(SleuthEntry{
		DOI:          "10.1/abc",
		AuthorYear:   "Smith et al., 2019",
		AnalysisName: "Working Memory",
	})
	if err != nil {
		t.Fatalf("FromSleuth() error = %v", err)
	}

	if stub.ID != "stub-1" {
		t.Errorf("ID = %q", stub.ID)
	}
	if stub.Title != "Smith et al., 2019" {
		t.Errorf("Title = %q", stub.Title)
	}
	if stub.DOI != "10.1/abc" {
		t.Errorf("DOI = %q", stub.DOI)
	}
	if stub.Year != 2019 {
		t.Errorf("Year = %d", stub.Year)
	}
	if stub.Note != "Working Memory" {
		t.Errorf("Note = %q", stub.Note)
	}
	if stub.Source != study.SourceFileImport {
		t.Errorf("Source = %q", stub.Source)
	}
	if len(stub.Authors) != 1 || stub.Authors[0].Last != "Smith" {
		t.Errorf("Authors = %v", stub.Authors)
	}
}

func TestFromSleuth_NoIdentity(t *testing.T) {
	n := NewNormalizer(nil)
	_, err := n.FromSleuth(SleuthEntry{Subjects: 4})
	if err == nil {
		t.Fatal("FromSleuth() should fail without title or identifier")
	}
	if !IsMalformed(err) {
		t.Errorf("error %v should be a malformed record", err)
	}
}

func TestFromManual(t *testing.T) {
	n := NewNormalizer(nil)
	seqIDs(n)

	stub, err := n.FromManual(ManualEntry{
		Title:   "Cortical thickness in adolescents",
		Authors: "Jane Smith; Ken Jones",
		Journal: "NeuroImage",
		Year:    2015,
		Note:    "hand entered",
	})
	if err != nil {
		t.Fatalf("FromManual() error = %v", err)
	}

	if stub.Source != study.SourceManual {
		t.Errorf("Source = %q", stub.Source)
	}
	if len(stub.Authors) != 2 {
		t.Fatalf("Authors = %v", stub.Authors)
	}
	if stub.Authors[0].First != "Jane" || stub.Authors[0].Last != "Smith" {
		t.Errorf("first author = %+v", stub.Authors[0])
	}
	if stub.Note != "hand entered" {
		t.Errorf("Note = %q", stub.Note)
	}
}

func TestFromManual_NoIdentity(t *testing.T) {
	n := NewNormalizer(nil)
	if _, err := n.FromManual(ManualEntry{Journal: "NeuroImage"}); err == nil {
		t.Error("FromManual() should fail without title or identifier")
	}
}

func TestNormalizeSleuthBatch_PartialSuccess(t *testing.T) {
	n := NewNormalizer(nil)
	seqIDs(n)

	res := n.NormalizeSleuthBatch([]SleuthEntry{
		{AuthorYear: "Smith et al., 2019"},
		{Subjects: 3}, // no identity, skipped
		{DOI: "10.1/xyz"},
	})

	if len(res.Stubs) != 2 {
		t.Errorf("got %d stubs, want 2", len(res.Stubs))
	}
	if res.Skipped() != 1 {
		t.Errorf("Skipped() = %d, want 1", res.Skipped())
	}

	re, ok := res.Errors[0].(*RecordError)
	if !ok {
		t.Fatalf("error type %T, want *RecordError", res.Errors[0])
	}
	if re.Index != 1 {
		t.Errorf("RecordError.Index = %d, want 1", re.Index)
	}
}

func TestNormalizer_Deterministic(t *testing.T) {
	entries := []SleuthEntry{
		{AuthorYear: "Smith et al., 2019", DOI: "10.1/a"},
		{AuthorYear: "Garcia & Lee, 2004"},
	}

	n1 := NewNormalizer(nil)
	seqIDs(n1)
	n2 := NewNormalizer(nil)
	seqIDs(n2)

	r1 := n1.NormalizeSleuthBatch(entries)
	r2 := n2.NormalizeSleuthBatch(entries)

	if len(r1.Stubs) != len(r2.Stubs) {
		t.Fatalf("stub counts differ: %d vs %d", len(r1.Stubs), len(r2.Stubs))
	}
	for i := range r1.Stubs {
		if !reflect.DeepEqual(r1.Stubs[i], r2.Stubs[i]) {
			t.Errorf("stub %d differs: %+v vs %+v", i, r1.Stubs[i], r2.Stubs[i])
		}
	}
}
