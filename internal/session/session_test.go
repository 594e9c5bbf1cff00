package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/seibert-lab/cura/internal/config"
	"github.com/seibert-lab/cura/internal/dupe"
	"github.com/seibert-lab/cura/internal/study"
)

func initProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(config.CuraPath(root), 0755); err != nil {
		t.Fatal(err)
	}
	cfg := &config.Config{ProjectID: "proj-1"}
	if err := cfg.Save(root); err != nil {
		t.Fatal(err)
	}
	return root
}

func TestSessionRoundTrip(t *testing.T) {
	root := initProject(t)

	s, err := Open(root, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	stub := study.Stub{ID: "s1", Title: "Working memory", DOI: "10.1/x"}
	if err := s.Pipeline.AddStubs(0, []study.Stub{stub}); err != nil {
		t.Fatal(err)
	}
	s.ResetLedger([]dupe.Case{{
		ID:   "s1",
		Stub: stub,
		Candidates: []dupe.Candidate{{
			Stub:      study.Stub{ID: "e1", Title: "Working memory"},
			MatchedBy:  dupe.BasisTitle,
			Score:      1,
			Resolution: dupe.Unresolved,
		}},
	}})

	if err := s.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	re, err := Open(root, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer re.Close()

	got, ok := re.Pipeline.Stub("s1")
	if !ok || got.Title != "Working memory" || got.DOI != "10.1/x" {
		t.Errorf("Stub(s1) = %+v, %v", got, ok)
	}
	if col, ok := re.Pipeline.ColumnOf("s1"); !ok || col != 0 {
		t.Errorf("ColumnOf(s1) = %d, %v", col, ok)
	}

	cases := re.Ledger.Cases()
	if len(cases) != 1 || cases[0].ID != "s1" {
		t.Fatalf("Cases() = %+v", cases)
	}
	cand := cases[0].Candidates[0]
	if cand.Stub.ID != "e1" || cand.MatchedBy != dupe.BasisTitle || cand.Resolution != dupe.Unresolved {
		t.Errorf("candidate = %+v", cand)
	}
}

func TestOpenFromNestedDir(t *testing.T) {
	root := initProject(t)
	nested := filepath.Join(root, "analysis", "wm")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	s, err := Open(nested, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()

	if s.Config.ProjectID != "proj-1" {
		t.Errorf("ProjectID = %q", s.Config.ProjectID)
	}
	if s.Config.ProjectDir != root {
		t.Errorf("ProjectDir = %q, want %q", s.Config.ProjectDir, root)
	}
}

func TestOpenOutsideProject(t *testing.T) {
	if _, err := Open(t.TempDir(), nil); err == nil {
		t.Fatal("Open() outside any project should fail")
	}
}
