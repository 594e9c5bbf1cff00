package ingest

import (
	"testing"

	"github.com/seibert-lab/cura/internal/study"
)

const samplePubMed = `[
  {
    "uid": "31234567",
    "title": "Default mode network connectivity in depression",
    "authors": [{"name": "Smith JA"}, {"name": "de la Cruz M"}],
    "fulljournalname": "Human Brain Mapping",
    "pubdate": "2019 Mar 14",
    "elocationid": "doi: 10.1002/hbm.24999"
  },
  {
    "uid": "29876543",
    "title": "Amygdala reactivity to threat",
    "authors": [],
    "fulljournalname": "NeuroImage",
    "pubdate": "2018",
    "elocationid": "10.1016/j.neuroimage.2018.01.001"
  }
]`

func TestParsePubMedSummaries(t *testing.T) {
	articles, err := ParsePubMedSummaries([]byte(samplePubMed))
	if err != nil {
		t.Fatalf("ParsePubMedSummaries() error = %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("got %d articles, want 2", len(articles))
	}

	a := articles[0]
	if a.PMID != "31234567" {
		t.Errorf("PMID = %q", a.PMID)
	}
	if a.DOI != "10.1002/hbm.24999" {
		t.Errorf("DOI = %q, want doi prefix stripped", a.DOI)
	}
	if a.Year() != 2019 {
		t.Errorf("Year() = %d, want 2019", a.Year())
	}
	if articles[1].DOI != "10.1016/j.neuroimage.2018.01.001" {
		t.Errorf("unprefixed DOI mangled: %q", articles[1].DOI)
	}
}

func TestParsePubMedSummaries_Invalid(t *testing.T) {
	if _, err := ParsePubMedSummaries([]byte("{not an array}")); err == nil {
		t.Error("ParsePubMedSummaries() should fail on non-array input")
	}
}

func TestFromPubMed(t *testing.T) {
	articles, err := ParsePubMedSummaries([]byte(samplePubMed))
	if err != nil {
		t.Fatal(err)
	}

	n := NewNormalizer(nil)
	seqIDs(n)
	stub, err := n.FromPubMed(articles[0])
	if err != nil {
		t.Fatalf("FromPubMed() error = %v", err)
	}

	if stub.Source != study.SourcePubMed {
		t.Errorf("Source = %q", stub.Source)
	}
	if stub.Journal != "Human Brain Mapping" {
		t.Errorf("Journal = %q", stub.Journal)
	}
	if len(stub.Authors) != 2 {
		t.Fatalf("Authors = %v", stub.Authors)
	}
	if stub.Authors[0].Last != "Smith" || stub.Authors[0].First != "JA" {
		t.Errorf("first author = %+v", stub.Authors[0])
	}
	if stub.Authors[1].Last != "de la Cruz" || stub.Authors[1].First != "M" {
		t.Errorf("second author = %+v", stub.Authors[1])
	}
}

func TestNormalizePubMedBatch_SkipsEmptyRecords(t *testing.T) {
	n := NewNormalizer(nil)
	seqIDs(n)

	res := n.NormalizePubMedBatch([]PubMedArticle{
		{PMID: "1", Title: "A study"},
		{PubDate: "2020"}, // no title or identifier
	})
	if len(res.Stubs) != 1 {
		t.Errorf("got %d stubs, want 1", len(res.Stubs))
	}
	if res.Skipped() != 1 {
		t.Errorf("Skipped() = %d, want 1", res.Skipped())
	}
}
