package dupe

import "sort"

// SimilarityThreshold is the fuzzy-match cutoff for the blended
// title/surname score. Chosen so that reworded subtitles still match
// while distinct studies by the same group do not.
const SimilarityThreshold = 0.80

// FindDuplicates runs duplicate detection for a batch of imported
// stubs against earlier stubs in the same batch and the project's
// existing studies. One Case is returned per imported stub with at
// least one candidate; stubs with none are omitted.
//
// Two passes per stub. The identifier pass matches on DOI or PMID
// equality and always orders before the fuzzy pass, which matches on
// normalized-title equality or a similarity score at or above
// SimilarityThreshold. Within-batch candidates are considered before
// existing studies in each pass. The result is a pure function of the
// inputs: same stubs in, same cases and candidate order out.
func FindDuplicates(newStubs []Located, existing []Located) []Case {
	var cases []Case

	for i, ns := range newStubs {
		// Earlier batch members first, then the project's studies.
		pool := make([]Located, 0, i+len(existing))
		pool = append(pool, newStubs[:i]...)
		pool = append(pool, existing...)

		candidates := matchOne(ns, pool)
		if len(candidates) == 0 {
			continue
		}

		cases = append(cases, Case{
			ID:          ns.Stub.ID,
			Stub:        ns.Stub,
			ColumnIndex: ns.ColumnIndex,
			StudyIndex:  ns.StudyIndex,
			Candidates:  candidates,
		})
	}

	return cases
}

// matchOne finds ordered candidates for a single imported stub.
func matchOne(ns Located, pool []Located) []Candidate {
	var identifier, fuzzy []Candidate
	seen := make(map[string]bool)

	// Pass 1: identifier equality.
	for _, cand := range pool {
		if cand.Stub.ID == ns.Stub.ID {
			continue
		}
		basis, ok := identifierMatch(ns, cand)
		if !ok {
			continue
		}
		identifier = append(identifier, Candidate{
			Stub:        cand.Stub,
			ColumnIndex: cand.ColumnIndex,
			StudyIndex:  cand.StudyIndex,
			MatchedBy:   basis,
			Score:       1,
			Resolution:  Unresolved,
		})
		seen[cand.Stub.ID] = true
	}

	// DOI matches rank above PMID matches; the stable sort keeps pool
	// order within each basis.
	sort.SliceStable(identifier, func(i, j int) bool {
		return identifier[i].MatchedBy == BasisDOI && identifier[j].MatchedBy != BasisDOI
	})

	// Pass 2: fuzzy title/author comparison.
	normTitle := NormalizeTitle(ns.Stub.Title)
	for _, cand := range pool {
		if cand.Stub.ID == ns.Stub.ID || seen[cand.Stub.ID] {
			continue
		}

		basis := MatchBasis("")
		score := 0.0
		if normTitle != "" && normTitle == NormalizeTitle(cand.Stub.Title) {
			basis, score = BasisTitle, 1
		} else if s := Similarity(ns.Stub, cand.Stub); s >= SimilarityThreshold {
			basis, score = BasisFuzzy, s
		}
		if basis == "" {
			continue
		}

		fuzzy = append(fuzzy, Candidate{
			Stub:        cand.Stub,
			ColumnIndex: cand.ColumnIndex,
			StudyIndex:  cand.StudyIndex,
			MatchedBy:   basis,
			Score:       score,
			Resolution:  Unresolved,
		})
		seen[cand.Stub.ID] = true
	}

	// Fuzzy candidates order by descending score; the stable sort keeps
	// original pool order for ties.
	sort.SliceStable(fuzzy, func(i, j int) bool {
		return fuzzy[i].Score > fuzzy[j].Score
	})

	return append(identifier, fuzzy...)
}

// identifierMatch checks DOI then PMID equality between an imported
// stub and a candidate.
func identifierMatch(ns, cand Located) (MatchBasis, bool) {
	if ns.Stub.DOI != "" && ns.Stub.DOI == cand.Stub.DOI {
		return BasisDOI, true
	}
	if ns.Stub.PMID != "" && ns.Stub.PMID == cand.Stub.PMID {
		return BasisPMID, true
	}
	return "", false
}
