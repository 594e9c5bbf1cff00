package dupe

import (
	"strings"
	"unicode"

	"github.com/seibert-lab/cura/internal/study"
)

// Similarity blend weights. Titles dominate; author surnames break
// near-misses when both sides carry an author list.
const (
	titleWeight   = 0.75
	surnameWeight = 0.25
)

// NormalizeTitle lowercases a title and strips punctuation, collapsing
// runs of whitespace to single spaces. Two stubs with equal normalized
// titles are always fuzzy-match candidates.
func NormalizeTitle(s string) string {
	var b strings.Builder
	lastSpace := true
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r):
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// Similarity scores two stubs in [0,1] from their normalized titles
// and author surnames. Titles are compared with a Sorensen-Dice
// coefficient over token bigrams; surnames with Jaccard overlap.
// When either side has no authors, the title score stands alone.
func Similarity(a, b study.Stub) float64 {
	title := diceCoefficient(
		tokenBigrams(NormalizeTitle(a.Title)),
		tokenBigrams(NormalizeTitle(b.Title)),
	)

	aSur := study.Surnames(a.Authors)
	bSur := study.Surnames(b.Authors)
	if len(aSur) == 0 || len(bSur) == 0 {
		return title
	}

	return titleWeight*title + surnameWeight*jaccard(toSet(aSur), toSet(bSur))
}

// tokenBigrams returns the set of adjacent token pairs of a normalized
// title. Single-token titles fall back to the token itself so they can
// still match.
func tokenBigrams(normalized string) map[string]bool {
	tokens := strings.Fields(normalized)
	set := make(map[string]bool)
	if len(tokens) == 1 {
		set[tokens[0]] = true
		return set
	}
	for i := 0; i+1 < len(tokens); i++ {
		set[tokens[i]+" "+tokens[i+1]] = true
	}
	return set
}

// diceCoefficient computes 2*|A and B| / (|A|+|B|) over two sets.
func diceCoefficient(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	common := 0
	for k := range a {
		if b[k] {
			common++
		}
	}
	return 2 * float64(common) / float64(len(a)+len(b))
}

// jaccard computes intersection over union for two sets.
func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	common := 0
	for k := range a {
		if b[k] {
			common++
		}
	}
	union := len(a) + len(b) - common
	if union == 0 {
		return 0
	}
	return float64(common) / float64(union)
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, s := range items {
		set[s] = true
	}
	return set
}
