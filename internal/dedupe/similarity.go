package dedupe

import (
	"math"
	"strings"
	"time"

	"github.com/ledgerlens/ledgerlens/internal/model"
)

// Similarity factor weights. Description carries the most signal; the
// type match is a small exactness bonus.
const (
	dateWeight        = 0.2
	amountWeight      = 0.3
	descriptionWeight = 0.4
	typeWeight        = 0.1
)

// pairSimilarity computes the weighted similarity between two transactions.
func pairSimilarity(a, b model.Transaction, s Settings) float64 {
	score := dateWeight*dateProximity(a.Date, b.Date, s.DateToleranceDays) +
		amountWeight*amountProximity(a.Amount, b.Amount, s.AmountTolerancePercent) +
		descriptionWeight*descriptionSimilarity(a.Description, b.Description) +
		typeWeight*typeMatch(a.Type, b.Type)
	if score > 1 {
		score = 1
	}
	return score
}

// dateProximity scores how close two dates are, banded.
func dateProximity(a, b time.Time, toleranceDays int) float64 {
	days := int(math.Abs(a.Sub(b).Hours()) / 24)
	switch {
	case days == 0:
		return 1.0
	case days <= toleranceDays:
		return 0.9
	case days <= 7:
		return 0.6
	case days <= 30:
		return 0.2
	default:
		return 0
	}
}

// amountProximity scores how close two amounts are, banded by relative
// difference against the larger magnitude.
func amountProximity(a, b float64, tolerancePercent float64) float64 {
	absA, absB := math.Abs(a), math.Abs(b)
	if absA == absB {
		return 1.0
	}
	larger := math.Max(absA, absB)
	if larger == 0 {
		return 1.0
	}
	diffPct := math.Abs(absA-absB) / larger * 100

	switch {
	case diffPct <= tolerancePercent:
		return 0.95
	case diffPct <= 5:
		return 0.8
	case diffPct <= 10:
		return 0.6
	case diffPct <= 20:
		return 0.3
	default:
		return 0
	}
}

// descriptionSimilarity is the max of normalized Levenshtein similarity
// and Jaccard word-overlap similarity.
func descriptionSimilarity(a, b string) float64 {
	a = model.NormalizeDescription(a)
	b = model.NormalizeDescription(b)
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0
	}
	return math.Max(levenshteinSimilarity(a, b), jaccardSimilarity(a, b))
}

func typeMatch(a, b model.TransactionType) float64 {
	if a == b {
		return 1
	}
	return 0
}

// levenshteinSimilarity converts edit distance into a [0,1] similarity.
func levenshteinSimilarity(a, b string) float64 {
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshteinDistance(a, b))/float64(longest)
}

// levenshteinDistance computes edit distance with a two-row matrix.
func levenshteinDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = minInt(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// jaccardSimilarity is word-set overlap over words longer than 2 characters.
func jaccardSimilarity(a, b string) float64 {
	setA := wordSet(a)
	setB := wordSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for w := range setA {
		if _, ok := setB[w]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

func wordSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		if len(w) > 2 {
			set[w] = struct{}{}
		}
	}
	return set
}

func minInt(values ...int) int {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
