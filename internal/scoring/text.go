package scoring

import (
	"regexp"
	"strings"

	"github.com/agext/levenshtein"
)

var (
	spaceRe   = regexp.MustCompile(`\s+`)
	punctRe   = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
	tokenRe   = regexp.MustCompile(`[a-z0-9]+`)
	levParams = levenshtein.NewParams()
)

// NormalizeText lowercases, collapses whitespace and strips punctuation,
// so "INV-100 " and "inv 100" compare equal.
func NormalizeText(value string) string {
	text := strings.ToLower(strings.TrimSpace(value))
	text = spaceRe.ReplaceAllString(text, " ")
	text = punctRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// Tokenize splits text into lowercase alphanumeric runs.
func Tokenize(text string) []string {
	return tokenRe.FindAllString(strings.ToLower(text), -1)
}

// TokenF1 computes token-level F1 between truth and prediction, using
// count overlap so repeated tokens are not over-credited.
func TokenF1(truth, pred string) float64 {
	truthTokens := Tokenize(truth)
	predTokens := Tokenize(pred)
	if len(truthTokens) == 0 && len(predTokens) == 0 {
		return 1.0
	}
	if len(truthTokens) == 0 || len(predTokens) == 0 {
		return 0.0
	}

	truthCounts := make(map[string]int)
	predCounts := make(map[string]int)
	for _, tok := range truthTokens {
		truthCounts[tok]++
	}
	for _, tok := range predTokens {
		predCounts[tok]++
	}
	overlap := 0
	for tok, cnt := range truthCounts {
		if other := predCounts[tok]; other < cnt {
			overlap += other
		} else {
			overlap += cnt
		}
	}

	precision := float64(overlap) / float64(len(predTokens))
	recall := float64(overlap) / float64(len(truthTokens))
	if precision+recall == 0 {
		return 0.0
	}
	return 2 * precision * recall / (precision + recall)
}

// Jaccard computes set overlap of tokens.
func Jaccard(truth, pred string) float64 {
	truthSet := tokenSet(truth)
	predSet := tokenSet(pred)
	if len(truthSet) == 0 && len(predSet) == 0 {
		return 1.0
	}
	if len(truthSet) == 0 || len(predSet) == 0 {
		return 0.0
	}
	inter := 0
	for tok := range truthSet {
		if predSet[tok] {
			inter++
		}
	}
	union := len(truthSet) + len(predSet) - inter
	return float64(inter) / float64(union)
}

// TokenJaccard is Jaccard but returns 0 when either side has no tokens,
// which is what label matching wants.
func TokenJaccard(left, right string) float64 {
	leftSet := tokenSet(left)
	rightSet := tokenSet(right)
	if len(leftSet) == 0 || len(rightSet) == 0 {
		return 0.0
	}
	inter := 0
	for tok := range leftSet {
		if rightSet[tok] {
			inter++
		}
	}
	union := len(leftSet) + len(rightSet) - inter
	return float64(inter) / float64(union)
}

func tokenSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range Tokenize(text) {
		set[tok] = true
	}
	return set
}

// CharSimilarity is a cheap character-bag overlap, falling back to edit
// distance similarity when the bags are disjoint.
func CharSimilarity(truth, pred string) float64 {
	if truth == "" && pred == "" {
		return 1.0
	}
	if truth == "" || pred == "" {
		return 0.0
	}

	truthRunes := []rune(truth)
	predRunes := []rune(pred)
	truthCounts := make(map[rune]int)
	predCounts := make(map[rune]int)
	for _, r := range truthRunes {
		truthCounts[r]++
	}
	for _, r := range predRunes {
		predCounts[r]++
	}
	common := 0
	for r, cnt := range truthCounts {
		if other := predCounts[r]; other < cnt {
			common += other
		} else {
			common += cnt
		}
	}
	if common > 0 {
		longest := len(truthRunes)
		if len(predRunes) > longest {
			longest = len(predRunes)
		}
		return float64(common) / float64(longest)
	}

	return levenshtein.Similarity(truth, pred, levParams)
}
