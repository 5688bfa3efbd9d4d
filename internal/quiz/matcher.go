package quiz

import "strings"

// Match is the classification of a candidate answer against the active
// quiz's correct answer.
type Match string

const (
	MatchExact   Match = "exact"
	MatchPartial Match = "partial"
	MatchClose   Match = "close"
	MatchNone    Match = "none"
)

// Classify grades candidate against correct. Both are normalized
// (lower-cased, trimmed) first, then the tiers apply in strict order:
//
//  1. exact:   equal
//  2. close:   within an edit-distance threshold scaled by the
//     *candidate's* length — ≤10 runes allows distance 2, longer
//     candidates allow max(3, length/10)
//  3. partial: either contains the other
//  4. none
//
// Close outranks partial: a near-miss like "pariss" grades close even
// though it also contains the correct answer. The close threshold is
// driven by the submitted text's length, not the correct answer's; do
// not symmetrize it.
func Classify(candidate, correct string) Match {
	c := strings.ToLower(strings.TrimSpace(candidate))
	want := strings.ToLower(strings.TrimSpace(correct))

	if c == want {
		return MatchExact
	}

	d := editDistance([]rune(c), []rune(want))
	l := len([]rune(c))
	threshold := 2
	if l > 10 {
		threshold = max(3, l/10)
	}
	if d <= threshold {
		return MatchClose
	}

	if strings.Contains(c, want) || strings.Contains(want, c) {
		return MatchPartial
	}
	return MatchNone
}

// editDistance is the Levenshtein distance (unit-cost insert, delete,
// substitute) via the standard (len(a)+1)×(len(b)+1) DP table.
func editDistance(a, b []rune) int {
	dp := make([][]int, len(a)+1)
	for i := range dp {
		dp[i] = make([]int, len(b)+1)
		dp[i][0] = i
	}
	for j := 0; j <= len(b); j++ {
		dp[0][j] = j
	}

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				dp[i][j] = dp[i-1][j-1]
				continue
			}
			dp[i][j] = 1 + min(dp[i-1][j], dp[i][j-1], dp[i-1][j-1])
		}
	}
	return dp[len(a)][len(b)]
}
