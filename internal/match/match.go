// Package match scores candidate names against free-text queries for the
// ranking engine. Scores are in [0,100] and case-insensitive.
package match

import "strings"

// Tier scores. Exact beats prefix beats substring beats similarity.
const (
	scoreExact     = 100.0
	scorePrefix    = 90.0
	scoreSubstring = 75.0
	similarityMax  = 60.0
)

// Score rates candidate against query. An empty candidate always scores 0.
func Score(candidate, query string) float64 {
	c := strings.ToLower(strings.TrimSpace(candidate))
	q := strings.ToLower(strings.TrimSpace(query))
	if c == "" {
		return 0.0
	}
	if c == q {
		return scoreExact
	}
	if strings.HasPrefix(c, q) {
		return scorePrefix
	}
	if strings.Contains(c, q) {
		return scoreSubstring
	}
	return Ratio(c, q) * similarityMax
}

// Ratio is the sequence-similarity ratio of a and b in [0,1]: twice the
// number of aligned matching characters divided by the total length. The
// alignment recursively takes the longest common substring and matches the
// pieces on each side of it.
func Ratio(a, b string) float64 {
	ar := []rune(a)
	br := []rune(b)
	total := len(ar) + len(br)
	if total == 0 {
		return 1.0
	}
	return 2.0 * float64(matchingRunes(ar, br)) / float64(total)
}

func matchingRunes(a, b []rune) int {
	ai, bi, size := longestCommonRun(a, b)
	if size == 0 {
		return 0
	}
	return size +
		matchingRunes(a[:ai], b[:bi]) +
		matchingRunes(a[ai+size:], b[bi+size:])
}

// longestCommonRun finds the leftmost longest common substring of a and b,
// returning its start in each and its length.
func longestCommonRun(a, b []rune) (ai, bi, size int) {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 0; i < len(a); i++ {
		for j := 0; j < len(b); j++ {
			if a[i] != b[j] {
				cur[j+1] = 0
				continue
			}
			cur[j+1] = prev[j] + 1
			if cur[j+1] > size {
				size = cur[j+1]
				ai = i + 1 - size
				bi = j + 1 - size
			}
		}
		prev, cur = cur, prev
	}
	return ai, bi, size
}
