package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreExactMatch(t *testing.T) {
	assert.Equal(t, 100.0, Score("milk", "milk"))
	assert.Equal(t, 100.0, Score("Amul Milk 1L", "amul milk 1l"))
	assert.Equal(t, 100.0, Score("  milk  ", "MILK"))
}

func TestScorePrefix(t *testing.T) {
	assert.Equal(t, 90.0, Score("Amul Milk 1L", "amul"))
	assert.Equal(t, 90.0, Score("milkshake", "milk"))
}

func TestScoreSubstring(t *testing.T) {
	assert.Equal(t, 75.0, Score("Amul Milk 1L", "milk"))
	assert.Equal(t, 75.0, Score("Dell Inspiron 15", "inspiron"))
}

func TestScoreEmptyCandidate(t *testing.T) {
	assert.Equal(t, 0.0, Score("", "milk"))
	assert.Equal(t, 0.0, Score("   ", "milk"))
}

func TestScoreSimilarityBranch(t *testing.T) {
	// "milk" is not a substring of "Dell Inspiron 15"; the score falls
	// through to the similarity ratio and stays well below the substring
	// tier.
	s := Score("Dell Inspiron 15", "milk")
	assert.Greater(t, s, 0.0)
	assert.Less(t, s, 60.0)

	// Unrelated strings with no common characters score zero.
	assert.Equal(t, 0.0, Score("zzz", "aaa"))
}

func TestRatioBounds(t *testing.T) {
	assert.Equal(t, 1.0, Ratio("", ""))
	assert.Equal(t, 1.0, Ratio("abc", "abc"))
	assert.Equal(t, 0.0, Ratio("abc", ""))
	assert.Equal(t, 0.0, Ratio("abc", "xyz"))
}

func TestRatioKnownValues(t *testing.T) {
	// 2 * 3 matching / (4 + 4)
	assert.InDelta(t, 0.75, Ratio("milk", "silk"), 1e-9)
	// "abcd" vs "bcde": common run "bcd" -> 2*3/8
	assert.InDelta(t, 0.75, Ratio("abcd", "bcde"), 1e-9)
}

func TestRatioSymmetricMatchCount(t *testing.T) {
	// The aligned match count, and so the denominatorless part of the
	// ratio, does not depend on argument order.
	assert.InDelta(t, Ratio("amul milk", "milk amul"), Ratio("milk amul", "amul milk"), 1e-9)
}
