package relevance

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRatio(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want int
	}{
		{"identical", "calpoly", "calpoly", 100},
		{"case insensitive", "CSC", "csc", 100},
		{"classic", "kitten", "sitting", 57},
		{"disjoint", "aaaa", "bbbb", 0},
		{"empty left", "", "abc", 0},
		{"empty both", "", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Ratio(tt.a, tt.b))
		})
	}
}

func TestPartialRatio(t *testing.T) {
	assert.Equal(t, 100, PartialRatio("csc", "The CSC department"))
	assert.Equal(t, 100, PartialRatio("The CSC department", "csc"), "argument order does not matter")
	assert.Equal(t, 75, PartialRatio("abcd", "xxabxdxx"))
	assert.Equal(t, 0, PartialRatio("", "anything"))
	assert.GreaterOrEqual(t, PartialRatio("kennedy library", "where is the kenedy libary located"), 70)
}

// countDistance counts edit distance computations until the test ends.
func countDistance(t *testing.T) *int {
	t.Helper()
	calls := 0
	orig := distance
	distance = func(a, b string) int {
		calls++
		return orig(a, b)
	}
	t.Cleanup(func() { distance = orig })
	return &calls
}

func TestPartialRatio_SkipsWindowsWithoutSharedRunes(t *testing.T) {
	calls := countDistance(t)

	assert.Equal(t, 0, PartialRatio("kennedy library", strings.Repeat("zq", 500)))
	assert.Zero(t, *calls)
}

func TestFuzzyMatch(t *testing.T) {
	q := []rune("kennedy library")

	assert.True(t, fuzzyMatch(q, "Where is the Kennedy Library located", 100))
	assert.False(t, fuzzyMatch(q, "Parking permits are sold here", 90))
	assert.False(t, fuzzyMatch(q, "", 1))
	assert.True(t, fuzzyMatch(q, "", 0), "a zero threshold keeps every line")
	assert.False(t, fuzzyMatch(q, "xkennedy library", 100), "windows start on a word")
}

func TestFuzzyMatch_NeverExceedsPartialRatio(t *testing.T) {
	lines := []string{
		"Where is the Kennedy Library located",
		"where is the kenedy libary located",
		"The Robert E. Kennedy Library is building 35",
		"Parking permits are sold at the Parking and Transportation office.",
		"Room 180-0101, 180-0102, 180-0103, 180-0104",
	}
	q := "kennedy library"

	for _, line := range lines {
		partial := PartialRatio(q, line)
		for _, threshold := range []int{1, 25, 50, 75, 100} {
			if fuzzyMatch([]rune(q), line, threshold) {
				assert.GreaterOrEqual(t, partial, threshold, "%q at %d", line, threshold)
			}
		}
	}
}

func TestFuzzyMatch_BoundedWork(t *testing.T) {
	q := []rune("kennedy library")
	words := strings.Repeat("xyz ", 200)

	calls := countDistance(t)
	assert.False(t, fuzzyMatch(q, words, 50))
	assert.LessOrEqual(t, *calls, 200)

	*calls = 0
	assert.True(t, fuzzyMatch(q, strings.Repeat("kennedy library ", 100), 50))
	assert.Equal(t, 1, *calls, "stops at the first window reaching the threshold")
}
