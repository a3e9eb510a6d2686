package relevance

import (
	"math"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
)

// distance is the edit distance used by every ratio.
var distance = levenshtein.ComputeDistance

// Ratio returns the similarity of a and b on a 0..100 scale:
// 1 - distance/max(len(a), len(b)), measured in runes after lower-casing.
// Either string being empty yields 0.
func Ratio(a, b string) int {
	return ratio([]rune(strings.ToLower(a)), []rune(strings.ToLower(b)))
}

// PartialRatio returns the best Ratio between the shorter string and every
// window of the same length in the longer one.
func PartialRatio(a, b string) int {
	short, long := ordered([]rune(strings.ToLower(a)), []rune(strings.ToLower(b)))
	if len(short) == 0 {
		return 0
	}
	return windowRatio(short, long, false, 100)
}

// fuzzyMatch reports whether some window of line that starts on a word
// scores at least threshold against q, which must already be lower-cased.
// It stops at the first such window.
func fuzzyMatch(q []rune, line string, threshold int) bool {
	if threshold <= 0 {
		return true
	}
	short, long := ordered(q, []rune(strings.ToLower(line)))
	if len(short) == 0 {
		return false
	}
	return windowRatio(short, long, true, threshold) >= threshold
}

func ordered(a, b []rune) ([]rune, []rune) {
	if len(a) > len(b) {
		return b, a
	}
	return a, b
}

// windowRatio scores short against each len(short) window of long and
// returns the best score, or the first score reaching stopAt.
//
// Runes shared between short and a window, counted as multisets, bound the
// score from above: an edit script between equal-length strings keeps at
// most that many runes. Windows whose bound cannot beat the best score so
// far are skipped without computing a distance.
func windowRatio(short, long []rune, wordStarts bool, stopAt int) int {
	m := len(short)
	need := make(map[rune]int, m)
	for _, r := range short {
		need[r]++
	}
	have := make(map[rune]int, m)
	overlap := 0
	add := func(r rune) {
		if have[r] < need[r] {
			overlap++
		}
		have[r]++
	}
	remove := func(r rune) {
		have[r]--
		if have[r] < need[r] {
			overlap--
		}
	}
	for _, r := range long[:m] {
		add(r)
	}

	best := 0
	for start := 0; start+m <= len(long); start++ {
		if start > 0 {
			remove(long[start-1])
			add(long[start+m-1])
		}
		if wordStarts && !isWordStart(long, start) {
			continue
		}
		if percent(overlap, m) <= best {
			continue
		}
		if score := ratio(short, long[start:start+m]); score > best {
			best = score
			if best >= stopAt {
				break
			}
		}
	}
	return best
}

func isWordStart(s []rune, i int) bool {
	return isWordRune(s[i]) && (i == 0 || !isWordRune(s[i-1]))
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func ratio(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	longest := max(len(a), len(b))
	return percent(longest-distance(string(a), string(b)), longest)
}

func percent(part, whole int) int {
	return int(math.Round(float64(part) * 100 / float64(whole)))
}
