// Package fuzzy implements the string similarity ratios used for message and
// contact scoring: whole-string ratio, best-window partial ratio, and
// order-independent token-set ratio. Scores are integers in [0, 100].
package fuzzy

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// Ratio returns the whole-string similarity of s1 and s2 as a score in
// [0, 100]. It is 2*M/T where M is the total size of matching blocks and T
// the combined length, computed over runes.
func Ratio(s1, s2 string) int {
	return roundScore(ratio([]rune(s1), []rune(s2)))
}

// PartialRatio returns the best similarity obtainable by aligning the shorter
// string against equal-length windows of the longer string. It catches a
// query appearing inside a long message with small edits.
func PartialRatio(s1, s2 string) int {
	shorter, longer := []rune(s1), []rune(s2)
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if len(shorter) == 0 {
		return 0
	}

	blocks := newMatcher(shorter, longer).matchingBlocks()

	best := 0.0
	for _, bl := range blocks {
		start := bl.b - bl.a
		if start < 0 {
			start = 0
		}
		end := start + len(shorter)
		if end > len(longer) {
			end = len(longer)
		}
		r := ratio(shorter, longer[start:end])
		if r > 0.995 {
			return 100
		}
		if r > best {
			best = r
		}
	}
	return roundScore(best)
}

// TokenSetRatio tokenizes both strings into de-duplicated word sets, then
// compares the sorted intersection against each side's intersection+difference
// recombination, returning the best whole-string ratio of the three pairings.
// Word order and duplicate words do not affect the score.
func TokenSetRatio(s1, s2 string) int {
	t1 := tokenSet(s1)
	t2 := tokenSet(s2)
	if len(t1) == 0 && len(t2) == 0 {
		return 0
	}

	var sect, diff1, diff2 []string
	for _, w := range t1 {
		if contains(t2, w) {
			sect = append(sect, w)
		} else {
			diff1 = append(diff1, w)
		}
	}
	for _, w := range t2 {
		if !contains(t1, w) {
			diff2 = append(diff2, w)
		}
	}

	sectStr := strings.Join(sect, " ")
	combined1 := strings.TrimSpace(sectStr + " " + strings.Join(diff1, " "))
	combined2 := strings.TrimSpace(sectStr + " " + strings.Join(diff2, " "))

	best := ratio([]rune(sectStr), []rune(combined1))
	if r := ratio([]rune(sectStr), []rune(combined2)); r > best {
		best = r
	}
	if r := ratio([]rune(combined1), []rune(combined2)); r > best {
		best = r
	}
	return roundScore(best)
}

// tokenSet returns the sorted, de-duplicated words of s. Input is lowercased
// and non-alphanumeric runes are treated as word separators, so punctuation
// never splits a score.
func tokenSet(s string) []string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)

	seen := make(map[string]struct{})
	var words []string
	for _, w := range strings.Fields(cleaned) {
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		words = append(words, w)
	}
	sort.Strings(words)
	return words
}

func contains(words []string, w string) bool {
	i := sort.SearchStrings(words, w)
	return i < len(words) && words[i] == w
}

// ratio computes 2*M/T over runes as a float in [0, 1].
func ratio(a, b []rune) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 0
	}
	matched := 0
	for _, bl := range newMatcher(a, b).matchingBlocks() {
		matched += bl.size
	}
	return 2 * float64(matched) / float64(total)
}

func roundScore(r float64) int {
	return int(math.Round(100 * r))
}

// block is a maximal run of runes common to both strings: a[a:a+size] equals
// b[b:b+size].
type block struct {
	a, b, size int
}

// matcher finds matching blocks between two rune slices, in the style of a
// sequence matcher: repeatedly take the longest common block, then recurse on
// the pieces before and after it.
type matcher struct {
	a, b []rune
	b2j  map[rune][]int
}

func newMatcher(a, b []rune) *matcher {
	b2j := make(map[rune][]int, len(b))
	for j, r := range b {
		b2j[r] = append(b2j[r], j)
	}
	return &matcher{a: a, b: b, b2j: b2j}
}

// longestMatch returns the longest block with a in [alo, ahi) and b in
// [blo, bhi). Of equally long blocks it prefers the leftmost in a, then b.
func (m *matcher) longestMatch(alo, ahi, blo, bhi int) block {
	best := block{a: alo, b: blo}
	j2len := make(map[int]int)
	for i := alo; i < ahi; i++ {
		next := make(map[int]int)
		for _, j := range m.b2j[m.a[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := j2len[j-1] + 1
			next[j] = k
			if k > best.size {
				best = block{a: i - k + 1, b: j - k + 1, size: k}
			}
		}
		j2len = next
	}
	return best
}

// matchingBlocks returns all matching blocks in ascending order.
func (m *matcher) matchingBlocks() []block {
	type span struct{ alo, ahi, blo, bhi int }
	queue := []span{{0, len(m.a), 0, len(m.b)}}

	var blocks []block
	for len(queue) > 0 {
		s := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		bl := m.longestMatch(s.alo, s.ahi, s.blo, s.bhi)
		if bl.size == 0 {
			continue
		}
		blocks = append(blocks, bl)
		if s.alo < bl.a && s.blo < bl.b {
			queue = append(queue, span{s.alo, bl.a, s.blo, bl.b})
		}
		if bl.a+bl.size < s.ahi && bl.b+bl.size < s.bhi {
			queue = append(queue, span{bl.a + bl.size, s.ahi, bl.b + bl.size, s.bhi})
		}
	}

	sort.Slice(blocks, func(i, j int) bool {
		if blocks[i].a != blocks[j].a {
			return blocks[i].a < blocks[j].a
		}
		return blocks[i].b < blocks[j].b
	})
	return blocks
}
