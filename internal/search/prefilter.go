package search

import "strings"

// MinPrefilterLen is the minimum query rune length for which storage-level
// prefiltering is attempted. Shorter queries match too broadly for LIKE
// patterns to reduce anything; callers fall back to a capped full scan.
const MinPrefilterLen = 3

// DefaultPrefilterCap bounds the number of candidate rows the prefilter may
// return. Exceeding it silently truncates; it is a precision/performance
// trade-off, not an error.
const DefaultPrefilterCap = 10000

// Patterns returns the LIKE patterns for a query, one set per whitespace
// token: the token itself, the token minus its last character, the token
// minus its first character, and for tokens of four or more runes a
// mid-point split with an interior wildcard. Together these match any
// single-character deletion or insertion typo without edit-distance work at
// the storage layer.
//
// Patterns include surrounding % wildcards and are escaped for use with
// LIKE ... ESCAPE '\'. ok is false when the query is too short to prefilter
// usefully.
func Patterns(query string) (patterns []string, ok bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	if len([]rune(q)) < MinPrefilterLen {
		return nil, false
	}

	seen := make(map[string]struct{})
	add := func(p string) {
		if _, dup := seen[p]; dup {
			return
		}
		seen[p] = struct{}{}
		patterns = append(patterns, p)
	}

	for _, token := range strings.Fields(q) {
		runes := []rune(token)
		add("%" + escapeLike(token) + "%")

		// Trimmed variants tolerate a deleted or extra edge character.
		// Skip degenerate patterns that would match everything.
		if len(runes) >= 3 {
			add("%" + escapeLike(string(runes[:len(runes)-1])) + "%")
			add("%" + escapeLike(string(runes[1:])) + "%")
		}

		// Interior split tolerates one inserted character anywhere between
		// the halves.
		if len(runes) >= 4 {
			mid := len(runes) / 2
			add("%" + escapeLike(string(runes[:mid])) + "%" + escapeLike(string(runes[mid:])) + "%")
		}
	}

	return patterns, len(patterns) > 0
}

// escapeLike escapes LIKE wildcards in a literal so user input can never
// widen a pattern.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}
