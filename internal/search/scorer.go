package search

import (
	"strings"
	"unicode/utf8"

	"github.com/mmahmad/whatsapp-cli-macos/internal/fuzzy"
)

// Scorer scores candidate texts against a single query. It is pure and
// stateless: the same (query, text, threshold) always yields the same score
// and inclusion decision.
type Scorer struct {
	query    string // lowercased
	strategy Strategy
}

// NewScorer prepares a scorer for the given query.
func NewScorer(query string) *Scorer {
	q := strings.ToLower(strings.TrimSpace(query))
	return &Scorer{
		query:    q,
		strategy: Policy(utf8.RuneCountInString(q)),
	}
}

// Strategy returns the scoring strategy selected for the query.
func (s *Scorer) Strategy() Strategy {
	return s.strategy
}

// Score returns the 0-100 match score for text and whether it was an exact
// (case-insensitive substring) match. Exact matches always score 100.
func (s *Scorer) Score(text string) (score int, exact bool) {
	lower := strings.ToLower(text)
	if strings.Contains(lower, s.query) {
		return 100, true
	}

	switch s.strategy.Kind {
	case StrategyTokenSet:
		return fuzzy.TokenSetRatio(s.query, lower), false
	default:
		score = fuzzy.PartialRatio(s.query, lower)
		if ts := fuzzy.TokenSetRatio(s.query, lower); ts > score {
			score = ts
		}
		return score, false
	}
}

// Include reports whether a candidate with the given score passes both the
// strategy floor and the caller-supplied threshold. Exact matches are always
// included, even at threshold 100.
func (s *Scorer) Include(score int, exact bool, threshold int) bool {
	if exact {
		return true
	}
	if score < s.strategy.MinScore {
		return false
	}
	return score >= threshold
}
