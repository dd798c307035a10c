// Package search provides the pure scoring logic for fuzzy message search:
// the adaptive scoring policy, the per-candidate scorer, and the storage-level
// prefilter pattern generation.
package search

// StrategyKind selects how the two similarity metrics are combined.
type StrategyKind int

const (
	// StrategyTokenSet scores with the token-set ratio alone. Used for short
	// queries, where partial alignment produces too many false positives.
	StrategyTokenSet StrategyKind = iota
	// StrategyBest scores with the maximum of partial and token-set ratios.
	// Used for longer queries, where recall is favored.
	StrategyBest
)

func (k StrategyKind) String() string {
	switch k {
	case StrategyTokenSet:
		return "token-set"
	case StrategyBest:
		return "best-of"
	default:
		return "unknown"
	}
}

// Strategy is the scoring plan for one query. MinScore is a hard floor below
// which non-exact candidates are discarded regardless of the caller threshold.
type Strategy struct {
	Kind     StrategyKind
	MinScore int
}

// shortQueryLen is the maximum rune length at which a query is treated as
// short (precision-favoring).
const shortQueryLen = 4

// Policy returns the scoring strategy for a query of the given rune length.
// The branch lives here, once, so callers never re-implement it.
func Policy(queryLen int) Strategy {
	if queryLen <= shortQueryLen {
		return Strategy{Kind: StrategyTokenSet, MinScore: 90}
	}
	return Strategy{Kind: StrategyBest}
}
