// Package contacts resolves free-text contact queries to known identities.
// Scoring is tiered: structural signals (prefix, exact equality, shared
// words) dominate raw character similarity so that, for example, "Basit Bhai"
// resolves to "Basit Hussain" rather than a name with higher character
// overlap.
package contacts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mmahmad/whatsapp-cli-macos/internal/fuzzy"
)

// Identity is a stable contact: a JID plus the effective display name chosen
// at preload, and the chat-session row it belongs to.
type Identity struct {
	JID            string
	DisplayName    string
	ConversationID int64
}

// Tier is the priority bucket that produced a match score. Higher tiers
// dominate lower ones regardless of raw similarity.
type Tier int

const (
	TierFuzzy Tier = iota
	TierWordOverlap
	TierExact
	TierPrefix
)

func (t Tier) String() string {
	switch t {
	case TierPrefix:
		return "prefix"
	case TierExact:
		return "exact"
	case TierWordOverlap:
		return "word-overlap"
	case TierFuzzy:
		return "fuzzy"
	default:
		return "unknown"
	}
}

// Match is one scored candidate identity.
type Match struct {
	Identity Identity
	Score    int
	Tier     Tier

	// rank orders matches with equal integer scores within a tier. For the
	// word-overlap tier it is the raw overlap ratio plus a first-word bonus,
	// so "Basit Bhai" prefers "Basit Hussain" over "Yasir Bhai" when both
	// share exactly one word with the query.
	rank float64
}

// structural reports whether the match came from a structural tier rather
// than raw character similarity.
func (m Match) structural() bool {
	return m.Tier != TierFuzzy
}

// viabilityFloor is the minimum score for a resolution to succeed.
const viabilityFloor = 60

// maxAlternates bounds the diagnostic candidate list carried by NotFoundError.
const maxAlternates = 5

// NotFoundError reports that no identity scored above the viability floor.
// Alternates carries the best-scoring candidates for diagnostic display.
type NotFoundError struct {
	Query      string
	Alternates []Match
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no contact matching %q", e.Query)
}

// Resolver scores contact queries against a preloaded identity set. Preload
// happens once per session; resolutions reuse the same directory.
type Resolver struct {
	identities []Identity
}

// NewResolver merges the two identity sources into one directory. sessions
// provides the chat-partner names; addressBook maps JID to contact-book full
// name and overrides the partner name when both exist for the same JID.
func NewResolver(sessions []Identity, addressBook map[string]string) *Resolver {
	merged := make([]Identity, 0, len(sessions))
	for _, id := range sessions {
		if name, ok := addressBook[id.JID]; ok && name != "" {
			id.DisplayName = name
		}
		if id.DisplayName == "" {
			continue
		}
		merged = append(merged, id)
	}
	return &Resolver{identities: merged}
}

// Len returns the number of resolvable identities.
func (r *Resolver) Len() int {
	return len(r.identities)
}

// tierRule pairs a tier with its scorer. Rules are evaluated in order; the
// first applicable rule wins.
type tierRule struct {
	tier  Tier
	score func(query, name string) (score int, rank float64, ok bool)
}

var tierRules = []tierRule{
	{TierPrefix, func(q, n string) (int, float64, bool) {
		if strings.HasPrefix(n, q) {
			return 105, 0, true
		}
		return 0, 0, false
	}},
	{TierExact, func(q, n string) (int, float64, bool) {
		if q == n {
			return 100, 0, true
		}
		return 0, 0, false
	}},
	{TierWordOverlap, func(q, n string) (int, float64, bool) {
		ratio := wordOverlapRatio(q, n)
		if ratio < 0.5 {
			return 0, 0, false
		}
		score := 90 + int(ratio*5)
		if score > 95 {
			score = 95
		}
		rank := ratio
		if containsWord(strings.Fields(n), firstSignificantWord(q)) {
			rank++
		}
		return score, rank, true
	}},
	{TierFuzzy, func(q, n string) (int, float64, bool) {
		best := fuzzy.PartialRatio(q, n)
		if ts := fuzzy.TokenSetRatio(q, n); ts > best {
			best = ts
		}
		if r := fuzzy.Ratio(q, n); r > best {
			best = r
		}
		return best, 0, true
	}},
}

// scoreName returns the tiered score for one display name.
func scoreName(query, name string) Match {
	q := strings.ToLower(strings.TrimSpace(query))
	n := strings.ToLower(name)
	for _, rule := range tierRules {
		if score, rank, ok := rule.score(q, n); ok {
			return Match{Score: score, Tier: rule.tier, rank: rank}
		}
	}
	// Unreachable: the fuzzy rule always applies.
	return Match{Tier: TierFuzzy}
}

// firstSignificantWord returns the first query word longer than two runes,
// or "" when there is none.
func firstSignificantWord(q string) string {
	for _, w := range strings.Fields(q) {
		if len(w) > 2 {
			return w
		}
	}
	return ""
}

// wordOverlapRatio returns the fraction of significant query words (length
// > 2) found in the name's words. Whole-word matches count fully; substring
// containment in either direction counts at 0.7.
func wordOverlapRatio(query, name string) float64 {
	nameWords := strings.Fields(name)
	var total, matched float64
	for _, qw := range strings.Fields(query) {
		if len(qw) <= 2 {
			continue
		}
		total++
		if containsWord(nameWords, qw) {
			matched++
			continue
		}
		for _, nw := range nameWords {
			if len(nw) > 2 && (strings.Contains(nw, qw) || strings.Contains(qw, nw)) {
				matched += 0.7
				break
			}
		}
	}
	if total == 0 {
		return 0
	}
	return matched / total
}

func containsWord(words []string, w string) bool {
	if w == "" {
		return false
	}
	for _, candidate := range words {
		if candidate == w {
			return true
		}
	}
	return false
}

// Resolve scores every identity against the query. It returns the best match
// plus all candidates above the viability floor, sorted structural-first then
// by score. When nothing clears the floor it returns a NotFoundError carrying
// the best below-floor candidates.
func (r *Resolver) Resolve(query string) (best Match, candidates []Match, err error) {
	all := make([]Match, 0, len(r.identities))
	for _, id := range r.identities {
		m := scoreName(query, id.DisplayName)
		m.Identity = id
		all = append(all, m)
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].structural() != all[j].structural() {
			return all[i].structural()
		}
		if all[i].Score != all[j].Score {
			return all[i].Score > all[j].Score
		}
		if all[i].rank != all[j].rank {
			return all[i].rank > all[j].rank
		}
		return all[i].Identity.DisplayName < all[j].Identity.DisplayName
	})

	for _, m := range all {
		if m.Score > viabilityFloor {
			candidates = append(candidates, m)
		}
	}

	if len(candidates) == 0 {
		alternates := all
		if len(alternates) > maxAlternates {
			alternates = alternates[:maxAlternates]
		}
		return Match{}, nil, &NotFoundError{Query: query, Alternates: alternates}
	}

	return candidates[0], candidates, nil
}
