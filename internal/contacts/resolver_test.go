package contacts

import (
	"errors"
	"testing"
)

func directory(names ...string) []Identity {
	ids := make([]Identity, 0, len(names))
	for i, name := range names {
		ids = append(ids, Identity{
			JID:            name + "@s.whatsapp.net",
			DisplayName:    name,
			ConversationID: int64(i + 1),
		})
	}
	return ids
}

func TestAddressBookOverridesPartnerName(t *testing.T) {
	sessions := []Identity{
		{JID: "447700900001@s.whatsapp.net", DisplayName: "~john", ConversationID: 1},
	}
	book := map[string]string{"447700900001@s.whatsapp.net": "John Smith"}

	r := NewResolver(sessions, book)
	best, _, err := r.Resolve("john smith")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if best.Identity.DisplayName != "John Smith" {
		t.Errorf("DisplayName = %q, want %q", best.Identity.DisplayName, "John Smith")
	}
	if best.Identity.ConversationID != 1 {
		t.Errorf("ConversationID = %d, want 1", best.Identity.ConversationID)
	}
}

func TestUnnamedSessionsExcluded(t *testing.T) {
	sessions := []Identity{
		{JID: "a@s.whatsapp.net", DisplayName: ""},
		{JID: "b@s.whatsapp.net", DisplayName: "Beth"},
	}
	r := NewResolver(sessions, nil)
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}
}

func TestTierPrefix(t *testing.T) {
	r := NewResolver(directory("Bastion Gym", "Basit Hussain"), nil)
	best, _, err := r.Resolve("basit")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if best.Identity.DisplayName != "Basit Hussain" {
		t.Errorf("best = %q, want %q", best.Identity.DisplayName, "Basit Hussain")
	}
	if best.Tier != TierPrefix {
		t.Errorf("tier = %v, want prefix", best.Tier)
	}
	if best.Score != 105 {
		t.Errorf("score = %d, want 105", best.Score)
	}
}

func TestTierExact(t *testing.T) {
	r := NewResolver(directory("Sara", "Sarah Connor"), nil)
	best, _, err := r.Resolve("sara")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	// Exact equality also satisfies the prefix rule, which runs first.
	if best.Identity.DisplayName != "Sara" {
		t.Errorf("best = %q, want %q", best.Identity.DisplayName, "Sara")
	}
	if best.Score < 100 {
		t.Errorf("score = %d, want >= 100", best.Score)
	}
}

func TestWordOverlapBeatsRawSimilarity(t *testing.T) {
	r := NewResolver(directory("Yasir Bhai", "Basit Hussain"), nil)
	best, candidates, err := r.Resolve("Basit Bhai")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if best.Identity.DisplayName != "Basit Hussain" {
		t.Errorf("best = %q, want %q", best.Identity.DisplayName, "Basit Hussain")
	}
	if best.Tier != TierWordOverlap {
		t.Errorf("tier = %v, want word-overlap", best.Tier)
	}
	if best.Score < 90 || best.Score > 95 {
		t.Errorf("score = %d, want in [90,95]", best.Score)
	}
	if len(candidates) < 2 {
		t.Errorf("len(candidates) = %d, want >= 2", len(candidates))
	}
}

func TestWordOverlapRatio(t *testing.T) {
	tests := []struct {
		query, name string
		lo, hi      float64
	}{
		{"basit bhai", "basit hussain", 0.5, 0.5},
		{"basit hussain", "basit hussain", 1, 1},
		{"me", "someone", 0, 0},
		{"john", "johnny cash", 0.65, 0.75},
	}
	for _, tt := range tests {
		got := wordOverlapRatio(tt.query, tt.name)
		if got < tt.lo || got > tt.hi {
			t.Errorf("wordOverlapRatio(%q, %q) = %v, want in [%v,%v]",
				tt.query, tt.name, got, tt.lo, tt.hi)
		}
	}
}

func TestResolveNotFound(t *testing.T) {
	r := NewResolver(directory("Alice Anderson", "Bob Baker"), nil)
	_, _, err := r.Resolve("zzzzqqqq")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("err = %v, want *NotFoundError", err)
	}
	if nf.Query != "zzzzqqqq" {
		t.Errorf("Query = %q, want %q", nf.Query, "zzzzqqqq")
	}
	if len(nf.Alternates) == 0 {
		t.Error("Alternates is empty, want best below-floor candidates")
	}
}

func TestResolveDeterministicOrder(t *testing.T) {
	r := NewResolver(directory("Sam One", "Sam Two", "Sam Three"), nil)
	first, _, err := r.Resolve("sam")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	for i := 0; i < 3; i++ {
		got, _, err := r.Resolve("sam")
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if got.Identity.DisplayName != first.Identity.DisplayName {
			t.Errorf("run %d: best = %q, want %q", i, got.Identity.DisplayName, first.Identity.DisplayName)
		}
	}
}
