// Package engine orchestrates fuzzy message search over a WhatsApp store:
// prefilter, parallel scoring, contact resolution, and cached pagination.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mmahmad/whatsapp-cli-macos/internal/cache"
	"github.com/mmahmad/whatsapp-cli-macos/internal/contacts"
	"github.com/mmahmad/whatsapp-cli-macos/internal/search"
	"github.com/mmahmad/whatsapp-cli-macos/internal/store"
)

// scoreBatchSize is the number of candidates one scoring goroutine handles
// between cancellation checks.
const scoreBatchSize = 256

// InvalidParameterError reports a request parameter rejected before any
// storage access.
type InvalidParameterError struct {
	Name   string
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Name, e.Reason)
}

// Result is one scored message match.
type Result struct {
	MessageID      int64     `json:"message_id"`
	Text           string    `json:"text"`
	Score          int       `json:"score"`
	Exact          bool      `json:"exact"`
	Timestamp      time.Time `json:"timestamp"`
	Sender         string    `json:"sender"`
	ChatName       string    `json:"chat_name"`
	ConversationID int64     `json:"conversation_id"`
	FromMe         bool      `json:"from_me"`

	ts float64
}

// SearchPage is one page of search results plus pagination metadata.
type SearchPage struct {
	Results      []Result `json:"results"`
	TotalMatches int      `json:"total_matches"`
	Page         int      `json:"page"`
	TotalPages   int      `json:"total_pages"`
	HasMore      bool     `json:"has_more"`

	// Truncated reports that the candidate prefilter hit its row cap, so
	// some matches may be missing. Not an error; shown as a notice.
	Truncated bool `json:"truncated,omitempty"`
}

// SearchParams are the caller-supplied knobs for Search and SearchInContact.
// Zero values take defaults: threshold 60, relevance sort, page 1, page
// size 20.
type SearchParams struct {
	Query     string
	Threshold int
	Sort      SortMode
	Page      int
	PageSize  int

	thresholdSet bool
}

// WithThreshold marks the threshold as explicitly set, so zero means "exact
// and above zero" rather than the default.
func (p SearchParams) WithThreshold(t int) SearchParams {
	p.Threshold = t
	p.thresholdSet = true
	return p
}

// resultSet is a complete evaluation stored in the cache.
type resultSet struct {
	results   []Result
	truncated bool
}

// ResolvedContact describes the contact a scoped operation resolved to.
type ResolvedContact struct {
	Name           string             `json:"name"`
	JID            string             `json:"jid"`
	ConversationID int64              `json:"conversation_id"`
	Score          int                `json:"score"`
	Tier           string             `json:"tier"`
	Alternates     []ContactCandidate `json:"alternates,omitempty"`
}

// ContactCandidate is one alternate contact match.
type ContactCandidate struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// ContactSearchPage is a search page scoped to one resolved contact.
type ContactSearchPage struct {
	SearchPage
	Contact ResolvedContact `json:"contact"`
}

// ConversationMessage is one message in a conversation view.
type ConversationMessage struct {
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	FromMe    bool      `json:"from_me"`
}

// ConversationPage is one window of a conversation in messaging-app order:
// most recent window first across pages, chronological within a page.
type ConversationPage struct {
	Contact    ResolvedContact       `json:"contact"`
	Messages   []ConversationMessage `json:"messages"`
	Page       int                   `json:"page"`
	TotalPages int                   `json:"total_pages"`
	HasMore    bool                  `json:"has_more"`
}

// Resolution is the outcome of an explicit contact lookup.
type Resolution struct {
	Best       ResolvedContact    `json:"best"`
	Candidates []ContactCandidate `json:"candidates"`
}

// Stats summarizes the store for the stats operation.
type Stats struct {
	MessageCount           int64 `json:"message_count"`
	TextMessageCount       int64 `json:"text_message_count"`
	ConversationCount      int64 `json:"conversation_count"`
	NamedConversationCount int64 `json:"named_conversation_count"`
}

// Options configures an Engine.
type Options struct {
	// CacheEntries bounds the result cache; 0 uses the cache default.
	CacheEntries int
	// PrefilterCap bounds candidate rows per search; 0 uses the default.
	PrefilterCap int
	Logger       *slog.Logger
}

// Engine owns one session's search state: the open store, the preloaded
// contact directory, and the result cache.
type Engine struct {
	store   *store.Store
	results *cache.Cache[resultSet]
	cap     int
	log     *slog.Logger

	loadOnce sync.Once
	loadErr  error
	resolver *contacts.Resolver
	names    map[string]string
}

// New creates an Engine over an open store. The contact directory loads
// lazily on first use.
func New(s *store.Store, opts Options) (*Engine, error) {
	results, err := cache.New[resultSet](opts.CacheEntries)
	if err != nil {
		return nil, err
	}
	prefilterCap := opts.PrefilterCap
	if prefilterCap <= 0 {
		prefilterCap = search.DefaultPrefilterCap
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:   s,
		results: results,
		cap:     prefilterCap,
		log:     logger,
	}, nil
}

// load builds the contact directory once per session: chat-partner names
// overridden by address-book names.
func (e *Engine) load(ctx context.Context) error {
	e.loadOnce.Do(func() {
		sessions, err := e.store.ChatSessions(ctx)
		if err != nil {
			e.loadErr = err
			return
		}
		book, err := e.store.AddressBookNames(ctx)
		if err != nil {
			e.loadErr = err
			return
		}

		identities := make([]contacts.Identity, 0, len(sessions))
		e.names = make(map[string]string, len(sessions)+len(book))
		for _, cs := range sessions {
			identities = append(identities, contacts.Identity{
				JID:            cs.JID,
				DisplayName:    cs.Name,
				ConversationID: cs.ID,
			})
			if cs.Name != "" {
				e.names[cs.JID] = cs.Name
			}
		}
		for jid, name := range book {
			e.names[jid] = name
		}
		e.resolver = contacts.NewResolver(identities, book)
		e.log.Debug("contact directory loaded",
			"sessions", len(sessions), "address_book", len(book))
	})
	return e.loadErr
}

func (p *SearchParams) normalize() error {
	if !p.thresholdSet && p.Threshold == 0 {
		p.Threshold = 60
	}
	if p.Threshold < 0 || p.Threshold > 100 {
		return &InvalidParameterError{Name: "threshold", Reason: "must be in [0,100]"}
	}
	if p.PageSize == 0 {
		p.PageSize = 20
	}
	if p.PageSize < 0 {
		return &InvalidParameterError{Name: "page_size", Reason: "must be positive"}
	}
	if p.Page == 0 {
		p.Page = 1
	}
	if p.Sort == "" {
		p.Sort = SortRelevance
	}
	if p.Sort != SortRelevance && p.Sort != SortTime {
		return &InvalidParameterError{Name: "sort", Reason: "must be relevance or time"}
	}
	p.Query = strings.ToLower(strings.TrimSpace(p.Query))
	return nil
}

// Search performs a global fuzzy search over all conversations.
func (e *Engine) Search(ctx context.Context, p SearchParams) (*SearchPage, error) {
	return e.search(ctx, p, 0)
}

func (e *Engine) search(ctx context.Context, p SearchParams, conversationID int64) (*SearchPage, error) {
	if err := p.normalize(); err != nil {
		return nil, err
	}
	if p.Query == "" {
		return &SearchPage{Results: []Result{}, Page: p.Page}, nil
	}
	if err := e.load(ctx); err != nil {
		return nil, err
	}

	sig := cache.Signature{
		Query:          p.Query,
		Threshold:      p.Threshold,
		Sort:           string(p.Sort),
		ConversationID: conversationID,
	}
	set, hit, err := e.results.Evaluate(ctx, sig, func(ctx context.Context) (resultSet, error) {
		return e.evaluate(ctx, p.Query, p.Threshold, p.Sort, conversationID)
	})
	if err != nil {
		return nil, err
	}
	e.log.Debug("search evaluated",
		"query", p.Query, "matches", len(set.results), "cached", hit)

	slice, page, totalPages, hasMore := paginate(set.results, p.Page, p.PageSize)
	return &SearchPage{
		Results:      slice,
		TotalMatches: len(set.results),
		Page:         page,
		TotalPages:   totalPages,
		HasMore:      hasMore,
		Truncated:    set.truncated,
	}, nil
}

// evaluate runs the full search pipeline for one signature: prefilter,
// parallel scoring, filtering, and sorting.
func (e *Engine) evaluate(ctx context.Context, query string, threshold int, mode SortMode, conversationID int64) (resultSet, error) {
	patterns, ok := search.Patterns(query)
	if !ok {
		// Query too short to prefilter; fall back to a capped scan.
		patterns = nil
	}
	candidates, truncated, err := e.store.Candidates(ctx, patterns, conversationID, e.cap)
	if err != nil {
		return resultSet{}, err
	}
	if truncated {
		e.log.Debug("candidate cap reached", "cap", e.cap)
	}

	scorer := search.NewScorer(query)
	type scored struct {
		score   int
		exact   bool
		include bool
	}
	marks := make([]scored, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for start := 0; start < len(candidates); start += scoreBatchSize {
		end := start + scoreBatchSize
		if end > len(candidates) {
			end = len(candidates)
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for i := start; i < end; i++ {
				score, exact := scorer.Score(candidates[i].Text)
				marks[i] = scored{
					score:   score,
					exact:   exact,
					include: scorer.Include(score, exact, threshold),
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return resultSet{}, err
	}

	results := make([]Result, 0, len(candidates)/4)
	for i, m := range candidates {
		if !marks[i].include {
			continue
		}
		results = append(results, Result{
			MessageID:      m.ID,
			Text:           m.Text,
			Score:          marks[i].score,
			Exact:          marks[i].exact,
			Timestamp:      m.Time(),
			Sender:         e.senderDisplay(m),
			ChatName:       m.ChatName,
			ConversationID: m.ConversationID,
			FromMe:         m.FromMe,
			ts:             m.Timestamp,
		})
	}
	sortResults(results, mode)
	return resultSet{results: results, truncated: truncated}, nil
}

// sortResults orders results by the requested mode. The sort is stable, so
// candidates tied on both keys keep their prefilter order.
func sortResults(results []Result, mode SortMode) {
	switch mode {
	case SortTime:
		sort.SliceStable(results, func(i, j int) bool {
			if results[i].ts != results[j].ts {
				return results[i].ts > results[j].ts
			}
			return results[i].Score > results[j].Score
		})
	default:
		sort.SliceStable(results, func(i, j int) bool {
			if results[i].Score != results[j].Score {
				return results[i].Score > results[j].Score
			}
			return results[i].ts > results[j].ts
		})
	}
}

// senderDisplay formats a message's sender for presentation: "You" for own
// messages, "Name (phone)" when the sender is known, bare phone otherwise.
func (e *Engine) senderDisplay(m store.Message) string {
	if m.FromMe {
		return "You"
	}
	phone := jidUser(m.SenderJID)
	if name, ok := e.names[m.SenderJID]; ok && name != "" {
		if phone == "" {
			return name
		}
		return fmt.Sprintf("%s (%s)", name, phone)
	}
	if phone != "" {
		return phone
	}
	return m.ChatName
}

// jidUser returns the user part of a JID, which for WhatsApp individual
// accounts is the phone number.
func jidUser(jid string) string {
	if i := strings.IndexByte(jid, '@'); i >= 0 {
		return jid[:i]
	}
	return jid
}

func resolvedContact(m contacts.Match, alternates []contacts.Match) ResolvedContact {
	rc := ResolvedContact{
		Name:           m.Identity.DisplayName,
		JID:            m.Identity.JID,
		ConversationID: m.Identity.ConversationID,
		Score:          m.Score,
		Tier:           m.Tier.String(),
	}
	for _, alt := range alternates {
		if alt.Identity.JID == m.Identity.JID {
			continue
		}
		rc.Alternates = append(rc.Alternates, ContactCandidate{
			Name:  alt.Identity.DisplayName,
			Score: alt.Score,
		})
	}
	return rc
}

// SearchInContact resolves contactQuery to its best conversation and runs a
// search scoped to it. Alternates from the resolution are reported in the
// contact metadata.
func (e *Engine) SearchInContact(ctx context.Context, contactQuery string, p SearchParams) (*ContactSearchPage, error) {
	if err := e.load(ctx); err != nil {
		return nil, err
	}
	best, candidates, err := e.resolver.Resolve(contactQuery)
	if err != nil {
		return nil, err
	}
	page, err := e.search(ctx, p, best.Identity.ConversationID)
	if err != nil {
		return nil, err
	}
	return &ContactSearchPage{
		SearchPage: *page,
		Contact:    resolvedContact(best, candidates),
	}, nil
}

// ResolveContact maps a free-text contact query to the best-matching known
// identity, with scored alternates.
func (e *Engine) ResolveContact(ctx context.Context, query string) (*Resolution, error) {
	if err := e.load(ctx); err != nil {
		return nil, err
	}
	best, candidates, err := e.resolver.Resolve(query)
	if err != nil {
		return nil, err
	}
	res := &Resolution{Best: resolvedContact(best, nil)}
	for _, c := range candidates {
		res.Candidates = append(res.Candidates, ContactCandidate{
			Name:  c.Identity.DisplayName,
			Score: c.Score,
		})
	}
	return res, nil
}

// ViewConversation returns one window of the conversation with the resolved
// contact. Windows page from most recent backwards; each window reads
// oldest-to-newest.
func (e *Engine) ViewConversation(ctx context.Context, contactQuery string, page, pageSize int) (*ConversationPage, error) {
	if pageSize == 0 {
		pageSize = 20
	}
	if pageSize < 0 {
		return nil, &InvalidParameterError{Name: "page_size", Reason: "must be positive"}
	}
	if page == 0 {
		page = 1
	}
	if err := e.load(ctx); err != nil {
		return nil, err
	}

	best, candidates, err := e.resolver.Resolve(contactQuery)
	if err != nil {
		return nil, err
	}
	contact := resolvedContact(best, candidates)

	total, err := e.store.ConversationCount(ctx, best.Identity.ConversationID)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return &ConversationPage{
			Contact:  contact,
			Messages: []ConversationMessage{},
			Page:     page,
		}, nil
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	window, err := e.store.ConversationWindow(ctx, best.Identity.ConversationID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	// Fetched newest first; reverse for top-to-bottom reading.
	msgs := make([]ConversationMessage, 0, len(window))
	for i := len(window) - 1; i >= 0; i-- {
		m := window[i]
		msgs = append(msgs, ConversationMessage{
			Sender:    e.senderDisplay(m),
			Text:      m.Text,
			Timestamp: m.Time(),
			FromMe:    m.FromMe,
		})
	}
	return &ConversationPage{
		Contact:    contact,
		Messages:   msgs,
		Page:       page,
		TotalPages: totalPages,
		HasMore:    page < totalPages,
	}, nil
}

// Stats returns store-wide counts.
func (e *Engine) Stats(ctx context.Context) (*Stats, error) {
	s, err := e.store.GetStats()
	if err != nil {
		return nil, err
	}
	return &Stats{
		MessageCount:           s.MessageCount,
		TextMessageCount:       s.TextMessageCount,
		ConversationCount:      s.ConversationCount,
		NamedConversationCount: s.NamedConversationCount,
	}, nil
}

// ClearCache discards every cached result set, forcing recomputation.
func (e *Engine) ClearCache() {
	e.results.Clear()
}
