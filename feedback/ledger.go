// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package feedback

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/poiesic/ticketrank/core"
	"github.com/poiesic/ticketrank/storage"
)

// DefaultHistoryLimit is the number of most recent events kept.
const DefaultHistoryLimit = 1000

// Statistics aggregates the whole ledger.
type Statistics struct {
	TemplatesRated  int     `json:"total_templates_rated"`
	TotalFeedback   int     `json:"total_feedback"`
	TotalHelpful    int     `json:"total_helpful"`
	HelpfulnessRate float64 `json:"helpfulness_rate"`
	HistorySize     int     `json:"history_size"`
}

// Ledger holds per-article feedback counters and the recent event history.
// It is safe for concurrent use.
type Ledger struct {
	store        storage.LedgerStore
	historyLimit int
	newID        func() string
	logger       *slog.Logger

	mu  sync.Mutex
	doc *core.LedgerDocument
}

// Option configures a Ledger.
type Option func(*Ledger) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) error {
		if logger == nil {
			logger = slog.Default()
		}
		l.logger = logger
		return nil
	}
}

// WithStore persists the ledger. Without a store it lives in memory only.
func WithStore(store storage.LedgerStore) Option {
	return func(l *Ledger) error {
		l.store = store
		return nil
	}
}

// WithHistoryLimit sets how many recent events are kept.
func WithHistoryLimit(n int) Option {
	return func(l *Ledger) error {
		if n < 1 {
			return core.NewConfigurationError("history limit", "must be at least 1")
		}
		l.historyLimit = n
		return nil
	}
}

// NewLedger creates an empty ledger. Call Load to read persisted state.
func NewLedger(opts ...Option) (*Ledger, error) {
	l := &Ledger{
		historyLimit: DefaultHistoryLimit,
		newID:        uuid.NewString,
		logger:       slog.Default().With("component", "feedback"),
		doc:          core.NewLedgerDocument(),
	}
	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Load replaces the in-memory state with the persisted document.
// A missing or unreadable document leaves the ledger empty; only context
// cancellation is returned as an error.
func (l *Ledger) Load(ctx context.Context) error {
	if l.store == nil {
		return nil
	}

	doc, err := l.store.LoadLedger(ctx)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		l.logger.Info("no feedback ledger yet, starting empty")
		doc = core.NewLedgerDocument()
	case err != nil:
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		l.logger.Warn("discarding unreadable feedback ledger", "err", err)
		doc = core.NewLedgerDocument()
	}

	if over := len(doc.History) - l.historyLimit; over > 0 {
		doc.History = doc.History[over:]
	}

	l.mu.Lock()
	l.doc = doc
	l.mu.Unlock()

	l.logger.Info("feedback ledger loaded", "templates", len(doc.Templates), "history", len(doc.History))
	return nil
}

// AddFeedback records one signal for articleID and persists the ledger.
// It returns the article's updated stats. Persistence failures are logged,
// not returned.
func (l *Ledger) AddFeedback(ctx context.Context, articleID, query string, helpful bool) (core.FeedbackStats, error) {
	if strings.TrimSpace(articleID) == "" {
		return core.FeedbackStats{}, core.ErrEmptyArticleID
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := core.Now()
	rec, ok := l.doc.Templates[articleID]
	if !ok {
		rec = &core.FeedbackRecord{FirstSeen: now}
		l.doc.Templates[articleID] = rec
	}
	rec.Total++
	if helpful {
		rec.Helpful++
	}

	l.doc.History = append(l.doc.History, core.FeedbackEvent{
		ID:        l.newID(),
		ArticleID: articleID,
		Query:     query,
		IsHelpful: helpful,
		Timestamp: now,
	})
	if over := len(l.doc.History) - l.historyLimit; over > 0 {
		l.doc.History = slices.Delete(l.doc.History, 0, over)
	}

	l.persist(ctx)

	stats := statsOf(rec)
	l.logger.Info("feedback recorded",
		"article", truncate(articleID, 50),
		"helpful", helpful,
		"rate", stats.Rate,
		"total", stats.Total)
	return stats, nil
}

// persist writes the document. Must be called with lock held.
func (l *Ledger) persist(ctx context.Context) {
	if l.store == nil {
		return
	}
	if err := l.store.SaveLedger(ctx, l.doc); err != nil {
		l.logger.Error("failed to save feedback ledger", "err", err)
		return
	}
	l.logger.Debug("feedback ledger saved", "templates", len(l.doc.Templates))
}

// ScoreBonus returns the similarity bonus earned by articleID.
func (l *Ledger) ScoreBonus(articleID string) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.doc.Templates[articleID]
	if !ok {
		return 0
	}
	return Bonus(rec.Helpful, rec.Total)
}

// Stats returns the counters for articleID; unseen articles report zeros.
func (l *Ledger) Stats(articleID string) core.FeedbackStats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return statsOf(l.doc.Templates[articleID])
}

// Rerank adds each result's feedback bonus to its similarity, capped at 1,
// and re-sorts the results by the boosted similarity. The unboosted value is
// kept in OriginalSimilarity. Ties keep their incoming order and ranks are
// renumbered. results is modified in place and returned.
func (l *Ledger) Rerank(results []*core.SearchResult) []*core.SearchResult {
	l.mu.Lock()
	for _, r := range results {
		if r.ArticleID == "" && r.Article != nil {
			r.ArticleID = r.Article.Identity()
		}
		rec := l.doc.Templates[r.ArticleID]
		stats := statsOf(rec)

		bonus := 0.0
		if rec != nil {
			bonus = Bonus(rec.Helpful, rec.Total)
		}

		r.OriginalSimilarity = r.Similarity
		r.Similarity = min(r.Similarity+bonus, 1.0)
		r.FeedbackBonus = bonus
		r.FeedbackStats = &stats
	}
	l.mu.Unlock()

	slices.SortStableFunc(results, func(a, b *core.SearchResult) int {
		return cmp.Compare(b.Similarity, a.Similarity)
	})
	for i, r := range results {
		r.Rank = i + 1
	}
	return results
}

// Statistics aggregates counters across all articles.
func (l *Ledger) Statistics() Statistics {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := Statistics{
		TemplatesRated: len(l.doc.Templates),
		HistorySize:    len(l.doc.History),
	}
	for _, rec := range l.doc.Templates {
		s.TotalFeedback += rec.Total
		s.TotalHelpful += rec.Helpful
	}
	if s.TotalFeedback > 0 {
		s.HelpfulnessRate = float64(s.TotalHelpful) / float64(s.TotalFeedback)
	}
	return s
}

// History returns up to n of the most recent events, oldest first.
// n <= 0 returns the whole history.
func (l *Ledger) History(n int) []core.FeedbackEvent {
	l.mu.Lock()
	defer l.mu.Unlock()

	events := l.doc.History
	if n > 0 && len(events) > n {
		events = events[len(events)-n:]
	}
	return slices.Clone(events)
}

// TopRated returns article identities sorted by bonus, best first.
// Articles without a bonus are omitted.
func (l *Ledger) TopRated(n int) []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	ids := slices.Collect(maps.Keys(l.doc.Templates))
	ids = slices.DeleteFunc(ids, func(id string) bool {
		rec := l.doc.Templates[id]
		return Bonus(rec.Helpful, rec.Total) == 0
	})
	slices.SortFunc(ids, func(a, b string) int {
		ra, rb := l.doc.Templates[a], l.doc.Templates[b]
		if c := cmp.Compare(Bonus(rb.Helpful, rb.Total), Bonus(ra.Helpful, ra.Total)); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	if n > 0 && len(ids) > n {
		ids = ids[:n]
	}
	return ids
}

func statsOf(rec *core.FeedbackRecord) core.FeedbackStats {
	if rec == nil {
		return core.FeedbackStats{}
	}
	return core.FeedbackStats{Helpful: rec.Helpful, Total: rec.Total, Rate: rec.Rate()}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
