package core

//go:generate go run ../cmd/musgen

import "time"

// Article is a single pre-authored question/answer pair from the corpus.
// Articles are immutable once loaded; their position in the corpus defines
// the matching row of the embedding matrix.
type Article struct {
	ID              int    `json:"id" yaml:"id"`
	MainCategory    string `json:"main_category" yaml:"main_category"`
	Subcategory     string `json:"subcategory" yaml:"subcategory"`
	ExampleQuestion string `json:"example_question" yaml:"example_question"`
	TemplateAnswer  string `json:"template_answer" yaml:"template_answer"`
	Priority        string `json:"priority" yaml:"priority"`
	TargetAudience  string `json:"target_audience" yaml:"target_audience"`
}

// EmbeddingText returns the text whose embedding represents the article.
func (a *Article) EmbeddingText() string {
	return a.ExampleQuestion + " " + a.TemplateAnswer
}

// Identity returns the feedback ledger key for the article.
func (a *Article) Identity() string {
	return ArticleIdentity(a.ExampleQuestion, a.TemplateAnswer)
}

// FeedbackStats summarizes the helpfulness signals recorded for an article.
type FeedbackStats struct {
	Helpful int     `json:"helpful"`
	Total   int     `json:"total"`
	Rate    float64 `json:"rate"`
}

// SearchResult is a transient ranked match produced by search.
// OriginalSimilarity, FeedbackBonus and FeedbackStats are populated by reranking.
type SearchResult struct {
	Article            *Article
	ArticleID          string
	Similarity         float64
	Rank               int
	OriginalSimilarity float64
	FeedbackBonus      float64
	FeedbackStats      *FeedbackStats
}

// FeedbackRecord holds the counters for one article identity.
type FeedbackRecord struct {
	Helpful   int       `json:"helpful"`
	Total     int       `json:"total"`
	FirstSeen Timestamp `json:"first_seen"`
}

// Rate returns helpful/total, or 0 when nothing has been recorded.
func (r *FeedbackRecord) Rate() float64 {
	if r == nil || r.Total == 0 {
		return 0
	}
	return float64(r.Helpful) / float64(r.Total)
}

// FeedbackEvent is a single helpfulness signal kept in the bounded history.
type FeedbackEvent struct {
	ID        string    `json:"id,omitempty"`
	ArticleID string    `json:"article_id"`
	Query     string    `json:"query"`
	IsHelpful bool      `json:"is_helpful"`
	Timestamp Timestamp `json:"timestamp"`
}

// LedgerDocument is the persisted form of the feedback ledger.
type LedgerDocument struct {
	Templates map[string]*FeedbackRecord `json:"templates"`
	History   []FeedbackEvent            `json:"history"`
}

// NewLedgerDocument returns an empty, non-nil document.
func NewLedgerDocument() *LedgerDocument {
	return &LedgerDocument{
		Templates: make(map[string]*FeedbackRecord),
		History:   []FeedbackEvent{},
	}
}

// EmbeddingMatrix holds one L2-normalized embedding per article, row-major.
type EmbeddingMatrix struct {
	Rows         int
	Dim          int
	Data         []float32
	Model        string
	CorpusDigest uint64
	BuiltAt      time.Time
}
