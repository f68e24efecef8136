package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/poiesic/ticketrank/classify"
	"github.com/poiesic/ticketrank/compress"
	"github.com/poiesic/ticketrank/core"
	"github.com/poiesic/ticketrank/pipeline"
)

type resultOutput struct {
	Rank               int                 `json:"rank"`
	ID                 int                 `json:"id"`
	ArticleID          string              `json:"article_id"`
	MainCategory       string              `json:"main_category"`
	Subcategory        string              `json:"subcategory"`
	ExampleQuestion    string              `json:"example_question"`
	Similarity         float64             `json:"similarity"`
	OriginalSimilarity float64             `json:"original_similarity"`
	FeedbackBonus      float64             `json:"feedback_bonus"`
	FeedbackStats      *core.FeedbackStats `json:"feedback_stats,omitempty"`
}

type queryOutput struct {
	Text          string           `json:"text"`
	Normalized    string           `json:"normalized_text,omitempty"`
	Changes       []string         `json:"changes,omitempty"`
	Optimized     string           `json:"optimized_text,omitempty"`
	Stats         *compress.Stats  `json:"optimization_stats,omitempty"`
	Category      string           `json:"category,omitempty"`
	Classified    *classify.Result `json:"classification,omitempty"`
	Answer        string           `json:"suggested_response"`
	Confidence    core.Confidence  `json:"confidence"`
	Priority      string           `json:"priority"`
	Subcategories []string         `json:"subcategories"`
	Results       []resultOutput   `json:"search_results"`
}

// newQueryOutput omits the intermediate texts when they did not change.
func newQueryOutput(resp *pipeline.Response) *queryOutput {
	out := &queryOutput{
		Text:          resp.Text,
		Category:      resp.Category,
		Classified:    resp.Classified,
		Answer:        resp.Answer,
		Confidence:    resp.Confidence,
		Priority:      resp.Priority,
		Subcategories: resp.Subcategories,
		Results:       make([]resultOutput, 0, len(resp.Results)),
	}
	if len(resp.Changes) > 0 {
		out.Normalized = resp.Normalized
		out.Changes = resp.Changes
	}
	if resp.Stats.WasOptimized {
		out.Optimized = resp.Optimized
		stats := resp.Stats
		out.Stats = &stats
	}
	for _, r := range resp.Results {
		out.Results = append(out.Results, resultOutput{
			Rank:               r.Rank,
			ID:                 r.Article.ID,
			ArticleID:          r.ArticleID,
			MainCategory:       r.Article.MainCategory,
			Subcategory:        r.Article.Subcategory,
			ExampleQuestion:    r.Article.ExampleQuestion,
			Similarity:         r.Similarity,
			OriginalSimilarity: r.OriginalSimilarity,
			FeedbackBonus:      r.FeedbackBonus,
			FeedbackStats:      r.FeedbackStats,
		})
	}
	return out
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func printResponse(w io.Writer, resp *pipeline.Response) {
	if len(resp.Changes) > 0 {
		fmt.Fprintf(w, "Normalized: %s\n", resp.Normalized)
		for _, change := range resp.Changes {
			fmt.Fprintf(w, "  %s\n", change)
		}
	}
	if resp.Stats.WasOptimized {
		fmt.Fprintf(w, "Optimized:  %s (%d → %d tokens)\n", resp.Optimized, resp.Stats.OriginalTokens, resp.Stats.OptimizedTokens)
	}
	if resp.Category != "" {
		fmt.Fprintf(w, "Category:   %s\n", resp.Category)
	}
	fmt.Fprintf(w, "Confidence: %s\n", resp.Confidence)
	fmt.Fprintf(w, "Priority:   %s\n", resp.Priority)
	if len(resp.Subcategories) > 0 {
		fmt.Fprintf(w, "Subcategories: %s\n", strings.Join(resp.Subcategories, ", "))
	}
	fmt.Fprintf(w, "\n%s\n", resp.Answer)

	if !resp.Found() {
		return
	}
	fmt.Fprintf(w, "\nFound %d matches\n", len(resp.Results))
	for _, r := range resp.Results {
		fmt.Fprintf(w, "%d: #%d [%s] '%s' [%0.3f", r.Rank, r.Article.ID, r.Article.MainCategory, r.Article.ExampleQuestion, r.Similarity)
		if r.FeedbackBonus > 0 {
			fmt.Fprintf(w, " = %0.3f + %0.3f", r.OriginalSimilarity, r.FeedbackBonus)
		}
		fmt.Fprintln(w, "]")
	}
}
