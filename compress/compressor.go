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


package compress

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
	"github.com/poiesic/ticketrank/core"
)

// Defaults for a Compressor.
const (
	DefaultMaxTokens       = 128
	DefaultCharsPerToken   = 4
	DefaultShortTextTokens = 10

	shortSentenceTokens   = 8
	trivialSentenceLength = 15
)

// Stats describes what Optimize did to a query.
type Stats struct {
	OriginalLength   int     `json:"original_length"`
	OptimizedLength  int     `json:"optimized_length"`
	OriginalTokens   int     `json:"original_tokens"`
	OptimizedTokens  int     `json:"optimized_tokens"`
	CompressionRatio float64 `json:"compression_ratio"`
	TokensSaved      int     `json:"tokens_saved"`
	WasOptimized     bool    `json:"was_optimized"`
}

// Compressor strips pleasantries from long queries and truncates them to a
// character budget derived from a token budget. Safe for concurrent use.
type Compressor struct {
	maxTokens       int
	charsPerToken   int
	shortTextTokens int
	terms           []string
	patterns        []string
	politeness      []*regexp2.Regexp
	logger          *slog.Logger
}

// Option configures a Compressor.
type Option func(*Compressor) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Compressor) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// WithMaxTokens sets the token budget of an optimized query.
func WithMaxTokens(n int) Option {
	return func(c *Compressor) error {
		if n < 1 {
			return core.NewConfigurationError("max tokens", "must be at least 1")
		}
		c.maxTokens = n
		return nil
	}
}

// WithCharsPerToken sets the average characters per token used to derive
// the character budget.
func WithCharsPerToken(n int) Option {
	return func(c *Compressor) error {
		if n < 1 {
			return core.NewConfigurationError("chars per token", "must be at least 1")
		}
		c.charsPerToken = n
		return nil
	}
}

// WithShortTextTokens sets the whitespace-token count at or below which a
// query is returned unchanged.
func WithShortTextTokens(n int) Option {
	return func(c *Compressor) error {
		if n < 0 {
			return core.NewConfigurationError("short text tokens", "must not be negative")
		}
		c.shortTextTokens = n
		return nil
	}
}

// WithDomainTerms replaces the domain-term list.
func WithDomainTerms(terms []string) Option {
	return func(c *Compressor) error {
		c.terms = terms
		return nil
	}
}

// WithPolitenessPatterns replaces the politeness pattern list.
func WithPolitenessPatterns(patterns []string) Option {
	return func(c *Compressor) error {
		c.patterns = patterns
		return nil
	}
}

// New creates a Compressor.
func New(opts ...Option) (*Compressor, error) {
	c := &Compressor{
		maxTokens:       DefaultMaxTokens,
		charsPerToken:   DefaultCharsPerToken,
		shortTextTokens: DefaultShortTextTokens,
		terms:           DefaultDomainTerms,
		patterns:        DefaultPolitenessPatterns,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	lowered := make([]string, len(c.terms))
	for i, term := range c.terms {
		lowered[i] = strings.ToLower(term)
	}
	c.terms = lowered

	c.politeness = make([]*regexp2.Regexp, 0, len(c.patterns))
	for i, pattern := range c.patterns {
		re, err := regexp2.Compile(pattern, regexp2.IgnoreCase)
		if err != nil {
			return nil, core.NewConfigurationError(fmt.Sprintf("politeness pattern %d", i), err.Error())
		}
		c.politeness = append(c.politeness, re)
	}
	return c, nil
}

// Budget returns the character budget of an optimized query.
func (c *Compressor) Budget() int {
	return c.maxTokens * c.charsPerToken
}

// Optimize shortens a long query. Queries of at most the short-text token
// count are returned unchanged. The result of a longer query never exceeds
// Budget characters.
func (c *Compressor) Optimize(text string) (string, Stats) {
	stats := Stats{
		OriginalLength:   utf8.RuneCountInString(text),
		OriginalTokens:   countTokens(text),
		CompressionRatio: 1.0,
	}
	optimized := text
	if text != "" && strings.TrimSpace(text) != "" && stats.OriginalTokens > c.shortTextTokens {
		cleaned := c.stripPoliteness(text)
		optimized = c.pack(c.selectSentences(cleaned))
	}

	stats.OptimizedLength = utf8.RuneCountInString(optimized)
	stats.OptimizedTokens = countTokens(optimized)
	if stats.OriginalLength > 0 {
		stats.CompressionRatio = float64(stats.OptimizedLength) / float64(stats.OriginalLength)
	}
	stats.TokensSaved = stats.OriginalTokens - stats.OptimizedTokens
	stats.WasOptimized = stats.OptimizedLength < stats.OriginalLength

	if stats.WasOptimized {
		c.logger.Debug("optimized query",
			"originalLength", stats.OriginalLength,
			"optimizedLength", stats.OptimizedLength,
			"tokensSaved", stats.TokensSaved)
	}
	return optimized, stats
}

func (c *Compressor) stripPoliteness(text string) string {
	cleaned := text
	for i, re := range c.politeness {
		out, err := re.Replace(cleaned, "", -1, -1)
		if err != nil {
			c.logger.Warn("skipping politeness pattern", "pattern", i, "err", err)
			continue
		}
		cleaned = out
	}
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	if collapsed, err := commaRun.Replace(cleaned, ",", -1, -1); err == nil {
		cleaned = collapsed
	}
	return strings.TrimFunc(cleaned, isStray)
}

// selectSentences keeps sentences that mention a domain term or are short
// but not trivial. With no survivors the whole text is the only candidate.
func (c *Compressor) selectSentences(text string) []string {
	if text == "" {
		return nil
	}
	var kept []string
	for _, sentence := range splitSentences(text) {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		if c.hasDomainTerm(sentence) {
			kept = append(kept, sentence)
			continue
		}
		if countTokens(sentence) <= shortSentenceTokens && utf8.RuneCountInString(sentence) > trivialSentenceLength {
			kept = append(kept, sentence)
		}
	}
	if len(kept) == 0 {
		return []string{text}
	}
	return kept
}

func (c *Compressor) hasDomainTerm(sentence string) bool {
	lower := strings.ToLower(sentence)
	for _, term := range c.terms {
		if term != "" && strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// pack joins candidates shortest-first while the result fits the budget,
// stopping at the first candidate that does not.
func (c *Compressor) pack(candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}
	budget := c.Budget()
	sorted := append([]string(nil), candidates...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return utf8.RuneCountInString(sorted[i]) < utf8.RuneCountInString(sorted[j])
	})

	var b strings.Builder
	length := 0
	for _, candidate := range sorted {
		n := utf8.RuneCountInString(candidate)
		next := n
		if length > 0 {
			next = length + 1 + n
		}
		if next > budget {
			break
		}
		if length > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(candidate)
		length = next
	}

	if length == 0 {
		// Not even the shortest candidate fits.
		return truncateWords(sorted[0], budget)
	}
	return b.String()
}

// truncateWords cuts s to at most limit characters, preferring the last
// word boundary inside the limit.
func truncateWords(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	cut := runes[:limit]
	for i := len(cut) - 1; i > 0; i-- {
		if unicode.IsSpace(cut[i]) {
			return strings.TrimRightFunc(string(cut[:i]), isStray)
		}
	}
	return string(cut)
}

func splitSentences(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
}

// commaRun matches comma runs left behind by removed phrases.
var commaRun = regexp2.MustCompile(`(\s*,)+`, regexp2.None)

func isStray(r rune) bool {
	return unicode.IsSpace(r) || r == ',' || r == '!' || r == '.' || r == '-'
}

func countTokens(s string) int {
	return len(strings.Fields(s))
}
