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


package classify

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/poiesic/ticketrank/ai"
	"github.com/poiesic/ticketrank/cache"
	"github.com/poiesic/ticketrank/core"
)

const (
	// FallbackCategory is reported when the model's answer cannot be used.
	FallbackCategory = "Другое"

	// DefaultCacheSize bounds the number of cached classifications.
	DefaultCacheSize = 100

	defaultTemperature = 0.1
	defaultMaxTokens   = 300
)

// Result is the outcome of classifying one request.
type Result struct {
	Category    string `json:"category"`
	Subcategory string `json:"subcategory,omitempty"`
	Confidence  string `json:"confidence,omitempty"`
	Reasoning   string `json:"reasoning,omitempty"`

	// Fallback is set when Category is FallbackCategory because the
	// model's reply was unusable.
	Fallback bool `json:"-"`
}

// Classifier picks a corpus category for free-text requests.
// It is safe for concurrent use.
type Classifier struct {
	completer   ai.Completer
	catalog     *catalog
	cache       *cache.FIFO[uint64, Result]
	cacheSize   int
	temperature float64
	maxTokens   int
	logger      *slog.Logger
}

// Option configures a Classifier.
type Option func(*Classifier) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Classifier) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// WithCacheSize bounds the classification cache.
func WithCacheSize(n int) Option {
	return func(c *Classifier) error {
		if n < 1 {
			return core.NewConfigurationError("classification cache size", "must be at least 1")
		}
		c.cacheSize = n
		return nil
	}
}

// WithMaxTokens caps the length of the model's reply.
func WithMaxTokens(n int) Option {
	return func(c *Classifier) error {
		if n < 1 {
			return core.NewConfigurationError("classification max tokens", "must be at least 1")
		}
		c.maxTokens = n
		return nil
	}
}

// New creates a Classifier over the categories present in articles.
func New(completer ai.Completer, articles []*core.Article, opts ...Option) (*Classifier, error) {
	if completer == nil {
		return nil, core.NewConfigurationError("completer", "is required")
	}

	c := &Classifier{
		completer:   completer,
		catalog:     newCatalog(articles),
		cacheSize:   DefaultCacheSize,
		temperature: defaultTemperature,
		maxTokens:   defaultMaxTokens,
		logger:      slog.Default().With("component", "classifier"),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	c.cache = cache.NewFIFO[uint64, Result](c.cacheSize)
	return c, nil
}

// Categories returns the sorted categories offered to the model.
func (c *Classifier) Categories() []string {
	return append([]string(nil), c.catalog.categories...)
}

// Classify returns the category for text. Provider errors are returned as-is
// and never cached; an unusable reply yields a fallback Result and no error.
func (c *Classifier) Classify(ctx context.Context, text string) (Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return fallback("empty request"), nil
	}

	key := core.Fingerprint(strings.ToLower(text))
	if r, ok := c.cache.Get(key); ok {
		c.logger.Debug("classification cache hit", "category", r.Category)
		return r, nil
	}

	if len(c.catalog.categories) == 0 {
		return fallback("no categories loaded"), nil
	}

	messages := []ai.Message{
		{Role: ai.RoleSystem, Content: systemPrompt},
		{Role: ai.RoleUser, Content: buildUserPrompt(c.catalog, text)},
	}
	reply, err := c.completer.Complete(ctx, messages, c.temperature, c.maxTokens)
	if err != nil {
		if errors.Is(err, ai.ErrRateLimited) {
			c.logger.Warn("classification rate limited", "attempts", ai.Attempts(err))
		} else {
			c.logger.Error("classification failed", "err", err)
		}
		return Result{}, err
	}

	r, ok := c.parse(reply)
	if !ok {
		return fallback("unparseable reply"), nil
	}
	c.cache.Put(key, r)
	c.logger.Debug("classified request", "category", r.Category, "subcategory", r.Subcategory)
	return r, nil
}

func (c *Classifier) parse(reply string) (Result, bool) {
	obj, ok := extractObject(reply)
	if !ok {
		c.logger.Warn("no JSON object in classifier reply", "reply", reply)
		return Result{}, false
	}

	var r Result
	if err := json.Unmarshal([]byte(obj), &r); err != nil {
		c.logger.Warn("error parsing classifier reply", "reply", obj, "err", err)
		return Result{}, false
	}

	category, ok := c.catalog.resolve(r.Category)
	if !ok {
		c.logger.Warn("classifier returned unknown category", "category", r.Category)
		return Result{}, false
	}
	r.Category = category

	if sub, ok := c.catalog.resolveSub(category, r.Subcategory); ok {
		r.Subcategory = sub
	} else {
		r.Subcategory = ""
	}
	return r, true
}

func fallback(reason string) Result {
	return Result{
		Category:   FallbackCategory,
		Confidence: "низкая",
		Reasoning:  reason,
		Fallback:   true,
	}
}
