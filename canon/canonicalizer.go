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


package canon

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/poiesic/ticketrank/core"
)

// DefaultMatchTimeout bounds the time a single rule may spend matching.
const DefaultMatchTimeout = 100 * time.Millisecond

// Canonicalizer applies an ordered rule set to query text.
// It is immutable after construction and safe for concurrent use.
type Canonicalizer struct {
	rules   []compiledRule
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures a Canonicalizer.
type Option func(*Canonicalizer) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Canonicalizer) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// WithMatchTimeout bounds how long a single rule may run against one input.
// A rule that times out is skipped for that input.
func WithMatchTimeout(d time.Duration) Option {
	return func(c *Canonicalizer) error {
		if d <= 0 {
			return core.NewConfigurationError("match timeout", "must be positive")
		}
		c.timeout = d
		return nil
	}
}

// New compiles rules in order. A pattern that fails to compile is reported
// as a configuration error naming the rule's position.
func New(rules []Rule, opts ...Option) (*Canonicalizer, error) {
	c := &Canonicalizer{
		timeout: DefaultMatchTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	c.rules = make([]compiledRule, 0, len(rules))
	for i, rule := range rules {
		if rule.pattern == "" {
			return nil, core.NewConfigurationError(fmt.Sprintf("rule %d", i), "empty pattern")
		}
		re, err := regexp2.Compile(rule.pattern, regexp2.IgnoreCase)
		if err != nil {
			return nil, core.NewConfigurationError(fmt.Sprintf("rule %d", i), err.Error())
		}
		re.MatchTimeout = c.timeout
		c.rules = append(c.rules, compiledRule{Rule: rule, re: re})
	}

	c.logger.Debug("canonicalizer ready", "rules", len(c.rules))
	return c, nil
}

// NewDefault builds a Canonicalizer over DefaultRules.
func NewDefault(opts ...Option) (*Canonicalizer, error) {
	return New(DefaultRules(), opts...)
}

// Len returns the number of rules.
func (c *Canonicalizer) Len() int {
	return len(c.rules)
}

// Normalize rewrites text through every rule in order.
func (c *Canonicalizer) Normalize(text string) string {
	out, _ := c.run(text, false)
	return out
}

// NormalizeWithChanges rewrites text and returns a human-readable log of
// what changed. Literal rules contribute one "'match' → 'replacement'" entry
// per altered match; transform rules contribute their summary once.
func (c *Canonicalizer) NormalizeWithChanges(text string) (string, []string) {
	return c.run(text, true)
}

func (c *Canonicalizer) run(text string, record bool) (string, []string) {
	changes := []string{}
	if text == "" {
		return text, changes
	}

	current := text
	for i := range c.rules {
		rule := &c.rules[i]
		next, matched, err := rule.apply(current)
		if err != nil {
			c.logger.Warn("skipping canonicalization rule", "rule", i, "pattern", rule.pattern, "err", err)
			continue
		}
		if next == current {
			continue
		}
		if record {
			changes = append(changes, describe(rule, matched)...)
		}
		current = next
	}

	if record && len(changes) > 0 {
		c.logger.Debug("canonicalized query", "changes", len(changes))
	}
	return current, changes
}

func describe(rule *compiledRule, matched []string) []string {
	if rule.IsTransform() {
		return []string{rule.summary}
	}
	var out []string
	for _, m := range matched {
		if strings.EqualFold(m, rule.replacement) {
			continue
		}
		out = append(out, fmt.Sprintf("'%s' → '%s'", m, rule.replacement))
	}
	return out
}
