package canon

import (
	"fmt"

	"github.com/dlclark/regexp2"
)

// TransformFunc builds a replacement from a match's capture groups.
// groups[0] is the whole match; unmatched optional groups are empty.
type TransformFunc func(groups []string) string

// Rule is a single rewrite. Build rules with Literal or Transform.
type Rule struct {
	pattern     string
	replacement string
	summary     string
	transform   TransformFunc
}

// Literal returns a rule replacing every match of pattern with replacement.
// The replacement is used verbatim; no group substitution is performed.
func Literal(pattern, replacement string) Rule {
	return Rule{pattern: pattern, replacement: replacement}
}

// Transform returns a rule replacing every match of pattern with fn's result.
// summary is recorded once in the change log whenever the rule alters text.
func Transform(pattern, summary string, fn TransformFunc) Rule {
	return Rule{pattern: pattern, summary: summary, transform: fn}
}

// Pattern returns the rule's regular expression source.
func (r Rule) Pattern() string {
	return r.pattern
}

// IsTransform reports whether the rule computes its replacement.
func (r Rule) IsTransform() bool {
	return r.transform != nil
}

func (r Rule) String() string {
	if r.IsTransform() {
		return fmt.Sprintf("transform(%s: %s)", r.pattern, r.summary)
	}
	return fmt.Sprintf("literal(%s → %s)", r.pattern, r.replacement)
}

// compiledRule pairs a Rule with its compiled expression.
type compiledRule struct {
	Rule
	re *regexp2.Regexp
}

// apply rewrites text and returns the literal matches it replaced.
func (r *compiledRule) apply(text string) (string, []string, error) {
	var matched []string
	out, err := r.re.ReplaceFunc(text, func(m regexp2.Match) string {
		whole := m.String()
		matched = append(matched, whole)
		if r.transform == nil {
			return r.replacement
		}
		groups := m.Groups()
		values := make([]string, len(groups))
		for i := range groups {
			values[i] = groups[i].String()
		}
		return r.transform(values)
	}, -1, -1)
	if err != nil {
		return text, nil, err
	}
	return out, matched, nil
}

// prefixed returns a TransformFunc that keeps group 1 and appends suffix.
func prefixed(suffix string) TransformFunc {
	return func(groups []string) string {
		if len(groups) < 2 {
			return suffix
		}
		return groups[1] + " " + suffix
	}
}
