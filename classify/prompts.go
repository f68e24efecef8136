package classify

import (
	"fmt"
	"strings"
)

const systemPrompt = "Классификация. JSON only. Всегда возвращай подкатегорию если она подходит."

const userPromptTemplate = `Категории: %s
Запрос: "%s"
JSON: {"category": "...", "subcategory": "..." (если применимо), "confidence": "высокая/средняя/низкая", "reasoning": "..."}`

// buildUserPrompt lists each category with its subcategories in parentheses.
func buildUserPrompt(c *catalog, text string) string {
	parts := make([]string, 0, len(c.categories))
	for _, cat := range c.categories {
		if subs := c.subcategories[cat]; len(subs) > 0 {
			parts = append(parts, fmt.Sprintf("%s (%s)", cat, strings.Join(subs, ", ")))
			continue
		}
		parts = append(parts, cat)
	}
	return fmt.Sprintf(userPromptTemplate, strings.Join(parts, "; "), text)
}
