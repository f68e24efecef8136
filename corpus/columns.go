package corpus

import (
	"strconv"
	"strings"

	"github.com/poiesic/ticketrank/core"
)

// Defaults for values missing from a corpus row.
const (
	DefaultCategory = "Другое"
	DefaultPriority = "Средний"
	DefaultAudience = "Все"
)

// Column aliases, most specific first. The last English aliases are the
// field names of older JSON corpora.
var (
	idColumns          = []string{"id"}
	mainCategoryColumn = []string{"main_category", "Основная категория", "category"}
	subcategoryColumns = []string{"subcategory", "Подкатегория"}
	questionColumns    = []string{"example_question", "Пример вопроса", "problem"}
	priorityColumns    = []string{"priority", "Приоритет"}
	audienceColumns    = []string{"target_audience", "Целевая аудитория"}
	answerColumns      = []string{"template_answer", "Шаблонный ответ", "solution"}
)

// row is one corpus record keyed by normalized column name.
type row map[string]string

func normalizeColumn(name string) string {
	name = strings.TrimPrefix(name, "\ufeff")
	return strings.ToLower(strings.TrimSpace(name))
}

func (r row) lookup(aliases []string, fallback string) string {
	for _, alias := range aliases {
		if v, ok := r[normalizeColumn(alias)]; ok {
			v = strings.TrimSpace(v)
			if v != "" {
				return v
			}
		}
	}
	return fallback
}

// toArticle maps row idx (0-based) to an Article.
// The second result is false when the id column held an unusable value.
func (r row) toArticle(idx int) (*core.Article, bool) {
	id, idOK := parseID(r.lookup(idColumns, ""), idx+1)
	return &core.Article{
		ID:              id,
		MainCategory:    r.lookup(mainCategoryColumn, DefaultCategory),
		Subcategory:     r.lookup(subcategoryColumns, ""),
		ExampleQuestion: r.lookup(questionColumns, ""),
		TemplateAnswer:  r.lookup(answerColumns, ""),
		Priority:        r.lookup(priorityColumns, DefaultPriority),
		TargetAudience:  r.lookup(audienceColumns, DefaultAudience),
	}, idOK
}

// parseID accepts integers and integral floats ("12", "12.0").
func parseID(s string, fallback int) (int, bool) {
	if s == "" {
		return fallback, true
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == float64(int(f)) {
		return int(f), true
	}
	return fallback, false
}
