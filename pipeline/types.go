package pipeline

import (
	"github.com/poiesic/ticketrank/classify"
	"github.com/poiesic/ticketrank/compress"
	"github.com/poiesic/ticketrank/core"
)

// Fixed answers used when no template can be suggested.
const (
	NoMatchAnswer    = "К сожалению, в базе знаний не найдено подходящих шаблонов для данного обращения. Рекомендуется обратиться к специалисту техподдержки."
	NoTemplateAnswer = "Шаблонный ответ не найден. Пожалуйста, свяжитесь со специалистом техподдержки."
)

// DefaultPriority is reported when nothing was found.
const DefaultPriority = "Средний"

// Request is a single support request.
type Request struct {
	Text string

	// Category restricts the first search phase. When empty and a
	// classifier is configured, the classifier supplies it.
	Category string

	// TopK overrides the index's default result count when positive.
	TopK int
}

// Response is the outcome of processing a Request.
type Response struct {
	Text       string           `json:"text"`
	Normalized string           `json:"normalized_text"`
	Changes    []string         `json:"changes"`
	Optimized  string           `json:"optimized_text"`
	Stats      compress.Stats   `json:"optimization_stats"`
	Category   string           `json:"category,omitempty"`
	Classified *classify.Result `json:"classification,omitempty"`

	Results    []*core.SearchResult `json:"-"`
	Confidence core.Confidence      `json:"confidence"`

	// Answer is the suggested template text.
	Answer string `json:"answer"`
	// Source is the result whose template was suggested, nil if none.
	Source *core.SearchResult `json:"-"`

	Priority      string   `json:"priority"`
	Subcategories []string `json:"subcategories"`
}

// Found reports whether any article matched.
func (r *Response) Found() bool {
	return len(r.Results) > 0
}
