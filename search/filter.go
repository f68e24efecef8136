package search

import "strings"

// CategoryMatches reports whether an article category passes a requested
// category filter. The match is deliberately loose: the article is rejected
// only when the two share no word and neither contains the other.
//
// "Карты" therefore matches "Кредитные карты". An empty filter matches
// everything, and so does an article with no category.
func CategoryMatches(category, filter string) bool {
	filter = strings.ToLower(strings.TrimSpace(filter))
	if filter == "" {
		return true
	}
	category = strings.ToLower(strings.TrimSpace(category))

	if strings.Contains(category, filter) || strings.Contains(filter, category) {
		return true
	}

	words := strings.Fields(category)
	for _, w := range strings.Fields(filter) {
		for _, c := range words {
			if w == c {
				return true
			}
		}
	}
	return false
}
