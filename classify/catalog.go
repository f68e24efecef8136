package classify

import (
	"slices"
	"strings"

	"github.com/poiesic/ticketrank/core"
)

// catalog is the sorted set of categories and subcategories in a corpus.
type catalog struct {
	categories    []string
	subcategories map[string][]string
}

func newCatalog(articles []*core.Article) *catalog {
	subs := make(map[string]map[string]struct{})
	for _, a := range articles {
		cat := strings.TrimSpace(a.MainCategory)
		if cat == "" {
			continue
		}
		set, ok := subs[cat]
		if !ok {
			set = make(map[string]struct{})
			subs[cat] = set
		}
		if sub := strings.TrimSpace(a.Subcategory); sub != "" {
			set[sub] = struct{}{}
		}
	}

	c := &catalog{subcategories: make(map[string][]string, len(subs))}
	for cat, set := range subs {
		c.categories = append(c.categories, cat)
		if len(set) == 0 {
			continue
		}
		list := make([]string, 0, len(set))
		for sub := range set {
			list = append(list, sub)
		}
		slices.Sort(list)
		c.subcategories[cat] = list
	}
	slices.Sort(c.categories)
	return c
}

// resolve maps a model-supplied name onto a known category, ignoring case
// and surrounding whitespace.
func (c *catalog) resolve(name string) (string, bool) {
	name = strings.TrimSpace(name)
	for _, cat := range c.categories {
		if strings.EqualFold(cat, name) {
			return cat, true
		}
	}
	return "", false
}

func (c *catalog) resolveSub(category, name string) (string, bool) {
	name = strings.TrimSpace(name)
	for _, sub := range c.subcategories[category] {
		if strings.EqualFold(sub, name) {
			return sub, true
		}
	}
	return "", false
}
