package domain

import (
	"sort"
	"strings"
)

// DeriveCategories returns "all" followed by the sorted distinct categories
// of prompts. DefaultCategory is kept out of the sorted block and appended
// last, only when some prompt carries it.
func DeriveCategories(prompts []Prompt) []string {
	seen := make(map[string]struct{}, len(prompts))
	hasDefault := false
	for _, p := range prompts {
		switch p.Category {
		case "":
			continue
		case DefaultCategory:
			hasDefault = true
			continue
		}
		seen[p.Category] = struct{}{}
	}

	cats := make([]string, 0, len(seen))
	for c := range seen {
		cats = append(cats, c)
	}
	sort.Strings(cats)

	out := make([]string, 0, len(cats)+2)
	out = append(out, AllCategories)
	out = append(out, cats...)
	if hasDefault {
		out = append(out, DefaultCategory)
	}
	return out
}

// Filter returns the prompts matching both the search term and the selected
// category, preserving order. The term matches title, text or category as a
// case-insensitive substring; an empty term matches everything. A category
// of "all" (or empty) disables category filtering.
func Filter(prompts []Prompt, searchTerm, selectedCategory string) []Prompt {
	term := strings.ToLower(searchTerm)
	out := make([]Prompt, 0, len(prompts))
	for _, p := range prompts {
		if !matchesCategory(p, selectedCategory) {
			continue
		}
		if term != "" && !matchesTerm(p, term) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func matchesCategory(p Prompt, selected string) bool {
	return selected == "" || selected == AllCategories || p.Category == selected
}

func matchesTerm(p Prompt, lowerTerm string) bool {
	return strings.Contains(strings.ToLower(p.Title), lowerTerm) ||
		strings.Contains(strings.ToLower(p.Text), lowerTerm) ||
		strings.Contains(strings.ToLower(p.Category), lowerTerm)
}
