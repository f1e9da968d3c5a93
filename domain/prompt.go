package domain

import "strings"

const (
	// DefaultCategory is assigned to prompts whose source row has no category.
	DefaultCategory = "Uncategorized"
	// AllCategories selects every category when filtering.
	AllCategories = "all"
)

// Prompt is a single marketing prompt shown as a card.
type Prompt struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Text     string `json:"text"`
	Category string `json:"category"`
}

// NewPrompt trims the raw fields and reports whether they form a valid
// prompt. A blank category becomes DefaultCategory.
func NewPrompt(id, title, text, category string) (Prompt, bool) {
	p := Prompt{
		ID:       strings.TrimSpace(id),
		Title:    strings.TrimSpace(title),
		Text:     strings.TrimSpace(text),
		Category: strings.TrimSpace(category),
	}
	if p.Category == "" {
		p.Category = DefaultCategory
	}
	return p, p.Valid()
}

// Valid reports whether id, title and text are all present.
func (p Prompt) Valid() bool {
	return p.ID != "" && p.Title != "" && p.Text != ""
}
