package tui

import "github.com/charmbracelet/lipgloss"

// Styles groups the lipgloss styles used by the browser.
type Styles struct {
	Title        lipgloss.Style
	Subtle       lipgloss.Style
	Category     lipgloss.Style
	ActiveCat    lipgloss.Style
	Card         lipgloss.Style
	SelectedCard lipgloss.Style
	CardTitle    lipgloss.Style
	Badge        lipgloss.Style
	Banner       lipgloss.Style
	BannerTitle  lipgloss.Style
	NoticeOK     lipgloss.Style
	NoticeFail   lipgloss.Style
	Spinner      lipgloss.Style
}

// DefaultStyles returns the dark theme.
func DefaultStyles() Styles {
	accent := lipgloss.Color("#7D8BFF")
	muted := lipgloss.Color("#8A93AB")
	danger := lipgloss.Color("#FF6B81")
	success := lipgloss.Color("#5FD38D")

	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#2A3350")).
		Padding(0, 1)

	return Styles{
		Title:        lipgloss.NewStyle().Bold(true).Foreground(accent),
		Subtle:       lipgloss.NewStyle().Foreground(muted),
		Category:     lipgloss.NewStyle().Foreground(muted).Padding(0, 1),
		ActiveCat:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0B1020")).Background(accent).Padding(0, 1),
		Card:         card,
		SelectedCard: card.BorderForeground(accent),
		CardTitle:    lipgloss.NewStyle().Bold(true),
		Badge:        lipgloss.NewStyle().Foreground(accent),
		Banner:       lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(danger).Padding(0, 1),
		BannerTitle:  lipgloss.NewStyle().Bold(true).Foreground(danger),
		NoticeOK:     lipgloss.NewStyle().Foreground(success),
		NoticeFail:   lipgloss.NewStyle().Foreground(danger),
		Spinner:      lipgloss.NewStyle().Foreground(accent),
	}
}
