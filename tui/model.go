// Package tui is the terminal prompt browser: a search box, a category bar
// and a card list with copy to the system clipboard.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"promptly/clipboard"
	"promptly/domain"
	"promptly/library"
)

const (
	noticeDuration = 2500 * time.Millisecond
	cardHeight     = 5
	chromeHeight   = 8
	previewLines   = 2
)

type loadedMsg struct{ err error }

type noticeExpiredMsg struct{ seq int }

// Model is the bubbletea model for one browsing session.
type Model struct {
	ctx       context.Context
	lib       *library.Library
	clipboard clipboard.Writer

	search   textinput.Model
	spinner  spinner.Model
	styles   Styles
	view     library.View
	catIndex int
	cursor   int
	offset   int

	// category requested before the list loaded
	wantCategory string

	notice    *clipboard.Notice
	noticeSeq int

	width  int
	height int
}

// New creates a browser over lib. A nil writer uses the system clipboard.
func New(ctx context.Context, lib *library.Library, w clipboard.Writer) Model {
	if w == nil {
		w = clipboard.System()
	}
	styles := DefaultStyles()

	ti := textinput.New()
	ti.Placeholder = "Search prompts..."
	ti.Prompt = "/ "
	ti.CharLimit = 200
	ti.Width = 60
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	m := Model{
		ctx:       ctx,
		lib:       lib,
		clipboard: w,
		search:    ti,
		spinner:   sp,
		styles:    styles,
		width:     80,
		height:    24,
	}
	m.refresh()
	return m
}

func loadCmd(ctx context.Context, lib *library.Library) tea.Cmd {
	return func() tea.Msg {
		return loadedMsg{err: lib.Load(ctx)}
	}
}

func expireNotice(seq int) tea.Cmd {
	return tea.Tick(noticeDuration, func(time.Time) tea.Msg {
		return noticeExpiredMsg{seq: seq}
	})
}

// Init starts loading the library.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, loadCmd(m.ctx, m.lib))
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		if msg.Width > 10 {
			m.search.Width = msg.Width - 6
		}
		m.scroll()
		return m, nil

	case loadedMsg:
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.lib.Loading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case noticeExpiredMsg:
		if msg.seq == m.noticeSeq {
			m.notice = nil
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "tab":
			m.cycleCategory(1)
			return m, nil
		case "shift+tab":
			m.cycleCategory(-1)
			return m, nil
		case "up", "ctrl+p":
			if m.cursor > 0 {
				m.cursor--
				m.scroll()
			}
			return m, nil
		case "down", "ctrl+n":
			if m.cursor < len(m.view.Prompts)-1 {
				m.cursor++
				m.scroll()
			}
			return m, nil
		case "enter", "ctrl+y":
			return m.copySelected()
		}
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() != before {
		m.cursor, m.offset = 0, 0
		m.refresh()
	}
	return m, cmd
}

// WithFilter presets the search term and category. An unknown category
// falls back to all once the list has loaded.
func (m Model) WithFilter(term, category string) Model {
	m.search.SetValue(term)
	m.wantCategory = category
	m.refresh()
	return m
}

func (m *Model) selectedCategory() string {
	if m.wantCategory != "" {
		return m.wantCategory
	}
	if m.catIndex < len(m.view.Categories) {
		return m.view.Categories[m.catIndex]
	}
	return domain.AllCategories
}

func (m *Model) cycleCategory(step int) {
	n := len(m.view.Categories)
	if n == 0 {
		return
	}
	m.catIndex = ((m.catIndex+step)%n + n) % n
	m.wantCategory = ""
	m.cursor, m.offset = 0, 0
	m.refresh()
}

func (m *Model) refresh() {
	category := m.selectedCategory()
	m.view = m.lib.View(m.search.Value(), category)
	m.catIndex = 0
	for i, c := range m.view.Categories {
		if c == category {
			m.catIndex = i
			break
		}
	}
	if st := m.lib.State(); st == library.Loaded || st == library.Errored {
		if m.wantCategory != "" && m.view.Categories[m.catIndex] != m.wantCategory {
			m.view = m.lib.View(m.search.Value(), domain.AllCategories)
		}
		m.wantCategory = ""
	}
	if m.cursor >= len(m.view.Prompts) {
		m.cursor = max(len(m.view.Prompts)-1, 0)
	}
	m.scroll()
}

func (m *Model) visibleCards() int {
	return max((m.height-chromeHeight)/cardHeight, 1)
}

func (m *Model) scroll() {
	per := m.visibleCards()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+per {
		m.offset = m.cursor - per + 1
	}
}

// Selected returns the prompt under the cursor.
func (m Model) Selected() (domain.Prompt, bool) {
	if m.cursor < 0 || m.cursor >= len(m.view.Prompts) {
		return domain.Prompt{}, false
	}
	return m.view.Prompts[m.cursor], true
}

func (m Model) copySelected() (tea.Model, tea.Cmd) {
	p, ok := m.Selected()
	if !ok {
		return m, nil
	}
	n := clipboard.Copy(m.clipboard, p.Text)
	m.notice = &n
	m.noticeSeq++
	return m, expireNotice(m.noticeSeq)
}

// View renders the browser.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Prompt Library"))
	b.WriteString("\n")
	b.WriteString(m.search.View())
	b.WriteString("\n")
	b.WriteString(m.renderCategories())
	b.WriteString("\n\n")
	b.WriteString(m.renderBody())
	b.WriteString("\n")
	if m.notice != nil {
		b.WriteString(m.renderNotice(*m.notice))
		b.WriteString("\n")
	}
	b.WriteString(m.styles.Subtle.Render("tab/shift+tab category • ↑/↓ select • enter copy • esc quit"))
	return b.String()
}

func (m Model) renderCategories() string {
	parts := make([]string, 0, len(m.view.Categories))
	for i, c := range m.view.Categories {
		label := c
		if c == domain.AllCategories {
			label = "All"
		}
		if i == m.catIndex {
			parts = append(parts, m.styles.ActiveCat.Render(label))
		} else {
			parts = append(parts, m.styles.Category.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m Model) renderBody() string {
	v := m.view
	switch {
	case v.Error != nil:
		width := max(m.width-4, 20)
		body := m.styles.BannerTitle.Render(v.Error.Title)
		if v.Error.Detail != "" {
			body += "\n" + lipgloss.NewStyle().Width(width-4).Render(v.Error.Detail)
		}
		return m.styles.Banner.Width(width).Render(body)
	case v.State == library.Idle.String() || v.State == library.Loading.String():
		return m.spinner.View() + " Loading prompts..."
	case v.Empty == library.EmptyNoData:
		return m.styles.Subtle.Render("No prompts available yet.")
	case v.Empty == library.EmptyNoMatches:
		return m.styles.Subtle.Render("No prompts match your search.")
	}

	width := max(m.width-4, 20)
	end := min(m.offset+m.visibleCards(), len(v.Prompts))
	cards := make([]string, 0, end-m.offset+1)
	cards = append(cards, m.styles.Subtle.Render(fmt.Sprintf("Showing %d of %d prompts", len(v.Prompts), v.Total)))
	for i := m.offset; i < end; i++ {
		p := v.Prompts[i]
		style := m.styles.Card
		if i == m.cursor {
			style = m.styles.SelectedCard
		}
		head := m.styles.CardTitle.Render(p.Title) + "  " + m.styles.Badge.Render("["+p.Category+"]")
		text := preview(p.Text, width-4, previewLines)
		cards = append(cards, style.Width(width).Render(head+"\n"+text))
	}
	return lipgloss.JoinVertical(lipgloss.Left, cards...)
}

func (m Model) renderNotice(n clipboard.Notice) string {
	msg := n.Title
	if n.Detail != "" {
		msg += " " + n.Detail
	}
	if n.OK {
		return m.styles.NoticeOK.Render(msg)
	}
	return m.styles.NoticeFail.Render(msg)
}

// preview wraps text to width and keeps at most lines lines.
func preview(text string, width, lines int) string {
	wrapped := lipgloss.NewStyle().Width(width).Render(strings.Join(strings.Fields(text), " "))
	rows := strings.Split(wrapped, "\n")
	if len(rows) <= lines {
		return wrapped
	}
	rows = rows[:lines]
	rows[lines-1] = strings.TrimRight(rows[lines-1], " ") + "…"
	return strings.Join(rows, "\n")
}
