package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus/hooks/test"

	"promptly/clipboard"
	"promptly/domain"
	"promptly/library"
)

type stubSource struct {
	prompts []domain.Prompt
	err     error
}

func (s stubSource) FetchPrompts(ctx context.Context) ([]domain.Prompt, error) {
	return s.prompts, s.err
}

type fakeClipboard struct {
	written []string
	err     error
}

func (f *fakeClipboard) WriteText(text string) error {
	if f.err != nil {
		return f.err
	}
	f.written = append(f.written, text)
	return nil
}

func samplePrompts() []domain.Prompt {
	return []domain.Prompt{
		{ID: "1", Title: "Cold email", Text: "Write a cold email.", Category: "Sales"},
		{ID: "2", Title: "Post hook", Text: "Write a LinkedIn hook.", Category: "Social"},
		{ID: "3", Title: "Sales deck", Text: "Outline a pitch deck.", Category: "Sales"},
	}
}

func loadedModel(t *testing.T, src library.Source, w clipboard.Writer) Model {
	t.Helper()
	logger, _ := test.NewNullLogger()
	lib := library.New(src, logger)
	m := New(context.Background(), lib, w)
	msg := loadCmd(context.Background(), lib)()
	next, _ := m.Update(msg)
	return next.(Model)
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func promptIDs(ps []domain.Prompt) []string {
	ids := make([]string, len(ps))
	for i, p := range ps {
		ids[i] = p.ID
	}
	return ids
}

func TestModelShowsLoadingBeforeLoad(t *testing.T) {
	logger, _ := test.NewNullLogger()
	lib := library.New(stubSource{prompts: samplePrompts()}, logger)
	m := New(context.Background(), lib, &fakeClipboard{})
	if !strings.Contains(m.View(), "Loading prompts...") {
		t.Fatalf("expected loading placeholder, got:\n%s", m.View())
	}
	if m.Init() == nil {
		t.Fatalf("expected init command")
	}
}

func TestModelTypingFilters(t *testing.T) {
	m := loadedModel(t, stubSource{prompts: samplePrompts()}, &fakeClipboard{})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("DECK")})

	if diff := cmp.Diff([]string{"3"}, promptIDs(m.view.Prompts)); diff != "" {
		t.Fatalf("filtered prompts mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(m.View(), "Sales deck") {
		t.Fatalf("expected matching card in view")
	}
}

func TestModelCategoryCycling(t *testing.T) {
	m := loadedModel(t, stubSource{prompts: samplePrompts()}, &fakeClipboard{})
	if diff := cmp.Diff([]string{"all", "Sales", "Social"}, m.view.Categories); diff != "" {
		t.Fatalf("categories mismatch (-want +got):\n%s", diff)
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.selectedCategory() != "Sales" {
		t.Fatalf("expected Sales, got %q", m.selectedCategory())
	}
	if diff := cmp.Diff([]string{"1", "3"}, promptIDs(m.view.Prompts)); diff != "" {
		t.Fatalf("category filter mismatch (-want +got):\n%s", diff)
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	if m.selectedCategory() != "Social" {
		t.Fatalf("expected wrap to Social, got %q", m.selectedCategory())
	}
}

func TestModelCopySelected(t *testing.T) {
	cb := &fakeClipboard{}
	m := loadedModel(t, stubSource{prompts: samplePrompts()}, cb)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})

	before := promptIDs(m.view.Prompts)
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatalf("expected notice expiry command")
	}
	if diff := cmp.Diff([]string{"Write a LinkedIn hook."}, cb.written); diff != "" {
		t.Fatalf("clipboard mismatch (-want +got):\n%s", diff)
	}
	if m.notice == nil || !m.notice.OK || m.notice.Title != "Copied!" {
		t.Fatalf("unexpected notice: %#v", m.notice)
	}
	if !strings.Contains(m.View(), "Copied!") {
		t.Fatalf("expected notice in view")
	}
	if diff := cmp.Diff(before, promptIDs(m.view.Prompts)); diff != "" {
		t.Fatalf("copy must not change the list (-want +got):\n%s", diff)
	}

	m, _ = update(t, m, noticeExpiredMsg{seq: m.noticeSeq})
	if m.notice != nil {
		t.Fatalf("expected notice to clear")
	}
}

func TestModelStaleNoticeExpiryIgnored(t *testing.T) {
	m := loadedModel(t, stubSource{prompts: samplePrompts()}, &fakeClipboard{})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	stale := m.noticeSeq
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = update(t, m, noticeExpiredMsg{seq: stale})
	if m.notice == nil {
		t.Fatalf("newer notice must survive an older expiry")
	}
}

func TestModelCopyFailureShowsError(t *testing.T) {
	m := loadedModel(t, stubSource{prompts: samplePrompts()}, &fakeClipboard{err: errors.New("denied")})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.notice == nil || m.notice.OK {
		t.Fatalf("expected failure notice, got %#v", m.notice)
	}
	if len(m.view.Prompts) != 3 {
		t.Fatalf("list must be unchanged after failed copy")
	}
}

func TestModelCopyWithNoPromptsIsNoop(t *testing.T) {
	cb := &fakeClipboard{}
	m := loadedModel(t, stubSource{}, cb)
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil || m.notice != nil || len(cb.written) != 0 {
		t.Fatalf("expected no copy with empty list")
	}
	if !strings.Contains(m.View(), "No prompts available yet.") {
		t.Fatalf("expected no-data state, got:\n%s", m.View())
	}
}

func TestModelRendersErrorBanner(t *testing.T) {
	err := &domain.LoadError{
		Kind:  domain.KindPermissionDenied,
		Title: "Permission Denied",
		Hint:  "Share the spreadsheet with the service account.",
	}
	m := loadedModel(t, stubSource{err: err}, &fakeClipboard{})
	out := m.View()
	if !strings.Contains(out, "Permission Denied") {
		t.Fatalf("expected banner title, got:\n%s", out)
	}
	if len(m.view.Prompts) != 0 {
		t.Fatalf("error view must not list prompts")
	}
}

func TestModelNoMatches(t *testing.T) {
	m := loadedModel(t, stubSource{prompts: samplePrompts()}, &fakeClipboard{})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("zzz")})
	if !strings.Contains(m.View(), "No prompts match your search.") {
		t.Fatalf("expected no-matches state")
	}
}

func TestModelCursorStaysInRange(t *testing.T) {
	m := loadedModel(t, stubSource{prompts: samplePrompts()}, &fakeClipboard{})
	for i := 0; i < 5; i++ {
		m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	}
	if m.cursor != 2 {
		t.Fatalf("expected cursor clamped to 2, got %d", m.cursor)
	}
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("hook")})
	p, ok := m.Selected()
	if !ok || p.ID != "2" {
		t.Fatalf("expected cursor reset onto remaining match, got %#v %v", p, ok)
	}
}

func TestPreviewTruncates(t *testing.T) {
	got := preview(strings.Repeat("word ", 40), 20, 2)
	if n := len(strings.Split(got, "\n")); n != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", n, got)
	}
	if !strings.HasSuffix(got, "…") {
		t.Fatalf("expected ellipsis, got %q", got)
	}
}

func TestModelWithFilterAppliesAfterLoad(t *testing.T) {
	logger, _ := test.NewNullLogger()
	lib := library.New(stubSource{prompts: samplePrompts()}, logger)
	m := New(context.Background(), lib, &fakeClipboard{}).WithFilter("deck", "Sales")
	m, _ = update(t, m, loadCmd(context.Background(), lib)())

	if m.selectedCategory() != "Sales" {
		t.Fatalf("expected preset category, got %q", m.selectedCategory())
	}
	if diff := cmp.Diff([]string{"3"}, promptIDs(m.view.Prompts)); diff != "" {
		t.Fatalf("preset filter mismatch (-want +got):\n%s", diff)
	}
}

func TestModelWithUnknownCategoryFallsBackToAll(t *testing.T) {
	logger, _ := test.NewNullLogger()
	lib := library.New(stubSource{prompts: samplePrompts()}, logger)
	m := New(context.Background(), lib, &fakeClipboard{}).WithFilter("", "Legal")
	m, _ = update(t, m, loadCmd(context.Background(), lib)())

	if m.selectedCategory() != domain.AllCategories {
		t.Fatalf("expected all, got %q", m.selectedCategory())
	}
	if len(m.view.Prompts) != 3 {
		t.Fatalf("expected every prompt, got %d", len(m.view.Prompts))
	}
}
