// Package library holds the prompt list for one browsing session and
// derives everything the views render from it.
package library

import (
	"context"
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"promptly/domain"
)

// State is the load state of a Library.
type State int

const (
	Idle State = iota
	Loading
	Loaded
	Errored
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Errored:
		return "errored"
	default:
		return "unknown"
	}
}

// Source loads the full prompt list.
type Source interface {
	FetchPrompts(ctx context.Context) ([]domain.Prompt, error)
}

// Library is the per-session prompt store. The list is loaded at most once
// and is read-only afterwards.
type Library struct {
	src    Source
	logger log.FieldLogger

	once       sync.Once
	mu         sync.RWMutex
	state      State
	prompts    []domain.Prompt
	categories []string
	err        error
}

// New returns an idle Library reading from src.
func New(src Source, logger log.FieldLogger) *Library {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Library{src: src, logger: logger, categories: []string{domain.AllCategories}}
}

// Load fetches the prompts on the first call and records the outcome.
// Later calls return the recorded error without fetching again.
func (l *Library) Load(ctx context.Context) error {
	l.once.Do(func() {
		l.setState(Loading)
		start := time.Now()
		prompts, err := l.src.FetchPrompts(ctx)

		l.mu.Lock()
		defer l.mu.Unlock()
		if err != nil {
			l.state = Errored
			l.err = err
			l.prompts = nil
			l.logger.WithError(err).WithField("kind", domain.KindOf(err)).Warn("prompt load failed")
			return
		}
		l.state = Loaded
		l.prompts = prompts
		l.categories = domain.DeriveCategories(prompts)
		l.logger.WithFields(log.Fields{
			"prompts":    len(prompts),
			"categories": len(l.categories) - 1,
			"load_ms":    float64(time.Since(start)) / float64(time.Millisecond),
		}).Debug("prompts loaded")
	})
	return l.Err()
}

func (l *Library) setState(s State) {
	l.mu.Lock()
	l.state = s
	l.mu.Unlock()
}

// State returns the current load state.
func (l *Library) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// Loading reports whether a load is in flight or has not started yet.
func (l *Library) Loading() bool {
	s := l.State()
	return s == Idle || s == Loading
}

// Err returns the load error, if any.
func (l *Library) Err() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.err
}

// Banner is the error banner shown instead of the grid when loading fails.
type Banner struct {
	Kind   domain.ErrorKind `json:"kind"`
	Title  string           `json:"title"`
	Detail string           `json:"detail"`
}

// BannerFor builds the banner for a load error.
func BannerFor(err error) Banner {
	var le *domain.LoadError
	if errors.As(err, &le) {
		return Banner{Kind: le.Kind, Title: le.Title, Detail: le.Detail()}
	}
	return Banner{
		Kind:   domain.KindUnknown,
		Title:  "Error Loading Prompts",
		Detail: "An unexpected error occurred while loading prompts. Check the server logs for details.",
	}
}

// Empty-state kinds rendered when there are no cards to show.
const (
	EmptyNone      = ""
	EmptyNoData    = "no-data"
	EmptyNoMatches = "no-matches"
)

// View is the render model for one search/category selection.
type View struct {
	State            string          `json:"state"`
	SearchTerm       string          `json:"searchTerm"`
	SelectedCategory string          `json:"selectedCategory"`
	Categories       []string        `json:"categories"`
	Prompts          []domain.Prompt `json:"prompts"`
	Total            int             `json:"total"`
	Empty            string          `json:"empty,omitempty"`
	Error            *Banner         `json:"error,omitempty"`
}

// View derives the render model. On error it carries only the banner and an
// empty prompt list.
func (l *Library) View(searchTerm, category string) View {
	if category == "" {
		category = domain.AllCategories
	}
	l.mu.RLock()
	defer l.mu.RUnlock()

	v := View{
		State:            l.state.String(),
		SearchTerm:       searchTerm,
		SelectedCategory: category,
		Categories:       append([]string(nil), l.categories...),
		Prompts:          []domain.Prompt{},
	}
	switch l.state {
	case Errored:
		b := BannerFor(l.err)
		v.Error = &b
		v.Categories = []string{domain.AllCategories}
		return v
	case Loaded:
	default:
		return v
	}

	v.Total = len(l.prompts)
	v.Prompts = domain.Filter(l.prompts, searchTerm, category)
	switch {
	case len(l.prompts) == 0:
		v.Empty = EmptyNoData
	case len(v.Prompts) == 0:
		v.Empty = EmptyNoMatches
	}
	return v
}
