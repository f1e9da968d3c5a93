package storage

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"

	"promptly/domain"
)

//go:embed data/prompts.json
var bundledPrompts []byte

// StaticSource serves prompts from a JSON document, by default the data file
// bundled into the binary.
type StaticSource struct {
	data   []byte
	logger log.FieldLogger
}

// NewStaticSource returns a source backed by data, or by the bundled prompt
// file when data is nil.
func NewStaticSource(data []byte, logger log.FieldLogger) *StaticSource {
	if data == nil {
		data = bundledPrompts
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &StaticSource{data: data, logger: logger}
}

// BundledPrompts returns the raw bundled data file.
func BundledPrompts() []byte {
	return bundledPrompts
}

// Key identifies the static data set for caching.
func (s *StaticSource) Key() string {
	return "static"
}

type staticPrompt struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Text     string `json:"text"`
	Category string `json:"category"`
}

// FetchPrompts decodes the document, applying the same validation as sheet
// rows: incomplete entries are dropped and blank categories defaulted.
func (s *StaticSource) FetchPrompts(ctx context.Context) ([]domain.Prompt, error) {
	var raw []staticPrompt
	if err := sonic.Unmarshal(s.data, &raw); err != nil {
		return nil, &domain.LoadError{
			Kind:  domain.KindUnknown,
			Title: "Error Loading Prompts",
			Hint:  "The bundled prompt file is not a JSON array of prompts.",
			Err:   fmt.Errorf("decode static prompts: %w", err),
		}
	}
	prompts := make([]domain.Prompt, 0, len(raw))
	for i, r := range raw {
		p, ok := domain.NewPrompt(r.ID, r.Title, r.Text, r.Category)
		if !ok {
			s.logger.WithField("index", i).Warn("skipping static prompt with missing id, title or text")
			continue
		}
		prompts = append(prompts, p)
	}
	return prompts, nil
}
