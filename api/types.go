package api

import (
	"context"

	"promptly/domain"
)

// PromptSource loads the full prompt list for one page view.
type PromptSource interface {
	FetchPrompts(ctx context.Context) ([]domain.Prompt, error)
}

// CopyEventPublisher forwards recorded copy events downstream.
type CopyEventPublisher interface {
	PublishCopyEvent(ctx context.Context, ev domain.CopyEvent) error
}

// Deduper prevents publishing the same copy event twice.
type Deduper interface {
	// Add records the key and returns true if it was newly added.
	Add(ctx context.Context, key string) (bool, error)
	// Remove deletes a previously added key, used when publishing fails.
	Remove(ctx context.Context, key string) error
}
