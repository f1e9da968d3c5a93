package api

import "promptly/library"

const (
	copyEventMaxSize = 4 * 1024 // 4 KiB
	copyEventRate    = 5        // events per second per client
	copyEventBurst   = 10
)

// /POST /api/copy-events request body
type copyEventRequest struct {
	PromptID       string `json:"promptId"`
	Outcome        string `json:"outcome"`
	Reason         string `json:"reason"`
	IdempotencyKey string `json:"idempotencyKey"`
}

// /POST /api/copy-events response body
type copyEventResponse struct {
	ID        string `json:"id,omitempty"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Error     string `json:"error,omitempty"`
}

// /GET /api/categories response body
type categoriesResponse struct {
	Categories []string        `json:"categories"`
	Error      *library.Banner `json:"error,omitempty"`
}
