package domain

// Copy outcomes reported by the browser after a clipboard write.
const (
	CopyOutcomeCopied = "copied"
	CopyOutcomeFailed = "failed"
)

// CopyEvent records the result of a user copying a prompt.
type CopyEvent struct {
	ID       string `json:"id"`
	PromptID string `json:"promptId"`
	Outcome  string `json:"outcome"`
	Reason   string `json:"reason,omitempty"`
	Time     int64  `json:"time"`
}
