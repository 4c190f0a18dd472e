// Package ai implements the AI request safety surface: usage quota,
// content sanitization, response caching and the completion pipeline.
package ai

import "time"

// UsageRecord is one row of the append-only AI usage audit log. Records
// are counted by the quota guard, never updated.
type UsageRecord struct {
	ID             string
	UserID         string
	WorkspaceID    string
	PromptHash     string
	PromptLength   int
	ResponseLength int
	Model          string
	TokensUsed     int
	DurationMS     int64
	Cached         bool
	CreatedAt      time.Time
}

// CompletionRequest is the inbound chat/completion payload. message is
// preferred, prompt kept as an accepted alias.
type CompletionRequest struct {
	Message     string `json:"message" validate:"omitempty,max=10000"`
	Prompt      string `json:"prompt" validate:"omitempty,max=10000"`
	WorkspaceID string `json:"workspace_id"`
	GroupID     string `json:"group_id"`
}

// Text returns the effective prompt text.
func (r CompletionRequest) Text() string {
	if r.Message != "" {
		return r.Message
	}
	return r.Prompt
}

// Completion is the opaque result of the external text-completion service.
type Completion struct {
	Text       string
	Model      string
	TokensUsed int
}
