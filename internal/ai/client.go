package ai

import "context"

// Completer is the external text-completion service, treated as one
// opaque call per request. Not retried by this layer.
type Completer interface {
	Complete(ctx context.Context, prompt string) (Completion, error)
}

// EchoCompleter is a development stand-in that returns the prompt.
// MaxTokens, when positive, bounds the reported token spend the way a
// real provider ceiling would.
type EchoCompleter struct {
	MaxTokens int
}

// Complete echoes the prompt back.
func (c EchoCompleter) Complete(_ context.Context, prompt string) (Completion, error) {
	tokens := len(prompt) / 4
	if c.MaxTokens > 0 && tokens > c.MaxTokens {
		tokens = c.MaxTokens
	}
	return Completion{Text: prompt, Model: "echo", TokensUsed: tokens}, nil
}
