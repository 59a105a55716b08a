package llm

import (
	"context"
	"fmt"
)

// Message is one role-tagged entry in a completion request.
type Message struct {
	Role    string
	Content string
}

// CompletionClient is the narrow interface every agent talks to: a list of
// role-tagged messages and a sampling temperature in, structured JSON out.
// Implementations must be safe for concurrent use.
type CompletionClient interface {
	Complete(ctx context.Context, messages []Message, temperature float64) (map[string]interface{}, error)
}

// CompletionError wraps a failed or non-JSON completion. Raw carries the
// model's verbatim text when the transport succeeded but the payload did
// not parse.
type CompletionError struct {
	Raw string
	Err error
}

func (e *CompletionError) Error() string {
	if e.Raw != "" {
		return fmt.Sprintf("completion returned non-JSON output: %v", e.Err)
	}
	return fmt.Sprintf("completion failed: %v", e.Err)
}

func (e *CompletionError) Unwrap() error { return e.Err }
