package agent

import (
	"context"
	"strings"

	"github.com/chartpilot/chartpilot/internal/llm"
	"github.com/chartpilot/chartpilot/internal/models"
)

// Rough estimate: 1 token is about 4 characters.
const charsPerToken = 4

// EstimateTokens estimates the token count of a chat history from its
// total character length.
func EstimateTokens(messages []models.ConversationMessage) int {
	total := 0
	for _, m := range messages {
		total += len(m.Content)
	}
	return total / charsPerToken
}

// Summarizer compresses long chat histories into a short narrative summary
// so downstream agents stay within their context budget.
type Summarizer struct {
	client llm.CompletionClient
	opts   Options
}

func NewSummarizer(client llm.CompletionClient, opts Options) *Summarizer {
	return &Summarizer{client: client, opts: opts.withDefaults(0.3)}
}

// Summarize produces a new summary from the full history, folding in the
// previous summary when one exists. ok is false on completion failure.
func (s *Summarizer) Summarize(ctx context.Context, history []models.ConversationMessage, previousSummary string) (summary string, ok bool) {
	msgs := []llm.Message{{Role: models.RoleSystem, Content: summarizerPrompt}}

	if previousSummary != "" {
		msgs = append(msgs, llm.Message{
			Role:    models.RoleSystem,
			Content: "Previous conversation summary:\n" + previousSummary,
		})
	}

	var sb strings.Builder
	for _, m := range history {
		sb.WriteString(strings.ToUpper(m.Role))
		sb.WriteString(": ")
		sb.WriteString(m.Content)
		sb.WriteString("\n")
	}
	msgs = append(msgs, llm.Message{
		Role:    models.RoleUser,
		Content: "Summarise this conversation:\n\n" + sb.String(),
	})

	res, callOK := callCompletion(ctx, s.client, "summarizer", msgs, s.opts)
	if !callOK {
		return "", false
	}
	return llm.Str(res, "summary", ""), true
}
