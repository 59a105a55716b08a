// Package agent implements the multi-agent generation pipeline: a request
// router, a cached schema analyzer, three specialist builders (query,
// filter, chart), a context summarizer, and the orchestrator that
// sequences them.
//
// Agents are stateless and constructed once at process start; a single
// instance is safely shared across concurrent pipeline runs.
package agent

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/chartpilot/chartpilot/internal/llm"
	"github.com/chartpilot/chartpilot/internal/models"
)

// Options tune one agent's completion calls.
type Options struct {
	Temperature float64
	Timeout     time.Duration
}

func (o Options) withDefaults(temperature float64) Options {
	if o.Temperature == 0 {
		o.Temperature = temperature
	}
	if o.Timeout == 0 {
		o.Timeout = 60 * time.Second
	}
	return o
}

// callCompletion issues one bounded completion call. Failures (transport,
// timeout, malformed JSON) are logged and reported as !ok; every agent
// substitutes safe defaults rather than aborting the run.
func callCompletion(ctx context.Context, client llm.CompletionClient, name string, msgs []llm.Message, opts Options) (map[string]interface{}, bool) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}
	res, err := client.Complete(ctx, msgs, opts.Temperature)
	if err != nil {
		log.Warn().Err(err).Str("agent", name).Msg("completion failed")
		return nil, false
	}
	return res, true
}

// historyMessages converts the last n history entries into completion
// messages.
func historyMessages(history []models.ConversationMessage, n int) []llm.Message {
	if len(history) > n {
		history = history[len(history)-n:]
	}
	msgs := make([]llm.Message, 0, len(history))
	for _, m := range history {
		msgs = append(msgs, llm.Message{Role: m.Role, Content: m.Content})
	}
	return msgs
}

// userMessage prefixes the user's text with the router's one-line intent
// summary when present, so downstream builders see both.
func userMessage(summary, text string) llm.Message {
	if summary != "" {
		text = "[Intent: " + summary + "]\n" + text
	}
	return llm.Message{Role: models.RoleUser, Content: text}
}
