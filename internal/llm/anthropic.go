package llm

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog/log"
)

// AnthropicClient implements CompletionClient on the Anthropic Messages API
// (or a compatible provider via a custom base URL).
type AnthropicClient struct {
	client    *anthropic.Client
	model     string
	maxTokens int
}

// NewAnthropicClient creates a completion client. An empty model falls back
// to a sensible default.
func NewAnthropicClient(apiKey, model, baseURL string) *AnthropicClient {
	if model == "" {
		model = "claude-sonnet-4-6"
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &AnthropicClient{
		client:    anthropic.NewClient(opts...),
		model:     model,
		maxTokens: 4096,
	}
}

// Complete sends one completion request and parses the reply as a JSON
// object. System-role messages become system blocks; the rest alternate as
// conversation turns. Any transport error or non-JSON reply is returned as
// a *CompletionError.
func (c *AnthropicClient) Complete(ctx context.Context, messages []Message, temperature float64) (map[string]interface{}, error) {
	var system []anthropic.TextBlockParam
	var turns []anthropic.MessageParam

	for _, m := range messages {
		switch m.Role {
		case "system":
			system = append(system, anthropic.NewTextBlock(m.Content))
		case "assistant":
			turns = append(turns, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			turns = append(turns, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	if len(turns) == 0 {
		turns = append(turns, anthropic.NewUserMessage(anthropic.NewTextBlock("")))
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.F(anthropic.Model(c.model)),
		MaxTokens:   anthropic.F(int64(c.maxTokens)),
		Messages:    anthropic.F(turns),
		Temperature: anthropic.F(temperature),
	}
	if len(system) > 0 {
		params.System = anthropic.F(system)
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, &CompletionError{Err: err}
	}

	var text string
	for _, block := range resp.Content {
		if b, ok := block.AsUnion().(anthropic.TextBlock); ok {
			text += b.Text
		}
	}

	payload := stripFences(text)
	var out map[string]interface{}
	if err := json.Unmarshal([]byte(payload), &out); err != nil {
		log.Warn().Str("model", c.model).Str("preview", preview(text)).Msg("completion returned non-JSON output")
		return nil, &CompletionError{Raw: text, Err: err}
	}
	return out, nil
}

// stripFences removes a surrounding ```json ... ``` fence some models add
// despite instructions to return bare JSON.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func preview(s string) string {
	if len(s) > 120 {
		return s[:120]
	}
	return s
}
