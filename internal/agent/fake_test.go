package agent_test

import (
	"context"
	"errors"
	"sync"

	"github.com/chartpilot/chartpilot/internal/llm"
)

// fakeClient is a scripted CompletionClient. Responses are consumed in
// call order; a drained script fails the call, which every agent treats
// as a safe-default situation.
type fakeClient struct {
	mu        sync.Mutex
	responses []map[string]interface{}
	calls     [][]llm.Message
}

func (c *fakeClient) Complete(_ context.Context, msgs []llm.Message, _ float64) (map[string]interface{}, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, msgs)
	if len(c.responses) == 0 {
		return nil, errors.New("scripted client exhausted")
	}
	res := c.responses[0]
	c.responses = c.responses[1:]
	return res, nil
}

func (c *fakeClient) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

func (c *fakeClient) call(i int) []llm.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[i]
}

// failingClient always errors, simulating a transport or parse failure.
type failingClient struct{}

func (failingClient) Complete(context.Context, []llm.Message, float64) (map[string]interface{}, error) {
	return nil, errors.New("completion unavailable")
}
