package agent

// EventType names the progress notifications the streaming mode emits.
type EventType string

const (
	EventAgentStart EventType = "agent_start"
	EventAgentDone  EventType = "agent_done"
	EventResult     EventType = "result"
	EventError      EventType = "error"
)

// StepInfo is the payload of agent_start / agent_done events. Step is a
// monotonically increasing counter within one run.
type StepInfo struct {
	Agent   string `json:"agent"`
	Label   string `json:"label,omitempty"`
	Step    int    `json:"step"`
	Summary string `json:"summary,omitempty"`
}

// ErrorInfo is the payload of error events.
type ErrorInfo struct {
	Message string `json:"message"`
}

// Event is one typed progress notification. Data is a StepInfo, a
// *models.ChatResponse (for result) or an ErrorInfo.
type Event struct {
	Type EventType
	Data interface{}
}

// Emitter delivers events to the caller. Returning an error stops the
// run: the caller is gone and partial results are discarded.
type Emitter func(Event) error
