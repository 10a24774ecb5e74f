// Package ai wraps the chat-completion API used for both battle
// narration and autopilot decisions. Narration is a stateless two-message
// exchange; decisions carry the full growing transcript plus function
// tool schemas and return the model's chosen tool call.
package ai

import (
	"fmt"
	"log/slog"
	"sync"
)

// Message roles defined by the upstream chat-completion contract.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// FunctionCall is the function part of a tool-call message.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // JSON-encoded argument object
}

// ToolCallMessage is one tool call as carried inside an assistant
// message.
type ToolCallMessage struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// Message is one transcript entry in upstream wire shape.
type Message struct {
	Role       string            `json:"role"`
	Content    string            `json:"content,omitempty"`
	ToolCalls  []ToolCallMessage `json:"tool_calls,omitempty"`
	ToolCallID string            `json:"tool_call_id,omitempty"`
	Name       string            `json:"name,omitempty"`
}

// Sink receives transcript entries for persistence. Implementations must
// tolerate being called from background request goroutines.
type Sink interface {
	AppendMessage(role, name, content string) error
}

// Transcript is the process-wide append-only message log sent with every
// decision request. It grows for the life of a play session and is
// cleared only by an explicit Reset.
//
// Invariant: every assistant tool-call entry is immediately followed by
// exactly one matching tool-result entry; AddToolExchange is the only way
// to append either, so the pairing cannot be broken by callers.
type Transcript struct {
	mu       sync.Mutex
	messages []Message
	sink     Sink
}

// NewTranscript creates an empty transcript. sink may be nil.
func NewTranscript(sink Sink) *Transcript {
	return &Transcript{sink: sink}
}

// AddSystemTip appends a bracketed system hint, e.g. newly seen card
// descriptions or rules reminders.
func (t *Transcript) AddSystemTip(kind, content string) {
	text := fmt.Sprintf("[%s tip]: %s", kind, content)
	t.append(Message{Role: RoleSystem, Content: text})
	slog.Debug("transcript tip", "kind", kind)
}

// AddUser appends a user-role message.
func (t *Transcript) AddUser(content string) {
	t.append(Message{Role: RoleUser, Content: content})
}

// AddToolExchange appends the assistant's tool-call message and the
// synthetic tool-result echo required before the next user message.
func (t *Transcript) AddToolExchange(call ToolCallMessage) {
	t.append(Message{Role: RoleAssistant, ToolCalls: []ToolCallMessage{call}})
	t.append(Message{
		Role:       RoleTool,
		ToolCallID: call.ID,
		Name:       call.Function.Name,
		Content:    call.Function.Arguments,
	})
}

// Messages returns a copy of the transcript, oldest first.
func (t *Transcript) Messages() []Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Len returns the number of transcript entries.
func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.messages)
}

// Reset clears the transcript for a new run.
func (t *Transcript) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = nil
}

func (t *Transcript) append(m Message) {
	t.mu.Lock()
	t.messages = append(t.messages, m)
	t.mu.Unlock()

	if t.sink != nil {
		content := m.Content
		if len(m.ToolCalls) > 0 {
			content = m.ToolCalls[0].Function.Name + " " + m.ToolCalls[0].Function.Arguments
		}
		if err := t.sink.AppendMessage(m.Role, m.Name, content); err != nil {
			slog.Warn("transcript sink write failed", "error", err)
		}
	}
}
