package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/slaycast/internal/game"
)

// DefaultTimeout bounds a single completion request when the
// configuration does not say otherwise.
const DefaultTimeout = 10 * time.Second

var (
	// ErrNotConfigured means the API key or URL is missing. The gate
	// checks configuration up front, so hitting this is a wiring bug.
	ErrNotConfigured = errors.New("ai: client not configured")

	// ErrNoToolCall means the model answered a decision request without
	// choosing a tool. Callers skip the turn; the gateway never retries.
	ErrNoToolCall = errors.New("ai: response carries no tool call")
)

// Client calls the chat-completion endpoint for narration and decisions.
type Client struct {
	apiKey     string
	apiURL     string
	model      string
	httpClient *http.Client

	transcript *Transcript
	known      *KnownEntities
}

// NewClient creates a completion client. Returns nil if apiKey or apiURL
// is empty (AI features disabled); all methods are nil-safe.
func NewClient(apiKey, apiURL, model string, timeout time.Duration, transcript *Transcript, known *KnownEntities) *Client {
	if apiKey == "" || apiURL == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		apiKey:     apiKey,
		apiURL:     apiURL,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		transcript: transcript,
		known:      known,
	}
}

// Enabled reports whether the client can reach the API.
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != "" && c.apiURL != ""
}

// Transcript returns the shared decision transcript, or nil on a nil
// client.
func (c *Client) Transcript() *Transcript {
	if c == nil {
		return nil
	}
	return c.transcript
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Tools       []Tool    `json:"tools,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content   string            `json:"content"`
			ToolCalls []ToolCallMessage `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
}

// Narrate requests a short narration for an in-game event: a two-message
// exchange that does not touch the transcript. The returned text is
// trimmed; errors cover transport failures, non-200 statuses, and
// malformed bodies alike.
func (c *Client) Narrate(ctx context.Context, system, prompt string) (string, error) {
	if !c.Enabled() {
		return "", ErrNotConfigured
	}

	req := chatRequest{
		Model: c.model,
		Messages: []Message{
			{Role: RoleSystem, Content: system},
			{Role: RoleUser, Content: prompt},
		},
		MaxTokens:   100,
		Temperature: 0.8,
	}

	resp, err := c.post(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("narrate: empty choices")
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("narrate: empty content")
	}
	return text, nil
}

// Decide asks the model to choose the next game action. It appends
// unknown-entity tips and the current-state user message to the
// transcript, sends the full transcript with the five tool schemas, and
// on success records the assistant tool call plus its synthetic tool
// result before returning the parsed call.
//
// On any failure the caller must skip execution; retrying belongs to the
// triggering caller, never to the gateway.
func (c *Client) Decide(ctx context.Context, info string, snap game.Snapshot) (*ToolCall, error) {
	if !c.Enabled() {
		return nil, ErrNotConfigured
	}

	if c.known != nil {
		for _, t := range c.known.Tips(snap) {
			c.transcript.AddSystemTip(t.kind, t.content)
		}
	}
	c.transcript.AddUser("[current state]: " + info)

	req := chatRequest{
		Model:    c.model,
		Messages: c.transcript.Messages(),
		Tools:    DefaultTools(),
	}

	resp, err := c.post(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 || len(resp.Choices[0].Message.ToolCalls) == 0 {
		return nil, ErrNoToolCall
	}

	msg := resp.Choices[0].Message.ToolCalls[0]
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Type == "" {
		msg.Type = "function"
	}

	call, err := parseToolCall(msg)
	if err != nil {
		return nil, err
	}

	c.transcript.AddToolExchange(msg)
	slog.Info("decision received", "tool", call.Name, "reason", call.Args.Reason)
	return call, nil
}

func (c *Client) post(ctx context.Context, req chatRequest) (*chatResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("API call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, string(respBody))
	}

	var out chatResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return &out, nil
}
