package voice

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"
)

// DefaultFormat is the audio format requested from the synthesis service.
// WAV avoids decoder surprises; MP3 remains a decode fallback for servers
// that ignore the parameter.
const DefaultFormat = "wav"

const (
	connectTimeout = 10 * time.Second
	readTimeout    = 30 * time.Second
	userAgent      = "slaycast/1.0"
)

// Client talks to the speech synthesis service. The service answers a
// GET with a JSON envelope pointing at the rendered audio file, which is
// downloaded in a second request.
type Client struct {
	baseURL    string
	format     string
	httpClient *http.Client
}

// NewClient returns a synthesis client, or nil when no endpoint is
// configured. A nil client is safe to use and reports Enabled() == false.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		return nil
	}
	return &Client{
		baseURL: baseURL,
		format:  DefaultFormat,
		httpClient: &http.Client{
			Timeout: readTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{Timeout: connectTimeout}).DialContext,
			},
		},
	}
}

// Enabled reports whether synthesis is configured.
func (c *Client) Enabled() bool {
	return c != nil
}

type synthesisReply struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	URL  string `json:"url"`
}

// Fetch renders text to audio and returns the raw file bytes together
// with the audio format extension.
func (c *Client) Fetch(ctx context.Context, text string) ([]byte, string, error) {
	if !c.Enabled() {
		return nil, "", fmt.Errorf("synthesis not configured")
	}

	q := url.Values{}
	q.Set("text", text)
	q.Set("format", c.format)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, "", fmt.Errorf("build synthesis request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("synthesis request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("synthesis service returned status %d", resp.StatusCode)
	}

	var reply synthesisReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return nil, "", fmt.Errorf("decode synthesis reply: %w", err)
	}
	if reply.Code != http.StatusOK {
		return nil, "", fmt.Errorf("synthesis service error: %s", reply.Msg)
	}
	if reply.URL == "" {
		return nil, "", fmt.Errorf("synthesis reply missing audio url")
	}

	data, err := c.download(ctx, reply.URL)
	if err != nil {
		return nil, "", err
	}
	return data, c.format, nil
}

func (c *Client) download(ctx context.Context, audioURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, audioURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build audio download request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download audio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("audio download returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read audio body: %w", err)
	}
	return data, nil
}
