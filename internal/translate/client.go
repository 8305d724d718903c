package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultEndpoint = "https://translate.googleapis.com/translate_a/single"

// Client translates text through the free web-translation endpoint. The
// endpoint is unofficial: responses are positional JSON arrays and the
// service throttles aggressively, so callers must tolerate failures.
type Client struct {
	httpClient *http.Client
	endpoint   string
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint overrides the translation endpoint, used by tests.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		if endpoint != "" {
			c.endpoint = endpoint
		}
	}
}

// New creates a translation client. A nil httpClient gets a default with a
// conservative timeout.
func New(httpClient *http.Client, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	c := &Client{httpClient: httpClient, endpoint: defaultEndpoint}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Translate translates text from source to target in one request. Source
// "auto" lets the endpoint detect the language itself.
func (c *Client) Translate(ctx context.Context, text, source, target string) (string, error) {
	q := url.Values{}
	q.Set("client", "gtx")
	q.Set("sl", source)
	q.Set("tl", target)
	q.Set("dt", "t")
	q.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to build translation request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("translation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("translation request returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read translation response: %w", err)
	}
	return decodeResponse(body)
}

// decodeResponse extracts the translated text from the endpoint's
// positional-array payload: [[["chunk","source",...],...],...].
func decodeResponse(body []byte) (string, error) {
	var payload []any
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("failed to decode translation response: %w", err)
	}
	if len(payload) == 0 {
		return "", fmt.Errorf("empty translation response")
	}
	chunks, ok := payload[0].([]any)
	if !ok {
		return "", fmt.Errorf("unexpected translation response shape")
	}

	var sb strings.Builder
	for _, raw := range chunks {
		chunk, ok := raw.([]any)
		if !ok || len(chunk) == 0 {
			continue
		}
		if s, ok := chunk[0].(string); ok {
			sb.WriteString(s)
		}
	}
	return sb.String(), nil
}
