package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"resume-tailor/internal/llm"
	"resume-tailor/internal/shared/telemetry"
)

const (
	DefaultBaseURL    = "https://api.openai.com/v1"
	PerplexityBaseURL = "https://api.perplexity.ai"

	defaultTimeout = 120 * time.Second
)

// Options configures a Chat Completions client.
type Options struct {
	// Name labels errors and logs, e.g. "openai" or "perplexity".
	Name       string
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client implements llm.Gateway over an OpenAI-compatible Chat Completions API.
type Client struct {
	name       string
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

// NewClient constructs a client. A missing API key is reported on Send, not here.
func NewClient(opts Options) *Client {
	name := strings.TrimSpace(opts.Name)
	if name == "" {
		name = "openai"
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		name:       name,
		apiKey:     strings.TrimSpace(opts.APIKey),
		endpoint:   baseURL + "/chat/completions",
		httpClient: httpClient,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    any    `json:"code"`
}

func (c *Client) Send(ctx context.Context, req llm.Request) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("%s: %w", c.name, llm.ErrMissingCredentials)
	}
	if strings.TrimSpace(req.Model) == "" {
		return "", fmt.Errorf("%s: model is required", c.name)
	}

	messages := make([]chatMessage, 0, 2)
	if strings.TrimSpace(req.SystemInstruction) != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.SystemInstruction})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.UserPrompt})
	payload, err := json.Marshal(chatRequest{Model: req.Model, Messages: messages})
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return "", fmt.Errorf("%s request timeout: %w", c.name, err)
		}
		return "", fmt.Errorf("%s request: %w", c.name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%s read response: %w", c.name, err)
	}

	var parsed chatResponse
	decodeErr := json.Unmarshal(body, &parsed)

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", fmt.Errorf("%s: %w: %s", c.name, llm.ErrRateLimited, errorMessage(parsed.Error, body))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%s http status %d: %s", c.name, resp.StatusCode, errorMessage(parsed.Error, body))
	}
	if decodeErr != nil {
		return "", fmt.Errorf("%s response parse: %w", c.name, decodeErr)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("%s error: %s (%s)", c.name, parsed.Error.Message, parsed.Error.Type)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%s response missing choices", c.name)
	}

	logUsage(c.name, req.Model, parsed)
	return parsed.Choices[0].Message.Content, nil
}

func errorMessage(apiErr *apiError, body []byte) string {
	if apiErr != nil && strings.TrimSpace(apiErr.Message) != "" {
		return apiErr.Message
	}
	text := strings.TrimSpace(string(body))
	if len(text) > 200 {
		text = text[:200]
	}
	return text
}

func logUsage(provider, model string, parsed chatResponse) {
	fields := map[string]any{
		"provider": provider,
		"model":    model,
	}
	if parsed.Usage != nil {
		fields["prompt_tokens"] = parsed.Usage.PromptTokens
		fields["completion_tokens"] = parsed.Usage.CompletionTokens
		fields["total_tokens"] = parsed.Usage.TotalTokens
	}
	telemetry.Info("llm.response", fields)
}

var _ llm.Gateway = (*Client)(nil)
