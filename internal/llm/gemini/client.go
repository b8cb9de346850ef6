package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"

	"resume-tailor/internal/llm"
	"resume-tailor/internal/shared/telemetry"
)

const defaultTimeout = 120 * time.Second

// contentGenerator is the subset of *genai.Models the client calls.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client implements llm.Gateway with the Gemini API.
type Client struct {
	apiKey  string
	timeout time.Duration

	mu        sync.Mutex
	generator contentGenerator
	connect   func(ctx context.Context) (contentGenerator, error)
}

// NewClient returns a client whose genai connection is opened on first use.
func NewClient(apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := &Client{apiKey: strings.TrimSpace(apiKey), timeout: timeout}
	c.connect = c.dial
	return c
}

func (c *Client) dial(ctx context.Context) (contentGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     c.apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: c.timeout},
	})
	if err != nil {
		return nil, err
	}
	return client.Models, nil
}

func (c *Client) models(ctx context.Context) (contentGenerator, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generator != nil {
		return c.generator, nil
	}
	generator, err := c.connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	c.generator = generator
	return generator, nil
}

func (c *Client) Send(ctx context.Context, req llm.Request) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("gemini: %w", llm.ErrMissingCredentials)
	}
	models, err := c.models(ctx)
	if err != nil {
		return "", err
	}

	var config *genai.GenerateContentConfig
	if strings.TrimSpace(req.SystemInstruction) != "" {
		config = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(req.SystemInstruction, genai.RoleUser),
		}
	}

	telemetry.Info("llm.request", map[string]any{"provider": "gemini", "model": req.Model})
	resp, err := models.GenerateContent(ctx, req.Model, genai.Text(req.UserPrompt), config)
	if err != nil {
		if isResourceExhausted(err) {
			return "", fmt.Errorf("gemini: %w: %v", llm.ErrRateLimited, err)
		}
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if resp == nil {
		return "", errors.New("gemini response empty")
	}

	fields := map[string]any{"provider": "gemini", "model": req.Model}
	if resp.UsageMetadata != nil {
		fields["prompt_tokens"] = resp.UsageMetadata.PromptTokenCount
		fields["completion_tokens"] = resp.UsageMetadata.CandidatesTokenCount
		fields["total_tokens"] = resp.UsageMetadata.TotalTokenCount
	}
	telemetry.Info("llm.response", fields)
	return resp.Text(), nil
}

func isResourceExhausted(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Status == "RESOURCE_EXHAUSTED"
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code == http.StatusTooManyRequests || apiErrPtr.Status == "RESOURCE_EXHAUSTED"
	}
	return false
}

var _ llm.Gateway = (*Client)(nil)
