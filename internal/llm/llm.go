package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Request is one text-in, text-out call to a provider.
type Request struct {
	Provider          string
	Model             string
	SystemInstruction string
	UserPrompt        string
}

// Gateway sends a request to a remote text-generation provider and returns its raw reply.
type Gateway interface {
	Send(ctx context.Context, req Request) (string, error)
}

// GatewayFunc adapts a function to Gateway.
type GatewayFunc func(ctx context.Context, req Request) (string, error)

func (f GatewayFunc) Send(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

var (
	// ErrRateLimited signals the provider rejected the call for quota or rate reasons.
	ErrRateLimited = errors.New("llm rate limited")
	// ErrMissingCredentials signals no API key is configured for the provider.
	ErrMissingCredentials = errors.New("llm api key is not configured")
	// ErrUnsupportedProvider signals the model catalog names a provider with no client.
	ErrUnsupportedProvider = errors.New("llm provider not supported")
)

// Router dispatches requests to the gateway registered for their provider.
type Router struct {
	providers map[string]Gateway
}

func NewRouter() *Router {
	return &Router{providers: make(map[string]Gateway)}
}

// Register binds provider to gw, replacing any earlier registration.
func (r *Router) Register(provider string, gw Gateway) {
	r.providers[normalizeProvider(provider)] = gw
}

// Providers lists the registered provider ids.
func (r *Router) Providers() []string {
	out := make([]string, 0, len(r.providers))
	for name := range r.providers {
		out = append(out, name)
	}
	return out
}

func (r *Router) Send(ctx context.Context, req Request) (string, error) {
	gw, ok := r.providers[normalizeProvider(req.Provider)]
	if !ok || gw == nil {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedProvider, req.Provider)
	}
	return gw.Send(ctx, req)
}

func normalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}

var _ Gateway = (*Router)(nil)
