package analysis

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/banshee-data/focus.overlay/internal/httputil"
)

// ChatProvider calls an OpenAI-compatible chat-completions endpoint.
type ChatProvider struct {
	ProviderName string
	// URL is the full chat-completions endpoint. Vendors that serve the
	// OpenAI schema under another path are reached unchanged.
	URL    string
	APIKey string
	Model  string
	// Headers are added to every request, for example a vendor group id.
	Headers     map[string]string
	MaxTokens   int
	Temperature float64
	// PromptSuffix is appended to every prompt.
	PromptSuffix string
	// Client defaults to an *http.Client with a 30s timeout.
	Client httputil.Doer
}

const chatCompletionsPath = "/chat/completions"

// endpointDoer pins every request to one endpoint and adds fixed headers.
type endpointDoer struct {
	next     httputil.Doer
	endpoint *url.URL
	headers  map[string]string
}

func (d *endpointDoer) Do(req *http.Request) (*http.Response, error) {
	if d.endpoint != nil {
		u := *d.endpoint
		req.URL = &u
		req.Host = ""
	}
	for k, v := range d.headers {
		req.Header.Set(k, v)
	}
	return d.next.Do(req)
}

// Name returns the provider's configured name.
func (p *ChatProvider) Name() string {
	return p.ProviderName
}

func (p *ChatProvider) client() (*openai.Client, error) {
	endpoint, err := url.Parse(p.URL)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}

	var next httputil.Doer = p.Client
	if next == nil {
		next = &http.Client{Timeout: 30 * time.Second}
	}

	cfg := openai.DefaultConfig(p.APIKey)
	cfg.BaseURL = strings.TrimSuffix(p.URL, chatCompletionsPath)
	cfg.HTTPClient = &endpointDoer{next: next, endpoint: endpoint, headers: p.Headers}
	return openai.NewClientWithConfig(cfg), nil
}

// Complete sends prompt as a single user message and returns the first
// choice's content. Non-2xx statuses are errors; a response with no
// choices yields an empty string.
func (p *ChatProvider) Complete(ctx context.Context, prompt string) (string, error) {
	c, err := p.client()
	if err != nil {
		return "", fmt.Errorf("%s: %w", p.ProviderName, err)
	}

	resp, err := c.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt + p.PromptSuffix},
		},
		MaxTokens:   p.MaxTokens,
		Temperature: float32(p.Temperature),
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", p.ProviderName, err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
