// Package llm is a small provider-neutral layer over chat and embedding APIs.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderOllama    Provider = "ollama"
	ProviderAnthropic Provider = "anthropic"
	ProviderGemini    Provider = "gemini"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	// Name is the tool name on tool result messages.
	Name string `json:"name,omitempty"`
}

type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ToolChoice controls whether the model may call the offered tools.
type ToolChoice string

const (
	ToolChoiceAuto ToolChoice = ""
	// ToolChoiceNone keeps the tool definitions on the request, so histories
	// with tool turns stay valid, but forbids new calls.
	ToolChoiceNone ToolChoice = "none"
)

type ChatRequest struct {
	System      string
	Messages    []Message
	Tools       []ToolDefinition
	ToolChoice  ToolChoice
	Temperature *float32
	MaxTokens   int
}

type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

func (u *Usage) Add(o Usage) {
	u.InputTokens += o.InputTokens
	u.OutputTokens += o.OutputTokens
}

type Response struct {
	Content      string
	ToolCalls    []ToolCall
	FinishReason string
	Usage        Usage
}

type Client interface {
	Chat(ctx context.Context, req *ChatRequest) (*Response, error)
	Provider() Provider
	Model() string
}

type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

type Config struct {
	Provider  string
	Model     string
	BaseURL   string
	APIKey    string
	MaxTokens int
	Timeout   time.Duration
	Retry     RetryConfig
}

// New returns a chat client for cfg.Provider wrapped with retries and metrics.
func New(ctx context.Context, cfg Config) (Client, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("llm: model is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 4096
	}
	if cfg.Retry.MaxRetries == 0 {
		cfg.Retry = DefaultRetryConfig()
	}

	var inner Client
	var err error
	switch Provider(strings.ToLower(cfg.Provider)) {
	case ProviderOllama:
		inner, err = newOpenAIClient(ProviderOllama, cfg)
	case ProviderOpenAI:
		inner, err = newOpenAIClient(ProviderOpenAI, cfg)
	case ProviderAnthropic:
		inner, err = newAnthropicClient(cfg)
	case ProviderGemini:
		inner, err = newGeminiClient(ctx, cfg)
	default:
		return nil, fmt.Errorf("llm: unsupported provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return &instrumented{inner: inner, retry: cfg.Retry}, nil
}

// NewEmbedder returns an embedding client. Anthropic has no embedding API.
func NewEmbedder(ctx context.Context, cfg Config) (Embedder, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.Retry.MaxRetries == 0 {
		cfg.Retry = DefaultRetryConfig()
	}
	var e Embedder
	var err error
	switch Provider(strings.ToLower(cfg.Provider)) {
	case ProviderOllama:
		e, err = newOpenAIClient(ProviderOllama, cfg)
	case ProviderOpenAI:
		e, err = newOpenAIClient(ProviderOpenAI, cfg)
	case ProviderGemini:
		e, err = newGeminiClient(ctx, cfg)
	default:
		return nil, fmt.Errorf("llm: provider %q does not support embeddings", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return &retryingEmbedder{inner: e, retry: cfg.Retry}, nil
}

// Complete sends a single user prompt without tools and returns the reply text.
func Complete(ctx context.Context, c Client, prompt string) (string, error) {
	resp, err := c.Chat(ctx, &ChatRequest{Messages: []Message{{Role: RoleUser, Content: prompt}}})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}
