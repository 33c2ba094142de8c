package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sashabaranov/go-openai"
)

// openAIClient speaks the chat completions API. Ollama exposes the same API
// under /v1, so it is served by this client with a different base URL.
type openAIClient struct {
	client    *openai.Client
	provider  Provider
	model     string
	maxTokens int
}

func newOpenAIClient(p Provider, cfg Config) (*openAIClient, error) {
	key := cfg.APIKey
	if key == "" {
		if p == ProviderOpenAI {
			return nil, fmt.Errorf("llm: OPENAI_API_KEY is required")
		}
		key = "ollama"
	}
	oc := openai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &openAIClient{
		client:    openai.NewClientWithConfig(oc),
		provider:  p,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}, nil
}

func (c *openAIClient) Provider() Provider { return c.provider }
func (c *openAIClient) Model() string      { return c.model }

func (c *openAIClient) Chat(ctx context.Context, req *ChatRequest) (*Response, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	for _, m := range req.Messages {
		messages = append(messages, toOpenAIMessage(m))
	}

	oreq := openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
	}
	if req.Temperature != nil {
		oreq.Temperature = *req.Temperature
	}
	if req.MaxTokens > 0 {
		oreq.MaxTokens = req.MaxTokens
	}
	for _, t := range req.Tools {
		oreq.Tools = append(oreq.Tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	if len(oreq.Tools) > 0 && req.ToolChoice == ToolChoiceNone {
		oreq.ToolChoice = "none"
	}

	resp, err := c.client.CreateChatCompletion(ctx, oreq)
	if err != nil {
		return nil, c.wrapError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, &Error{Type: ErrorTypeServerError, Provider: c.provider, Message: "no choices in response"}
	}

	choice := resp.Choices[0]
	out := &Response{
		Content:      choice.Message.Content,
		FinishReason: string(choice.FinishReason),
		Usage: Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
	}
	for _, tc := range choice.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return out, nil
}

func (c *openAIClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: texts,
		Model: openai.EmbeddingModel(c.model),
	})
	if err != nil {
		return nil, c.wrapError(err)
	}
	if len(resp.Data) != len(texts) {
		return nil, &Error{Type: ErrorTypeServerError, Provider: c.provider,
			Message: fmt.Sprintf("expected %d embeddings, got %d", len(texts), len(resp.Data))}
	}
	out := make([][]float32, len(resp.Data))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, &Error{Type: ErrorTypeServerError, Provider: c.provider, Message: "embedding index out of range"}
		}
		out[d.Index] = d.Embedding
	}
	return out, nil
}

func toOpenAIMessage(m Message) openai.ChatCompletionMessage {
	om := openai.ChatCompletionMessage{Content: m.Content}
	switch m.Role {
	case RoleAssistant:
		om.Role = openai.ChatMessageRoleAssistant
		for _, tc := range m.ToolCalls {
			om.ToolCalls = append(om.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
	case RoleTool:
		om.Role = openai.ChatMessageRoleTool
		om.ToolCallID = m.ToolCallID
		om.Name = m.Name
	default:
		om.Role = openai.ChatMessageRoleUser
	}
	return om
}

func (c *openAIClient) wrapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		e := newStatusError(c.provider, apiErr.HTTPStatusCode, apiErr.Message, err)
		if code, ok := apiErr.Code.(string); ok && code == "context_length_exceeded" {
			e.Type = ErrorTypeContextLength
		}
		return e
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return newStatusError(c.provider, reqErr.HTTPStatusCode, reqErr.Error(), err)
	}
	return wrapTransport(c.provider, err)
}
