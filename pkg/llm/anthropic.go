package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"
)

type anthropicClient struct {
	client    *anthropic.Client
	model     string
	maxTokens int
}

func newAnthropicClient(cfg Config) (*anthropicClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("llm: ANTHROPIC_API_KEY is required")
	}
	opts := []anthropic.ClientOption{
		anthropic.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
	}
	return &anthropicClient{
		client:    anthropic.NewClient(cfg.APIKey, opts...),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}, nil
}

func (c *anthropicClient) Provider() Provider { return ProviderAnthropic }
func (c *anthropicClient) Model() string      { return c.model }

func (c *anthropicClient) Chat(ctx context.Context, req *ChatRequest) (*Response, error) {
	areq := anthropic.MessagesRequest{
		Model:     anthropic.Model(c.model),
		Messages:  toAnthropicMessages(req.Messages),
		System:    req.System,
		MaxTokens: c.maxTokens,
	}
	if req.MaxTokens > 0 {
		areq.MaxTokens = req.MaxTokens
	}
	if req.Temperature != nil {
		t := *req.Temperature
		areq.Temperature = &t
	}
	for _, t := range req.Tools {
		areq.Tools = append(areq.Tools, anthropic.ToolDefinition{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.Parameters,
		})
	}
	if len(areq.Tools) > 0 && req.ToolChoice == ToolChoiceNone {
		areq.ToolChoice = &anthropic.ToolChoice{Type: "none"}
	}

	resp, err := c.client.CreateMessages(ctx, areq)
	if err != nil {
		return nil, wrapAnthropicError(err)
	}

	var text strings.Builder
	out := &Response{
		FinishReason: string(resp.StopReason),
		Usage: Usage{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
		},
	}
	for _, block := range resp.Content {
		switch block.Type {
		case anthropic.MessagesContentTypeText:
			if block.Text != nil {
				text.WriteString(*block.Text)
			}
		case anthropic.MessagesContentTypeToolUse:
			if block.MessageContentToolUse == nil {
				continue
			}
			args := string(block.MessageContentToolUse.Input)
			if args == "" {
				args = "{}"
			}
			out.ToolCalls = append(out.ToolCalls, ToolCall{
				ID:        block.MessageContentToolUse.ID,
				Name:      block.MessageContentToolUse.Name,
				Arguments: args,
			})
		}
	}
	out.Content = text.String()
	return out, nil
}

// toAnthropicMessages converts the history. Tool results travel in user turns
// and consecutive turns of the same role are merged, as the API requires
// strict alternation.
func toAnthropicMessages(msgs []Message) []anthropic.Message {
	out := make([]anthropic.Message, 0, len(msgs))
	appendContent := func(role anthropic.ChatRole, content ...anthropic.MessageContent) {
		if len(content) == 0 {
			return
		}
		if n := len(out); n > 0 && out[n-1].Role == role {
			out[n-1].Content = append(out[n-1].Content, content...)
			return
		}
		out = append(out, anthropic.Message{Role: role, Content: content})
	}

	for _, m := range msgs {
		switch m.Role {
		case RoleAssistant:
			var content []anthropic.MessageContent
			if m.Content != "" {
				content = append(content, anthropic.NewTextMessageContent(m.Content))
			}
			for _, tc := range m.ToolCalls {
				input := json.RawMessage(tc.Arguments)
				if !json.Valid(input) {
					input = json.RawMessage("{}")
				}
				content = append(content, anthropic.MessageContent{
					Type: anthropic.MessagesContentTypeToolUse,
					MessageContentToolUse: &anthropic.MessageContentToolUse{
						ID:    tc.ID,
						Name:  tc.Name,
						Input: input,
					},
				})
			}
			appendContent(anthropic.RoleAssistant, content...)
		case RoleTool:
			isErr := strings.HasPrefix(m.Content, "error:")
			appendContent(anthropic.RoleUser, anthropic.NewToolResultMessageContent(m.ToolCallID, m.Content, isErr))
		default:
			appendContent(anthropic.RoleUser, anthropic.NewTextMessageContent(m.Content))
		}
	}
	return out
}

func wrapAnthropicError(err error) error {
	var reqErr *anthropic.RequestError
	if errors.As(err, &reqErr) {
		return newStatusError(ProviderAnthropic, reqErr.StatusCode, err.Error(), err)
	}
	var apiErr *anthropic.APIError
	if errors.As(err, &apiErr) {
		e := &Error{Provider: ProviderAnthropic, Message: apiErr.Message, Cause: err}
		switch string(apiErr.Type) {
		case "rate_limit_error":
			e.Type, e.Status = ErrorTypeRateLimit, http.StatusTooManyRequests
		case "overloaded_error", "api_error":
			e.Type, e.Status = ErrorTypeServerError, http.StatusServiceUnavailable
		case "authentication_error":
			e.Type, e.Status = ErrorTypeAuthentication, http.StatusUnauthorized
		case "permission_error":
			e.Type, e.Status = ErrorTypePermission, http.StatusForbidden
		case "not_found_error":
			e.Type, e.Status = ErrorTypeNotFound, http.StatusNotFound
		case "invalid_request_error":
			e.Type, e.Status = ErrorTypeInvalidRequest, http.StatusBadRequest
		default:
			e.Type = ErrorTypeUnknown
		}
		return e
	}
	return wrapTransport(ProviderAnthropic, err)
}
