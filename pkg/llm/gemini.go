package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
)

type geminiClient struct {
	client    *genai.Client
	model     string
	maxTokens int
}

func newGeminiClient(ctx context.Context, cfg Config) (*geminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("llm: GEMINI_API_KEY is required")
	}
	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(cfg.BaseURL))
	}
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &geminiClient{client: client, model: cfg.Model, maxTokens: cfg.MaxTokens}, nil
}

func (c *geminiClient) Provider() Provider { return ProviderGemini }
func (c *geminiClient) Model() string      { return c.model }

func (c *geminiClient) Chat(ctx context.Context, req *ChatRequest) (*Response, error) {
	m := c.client.GenerativeModel(c.model)
	if req.System != "" {
		m.SystemInstruction = genai.NewUserContent(genai.Text(req.System))
	}
	if req.Temperature != nil {
		m.SetTemperature(*req.Temperature)
	}
	maxTokens := c.maxTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}
	if maxTokens > 0 {
		m.SetMaxOutputTokens(int32(maxTokens))
	}
	if len(req.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(req.Tools))
		for _, t := range req.Tools {
			decls = append(decls, &genai.FunctionDeclaration{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  schemaFromMap(t.Parameters),
			})
		}
		m.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
		if req.ToolChoice == ToolChoiceNone {
			m.ToolConfig = &genai.ToolConfig{
				FunctionCallingConfig: &genai.FunctionCallingConfig{Mode: genai.FunctionCallingNone},
			}
		}
	}

	contents := toGeminiContents(req.Messages)
	if len(contents) == 0 {
		return nil, &Error{Type: ErrorTypeInvalidRequest, Provider: ProviderGemini, Message: "no messages"}
	}
	cs := m.StartChat()
	cs.History = contents[:len(contents)-1]
	resp, err := cs.SendMessage(ctx, contents[len(contents)-1].Parts...)
	if err != nil {
		return nil, wrapGeminiError(err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, &Error{Type: ErrorTypeServerError, Provider: ProviderGemini, Message: "no candidates in response"}
	}

	cand := resp.Candidates[0]
	out := &Response{FinishReason: cand.FinishReason.String()}
	if resp.UsageMetadata != nil {
		out.Usage = Usage{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		}
	}
	var text strings.Builder
	for i, p := range cand.Content.Parts {
		switch v := p.(type) {
		case genai.Text:
			text.WriteString(string(v))
		case genai.FunctionCall:
			args, err := json.Marshal(v.Args)
			if err != nil {
				args = []byte("{}")
			}
			// Gemini does not issue call ids.
			out.ToolCalls = append(out.ToolCalls, ToolCall{
				ID:        fmt.Sprintf("%s_%d", v.Name, i),
				Name:      v.Name,
				Arguments: string(args),
			})
		}
	}
	out.Content = text.String()
	return out, nil
}

func (c *geminiClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	em := c.client.EmbeddingModel(c.model)
	b := em.NewBatch()
	for _, t := range texts {
		b.AddContent(genai.Text(t))
	}
	res, err := em.BatchEmbedContents(ctx, b)
	if err != nil {
		return nil, wrapGeminiError(err)
	}
	if len(res.Embeddings) != len(texts) {
		return nil, &Error{Type: ErrorTypeServerError, Provider: ProviderGemini,
			Message: fmt.Sprintf("expected %d embeddings, got %d", len(texts), len(res.Embeddings))}
	}
	out := make([][]float32, len(res.Embeddings))
	for i, e := range res.Embeddings {
		out[i] = e.Values
	}
	return out, nil
}

// toGeminiContents folds the history into "user" and "model" turns. Tool
// results are function responses inside a user turn.
func toGeminiContents(msgs []Message) []*genai.Content {
	var out []*genai.Content
	add := func(role string, parts ...genai.Part) {
		if len(parts) == 0 {
			return
		}
		if n := len(out); n > 0 && out[n-1].Role == role {
			out[n-1].Parts = append(out[n-1].Parts, parts...)
			return
		}
		out = append(out, &genai.Content{Role: role, Parts: parts})
	}

	for _, m := range msgs {
		switch m.Role {
		case RoleAssistant:
			var parts []genai.Part
			if m.Content != "" {
				parts = append(parts, genai.Text(m.Content))
			}
			for _, tc := range m.ToolCalls {
				args := map[string]any{}
				_ = json.Unmarshal([]byte(tc.Arguments), &args)
				parts = append(parts, genai.FunctionCall{Name: tc.Name, Args: args})
			}
			add("model", parts...)
		case RoleTool:
			add("user", genai.FunctionResponse{
				Name:     m.Name,
				Response: map[string]any{"content": m.Content},
			})
		default:
			add("user", genai.Text(m.Content))
		}
	}
	return out
}

// schemaFromMap converts a JSON schema document into the subset Gemini accepts.
func schemaFromMap(m map[string]any) *genai.Schema {
	if m == nil {
		return nil
	}
	s := &genai.Schema{}
	if d, ok := m["description"].(string); ok {
		s.Description = d
	}
	switch m["type"] {
	case "string":
		s.Type = genai.TypeString
	case "integer":
		s.Type = genai.TypeInteger
	case "number":
		s.Type = genai.TypeNumber
	case "boolean":
		s.Type = genai.TypeBoolean
	case "array":
		s.Type = genai.TypeArray
		if items, ok := m["items"].(map[string]any); ok {
			s.Items = schemaFromMap(items)
		}
	default:
		s.Type = genai.TypeObject
	}
	if enum, ok := m["enum"].([]any); ok {
		for _, e := range enum {
			s.Enum = append(s.Enum, fmt.Sprint(e))
		}
	}
	if props, ok := m["properties"].(map[string]any); ok {
		s.Properties = make(map[string]*genai.Schema, len(props))
		for name, p := range props {
			if pm, ok := p.(map[string]any); ok {
				s.Properties[name] = schemaFromMap(pm)
			}
		}
	}
	switch req := m["required"].(type) {
	case []string:
		s.Required = req
	case []any:
		for _, r := range req {
			if name, ok := r.(string); ok {
				s.Required = append(s.Required, name)
			}
		}
	}
	return s
}

func wrapGeminiError(err error) error {
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return newStatusError(ProviderGemini, gErr.Code, gErr.Message, err)
	}
	var aErr *apierror.APIError
	if errors.As(err, &aErr) {
		if code := aErr.HTTPCode(); code > 0 {
			return newStatusError(ProviderGemini, code, aErr.Error(), err)
		}
		if st := aErr.GRPCStatus(); st != nil {
			return newStatusError(ProviderGemini, statusFromGRPC(st.Code()), st.Message(), err)
		}
	}
	return wrapTransport(ProviderGemini, err)
}

func statusFromGRPC(c codes.Code) int {
	switch c {
	case codes.InvalidArgument, codes.FailedPrecondition:
		return http.StatusBadRequest
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.NotFound:
		return http.StatusNotFound
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
