package agents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"tabi/pkg/llm"
)

const DefaultMaxIterations = 8

// ErrMaxIterations is returned when the model keeps calling tools and gives no
// answer even after being asked to stop.
var ErrMaxIterations = errors.New("agents: iteration limit reached without an answer")

const finalAnswerPrompt = "You have used all of your tool calls. Answer now using only the information you already have."

type Agent struct {
	Name          string
	SystemPrompt  string
	Model         llm.Client
	Tools         *Registry
	MaxIterations int
	// Timeout bounds a whole run, tool calls included. Zero means no limit.
	Timeout     time.Duration
	Temperature *float32
}

type Result struct {
	Content    string    `json:"content"`
	Usage      llm.Usage `json:"usage"`
	Iterations int       `json:"iterations"`
	Steps      []Step    `json:"steps"`
}

// Run chats with the model, executing requested tools, until it replies
// without tool calls. Tool failures are reported to the model, never returned.
func (a *Agent) Run(ctx context.Context, input string) (*Result, error) {
	if a.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.Timeout)
		defer cancel()
	}
	maxIter := a.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}

	var defs []llm.ToolDefinition
	if a.Tools != nil {
		defs = a.Tools.Definitions()
	}

	trace := traceFrom(ctx)
	logger := log.With().Str("agent", a.Name).Logger()
	messages := []llm.Message{{Role: llm.RoleUser, Content: input}}
	res := &Result{}

	chat := func(choice llm.ToolChoice) (*llm.Response, error) {
		resp, err := a.Model.Chat(ctx, &llm.ChatRequest{
			System:      a.SystemPrompt,
			Messages:    messages,
			Tools:       defs,
			ToolChoice:  choice,
			Temperature: a.Temperature,
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", a.Name, err)
		}
		res.Iterations++
		res.Usage.Add(resp.Usage)
		trace.addUsage(resp.Usage)
		return resp, nil
	}

	for i := 0; i < maxIter; i++ {
		resp, err := chat(llm.ToolChoiceAuto)
		if err != nil {
			return nil, err
		}
		if len(resp.ToolCalls) == 0 {
			res.Content = strings.TrimSpace(resp.Content)
			logger.Debug().Int("iterations", res.Iterations).Int("steps", len(res.Steps)).Msg("agent answered")
			return res, nil
		}

		messages = append(messages, llm.Message{Role: llm.RoleAssistant, Content: resp.Content, ToolCalls: resp.ToolCalls})
		for _, tc := range resp.ToolCalls {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("%s: %w", a.Name, err)
			}
			step := a.call(ctx, tc)
			res.Steps = append(res.Steps, step)
			trace.addStep(step)

			content := step.Result
			if step.Error != "" {
				content = "error: " + step.Error
			}
			messages = append(messages, llm.Message{Role: llm.RoleTool, ToolCallID: tc.ID, Name: tc.Name, Content: content})
		}
	}

	logger.Warn().Int("max_iterations", maxIter).Msg("tool budget exhausted, asking for a final answer")
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: finalAnswerPrompt})
	resp, err := chat(llm.ToolChoiceNone)
	if err != nil {
		return nil, err
	}
	res.Content = strings.TrimSpace(resp.Content)
	if res.Content == "" {
		return nil, fmt.Errorf("%s: %w", a.Name, ErrMaxIterations)
	}
	return res, nil
}

func (a *Agent) call(ctx context.Context, tc llm.ToolCall) (step Step) {
	step = Step{Agent: a.Name, Tool: tc.Name, Arguments: tc.Arguments}
	start := time.Now()
	defer func() { step.DurationMs = time.Since(start).Milliseconds() }()

	if a.Tools == nil {
		step.Error = fmt.Sprintf("unknown tool %q", tc.Name)
		return step
	}
	args := json.RawMessage(tc.Arguments)
	if strings.TrimSpace(tc.Arguments) != "" && !json.Valid(args) {
		step.Error = "arguments are not valid JSON"
		return step
	}
	out, err := a.Tools.Execute(ctx, tc.Name, args)
	if err != nil {
		step.Error = err.Error()
		return step
	}
	step.Result = out
	return step
}
