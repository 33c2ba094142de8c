package agents

import (
	"context"
	"fmt"
	"strings"

	"tabi/pkg/utils"
)

type delegateArgs struct {
	Query string `json:"query" jsonschema:"description=Request for the coworker. Include every detail they need since they cannot see this conversation."`
}

// Delegate exposes an agent as a tool so another agent can hand it work.
func Delegate(a *Agent, name, desc string) Tool {
	return NewTool(name, desc, func(ctx context.Context, args delegateArgs) (any, error) {
		q := strings.TrimSpace(args.Query)
		if q == "" {
			return nil, fmt.Errorf("%w: query is required", utils.ErrInvalidInput)
		}
		res, err := a.Run(ctx, q)
		if err != nil {
			return nil, err
		}
		return res.Content, nil
	})
}
