package tools

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"

	"tabi/internal/agents"
	"tabi/pkg/utils"
)

type calculatorArgs struct {
	Expr string `json:"expr" jsonschema:"description=Arithmetic expression such as (120.5 * 3) + 40"`
}

// Calculator evaluates arithmetic expressions.
func Calculator() agents.Tool {
	return agents.NewTool("calculator",
		"Perform a math operation. Supports + - * / % ** and parentheses.",
		func(_ context.Context, args calculatorArgs) (any, error) {
			return evaluate(args.Expr)
		})
}

func evaluate(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("%w: expr is required", utils.ErrInvalidInput)
	}
	// An empty environment rejects any identifier that is not a builtin.
	program, err := expr.Compile(input, expr.Env(map[string]any{}))
	if err != nil {
		return "", fmt.Errorf("%w: %v", utils.ErrInvalidInput, err)
	}
	out, err := expr.Run(program, map[string]any{})
	if err != nil {
		return "", fmt.Errorf("%w: %v", utils.ErrInvalidInput, err)
	}
	switch v := out.(type) {
	case int:
		return strconv.Itoa(v), nil
	case float64:
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return "", fmt.Errorf("%w: result is not a finite number", utils.ErrInvalidInput)
		}
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	}
	return "", fmt.Errorf("%w: %q is not arithmetic", utils.ErrInvalidInput, input)
}
