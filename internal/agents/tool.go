// Package agents runs tool-calling LLM agents and the planning crew built from them.
package agents

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"

	"tabi/pkg/utils"
)

// Tool is a function the model may call. Execute receives the raw JSON
// arguments produced by the model and returns the text handed back to it.
type Tool interface {
	Name() string
	Description() string
	Schema() map[string]any
	Execute(ctx context.Context, args json.RawMessage) (string, error)
}

var reflector = &jsonschema.Reflector{
	Anonymous:      true,
	ExpandedStruct: true,
	DoNotReference: true,
}

type typedTool[T any] struct {
	name   string
	desc   string
	schema map[string]any
	fn     func(context.Context, T) (any, error)
}

// NewTool builds a Tool whose parameters schema is reflected from T. Results
// that are not strings are JSON encoded.
func NewTool[T any](name, desc string, fn func(ctx context.Context, args T) (any, error)) Tool {
	return &typedTool[T]{name: name, desc: desc, schema: SchemaOf[T](), fn: fn}
}

// SchemaOf returns the JSON schema of T as a plain map, ready for llm.ToolDefinition.
func SchemaOf[T any]() map[string]any {
	var v T
	b, err := json.Marshal(reflector.Reflect(&v))
	if err != nil {
		panic(fmt.Sprintf("agents: schema for %T: %v", v, err))
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		panic(fmt.Sprintf("agents: schema for %T: %v", v, err))
	}
	delete(m, "$schema")
	if _, ok := m["properties"]; !ok {
		m["properties"] = map[string]any{}
	}
	return m
}

func (t *typedTool[T]) Name() string           { return t.name }
func (t *typedTool[T]) Description() string    { return t.desc }
func (t *typedTool[T]) Schema() map[string]any { return t.schema }

func (t *typedTool[T]) Execute(ctx context.Context, raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		raw = json.RawMessage("{}")
	}
	var args T
	if err := json.Unmarshal(raw, &args); err != nil {
		return "", fmt.Errorf("%w: arguments for %s: %v", utils.ErrInvalidInput, t.name, err)
	}
	out, err := t.fn(ctx, args)
	if err != nil {
		return "", err
	}
	if s, ok := out.(string); ok {
		return s, nil
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("encode %s result: %w", t.name, err)
	}
	return string(b), nil
}
