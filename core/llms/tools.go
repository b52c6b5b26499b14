package llms

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/invopop/jsonschema"
)

type Tool struct {
	Function ToolFunction
	Execute  func(ctx context.Context, arguments string) (string, error)
}

type ToolFunction struct {
	Name        string
	Description string
	Parameters  *jsonschema.Schema
}

type ParameterBase struct {
	Type        string
	Description string
	Enum        []string
	// Optional parameters are left out of the schema's required list
	Optional bool
}

// NewTool creates a tool whose arguments are decoded into T before execute is
// called. Parameters describe the JSON object T is decoded from.
func NewTool[T any](
	name string,
	description string,
	parameters map[string]ParameterBase,
	execute func(ctx context.Context, parameters T) (string, error),
) Tool {
	return Tool{
		Function: ToolFunction{
			Name:        name,
			Description: description,
			Parameters:  objectSchema(parameters),
		},
		Execute: func(ctx context.Context, arguments string) (string, error) {
			var params T
			if arguments != "" {
				if err := json.Unmarshal([]byte(arguments), &params); err != nil {
					return "", fmt.Errorf("failed to decode arguments for %q: %w", name, err)
				}
			}
			return execute(ctx, params)
		},
	}
}

func objectSchema(parameters map[string]ParameterBase) *jsonschema.Schema {
	schema := &jsonschema.Schema{
		Type:       "object",
		Properties: jsonschema.NewProperties(),
	}

	names := make([]string, 0, len(parameters))
	for name := range parameters {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		parameter := parameters[name]
		property := &jsonschema.Schema{
			Type:        parameter.Type,
			Description: parameter.Description,
		}
		for _, value := range parameter.Enum {
			property.Enum = append(property.Enum, value)
		}
		schema.Properties.Set(name, property)
		if !parameter.Optional {
			schema.Required = append(schema.Required, name)
		}
	}
	return schema
}

// FindTool returns the tool registered under name.
func FindTool(tools []Tool, name string) (Tool, bool) {
	idx := slices.IndexFunc(tools, func(tool Tool) bool { return tool.Function.Name == name })
	if idx == -1 {
		return Tool{}, false
	}
	return tools[idx], true
}
