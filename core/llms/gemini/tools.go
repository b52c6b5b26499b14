package gemini

import (
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/koscakluka/ema-clips/core/llms"
	"google.golang.org/genai"
)

func toGeminiTools(tools []llms.Tool) []*genai.Tool {
	if len(tools) == 0 {
		return nil
	}

	declarations := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, tool := range tools {
		declarations = append(declarations, &genai.FunctionDeclaration{
			Name:        tool.Function.Name,
			Description: tool.Function.Description,
			Parameters:  toGeminiSchema(tool.Function.Parameters),
		})
	}
	return []*genai.Tool{{FunctionDeclarations: declarations}}
}

func toGeminiSchema(schema *jsonschema.Schema) *genai.Schema {
	if schema == nil {
		return nil
	}

	converted := &genai.Schema{
		Type:        toGeminiType(schema.Type),
		Description: schema.Description,
		Items:       toGeminiSchema(schema.Items),
	}
	if len(schema.Required) > 0 {
		converted.Required = append([]string(nil), schema.Required...)
	}
	for _, value := range schema.Enum {
		converted.Enum = append(converted.Enum, fmt.Sprint(value))
	}
	if schema.Properties != nil && schema.Properties.Len() > 0 {
		converted.Properties = make(map[string]*genai.Schema, schema.Properties.Len())
		for pair := schema.Properties.Oldest(); pair != nil; pair = pair.Next() {
			converted.Properties[pair.Key] = toGeminiSchema(pair.Value)
			converted.PropertyOrdering = append(converted.PropertyOrdering, pair.Key)
		}
	}
	return converted
}

func toGeminiType(schemaType string) genai.Type {
	switch schemaType {
	case "object":
		return genai.TypeObject
	case "array":
		return genai.TypeArray
	case "string":
		return genai.TypeString
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	}
	return genai.TypeUnspecified
}
