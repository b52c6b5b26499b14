package gemini

import (
	"encoding/json"

	"github.com/koscakluka/ema-clips/core/llms"
	"google.golang.org/genai"
)

// toGeminiContents converts the conversation history. Tool calls that were
// executed are followed by a user content carrying their function responses,
// which the service expects before the next model turn.
func toGeminiContents(turns []llms.Turn) []*genai.Content {
	contents := []*genai.Content{}
	for _, turn := range turns {
		content := &genai.Content{Role: toGeminiRole(turn.Role)}
		var responses []*genai.Part

		for _, part := range turn.Parts {
			if !part.IsToolCall() {
				if part.Text != "" {
					content.Parts = append(content.Parts, &genai.Part{Text: part.Text})
				}
				continue
			}

			toolCall := part.ToolCall
			content.Parts = append(content.Parts, &genai.Part{FunctionCall: &genai.FunctionCall{
				ID:   toolCall.ID,
				Name: toolCall.Name,
				Args: decodeObject(toolCall.Arguments, "arguments"),
			}})
			if toolCall.Response != "" {
				responses = append(responses, &genai.Part{FunctionResponse: &genai.FunctionResponse{
					ID:       toolCall.ID,
					Name:     toolCall.Name,
					Response: decodeObject(toolCall.Response, "output"),
				}})
			}
		}

		if len(content.Parts) > 0 {
			contents = append(contents, content)
		}
		if len(responses) > 0 {
			contents = append(contents, &genai.Content{
				Role:  string(genai.RoleUser),
				Parts: responses,
			})
		}
	}
	return contents
}

func toGeminiRole(role llms.TurnRole) string {
	if role == llms.TurnRoleAssistant {
		return string(genai.RoleModel)
	}
	return string(genai.RoleUser)
}

// decodeObject decodes a JSON object. Anything that is not an object is
// wrapped under fallbackKey.
func decodeObject(encoded string, fallbackKey string) map[string]any {
	if encoded == "" {
		return map[string]any{}
	}

	var object map[string]any
	if err := json.Unmarshal([]byte(encoded), &object); err != nil || object == nil {
		return map[string]any{fallbackKey: encoded}
	}
	return object
}
