package llms

import "strings"

type TurnRole string

const (
	TurnRoleUser      TurnRole = "user"
	TurnRoleAssistant TurnRole = "assistant"
)

// Turn is a single role-tagged entry in the conversation history.
type Turn struct {
	ID   string
	Role TurnRole

	// Parts keeps the content fragments in the order they were produced.
	// A part is either text or a tool call record.
	Parts []Part
}

// Part is one content fragment of a turn. Exactly one of Text or ToolCall is
// set.
type Part struct {
	Text     string
	ToolCall *ToolCall
}

func TextPart(text string) Part { return Part{Text: text} }

func ToolCallPart(toolCall ToolCall) Part { return Part{ToolCall: &toolCall} }

func (p Part) IsToolCall() bool { return p.ToolCall != nil }

// Text returns the concatenated text fragments of the turn.
func (t Turn) Text() string {
	var text strings.Builder
	for _, part := range t.Parts {
		if !part.IsToolCall() {
			text.WriteString(part.Text)
		}
	}
	return text.String()
}

// ToolCalls returns the tool call records of the turn in arrival order.
func (t Turn) ToolCalls() []ToolCall {
	var toolCalls []ToolCall
	for _, part := range t.Parts {
		if part.IsToolCall() {
			toolCalls = append(toolCalls, *part.ToolCall)
		}
	}
	return toolCalls
}

func (t Turn) IsEmpty() bool { return len(t.Parts) == 0 }

type ToolCall struct {
	ID   string
	Name string
	// Arguments is the JSON encoded argument object
	Arguments string
	// Response is the JSON encoded result of executing the call, empty if the
	// call was never executed
	Response string
}
