package llms

type StreamingPromptOptions struct {
	Instructions string
	Turns        []Turn
	Tools        []Tool
}

type StreamingPromptOption interface {
	ApplyToStreaming(*StreamingPromptOptions)
}

// PromptOption is a function that can be used to modify the prompt options.
type PromptOption func(*StreamingPromptOptions)

func (f PromptOption) ApplyToStreaming(o *StreamingPromptOptions) { f(o) }

// WithSystemPrompt sets the system instructions for the prompt.
// Repeating this option will overwrite the previous system prompt.
func WithSystemPrompt(prompt string) PromptOption {
	return func(opts *StreamingPromptOptions) {
		opts.Instructions = prompt
	}
}

// WithTurns adds conversation history to the prompt.
// Repeating this option will sequentially add more turns.
func WithTurns(turns ...Turn) PromptOption {
	return func(opts *StreamingPromptOptions) {
		opts.Turns = append(opts.Turns, turns...)
	}
}

// WithTools makes the passed tools available to the model.
func WithTools(tools ...Tool) PromptOption {
	return func(opts *StreamingPromptOptions) {
		opts.Tools = append(opts.Tools, tools...)
	}
}
