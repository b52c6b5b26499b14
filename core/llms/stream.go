package llms

import "context"

type Stream interface {
	Chunks(context.Context) func(func(StreamChunk, error) bool)
}

type StreamChunk interface {
	FinishReason() *string
}

type StreamContentChunk interface {
	StreamChunk
	Content() string
}

type StreamToolCallChunk interface {
	StreamChunk
	ToolCall() ToolCall
}

type StreamUsageChunk interface {
	StreamChunk
	Usage() Usage
}

type Usage struct {
	// InputTokens represents the number of input tokens.
	InputTokens int
	// CachedTokens represents the number of input tokens that were retrieved
	// from the cache.
	CachedTokens int
	// OutputTokens represents the number of output tokens.
	OutputTokens int
	// ReasoningTokens represents the number of tokens spent on thinking.
	ReasoningTokens int
	// TotalTokens represents the total number of tokens used.
	TotalTokens int
}

func (u Usage) IsZero() bool { return u == Usage{} }
