package orchestration

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/koscakluka/ema-clips/core/llms"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var errNoLLM = errors.New("no llm configured")

type llm struct {
	// client is the configured streaming model
	client LLMWithStream
	// tools stores the effective tool list exposed to model calls.
	tools []llms.Tool
}

func (runtime *llm) set(client LLMWithStream) {
	if runtime == nil {
		return
	}

	runtime.client = client
}

func (runtime *llm) appendTools(tools ...llms.Tool) {
	if runtime == nil || len(tools) == 0 {
		return
	}

	runtime.tools = append(runtime.tools, tools...)
}

func (runtime *llm) availableTools() []llms.Tool {
	if runtime == nil {
		return nil
	}

	tools := make([]llms.Tool, len(runtime.tools))
	copy(tools, runtime.tools)
	return tools
}

// responseHandler receives the stream in arrival order. Tool calls are
// executed before the next chunk is read.
type responseHandler struct {
	onFirstChunk func()
	onText       func(string)
	onToolCall   func()
	onUsage      func(llms.Usage)
}

// stream sends one request and consumes its response. The returned turn holds
// everything received before a failure, so it is usable even when err is set.
func (runtime *llm) stream(
	ctx context.Context,
	instructions string,
	history []llms.Turn,
	handler responseHandler,
) (llms.Turn, error) {
	span := trace.SpanFromContext(ctx)
	turn := llms.Turn{ID: uuid.NewString(), Role: llms.TurnRoleAssistant}

	if runtime == nil || runtime.client == nil {
		return turn, errNoLLM
	}

	stream := runtime.client.PromptWithStream(ctx, nil,
		llms.WithSystemPrompt(instructions),
		llms.WithTurns(history...),
		llms.WithTools(runtime.tools...),
	)

	first := true
	for chunk, err := range stream.Chunks(ctx) {
		if err != nil {
			err = fmt.Errorf("failed to stream llm response: %w", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return turn, err
		}

		if first {
			first = false
			if handler.onFirstChunk != nil {
				handler.onFirstChunk()
			}
		}

		switch chunk := chunk.(type) {
		case llms.StreamContentChunk:
			content := chunk.Content()
			if content == "" {
				continue
			}
			turn.Parts = appendText(turn.Parts, content)
			if handler.onText != nil {
				handler.onText(content)
			}

		case llms.StreamToolCallChunk:
			toolCall := chunk.ToolCall()
			if toolCall.ID == "" {
				toolCall.ID = uuid.NewString()
			}
			if handler.onToolCall != nil {
				handler.onToolCall()
			}

			response, err := runtime.callTool(ctx, toolCall)
			toolCall.Response = response
			turn.Parts = append(turn.Parts, llms.ToolCallPart(toolCall))
			if err != nil {
				err = fmt.Errorf("failed to call tool: %w", err)
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return turn, err
			}

		case llms.StreamUsageChunk:
			span.SetAttributes(
				attribute.Int("llm.usage.input_tokens", chunk.Usage().InputTokens),
				attribute.Int("llm.usage.output_tokens", chunk.Usage().OutputTokens),
			)
			if handler.onUsage != nil {
				handler.onUsage(chunk.Usage())
			}
		}
	}

	return turn, nil
}

// appendText merges consecutive text fragments into a single part.
func appendText(parts []llms.Part, text string) []llms.Part {
	if last := len(parts) - 1; last >= 0 && !parts[last].IsToolCall() {
		parts[last].Text += text
		return parts
	}
	return append(parts, llms.TextPart(text))
}
