package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/koscakluka/ema-clips/core/llms"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/genai"
)

type Stream struct {
	models contentStreamer

	model     string
	contents  []*genai.Content
	config    *genai.GenerateContentConfig
	toolNames []string
}

func (s *Stream) Chunks(ctx context.Context) func(func(llms.StreamChunk, error) bool) {
	return func(yield func(llms.StreamChunk, error) bool) {
		ctx, span := tracer.Start(ctx, "prompt llm stream")
		defer span.End()
		span.SetAttributes(
			attribute.String("request.model", s.model),
			attribute.Int("request.contents", len(s.contents)),
			attribute.StringSlice("request.available_tools", s.toolNames),
		)

		var toolNames []string
		defer func() {
			span.SetAttributes(attribute.StringSlice("response.tool_calls", toolNames))
		}()

		requestStarted := time.Now()
		firstChunk := true
		span.AddEvent("request started")
		for response, err := range s.models.GenerateContentStream(ctx, s.model, s.contents, s.config) {
			if err != nil {
				err = fmt.Errorf("failed to stream gemini response: %w", err)
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				yield(nil, err)
				return
			}

			if firstChunk {
				firstChunk = false
				span.SetAttributes(attribute.Float64("response.request_to_first_token_time", time.Since(requestStarted).Seconds()))
				span.AddEvent("received first chunk")
			}

			for _, chunk := range toStreamChunks(response) {
				if toolCallChunk, ok := chunk.(StreamToolCallChunk); ok {
					toolNames = append(toolNames, toolCallChunk.toolCall.Name)
				}
				if !yield(chunk, nil) {
					return
				}
			}
		}
	}
}

// toStreamChunks splits a streamed response into tagged chunks, keeping the
// order of the parts of the first candidate. Usage, when reported, comes last.
func toStreamChunks(response *genai.GenerateContentResponse) []llms.StreamChunk {
	if response == nil {
		return nil
	}

	var chunks []llms.StreamChunk
	if len(response.Candidates) > 0 && response.Candidates[0] != nil {
		candidate := response.Candidates[0]

		var finishReason *string
		if candidate.FinishReason != "" {
			reason := string(candidate.FinishReason)
			finishReason = &reason
		}

		if candidate.Content != nil {
			for _, part := range candidate.Content.Parts {
				switch {
				case part == nil:
				case part.FunctionCall != nil:
					chunks = append(chunks, StreamToolCallChunk{
						finishReason: finishReason,
						toolCall:     toToolCall(part.FunctionCall),
					})
				case part.Thought:
				case part.Text != "":
					chunks = append(chunks, StreamContentChunk{
						finishReason: finishReason,
						content:      part.Text,
					})
				}
			}
		}
	}

	if usage := response.UsageMetadata; usage != nil {
		chunks = append(chunks, StreamUsageChunk{usage: llms.Usage{
			InputTokens:     int(usage.PromptTokenCount),
			CachedTokens:    int(usage.CachedContentTokenCount),
			OutputTokens:    int(usage.CandidatesTokenCount),
			ReasoningTokens: int(usage.ThoughtsTokenCount),
			TotalTokens:     int(usage.TotalTokenCount),
		}})
	}

	return chunks
}

func toToolCall(functionCall *genai.FunctionCall) llms.ToolCall {
	arguments := "{}"
	if len(functionCall.Args) > 0 {
		if encoded, err := json.Marshal(functionCall.Args); err != nil {
			logger.Warn("failed to encode function call arguments",
				"function", functionCall.Name, "error", err)
		} else {
			arguments = string(encoded)
		}
	}

	return llms.ToolCall{
		ID:        functionCall.ID,
		Name:      functionCall.Name,
		Arguments: arguments,
	}
}

type StreamContentChunk struct {
	finishReason *string
	content      string
}

func (s StreamContentChunk) FinishReason() *string { return s.finishReason }
func (s StreamContentChunk) Content() string       { return s.content }

type StreamToolCallChunk struct {
	finishReason *string
	toolCall     llms.ToolCall
}

func (s StreamToolCallChunk) FinishReason() *string   { return s.finishReason }
func (s StreamToolCallChunk) ToolCall() llms.ToolCall { return s.toolCall }

type StreamUsageChunk struct {
	finishReason *string
	usage        llms.Usage
}

func (s StreamUsageChunk) FinishReason() *string { return s.finishReason }
func (s StreamUsageChunk) Usage() llms.Usage     { return s.usage }
