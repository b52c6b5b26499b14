package orchestration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/koscakluka/ema-clips/core/clips"
	"github.com/koscakluka/ema-clips/core/llms"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var errNoPlayer = errors.New("no clip player configured")

func clipTools(o *Orchestrator) []llms.Tool {
	return []llms.Tool{
		llms.NewTool(clips.PlayToolName, "Nomi berilgan audio faylni topib ijro etadi",
			map[string]llms.ParameterBase{
				clips.PlayToolArgument: {Type: "string", Description: "Ijro etiladigan audio nomi"},
			},
			func(ctx context.Context, parameters struct {
				AudioFile string `json:"audio_file"`
			}) (string, error) {
				result, err := o.playClip(ctx, parameters.AudioFile)
				if err != nil {
					return "", err
				}
				encoded, err := json.Marshal(result)
				if err != nil {
					return "", fmt.Errorf("failed to encode play result: %w", err)
				}
				return string(encoded), nil
			}),
	}
}

func (o *Orchestrator) playClip(ctx context.Context, clip string) (clips.Result, error) {
	if o.player == nil {
		return clips.Result{}, errNoPlayer
	}

	if o.rejectRepeats && o.conversation.HasPlayed(clip) {
		logger.Info("refusing to repeat clip", "clip", clip)
		return clips.Result{
			Status:  clips.StatusSkippedRepeat,
			Clip:    clip,
			Message: "clip was already played in this conversation",
		}, nil
	}

	result, err := o.player.Play(ctx, clip)
	if err != nil {
		return result, err
	}
	if result.Status == clips.StatusPlayed {
		o.conversation.MarkPlayed(clip)
	}
	return result, nil
}

type toolError struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// callTool executes the tool call and returns its JSON encoded response. A
// failed call still gets a response describing the failure.
func (runtime *llm) callTool(ctx context.Context, toolCall llms.ToolCall) (string, error) {
	ctx, span := tracer.Start(ctx, "execute tool")
	defer span.End()
	span.SetAttributes(
		attribute.String("tool.name", toolCall.Name),
		attribute.String("tool.call_id", toolCall.ID),
	)

	failed := func(err error) (string, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		encoded, _ := json.Marshal(toolError{Status: "error", Message: err.Error()})
		return string(encoded), err
	}

	tool, ok := llms.FindTool(runtime.tools, toolCall.Name)
	if !ok {
		return failed(fmt.Errorf("tool not found: %s", toolCall.Name))
	}

	response, err := panicSafe(toolCall.Name, tool.Execute)(ctx, toolCall.Arguments)
	if err != nil {
		return failed(fmt.Errorf("failed to execute tool %q: %w", toolCall.Name, err))
	}
	return response, nil
}
