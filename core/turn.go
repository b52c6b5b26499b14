package orchestration

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/koscakluka/ema-clips/core/llms"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// processTurn sends one user line to the model and plays out the response.
// Whatever the model produced is kept in the history even if the turn fails.
func (o *Orchestrator) processTurn(ctx context.Context, input string) error {
	ctx, span := tracer.Start(ctx, "process turn")
	defer span.End()

	o.setState(StateSending)
	o.conversation.Append(llms.Turn{
		ID:    uuid.NewString(),
		Role:  llms.TurnRoleUser,
		Parts: []llms.Part{llms.TextPart(input)},
	})
	history := o.conversation.History()
	span.SetAttributes(attribute.Int("conversation.turns", len(history)))

	started := time.Now()
	timed := false
	reportResponseTime := func() {
		if !timed {
			timed = true
			o.console.ResponseTime(time.Since(started))
		}
	}
	hadText, hadToolCall := false, false
	var usage llms.Usage
	turn, err := o.llm.stream(ctx, o.instructions, history, responseHandler{
		onFirstChunk: func() {
			o.setState(StateStreamingResponse)
			reportResponseTime()
		},
		onText: func(text string) {
			hadText = true
			o.console.Text(text)
		},
		onToolCall: func() {
			hadToolCall = true
		},
		// usage is reported cumulatively, the last report covers the turn
		onUsage: func(reported llms.Usage) {
			usage = reported
		},
	})
	if !turn.IsEmpty() {
		o.conversation.Append(turn)
	}
	if !usage.IsZero() {
		o.console.Usage(usage)
	}
	span.SetAttributes(
		attribute.Bool("turn.had_text", hadText),
		attribute.Bool("turn.had_tool_call", hadToolCall),
	)

	if err != nil {
		// a request that fails before any fragment still took time
		reportResponseTime()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.setState(StateErrorReported)
		if !(errors.Is(err, context.Canceled) && ctx.Err() != nil) {
			o.console.Error(err)
		}
		return err
	}

	if hadText && !hadToolCall {
		o.console.EndResponse()
	}
	return nil
}
