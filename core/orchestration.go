package orchestration

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/koscakluka/ema-clips/core/llms"
)

// Orchestrator runs the conversation loop: it reads user lines, streams the
// model response and plays the clips the model asks for.
type Orchestrator struct {
	llm          llm
	player       ClipPlayer
	instructions string
	seed         []llms.Turn

	rejectRepeats bool
	exitKeywords  []string
	console       *Console

	stateMu       sync.Mutex
	state         State
	onStateChange func(from, to State)

	conversation *conversation
}

func NewOrchestrator(opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		exitKeywords: slices.Clone(DefaultExitKeywords),
		console:      NewConsole(nil, nil, DefaultMessages()),
		state:        StateWaitingForInput,
	}

	for _, opt := range opts {
		opt(o)
	}
	o.conversation = newConversation(o.seed...)

	return o
}

// Conversation returns a copy of the history accumulated so far.
func (o *Orchestrator) Conversation() Conversation {
	return o.conversation.Snapshot()
}

// Orchestrate reads input line by line until an exit keyword, the end of
// input or the cancellation of ctx. A failed turn is reported and the loop
// continues; only reading the input can fail the session.
func (o *Orchestrator) Orchestrate(ctx context.Context, input io.Reader) error {
	readCtx, stopReading := context.WithCancel(ctx)
	defer stopReading()
	lines := readLines(readCtx, input)

	for {
		o.setState(StateWaitingForInput)
		o.console.Prompt()

		var line inputLine
		var ok bool
		select {
		case <-ctx.Done():
			o.setState(StateTerminated)
			return ctx.Err()
		case line, ok = <-lines:
		}

		if !ok {
			o.console.Farewell()
			o.setState(StateTerminated)
			return nil
		} else if line.err != nil {
			o.setState(StateTerminated)
			return fmt.Errorf("failed to read input: %w", line.err)
		}

		if o.isExitKeyword(line.text) {
			o.console.Farewell()
			o.setState(StateTerminated)
			return nil
		}
		if strings.TrimSpace(line.text) == "" {
			o.console.EmptyInput()
			continue
		}

		if err := o.processTurn(ctx, line.text); err != nil {
			logger.Error("turn failed", "error", err)
		}
		if ctx.Err() != nil {
			o.setState(StateTerminated)
			return ctx.Err()
		}
	}
}

func (o *Orchestrator) isExitKeyword(text string) bool {
	return slices.ContainsFunc(o.exitKeywords, func(keyword string) bool {
		return strings.EqualFold(text, keyword)
	})
}

type inputLine struct {
	text string
	err  error
}

// readLines scans input on its own goroutine so that waiting for a line can
// be abandoned when ctx is cancelled. The channel is closed at end of input.
func readLines(ctx context.Context, input io.Reader) <-chan inputLine {
	lines := make(chan inputLine)
	go func() {
		defer close(lines)

		scanner := bufio.NewScanner(input)
		for scanner.Scan() {
			select {
			case lines <- inputLine{text: scanner.Text()}:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			select {
			case lines <- inputLine{err: err}:
			case <-ctx.Done():
			}
		}
	}()
	return lines
}
