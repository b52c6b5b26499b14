package orchestration

import (
	"context"
	"strings"

	"github.com/koscakluka/ema-clips/core/clips"
	"github.com/koscakluka/ema-clips/core/llms"
)

var DefaultExitKeywords = []string{"chiqish", "exit", "tugatish"}

type OrchestratorOption func(*Orchestrator)

type LLMWithStream interface {
	PromptWithStream(ctx context.Context, prompt *string, opts ...llms.StreamingPromptOption) llms.Stream
}

func WithStreamingLLM(client LLMWithStream) OrchestratorOption {
	return func(o *Orchestrator) {
		o.llm.set(client)
	}
}

// ClipPlayer plays a clip to completion before returning.
type ClipPlayer interface {
	Play(ctx context.Context, clip string) (clips.Result, error)
}

// WithClipPlayer exposes the play_audio function to the model, backed by the
// passed player.
func WithClipPlayer(player ClipPlayer) OrchestratorOption {
	return func(o *Orchestrator) {
		o.player = player
		o.llm.appendTools(clipTools(o)...)
	}
}

// WithTools makes additional tools available to the model.
func WithTools(tools ...llms.Tool) OrchestratorOption {
	return func(o *Orchestrator) {
		o.llm.appendTools(tools...)
	}
}

func WithSystemPrompt(prompt string) OrchestratorOption {
	return func(o *Orchestrator) {
		o.instructions = prompt
	}
}

// WithSeedTurns starts the conversation with the passed history.
func WithSeedTurns(turns ...llms.Turn) OrchestratorOption {
	return func(o *Orchestrator) {
		o.seed = append(o.seed, turns...)
	}
}

// WithRejectRepeatedClips makes the loop refuse to play a clip a second time
// in the same session instead of leaving it to the model.
func WithRejectRepeatedClips(reject bool) OrchestratorOption {
	return func(o *Orchestrator) {
		o.rejectRepeats = reject
	}
}

func WithConsole(console *Console) OrchestratorOption {
	return func(o *Orchestrator) {
		if console != nil {
			o.console = console
		}
	}
}

// WithExitKeywords replaces the words that end the session. Matching is
// exact and case-insensitive.
func WithExitKeywords(keywords ...string) OrchestratorOption {
	return func(o *Orchestrator) {
		o.exitKeywords = nil
		for _, keyword := range keywords {
			if strings.TrimSpace(keyword) != "" {
				o.exitKeywords = append(o.exitKeywords, keyword)
			}
		}
	}
}

// WithStateCallback is called on every state transition of the loop.
func WithStateCallback(onStateChange func(from, to State)) OrchestratorOption {
	return func(o *Orchestrator) {
		o.onStateChange = onStateChange
	}
}
