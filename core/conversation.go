package orchestration

import (
	"slices"
	"sync"

	"github.com/jinzhu/copier"
	"github.com/koscakluka/ema-clips/core/llms"
)

// Conversation is a point-in-time copy of the session history.
type Conversation struct {
	Turns []llms.Turn
	// PlayedClips lists every clip that finished playing, in order
	PlayedClips []string
}

// conversation only ever grows: turns are appended after every exchange and
// never removed.
type conversation struct {
	mu          sync.Mutex
	turns       []llms.Turn
	playedClips []string
}

func newConversation(seed ...llms.Turn) *conversation {
	c := &conversation{}
	for _, turn := range seed {
		c.Append(turn)
	}
	return c
}

func (c *conversation) Append(turn llms.Turn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = append(c.turns, copyTurns([]llms.Turn{turn})...)
}

func (c *conversation) History() []llms.Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyTurns(c.turns)
}

func (c *conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.turns)
}

func (c *conversation) MarkPlayed(clip string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playedClips = append(c.playedClips, clip)
}

func (c *conversation) HasPlayed(clip string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Contains(c.playedClips, clip)
}

func (c *conversation) Snapshot() Conversation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Conversation{
		Turns:       copyTurns(c.turns),
		PlayedClips: slices.Clone(c.playedClips),
	}
}

// copyTurns deep copies turns so tool call records can't be shared between
// the history and its snapshots.
func copyTurns(turns []llms.Turn) []llms.Turn {
	if turns == nil {
		return nil
	}

	copied := make([]llms.Turn, 0, len(turns))
	if err := copier.CopyWithOption(&copied, turns, copier.Option{DeepCopy: true}); err != nil {
		logger.Error("failed to copy conversation turns", "error", err)
		return slices.Clone(turns)
	}
	return copied
}
