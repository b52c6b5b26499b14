package clips

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/koscakluka/ema-clips/core/llms"
)

var ErrDuplicateClip = errors.New("duplicate clip name")

const (
	DefaultCompany  = "'AI is Future' LLC"
	DefaultGreeting = "Salom, men sizdan yordam so'ramoqchiman."
)

// DefaultClips are the recordings of an HR screening call, in the order they
// are usually played.
var DefaultClips = []string{
	"Salomlashuv.wav",
	"Suhbat boshlash.wav",
	"Nima haqida gapirmoqchiligini so'rash.wav",
	"Rezyume so'rash.wav",
	"Hozirgi ish.wav",
	"Ish tajribasi so'rash.wav",
	"Xayrlashuv.wav",
}

// Catalog is the fixed list of clips the model is told about. It is only a
// hint: the dispatcher plays whatever name it is asked for.
type Catalog struct {
	names []string
}

func NewCatalog(names ...string) (Catalog, error) {
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			return Catalog{}, fmt.Errorf("empty clip name in catalog")
		}
		if _, ok := seen[name]; ok {
			return Catalog{}, fmt.Errorf("%w: %q", ErrDuplicateClip, name)
		}
		seen[name] = struct{}{}
	}
	return Catalog{names: slices.Clone(names)}, nil
}

func (c Catalog) Names() []string { return slices.Clone(c.names) }

func (c Catalog) Len() int { return len(c.names) }

func (c Catalog) Contains(name string) bool { return slices.Contains(c.names, name) }

// Instructions renders the rules given to the model at the start of every
// session.
func (c Catalog) Instructions(company string) string {
	if company == "" {
		company = DefaultCompany
	}

	var instructions strings.Builder
	fmt.Fprintf(&instructions, "You are an AI assistant that plays given audio. Available audio: %s\n", strings.Join(c.names, ", "))
	instructions.WriteString("Key rules:\n")
	fmt.Fprintf(&instructions, "1. Call '%s(%s=\"file_path\")' for appropriate files\n", PlayToolName, PlayToolArgument)
	instructions.WriteString("2. Don't play same audio twice\n")
	instructions.WriteString("3. Only text response if no audio is available\n")
	fmt.Fprintf(&instructions, "4. Company info: brief (1-2 sentences) about %s\n", company)
	return instructions.String()
}

// SeedTurns is the opening exchange every session starts from: a greeting
// from the user answered by the instructions.
func (c Catalog) SeedTurns(greeting string, company string) []llms.Turn {
	if greeting == "" {
		greeting = DefaultGreeting
	}
	return []llms.Turn{
		{ID: uuid.NewString(), Role: llms.TurnRoleUser, Parts: []llms.Part{llms.TextPart(greeting)}},
		{ID: uuid.NewString(), Role: llms.TurnRoleAssistant, Parts: []llms.Part{llms.TextPart(c.Instructions(company))}},
	}
}
