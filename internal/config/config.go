package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"

	"github.com/joho/godotenv"
	orchestration "github.com/koscakluka/ema-clips/core"
	"github.com/koscakluka/ema-clips/core/clips"
	"github.com/koscakluka/ema-clips/core/llms/gemini"
	"gopkg.in/yaml.v3"
)

const (
	APIKeyEnv      = "GEMINI_API_KEY"
	DefaultEnvFile = ".env"

	BackendMiniaudio = "miniaudio"
	BackendPortaudio = "portaudio"

	defaultFramesPerBuffer = 1024
)

var ErrMissingAPIKey = errors.New(APIKeyEnv + " is not set")

type Config struct {
	Model   ModelConfig   `yaml:"model"`
	Clips   ClipsConfig   `yaml:"clips"`
	Audio   AudioConfig   `yaml:"audio"`
	Console ConsoleConfig `yaml:"console"`
}

type ModelConfig struct {
	Name              string   `yaml:"name"`
	Temperature       *float32 `yaml:"temperature"`
	TopP              *float32 `yaml:"top_p"`
	TopK              *float32 `yaml:"top_k"`
	MaxOutputTokens   int32    `yaml:"max_output_tokens"`
	ResponseMIMEType  string   `yaml:"response_mime_type"`
	SystemInstruction string   `yaml:"system_instruction"`
}

type ClipsConfig struct {
	Dir           string   `yaml:"dir"`
	Names         []string `yaml:"names"`
	ChunkFrames   int      `yaml:"chunk_frames"`
	RejectRepeats bool     `yaml:"reject_repeats"`
	Company       string   `yaml:"company"`
	Greeting      string   `yaml:"greeting"`
}

type AudioConfig struct {
	Backend string `yaml:"backend"`
	// FramesPerBuffer is only used by the portaudio backend
	FramesPerBuffer int `yaml:"frames_per_buffer"`
}

type ConsoleConfig struct {
	Prompt       string   `yaml:"prompt"`
	EmptyInput   string   `yaml:"empty_input"`
	Farewell     string   `yaml:"farewell"`
	ErrorPrefix  string   `yaml:"error_prefix"`
	ResponseTime string   `yaml:"response_time"`
	ExitKeywords []string `yaml:"exit_keywords"`
}

func Default() Config {
	generation := gemini.DefaultGenerationOptions()
	messages := orchestration.DefaultMessages()
	return Config{
		Model: ModelConfig{
			Name:             gemini.DefaultModel,
			Temperature:      generation.Temperature,
			TopP:             generation.TopP,
			TopK:             generation.TopK,
			MaxOutputTokens:  generation.MaxOutputTokens,
			ResponseMIMEType: generation.ResponseMIMEType,
		},
		Clips: ClipsConfig{
			Dir:         clips.DefaultRoot,
			Names:       slices.Clone(clips.DefaultClips),
			ChunkFrames: clips.DefaultChunkFrames,
			Company:     clips.DefaultCompany,
			Greeting:    clips.DefaultGreeting,
		},
		Audio: AudioConfig{
			Backend:         BackendMiniaudio,
			FramesPerBuffer: defaultFramesPerBuffer,
		},
		Console: ConsoleConfig{
			Prompt:       messages.Prompt,
			EmptyInput:   messages.EmptyInput,
			Farewell:     messages.Farewell,
			ErrorPrefix:  messages.ErrorPrefix,
			ResponseTime: messages.ResponseTime,
			ExitKeywords: slices.Clone(orchestration.DefaultExitKeywords),
		},
	}
}

// Load reads the YAML file at path on top of the defaults. An empty path
// returns the defaults.
func Load(path string) (*Config, error) {
	config := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}

		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c Config) Validate() error {
	if c.Model.Name == "" {
		return fmt.Errorf("model name is empty")
	}
	if c.Clips.Dir == "" {
		return fmt.Errorf("clips directory is empty")
	}
	if c.Clips.ChunkFrames <= 0 {
		return fmt.Errorf("clips chunk_frames must be positive, got %d", c.Clips.ChunkFrames)
	}
	if _, err := clips.NewCatalog(c.Clips.Names...); err != nil {
		return fmt.Errorf("invalid clip catalog: %w", err)
	}

	switch c.Audio.Backend {
	case BackendMiniaudio:
	case BackendPortaudio:
		if c.Audio.FramesPerBuffer <= 0 {
			return fmt.Errorf("audio frames_per_buffer must be positive, got %d", c.Audio.FramesPerBuffer)
		}
	default:
		return fmt.Errorf("unknown audio backend %q", c.Audio.Backend)
	}

	return nil
}

func (c Config) GenerationOptions() gemini.GenerationOptions {
	return gemini.GenerationOptions{
		Temperature:      c.Model.Temperature,
		TopP:             c.Model.TopP,
		TopK:             c.Model.TopK,
		MaxOutputTokens:  c.Model.MaxOutputTokens,
		ResponseMIMEType: c.Model.ResponseMIMEType,
	}
}

func (c Config) ConsoleMessages() orchestration.Messages {
	messages := orchestration.DefaultMessages()
	messages.Prompt = c.Console.Prompt
	messages.EmptyInput = c.Console.EmptyInput
	messages.Farewell = c.Console.Farewell
	messages.ErrorPrefix = c.Console.ErrorPrefix
	messages.ResponseTime = c.Console.ResponseTime
	return messages
}

// LoadEnv loads the given .env files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadEnv(files ...string) error {
	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("error loading env file %q: %w", file, err)
		}
	}
	return nil
}

func APIKey() (string, error) {
	key := os.Getenv(APIKeyEnv)
	if key == "" {
		return "", ErrMissingAPIKey
	}
	return key, nil
}
