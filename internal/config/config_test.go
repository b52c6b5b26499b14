package config

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/koscakluka/ema-clips/core/clips"
)

func TestLoadWithoutPathReturnsDefaults(t *testing.T) {
	config, err := Load("")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if config.Model.Name != "gemini-2.0-flash" {
		t.Fatalf("expected default model, got %q", config.Model.Name)
	}
	if config.Clips.Dir != clips.DefaultRoot || config.Clips.ChunkFrames != 1024 {
		t.Fatalf("expected default clip settings, got %+v", config.Clips)
	}
	if config.Clips.RejectRepeats {
		t.Fatalf("expected repeats to be allowed by default")
	}
	if !slices.Equal(config.Clips.Names, clips.DefaultClips) {
		t.Fatalf("expected default clips, got %v", config.Clips.Names)
	}
	if config.Audio.Backend != BackendMiniaudio {
		t.Fatalf("expected miniaudio backend, got %q", config.Audio.Backend)
	}

	generation := config.GenerationOptions()
	if *generation.Temperature != 1 || *generation.TopK != 40 || generation.MaxOutputTokens != 8192 {
		t.Fatalf("unexpected generation options %+v", generation)
	}
	if config.ConsoleMessages().Farewell != "Suhbat tugadi!" {
		t.Fatalf("expected default farewell, got %q", config.ConsoleMessages().Farewell)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
model:
  name: gemini-2.5-flash
  temperature: 0.2
clips:
  dir: /srv/clips
  names: [a.wav, b.wav]
  reject_repeats: true
audio:
  backend: portaudio
console:
  farewell: Xayr!
  exit_keywords: [bye]
`)

	config, err := Load(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if config.Model.Name != "gemini-2.5-flash" || *config.Model.Temperature != 0.2 {
		t.Fatalf("expected model overrides, got %+v", config.Model)
	}
	if *config.Model.TopP != 0.95 {
		t.Fatalf("expected top_p default to survive, got %v", *config.Model.TopP)
	}
	if config.Clips.Dir != "/srv/clips" || !slices.Equal(config.Clips.Names, []string{"a.wav", "b.wav"}) || !config.Clips.RejectRepeats {
		t.Fatalf("expected clip overrides, got %+v", config.Clips)
	}
	if config.Clips.ChunkFrames != 1024 {
		t.Fatalf("expected chunk frames default to survive, got %d", config.Clips.ChunkFrames)
	}
	if config.Audio.Backend != BackendPortaudio || config.Audio.FramesPerBuffer != 1024 {
		t.Fatalf("expected portaudio backend, got %+v", config.Audio)
	}
	if config.ConsoleMessages().Farewell != "Xayr!" || config.ConsoleMessages().Prompt != "Siz: " {
		t.Fatalf("unexpected console messages %+v", config.ConsoleMessages())
	}
	if !slices.Equal(config.Console.ExitKeywords, []string{"bye"}) {
		t.Fatalf("expected exit keyword override, got %v", config.Console.ExitKeywords)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{name: "duplicate clip", yaml: "clips:\n  names: [a.wav, a.wav]\n", wantErr: "duplicate clip name"},
		{name: "chunk frames", yaml: "clips:\n  chunk_frames: 0\n", wantErr: "chunk_frames"},
		{name: "backend", yaml: "audio:\n  backend: alsa\n", wantErr: "unknown audio backend"},
		{name: "syntax", yaml: "clips: [\n", wantErr: "error parsing config file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.yaml))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}

	_, err := Load(writeConfig(t, "clips:\n  names: [a.wav, a.wav]\n"))
	if !errors.Is(err, clips.ErrDuplicateClip) {
		t.Fatalf("expected ErrDuplicateClip, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestAPIKeyFromEnvFile(t *testing.T) {
	t.Setenv(APIKeyEnv, "")
	os.Unsetenv(APIKeyEnv)

	if _, err := APIKey(); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}

	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte(APIKeyEnv+"=from-file\n"), 0o600); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}

	if err := LoadEnv(filepath.Join(dir, "missing.env"), envFile); err != nil {
		t.Fatalf("expected missing env file to be skipped, got %v", err)
	}
	key, err := APIKey()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if key != "from-file" {
		t.Fatalf("expected key from env file, got %q", key)
	}
}

func TestLoadEnvKeepsExistingValues(t *testing.T) {
	t.Setenv(APIKeyEnv, "from-env")

	envFile := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(envFile, []byte(APIKeyEnv+"=from-file\n"), 0o600); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}
	if err := LoadEnv(envFile); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if key, _ := APIKey(); key != "from-env" {
		t.Fatalf("expected existing value to win, got %q", key)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}
