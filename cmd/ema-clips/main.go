package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	orchestration "github.com/koscakluka/ema-clips/core"
	"github.com/koscakluka/ema-clips/core/audio"
	"github.com/koscakluka/ema-clips/core/audio/miniaudio"
	"github.com/koscakluka/ema-clips/core/audio/portaudio"
	"github.com/koscakluka/ema-clips/core/clips"
	"github.com/koscakluka/ema-clips/core/llms/gemini"
	"github.com/koscakluka/ema-clips/internal/config"
	"github.com/spf13/cobra"
)

type rootFlags struct {
	configPath string
	envFile    string
	clipsDir   string
	model      string
	backend    string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var flags rootFlags

	cmd := &cobra.Command{
		Use:          "ema-clips",
		Short:        "Chat with Gemini and play the recorded clips it picks",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return run(ctx, flags, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVar(&flags.configPath, "config", "", "YAML configuration file")
	cmd.Flags().StringVar(&flags.envFile, "env-file", config.DefaultEnvFile, "file to load "+config.APIKeyEnv+" from")
	cmd.Flags().StringVar(&flags.clipsDir, "clips-dir", "", "directory holding the WAV clips")
	cmd.Flags().StringVar(&flags.model, "model", "", "Gemini model name")
	cmd.Flags().StringVar(&flags.backend, "backend", "", "audio backend: miniaudio or portaudio")

	return cmd
}

func run(ctx context.Context, flags rootFlags, stdin io.Reader, stdout, stderr io.Writer) error {
	if err := config.LoadEnv(flags.envFile); err != nil {
		return err
	}

	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return err
	}
	if flags.clipsDir != "" {
		cfg.Clips.Dir = flags.clipsDir
	}
	if flags.model != "" {
		cfg.Model.Name = flags.model
	}
	if flags.backend != "" {
		cfg.Audio.Backend = flags.backend
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	apiKey, err := config.APIKey()
	if err != nil {
		return err
	}

	catalog, err := clips.NewCatalog(cfg.Clips.Names...)
	if err != nil {
		return err
	}

	llm, err := gemini.NewClient(ctx, apiKey,
		gemini.WithModel(cfg.Model.Name),
		gemini.WithGenerationOptions(cfg.GenerationOptions()),
	)
	if err != nil {
		return fmt.Errorf("failed to create gemini client: %w", err)
	}

	dispatcher := clips.NewDispatcher(cfg.Clips.Dir, newOutput(cfg.Audio),
		clips.WithChunkFrames(cfg.Clips.ChunkFrames),
		clips.WithDiagnostics(stderr),
	)

	console := orchestration.NewConsole(stdout, stderr, cfg.ConsoleMessages())
	console.Clips(catalog.Names())

	opts := []orchestration.OrchestratorOption{
		orchestration.WithStreamingLLM(llm),
		orchestration.WithClipPlayer(dispatcher),
		orchestration.WithSystemPrompt(cfg.Model.SystemInstruction),
		orchestration.WithSeedTurns(catalog.SeedTurns(cfg.Clips.Greeting, cfg.Clips.Company)...),
		orchestration.WithRejectRepeatedClips(cfg.Clips.RejectRepeats),
		orchestration.WithConsole(console),
	}
	if len(cfg.Console.ExitKeywords) > 0 {
		opts = append(opts, orchestration.WithExitKeywords(cfg.Console.ExitKeywords...))
	}

	err = orchestration.NewOrchestrator(opts...).Orchestrate(ctx, stdin)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func newOutput(cfg config.AudioConfig) audio.Output {
	switch cfg.Backend {
	case config.BackendPortaudio:
		return portaudio.NewClient(cfg.FramesPerBuffer)
	default:
		return miniaudio.NewClient()
	}
}
