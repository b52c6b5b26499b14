package clips

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/koscakluka/ema-clips/core/audio"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	PlayToolName     = "play_audio"
	PlayToolArgument = "audio_file"

	DefaultChunkFrames = 1024
	DefaultRoot        = "HRRecordedAudios"
)

var ErrInvalidClip = errors.New("invalid clip name")

type Status string

const (
	StatusPlayed        Status = "played"
	StatusNotFound      Status = "not_found"
	StatusSkippedRepeat Status = "skipped_repeat"
)

// Result is reported back to the model after a play request.
type Result struct {
	Status  Status `json:"status"`
	Clip    string `json:"clip"`
	Message string `json:"message,omitempty"`
}

// Dispatcher plays clips stored under a single directory, one at a time, on
// the calling goroutine.
type Dispatcher struct {
	root        string
	output      audio.Output
	chunkFrames int
	diagnostics io.Writer

	mu               sync.Mutex
	currentlyPlaying string
}

type DispatcherOption func(*Dispatcher)

// WithChunkFrames sets how many frames are read and written at a time.
func WithChunkFrames(frames int) DispatcherOption {
	return func(d *Dispatcher) {
		if frames > 0 {
			d.chunkFrames = frames
		}
	}
}

// WithDiagnostics sets where user facing diagnostics, such as missing clips,
// are printed. Defaults to stderr.
func WithDiagnostics(w io.Writer) DispatcherOption {
	return func(d *Dispatcher) {
		if w != nil {
			d.diagnostics = w
		}
	}
}

func NewDispatcher(root string, output audio.Output, opts ...DispatcherOption) *Dispatcher {
	if root == "" {
		root = DefaultRoot
	}
	d := &Dispatcher{
		root:        root,
		output:      output,
		chunkFrames: DefaultChunkFrames,
		diagnostics: os.Stderr,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dispatcher) Root() string { return d.root }

// Resolve maps a clip name to its path. Names have to stay inside the clip
// directory.
func (d *Dispatcher) Resolve(clip string) (string, error) {
	if clip == "" || !filepath.IsLocal(clip) {
		return "", fmt.Errorf("%w: %q", ErrInvalidClip, clip)
	}
	return filepath.Join(d.root, clip), nil
}

// Exists reports whether the clip resolves to a regular file.
func (d *Dispatcher) Exists(clip string) bool {
	path, err := d.Resolve(clip)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// CurrentlyPlaying returns the path of the clip being played, empty when idle.
func (d *Dispatcher) CurrentlyPlaying() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.currentlyPlaying
}

func (d *Dispatcher) setCurrentlyPlaying(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.currentlyPlaying = path
}

// Play plays the clip to completion before returning. A missing clip is
// reported on the diagnostics writer and returned as StatusNotFound without
// touching the device; decoding and device failures are returned as errors.
// The clip file and the device session are released on every path.
func (d *Dispatcher) Play(ctx context.Context, clip string) (result Result, err error) {
	ctx, span := tracer.Start(ctx, "play clip")
	defer span.End()
	span.SetAttributes(attribute.String("clip.name", clip))
	defer func() {
		span.SetAttributes(attribute.String("clip.status", string(result.Status)))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	result = Result{Clip: clip}
	path, resolveErr := d.Resolve(clip)
	if resolveErr != nil {
		fmt.Fprintf(d.diagnostics, "%q is not a valid clip name!\n", clip)
		result.Status, result.Message = StatusNotFound, resolveErr.Error()
		return result, nil
	}
	if !d.Exists(clip) {
		fmt.Fprintf(d.diagnostics, "%s doesn't exist!\n", path)
		logger.Warn("clip not found", "clip", clip, "path", path)
		result.Status, result.Message = StatusNotFound, "clip not found"
		return result, nil
	}

	source, err := audio.OpenWAV(path)
	if err != nil {
		return result, err
	}
	defer func() {
		if closeErr := source.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close clip: %w", closeErr))
		}
	}()

	format := source.Format()
	span.SetAttributes(attribute.String("clip.format", format.String()))
	stream, err := d.output.Open(ctx, format)
	if err != nil {
		return result, fmt.Errorf("failed to open output device: %w", err)
	}
	defer func() {
		if closeErr := stream.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close output device: %w", closeErr))
		}
	}()

	d.setCurrentlyPlaying(path)
	defer d.setCurrentlyPlaying("")
	logger.Info("playing clip", "clip", clip, "path", path, "format", format.String())

	chunks := 0
	for {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, fmt.Errorf("playback of %q interrupted: %w", clip, ctxErr)
		}

		data, readErr := source.ReadFrames(d.chunkFrames)
		if errors.Is(readErr, io.EOF) {
			break
		} else if readErr != nil {
			return result, readErr
		}

		if writeErr := stream.Write(data); writeErr != nil {
			return result, fmt.Errorf("failed to write to output device: %w", writeErr)
		}
		chunks++
	}
	span.SetAttributes(attribute.Int("clip.chunks", chunks))

	if drainErr := stream.Drain(); drainErr != nil {
		return result, fmt.Errorf("failed to drain output device: %w", drainErr)
	}

	result.Status = StatusPlayed
	return result, nil
}
