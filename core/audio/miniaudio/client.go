package miniaudio

import (
	"context"
	"fmt"

	"github.com/gen2brain/malgo"
	"github.com/koscakluka/ema-clips/core/audio"
)

const (
	// periodsPerSecond sets the device period to ~100ms of audio
	periodsPerSecond = 10
	devicePeriods    = 3
	// bufferedPeriods is how much audio Write accepts ahead of the device
	bufferedPeriods = 4
)

// Client opens a fresh miniaudio context and playback device for every
// stream, and tears both down when the stream is closed.
type Client struct {
	backends []malgo.Backend
}

type ClientOption func(*Client)

// WithBackends restricts miniaudio to the given backends, in order of
// preference. By default miniaudio picks the platform default.
func WithBackends(backends ...malgo.Backend) ClientOption {
	return func(c *Client) { c.backends = backends }
}

func NewClient(opts ...ClientOption) *Client {
	client := &Client{}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

func (c *Client) Open(_ context.Context, format audio.Format) (audio.PlaybackStream, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}
	deviceFormat, err := toMalgoFormat(format)
	if err != nil {
		return nil, err
	}

	audioCtx, err := malgo.InitContext(c.backends, malgo.ContextConfig{}, func(message string) {
		logger.Debug("malgo", "message", message)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audio context: %w", err)
	}

	stream := newPlaybackStream(format)
	stream.audioContext = audioCtx

	config := malgo.DefaultDeviceConfig(malgo.Playback)
	config.SampleRate = uint32(format.FrameRate)
	config.Playback.Format = deviceFormat
	config.Playback.Channels = uint32(format.Channels)
	config.Alsa.NoMMap = 1
	config.PeriodSizeInFrames = max(uint32(format.FrameRate/periodsPerSecond), 1)
	config.Periods = devicePeriods

	device, err := malgo.InitDevice(audioCtx.Context, config, malgo.DeviceCallbacks{
		Data: stream.processAudio,
	})
	if err != nil {
		_ = stream.Close()
		return nil, fmt.Errorf("failed to initialize playback device: %w", err)
	}
	stream.device = device

	if err := device.Start(); err != nil {
		_ = stream.Close()
		return nil, fmt.Errorf("failed to start playback device: %w", err)
	}

	return stream, nil
}

func toMalgoFormat(format audio.Format) (malgo.FormatType, error) {
	switch format.Encoding() {
	case audio.EncodingUnsigned8:
		return malgo.FormatU8, nil
	case audio.EncodingLinear16:
		return malgo.FormatS16, nil
	case audio.EncodingLinear24:
		return malgo.FormatS24, nil
	case audio.EncodingLinear32:
		return malgo.FormatS32, nil
	}
	return malgo.FormatUnknown, fmt.Errorf("%w: %s", audio.ErrUnsupportedFormat, format)
}
