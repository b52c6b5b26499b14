package portaudio

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/gordonklaus/portaudio"
	"github.com/koscakluka/ema-clips/core/audio"
)

const DefaultFramesPerBuffer = 1024

// Client plays audio through the default PortAudio output device. PortAudio
// is initialized per stream and terminated when the stream closes.
type Client struct {
	framesPerBuffer int
}

func NewClient(framesPerBuffer int) *Client {
	if framesPerBuffer <= 0 {
		framesPerBuffer = DefaultFramesPerBuffer
	}
	return &Client{framesPerBuffer: framesPerBuffer}
}

func (c *Client) Open(_ context.Context, format audio.Format) (audio.PlaybackStream, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}
	buffer, fill, err := newSampleBuffer(format, c.framesPerBuffer)
	if err != nil {
		return nil, err
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	stream, err := portaudio.OpenDefaultStream(0, format.Channels, float64(format.FrameRate), c.framesPerBuffer, buffer)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("failed to open portaudio stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("failed to start portaudio stream: %w", err)
	}

	return &playbackStream{
		stream:      stream,
		fill:        fill,
		silence:     format.SilenceValue(),
		bufferBytes: c.framesPerBuffer * format.BytesPerFrame(),
	}, nil
}

type playbackStream struct {
	stream *portaudio.Stream
	// fill decodes exactly one buffer worth of PCM bytes into the stream's
	// sample buffer
	fill func([]byte) error

	silence     byte
	bufferBytes int
	// PERF: leftover audio is copied on every write, fine for clip sized input
	leftoverAudio []byte
	stopped       bool
}

func (s *playbackStream) Write(audio []byte) error {
	pending := append(s.leftoverAudio, audio...)
	for len(pending) >= s.bufferBytes {
		if err := s.writeBuffer(pending[:s.bufferBytes]); err != nil {
			return err
		}
		pending = pending[s.bufferBytes:]
	}
	s.leftoverAudio = append([]byte(nil), pending...)
	return nil
}

func (s *playbackStream) Drain() error {
	if len(s.leftoverAudio) > 0 {
		last := bytes.Repeat([]byte{s.silence}, s.bufferBytes)
		copy(last, s.leftoverAudio)
		s.leftoverAudio = nil
		if err := s.writeBuffer(last); err != nil {
			return err
		}
	}

	// Stop returns once all queued buffers have been played
	s.stopped = true
	if err := s.stream.Stop(); err != nil {
		return fmt.Errorf("failed to stop portaudio stream: %w", err)
	}
	return nil
}

func (s *playbackStream) Close() error {
	var errs []error
	if !s.stopped {
		s.stopped = true
		if err := s.stream.Abort(); err != nil {
			errs = append(errs, fmt.Errorf("failed to abort portaudio stream: %w", err))
		}
	}
	if err := s.stream.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close portaudio stream: %w", err))
	}
	if err := portaudio.Terminate(); err != nil {
		errs = append(errs, fmt.Errorf("failed to terminate portaudio: %w", err))
	}
	return errors.Join(errs...)
}

func (s *playbackStream) writeBuffer(data []byte) error {
	if err := s.fill(data); err != nil {
		return err
	}
	if err := s.stream.Write(); err != nil {
		return fmt.Errorf("failed to write to portaudio stream: %w", err)
	}
	return nil
}

func newSampleBuffer(format audio.Format, framesPerBuffer int) (any, func([]byte) error, error) {
	samples := framesPerBuffer * format.Channels
	switch format.Encoding() {
	case audio.EncodingUnsigned8:
		buffer := make([]uint8, samples)
		return buffer, func(data []byte) error {
			copy(buffer, data)
			return nil
		}, nil
	case audio.EncodingLinear16:
		buffer := make([]int16, samples)
		return buffer, littleEndianFill(buffer), nil
	case audio.EncodingLinear32:
		buffer := make([]int32, samples)
		return buffer, littleEndianFill(buffer), nil
	}
	return nil, nil, fmt.Errorf("%w for portaudio: %s", audio.ErrUnsupportedFormat, format)
}

func littleEndianFill(buffer any) func([]byte) error {
	return func(data []byte) error {
		if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, buffer); err != nil {
			return fmt.Errorf("failed to decode samples: %w", err)
		}
		return nil
	}
}
