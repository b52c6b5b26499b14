package audio

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"
)

// WAVSource reads PCM frames from a wave file. beep parses the header, the
// data chunk is then read from the file as stored.
type WAVSource struct {
	file     *os.File
	streamer beep.StreamSeekCloser
	format   beep.Format
	// remaining counts the frames of the data chunk not yet read
	remaining int
}

func OpenWAV(path string) (*WAVSource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open clip: %w", err)
	}

	streamer, format, err := wav.Decode(file)
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to decode wave header of %q: %w", path, err)
	}

	return &WAVSource{
		file:      file,
		streamer:  streamer,
		format:    format,
		remaining: streamer.Len(),
	}, nil
}

func (s *WAVSource) Format() Format {
	return Format{
		SampleWidth: s.format.Precision,
		Channels:    s.format.NumChannels,
		FrameRate:   int(s.format.SampleRate),
	}
}

// Frames is the total number of frames in the clip.
func (s *WAVSource) Frames() int {
	return s.streamer.Len()
}

// ReadFrames returns up to frames frames of PCM data exactly as stored in
// the clip. It returns io.EOF once the clip is exhausted; the last chunk may
// be shorter than requested.
func (s *WAVSource) ReadFrames(frames int) ([]byte, error) {
	if s.remaining <= 0 || frames <= 0 {
		return nil, io.EOF
	}

	frameSize := s.Format().BytesPerFrame()
	data := make([]byte, min(frames, s.remaining)*frameSize)
	n, err := io.ReadFull(s.file, data)
	switch {
	case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		logger.Warn("clip data chunk is shorter than its header says",
			"file", s.file.Name(), "missing_frames", s.remaining-n/frameSize)
		s.remaining = 0
		data = data[:n-n%frameSize]
		if len(data) == 0 {
			return nil, io.EOF
		}
		return data, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read clip frames: %w", err)
	}

	s.remaining -= n / frameSize
	return data, nil
}

func (s *WAVSource) Close() error {
	streamErr := s.streamer.Close()
	fileErr := s.file.Close()
	if errors.Is(fileErr, os.ErrClosed) {
		fileErr = nil
	}
	return errors.Join(streamErr, fileErr)
}
