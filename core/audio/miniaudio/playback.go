package miniaudio

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
	"github.com/koscakluka/ema-clips/core/audio"
)

var errStreamClosed = errors.New("playback stream closed")

type playbackStream struct {
	audioContext *malgo.AllocatedContext
	device       *malgo.Device

	silence     byte
	maxBuffered int

	mu        sync.Mutex
	cond      *sync.Cond
	buffered  []byte
	callbacks uint64
	// emptiedAt is the callback count at which the buffer last ran dry
	emptiedAt uint64
	closed    bool
	closeOnce sync.Once
}

func newPlaybackStream(format audio.Format) *playbackStream {
	periodBytes := max(format.FrameRate/periodsPerSecond, 1) * format.BytesPerFrame()
	s := &playbackStream{
		silence:     format.SilenceValue(),
		maxBuffered: periodBytes * bufferedPeriods,
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

func (s *playbackStream) Write(audio []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for len(s.buffered) >= s.maxBuffered && !s.closed {
		s.cond.Wait()
	}
	if s.closed {
		return errStreamClosed
	}

	s.buffered = append(s.buffered, audio...)
	return nil
}

// Drain waits for the buffer to empty and then for the device to cycle
// through its own periods, so the tail of the clip is audible before Close.
func (s *playbackStream) Drain() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for len(s.buffered) > 0 && !s.closed {
		s.cond.Wait()
	}
	for s.callbacks < s.emptiedAt+devicePeriods && !s.closed {
		s.cond.Wait()
	}
	if s.closed {
		return errStreamClosed
	}
	return nil
}

func (s *playbackStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.buffered = nil
		s.cond.Broadcast()
		s.mu.Unlock()

		if s.device != nil {
			s.device.Uninit()
			s.device = nil
		}
		if s.audioContext != nil {
			if uninitErr := s.audioContext.Uninit(); uninitErr != nil {
				err = fmt.Errorf("failed to uninitialize audio context: %w", uninitErr)
			}
			s.audioContext.Free()
			s.audioContext = nil
		}
	})
	return err
}

func (s *playbackStream) processAudio(pOutput, _ []byte, _ uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := copy(pOutput, s.buffered)
	s.buffered = s.buffered[n:]
	for i := n; i < len(pOutput); i++ {
		pOutput[i] = s.silence
	}

	s.callbacks++
	if n > 0 && len(s.buffered) == 0 {
		s.emptiedAt = s.callbacks
	}
	s.cond.Broadcast()
}
