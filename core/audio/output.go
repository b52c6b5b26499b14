package audio

import "context"

// Output opens playback sessions on an audio device.
type Output interface {
	Open(ctx context.Context, format Format) (PlaybackStream, error)
}

// PlaybackStream is one open device session.
type PlaybackStream interface {
	// Write queues PCM data and blocks until the device has room for it.
	Write(audio []byte) error
	// Drain blocks until everything written so far has been played.
	Drain() error
	// Close releases the device and any backend resources.
	Close() error
}
