package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

// writeTestWAV writes a PCM wave file with the given number of frames of
// non-silent data and returns its path and data chunk.
func writeTestWAV(t *testing.T, dir string, name string, format Format, frames int) (string, []byte) {
	t.Helper()

	dataSize := frames * format.BytesPerFrame()
	samples := make([]byte, dataSize)
	for i := range samples {
		samples[i] = byte(i*7 + 3)
	}

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(format.Channels))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(format.FrameRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(format.FrameRate*format.BytesPerFrame()))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(format.BytesPerFrame()))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(format.SampleWidth*8))
	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(dataSize))
	buf.Write(samples)

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("failed to write test wave file: %v", err)
	}
	return path, samples
}

func TestOpenWAVReportsFormat(t *testing.T) {
	want := Format{SampleWidth: 2, Channels: 2, FrameRate: 22050}
	path, _ := writeTestWAV(t, t.TempDir(), "stereo.wav", want, 100)

	source, err := OpenWAV(path)
	if err != nil {
		t.Fatalf("expected wave file to open, got %v", err)
	}
	defer source.Close()

	if got := source.Format(); got != want {
		t.Fatalf("expected format %s, got %s", want, got)
	}
	if got := source.Frames(); got != 100 {
		t.Fatalf("expected 100 frames, got %d", got)
	}
}

func TestWAVSourceReadsFixedSizeChunks(t *testing.T) {
	format := Format{SampleWidth: 2, Channels: 1, FrameRate: 16000}
	path, samples := writeTestWAV(t, t.TempDir(), "mono.wav", format, 2500)

	source, err := OpenWAV(path)
	if err != nil {
		t.Fatalf("expected wave file to open, got %v", err)
	}
	defer source.Close()

	var sizes []int
	var read []byte
	for {
		data, err := source.ReadFrames(1024)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("expected no read error, got %v", err)
		}
		sizes = append(sizes, len(data))
		read = append(read, data...)
	}

	want := []int{2048, 2048, 904}
	if len(sizes) != len(want) {
		t.Fatalf("expected chunk sizes %v, got %v", want, sizes)
	}
	for i := range want {
		if sizes[i] != want[i] {
			t.Fatalf("expected chunk sizes %v, got %v", want, sizes)
		}
	}
	if !bytes.Equal(read, samples) {
		t.Fatalf("expected frames to match the data chunk byte for byte")
	}
}

func TestWAVSourcePassesSamplesThrough(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		frames int
	}{
		{name: "unsigned 8-bit mono", format: Format{SampleWidth: 1, Channels: 1, FrameRate: 8000}, frames: 300},
		{name: "16-bit mono", format: Format{SampleWidth: 2, Channels: 1, FrameRate: 8000}, frames: 1500},
		{name: "16-bit four channels", format: Format{SampleWidth: 2, Channels: 4, FrameRate: 8000}, frames: 1100},
		{name: "24-bit stereo", format: Format{SampleWidth: 3, Channels: 2, FrameRate: 44100}, frames: 1030},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, samples := writeTestWAV(t, t.TempDir(), "clip.wav", tt.format, tt.frames)

			source, err := OpenWAV(path)
			if err != nil {
				t.Fatalf("expected wave file to open, got %v", err)
			}
			defer source.Close()
			if got := source.Format(); got != tt.format {
				t.Fatalf("expected format %s, got %s", tt.format, got)
			}

			var read []byte
			for {
				data, err := source.ReadFrames(1024)
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					t.Fatalf("expected no read error, got %v", err)
				}
				read = append(read, data...)
			}

			if !bytes.Equal(read, samples) {
				t.Fatalf("expected %d bytes equal to the data chunk, got %d bytes that differ", len(samples), len(read))
			}
		})
	}
}

func TestWAVSourceStopsAtTruncatedData(t *testing.T) {
	format := Format{SampleWidth: 2, Channels: 1, FrameRate: 8000}
	path, samples := writeTestWAV(t, t.TempDir(), "short.wav", format, 100)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read test wave file: %v", err)
	}
	// drop the last 10.5 frames while the header still promises 100
	if err := os.WriteFile(path, data[:len(data)-21], 0o644); err != nil {
		t.Fatalf("failed to rewrite test wave file: %v", err)
	}

	source, err := OpenWAV(path)
	if err != nil {
		t.Fatalf("expected wave file to open, got %v", err)
	}
	defer source.Close()

	frames, err := source.ReadFrames(1024)
	if err != nil {
		t.Fatalf("expected the available frames, got %v", err)
	}
	if !bytes.Equal(frames, samples[:89*2]) {
		t.Fatalf("expected 89 whole frames, got %d bytes", len(frames))
	}
	if _, err := source.ReadFrames(1024); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF after truncated data, got %v", err)
	}
}

func TestOpenWAVMissingFile(t *testing.T) {
	_, err := OpenWAV(filepath.Join(t.TempDir(), "missing.wav"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not exist error, got %v", err)
	}
}

func TestOpenWAVRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.wav")
	if err := os.WriteFile(path, []byte("definitely not a wave file, just text"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	if _, err := OpenWAV(path); err == nil {
		t.Fatalf("expected decoding garbage to fail")
	}
}

func TestWAVSourceCloseIsClean(t *testing.T) {
	path, _ := writeTestWAV(t, t.TempDir(), "clip.wav", Format{SampleWidth: 2, Channels: 1, FrameRate: 8000}, 8)

	source, err := OpenWAV(path)
	if err != nil {
		t.Fatalf("expected wave file to open, got %v", err)
	}
	if err := source.Close(); err != nil {
		t.Fatalf("expected clean close, got %v", err)
	}
}

func TestFormatValidate(t *testing.T) {
	if err := (Format{SampleWidth: 2, Channels: 1, FrameRate: 16000}).Validate(); err != nil {
		t.Fatalf("expected 16-bit mono to be valid, got %v", err)
	}
	if err := (Format{SampleWidth: 5, Channels: 1, FrameRate: 16000}).Validate(); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected 40-bit samples to be unsupported, got %v", err)
	}
	if err := (Format{}).Validate(); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected zero format to be unsupported, got %v", err)
	}
}
