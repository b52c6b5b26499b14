package audio

import (
	"errors"
	"fmt"
)

var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Format describes interleaved little-endian PCM. 8-bit samples are unsigned,
// wider samples are signed.
type Format struct {
	// SampleWidth is the size of a single sample in bytes
	SampleWidth int
	Channels    int
	FrameRate   int
}

func (f Format) IsZero() bool {
	return f.SampleWidth == 0 || f.Channels == 0 || f.FrameRate == 0
}

// BytesPerFrame is the size of one sample for every channel.
func (f Format) BytesPerFrame() int {
	return f.SampleWidth * f.Channels
}

func (f Format) Encoding() encoding {
	switch f.SampleWidth {
	case 1:
		return EncodingUnsigned8
	case 2:
		return EncodingLinear16
	case 3:
		return EncodingLinear24
	case 4:
		return EncodingLinear32
	}
	return ""
}

func (f Format) Validate() error {
	if f.IsZero() {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
	}
	if f.Encoding() == "" {
		return fmt.Errorf("%w: %d byte samples", ErrUnsupportedFormat, f.SampleWidth)
	}
	return nil
}

func (f Format) String() string {
	return fmt.Sprintf("%dHz %dch %dbit", f.FrameRate, f.Channels, f.SampleWidth*8)
}

type encoding string

const (
	EncodingUnsigned8 encoding = "unsigned8"
	EncodingLinear16  encoding = "linear16"
	EncodingLinear24  encoding = "linear24"
	EncodingLinear32  encoding = "linear32"
)

// SilenceValue is the byte value of a silent sample.
func (f Format) SilenceValue() byte {
	if f.Encoding() == EncodingUnsigned8 {
		return 0x80
	}
	return 0
}
