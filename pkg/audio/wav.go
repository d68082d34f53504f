package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAV format tags understood by [DecodeWAV].
const (
	formatPCM        = 1
	formatIEEEFloat  = 3
	formatExtensible = 0xFFFE
)

var (
	// ErrInvalidWAV is returned when the input is not a readable RIFF/WAV
	// container.
	ErrInvalidWAV = errors.New("audio: invalid wav")

	// ErrUnsupportedFormat is returned for compressed or otherwise
	// non-linear WAV encodings.
	ErrUnsupportedFormat = errors.New("audio: unsupported wav encoding")
)

// ReadFile decodes the WAV file at path.
func ReadFile(path string) (Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return Clip{}, fmt.Errorf("audio: open %q: %w", path, err)
	}
	defer f.Close()
	c, err := DecodeWAV(f)
	if err != nil {
		return Clip{}, fmt.Errorf("audio: read %q: %w", path, err)
	}
	return c, nil
}

// DecodeWAV decodes linear PCM (8, 16, 24 or 32 bit) and 32-bit IEEE float
// WAV data. Multi-channel input is down-mixed to mono by averaging each frame.
func DecodeWAV(r io.ReadSeeker) (Clip, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		if err := d.Err(); err != nil {
			return Clip{}, fmt.Errorf("%w: %v", ErrInvalidWAV, err)
		}
		return Clip{}, ErrInvalidWAV
	}

	conv, err := sampleConverter(d.WavAudioFormat, int(d.BitDepth))
	if err != nil {
		return Clip{}, err
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return Clip{}, fmt.Errorf("%w: read pcm: %v", ErrInvalidWAV, err)
	}

	channels := int(d.NumChans)
	frames := len(buf.Data) / channels
	samples := make([]float32, frames)
	for i := range frames {
		var sum float64
		for ch := range channels {
			sum += conv(buf.Data[i*channels+ch])
		}
		samples[i] = float32(sum / float64(channels))
	}
	return Clip{Samples: samples, SampleRate: int(d.SampleRate)}, nil
}

// sampleConverter returns a function that maps one decoded sample to [-1, 1].
func sampleConverter(format uint16, bitDepth int) (func(int) float64, error) {
	switch format {
	case formatPCM, formatExtensible:
	case formatIEEEFloat:
		if bitDepth != 32 {
			return nil, fmt.Errorf("%w: %d-bit float", ErrUnsupportedFormat, bitDepth)
		}
		return func(v int) float64 {
			return float64(math.Float32frombits(uint32(int32(v))))
		}, nil
	default:
		return nil, fmt.Errorf("%w: format tag %#x", ErrUnsupportedFormat, format)
	}

	switch bitDepth {
	case 8:
		// 8-bit WAV is unsigned.
		return func(v int) float64 { return float64(v-128) / 128 }, nil
	case 16, 24, 32:
		scale := float64(int64(1) << (bitDepth - 1))
		return func(v int) float64 { return float64(v) / scale }, nil
	default:
		return nil, fmt.Errorf("%w: %d-bit pcm", ErrUnsupportedFormat, bitDepth)
	}
}

// WriteFile writes c to path as 16-bit mono PCM WAV.
func WriteFile(path string, c Clip) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("audio: create %q: %w", path, err)
	}
	enc := wav.NewEncoder(f, c.SampleRate, 16, 1, formatPCM)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: c.SampleRate},
		Data:           make([]int, len(c.Samples)),
		SourceBitDepth: 16,
	}
	for i, s := range Float32ToPCM16(c.Samples) {
		buf.Data[i] = int(s)
	}
	if err := enc.Write(buf); err != nil {
		f.Close()
		return fmt.Errorf("audio: encode %q: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return fmt.Errorf("audio: finalize %q: %w", path, err)
	}
	return f.Close()
}

// EncodeWAV wraps c in an in-memory 16-bit mono PCM RIFF/WAV container,
// suitable for a multipart upload.
func EncodeWAV(c Clip) []byte {
	const (
		bitsPerSample = 16
		headerSize    = 44
	)
	pcm := Float32ToPCM16(c.Samples)
	dataSize := len(pcm) * 2

	buf := make([]byte, headerSize+dataSize)
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataSize))
	copy(buf[8:12], "WAVE")

	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], formatPCM)
	binary.LittleEndian.PutUint16(buf[22:24], 1)
	binary.LittleEndian.PutUint32(buf[24:28], uint32(c.SampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(c.SampleRate*bitsPerSample/8))
	binary.LittleEndian.PutUint16(buf[32:34], bitsPerSample/8)
	binary.LittleEndian.PutUint16(buf[34:36], bitsPerSample)

	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))
	for i, s := range pcm {
		binary.LittleEndian.PutUint16(buf[headerSize+i*2:], uint16(s))
	}
	return buf
}
