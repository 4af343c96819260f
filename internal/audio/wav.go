package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Default capture format: 16-bit PCM mono at 44.1kHz.
const (
	DefaultSampleRate = 44100
	DefaultChannels   = 1
	bitsPerSample     = 16
)

// WriteWAV wraps raw little-endian PCM16 samples in a WAV container and
// writes it to w.
func WriteWAV(w io.Writer, pcm []byte, sampleRate, channels int) error {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	if channels <= 0 {
		channels = DefaultChannels
	}

	blockAlign := channels * bitsPerSample / 8
	byteRate := sampleRate * blockAlign
	dataLen := len(pcm)

	// Writes to bytes.Buffer cannot fail.
	var header bytes.Buffer
	header.WriteString("RIFF")
	_ = binary.Write(&header, binary.LittleEndian, uint32(36+dataLen))
	header.WriteString("WAVE")
	header.WriteString("fmt ")
	_ = binary.Write(&header, binary.LittleEndian, uint32(16)) // fmt chunk size
	_ = binary.Write(&header, binary.LittleEndian, uint16(1))  // PCM
	_ = binary.Write(&header, binary.LittleEndian, uint16(channels))
	_ = binary.Write(&header, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(&header, binary.LittleEndian, uint32(byteRate))
	_ = binary.Write(&header, binary.LittleEndian, uint16(blockAlign))
	_ = binary.Write(&header, binary.LittleEndian, uint16(bitsPerSample))
	header.WriteString("data")
	_ = binary.Write(&header, binary.LittleEndian, uint32(dataLen))

	if _, err := w.Write(header.Bytes()); err != nil {
		return fmt.Errorf("failed to write WAV header: %w", err)
	}
	if _, err := w.Write(pcm); err != nil {
		return fmt.Errorf("failed to write PCM data: %w", err)
	}
	return nil
}

// EncodeWAV returns the PCM samples as a complete WAV file.
func EncodeWAV(pcm []byte, sampleRate, channels int) []byte {
	var buf bytes.Buffer
	_ = WriteWAV(&buf, pcm, sampleRate, channels)
	return buf.Bytes()
}
