package audio

import (
	"fmt"
	"os"
	"sync"
)

// Capture spools streamed PCM frames to a temporary file until the clip
// is complete. The file is the only scoped resource in a voice turn;
// Close releases it on every exit path and is safe to call twice.
type Capture struct {
	mu     sync.Mutex
	file   *os.File
	size   int64
	maxLen int64
	closed bool
}

// MaxCaptureBytes caps a single capture at roughly 30s of PCM16 mono
// 44.1kHz audio, matching the longest allowed recording duration.
const MaxCaptureBytes = 30 * DefaultSampleRate * 2

// NewCapture creates a capture spool backed by a temp file.
func NewCapture() (*Capture, error) {
	f, err := os.CreateTemp("", "medimatch-capture-*.pcm")
	if err != nil {
		return nil, fmt.Errorf("failed to create capture file: %w", err)
	}
	return &Capture{file: f, maxLen: MaxCaptureBytes}, nil
}

// Write appends a PCM frame. Frames past the size cap are rejected so a
// runaway client cannot fill the disk.
func (c *Capture) Write(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return fmt.Errorf("capture is closed")
	}
	if c.size+int64(len(frame)) > c.maxLen {
		return fmt.Errorf("capture exceeds %d bytes", c.maxLen)
	}

	n, err := c.file.Write(frame)
	c.size += int64(n)
	if err != nil {
		return fmt.Errorf("failed to spool frame: %w", err)
	}
	return nil
}

// Size returns the number of PCM bytes spooled so far.
func (c *Capture) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// WAV reads the spooled PCM back as a complete WAV clip.
func (c *Capture) WAV(sampleRate, channels int) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, fmt.Errorf("capture is closed")
	}

	pcm, err := os.ReadFile(c.file.Name())
	if err != nil {
		return nil, fmt.Errorf("failed to read capture: %w", err)
	}
	return EncodeWAV(pcm, sampleRate, channels), nil
}

// Close releases the temp file. Idempotent.
func (c *Capture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	err := c.file.Close()
	if rmErr := os.Remove(c.file.Name()); err == nil {
		err = rmErr
	}
	return err
}
