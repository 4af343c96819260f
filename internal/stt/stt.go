package stt

import "context"

// Client defines the interface for speech-to-text providers.
type Client interface {
	// Transcribe converts one recorded clip to text. Audio must be a
	// complete WAV container. An empty string with a nil error means the
	// service recognized no speech.
	Transcribe(ctx context.Context, audio []byte) (string, error)
}
