package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
)

const elevenLabsSTTURL = "https://api.elevenlabs.io/v1/speech-to-text"

// ElevenLabsClient implements the Client interface using ElevenLabs'
// speech-to-text API (batch, one clip per request).
type ElevenLabsClient struct {
	apiKey     string
	modelID    string
	baseURL    string
	httpClient *http.Client
}

// ElevenLabsConfig holds configuration for the ElevenLabs STT client.
type ElevenLabsConfig struct {
	APIKey     string
	ModelID    string       // e.g., "scribe_v1"
	BaseURL    string       // Override for tests
	HTTPClient *http.Client // Optional shared client
}

// NewElevenLabsClient creates a new ElevenLabs STT client.
func NewElevenLabsClient(cfg ElevenLabsConfig) *ElevenLabsClient {
	modelID := cfg.ModelID
	if modelID == "" {
		modelID = "scribe_v1"
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = elevenLabsSTTURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &ElevenLabsClient{
		apiKey:     cfg.APIKey,
		modelID:    modelID,
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

// sttResponse represents an ElevenLabs speech-to-text response.
type sttResponse struct {
	Text string `json:"text"`
}

// Transcribe uploads the WAV clip and returns the recognized text,
// trimmed. An empty transcript is not an error.
func (c *ElevenLabsClient) Transcribe(ctx context.Context, audio []byte) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if err := mw.WriteField("model_id", c.modelID); err != nil {
		return "", fmt.Errorf("failed to write form field: %w", err)
	}
	if err := mw.WriteField("diarize", "false"); err != nil {
		return "", fmt.Errorf("failed to write form field: %w", err)
	}
	fw, err := mw.CreateFormFile("file", "recording.wav")
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := fw.Write(audio); err != nil {
		return "", fmt.Errorf("failed to write audio: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize form: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL, &buf)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", mw.FormDataContentType())
	httpReq.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ElevenLabs API error: %s - %s", resp.Status, string(respBody))
	}

	var sttResp sttResponse
	if err := json.NewDecoder(resp.Body).Decode(&sttResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	return strings.TrimSpace(sttResp.Text), nil
}
