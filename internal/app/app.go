package app

import (
	"errors"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/mkoehler/medimatch/internal/audio"
	"github.com/mkoehler/medimatch/internal/conversation"
	"github.com/mkoehler/medimatch/internal/directory"
	"github.com/mkoehler/medimatch/internal/httpapi"
	"github.com/mkoehler/medimatch/internal/llm"
	"github.com/mkoehler/medimatch/internal/stt"
	"github.com/mkoehler/medimatch/internal/tts"
)

type App struct {
	cfg        Config
	logger     *log.Logger
	registry   *conversation.Registry
	controller *conversation.Controller
	ttsClient  tts.Client
	httpClient *http.Client // Shared client with connection pooling for the gateways
}

func New(cfg Config, logger *log.Logger) (*App, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	// Shared HTTP client with connection pooling. The voice gateways hit
	// the same hosts on every turn; keeping connections alive cuts the
	// per-turn latency.
	httpClient := &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   5 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   5 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}

	sttClient := stt.NewElevenLabsClient(stt.ElevenLabsConfig{
		APIKey:     cfg.ElevenLabsAPIKey,
		HTTPClient: httpClient,
	})
	extractor := llm.NewOpenAIClient(llm.OpenAIConfig{
		APIKey:     cfg.OpenAIAPIKey,
		Model:      cfg.OpenAIModel,
		HTTPClient: httpClient,
	})
	ttsClient := tts.NewElevenLabsClient(tts.ElevenLabsConfig{
		APIKey:     cfg.ElevenLabsAPIKey,
		VoiceID:    cfg.ElevenLabsVoice,
		HTTPClient: httpClient,
	})
	dir := directory.NewClient(directory.Config{
		BaseURL:    cfg.DirectoryBaseURL,
		HTTPClient: httpClient,
	})

	registry := conversation.NewRegistry(conversation.DefaultDiagnosticsSize)
	controller := conversation.NewController(sttClient, extractor, dir, logger, conversation.ControllerConfig{
		MaxResults:      cfg.MaxResults,
		InsuranceSector: cfg.InsuranceSector,
		GreetingText:    cfg.GreetingText,
	})

	return &App{
		cfg:        cfg,
		logger:     logger,
		registry:   registry,
		controller: controller,
		ttsClient:  ttsClient,
		httpClient: httpClient,
	}, nil
}

func (a *App) Router() http.Handler {
	routerCfg := httpapi.RouterConfig{
		PublicBaseURL: a.cfg.PublicBaseURL,
		JWTSecret:     a.cfg.JWTSecret,
		JWTExpiry:     a.cfg.JWTExpiry,
		RecordSeconds: a.cfg.RecordSeconds,
		SampleRate:    audio.DefaultSampleRate,
		Channels:      audio.DefaultChannels,
		DebugAPIKey:   a.cfg.DebugAPIKey,
	}
	return httpapi.NewRouter(routerCfg, a.logger, a.controller, a.registry, a.ttsClient)
}

// Registry exposes the session registry for graceful shutdown.
func (a *App) Registry() *conversation.Registry {
	return a.registry
}

func (a *App) Close() error {
	a.httpClient.CloseIdleConnections()
	return nil
}
