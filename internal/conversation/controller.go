package conversation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mkoehler/medimatch/internal/directory"
	"github.com/mkoehler/medimatch/internal/llm"
	"github.com/mkoehler/medimatch/internal/stt"
)

// DirectoryClient is the slice of the directory gateway the controller
// depends on.
type DirectoryClient interface {
	ResolveSpecialty(ctx context.Context, query string) (*directory.Specialty, error)
	ResolveLocation(ctx context.Context, query string) (*directory.PlaceSuggestion, error)
	Search(ctx context.Context, q directory.SearchQuery) ([]directory.Provider, error)
	BaseURL() string
}

// ControllerConfig holds product tuning constants for the controller.
type ControllerConfig struct {
	MaxResults      int           // candidate list bound, default 5
	InsuranceSector string        // default "public"
	GatewayTimeout  time.Duration // per gateway call, default 10s
	GreetingText    string
}

// DefaultGreeting opens every fresh session.
const DefaultGreeting = "Hello! I'm here to help you find the right doctor. Please tell me about your symptoms and location."

// Controller sequences the voice turns: it owns no state of its own and
// mutates the Session it is handed. Every failure is converted into a
// phase transition plus a plain-language assistant message before the
// error is returned for monitoring.
type Controller struct {
	stt       stt.Client
	extractor llm.Extractor
	directory DirectoryClient
	logger    *log.Logger
	cfg       ControllerConfig
}

// NewController wires a controller to its three gateways.
func NewController(sttClient stt.Client, extractor llm.Extractor, dir DirectoryClient, logger *log.Logger, cfg ControllerConfig) *Controller {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = directory.DefaultMaxCandidates
	}
	if cfg.InsuranceSector == "" {
		cfg.InsuranceSector = "public"
	}
	if cfg.GatewayTimeout <= 0 {
		cfg.GatewayTimeout = 10 * time.Second
	}
	if cfg.GreetingText == "" {
		cfg.GreetingText = DefaultGreeting
	}
	return &Controller{
		stt:       sttClient,
		extractor: extractor,
		directory: dir,
		logger:    logger,
		cfg:       cfg,
	}
}

// Greet appends the opening assistant message to a fresh or reset session.
func (c *Controller) Greet(s *Session) {
	s.appendAssistant(c.cfg.GreetingText)
}

// Prompt returns the text the surface should speak before recording the
// next utterance, given the session's phase.
func (c *Controller) Prompt(s *Session) string {
	switch s.Phase {
	case PhaseAwaitingChoice:
		return "Would you like to book this one, or hear the next option?"
	case PhaseAwaitingBooking:
		return "Would you like to book an appointment? Please say yes or no."
	default:
		return "Please describe your symptoms and tell me your location."
	}
}

// HandleTurn runs one synchronous voice turn against the session,
// dispatching on the current phase. The session always lands in a
// consistent state; the returned TurnError (nil on a clean turn) exists
// for logging and error capture only.
func (c *Controller) HandleTurn(ctx context.Context, s *Session, wavAudio []byte) *TurnError {
	switch s.Phase {
	case PhaseAwaitingChoice:
		return c.handleChoice(ctx, s, wavAudio)
	case PhaseAwaitingBooking:
		return c.handleConfirmation(ctx, s, wavAudio)
	default:
		return c.handleSearchTurn(ctx, s, wavAudio)
	}
}

// HandleCaptureFailure records a failed audio capture and returns the
// session to idle with a user-visible error.
func (c *Controller) HandleCaptureFailure(s *Session, err error) *TurnError {
	s.Phase = PhaseIdle
	s.appendAssistant("I'm sorry, I couldn't record your voice. Please try again.")
	s.Diag.Log(EventGatewayError, map[string]any{"stage": "capture", "error": err.Error()})
	return turnErr(KindCaptureFailure, err)
}

// handleSearchTurn is the opening pipeline:
// transcribe -> extract -> validate -> resolve -> search -> present.
func (c *Controller) handleSearchTurn(ctx context.Context, s *Session, wavAudio []byte) *TurnError {
	s.beginTurn()
	s.Diag.Log(EventTurnStarted, map[string]any{"phase": string(s.Phase)})

	s.Phase = PhaseTranscribing
	transcript, terr := c.transcribe(ctx, s, wavAudio)
	if terr != nil {
		return c.failTurn(s, terr, "I'm sorry, I encountered an error. Please try again.")
	}
	if transcript == "" {
		s.Phase = PhaseIdle
		s.Diag.Log(EventSTTEmpty, nil)
		s.appendAssistant("I'm sorry, I didn't catch that. Could you describe your symptoms and location again?")
		return turnErr(KindEmptyTranscript, errors.New("empty transcript"))
	}
	s.LastTranscript = transcript
	s.appendUser(transcript)

	s.Phase = PhaseExtracting
	intent, terr := c.extract(ctx, s, transcript)
	if terr != nil {
		if terr.Kind == KindValidationFailure {
			return c.failTurn(s, terr, validationMessage(terr.Field))
		}
		return c.failTurn(s, terr, "I'm sorry, I couldn't make sense of that. Could you describe your symptoms and location again?")
	}
	s.Intent = intent

	s.Phase = PhaseSearching
	candidates, terr := c.search(ctx, s, intent)
	if terr != nil {
		if terr.Kind == KindNoCandidates {
			return c.failTurn(s, terr, "I couldn't find a matching doctor. Could you provide more details about what you're looking for?")
		}
		return c.failTurn(s, terr, "I'm sorry, the doctor search isn't available right now. Please try again in a moment.")
	}

	s.Candidates = candidates
	s.CandidateIndex = 0
	s.Selected = nil
	s.Phase = PhasePresentingCandidate
	c.presentCandidate(s)
	return nil
}

// handleChoice processes an utterance while a candidate is on offer.
func (c *Controller) handleChoice(ctx context.Context, s *Session, wavAudio []byte) *TurnError {
	transcript, terr := c.transcribe(ctx, s, wavAudio)
	if terr != nil {
		return c.failTurn(s, terr, "I'm sorry, I encountered an error. Please try again.")
	}
	if transcript == "" {
		// Never advance silently on an unrecognized answer.
		s.Diag.Log(EventSTTEmpty, map[string]any{"phase": string(s.Phase)})
		s.appendAssistant("Sorry, I didn't hear an answer. " + c.Prompt(s))
		return nil
	}
	s.LastTranscript = transcript
	s.appendUser(transcript)

	switch ClassifyChoice(transcript) {
	case ChoiceAdvance:
		if s.CandidateIndex+1 >= len(s.Candidates) {
			s.appendAssistant("That was the last option I found. Would you like to book this one instead?")
			return nil
		}
		s.CandidateIndex++
		s.Diag.Log(EventCandidateAdvanced, map[string]any{"index": s.CandidateIndex})
		s.Phase = PhasePresentingCandidate
		c.presentCandidate(s)
		return nil

	case ChoiceBook:
		idx := s.CandidateIndex
		s.Selected = &idx
		s.Phase = PhaseAwaitingBooking
		provider, _ := s.CurrentCandidate()
		s.appendAssistant(fmt.Sprintf("Shall I set up the booking with %s? Please say yes or no.", provider.Name))
		return nil

	default:
		s.appendAssistant("Sorry, I didn't understand. You can say \"book this one\" or \"next option\".")
		return nil
	}
}

// handleConfirmation processes the final yes/no before handing out the
// booking link.
func (c *Controller) handleConfirmation(ctx context.Context, s *Session, wavAudio []byte) *TurnError {
	transcript, terr := c.transcribe(ctx, s, wavAudio)
	if terr != nil {
		return c.failTurn(s, terr, "I'm sorry, I encountered an error. Please try again.")
	}
	if transcript == "" {
		s.Diag.Log(EventSTTEmpty, map[string]any{"phase": string(s.Phase)})
		s.appendAssistant("Sorry, I didn't hear an answer. " + c.Prompt(s))
		return nil
	}
	s.LastTranscript = transcript
	s.appendUser(transcript)

	provider, ok := s.SelectedProvider()
	s.Selected = nil
	s.Phase = PhaseIdle

	if ok && IsAffirmative(transcript) {
		link := provider.BookingURL(c.directory.BaseURL())
		s.Diag.Log(EventBookingConfirmed, map[string]any{"provider_id": provider.ID, "link": link})
		s.appendAssistant("Great! Please visit the following link to proceed with your booking: " + link)
		return nil
	}

	s.Diag.Log(EventBookingDeclined, map[string]any{"provider_id": provider.ID})
	s.appendAssistant("No problem! Let me know if you need help with anything else.")
	return nil
}

// transcribe calls the transcription gateway with the per-call timeout.
func (c *Controller) transcribe(ctx context.Context, s *Session, wavAudio []byte) (string, *TurnError) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.GatewayTimeout)
	defer cancel()

	text, err := c.stt.Transcribe(ctx, wavAudio)
	if err != nil {
		s.Diag.Log(EventGatewayError, map[string]any{"stage": "stt", "error": err.Error()})
		return "", turnErr(KindGatewayFailure, fmt.Errorf("transcription: %w", err))
	}
	s.Diag.Log(EventSTTResult, map[string]any{"transcript": text})
	return text, nil
}

// extract calls the intent extractor and validates the result.
func (c *Controller) extract(ctx context.Context, s *Session, transcript string) (*llm.Intent, *TurnError) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.GatewayTimeout)
	defer cancel()

	intent, err := c.extractor.Extract(ctx, transcript)
	if err != nil {
		s.Diag.Log(EventGatewayError, map[string]any{"stage": "extract", "error": err.Error()})
		return nil, turnErr(KindExtractionFailure, fmt.Errorf("extraction: %w", err))
	}
	s.Diag.Log(EventIntentExtracted, map[string]any{
		"specialty": intent.Specialty,
		"location":  intent.Location,
		"languages": intent.Languages,
	})

	if intent.Specialty == "" {
		s.Diag.Log(EventValidationFailed, map[string]any{"field": "specialty"})
		return nil, &TurnError{Kind: KindValidationFailure, Field: "specialty", Err: errors.New("missing specialty")}
	}
	if intent.Location == "" {
		s.Diag.Log(EventValidationFailed, map[string]any{"field": "location"})
		return nil, &TurnError{Kind: KindValidationFailure, Field: "location", Err: errors.New("missing location")}
	}
	return intent, nil
}

// search resolves the intent against the directory and returns the
// prepared candidate list.
func (c *Controller) search(ctx context.Context, s *Session, intent *llm.Intent) ([]directory.Provider, *TurnError) {
	// Each directory call gets its own timeout window.
	specialty, err := c.callResolveSpecialty(ctx, intent.Specialty)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return nil, turnErr(KindNoCandidates, err)
		}
		s.Diag.Log(EventGatewayError, map[string]any{"stage": "resolve_specialty", "error": err.Error()})
		return nil, turnErr(KindGatewayFailure, fmt.Errorf("resolve specialty: %w", err))
	}
	s.Diag.Log(EventSpecialtyResolved, map[string]any{"slug": specialty.Slug, "name": specialty.Name})

	place, err := c.callResolveLocation(ctx, intent.Location)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return nil, turnErr(KindNoCandidates, err)
		}
		s.Diag.Log(EventGatewayError, map[string]any{"stage": "resolve_location", "error": err.Error()})
		return nil, turnErr(KindGatewayFailure, fmt.Errorf("resolve location: %w", err))
	}
	s.Diag.Log(EventLocationResolved, map[string]any{"place_id": place.PlaceID, "description": place.Description})

	results, err := c.callSearch(ctx, directory.SearchQuery{
		Place:           directory.NewPlace(*place),
		Specialty:       specialty.Slug,
		Languages:       intent.Languages,
		InsuranceSector: c.cfg.InsuranceSector,
	})
	if err != nil {
		s.Diag.Log(EventGatewayError, map[string]any{"stage": "search", "error": err.Error()})
		return nil, turnErr(KindGatewayFailure, fmt.Errorf("search: %w", err))
	}

	candidates := directory.PrepareCandidates(results, c.cfg.MaxResults)
	s.Diag.Log(EventSearchCompleted, map[string]any{"raw": len(results), "candidates": len(candidates)})
	if len(candidates) == 0 {
		return nil, turnErr(KindNoCandidates, errors.New("no usable providers"))
	}
	return candidates, nil
}

func (c *Controller) callResolveSpecialty(ctx context.Context, query string) (*directory.Specialty, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.GatewayTimeout)
	defer cancel()
	return c.directory.ResolveSpecialty(ctx, query)
}

func (c *Controller) callResolveLocation(ctx context.Context, query string) (*directory.PlaceSuggestion, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.GatewayTimeout)
	defer cancel()
	return c.directory.ResolveLocation(ctx, query)
}

func (c *Controller) callSearch(ctx context.Context, q directory.SearchQuery) ([]directory.Provider, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.GatewayTimeout)
	defer cancel()
	return c.directory.Search(ctx, q)
}

// presentCandidate emits the candidate description plus the choice
// prompt and moves to AwaitingChoice.
func (c *Controller) presentCandidate(s *Session) {
	provider, ok := s.CurrentCandidate()
	if !ok {
		s.Phase = PhaseIdle
		return
	}

	text := fmt.Sprintf("Option %d of %d: %s", s.CandidateIndex+1, len(s.Candidates), provider.Name)
	if provider.Specialty != "" {
		text += fmt.Sprintf(", %s", provider.Specialty)
	}
	if provider.Location.Address != "" {
		text += fmt.Sprintf(", at %s", provider.Location.Address)
	}
	text += ". Would you like to book this one, or hear the next option?"

	s.appendAssistant(text)
	s.Diag.Log(EventCandidatePresented, map[string]any{
		"index":       s.CandidateIndex,
		"provider_id": provider.ID,
	})
	s.Phase = PhaseAwaitingChoice
}

// failTurn moves the session back to idle with a user-facing message and
// returns the error for monitoring.
func (c *Controller) failTurn(s *Session, terr *TurnError, userMessage string) *TurnError {
	if c.logger != nil {
		c.logger.Printf("conversation: session %s turn failed: %v", s.ID, terr)
	}
	s.Phase = PhaseIdle
	s.appendAssistant(userMessage)
	return terr
}

// validationMessage names the missing intent field in plain language.
func validationMessage(field string) string {
	switch field {
	case "location":
		return "I didn't catch your location. Please tell me where you'd like to see a doctor."
	case "specialty":
		return "I couldn't work out what kind of doctor you need. Please describe your symptoms again."
	default:
		return "I'm missing some details. Could you describe your symptoms and location again?"
	}
}
