package conversation

import (
	"time"

	"github.com/mkoehler/medimatch/internal/directory"
	"github.com/mkoehler/medimatch/internal/llm"
)

// Phase is the conversation state machine position.
type Phase string

const (
	PhaseIdle                Phase = "idle"
	PhaseRecording           Phase = "recording"
	PhaseTranscribing        Phase = "transcribing"
	PhaseExtracting          Phase = "extracting"
	PhaseSearching           Phase = "searching"
	PhasePresentingCandidate Phase = "presenting_candidate"
	PhaseAwaitingChoice      Phase = "awaiting_choice"
	PhaseAwaitingBooking     Phase = "awaiting_booking_confirmation"
)

// Role identifies who spoke a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry in the session transcript.
type Message struct {
	Role Role      `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// Session holds the mutable state of one ongoing conversation. It is a
// plain value owned by its registry entry; all mutation happens inside a
// controller turn while the registry holds the session lock.
type Session struct {
	ID        string
	CreatedAt time.Time

	Phase          Phase
	Messages       []Message
	LastTranscript string
	Intent         *llm.Intent

	// Candidates is the bounded, telehealth-filtered search result list.
	// CandidateIndex stays in [0, len) whenever Candidates is non-empty.
	Candidates     []directory.Provider
	CandidateIndex int

	// Selected is an index back into Candidates, nil unless the user
	// picked a candidate and we are waiting on booking confirmation.
	Selected *int

	Diag *Diagnostics
}

// NewSession creates an idle session with an empty transcript.
func NewSession(id string, diagSize int) *Session {
	return &Session{
		ID:        id,
		CreatedAt: time.Now().UTC(),
		Phase:     PhaseIdle,
		Diag:      NewDiagnostics(diagSize),
	}
}

// beginTurn clears the transient per-turn fields while keeping the
// transcript, per the Idle -> Recording contract.
func (s *Session) beginTurn() {
	s.LastTranscript = ""
	s.Intent = nil
}

// Reset returns the session to a fresh idle state. Idempotent; the only
// operation that clears Messages.
func (s *Session) Reset() {
	s.Phase = PhaseIdle
	s.Messages = nil
	s.LastTranscript = ""
	s.Intent = nil
	s.Candidates = nil
	s.CandidateIndex = 0
	s.Selected = nil
	s.Diag.Log(EventSessionReset, nil)
}

func (s *Session) appendUser(text string) {
	s.Messages = append(s.Messages, Message{Role: RoleUser, Text: text, At: time.Now().UTC()})
}

func (s *Session) appendAssistant(text string) {
	s.Messages = append(s.Messages, Message{Role: RoleAssistant, Text: text, At: time.Now().UTC()})
}

// CurrentCandidate returns the candidate under the cursor.
func (s *Session) CurrentCandidate() (directory.Provider, bool) {
	if len(s.Candidates) == 0 || s.CandidateIndex < 0 || s.CandidateIndex >= len(s.Candidates) {
		return directory.Provider{}, false
	}
	return s.Candidates[s.CandidateIndex], true
}

// SelectedProvider resolves the Selected back-reference.
func (s *Session) SelectedProvider() (directory.Provider, bool) {
	if s.Selected == nil || *s.Selected < 0 || *s.Selected >= len(s.Candidates) {
		return directory.Provider{}, false
	}
	return s.Candidates[*s.Selected], true
}

// Snapshot is the read-only view the presentation surface consumes.
type Snapshot struct {
	ID             string               `json:"id"`
	Phase          Phase                `json:"phase"`
	Messages       []Message            `json:"messages"`
	LastTranscript string               `json:"last_transcript,omitempty"`
	Intent         *llm.Intent          `json:"intent,omitempty"`
	Candidates     []directory.Provider `json:"candidates,omitempty"`
	CandidateIndex int                  `json:"candidate_index"`
	SelectedIndex  *int                 `json:"selected_index,omitempty"`
}

// Snapshot copies the session state for rendering. The copy shares no
// mutable slices with the session.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		ID:             s.ID,
		Phase:          s.Phase,
		Messages:       append([]Message(nil), s.Messages...),
		LastTranscript: s.LastTranscript,
		CandidateIndex: s.CandidateIndex,
	}
	if s.Intent != nil {
		intent := *s.Intent
		snap.Intent = &intent
	}
	if len(s.Candidates) > 0 {
		snap.Candidates = append([]directory.Provider(nil), s.Candidates...)
	}
	if s.Selected != nil {
		idx := *s.Selected
		snap.SelectedIndex = &idx
	}
	return snap
}
