package conversation

import "fmt"

// ErrorKind classifies a failed turn.
type ErrorKind string

const (
	KindCaptureFailure    ErrorKind = "capture_failure"
	KindEmptyTranscript   ErrorKind = "empty_transcript"
	KindExtractionFailure ErrorKind = "extraction_failure"
	KindValidationFailure ErrorKind = "validation_failure"
	KindGatewayFailure    ErrorKind = "gateway_failure"
	KindNoCandidates      ErrorKind = "no_candidates"
)

// TurnError carries a failure out of the controller for monitoring. By
// the time one is returned the session has already been moved to a safe
// state and given a plain-language assistant message; callers only need
// the error for logging and capture.
type TurnError struct {
	Kind  ErrorKind
	Field string // for validation failures, which intent field was missing
	Err   error
}

func (e *TurnError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s (%s): %v", e.Kind, e.Field, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *TurnError) Unwrap() error { return e.Err }

func turnErr(kind ErrorKind, err error) *TurnError {
	return &TurnError{Kind: kind, Err: err}
}
