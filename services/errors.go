package services

import "errors"

// Flow error kinds. Retryability follows the flow contract: verification and
// persistence failures may be retried by re-entering Confirming; the daily
// gate is terminal for the day.
const (
	KindIneligible         = "ineligible_visit"
	KindVerificationFailed = "verification_failed"
	KindAlreadyVisited     = "already_visited_today"
	KindPersistence        = "persistence_error"
	KindVisitInProgress    = "visit_in_progress"
	KindChain              = "blockchain_error"
)

// FlowError is the error surface of the visit flow.
type FlowError struct {
	Kind      string
	Message   string
	Retryable bool
	cause     error
}

func (e *FlowError) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *FlowError) Unwrap() error { return e.cause }

// Is matches flow errors by kind so sentinel comparisons work with errors.Is.
func (e *FlowError) Is(target error) bool {
	var fe *FlowError
	if errors.As(target, &fe) {
		return e.Kind == fe.Kind
	}
	return false
}

var (
	ErrIneligibleVisit     = &FlowError{Kind: KindIneligible, Message: "visit not currently possible", Retryable: false}
	ErrVerificationFailed  = &FlowError{Kind: KindVerificationFailed, Message: "visit verification failed", Retryable: true}
	ErrAlreadyVisitedToday = &FlowError{Kind: KindAlreadyVisited, Message: "already visited today", Retryable: false}
	ErrPersistence         = &FlowError{Kind: KindPersistence, Message: "failed to record visit", Retryable: true}
	ErrVisitInProgress     = &FlowError{Kind: KindVisitInProgress, Message: "a visit is already being processed", Retryable: false}
)

func verificationFailed(msg string, cause error) *FlowError {
	if msg == "" {
		msg = "visit verification failed"
	}
	return &FlowError{Kind: KindVerificationFailed, Message: msg, Retryable: true, cause: cause}
}

func persistenceError(cause error) *FlowError {
	return &FlowError{Kind: KindPersistence, Message: "failed to record visit", Retryable: true, cause: cause}
}

// KindOf extracts the flow error kind, or empty for foreign errors.
func KindOf(err error) string {
	var fe *FlowError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}
