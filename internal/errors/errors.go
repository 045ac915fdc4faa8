package errors

import (
	"errors"
	"fmt"
)

// Session errors
var (
	ErrNoTokens        = errors.New("no persisted tokens")
	ErrIncompletePair  = errors.New("token pair is incomplete")
	ErrExpiredPair     = errors.New("token pair has already expired")
	ErrSuperseded      = errors.New("operation superseded by a newer one")
	ErrNotStarted      = errors.New("session not started")
	ErrAlreadyStarted  = errors.New("session already started")
	ErrSessionNotFound = errors.New("session not found")
)

// Kind classifies a failure so callers can branch on it without parsing the message.
type Kind int

const (
	KindUnknown Kind = iota
	// KindValidation is a field-level rejection (HTTP 422 or a client-side check).
	KindValidation
	// KindDomain is a 4xx/5xx answer carrying a single detail string.
	KindDomain
	// KindTransport means no response was received: offline, DNS, timeout.
	KindTransport
	// KindSessionCorruption is a persisted token the server rejects, or an unreadable token store.
	KindSessionCorruption
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindDomain:
		return "domain"
	case KindTransport:
		return "transport"
	case KindSessionCorruption:
		return "session_corruption"
	default:
		return "unknown"
	}
}

// TransportMessage is shown whenever the API could not be reached.
const TransportMessage = "No se pudo conectar con el servidor"

// Error carries a human readable message plus the kind and status it came from.
// Only Message is meant for display; Cause is for logs.
type Error struct {
	Kind    Kind
	Message string
	Status  int
	Cause   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func Domain(status int, message string) *Error {
	return &Error{Kind: KindDomain, Message: message, Status: status}
}

func Transport(cause error) *Error {
	return &Error{Kind: KindTransport, Message: TransportMessage, Cause: cause}
}

func SessionCorruption(cause error) *Error {
	msg := "session corrupted"
	if cause != nil {
		msg = cause.Error()
	}
	return &Error{Kind: KindSessionCorruption, Message: msg, Cause: cause}
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Message renders err for the UI. Typed errors show their message, anything else the fallback.
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return fallback
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
