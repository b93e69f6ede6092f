package pairing

import (
	"errors"
	"fmt"
	"time"

	"github.com/redoz/domus/pkg/tlv8"
)

// Errors reported by accessories, matched by *PairingError via errors.Is.
var (
	ErrUnknown          = errors.New("pairing: unknown error")
	ErrAuthentication   = errors.New("pairing: authentication failed")
	ErrBackoff          = errors.New("pairing: accessory requested backoff")
	ErrMaxPeers         = errors.New("pairing: accessory cannot accept more pairings")
	ErrMaxTries         = errors.New("pairing: accessory reached its maximum authentication attempts")
	ErrUnavailable      = errors.New("pairing: pairing method unavailable")
	ErrBusy             = errors.New("pairing: accessory is busy")
	ErrUnknownErrorCode = errors.New("pairing: unknown error code")
)

var (
	// ErrProtocolViolation is matched by every *ProtocolViolationError.
	ErrProtocolViolation = errors.New("pairing: protocol violation")

	// ErrTransport is matched by every *TransportError.
	ErrTransport = errors.New("pairing: transport failure")

	// ErrSessionInUse is returned when a Session is driven concurrently.
	ErrSessionInUse = errors.New("pairing: session already running")

	// ErrSessionDone is returned when a finished Session is run again.
	ErrSessionDone = errors.New("pairing: session already used")

	// ErrInvalidAccessory is returned for a nil or unaddressable accessory.
	ErrInvalidAccessory = errors.New("pairing: invalid accessory")

	// ErrInvalidMethod is returned for methods other than the Pair-Setup ones.
	ErrInvalidMethod = errors.New("pairing: invalid method")

	// ErrInvalidController is returned for an incomplete controller identity.
	ErrInvalidController = errors.New("pairing: invalid controller identity")
)

// PairingError is a failure reported by the accessory through the Error TLV,
// or an authentication check that failed locally.
type PairingError struct {
	// Code is the error code. Local failures carry ErrorCodeAuthentication.
	Code ErrorCode

	// RetryDelay is the RetryDelay TLV sent with a Backoff error.
	RetryDelay time.Duration

	// State is the response state in which the error was received.
	State State

	// Err is the cause of a local failure; nil for peer-reported errors.
	Err error
}

func (e *PairingError) Error() string {
	msg := fmt.Sprintf("pairing: %s: %s", e.State, e.Code)
	if e.RetryDelay > 0 {
		msg += fmt.Sprintf(" (retry after %v)", e.RetryDelay)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the sentinel for Code and, for local failures, the cause.
func (e *PairingError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Code.sentinel(), e.Err}
	}
	return []error{e.Code.sentinel()}
}

// Local reports whether the failure was detected by the controller rather
// than reported by the accessory.
func (e *PairingError) Local() bool {
	return e.Err != nil
}

func authFailure(state State, cause error) *PairingError {
	return &PairingError{Code: ErrorCodeAuthentication, State: state, Err: cause}
}

// ProtocolViolationError reports a response whose State is not the expected
// one, or which lacks a field required in that state.
type ProtocolViolationError struct {
	Expected State
	Got      State

	// Missing is the absent field, if that was the violation.
	Missing    tlv8.Tag
	HasMissing bool

	// Err is an underlying cause such as tlv8.ErrDuplicateTag.
	Err error
}

func (e *ProtocolViolationError) Error() string {
	switch {
	case e.HasMissing:
		return fmt.Sprintf("pairing: %s response missing %s", e.Expected, e.Missing)
	case e.Err != nil:
		return fmt.Sprintf("pairing: %s response: %v", e.Expected, e.Err)
	case e.Got == StateIdle:
		return fmt.Sprintf("pairing: expected state %s, response carries no state", e.Expected)
	default:
		return fmt.Sprintf("pairing: expected state %s, got %s", e.Expected, e.Got)
	}
}

func (e *ProtocolViolationError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrProtocolViolation) true for every ProtocolViolationError.
func (e *ProtocolViolationError) Is(target error) bool {
	return target == ErrProtocolViolation
}

// TransportError reports a non-200 HTTP status or a network failure. It is
// raised before any TLV parsing.
type TransportError struct {
	// StatusCode is the HTTP status, or 0 for network failures.
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("pairing: transport: HTTP status %d", e.StatusCode)
	}
	return fmt.Sprintf("pairing: transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrTransport) true for every TransportError.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}
