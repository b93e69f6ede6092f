package pairing

import "fmt"

// State is both the value of the State TLV on the wire (M1..M6) and the
// position of a Session in the handshake.
type State uint8

const (
	// StateIdle is a session that has not sent M1 yet.
	StateIdle State = 0

	StateM1 State = 1 // Controller: SRP start request
	StateM2 State = 2 // Accessory: salt and public key
	StateM3 State = 3 // Controller: public key and proof
	StateM4 State = 4 // Accessory: proof
	StateM5 State = 5 // Controller: encrypted identity
	StateM6 State = 6 // Accessory: encrypted identity

	// StateComplete is a session that verified M6.
	StateComplete State = 0x10

	// StateFailed is a session that stopped on an error.
	StateFailed State = 0x11
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateM1, StateM2, StateM3, StateM4, StateM5, StateM6:
		return fmt.Sprintf("M%d", uint8(s))
	case StateComplete:
		return "Complete"
	case StateFailed:
		return "Failed"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// IsWire returns true for the states carried in the State TLV.
func (s State) IsWire() bool {
	return s >= StateM1 && s <= StateM6
}

// Method is the value of the Method TLV.
type Method uint8

const (
	MethodPairSetup         Method = 0
	MethodPairSetupWithAuth Method = 1
	MethodPairVerify        Method = 2
	MethodAddPairing        Method = 3
	MethodRemovePairing     Method = 4
	MethodListPairings      Method = 5
)

// String returns the method name.
func (m Method) String() string {
	switch m {
	case MethodPairSetup:
		return "PairSetup"
	case MethodPairSetupWithAuth:
		return "PairSetupWithAuth"
	case MethodPairVerify:
		return "PairVerify"
	case MethodAddPairing:
		return "AddPairing"
	case MethodRemovePairing:
		return "RemovePairing"
	case MethodListPairings:
		return "ListPairings"
	default:
		return fmt.Sprintf("Method(%d)", uint8(m))
	}
}

// IsPairSetup returns true for the two methods a Pair-Setup session accepts.
func (m Method) IsPairSetup() bool {
	return m == MethodPairSetup || m == MethodPairSetupWithAuth
}

// ParseMethod converts a method name as written in configuration.
func ParseMethod(s string) (Method, error) {
	switch s {
	case "PairSetup", "pair-setup":
		return MethodPairSetup, nil
	case "PairSetupWithAuth", "pair-setup-with-auth":
		return MethodPairSetupWithAuth, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidMethod, s)
}

// ErrorCode is the value of the Error TLV reported by an accessory.
type ErrorCode uint8

const (
	ErrorCodeUnknown        ErrorCode = 0x01
	ErrorCodeAuthentication ErrorCode = 0x02
	ErrorCodeBackoff        ErrorCode = 0x03
	ErrorCodeMaxPeers       ErrorCode = 0x04
	ErrorCodeMaxTries       ErrorCode = 0x05
	ErrorCodeUnavailable    ErrorCode = 0x06
	ErrorCodeBusy           ErrorCode = 0x07
)

// String returns the error code name.
func (c ErrorCode) String() string {
	switch c {
	case ErrorCodeUnknown:
		return "Unknown"
	case ErrorCodeAuthentication:
		return "AuthenticationFailed"
	case ErrorCodeBackoff:
		return "Backoff"
	case ErrorCodeMaxPeers:
		return "MaxPeersReached"
	case ErrorCodeMaxTries:
		return "MaxTriesReached"
	case ErrorCodeUnavailable:
		return "Unavailable"
	case ErrorCodeBusy:
		return "Busy"
	default:
		return fmt.Sprintf("UnknownErrorCode(%d)", uint8(c))
	}
}

// IsValid returns true for the codes defined by HAP.
func (c ErrorCode) IsValid() bool {
	return c >= ErrorCodeUnknown && c <= ErrorCodeBusy
}

// sentinel returns the package error matched by errors.Is for this code.
func (c ErrorCode) sentinel() error {
	switch c {
	case ErrorCodeUnknown:
		return ErrUnknown
	case ErrorCodeAuthentication:
		return ErrAuthentication
	case ErrorCodeBackoff:
		return ErrBackoff
	case ErrorCodeMaxPeers:
		return ErrMaxPeers
	case ErrorCodeMaxTries:
		return ErrMaxTries
	case ErrorCodeUnavailable:
		return ErrUnavailable
	case ErrorCodeBusy:
		return ErrBusy
	default:
		return ErrUnknownErrorCode
	}
}
