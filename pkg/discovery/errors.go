package discovery

import (
	"errors"
	"fmt"
)

// Package-level sentinel errors for discovery operations.
var (
	// ErrMissingAttribute is returned when a required TXT key is absent.
	ErrMissingAttribute = errors.New("discovery: missing attribute")

	// ErrInvalidAttribute is returned when a TXT value does not parse.
	ErrInvalidAttribute = errors.New("discovery: invalid attribute")

	// ErrInvalidCategory is returned for category codes outside the assigned set.
	ErrInvalidCategory = errors.New("discovery: invalid category code")

	// ErrInvalidFlags is returned when a flag value sets an undefined bit.
	ErrInvalidFlags = errors.New("discovery: undefined flag bits")

	// ErrNoAddresses is returned when an advertisement carries no usable address.
	ErrNoAddresses = errors.New("discovery: no IP addresses")

	// ErrInvalidPort is returned when the advertised port is out of range.
	ErrInvalidPort = errors.New("discovery: invalid port (must be 0-65535)")

	// ErrSession is matched by every *SessionError.
	ErrSession = errors.New("discovery: mDNS session failed")
)

// AttributeError reports a missing or malformed advertisement attribute.
// Discovery absorbs it and skips the advertisement.
type AttributeError struct {
	Key   string
	Value string
	Err   error
}

func (e *AttributeError) Error() string {
	if errors.Is(e.Err, ErrMissingAttribute) {
		return fmt.Sprintf("discovery: attribute %q: %v", e.Key, e.Err)
	}
	return fmt.Sprintf("discovery: attribute %q=%q: %v", e.Key, e.Value, e.Err)
}

func (e *AttributeError) Unwrap() error {
	return e.Err
}

// SessionError reports that the mDNS session could not be opened or
// the browse request failed. It is fatal to the Discover call.
type SessionError struct {
	Err error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("discovery: mDNS session: %v", e.Err)
}

func (e *SessionError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrSession) true for every SessionError.
func (e *SessionError) Is(target error) bool {
	return target == ErrSession
}
