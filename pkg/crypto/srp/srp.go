// Package srp implements the SRP-6a credential computations of HAP
// Pair-Setup.
//
// HAP uses the 3072-bit group from RFC 5054 with SHA-512, the fixed identity
// "Pair-Setup" and the accessory setup code, formatted as DDD-DD-DDD, as the
// password. The private key x is derived as in RFC 2945:
//
//	x = H(salt | H(identity | ":" | password))
//
// Protocol flow (controller side):
//
//	Controller                          Accessory
//	----------                          ---------
//	c := NewClient(code)
//	                    <-- salt, B --
//	p := c.ComputeProof(salt, B)
//	                    -- A, M1 -->
//	                    <-- M2 -----
//	c.VerifyServerProof(M2)
//	K := c.SessionKey()
package srp

import (
	"errors"
	"fmt"
	"strings"

	"github.com/redoz/domus/pkg/crypto"
	"github.com/tadglines/go-pkgs/crypto/srp"
)

const (
	// Identity is the SRP username for Pair-Setup.
	Identity = "Pair-Setup"

	// Group is the RFC 5054 group name understood by the SRP library.
	Group = "rfc5054.3072"

	// SaltLength is the salt size accessories generate.
	SaltLength = 16

	// SetupCodeDigits is the number of digits in a setup code.
	SetupCodeDigits = 8
)

var (
	// ErrCrypto matches every *CryptoError via errors.Is.
	ErrCrypto = errors.New("srp: computation failed")

	// ErrInvalidSetupCode is returned for setup codes that are not 8 digits.
	ErrInvalidSetupCode = errors.New("srp: setup code must be 8 digits")

	// ErrInvalidSalt is returned for an empty salt.
	ErrInvalidSalt = errors.New("srp: invalid salt")

	// ErrInvalidPublicKey is returned for an empty or zero peer public key.
	ErrInvalidPublicKey = errors.New("srp: invalid public key")

	// ErrNoSessionKey is returned when the session key is requested before
	// ComputeProof succeeded.
	ErrNoSessionKey = errors.New("srp: session key not computed")
)

// CryptoError reports a failure in the SRP group or verifier computation.
type CryptoError struct {
	Op  string
	Err error
}

func (e *CryptoError) Error() string {
	return fmt.Sprintf("srp: %s: %v", e.Op, e.Err)
}

func (e *CryptoError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrCrypto) true for every CryptoError.
func (e *CryptoError) Is(target error) bool {
	return target == ErrCrypto
}

// FormatSetupCode normalizes a setup code to the DDD-DD-DDD form.
// Dashes in the input are ignored; exactly 8 ASCII digits must remain.
func FormatSetupCode(code string) (string, error) {
	digits := strings.ReplaceAll(code, "-", "")
	if len(digits) != SetupCodeDigits {
		return "", ErrInvalidSetupCode
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return "", ErrInvalidSetupCode
		}
	}
	return digits[:3] + "-" + digits[3:5] + "-" + digits[5:], nil
}

func newSRP() (*srp.SRP, error) {
	s, err := srp.NewSRP(Group, crypto.NewSHA512, keyDerivationRFC2945([]byte(Identity)))
	if err != nil {
		return nil, &CryptoError{Op: "group", Err: err}
	}
	s.SaltLength = SaltLength
	return s, nil
}

func keyDerivationRFC2945(identity []byte) srp.KeyDerivationFunc {
	return func(salt, password []byte) []byte {
		h1 := crypto.NewSHA512()
		h1.Write(identity)
		h1.Write([]byte(":"))
		h1.Write(password)

		h2 := crypto.NewSHA512()
		h2.Write(salt)
		h2.Write(h1.Sum(nil))
		return h2.Sum(nil)
	}
}

// Proof is the controller's contribution to M3.
type Proof struct {
	// PublicKey is the client public value A.
	PublicKey []byte
	// Proof is the client evidence M1.
	Proof []byte
}

// Client holds the SRP state of one pairing attempt. The secret exponent is
// drawn from crypto/rand when the client is created and never leaves it; a
// Client must not be reused for a second attempt.
type Client struct {
	session *srp.ClientSession
	key     []byte
}

// NewClient creates a client for the given setup code.
func NewClient(setupCode string) (*Client, error) {
	password, err := FormatSetupCode(setupCode)
	if err != nil {
		return nil, err
	}
	s, err := newSRP()
	if err != nil {
		return nil, err
	}
	return &Client{
		session: s.NewClientSession([]byte(Identity), []byte(password)),
	}, nil
}

// ComputeProof derives the shared secret from the accessory's salt and public
// key B, and returns the client public key A with the proof M1.
func (c *Client) ComputeProof(salt, serverPublicKey []byte) (*Proof, error) {
	if len(salt) == 0 {
		return nil, &CryptoError{Op: "compute key", Err: ErrInvalidSalt}
	}
	if isZero(serverPublicKey) {
		return nil, &CryptoError{Op: "compute key", Err: ErrInvalidPublicKey}
	}

	key, err := c.session.ComputeKey(salt, serverPublicKey)
	if err != nil {
		return nil, &CryptoError{Op: "compute key", Err: err}
	}
	c.key = key

	return &Proof{
		PublicKey: c.session.GetA(),
		Proof:     c.session.ComputeAuthenticator(),
	}, nil
}

// VerifyServerProof checks the accessory evidence M2 received in M4.
func (c *Client) VerifyServerProof(proof []byte) bool {
	if c.key == nil || len(proof) == 0 {
		return false
	}
	return c.session.VerifyServerAuthenticator(proof)
}

// SessionKey returns the shared session key K.
func (c *Client) SessionKey() ([]byte, error) {
	if c.key == nil {
		return nil, ErrNoSessionKey
	}
	return c.key, nil
}

func isZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
