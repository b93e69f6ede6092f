package pairing

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/redoz/domus/pkg/crypto"
	"github.com/redoz/domus/pkg/store"
)

// ControllerIdentity is the long-term identity presented to accessories in M5.
type ControllerIdentity struct {
	// ID is the controller pairing identifier, an upper-case UUID.
	ID         string
	PublicKey  ed25519.PublicKey
	PrivateKey ed25519.PrivateKey
}

// NewControllerIdentity generates a fresh identifier and Ed25519 key pair.
func NewControllerIdentity() (*ControllerIdentity, error) {
	pub, priv, err := crypto.GenerateLongTermKey(nil)
	if err != nil {
		return nil, err
	}
	return &ControllerIdentity{
		ID:         strings.ToUpper(uuid.NewString()),
		PublicKey:  pub,
		PrivateKey: priv,
	}, nil
}

// Validate checks that the identity is complete and its keys match.
func (c *ControllerIdentity) Validate() error {
	if c == nil || c.ID == "" {
		return ErrInvalidController
	}
	if len(c.PublicKey) != ed25519.PublicKeySize || len(c.PrivateKey) != ed25519.PrivateKeySize {
		return ErrInvalidController
	}
	if !c.PublicKey.Equal(c.PrivateKey.Public()) {
		return fmt.Errorf("%w: key pair mismatch", ErrInvalidController)
	}
	return nil
}

// Record converts the identity to its storage form.
func (c *ControllerIdentity) Record() *store.Controller {
	return &store.Controller{
		ID:         c.ID,
		PublicKey:  []byte(c.PublicKey),
		PrivateKey: []byte(c.PrivateKey),
	}
}

// ControllerFromRecord restores an identity saved with Record.
func ControllerFromRecord(r *store.Controller) (*ControllerIdentity, error) {
	if r == nil {
		return nil, ErrInvalidController
	}
	c := &ControllerIdentity{
		ID:         r.ID,
		PublicKey:  ed25519.PublicKey(r.PublicKey),
		PrivateKey: ed25519.PrivateKey(r.PrivateKey),
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadOrCreateController returns the identity held by s, generating and
// saving a new one when none exists.
func LoadOrCreateController(s store.Storage) (*ControllerIdentity, error) {
	r, err := s.LoadController()
	if err == nil {
		return ControllerFromRecord(r)
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	c, err := NewControllerIdentity()
	if err != nil {
		return nil, err
	}
	if err := s.SaveController(c.Record()); err != nil {
		return nil, err
	}
	return c, nil
}
