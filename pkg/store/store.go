// Package store persists the controller identity and the accessories it has
// paired with.
package store

import (
	"bytes"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrInvalidRecord is returned for records missing their key.
	ErrInvalidRecord = errors.New("store: invalid record")
)

// Storage abstracts persistent storage for pairing state.
// Implementations can use files, databases, or in-memory storage.
//
// All methods must be safe for concurrent use.
type Storage interface {
	// Controller identity
	LoadController() (*Controller, error)
	SaveController(c *Controller) error

	// Paired accessories, keyed by accessory ID
	LoadPairings() ([]*Pairing, error)
	LoadPairing(accessoryID string) (*Pairing, error)
	SavePairing(p *Pairing) error
	DeletePairing(accessoryID string) error
}

// Controller is the long-term identity this host pairs with.
type Controller struct {
	// ID is the controller pairing identifier.
	ID string `cbor:"1,keyasint"`

	// PublicKey and PrivateKey are the Ed25519 LTPK and LTSK.
	PublicKey  []byte `cbor:"2,keyasint"`
	PrivateKey []byte `cbor:"3,keyasint"`
}

// Clone creates a deep copy of the controller.
func (c *Controller) Clone() *Controller {
	if c == nil {
		return nil
	}
	return &Controller{
		ID:         c.ID,
		PublicKey:  bytes.Clone(c.PublicKey),
		PrivateKey: bytes.Clone(c.PrivateKey),
	}
}

// Pairing records one accessory paired with the controller.
type Pairing struct {
	AccessoryID string `cbor:"1,keyasint"`

	// PublicKey is the accessory LTPK received in M6.
	PublicKey []byte `cbor:"2,keyasint"`

	Model    string    `cbor:"3,keyasint,omitempty"`
	Address  string    `cbor:"4,keyasint,omitempty"`
	Port     uint16    `cbor:"5,keyasint,omitempty"`
	PairedAt time.Time `cbor:"6,keyasint"`
}

// Clone creates a deep copy of the pairing.
func (p *Pairing) Clone() *Pairing {
	if p == nil {
		return nil
	}
	clone := *p
	clone.PublicKey = bytes.Clone(p.PublicKey)
	return &clone
}
