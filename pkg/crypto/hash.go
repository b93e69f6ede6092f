// Package crypto provides the primitives HAP Pair-Setup builds on:
// HKDF-SHA512 key derivation, ChaCha20-Poly1305 with HAP's short nonces and
// Ed25519 long-term keys.
package crypto

import (
	"crypto/sha512"
	"hash"
)

// SHA512LenBytes is the SHA-512 output length in bytes.
const SHA512LenBytes = 64

// NewSHA512 returns a new hash.Hash computing SHA-512. It is the hash used by
// the SRP group and HKDF.
func NewSHA512() hash.Hash {
	return sha512.New()
}
