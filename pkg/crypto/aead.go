package crypto

import (
	"errors"

	"golang.org/x/crypto/chacha20poly1305"
)

// Nonce labels for the encrypted Pair-Setup messages.
const (
	NoncePairSetupM5 = "PS-Msg05"
	NoncePairSetupM6 = "PS-Msg06"
)

var (
	// ErrInvalidNonce is returned when a nonce label is longer than 8 bytes.
	ErrInvalidNonce = errors.New("crypto: nonce label longer than 8 bytes")

	// ErrDecrypt is returned when authentication of a ciphertext fails.
	ErrDecrypt = errors.New("crypto: message authentication failed")
)

// nonce left-pads an ASCII label to the 12-byte ChaCha20-Poly1305 nonce.
func nonce(label string) ([]byte, error) {
	if len(label) > 8 {
		return nil, ErrInvalidNonce
	}
	n := make([]byte, chacha20poly1305.NonceSize)
	copy(n[chacha20poly1305.NonceSize-len(label):], label)
	return n, nil
}

// Seal encrypts plaintext with ChaCha20-Poly1305 under key and the given
// nonce label. The 16-byte tag is appended to the ciphertext.
func Seal(key []byte, label string, plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	n, err := nonce(label)
	if err != nil {
		return nil, err
	}
	return aead.Seal(nil, n, plaintext, nil), nil
}

// Open decrypts and authenticates a message produced by Seal.
func Open(key []byte, label string, ciphertext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	n, err := nonce(label)
	if err != nil {
		return nil, err
	}
	plaintext, err := aead.Open(nil, n, ciphertext, nil)
	if err != nil {
		return nil, ErrDecrypt
	}
	return plaintext, nil
}
