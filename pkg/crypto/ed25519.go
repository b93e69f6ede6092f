package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"io"
)

var (
	// ErrInvalidPublicKey is returned for Ed25519 public keys of the wrong size.
	ErrInvalidPublicKey = errors.New("crypto: invalid Ed25519 public key")

	// ErrInvalidSignature is returned when an Ed25519 signature does not verify.
	ErrInvalidSignature = errors.New("crypto: invalid signature")
)

// GenerateLongTermKey creates an Ed25519 long-term key pair (LTPK/LTSK).
// If r is nil, crypto/rand is used.
func GenerateLongTermKey(r io.Reader) (ed25519.PublicKey, ed25519.PrivateKey, error) {
	if r == nil {
		r = rand.Reader
	}
	return ed25519.GenerateKey(r)
}

// SignInfo signs the concatenation x ‖ id ‖ ltpk, the layout HAP uses for
// both the controller (iOSDeviceInfo) and accessory (AccessoryInfo) proofs.
func SignInfo(priv ed25519.PrivateKey, x []byte, id string, ltpk []byte) []byte {
	return ed25519.Sign(priv, deviceInfo(x, id, ltpk))
}

// VerifyInfo checks a signature produced by SignInfo.
func VerifyInfo(ltpk []byte, x []byte, id string, sig []byte) error {
	if len(ltpk) != ed25519.PublicKeySize {
		return ErrInvalidPublicKey
	}
	if !ed25519.Verify(ed25519.PublicKey(ltpk), deviceInfo(x, id, ltpk), sig) {
		return ErrInvalidSignature
	}
	return nil
}

func deviceInfo(x []byte, id string, ltpk []byte) []byte {
	info := make([]byte, 0, len(x)+len(id)+len(ltpk))
	info = append(info, x...)
	info = append(info, id...)
	return append(info, ltpk...)
}
