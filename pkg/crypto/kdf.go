package crypto

import (
	"crypto/sha512"
	"io"

	"golang.org/x/crypto/hkdf"
)

// HKDF salt/info labels used during Pair-Setup.
const (
	PairSetupEncryptSalt = "Pair-Setup-Encrypt-Salt"
	PairSetupEncryptInfo = "Pair-Setup-Encrypt-Info"

	PairSetupControllerSignSalt = "Pair-Setup-Controller-Sign-Salt"
	PairSetupControllerSignInfo = "Pair-Setup-Controller-Sign-Info"

	PairSetupAccessorySignSalt = "Pair-Setup-Accessory-Sign-Salt"
	PairSetupAccessorySignInfo = "Pair-Setup-Accessory-Sign-Info"
)

// DerivedKeySize is the size of every key HAP derives with HKDF.
const DerivedKeySize = 32

// HKDFSHA512 derives key material using HKDF-SHA512 (RFC 5869).
//
// Parameters:
//   - inputKey: Input keying material (the SRP session key)
//   - salt: Salt label
//   - info: Info label
//   - length: Number of bytes to derive
func HKDFSHA512(inputKey []byte, salt, info string, length int) ([]byte, error) {
	reader := hkdf.New(sha512.New, inputKey, []byte(salt), []byte(info))
	result := make([]byte, length)
	if _, err := io.ReadFull(reader, result); err != nil {
		return nil, err
	}
	return result, nil
}

// DeriveKey is HKDFSHA512 with the standard 32-byte output.
func DeriveKey(inputKey []byte, salt, info string) ([]byte, error) {
	return HKDFSHA512(inputKey, salt, info, DerivedKeySize)
}
