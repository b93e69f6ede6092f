package crypto

import (
	"bytes"
	"errors"
	"testing"
)

func TestHKDFSHA512(t *testing.T) {
	ikm := bytes.Repeat([]byte{0x0b}, 64)

	k1, err := DeriveKey(ikm, PairSetupEncryptSalt, PairSetupEncryptInfo)
	if err != nil {
		t.Fatalf("DeriveKey() error = %v", err)
	}
	if len(k1) != DerivedKeySize {
		t.Errorf("len(key) = %d, want %d", len(k1), DerivedKeySize)
	}

	again, err := DeriveKey(ikm, PairSetupEncryptSalt, PairSetupEncryptInfo)
	if err != nil {
		t.Fatalf("DeriveKey() error = %v", err)
	}
	if !bytes.Equal(k1, again) {
		t.Error("DeriveKey() is not deterministic")
	}

	k2, err := DeriveKey(ikm, PairSetupControllerSignSalt, PairSetupControllerSignInfo)
	if err != nil {
		t.Fatalf("DeriveKey() error = %v", err)
	}
	if bytes.Equal(k1, k2) {
		t.Error("different salt/info produced the same key")
	}

	long, err := HKDFSHA512(ikm, PairSetupEncryptSalt, PairSetupEncryptInfo, 80)
	if err != nil {
		t.Fatalf("HKDFSHA512() error = %v", err)
	}
	if len(long) != 80 {
		t.Errorf("len(long) = %d, want 80", len(long))
	}
	if !bytes.Equal(k1, long[:DerivedKeySize]) {
		t.Error("longer output should extend the 32-byte key")
	}
}

func TestSealOpen(t *testing.T) {
	key := bytes.Repeat([]byte{0x42}, DerivedKeySize)
	msg := []byte("sub-tlv payload")

	ct, err := Seal(key, NoncePairSetupM5, msg)
	if err != nil {
		t.Fatalf("Seal() error = %v", err)
	}
	if len(ct) != len(msg)+16 {
		t.Errorf("len(ciphertext) = %d, want %d", len(ct), len(msg)+16)
	}

	pt, err := Open(key, NoncePairSetupM5, ct)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if !bytes.Equal(pt, msg) {
		t.Errorf("Open() = %q, want %q", pt, msg)
	}

	if _, err := Open(key, NoncePairSetupM6, ct); !errors.Is(err, ErrDecrypt) {
		t.Errorf("Open() with wrong nonce error = %v, want ErrDecrypt", err)
	}

	ct[0] ^= 0xFF
	if _, err := Open(key, NoncePairSetupM5, ct); !errors.Is(err, ErrDecrypt) {
		t.Errorf("Open() of tampered data error = %v, want ErrDecrypt", err)
	}
}

func TestSeal_Errors(t *testing.T) {
	if _, err := Seal(make([]byte, 5), NoncePairSetupM5, nil); err == nil {
		t.Error("Seal() with a short key should fail")
	}
	if _, err := Seal(make([]byte, DerivedKeySize), "too-long-label", nil); !errors.Is(err, ErrInvalidNonce) {
		t.Errorf("Seal() error = %v, want ErrInvalidNonce", err)
	}
}

func TestNonceLayout(t *testing.T) {
	n, err := nonce(NoncePairSetupM5)
	if err != nil {
		t.Fatalf("nonce() error = %v", err)
	}
	want := []byte{0, 0, 0, 0, 'P', 'S', '-', 'M', 's', 'g', '0', '5'}
	if !bytes.Equal(n, want) {
		t.Errorf("nonce() = %v, want %v", n, want)
	}
}

func TestSignVerifyInfo(t *testing.T) {
	pub, priv, err := GenerateLongTermKey(nil)
	if err != nil {
		t.Fatalf("GenerateLongTermKey() error = %v", err)
	}

	x := bytes.Repeat([]byte{1}, DerivedKeySize)
	sig := SignInfo(priv, x, "controller-1", pub)

	if err := VerifyInfo(pub, x, "controller-1", sig); err != nil {
		t.Errorf("VerifyInfo() error = %v", err)
	}
	if err := VerifyInfo(pub, x, "controller-2", sig); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("VerifyInfo() with another ID error = %v, want ErrInvalidSignature", err)
	}
	if err := VerifyInfo(pub[:10], x, "controller-1", sig); !errors.Is(err, ErrInvalidPublicKey) {
		t.Errorf("VerifyInfo() with a short key error = %v, want ErrInvalidPublicKey", err)
	}
}

func TestNewSHA512(t *testing.T) {
	if got := NewSHA512().Size(); got != SHA512LenBytes {
		t.Errorf("Size() = %d, want %d", got, SHA512LenBytes)
	}
}
