// Package pairing implements the controller side of HAP Pair-Setup.
//
// A Session exchanges three request/response rounds with an accessory over
// HTTP POST /pair-setup, every body a TLV8 message:
//
//	M1/M2  method selection, SRP salt and accessory public key
//	M3/M4  SRP public key and proofs
//	M5/M6  encrypted, signed long-term identities
//
// Usage:
//
//	pairer, err := pairing.NewPairer(pairing.PairerConfig{
//		Storage:       store,
//		LoggerFactory: loggerFactory,
//	})
//	result, err := pairer.Pair(ctx, accessory, "123-45-678")
//
// Failures are typed: *TransportError, *ProtocolViolationError and
// *PairingError, the latter matching ErrAuthentication, ErrBackoff and the
// other sentinels through errors.Is.
package pairing
