package pairing

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pion/logging"
	"github.com/redoz/domus/pkg/crypto"
	"github.com/redoz/domus/pkg/crypto/srp"
	"github.com/redoz/domus/pkg/discovery"
	"github.com/redoz/domus/pkg/tlv8"
)

var (
	errServerProof        = errors.New("accessory proof mismatch")
	errAccessoryID        = errors.New("accessory identifier mismatch")
	errMissingSubTLVField = errors.New("encrypted payload incomplete")
)

// Result is the outcome of a successful Pair-Setup.
type Result struct {
	// AccessoryID is the pairing identifier the accessory proved in M6.
	AccessoryID string

	// AccessoryLTPK is the accessory's Ed25519 long-term public key.
	AccessoryLTPK ed25519.PublicKey

	// Controller is the identity the accessory now trusts.
	Controller *ControllerIdentity
}

// SessionConfig configures a Session.
type SessionConfig struct {
	// Accessory is the pairing target. Required.
	Accessory *discovery.Accessory

	// SetupCode is the 8-digit code, with or without dashes. Required.
	SetupCode string

	// Method is sent in M1. MethodSet must be true for it to take effect;
	// otherwise MethodPairSetupWithAuth is used.
	Method    Method
	MethodSet bool

	// Controller is the identity sent in M5. Required.
	Controller *ControllerIdentity

	// Transport delivers the requests. If nil, an HTTPTransport is used.
	Transport Transport

	// LoggerFactory for creating loggers.
	LoggerFactory logging.LoggerFactory
}

// Session drives one Pair-Setup attempt through M1..M6.
//
// Protocol flow:
//
//	Controller                              Accessory
//	----------                              ---------
//	M1: Method, State=1            ------>
//	                               <------  M2: State=2, Salt, PublicKey(B)
//	SRP: compute A, proof
//	M3: State=3, PublicKey(A), Proof ----->
//	                               <------  M4: State=4, Proof [, EncryptedData]
//	verify accessory proof
//	M5: State=5, EncryptedData     ------>
//	                               <------  M6: State=6, EncryptedData
//	verify accessory signature
//
// A Session is single-use: the SRP secrets it holds are discarded when Run
// returns and never reused. Run must not be called concurrently; a second
// caller gets ErrSessionInUse.
type Session struct {
	accessory  *discovery.Accessory
	method     Method
	controller *ControllerIdentity
	transport  Transport
	url        string
	log        logging.LeveledLogger

	mu    sync.Mutex
	state State
	busy  bool

	// Owned by the running goroutine, cleared on finish.
	srp        *srp.Client
	sessionKey []byte
}

// NewSession validates config and creates a session in StateIdle.
func NewSession(config SessionConfig) (*Session, error) {
	acc := config.Accessory
	if acc == nil || acc.Address == nil || acc.ID == "" {
		return nil, ErrInvalidAccessory
	}

	method := MethodPairSetupWithAuth
	if config.MethodSet {
		method = config.Method
	}
	if !method.IsPairSetup() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMethod, method)
	}

	if err := config.Controller.Validate(); err != nil {
		return nil, err
	}

	client, err := srp.NewClient(config.SetupCode)
	if err != nil {
		return nil, err
	}

	transport := config.Transport
	if transport == nil {
		transport = NewHTTPTransport(nil)
	}

	s := &Session{
		accessory:  acc,
		method:     method,
		controller: config.Controller,
		transport:  transport,
		url:        acc.URL(PathPairSetup),
		state:      StateIdle,
		srp:        client,
	}
	if config.LoggerFactory != nil {
		s.log = config.LoggerFactory.NewLogger("pairing")
	}
	return s, nil
}

// State returns the current protocol state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Run performs the handshake. On failure the session ends in StateFailed
// and the error describes where the handshake stopped:
//   - *TransportError for network failures and non-200 responses
//   - a wrapped tlv8 error for undecodable responses
//   - *ProtocolViolationError for unexpected or incomplete responses
//   - *PairingError for errors reported by the accessory and failed proofs
//   - *srp.CryptoError for unusable SRP parameters
func (s *Session) Run(ctx context.Context) (*Result, error) {
	if err := s.begin(); err != nil {
		return nil, err
	}

	result, err := s.run(ctx)
	s.finish(err)

	if s.log != nil {
		if err != nil {
			s.log.Warnf("pair-setup with %s failed: %v", s.accessory.ID, err)
		} else {
			s.log.Infof("paired with %s", result.AccessoryID)
		}
	}
	return result, err
}

func (s *Session) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busy {
		return ErrSessionInUse
	}
	if s.state != StateIdle {
		return ErrSessionDone
	}
	s.busy = true
	return nil
}

func (s *Session) finish(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.busy = false
	if err != nil {
		s.state = StateFailed
	} else {
		s.state = StateComplete
	}

	clear(s.sessionKey)
	s.sessionKey = nil
	s.srp = nil
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *Session) run(ctx context.Context) (*Result, error) {
	salt, serverPub, err := s.startExchange(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.verifyExchange(ctx, salt, serverPub); err != nil {
		return nil, err
	}
	return s.exchangeIdentities(ctx)
}

// startExchange sends M1 and returns the salt and public key from M2.
func (s *Session) startExchange(ctx context.Context) (salt, serverPub []byte, err error) {
	var m1 tlv8.Builder
	m1.AddByte(tlv8.TagMethod, byte(s.method)).
		AddByte(tlv8.TagState, byte(StateM1))

	m2, err := s.exchange(ctx, StateM1, m1.Bytes(), tlv8.TagSalt, tlv8.TagPublicKey)
	if err != nil {
		return nil, nil, err
	}

	salt, _ = m2.Lookup(tlv8.TagSalt)
	serverPub, _ = m2.Lookup(tlv8.TagPublicKey)
	return salt, serverPub, nil
}

// verifyExchange sends M3 and checks the accessory proof in M4.
func (s *Session) verifyExchange(ctx context.Context, salt, serverPub []byte) error {
	proof, err := s.srp.ComputeProof(salt, serverPub)
	if err != nil {
		return fmt.Errorf("pairing: %s: %w", StateM3, err)
	}
	if s.sessionKey, err = s.srp.SessionKey(); err != nil {
		return fmt.Errorf("pairing: %s: %w", StateM3, err)
	}

	var m3 tlv8.Builder
	m3.AddByte(tlv8.TagState, byte(StateM3)).
		AddBytes(tlv8.TagPublicKey, proof.PublicKey).
		AddBytes(tlv8.TagProof, proof.Proof)

	required := []tlv8.Tag{tlv8.TagProof}
	if s.method == MethodPairSetupWithAuth {
		required = append(required, tlv8.TagEncryptedData)
	}

	m4, err := s.exchange(ctx, StateM3, m3.Bytes(), required...)
	if err != nil {
		return err
	}

	serverProof, _ := m4.Lookup(tlv8.TagProof)
	if !s.srp.VerifyServerProof(serverProof) {
		return authFailure(StateM4, errServerProof)
	}
	return nil
}

// exchangeIdentities sends the controller identity in M5 and verifies the
// accessory identity in M6.
func (s *Session) exchangeIdentities(ctx context.Context) (*Result, error) {
	encKey, err := crypto.DeriveKey(s.sessionKey, crypto.PairSetupEncryptSalt, crypto.PairSetupEncryptInfo)
	if err != nil {
		return nil, fmt.Errorf("pairing: %s: %w", StateM5, err)
	}
	controllerX, err := crypto.DeriveKey(s.sessionKey, crypto.PairSetupControllerSignSalt, crypto.PairSetupControllerSignInfo)
	if err != nil {
		return nil, fmt.Errorf("pairing: %s: %w", StateM5, err)
	}

	c := s.controller
	var sub tlv8.Builder
	sub.AddString(tlv8.TagIdentifier, c.ID).
		AddBytes(tlv8.TagPublicKey, c.PublicKey).
		AddBytes(tlv8.TagSignature, crypto.SignInfo(c.PrivateKey, controllerX, c.ID, c.PublicKey))

	sealed, err := crypto.Seal(encKey, crypto.NoncePairSetupM5, sub.Bytes())
	if err != nil {
		return nil, fmt.Errorf("pairing: %s: %w", StateM5, err)
	}

	var m5 tlv8.Builder
	m5.AddByte(tlv8.TagState, byte(StateM5)).
		AddBytes(tlv8.TagEncryptedData, sealed)

	m6, err := s.exchange(ctx, StateM5, m5.Bytes(), tlv8.TagEncryptedData)
	if err != nil {
		return nil, err
	}

	ct, _ := m6.Lookup(tlv8.TagEncryptedData)
	plain, err := crypto.Open(encKey, crypto.NoncePairSetupM6, ct)
	if err != nil {
		return nil, authFailure(StateM6, err)
	}

	info, err := tlv8.Decode(plain)
	if err != nil {
		return nil, authFailure(StateM6, err)
	}
	id, okID := info.Lookup(tlv8.TagIdentifier)
	ltpk, okKey := info.Lookup(tlv8.TagPublicKey)
	sig, okSig := info.Lookup(tlv8.TagSignature)
	if !okID || !okKey || !okSig {
		return nil, authFailure(StateM6, errMissingSubTLVField)
	}

	accessoryX, err := crypto.DeriveKey(s.sessionKey, crypto.PairSetupAccessorySignSalt, crypto.PairSetupAccessorySignInfo)
	if err != nil {
		return nil, fmt.Errorf("pairing: %s: %w", StateM6, err)
	}
	if err := crypto.VerifyInfo(ltpk, accessoryX, string(id), sig); err != nil {
		return nil, authFailure(StateM6, err)
	}
	if string(id) != s.accessory.ID {
		return nil, authFailure(StateM6, fmt.Errorf("%w: %q", errAccessoryID, id))
	}

	return &Result{
		AccessoryID:   string(id),
		AccessoryLTPK: ed25519.PublicKey(ltpk),
		Controller:    c,
	}, nil
}

// exchange posts one request and validates the response against the state
// that must follow sent. Responses carrying an Error item are reported as a
// *PairingError before anything else in them is checked.
func (s *Session) exchange(ctx context.Context, sent State, body []byte, required ...tlv8.Tag) (tlv8.Items, error) {
	expected := sent + 1
	s.setState(sent)

	if s.log != nil {
		s.log.Debugf("%s -> %s (%d bytes)", sent, s.url, len(body))
	}

	data, err := s.transport.Post(ctx, s.url, body)
	if err != nil {
		var te *TransportError
		if !errors.As(err, &te) {
			err = &TransportError{Err: err}
		}
		return nil, err
	}

	items, err := tlv8.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("pairing: decode %s response: %w", expected, err)
	}

	got := StateIdle
	if v, err := items.Byte(tlv8.TagState); err == nil {
		got = State(v)
	}

	if v, ok := items.Lookup(tlv8.TagError); ok {
		if len(v) != 1 {
			return nil, &ProtocolViolationError{
				Expected: expected,
				Got:      got,
				Err:      fmt.Errorf("%s item is %d bytes, want 1", tlv8.TagError, len(v)),
			}
		}
		state := got
		if state == StateIdle {
			state = expected
		}
		return nil, &PairingError{
			Code:       ErrorCode(v[0]),
			RetryDelay: retryDelay(items),
			State:      state,
		}
	}

	if err := tlv8.Unique(items); err != nil {
		return nil, &ProtocolViolationError{Expected: expected, Got: got, Err: err}
	}
	if got != expected {
		return nil, &ProtocolViolationError{Expected: expected, Got: got}
	}
	for _, tag := range required {
		if !items.Has(tag) {
			return nil, &ProtocolViolationError{Expected: expected, Got: got, Missing: tag, HasMissing: true}
		}
	}

	if s.log != nil {
		s.log.Debugf("%s <- %s (%d items)", got, s.url, len(items))
	}
	s.setState(expected)
	return items, nil
}

// retryDelay decodes the little-endian RetryDelay item in seconds.
func retryDelay(items tlv8.Items) time.Duration {
	v, ok := items.Lookup(tlv8.TagRetryDelay)
	if !ok || len(v) == 0 || len(v) > 8 {
		return 0
	}
	var secs uint64
	for i := len(v) - 1; i >= 0; i-- {
		secs = secs<<8 | uint64(v[i])
	}
	return time.Duration(secs) * time.Second
}
