package srp

import "github.com/tadglines/go-pkgs/crypto/srp"

// Server is the accessory side of the exchange. The controller never needs
// it; it backs the simulated accessory used in tests and tooling.
type Server struct {
	session *srp.ServerSession
	salt    []byte
	key     []byte
}

// NewServer computes a fresh salt and verifier for setupCode.
func NewServer(setupCode string) (*Server, error) {
	password, err := FormatSetupCode(setupCode)
	if err != nil {
		return nil, err
	}
	s, err := newSRP()
	if err != nil {
		return nil, err
	}
	salt, verifier, err := s.ComputeVerifier([]byte(password))
	if err != nil {
		return nil, &CryptoError{Op: "verifier", Err: err}
	}
	return &Server{
		session: s.NewServerSession([]byte(Identity), salt, verifier),
		salt:    salt,
	}, nil
}

// Salt returns the salt sent in M2.
func (s *Server) Salt() []byte {
	return s.salt
}

// PublicKey returns the server public value B sent in M2.
func (s *Server) PublicKey() []byte {
	return s.session.GetB()
}

// VerifyClientProof computes the shared key from A and checks M1.
// It returns the server evidence M2 to send in M4.
func (s *Server) VerifyClientProof(clientPublicKey, clientProof []byte) ([]byte, bool) {
	key, err := s.session.ComputeKey(clientPublicKey)
	if err != nil {
		return nil, false
	}
	s.key = key
	if !s.session.VerifyClientAuthenticator(clientProof) {
		return nil, false
	}
	return s.session.ComputeAuthenticator(clientProof), true
}

// SessionKey returns the shared session key K.
func (s *Server) SessionKey() ([]byte, error) {
	if s.key == nil {
		return nil, ErrNoSessionKey
	}
	return s.key, nil
}
