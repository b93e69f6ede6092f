package pairing

import (
	"crypto/ed25519"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/redoz/domus/pkg/crypto"
	"github.com/redoz/domus/pkg/crypto/srp"
	"github.com/redoz/domus/pkg/discovery"
	"github.com/redoz/domus/pkg/tlv8"
	"github.com/stretchr/testify/require"
)

// simAccessory is an in-process HAP accessory answering /pair-setup.
type simAccessory struct {
	t *testing.T

	id   string
	code string
	pub  ed25519.PublicKey
	priv ed25519.PrivateKey

	// omitEncryptedM4 drops the M4 EncryptedData (plain PairSetup).
	omitEncryptedM4 bool

	// override replaces the response to the request in the given state.
	override map[State][]byte

	// status, if non-zero, is returned instead of 200.
	status int

	mu             sync.Mutex
	requests       []State
	methods        []Method
	contentTypes   []string
	server         *srp.Server
	sessionKey     []byte
	controllerID   string
	controllerLTPK []byte
}

func newSimAccessory(t *testing.T, id, code string) *simAccessory {
	t.Helper()
	pub, priv, err := crypto.GenerateLongTermKey(nil)
	require.NoError(t, err)
	return &simAccessory{
		t:        t,
		id:       id,
		code:     code,
		pub:      pub,
		priv:     priv,
		override: make(map[State][]byte),
	}
}

// start serves the accessory and returns the discovery record pointing at it.
func (a *simAccessory) start() *discovery.Accessory {
	srv := httptest.NewServer(a)
	a.t.Cleanup(srv.Close)

	host, portStr, err := net.SplitHostPort(srv.Listener.Addr().String())
	require.NoError(a.t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(a.t, err)

	return &discovery.Accessory{
		Name:            "Sim",
		Address:         net.ParseIP(host),
		Port:            uint16(port),
		ID:              a.id,
		Model:           "SIM-1",
		Category:        discovery.CategorySensor,
		ProtocolVersion: "1.1",
		StatusFlags:     discovery.StatusNotPaired,
	}
}

func (a *simAccessory) requestCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.requests)
}

func (a *simAccessory) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if r.Method != http.MethodPost || r.URL.Path != PathPairSetup {
		http.NotFound(w, r)
		return
	}
	a.contentTypes = append(a.contentTypes, r.Header.Get("Content-Type"))

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	items, err := tlv8.Decode(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	st, err := items.Byte(tlv8.TagState)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	state := State(st)
	a.requests = append(a.requests, state)

	if a.status != 0 {
		w.WriteHeader(a.status)
		return
	}

	resp, ok := a.override[state]
	if !ok {
		switch state {
		case StateM1:
			resp = a.handleM1(items)
		case StateM3:
			resp = a.handleM3(items)
		case StateM5:
			resp = a.handleM5(items)
		default:
			resp = errorResponse(state+1, ErrorCodeUnknown)
		}
	}

	w.Header().Set("Content-Type", ContentType)
	_, _ = w.Write(resp)
}

func (a *simAccessory) handleM1(items tlv8.Items) []byte {
	m, _ := items.Byte(tlv8.TagMethod)
	a.methods = append(a.methods, Method(m))

	server, err := srp.NewServer(a.code)
	require.NoError(a.t, err)
	a.server = server

	var b tlv8.Builder
	b.AddByte(tlv8.TagState, byte(StateM2)).
		AddBytes(tlv8.TagSalt, server.Salt()).
		AddBytes(tlv8.TagPublicKey, server.PublicKey())
	return b.Bytes()
}

func (a *simAccessory) handleM3(items tlv8.Items) []byte {
	clientPub, _ := items.Lookup(tlv8.TagPublicKey)
	clientProof, _ := items.Lookup(tlv8.TagProof)

	proof, ok := a.server.VerifyClientProof(clientPub, clientProof)
	if !ok {
		return errorResponse(StateM4, ErrorCodeAuthentication)
	}
	key, err := a.server.SessionKey()
	require.NoError(a.t, err)
	a.sessionKey = key

	var b tlv8.Builder
	b.AddByte(tlv8.TagState, byte(StateM4)).
		AddBytes(tlv8.TagProof, proof)
	if !a.omitEncryptedM4 {
		b.AddBytes(tlv8.TagEncryptedData, []byte("mfi-certificate-placeholder"))
	}
	return b.Bytes()
}

func (a *simAccessory) handleM5(items tlv8.Items) []byte {
	encKey, err := crypto.DeriveKey(a.sessionKey, crypto.PairSetupEncryptSalt, crypto.PairSetupEncryptInfo)
	require.NoError(a.t, err)

	ct, _ := items.Lookup(tlv8.TagEncryptedData)
	plain, err := crypto.Open(encKey, crypto.NoncePairSetupM5, ct)
	if err != nil {
		return errorResponse(StateM6, ErrorCodeAuthentication)
	}
	sub, err := tlv8.Decode(plain)
	require.NoError(a.t, err)

	id, _ := sub.Lookup(tlv8.TagIdentifier)
	ltpk, _ := sub.Lookup(tlv8.TagPublicKey)
	sig, _ := sub.Lookup(tlv8.TagSignature)

	controllerX, err := crypto.DeriveKey(a.sessionKey, crypto.PairSetupControllerSignSalt, crypto.PairSetupControllerSignInfo)
	require.NoError(a.t, err)
	if err := crypto.VerifyInfo(ltpk, controllerX, string(id), sig); err != nil {
		return errorResponse(StateM6, ErrorCodeAuthentication)
	}
	a.controllerID = string(id)
	a.controllerLTPK = ltpk

	accessoryX, err := crypto.DeriveKey(a.sessionKey, crypto.PairSetupAccessorySignSalt, crypto.PairSetupAccessorySignInfo)
	require.NoError(a.t, err)

	var info tlv8.Builder
	info.AddString(tlv8.TagIdentifier, a.id).
		AddBytes(tlv8.TagPublicKey, a.pub).
		AddBytes(tlv8.TagSignature, crypto.SignInfo(a.priv, accessoryX, a.id, a.pub))

	sealed, err := crypto.Seal(encKey, crypto.NoncePairSetupM6, info.Bytes())
	require.NoError(a.t, err)

	var b tlv8.Builder
	b.AddByte(tlv8.TagState, byte(StateM6)).
		AddBytes(tlv8.TagEncryptedData, sealed)
	return b.Bytes()
}

func errorResponse(state State, code ErrorCode) []byte {
	var b tlv8.Builder
	b.AddByte(tlv8.TagState, byte(state)).
		AddByte(tlv8.TagError, byte(code))
	return b.Bytes()
}
