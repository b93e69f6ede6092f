package discovery

import (
	"strconv"
	"strings"
)

// TXT record keys of the _hap._tcp service.
const (
	// TXTKeyID is the accessory pairing identifier (required).
	TXTKeyID = "id"

	// TXTKeyModel is the model name (required).
	TXTKeyModel = "md"

	// TXTKeyConfigurationNumber is the configuration number (required, decimal).
	TXTKeyConfigurationNumber = "c#"

	// TXTKeyStateNumber is the current state number (required, decimal).
	TXTKeyStateNumber = "s#"

	// TXTKeyFeatureFlags is the feature flag bitmask (optional, hex).
	TXTKeyFeatureFlags = "ff"

	// TXTKeyPairingFeatureFlags is the pairing feature bitmask (optional, hex).
	TXTKeyPairingFeatureFlags = "pf"

	// TXTKeyStatusFlags is the status bitmask (optional, hex).
	TXTKeyStatusFlags = "sf"

	// TXTKeyCategory is the accessory category code (required, decimal).
	TXTKeyCategory = "ci"

	// TXTKeyProtocolVersion is the protocol version string (required).
	TXTKeyProtocolVersion = "pv"

	// TXTKeySetupHash is the setup hash (optional).
	TXTKeySetupHash = "sh"
)

// ParseTXT parses DNS-SD TXT record strings into a key-value map.
// Records without '=' or with an empty key are ignored; later duplicates win.
func ParseTXT(records []string) map[string]string {
	result := make(map[string]string)
	for _, record := range records {
		if idx := strings.IndexByte(record, '='); idx > 0 {
			result[record[:idx]] = record[idx+1:]
		}
	}
	return result
}

// TXT is the decoded attribute set of one advertisement.
type TXT struct {
	ID                  string
	Model               string
	ConfigurationNumber uint32
	StateNumber         uint32
	FeatureFlags        FeatureFlags
	PairingFeatureFlags PairingFeatureFlags
	StatusFlags         StatusFlags
	Category            Category
	ProtocolVersion     string
	SetupHash           string
}

// ParseAccessoryTXT decodes the attribute map of a _hap._tcp advertisement.
// It returns an *AttributeError for the first missing or malformed attribute.
func ParseAccessoryTXT(txt map[string]string) (*TXT, error) {
	var (
		t   TXT
		err error
	)

	if t.ID, err = requireString(txt, TXTKeyID); err != nil {
		return nil, err
	}
	if t.Model, err = requireString(txt, TXTKeyModel); err != nil {
		return nil, err
	}
	if t.ConfigurationNumber, err = requireUint32(txt, TXTKeyConfigurationNumber); err != nil {
		return nil, err
	}
	if t.StateNumber, err = requireUint32(txt, TXTKeyStateNumber); err != nil {
		return nil, err
	}

	ff, err := optionalFlags(txt, TXTKeyFeatureFlags, func(v uint8) bool { return FeatureFlags(v).IsValid() })
	if err != nil {
		return nil, err
	}
	t.FeatureFlags = FeatureFlags(ff)

	pf, err := optionalFlags(txt, TXTKeyPairingFeatureFlags, func(v uint8) bool { return PairingFeatureFlags(v).IsValid() })
	if err != nil {
		return nil, err
	}
	t.PairingFeatureFlags = PairingFeatureFlags(pf)

	sf, err := optionalFlags(txt, TXTKeyStatusFlags, func(v uint8) bool { return StatusFlags(v).IsValid() })
	if err != nil {
		return nil, err
	}
	t.StatusFlags = StatusFlags(sf)

	ci, ok := txt[TXTKeyCategory]
	if !ok {
		return nil, &AttributeError{Key: TXTKeyCategory, Err: ErrMissingAttribute}
	}
	code, err := strconv.ParseUint(ci, 10, 64)
	if err != nil {
		return nil, &AttributeError{Key: TXTKeyCategory, Value: ci, Err: ErrInvalidAttribute}
	}
	if t.Category, err = CategoryFromCode(code); err != nil {
		return nil, &AttributeError{Key: TXTKeyCategory, Value: ci, Err: err}
	}

	if t.ProtocolVersion, err = requireString(txt, TXTKeyProtocolVersion); err != nil {
		return nil, err
	}
	t.SetupHash = txt[TXTKeySetupHash]

	return &t, nil
}

func requireString(txt map[string]string, key string) (string, error) {
	v, ok := txt[key]
	if !ok {
		return "", &AttributeError{Key: key, Err: ErrMissingAttribute}
	}
	return v, nil
}

func requireUint32(txt map[string]string, key string) (uint32, error) {
	v, ok := txt[key]
	if !ok {
		return 0, &AttributeError{Key: key, Err: ErrMissingAttribute}
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return 0, &AttributeError{Key: key, Value: v, Err: ErrInvalidAttribute}
	}
	return uint32(n), nil
}

// optionalFlags parses a hexadecimal bitmask. An absent key is the empty set.
func optionalFlags(txt map[string]string, key string, valid func(uint8) bool) (uint8, error) {
	v, ok := txt[key]
	if !ok {
		return 0, nil
	}
	n, err := strconv.ParseUint(v, 16, 8)
	if err != nil {
		return 0, &AttributeError{Key: key, Value: v, Err: ErrInvalidAttribute}
	}
	if !valid(uint8(n)) {
		return 0, &AttributeError{Key: key, Value: v, Err: ErrInvalidFlags}
	}
	return uint8(n), nil
}
