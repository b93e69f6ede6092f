package discovery

import (
	"fmt"
	"net"
	"strconv"

	"github.com/grandcat/zeroconf"
)

// Accessory describes one HAP accessory found on the network.
type Accessory struct {
	// Name is the DNS-SD instance name.
	Name string

	// Address is the preferred address: IPv4 if advertised, else IPv6.
	Address net.IP
	Port    uint16

	ID                  string
	Model               string
	ConfigurationNumber uint32
	StateNumber         uint32
	FeatureFlags        FeatureFlags
	PairingFeatureFlags PairingFeatureFlags
	StatusFlags         StatusFlags
	Category            Category
	ProtocolVersion     string

	// SetupHash is empty when the accessory does not advertise one.
	SetupHash string
}

// NewAccessory builds an Accessory from a resolved service entry.
// It fails with an *AttributeError if any required attribute is missing
// or malformed, and with ErrNoAddresses if no address was resolved.
func NewAccessory(entry *zeroconf.ServiceEntry) (*Accessory, error) {
	txt, err := ParseAccessoryTXT(ParseTXT(entry.Text))
	if err != nil {
		return nil, err
	}

	addr := PreferredAddress(entry.AddrIPv4, entry.AddrIPv6)
	if addr == nil {
		return nil, ErrNoAddresses
	}
	if entry.Port < 0 || entry.Port > 0xFFFF {
		return nil, ErrInvalidPort
	}

	return &Accessory{
		Name:                entry.Instance,
		Address:             addr,
		Port:                uint16(entry.Port),
		ID:                  txt.ID,
		Model:               txt.Model,
		ConfigurationNumber: txt.ConfigurationNumber,
		StateNumber:         txt.StateNumber,
		FeatureFlags:        txt.FeatureFlags,
		PairingFeatureFlags: txt.PairingFeatureFlags,
		StatusFlags:         txt.StatusFlags,
		Category:            txt.Category,
		ProtocolVersion:     txt.ProtocolVersion,
		SetupHash:           txt.SetupHash,
	}, nil
}

// IsPaired reports whether the accessory already has a controller.
func (a *Accessory) IsPaired() bool {
	return !a.StatusFlags.Has(StatusNotPaired)
}

// IsConfiguredForWiFi reports whether the accessory has joined a WiFi network.
func (a *Accessory) IsConfiguredForWiFi() bool {
	return !a.StatusFlags.Has(StatusNotConfiguredForWiFi)
}

// HasProblemDetected reports whether the accessory signals a problem.
func (a *Accessory) HasProblemDetected() bool {
	return a.StatusFlags.Has(StatusProblemDetected)
}

// HostPort returns the "host:port" form of the accessory address.
func (a *Accessory) HostPort() string {
	return net.JoinHostPort(a.Address.String(), strconv.Itoa(int(a.Port)))
}

// URL returns the http URL of path on the accessory.
func (a *Accessory) URL(path string) string {
	return "http://" + a.HostPort() + path
}

func (a *Accessory) String() string {
	return fmt.Sprintf("%s (%s, %s) at %s", a.ID, a.Model, a.Category, a.HostPort())
}
