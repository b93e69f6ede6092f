package discovery

import (
	"context"
	"net"
	"strconv"
	"sync"

	"github.com/grandcat/zeroconf"
)

// MockBrowser provides a mock mDNS browser for testing without real network I/O.
// It allows registering services and simulating discovery responses.
type MockBrowser struct {
	mu       sync.RWMutex
	services map[string][]*zeroconf.ServiceEntry
	err      error
}

// NewMockBrowser creates a new mock browser.
func NewMockBrowser() *MockBrowser {
	return &MockBrowser{
		services: make(map[string][]*zeroconf.ServiceEntry),
	}
}

// RegisterService registers an entry returned by Browse for service.
func (m *MockBrowser) RegisterService(service string, entry *zeroconf.ServiceEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.services[service] = append(m.services[service], entry)
}

// ClearServices removes all registered services.
func (m *MockBrowser) ClearServices() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.services = make(map[string][]*zeroconf.ServiceEntry)
}

// SetError makes subsequent Browse calls fail with err.
func (m *MockBrowser) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Factory returns a BrowserFactory that always hands out m.
func (m *MockBrowser) Factory() BrowserFactory {
	return func(bool) (Browser, error) {
		return m, nil
	}
}

// Browse implements Browser.
func (m *MockBrowser) Browse(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error {
	m.mu.RLock()
	if m.err != nil {
		err := m.err
		m.mu.RUnlock()
		return err
	}
	svcEntries := make([]*zeroconf.ServiceEntry, len(m.services[service]))
	copy(svcEntries, m.services[service])
	m.mu.RUnlock()

	// Send entries synchronously; the channel is never closed here.
	for _, entry := range svcEntries {
		select {
		case entries <- entry:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return nil
}

// MockAccessoryService creates a well-formed _hap._tcp entry for testing.
// Extra TXT records are appended and override the defaults.
func MockAccessoryService(instanceName, id, model string, port int, ip net.IP, category Category, extra ...string) *zeroconf.ServiceEntry {
	entry := &zeroconf.ServiceEntry{
		ServiceRecord: zeroconf.ServiceRecord{
			Instance: instanceName,
			Service:  ServiceHAP,
			Domain:   DefaultDomain,
		},
		HostName: instanceName + ".local.",
		Port:     port,
		Text: append([]string{
			TXTKeyID + "=" + id,
			TXTKeyModel + "=" + model,
			TXTKeyConfigurationNumber + "=1",
			TXTKeyStateNumber + "=1",
			TXTKeyFeatureFlags + "=0",
			TXTKeyStatusFlags + "=1",
			TXTKeyCategory + "=" + strconv.Itoa(int(category)),
			TXTKeyProtocolVersion + "=1.1",
		}, extra...),
	}
	if ip.To4() != nil {
		entry.AddrIPv4 = []net.IP{ip}
	} else if ip != nil {
		entry.AddrIPv6 = []net.IP{ip}
	}
	return entry
}
