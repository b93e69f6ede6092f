package discovery

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"
	"github.com/pion/logging"
	"github.com/pion/transport/v3/test"
)

func newTestDiscoverer(b *MockBrowser) *Discoverer {
	return NewDiscoverer(Config{
		BrowserFactory: b.Factory(),
		Timeout:        150 * time.Millisecond,
		PollInterval:   10 * time.Millisecond,
		LoggerFactory:  logging.NewDefaultLoggerFactory(),
	})
}

func TestNewDiscoverer_Defaults(t *testing.T) {
	d := NewDiscoverer(Config{})
	if d.config.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", d.config.Timeout, DefaultTimeout)
	}
	if d.config.PollInterval != DefaultPollInterval {
		t.Errorf("PollInterval = %v, want %v", d.config.PollInterval, DefaultPollInterval)
	}
	if d.config.BrowserFactory == nil {
		t.Error("BrowserFactory should default to zeroconf")
	}
	if d.log != nil {
		t.Error("logger should be nil without a LoggerFactory")
	}
}

func TestDiscover(t *testing.T) {
	defer test.CheckRoutines(t)()

	b := NewMockBrowser()
	b.RegisterService(ServiceHAP, MockAccessoryService("Lamp", "AA:01", "LB1", 8001, net.IPv4(10, 0, 0, 1), CategoryLightbulb))
	b.RegisterService(ServiceHAP, MockAccessoryService("Sensor", "AA:02", "PS-S02D", 8002, net.IPv4(10, 0, 0, 2), CategorySensor))
	b.RegisterService("_other._tcp", MockAccessoryService("Other", "AA:03", "X", 8003, net.IPv4(10, 0, 0, 3), CategoryOther))

	got, err := newTestDiscoverer(b).Discover(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("found %d accessories, want 2", len(got))
	}
	if got["AA:01"].Category != CategoryLightbulb {
		t.Errorf("AA:01 category = %v, want Lightbulb", got["AA:01"].Category)
	}
	if got["AA:02"].Model != "PS-S02D" {
		t.Errorf("AA:02 model = %q", got["AA:02"].Model)
	}
}

func TestDiscover_SkipsMalformed(t *testing.T) {
	defer test.CheckRoutines(t)()

	missingID := &zeroconf.ServiceEntry{
		ServiceRecord: zeroconf.ServiceRecord{Instance: "NoID"},
		Port:          8000,
		AddrIPv4:      []net.IP{net.IPv4(10, 0, 0, 9)},
		Text:          []string{"md=x", "c#=1", "s#=1", "ci=5", "pv=1.1"},
	}

	b := NewMockBrowser()
	b.RegisterService(ServiceHAP, missingID)
	b.RegisterService(ServiceHAP, MockAccessoryService("Bad", "AA:10", "X", 8000, net.IPv4(10, 0, 0, 10), CategoryOther, "ci=25"))
	b.RegisterService(ServiceHAP, MockAccessoryService("BadFlags", "AA:11", "X", 8000, net.IPv4(10, 0, 0, 11), CategoryOther, "sf=ff"))
	b.RegisterService(ServiceHAP, MockAccessoryService("Good", "AA:12", "X", 8000, net.IPv4(10, 0, 0, 12), CategoryLightbulb))
	b.RegisterService(ServiceHAP, nil)

	got, err := newTestDiscoverer(b).Discover(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("found %d accessories, want 1: %v", len(got), got)
	}
	acc, ok := got["AA:12"]
	if !ok {
		t.Fatal("well-formed accessory missing")
	}
	if acc.Category != CategoryLightbulb || uint8(acc.Category) != 5 {
		t.Errorf("Category = %v, want Lightbulb (5)", acc.Category)
	}
}

func TestDiscover_LaterOverwritesEarlier(t *testing.T) {
	defer test.CheckRoutines(t)()

	b := NewMockBrowser()
	b.RegisterService(ServiceHAP, MockAccessoryService("Lamp", "AA:01", "LB1", 8001, net.IPv4(10, 0, 0, 1), CategoryLightbulb))
	b.RegisterService(ServiceHAP, MockAccessoryService("Lamp", "AA:01", "LB1", 9001, net.IPv4(10, 0, 0, 2), CategoryLightbulb, "s#=7"))

	got, err := newTestDiscoverer(b).Discover(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("found %d accessories, want 1", len(got))
	}
	acc := got["AA:01"]
	if acc.Port != 9001 || acc.StateNumber != 7 {
		t.Errorf("got port %d state %d, want the later advertisement (9001, 7)", acc.Port, acc.StateNumber)
	}
}

func TestDiscover_IPv4Only(t *testing.T) {
	defer test.CheckRoutines(t)()

	b := NewMockBrowser()
	b.RegisterService(ServiceHAP, MockAccessoryService("V6", "AA:06", "X", 8000, net.ParseIP("fe80::6"), CategoryOther))
	b.RegisterService(ServiceHAP, MockAccessoryService("V4", "AA:04", "X", 8000, net.IPv4(10, 0, 0, 4), CategoryOther))

	var gotIPv4Only bool
	d := NewDiscoverer(Config{
		BrowserFactory: func(ipv4Only bool) (Browser, error) {
			gotIPv4Only = ipv4Only
			return b, nil
		},
		Timeout:      100 * time.Millisecond,
		PollInterval: 10 * time.Millisecond,
	})

	got, err := d.Discover(context.Background(), Options{IPv4Only: true})
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if !gotIPv4Only {
		t.Error("factory was not asked for an IPv4-only session")
	}
	if _, ok := got["AA:06"]; ok {
		t.Error("IPv6-only accessory should be skipped")
	}
	if _, ok := got["AA:04"]; !ok {
		t.Error("IPv4 accessory missing")
	}

	got, err = d.Discover(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("found %d accessories without IPv4Only, want 2", len(got))
	}
}

func TestDiscover_Filter(t *testing.T) {
	defer test.CheckRoutines(t)()

	b := NewMockBrowser()
	b.RegisterService(ServiceHAP, MockAccessoryService("Lamp", "AA:01", "LB1", 8001, net.IPv4(10, 0, 0, 1), CategoryLightbulb))
	b.RegisterService(ServiceHAP, MockAccessoryService("FP2", "AA:02", "PS-S02D", 8002, net.IPv4(10, 0, 0, 2), CategorySensor))

	got, err := newTestDiscoverer(b).Discover(context.Background(), Options{Filter: ModelFilter("PS-S02D")})
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(got) != 1 || got["AA:02"] == nil {
		t.Errorf("Discover() = %v, want only AA:02", got)
	}
}

func TestDiscover_Deadline(t *testing.T) {
	defer test.CheckRoutines(t)()

	d := newTestDiscoverer(NewMockBrowser())

	start := time.Now()
	got, err := d.Discover(context.Background(), Options{Timeout: 200 * time.Millisecond})
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("found %d accessories, want 0", len(got))
	}
	if elapsed < 200*time.Millisecond {
		t.Errorf("returned after %v, before the deadline", elapsed)
	}
	if elapsed > 2*time.Second {
		t.Errorf("returned after %v, deadline not honored", elapsed)
	}
}

func TestDiscover_DeadlineShorterThanPoll(t *testing.T) {
	defer test.CheckRoutines(t)()

	d := NewDiscoverer(Config{
		BrowserFactory: NewMockBrowser().Factory(),
		PollInterval:   2 * time.Second,
	})

	start := time.Now()
	if _, err := d.Discover(context.Background(), Options{Timeout: 50 * time.Millisecond}); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("returned after %v, want about 50ms", elapsed)
	}
}

func TestDiscover_Cancel(t *testing.T) {
	defer test.CheckRoutines(t)()

	b := NewMockBrowser()
	b.RegisterService(ServiceHAP, MockAccessoryService("Lamp", "AA:01", "LB1", 8001, net.IPv4(10, 0, 0, 1), CategoryLightbulb))

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	got, err := newTestDiscoverer(b).Discover(ctx, Options{Timeout: 5 * time.Second})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if _, ok := got["AA:01"]; !ok {
		t.Error("accessories found before cancellation should be returned")
	}
}

func TestDiscover_SessionErrors(t *testing.T) {
	defer test.CheckRoutines(t)()

	t.Run("factory", func(t *testing.T) {
		d := NewDiscoverer(Config{
			BrowserFactory: func(bool) (Browser, error) {
				return nil, errors.New("no multicast interface")
			},
		})
		_, err := d.Discover(context.Background(), Options{})
		var sessErr *SessionError
		if !errors.As(err, &sessErr) {
			t.Fatalf("error = %v, want *SessionError", err)
		}
		if !errors.Is(err, ErrSession) {
			t.Error("SessionError should match ErrSession")
		}
	})

	t.Run("browse", func(t *testing.T) {
		b := NewMockBrowser()
		b.SetError(errors.New("query failed"))
		_, err := newTestDiscoverer(b).Discover(context.Background(), Options{})
		if !errors.Is(err, ErrSession) {
			t.Fatalf("error = %v, want ErrSession", err)
		}
	})
}

// closingBrowser mimics a resolver that closes the entry channel when done.
type closingBrowser struct {
	entry *zeroconf.ServiceEntry
}

func (c *closingBrowser) Browse(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error {
	entries <- c.entry
	close(entries)
	return nil
}

func TestDiscover_BrowserClosesChannel(t *testing.T) {
	defer test.CheckRoutines(t)()

	b := &closingBrowser{entry: MockAccessoryService("Lamp", "AA:01", "LB1", 8001, net.IPv4(10, 0, 0, 1), CategoryLightbulb)}
	d := NewDiscoverer(Config{
		BrowserFactory: func(bool) (Browser, error) { return b, nil },
		Timeout:        100 * time.Millisecond,
		PollInterval:   10 * time.Millisecond,
	})

	got, err := d.Discover(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(got) != 1 {
		t.Errorf("found %d accessories, want 1", len(got))
	}
}

func TestDiscover_ConcurrentCalls(t *testing.T) {
	defer test.CheckRoutines(t)()

	b := NewMockBrowser()
	b.RegisterService(ServiceHAP, MockAccessoryService("Lamp", "AA:01", "LB1", 8001, net.IPv4(10, 0, 0, 1), CategoryLightbulb))
	d := newTestDiscoverer(b)

	type result struct {
		n   int
		err error
	}
	results := make(chan result, 4)
	for i := 0; i < 4; i++ {
		go func() {
			got, err := d.Discover(context.Background(), Options{})
			results <- result{len(got), err}
		}()
	}
	for i := 0; i < 4; i++ {
		r := <-results
		if r.err != nil || r.n != 1 {
			t.Errorf("concurrent Discover() = %d, %v; want 1, nil", r.n, r.err)
		}
	}
}
