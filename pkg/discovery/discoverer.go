package discovery

import (
	"context"
	"errors"
	"time"

	"github.com/grandcat/zeroconf"
	"github.com/pion/logging"
)

// DefaultTimeout is the default discovery window.
const DefaultTimeout = 5 * time.Second

// DefaultPollInterval bounds how long the loop waits for the next entry
// before re-checking the deadline.
const DefaultPollInterval = 100 * time.Millisecond

// entryBuffer is the capacity of the entry channel handed to the browser.
const entryBuffer = 32

// Options control a single Discover call.
type Options struct {
	// Timeout is the discovery window. If zero, the Discoverer default is used.
	Timeout time.Duration

	// IPv4Only restricts the session to IPv4 and skips advertisements
	// without an IPv4 address.
	IPv4Only bool

	// Filter, if set, drops accessories for which it returns false.
	Filter func(*Accessory) bool
}

// ModelFilter returns a Filter accepting accessories with the given model.
func ModelFilter(model string) func(*Accessory) bool {
	return func(a *Accessory) bool {
		return a.Model == model
	}
}

// Config holds configuration for the Discoverer.
type Config struct {
	// BrowserFactory opens the mDNS session for each call.
	// If nil, NewZeroconfBrowser is used.
	BrowserFactory BrowserFactory

	// Timeout is the default discovery window.
	// If zero, DefaultTimeout is used.
	Timeout time.Duration

	// PollInterval is the loop's wake-up period.
	// If zero, DefaultPollInterval is used.
	PollInterval time.Duration

	// LoggerFactory for creating loggers.
	LoggerFactory logging.LoggerFactory
}

// Discoverer finds HAP accessories via DNS-SD.
type Discoverer struct {
	config Config
	log    logging.LeveledLogger
}

// NewDiscoverer creates a new Discoverer with the given configuration.
func NewDiscoverer(config Config) *Discoverer {
	if config.BrowserFactory == nil {
		config.BrowserFactory = NewZeroconfBrowser
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	if config.PollInterval == 0 {
		config.PollInterval = DefaultPollInterval
	}

	d := &Discoverer{config: config}
	if config.LoggerFactory != nil {
		d.log = config.LoggerFactory.NewLogger("discovery")
	}
	return d
}

// Discover browses for _hap._tcp accessories until the discovery window
// closes and returns them keyed by accessory ID. A later advertisement of
// the same ID replaces the earlier one.
//
// Malformed advertisements are logged and skipped. The only error conditions
// are a *SessionError, when the mDNS session cannot be opened or the browse
// request fails, and cancellation of ctx, in which case the accessories
// found so far are returned together with ctx.Err().
func (d *Discoverer) Discover(ctx context.Context, opts Options) (map[string]*Accessory, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = d.config.Timeout
	}
	deadline := time.Now().Add(timeout)

	browser, err := d.config.BrowserFactory(opts.IPv4Only)
	if err != nil {
		return nil, &SessionError{Err: err}
	}

	browseCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry, entryBuffer)
	browseErr := make(chan error, 1)
	go func() {
		browseErr <- browser.Browse(browseCtx, ServiceHAP, DefaultDomain, entries)
	}()

	if d.log != nil {
		d.log.Debugf("browsing %s for %v", ServiceName, timeout)
	}

	results := make(map[string]*Accessory)
	window := time.NewTimer(time.Until(deadline))
	defer window.Stop()
	poll := time.NewTimer(d.config.PollInterval)
	defer poll.Stop()

loop:
	for time.Now().Before(deadline) {
		select {
		case entry, ok := <-entries:
			if !ok {
				entries = nil
				continue
			}
			d.handleEntry(entry, opts, results)

		case err := <-browseErr:
			browseErr = nil
			if err != nil && !errors.Is(err, context.Canceled) {
				return nil, &SessionError{Err: err}
			}

		case <-poll.C:
			poll.Reset(min(d.config.PollInterval, time.Until(deadline)))

		case <-window.C:
			break loop

		case <-ctx.Done():
			return results, ctx.Err()
		}
	}

	if d.log != nil {
		d.log.Debugf("discovery finished: %d accessories", len(results))
	}
	return results, nil
}

func (d *Discoverer) handleEntry(entry *zeroconf.ServiceEntry, opts Options, results map[string]*Accessory) {
	if entry == nil {
		return
	}
	if opts.IPv4Only && len(FilterIPv4(entry.AddrIPv4)) == 0 {
		if d.log != nil {
			d.log.Debugf("skipping %q: no IPv4 address", entry.Instance)
		}
		return
	}

	acc, err := NewAccessory(entry)
	if err != nil {
		if d.log != nil {
			d.log.Warnf("skipping %q: %v", entry.Instance, err)
		}
		return
	}
	if opts.Filter != nil && !opts.Filter(acc) {
		return
	}

	if d.log != nil {
		d.log.Infof("found accessory %s", acc)
	}
	results[acc.ID] = acc
}
