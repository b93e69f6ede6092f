package discovery

import (
	"context"

	"github.com/grandcat/zeroconf"
)

// Browser is the interface for mDNS service browsing.
// This allows for dependency injection in tests.
//
// Browse may return as soon as the query is issued and keep delivering
// entries until ctx is done. Implementations may close entries when they
// finish; callers must not close it themselves.
type Browser interface {
	Browse(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error
}

// BrowserFactory opens a new mDNS session. Each Discover call owns the
// Browser it creates for the duration of the call.
type BrowserFactory func(ipv4Only bool) (Browser, error)

// zeroconfBrowser is the production implementation using grandcat/zeroconf.
type zeroconfBrowser struct {
	resolver *zeroconf.Resolver
}

// NewZeroconfBrowser opens an mDNS session on all multicast interfaces.
// With ipv4Only set, only IPv4 traffic is used.
func NewZeroconfBrowser(ipv4Only bool) (Browser, error) {
	var opts []zeroconf.ClientOption
	if ipv4Only {
		opts = append(opts, zeroconf.SelectIPTraffic(zeroconf.IPv4))
	}
	r, err := zeroconf.NewResolver(opts...)
	if err != nil {
		return nil, err
	}
	return &zeroconfBrowser{resolver: r}, nil
}

func (z *zeroconfBrowser) Browse(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error {
	return z.resolver.Browse(ctx, service, domain, entries)
}
