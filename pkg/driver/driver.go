// Package driver adapts discovery and pairing to specific device families.
//
// A Driver narrows HAP discovery to the accessories it understands and
// pairs with them. Drivers are looked up by name in a Registry:
//
//	reg := driver.DefaultRegistry(driver.HAPConfig{
//		Discoverer: discoverer,
//		Pairer:     pairer,
//	})
//	d, err := reg.Lookup("aqarafp2")
//	accessories, err := d.Discover(ctx)
package driver

import (
	"context"
	"errors"

	"github.com/redoz/domus/pkg/discovery"
	"github.com/redoz/domus/pkg/pairing"
)

var (
	// ErrUnknownDriver is returned by Lookup for an unregistered name.
	ErrUnknownDriver = errors.New("driver: unknown driver")

	// ErrDuplicateDriver is returned when a name is registered twice.
	ErrDuplicateDriver = errors.New("driver: driver already registered")

	// ErrAccessoryNotFound is returned when no discovered accessory has
	// the requested ID.
	ErrAccessoryNotFound = errors.New("driver: accessory not found")

	// ErrNotPaired is returned when a device has no stored pairing.
	ErrNotPaired = errors.New("driver: device not paired")
)

// Discoverable finds accessories a driver can handle.
type Discoverable interface {
	Discover(ctx context.Context) ([]*discovery.Accessory, error)
}

// Pairable pairs with an accessory found by Discover.
type Pairable interface {
	Pair(ctx context.Context, acc *discovery.Accessory, setupCode string) (*pairing.Result, error)
}

// Driver is a named Discoverable and Pairable device family.
type Driver interface {
	Discoverable
	Pairable

	// Name is the registry key, e.g. "aqarafp2".
	Name() string

	// Description is a human-readable summary.
	Description() string
}

// Find runs d.Discover and returns the accessory with the given ID.
func Find(ctx context.Context, d Discoverable, id string) (*discovery.Accessory, error) {
	accessories, err := d.Discover(ctx)
	if err != nil {
		return nil, err
	}
	for _, acc := range accessories {
		if acc.ID == id {
			return acc, nil
		}
	}
	return nil, ErrAccessoryNotFound
}
