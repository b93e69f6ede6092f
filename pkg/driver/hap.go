package driver

import (
	"context"
	"errors"
	"sort"

	"github.com/pion/logging"
	"github.com/redoz/domus/pkg/discovery"
	"github.com/redoz/domus/pkg/pairing"
)

// AccessoryDiscoverer is the discovery surface a HAPDriver needs.
// *discovery.Discoverer implements it.
type AccessoryDiscoverer interface {
	Discover(ctx context.Context, opts discovery.Options) (map[string]*discovery.Accessory, error)
}

// AccessoryPairer is the pairing surface a HAPDriver needs.
// *pairing.Pairer implements it.
type AccessoryPairer interface {
	Pair(ctx context.Context, acc *discovery.Accessory, setupCode string) (*pairing.Result, error)
}

// HAPConfig configures a HAPDriver.
type HAPConfig struct {
	// Name and Description identify the driver.
	Name        string
	Description string

	// Model restricts discovery to accessories advertising this md value.
	// Empty accepts every accessory.
	Model string

	// Discoverer and Pairer are shared by all drivers. Required.
	Discoverer AccessoryDiscoverer
	Pairer     AccessoryPairer

	// Options are passed to every Discover call; Filter is replaced by
	// the model filter.
	Options discovery.Options

	// LoggerFactory for creating loggers.
	LoggerFactory logging.LoggerFactory
}

// HAPDriver handles HAP accessories over IP, optionally of a single model.
type HAPDriver struct {
	config HAPConfig
	log    logging.LeveledLogger
}

// NewHAPDriver creates a driver from config.
func NewHAPDriver(config HAPConfig) *HAPDriver {
	if config.Name == "" {
		config.Name = "hap"
	}
	d := &HAPDriver{config: config}
	if config.LoggerFactory != nil {
		d.log = config.LoggerFactory.NewLogger("driver")
	}
	return d
}

// Name implements Driver.
func (d *HAPDriver) Name() string { return d.config.Name }

// Description implements Driver.
func (d *HAPDriver) Description() string { return d.config.Description }

// Model returns the accepted model, or "" for any.
func (d *HAPDriver) Model() string { return d.config.Model }

// Discover returns matching accessories ordered by ID. Partial results
// found before ctx was cancelled are returned with the context error.
func (d *HAPDriver) Discover(ctx context.Context) ([]*discovery.Accessory, error) {
	if d.config.Discoverer == nil {
		return nil, errors.New("driver: no discoverer configured")
	}

	opts := d.config.Options
	opts.Filter = nil
	if d.config.Model != "" {
		opts.Filter = discovery.ModelFilter(d.config.Model)
	}

	found, err := d.config.Discoverer.Discover(ctx, opts)

	accessories := make([]*discovery.Accessory, 0, len(found))
	for _, acc := range found {
		accessories = append(accessories, acc)
	}
	sort.Slice(accessories, func(i, j int) bool {
		return accessories[i].ID < accessories[j].ID
	})

	if d.log != nil {
		d.log.Debugf("%s: %d accessories found", d.config.Name, len(accessories))
	}
	return accessories, err
}

// Pair implements Pairable.
func (d *HAPDriver) Pair(ctx context.Context, acc *discovery.Accessory, setupCode string) (*pairing.Result, error) {
	if d.config.Pairer == nil {
		return nil, errors.New("driver: no pairer configured")
	}
	if d.log != nil {
		d.log.Infof("%s: pairing %s", d.config.Name, acc.ID)
	}
	return d.config.Pairer.Pair(ctx, acc, setupCode)
}
