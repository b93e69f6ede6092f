package driver

import (
	"context"
	"errors"
	"fmt"

	"github.com/pion/logging"
	"github.com/redoz/domus/pkg/store"
)

// DeviceConfig configures a paired Device.
type DeviceConfig struct {
	// Name is the display name within its space.
	Name string

	// Driver is the driver name the device was paired with.
	Driver string

	// AccessoryID is the HAP pairing identifier.
	AccessoryID string

	// Storage, if set, must hold a pairing for AccessoryID at Init.
	Storage store.Storage

	// LoggerFactory for creating loggers.
	LoggerFactory logging.LoggerFactory
}

// Device is a paired accessory placed in a home topology.
type Device struct {
	config  DeviceConfig
	pairing *store.Pairing
	log     logging.LeveledLogger
}

// NewDevice creates a device from config.
func NewDevice(config DeviceConfig) *Device {
	d := &Device{config: config}
	if config.LoggerFactory != nil {
		d.log = config.LoggerFactory.NewLogger("driver")
	}
	return d
}

// Name returns the display name.
func (d *Device) Name() string { return d.config.Name }

// Pairing returns the stored pairing loaded by Init, or nil.
func (d *Device) Pairing() *store.Pairing { return d.pairing }

// Init loads the device's pairing.
func (d *Device) Init(ctx context.Context) error {
	if d.log != nil {
		d.log.Infof("initializing %s device: %s", d.config.Driver, d.config.Name)
	}
	if d.config.Storage == nil {
		return nil
	}

	p, err := d.config.Storage.LoadPairing(d.config.AccessoryID)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %s (%s)", ErrNotPaired, d.config.Name, d.config.AccessoryID)
	}
	if err != nil {
		return err
	}
	d.pairing = p
	return nil
}

// Dispose releases the device.
func (d *Device) Dispose(ctx context.Context) error {
	if d.log != nil {
		d.log.Infof("disposing %s device: %s", d.config.Driver, d.config.Name)
	}
	d.pairing = nil
	return nil
}
