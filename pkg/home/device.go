package home

import (
	"context"

	"github.com/pion/logging"
)

// DummyDevice is a placeholder device that only logs its lifecycle.
type DummyDevice struct {
	DeviceType string
	name       string
	log        logging.LeveledLogger
}

// NewDummyDevice creates a placeholder of the given type.
func NewDummyDevice(deviceType, name string, lf logging.LoggerFactory) *DummyDevice {
	d := &DummyDevice{DeviceType: deviceType, name: name}
	if lf != nil {
		d.log = lf.NewLogger("home")
	}
	return d
}

func (d *DummyDevice) Name() string { return d.name }

func (d *DummyDevice) Init(ctx context.Context) error {
	if d.log != nil {
		d.log.Infof("initializing %s device: %s", d.DeviceType, d.name)
	}
	return nil
}

func (d *DummyDevice) Dispose(ctx context.Context) error {
	if d.log != nil {
		d.log.Infof("disposing %s device: %s", d.DeviceType, d.name)
	}
	return nil
}
