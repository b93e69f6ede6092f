// domus loads a home topology, initializes every space and device in it
// and disposes them again on SIGINT or SIGTERM.
//
// Usage:
//
//	domus [options]
//
// Options:
//
//	-config    Configuration file (YAML)
//	-topology  Topology file; overrides the configuration file
//	-debug     Turn on debug logging
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/pion/logging"
	"github.com/redoz/domus/pkg/config"
	"github.com/redoz/domus/pkg/driver"
	"github.com/redoz/domus/pkg/home"
	"github.com/redoz/domus/pkg/store"
)

func main() {
	configPath := flag.String("config", "", "Configuration file (YAML)")
	topologyPath := flag.String("topology", "", "Topology file (overrides the configuration file)")
	debug := flag.Bool("debug", false, "Turn on debug logging")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatalf("domus: %v", err)
		}
	}
	if *topologyPath != "" {
		cfg.Topology = *topologyPath
	}
	if *debug {
		cfg.LogLevel = "debug"
	}

	if err := run(cfg); err != nil {
		log.Fatalf("domus: %v", err)
	}
}

func run(cfg *config.Config) error {
	if cfg.Topology == "" {
		return errors.New("no topology given (-topology or topology: in the configuration)")
	}

	lf := cfg.LoggerFactory()
	logger := lf.NewLogger("domus")

	topo, err := home.LoadTopology(cfg.Topology)
	if err != nil {
		return err
	}
	storage, err := cfg.OpenStore(lf)
	if err != nil {
		return err
	}

	root, err := newBuilder(storage, lf).Build(topo)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	initErr := root.Init(ctx)
	if initErr != nil {
		logger.Errorf("error initializing: %v", initErr)
		initErr = fmt.Errorf("error initializing: %w", initErr)
	} else {
		logger.Infof("%s is up", root.Name())
		<-ctx.Done()
	}

	logger.Info("shutting down...")
	var disposeErr error
	if err := root.Dispose(context.Background()); err != nil {
		disposeErr = fmt.Errorf("error disposing: %w", err)
	}
	return errors.Join(initErr, disposeErr)
}

// newBuilder registers a device type for every built-in driver.
func newBuilder(storage store.Storage, lf logging.LoggerFactory) *home.Builder {
	b := home.NewBuilder(lf)
	for _, name := range driver.DefaultRegistry(driver.HAPConfig{}).Names() {
		driverName := name
		b.Register(driverName, func(spec home.NodeSpec) (home.Node, error) {
			return driver.NewDevice(driver.DeviceConfig{
				Name:          spec.Name,
				Driver:        driverName,
				AccessoryID:   spec.ID,
				Storage:       storage,
				LoggerFactory: lf,
			}), nil
		})
	}
	return b
}
