// disco discovers HAP accessories and pairs with them.
//
// Usage:
//
//	disco drivers
//	disco scan -driver NAME [-config FILE] [-debug]
//	disco pair -driver NAME -id ID [-code CODE] [-config FILE] [-debug]
//
// Without -code, pair prompts for the 8-digit setup code printed on the
// accessory.
//
// Example:
//
//	disco scan -driver aqarafp2
//	disco pair -driver aqarafp2 -id 1A:2B:3C:4D:5E:6F -code 111-22-333
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pion/logging"
	"github.com/redoz/domus/pkg/config"
	"github.com/redoz/domus/pkg/discovery"
	"github.com/redoz/domus/pkg/driver"
	"github.com/redoz/domus/pkg/pairing"
	"github.com/redoz/domus/pkg/store"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "drivers":
		err = runDrivers(os.Args[2:])
	case "scan":
		err = runScan(ctx, os.Args[2:])
	case "pair":
		err = runPair(ctx, os.Args[2:])
	case "help", "-h", "-help", "--help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "disco: unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "disco: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [options]\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "\nCommands:\n")
	fmt.Fprintf(os.Stderr, "  drivers   List available drivers\n")
	fmt.Fprintf(os.Stderr, "  scan      Discover accessories handled by a driver\n")
	fmt.Fprintf(os.Stderr, "  pair      Pair with a discovered accessory\n")
}

// env is what every command needs after flag parsing.
type env struct {
	config   *config.Config
	lf       logging.LoggerFactory
	storage  store.Storage
	registry *driver.Registry
}

// commonFlags registers -config and -debug on fs.
type commonFlags struct {
	configPath string
	debug      bool
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "Configuration file (YAML)")
	fs.BoolVar(&c.debug, "debug", false, "Turn on debug logging")
}

func (c *commonFlags) setup() (*env, error) {
	cfg := config.Default()
	if c.configPath != "" {
		var err error
		if cfg, err = config.Load(c.configPath); err != nil {
			return nil, err
		}
	}
	if c.debug {
		cfg.LogLevel = "debug"
	}
	lf := cfg.LoggerFactory()

	storage, err := cfg.OpenStore(lf)
	if err != nil {
		return nil, err
	}
	pairerConfig, err := cfg.PairerConfig(storage, lf)
	if err != nil {
		return nil, err
	}
	pairer, err := pairing.NewPairer(pairerConfig)
	if err != nil {
		return nil, err
	}

	registry := driver.DefaultRegistry(driver.HAPConfig{
		Discoverer:    discovery.NewDiscoverer(cfg.DiscovererConfig(lf)),
		Pairer:        pairer,
		Options:       cfg.DiscoveryOptions(),
		LoggerFactory: lf,
	})

	return &env{config: cfg, lf: lf, storage: storage, registry: registry}, nil
}

func runDrivers(args []string) error {
	fs := flag.NewFlagSet("drivers", flag.ExitOnError)
	var common commonFlags
	common.register(fs)
	_ = fs.Parse(args)

	e, err := common.setup()
	if err != nil {
		return err
	}
	for _, name := range e.registry.Names() {
		d, _ := e.registry.Lookup(name)
		fmt.Printf("%-10s %s\n", name, d.Description())
	}
	return nil
}

func runScan(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	var common commonFlags
	common.register(fs)
	driverName := fs.String("driver", "", "Driver to use for discovery (required)")
	_ = fs.Parse(args)

	if *driverName == "" {
		fs.Usage()
		return errors.New("scan: -driver is required")
	}

	e, err := common.setup()
	if err != nil {
		return err
	}
	d, err := e.registry.Lookup(*driverName)
	if err != nil {
		return err
	}

	fmt.Printf("Scanning for %s accessories (%v)...\n", d.Name(), e.config.Discovery.Timeout)
	accessories, err := d.Discover(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if len(accessories) == 0 {
		fmt.Println("No accessories found")
		return nil
	}

	for _, acc := range accessories {
		paired := "unpaired"
		if acc.IsPaired() {
			paired = "paired"
		}
		fmt.Printf("%-20s id=%s model=%s addr=%s category=%s (%s)\n",
			acc.Name, acc.ID, acc.Model, acc.HostPort(), acc.Category, paired)
	}
	return nil
}

func runPair(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("pair", flag.ExitOnError)
	var common commonFlags
	common.register(fs)
	driverName := fs.String("driver", "", "Driver to use (required)")
	id := fs.String("id", "", "Accessory identifier (required)")
	code := fs.String("code", "", "Setup code XXX-XX-XXX (prompted when empty)")
	_ = fs.Parse(args)

	if *driverName == "" || *id == "" {
		fs.Usage()
		return errors.New("pair: -driver and -id are required")
	}

	e, err := common.setup()
	if err != nil {
		return err
	}
	d, err := e.registry.Lookup(*driverName)
	if err != nil {
		return err
	}

	fmt.Printf("Looking for %s accessory %s...\n", d.Name(), *id)
	acc, err := driver.Find(ctx, d, *id)
	if err != nil {
		return err
	}
	if acc.IsPaired() {
		fmt.Printf("%s is already paired with a controller; pairing will most likely be refused\n", acc.ID)
	}

	setupCode := *code
	if setupCode == "" {
		if setupCode, err = promptSetupCode(); err != nil {
			return err
		}
	}

	fmt.Println("Accessory found, attempting to pair...")
	result, err := d.Pair(ctx, acc, setupCode)
	if err != nil {
		return explain(err)
	}

	fmt.Printf("Paired with %s (LTPK %x)\n", result.AccessoryID, []byte(result.AccessoryLTPK))
	if file, ok := e.storage.(*store.FileStorage); ok {
		fmt.Printf("Pairing saved to %s\n", file.Path())
	}
	return nil
}

// explain adds advice for the accessory errors a user can act on.
func explain(err error) error {
	var perr *pairing.PairingError
	switch {
	case errors.Is(err, pairing.ErrAuthentication):
		return fmt.Errorf("%w (check the setup code)", err)
	case errors.As(err, &perr) && perr.RetryDelay > 0:
		return fmt.Errorf("%w (try again in %v)", err, perr.RetryDelay)
	case errors.Is(err, pairing.ErrMaxPeers):
		return fmt.Errorf("%w (reset the accessory to remove existing pairings)", err)
	}
	return err
}
