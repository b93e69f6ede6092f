package pairing

import (
	"context"
	"net/http"
	"time"

	"github.com/pion/logging"
	"github.com/redoz/domus/pkg/discovery"
	"github.com/redoz/domus/pkg/store"
)

// DefaultRequestTimeout bounds each request/response round.
const DefaultRequestTimeout = 10 * time.Second

// PairerConfig holds configuration for the Pairer.
type PairerConfig struct {
	// HTTPClient is used for requests. If nil, a default client is used.
	// Ignored when Transport is set.
	HTTPClient *http.Client

	// Transport overrides the HTTP transport.
	Transport Transport

	// Controller is the identity presented to accessories. If nil, it is
	// loaded from Storage, or generated when Storage holds none.
	Controller *ControllerIdentity

	// Method selects the M1 method when MethodSet is true.
	// Default: MethodPairSetupWithAuth.
	Method    Method
	MethodSet bool

	// RequestTimeout bounds each round. If zero, DefaultRequestTimeout is used.
	RequestTimeout time.Duration

	// Storage, if set, receives the controller identity and every
	// successful pairing.
	Storage store.Storage

	// LoggerFactory for creating loggers.
	LoggerFactory logging.LoggerFactory
}

// Pairer runs Pair-Setup sessions against discovered accessories.
type Pairer struct {
	config     PairerConfig
	transport  Transport
	controller *ControllerIdentity
	log        logging.LeveledLogger
}

// NewPairer creates a new Pairer with the given configuration.
func NewPairer(config PairerConfig) (*Pairer, error) {
	if config.RequestTimeout == 0 {
		config.RequestTimeout = DefaultRequestTimeout
	}
	if config.MethodSet && !config.Method.IsPairSetup() {
		return nil, ErrInvalidMethod
	}

	transport := config.Transport
	if transport == nil {
		transport = NewHTTPTransport(config.HTTPClient)
	}

	controller := config.Controller
	if controller == nil {
		var err error
		if config.Storage != nil {
			controller, err = LoadOrCreateController(config.Storage)
		} else {
			controller, err = NewControllerIdentity()
		}
		if err != nil {
			return nil, err
		}
	} else if err := controller.Validate(); err != nil {
		return nil, err
	}

	p := &Pairer{
		config:     config,
		transport:  &timeoutTransport{next: transport, timeout: config.RequestTimeout},
		controller: controller,
	}
	if config.LoggerFactory != nil {
		p.log = config.LoggerFactory.NewLogger("pairing")
	}
	return p, nil
}

// Controller returns the identity this Pairer presents.
func (p *Pairer) Controller() *ControllerIdentity {
	return p.controller
}

// Pair runs a fresh Session against acc with setupCode. Nothing is retried;
// a caller wanting another attempt calls Pair again.
func (p *Pairer) Pair(ctx context.Context, acc *discovery.Accessory, setupCode string) (*Result, error) {
	session, err := NewSession(SessionConfig{
		Accessory:     acc,
		SetupCode:     setupCode,
		Method:        p.config.Method,
		MethodSet:     p.config.MethodSet,
		Controller:    p.controller,
		Transport:     p.transport,
		LoggerFactory: p.config.LoggerFactory,
	})
	if err != nil {
		return nil, err
	}

	if p.log != nil {
		p.log.Infof("starting pair-setup with %s", acc)
	}

	result, err := session.Run(ctx)
	if err != nil {
		return nil, err
	}

	if p.config.Storage != nil {
		record := &store.Pairing{
			AccessoryID: result.AccessoryID,
			PublicKey:   []byte(result.AccessoryLTPK),
			Model:       acc.Model,
			Address:     acc.Address.String(),
			Port:        acc.Port,
			PairedAt:    time.Now().UTC(),
		}
		if err := p.config.Storage.SavePairing(record); err != nil {
			return result, err
		}
	}
	return result, nil
}

// timeoutTransport applies a deadline to every request.
type timeoutTransport struct {
	next    Transport
	timeout time.Duration
}

func (t *timeoutTransport) Post(ctx context.Context, url string, body []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Post(ctx, url, body)
}
