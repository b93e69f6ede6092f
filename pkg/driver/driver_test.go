package driver

import (
	"context"
	"crypto/ed25519"
	"net"
	"testing"
	"time"

	"github.com/pion/logging"
	"github.com/redoz/domus/pkg/discovery"
	"github.com/redoz/domus/pkg/pairing"
	"github.com/redoz/domus/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePairer struct {
	paired []string
	codes  []string
}

func (f *fakePairer) Pair(ctx context.Context, acc *discovery.Accessory, setupCode string) (*pairing.Result, error) {
	f.paired = append(f.paired, acc.ID)
	f.codes = append(f.codes, setupCode)
	return &pairing.Result{AccessoryID: acc.ID, AccessoryLTPK: make(ed25519.PublicKey, ed25519.PublicKeySize)}, nil
}

func newTestConfig(t *testing.T) (HAPConfig, *fakePairer) {
	t.Helper()

	b := discovery.NewMockBrowser()
	b.RegisterService(discovery.ServiceHAP, discovery.MockAccessoryService("FP2 Office", "AA:02", ModelAqaraFP2, 8002, net.IPv4(10, 0, 0, 2), discovery.CategorySensor))
	b.RegisterService(discovery.ServiceHAP, discovery.MockAccessoryService("FP2 Hall", "AA:01", ModelAqaraFP2, 8001, net.IPv4(10, 0, 0, 1), discovery.CategorySensor))
	b.RegisterService(discovery.ServiceHAP, discovery.MockAccessoryService("Lamp", "BB:01", "LB1", 8003, net.IPv4(10, 0, 0, 3), discovery.CategoryLightbulb))

	p := &fakePairer{}
	return HAPConfig{
		Discoverer: discovery.NewDiscoverer(discovery.Config{
			BrowserFactory: b.Factory(),
			Timeout:        100 * time.Millisecond,
			PollInterval:   10 * time.Millisecond,
		}),
		Pairer:        p,
		LoggerFactory: logging.NewDefaultLoggerFactory(),
	}, p
}

func TestAqaraFP2_Discover(t *testing.T) {
	config, _ := newTestConfig(t)
	d := NewAqaraFP2(config)

	assert.Equal(t, "aqarafp2", d.Name())
	assert.Equal(t, ModelAqaraFP2, d.Model())

	got, err := d.Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "AA:01", got[0].ID)
	assert.Equal(t, "AA:02", got[1].ID)
}

func TestHAPDriver_DiscoverAll(t *testing.T) {
	config, _ := newTestConfig(t)
	d := NewHAPDriver(config)

	assert.Equal(t, "hap", d.Name())
	got, err := d.Discover(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestFindAndPair(t *testing.T) {
	config, p := newTestConfig(t)
	d := NewAqaraFP2(config)

	acc, err := Find(context.Background(), d, "AA:02")
	require.NoError(t, err)
	assert.Equal(t, "FP2 Office", acc.Name)

	result, err := d.Pair(context.Background(), acc, "111-22-333")
	require.NoError(t, err)
	assert.Equal(t, "AA:02", result.AccessoryID)
	assert.Equal(t, []string{"AA:02"}, p.paired)
	assert.Equal(t, []string{"111-22-333"}, p.codes)

	_, err = Find(context.Background(), d, "BB:01")
	assert.ErrorIs(t, err, ErrAccessoryNotFound, "other models are not visible to the driver")
}

func TestHAPDriver_Unconfigured(t *testing.T) {
	d := NewHAPDriver(HAPConfig{})
	_, err := d.Discover(context.Background())
	assert.Error(t, err)
	_, err = d.Pair(context.Background(), &discovery.Accessory{ID: "x"}, "111-22-333")
	assert.Error(t, err)
}

func TestRegistry(t *testing.T) {
	config, _ := newTestConfig(t)
	r := DefaultRegistry(config)

	assert.Equal(t, []string{"aqarafp2", "hap"}, r.Names())

	d, err := r.Lookup("aqarafp2")
	require.NoError(t, err)
	assert.NotEmpty(t, d.Description())

	_, err = r.Lookup("hue")
	assert.ErrorIs(t, err, ErrUnknownDriver)

	assert.ErrorIs(t, r.Register(NewAqaraFP2(config)), ErrDuplicateDriver)

	_, err = NewRegistry(NewHAPDriver(config), NewHAPDriver(config))
	assert.ErrorIs(t, err, ErrDuplicateDriver)
}

func TestDevice_Init(t *testing.T) {
	s := store.NewMemoryStorage()
	d := NewDevice(DeviceConfig{
		Name:        "Motion sensor",
		Driver:      "aqarafp2",
		AccessoryID: "AA:01",
		Storage:     s,
	})
	assert.Equal(t, "Motion sensor", d.Name())

	err := d.Init(context.Background())
	assert.ErrorIs(t, err, ErrNotPaired)

	require.NoError(t, s.SavePairing(&store.Pairing{AccessoryID: "AA:01", PublicKey: make([]byte, 32)}))
	require.NoError(t, d.Init(context.Background()))
	require.NotNil(t, d.Pairing())
	assert.Equal(t, "AA:01", d.Pairing().AccessoryID)

	require.NoError(t, d.Dispose(context.Background()))
	assert.Nil(t, d.Pairing())

	unstored := NewDevice(DeviceConfig{Name: "Loose"})
	assert.NoError(t, unstored.Init(context.Background()))
}
