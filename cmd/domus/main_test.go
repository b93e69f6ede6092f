package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/redoz/domus/pkg/config"
	"github.com/redoz/domus/pkg/driver"
)

func TestRun_InitFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "home.yaml")
	topology := "name: Home\nchildren:\n  - name: Office\n    children:\n      - name: Motion sensor\n        type: aqarafp2\n        id: \"AA:BB:CC:DD:EE:FF\"\n"
	if err := os.WriteFile(path, []byte(topology), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Topology = path

	err := run(cfg)
	if !errors.Is(err, driver.ErrNotPaired) {
		t.Fatalf("run() error = %v, want ErrNotPaired", err)
	}
}

func TestRun_NoTopology(t *testing.T) {
	if err := run(config.Default()); err == nil {
		t.Error("run() without a topology should fail")
	}
}
