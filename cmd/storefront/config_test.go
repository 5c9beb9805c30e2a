package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetConfig(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "storefront.yaml")
	err := os.WriteFile(filename, []byte(`
port: 9090
hash: xxhash
weak: true
rules:
  - prefix: /products
    override: max-age=30
  - path: /products/legacy
    disable: true
    query:
      v: "1"
`), 0644)
	if err != nil {
		t.Fatal(err)
	}

	config, err := getConfig(filename)
	if err != nil {
		t.Fatal(err)
	}
	if config.Port != 9090 || config.Hash != "xxhash" || !config.Weak {
		t.Fatalf("Config is %+v", config)
	}
	// defaults survive
	if config.DB != "catalog.db" {
		t.Fatalf("DB is %s", config.DB)
	}
	if len(config.Rules) != 2 || config.Rules[0].Override != "max-age=30" || !config.Rules[1].Disable || config.Rules[1].Query["v"] != "1" {
		t.Fatalf("Rules are %+v", config.Rules)
	}
}

func TestGetConfigMissing(t *testing.T) {
	if _, err := getConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("No error for missing file")
	}
}
