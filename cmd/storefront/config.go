package main

import (
	"os"

	etagcache "github.com/tranhuy105/KTPM-20242-sub001"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port           int             `yaml:"port"`
	DB             string          `yaml:"db"`
	Hash           string          `yaml:"hash"`
	TagLength      int             `yaml:"tagLength"`
	MaxBodySize    int             `yaml:"maxBodySize"`
	Weak           bool            `yaml:"weak"`
	EnforceIfMatch bool            `yaml:"enforceIfMatch"`
	Disabled       bool            `yaml:"disabled"`
	Rules          etagcache.Rules `yaml:"rules"`
}

// defaultRules keep scrapes out of validation and make browsers revalidate
// product pages on every use.
var defaultRules = etagcache.Rules{
	{Path: "/metrics", Disable: true},
	{Path: "/healthz", Disable: true},
	{Prefix: "/products", Default: "no-cache"},
}

func defaultConfig() Config {
	return Config{
		Port:        8080,
		DB:          "catalog.db",
		Hash:        "sha256",
		MaxBodySize: etagcache.DefaultMaxBodySize,
		Rules:       defaultRules,
	}
}

// getConfig reads filename over the defaults.
func getConfig(filename string) (Config, error) {
	config := defaultConfig()
	configBytes, err := os.ReadFile(filename)
	if err != nil {
		return config, err
	}
	err = yaml.Unmarshal(configBytes, &config)
	return config, err
}
