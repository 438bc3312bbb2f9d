package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// This is the global app config for the ticket ledger node.
type AppConfig struct {
	// How many leading zero bits form a valid block hash.
	DIFFICULTY int `yaml:"difficulty"`
	// Upper bound on transactions sealed per block. 0 means the whole pending pool.
	MAX_BATCH_SIZE int `yaml:"max_batch_size"`
	// How often the background miner seals the pending pool. 0 disables it.
	MINE_INTERVAL time.Duration `yaml:"mine_interval"`
	// PEM file holding the issuing authority's public (or private) key.
	ISSUER_KEY_PATH string `yaml:"issuer_key_path"`
	// "file" or "bolt".
	STORE_KIND string `yaml:"store_kind"`
	// Where the chain is persisted.
	STORE_PATH string `yaml:"store_path"`
	// gRPC listen address.
	LISTEN_ADDR string `yaml:"listen_addr"`
}

const (
	StoreFile = "file"
	StoreBolt = "bolt"
)

func Default() AppConfig {
	return AppConfig{
		DIFFICULTY:      12,
		MAX_BATCH_SIZE:  0,
		MINE_INTERVAL:   0,
		ISSUER_KEY_PATH: "/tmp/issuer.pem",
		STORE_KIND:      StoreFile,
		STORE_PATH:      "/tmp/ticket_chain.json",
		LISTEN_ADDR:     "localhost:10000",
	}
}

// Load reads a YAML file on top of Default and validates the result.
func Load(path string) (AppConfig, error) {
	c := Default()
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(yamlFile, &c); err != nil {
		return c, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return c, c.Validate()
}

func (c AppConfig) Validate() error {
	if c.DIFFICULTY < 0 || c.DIFFICULTY > 256 {
		return fmt.Errorf("difficulty must be within [0, 256], got %d", c.DIFFICULTY)
	}
	if c.MAX_BATCH_SIZE < 0 {
		return fmt.Errorf("max_batch_size must not be negative, got %d", c.MAX_BATCH_SIZE)
	}
	if c.MINE_INTERVAL < 0 {
		return errors.New("mine_interval must not be negative")
	}
	switch c.STORE_KIND {
	case StoreFile, StoreBolt:
	default:
		return fmt.Errorf("unknown store_kind %q", c.STORE_KIND)
	}
	return nil
}
