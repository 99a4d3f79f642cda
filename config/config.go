package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const prngSeedBytes = 32

type Config struct {
	RPCAddress  string `toml:"RPCAddress"`
	DataDir     string `toml:"DataDir"`
	NetworkName string `toml:"NetworkName"`
	// PRNGSeed is the hex-encoded seed material fixed at ledger
	// initialisation. It is generated once on first run and must not change
	// afterwards: listing identifiers are derived from it.
	PRNGSeed string `toml:"PRNGSeed"`
}

// Load loads the configuration from the given path, creating a default file
// (with a freshly generated seed) when none exists.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the loaded configuration for usable values.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.RPCAddress) == "" {
		return fmt.Errorf("RPCAddress must not be empty")
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("DataDir must not be empty")
	}
	seed, err := c.Seed()
	if err != nil {
		return err
	}
	if len(seed) == 0 {
		return fmt.Errorf("PRNGSeed must not be empty")
	}
	return nil
}

// Seed decodes the hex seed material.
func (c *Config) Seed() ([]byte, error) {
	decoded, err := hex.DecodeString(strings.TrimSpace(c.PRNGSeed))
	if err != nil {
		return nil, fmt.Errorf("PRNGSeed is not valid hex: %w", err)
	}
	return decoded, nil
}

func createDefault(path string) (*Config, error) {
	seed := make([]byte, prngSeedBytes)
	if _, err := rand.Read(seed); err != nil {
		return nil, fmt.Errorf("generate prng seed: %w", err)
	}

	cfg := &Config{
		RPCAddress:  "127.0.0.1:8545",
		DataDir:     "./dbnb-data",
		NetworkName: "dbnb-local",
		PRNGSeed:    hex.EncodeToString(seed),
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
