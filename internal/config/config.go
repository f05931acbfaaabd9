// Package config loads the playground server configuration.
//
// Sources are applied in order, later ones overriding earlier ones:
//  1. Defaults
//  2. The challenge definition file, merged under the "challenge" key
//  3. Environment variables with the PLAYGROUND_ prefix
//  4. Overrides such as command line flags
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/layer-3/playground/core"
)

// Config is the complete server configuration
type Config struct {
	Server    ServerConfig   `koanf:"server"`
	Ledger    LedgerConfig   `koanf:"ledger"`
	Token     TokenConfig    `koanf:"token"`
	Events    EventsConfig   `koanf:"events"`
	Build     BuildConfig    `koanf:"build"`
	Log       LogConfig      `koanf:"log"`
	Challenge core.Challenge `koanf:"challenge"`
}

type ServerConfig struct {
	Addr    string        `koanf:"addr"`
	Timeout time.Duration `koanf:"timeout"`
}

type LedgerConfig struct {
	URL     string `koanf:"url"`
	Network string `koanf:"network"` // localnet, devnet, testnet or mainnet
	Gas     uint64 `koanf:"gas"`     // Gas budget of the publish transaction
}

type TokenConfig struct {
	Key string        `koanf:"key"` // 32 bytes, hex encoded
	TTL time.Duration `koanf:"ttl"` // Zero disables expiry
}

type EventsConfig struct {
	Redis string `koanf:"redis"` // Redis URL; events are dropped when empty
	Topic string `koanf:"topic"` // Topic prefix
}

type BuildConfig struct {
	Cmd string `koanf:"cmd"`
}

type LogConfig struct {
	Level string `koanf:"level"`
	JSON  bool   `koanf:"json"`
}

// Defaults returns the default values as a flat key map
func Defaults() map[string]any {
	return map[string]any{
		"server.addr":    ":8080",
		"server.timeout": "60s",
		"ledger.network": "devnet",
		"ledger.gas":     3000,
		"token.ttl":      "0s",
		"events.topic":   "playground.",
		"log.level":      "info",
	}
}

// TokenKey decodes the token sealing key
func (c *Config) TokenKey() ([]byte, error) {
	if c.Token.Key == "" {
		return nil, errors.New("token key is required")
	}
	key := common.FromHex(c.Token.Key)
	if len(key) != 32 {
		return nil, fmt.Errorf("token key must be 32 hex encoded bytes, got %d bytes", len(key))
	}
	return key, nil
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if _, err := c.TokenKey(); err != nil {
		return err
	}
	if c.Server.Timeout < 0 {
		return errors.New("server timeout must not be negative")
	}
	if c.Ledger.URL == "" && c.Ledger.Network == "" {
		return errors.New("ledger url or network is required")
	}
	if err := c.Challenge.Validate(); err != nil {
		return err
	}
	return nil
}
