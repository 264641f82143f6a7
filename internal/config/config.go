package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rpggio/socialxp/internal/domain/ledger"
	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	DB        DBConfig        `yaml:"db"`
	Log       LogConfig       `yaml:"log"`
	Transport TransportConfig `yaml:"transport"`
	Auth      AuthConfig      `yaml:"auth"`
	Ledger    LedgerConfig    `yaml:"ledger"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// TransportConfig selects how the MCP server is exposed: "stdio" or "http".
type TransportConfig struct {
	Mode string `yaml:"mode"`
}

type AuthConfig struct {
	Enabled bool `yaml:"enabled"`
}

// LedgerConfig holds the ledger identities, custody policy and pricing.
type LedgerConfig struct {
	Relay     string             `yaml:"relay"`
	Owner     string             `yaml:"owner"`
	UnitPrice uint64             `yaml:"unit_price"`
	Custody   CustodyConfig      `yaml:"custody"`
	Fees      ledger.FeeSchedule `yaml:"fees"`
}

// CustodyConfig splits each deposit between the relay and a treasury.
type CustodyConfig struct {
	RelayBPS uint32 `yaml:"relay_bps"`
	Treasury string `yaml:"treasury"`
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		DB: DBConfig{
			Path: "socialxp.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Transport: TransportConfig{
			Mode: "http",
		},
		Auth: AuthConfig{
			Enabled: true,
		},
		Ledger: LedgerConfig{
			UnitPrice: 1,
			Custody: CustodyConfig{
				RelayBPS: 10_000,
			},
			Fees: ledger.DefaultFees(),
		},
	}

	if path := os.Getenv("SOCIALXP_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if host := os.Getenv("SOCIALXP_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("SOCIALXP_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid SOCIALXP_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if dbPath := os.Getenv("SOCIALXP_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if level := os.Getenv("SOCIALXP_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if mode := os.Getenv("SOCIALXP_TRANSPORT_MODE"); mode != "" {
		cfg.Transport.Mode = mode
	}
	if enabled := os.Getenv("SOCIALXP_AUTH_ENABLED"); enabled != "" {
		v, err := strconv.ParseBool(enabled)
		if err != nil {
			return fmt.Errorf("invalid SOCIALXP_AUTH_ENABLED: %w", err)
		}
		cfg.Auth.Enabled = v
	}
	if relay := os.Getenv("SOCIALXP_RELAY"); relay != "" {
		cfg.Ledger.Relay = relay
	}
	if owner := os.Getenv("SOCIALXP_OWNER"); owner != "" {
		cfg.Ledger.Owner = owner
	}
	if treasury := os.Getenv("SOCIALXP_TREASURY"); treasury != "" {
		cfg.Ledger.Custody.Treasury = treasury
	}
	if priceStr := os.Getenv("SOCIALXP_UNIT_PRICE"); priceStr != "" {
		price, err := strconv.ParseUint(priceStr, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid SOCIALXP_UNIT_PRICE: %w", err)
		}
		cfg.Ledger.UnitPrice = price
	}
	if bpsStr := os.Getenv("SOCIALXP_RELAY_BPS"); bpsStr != "" {
		bps, err := strconv.ParseUint(bpsStr, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid SOCIALXP_RELAY_BPS: %w", err)
		}
		cfg.Ledger.Custody.RelayBPS = uint32(bps)
	}
	return nil
}

// Validate checks the values Load cannot check while parsing.
func (c Config) Validate() error {
	switch c.Transport.Mode {
	case "stdio", "http":
	default:
		return fmt.Errorf("invalid transport mode %q", c.Transport.Mode)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.Log.Level)
	}
	if _, err := c.LedgerConfig(); err != nil {
		return err
	}
	return nil
}

// LedgerConfig converts the ledger section into the service configuration.
func (c Config) LedgerConfig() (ledger.Config, error) {
	relay, err := ledger.ParseAddress(c.Ledger.Relay)
	if err != nil {
		return ledger.Config{}, fmt.Errorf("ledger.relay: %w", err)
	}
	owner, err := ledger.ParseAddress(c.Ledger.Owner)
	if err != nil {
		return ledger.Config{}, fmt.Errorf("ledger.owner: %w", err)
	}
	var treasury ledger.Address
	if c.Ledger.Custody.Treasury != "" {
		treasury, err = ledger.ParseAddress(c.Ledger.Custody.Treasury)
		if err != nil {
			return ledger.Config{}, fmt.Errorf("ledger.custody.treasury: %w", err)
		}
	}
	lc := ledger.Config{
		Relay:       relay,
		Owner:       owner,
		Treasury:    treasury,
		RelayBPS:    c.Ledger.Custody.RelayBPS,
		DefaultFees: c.Ledger.Fees,
	}
	if err := lc.Validate(); err != nil {
		return ledger.Config{}, err
	}
	return lc, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
