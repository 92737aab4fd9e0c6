// Package config loads the server configuration: an HCL file with one
// server block and repeated table blocks for tables provisioned at boot,
// plus environment overrides applied after the file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config is the complete server configuration.
type Config struct {
	Server ServerSettings `hcl:"server,block"`
	Tables []TableConfig  `hcl:"table,block"`
}

// ServerSettings is the server block.
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
	// StorePath is the SQLite database file. Empty keeps snapshots in
	// memory only.
	StorePath string `hcl:"store_path,optional"`
	// HistoryDir is where completed hands are written as .phhs files.
	// Empty disables hand history.
	HistoryDir string `hcl:"history_dir,optional"`
	// TurnTimeoutSeconds is how long a player may hold the action before
	// being folded. Zero disables the turn clock.
	TurnTimeoutSeconds int  `hcl:"turn_timeout_seconds,optional"`
	AutoDeal           bool `hcl:"auto_deal,optional"`
	DealDelaySeconds   int  `hcl:"deal_delay_seconds,optional"`
}

// TableConfig is one table block, provisioned at boot.
type TableConfig struct {
	Name       string `hcl:"name,label"`
	MaxPlayers int    `hcl:"max_players,optional"`
	SmallBlind int    `hcl:"small_blind"`
	BigBlind   int    `hcl:"big_blind"`
	BuyInMin   int    `hcl:"buy_in_min,optional"`
	BuyInMax   int    `hcl:"buy_in_max,optional"`
}

// envOverrides are applied on top of whatever the file set.
type envOverrides struct {
	Address    string `env:"CARDROOM_ADDR"`
	Port       int    `env:"CARDROOM_PORT"`
	LogLevel   string `env:"CARDROOM_LOG_LEVEL"`
	StorePath  string `env:"CARDROOM_DB_PATH"`
	HistoryDir string `env:"CARDROOM_HISTORY_DIR"`
}

// Default returns the configuration used when no file exists: one main
// table and no persistence.
func Default() *Config {
	return &Config{
		Server: ServerSettings{
			Address:            "localhost",
			Port:               8080,
			LogLevel:           "info",
			TurnTimeoutSeconds: 30,
			AutoDeal:           true,
			DealDelaySeconds:   2,
		},
		Tables: []TableConfig{
			{
				Name:       "main",
				MaxPlayers: 6,
				SmallBlind: 1,
				BigBlind:   2,
				BuyInMin:   100,
				BuyInMax:   1000,
			},
		},
	}
}

// Load reads the HCL file at path. A missing file yields Default. The
// result has defaults filled, environment overrides applied and has been
// validated.
func Load(path string) (*Config, error) {
	config := Default()
	if _, err := os.Stat(path); err == nil {
		parser := hclparse.NewParser()
		file, diags := parser.ParseHCLFile(path)
		if diags.HasErrors() {
			return nil, fmt.Errorf("parsing %s: %s", path, diags.Error())
		}
		config = &Config{}
		if diags := gohcl.DecodeBody(file.Body, nil, config); diags.HasErrors() {
			return nil, fmt.Errorf("decoding %s: %s", path, diags.Error())
		}
		config.applyDefaults()
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := config.applyEnv(); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = "localhost"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Server.AutoDeal && c.Server.DealDelaySeconds == 0 {
		c.Server.DealDelaySeconds = 2
	}
	for i := range c.Tables {
		t := &c.Tables[i]
		if t.MaxPlayers == 0 {
			t.MaxPlayers = 6
		}
		if t.BuyInMin == 0 {
			t.BuyInMin = t.BigBlind * 50
		}
		if t.BuyInMax == 0 {
			t.BuyInMax = t.BigBlind * 500
		}
	}
}

func (c *Config) applyEnv() error {
	var ov envOverrides
	if err := env.Parse(&ov); err != nil {
		return fmt.Errorf("parsing environment: %w", err)
	}
	if ov.Address != "" {
		c.Server.Address = ov.Address
	}
	if ov.Port != 0 {
		c.Server.Port = ov.Port
	}
	if ov.LogLevel != "" {
		c.Server.LogLevel = ov.LogLevel
	}
	if ov.StorePath != "" {
		c.Server.StorePath = ov.StorePath
	}
	if ov.HistoryDir != "" {
		c.Server.HistoryDir = ov.HistoryDir
	}
	return nil
}

// Validate checks ranges the decoder cannot.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Server.TurnTimeoutSeconds < 0 || c.Server.DealDelaySeconds < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	for _, t := range c.Tables {
		if t.SmallBlind <= 0 {
			return fmt.Errorf("table %s: small blind must be positive", t.Name)
		}
		if t.BigBlind < t.SmallBlind {
			return fmt.Errorf("table %s: big blind must be at least the small blind", t.Name)
		}
		if t.MaxPlayers < 2 || t.MaxPlayers > 10 {
			return fmt.Errorf("table %s: max players must be between 2 and 10", t.Name)
		}
		if t.BuyInMin > t.BuyInMax {
			return fmt.Errorf("table %s: buy-in minimum must not exceed maximum", t.Name)
		}
	}
	return nil
}

// ListenAddr is the host:port the server binds.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// TurnTimeout returns the configured turn clock duration.
func (s ServerSettings) TurnTimeout() time.Duration {
	return time.Duration(s.TurnTimeoutSeconds) * time.Second
}

// DealDelay returns the pause between auto-dealt hands.
func (s ServerSettings) DealDelay() time.Duration {
	return time.Duration(s.DealDelaySeconds) * time.Second
}
