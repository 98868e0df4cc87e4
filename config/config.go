package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the daemon configuration loaded from TOML.
type Config struct {
	ListenAddress string `toml:"ListenAddress"`
	DataDir       string `toml:"DataDir"`
	Environment   string `toml:"Environment"`

	Token   TokenConfig   `toml:"Token"`
	Genesis GenesisConfig `toml:"Genesis"`
	Gate    GateConfig    `toml:"Gate"`
	RPC     RPCConfig     `toml:"RPC"`
	Log     LogConfig     `toml:"Log"`
}

// TokenConfig carries the rebasing token metadata.
type TokenConfig struct {
	Name   string `toml:"Name"`
	Symbol string `toml:"Symbol"`
}

// GenesisConfig seeds the engine on first boot.
type GenesisConfig struct {
	Owner             string       `toml:"Owner"`
	Guardian          string       `toml:"Guardian"`
	DefaultDelegatee  string       `toml:"DefaultDelegatee"`
	RewardPayout      string       `toml:"RewardPayout"`
	RewardFeeBips     uint64       `toml:"RewardFeeBips"`
	RewardCollector   string       `toml:"RewardCollector"`
	MaxOverrideTip    string       `toml:"MaxOverrideTip"`
	MinQualifyingBips uint64       `toml:"MinQualifyingBips"`
	FixedCaller       string       `toml:"FixedCaller"`
	Allocations       []Allocation `toml:"Allocations"`
}

// Allocation funds an account at genesis. Amount is a base-10 integer string
// so balances above 2^63 survive the TOML round trip.
type Allocation struct {
	Address string `toml:"Address"`
	Amount  string `toml:"Amount"`
}

// GateConfig configures the withdrawal-delay gate.
type GateConfig struct {
	DelaySeconds uint64 `toml:"DelaySeconds"`
}

// RPCConfig configures the HTTP surface.
type RPCConfig struct {
	AuthSecret         string  `toml:"AuthSecret"`
	RateLimitPerSecond float64 `toml:"RateLimitPerSecond"`
	RateLimitBurst     int     `toml:"RateLimitBurst"`
	ReadTimeoutSeconds uint64  `toml:"ReadTimeoutSeconds"`
}

// LogConfig configures structured log output and rotation.
type LogConfig struct {
	FilePath   string `toml:"FilePath"`
	MaxSizeMB  int    `toml:"MaxSizeMB"`
	MaxBackups int    `toml:"MaxBackups"`
	MaxAgeDays int    `toml:"MaxAgeDays"`
	Compress   bool   `toml:"Compress"`
}

// Load reads the configuration at path, writing a default file first when
// none exists.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.ListenAddress == "" {
		c.ListenAddress = "0.0.0.0:8645"
	}
	if c.DataDir == "" {
		c.DataDir = "./stakeshare-data"
	}
	if c.Environment == "" {
		c.Environment = "local"
	}
	if c.Token.Name == "" {
		c.Token.Name = "Staked Share Token"
	}
	if c.Token.Symbol == "" {
		c.Token.Symbol = "sSHARE"
	}
	if c.RPC.RateLimitPerSecond <= 0 {
		c.RPC.RateLimitPerSecond = 20
	}
	if c.RPC.RateLimitBurst <= 0 {
		c.RPC.RateLimitBurst = 40
	}
	if c.RPC.ReadTimeoutSeconds == 0 {
		c.RPC.ReadTimeoutSeconds = 15
	}
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create config %s: %w", path, err)
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}
