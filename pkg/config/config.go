// Package config loads the validator node's YAML configuration file, the
// way pkg/config/anchor_config.go loads Certen's: a struct tree tagged for
// gopkg.in/yaml.v3, ${VAR_NAME} environment substitution before parsing, and
// defaults applied for anything left zero.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds a validator node's full configuration.
type Config struct {
	Environment string        `yaml:"environment"`
	Node        NodeSettings  `yaml:"node"`
	Store       StoreSettings `yaml:"store"`
	Gas         GasSettings   `yaml:"gas"`
	Logging     LoggingSettings `yaml:"logging"`
}

// NodeSettings identifies this node on the network and names the one
// ContractId whose root call is accepted as a transaction's fee call.
type NodeSettings struct {
	ListenAddr    string `yaml:"listen_addr"`
	FeeContractID string `yaml:"fee_contract_id"` // hex-encoded 32 bytes
}

// StoreSettings configures the on-disk committed store.
type StoreSettings struct {
	Path string `yaml:"path"`
}

// GasSettings holds gas values read from the node's configuration file.
// They are loaded and defaulted here only; validatord does not pass them
// to the validator pipeline, which uses its own fixed gas prices.
type GasSettings struct {
	CallGasLimit    uint64   `yaml:"call_gas_limit"`
	SignatureFee    uint64   `yaml:"signature_fee"`
	BlockTxTimeout  Duration `yaml:"block_tx_timeout"`
}

// LoggingSettings controls the per-subsystem stdlib loggers.
type LoggingSettings struct {
	Level string `yaml:"level"`
}

// Duration wraps time.Duration so it can be written as "5s"/"1m" in YAML,
// the same shape pkg/config/anchor_config.go's own Duration type uses.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the time.Duration value.
func (d Duration) Duration() time.Duration { return time.Duration(d) }

// envVarPattern matches ${VAR_NAME} or ${VAR_NAME:-default}.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

func substituteEnvVars(content string) string {
	return envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultValue := ""
		if len(groups) >= 4 {
			defaultValue = groups[3]
		}
		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})
}

// Load reads and parses the YAML config file at path, substituting
// ${VAR_NAME} references against the process environment first.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	expanded := substituteEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Node.ListenAddr == "" {
		c.Node.ListenAddr = "0.0.0.0:26656"
	}
	if c.Store.Path == "" {
		c.Store.Path = "./data/blockchain"
	}
	if c.Gas.CallGasLimit == 0 {
		c.Gas.CallGasLimit = 10_000_000
	}
	if c.Gas.SignatureFee == 0 {
		c.Gas.SignatureFee = 1000
	}
	if c.Gas.BlockTxTimeout == 0 {
		c.Gas.BlockTxTimeout = Duration(30 * time.Second)
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate checks that the fields a node cannot safely start without are
// present.
func (c *Config) Validate() error {
	var errs []string
	if c.Node.FeeContractID == "" {
		errs = append(errs, "node.fee_contract_id is required")
	} else if len(strings.TrimPrefix(c.Node.FeeContractID, "0x")) != 64 {
		errs = append(errs, "node.fee_contract_id must be a 32-byte hex string")
	}
	if c.Store.Path == "" {
		errs = append(errs, "store.path is required")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
