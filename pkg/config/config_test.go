package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "validator.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
node:
  fee_contract_id: "0000000000000000000000000000000000000000000000000000000000000001"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Environment != "development" {
		t.Errorf("Environment default: got %q", cfg.Environment)
	}
	if cfg.Store.Path == "" {
		t.Error("Store.Path should have a default")
	}
	if cfg.Gas.CallGasLimit != 10_000_000 {
		t.Errorf("Gas.CallGasLimit default: got %d", cfg.Gas.CallGasLimit)
	}
}

func TestLoadSubstitutesEnvVars(t *testing.T) {
	t.Setenv("VALIDATOR_LISTEN_ADDR", "127.0.0.1:9999")
	path := writeConfig(t, `
node:
  listen_addr: "${VALIDATOR_LISTEN_ADDR}"
  fee_contract_id: "0000000000000000000000000000000000000000000000000000000000000001"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Node.ListenAddr != "127.0.0.1:9999" {
		t.Errorf("ListenAddr: got %q", cfg.Node.ListenAddr)
	}
}

func TestValidateRejectsMissingFeeContractID(t *testing.T) {
	cfg := &Config{Store: StoreSettings{Path: "./data"}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for missing fee_contract_id")
	}
}

func TestValidateRejectsMalformedFeeContractID(t *testing.T) {
	cfg := &Config{
		Store: StoreSettings{Path: "./data"},
		Node:  NodeSettings{FeeContractID: "not-hex"},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for malformed fee_contract_id")
	}
}

func TestValidateAccepts(t *testing.T) {
	cfg := &Config{
		Store: StoreSettings{Path: "./data"},
		Node:  NodeSettings{FeeContractID: strings.Repeat("0", 63) + "1"},
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}
