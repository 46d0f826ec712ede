// Command validatord boots one node of the engine: it loads the node's
// YAML configuration, opens its committed store, constructs the WASM
// runtime and validator pipeline, bootstraps a genesis block on first run,
// and then idles until told to stop. Feeding it blocks over the network is
// the job of a P2P/gossip layer and a JSON-RPC server, both external
// collaborators this engine does not implement.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/darkfi-core/engine/pkg/block"
	"github.com/darkfi-core/engine/pkg/config"
	"github.com/darkfi-core/engine/pkg/contract"
	"github.com/darkfi-core/engine/pkg/crypto"
	"github.com/darkfi-core/engine/pkg/merkletree"
	"github.com/darkfi-core/engine/pkg/store"
	"github.com/darkfi-core/engine/pkg/validator"
	"github.com/darkfi-core/engine/pkg/wasmvm"
)

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	var (
		configPath = flag.String("config", "./validator.yaml", "path to the node's YAML configuration file")
		showHelp   = flag.Bool("help", false, "show this help message")
	)
	flag.Parse()

	if *showHelp {
		printHelp()
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("[validatord] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[validatord] invalid config: %v", err)
	}
	log.Printf("[validatord] loaded config from %s (environment=%s)", *configPath, cfg.Environment)

	feeContractID, err := parseContractID(cfg.Node.FeeContractID)
	if err != nil {
		log.Fatalf("[validatord] fee_contract_id: %v", err)
	}

	bc, err := store.Open(cfg.Store.Path)
	if err != nil {
		log.Fatalf("[validatord] open store at %s: %v", cfg.Store.Path, err)
	}
	defer func() {
		if err := bc.Close(); err != nil {
			log.Printf("[validatord] store close: %v", err)
		}
	}()
	log.Printf("[validatord] store opened at %s", cfg.Store.Path)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runtime := wasmvm.NewRuntime(ctx)
	defer func() {
		if err := runtime.Close(ctx); err != nil {
			log.Printf("[validatord] runtime close: %v", err)
		}
	}()

	v := validator.New(runtime, feeContractID)
	trees := validator.Trees{
		Coins:      merkletree.NewIncrementalTree(),
		Nullifiers: merkletree.NewSparseMerkleTree(),
	}

	tip, err := bootstrap(bc, trees)
	if err != nil {
		log.Fatalf("[validatord] bootstrap: %v", err)
	}
	log.Printf("[validatord] chain tip at height %d, reward=%d", tip.Height, tip.Reward)

	log.Printf("[validatord] validator ready (fee_contract_id=%s); awaiting blocks from an external gossip/RPC layer", cfg.Node.FeeContractID)
	_ = v // wired and ready; block ingestion is driven by the external P2P/RPC layer

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Printf("[validatord] shutdown signal received, draining...")
	cancel()
	time.Sleep(10 * time.Millisecond)
	log.Printf("[validatord] stopped")
}

// parseContractID decodes a 32-byte hex string (with an optional 0x
// prefix) into a ContractId, the same field config.Validate already
// checked for length.
func parseContractID(hex string) (contract.ContractId, error) {
	trimmed := hex
	if len(trimmed) >= 2 && trimmed[0:2] == "0x" {
		trimmed = trimmed[2:]
	}
	decoded, err := decodeHex(trimmed)
	if err != nil {
		return contract.ContractId{}, err
	}
	var raw [32]byte
	copy(raw[:], decoded)
	base, err := crypto.BaseFromCanonicalBytes(raw)
	if err != nil {
		return contract.ContractId{}, fmt.Errorf("fee_contract_id does not encode a canonical field element: %w", err)
	}
	return contract.ContractId(base), nil
}

func decodeHex(s string) ([]byte, error) {
	if len(s) != 64 {
		return nil, fmt.Errorf("expected 64 hex characters, got %d", len(s))
	}
	out := make([]byte, 32)
	for i := 0; i < 32; i++ {
		hi, err := hexDigit(s[2*i])
		if err != nil {
			return nil, err
		}
		lo, err := hexDigit(s[2*i+1])
		if err != nil {
			return nil, err
		}
		out[i] = hi<<4 | lo
	}
	return out, nil
}

func hexDigit(c byte) (byte, error) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', nil
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, nil
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, nil
	default:
		return 0, fmt.Errorf("invalid hex digit %q", c)
	}
}

func printHelp() {
	fmt.Println("validatord - engine node process")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  validatord [OPTIONS]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --config=PATH   path to the node's YAML configuration file (default ./validator.yaml)")
	fmt.Println("  --help          show this help message")
}

// bootstrap returns the chain's current tip header, applying a zero-value
// genesis block (no transactions, no reward) if the store is empty.
func bootstrap(bc *store.Blockchain, trees validator.Trees) (block.Header, error) {
	if existing, err := bc.GetHeaderByHeight(0); err == nil && existing != nil {
		for height := uint64(1); ; height++ {
			next, err := bc.GetHeaderByHeight(height)
			if err != nil || next == nil {
				break
			}
			existing = next
		}
		return block.DecodeHeader(bytes.NewReader(existing))
	}

	genesis := block.Header{Height: 0, Timestamp: 0, Reward: 0}
	txRoot, err := block.TransactionsRoot(nil)
	if err != nil {
		return block.Header{}, err
	}
	genesis.TransactionsRoot = txRoot
	stateRoot, err := block.StateRoot(trees)
	if err != nil {
		return block.Header{}, err
	}
	genesis.StateRoot = stateRoot

	genesisHash, err := genesis.Hash()
	if err != nil {
		return block.Header{}, err
	}

	overlay := bc.NewOverlay()
	var encoded bytes.Buffer
	if err := block.EncodeHeader(&encoded, genesis); err != nil {
		_ = overlay.Discard()
		return block.Header{}, err
	}
	if err := overlay.InsertHeader(genesisHash, 0, encoded.Bytes()); err != nil {
		_ = overlay.Discard()
		return block.Header{}, err
	}
	if err := overlay.Apply(); err != nil {
		return block.Header{}, err
	}
	log.Printf("[validatord] genesis block committed at hash %x", genesisHash)
	return genesis, nil
}
