// Package validator implements the end-to-end transaction and deployment
// pipeline: structural checks, metadata collection, signature and proof
// verification, WASM execution, and the fee check that gates commit.
package validator

import (
	"bytes"
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/darkfi-core/engine/pkg/contract"
	"github.com/darkfi-core/engine/pkg/crypto"
	"github.com/darkfi-core/engine/pkg/merkletree"
	"github.com/darkfi-core/engine/pkg/serialize"
	"github.com/darkfi-core/engine/pkg/store"
	"github.com/darkfi-core/engine/pkg/txn"
	"github.com/darkfi-core/engine/pkg/wasmvm"
)

// PallasSchnorrSignatureFee is the fixed gas cost charged per signature
// verified, named after the scheme it covers.
const PallasSchnorrSignatureFee uint64 = 1000

// DefaultCallGasLimit bounds a single WASM export invocation. Not named by
// spec.md, which leaves the per-call WASM gas ceiling unspecified beyond
// "WASM gas" being one of the tallied totals; picked generously enough
// that well-behaved contracts never hit it, recorded as an Open Question
// decision in DESIGN.md.
const DefaultCallGasLimit uint64 = 10_000_000

// Trees bundles the two coin/nullifier Merkle structures a block's
// transactions read and append to.
type Trees struct {
	Coins      *merkletree.IncrementalTree
	Nullifiers *merkletree.SparseMerkleTree
}

// Validator runs the transaction pipeline against a store overlay.
type Validator struct {
	Runtime       *wasmvm.Runtime
	VKCache       *VerifyingKeyCache
	FeeContractID contract.ContractId
	logger        *log.Logger
}

// New returns a Validator wired to runtime, a fresh VerifyingKeyCache, and
// feeContractID as the one ContractId whose root call is accepted as the
// transaction's fee call.
func New(runtime *wasmvm.Runtime, feeContractID contract.ContractId) *Validator {
	return &Validator{
		Runtime:       runtime,
		VKCache:       NewVerifyingKeyCache(),
		FeeContractID: feeContractID,
		logger:        log.New(log.Writer(), "[Validator] ", log.LstdFlags),
	}
}

// ApplyTransaction runs the full eight-step pipeline against a nested
// overlay forked from parent: structural check, metadata pass, signature
// verification, proof verification, exec pass, update pass, fee check,
// commit. On any rejection the forked overlay is discarded and parent is
// left untouched; on success it is applied into parent and the
// accumulated GasData is returned.
func (v *Validator) ApplyTransaction(ctx context.Context, parent *store.BlockchainOverlay, trees Trees, tx txn.Transaction) (*GasData, error) {
	correlationID := uuid.New()
	v.logf("tx %s: applying %d call(s)", correlationID, len(tx.Calls))

	if err := tx.WellFormed(v.FeeContractID); err != nil {
		v.logf("tx %s: rejected at structural check: %v", correlationID, err)
		return nil, reject(RejectionMalformed, err)
	}

	overlay := parent.Fork()
	gas := &GasData{}

	metadatas, err := v.runMetadataPass(ctx, overlay, trees, tx, gas)
	if err != nil {
		_ = overlay.Discard()
		v.logf("tx %s: rejected at metadata pass: %v", correlationID, err)
		return nil, err
	}

	signingMessage, err := tx.SigningMessage()
	if err != nil {
		_ = overlay.Discard()
		return nil, reject(RejectionMalformed, err)
	}
	if err := v.verifySignatures(tx, metadatas, signingMessage, gas); err != nil {
		_ = overlay.Discard()
		v.logf("tx %s: rejected at signature verification: %v", correlationID, err)
		return nil, err
	}

	if err := v.verifyProofs(overlay, tx, metadatas, gas); err != nil {
		_ = overlay.Discard()
		v.logf("tx %s: rejected at proof verification: %v", correlationID, err)
		return nil, err
	}

	updates, err := v.runExecPass(ctx, overlay, trees, tx, gas)
	if err != nil {
		_ = overlay.Discard()
		v.logf("tx %s: rejected at exec pass: %v", correlationID, err)
		return nil, err
	}

	if err := v.runUpdatePass(ctx, overlay, trees, tx, updates, gas); err != nil {
		_ = overlay.Discard()
		v.logf("tx %s: rejected at update pass: %v", correlationID, err)
		return nil, err
	}

	paid, err := feePaid(tx, v.FeeContractID, updates)
	if err != nil {
		_ = overlay.Discard()
		return nil, reject(RejectionMalformed, err)
	}
	gas.Paid = paid
	if gas.Paid < ComputeFee(gas.TotalGasUsed()) {
		_ = overlay.Discard()
		v.logf("tx %s: rejected for insufficient fee: paid %d, required %d", correlationID, gas.Paid, ComputeFee(gas.TotalGasUsed()))
		return nil, reject(RejectionInsufficientFee, fmt.Errorf("paid %d, required %d", gas.Paid, ComputeFee(gas.TotalGasUsed())))
	}

	if err := overlay.Apply(); err != nil {
		return nil, err
	}
	v.logf("tx %s: committed, gas used %d, paid %d", correlationID, gas.TotalGasUsed(), gas.Paid)
	return gas, nil
}

// logf writes a correlation-tagged line through the Validator's logger. A
// nil logger (a Validator built by literal rather than New, as in tests) is
// silently skipped rather than panicking.
func (v *Validator) logf(format string, args ...any) {
	if v.logger == nil {
		return
	}
	v.logger.Printf(format, args...)
}

func (v *Validator) runMetadataPass(ctx context.Context, overlay *store.BlockchainOverlay, trees Trees, tx txn.Transaction, gas *GasData) ([]CallMetadata, error) {
	metadatas := make([]CallMetadata, len(tx.Calls))
	for i, leaf := range tx.Calls {
		wasmBytes, err := store.NewContractDb(overlay, leaf.Data.ContractID).GetWasm()
		if err != nil {
			return nil, reject(RejectionMetadataFailed, err)
		}
		argPayload, err := encodeExecArgs(tx, uint64(i))
		if err != nil {
			return nil, reject(RejectionMetadataFailed, err)
		}
		inv, err := v.Runtime.Invoke(ctx, wasmBytes, wasmvm.InvokeArgs{
			Section:    wasmvm.SectionMetadata,
			Export:     contract.ExportMetadata,
			ArgPayload: argPayload,
			GasLimit:   DefaultCallGasLimit,
			Db:         store.NewContractDb(overlay, leaf.Data.ContractID),
			Tree:       trees.Coins,
			SMT:        trees.Nullifiers,
			CallIdx:    uint64(i),
		})
		if err != nil || inv.ErrorCode != contract.Success {
			return nil, reject(RejectionMetadataFailed, fmt.Errorf("call %d: %v (code %s)", i, err, errCodeOf(inv)))
		}
		md, err := DecodeMetadata(inv.ReturnData)
		if err != nil {
			return nil, reject(RejectionMetadataFailed, err)
		}
		metadatas[i] = md
		gas.Wasm = addSaturating(gas.Wasm, addSaturating(inv.GasUsed, uint64(len(inv.ReturnData))))
	}
	return metadatas, nil
}

func (v *Validator) verifySignatures(tx txn.Transaction, metadatas []CallMetadata, signingMessage []byte, gas *GasData) error {
	for i, md := range metadatas {
		sigs := tx.Signatures[i]
		if len(sigs) != len(md.SignerKeys) {
			return reject(RejectionSignatureMismatch, fmt.Errorf("call %d: have %d signatures, want %d", i, len(sigs), len(md.SignerKeys)))
		}
		for j, key := range md.SignerKeys {
			if !crypto.Verify(key, signingMessage, sigs[j]) {
				return reject(RejectionSignatureInvalid, fmt.Errorf("call %d signature %d", i, j))
			}
			gas.Signatures = addSaturating(gas.Signatures, PallasSchnorrSignatureFee)
		}
	}
	return nil
}

func (v *Validator) verifyProofs(overlay *store.BlockchainOverlay, tx txn.Transaction, metadatas []CallMetadata, gas *GasData) error {
	for i, md := range metadatas {
		proofs := tx.Proofs[i]
		if len(proofs) != len(md.ProofReqs) {
			return reject(RejectionProofMismatch, fmt.Errorf("call %d: have %d proofs, want %d", i, len(proofs), len(md.ProofReqs)))
		}
		contractID := tx.Calls[i].Data.ContractID
		cdb := store.NewContractDb(overlay, contractID)
		for j, req := range md.ProofReqs {
			bincode, err := cdb.GetZkas(req.Namespace)
			if err != nil {
				return reject(RejectionVerifyingKeyMissing, fmt.Errorf("call %d circuit %q: %w", i, req.Namespace, ErrVerifyingKeyMissing))
			}
			vk, circuitGas, err := v.VKCache.Get(contractID, req.Namespace, bincode)
			if err != nil {
				return reject(RejectionVerifyingKeyMissing, err)
			}
			proof := proofs[j]
			if err := proof.Verify(vk, req.PublicInputs); err != nil {
				return reject(RejectionProofInvalid, fmt.Errorf("call %d proof %d: %w", i, j, err))
			}
			gas.ZkCircuits = addSaturating(gas.ZkCircuits, circuitGas)
		}
	}
	return nil
}

func (v *Validator) runExecPass(ctx context.Context, overlay *store.BlockchainOverlay, trees Trees, tx txn.Transaction, gas *GasData) ([][]byte, error) {
	updates := make([][]byte, len(tx.Calls))
	for i, leaf := range tx.Calls {
		wasmBytes, err := store.NewContractDb(overlay, leaf.Data.ContractID).GetWasm()
		if err != nil {
			return nil, reject(RejectionExecFailed, err)
		}
		argPayload, err := encodeExecArgs(tx, uint64(i))
		if err != nil {
			return nil, reject(RejectionExecFailed, err)
		}
		inv, err := v.Runtime.Invoke(ctx, wasmBytes, wasmvm.InvokeArgs{
			Section:    wasmvm.SectionExec,
			Export:     contract.ExportEntrypoint,
			ArgPayload: argPayload,
			GasLimit:   DefaultCallGasLimit,
			Db:         store.NewContractDb(overlay, leaf.Data.ContractID),
			Tree:       trees.Coins,
			SMT:        trees.Nullifiers,
			CallIdx:    uint64(i),
		})
		if err != nil || inv.ErrorCode != contract.Success {
			return nil, reject(RejectionExecFailed, fmt.Errorf("call %d: %v (code %s)", i, err, errCodeOf(inv)))
		}
		updates[i] = inv.ReturnData
		gas.Wasm = addSaturating(gas.Wasm, inv.GasUsed)
	}
	return updates, nil
}

func (v *Validator) runUpdatePass(ctx context.Context, overlay *store.BlockchainOverlay, trees Trees, tx txn.Transaction, updates [][]byte, gas *GasData) error {
	for i, leaf := range tx.Calls {
		wasmBytes, err := store.NewContractDb(overlay, leaf.Data.ContractID).GetWasm()
		if err != nil {
			return reject(RejectionUpdateFailed, err)
		}
		var argPayload bytes.Buffer
		if err := wasmvm.EncodeUpdateArgs(&argPayload, wasmvm.UpdateArgs{
			ContractID: leaf.Data.ContractID,
			UpdateData: updates[i],
		}); err != nil {
			return reject(RejectionUpdateFailed, err)
		}
		inv, err := v.Runtime.Invoke(ctx, wasmBytes, wasmvm.InvokeArgs{
			Section:    wasmvm.SectionUpdate,
			Export:     contract.ExportUpdate,
			ArgPayload: argPayload.Bytes(),
			GasLimit:   DefaultCallGasLimit,
			Db:         store.NewContractDb(overlay, leaf.Data.ContractID),
			Tree:       trees.Coins,
			SMT:        trees.Nullifiers,
			CallIdx:    uint64(i),
		})
		if err != nil || inv.ErrorCode != contract.Success {
			return reject(RejectionUpdateFailed, fmt.Errorf("call %d: %v (code %s)", i, err, errCodeOf(inv)))
		}
		gas.Wasm = addSaturating(gas.Wasm, addSaturating(inv.GasUsed, uint64(len(updates[i]))))
	}
	return nil
}

// feePaid extracts the amount declared paid by the transaction's fee
// call: its __entrypoint update blob is a bare little-endian uint64 (the
// fee contract has nothing else to report).
func feePaid(tx txn.Transaction, feeContractID contract.ContractId, updates [][]byte) (uint64, error) {
	for i, leaf := range tx.Calls {
		if leaf.IsRoot() && txn.IsFeeCall(leaf.Data, feeContractID) {
			return serialize.DecodeUint64(bytes.NewReader(updates[i]))
		}
	}
	return 0, fmt.Errorf("validator: no fee call found")
}

func encodeExecArgs(tx txn.Transaction, callIdx uint64) ([]byte, error) {
	var buf bytes.Buffer
	if err := wasmvm.EncodeExecArgs(&buf, wasmvm.ExecArgs{Calls: tx.Calls, CallIdx: callIdx}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func errCodeOf(inv *wasmvm.Invocation) contract.ErrorCode {
	if inv == nil {
		return contract.ErrOutOfGas
	}
	return inv.ErrorCode
}
