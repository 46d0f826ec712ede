package validator

import (
	"bytes"
	"context"
	"fmt"

	"github.com/darkfi-core/engine/pkg/contract"
	"github.com/darkfi-core/engine/pkg/merkletree"
	"github.com/darkfi-core/engine/pkg/store"
	"github.com/darkfi-core/engine/pkg/wasmvm"
)

// Deploy runs a contract's deployment: opens a nested overlay, verifies
// wasmBincode exports the required ABI surface, refuses redeployment of a
// locked ContractId, invokes __initialize, and commits on success. The
// verifying-key cache is invalidated for contractID so a redeployed
// contract's circuits are rebuilt from whatever it calls zkas_db_set with
// this time.
func (v *Validator) Deploy(ctx context.Context, parent *store.BlockchainOverlay, contractID contract.ContractId, wasmBincode, payload []byte) (*GasData, error) {
	overlay := parent.Fork()
	cdb := store.NewContractDb(overlay, contractID)

	locked, err := cdb.IsLocked()
	if err != nil {
		_ = overlay.Discard()
		return nil, err
	}
	if locked {
		_ = overlay.Discard()
		return nil, reject(RejectionLockedContract, ErrContractLocked)
	}

	if err := v.Runtime.VerifyExports(ctx, wasmBincode); err != nil {
		_ = overlay.Discard()
		return nil, reject(RejectionDeployVerificationFailed, err)
	}

	gas := &GasData{}
	var argPayload bytes.Buffer
	if err := wasmvm.EncodeDeployArgs(&argPayload, wasmvm.DeployArgs{ContractID: contractID, Payload: payload}); err != nil {
		_ = overlay.Discard()
		return nil, err
	}

	inv, err := v.Runtime.Invoke(ctx, wasmBincode, wasmvm.InvokeArgs{
		Section:    wasmvm.SectionDeploy,
		Export:     contract.ExportInitialize,
		ArgPayload: argPayload.Bytes(),
		GasLimit:   DefaultCallGasLimit,
		Db:         cdb,
		Tree:       merkletree.NewIncrementalTree(),
		SMT:        merkletree.NewSparseMerkleTree(),
		CallIdx:    0,
	})
	if err != nil || inv.ErrorCode != contract.Success {
		_ = overlay.Discard()
		return nil, reject(RejectionDeployVerificationFailed, fmt.Errorf("__initialize: %v (code %s)", err, errCodeOf(inv)))
	}
	gas.Deployments = addSaturating(gas.Deployments, addSaturating(inv.GasUsed, uint64(len(wasmBincode))))

	if err := cdb.SetWasm(wasmBincode); err != nil {
		_ = overlay.Discard()
		return nil, err
	}

	if err := overlay.Apply(); err != nil {
		return nil, err
	}
	v.VKCache.Invalidate(contractID)
	return gas, nil
}
