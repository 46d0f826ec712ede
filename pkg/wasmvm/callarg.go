package wasmvm

import (
	"io"

	"github.com/darkfi-core/engine/pkg/contract"
	"github.com/darkfi-core/engine/pkg/crypto"
	"github.com/darkfi-core/engine/pkg/serialize"
)

// ExecArgs is the argument bundle a guest's __entrypoint/__metadata/__update
// export receives: the transaction's full call forest plus the index of the
// call currently executing.
type ExecArgs struct {
	Calls   []contract.DarkLeaf[contract.ContractCall]
	CallIdx uint64
}

// EncodeExecArgs writes a's canonical encoding, the i32-pointer payload a
// guest's Exec/Metadata/Update export is handed.
func EncodeExecArgs(w io.Writer, a ExecArgs) error {
	if err := serialize.EncodeSlice(w, a.Calls, encodeCallLeaf); err != nil {
		return err
	}
	return serialize.EncodeUint64(w, a.CallIdx)
}

// DecodeExecArgs reads an ExecArgs written by EncodeExecArgs.
func DecodeExecArgs(r io.Reader) (ExecArgs, error) {
	calls, err := serialize.DecodeSlice(r, decodeCallLeaf)
	if err != nil {
		return ExecArgs{}, err
	}
	idx, err := serialize.DecodeUint64(r)
	if err != nil {
		return ExecArgs{}, err
	}
	return ExecArgs{Calls: calls, CallIdx: idx}, nil
}

func encodeCallLeaf(w io.Writer, leaf contract.DarkLeaf[contract.ContractCall]) error {
	return contract.EncodeDarkLeaf(w, leaf, contract.EncodeContractCall)
}

func decodeCallLeaf(r io.Reader) (contract.DarkLeaf[contract.ContractCall], error) {
	return contract.DecodeDarkLeaf(r, contract.DecodeContractCall)
}

// DeployArgs is the argument bundle a guest's __initialize export receives.
type DeployArgs struct {
	ContractID contract.ContractId
	Payload    []byte
}

// EncodeDeployArgs writes a's canonical encoding.
func EncodeDeployArgs(w io.Writer, a DeployArgs) error {
	idBytes := a.ContractID.Bytes()
	if err := serialize.EncodeFixed(w, idBytes[:]); err != nil {
		return err
	}
	return serialize.EncodeBytes(w, a.Payload)
}

// DecodeDeployArgs reads a DeployArgs written by EncodeDeployArgs.
func DecodeDeployArgs(r io.Reader) (DeployArgs, error) {
	var idBytes [32]byte
	if err := serialize.DecodeFixed(r, idBytes[:]); err != nil {
		return DeployArgs{}, err
	}
	base, err := crypto.BaseFromCanonicalBytes(idBytes)
	if err != nil {
		return DeployArgs{}, err
	}
	payload, err := serialize.DecodeBytes(r)
	if err != nil {
		return DeployArgs{}, err
	}
	return DeployArgs{ContractID: contract.ContractId(base), Payload: payload}, nil
}

// UpdateArgs is the argument bundle a guest's __update export receives:
// the update blob its own __entrypoint produced, replayed against the
// Update section.
type UpdateArgs struct {
	ContractID contract.ContractId
	UpdateData []byte
}

// EncodeUpdateArgs writes a's canonical encoding. Same wire shape as
// DeployArgs (a ContractId followed by a byte blob) but kept as a
// distinct type since the two exports' arguments mean different things.
func EncodeUpdateArgs(w io.Writer, a UpdateArgs) error {
	idBytes := a.ContractID.Bytes()
	if err := serialize.EncodeFixed(w, idBytes[:]); err != nil {
		return err
	}
	return serialize.EncodeBytes(w, a.UpdateData)
}

// DecodeUpdateArgs reads an UpdateArgs written by EncodeUpdateArgs.
func DecodeUpdateArgs(r io.Reader) (UpdateArgs, error) {
	var idBytes [32]byte
	if err := serialize.DecodeFixed(r, idBytes[:]); err != nil {
		return UpdateArgs{}, err
	}
	base, err := crypto.BaseFromCanonicalBytes(idBytes)
	if err != nil {
		return UpdateArgs{}, err
	}
	data, err := serialize.DecodeBytes(r)
	if err != nil {
		return UpdateArgs{}, err
	}
	return UpdateArgs{ContractID: contract.ContractId(base), UpdateData: data}, nil
}
