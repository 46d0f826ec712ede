package wasmvm

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/darkfi-core/engine/pkg/contract"
	"github.com/darkfi-core/engine/pkg/merkletree"
	"github.com/darkfi-core/engine/pkg/store"
)

// Runtime instantiates contract modules with a single-pass (interpreter)
// compiler, with SIMD and bulk-memory operations disabled and threads not
// enabled. Floating-point instructions are not rejected. No clock is wired
// to any host import, so a guest
// that reaches for wall-clock time traps instead of observing node-local
// skew.
type Runtime struct {
	rt wazero.Runtime
}

// NewRuntime builds a fresh Runtime. Callers should keep one around per
// validator process and reuse it across invocations; compiled modules are
// cached internally by wazero's own CompileModule.
func NewRuntime(ctx context.Context) *Runtime {
	cfg := wazero.NewRuntimeConfigInterpreter().
		WithCoreFeatures(api.CoreFeaturesV2 &^ (api.CoreFeatureSIMD | api.CoreFeatureBulkMemoryOperations))
	return &Runtime{rt: wazero.NewRuntimeWithConfig(ctx, cfg)}
}

// Close releases the underlying wazero runtime and every module compiled
// against it.
func (r *Runtime) Close(ctx context.Context) error { return r.rt.Close(ctx) }

// Invocation is the result of one guest export call.
type Invocation struct {
	ErrorCode  contract.ErrorCode
	ReturnData []byte
	GasUsed    uint64
}

// InvokeArgs bundles everything one export call needs beyond the compiled
// module itself.
type InvokeArgs struct {
	Section    Section
	Export     string
	ArgPayload []byte
	GasLimit   uint64
	Db         *store.ContractDb
	Tree       *merkletree.IncrementalTree
	SMT        *merkletree.SparseMerkleTree
	CallIdx    uint64
}

// Invoke instantiates wasmBytes fresh, registers the host module scoped to
// args.Section, and calls args.Export with args.ArgPayload written into a
// guest-allocated buffer.
//
// The module is instantiated from scratch on every call rather than kept
// resident: contract state only ever changes through the host calls
// above, so there is nothing about instance reuse worth the bookkeeping,
// and a fresh instance can't leak state between sections or transactions.
func (r *Runtime) Invoke(ctx context.Context, wasmBytes []byte, args InvokeArgs) (*Invocation, error) {
	gas := NewGasMeter(args.GasLimit)
	hc := newHostContext(args.Section, gas, args.Db, args.Tree, args.SMT, args.CallIdx)

	hostBuilder := r.rt.NewHostModuleBuilder("env")
	for name, fn := range hc.hostTable() {
		fn := fn
		hostBuilder.NewFunctionBuilder().
			WithFunc(func(ctx context.Context, mod api.Module, argPtr, argLen, outPtr, outCap uint32) int64 {
				return fn(hc, mod, argPtr, argLen, outPtr, outCap)
			}).
			Export(name)
	}
	hostModule, err := hostBuilder.Instantiate(ctx)
	if err != nil {
		return nil, fmt.Errorf("instantiate host module: %w", err)
	}
	defer hostModule.Close(ctx)

	compiled, err := r.rt.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, fmt.Errorf("compile guest module: %w", err)
	}
	defer compiled.Close(ctx)

	if err := checkRequiredExports(compiled); err != nil {
		return nil, err
	}

	guest, err := r.rt.InstantiateModule(ctx, compiled, wazero.NewModuleConfig())
	if err != nil {
		return nil, fmt.Errorf("instantiate guest module: %w", err)
	}
	defer guest.Close(ctx)

	argPtr, err := writeArgPayload(ctx, guest, args.ArgPayload)
	if err != nil {
		return nil, fmt.Errorf("write argument payload: %w", err)
	}

	fn := guest.ExportedFunction(args.Export)
	if fn == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingExport, args.Export)
	}

	results, err := fn.Call(ctx, uint64(argPtr))
	if err != nil {
		return &Invocation{ErrorCode: contract.ErrOutOfGas, GasUsed: gas.Used()}, fmt.Errorf("call %s: %w", args.Export, err)
	}

	return &Invocation{
		ErrorCode:  contract.ErrorCode(int64(results[0])),
		ReturnData: hc.returnData,
		GasUsed:    gas.Used(),
	}, nil
}

// VerifyExports compiles wasmBytes and checks that it exports the five
// required ABI surfaces, without instantiating or running anything. Used
// by deployment to reject a module before __initialize ever runs against
// real state.
func (r *Runtime) VerifyExports(ctx context.Context, wasmBytes []byte) error {
	compiled, err := r.rt.CompileModule(ctx, wasmBytes)
	if err != nil {
		return fmt.Errorf("compile guest module: %w", err)
	}
	defer compiled.Close(ctx)
	return checkRequiredExports(compiled)
}

func checkRequiredExports(compiled wazero.CompiledModule) error {
	required := []string{
		contract.ExportMemory,
		contract.ExportInitialize,
		contract.ExportEntrypoint,
		contract.ExportUpdate,
		contract.ExportMetadata,
	}
	exported := compiled.ExportedFunctions()
	exportedMemories := compiled.ExportedMemories()
	for _, name := range required {
		if name == contract.ExportMemory {
			if _, ok := exportedMemories[name]; !ok {
				return fmt.Errorf("%w: %s", ErrMissingExport, name)
			}
			continue
		}
		if _, ok := exported[name]; !ok {
			return fmt.Errorf("%w: %s", ErrMissingExport, name)
		}
	}
	return nil
}

// writeArgPayload grows the guest's memory if needed and writes payload at
// its current end, returning the pointer the guest export should be
// called with. Contracts are expected to size their initial memory with
// enough headroom for their own argument, or export a grow hook; the
// common case (a call forest plus a handful of fields) comfortably fits
// one page.
func writeArgPayload(ctx context.Context, guest api.Module, payload []byte) (uint32, error) {
	mem := guest.Memory()
	size := mem.Size()
	pagesNeeded := (uint32(len(payload)) + 65535) / 65536
	if pagesNeeded > 0 {
		if _, ok := mem.Grow(pagesNeeded); !ok {
			return 0, fmt.Errorf("grow guest memory by %d pages", pagesNeeded)
		}
	}
	if !mem.Write(size, payload) {
		return 0, ErrGuestMemory
	}
	return size, nil
}
