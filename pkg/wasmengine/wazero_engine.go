// Package wasmengine adapts github.com/tetratelabs/wazero to the
// runtime.Engine/runtime.Instance interfaces. It is the "interpreter"
// ExecutionMethod's concrete engine; the module carries no second,
// ahead-of-time engine — only the interface shape is exercised, by a test
// double.
//
// Modeled on ChainSafe Gossamer's wazero-backed runtime.Instance
// (lib/runtime/wazero/instance.go): the exported-memory requirement and
// the ptr/len calling convention for guest entry points follow that
// shape.
package wasmengine

import (
	"context"
	"fmt"
	"sync"

	"github.com/nodalchain/core/pkg/runtime"
	"github.com/nodalchain/core/pkg/wasmerr"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// pageSize is the wasm linear memory page size (64 KiB), matching the
// GLOSSARY's "Heap pages" definition.
const pageSize = 64 * 1024

// Engine instantiates guest modules through a shared wazero runtime.
type Engine struct {
	ctx context.Context
	rt  wazero.Runtime
}

// New creates an Engine bound to ctx for the lifetime of every instance it
// creates. Host imports (storage/crypto/hashing externs) are intentionally
// omitted here: CreateInstance fails with CodeNotFound-style wasmerr if
// the guest imports something this engine does not provide.
func New(ctx context.Context) *Engine {
	return &Engine{ctx: ctx, rt: wazero.NewRuntime(ctx)}
}

// Close releases the underlying wazero runtime and every instance it built.
func (e *Engine) Close() error {
	return e.rt.Close(e.ctx)
}

// CreateInstance implements runtime.Engine.
func (e *Engine) CreateInstance(code []byte, heapPages uint64) (runtime.Instance, error) {
	mod, err := e.rt.Instantiate(e.ctx, code)
	if err != nil {
		return nil, wasmerr.CodeNotFound(fmt.Sprintf("instantiate: %v", err))
	}

	mem := mod.Memory()
	if mem == nil {
		return nil, wasmerr.InvalidMemoryReference("no memory export")
	}

	maxPages, maxOK := mem.Definition().Maximum()
	if !maxOK {
		maxPages = uint32(heapPages)
	}

	snapshot, ok := mem.Read(0, mem.Size())
	if !ok {
		return nil, wasmerr.InvalidMemoryReference("failed to snapshot initial memory")
	}
	initial := make([]byte, len(snapshot))
	copy(initial, snapshot)

	return &Instance{
		ctx:           e.ctx,
		module:        mod,
		heapPages:     heapPages,
		maxPages:      uint64(maxPages),
		initialMemory: initial,
	}, nil
}

// Instance is one running guest module backed by a wazero api.Module.
type Instance struct {
	mu            sync.Mutex
	ctx           context.Context
	module        api.Module
	heapPages     uint64
	maxPages      uint64
	initialMemory []byte
}

// UpdateHeapPages implements runtime.Instance. wazero modules declare their
// maximum memory size at instantiation time, so an in-place update is
// possible exactly when the requested page count does not exceed that
// ceiling; otherwise the caller must rebuild against a larger ceiling.
func (i *Instance) UpdateHeapPages(pages uint64) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	if pages == i.heapPages {
		return true
	}
	if pages > i.maxPages {
		return false
	}
	i.heapPages = pages
	return true
}

// Call implements runtime.Instance. Guest-mutable memory is reset to the
// snapshot captured at instantiation before every call, so successive calls
// never observe state left over from a previous one.
func (i *Instance) Call(ext runtime.Externalities, method string, argument []byte) ([]byte, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	mem := i.module.Memory()
	if mem == nil {
		return nil, fmt.Errorf("no memory export")
	}
	if !mem.Write(0, i.initialMemory) {
		return nil, fmt.Errorf("failed to reset guest memory")
	}

	fn := i.module.ExportedFunction(method)
	if fn == nil {
		return nil, fmt.Errorf("export function not found: %s", method)
	}

	inputPtr := uint32(len(i.initialMemory))
	if !mem.Write(inputPtr, argument) {
		return nil, fmt.Errorf("failed to write call argument")
	}

	values, err := fn.Call(i.ctx, api.EncodeU32(inputPtr), api.EncodeU32(uint32(len(argument))))
	if err != nil {
		return nil, wasmerr.InstantiationWrap(fmt.Sprintf("calling %s", method), err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("no returned values from %s", method)
	}

	outputPtr, outputLen := splitPointerSize(values[0])
	result, ok := mem.Read(outputPtr, outputLen)
	if !ok {
		return nil, fmt.Errorf("failed to read call result")
	}
	out := make([]byte, len(result))
	copy(out, result)
	return out, nil
}

// splitPointerSize decodes wazero's conventional (ptr, len) packed i64
// return value: low 32 bits are the pointer, high 32 bits are the length.
func splitPointerSize(packed uint64) (ptr, size uint32) {
	return uint32(packed), uint32(packed >> 32)
}
