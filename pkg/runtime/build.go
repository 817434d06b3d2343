package runtime

import (
	"encoding/binary"

	"github.com/nodalchain/core/pkg/chainhash"
	"github.com/nodalchain/core/pkg/wasmerr"
)

const coreVersionMethod = "Core_version"

// decodeHeapPages decodes the little-endian u64 stored at :heappages. On
// absence or malformed data it falls back to defaultHeapPages.
func decodeHeapPages(ext Externalities, defaultHeapPages uint64) uint64 {
	raw, ok := ext.OriginalStorage([]byte(KeyHeapPages))
	if !ok || len(raw) != 8 {
		return defaultHeapPages
	}
	return binary.LittleEndian.Uint64(raw)
}

// buildRuntime instantiates code through engine at the given heap-page
// count and runs the version probe inside a panic-safe boundary.
func buildRuntime(engine Engine, ext Externalities, code []byte, codeHash chainhash.Hash, heapPages uint64) (*VersionedRuntime, *Error) {
	instance, err := engine.CreateInstance(code, heapPages)
	if err != nil {
		return nil, mapEngineError(err)
	}

	result, callErr := SafeCall(
		"panic in call to get runtime version",
		func() ([]byte, error) {
			return instance.Call(ext, coreVersionMethod, nil)
		},
	)
	if callErr != nil {
		return nil, newInstantiation(callErr.Error())
	}

	version, decodeErr := decodeVersion(result)
	if decodeErr != nil {
		return nil, newInstantiation("failed to decode Core_version result")
	}

	return &VersionedRuntime{
		Instance: instance,
		Version:  version,
		CodeHash: codeHash,
	}, nil
}

// mapEngineError re-maps a *wasmerr.WasmError produced by the engine
// adapter into the cache's own error taxonomy.
func mapEngineError(err error) *Error {
	wasmErr, ok := err.(*wasmerr.WasmError)
	if !ok {
		return newInvalidCode("%v", err)
	}
	switch wasmErr.Kind {
	case wasmerr.KindInvalidMemoryReference:
		return newInvalidMemoryReference(wasmErr.Message)
	case wasmerr.KindInstantiation:
		return newInstantiation(wasmErr.Message)
	default:
		return newInvalidCode("%s", wasmErr.Message)
	}
}
