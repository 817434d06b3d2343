package runtime

// Engine is the capability the cache consumes to turn guest bytecode into a
// running Instance. The concrete implementation lives in pkg/wasmengine,
// wrapping github.com/tetratelabs/wazero.
type Engine interface {
	// CreateInstance instantiates code with the given heap-page count.
	// Returns a *wasmerr.WasmError on failure.
	CreateInstance(code []byte, heapPages uint64) (Instance, error)
}

// Instance is one running guest module. A cache entry owns exactly one
// Instance for its lifetime (until rebuilt or invalidated).
type Instance interface {
	// UpdateHeapPages applies a new heap-page count in place. Returns
	// true if the value is unchanged or was applied; false if the
	// instance must be rebuilt. Must always return true when pages
	// equals the instance's current configuration.
	UpdateHeapPages(pages uint64) bool

	// Call invokes method with argument, after resetting guest-mutable
	// memory to the snapshot captured at instantiation. externalities is
	// threaded through so the guest can read chain state during the
	// call; it is not used by the version probe.
	Call(ext Externalities, method string, argument []byte) ([]byte, error)
}
