// Package runtime implements the versioned runtime cache: it maps
// (execution method, code hash) to a cached, already-versioned wasm guest
// instance, rebuilding only when the guest code or its heap-pages
// configuration changes.
package runtime

import "github.com/nodalchain/core/pkg/chainhash"

// ExecutionMethod selects which concrete engine backs an instance. Compiled
// stands in for an ahead-of-time engine; this module does not ship one but
// keeps the tag so callers can route through the same cache key shape
// either way.
type ExecutionMethod int

const (
	// Interpreted runs the guest through a bytecode interpreter.
	Interpreted ExecutionMethod = iota
	// Compiled runs the guest through an ahead-of-time compiled engine.
	Compiled
)

func (m ExecutionMethod) String() string {
	switch m {
	case Interpreted:
		return "interpreted"
	case Compiled:
		return "compiled"
	default:
		return "unknown"
	}
}

// cacheKey identifies one cache slot.
type cacheKey struct {
	method   ExecutionMethod
	codeHash chainhash.Hash
}

// RuntimeVersion is the decoded result of a Core_version call: the guest's
// self-reported identity and capability list.
type RuntimeVersion struct {
	SpecName         string
	ImplName         string
	AuthoringVersion uint32
	SpecVersion      uint32
	ImplVersion      uint32
	APIs             []APIEntry
}

// APIEntry is one (api id, version) pair reported by Core_version.
type APIEntry struct {
	ID      [8]byte
	Version uint32
}

// Equal reports whether two versions are bit-equal, used by tests to assert
// fetch idempotence.
func (v RuntimeVersion) Equal(other RuntimeVersion) bool {
	if v.SpecName != other.SpecName || v.ImplName != other.ImplName ||
		v.AuthoringVersion != other.AuthoringVersion ||
		v.SpecVersion != other.SpecVersion || v.ImplVersion != other.ImplVersion ||
		len(v.APIs) != len(other.APIs) {
		return false
	}
	for i := range v.APIs {
		if v.APIs[i] != other.APIs[i] {
			return false
		}
	}
	return true
}

// VersionedRuntime owns one guest instance plus its decoded version record.
// It is never exposed to callers before the version probe has succeeded.
type VersionedRuntime struct {
	Instance Instance
	Version  RuntimeVersion
	CodeHash chainhash.Hash
}

// cachedEntry is either a successful VersionedRuntime or a recorded build
// error; exactly one of the two is non-nil.
type cachedEntry struct {
	runtime *VersionedRuntime
	err     *Error
}
