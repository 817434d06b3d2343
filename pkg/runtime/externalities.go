package runtime

import "github.com/nodalchain/core/pkg/chainhash"

// Well-known storage keys the cache reads on every fetch.
const (
	KeyCode       = ":code"
	KeyHeapPages  = ":heappages"
)

// Externalities is the keyed-storage capability the cache borrows from the
// caller on every Fetch call. It is never owned by the cache. A concrete
// in-memory implementation lives in pkg/externalities; a real node backs
// this with its chain database trie instead.
type Externalities interface {
	// OriginalStorage returns the value at key prior to any in-flight
	// mutation. ok is false if the key is absent.
	OriginalStorage(key []byte) (value []byte, ok bool)
	// OriginalStorageHash returns the content hash of the value at key.
	// ok is false if the key is absent.
	OriginalStorageHash(key []byte) (hash chainhash.Hash, ok bool)
}
