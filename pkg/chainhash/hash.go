// Package chainhash holds the small value types shared by the runtime cache
// and the block collection: content hashes and block heights.
package chainhash

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Size is the length in bytes of a Hash.
const Size = 32

// Hash is a 32-byte content hash, used as a code hash and anywhere else the
// module needs a fixed-size content identifier.
type Hash [Size]byte

// Sum returns the Hash of data.
func Sum(data []byte) Hash {
	return Hash(sha256.Sum256(data))
}

// String returns the lowercase hex encoding of the hash.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// IsZero reports whether h is the zero hash.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// MarshalJSON implements json.Marshaler.
func (h Hash) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (h *Hash) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("chainhash: invalid hex: %w", err)
	}
	if len(decoded) != Size {
		return fmt.Errorf("chainhash: expected %d bytes, got %d", Size, len(decoded))
	}
	copy(h[:], decoded)
	return nil
}

// Height is a monotonic block number. Heights are 1-indexed; height 0 is
// reserved to mean "genesis" / "no common ancestor" where callers need it.
type Height uint64
