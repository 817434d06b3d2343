// Package blockqueue schedules peer-sharded block-range downloads. A
// Collection maps block height to range state the way a sync loop sees it:
// a window is either still Downloading (with some number of redundant
// peers assigned to it) or Complete (the blocks have arrived and are
// waiting to be drained for import).
package blockqueue

import (
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/nodalchain/core/pkg/chainhash"
)

// PeerID identifies the peer a block or reservation came from. libp2p's
// peer.ID is the concrete type the rest of this module's networking code
// uses, so blockqueue borrows it directly instead of defining its own.
type PeerID = peer.ID

// Height is a monotonic, 1-indexed block number.
type Height = chainhash.Height

// BlockData is one received block plus the peer it arrived from. Origin is
// nil for a locally injected block.
type BlockData struct {
	Height  Height
	Payload []byte
	Origin  *PeerID
}

// RangeState is the tagged variant stored per range start: either
// Downloading or Complete. It is sealed to this package so Collection's
// invariants (a Downloading range always has at least one active peer)
// cannot be violated from outside.
type RangeState interface {
	length() uint64
	isRangeState()
}

// Downloading means a contiguous window of Len heights is outstanding,
// with ActivePeers redundant requests in flight for it. ActivePeers is
// never observed as zero: ClearPeerDownload removes the range instead of
// leaving it at zero.
type Downloading struct {
	Len         uint64
	ActivePeers int
}

func (d Downloading) length() uint64 { return d.Len }
func (Downloading) isRangeState()    {}

// Complete means the blocks for this window have all arrived, ordered by
// ascending height, and are waiting to be drained.
type Complete struct {
	Blocks []BlockData
}

func (c Complete) length() uint64 { return uint64(len(c.Blocks)) }
func (Complete) isRangeState()    {}

// Range is a half-open height interval [Start, End).
type Range struct {
	Start Height
	End   Height
}

// Len reports the number of heights covered by r.
func (r Range) Len() uint64 {
	if r.End <= r.Start {
		return 0
	}
	return uint64(r.End - r.Start)
}
