package blockqueue

import (
	"fmt"
	"sync"

	"github.com/google/btree"
	"go.uber.org/zap"
)

// entry pairs a range's start height with its state for storage in the
// ordered blocks map. The btree orders entries by start alone, which is
// what the selection and drain walks depend on: a hash map would silently
// break gap detection.
type entry struct {
	start Height
	state RangeState
}

func lessEntry(a, b entry) bool { return a.start < b.start }

// Collection is the peer-sharded block-range download scheduler. The zero
// value is not usable; construct with NewCollection.
//
// Modeled on go-ethereum's downloader.Downloader: a single lock guarding a
// small set of maps, with total, no-op-on-unknown-input methods rather
// than returned errors for anything but a genuine contract violation.
type Collection struct {
	mu           sync.Mutex
	blocks       *btree.BTreeG[entry]
	peerRequests map[PeerID]Height
	log          *zap.Logger
}

// NewCollection creates an empty Collection. log may be nil, in which case
// diagnostics are discarded.
func NewCollection(log *zap.Logger) *Collection {
	if log == nil {
		log = zap.NewNop()
	}
	return &Collection{
		blocks:       btree.NewG(32, lessEntry),
		peerRequests: make(map[PeerID]Height),
		log:          log,
	}
}

// CollectionStats is a point-in-time snapshot for operator-facing metrics.
// It does not participate in any selection decision.
type CollectionStats struct {
	DownloadingRanges int
	CompleteRanges    int
	ReservedPeers     int
}

// Snapshot reports the current shape of the collection.
func (c *Collection) Snapshot() CollectionStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	var stats CollectionStats
	c.blocks.Ascend(func(e entry) bool {
		switch s := e.state.(type) {
		case Downloading:
			stats.DownloadingRanges++
			stats.ReservedPeers += s.ActivePeers
		case Complete:
			stats.CompleteRanges++
		}
		return true
	})
	return stats
}

// Clear drops all state: every range and every peer reservation.
func (c *Collection) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.blocks = btree.NewG(32, lessEntry)
	c.peerRequests = make(map[PeerID]Height)
}

// Insert deposits a contiguous, already-validated window of blocks
// starting at start, attributing each one to who. Empty input is ignored.
//
// It does not touch peer_requests or decrement the prior Downloading
// entry's ActivePeers at start; the caller is responsible for calling
// ClearPeerDownload for the delivering peer, before or after Insert. This
// split responsibility is a deliberate, preserved behavior (see
// DESIGN.md), not an oversight.
func (c *Collection) Insert(start Height, blocks []BlockData, who PeerID) {
	if len(blocks) == 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, found := c.blocks.Get(entry{start: start}); found {
		if complete, ok := existing.state.(Complete); ok && len(complete.Blocks) >= len(blocks) {
			return
		}
		if _, ok := existing.state.(Downloading); ok {
			c.log.Warn("insert: replacing an in-flight range with a completed one",
				zap.Uint64("start", uint64(start)),
				zap.Int("len", len(blocks)),
			)
		}
	}

	wrapped := make([]BlockData, len(blocks))
	for i, b := range blocks {
		origin := who
		wrapped[i] = BlockData{Height: b.Height, Payload: b.Payload, Origin: &origin}
	}
	c.blocks.ReplaceOrInsert(entry{start: start, state: Complete{Blocks: wrapped}})
}

// Drain walks blocks from the smallest key upward, collecting one strictly
// contiguous prefix of Complete ranges starting no later than from, and
// removes those ranges from the collection. from is typically the height
// of the last imported block, not +1: heights <= from are still included
// by the inclusive test below, which lets a slightly early window merge
// with the expected head.
func (c *Collection) Drain(from Height) []BlockData {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []BlockData
	var toRemove []Height
	prev := from

	c.blocks.Ascend(func(e entry) bool {
		complete, ok := e.state.(Complete)
		if !ok || e.start > prev {
			return false
		}
		out = append(out, complete.Blocks...)
		prev += Height(complete.length())
		toRemove = append(toRemove, e.start)
		return true
	})

	for _, start := range toRemove {
		c.blocks.Delete(entry{start: start})
	}
	return out
}

// ClearPeerDownload releases peer's in-flight reservation, for use on
// disconnect or timeout. If peer holds no reservation, this is a no-op.
func (c *Collection) ClearPeerDownload(peer PeerID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	start, ok := c.peerRequests[peer]
	if !ok {
		return
	}
	delete(c.peerRequests, peer)

	e, found := c.blocks.Get(entry{start: start})
	if !found {
		return
	}
	downloading, ok := e.state.(Downloading)
	if !ok {
		return
	}
	if downloading.ActivePeers > 1 {
		downloading.ActivePeers--
		c.blocks.ReplaceOrInsert(entry{start: start, state: downloading})
		return
	}
	c.blocks.Delete(entry{start: start})
}

// errContractViolation is used only as a panic value: a post-clamp empty
// range signals that the caller supplied peerBest < common, which it is
// required to prevent.
type errContractViolation struct{ msg string }

func (e errContractViolation) Error() string { return e.msg }

func abortf(format string, args ...interface{}) {
	panic(errContractViolation{msg: fmt.Sprintf(format, args...)})
}
