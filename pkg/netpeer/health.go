// Package netpeer re-exports libp2p's peer.ID (the same type
// blockqueue.PeerID aliases), plus a small health tracker a syncing
// loop can use to decide when a peer's in-flight reservation should be
// released rather than waited out: a map[peer.ID]*metrics guarded by a
// single RWMutex, with a consecutive-failure counter driving eligibility.
package netpeer

import (
	"sync"
	"time"

	"github.com/libp2p/go-libp2p/core/peer"
)

// ID is the peer identity type used across this module.
type ID = peer.ID

// maxConsecutiveFailures is the point at which a peer is no longer
// considered healthy enough to assign new work to.
const maxConsecutiveFailures = 3

type metrics struct {
	consecutiveFailures int
	lastSeen            time.Time
}

// Tracker records per-peer request outcomes and reports whether a peer is
// currently healthy. It does not itself touch blockqueue state; callers
// combine Tracker.Healthy with blockqueue.Collection.ClearPeerDownload.
type Tracker struct {
	mu    sync.RWMutex
	peers map[ID]*metrics
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{peers: make(map[ID]*metrics)}
}

func (t *Tracker) entry(id ID) *metrics {
	if m, ok := t.peers[id]; ok {
		return m
	}
	m := &metrics{}
	t.peers[id] = m
	return m
}

// RecordSuccess clears id's failure streak.
func (t *Tracker) RecordSuccess(id ID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	m := t.entry(id)
	m.consecutiveFailures = 0
	m.lastSeen = time.Now()
}

// RecordFailure advances id's failure streak.
func (t *Tracker) RecordFailure(id ID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	m := t.entry(id)
	m.consecutiveFailures++
	m.lastSeen = time.Now()
}

// Healthy reports whether id's recent history qualifies it for new work.
// An unknown peer is healthy by default: it simply has no history yet.
func (t *Tracker) Healthy(id ID) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	m, ok := t.peers[id]
	if !ok {
		return true
	}
	return m.consecutiveFailures < maxConsecutiveFailures
}

// Forget drops id's history, for use on disconnect.
func (t *Tracker) Forget(id ID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.peers, id)
}
