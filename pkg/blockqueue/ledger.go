package blockqueue

import "sync"

// peerAdvert is one peer's advertised sync position.
type peerAdvert struct {
	best   Height
	common Height
}

// PeerLedger tracks the scalar inputs NeededBlocks needs per peer
// (PeerBest, the advertised chain tip; Common, the last known common
// ancestor) but that the Collection itself does not own, since
// NeededBlocks takes them as caller-supplied arguments rather than state.
//
// Modeled on go-ethereum's downloader peerConnection bookkeeping
// (headBlock / currentHash kept outside the download queue itself).
type PeerLedger struct {
	mu    sync.RWMutex
	peers map[PeerID]peerAdvert
}

// NewPeerLedger creates an empty ledger.
func NewPeerLedger() *PeerLedger {
	return &PeerLedger{peers: make(map[PeerID]peerAdvert)}
}

// Update records peer's latest advertised best height and common ancestor.
func (l *PeerLedger) Update(peer PeerID, best, common Height) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.peers[peer] = peerAdvert{best: best, common: common}
}

// Get reports peer's last recorded best height and common ancestor. ok is
// false if the peer has never been recorded.
func (l *PeerLedger) Get(peer PeerID) (best Height, common Height, ok bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	a, found := l.peers[peer]
	return a.best, a.common, found
}

// Forget removes peer's entry, for use on disconnect.
func (l *PeerLedger) Forget(peer PeerID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.peers, peer)
}
