package blockqueue

// NeededBlocks selects the next contiguous window peer should fetch, given
// the peer's advertised best height, the caller's last common ancestor
// with that peer, and how many redundant requests a single range may
// carry. It returns (range, false) when the peer has nothing useful to
// offer past its own best height.
//
// The walk prefers joining an in-flight range before opening a new one,
// bounding speculative gap-fills by the next known range so they never
// overlap already-downloaded data.
func (c *Collection) NeededBlocks(peer PeerID, count uint64, peerBest Height, common Height, maxParallel int) (Range, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	first := common + 1
	candidate, priorActivePeers := c.selectCandidate(first, count, maxParallel)

	if candidate.Start > peerBest {
		return Range{}, false
	}
	if clampEnd := peerBest + 1; clampEnd < candidate.End {
		candidate.End = clampEnd
	}
	if candidate.End <= candidate.Start {
		abortf("needed_blocks: post-clamp empty range [%d,%d) for peer_best=%d common=%d",
			candidate.Start, candidate.End, peerBest, common)
	}

	c.peerRequests[peer] = candidate.Start
	c.blocks.ReplaceOrInsert(entry{
		start: candidate.Start,
		state: Downloading{Len: candidate.Len(), ActivePeers: priorActivePeers + 1},
	})
	return candidate, true
}

// selectCandidate runs the six-case selection scan, returning the
// tentative (pre-clamp) range and the ActivePeers count already reserved
// against it (0 unless the selection is a join of an existing
// Downloading range).
func (c *Collection) selectCandidate(first Height, count uint64, maxParallel int) (Range, int) {
	if c.blocks.Len() == 0 {
		// Case 4: empty collection.
		return Range{Start: first, End: first + Height(count)}, 0
	}

	smallest, _ := c.blocks.Min()
	if smallest.start > first {
		// Case 5: gap at the front.
		end := first + Height(count)
		if smallest.start < end {
			end = smallest.start
		}
		return Range{Start: first, End: end}, 0
	}

	var entries []entry
	c.blocks.AscendGreaterOrEqual(smallest, func(e entry) bool {
		entries = append(entries, e)
		return true
	})

	for i, cur := range entries {
		if downloading, ok := cur.state.(Downloading); ok && downloading.ActivePeers < maxParallel {
			// Case 1: join an existing in-flight range.
			return Range{Start: cur.start, End: cur.start + Height(downloading.length())}, downloading.ActivePeers
		}

		curEnd := cur.start + Height(cur.state.length())
		if i+1 < len(entries) {
			next := entries[i+1]
			if next.start > curEnd {
				// Case 2: fill the gap between this range and the next.
				end := curEnd + Height(count)
				if next.start < end {
					end = next.start
				}
				return Range{Start: curEnd, End: end}, 0
			}
			continue
		}

		// Case 3: extend past the last range.
		return Range{Start: curEnd, End: curEnd + Height(count)}, 0
	}

	// Unreachable: the loop above always returns on its final iteration.
	abortf("needed_blocks: selection scan fell through with a non-empty collection")
	return Range{}, 0
}
