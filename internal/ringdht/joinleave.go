package ringdht

import "dhtsim/internal/logger"

// Join attaches n to the ring that existing belongs to. A nil existing
// bootstraps n as the sole member of a fresh ring. On success against
// an existing ring, n best-effort pulls the keys it now owns from its
// new successor; a stored key whose identifier fails to parse is
// skipped silently. Join cost accounting happens one layer up, in
// Network.
func (n *Node) Join(existing *Node) {
	n.SetPredecessor(nil)
	if existing == nil {
		n.SetSuccessor(n)
		n.logger.Debug("joined as sole ring member")
		return
	}
	succ, _ := existing.FindSuccessor(n.id)
	n.SetSuccessor(succ)
	n.acquireKeysFromSuccessor()
	n.logger.Debug("joined ring", logger.FID("successor", succ.ID()))
}

// acquireKeysFromSuccessor pulls into n every key the successor holds
// that now belongs to n instead. This mirrors the conservative rule
// used while n has no predecessor yet: a key id is claimed only when
// id <= n.id (byte-wise), never when it wraps past the origin. That
// undercounts the keys n should own near the ring's wrap point — a
// known imprecision, kept intentionally rather than silently
// corrected (see DESIGN.md, Open Question (b)).
func (n *Node) acquireKeysFromSuccessor() {
	succ := n.Successor()
	if succ == n {
		return
	}
	succ.storeMu.Lock()
	defer succ.storeMu.Unlock()
	n.storeMu.Lock()
	defer n.storeMu.Unlock()

	for keyHex, resources := range succ.store {
		id, err := n.space.FromHexString(keyHex)
		if err != nil {
			continue
		}
		if id.Cmp(n.id) <= 0 {
			n.store[keyHex] = append(n.store[keyHex], resources...)
			delete(succ.store, keyHex)
		}
	}
}

// Leave removes n from the ring: every key n holds is handed to its
// successor, its predecessor and successor are relinked around it, and
// n is reset to a singleton ring of one. When n is its own successor
// (the last node), no keys move and its store is left as it is; only
// its pointers and fingers are reset.
func (n *Node) Leave() {
	succ := n.Successor()
	pred := n.Predecessor()

	if succ != n {
		succ.storeMu.Lock()
		n.storeMu.Lock()
		for keyHex, resources := range n.store {
			succ.store[keyHex] = append(succ.store[keyHex], resources...)
		}
		n.store = make(map[string][]Resource)
		n.storeMu.Unlock()
		succ.storeMu.Unlock()

		succ.SetPredecessor(pred)
		if pred != nil {
			pred.SetSuccessor(succ)
		}
	}

	n.SetSuccessor(n)
	n.SetPredecessor(nil)
	for i := 0; i < n.NumFingers(); i++ {
		n.SetFinger(i, nil)
	}
	n.logger.Debug("left ring")
}
