package ringdht

import (
	"dhtsim/internal/domain"
	"dhtsim/internal/logger"
)

// ClosestPrecedingFinger scans the finger table from the longest reach
// down to the shortest and returns the furthest known finger that
// still lies strictly between this node and key. It falls back to the
// node itself when no finger qualifies.
func (n *Node) ClosestPrecedingFinger(key domain.ID) *Node {
	for i := n.NumFingers() - 1; i >= 0; i-- {
		f := n.Finger(i)
		if f == nil {
			continue
		}
		if f.ID().BetweenExclusive(n.id, key) {
			return f
		}
	}
	return n
}

// FindPredecessor walks the ring toward key, one closest-preceding-
// finger hop at a time, and returns the node immediately preceding key
// together with the number of hops taken. The walk stops early if a
// step would revisit the current node — a malformed-ring safety net,
// never expected to trigger on a consistent topology.
func (n *Node) FindPredecessor(key domain.ID) (*Node, int) {
	node := n
	hops := 0
	for {
		succ := node.Successor()
		if key.Between(node.id, succ.ID()) {
			break
		}
		next := node.ClosestPrecedingFinger(key)
		if next == node {
			break
		}
		node = next
		hops++
	}
	return node, hops
}

// FindSuccessor returns the node responsible for key and the hop count
// to reach it (the FindPredecessor walk plus the final hop to its
// successor).
func (n *Node) FindSuccessor(key domain.ID) (*Node, int) {
	pred, hops := n.FindPredecessor(key)
	return pred.Successor(), hops + 1
}

// LookupWithHops is an alias for FindSuccessor kept for symmetry with
// the metrics-recording call sites in the Network orchestrator.
func (n *Node) LookupWithHops(key domain.ID) (*Node, int) {
	return n.FindSuccessor(key)
}

// Notify tells n that candidate believes it might be n's predecessor.
// n accepts it if it has no predecessor yet, or candidate lies
// strictly between the current predecessor and n.
func (n *Node) Notify(candidate *Node) {
	pred := n.Predecessor()
	if pred == nil || candidate.ID().BetweenExclusive(pred.ID(), n.id) {
		n.SetPredecessor(candidate)
		n.logger.Debug("predecessor updated via notify", logger.FID("predecessor", candidate.ID()))
	}
}

// Stabilize asks the successor for its predecessor and adopts it as
// this node's successor if it lies strictly between n and the current
// successor, then notifies the (possibly new) successor of n.
func (n *Node) Stabilize() {
	succ := n.Successor()
	x := succ.Predecessor()
	if x != nil && x.ID().BetweenExclusive(n.id, succ.ID()) {
		succ = x
		n.SetSuccessor(succ)
	}
	succ.Notify(n)
}

// FixFingers recomputes every finger table entry from scratch by
// looking up the successor of each row's start identifier.
func (n *Node) FixFingers() {
	for i := 0; i < n.NumFingers(); i++ {
		start := n.FingerStart(i)
		succ, _ := n.FindSuccessor(start)
		n.SetFinger(i, succ)
	}
}
