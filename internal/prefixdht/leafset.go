// Package prefixdht implements the Pastry-derived Prefix-DHT overlay:
// each node keeps a leaf set of its numerically nearest neighbours and
// a prefix routing table, and routes by picking whichever of the two
// structures gets closest to the target identifier, falling back to a
// neighbourhood scan when neither improves on the current node.
package prefixdht

import (
	"sort"

	"dhtsim/internal/domain"
)

// LeafSet holds up to L node identifiers nearest to the owning node on
// the ring, split between the L/2 numerically smaller and L/2
// numerically larger neighbours (circular, so "smaller"/"larger" wrap
// at the ring's ends).
type LeafSet struct {
	L     int
	Nodes []domain.ID
}

// NewLeafSet creates an empty leaf set of capacity l.
func NewLeafSet(l int) *LeafSet {
	return &LeafSet{L: l}
}

// Rebuild recomputes the leaf set from scratch given selfID and the
// full sorted list of live identifiers in the network.
func (ls *LeafSet) Rebuild(selfID domain.ID, sortedIDs []domain.ID) {
	n := len(sortedIDs)
	if n == 0 {
		ls.Nodes = nil
		return
	}
	pos := sort.Search(n, func(i int) bool { return sortedIDs[i].Cmp(selfID) >= 0 })

	half := ls.L / 2
	seen := make(map[string]bool, ls.L)
	var out []domain.ID

	for i := 1; i <= half; i++ {
		idx := ((pos-i)%n + n) % n
		id := sortedIDs[idx]
		if id.Equal(selfID) {
			continue
		}
		hex := id.ToHexString()
		if !seen[hex] {
			seen[hex] = true
			out = append(out, id)
		}
	}
	for i := 1; i <= half; i++ {
		idx := (pos + i) % n
		id := sortedIDs[idx]
		if id.Equal(selfID) {
			continue
		}
		hex := id.ToHexString()
		if !seen[hex] {
			seen[hex] = true
			out = append(out, id)
		}
	}

	if len(out) > ls.L {
		out = out[:ls.L]
	}
	ls.Nodes = out
}

// CandidatesWithSelf returns the leaf set plus selfID, the full
// neighbourhood a node considers when it has no better routing-table
// entry available.
func (ls *LeafSet) CandidatesWithSelf(selfID domain.ID) []domain.ID {
	out := make([]domain.ID, 0, len(ls.Nodes)+1)
	out = append(out, ls.Nodes...)
	out = append(out, selfID)
	return out
}

// ClosestTo returns the leaf-set member closest to target by circular
// distance, and whether the leaf set is non-empty.
func (ls *LeafSet) ClosestTo(target domain.ID, sp domain.Space) (domain.ID, bool) {
	if len(ls.Nodes) == 0 {
		return nil, false
	}
	best := ls.Nodes[0]
	bestDist := sp.CircDist(best, target)
	for _, cand := range ls.Nodes[1:] {
		d := sp.CircDist(cand, target)
		if d.Cmp(bestDist) < 0 {
			best, bestDist = cand, d
		}
	}
	return best, true
}
