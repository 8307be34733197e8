package prefixdht

import (
	"fmt"
	"sort"
	"strings"

	"dhtsim/internal/dht"
	"dhtsim/internal/domain"
	"dhtsim/internal/logger"
)

// nodeSnapshot is the per-node structural state compared before and
// after a topology change: the sorted leaf set plus every (row, col,
// dest) routing-table entry, flattened to a comparable string. As with
// ringdht, this is the "more general" snapshot variant spec §9 leaves
// open, chosen because a join or leave can alter routing-table rows
// belonging to nodes whose leaf set never changes.
type nodeSnapshot struct {
	leafSet string
	entries string
}

func (net *Network) snapshotLocked() map[string]nodeSnapshot {
	out := make(map[string]nodeSnapshot, len(net.nodes))
	for hex, node := range net.nodes {
		leaves := make([]string, len(node.LeafSet.Nodes))
		for i, id := range node.LeafSet.Nodes {
			leaves[i] = id.ToHexString()
		}
		sort.Strings(leaves)

		var entries []string
		for row := 0; row < node.RoutingTable.HexDigits; row++ {
			for _, dest := range node.RoutingTable.RowCandidates(row) {
				entries = append(entries, fmt.Sprintf("%d:%s", row, dest.ToHexString()))
			}
		}
		sort.Strings(entries)

		out[hex] = nodeSnapshot{
			leafSet: strings.Join(leaves, ","),
			entries: strings.Join(entries, ","),
		}
	}
	return out
}

// countChanged counts nodes present in both snapshots whose structural
// state differs. Nodes present in only one snapshot are ignored — they
// are the added or removed node itself, not ripple.
func countChanged(before, after map[string]nodeSnapshot) int {
	changed := 0
	for hex, b := range before {
		a, ok := after[hex]
		if !ok {
			continue
		}
		if a != b {
			changed++
		}
	}
	return changed
}

// collectAllLocked gathers every (key, value) pair across every node.
func (net *Network) collectAllLocked() map[string]dht.AttributeMap {
	all := make(map[string]dht.AttributeMap)
	for _, node := range net.nodes {
		for _, k := range node.Keys() {
			if v, ok := node.Get(k); ok {
				all[k] = v
			}
		}
	}
	return all
}

// rebalanceAllLocked clears every node's store and reinserts every
// (key, value) pair in all via route-and-put, returning the total hop
// cost. Caller must hold net.mu.
func (net *Network) rebalanceAllLocked(all map[string]dht.AttributeMap) int {
	for _, node := range net.nodes {
		node.ClearStore()
	}
	hops := 0
	for key, value := range all {
		id := net.space.HashString(key)
		dest, h := net.routeLocked(id)
		dest.Put(key, value)
		hops += h
	}
	return hops
}

// Join adds one new node to the network and rebalances every key onto
// the resulting topology, returning the sum of the bootstrap routing
// hops, the structural snapshot-diff cost, and the key-migration hops
// (spec §9: these three terms are conceptually distinct even though
// the dht.Network contract reports their sum as a single int).
func (net *Network) Join() int {
	net.mu.Lock()
	defer net.mu.Unlock()

	newIndex := len(net.nodes)
	newID := net.space.HashString(fmt.Sprintf("prefix-node-%d", newIndex))
	for {
		if _, exists := net.nodes[newID.ToHexString()]; !exists {
			break
		}
		newIndex++
		newID = net.space.HashString(fmt.Sprintf("prefix-node-%d", newIndex))
	}

	if len(net.nodes) == 0 {
		net.nodes[newID.ToHexString()] = New(newID, net.space, net.leafSetL, net.hexDigits, WithLogger(net.logger.Named("node")))
		net.rebuildLocked()
		net.metrics.Record("join", 0)
		return 0
	}

	before := net.snapshotLocked()
	_, routeHops := net.routeLocked(newID)

	net.nodes[newID.ToHexString()] = New(newID, net.space, net.leafSetL, net.hexDigits, WithLogger(net.logger.Named("node")))
	net.rebuildLocked()

	all := net.collectAllLocked()
	migrationHops := net.rebalanceAllLocked(all)

	after := net.snapshotLocked()
	updateCost := countChanged(before, after)

	total := routeHops + updateCost + migrationHops
	net.metrics.Record("join", total)
	net.logger.Info("node joined prefix network",
		logger.FID("id", newID),
		logger.F("routeHops", routeHops),
		logger.F("updateCost", updateCost),
		logger.F("migrationHops", migrationHops))
	return total
}

// Leave removes nodeID (or a random existing node if nodeID is nil)
// and rebalances every remaining key, returning the structural-diff
// cost plus key-migration hops.
func (net *Network) Leave(nodeID domain.ID) int {
	net.mu.Lock()
	defer net.mu.Unlock()

	if len(net.nodes) == 0 {
		return 0
	}

	var targetHex string
	if nodeID == nil {
		targetHex = net.sortedIDs[net.rng.Intn(len(net.sortedIDs))].ToHexString()
	} else {
		targetHex = nodeID.ToHexString()
	}
	if _, ok := net.nodes[targetHex]; !ok {
		return 0
	}

	all := net.collectAllLocked()
	before := net.snapshotLocked()

	delete(net.nodes, targetHex)
	if len(net.nodes) > 0 {
		net.rebuildLocked()
	} else {
		net.sortedIDs = nil
	}

	migrationHops := 0
	if len(net.nodes) > 0 {
		migrationHops = net.rebalanceAllLocked(all)
	}

	after := net.snapshotLocked()
	updateCost := countChanged(before, after)

	total := updateCost + migrationHops
	net.metrics.Record("leave", total)
	net.logger.Info("node left prefix network",
		logger.F("id", targetHex),
		logger.F("updateCost", updateCost),
		logger.F("migrationHops", migrationHops))
	return total
}
