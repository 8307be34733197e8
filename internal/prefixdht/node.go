package prefixdht

import (
	"sync"

	"dhtsim/internal/dht"
	"dhtsim/internal/domain"
	"dhtsim/internal/logger"
)

// Node is one participant of the Prefix-DHT. Unlike the Ring-DHT node,
// its key-value store is keyed directly by the raw string key and is
// always single-valued: a second Put for the same key always
// overwrites, both at the bare-node and Network layer (grounded in the
// original Pastry key-value operations, which never maintain a
// multi-record list the way Chord's bare node does).
type Node struct {
	logger logger.Logger
	space  domain.Space
	id     domain.ID

	LeafSet      *LeafSet
	RoutingTable *RoutingTable

	storeMu sync.RWMutex
	store   map[string]dht.AttributeMap
}

// Option customizes a Node at construction time.
type Option func(*Node)

// WithLogger attaches a structured logger to the node.
func WithLogger(l logger.Logger) Option {
	return func(n *Node) { n.logger = l }
}

// New creates a Prefix-DHT node for id, with an empty leaf set of size
// leafSetSize and an empty routing table of hexDigits rows. Call
// Rebuild (via the owning Network) once the full node population is
// known.
func New(id domain.ID, space domain.Space, leafSetSize, hexDigits int, opts ...Option) *Node {
	n := &Node{
		space:        space,
		id:           id,
		LeafSet:      NewLeafSet(leafSetSize),
		RoutingTable: NewRoutingTable(hexDigits),
		store:        make(map[string]dht.AttributeMap),
		logger:       &logger.NopLogger{},
	}
	for _, opt := range opts {
		opt(n)
	}
	n.logger.Debug("prefix node initialized", logger.FID("id", id))
	return n
}

// ID returns the node's identifier.
func (n *Node) ID() domain.ID { return n.id }

// NextHop picks the next node to forward target toward, given the
// current routing neighbourhood and the set of already-visited node
// hex strings (to avoid cycling). It returns n's own id when no
// neighbour improves on n.
//
// Three steps, tried in order:
//  1. Leaf-set improvement: the leaf-set member closest to target, if
//     closer than n itself.
//  2. Routing-table improvement: the entry at (p, target's digit at
//     p), where p is the length of n's shared prefix with target, if
//     strictly closer to target than n itself.
//  3. Neighbourhood fallback: among unvisited candidates sharing at
//     least a p-digit prefix with self, the one closest to target
//     (ties broken by lowest id).
func (n *Node) NextHop(target domain.ID, neighborhood []domain.ID, visited map[string]bool) domain.ID {
	if best, ok := n.LeafSet.ClosestTo(target, n.space); ok {
		if !visited[best.ToHexString()] && n.space.CircDistLess(best, n.id, target) {
			return best
		}
	}

	p := n.space.CommonPrefixHex(n.id, target)
	targetHex := target.ToHexString()
	if p < len(targetHex) {
		digit := targetHex[p]
		if entry, ok := n.RoutingTable.Entry(p, digit); ok {
			if !visited[entry.ToHexString()] && n.space.CircDistLess(entry, n.id, target) {
				return entry
			}
		}
	}

	best := n.id
	bestDist := n.space.CircDist(n.id, target)
	for _, cand := range neighborhood {
		hex := cand.ToHexString()
		if visited[hex] || cand.Equal(n.id) {
			continue
		}
		if n.space.CommonPrefixHex(cand, n.id) < p {
			continue
		}
		d := n.space.CircDist(cand, target)
		if d.Cmp(bestDist) < 0 || (d.Cmp(bestDist) == 0 && !best.Equal(n.id) && cand.Cmp(best) < 0) {
			best, bestDist = cand, d
		}
	}

	return best
}

// Put stores value under key, overwriting any existing entry.
func (n *Node) Put(key string, value dht.AttributeMap) {
	n.storeMu.Lock()
	defer n.storeMu.Unlock()
	n.store[key] = value.Clone()
}

// Get returns the value stored under key, if any.
func (n *Node) Get(key string) (dht.AttributeMap, bool) {
	n.storeMu.RLock()
	defer n.storeMu.RUnlock()
	v, ok := n.store[key]
	if !ok {
		return nil, false
	}
	return v.Clone(), true
}

// Delete removes key, reporting whether it was present.
func (n *Node) Delete(key string) bool {
	n.storeMu.Lock()
	defer n.storeMu.Unlock()
	if _, ok := n.store[key]; !ok {
		return false
	}
	delete(n.store, key)
	return true
}

// Keys returns every key currently stored at n.
func (n *Node) Keys() []string {
	n.storeMu.RLock()
	defer n.storeMu.RUnlock()
	out := make([]string, 0, len(n.store))
	for k := range n.store {
		out = append(out, k)
	}
	return out
}

// ClearStore empties the node's local store, used when the Network
// orchestrator rebalances all keys after a topology change.
func (n *Node) ClearStore() {
	n.storeMu.Lock()
	defer n.storeMu.Unlock()
	n.store = make(map[string]dht.AttributeMap)
}
