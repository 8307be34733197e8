package ringdht

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"dhtsim/internal/dht"
	"dhtsim/internal/dhtmetrics"
	"dhtsim/internal/domain"
	"dhtsim/internal/logger"
)

// Network is the Ring-DHT orchestrator: it owns every node in the
// simulated overlay, rebuilds ring/finger structure deterministically
// after each topology change, and forces single-value overwrite
// semantics over the bare node's multi-record store so results stay
// comparable with Prefix-DHT (spec §9). A single coarse mutex guards
// all of it (spec §5).
type Network struct {
	mu sync.Mutex

	logger logger.Logger
	space  domain.Space
	rng    *rand.Rand

	nodes     map[string]*Node // keyed by hex id
	sortedIDs []domain.ID

	metrics *dhtmetrics.Metrics
}

// Option customizes a Network at construction time.
type Option func(*Network)

// WithLogger attaches a structured logger to the network.
func WithLogger(l logger.Logger) Option {
	return func(net *Network) { net.logger = l }
}

// New creates an empty Ring-DHT network over the given identifier
// space.
func New(space domain.Space, opts ...Option) *Network {
	net := &Network{
		space:   space,
		nodes:   make(map[string]*Node),
		metrics: dhtmetrics.New(),
		logger:  &logger.NopLogger{},
	}
	for _, opt := range opts {
		opt(net)
	}
	return net
}

// Metrics returns the network's hop-count histograms.
func (net *Network) Metrics() *dhtmetrics.Metrics { return net.metrics }

// Build resets the network and constructs n nodes named "ring-node-0"
// .. "ring-node-(n-1)", hashed into the identifier space, then rebuilds
// the ring and every finger table from the sorted id list.
func (net *Network) Build(n int, seed int64) {
	net.mu.Lock()
	defer net.mu.Unlock()

	net.rng = rand.New(rand.NewSource(seed))
	net.nodes = make(map[string]*Node, n)
	net.metrics.Reset()

	for i := 0; i < n; i++ {
		id := net.space.HashString(fmt.Sprintf("ring-node-%d", i))
		hex := id.ToHexString()
		if _, exists := net.nodes[hex]; exists {
			continue // identifier collision between seed nodes: skip, rare at 128 bits
		}
		net.nodes[hex] = New(id, net.space, WithLogger(net.logger.Named("node")))
	}
	net.rebuildLocked()
	net.logger.Info("ring network built", logger.F("nodes", len(net.nodes)))
}

// rebuildLocked recomputes the sorted id list and, from it, every
// node's successor, predecessor and finger table — the deterministic
// structural rebuild spec §4.5 prescribes in place of an async
// stabilization loop. Caller must hold net.mu.
func (net *Network) rebuildLocked() {
	ids := make([]domain.ID, 0, len(net.nodes))
	for _, node := range net.nodes {
		ids = append(ids, node.ID())
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Cmp(ids[j]) < 0 })
	net.sortedIDs = ids

	count := len(ids)
	if count == 0 {
		return
	}
	ordered := make([]*Node, count)
	for i, id := range ids {
		ordered[i] = net.nodes[id.ToHexString()]
	}
	for i, node := range ordered {
		succ := ordered[(i+1)%count]
		pred := ordered[(i-1+count)%count]
		node.SetSuccessor(succ)
		node.SetPredecessor(pred)
	}
	if count == 1 {
		ordered[0].SetSuccessor(ordered[0])
		ordered[0].SetPredecessor(nil)
	}
	for _, node := range ordered {
		node.FixFingers()
	}
}

// randomNodeLocked returns an arbitrary node to start routing from.
// Caller must hold net.mu and ensure len(net.nodes) > 0.
func (net *Network) randomNodeLocked() *Node {
	idx := net.rng.Intn(len(net.sortedIDs))
	return net.nodes[net.sortedIDs[idx].ToHexString()]
}

// route walks the ring from an arbitrary node toward target using
// closest-preceding-finger hops, and returns the owning node plus the
// hop count (including the final hop to its successor). A hard fuse at
// len(nodes)+5 hops guards against a malformed ring looping forever; it
// is a bug-containment net, never expected to trip in normal operation.
// Caller must hold net.mu.
func (net *Network) routeLocked(target domain.ID) (*Node, int) {
	if len(net.nodes) == 1 {
		for _, node := range net.nodes {
			return node, 0
		}
	}

	start := net.randomNodeLocked()
	node := start
	hops := 0
	maxHops := len(net.nodes) + 5

	for {
		succ := node.Successor()
		if target.Between(node.ID(), succ.ID()) {
			node = succ
			hops++
			break
		}
		next := node.ClosestPrecedingFinger(target)
		if next == node {
			node = succ
			hops++
			break
		}
		node = next
		hops++
		if hops > maxHops {
			net.logger.Error("routing safety fuse tripped",
				logger.F("target", target.ToHexString()),
				logger.F("hops", hops))
			break
		}
	}
	return node, hops
}

// Insert hashes key, routes to its owning node and overwrites the
// slot at that identifier with value, recording the hop count under
// "insert".
func (net *Network) Insert(key string, value dht.AttributeMap) (int, error) {
	net.mu.Lock()
	defer net.mu.Unlock()
	if len(net.nodes) == 0 {
		return 0, dht.ErrEmptyNetwork
	}
	id := net.space.HashString(key)
	dest, hops := net.routeLocked(id)
	dest.Overwrite(key, value)
	net.metrics.Record("insert", hops)
	return hops, nil
}

// Lookup hashes key, routes to its owning node and returns its stored
// value, recording the hop count under "lookup".
func (net *Network) Lookup(key string) (dht.AttributeMap, int, error) {
	net.mu.Lock()
	defer net.mu.Unlock()
	if len(net.nodes) == 0 {
		return nil, 0, dht.ErrEmptyNetwork
	}
	id := net.space.HashString(key)
	dest, hops := net.routeLocked(id)
	value, _ := dest.Get(key)
	net.metrics.Record("lookup", hops)
	return value, hops, nil
}

// Update hashes key, routes to its owning node and overwrites the
// slot (Update behaves exactly like Insert at the Network layer;
// both force single-value semantics), recording the hop count under
// "update".
func (net *Network) Update(key string, value dht.AttributeMap) (int, error) {
	net.mu.Lock()
	defer net.mu.Unlock()
	if len(net.nodes) == 0 {
		return 0, dht.ErrEmptyNetwork
	}
	id := net.space.HashString(key)
	dest, hops := net.routeLocked(id)
	dest.Overwrite(key, value)
	net.metrics.Record("update", hops)
	return hops, nil
}

// Delete hashes key, routes to its owning node and clears the slot at
// that identifier, recording the hop count under "delete".
func (net *Network) Delete(key string) (int, error) {
	net.mu.Lock()
	defer net.mu.Unlock()
	if len(net.nodes) == 0 {
		return 0, dht.ErrEmptyNetwork
	}
	id := net.space.HashString(key)
	dest, hops := net.routeLocked(id)
	dest.OverwriteDelete(key)
	net.metrics.Record("delete", hops)
	return hops, nil
}
