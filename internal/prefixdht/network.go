package prefixdht

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

// Network is the Prefix-DHT orchestrator: it owns every node, rebuilds
// every leaf set and routing table deterministically after each
// topology change, and — like ringdht.Network — guards all of its
// state behind a single coarse mutex (spec §5).
type Network struct {
	mu sync.Mutex

	logger    logger.Logger
	space     domain.Space
	rng       *rand.Rand
	leafSetL  int
	hexDigits int

	nodes     map[string]*Node
	sortedIDs []domain.ID

	metrics *dhtmetrics.Metrics
}

// Option customizes a Network at construction time.
type Option func(*Network)

// WithLogger attaches a structured logger to the network.
func WithLogger(l logger.Logger) Option {
	return func(net *Network) { net.logger = l }
}

// New creates an empty Prefix-DHT network. leafSetSize is the leaf
// set's capacity L (16 is the conventional Pastry default); hexDigits
// is the number of routing-table rows, normally space.ByteLen*2.
func New(space domain.Space, leafSetSize, hexDigits int, opts ...Option) *Network {
	net := &Network{
		space:     space,
		leafSetL:  leafSetSize,
		hexDigits: hexDigits,
		nodes:     make(map[string]*Node),
		metrics:   dhtmetrics.New(),
		logger:    &logger.NopLogger{},
	}
	for _, opt := range opts {
		opt(net)
	}
	return net
}

// Metrics returns the network's hop-count histograms.
func (net *Network) Metrics() *dhtmetrics.Metrics { return net.metrics }

// Build resets the network and constructs n nodes named
// "prefix-node-0" .. "prefix-node-(n-1)", then rebuilds every leaf set
// and routing table from the sorted id list.
func (net *Network) Build(n int, seed int64) {
	net.mu.Lock()
	defer net.mu.Unlock()

	net.rng = rand.New(rand.NewSource(seed))
	net.nodes = make(map[string]*Node, n)
	net.metrics.Reset()

	for i := 0; i < n; i++ {
		id := net.space.HashString(fmt.Sprintf("prefix-node-%d", i))
		hex := id.ToHexString()
		if _, exists := net.nodes[hex]; exists {
			continue
		}
		net.nodes[hex] = New(id, net.space, net.leafSetL, net.hexDigits, WithLogger(net.logger.Named("node")))
	}
	net.rebuildLocked()
	net.logger.Info("prefix network built", logger.F("nodes", len(net.nodes)))
}

// rebuildLocked recomputes the sorted id list and every node's leaf
// set and routing table from it. Caller must hold net.mu.
func (net *Network) rebuildLocked() {
	ids := make([]domain.ID, 0, len(net.nodes))
	for _, node := range net.nodes {
		ids = append(ids, node.ID())
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Cmp(ids[j]) < 0 })
	net.sortedIDs = ids

	for _, node := range net.nodes {
		node.LeafSet.Rebuild(node.ID(), ids)
		node.RoutingTable.Rebuild(node.ID(), ids)
	}
}

func (net *Network) randomNodeLocked() *Node {
	idx := net.rng.Intn(len(net.sortedIDs))
	return net.nodes[net.sortedIDs[idx].ToHexString()]
}

// route walks from an arbitrary node toward target, one NextHop call
// at a time, and returns the owning node plus the hop count. The same
// len(nodes)+5 bug-containment fuse as ringdht guards against a
// malformed topology looping forever. Caller must hold net.mu.
func (net *Network) routeLocked(target domain.ID) (*Node, int) {
	if len(net.nodes) == 1 {
		for _, node := range net.nodes {
			return node, 0
		}
	}

	node := net.randomNodeLocked()
	visited := map[string]bool{node.ID().ToHexString(): true}
	hops := 0
	maxHops := len(net.nodes) + 5

	for {
		p := net.space.CommonPrefixHex(node.ID(), target)
		neighborhood := node.LeafSet.CandidatesWithSelf(node.ID())
		neighborhood = append(neighborhood, node.RoutingTable.RowCandidates(p)...)

		next := node.NextHop(target, neighborhood, visited)
		if next.Equal(node.ID()) {
			break
		}
		nextNode, ok := net.nodes[next.ToHexString()]
		if !ok {
			break
		}
		visited[next.ToHexString()] = true
		node = nextNode
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
// value stored there, recording the hop count under "insert".
func (net *Network) Insert(key string, value dht.AttributeMap) (int, error) {
	net.mu.Lock()
	defer net.mu.Unlock()
	if len(net.nodes) == 0 {
		return 0, dht.ErrEmptyNetwork
	}
	id := net.space.HashString(key)
	dest, hops := net.routeLocked(id)
	dest.Put(key, value)
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
// stored value, recording the hop count under "update".
func (net *Network) Update(key string, value dht.AttributeMap) (int, error) {
	net.mu.Lock()
	defer net.mu.Unlock()
	if len(net.nodes) == 0 {
		return 0, dht.ErrEmptyNetwork
	}
	id := net.space.HashString(key)
	dest, hops := net.routeLocked(id)
	dest.Put(key, value)
	net.metrics.Record("update", hops)
	return hops, nil
}

// Delete hashes key, routes to its owning node and removes the stored
// value, recording the hop count under "delete".
func (net *Network) Delete(key string) (int, error) {
	net.mu.Lock()
	defer net.mu.Unlock()
	if len(net.nodes) == 0 {
		return 0, dht.ErrEmptyNetwork
	}
	id := net.space.HashString(key)
	dest, hops := net.routeLocked(id)
	dest.Delete(key)
	net.metrics.Record("delete", hops)
	return hops, nil
}
