// Package ringdht implements the Chord-derived Ring-DHT overlay: a
// node keeps a successor, a predecessor and a finger table of m =
// space.Bits entries, and routes lookups by always forwarding to the
// finger closest to, but not past, the target key.
package ringdht

import (
	"math/big"
	"sync"

	"dhtsim/internal/dht"
	"dhtsim/internal/domain"
	"dhtsim/internal/logger"
)

func powerOfTwo(i int) *big.Int {
	return new(big.Int).Lsh(big.NewInt(1), uint(i))
}

// Resource is one value stored under a key's identifier. Several
// resources with distinct titles can legitimately share an identifier
// after a SHA-1 truncation collision; the bare node keeps all of them,
// filtering by title on read.
type Resource struct {
	Title string
	Attrs dht.AttributeMap
}

// pointerEntry wraps a neighbour pointer behind its own RWMutex, the
// same per-field locking shape the teacher's routingEntry uses for its
// successor/predecessor/de-Bruijn slots.
type pointerEntry struct {
	mu   sync.RWMutex
	node *Node
}

func (e *pointerEntry) get() *Node {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.node
}

func (e *pointerEntry) set(n *Node) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.node = n
}

// Node is one participant of the Ring-DHT. The zero value is not
// usable; construct with New.
type Node struct {
	logger logger.Logger
	space  domain.Space
	id     domain.ID

	successor   *pointerEntry
	predecessor *pointerEntry
	fingers     []*pointerEntry // length space.Bits; fingers[i] ~ successor(id + 2^i)

	storeMu sync.RWMutex
	store   map[string][]Resource // keyed by key-ID hex string
}

// Option customizes a Node at construction time.
type Option func(*Node)

// WithLogger attaches a structured logger to the node.
func WithLogger(l logger.Logger) Option {
	return func(n *Node) { n.logger = l }
}

// New creates a Ring-DHT node for id in the given space. The node
// starts as its own singleton ring; call Join to attach it to an
// existing network, or leave it as-is to bootstrap the first node.
func New(id domain.ID, space domain.Space, opts ...Option) *Node {
	n := &Node{
		space:       space,
		id:          id,
		successor:   &pointerEntry{},
		predecessor: &pointerEntry{},
		fingers:     make([]*pointerEntry, space.Bits),
		store:       make(map[string][]Resource),
		logger:      &logger.NopLogger{},
	}
	for i := range n.fingers {
		n.fingers[i] = &pointerEntry{}
	}
	for _, opt := range opts {
		opt(n)
	}
	n.successor.set(n)
	n.logger.Debug("ring node initialized", logger.FID("id", id))
	return n
}

// ID returns the node's identifier.
func (n *Node) ID() domain.ID { return n.id }

// Successor returns the node's current successor.
func (n *Node) Successor() *Node { return n.successor.get() }

// SetSuccessor updates the node's successor pointer directly; used by
// the Network orchestrator's deterministic ring rebuild (§4.5) as well
// as by Notify/Stabilize.
func (n *Node) SetSuccessor(s *Node) { n.successor.set(s) }

// Predecessor returns the node's current predecessor, or nil if unset.
func (n *Node) Predecessor() *Node { return n.predecessor.get() }

// SetPredecessor updates the node's predecessor pointer directly.
func (n *Node) SetPredecessor(p *Node) { n.predecessor.set(p) }

// Finger returns the i-th finger table entry, or nil if unset.
func (n *Node) Finger(i int) *Node { return n.fingers[i].get() }

// SetFinger updates the i-th finger table entry.
func (n *Node) SetFinger(i int, f *Node) { n.fingers[i].set(f) }

// NumFingers returns the number of finger-table rows (space.Bits).
func (n *Node) NumFingers() int { return len(n.fingers) }

// FingerStart returns the start identifier of finger row i: (id + 2^i)
// mod 2^Bits.
func (n *Node) FingerStart(i int) domain.ID {
	offset := n.space.FromBigInt(powerOfTwo(i))
	return n.space.AddMod(n.id, offset)
}
