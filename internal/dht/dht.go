// Package dht defines the contract shared by the Ring-DHT and
// Prefix-DHT Network orchestrators (internal/ringdht, internal/prefixdht)
// and the data shapes external collaborators — dataset iterators,
// experiment drivers, reporters — exchange with the core. Per spec §1 the
// core never ingests CSV, drives experiments or writes the result file
// itself; this package only names the interfaces those collaborators
// implement or consume.
package dht

import (
	"errors"

	"dhtsim/internal/dhtmetrics"
	"dhtsim/internal/domain"
)

// ErrEmptyNetwork is returned by Insert/Lookup/Update/Delete when the
// Network has no nodes. Per spec §7 this is the one contract-level error
// that propagates to the caller; everything else internal to routing is
// absorbed.
var ErrEmptyNetwork = errors.New("dht: network has no nodes")

// AttributeMap is the opaque attribute record stored under a key, per
// spec §3/§6: a string-keyed mapping to nullable scalar attributes
// (float, int or string; a missing/invalid field decodes to a nil
// entry, never a zero value, so callers can distinguish "absent" from
// "zero").
type AttributeMap map[string]any

// Clone returns a shallow copy of m, so storage layers never alias a
// caller-owned map.
func (m AttributeMap) Clone() AttributeMap {
	if m == nil {
		return nil
	}
	out := make(AttributeMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Network is the uniform contract both overlays expose to experiment
// drivers and tests (spec §6). Leave accepts a specific node id, or nil
// to let the Network pick one at random.
type Network interface {
	// Build resets the Network, reseeds its random generator with seed
	// (the generator picks the start node of each routed request), then
	// constructs n nodes and builds each overlay's structural state.
	// Node identifiers are hashes of fixed per-index names, so they do
	// not depend on seed; a node whose identifier collides with an
	// earlier one is skipped.
	Build(n int, seed int64)

	// Insert/Lookup/Update/Delete return ErrEmptyNetwork when the
	// Network holds no nodes; every other routing failure is absorbed
	// internally and never reaches the caller (spec §7).
	Insert(key string, value AttributeMap) (hops int, err error)
	Lookup(key string) (value AttributeMap, hops int, err error)
	Update(key string, value AttributeMap) (hops int, err error)
	Delete(key string) (hops int, err error)

	// Join adds one node to the network and rebalances every key onto
	// the new topology, returning the total cost per spec §4.5.
	Join() (cost int)

	// Leave removes nodeID (or a random node if nodeID is nil) and
	// rebalances every remaining key, returning the total cost.
	Leave(nodeID domain.ID) (cost int)

	Metrics() *dhtmetrics.Metrics
}

// DatasetIterator is the external dataset collaborator's contract
// (spec §6): a lazy, finite sequence of (title, attributes) pairs
// produced from a CSV stream. The core treats it as opaque input; it
// never implements CSV parsing (OUT OF SCOPE, spec §1).
type DatasetIterator interface {
	// Next advances the iterator. ok is false once the sequence is
	// exhausted.
	Next() (title string, attrs AttributeMap, ok bool)
}

// KQueryResult is the {K, found_count, total_hops, mean_hops} summary of
// a parallel lookup phase over K titles, per spec §6.
type KQueryResult struct {
	K          int     `json:"K"`
	FoundCount int     `json:"found_count"`
	TotalHops  int     `json:"total_hops"`
	MeanHops   float64 `json:"mean_hops"`
}

// OverlayResult bundles one overlay's metrics summary and k-query
// result, the "pastry"/"chord" sub-documents of spec §6's
// experiment-result file.
type OverlayResult struct {
	Metrics map[string]dhtmetrics.OpSummary `json:"metrics"`
	KQuery  KQueryResult                    `json:"k_query"`
}

// ExperimentResult mirrors the JSON document an external driver writes,
// per spec §6. The core never produces this file; it only shapes it so
// a driver can json.Marshal directly into the documented schema.
type ExperimentResult struct {
	Pastry OverlayResult  `json:"pastry"`
	Chord  OverlayResult  `json:"chord"`
	Params map[string]any `json:"params"`
}
