package ringdht

import "dhtsim/internal/dht"

// HashKey derives the identifier a title hashes to in this node's
// space.
func (n *Node) HashKey(title string) string {
	return n.space.HashString(title).ToHexString()
}

// Put appends a new resource under title's identifier. Distinct titles
// that collide onto the same identifier after truncation coexist as
// separate entries; Put never overwrites an existing title.
func (n *Node) Put(title string, attrs dht.AttributeMap) {
	keyHex := n.HashKey(title)
	n.storeMu.Lock()
	defer n.storeMu.Unlock()
	n.store[keyHex] = append(n.store[keyHex], Resource{Title: title, Attrs: attrs.Clone()})
}

// Get returns the attributes stored under title, selecting the entry
// whose title matches exactly among any others sharing the identifier.
func (n *Node) Get(title string) (dht.AttributeMap, bool) {
	keyHex := n.HashKey(title)
	n.storeMu.RLock()
	defer n.storeMu.RUnlock()
	for _, r := range n.store[keyHex] {
		if r.Title == title {
			return r.Attrs.Clone(), true
		}
	}
	return nil, false
}

// Update replaces the attributes stored under title, if present. It
// reports whether a matching entry was found.
func (n *Node) Update(title string, attrs dht.AttributeMap) bool {
	keyHex := n.HashKey(title)
	n.storeMu.Lock()
	defer n.storeMu.Unlock()
	for i, r := range n.store[keyHex] {
		if r.Title == title {
			n.store[keyHex][i].Attrs = attrs.Clone()
			return true
		}
	}
	return false
}

// Delete removes the entry stored under title, if present, reporting
// whether one was removed.
func (n *Node) Delete(title string) bool {
	keyHex := n.HashKey(title)
	n.storeMu.Lock()
	defer n.storeMu.Unlock()
	resources := n.store[keyHex]
	for i, r := range resources {
		if r.Title == title {
			n.store[keyHex] = append(resources[:i], resources[i+1:]...)
			if len(n.store[keyHex]) == 0 {
				delete(n.store, keyHex)
			}
			return true
		}
	}
	return false
}

// DeleteWhere removes every resource stored under title's identifier
// whose attributes match every entry in criteria, reporting whether
// anything was removed. An empty criteria matches every resource under
// the identifier, so it behaves like clearing the whole key.
func (n *Node) DeleteWhere(title string, criteria dht.AttributeMap) bool {
	keyHex := n.HashKey(title)
	n.storeMu.Lock()
	defer n.storeMu.Unlock()
	resources, ok := n.store[keyHex]
	if !ok {
		return false
	}
	before := len(resources)
	kept := resources[:0:0]
	for _, r := range resources {
		if matchesCriteria(r.Attrs, criteria) {
			continue
		}
		kept = append(kept, r)
	}
	if len(kept) == 0 {
		delete(n.store, keyHex)
	} else {
		n.store[keyHex] = kept
	}
	return len(kept) != before
}

func matchesCriteria(attrs, criteria dht.AttributeMap) bool {
	for k, v := range criteria {
		if attrs[k] != v {
			return false
		}
	}
	return true
}

// UpdateFunc applies f to every resource stored under title's
// identifier. A resource is kept with f's returned attributes when f
// reports true, and dropped entirely when f reports false; the key is
// removed once its resource list is empty. It reports whether the
// identifier held any resources to apply f to.
func (n *Node) UpdateFunc(title string, f func(Resource) (dht.AttributeMap, bool)) bool {
	keyHex := n.HashKey(title)
	n.storeMu.Lock()
	defer n.storeMu.Unlock()
	resources, ok := n.store[keyHex]
	if !ok || len(resources) == 0 {
		return false
	}
	kept := resources[:0:0]
	for _, r := range resources {
		if attrs, keep := f(r); keep {
			kept = append(kept, Resource{Title: r.Title, Attrs: attrs})
		}
	}
	if len(kept) == 0 {
		delete(n.store, keyHex)
	} else {
		n.store[keyHex] = kept
	}
	return true
}

// Overwrite replaces the entire slot at title's identifier with a
// single resource, discarding any other titles that happened to share
// the identifier. This is the single-value semantics the Network
// orchestrator imposes over the bare node's multi-record store, so
// results stay comparable between the two overlays (spec §9).
func (n *Node) Overwrite(title string, attrs dht.AttributeMap) {
	keyHex := n.HashKey(title)
	n.storeMu.Lock()
	defer n.storeMu.Unlock()
	n.store[keyHex] = []Resource{{Title: title, Attrs: attrs.Clone()}}
}

// OverwriteDelete clears every resource stored under title's
// identifier, regardless of how many distinct titles collided there.
func (n *Node) OverwriteDelete(title string) bool {
	keyHex := n.HashKey(title)
	n.storeMu.Lock()
	defer n.storeMu.Unlock()
	if _, ok := n.store[keyHex]; !ok {
		return false
	}
	delete(n.store, keyHex)
	return true
}

// AllKeys returns every identifier currently holding at least one
// resource, as hex strings. Used by the Network orchestrator when
// rebalancing keys across a changed topology.
func (n *Node) AllKeys() []string {
	n.storeMu.RLock()
	defer n.storeMu.RUnlock()
	keys := make([]string, 0, len(n.store))
	for k := range n.store {
		keys = append(keys, k)
	}
	return keys
}

// Resources returns a copy of the resources stored at keyHex.
func (n *Node) Resources(keyHex string) []Resource {
	n.storeMu.RLock()
	defer n.storeMu.RUnlock()
	src := n.store[keyHex]
	out := make([]Resource, len(src))
	copy(out, src)
	return out
}

// ClearStore empties the node's local store, used when the Network
// orchestrator rebalances all keys after a topology change.
func (n *Node) ClearStore() {
	n.storeMu.Lock()
	defer n.storeMu.Unlock()
	n.store = make(map[string][]Resource)
}
