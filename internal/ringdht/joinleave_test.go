package ringdht

import (
	"testing"

	"dhtsim/internal/dht"
)

func TestJoinBootstrapsSingleton(t *testing.T) {
	sp := newTestSpace(t, 8)
	n := New(sp.FromUint64(10), sp)
	n.Join(nil)

	if n.Successor() != n || n.Predecessor() != nil {
		t.Errorf("Join(nil) should leave the node as a singleton ring")
	}
}

func TestJoinAcquiresOwnedKeysFromSuccessor(t *testing.T) {
	sp := newTestSpace(t, 8)
	existing := New(sp.FromUint64(100), sp)
	existing.Join(nil)

	// seed two keys on the existing node, one that the joiner should
	// claim (id <= joiner's id) and one it should not.
	low := sp.FromUint64(20)
	high := sp.FromUint64(80)
	existing.store[low.ToHexString()] = []Resource{{Title: "low", Attrs: dht.AttributeMap{}}}
	existing.store[high.ToHexString()] = []Resource{{Title: "high", Attrs: dht.AttributeMap{}}}

	joiner := New(sp.FromUint64(50), sp)
	joiner.Join(existing)

	if _, ok := joiner.store[low.ToHexString()]; !ok {
		t.Errorf("joiner should have acquired key with id <= its own id")
	}
	if _, ok := joiner.store[high.ToHexString()]; ok {
		t.Errorf("joiner should not have acquired key with id > its own id")
	}
	if _, ok := existing.store[low.ToHexString()]; ok {
		t.Errorf("acquired key should have been removed from the successor")
	}
}

func TestLeaveMergesKeysIntoSuccessorAndRelinks(t *testing.T) {
	sp := newTestSpace(t, 8)
	a := New(sp.FromUint64(10), sp)
	b := New(sp.FromUint64(50), sp)
	c := New(sp.FromUint64(90), sp)

	a.SetSuccessor(b)
	b.SetSuccessor(c)
	c.SetSuccessor(a)
	a.SetPredecessor(c)
	b.SetPredecessor(a)
	c.SetPredecessor(b)

	b.Put("Inception", dht.AttributeMap{"year": 2010})
	b.Leave()

	if _, ok := c.Get("Inception"); !ok {
		t.Errorf("leaving node's keys should have migrated to its successor")
	}
	if a.Successor() != c {
		t.Errorf("a's successor should now be c after b leaves")
	}
	if c.Predecessor() != a {
		t.Errorf("c's predecessor should now be a after b leaves")
	}
	if b.Successor() != b || b.Predecessor() != nil {
		t.Errorf("b should have reset to a singleton after Leave")
	}
}
