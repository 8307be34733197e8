package prefixdht

import (
	"testing"

	"dhtsim/internal/dht"
	"dhtsim/internal/domain"
)

func TestPutGetOverwritesSingleValue(t *testing.T) {
	sp := newTestSpace(t, 128)
	n := New(sp.FromUint64(1), sp, 16, 32)

	n.Put("Inception", dht.AttributeMap{"year": 2010})
	n.Put("Inception", dht.AttributeMap{"year": 2011})

	got, ok := n.Get("Inception")
	if !ok {
		t.Fatalf("expected Inception to be found")
	}
	if got["year"] != 2011 {
		t.Errorf("year = %v, want 2011 (Put must overwrite)", got["year"])
	}
}

func TestDeleteThenGetMissing(t *testing.T) {
	sp := newTestSpace(t, 128)
	n := New(sp.FromUint64(1), sp, 16, 32)

	n.Put("Inception", dht.AttributeMap{"year": 2010})
	if !n.Delete("Inception") {
		t.Fatalf("Delete should report found")
	}
	if _, ok := n.Get("Inception"); ok {
		t.Errorf("expected Inception to be gone after Delete")
	}
}

func TestNextHopReturnsSelfWhenNoImprovement(t *testing.T) {
	sp := newTestSpace(t, 8)
	self := sp.FromUint64(10)
	n := New(self, sp, 16, 2)

	// no leaf set, no routing table entries, no neighbourhood: n.id must
	// be returned unchanged.
	got := n.NextHop(sp.FromUint64(200), nil, map[string]bool{})
	if !got.Equal(self) {
		t.Errorf("NextHop with no candidates should return self, got %s", got.ToHexString())
	}
}

func TestNextHopPicksCloserLeafSetMember(t *testing.T) {
	sp := newTestSpace(t, 8)
	self := sp.FromUint64(100)
	n := New(self, sp, 16, 2)

	target := sp.FromUint64(150)
	closer := sp.FromUint64(140)
	n.LeafSet.Nodes = []domain.ID{closer}

	got := n.NextHop(target, nil, map[string]bool{})
	if !got.Equal(closer) {
		t.Errorf("NextHop should prefer the closer leaf-set member, got %s", got.ToHexString())
	}
}
