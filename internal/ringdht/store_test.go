package ringdht

import (
	"testing"

	"dhtsim/internal/dht"
)

func TestPutGetRoundTrip(t *testing.T) {
	sp := newTestSpace(t, 128)
	n := New(sp.FromUint64(1), sp)

	n.Put("Inception", dht.AttributeMap{"year": 2010})
	got, ok := n.Get("Inception")
	if !ok {
		t.Fatalf("expected Inception to be found")
	}
	if got["year"] != 2010 {
		t.Errorf("year = %v, want 2010", got["year"])
	}
}

func TestPutKeepsCollidingTitlesAsMultipleRecords(t *testing.T) {
	sp := newTestSpace(t, 128)
	n := New(sp.FromUint64(1), sp)

	// Force a collision by writing directly under the same hashed key.
	keyHex := n.HashKey("Alpha")
	n.store[keyHex] = append(n.store[keyHex], Resource{Title: "Alpha", Attrs: dht.AttributeMap{"v": 1}})
	n.store[keyHex] = append(n.store[keyHex], Resource{Title: "Beta", Attrs: dht.AttributeMap{"v": 2}})

	got, ok := n.Get("Alpha")
	if !ok || got["v"] != 1 {
		t.Errorf("Get(Alpha) = %v, %v", got, ok)
	}
	got, ok = n.Get("Beta")
	if !ok || got["v"] != 2 {
		t.Errorf("Get(Beta) = %v, %v", got, ok)
	}
	if len(n.store[keyHex]) != 2 {
		t.Errorf("expected both colliding titles retained, got %d entries", len(n.store[keyHex]))
	}
}

func TestUpdateReplacesMatchingTitleOnly(t *testing.T) {
	sp := newTestSpace(t, 128)
	n := New(sp.FromUint64(1), sp)

	n.Put("Inception", dht.AttributeMap{"year": 2010})
	if !n.Update("Inception", dht.AttributeMap{"year": 2011}) {
		t.Fatalf("Update should have found Inception")
	}
	got, _ := n.Get("Inception")
	if got["year"] != 2011 {
		t.Errorf("year after update = %v, want 2011", got["year"])
	}
	if n.Update("Missing", dht.AttributeMap{}) {
		t.Errorf("Update on missing title should return false")
	}
}

func TestDeleteRemovesEntryAndCleansEmptySlot(t *testing.T) {
	sp := newTestSpace(t, 128)
	n := New(sp.FromUint64(1), sp)

	n.Put("Inception", dht.AttributeMap{"year": 2010})
	keyHex := n.HashKey("Inception")
	if !n.Delete("Inception") {
		t.Fatalf("Delete should have found Inception")
	}
	if _, ok := n.Get("Inception"); ok {
		t.Errorf("Inception should be gone after Delete")
	}
	if _, exists := n.store[keyHex]; exists {
		t.Errorf("empty slot should have been removed from the store map")
	}
}

func TestOverwriteClobbersCollidingTitles(t *testing.T) {
	sp := newTestSpace(t, 128)
	n := New(sp.FromUint64(1), sp)

	keyHex := n.HashKey("Alpha")
	n.store[keyHex] = []Resource{
		{Title: "Alpha", Attrs: dht.AttributeMap{"v": 1}},
		{Title: "Beta", Attrs: dht.AttributeMap{"v": 2}},
	}

	n.Overwrite("Alpha", dht.AttributeMap{"v": 99})
	if len(n.store[keyHex]) != 1 {
		t.Fatalf("Overwrite should leave exactly one entry, got %d", len(n.store[keyHex]))
	}
	if n.store[keyHex][0].Title != "Alpha" {
		t.Errorf("Overwrite should have kept the title it was called with")
	}
	if _, ok := n.Get("Beta"); ok {
		t.Errorf("Beta should have been clobbered by Overwrite")
	}
}

func TestOverwriteDeleteClearsEntireSlot(t *testing.T) {
	sp := newTestSpace(t, 128)
	n := New(sp.FromUint64(1), sp)

	keyHex := n.HashKey("Alpha")
	n.store[keyHex] = []Resource{
		{Title: "Alpha", Attrs: dht.AttributeMap{}},
		{Title: "Beta", Attrs: dht.AttributeMap{}},
	}
	if !n.OverwriteDelete("Alpha") {
		t.Fatalf("OverwriteDelete should report found")
	}
	if _, exists := n.store[keyHex]; exists {
		t.Errorf("OverwriteDelete should remove the whole slot, including Beta")
	}
}
