package ringdht

import (
	"testing"

	"dhtsim/internal/domain"
)

// buildRing wires n nodes with the given ids into a ring with correctly
// linked successors, predecessors and fixed fingers, bypassing Network
// so routing can be tested against the bare Node API directly.
func buildRing(t *testing.T, sp domain.Space, ids []uint64) []*Node {
	t.Helper()
	nodes := make([]*Node, len(ids))
	for i, v := range ids {
		nodes[i] = New(sp.FromUint64(v), sp)
	}
	count := len(nodes)
	for i, n := range nodes {
		n.SetSuccessor(nodes[(i+1)%count])
		n.SetPredecessor(nodes[(i-1+count)%count])
	}
	for _, n := range nodes {
		n.FixFingers()
	}
	return nodes
}

func TestClosestPrecedingFingerFallsBackToSelf(t *testing.T) {
	sp := newTestSpace(t, 8)
	nodes := buildRing(t, sp, []uint64{10, 50, 100, 200})
	n := nodes[0]

	// key just after n's own id and before its successor: no finger
	// should qualify, ClosestPrecedingFinger must return n itself.
	key := sp.FromUint64(11)
	got := n.ClosestPrecedingFinger(key)
	if got != n {
		t.Errorf("expected fallback to self, got node with id %s", got.ID().ToHexString())
	}
}

func TestFindSuccessorMatchesRingOrder(t *testing.T) {
	sp := newTestSpace(t, 8)
	nodes := buildRing(t, sp, []uint64{10, 50, 100, 200})

	cases := []struct {
		key  uint64
		want uint64
	}{
		{5, 10},
		{10, 10},
		{11, 50},
		{99, 100},
		{201, 10}, // wraps around
	}
	for _, c := range cases {
		succ, hops := nodes[0].FindSuccessor(sp.FromUint64(c.key))
		if succ.ID().ToBigInt().Uint64() != c.want {
			t.Errorf("FindSuccessor(%d) = %d, want %d", c.key, succ.ID().ToBigInt().Uint64(), c.want)
		}
		if hops < 0 {
			t.Errorf("hops must be non-negative, got %d", hops)
		}
	}
}

func TestNotifyAcceptsCloserPredecessor(t *testing.T) {
	sp := newTestSpace(t, 8)
	a := New(sp.FromUint64(10), sp)
	b := New(sp.FromUint64(50), sp)
	a.SetSuccessor(b)
	b.SetPredecessor(a)

	c := New(sp.FromUint64(30), sp)
	b.Notify(c)
	if b.Predecessor() != c {
		t.Errorf("Notify should have accepted closer predecessor c")
	}

	// a farther, stale candidate must not displace the accepted one.
	d := New(sp.FromUint64(5), sp)
	b.Notify(d)
	if b.Predecessor() != c {
		t.Errorf("Notify should not have replaced predecessor with d")
	}
}

func TestStabilizeAdoptsSuccessorsPredecessor(t *testing.T) {
	sp := newTestSpace(t, 8)
	a := New(sp.FromUint64(10), sp)
	b := New(sp.FromUint64(100), sp)
	c := New(sp.FromUint64(50), sp)

	a.SetSuccessor(b)
	b.SetPredecessor(c)

	a.Stabilize()
	if a.Successor() != c {
		t.Errorf("Stabilize should adopt c as new successor, got %s", a.Successor().ID().ToHexString())
	}
	if c.Predecessor() != a {
		t.Errorf("Stabilize should have notified c, setting its predecessor to a")
	}
}
