package domain

import (
	"testing"
)

func TestHashStringDeterministic(t *testing.T) {
	sp, err := NewSpace(128)
	if err != nil {
		t.Fatalf("NewSpace: %v", err)
	}
	a := sp.HashString("Inception")
	b := sp.HashString("Inception")
	if !a.Equal(b) {
		t.Fatalf("HashString not deterministic: %x != %x", a, b)
	}
	if len(a.ToHexString()) != 32 {
		t.Fatalf("expected 32 hex digits, got %d (%s)", len(a.ToHexString()), a.ToHexString())
	}
}

func TestHashStringNonByteAlignedMasksExtraBits(t *testing.T) {
	sp, err := NewSpace(20)
	if err != nil {
		t.Fatalf("NewSpace: %v", err)
	}
	for _, s := range []string{"a", "b", "node-0", "key-7"} {
		id := sp.HashString(s)
		if err := sp.IsValidID(id); err != nil {
			t.Fatalf("HashString(%q) produced invalid id %x: %v", s, id, err)
		}
	}
}

func TestBetweenInclusiveRight(t *testing.T) {
	sp, _ := NewSpace(8)
	a := sp.FromUint64(10)
	b := sp.FromUint64(20)

	cases := []struct {
		x    uint64
		want bool
	}{
		{10, false}, // == a, excluded
		{11, true},
		{20, true}, // == b, included
		{21, false},
	}
	for _, c := range cases {
		x := sp.FromUint64(c.x)
		if got := x.Between(a, b); got != c.want {
			t.Errorf("Between(%d,(10,20]) = %v, want %v", c.x, got, c.want)
		}
	}
}

func TestBetweenWraps(t *testing.T) {
	sp, _ := NewSpace(8)
	a := sp.FromUint64(250)
	b := sp.FromUint64(5)

	for _, x := range []uint64{251, 255, 0, 5} {
		if !sp.FromUint64(x).Between(a, b) {
			t.Errorf("expected %d in wrapping interval (250,5]", x)
		}
	}
	if sp.FromUint64(250).Between(a, b) {
		t.Errorf("250 should be excluded (left endpoint)")
	}
	if sp.FromUint64(6).Between(a, b) {
		t.Errorf("6 should be outside wrapping interval (250,5]")
	}
}

func TestBetweenExclusive(t *testing.T) {
	sp, _ := NewSpace(8)
	a := sp.FromUint64(10)
	b := sp.FromUint64(20)

	if sp.FromUint64(10).BetweenExclusive(a, b) {
		t.Errorf("left endpoint must be excluded")
	}
	if sp.FromUint64(20).BetweenExclusive(a, b) {
		t.Errorf("right endpoint must be excluded")
	}
	if !sp.FromUint64(15).BetweenExclusive(a, b) {
		t.Errorf("15 should be inside (10,20)")
	}
}

func TestCircDistSymmetricAndZero(t *testing.T) {
	sp, _ := NewSpace(128)
	a := sp.HashString("foo")
	b := sp.HashString("bar")

	if sp.CircDist(a, a).Sign() != 0 {
		t.Errorf("CircDist(a,a) must be zero")
	}
	if sp.CircDist(a, b).Cmp(sp.CircDist(b, a)) != 0 {
		t.Errorf("CircDist must be symmetric")
	}
}

func TestCircDistWrapMinimality(t *testing.T) {
	sp, _ := NewSpace(8)
	a := sp.FromUint64(2)
	b := sp.FromUint64(254)
	// direct distance is 252, wrap distance is 4: CircDist must pick 4.
	got := sp.CircDist(a, b)
	if got.Uint64() != 4 {
		t.Errorf("CircDist(2,254) over 2^8 = %d, want 4", got.Uint64())
	}
}

func TestCommonPrefixHex(t *testing.T) {
	sp, _ := NewSpace(128)
	a, err := sp.FromHexString("deadbeef000000000000000000000000")
	if err != nil {
		t.Fatalf("FromHexString: %v", err)
	}
	b, err := sp.FromHexString("deadbeee000000000000000000000000")
	if err != nil {
		t.Fatalf("FromHexString: %v", err)
	}
	if got := sp.CommonPrefixHex(a, b); got != 7 {
		t.Errorf("CommonPrefixHex = %d, want 7", got)
	}
	if got := sp.CommonPrefixHex(a, a); got != 32 {
		t.Errorf("CommonPrefixHex(a,a) = %d, want 32", got)
	}
}

func TestAddModWraps(t *testing.T) {
	sp, _ := NewSpace(8)
	a := sp.FromUint64(250)
	got := sp.AddMod(a, sp.FromUint64(10))
	if got.ToBigInt().Uint64() != 4 {
		t.Errorf("AddMod(250,10) mod 256 = %d, want 4", got.ToBigInt().Uint64())
	}
}

func TestFromHexStringRejectsOverflow(t *testing.T) {
	sp, _ := NewSpace(8)
	if _, err := sp.FromHexString("01ff"); err == nil {
		t.Errorf("expected error for value exceeding 8-bit space")
	}
	if _, err := sp.FromHexString("0x0a"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
