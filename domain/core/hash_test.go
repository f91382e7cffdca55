package core

import "testing"

func TestNewFingerprint_Deterministic(t *testing.T) {
	a := NewFingerprint([]byte("payload"))
	b := NewFingerprint([]byte("payload"))
	if !a.Equals(b) {
		t.Errorf("same bytes hashed to %s and %s", a, b)
	}
	if a.Equals(NewFingerprint([]byte("other"))) {
		t.Error("different bytes should not collide trivially")
	}
	if len(a.String()) != 16 {
		t.Errorf("fingerprint %q is not 16 hex chars", a)
	}
}

func TestDigest_LengthPrefixedStrings(t *testing.T) {
	ab := NewDigest().WriteString("ab").WriteString("c").Sum()
	a := NewDigest().WriteString("a").WriteString("bc").Sum()
	if ab == a {
		t.Error(`("ab","c") must not collide with ("a","bc")`)
	}
}

func TestDigest_OrderSensitive(t *testing.T) {
	xy := NewDigest().WriteString("x").WriteString("y").Sum()
	yx := NewDigest().WriteString("y").WriteString("x").Sum()
	if xy == yx {
		t.Error("digest must be order-sensitive")
	}
}

func TestDigest_MixedWrites(t *testing.T) {
	d1 := NewDigest().WriteString("k").WriteFloat(1.5).WriteInt(3).Sum()
	d2 := NewDigest().WriteString("k").WriteFloat(1.5).WriteInt(3).Sum()
	if d1 != d2 {
		t.Error("identical write sequences must agree")
	}
}

func TestFingerprintMap_KeyOrderIndependent(t *testing.T) {
	m1 := map[string]string{"a": "1", "b": "2", "c": "3"}
	m2 := map[string]string{"c": "3", "a": "1", "b": "2"}
	if FingerprintMap(m1) != FingerprintMap(m2) {
		t.Error("map fingerprint must not depend on iteration order")
	}
	m3 := map[string]string{"a": "1", "b": "2", "c": "4"}
	if FingerprintMap(m1) == FingerprintMap(m3) {
		t.Error("different values should change the fingerprint")
	}
}

func TestNewID_Unique(t *testing.T) {
	seen := make(map[ID]bool, 100)
	for i := 0; i < 100; i++ {
		id := NewID()
		if id.IsEmpty() {
			t.Fatal("empty ID generated")
		}
		if seen[id] {
			t.Fatalf("duplicate ID %s", id)
		}
		seen[id] = true
	}
}
