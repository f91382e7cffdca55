package core

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint is a deterministic content hash used as a cache key component.
// It is derived from data content, never from object identity, so two
// datasets with identical fields and values share one fingerprint.
type Fingerprint string

// String returns the string representation
func (f Fingerprint) String() string {
	return string(f)
}

// IsEmpty checks if the fingerprint is empty
func (f Fingerprint) IsEmpty() bool {
	return f == ""
}

// Equals checks if two fingerprints are equal
func (f Fingerprint) Equals(other Fingerprint) bool {
	return f == other
}

// NewFingerprint hashes raw bytes into a Fingerprint.
func NewFingerprint(data []byte) Fingerprint {
	return Fingerprint(fmt.Sprintf("%016x", xxhash.Sum64(data)))
}

// FingerprintDigest accumulates heterogeneous content into one fingerprint.
// Writes are order-sensitive; callers canonicalize ordering before feeding.
type FingerprintDigest struct {
	h *xxhash.Digest
}

// NewDigest creates an empty fingerprint accumulator.
func NewDigest() *FingerprintDigest {
	return &FingerprintDigest{h: xxhash.New()}
}

// WriteString adds a length-prefixed string to the digest. The length prefix
// keeps ("ab","c") distinct from ("a","bc").
func (d *FingerprintDigest) WriteString(s string) *FingerprintDigest {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(len(s)))
	d.h.Write(buf[:])
	d.h.WriteString(s)
	return d
}

// WriteFloat adds a float64 to the digest using its exact bit pattern.
func (d *FingerprintDigest) WriteFloat(v float64) *FingerprintDigest {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
	d.h.Write(buf[:])
	return d
}

// WriteInt adds an int to the digest.
func (d *FingerprintDigest) WriteInt(v int) *FingerprintDigest {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(v))
	d.h.Write(buf[:])
	return d
}

// Sum finalizes the accumulated content into a Fingerprint.
func (d *FingerprintDigest) Sum() Fingerprint {
	return Fingerprint(fmt.Sprintf("%016x", d.h.Sum64()))
}

// FingerprintMap hashes a string map with deterministic key ordering.
func FingerprintMap(m map[string]string) Fingerprint {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	d := NewDigest()
	for _, k := range keys {
		d.WriteString(k)
		d.WriteString(m[k])
	}
	return d.Sum()
}
