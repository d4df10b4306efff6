// Package fingerprint computes the 64-bit key identities the index table and
// cluster sharder route on. Two independent hash families are used on purpose:
// SipHash-2-4, keyed per-cache from the index header, identifies index slots;
// xxhash, unkeyed, buckets the hot-cache's auxiliary key set. A workload that
// happens to skew one family's distribution does not also skew the other.
package fingerprint

import (
	"github.com/cespare/xxhash/v2"
	"github.com/dchest/siphash"
)

// Key is the 64-bit identity stored in an index slot. Zero is the sentinel
// for "empty slot", so a key hashing to exactly zero is folded to one;
// losing one bit of the hash space is a better trade than an ambiguous
// empty-vs-occupied slot.
type Key uint64

const emptySentinel Key = 0

// Seed is the per-cache keying material for the index's SipHash family,
// persisted in the index header so that fingerprints (and therefore eviction
// behavior) are reproducible across a close/reopen of the same index file.
type Seed struct {
	K0, K1 uint64
}

// Of computes the index fingerprint for key bytes under seed.
func Of(seed Seed, key []byte) Key {
	h := siphash.Hash(seed.K0, seed.K1, key)
	if Key(h) == emptySentinel {
		return 1
	}
	return Key(h)
}

// Bucket computes the xxhash-based auxiliary hash used by the hot-cache's
// bucket set, deliberately independent of the SipHash identity above.
func Bucket(key []byte) uint64 {
	return xxhash.Sum64(key)
}
