// Package hotcache tracks the most recently accessed keys of a cache and
// their resident byte footprint, so internal/engine can decide when a Get
// should opportunistically re-append ("compact") a payload that has drifted
// far behind the write cursor (SPEC_FULL.md §4.F). The recency structure
// follows the container/list-backed LRU shape used throughout the example
// pack's own in-memory caches (e.g. Krishna8167-tempuscache), keyed here by
// an xxhash bucket instead of the raw key so the hot set stays independent
// of the index's SipHash fingerprint family.
package hotcache

import "container/list"

// Set is a bounded, LRU-ordered record of recently accessed keys and the
// bytes their latest payload occupies. It is not safe for concurrent use;
// callers serialize access externally (SPEC_FULL.md §5).
type Set struct {
	maxItems uint64
	maxBytes uint64

	residentBytes uint64
	order         *list.List
	entries       map[uint64]*list.Element
}

type entry struct {
	bucket uint64
	cursor uint64
	size   uint64
}

// New builds a Set bounded by maxItems entries and maxBytes resident bytes.
// maxItems == 0 disables tracking entirely (Touch becomes a no-op); maxBytes
// == 0 disables compaction (ShouldCompact always returns false).
func New(maxItems, maxBytes uint64) *Set {
	return &Set{
		maxItems: maxItems,
		maxBytes: maxBytes,
		order:    list.New(),
		entries:  make(map[uint64]*list.Element),
	}
}

// Touch records that the key hashing to bucket was just accessed, now
// resident at cursor with size bytes. It evicts least-recently-used entries
// while maxItems, or a non-zero maxBytes, is exceeded. A no-op when maxItems
// is 0.
func (s *Set) Touch(bucket, cursor, size uint64) {
	if s.maxItems == 0 {
		return
	}

	if el, ok := s.entries[bucket]; ok {
		e := el.Value.(*entry)
		s.residentBytes -= e.size
		e.cursor, e.size = cursor, size
		s.residentBytes += size
		s.order.MoveToFront(el)
		return
	}

	el := s.order.PushFront(&entry{bucket: bucket, cursor: cursor, size: size})
	s.entries[bucket] = el
	s.residentBytes += size

	for uint64(s.order.Len()) > s.maxItems || (s.maxBytes > 0 && s.residentBytes > s.maxBytes) {
		s.evictOldest()
	}
}

func (s *Set) evictOldest() {
	back := s.order.Back()
	if back == nil {
		return
	}
	e := back.Value.(*entry)
	s.residentBytes -= e.size
	delete(s.entries, e.bucket)
	s.order.Remove(back)
}

// Forget drops bucket from the hot set, e.g. after the key is removed or
// overwritten by something the compaction path did not itself just write.
func (s *Set) Forget(bucket uint64) {
	if el, ok := s.entries[bucket]; ok {
		e := el.Value.(*entry)
		s.residentBytes -= e.size
		delete(s.entries, bucket)
		s.order.Remove(el)
	}
}

// ShouldCompact reports whether a payload resident at dataCursor, as of the
// current write cursor, has fallen far enough behind to warrant an
// opportunistic re-append (SPEC_FULL.md §4.F). Always false when maxBytes is
// 0 (compaction disabled).
func (s *Set) ShouldCompact(writeCursor, dataCursor uint64) bool {
	if s.maxBytes == 0 {
		return false
	}
	return writeCursor-dataCursor > s.maxBytes
}

// Len reports the number of tracked keys.
func (s *Set) Len() int { return s.order.Len() }

// ResidentBytes reports the total bytes currently attributed to tracked keys.
func (s *Set) ResidentBytes() uint64 { return s.residentBytes }
