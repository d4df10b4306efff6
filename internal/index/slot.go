package index

import "encoding/binary"

// Slot is the decoded form of one fixed-width index entry (§3 "Index entry").
// A zero Fingerprint marks an empty slot (see pkg/fingerprint's empty-sentinel
// folding, which guarantees no real key ever hashes to exactly zero).
type Slot struct {
	Fingerprint uint64
	Cursor      uint64 // monotonic write-cursor value the payload begins at
	Length      uint32 // total bytes of the stored record, including header+key+value
	ExpireAtMs  int64  // MaxExpire means "never"
}

// MaxExpire marks an entry that never expires.
const MaxExpire = int64(1<<63 - 1)

func (s Slot) empty() bool { return s.Fingerprint == 0 }

func readSlot(buf []byte) Slot {
	return Slot{
		Fingerprint: binary.LittleEndian.Uint64(buf[0:8]),
		Cursor:      binary.LittleEndian.Uint64(buf[8:16]),
		Length:      binary.LittleEndian.Uint32(buf[16:20]),
		ExpireAtMs:  int64(binary.LittleEndian.Uint64(buf[24:32])),
	}
}

func writeSlot(buf []byte, s Slot) {
	binary.LittleEndian.PutUint64(buf[0:8], s.Fingerprint)
	binary.LittleEndian.PutUint64(buf[8:16], s.Cursor)
	binary.LittleEndian.PutUint32(buf[16:20], s.Length)
	binary.LittleEndian.PutUint32(buf[20:24], 0)
	binary.LittleEndian.PutUint64(buf[24:32], uint64(s.ExpireAtMs))
}

func clearSlot(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
}
