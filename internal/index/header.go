package index

import (
	"encoding/binary"
	"hash/crc32"

	"github.com/kfabryczny/ybc/pkg/fingerprint"
)

// File layout, mirroring the binary-header discipline used by
// calvinalkan-agent-task's cache_binary.go (fixed magic/version, a CRC over
// the header, bounds validation before trusting anything else in the file):
//
//	[header (headerSize bytes)] [slot 0] [slot 1] ... [slot N-1]
const (
	magic      = "YBC1"
	version    = uint32(1)
	headerSize = 64
	entrySize  = 32
)

// header is the on-disk (and in-mmap) index file header.
type header struct {
	Magic       [4]byte
	Version     uint32
	SlotCount   uint64
	EntrySize   uint32
	ProbeWindow uint32
	SeedK0      uint64
	SeedK1      uint64
	CRC32       uint32
}

func newHeader(slotCount uint64, probeWindow uint32, seed fingerprint.Seed) header {
	h := header{
		Version:     version,
		SlotCount:   slotCount,
		EntrySize:   entrySize,
		ProbeWindow: probeWindow,
		SeedK0:      seed.K0,
		SeedK1:      seed.K1,
	}
	copy(h.Magic[:], magic)
	return h
}

// encode writes h into buf[:headerSize], computing the trailing CRC32 over
// everything preceding it.
func (h header) encode(buf []byte) {
	copy(buf[0:4], h.Magic[:])
	binary.LittleEndian.PutUint32(buf[4:8], h.Version)
	binary.LittleEndian.PutUint64(buf[8:16], h.SlotCount)
	binary.LittleEndian.PutUint32(buf[16:20], h.EntrySize)
	binary.LittleEndian.PutUint32(buf[20:24], h.ProbeWindow)
	binary.LittleEndian.PutUint64(buf[24:32], h.SeedK0)
	binary.LittleEndian.PutUint64(buf[32:40], h.SeedK1)
	crc := crc32.ChecksumIEEE(buf[0:40])
	binary.LittleEndian.PutUint32(buf[40:44], crc)
}

// decodeHeader parses buf[:headerSize] and validates magic/version/CRC. A
// validation failure means the index must be treated as empty (§4.H); it is
// never a fatal error for the cache as a whole.
func decodeHeader(buf []byte) (header, bool) {
	var h header
	if len(buf) < headerSize {
		return h, false
	}
	copy(h.Magic[:], buf[0:4])
	if string(h.Magic[:]) != magic {
		return h, false
	}
	h.Version = binary.LittleEndian.Uint32(buf[4:8])
	if h.Version != version {
		return h, false
	}
	h.SlotCount = binary.LittleEndian.Uint64(buf[8:16])
	h.EntrySize = binary.LittleEndian.Uint32(buf[16:20])
	h.ProbeWindow = binary.LittleEndian.Uint32(buf[20:24])
	h.SeedK0 = binary.LittleEndian.Uint64(buf[24:32])
	h.SeedK1 = binary.LittleEndian.Uint64(buf[32:40])
	h.CRC32 = binary.LittleEndian.Uint32(buf[40:44])

	if h.EntrySize != entrySize || h.SlotCount == 0 || h.ProbeWindow == 0 {
		return h, false
	}

	gotCRC := crc32.ChecksumIEEE(buf[0:40])
	if gotCRC != h.CRC32 {
		return h, false
	}
	return h, true
}

// fileSize computes the total index file size for slotCount slots.
func fileSize(slotCount uint64) int64 {
	return int64(headerSize) + int64(slotCount)*int64(entrySize)
}
