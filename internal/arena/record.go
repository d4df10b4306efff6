package arena

import "encoding/binary"

// RecordHeaderSize is the fixed self-validation header every stored payload
// carries, ahead of its key and value bytes (SPEC_FULL.md §3 "Data region"):
// a fingerprint echo and expiration for validating a stale index pointer
// without a second index lookup, plus the key/value lengths needed to slice
// the payload back apart on read.
const RecordHeaderSize = 24

// Record is the decoded form of a payload header.
type Record struct {
	Fingerprint uint64
	ExpireAtMs  int64
	KeyLen      uint32
	ValueLen    uint32
}

// Size returns the total on-disk footprint of a record with these lengths.
func (r Record) Size() uint64 {
	return RecordHeaderSize + uint64(r.KeyLen) + uint64(r.ValueLen)
}

// EncodeRecordHeader writes r into buf[:RecordHeaderSize].
func EncodeRecordHeader(buf []byte, r Record) {
	binary.LittleEndian.PutUint64(buf[0:8], r.Fingerprint)
	binary.LittleEndian.PutUint64(buf[8:16], uint64(r.ExpireAtMs))
	binary.LittleEndian.PutUint32(buf[16:20], r.KeyLen)
	binary.LittleEndian.PutUint32(buf[20:24], r.ValueLen)
}

// DecodeRecordHeader parses buf[:RecordHeaderSize].
func DecodeRecordHeader(buf []byte) Record {
	return Record{
		Fingerprint: binary.LittleEndian.Uint64(buf[0:8]),
		ExpireAtMs:  int64(binary.LittleEndian.Uint64(buf[8:16])),
		KeyLen:      binary.LittleEndian.Uint32(buf[16:20]),
		ValueLen:    binary.LittleEndian.Uint32(buf[20:24]),
	}
}
