package exp

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// On-disk format: a short ASCII signature followed by fixed-width entries,
// no separators, no length prefix. Byte order is little-endian and fixed for
// file compatibility across platforms.
//
// Entry layout (20 bytes):
//   - Key (8): position hash
//   - Move (4): fixed-width move code
//   - Value (4): signed score in centipawns
//   - Depth (4): signed search depth
const (
	Signature     = "ExpBook"
	SignatureSize = len(Signature)

	EntrySize = 20
)

// MinDepth is the default minimum depth an entry must have to be persisted.
const MinDepth int32 = 4

// Key identifies a position (externally computed 64-bit hash).
type Key uint64

// Entry is one recorded evaluation of a move from a position.
type Entry struct {
	Key   Key
	Move  Move
	Value int32
	Depth int32
}

var (
	// ErrCorrupt indicates a file whose size or contents do not match the format.
	ErrCorrupt = errors.New("experience file is corrupted")
	// ErrSignatureMismatch indicates a file that does not start with Signature.
	ErrSignatureMismatch = errors.New("experience file signature mismatch")
)

// EncodeEntry encodes an entry to EntrySize bytes. Encoding never fails: the
// layout is fixed and has no variable-length fields.
func EncodeEntry(e Entry) []byte {
	buf := make([]byte, EntrySize)
	binary.LittleEndian.PutUint64(buf[0:8], uint64(e.Key))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(e.Move))
	binary.LittleEndian.PutUint32(buf[12:16], uint32(e.Value))
	binary.LittleEndian.PutUint32(buf[16:20], uint32(e.Depth))
	return buf
}

// DecodeEntry decodes EntrySize bytes into an Entry.
func DecodeEntry(data []byte) Entry {
	return Entry{
		Key:   Key(binary.LittleEndian.Uint64(data[0:8])),
		Move:  Move(binary.LittleEndian.Uint32(data[8:12])),
		Value: int32(binary.LittleEndian.Uint32(data[12:16])),
		Depth: int32(binary.LittleEndian.Uint32(data[16:20])),
	}
}

// EntryCount validates a file size against the format and returns the number
// of entries the file holds.
func EntryCount(size int64) (int, error) {
	data := size - int64(SignatureSize)
	if data < 0 || data%EntrySize != 0 {
		return 0, fmt.Errorf("%w: size %d is not a signature plus whole %d-byte entries", ErrCorrupt, size, EntrySize)
	}
	return int(data / EntrySize), nil
}
