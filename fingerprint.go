package csoarc

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/dchest/siphash"
)

// fingerprintK0, fingerprintK1 are the fixed SipHash keys used to
// fingerprint archive directories. They are not secret; the fingerprint
// exists to compare directory listings across extractions, not to
// authenticate them.
const (
	fingerprintK0 = 0x636f6d70696c6566
	fingerprintK1 = 0x6967687465727a61
)

// NarFingerprint is a SipHash-128 digest over a NAR archive's directory,
// streamed over each entry's path, stored type, offset, size, and CRC
// in listing order. Two archives with the same fingerprint have
// identical directories; a changed fingerprint means an entry moved,
// resized, was added, or was removed.
func NarFingerprint(entries []NarEntry) [16]byte {
	h := siphash.New128(fingerprintKeyBytes())

	var buf [8]byte
	for _, e := range entries {
		binary.BigEndian.PutUint64(buf[:], uint64(len(e.Path)))
		h.Write(buf[:])
		h.Write([]byte(e.Path))

		binary.BigEndian.PutUint32(buf[:4], uint32(e.StoredType))
		h.Write(buf[:4])

		binary.BigEndian.PutUint64(buf[:], uint64(e.Offset))
		h.Write(buf[:])

		binary.BigEndian.PutUint64(buf[:], uint64(e.StoredSize))
		h.Write(buf[:])

		binary.BigEndian.PutUint64(buf[:], uint64(e.ExtractedSize))
		h.Write(buf[:])

		binary.BigEndian.PutUint32(buf[:4], e.CRC32)
		h.Write(buf[:4])
	}

	var out [16]byte
	copy(out[:], h.Sum(nil))
	return out
}

// PakFingerprint is the same construction for a PAK entry table.
func PakFingerprint(entries []PakEntry) [16]byte {
	h := siphash.New128(fingerprintKeyBytes())

	var buf [8]byte
	for _, e := range entries {
		binary.BigEndian.PutUint64(buf[:], uint64(len(e.Path)))
		h.Write(buf[:])
		h.Write([]byte(e.Path))

		binary.BigEndian.PutUint32(buf[:4], uint32(e.Type))
		h.Write(buf[:4])

		binary.BigEndian.PutUint32(buf[:4], e.Offset)
		h.Write(buf[:4])

		binary.BigEndian.PutUint32(buf[:4], e.OriginalSize)
		h.Write(buf[:4])

		binary.BigEndian.PutUint32(buf[:4], e.PackedSize)
		h.Write(buf[:4])
	}

	var out [16]byte
	copy(out[:], h.Sum(nil))
	return out
}

func fingerprintKeyBytes() []byte {
	var key [16]byte
	binary.BigEndian.PutUint64(key[0:8], fingerprintK0)
	binary.BigEndian.PutUint64(key[8:16], fingerprintK1)
	return key[:]
}

// FingerprintString renders a fingerprint as a lowercase hex string, for
// printing in CLI output.
func FingerprintString(fp [16]byte) string {
	return hex.EncodeToString(fp[:])
}
