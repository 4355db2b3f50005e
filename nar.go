package csoarc

import (
	"bytes"
	"compress/bzip2"
	"encoding/binary"
	"hash/crc32"
	"io"
	"sync"
	"time"
	"unicode/utf16"
)

// narMagic is the literal 4-byte signature at the start and end of every
// NAR file.
var narMagic = [4]byte{0x41, 0x4E, 0x41, 0x00}

// narHeaderXorKey XOR-obfuscates the trailer-located header before it is
// BZip2-decompressed.
var narHeaderXorKey = iceHeaderXor

const narHeaderSizeXorMask = 0x4074659F
const narDirectoryVersion = 1

// NarStoredType classifies how an entry's payload is laid out on disk.
type NarStoredType uint32

const (
	NarRaw NarStoredType = iota
	NarEncoded
	NarEncodedAndCompressed
)

// NarEntry describes one file recorded in a NAR archive's directory.
type NarEntry struct {
	Path          string
	StoredType    NarStoredType
	Offset        int64
	StoredSize    int64
	ExtractedSize int64
	Modified      time.Time
	CRC32         uint32
}

// NarArchive is an opened NAR container. It is immutable after load.
type NarArchive struct {
	r       io.ReaderAt
	length  int64
	entries []NarEntry

	// mu is held while Extract builds an entry's reader and for the whole
	// of Verify's read. It is not held while the reader returned by
	// Extract is read; that reader reaches r only through ReadAt.
	mu sync.Mutex
}

// OpenNAR reads and validates a NAR archive's directory from r, which
// spans length bytes.
func OpenNAR(r io.ReaderAt, length int64) (*NarArchive, error) {
	var head [8]byte
	if _, err := r.ReadAt(head[:], 0); err != nil {
		return nil, wrapErr(KindTruncated, "reading NAR leading magic+version", err)
	}

	if !bytes.Equal(head[0:4], narMagic[:]) {
		return nil, newErr(KindInvalidMagic, "leading magic mismatch")
	}

	if binary.LittleEndian.Uint32(head[4:8]) != 16777216 {
		return nil, newErr(KindInvalidVersion, "unexpected NAR version")
	}

	var tailMagic [4]byte
	if _, err := r.ReadAt(tailMagic[:], length-4); err != nil {
		return nil, wrapErr(KindTruncated, "reading NAR trailing magic", err)
	}
	if !bytes.Equal(tailMagic[:], narMagic[:]) {
		return nil, newErr(KindInvalidMagic, "trailing magic mismatch")
	}

	var obf [4]byte
	if _, err := r.ReadAt(obf[:], length-8); err != nil {
		return nil, wrapErr(KindTruncated, "reading NAR obfuscated header size", err)
	}
	headerSize := int64(binary.LittleEndian.Uint32(obf[:]) ^ narHeaderSizeXorMask)

	headerOffset := length - 8 - headerSize
	if headerOffset < 0 {
		return nil, newErr(KindOutOfRange, "NAR header size exceeds file length")
	}

	rawHeader := make([]byte, headerSize)
	if _, err := r.ReadAt(rawHeader, headerOffset); err != nil {
		return nil, wrapErr(KindTruncated, "reading NAR header region", err)
	}

	for i := range rawHeader {
		rawHeader[i] ^= narHeaderXorKey[i&15]
	}

	decompressed, err := io.ReadAll(bzip2.NewReader(bytes.NewReader(rawHeader)))
	if err != nil {
		return nil, wrapErr(KindTruncated, "BZip2-decompressing NAR header", err)
	}

	entries, err := parseNARDirectory(decompressed)
	if err != nil {
		return nil, err
	}

	for _, e := range entries {
		if e.StoredSize < 0 || e.ExtractedSize < 0 {
			return nil, newErr(KindOutOfRange, "negative entry size")
		}
		if e.Offset+e.StoredSize > length {
			return nil, newErr(KindOutOfRange, "entry payload exceeds archive length")
		}
		if e.StoredType == NarRaw && e.ExtractedSize != e.StoredSize {
			return nil, newErr(KindOutOfRange, "raw entry extracted size must equal stored size")
		}
	}

	return &NarArchive{r: r, length: length, entries: entries}, nil
}

func parseNARDirectory(blob []byte) ([]NarEntry, error) {
	if len(blob) < 20 {
		return nil, newErr(KindTruncated, "NAR directory blob too short")
	}

	if binary.LittleEndian.Uint32(blob[0:4]) != narDirectoryVersion {
		return nil, newErr(KindInvalidVersion, "unexpected NAR directory version")
	}

	count := binary.LittleEndian.Uint32(blob[16:20])
	r := bytes.NewReader(blob[20:])

	entries := make([]NarEntry, 0, count)
	for i := uint32(0); i < count; i++ {
		e, err := readNAREntry(r)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, nil
}

func readNAREntry(r *bytes.Reader) (NarEntry, error) {
	var u16 [2]byte
	if _, err := io.ReadFull(r, u16[:]); err != nil {
		return NarEntry{}, wrapErr(KindTruncated, "reading NAR entry path length", err)
	}
	codeUnits := binary.LittleEndian.Uint16(u16[:])

	pathBytes := make([]byte, int(codeUnits)*2)
	if _, err := io.ReadFull(r, pathBytes); err != nil {
		return NarEntry{}, wrapErr(KindTruncated, "reading NAR entry path", err)
	}
	path := decodeUTF16LE(pathBytes)

	var fields [24]byte
	if _, err := io.ReadFull(r, fields[:]); err != nil {
		return NarEntry{}, wrapErr(KindTruncated, "reading NAR entry fields", err)
	}

	return NarEntry{
		Path:          path,
		StoredType:    NarStoredType(binary.LittleEndian.Uint32(fields[0:4])),
		Offset:        int64(binary.LittleEndian.Uint32(fields[4:8])),
		StoredSize:    int64(binary.LittleEndian.Uint32(fields[8:12])),
		ExtractedSize: int64(binary.LittleEndian.Uint32(fields[12:16])),
		Modified:      time.Unix(int64(binary.LittleEndian.Uint32(fields[16:20])), 0).UTC(),
		CRC32:         binary.LittleEndian.Uint32(fields[20:24]),
	}, nil
}

func decodeUTF16LE(b []byte) string {
	units := make([]uint16, len(b)/2)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(b[i*2 : i*2+2])
	}
	return string(utf16.Decode(units))
}

// Entries returns the archive's directory in the order it was recorded.
func (a *NarArchive) Entries() []NarEntry { return a.entries }

// Extract returns a reader over entry's decoded content, choosing the
// Raw/Encoded/EncodedAndCompressed pipeline by its stored type.
func (a *NarArchive) Extract(entry NarEntry) (io.Reader, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	raw := NewBoundedStream(a.r, entry.Offset, entry.StoredSize)

	switch entry.StoredType {
	case NarRaw:
		return raw, nil
	case NarEncoded:
		return newXORDecoder(raw, entry.Path), nil
	case NarEncodedAndCompressed:
		decoded := newXORDecoder(raw, entry.Path)
		return newNARLZReader(decoded, entry.ExtractedSize), nil
	default:
		return nil, newErr(KindUnsupportedType, "unknown NAR stored type")
	}
}

// Verify streams entry's raw stored bytes through CRC-32 and compares the
// result against the directory's recorded checksum.
func (a *NarArchive) Verify(entry NarEntry) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	raw := NewBoundedStream(a.r, entry.Offset, entry.StoredSize)

	h := crc32.NewIEEE()
	if _, err := io.Copy(h, raw); err != nil {
		return false, wrapErr(KindTruncated, "reading entry for CRC verification", err)
	}

	return h.Sum32() == entry.CRC32, nil
}
