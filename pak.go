package csoarc

import (
	"encoding/binary"
	"unicode/utf16"
)

const pakEmbeddedKey = "CqeLFV@*0IfewH"
const pakVersion = 2
const pakMaxPathLen = 0x4000
const pakBlockAlign = 1024

// PakEntryType classifies how a PAK entry's payload is laid out and
// encrypted.
type PakEntryType uint32

const (
	PakUncompressed  PakEntryType = 0
	PakCompressed    PakEntryType = 1
	PakEncrypted     PakEntryType = 2
	PakEncryptedAgain PakEntryType = 4
)

// PakHeader is the 12-byte header decrypted from a PAK's filename-derived
// offset.
type PakHeader struct {
	Checksum   uint32
	Version    byte
	EntryCount uint32
}

// IsValid reports whether the header's version is 2 and its checksum
// equals version + entry count.
func (h PakHeader) IsValid() bool {
	return h.Version == pakVersion && uint32(h.Version)+h.EntryCount == h.Checksum
}

// PakEntry describes one file recorded in a PAK's entry table.
type PakEntry struct {
	Path         string
	Unknown      uint32
	Type         PakEntryType
	Offset       uint32 // in 1024-byte blocks past the data origin
	OriginalSize uint32
	PackedSize   uint32
	BaseKey      [4]uint32
}

// PakArchive is an opened PAK container: the original byte buffer plus
// the three computed offsets (header, entry table, data).
type PakArchive struct {
	buf      []byte
	filename string

	headerOffset  int
	entriesOffset int
	dataOffset    int

	Header  PakHeader
	Entries []PakEntry
}

// OpenPAK parses a PAK archive already loaded into buf, deriving its keys
// and offsets from filename.
func OpenPAK(filename string, buf []byte) (*PakArchive, error) {
	k := []byte(filename + pakEmbeddedKey)

	s := utf16CodeUnitSum(filename)
	sPrime := utf16CodeUnitTripleSum(filename)

	headerOffset := int((s % 312) + 30)
	entriesOffset := headerOffset + 42 + int(sPrime%212)

	if headerOffset+12 > len(buf) {
		return nil, newErr(KindTruncated, "PAK header offset exceeds buffer length")
	}

	header, err := decodePakHeader(buf[headerOffset:headerOffset+12], buildHeaderKey(k))
	if err != nil {
		return nil, err
	}
	if !header.IsValid() {
		return nil, newErr(KindInvalidChecksum, "PAK header checksum does not match version+entryCount")
	}

	if entriesOffset > len(buf) {
		return nil, newErr(KindTruncated, "PAK entries offset exceeds buffer length")
	}

	entriesKey := buildEntriesKey(k)
	view := NewPakView(buf[entriesOffset:], entriesKey)

	entries := make([]PakEntry, 0, header.EntryCount)
	for i := uint32(0); i < header.EntryCount; i++ {
		e, err := readPakEntry(view)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	dataOffset := alignUp1024(entriesOffset + view.offset)

	return &PakArchive{
		buf:           buf,
		filename:      filename,
		headerOffset:  headerOffset,
		entriesOffset: entriesOffset,
		dataOffset:    dataOffset,
		Header:        header,
		Entries:       entries,
	}, nil
}

func alignUp1024(n int) int {
	if r := n % pakBlockAlign; r != 0 {
		n += pakBlockAlign - r
	}
	return n
}

func decodePakHeader(ciphertext []byte, key [snowKeySize]byte) (PakHeader, error) {
	plain := make([]byte, 12)
	NewSnow(key).Decrypt(plain, ciphertext)

	return PakHeader{
		Checksum:   binary.LittleEndian.Uint32(plain[0:4]),
		Version:    plain[4],
		EntryCount: binary.LittleEndian.Uint32(plain[5:9]),
	}, nil
}

func readPakEntry(view *PakView) (PakEntry, error) {
	pathLen, err := view.ReadU32()
	if err != nil {
		return PakEntry{}, err
	}
	if pathLen > pakMaxPathLen {
		return PakEntry{}, newErr(KindOutOfRange, "PAK entry path length exceeds maximum")
	}

	path, err := view.ReadUTF16String(int(pathLen))
	if err != nil {
		return PakEntry{}, err
	}

	unknown, err := view.ReadU32()
	if err != nil {
		return PakEntry{}, err
	}

	typ, err := view.ReadU32()
	if err != nil {
		return PakEntry{}, err
	}

	offset, err := view.ReadU32()
	if err != nil {
		return PakEntry{}, err
	}

	originalSize, err := view.ReadU32()
	if err != nil {
		return PakEntry{}, err
	}

	packedSize, err := view.ReadU32()
	if err != nil {
		return PakEntry{}, err
	}

	baseKey, err := view.ReadU32Array4()
	if err != nil {
		return PakEntry{}, err
	}

	return PakEntry{
		Path:         path,
		Unknown:      unknown,
		Type:         PakEntryType(typ),
		Offset:       offset,
		OriginalSize: originalSize,
		PackedSize:   packedSize,
		BaseKey:      baseKey,
	}, nil
}

// Unpack extracts entry's payload, applying the pipeline its Type
// selects.
func (a *PakArchive) Unpack(entry PakEntry) ([]byte, error) {
	payloadStart := a.dataOffset + int(entry.Offset)<<10

	switch entry.Type {
	case PakUncompressed:
		return a.copyPayload(payloadStart, int(entry.OriginalSize))

	case PakEncrypted:
		buf, err := a.copyPayload(payloadStart, int(entry.OriginalSize))
		if err != nil {
			return nil, err
		}

		n := align4(int(entry.OriginalSize))
		if n > pakBlockAlign {
			n = pakBlockAlign
		}
		if n > len(buf) {
			n = len(buf)
		}

		dataKey := buildDataKey(entry.Path, entry.BaseKey)
		view := NewPakView(buf[:n], dataKey)
		decrypted, err := view.ReadBytes(n)
		if err != nil {
			return nil, err
		}
		copy(buf[:n], decrypted)

		return buf, nil

	case PakEncryptedAgain:
		if payloadStart+int(entry.OriginalSize) > len(a.buf) {
			return nil, newErr(KindTruncated, "PAK entry payload exceeds buffer length")
		}

		dataKey := buildDataKey(entry.Path, entry.BaseKey)
		view := NewPakView(a.buf[payloadStart:payloadStart+int(entry.OriginalSize)], dataKey)
		return view.ReadBytes(int(entry.OriginalSize))

	case PakCompressed:
		return nil, newErr(KindUnsupportedType, "PAK Compressed entries are not implemented")

	default:
		return nil, newErr(KindUnsupportedType, "unknown PAK entry type")
	}
}

func (a *PakArchive) copyPayload(start, n int) ([]byte, error) {
	if start < 0 || start+n > len(a.buf) {
		return nil, newErr(KindTruncated, "PAK entry payload exceeds buffer length")
	}

	buf := make([]byte, n)
	copy(buf, a.buf[start:start+n])
	return buf, nil
}

func align4(n int) int {
	return (n + 3) &^ 3
}

// utf16CodeUnitSum sums the UTF-16 code units of s.
func utf16CodeUnitSum(s string) int64 {
	var sum int64
	for _, u := range utf16.Encode([]rune(s)) {
		sum += int64(u)
	}
	return sum
}

// utf16CodeUnitTripleSum sums (c + 2c) over s's UTF-16 code units.
func utf16CodeUnitTripleSum(s string) int64 {
	var sum int64
	for _, u := range utf16.Encode([]rune(s)) {
		c := int64(u)
		sum += c + 2*c
	}
	return sum
}

func buildHeaderKey(k []byte) [snowKeySize]byte {
	var key [snowKeySize]byte
	for i := range key {
		key[i] = byte(i + int(k[i%len(k)]))
	}
	return key
}

func buildEntriesKey(k []byte) [snowKeySize]byte {
	var key [snowKeySize]byte
	for i := range key {
		inner := (i % 3) + 2
		kb := int(k[len(k)-1-(i%len(k))])
		key[i] = byte(i + inner*kb)
	}
	return key
}

func buildDataKey(path string, baseKey [4]uint32) [snowKeySize]byte {
	pathBytes := []byte(path)

	var baseKeyBytes [16]byte
	for i, w := range baseKey {
		binary.LittleEndian.PutUint32(baseKeyBytes[i*4:i*4+4], w)
	}

	var key [snowKeySize]byte
	for i := range key {
		pb := int(pathBytes[i%len(pathBytes)])
		bk := int(baseKeyBytes[i%16])
		key[i] = byte(i + pb*(i+bk-5*(i/5)+2))
	}
	return key
}
