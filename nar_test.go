package csoarc

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"io"
	"testing"
	"unicode/utf16"
)

func TestOpenNARRejectsBadMagic(t *testing.T) {
	buf := make([]byte, 64)
	copy(buf[0:4], []byte{0x00, 0x00, 0x00, 0x00})
	binary.LittleEndian.PutUint32(buf[4:8], 16777216)

	_, err := OpenNAR(bytes.NewReader(buf), int64(len(buf)))
	if err == nil {
		t.Fatal("expected error for bad magic")
	}

	cerr, ok := err.(*Error)
	if !ok || cerr.Kind != KindInvalidMagic {
		t.Fatalf("expected KindInvalidMagic, got %v", err)
	}
}

func encodeUTF16LE(s string) []byte {
	units := utf16.Encode([]rune(s))
	buf := make([]byte, len(units)*2)
	for i, u := range units {
		binary.LittleEndian.PutUint16(buf[i*2:], u)
	}
	return buf
}

func buildNAREntryRecord(path string, storedType NarStoredType, offset, storedSize, extractedSize int64, modified uint32, crc uint32) []byte {
	pathBytes := encodeUTF16LE(path)

	var buf bytes.Buffer
	var u16 [2]byte
	binary.LittleEndian.PutUint16(u16[:], uint16(len(pathBytes)/2))
	buf.Write(u16[:])
	buf.Write(pathBytes)

	var fields [24]byte
	binary.LittleEndian.PutUint32(fields[0:4], uint32(storedType))
	binary.LittleEndian.PutUint32(fields[4:8], uint32(offset))
	binary.LittleEndian.PutUint32(fields[8:12], uint32(storedSize))
	binary.LittleEndian.PutUint32(fields[12:16], uint32(extractedSize))
	binary.LittleEndian.PutUint32(fields[16:20], modified)
	binary.LittleEndian.PutUint32(fields[20:24], crc)
	buf.Write(fields[:])

	return buf.Bytes()
}

func TestParseNARDirectory(t *testing.T) {
	var blob bytes.Buffer

	var version [4]byte
	binary.LittleEndian.PutUint32(version[:], 1)
	blob.Write(version[:])
	blob.Write(make([]byte, 12)) // reserved

	var count [4]byte
	binary.LittleEndian.PutUint32(count[:], 2)
	blob.Write(count[:])

	blob.Write(buildNAREntryRecord("a.txt", NarRaw, 100, 10, 10, 0, 0xDEADBEEF))
	blob.Write(buildNAREntryRecord("dir/b.bin", NarEncoded, 200, 20, 20, 0, 0x12345678))

	entries, err := parseNARDirectory(blob.Bytes())
	if err != nil {
		t.Fatal(err)
	}

	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Path != "a.txt" || entries[0].StoredType != NarRaw {
		t.Fatalf("unexpected first entry: %+v", entries[0])
	}
	if entries[1].Path != "dir/b.bin" || entries[1].StoredType != NarEncoded {
		t.Fatalf("unexpected second entry: %+v", entries[1])
	}
	if entries[0].CRC32 != 0xDEADBEEF {
		t.Fatalf("crc mismatch: %x", entries[0].CRC32)
	}
}

func TestNARVerifyDetectsTamper(t *testing.T) {
	payload := []byte("raw stored bytes for this entry")

	buf := make([]byte, 1000)
	copy(buf[500:], payload)

	entry := NarEntry{
		Path:       "file.bin",
		StoredType: NarRaw,
		Offset:     500,
		StoredSize: int64(len(payload)),
		CRC32:      crc32.ChecksumIEEE(payload),
	}

	arc := &NarArchive{r: bytes.NewReader(buf), length: int64(len(buf)), entries: []NarEntry{entry}}

	ok, err := arc.Verify(entry)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected verify to succeed on untampered payload")
	}

	buf[500] ^= 0xFF
	arc2 := &NarArchive{r: bytes.NewReader(buf), length: int64(len(buf)), entries: []NarEntry{entry}}
	ok2, err := arc2.Verify(entry)
	if err != nil {
		t.Fatal(err)
	}
	if ok2 {
		t.Fatal("expected verify to fail after tampering")
	}
}

func TestNARExtractRawPipeline(t *testing.T) {
	payload := []byte("hello from a raw entry")
	buf := make([]byte, 100)
	copy(buf[10:], payload)

	entry := NarEntry{
		Path:          "raw.txt",
		StoredType:    NarRaw,
		Offset:        10,
		StoredSize:    int64(len(payload)),
		ExtractedSize: int64(len(payload)),
	}

	arc := &NarArchive{r: bytes.NewReader(buf), length: int64(len(buf)), entries: []NarEntry{entry}}

	r, err := arc.Extract(entry)
	if err != nil {
		t.Fatal(err)
	}

	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, payload) {
		t.Fatalf("got %q want %q", out, payload)
	}
}
