package csoarc

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestPakViewTypedReadsMatchBulkDecrypt(t *testing.T) {
	key := testSnowKey(9)

	plain := make([]byte, 64)
	for i := range plain {
		plain[i] = byte(i * 5)
	}

	// encrypt (Snow's decrypt is its own inverse: XOR keystream) to get
	// a ciphertext that reproduces `plain` when decrypted with the same
	// key from a fresh cipher instance.
	cipherBuf := make([]byte, len(plain))
	NewSnow(key).Decrypt(cipherBuf, plain)

	view := NewPakView(cipherBuf, key)

	u1, err := view.ReadU32()
	if err != nil {
		t.Fatal(err)
	}
	if u1 != binary.LittleEndian.Uint32(plain[0:4]) {
		t.Fatalf("u1 = %x, want %x", u1, binary.LittleEndian.Uint32(plain[0:4]))
	}

	s, err := view.ReadUTF16String(3)
	if err != nil {
		t.Fatal(err)
	}
	wantStr := decodeUTF16LE(plain[4:10])
	if s != wantStr {
		t.Fatalf("s = %q, want %q", s, wantStr)
	}

	arr, err := view.ReadU32Array4()
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 4; i++ {
		want := binary.LittleEndian.Uint32(plain[10+i*4 : 14+i*4])
		if arr[i] != want {
			t.Fatalf("arr[%d] = %x, want %x", i, arr[i], want)
		}
	}

	rest, err := view.ReadBytes(len(plain) - 26)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(rest, plain[26:]) {
		t.Fatalf("rest = %x, want %x", rest, plain[26:])
	}
}

func TestPakViewTruncatedRead(t *testing.T) {
	key := testSnowKey(3)
	view := NewPakView(make([]byte, 4), key)

	if _, err := view.ReadU32Array4(); err == nil {
		t.Fatal("expected truncation error reading beyond ciphertext")
	}
}
