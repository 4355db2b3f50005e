package csoarc

import "io"

// pythonHash reproduces CPython's string-hash fold: h = h*1000003 XOR b for
// each byte, then XOR len(d), all wrapping in unsigned 32 bits.
func pythonHash(d []byte) uint32 {
	var h uint32
	for _, b := range d {
		h = h*1000003 ^ uint32(b)
	}
	return h ^ uint32(len(d))
}

// narXORKey derives the 16-byte XOR mask for an entry from its path.
func narXORKey(path string) [16]byte {
	seed := pythonHash([]byte(path))

	var key [16]byte
	for i := range key {
		seed = seed*1103515245 + 12345
		key[i] = byte(seed & 0xFF)
	}

	return key
}

// xorDecoder wraps a reader, XORing each byte with a position-indexed
// 16-byte mask. Position is read from the wrapped stream before each
// read, so the decoder carries no state of its own beyond that.
type xorDecoder struct {
	r   positionedReader
	key [16]byte
}

// positionedReader is satisfied by BoundedStream: a reader that knows its
// own position within the window it exposes.
type positionedReader interface {
	io.Reader
	Position() int64
}

// newXORDecoder wraps r, deriving its key from path.
func newXORDecoder(r positionedReader, path string) *xorDecoder {
	return &xorDecoder{r: r, key: narXORKey(path)}
}

func (x *xorDecoder) Read(p []byte) (int, error) {
	start := x.r.Position()

	n, err := x.r.Read(p)
	for i := 0; i < n; i++ {
		p[i] ^= x.key[(start+int64(i))%16]
	}

	return n, err
}
