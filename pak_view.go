package csoarc

import "encoding/binary"

// PakView presents sequential typed reads over a ciphertext slice
// decrypted with a Snow cipher instance. All reads are internally
// 4-byte aligned against the ciphertext; when a typed read needs fewer
// bytes than that alignment, the remainder is buffered and satisfies the
// start of the next read. A view must be re-created (and its cipher
// re-keyed) whenever the ciphertext region changes; re-keying mid-stream
// would desynchronize the keystream.
type PakView struct {
	cipher *Snow
	data   []byte
	offset int

	overflow    [3]byte
	overflowLen int
}

// NewPakView wraps ciphertext, keying a fresh Snow cipher with key.
func NewPakView(ciphertext []byte, key [snowKeySize]byte) *PakView {
	return &PakView{
		cipher: NewSnow(key),
		data:   ciphertext,
	}
}

// readRaw returns exactly n decrypted bytes, drawing from the remainder
// buffer first and decrypting further 4-byte-aligned chunks as needed.
func (v *PakView) readRaw(n int) ([]byte, error) {
	result := make([]byte, n)
	copied := 0

	if v.overflowLen > 0 {
		take := v.overflowLen
		if take > n {
			take = n
		}

		copy(result[:take], v.overflow[:take])

		remaining := v.overflowLen - take
		copy(v.overflow[:remaining], v.overflow[take:v.overflowLen])
		v.overflowLen = remaining

		copied = take
	}

	if copied == n {
		return result, nil
	}

	need := n - copied
	aligned := (need + 3) &^ 3

	if v.offset+aligned > len(v.data) {
		return nil, newErr(KindTruncated, "PAK view read exceeds ciphertext length")
	}

	cipherChunk := v.data[v.offset : v.offset+aligned]
	plainChunk := make([]byte, aligned)
	v.cipher.Decrypt(plainChunk, cipherChunk)
	v.offset += aligned

	copy(result[copied:], plainChunk[:need])

	if leftover := aligned - need; leftover > 0 {
		copy(v.overflow[:leftover], plainChunk[need:aligned])
		v.overflowLen = leftover
	}

	return result, nil
}

// ReadU32 reads one little-endian uint32.
func (v *PakView) ReadU32() (uint32, error) {
	b, err := v.readRaw(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadUTF16String reads a UTF-16LE string of exactly codeUnits code
// units.
func (v *PakView) ReadUTF16String(codeUnits int) (string, error) {
	b, err := v.readRaw(codeUnits * 2)
	if err != nil {
		return "", err
	}
	return decodeUTF16LE(b), nil
}

// ReadU32Array4 reads four little-endian uint32 values, used for a PAK
// entry's 128-bit base key.
func (v *PakView) ReadU32Array4() ([4]uint32, error) {
	b, err := v.readRaw(16)
	if err != nil {
		return [4]uint32{}, err
	}

	var out [4]uint32
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(b[i*4 : i*4+4])
	}
	return out, nil
}

// ReadBytes reads n raw decrypted bytes.
func (v *PakView) ReadBytes(n int) ([]byte, error) {
	return v.readRaw(n)
}
