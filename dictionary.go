package csoarc

// dictionaryCapacity is the fixed size of a CircularDictionary, in bytes.
const dictionaryCapacity = 8192

// CircularDictionary is the 8 KiB sliding window the NAR LZ decompressor
// resolves back-references against.
type CircularDictionary struct {
	buf         [dictionaryCapacity]byte
	writeCursor int
	count       int
}

// NewCircularDictionary returns an empty dictionary.
func NewCircularDictionary() *CircularDictionary {
	return &CircularDictionary{}
}

// Append writes n bytes from src[off:off+n] into the dictionary, advancing
// the write cursor and growing count up to capacity.
func (d *CircularDictionary) Append(src []byte, off, n int) {
	if n >= dictionaryCapacity {
		copy(d.buf[:], src[off+n-dictionaryCapacity:off+n])
		d.writeCursor = 0
		d.count = dictionaryCapacity
		return
	}

	first := dictionaryCapacity - d.writeCursor
	if first > n {
		first = n
	}

	copy(d.buf[d.writeCursor:], src[off:off+first])
	if rem := n - first; rem > 0 {
		copy(d.buf[:rem], src[off+first:off+n])
	}

	d.writeCursor = (d.writeCursor + n) % dictionaryCapacity
	d.count += n
	if d.count > dictionaryCapacity {
		d.count = dictionaryCapacity
	}
}

// Copy emits n bytes into dst[off:off+n], read starting at distance bytes
// behind the current write cursor, and feeds each emitted byte back into
// the dictionary as it goes. The byte-at-a-time discipline is what makes
// distances shorter than n reproduce the RLE-like behavior real LZ
// matches rely on (e.g. distance=1 replays the most recent byte n times).
func (d *CircularDictionary) Copy(distance int, dst []byte, off, n int) error {
	if distance < 1 || distance > d.count {
		return newErr(KindOutOfRange, "dictionary copy distance exceeds valid content")
	}

	var single [1]byte
	for i := 0; i < n; i++ {
		pos := (d.writeCursor - distance + dictionaryCapacity) % dictionaryCapacity
		b := d.buf[pos]

		dst[off+i] = b
		single[0] = b
		d.Append(single[:], 0, 1)
	}

	return nil
}

// Count returns the number of valid bytes currently held.
func (d *CircularDictionary) Count() int { return d.count }
