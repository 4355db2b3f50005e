package csoarc

import "io"

// BoundedStream windows a seekable byte source to [offset, offset+length),
// presenting positions relative to the window.
type BoundedStream struct {
	r        io.ReaderAt
	offset   int64
	length   int64
	position int64
}

// NewBoundedStream wraps r, exposing only the region [offset, offset+length).
func NewBoundedStream(r io.ReaderAt, offset, length int64) *BoundedStream {
	return &BoundedStream{r: r, offset: offset, length: length}
}

// Length reports the size of the window.
func (b *BoundedStream) Length() int64 { return b.length }

// Position reports the current read position relative to the window.
func (b *BoundedStream) Position() int64 { return b.position }

// Seek moves the window-relative position. Absolute positions outside
// [0, length] are rejected.
func (b *BoundedStream) Seek(offset int64, whence int) (int64, error) {
	var target int64

	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = b.position + offset
	case io.SeekEnd:
		target = b.length + offset
	default:
		return 0, newErr(KindOutOfRange, "invalid seek whence")
	}

	if target < 0 || target > b.length {
		return 0, newErr(KindOutOfRange, "seek target outside bounded stream window")
	}

	b.position = target
	return target, nil
}

// Read clamps count so that position+count <= length, and translates the
// read into an absolute read on the underlying source.
func (b *BoundedStream) Read(p []byte) (int, error) {
	if b.position >= b.length {
		return 0, io.EOF
	}

	remaining := b.length - b.position
	if int64(len(p)) > remaining {
		p = p[:remaining]
	}

	n, err := b.r.ReadAt(p, b.offset+b.position)
	b.position += int64(n)

	if err == io.EOF && n > 0 {
		err = nil
	}

	return n, err
}
