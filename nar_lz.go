package csoarc

import (
	"bytes"
	"io"
)

// narLZReader decompresses the NAR LZ token stream read from src against
// an 8 KiB sliding dictionary, stopping once limit decompressed bytes
// have been produced.
type narLZReader struct {
	src   io.Reader
	dict  *CircularDictionary
	limit int64

	produced int64
	pending  bytes.Buffer
	done     bool
}

// newNARLZReader wraps src, decompressing up to limit bytes of output.
func newNARLZReader(src io.Reader, limit int64) *narLZReader {
	return &narLZReader{
		src:   src,
		dict:  NewCircularDictionary(),
		limit: limit,
	}
}

func (z *narLZReader) Read(p []byte) (int, error) {
	for z.pending.Len() == 0 && !z.done && z.produced < z.limit {
		if err := z.decodeToken(); err != nil {
			return 0, err
		}
	}

	if z.pending.Len() == 0 {
		return 0, io.EOF
	}

	n, _ := z.pending.Read(p)
	return n, nil
}

func (z *narLZReader) decodeToken() error {
	var hdr [1]byte
	if _, err := io.ReadFull(z.src, hdr[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			z.done = true
			return nil
		}
		return wrapErr(KindTruncated, "reading NAR LZ token", err)
	}

	op := int(hdr[0] >> 5)
	length := int(hdr[0] & 31)

	if op == 0 {
		return z.emitLiteral(length + 1)
	}

	if op == 7 {
		var extra [1]byte
		if _, err := io.ReadFull(z.src, extra[:]); err != nil {
			return wrapErr(KindMalformedTokenStream, "truncated extended match length", err)
		}
		op += int(extra[0])
	}

	op += 2

	var distByte [1]byte
	if _, err := io.ReadFull(z.src, distByte[:]); err != nil {
		return wrapErr(KindMalformedTokenStream, "truncated match distance", err)
	}

	distance := (length<<8 | int(distByte[0])) + 1

	return z.emitMatch(distance, op)
}

func (z *narLZReader) emitLiteral(n int) error {
	buf := make([]byte, n)
	if _, err := io.ReadFull(z.src, buf); err != nil {
		return wrapErr(KindMalformedTokenStream, "truncated literal run", err)
	}

	remaining := z.limit - z.produced
	if int64(n) > remaining {
		n = int(remaining)
		buf = buf[:n]
	}

	z.dict.Append(buf, 0, n)
	z.pending.Write(buf)
	z.produced += int64(n)

	return nil
}

func (z *narLZReader) emitMatch(distance, n int) error {
	if distance > z.dict.Count() {
		return newErr(KindMalformedTokenStream, "match distance exceeds dictionary content")
	}

	remaining := z.limit - z.produced
	if int64(n) > remaining {
		n = int(remaining)
	}

	buf := make([]byte, n)
	if err := z.dict.Copy(distance, buf, 0, n); err != nil {
		return err
	}

	z.pending.Write(buf)
	z.produced += int64(n)

	return nil
}
