package classfile

import (
	"encoding/binary"
	"errors"
	"io"
)

// Reader reads big-endian class file primitives and counts the bytes it
// has consumed.
type Reader struct {
	r   io.Reader
	n   int64
	buf [8]byte
}

// NewReader returns a Reader positioned at the start of r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int64 { return r.n }

func (r *Reader) fill(n int) ([]byte, error) {
	b := r.buf[:n]
	m, err := io.ReadFull(r.r, b)
	r.n += int64(m)
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return b, nil
}

// U1 reads an unsigned byte.
func (r *Reader) U1() (uint8, error) {
	b, err := r.fill(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// U2 reads a big-endian uint16.
func (r *Reader) U2() (uint16, error) {
	b, err := r.fill(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// U4 reads a big-endian uint32.
func (r *Reader) U4() (uint32, error) {
	b, err := r.fill(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// U8 reads a big-endian uint64.
func (r *Reader) U8() (uint64, error) {
	b, err := r.fill(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

// largeRead is the size above which Bytes grows its buffer as data arrives
// instead of trusting a length prefix up front.
const largeRead = 64 << 10

// Bytes reads exactly n bytes into a new slice.
func (r *Reader) Bytes(n int) ([]byte, error) {
	if n <= largeRead {
		b := make([]byte, n)
		m, err := io.ReadFull(r.r, b)
		r.n += int64(m)
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return nil, err
		}
		return b, nil
	}
	b, err := io.ReadAll(io.LimitReader(r.r, int64(n)))
	r.n += int64(len(b))
	if err != nil {
		return nil, err
	}
	if len(b) < n {
		return nil, io.ErrUnexpectedEOF
	}
	return b, nil
}

// Writer writes big-endian class file primitives. The first error is sticky:
// later writes are dropped and Err reports it.
type Writer struct {
	w   io.Writer
	n   int64
	err error
	buf [8]byte
}

// NewWriter returns a Writer that emits to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Count returns the number of bytes written so far.
func (w *Writer) Count() int64 { return w.n }

// Err returns the first error encountered.
func (w *Writer) Err() error { return w.err }

// Fail records err unless an earlier error is already pending.
func (w *Writer) Fail(err error) {
	if w.err == nil {
		w.err = err
	}
}

func (w *Writer) emit(p []byte) {
	if w.err != nil {
		return
	}
	m, err := w.w.Write(p)
	w.n += int64(m)
	if err != nil {
		w.err = err
	}
}

// U1 writes one byte.
func (w *Writer) U1(v uint8) {
	w.buf[0] = v
	w.emit(w.buf[:1])
}

// U2 writes a big-endian uint16.
func (w *Writer) U2(v uint16) {
	binary.BigEndian.PutUint16(w.buf[:2], v)
	w.emit(w.buf[:2])
}

// U4 writes a big-endian uint32.
func (w *Writer) U4(v uint32) {
	binary.BigEndian.PutUint32(w.buf[:4], v)
	w.emit(w.buf[:4])
}

// U8 writes a big-endian uint64.
func (w *Writer) U8(v uint64) {
	binary.BigEndian.PutUint64(w.buf[:8], v)
	w.emit(w.buf[:8])
}

// Bytes writes p verbatim.
func (w *Writer) Bytes(p []byte) {
	if len(p) == 0 {
		return
	}
	w.emit(p)
}
