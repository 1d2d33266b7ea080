// Package wire implements the shared byte buffer that attribute codecs append
// to during encode and consume during decode. The encoder side is a plain
// append-only writer; the decoder side is a cursor over a byte slice that
// refuses to read past the end of the data.
//
// All multi-byte values are little-endian, matching the packet formats used
// elsewhere in the pipeline. Floats travel as their IEEE-754 bit patterns.
package wire

import (
	"encoding/binary"
	"fmt"
	"math"
)

// ErrUnderrun is returned by all Reader methods when the buffer does not hold
// enough remaining bytes to satisfy the read. Callers should treat it as
// stream corruption and abort the whole decode.
var ErrUnderrun = fmt.Errorf("wire: buffer underrun")

// Writer accumulates encoded bytes. The zero value is ready to use.
type Writer struct {
	buf []byte
}

// NewWriter returns a Writer with capacity reserved for roughly n bytes of
// output. n is a hint only.
func NewWriter(n int) *Writer {
	return &Writer{buf: make([]byte, 0, n)}
}

// Bytes returns the encoded data. The slice aliases the Writer's internal
// storage and is invalidated by further writes.
func (w *Writer) Bytes() []byte { return w.buf }

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return len(w.buf) }

// Reset truncates the buffer, keeping the allocated storage.
func (w *Writer) Reset() { w.buf = w.buf[:0] }

func (w *Writer) WriteBytes(p []byte) {
	w.buf = append(w.buf, p...)
}

func (w *Writer) WriteUint8(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *Writer) WriteUint16(v uint16) {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
}

func (w *Writer) WriteUint32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

func (w *Writer) WriteUint64(v uint64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
}

func (w *Writer) WriteFloat32(v float32) {
	w.WriteUint32(math.Float32bits(v))
}

// WriteUvarint appends v in unsigned LEB128 form.
func (w *Writer) WriteUvarint(v uint64) {
	w.buf = binary.AppendUvarint(w.buf, v)
}

// Reader consumes bytes previously produced by a Writer (or read from a
// file). Every method reports ErrUnderrun instead of reading past the end.
type Reader struct {
	data []byte
	pos  int
}

// NewReader returns a Reader over data. The Reader does not copy data; the
// caller must not mutate it during the decode.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.data) - r.pos }

// Pos returns the current read offset from the start of the data.
func (r *Reader) Pos() int { return r.pos }

// ReadBytes returns the next n bytes. The returned slice aliases the
// underlying data.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 || r.Remaining() < n {
		return nil, fmt.Errorf("need %d bytes, have %d: %w", n, r.Remaining(), ErrUnderrun)
	}
	p := r.data[r.pos : r.pos+n]
	r.pos += n
	return p, nil
}

func (r *Reader) ReadUint8() (uint8, error) {
	if r.Remaining() < 1 {
		return 0, fmt.Errorf("need 1 byte, have 0: %w", ErrUnderrun)
	}
	v := r.data[r.pos]
	r.pos++
	return v, nil
}

func (r *Reader) ReadUint16() (uint16, error) {
	p, err := r.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(p), nil
}

func (r *Reader) ReadUint32() (uint32, error) {
	p, err := r.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(p), nil
}

func (r *Reader) ReadUint64() (uint64, error) {
	p, err := r.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(p), nil
}

func (r *Reader) ReadFloat32() (float32, error) {
	v, err := r.ReadUint32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// ReadUvarint consumes an unsigned LEB128 value.
func (r *Reader) ReadUvarint() (uint64, error) {
	v, n := binary.Uvarint(r.data[r.pos:])
	if n <= 0 {
		return 0, fmt.Errorf("truncated or malformed uvarint: %w", ErrUnderrun)
	}
	r.pos += n
	return v, nil
}
