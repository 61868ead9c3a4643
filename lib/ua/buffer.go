// Copyright (C) 2025 The Edgefield Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package ua implements the OPC UA binary encoding and the built-in and
// service types exchanged over a secure channel. All multi-byte primitives
// are little-endian; strings, byte strings and arrays carry an int32 length
// prefix where -1 denotes null.
package ua

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"unicode/utf8"
)

var (
	// ErrShortBuffer is reported when a length prefix or fixed-size read
	// extends past the end of the buffer.
	ErrShortBuffer = errors.New("ua: decode past end of buffer")
	// ErrInvalidEncoding is reported for reserved mask bits, unknown
	// discriminants in closed schemas, and malformed length prefixes.
	ErrInvalidEncoding = errors.New("ua: invalid encoding")
)

// Writer encodes values into a growing buffer. The first error sticks;
// subsequent writes are no-ops. Callers check Error once after a batch of
// writes, in the manner of an xdr writer.
type Writer struct {
	buf []byte
	err error
}

func NewWriter() *Writer {
	return &Writer{buf: make([]byte, 0, 256)}
}

// Bytes returns the encoded bytes. The slice aliases the writer's buffer.
func (w *Writer) Bytes() []byte { return w.buf }

func (w *Writer) Len() int { return len(w.buf) }

func (w *Writer) Error() error { return w.err }

func (w *Writer) fail(err error) {
	if w.err == nil {
		w.err = err
	}
}

func (w *Writer) WriteBool(v bool) {
	if v {
		w.WriteUint8(1)
	} else {
		w.WriteUint8(0)
	}
}

func (w *Writer) WriteUint8(v byte) {
	if w.err != nil {
		return
	}
	w.buf = append(w.buf, v)
}

func (w *Writer) WriteSByte(v int8) { w.WriteUint8(byte(v)) }

func (w *Writer) WriteUint16(v uint16) {
	if w.err != nil {
		return
	}
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
}

func (w *Writer) WriteInt16(v int16) { w.WriteUint16(uint16(v)) }

func (w *Writer) WriteUint32(v uint32) {
	if w.err != nil {
		return
	}
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

func (w *Writer) WriteInt32(v int32) { w.WriteUint32(uint32(v)) }

func (w *Writer) WriteUint64(v uint64) {
	if w.err != nil {
		return
	}
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
}

func (w *Writer) WriteInt64(v int64) { w.WriteUint64(uint64(v)) }

func (w *Writer) WriteFloat32(v float32) { w.WriteUint32(math.Float32bits(v)) }

func (w *Writer) WriteFloat64(v float64) { w.WriteUint64(math.Float64bits(v)) }

// WriteRaw appends bytes without a length prefix.
func (w *Writer) WriteRaw(b []byte) {
	if w.err != nil {
		return
	}
	w.buf = append(w.buf, b...)
}

// WriteString encodes a UTF-8 string. The empty string is encoded as null
// (length -1), which every decoder must accept as equivalent.
func (w *Writer) WriteString(s string) {
	if s == "" {
		w.WriteInt32(-1)
		return
	}
	if len(s) > math.MaxInt32 {
		w.fail(fmt.Errorf("%w: string length %d", ErrInvalidEncoding, len(s)))
		return
	}
	w.WriteInt32(int32(len(s)))
	w.WriteRaw([]byte(s))
}

// WriteByteString encodes a byte string; nil encodes as null (length -1).
func (w *Writer) WriteByteString(b []byte) {
	if b == nil {
		w.WriteInt32(-1)
		return
	}
	if len(b) > math.MaxInt32 {
		w.fail(fmt.Errorf("%w: byte string length %d", ErrInvalidEncoding, len(b)))
		return
	}
	w.WriteInt32(int32(len(b)))
	w.WriteRaw(b)
}

func (w *Writer) WriteStringArray(ss []string) {
	if ss == nil {
		w.WriteInt32(-1)
		return
	}
	w.WriteInt32(int32(len(ss)))
	for _, s := range ss {
		w.WriteString(s)
	}
}

// Reader decodes values from a byte slice. As with Writer, the first error
// sticks and subsequent reads return zero values.
type Reader struct {
	buf []byte
	off int
	err error
}

func NewReader(b []byte) *Reader {
	return &Reader{buf: b}
}

func (r *Reader) Error() error { return r.err }

// Remaining returns the number of bytes left to decode.
func (r *Reader) Remaining() int { return len(r.buf) - r.off }

func (r *Reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *Reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.off+n > len(r.buf) {
		r.fail(ErrShortBuffer)
		return nil
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

func (r *Reader) ReadBool() bool { return r.ReadUint8() != 0 }

func (r *Reader) ReadUint8() byte {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *Reader) ReadSByte() int8 { return int8(r.ReadUint8()) }

func (r *Reader) ReadUint16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *Reader) ReadInt16() int16 { return int16(r.ReadUint16()) }

func (r *Reader) ReadUint32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *Reader) ReadInt32() int32 { return int32(r.ReadUint32()) }

func (r *Reader) ReadUint64() uint64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (r *Reader) ReadInt64() int64 { return int64(r.ReadUint64()) }

func (r *Reader) ReadFloat32() float32 { return math.Float32frombits(r.ReadUint32()) }

func (r *Reader) ReadFloat64() float64 { return math.Float64frombits(r.ReadUint64()) }

// ReadRaw reads n bytes without a length prefix. The result aliases the
// reader's buffer.
func (r *Reader) ReadRaw(n int) []byte { return r.take(n) }

// arrayLen reads an int32 array or string length prefix. Null (-1) is
// returned as -1; other negative lengths and lengths past the end of the
// buffer are errors.
func (r *Reader) arrayLen() int {
	n := r.ReadInt32()
	if r.err != nil {
		return -1
	}
	if n == -1 {
		return -1
	}
	if n < 0 {
		r.fail(fmt.Errorf("%w: negative length %d", ErrInvalidEncoding, n))
		return -1
	}
	if int(n) > r.Remaining() {
		r.fail(ErrShortBuffer)
		return -1
	}
	return int(n)
}

func (r *Reader) ReadString() string {
	n := r.arrayLen()
	if n <= 0 {
		return ""
	}
	b := r.take(n)
	if b == nil {
		return ""
	}
	if !utf8.Valid(b) {
		r.fail(fmt.Errorf("%w: string is not valid UTF-8", ErrInvalidEncoding))
		return ""
	}
	return string(b)
}

func (r *Reader) ReadByteString() []byte {
	n := r.arrayLen()
	if n == -1 {
		return nil
	}
	if n == 0 {
		return []byte{}
	}
	b := r.take(n)
	if b == nil {
		return nil
	}
	out := make([]byte, n)
	copy(out, b)
	return out
}

func (r *Reader) ReadStringArray() []string {
	n := r.arrayLen()
	if n < 0 {
		return nil
	}
	ss := make([]string, n)
	for i := range ss {
		ss[i] = r.ReadString()
	}
	return ss
}
