// Copyright (C) 2025 The Edgefield Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package ua

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/d4l3k/messagediff"
)

func TestPrimitivesLittleEndian(t *testing.T) {
	w := NewWriter()
	w.WriteUint16(0x1234)
	w.WriteUint32(0xDEADBEEF)
	w.WriteUint64(0x0102030405060708)
	if err := w.Error(); err != nil {
		t.Fatal(err)
	}
	want := []byte{
		0x34, 0x12,
		0xEF, 0xBE, 0xAD, 0xDE,
		0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01,
	}
	if !bytes.Equal(w.Bytes(), want) {
		t.Errorf("got % x, want % x", w.Bytes(), want)
	}
}

func TestStringEncoding(t *testing.T) {
	w := NewWriter()
	w.WriteString("opc")
	want := []byte{0x03, 0x00, 0x00, 0x00, 'o', 'p', 'c'}
	if !bytes.Equal(w.Bytes(), want) {
		t.Errorf("got % x, want % x", w.Bytes(), want)
	}

	// Null and empty both decode to the empty string.
	for _, in := range [][]byte{{0xFF, 0xFF, 0xFF, 0xFF}, {0x00, 0x00, 0x00, 0x00}} {
		r := NewReader(in)
		if s := r.ReadString(); s != "" || r.Error() != nil {
			t.Errorf("decode % x: got %q, %v", in, s, r.Error())
		}
	}
}

func TestLengthPrefixPastEnd(t *testing.T) {
	r := NewReader([]byte{0x10, 0x00, 0x00, 0x00, 'x'})
	r.ReadString()
	if !errors.Is(r.Error(), ErrShortBuffer) {
		t.Fatalf("got %v, want ErrShortBuffer", r.Error())
	}
}

func TestStickyError(t *testing.T) {
	r := NewReader([]byte{0x01})
	r.ReadUint32()
	first := r.Error()
	if first == nil {
		t.Fatal("expected error")
	}
	// Later reads keep the original error and return zero values.
	if v := r.ReadUint64(); v != 0 {
		t.Errorf("got %d after error", v)
	}
	if r.Error() != first {
		t.Errorf("error changed from %v to %v", first, r.Error())
	}
}

func TestDateTimeRoundTrip(t *testing.T) {
	times := []time.Time{
		{},
		time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 6, 15, 12, 34, 56, 700, time.UTC),
	}
	for _, tm := range times {
		w := NewWriter()
		w.WriteTime(tm)
		r := NewReader(w.Bytes())
		got := r.ReadTime()
		// Encoding truncates to 100 ns resolution.
		want := tm
		if !want.IsZero() {
			want = time.Unix(0, want.UnixNano()/100*100).UTC()
		}
		if !got.Equal(want) {
			t.Errorf("round trip %v: got %v", tm, got)
		}
	}

	// The Unix epoch has a known tick count.
	w := NewWriter()
	w.WriteTime(time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC))
	r := NewReader(w.Bytes())
	if ticks := r.ReadInt64(); ticks != ticksTo1970 {
		t.Errorf("unix epoch ticks: got %d, want %d", ticks, ticksTo1970)
	}
}

func TestGUIDEncoding(t *testing.T) {
	g := GUID{Data1: 0x72962B91, Data2: 0xFA75, Data3: 0x4AE6, Data4: [8]byte{0x8D, 0x28, 0xB4, 0x04, 0xDC, 0x7D, 0xAF, 0x63}}
	w := NewWriter()
	w.WriteGUID(g)
	want := []byte{
		0x91, 0x2B, 0x96, 0x72, // Data1 LE
		0x75, 0xFA, // Data2 LE
		0xE6, 0x4A, // Data3 LE
		0x8D, 0x28, 0xB4, 0x04, 0xDC, 0x7D, 0xAF, 0x63, // Data4 as-is
	}
	if !bytes.Equal(w.Bytes(), want) {
		t.Errorf("got % x, want % x", w.Bytes(), want)
	}
	r := NewReader(w.Bytes())
	if got := r.ReadGUID(); got != g {
		t.Errorf("round trip: got %v, want %v", got, g)
	}
}

func TestVariantRoundTrip(t *testing.T) {
	values := []any{
		true,
		int8(-5),
		byte(200),
		int16(-1234),
		uint16(4321),
		int32(-100000),
		uint32(100000),
		int64(-1 << 40),
		uint64(1 << 40),
		float32(2.5),
		float64(-12.125),
		"hello",
		time.Date(2020, 2, 2, 2, 2, 2, 0, time.UTC),
		GUID{Data1: 1, Data2: 2, Data3: 3, Data4: [8]byte{4, 5, 6, 7, 8, 9, 10, 11}},
		[]byte{1, 2, 3},
		NewNumericNodeID(2, 42),
		StatusCode(0x800A0000),
		QualifiedName{NamespaceIndex: 1, Name: "Pressure"},
		LocalizedText{Locale: "en", Text: "Pressure"},
		[]int32{1, 2, 3},
		[]string{"a", "b"},
		[]float64{1.5, 2.5, 3.5},
	}
	for _, v := range values {
		in := NewVariant(v)
		w := NewWriter()
		w.WriteVariant(in)
		if err := w.Error(); err != nil {
			t.Fatalf("encode %T: %v", v, err)
		}
		r := NewReader(w.Bytes())
		got := r.ReadVariant()
		if err := r.Error(); err != nil {
			t.Fatalf("decode %T: %v", v, err)
		}
		if diff, eq := messagediff.PrettyDiff(in, got); !eq {
			t.Errorf("round trip %T:\n%s", v, diff)
		}
		if r.Remaining() != 0 {
			t.Errorf("round trip %T: %d trailing bytes", v, r.Remaining())
		}
	}
}

func TestVariantMultiDimensional(t *testing.T) {
	in := Variant{
		Type:       TypeInt32,
		Value:      []int32{1, 2, 3, 4, 5, 6},
		IsArray:    true,
		Dimensions: []int32{2, 3},
	}
	w := NewWriter()
	w.WriteVariant(in)
	r := NewReader(w.Bytes())
	got := r.ReadVariant()
	if err := r.Error(); err != nil {
		t.Fatal(err)
	}
	if diff, eq := messagediff.PrettyDiff(in, got); !eq {
		t.Errorf("round trip:\n%s", diff)
	}
}

func TestVariantNull(t *testing.T) {
	w := NewWriter()
	w.WriteVariant(Variant{})
	if !bytes.Equal(w.Bytes(), []byte{0x00}) {
		t.Fatalf("null variant: got % x", w.Bytes())
	}
	r := NewReader(w.Bytes())
	if got := r.ReadVariant(); !got.IsNull() {
		t.Errorf("got %+v, want null", got)
	}
}

func TestDataValueRoundTrip(t *testing.T) {
	now := time.Unix(0, time.Now().UnixNano()/100*100).UTC()
	values := []DataValue{
		{},
		{HasValue: true, Value: NewVariant(int32(7))},
		{
			HasValue:           true,
			Value:              NewVariant(3.14),
			HasStatus:          true,
			Status:             StatusBadNodeIDUnknown,
			HasSourceTimestamp: true,
			SourceTimestamp:    now,
			HasServerTimestamp: true,
			ServerTimestamp:    now,
		},
		{HasStatus: true, Status: StatusGood, HasSourcePicoseconds: true, SourcePicoseconds: 10},
	}
	for i, in := range values {
		w := NewWriter()
		w.WriteDataValue(in)
		r := NewReader(w.Bytes())
		got := r.ReadDataValue()
		if err := r.Error(); err != nil {
			t.Fatalf("case %d: %v", i, err)
		}
		if diff, eq := messagediff.PrettyDiff(in, got); !eq {
			t.Errorf("case %d:\n%s", i, diff)
		}
	}
}

func TestExtensionObjectRoundTrip(t *testing.T) {
	in := ExtensionObject{
		TypeID:   NewNumericNodeID(0, IDDataChangeFilter),
		Encoding: ExtensionObjectBinary,
		Body:     []byte{1, 2, 3, 4},
	}
	w := NewWriter()
	w.WriteExtensionObject(in)
	r := NewReader(w.Bytes())
	got := r.ReadExtensionObject()
	if err := r.Error(); err != nil {
		t.Fatal(err)
	}
	if diff, eq := messagediff.PrettyDiff(in, got); !eq {
		t.Errorf("round trip:\n%s", diff)
	}

	// Reserved body encodings are rejected.
	r = NewReader([]byte{0x00, 0x00, 0x07})
	r.ReadExtensionObject()
	if r.Error() == nil {
		t.Fatal("expected error for reserved encoding")
	}
}

func TestStatusCodeSeverity(t *testing.T) {
	if !StatusGood.IsGood() {
		t.Error("Good must be good")
	}
	if !StatusBadTimeout.IsBad() {
		t.Error("BadTimeout must be bad")
	}
	if StatusCode(0x40000000).IsBad() || !StatusCode(0x40000000).IsUncertain() {
		t.Error("0x40000000 must be uncertain")
	}
}

func TestServiceRoundTrip(t *testing.T) {
	req := &ReadRequest{
		RequestHeader: RequestHeader{
			AuthenticationToken: NewOpaqueNodeID(0, []byte{9, 9, 9}),
			Timestamp:           time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			RequestHandle:       17,
			TimeoutHint:         30000,
		},
		MaxAge:             250,
		TimestampsToReturn: TimestampsBoth,
		NodesToRead: []ReadValueID{
			{NodeID: NewNumericNodeID(0, 2258), AttributeID: AttributeIDValue},
			{NodeID: NewStringNodeID(2, "tank.level"), AttributeID: AttributeIDValue},
		},
	}
	b, err := EncodeRequest(req)
	if err != nil {
		t.Fatal(err)
	}
	r := NewReader(b)
	if id := readTypeID(r); id != IDReadRequest {
		t.Fatalf("type id: got %d", id)
	}
	var got ReadRequest
	got.Decode(r)
	if err := r.Error(); err != nil {
		t.Fatal(err)
	}
	if diff, eq := messagediff.PrettyDiff(*req, got); !eq {
		t.Errorf("round trip:\n%s", diff)
	}
}

func TestResponseDispatch(t *testing.T) {
	resp := &ReadResponse{
		ResponseHeader: ResponseHeader{
			RequestHandle: 5,
			ServiceResult: StatusGood,
		},
		Results: []DataValue{NewDataValue(int32(99))},
	}
	w := NewWriter()
	resp.Encode(w)
	if err := w.Error(); err != nil {
		t.Fatal(err)
	}
	v, err := DecodeResponse(w.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	got, ok := v.(*ReadResponse)
	if !ok {
		t.Fatalf("got %T", v)
	}
	if diff, eq := messagediff.PrettyDiff(*resp, *got); !eq {
		t.Errorf("round trip:\n%s", diff)
	}

	// Unknown type ids fail fast.
	w = NewWriter()
	writeTypeID(w, 999999)
	if _, err := DecodeResponse(w.Bytes()); err == nil {
		t.Fatal("expected error for unknown type id")
	}
}
