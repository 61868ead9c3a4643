// Copyright (C) 2025 The Edgefield Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package ua

import (
	"bytes"
	"testing"
)

func TestNodeIDCompactEncoding(t *testing.T) {
	cases := []struct {
		id   NodeID
		want []byte
	}{
		{NewNumericNodeID(0, 85), []byte{0x00, 0x55}},
		{NewNumericNodeID(3, 1000), []byte{0x01, 0x03, 0xE8, 0x03}},
		{NewNumericNodeID(0, 2258), []byte{0x01, 0x00, 0xD2, 0x08}},
		{NewNumericNodeID(0, 70000), []byte{0x02, 0x00, 0x00, 0x70, 0x11, 0x01, 0x00}},
		{NewNumericNodeID(300, 1), []byte{0x02, 0x2C, 0x01, 0x01, 0x00, 0x00, 0x00}},
	}
	for _, tc := range cases {
		w := NewWriter()
		w.WriteNodeID(tc.id)
		if err := w.Error(); err != nil {
			t.Fatalf("encode %v: %v", tc.id, err)
		}
		if !bytes.Equal(w.Bytes(), tc.want) {
			t.Errorf("encode %v: got % x, want % x", tc.id, w.Bytes(), tc.want)
		}
	}
}

func TestNodeIDRoundTrip(t *testing.T) {
	ids := []NodeID{
		NewNumericNodeID(0, 0),
		NewNumericNodeID(0, 255),
		NewNumericNodeID(255, 65535),
		NewNumericNodeID(65535, 0xFFFFFFFF),
		NewStringNodeID(2, "the.answer"),
		NewStringNodeID(0, ""),
		NewGUIDNodeID(7, GUID{Data1: 0x11223344, Data2: 0x5566, Data3: 0x7788, Data4: [8]byte{1, 2, 3, 4, 5, 6, 7, 8}}),
		NewOpaqueNodeID(12, []byte{0xDE, 0xAD, 0xBE, 0xEF}),
	}
	for _, id := range ids {
		w := NewWriter()
		w.WriteNodeID(id)
		if err := w.Error(); err != nil {
			t.Fatalf("encode %v: %v", id, err)
		}
		r := NewReader(w.Bytes())
		got := r.ReadNodeID()
		if err := r.Error(); err != nil {
			t.Fatalf("decode %v: %v", id, err)
		}
		if !got.Equal(id) {
			t.Errorf("round trip %v: got %v", id, got)
		}
		if r.Remaining() != 0 {
			t.Errorf("round trip %v: %d trailing bytes", id, r.Remaining())
		}
	}
}

func TestNodeIDDecodeAcceptsVerboseForms(t *testing.T) {
	// A numeric id in the two byte range may still arrive in the full
	// numeric encoding; decoders accept any form.
	r := NewReader([]byte{0x02, 0x00, 0x00, 0x55, 0x00, 0x00, 0x00})
	got := r.ReadNodeID()
	if err := r.Error(); err != nil {
		t.Fatal(err)
	}
	if !got.Equal(NewNumericNodeID(0, 85)) {
		t.Errorf("got %v, want i=85", got)
	}
}

func TestNodeIDUnknownEncoding(t *testing.T) {
	r := NewReader([]byte{0x0F, 0x00})
	r.ReadNodeID()
	if r.Error() == nil {
		t.Fatal("expected error for unknown node id encoding")
	}
}

func TestExpandedNodeIDRoundTrip(t *testing.T) {
	ids := []ExpandedNodeID{
		{NodeID: NewNumericNodeID(0, 85)},
		{NodeID: NewStringNodeID(1, "x"), NamespaceURI: "urn:example:ns", ServerIndex: 3},
		{NodeID: NewNumericNodeID(4, 99), ServerIndex: 1},
	}
	for _, id := range ids {
		w := NewWriter()
		w.WriteExpandedNodeID(id)
		r := NewReader(w.Bytes())
		got := r.ReadExpandedNodeID()
		if err := r.Error(); err != nil {
			t.Fatalf("decode %v: %v", id, err)
		}
		if !got.Equal(id) {
			t.Errorf("round trip: got %+v, want %+v", got, id)
		}
	}
}
