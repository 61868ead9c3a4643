// Copyright (C) 2025 The Edgefield Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package ua

import (
	"encoding/binary"
	"fmt"
)

// GUID is a 16-byte globally unique identifier. The wire encoding is mixed
// endian: Data1 through Data3 are little-endian, Data4 is written as-is.
type GUID struct {
	Data1 uint32
	Data2 uint16
	Data3 uint16
	Data4 [8]byte
}

func (g GUID) String() string {
	return fmt.Sprintf("%08X-%04X-%04X-%02X%02X-%02X%02X%02X%02X%02X%02X",
		g.Data1, g.Data2, g.Data3,
		g.Data4[0], g.Data4[1], g.Data4[2], g.Data4[3],
		g.Data4[4], g.Data4[5], g.Data4[6], g.Data4[7])
}

// NewGUID builds a GUID from 16 raw bytes in wire order.
func NewGUID(b [16]byte) GUID {
	var g GUID
	g.Data1 = binary.LittleEndian.Uint32(b[0:4])
	g.Data2 = binary.LittleEndian.Uint16(b[4:6])
	g.Data3 = binary.LittleEndian.Uint16(b[6:8])
	copy(g.Data4[:], b[8:16])
	return g
}

func (w *Writer) WriteGUID(g GUID) {
	w.WriteUint32(g.Data1)
	w.WriteUint16(g.Data2)
	w.WriteUint16(g.Data3)
	w.WriteRaw(g.Data4[:])
}

func (r *Reader) ReadGUID() GUID {
	var g GUID
	g.Data1 = r.ReadUint32()
	g.Data2 = r.ReadUint16()
	g.Data3 = r.ReadUint16()
	copy(g.Data4[:], r.ReadRaw(8))
	return g
}
