// Copyright (C) 2025 The Edgefield Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package ua

import (
	"fmt"
	"time"
)

// DataValue couples a Variant with a status code and source/server
// timestamps. Each part is present on the wire only when its mask bit is
// set; the Has flags track presence so absent parts round-trip as absent.
type DataValue struct {
	Value             Variant
	Status            StatusCode
	SourceTimestamp   time.Time
	ServerTimestamp   time.Time
	SourcePicoseconds uint16
	ServerPicoseconds uint16

	HasValue             bool
	HasStatus            bool
	HasSourceTimestamp   bool
	HasServerTimestamp   bool
	HasSourcePicoseconds bool
	HasServerPicoseconds bool
}

const (
	dataValueValue       = 0x01
	dataValueStatus      = 0x02
	dataValueSourceTS    = 0x04
	dataValueServerTS    = 0x08
	dataValueSourcePicos = 0x10
	dataValueServerPicos = 0x20
)

// NewDataValue wraps a Go value in a DataValue with a good status.
func NewDataValue(v any) DataValue {
	return DataValue{Value: NewVariant(v), HasValue: true}
}

func (w *Writer) WriteDataValue(d DataValue) {
	var mask byte
	if d.HasValue {
		mask |= dataValueValue
	}
	if d.HasStatus {
		mask |= dataValueStatus
	}
	if d.HasSourceTimestamp {
		mask |= dataValueSourceTS
	}
	if d.HasServerTimestamp {
		mask |= dataValueServerTS
	}
	if d.HasSourcePicoseconds {
		mask |= dataValueSourcePicos
	}
	if d.HasServerPicoseconds {
		mask |= dataValueServerPicos
	}
	w.WriteUint8(mask)
	if d.HasValue {
		w.WriteVariant(d.Value)
	}
	if d.HasStatus {
		w.WriteStatusCode(d.Status)
	}
	if d.HasSourceTimestamp {
		w.WriteTime(d.SourceTimestamp)
	}
	if d.HasSourcePicoseconds {
		w.WriteUint16(d.SourcePicoseconds)
	}
	if d.HasServerTimestamp {
		w.WriteTime(d.ServerTimestamp)
	}
	if d.HasServerPicoseconds {
		w.WriteUint16(d.ServerPicoseconds)
	}
}

func (r *Reader) ReadDataValue() DataValue {
	var d DataValue
	mask := r.ReadUint8()
	if mask&^byte(dataValueValue|dataValueStatus|dataValueSourceTS|dataValueServerTS|dataValueSourcePicos|dataValueServerPicos) != 0 {
		r.fail(fmt.Errorf("%w: data value mask 0x%02x", ErrInvalidEncoding, mask))
		return d
	}
	if mask&dataValueValue != 0 {
		d.HasValue = true
		d.Value = r.ReadVariant()
	}
	if mask&dataValueStatus != 0 {
		d.HasStatus = true
		d.Status = r.ReadStatusCode()
	}
	if mask&dataValueSourceTS != 0 {
		d.HasSourceTimestamp = true
		d.SourceTimestamp = r.ReadTime()
	}
	if mask&dataValueSourcePicos != 0 {
		d.HasSourcePicoseconds = true
		d.SourcePicoseconds = r.ReadUint16()
	}
	if mask&dataValueServerTS != 0 {
		d.HasServerTimestamp = true
		d.ServerTimestamp = r.ReadTime()
	}
	if mask&dataValueServerPicos != 0 {
		d.HasServerPicoseconds = true
		d.ServerPicoseconds = r.ReadUint16()
	}
	return d
}

func (r *Reader) ReadDataValueArray() []DataValue {
	n := r.arrayLen()
	if n < 0 {
		return nil
	}
	ds := make([]DataValue, n)
	for i := range ds {
		ds[i] = r.ReadDataValue()
	}
	return ds
}

func (w *Writer) WriteDataValueArray(ds []DataValue) {
	if ds == nil {
		w.WriteInt32(-1)
		return
	}
	w.WriteInt32(int32(len(ds)))
	for _, d := range ds {
		w.WriteDataValue(d)
	}
}
