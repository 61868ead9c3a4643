// Copyright (C) 2025 The Edgefield Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package ua

import "time"

// OPC UA DateTime is the number of 100 ns ticks since 1601-01-01 UTC.
// ticksTo1970 is the offset of the Unix epoch in those ticks.
const ticksTo1970 = 116444736000000000

// WriteTime encodes a time.Time as an OPC UA DateTime. The zero time
// encodes as zero ticks.
func (w *Writer) WriteTime(t time.Time) {
	w.WriteInt64(timeToTicks(t))
}

// ReadTime decodes an OPC UA DateTime. Zero ticks decode as the zero time.
func (r *Reader) ReadTime() time.Time {
	return ticksToTime(r.ReadInt64())
}

func timeToTicks(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()/100 + ticksTo1970
}

func ticksToTime(ticks int64) time.Time {
	if ticks == 0 {
		return time.Time{}
	}
	return time.Unix(0, (ticks-ticksTo1970)*100).UTC()
}
