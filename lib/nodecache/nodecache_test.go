// Copyright (C) 2025 The Edgefield Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package nodecache

import (
	"fmt"
	"testing"
	"time"

	"github.com/edgefield/opcua/lib/ua"
)

func entry(v int32) *Entry {
	return &Entry{
		Attributes: map[ua.AttributeID]ua.DataValue{
			ua.AttributeIDValue: ua.NewDataValue(v),
		},
	}
}

func TestBoundedEviction(t *testing.T) {
	const maxSize = 4
	c := New(maxSize, time.Hour)
	for i := 0; i < 10; i++ {
		c.Set(ua.NewNumericNodeID(2, uint32(i)), entry(int32(i)))
	}
	st := c.Stats()
	if st.Size != maxSize {
		t.Errorf("size: got %d, want %d", st.Size, maxSize)
	}
	if st.Evictions != 10-maxSize {
		t.Errorf("evictions: got %d, want %d", st.Evictions, 10-maxSize)
	}
	// The oldest inserts are gone, the newest remain.
	for i := 0; i < 10-maxSize; i++ {
		if c.Get(ua.NewNumericNodeID(2, uint32(i))) != nil {
			t.Errorf("node %d should have been evicted", i)
		}
	}
	for i := 10 - maxSize; i < 10; i++ {
		if c.Get(ua.NewNumericNodeID(2, uint32(i))) == nil {
			t.Errorf("node %d should be cached", i)
		}
	}
}

func TestRecencyOnHit(t *testing.T) {
	c := New(2, time.Hour)
	a := ua.NewNumericNodeID(0, 1)
	b := ua.NewNumericNodeID(0, 2)
	d := ua.NewNumericNodeID(0, 3)

	c.Set(a, entry(1))
	c.Set(b, entry(2))
	// Touch a so b becomes the least recently accessed.
	if c.Get(a) == nil {
		t.Fatal("a missing")
	}
	c.Set(d, entry(3))
	if c.Get(b) != nil {
		t.Error("b should have been evicted as least recently accessed")
	}
	if c.Get(a) == nil || c.Get(d) == nil {
		t.Error("a and d should remain")
	}
}

func TestTTLExpiry(t *testing.T) {
	c := New(8, 10*time.Second)
	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }

	id := ua.NewNumericNodeID(1, 99)
	c.Set(id, entry(7))
	if c.Get(id) == nil {
		t.Fatal("fresh entry must be returned")
	}

	now = now.Add(11 * time.Second)
	if c.Get(id) != nil {
		t.Fatal("expired entry must not be returned")
	}
	// The expired lookup also removed the entry.
	if st := c.Stats(); st.Size != 0 {
		t.Errorf("size after expiry: got %d, want 0", st.Size)
	}
}

func TestEvictExpired(t *testing.T) {
	c := New(16, 10*time.Second)
	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }

	for i := 0; i < 4; i++ {
		c.Set(ua.NewNumericNodeID(0, uint32(i)), entry(int32(i)))
	}
	now = now.Add(5 * time.Second)
	for i := 4; i < 6; i++ {
		c.Set(ua.NewNumericNodeID(0, uint32(i)), entry(int32(i)))
	}
	now = now.Add(6 * time.Second)

	if n := c.EvictExpired(); n != 4 {
		t.Errorf("evict expired: got %d, want 4", n)
	}
	if st := c.Stats(); st.Size != 2 {
		t.Errorf("size: got %d, want 2", st.Size)
	}
}

func TestStats(t *testing.T) {
	c := New(4, time.Hour)
	id := ua.NewNumericNodeID(0, 1)
	c.Set(id, entry(1))
	c.Get(id)
	c.Get(id)
	c.Get(ua.NewNumericNodeID(0, 2))
	st := c.Stats()
	if st.Hits != 2 || st.Misses != 1 {
		t.Errorf("hits/misses: got %d/%d, want 2/1", st.Hits, st.Misses)
	}
	if got := st.HitRate(); got < 0.66 || got > 0.67 {
		t.Errorf("hit rate: got %f", got)
	}
}

func TestRemoveAndClear(t *testing.T) {
	c := New(4, time.Hour)
	id := ua.NewNumericNodeID(0, 1)
	c.Set(id, entry(1))
	if !c.Remove(id) {
		t.Fatal("remove must report true for present entry")
	}
	if c.Remove(id) {
		t.Fatal("remove must report false for absent entry")
	}
	for i := 0; i < 3; i++ {
		c.Set(ua.NewNumericNodeID(0, uint32(10+i)), entry(int32(i)))
	}
	c.Clear()
	st := c.Stats()
	if st.Size != 0 {
		t.Errorf("size after clear: got %d", st.Size)
	}
	if st.Evictions != 0 {
		t.Errorf("clear must not count evictions, got %d", st.Evictions)
	}
}

func TestStringKeysAreStructural(t *testing.T) {
	c := New(4, time.Hour)
	c.Set(ua.NewStringNodeID(2, "x"), entry(1))
	if c.Get(ua.NewStringNodeID(2, "x")) == nil {
		t.Error("structurally equal ids must hit")
	}
	if c.Get(ua.NewStringNodeID(3, "x")) != nil {
		t.Error("different namespace must miss")
	}
}

func BenchmarkGet(b *testing.B) {
	c := New(1024, time.Hour)
	for i := 0; i < 1024; i++ {
		c.Set(ua.NewNumericNodeID(2, uint32(i)), entry(int32(i)))
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Get(ua.NewNumericNodeID(2, uint32(i%1024)))
	}
	_ = fmt.Sprint(c.Stats().HitRate())
}
