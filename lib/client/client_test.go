// Copyright (C) 2025 The Edgefield Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package client

import (
	"context"
	"testing"
	"time"

	"github.com/d4l3k/messagediff"

	"github.com/edgefield/opcua/lib/ua"
)

func TestSplitBatchesPreservesOrder(t *testing.T) {
	in := make([]int, 23)
	for i := range in {
		in[i] = i
	}
	for _, size := range []uint32{0, 1, 5, 23, 100} {
		batches := splitBatches(in, size)
		var flat []int
		for _, b := range batches {
			if size != 0 && len(b) > int(size) {
				t.Errorf("size %d: batch of %d", size, len(b))
			}
			flat = append(flat, b...)
		}
		if diff, eq := messagediff.PrettyDiff(in, flat); !eq {
			t.Errorf("size %d: concat(split(in)) != in:\n%s", size, diff)
		}
	}
}

func TestSafeBatch(t *testing.T) {
	c := New("opc.tcp://test:4840/")
	cases := []struct {
		configured, server, want uint32
	}{
		{0, 0, 0},
		{0, 100, 100},
		{50, 0, 50},
		{50, 100, 50},
		{100, 50, 50},
	}
	for _, tc := range cases {
		c.batchSize = tc.configured
		if got := c.safeBatch(tc.server); got != tc.want {
			t.Errorf("safeBatch(%d) with configured %d: got %d, want %d", tc.server, tc.configured, got, tc.want)
		}
	}
}

func TestLimitValue(t *testing.T) {
	cases := []struct {
		in   ua.DataValue
		want uint32
	}{
		{ua.DataValue{}, 0},
		{ua.NewDataValue(uint32(250)), 250},
		{ua.NewDataValue(int32(100)), 100},
		{ua.NewDataValue(int32(-1)), 0},
		{ua.DataValue{HasValue: true, Value: ua.NewVariant(uint32(9)), HasStatus: true, Status: ua.StatusBadNodeIDUnknown}, 0},
	}
	for i, tc := range cases {
		if got := limitValue(tc.in); got != tc.want {
			t.Errorf("case %d: got %d, want %d", i, got, tc.want)
		}
	}
}

func TestAckQueueCarriesExactlyTheUnacked(t *testing.T) {
	c := New("opc.tcp://test:4840/")
	c.queueAck(1, 10)
	c.queueAck(1, 11)
	c.queueAck(2, 5)

	acks := c.takeAcks()
	want := []ua.SubscriptionAcknowledgement{
		{SubscriptionID: 1, SequenceNumber: 10},
		{SubscriptionID: 1, SequenceNumber: 11},
		{SubscriptionID: 2, SequenceNumber: 5},
	}
	if diff, eq := messagediff.PrettyDiff(want, acks); !eq {
		t.Errorf("first drain:\n%s", diff)
	}

	// The next drain is empty until new sequence numbers arrive.
	if got := c.takeAcks(); len(got) != 0 {
		t.Errorf("second drain: got %v, want empty", got)
	}
	c.queueAck(1, 12)
	if got := c.takeAcks(); len(got) != 1 || got[0].SequenceNumber != 12 {
		t.Errorf("third drain: got %v", got)
	}
}

func TestRequeueAcksKeepsOrder(t *testing.T) {
	c := New("opc.tcp://test:4840/")
	c.queueAck(1, 1)
	acks := c.takeAcks()
	c.queueAck(1, 2)
	c.requeueAcks(acks)
	got := c.takeAcks()
	if len(got) != 2 || got[0].SequenceNumber != 1 || got[1].SequenceNumber != 2 {
		t.Errorf("got %v", got)
	}
}

func TestMonitoredItemCacheBounded(t *testing.T) {
	m := &MonitoredItem{cacheSize: 3}
	for i := 0; i < 10; i++ {
		m.push(ua.NewDataValue(int32(i)))
	}
	vals := m.Drain()
	if len(vals) != 3 {
		t.Fatalf("cache size: got %d, want 3", len(vals))
	}
	for i, v := range vals {
		if got := v.Value.Value.(int32); got != int32(7+i) {
			t.Errorf("value %d: got %d, want %d", i, got, 7+i)
		}
	}
	if len(m.Drain()) != 0 {
		t.Error("drain must empty the cache")
	}
}

func TestMonitoredItemLastAndCallback(t *testing.T) {
	var seen []int32
	m := &MonitoredItem{cacheSize: 5}
	m.req.OnValue = func(_ *MonitoredItem, v *ua.DataValue) {
		seen = append(seen, v.Value.Value.(int32))
	}
	for i := 0; i < 3; i++ {
		m.push(ua.NewDataValue(int32(i)))
	}
	if last, ok := m.Last(); !ok || last.Value.Value.(int32) != 2 {
		t.Errorf("last: got %v, %v", last, ok)
	}
	if len(seen) != 3 {
		t.Errorf("callback fired %d times, want 3", len(seen))
	}
}

func TestSubscriptionParameterDefaults(t *testing.T) {
	var p SubscriptionParameters
	p.applyDefaults()
	if p.PublishingInterval != defaultPublishingInterval {
		t.Errorf("interval: got %v", p.PublishingInterval)
	}
	if p.MaxKeepAliveCount != defaultMaxKeepAliveCount {
		t.Errorf("keep alive: got %d", p.MaxKeepAliveCount)
	}
	if p.LifetimeCount < 3*p.MaxKeepAliveCount {
		t.Errorf("lifetime %d below 3x keep alive %d", p.LifetimeCount, p.MaxKeepAliveCount)
	}
}

func TestFilterExtensionObjects(t *testing.T) {
	f := ua.DataChangeFilter{
		Trigger:       ua.TriggerStatusValue,
		DeadbandType:  ua.DeadbandAbsolute,
		DeadbandValue: 0.5,
	}
	e := ua.FilterExtensionObject(f)
	if e.TypeID.Numeric != ua.IDDataChangeFilter {
		t.Errorf("type id: got %d", e.TypeID.Numeric)
	}
	if e.Encoding != ua.ExtensionObjectBinary || len(e.Body) == 0 {
		t.Error("filter must encode a binary body")
	}

	// A nil filter is the empty extension object.
	if e := ua.FilterExtensionObject(nil); !e.IsEmpty() {
		t.Error("nil filter must encode as empty")
	}
}

func TestHandlePublishQueuesAckForKeepAlive(t *testing.T) {
	c := New("opc.tcp://test:4840/")
	sub := &Subscription{
		c:     c,
		id:    3,
		items: make(map[uint32]*MonitoredItem),
		log:   c.log,
	}
	c.subs[3] = sub

	// A keep-alive has no notification data but its sequence number is
	// still acknowledged.
	sub.handlePublish(context.Background(), &ua.PublishResponse{
		SubscriptionID: 3,
		NotificationMessage: ua.NotificationMessage{
			SequenceNumber: 8,
			PublishTime:    time.Now(),
		},
	})
	acks := c.takeAcks()
	if len(acks) != 1 || acks[0].SubscriptionID != 3 || acks[0].SequenceNumber != 8 {
		t.Errorf("got %v", acks)
	}
}

func TestHandlePublishDispatchesDataChanges(t *testing.T) {
	c := New("opc.tcp://test:4840/")
	sub := &Subscription{
		c:     c,
		id:    3,
		items: make(map[uint32]*MonitoredItem),
		log:   c.log,
	}
	c.subs[3] = sub
	item := &MonitoredItem{sub: sub, clientHandle: 42, cacheSize: 4, created: true}
	sub.items[42] = item

	dcn := &ua.DataChangeNotification{
		MonitoredItems: []ua.MonitoredItemNotification{
			{ClientHandle: 42, Value: ua.NewDataValue(int32(1234))},
		},
	}
	ext, err := ua.NotificationExtensionObject(dcn)
	if err != nil {
		t.Fatal(err)
	}
	sub.handlePublish(context.Background(), &ua.PublishResponse{
		SubscriptionID: 3,
		NotificationMessage: ua.NotificationMessage{
			SequenceNumber:   1,
			PublishTime:      time.Now(),
			NotificationData: []ua.ExtensionObject{ext},
		},
	})

	if last, ok := item.Last(); !ok || last.Value.Value.(int32) != 1234 {
		t.Errorf("item value: got %v, %v", last, ok)
	}
	acks := c.takeAcks()
	if len(acks) != 1 || acks[0].SequenceNumber != 1 {
		t.Errorf("acks: got %v", acks)
	}
	if sub.lastSequence != 1 {
		t.Errorf("last sequence: got %d", sub.lastSequence)
	}
}

func TestUserIdentityTokenEncoding(t *testing.T) {
	c := New("opc.tcp://test:4840/", WithUserIdentity(UserNameIdentity{UserName: "alice", Password: "secret"}))
	policies := []ua.UserTokenPolicy{
		{PolicyID: "anon", TokenType: ua.UserTokenTypeAnonymous},
		{PolicyID: "user", TokenType: ua.UserTokenTypeUserName},
	}
	ext, sig, err := c.encodeIdentity(policies, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if ext.TypeID.Numeric != ua.IDUserNameIdentityToken {
		t.Errorf("type id: got %d", ext.TypeID.Numeric)
	}
	if sig.Signature != nil {
		t.Error("user name token must not carry a signature")
	}

	// With a None policy the password travels as-is.
	r := ua.NewReader(ext.Body)
	if got := r.ReadString(); got != "user" {
		t.Errorf("policy id: got %q", got)
	}
	if got := r.ReadString(); got != "alice" {
		t.Errorf("user name: got %q", got)
	}
	if got := r.ReadByteString(); string(got) != "secret" {
		t.Errorf("password: got %q", got)
	}
}
