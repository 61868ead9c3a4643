// Copyright (C) 2025 The Edgefield Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/edgefield/opcua/lib/ua"
)

// MonitoredItemRequest describes one item to monitor. Value items observe
// attribute 13, event items attribute 12 with an event filter.
type MonitoredItemRequest struct {
	NodeID           ua.NodeID
	AttributeID      ua.AttributeID
	MonitoringMode   ua.MonitoringMode
	SamplingInterval time.Duration
	QueueSize        uint32
	DiscardOldest    bool
	Filter           ua.MonitoringFilter

	// ValueCacheSize bounds the item's local value deque; zero selects the
	// default of 10.
	ValueCacheSize int

	// OnValue fires for each data change before the value enters the
	// cache. OnEvent fires for each event occurrence.
	OnValue func(item *MonitoredItem, v *ua.DataValue)
	OnEvent func(item *MonitoredItem, fields []ua.Variant)
}

// ValueRequest is a MonitoredItemRequest for the value attribute with
// reporting enabled.
func ValueRequest(node ua.NodeID) MonitoredItemRequest {
	return MonitoredItemRequest{
		NodeID:         node,
		AttributeID:    ua.AttributeIDValue,
		MonitoringMode: ua.MonitoringModeReporting,
		QueueSize:      10,
		DiscardOldest:  true,
	}
}

// EventRequest is a MonitoredItemRequest for the event notifier attribute.
func EventRequest(node ua.NodeID, filter ua.EventFilter) MonitoredItemRequest {
	return MonitoredItemRequest{
		NodeID:         node,
		AttributeID:    ua.AttributeIDEventNotifier,
		MonitoringMode: ua.MonitoringModeReporting,
		QueueSize:      10,
		DiscardOldest:  true,
		Filter:         filter,
	}
}

// MonitoredItem is the client shadow of one server monitored item.
type MonitoredItem struct {
	sub *Subscription
	req MonitoredItemRequest

	mut             sync.Mutex
	clientHandle    uint32
	serverID        uint32
	created         bool
	lastStatus      ua.StatusCode
	revisedSampling time.Duration
	revisedQueue    uint32
	filterResult    ua.ExtensionObject
	values          []ua.DataValue
	cacheSize       int
}

// ClientHandle is the session-unique handle notifications are keyed by.
func (m *MonitoredItem) ClientHandle() uint32 {
	m.mut.Lock()
	defer m.mut.Unlock()
	return m.clientHandle
}

// ServerID is the monitored item id assigned by the server.
func (m *MonitoredItem) ServerID() uint32 {
	m.mut.Lock()
	defer m.mut.Unlock()
	return m.serverID
}

// Created reports whether the server accepted the item.
func (m *MonitoredItem) Created() bool {
	m.mut.Lock()
	defer m.mut.Unlock()
	return m.created
}

// LastStatus is the status the server last reported for this item.
func (m *MonitoredItem) LastStatus() ua.StatusCode {
	m.mut.Lock()
	defer m.mut.Unlock()
	return m.lastStatus
}

// RevisedParameters returns the sampling interval and queue size the server
// granted.
func (m *MonitoredItem) RevisedParameters() (time.Duration, uint32) {
	m.mut.Lock()
	defer m.mut.Unlock()
	return m.revisedSampling, m.revisedQueue
}

// NodeID returns the monitored node.
func (m *MonitoredItem) NodeID() ua.NodeID { return m.req.NodeID }

// Last returns the most recent cached value.
func (m *MonitoredItem) Last() (ua.DataValue, bool) {
	m.mut.Lock()
	defer m.mut.Unlock()
	if len(m.values) == 0 {
		return ua.DataValue{}, false
	}
	return m.values[len(m.values)-1], true
}

// Drain empties the value cache, returning the values oldest first.
func (m *MonitoredItem) Drain() []ua.DataValue {
	m.mut.Lock()
	defer m.mut.Unlock()
	out := m.values
	m.values = nil
	return out
}

// push runs the callback and appends the value to the bounded deque,
// discarding the oldest entry on overflow.
func (m *MonitoredItem) push(v ua.DataValue) {
	m.mut.Lock()
	onValue := m.req.OnValue
	m.mut.Unlock()
	if onValue != nil {
		onValue(m, &v)
	}
	m.mut.Lock()
	if v.HasStatus {
		m.lastStatus = v.Status
	}
	m.values = append(m.values, v)
	if over := len(m.values) - m.cacheSize; over > 0 {
		m.values = append(m.values[:0:0], m.values[over:]...)
	}
	m.mut.Unlock()
}

func (m *MonitoredItem) pushEvent(fields []ua.Variant) {
	m.mut.Lock()
	onEvent := m.req.OnEvent
	m.mut.Unlock()
	if onEvent != nil {
		onEvent(m, fields)
	}
}

// Monitor creates monitored items on the subscription, batching against the
// server's MaxMonitoredItemsPerCall. Items the server rejected are returned
// with Created false and their status set.
func (s *Subscription) Monitor(ctx context.Context, reqs ...MonitoredItemRequest) ([]*MonitoredItem, error) {
	items := make([]*MonitoredItem, len(reqs))
	for i, req := range reqs {
		cacheSize := req.ValueCacheSize
		if cacheSize <= 0 {
			cacheSize = defaultValueCacheSize
		}
		items[i] = &MonitoredItem{
			sub:          s,
			req:          req,
			clientHandle: s.c.nextClientHandle(),
			cacheSize:    cacheSize,
		}
	}
	if err := s.monitorItems(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Subscription) monitorItems(ctx context.Context, items []*MonitoredItem) error {
	lim, err := s.c.OperationLimits(ctx)
	if err != nil {
		return err
	}
	for _, batch := range splitBatches(items, s.c.safeBatch(lim.MaxMonitoredItemsPerCall)) {
		if err := s.createItems(ctx, batch); err != nil {
			return err
		}
	}
	return nil
}

func (s *Subscription) createItems(ctx context.Context, items []*MonitoredItem) error {
	reqs := make([]ua.MonitoredItemCreateRequest, len(items))
	for i, it := range items {
		mode := it.req.MonitoringMode
		if mode == ua.MonitoringModeDisabled && (it.req.OnValue != nil || it.req.OnEvent != nil) {
			mode = ua.MonitoringModeReporting
		}
		reqs[i] = ua.MonitoredItemCreateRequest{
			ItemToMonitor: ua.ReadValueID{
				NodeID:      it.req.NodeID,
				AttributeID: it.req.AttributeID,
			},
			MonitoringMode: mode,
			RequestedParameters: ua.MonitoringParameters{
				ClientHandle:     it.clientHandle,
				SamplingInterval: float64(it.req.SamplingInterval / time.Millisecond),
				Filter:           ua.FilterExtensionObject(it.req.Filter),
				QueueSize:        it.req.QueueSize,
				DiscardOldest:    it.req.DiscardOldest,
			},
		}
	}
	req := &ua.CreateMonitoredItemsRequest{
		SubscriptionID:     s.ID(),
		TimestampsToReturn: ua.TimestampsBoth,
		ItemsToCreate:      reqs,
	}
	resp, err := s.c.request(ctx, req)
	if err != nil {
		return err
	}
	cmr, ok := resp.(*ua.CreateMonitoredItemsResponse)
	if !ok {
		return fmt.Errorf("client: got %T, want CreateMonitoredItemsResponse", resp)
	}
	if len(cmr.Results) != len(items) {
		return fmt.Errorf("client: create monitored items returned %d results, want %d", len(cmr.Results), len(items))
	}

	s.mut.Lock()
	defer s.mut.Unlock()
	for i, res := range cmr.Results {
		it := items[i]
		it.mut.Lock()
		it.lastStatus = res.StatusCode
		if res.StatusCode.IsGood() {
			it.created = true
			it.serverID = res.MonitoredItemID
			it.revisedSampling = time.Duration(res.RevisedSamplingInterval * float64(time.Millisecond))
			it.revisedQueue = res.RevisedQueueSize
			it.filterResult = res.FilterResult
			s.items[it.clientHandle] = it
		}
		it.mut.Unlock()
	}
	return nil
}

// ModifyItems renegotiates sampling parameters for created items.
func (s *Subscription) ModifyItems(ctx context.Context, items ...*MonitoredItem) error {
	reqs := make([]ua.MonitoredItemModifyRequest, 0, len(items))
	for _, it := range items {
		it.mut.Lock()
		if it.created {
			reqs = append(reqs, ua.MonitoredItemModifyRequest{
				MonitoredItemID: it.serverID,
				RequestedParameters: ua.MonitoringParameters{
					ClientHandle:     it.clientHandle,
					SamplingInterval: float64(it.req.SamplingInterval / time.Millisecond),
					Filter:           ua.FilterExtensionObject(it.req.Filter),
					QueueSize:        it.req.QueueSize,
					DiscardOldest:    it.req.DiscardOldest,
				},
			})
		}
		it.mut.Unlock()
	}
	if len(reqs) == 0 {
		return nil
	}
	req := &ua.ModifyMonitoredItemsRequest{
		SubscriptionID:     s.ID(),
		TimestampsToReturn: ua.TimestampsBoth,
		ItemsToModify:      reqs,
	}
	resp, err := s.c.request(ctx, req)
	if err != nil {
		return err
	}
	mmr, ok := resp.(*ua.ModifyMonitoredItemsResponse)
	if !ok {
		return fmt.Errorf("client: got %T, want ModifyMonitoredItemsResponse", resp)
	}
	for i, res := range mmr.Results {
		if i >= len(items) {
			break
		}
		it := items[i]
		it.mut.Lock()
		it.lastStatus = res.StatusCode
		if res.StatusCode.IsGood() {
			it.revisedSampling = time.Duration(res.RevisedSamplingInterval * float64(time.Millisecond))
			it.revisedQueue = res.RevisedQueueSize
			it.filterResult = res.FilterResult
		}
		it.mut.Unlock()
	}
	return nil
}

// SetMonitoringMode switches the mode of created items.
func (s *Subscription) SetMonitoringMode(ctx context.Context, mode ua.MonitoringMode, items ...*MonitoredItem) error {
	ids := make([]uint32, 0, len(items))
	for _, it := range items {
		if it.Created() {
			ids = append(ids, it.ServerID())
		}
	}
	if len(ids) == 0 {
		return nil
	}
	req := &ua.SetMonitoringModeRequest{
		SubscriptionID:   s.ID(),
		MonitoringMode:   mode,
		MonitoredItemIDs: ids,
	}
	_, err := s.c.request(ctx, req)
	return err
}

// Unmonitor deletes items from the subscription.
func (s *Subscription) Unmonitor(ctx context.Context, items ...*MonitoredItem) error {
	ids := make([]uint32, 0, len(items))
	for _, it := range items {
		if it.Created() {
			ids = append(ids, it.ServerID())
		}
	}
	if len(ids) == 0 {
		return nil
	}
	req := &ua.DeleteMonitoredItemsRequest{
		SubscriptionID:   s.ID(),
		MonitoredItemIDs: ids,
	}
	resp, err := s.c.request(ctx, req)
	if err != nil {
		return err
	}
	if _, ok := resp.(*ua.DeleteMonitoredItemsResponse); !ok {
		return fmt.Errorf("client: got %T, want DeleteMonitoredItemsResponse", resp)
	}
	s.mut.Lock()
	for _, it := range items {
		delete(s.items, it.ClientHandle())
		it.mut.Lock()
		it.created = false
		it.mut.Unlock()
	}
	s.mut.Unlock()
	return nil
}

// item looks up a monitored item by client handle.
func (s *Subscription) item(clientHandle uint32) *MonitoredItem {
	s.mut.Lock()
	defer s.mut.Unlock()
	return s.items[clientHandle]
}
