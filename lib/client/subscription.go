// Copyright (C) 2025 The Edgefield Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package client

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/edgefield/opcua/internal/slogutil"
	"github.com/edgefield/opcua/lib/ua"
)

const (
	defaultPublishingInterval = 500 * time.Millisecond
	defaultLifetimeCount      = 60
	defaultMaxKeepAliveCount  = 10
	defaultValueCacheSize     = 10
)

// SubscriptionParameters are the client-requested subscription settings.
// The server may revise the interval and the counts.
type SubscriptionParameters struct {
	PublishingInterval         time.Duration
	LifetimeCount              uint32
	MaxKeepAliveCount          uint32
	MaxNotificationsPerPublish uint32
	Priority                   byte
	PublishingEnabled          bool
}

func (p *SubscriptionParameters) applyDefaults() {
	if p.PublishingInterval == 0 {
		p.PublishingInterval = defaultPublishingInterval
	}
	if p.LifetimeCount == 0 {
		p.LifetimeCount = defaultLifetimeCount
	}
	if p.MaxKeepAliveCount == 0 {
		p.MaxKeepAliveCount = defaultMaxKeepAliveCount
	}
	// The lifetime must be at least three keep-alive periods.
	if p.LifetimeCount < 3*p.MaxKeepAliveCount {
		p.LifetimeCount = 3 * p.MaxKeepAliveCount
	}
}

// Subscription is the client-side shadow of a server subscription: revised
// parameters, the monitored items keyed by client handle, and the sequence
// bookkeeping of the publish loop.
type Subscription struct {
	c      *Client
	log    *slog.Logger
	params SubscriptionParameters

	mut               sync.Mutex
	id                uint32
	revisedInterval   time.Duration
	revisedLifetime   uint32
	revisedKeepAlive  uint32
	items             map[uint32]*MonitoredItem
	lastSequence      uint32
	lastNotification  time.Time
	publishingEnabled bool
}

// CreateSubscription creates a subscription on the server and registers it
// with the publish loop.
func (c *Client) CreateSubscription(ctx context.Context, params SubscriptionParameters) (*Subscription, error) {
	params.applyDefaults()
	req := &ua.CreateSubscriptionRequest{
		RequestedPublishingInterval: float64(params.PublishingInterval / time.Millisecond),
		RequestedLifetimeCount:      params.LifetimeCount,
		RequestedMaxKeepAliveCount:  params.MaxKeepAliveCount,
		MaxNotificationsPerPublish:  params.MaxNotificationsPerPublish,
		PublishingEnabled:           params.PublishingEnabled,
		Priority:                    params.Priority,
	}
	resp, err := c.request(ctx, req)
	if err != nil {
		return nil, err
	}
	csr, ok := resp.(*ua.CreateSubscriptionResponse)
	if !ok {
		return nil, fmt.Errorf("client: got %T, want CreateSubscriptionResponse", resp)
	}

	sub := &Subscription{
		c:                 c,
		params:            params,
		id:                csr.SubscriptionID,
		revisedInterval:   time.Duration(csr.RevisedPublishingInterval * float64(time.Millisecond)),
		revisedLifetime:   csr.RevisedLifetimeCount,
		revisedKeepAlive:  csr.RevisedMaxKeepAliveCount,
		items:             make(map[uint32]*MonitoredItem),
		lastNotification:  time.Now(),
		publishingEnabled: params.PublishingEnabled,
		log:               c.log.With(slogutil.SubscriptionID(csr.SubscriptionID)),
	}

	c.subMut.Lock()
	c.subs[sub.id] = sub
	c.subMut.Unlock()
	sub.log.Debug("Subscription created",
		slog.Any("interval", sub.revisedInterval),
		slog.Any("lifetime", sub.revisedLifetime),
		slog.Any("keepAlive", sub.revisedKeepAlive))
	return sub, nil
}

// ID returns the server-assigned subscription id.
func (s *Subscription) ID() uint32 {
	s.mut.Lock()
	defer s.mut.Unlock()
	return s.id
}

// PublishingInterval returns the revised publishing interval.
func (s *Subscription) PublishingInterval() time.Duration {
	s.mut.Lock()
	defer s.mut.Unlock()
	return s.revisedInterval
}

// publishTimeout is the deadline applied to publish requests covering this
// subscription: slightly more than interval times keep-alive count.
func (s *Subscription) publishTimeout() time.Duration {
	s.mut.Lock()
	defer s.mut.Unlock()
	t := s.revisedInterval * time.Duration(s.revisedKeepAlive+1)
	if t < time.Second {
		t = time.Second
	}
	return t
}

// Modify renegotiates the subscription parameters.
func (s *Subscription) Modify(ctx context.Context, params SubscriptionParameters) error {
	params.applyDefaults()
	req := &ua.ModifySubscriptionRequest{
		SubscriptionID:              s.ID(),
		RequestedPublishingInterval: float64(params.PublishingInterval / time.Millisecond),
		RequestedLifetimeCount:      params.LifetimeCount,
		RequestedMaxKeepAliveCount:  params.MaxKeepAliveCount,
		MaxNotificationsPerPublish:  params.MaxNotificationsPerPublish,
		Priority:                    params.Priority,
	}
	resp, err := s.c.request(ctx, req)
	if err != nil {
		return err
	}
	msr, ok := resp.(*ua.ModifySubscriptionResponse)
	if !ok {
		return fmt.Errorf("client: got %T, want ModifySubscriptionResponse", resp)
	}
	s.mut.Lock()
	s.params = params
	s.revisedInterval = time.Duration(msr.RevisedPublishingInterval * float64(time.Millisecond))
	s.revisedLifetime = msr.RevisedLifetimeCount
	s.revisedKeepAlive = msr.RevisedMaxKeepAliveCount
	s.mut.Unlock()
	return nil
}

// SetPublishingMode enables or disables notification publishing.
func (s *Subscription) SetPublishingMode(ctx context.Context, enabled bool) error {
	req := &ua.SetPublishingModeRequest{
		PublishingEnabled: enabled,
		SubscriptionIDs:   []uint32{s.ID()},
	}
	resp, err := s.c.request(ctx, req)
	if err != nil {
		return err
	}
	smr, ok := resp.(*ua.SetPublishingModeResponse)
	if !ok {
		return fmt.Errorf("client: got %T, want SetPublishingModeResponse", resp)
	}
	if len(smr.Results) == 1 && smr.Results[0].IsBad() {
		return smr.Results[0]
	}
	s.mut.Lock()
	s.publishingEnabled = enabled
	s.mut.Unlock()
	return nil
}

// Delete removes the subscription from the server and the publish loop.
func (s *Subscription) Delete(ctx context.Context) error {
	id := s.ID()
	s.c.subMut.Lock()
	delete(s.c.subs, id)
	s.c.subMut.Unlock()

	req := &ua.DeleteSubscriptionsRequest{SubscriptionIDs: []uint32{id}}
	resp, err := s.c.request(ctx, req)
	if err != nil {
		return err
	}
	dsr, ok := resp.(*ua.DeleteSubscriptionsResponse)
	if !ok {
		return fmt.Errorf("client: got %T, want DeleteSubscriptionsResponse", resp)
	}
	if len(dsr.Results) == 1 && dsr.Results[0].IsBad() {
		return dsr.Results[0]
	}
	return nil
}

// recreate rebuilds a lapsed subscription and reattaches its monitored
// items under fresh server ids.
func (s *Subscription) recreate(ctx context.Context) error {
	s.mut.Lock()
	params := s.params
	items := make([]*MonitoredItem, 0, len(s.items))
	for _, it := range s.items {
		items = append(items, it)
	}
	oldID := s.id
	s.mut.Unlock()

	s.c.subMut.Lock()
	delete(s.c.subs, oldID)
	s.c.subMut.Unlock()

	req := &ua.CreateSubscriptionRequest{
		RequestedPublishingInterval: float64(params.PublishingInterval / time.Millisecond),
		RequestedLifetimeCount:      params.LifetimeCount,
		RequestedMaxKeepAliveCount:  params.MaxKeepAliveCount,
		MaxNotificationsPerPublish:  params.MaxNotificationsPerPublish,
		PublishingEnabled:           params.PublishingEnabled,
		Priority:                    params.Priority,
	}
	resp, err := s.c.request(ctx, req)
	if err != nil {
		return err
	}
	csr, ok := resp.(*ua.CreateSubscriptionResponse)
	if !ok {
		return fmt.Errorf("client: got %T, want CreateSubscriptionResponse", resp)
	}

	s.mut.Lock()
	s.id = csr.SubscriptionID
	s.revisedInterval = time.Duration(csr.RevisedPublishingInterval * float64(time.Millisecond))
	s.revisedLifetime = csr.RevisedLifetimeCount
	s.revisedKeepAlive = csr.RevisedMaxKeepAliveCount
	s.lastSequence = 0
	s.lastNotification = time.Now()
	s.mut.Unlock()

	s.c.subMut.Lock()
	s.c.subs[csr.SubscriptionID] = s
	s.c.subMut.Unlock()

	for _, it := range items {
		it.mut.Lock()
		it.created = false
		it.mut.Unlock()
	}
	if len(items) > 0 {
		if err := s.monitorItems(ctx, items); err != nil {
			return err
		}
	}
	s.log.Debug("Subscription recreated", slogutil.SubscriptionID(csr.SubscriptionID))
	return nil
}
