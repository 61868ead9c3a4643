// Copyright (C) 2025 The Edgefield Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package client

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/edgefield/opcua/internal/slogutil"
	"github.com/edgefield/opcua/lib/ua"
	"github.com/edgefield/opcua/lib/uasc"
)

const (
	publishIdlePoll     = 250 * time.Millisecond
	publishErrorBackoff = time.Second
	republishAttempts   = 3
)

// queueAck records a received notification sequence number for
// acknowledgement on the next publish request.
func (c *Client) queueAck(subscriptionID, sequence uint32) {
	c.ackMut.Lock()
	c.acks = append(c.acks, ua.SubscriptionAcknowledgement{
		SubscriptionID: subscriptionID,
		SequenceNumber: sequence,
	})
	c.ackMut.Unlock()
}

// takeAcks drains the acknowledgement queue. Exactly the set of sequence
// numbers received since the previous publish request is returned.
func (c *Client) takeAcks() []ua.SubscriptionAcknowledgement {
	c.ackMut.Lock()
	defer c.ackMut.Unlock()
	acks := c.acks
	c.acks = nil
	return acks
}

// requeueAcks puts unconfirmed acknowledgements back for the next attempt.
func (c *Client) requeueAcks(acks []ua.SubscriptionAcknowledgement) {
	if len(acks) == 0 {
		return
	}
	c.ackMut.Lock()
	c.acks = append(acks, c.acks...)
	c.ackMut.Unlock()
}

func (c *Client) subscription(id uint32) *Subscription {
	c.subMut.Lock()
	defer c.subMut.Unlock()
	return c.subs[id]
}

func (c *Client) hasSubscriptions() bool {
	c.subMut.Lock()
	defer c.subMut.Unlock()
	return len(c.subs) > 0
}

// maxPublishTimeout is the publish deadline over all live subscriptions.
func (c *Client) maxPublishTimeout() time.Duration {
	c.subMut.Lock()
	defer c.subMut.Unlock()
	t := time.Duration(0)
	for _, s := range c.subs {
		if pt := s.publishTimeout(); pt > t {
			t = pt
		}
	}
	if t == 0 {
		t = c.channelCfg.RequestTimeout
	}
	return t + 5*time.Second
}

// publisher keeps a small number of publish requests outstanding and routes
// the notifications to the monitored items. It runs under the client
// supervisor.
type publisher struct {
	c *Client
}

func (p *publisher) Serve(ctx context.Context) error {
	var wg sync.WaitGroup
	wg.Add(p.c.publishWorkers)
	for i := 0; i < p.c.publishWorkers; i++ {
		go func() {
			defer wg.Done()
			p.worker(ctx)
		}()
	}
	wg.Wait()
	return ctx.Err()
}

func (p *publisher) worker(ctx context.Context) {
	c := p.c
	for {
		if ctx.Err() != nil {
			return
		}
		if !c.hasSubscriptions() || c.channel == nil || !c.channel.IsOpen() {
			select {
			case <-ctx.Done():
				return
			case <-time.After(publishIdlePoll):
			}
			continue
		}

		acks := c.takeAcks()
		req := &ua.PublishRequest{SubscriptionAcknowledgements: acks}
		resp, err := c.requestWithTimeout(ctx, req, c.maxPublishTimeout())
		if err != nil {
			switch {
			case errors.Is(err, ua.StatusBadTimeout), errors.Is(err, ua.StatusBadRequestTimeout):
				// No notification within the keep-alive window; the next
				// request re-arms and re-delivers the acks.
				c.requeueAcks(acks)
				continue
			case errors.Is(err, ua.StatusBadNoSubscription):
				continue
			case errors.Is(err, uasc.ErrChannelClosed), errors.Is(err, context.Canceled):
				c.requeueAcks(acks)
				return
			default:
				c.requeueAcks(acks)
				c.log.Debug("Publish failed", slogutil.Error(err))
				select {
				case <-ctx.Done():
					return
				case <-time.After(publishErrorBackoff):
				}
				continue
			}
		}
		pr, ok := resp.(*ua.PublishResponse)
		if !ok {
			continue
		}
		sub := c.subscription(pr.SubscriptionID)
		if sub == nil {
			// Subscription deleted locally; still acknowledge so the
			// server can free the message.
			c.queueAck(pr.SubscriptionID, pr.NotificationMessage.SequenceNumber)
			continue
		}
		sub.handlePublish(ctx, pr)
	}
}

// handlePublish processes one publish response: gap recovery via republish,
// notification dispatch in sequence order, and acknowledgement queueing.
func (s *Subscription) handlePublish(ctx context.Context, pr *ua.PublishResponse) {
	msg := pr.NotificationMessage
	seq := msg.SequenceNumber

	s.mut.Lock()
	expected := s.lastSequence + 1
	s.lastNotification = time.Now()
	s.mut.Unlock()

	// Keep-alive: no notification data, but the sequence number is still
	// acknowledged on the next request.
	if len(msg.NotificationData) == 0 {
		s.c.queueAck(s.ID(), seq)
		return
	}

	if s.sequenceSeen(seq) {
		// Duplicate delivery after a republish; acknowledge and drop.
		s.c.queueAck(s.ID(), seq)
		return
	}

	// Recover missed messages before dispatching this one so items see
	// notifications in ascending sequence order.
	if seq > expected {
		for missing := expected; missing < seq; missing++ {
			s.republish(ctx, missing)
		}
	}

	s.dispatch(msg)
	s.c.queueAck(s.ID(), seq)
	s.setLastSequence(seq)
}

func (s *Subscription) sequenceSeen(seq uint32) bool {
	s.mut.Lock()
	defer s.mut.Unlock()
	return s.lastSequence != 0 && seq <= s.lastSequence
}

func (s *Subscription) setLastSequence(seq uint32) {
	s.mut.Lock()
	if seq > s.lastSequence {
		s.lastSequence = seq
	}
	s.mut.Unlock()
}

// republish asks the server to retransmit one missed notification. Failed
// recoveries are bounded; an unrecoverable message is skipped.
func (s *Subscription) republish(ctx context.Context, seq uint32) {
	req := &ua.RepublishRequest{
		SubscriptionID:           s.ID(),
		RetransmitSequenceNumber: seq,
	}
	for attempt := 0; attempt < republishAttempts; attempt++ {
		resp, err := s.c.request(ctx, req)
		if err != nil {
			if errors.Is(err, ua.StatusBadMessageNotAvailable) || errors.Is(err, ua.StatusBadSequenceNumberUnknown) {
				s.log.Debug("Republish message no longer available", slog.Any("sequence", seq))
				return
			}
			continue
		}
		rr, ok := resp.(*ua.RepublishResponse)
		if !ok {
			return
		}
		s.dispatch(rr.NotificationMessage)
		s.c.queueAck(s.ID(), rr.NotificationMessage.SequenceNumber)
		s.setLastSequence(rr.NotificationMessage.SequenceNumber)
		return
	}
	s.log.Warn("Republish gave up", slog.Any("sequence", seq))
}

// dispatch routes the notification payloads to their monitored items.
func (s *Subscription) dispatch(msg ua.NotificationMessage) {
	for _, entry := range msg.NotificationData {
		n, err := ua.DecodeNotification(entry)
		if err != nil {
			s.log.Warn("Undecodable notification", slogutil.Error(err))
			continue
		}
		switch n := n.(type) {
		case *ua.DataChangeNotification:
			for _, mn := range n.MonitoredItems {
				if it := s.item(mn.ClientHandle); it != nil {
					it.push(mn.Value)
				} else {
					s.log.Debug("Data change for unknown client handle", slog.Any("clientHandle", mn.ClientHandle))
				}
			}
		case *ua.EventNotificationList:
			for _, ev := range n.Events {
				if it := s.item(ev.ClientHandle); it != nil {
					it.pushEvent(ev.EventFields)
				}
			}
		case *ua.StatusChangeNotification:
			s.log.Debug("Subscription status change", slog.Any("status", n.Status))
			if n.Status == ua.StatusBadTimeout {
				// The server dropped the subscription; rebuild it and
				// reattach the items.
				go func() {
					ctx, cancel := context.WithTimeout(context.Background(), s.c.channelCfg.RequestTimeout)
					defer cancel()
					if err := s.recreate(ctx); err != nil {
						s.log.Warn("Subscription recreation failed", slogutil.Error(err))
					}
				}()
			}
		}
	}
}
