// Copyright (C) 2025 The Edgefield Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package client

import (
	"context"
	"fmt"

	"github.com/edgefield/opcua/lib/nodecache"
	"github.com/edgefield/opcua/lib/ua"
)

// GetEndpoints asks the server for the endpoints it advertises. It works on
// a bare secure channel, before a session exists.
func (c *Client) GetEndpoints(ctx context.Context) ([]ua.EndpointDescription, error) {
	req := &ua.GetEndpointsRequest{
		EndpointURL: c.endpoint,
		ProfileURIs: nil,
	}
	resp, err := c.request(ctx, req)
	if err != nil {
		return nil, err
	}
	ger, ok := resp.(*ua.GetEndpointsResponse)
	if !ok {
		return nil, fmt.Errorf("client: got %T, want GetEndpointsResponse", resp)
	}
	return ger.Endpoints, nil
}

// Browse returns the references for the given browse descriptions in one
// service call.
func (c *Client) Browse(ctx context.Context, nodes []ua.BrowseDescription, maxReferencesPerNode uint32) ([]ua.BrowseResult, error) {
	req := &ua.BrowseRequest{
		RequestedMaxReferencesPerNode: maxReferencesPerNode,
		NodesToBrowse:                 nodes,
	}
	resp, err := c.request(ctx, req)
	if err != nil {
		return nil, err
	}
	br, ok := resp.(*ua.BrowseResponse)
	if !ok {
		return nil, fmt.Errorf("client: got %T, want BrowseResponse", resp)
	}
	return br.Results, nil
}

// BrowseNext continues truncated browse results. With release set the
// server frees the continuation points without returning references.
func (c *Client) BrowseNext(ctx context.Context, continuationPoints [][]byte, release bool) ([]ua.BrowseResult, error) {
	req := &ua.BrowseNextRequest{
		ReleaseContinuationPoints: release,
		ContinuationPoints:        continuationPoints,
	}
	resp, err := c.request(ctx, req)
	if err != nil {
		return nil, err
	}
	br, ok := resp.(*ua.BrowseNextResponse)
	if !ok {
		return nil, fmt.Errorf("client: got %T, want BrowseNextResponse", resp)
	}
	return br.Results, nil
}

// BrowseAll browses one node and follows continuation points until the
// server has returned every reference.
func (c *Client) BrowseAll(ctx context.Context, desc ua.BrowseDescription, maxReferencesPerNode uint32) ([]ua.ReferenceDescription, error) {
	results, err := c.Browse(ctx, []ua.BrowseDescription{desc}, maxReferencesPerNode)
	if err != nil {
		return nil, err
	}
	if len(results) != 1 {
		return nil, fmt.Errorf("client: browse returned %d results, want 1", len(results))
	}
	res := results[0]
	if res.StatusCode.IsBad() {
		return nil, res.StatusCode
	}
	refs := res.References
	cp := res.ContinuationPoint
	for len(cp) > 0 {
		next, err := c.BrowseNext(ctx, [][]byte{cp}, false)
		if err != nil {
			return refs, err
		}
		if len(next) != 1 {
			return refs, fmt.Errorf("client: browse next returned %d results, want 1", len(next))
		}
		if next[0].StatusCode.IsBad() {
			return refs, next[0].StatusCode
		}
		refs = append(refs, next[0].References...)
		cp = next[0].ContinuationPoint
	}
	return refs, nil
}

// Children lists the hierarchical forward references of a node, consulting
// the node cache when one is configured.
func (c *Client) Children(ctx context.Context, node ua.NodeID) ([]ua.ReferenceDescription, error) {
	if c.cache != nil {
		if e := c.cache.Get(node); e != nil && e.References != nil {
			return e.References, nil
		}
	}
	refs, err := c.BrowseAll(ctx, ua.BrowseDescription{
		NodeID:          node,
		BrowseDirection: ua.BrowseDirectionForward,
		ReferenceTypeID: ua.HierarchicalReferences,
		IncludeSubtypes: true,
		ResultMask:      ua.ResultMaskAll,
	}, 0)
	if err == nil && c.cache != nil {
		c.cache.Set(node, &nodecache.Entry{References: refs})
	}
	return refs, err
}

// CachedValue reads the value attribute through the node cache. Without a
// configured cache it behaves like ReadValue.
func (c *Client) CachedValue(ctx context.Context, node ua.NodeID) (ua.DataValue, error) {
	if c.cache != nil {
		if e := c.cache.Get(node); e != nil {
			if v, ok := e.Attributes[ua.AttributeIDValue]; ok {
				return v, nil
			}
		}
	}
	v, err := c.ReadValue(ctx, node)
	if err != nil {
		return v, err
	}
	if c.cache != nil {
		c.cache.Set(node, &nodecache.Entry{
			Attributes: map[ua.AttributeID]ua.DataValue{ua.AttributeIDValue: v},
		})
	}
	return v, nil
}

// NodeCacheStats exposes the cache counters, zero without a cache.
func (c *Client) NodeCacheStats() nodecache.Stats {
	if c.cache == nil {
		return nodecache.Stats{}
	}
	return c.cache.Stats()
}

// Read reads attributes and returns the values in request order.
func (c *Client) Read(ctx context.Context, nodes []ua.ReadValueID) ([]ua.DataValue, error) {
	req := &ua.ReadRequest{
		TimestampsToReturn: ua.TimestampsBoth,
		NodesToRead:        nodes,
	}
	resp, err := c.request(ctx, req)
	if err != nil {
		return nil, err
	}
	rr, ok := resp.(*ua.ReadResponse)
	if !ok {
		return nil, fmt.Errorf("client: got %T, want ReadResponse", resp)
	}
	return rr.Results, nil
}

// ReadValue reads the value attribute of one node.
func (c *Client) ReadValue(ctx context.Context, node ua.NodeID) (ua.DataValue, error) {
	vs, err := c.Read(ctx, []ua.ReadValueID{{NodeID: node, AttributeID: ua.AttributeIDValue}})
	if err != nil {
		return ua.DataValue{}, err
	}
	if len(vs) != 1 {
		return ua.DataValue{}, fmt.Errorf("client: read returned %d values, want 1", len(vs))
	}
	return vs[0], nil
}

// Write writes attribute values and returns one status per write.
func (c *Client) Write(ctx context.Context, nodes []ua.WriteValue) ([]ua.StatusCode, error) {
	req := &ua.WriteRequest{NodesToWrite: nodes}
	resp, err := c.request(ctx, req)
	if err != nil {
		return nil, err
	}
	wr, ok := resp.(*ua.WriteResponse)
	if !ok {
		return nil, fmt.Errorf("client: got %T, want WriteResponse", resp)
	}
	return wr.Results, nil
}

// WriteValue writes the value attribute of one node.
func (c *Client) WriteValue(ctx context.Context, node ua.NodeID, v ua.DataValue) (ua.StatusCode, error) {
	ss, err := c.Write(ctx, []ua.WriteValue{{NodeID: node, AttributeID: ua.AttributeIDValue, Value: v}})
	if err != nil {
		return ua.StatusBadUnexpectedError, err
	}
	if len(ss) != 1 {
		return ua.StatusBadUnexpectedError, fmt.Errorf("client: write returned %d statuses, want 1", len(ss))
	}
	return ss[0], nil
}

// Call invokes one method and returns its output arguments. When the server
// rejects individual input arguments, the error wraps the per-argument
// statuses.
func (c *Client) Call(ctx context.Context, objectID, methodID ua.NodeID, args ...ua.Variant) ([]ua.Variant, error) {
	req := &ua.CallRequest{
		MethodsToCall: []ua.CallMethodRequest{{
			ObjectID:       objectID,
			MethodID:       methodID,
			InputArguments: args,
		}},
	}
	resp, err := c.request(ctx, req)
	if err != nil {
		return nil, err
	}
	cr, ok := resp.(*ua.CallResponse)
	if !ok {
		return nil, fmt.Errorf("client: got %T, want CallResponse", resp)
	}
	if len(cr.Results) != 1 {
		return nil, fmt.Errorf("client: call returned %d results, want 1", len(cr.Results))
	}
	res := cr.Results[0]
	if res.StatusCode.IsBad() {
		if len(res.InputArgumentResults) > 0 {
			return nil, &CallArgumentError{Status: res.StatusCode, InputArgumentResults: res.InputArgumentResults}
		}
		return nil, res.StatusCode
	}
	return res.OutputArguments, nil
}

// CallArgumentError reports a method call rejected because of its input
// arguments, carrying the per-argument statuses.
type CallArgumentError struct {
	Status               ua.StatusCode
	InputArgumentResults []ua.StatusCode
}

func (e *CallArgumentError) Error() string {
	return fmt.Sprintf("client: method call failed: %v (per-argument statuses: %v)", e.Status, e.InputArgumentResults)
}

func (e *CallArgumentError) Unwrap() error { return e.Status }

// RegisterNodes registers node ids for optimised repeated access and
// returns the aliases to use instead.
func (c *Client) RegisterNodes(ctx context.Context, nodes []ua.NodeID) ([]ua.NodeID, error) {
	req := &ua.RegisterNodesRequest{NodesToRegister: nodes}
	resp, err := c.request(ctx, req)
	if err != nil {
		return nil, err
	}
	rr, ok := resp.(*ua.RegisterNodesResponse)
	if !ok {
		return nil, fmt.Errorf("client: got %T, want RegisterNodesResponse", resp)
	}
	return rr.RegisteredNodeIDs, nil
}

// UnregisterNodes releases aliases obtained from RegisterNodes.
func (c *Client) UnregisterNodes(ctx context.Context, nodes []ua.NodeID) error {
	req := &ua.UnregisterNodesRequest{NodesToUnregister: nodes}
	_, err := c.request(ctx, req)
	return err
}
