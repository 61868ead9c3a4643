// Copyright (C) 2025 The Edgefield Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package client

import (
	"context"

	"github.com/edgefield/opcua/lib/ua"
)

// OperationLimits are the server's advertised per-call operation caps. Zero
// means unlimited.
type OperationLimits struct {
	MaxNodesPerRead          uint32
	MaxNodesPerWrite         uint32
	MaxNodesPerBrowse        uint32
	MaxNodesPerRegisterNodes uint32
	MaxNodesPerMethodCall    uint32
	MaxMonitoredItemsPerCall uint32
}

// ProgressFunc receives (completed, total) after each batch of a batched
// operation.
type ProgressFunc func(completed, total int)

// OperationLimits reads the server's operational limits once and caches
// them. Nodes that are absent or unreadable count as unlimited.
func (c *Client) OperationLimits(ctx context.Context) (OperationLimits, error) {
	c.limitsOnce.Lock()
	defer c.limitsOnce.Unlock()
	if c.limits != nil {
		return *c.limits, nil
	}

	ids := []ua.ReadValueID{
		{NodeID: ua.VarMaxNodesPerRead, AttributeID: ua.AttributeIDValue},
		{NodeID: ua.VarMaxNodesPerWrite, AttributeID: ua.AttributeIDValue},
		{NodeID: ua.VarMaxNodesPerBrowse, AttributeID: ua.AttributeIDValue},
		{NodeID: ua.VarMaxNodesPerRegisterNodes, AttributeID: ua.AttributeIDValue},
		{NodeID: ua.VarMaxNodesPerMethodCall, AttributeID: ua.AttributeIDValue},
		{NodeID: ua.VarMaxMonitoredItemsPerCall, AttributeID: ua.AttributeIDValue},
	}
	values, err := c.Read(ctx, ids)
	if err != nil {
		return OperationLimits{}, err
	}
	var lim OperationLimits
	dst := []*uint32{
		&lim.MaxNodesPerRead,
		&lim.MaxNodesPerWrite,
		&lim.MaxNodesPerBrowse,
		&lim.MaxNodesPerRegisterNodes,
		&lim.MaxNodesPerMethodCall,
		&lim.MaxMonitoredItemsPerCall,
	}
	for i, v := range values {
		if i >= len(dst) {
			break
		}
		*dst[i] = limitValue(v)
	}
	c.limits = &lim
	return lim, nil
}

// limitValue extracts a limit from a read result; null or bad reads as
// unlimited.
func limitValue(v ua.DataValue) uint32 {
	if !v.HasValue || (v.HasStatus && v.Status.IsBad()) {
		return 0
	}
	switch x := v.Value.Value.(type) {
	case uint32:
		return x
	case int32:
		if x < 0 {
			return 0
		}
		return uint32(x)
	case uint64:
		return uint32(x)
	case int64:
		if x < 0 {
			return 0
		}
		return uint32(x)
	default:
		return 0
	}
}

// safeBatch combines the configured batch size with the server limit; zero
// means unlimited.
func (c *Client) safeBatch(serverLimit uint32) uint32 {
	switch {
	case c.batchSize == 0:
		return serverLimit
	case serverLimit == 0:
		return c.batchSize
	case c.batchSize < serverLimit:
		return c.batchSize
	default:
		return serverLimit
	}
}

// splitBatches cuts in into slices of at most size elements. Size zero
// returns the input as a single batch.
func splitBatches[T any](in []T, size uint32) [][]T {
	if size == 0 || len(in) <= int(size) {
		return [][]T{in}
	}
	var out [][]T
	for off := 0; off < len(in); off += int(size) {
		end := off + int(size)
		if end > len(in) {
			end = len(in)
		}
		out = append(out, in[off:end])
	}
	return out
}

// ReadBatched splits the read across server-safe batches, preserving result
// order and reporting progress after each batch.
func (c *Client) ReadBatched(ctx context.Context, nodes []ua.ReadValueID, progress ProgressFunc) ([]ua.DataValue, error) {
	lim, err := c.OperationLimits(ctx)
	if err != nil {
		return nil, err
	}
	batches := splitBatches(nodes, c.safeBatch(lim.MaxNodesPerRead))
	out := make([]ua.DataValue, 0, len(nodes))
	done := 0
	for _, batch := range batches {
		vs, err := c.Read(ctx, batch)
		if err != nil {
			return out, err
		}
		out = append(out, vs...)
		done += len(batch)
		if progress != nil {
			progress(done, len(nodes))
		}
	}
	return out, nil
}

// WriteBatched splits the write across server-safe batches.
func (c *Client) WriteBatched(ctx context.Context, nodes []ua.WriteValue, progress ProgressFunc) ([]ua.StatusCode, error) {
	lim, err := c.OperationLimits(ctx)
	if err != nil {
		return nil, err
	}
	batches := splitBatches(nodes, c.safeBatch(lim.MaxNodesPerWrite))
	out := make([]ua.StatusCode, 0, len(nodes))
	done := 0
	for _, batch := range batches {
		ss, err := c.Write(ctx, batch)
		if err != nil {
			return out, err
		}
		out = append(out, ss...)
		done += len(batch)
		if progress != nil {
			progress(done, len(nodes))
		}
	}
	return out, nil
}

// BrowseBatched splits the browse across server-safe batches.
func (c *Client) BrowseBatched(ctx context.Context, nodes []ua.BrowseDescription, maxReferencesPerNode uint32, progress ProgressFunc) ([]ua.BrowseResult, error) {
	lim, err := c.OperationLimits(ctx)
	if err != nil {
		return nil, err
	}
	batches := splitBatches(nodes, c.safeBatch(lim.MaxNodesPerBrowse))
	out := make([]ua.BrowseResult, 0, len(nodes))
	done := 0
	for _, batch := range batches {
		rs, err := c.Browse(ctx, batch, maxReferencesPerNode)
		if err != nil {
			return out, err
		}
		out = append(out, rs...)
		done += len(batch)
		if progress != nil {
			progress(done, len(nodes))
		}
	}
	return out, nil
}

// RegisterNodesBatched splits node registration across server-safe batches.
func (c *Client) RegisterNodesBatched(ctx context.Context, nodes []ua.NodeID, progress ProgressFunc) ([]ua.NodeID, error) {
	lim, err := c.OperationLimits(ctx)
	if err != nil {
		return nil, err
	}
	batches := splitBatches(nodes, c.safeBatch(lim.MaxNodesPerRegisterNodes))
	out := make([]ua.NodeID, 0, len(nodes))
	done := 0
	for _, batch := range batches {
		ids, err := c.RegisterNodes(ctx, batch)
		if err != nil {
			return out, err
		}
		out = append(out, ids...)
		done += len(batch)
		if progress != nil {
			progress(done, len(nodes))
		}
	}
	return out, nil
}
