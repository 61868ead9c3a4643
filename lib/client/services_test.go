// Copyright (C) 2025 The Edgefield Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package client

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/edgefield/opcua/lib/ua"
)

// fakeChannel scripts responses per request type, recording the requests it
// saw.
type fakeChannel struct {
	requests []ua.Request
	handler  func(req ua.Request) (ua.Response, error)
}

func (f *fakeChannel) Open(context.Context) error  { return nil }
func (f *fakeChannel) Renew(context.Context) error { return nil }
func (f *fakeChannel) Close(context.Context) error { return nil }
func (f *fakeChannel) IsOpen() bool                { return true }
func (f *fakeChannel) RenewalDue() bool            { return false }
func (f *fakeChannel) Serve(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakeChannel) SendRequest(ctx context.Context, req ua.Request) (ua.Response, error) {
	f.requests = append(f.requests, req)
	return f.handler(req)
}

func (f *fakeChannel) SendRequestWithTimeout(ctx context.Context, req ua.Request, _ time.Duration) (ua.Response, error) {
	return f.SendRequest(ctx, req)
}

func ref(name string) ua.ReferenceDescription {
	return ua.ReferenceDescription{
		BrowseName:  ua.QualifiedName{Name: name},
		DisplayName: ua.LocalizedText{Text: name},
	}
}

func TestBrowseAllFollowsContinuationPoints(t *testing.T) {
	first := []ua.ReferenceDescription{ref("a"), ref("b"), ref("c"), ref("d"), ref("e")}
	second := []ua.ReferenceDescription{ref("f"), ref("g"), ref("h"), ref("i")}

	fc := &fakeChannel{}
	fc.handler = func(req ua.Request) (ua.Response, error) {
		switch q := req.(type) {
		case *ua.BrowseRequest:
			return &ua.BrowseResponse{
				Results: []ua.BrowseResult{{
					StatusCode:        ua.StatusGood,
					ContinuationPoint: []byte{0xCA, 0xFE},
					References:        first,
				}},
			}, nil
		case *ua.BrowseNextRequest:
			if q.ReleaseContinuationPoints {
				t.Error("wrapper must not release continuation points")
			}
			var resp ua.BrowseNextResponse
			resp.Results = []ua.BrowseResult{{
				StatusCode: ua.StatusGood,
				References: second,
			}}
			return &resp, nil
		default:
			return nil, fmt.Errorf("unexpected %T", req)
		}
	}

	c := New("opc.tcp://test:4840/")
	c.channel = fc

	refs, err := c.BrowseAll(context.Background(), ua.BrowseDescription{
		NodeID:          ua.ObjectsFolder,
		BrowseDirection: ua.BrowseDirectionForward,
		ResultMask:      ua.ResultMaskAll,
	}, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(refs) != 9 {
		t.Fatalf("references: got %d, want 9", len(refs))
	}
	for i, want := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i"} {
		if refs[i].BrowseName.Name != want {
			t.Errorf("reference %d: got %q, want %q", i, refs[i].BrowseName.Name, want)
		}
	}
	if len(fc.requests) != 2 {
		t.Errorf("service calls: got %d, want 2", len(fc.requests))
	}
}

func TestReadBatchedSplitsAgainstServerLimit(t *testing.T) {
	fc := &fakeChannel{}
	var readSizes []int
	fc.handler = func(req ua.Request) (ua.Response, error) {
		q, ok := req.(*ua.ReadRequest)
		if !ok {
			return nil, fmt.Errorf("unexpected %T", req)
		}
		// The first read fetches the operation limits.
		if len(q.NodesToRead) == 6 && q.NodesToRead[0].NodeID.Equal(ua.VarMaxNodesPerRead) {
			results := make([]ua.DataValue, 6)
			for i := range results {
				results[i] = ua.NewDataValue(uint32(4))
			}
			return &ua.ReadResponse{Results: results}, nil
		}
		readSizes = append(readSizes, len(q.NodesToRead))
		results := make([]ua.DataValue, len(q.NodesToRead))
		for i, n := range q.NodesToRead {
			results[i] = ua.NewDataValue(int32(n.NodeID.Numeric))
		}
		return &ua.ReadResponse{Results: results}, nil
	}

	c := New("opc.tcp://test:4840/")
	c.channel = fc

	nodes := make([]ua.ReadValueID, 10)
	for i := range nodes {
		nodes[i] = ua.ReadValueID{NodeID: ua.NewNumericNodeID(2, uint32(i)), AttributeID: ua.AttributeIDValue}
	}
	var progress [][2]int
	values, err := c.ReadBatched(context.Background(), nodes, func(done, total int) {
		progress = append(progress, [2]int{done, total})
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(values) != 10 {
		t.Fatalf("values: got %d, want 10", len(values))
	}
	for i, v := range values {
		if got := v.Value.Value.(int32); got != int32(i) {
			t.Errorf("value %d: got %d", i, got)
		}
	}
	for _, n := range readSizes {
		if n > 4 {
			t.Errorf("batch of %d exceeds server limit 4", n)
		}
	}
	if len(readSizes) != 3 {
		t.Errorf("batches: got %d, want 3", len(readSizes))
	}
	want := [][2]int{{4, 10}, {8, 10}, {10, 10}}
	if len(progress) != len(want) {
		t.Fatalf("progress calls: got %v", progress)
	}
	for i := range want {
		if progress[i] != want[i] {
			t.Errorf("progress %d: got %v, want %v", i, progress[i], want[i])
		}
	}
}

func TestCallReturnsPerArgumentStatuses(t *testing.T) {
	fc := &fakeChannel{}
	fc.handler = func(req ua.Request) (ua.Response, error) {
		return &ua.CallResponse{
			Results: []ua.CallMethodResult{{
				StatusCode:           ua.StatusBadInvalidArgument,
				InputArgumentResults: []ua.StatusCode{ua.StatusGood, ua.StatusBadTypeMismatch},
			}},
		}, nil
	}
	c := New("opc.tcp://test:4840/")
	c.channel = fc

	_, err := c.Call(context.Background(), ua.NewNumericNodeID(2, 1), ua.NewNumericNodeID(2, 2), ua.NewVariant(int32(1)), ua.NewVariant("x"))
	var argErr *CallArgumentError
	if !errors.As(err, &argErr) {
		t.Fatalf("got %v, want CallArgumentError", err)
	}
	if len(argErr.InputArgumentResults) != 2 || !argErr.InputArgumentResults[1].IsBad() {
		t.Errorf("per-argument statuses: got %v", argErr.InputArgumentResults)
	}
}
