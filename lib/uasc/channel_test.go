// Copyright (C) 2025 The Edgefield Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package uasc

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/edgefield/opcua/lib/ua"
	"github.com/edgefield/opcua/lib/uacp"
	"github.com/edgefield/opcua/lib/uapolicy"
)

// testServer speaks just enough of the protocol to exercise the client side
// of the secure conversation over a pipe: handshake, OPN issue/renew with
// policy None, and scripted MSG responses.
type testServer struct {
	t    *testing.T
	conn net.Conn

	sendBufferSize uint32
	channelID      uint32
	tokenID        uint32
	sequence       uint32

	// chunksPerRequest records the chunk kinds seen per request id.
	chunksPerRequest map[uint32][]byte

	// respond builds the response body for a fully assembled request.
	respond func(typeID uint32, body []byte, requestHandle uint32) ua.Response
}

func newTestServer(t *testing.T, conn net.Conn) *testServer {
	return &testServer{
		t:                t,
		conn:             conn,
		sendBufferSize:   8192,
		channelID:        7,
		tokenID:          1,
		chunksPerRequest: make(map[uint32][]byte),
	}
}

func (s *testServer) nextSequence() uint32 {
	s.sequence++
	return s.sequence
}

func (s *testServer) run() {
	defer s.conn.Close()
	if !s.handshake() {
		return
	}
	partial := make(map[uint32][]byte)
	for {
		hdr, frame, err := s.readChunk()
		if err != nil {
			return
		}
		switch hdr.MessageType {
		case uacp.MessageTypeOpen:
			s.handleOpen(frame)
		case uacp.MessageTypeClose:
			return
		case uacp.MessageTypeMessage:
			r := ua.NewReader(frame[uacp.HeaderLength:])
			r.ReadUint32() // channel id
			r.ReadUint32() // token id
			r.ReadUint32() // sequence number
			reqID := r.ReadUint32()
			body := frame[symmetricHeaderLength+sequenceHeaderLength:]

			s.chunksPerRequest[reqID] = append(s.chunksPerRequest[reqID], hdr.ChunkKind)
			partial[reqID] = append(partial[reqID], body...)
			if hdr.ChunkKind != uacp.ChunkFinal {
				continue
			}
			full := partial[reqID]
			delete(partial, reqID)
			s.handleRequest(reqID, full)
		}
	}
}

func (s *testServer) handshake() bool {
	hdr, body, err := s.readRaw()
	if err != nil || hdr.MessageType != uacp.MessageTypeHello {
		return false
	}
	var hel uacp.Hello
	hel.Decode(ua.NewReader(body))
	ack := uacp.Acknowledge{
		ReceiveBufferSize: s.sendBufferSize,
		SendBufferSize:    s.sendBufferSize,
		MaxMessageSize:    1 << 20,
		MaxChunkCount:     64,
	}
	w := ua.NewWriter()
	uacp.Header{MessageType: uacp.MessageTypeAcknowledge, ChunkKind: uacp.ChunkFinal, MessageSize: uacp.HeaderLength + 20}.Encode(w)
	ack.Encode(w)
	_, err = s.conn.Write(w.Bytes())
	return err == nil
}

func (s *testServer) readRaw() (uacp.Header, []byte, error) {
	var hb [uacp.HeaderLength]byte
	if _, err := io.ReadFull(s.conn, hb[:]); err != nil {
		return uacp.Header{}, nil, err
	}
	var hdr uacp.Header
	if err := hdr.Decode(ua.NewReader(hb[:])); err != nil {
		return uacp.Header{}, nil, err
	}
	body := make([]byte, hdr.MessageSize-uacp.HeaderLength)
	if _, err := io.ReadFull(s.conn, body); err != nil {
		return uacp.Header{}, nil, err
	}
	return hdr, body, nil
}

func (s *testServer) readChunk() (uacp.Header, []byte, error) {
	hdr, body, err := s.readRaw()
	if err != nil {
		return uacp.Header{}, nil, err
	}
	w := ua.NewWriter()
	hdr.Encode(w)
	return hdr, append(w.Bytes(), body...), nil
}

func (s *testServer) handleOpen(frame []byte) {
	r := ua.NewReader(frame[uacp.HeaderLength:])
	r.ReadUint32() // channel id (0 on issue)
	var asym AsymmetricSecurityHeader
	asym.Decode(r)
	var seq SequenceHeader
	seq.Decode(r)
	body := make([]byte, r.Remaining())
	copy(body, frame[len(frame)-r.Remaining():])

	br := ua.NewReader(body)
	br.ReadNodeID() // type id
	var req ua.OpenSecureChannelRequest
	req.Decode(br)

	resp := &ua.OpenSecureChannelResponse{
		ResponseHeader: ua.ResponseHeader{
			RequestHandle: req.RequestHeader.RequestHandle,
			ServiceResult: ua.StatusGood,
		},
		SecurityToken: ua.ChannelSecurityToken{
			ChannelID:       s.channelID,
			TokenID:         s.tokenID,
			CreatedAt:       time.Now(),
			RevisedLifetime: req.RequestedLifetime,
		},
	}
	s.tokenID++

	bw := ua.NewWriter()
	resp.Encode(bw)

	w := ua.NewWriter()
	uacp.Header{MessageType: uacp.MessageTypeOpen, ChunkKind: uacp.ChunkFinal, MessageSize: 0}.Encode(w)
	w.WriteUint32(s.channelID)
	(&AsymmetricSecurityHeader{SecurityPolicyURI: uapolicy.PolicyURINone}).Encode(w)
	(&SequenceHeader{SequenceNumber: s.nextSequence(), RequestID: seq.RequestID}).Encode(w)
	w.WriteRaw(bw.Bytes())
	frameOut := w.Bytes()
	putLen(frameOut)
	s.conn.Write(frameOut)
}

func (s *testServer) handleRequest(reqID uint32, body []byte) {
	r := ua.NewReader(body)
	typeID := r.ReadNodeID().Numeric

	var requestHandle uint32
	var resp ua.Response
	switch typeID {
	case ua.IDReadRequest:
		var req ua.ReadRequest
		req.Decode(r)
		requestHandle = req.RequestHeader.RequestHandle
		if s.respond != nil {
			resp = s.respond(typeID, body, requestHandle)
		} else {
			results := make([]ua.DataValue, len(req.NodesToRead))
			for i := range results {
				results[i] = ua.NewDataValue(int32(i))
			}
			resp = &ua.ReadResponse{
				ResponseHeader: ua.ResponseHeader{RequestHandle: requestHandle, ServiceResult: ua.StatusGood},
				Results:        results,
			}
		}
	case ua.IDWriteRequest:
		var req ua.WriteRequest
		req.Decode(r)
		requestHandle = req.RequestHeader.RequestHandle
		resp = &ua.WriteResponse{
			ResponseHeader: ua.ResponseHeader{RequestHandle: requestHandle, ServiceResult: ua.StatusBadNodeIDUnknown},
		}
	default:
		return
	}
	s.sendResponse(reqID, resp)
}

func (s *testServer) sendResponse(reqID uint32, resp ua.Response) {
	bw := ua.NewWriter()
	type encoder interface{ Encode(w *ua.Writer) }
	resp.(encoder).Encode(bw)

	w := ua.NewWriter()
	uacp.Header{MessageType: uacp.MessageTypeMessage, ChunkKind: uacp.ChunkFinal, MessageSize: 0}.Encode(w)
	w.WriteUint32(s.channelID)
	w.WriteUint32(s.tokenID - 1)
	(&SequenceHeader{SequenceNumber: s.nextSequence(), RequestID: reqID}).Encode(w)
	w.WriteRaw(bw.Bytes())
	frame := w.Bytes()
	putLen(frame)
	s.conn.Write(frame)
}

func putLen(frame []byte) {
	frame[4] = byte(len(frame))
	frame[5] = byte(len(frame) >> 8)
	frame[6] = byte(len(frame) >> 16)
	frame[7] = byte(len(frame) >> 24)
}

// dialTestChannel wires a client channel to a testServer over a pipe and
// opens it.
func dialTestChannel(t *testing.T) (*SecureChannel, *testServer, context.CancelFunc) {
	t.Helper()
	clientConn, serverConn := net.Pipe()
	srv := newTestServer(t, serverConn)
	go srv.run()

	ctx, cancel := context.WithCancel(context.Background())
	conn, err := uacp.NewConn(ctx, clientConn, "opc.tcp://test:4840/")
	if err != nil {
		cancel()
		t.Fatal(err)
	}
	ch, err := NewSecureChannel("opc.tcp://test:4840/", conn, Config{RequestTimeout: 2 * time.Second})
	if err != nil {
		cancel()
		t.Fatal(err)
	}
	go ch.Serve(ctx)
	if err := ch.Open(ctx); err != nil {
		cancel()
		t.Fatal(err)
	}
	return ch, srv, cancel
}

func TestOpenSecureChannel(t *testing.T) {
	ch, _, cancel := dialTestChannel(t)
	defer cancel()
	if !ch.IsOpen() {
		t.Fatal("channel must be open")
	}
	if got := ch.ChannelID(); got != 7 {
		t.Errorf("channel id: got %d, want 7", got)
	}
}

func TestRequestResponse(t *testing.T) {
	ch, _, cancel := dialTestChannel(t)
	defer cancel()

	ctx := context.Background()
	resp, err := ch.SendRequest(ctx, &ua.ReadRequest{
		NodesToRead: []ua.ReadValueID{{NodeID: ua.NewNumericNodeID(0, 2258), AttributeID: ua.AttributeIDValue}},
	})
	if err != nil {
		t.Fatal(err)
	}
	rr, ok := resp.(*ua.ReadResponse)
	if !ok {
		t.Fatalf("got %T", resp)
	}
	if len(rr.Results) != 1 {
		t.Fatalf("results: got %d, want 1", len(rr.Results))
	}
}

func TestServiceErrorDoesNotCloseChannel(t *testing.T) {
	ch, _, cancel := dialTestChannel(t)
	defer cancel()

	ctx := context.Background()
	_, err := ch.SendRequest(ctx, &ua.WriteRequest{
		NodesToWrite: []ua.WriteValue{{NodeID: ua.NewNumericNodeID(0, 1), AttributeID: ua.AttributeIDValue}},
	})
	if !errors.Is(err, ua.StatusBadNodeIDUnknown) {
		t.Fatalf("got %v, want BadNodeIdUnknown", err)
	}
	if !ch.IsOpen() {
		t.Fatal("service error must not close the channel")
	}

	// The channel keeps working after a service-level error.
	if _, err := ch.SendRequest(ctx, &ua.ReadRequest{
		NodesToRead: []ua.ReadValueID{{NodeID: ua.NewNumericNodeID(0, 2258), AttributeID: ua.AttributeIDValue}},
	}); err != nil {
		t.Fatal(err)
	}
}

func TestRenewInstallsSecondToken(t *testing.T) {
	ch, _, cancel := dialTestChannel(t)
	defer cancel()

	ctx := context.Background()
	if err := ch.Renew(ctx); err != nil {
		t.Fatal(err)
	}
	ch.stateMut.Lock()
	n := len(ch.tokens)
	ids := []uint32{}
	for _, tok := range ch.tokens {
		ids = append(ids, tok.id)
	}
	ch.stateMut.Unlock()
	if n != 2 {
		t.Fatalf("tokens after renew: got %d (%v), want 2", n, ids)
	}
}

func TestChunkSplitting(t *testing.T) {
	ch, srv, cancel := dialTestChannel(t)
	defer cancel()

	// A write with a large byte string forces multiple chunks against the
	// 8192-byte negotiated send buffer.
	payload := make([]byte, 20000)
	ctx := context.Background()
	_, err := ch.SendRequest(ctx, &ua.WriteRequest{
		NodesToWrite: []ua.WriteValue{{
			NodeID:      ua.NewNumericNodeID(2, 1),
			AttributeID: ua.AttributeIDValue,
			Value:       ua.NewDataValue(payload),
		}},
	})
	if !errors.Is(err, ua.StatusBadNodeIDUnknown) {
		t.Fatalf("unexpected error: %v", err)
	}

	var kinds []byte
	for _, ks := range srv.chunksPerRequest {
		if len(ks) > 1 {
			kinds = ks
		}
	}
	if len(kinds) < 2 {
		t.Fatalf("expected a multi-chunk request, got %v", srv.chunksPerRequest)
	}
	for i, k := range kinds[:len(kinds)-1] {
		if k != uacp.ChunkIntermediate {
			t.Errorf("chunk %d: got kind %q, want C", i, k)
		}
	}
	if kinds[len(kinds)-1] != uacp.ChunkFinal {
		t.Errorf("last chunk: got kind %q, want F", kinds[len(kinds)-1])
	}
}

func TestMaxBodySize(t *testing.T) {
	// Policy None: header + security header + sequence header + body.
	if got := maxBodySize(ua.SecurityModeNone, symmetricHeaderLength+sequenceHeaderLength+10, 1, 0); got != 10 {
		t.Errorf("none: got %d, want 10", got)
	}
	// Sign only: the signature reduces the room left for the body.
	if got := maxBodySize(ua.SecurityModeSign, 1024, 1, 32); got != 1024-16-8-32 {
		t.Errorf("sign: got %d", got)
	}
	// SignAndEncrypt: body + padding byte + signature fit whole blocks.
	got := maxBodySize(ua.SecurityModeSignAndEncrypt, 1024, 16, 32)
	blocks := (1024 - 16) / 16
	want := blocks*16 - 32 - 1 - 8
	if got != want {
		t.Errorf("sign+encrypt: got %d, want %d", got, want)
	}
}

func TestSequenceNumbersMonotonic(t *testing.T) {
	ch, _, cancel := dialTestChannel(t)
	defer cancel()

	ctx := context.Background()
	start := ch.sequence
	for i := 0; i < 3; i++ {
		if _, err := ch.SendRequest(ctx, &ua.ReadRequest{
			NodesToRead: []ua.ReadValueID{{NodeID: ua.NewNumericNodeID(0, 2258), AttributeID: ua.AttributeIDValue}},
		}); err != nil {
			t.Fatal(err)
		}
	}
	if ch.sequence != start+3 {
		t.Errorf("sequence: got %d, want %d", ch.sequence, start+3)
	}
}

func TestRemoteSequenceViolationIsFatal(t *testing.T) {
	ch, srv, cancel := dialTestChannel(t)
	defer cancel()

	// Skip a server sequence number; the next response must kill the
	// channel.
	srv.sequence += 5
	ctx := context.Background()
	_, err := ch.SendRequest(ctx, &ua.ReadRequest{
		NodesToRead: []ua.ReadValueID{{NodeID: ua.NewNumericNodeID(0, 2258), AttributeID: ua.AttributeIDValue}},
	})
	if err == nil {
		t.Fatal("expected error after sequence gap")
	}
	deadline := time.Now().Add(time.Second)
	for ch.IsOpen() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if ch.IsOpen() {
		t.Fatal("sequence violation must close the channel")
	}
}

func TestSequenceWrap(t *testing.T) {
	ch := &SecureChannel{sequence: sequenceWrapLimit - 2}
	if got := ch.nextSequence(); got != sequenceWrapLimit-1 {
		t.Errorf("below the limit: got %d, want %d", got, sequenceWrapLimit-1)
	}
	// Crossing the limit wraps back to 1.
	if got := ch.nextSequence(); got != 1 {
		t.Errorf("wrap: got %d, want 1", got)
	}
}
