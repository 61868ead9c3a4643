// Copyright (C) 2025 The Edgefield Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package uacp

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/edgefield/opcua/lib/ua"
)

// fakeServer answers the handshake on the other end of a pipe.
func fakeServer(t *testing.T, c net.Conn, ack Acknowledge, errMsg *Error) {
	t.Helper()
	go func() {
		defer c.Close()

		var hdr [HeaderLength]byte
		if _, err := io.ReadFull(c, hdr[:]); err != nil {
			return
		}
		var h Header
		if err := h.Decode(ua.NewReader(hdr[:])); err != nil || h.MessageType != MessageTypeHello {
			return
		}
		body := make([]byte, h.MessageSize-HeaderLength)
		if _, err := io.ReadFull(c, body); err != nil {
			return
		}

		w := ua.NewWriter()
		if errMsg != nil {
			Header{MessageType: MessageTypeError, ChunkKind: ChunkFinal, MessageSize: 0}.Encode(w)
			errMsg.Encode(w)
		} else {
			Header{MessageType: MessageTypeAcknowledge, ChunkKind: ChunkFinal, MessageSize: 0}.Encode(w)
			ack.Encode(w)
		}
		frame := w.Bytes()
		frame[4] = byte(len(frame))
		if _, err := c.Write(frame); err != nil {
			return
		}
		// Keep the conn open for any follow-up traffic until the peer
		// closes it.
		buf := make([]byte, 1024)
		for {
			if _, err := c.Read(buf); err != nil {
				return
			}
		}
	}()
}

func TestHandshakeNegotiation(t *testing.T) {
	client, server := net.Pipe()
	fakeServer(t, server, Acknowledge{
		ProtocolVersion:   0,
		ReceiveBufferSize: 32768,
		SendBufferSize:    32768,
		MaxMessageSize:    8388608,
		MaxChunkCount:     2048,
	}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	conn, err := NewConn(ctx, client, "opc.tcp://example:4840/")
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if got := conn.SendBufferSize(); got != 32768 {
		t.Errorf("send buffer: got %d, want 32768", got)
	}
	if got := conn.MaxMessageSize(); got != 8388608 {
		t.Errorf("max message size: got %d, want 8388608", got)
	}
	if got := conn.MaxChunkCount(); got != 2048 {
		t.Errorf("max chunk count: got %d, want 2048", got)
	}
}

func TestHandshakeRejectsTinyBuffers(t *testing.T) {
	client, server := net.Pipe()
	fakeServer(t, server, Acknowledge{
		ReceiveBufferSize: 4096, // below the 8192 minimum
		SendBufferSize:    32768,
		MaxMessageSize:    1 << 20,
		MaxChunkCount:     64,
	}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := NewConn(ctx, client, "opc.tcp://example:4840/"); err == nil {
		t.Fatal("expected error for buffer below minimum")
	}
}

func TestHandshakeServerError(t *testing.T) {
	client, server := net.Pipe()
	fakeServer(t, server, Acknowledge{}, &Error{Code: ua.StatusBadTCPServerTooBusy, Reason: "busy"})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := NewConn(ctx, client, "opc.tcp://example:4840/")
	var uaErr *Error
	if !errors.As(err, &uaErr) {
		t.Fatalf("got %v, want *Error", err)
	}
	if uaErr.Code != ua.StatusBadTCPServerTooBusy {
		t.Errorf("code: got %v", uaErr.Code)
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	in := Header{MessageType: MessageTypeMessage, ChunkKind: ChunkIntermediate, MessageSize: 1234}
	w := ua.NewWriter()
	in.Encode(w)
	if w.Len() != HeaderLength {
		t.Fatalf("header length: got %d, want %d", w.Len(), HeaderLength)
	}
	var out Header
	if err := out.Decode(ua.NewReader(w.Bytes())); err != nil {
		t.Fatal(err)
	}
	if out != in {
		t.Errorf("round trip: got %+v, want %+v", out, in)
	}
}

func TestHeaderRejectsUnknownType(t *testing.T) {
	w := ua.NewWriter()
	Header{MessageType: "XXX", ChunkKind: ChunkFinal, MessageSize: 8}.Encode(w)
	var h Header
	if err := h.Decode(ua.NewReader(w.Bytes())); !errors.Is(err, ErrUnknownMessageType) {
		t.Fatalf("got %v, want ErrUnknownMessageType", err)
	}
}

func TestHeaderRejectsShortSize(t *testing.T) {
	w := ua.NewWriter()
	Header{MessageType: MessageTypeMessage, ChunkKind: ChunkFinal, MessageSize: 4}.Encode(w)
	var h Header
	if err := h.Decode(ua.NewReader(w.Bytes())); err == nil {
		t.Fatal("expected error for size below header length")
	}
}

func TestResolveEndpoint(t *testing.T) {
	cases := []struct {
		in      string
		network string
		addr    string
		wantErr bool
	}{
		{"opc.tcp://plc1:4840/path", "tcp", "plc1:4840", false},
		{"opc.tcp://plc1/", "tcp", "plc1:4840", false},
		{"http://plc1:4840/", "", "", true},
	}
	for _, tc := range cases {
		network, addr, err := ResolveEndpoint(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("%s: expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: %v", tc.in, err)
			continue
		}
		if network != tc.network || addr != tc.addr {
			t.Errorf("%s: got %s/%s, want %s/%s", tc.in, network, addr, tc.network, tc.addr)
		}
	}
}
