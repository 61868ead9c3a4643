// Copyright (C) 2025 The Edgefield Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package uacp

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/edgefield/opcua/internal/slogutil"
	"github.com/edgefield/opcua/lib/ua"
)

// Defaults offered in the Hello message. The server may revise them down.
const (
	DefaultReceiveBufferSize = 0xFFFF
	DefaultSendBufferSize    = 0xFFFF
	DefaultMaxMessageSize    = 2 << 20
	DefaultMaxChunkCount     = 512
)

// Limits are the buffer values in force after the handshake.
type Limits struct {
	ReceiveBufferSize uint32
	SendBufferSize    uint32
	MaxMessageSize    uint32
	MaxChunkCount     uint32
}

// Conn frames chunks over a reliable byte stream. It owns no locking; the
// secure channel serialises access with a single writer and reader.
type Conn struct {
	c      net.Conn
	limits Limits
}

// Dial connects to an opc.tcp endpoint and performs the Hello/Acknowledge
// handshake. Local stream sockets are addressed as opc.tcp with a filesystem
// path host and port 0.
func Dial(ctx context.Context, endpoint string) (*Conn, error) {
	network, addr, err := ResolveEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	var d net.Dialer
	c, err := d.DialContext(ctx, network, addr)
	if err != nil {
		return nil, fmt.Errorf("uacp: connect %s: %w", endpoint, err)
	}
	conn, err := NewConn(ctx, c, endpoint)
	if err != nil {
		c.Close()
		return nil, err
	}
	return conn, nil
}

// NewConn performs the handshake over an existing stream.
func NewConn(ctx context.Context, c net.Conn, endpoint string) (*Conn, error) {
	conn := &Conn{c: c}
	if err := conn.handshake(ctx, endpoint); err != nil {
		return nil, err
	}
	return conn, nil
}

// ResolveEndpoint splits an opc.tcp URL into a dialable network and address.
// A zero port with a path-like host selects a local stream socket.
func ResolveEndpoint(endpoint string) (network, addr string, err error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", "", fmt.Errorf("uacp: endpoint %q: %w", endpoint, err)
	}
	if u.Scheme != "opc.tcp" {
		return "", "", fmt.Errorf("uacp: endpoint %q: unsupported scheme %q", endpoint, u.Scheme)
	}
	host := u.Hostname()
	port := u.Port()
	if port == "" || port == "0" {
		if strings.Contains(host, "/") || strings.HasPrefix(host, ".") {
			return "unix", host, nil
		}
		port = "4840"
	}
	return "tcp", net.JoinHostPort(host, port), nil
}

func (c *Conn) handshake(ctx context.Context, endpoint string) error {
	hel := &Hello{
		ProtocolVersion:   0,
		ReceiveBufferSize: DefaultReceiveBufferSize,
		SendBufferSize:    DefaultSendBufferSize,
		MaxMessageSize:    DefaultMaxMessageSize,
		MaxChunkCount:     DefaultMaxChunkCount,
		EndpointURL:       endpoint,
	}
	w := ua.NewWriter()
	hel.Encode(w)
	if err := c.writeMessage(MessageTypeHello, w.Bytes()); err != nil {
		return err
	}

	if dl, ok := ctx.Deadline(); ok {
		_ = c.c.SetReadDeadline(dl)
		defer c.c.SetReadDeadline(time.Time{})
	}

	hdr, body, err := c.readRaw()
	if err != nil {
		return err
	}
	switch hdr.MessageType {
	case MessageTypeAcknowledge:
	case MessageTypeError:
		var e Error
		r := ua.NewReader(body)
		e.Decode(r)
		if err := r.Error(); err != nil {
			return err
		}
		return &e
	default:
		return fmt.Errorf("%w: %q before acknowledge", ErrUnknownMessageType, hdr.MessageType)
	}

	var ack Acknowledge
	r := ua.NewReader(body)
	ack.Decode(r)
	if err := r.Error(); err != nil {
		return err
	}
	// The client adopts the server's revision but rejects values below the
	// protocol minimum.
	if ack.ReceiveBufferSize < MinBufferSize || ack.SendBufferSize < MinBufferSize {
		return fmt.Errorf("uacp: acknowledge buffer sizes %d/%d below minimum %d",
			ack.ReceiveBufferSize, ack.SendBufferSize, MinBufferSize)
	}
	c.limits = Limits{
		ReceiveBufferSize: min(ack.SendBufferSize, DefaultReceiveBufferSize),
		SendBufferSize:    min(ack.ReceiveBufferSize, DefaultSendBufferSize),
		MaxMessageSize:    ack.MaxMessageSize,
		MaxChunkCount:     ack.MaxChunkCount,
	}
	slog.Debug("Transport handshake complete",
		slogutil.URI(endpoint),
		slog.Any("limits", c.limits))
	return nil
}

// Limits returns the negotiated buffer values.
func (c *Conn) Limits() Limits { return c.limits }

// ReceiveBufferSize is the largest chunk this side accepts.
func (c *Conn) ReceiveBufferSize() uint32 { return c.limits.ReceiveBufferSize }

// SendBufferSize is the largest chunk this side may transmit.
func (c *Conn) SendBufferSize() uint32 { return c.limits.SendBufferSize }

func (c *Conn) MaxMessageSize() uint32 { return c.limits.MaxMessageSize }

func (c *Conn) MaxChunkCount() uint32 { return c.limits.MaxChunkCount }

func (c *Conn) RemoteAddr() net.Addr { return c.c.RemoteAddr() }

func (c *Conn) Close() error { return c.c.Close() }

// SetReadDeadline forwards to the underlying stream.
func (c *Conn) SetReadDeadline(t time.Time) error { return c.c.SetReadDeadline(t) }

// writeMessage frames body as a single final chunk of the given type. Used
// for the handshake; secure conversation chunks are written pre-framed via
// WriteChunk.
func (c *Conn) writeMessage(msgType string, body []byte) error {
	w := ua.NewWriter()
	Header{
		MessageType: msgType,
		ChunkKind:   ChunkFinal,
		MessageSize: uint32(HeaderLength + len(body)),
	}.Encode(w)
	w.WriteRaw(body)
	if err := w.Error(); err != nil {
		return err
	}
	return c.WriteChunk(w.Bytes())
}

// WriteChunk writes one fully framed chunk, enforcing the negotiated send
// buffer size when one has been negotiated.
func (c *Conn) WriteChunk(b []byte) error {
	if c.limits.SendBufferSize != 0 && uint32(len(b)) > c.limits.SendBufferSize {
		return fmt.Errorf("%w: %d > %d", ErrChunkTooLarge, len(b), c.limits.SendBufferSize)
	}
	_, err := c.c.Write(b)
	return err
}

// ReadChunk reads one chunk and returns its header together with the raw
// bytes including the header, as the secure channel signs and verifies the
// full frame. An ERR chunk is returned as *Error.
func (c *Conn) ReadChunk() (Header, []byte, error) {
	hdr, body, err := c.readRaw()
	if err != nil {
		return Header{}, nil, err
	}
	if hdr.MessageType == MessageTypeError {
		var e Error
		r := ua.NewReader(body)
		e.Decode(r)
		if err := r.Error(); err != nil {
			return Header{}, nil, err
		}
		return Header{}, nil, &e
	}
	frame := make([]byte, 0, HeaderLength+len(body))
	w := ua.NewWriter()
	hdr.Encode(w)
	frame = append(frame, w.Bytes()...)
	frame = append(frame, body...)
	return hdr, frame, nil
}

func (c *Conn) readRaw() (Header, []byte, error) {
	var hb [HeaderLength]byte
	if _, err := io.ReadFull(c.c, hb[:]); err != nil {
		return Header{}, nil, err
	}
	var hdr Header
	if err := hdr.Decode(ua.NewReader(hb[:])); err != nil {
		return Header{}, nil, err
	}
	if c.limits.ReceiveBufferSize != 0 && hdr.MessageSize > c.limits.ReceiveBufferSize {
		return Header{}, nil, fmt.Errorf("%w: %d > %d", ErrChunkTooLarge, hdr.MessageSize, c.limits.ReceiveBufferSize)
	}
	body := make([]byte, hdr.MessageSize-HeaderLength)
	if _, err := io.ReadFull(c.c, body); err != nil {
		return Header{}, nil, err
	}
	return hdr, body, nil
}
