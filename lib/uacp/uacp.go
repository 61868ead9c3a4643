// Copyright (C) 2025 The Edgefield Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package uacp implements the OPC UA connection protocol: the 8-byte chunk
// framing and the Hello/Acknowledge/Error handshake that negotiates buffer
// sizes before a secure channel is opened.
package uacp

import (
	"errors"
	"fmt"

	"github.com/edgefield/opcua/lib/ua"
)

// Message types, three ASCII bytes each.
const (
	MessageTypeHello        = "HEL"
	MessageTypeAcknowledge  = "ACK"
	MessageTypeError        = "ERR"
	MessageTypeReverseHello = "RHE"
	MessageTypeMessage      = "MSG"
	MessageTypeOpen         = "OPN"
	MessageTypeClose        = "CLO"
)

// Chunk kinds, one ASCII byte.
const (
	ChunkFinal        = 'F'
	ChunkIntermediate = 'C'
	ChunkAbort        = 'A'
)

// HeaderLength is the fixed length of the chunk header.
const HeaderLength = 8

// MinBufferSize is the lower bound both peers must respect for receive and
// send buffers.
const MinBufferSize = 8192

var (
	ErrUnknownMessageType = errors.New("uacp: unknown message type")
	ErrChunkTooLarge      = errors.New("uacp: chunk exceeds negotiated buffer size")
	ErrMessageTooLarge    = errors.New("uacp: message exceeds negotiated maximum size")
	ErrTooManyChunks      = errors.New("uacp: chunk count exceeds negotiated maximum")
)

// Header is the 8-byte chunk header: message type, chunk kind, and the total
// message size including the header itself.
type Header struct {
	MessageType string
	ChunkKind   byte
	MessageSize uint32
}

func (h Header) Encode(w *ua.Writer) {
	if len(h.MessageType) != 3 {
		w.WriteRaw([]byte("???"))
	} else {
		w.WriteRaw([]byte(h.MessageType))
	}
	w.WriteUint8(h.ChunkKind)
	w.WriteUint32(h.MessageSize)
}

func (h *Header) Decode(r *ua.Reader) error {
	t := r.ReadRaw(3)
	h.ChunkKind = r.ReadUint8()
	h.MessageSize = r.ReadUint32()
	if err := r.Error(); err != nil {
		return err
	}
	h.MessageType = string(t)
	switch h.MessageType {
	case MessageTypeHello, MessageTypeAcknowledge, MessageTypeError, MessageTypeReverseHello,
		MessageTypeMessage, MessageTypeOpen, MessageTypeClose:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMessageType, h.MessageType)
	}
	switch h.ChunkKind {
	case ChunkFinal, ChunkIntermediate, ChunkAbort:
	default:
		return fmt.Errorf("%w: chunk kind %q", ErrUnknownMessageType, h.ChunkKind)
	}
	if h.MessageSize < HeaderLength {
		return fmt.Errorf("uacp: message size %d below header length", h.MessageSize)
	}
	return nil
}

// Hello is the client's opening message.
type Hello struct {
	ProtocolVersion   uint32
	ReceiveBufferSize uint32
	SendBufferSize    uint32
	MaxMessageSize    uint32
	MaxChunkCount     uint32
	EndpointURL       string
}

func (h *Hello) Encode(w *ua.Writer) {
	w.WriteUint32(h.ProtocolVersion)
	w.WriteUint32(h.ReceiveBufferSize)
	w.WriteUint32(h.SendBufferSize)
	w.WriteUint32(h.MaxMessageSize)
	w.WriteUint32(h.MaxChunkCount)
	w.WriteString(h.EndpointURL)
}

func (h *Hello) Decode(r *ua.Reader) {
	h.ProtocolVersion = r.ReadUint32()
	h.ReceiveBufferSize = r.ReadUint32()
	h.SendBufferSize = r.ReadUint32()
	h.MaxMessageSize = r.ReadUint32()
	h.MaxChunkCount = r.ReadUint32()
	h.EndpointURL = r.ReadString()
}

// Acknowledge is the server's reply carrying the values it revised.
type Acknowledge struct {
	ProtocolVersion   uint32
	ReceiveBufferSize uint32
	SendBufferSize    uint32
	MaxMessageSize    uint32
	MaxChunkCount     uint32
}

func (a *Acknowledge) Encode(w *ua.Writer) {
	w.WriteUint32(a.ProtocolVersion)
	w.WriteUint32(a.ReceiveBufferSize)
	w.WriteUint32(a.SendBufferSize)
	w.WriteUint32(a.MaxMessageSize)
	w.WriteUint32(a.MaxChunkCount)
}

func (a *Acknowledge) Decode(r *ua.Reader) {
	a.ProtocolVersion = r.ReadUint32()
	a.ReceiveBufferSize = r.ReadUint32()
	a.SendBufferSize = r.ReadUint32()
	a.MaxMessageSize = r.ReadUint32()
	a.MaxChunkCount = r.ReadUint32()
}

// Error is the server's fatal transport error message. It implements the Go
// error interface; receiving one terminates the transport.
type Error struct {
	Code   ua.StatusCode
	Reason string
}

func (e *Error) Encode(w *ua.Writer) {
	w.WriteUint32(uint32(e.Code))
	w.WriteString(e.Reason)
}

func (e *Error) Decode(r *ua.Reader) {
	e.Code = ua.StatusCode(r.ReadUint32())
	e.Reason = r.ReadString()
}

func (e *Error) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("uacp: server error %v", e.Code)
	}
	return fmt.Sprintf("uacp: server error %v: %s", e.Code, e.Reason)
}

func (e *Error) Unwrap() error { return e.Code }
