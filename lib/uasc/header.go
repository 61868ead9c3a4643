// Copyright (C) 2025 The Edgefield Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package uasc implements the UA secure conversation: the OpenSecureChannel
// handshake, symmetric message security, token rollover, sequence number
// discipline and the chunking of service messages against the negotiated
// buffer sizes.
package uasc

import (
	"github.com/edgefield/opcua/lib/ua"
	"github.com/edgefield/opcua/lib/uacp"
)

// symmetricHeaderLength is chunk header + channel id + token id.
const symmetricHeaderLength = uacp.HeaderLength + 8

// sequenceHeaderLength is sequence number + request id.
const sequenceHeaderLength = 8

// AsymmetricSecurityHeader secures OPN chunks: the policy URI, the sender
// certificate and the SHA-1 thumbprint of the receiver certificate.
type AsymmetricSecurityHeader struct {
	SecurityPolicyURI             string
	SenderCertificate             []byte
	ReceiverCertificateThumbprint []byte
}

func (h *AsymmetricSecurityHeader) Encode(w *ua.Writer) {
	w.WriteString(h.SecurityPolicyURI)
	w.WriteByteString(h.SenderCertificate)
	w.WriteByteString(h.ReceiverCertificateThumbprint)
}

func (h *AsymmetricSecurityHeader) Decode(r *ua.Reader) {
	h.SecurityPolicyURI = r.ReadString()
	h.SenderCertificate = r.ReadByteString()
	h.ReceiverCertificateThumbprint = r.ReadByteString()
}

// SymmetricSecurityHeader secures MSG and CLO chunks. The token id selects
// the key set during rollover.
type SymmetricSecurityHeader struct {
	ChannelID uint32
	TokenID   uint32
}

func (h *SymmetricSecurityHeader) Encode(w *ua.Writer) {
	w.WriteUint32(h.ChannelID)
	w.WriteUint32(h.TokenID)
}

func (h *SymmetricSecurityHeader) Decode(r *ua.Reader) {
	h.ChannelID = r.ReadUint32()
	h.TokenID = r.ReadUint32()
}

// SequenceHeader orders chunks within a token and ties chunks to their
// request/response pair.
type SequenceHeader struct {
	SequenceNumber uint32
	RequestID      uint32
}

func (h *SequenceHeader) Encode(w *ua.Writer) {
	w.WriteUint32(h.SequenceNumber)
	w.WriteUint32(h.RequestID)
}

func (h *SequenceHeader) Decode(r *ua.Reader) {
	h.SequenceNumber = r.ReadUint32()
	h.RequestID = r.ReadUint32()
}
