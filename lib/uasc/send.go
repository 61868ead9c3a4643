// Copyright (C) 2025 The Edgefield Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package uasc

import (
	"encoding/binary"
	"fmt"

	"github.com/edgefield/opcua/lib/ua"
	"github.com/edgefield/opcua/lib/uacp"
	"github.com/edgefield/opcua/lib/uapolicy"
)

// maxBodySize is the largest service body slice per symmetric chunk, derived
// from the negotiated send buffer, the header sizes, the signature length
// and the cipher block geometry.
func maxBodySize(mode ua.MessageSecurityMode, sendBuf, blockSize, sigLen int) int {
	maxRegion := sendBuf - symmetricHeaderLength
	switch mode {
	case ua.SecurityModeSignAndEncrypt:
		blocks := maxRegion / blockSize
		// One padding-size byte is always present in the padded form.
		return blocks*blockSize - sigLen - 1 - sequenceHeaderLength
	case ua.SecurityModeSign:
		return maxRegion - sigLen - sequenceHeaderLength
	default:
		return maxRegion - sequenceHeaderLength
	}
}

func (s *SecureChannel) maxBody(tok *token) int {
	return maxBodySize(s.cfg.SecurityMode, int(s.c.SendBufferSize()), tok.encrypt.BlockSize(), tok.encrypt.SignatureLength())
}

// writeSymmetric splits body into MSG (or CLO) chunks that never exceed the
// negotiated send buffer, securing each chunk per the channel mode. Callers
// hold writeMut.
func (s *SecureChannel) writeSymmetric(msgType string, reqID uint32, body []byte) error {
	tok := s.currentToken()
	if tok == nil {
		return ua.StatusBadSecureChannelTokenUnknown
	}
	maxBody := s.maxBody(tok)
	if maxBody <= 0 {
		return fmt.Errorf("uasc: send buffer %d too small for any payload", s.c.SendBufferSize())
	}

	for off := 0; off < len(body) || off == 0; {
		n := len(body) - off
		kind := byte(uacp.ChunkFinal)
		if n > maxBody {
			n = maxBody
			kind = uacp.ChunkIntermediate
		}
		slice := body[off : off+n]
		off += n
		if err := s.writeSymmetricChunk(msgType, kind, tok, reqID, slice); err != nil {
			return err
		}
		if off == len(body) {
			break
		}
	}
	return nil
}

func (s *SecureChannel) writeSymmetricChunk(msgType string, kind byte, tok *token, reqID uint32, body []byte) error {
	encrypted := s.cfg.SecurityMode == ua.SecurityModeSignAndEncrypt
	signed := s.cfg.SecurityMode != ua.SecurityModeNone
	sigLen := 0
	if signed {
		sigLen = tok.encrypt.SignatureLength()
	}

	w := ua.NewWriter()
	// Header is patched with the final size below.
	uacp.Header{MessageType: msgType, ChunkKind: kind, MessageSize: 0}.Encode(w)
	(&SymmetricSecurityHeader{ChannelID: s.channelID, TokenID: tok.id}).Encode(w)
	(&SequenceHeader{SequenceNumber: s.nextSequence(), RequestID: reqID}).Encode(w)
	w.WriteRaw(body)
	if err := w.Error(); err != nil {
		return err
	}
	frame := w.Bytes()

	if encrypted {
		// Pad so that plaintext region plus signature fills whole cipher
		// blocks.
		block := tok.encrypt.BlockSize()
		plainLen := len(frame) - symmetricHeaderLength
		pad := block - (plainLen+1+sigLen)%block
		if pad == block {
			pad = 0
		}
		for i := 0; i <= pad; i++ {
			frame = append(frame, byte(pad))
		}
	}

	total := len(frame) + sigLen
	binary.LittleEndian.PutUint32(frame[4:8], uint32(total))

	if signed {
		frame = append(frame, tok.encrypt.Sign(frame)...)
	}
	if encrypted {
		if err := tok.encrypt.Encrypt(frame[symmetricHeaderLength:]); err != nil {
			return err
		}
	}
	return s.c.WriteChunk(frame)
}

// writeAsymmetric frames an OPN request. OPN messages are never split; the
// handshake body fits one chunk by construction. Callers hold writeMut.
func (s *SecureChannel) writeAsymmetric(reqID uint32, body []byte) error {
	w := ua.NewWriter()
	uacp.Header{MessageType: uacp.MessageTypeOpen, ChunkKind: uacp.ChunkFinal, MessageSize: 0}.Encode(w)
	w.WriteUint32(s.channelID) // zero on Issue, existing id on Renew
	hdr := AsymmetricSecurityHeader{SecurityPolicyURI: s.cfg.SecurityPolicyURI}
	if !s.policy.IsNone() {
		hdr.SenderCertificate = s.cfg.Certificate
		hdr.ReceiverCertificateThumbprint = uapolicy.Thumbprint(s.cfg.RemoteCertificate)
	}
	hdr.Encode(w)
	plainStart := w.Len()
	(&SequenceHeader{SequenceNumber: s.nextSequence(), RequestID: reqID}).Encode(w)
	w.WriteRaw(body)
	if err := w.Error(); err != nil {
		return err
	}
	frame := w.Bytes()

	if s.policy.IsNone() {
		binary.LittleEndian.PutUint32(frame[4:8], uint32(len(frame)))
		return s.c.WriteChunk(frame)
	}

	sigLen := s.asym.SignatureLength()
	pbs := s.asym.PlaintextBlockSize()
	cbs := s.asym.CipherTextBlockSize()

	// Pad the encrypted region (sequence header through signature) to the
	// RSA plaintext block size. Keys over 2048 bits need a two-byte
	// padding size field.
	padFieldLen := 1
	if s.asym.ExtraPaddingByte() {
		padFieldLen = 2
	}
	plainLen := len(frame) - plainStart
	pad := pbs - (plainLen+padFieldLen+sigLen)%pbs
	if pad == pbs {
		pad = 0
	}
	for i := 0; i < pad; i++ {
		frame = append(frame, byte(pad))
	}
	frame = append(frame, byte(pad))
	if padFieldLen == 2 {
		frame = append(frame, byte(pad>>8))
	}

	// The header carries the size after encryption; compute it before
	// signing so the signature covers the final header.
	plainLen = len(frame) - plainStart + sigLen
	cipherLen := plainLen / pbs * cbs
	binary.LittleEndian.PutUint32(frame[4:8], uint32(plainStart+cipherLen))

	sig, err := s.asym.Sign(frame)
	if err != nil {
		return err
	}
	frame = append(frame, sig...)

	ct, err := s.asym.Encrypt(frame[plainStart:])
	if err != nil {
		return err
	}
	frame = append(frame[:plainStart], ct...)
	return s.c.WriteChunk(frame)
}
