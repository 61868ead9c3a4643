// Copyright (C) 2025 The Edgefield Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package uapolicy

import (
	"crypto/hmac"
	"crypto/sha256"
)

// Keys is one direction's derived key material.
type Keys struct {
	Signing    []byte
	Encryption []byte
	IV         []byte
}

// KeySet holds both directions of a security token. Outbound chunks use
// Client, inbound chunks use Server.
type KeySet struct {
	TokenID uint32
	Client  Keys
	Server  Keys
}

// pSHA256 is the TLS P_hash construction over HMAC-SHA256: A(0)=seed,
// A(i)=HMAC(secret, A(i-1)), output HMAC(secret, A(i) || seed) until n bytes
// are produced.
func pSHA256(secret, seed []byte, n int) []byte {
	out := make([]byte, 0, n)
	a := seed
	for len(out) < n {
		mac := hmac.New(sha256.New, secret)
		mac.Write(a)
		a = mac.Sum(nil)

		mac = hmac.New(sha256.New, secret)
		mac.Write(a)
		mac.Write(seed)
		out = append(out, mac.Sum(nil)...)
	}
	return out[:n]
}

// deriveKeys splits one P-SHA256 stream into signing key, encryption key and
// IV per the policy's key geometry.
func (p *Policy) deriveKeys(secret, seed []byte) Keys {
	total := p.SymSignatureKeyLen + p.SymEncryptionKeyLen + p.SymBlockSize
	stream := pSHA256(secret, seed, total)
	return Keys{
		Signing:    stream[:p.SymSignatureKeyLen],
		Encryption: stream[p.SymSignatureKeyLen : p.SymSignatureKeyLen+p.SymEncryptionKeyLen],
		IV:         stream[p.SymSignatureKeyLen+p.SymEncryptionKeyLen:],
	}
}

// DeriveKeySet derives both directions for a token. Client keys use the
// server nonce as secret and the client nonce as seed; server keys swap
// them. The token id labels the set for the rollover window but does not
// enter the derivation.
func (p *Policy) DeriveKeySet(clientNonce, serverNonce []byte, tokenID uint32) KeySet {
	ks := KeySet{TokenID: tokenID}
	if p.IsNone() {
		return ks
	}
	ks.Client = p.deriveKeys(serverNonce, clientNonce)
	ks.Server = p.deriveKeys(clientNonce, serverNonce)
	return ks
}
