// Copyright (C) 2025 The Edgefield Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package uapolicy

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"errors"
	"fmt"
)

var ErrSignatureInvalid = errors.New("uapolicy: signature verification failed")

// SymmetricCipher signs and encrypts MSG chunks with one direction's derived
// keys. The CBC IV is the static derived IV, applied afresh to every chunk.
type SymmetricCipher struct {
	policy *Policy
	keys   Keys
	block  cipher.Block
}

// NewSymmetricCipher builds a cipher for one direction of one token.
func NewSymmetricCipher(p *Policy, keys Keys) (*SymmetricCipher, error) {
	sc := &SymmetricCipher{policy: p, keys: keys}
	if p.IsNone() {
		return sc, nil
	}
	if len(keys.Encryption) != p.SymEncryptionKeyLen {
		return nil, fmt.Errorf("uapolicy: encryption key length %d, want %d", len(keys.Encryption), p.SymEncryptionKeyLen)
	}
	block, err := aes.NewCipher(keys.Encryption)
	if err != nil {
		return nil, err
	}
	sc.block = block
	return sc, nil
}

// SignatureLength is the trailing signature size in bytes.
func (s *SymmetricCipher) SignatureLength() int { return s.policy.SymSignatureLen }

// BlockSize is the cipher block size, 1 for policy None.
func (s *SymmetricCipher) BlockSize() int {
	if s.policy.IsNone() {
		return 1
	}
	return s.policy.SymBlockSize
}

// Sign computes HMAC-SHA256 over data.
func (s *SymmetricCipher) Sign(data []byte) []byte {
	if s.policy.IsNone() {
		return nil
	}
	mac := hmac.New(sha256.New, s.keys.Signing)
	mac.Write(data)
	return mac.Sum(nil)
}

// Verify checks sig against the HMAC of data in constant time.
func (s *SymmetricCipher) Verify(data, sig []byte) error {
	if s.policy.IsNone() {
		return nil
	}
	if !hmac.Equal(s.Sign(data), sig) {
		return ErrSignatureInvalid
	}
	return nil
}

// Encrypt applies AES-CBC in place using the derived IV. The input length
// must be a multiple of the block size.
func (s *SymmetricCipher) Encrypt(data []byte) error {
	if s.policy.IsNone() {
		return nil
	}
	if len(data)%s.policy.SymBlockSize != 0 {
		return fmt.Errorf("uapolicy: encrypt length %d not a multiple of %d", len(data), s.policy.SymBlockSize)
	}
	cipher.NewCBCEncrypter(s.block, s.keys.IV).CryptBlocks(data, data)
	return nil
}

// Decrypt reverses Encrypt in place.
func (s *SymmetricCipher) Decrypt(data []byte) error {
	if s.policy.IsNone() {
		return nil
	}
	if len(data)%s.policy.SymBlockSize != 0 {
		return fmt.Errorf("uapolicy: decrypt length %d not a multiple of %d", len(data), s.policy.SymBlockSize)
	}
	cipher.NewCBCDecrypter(s.block, s.keys.IV).CryptBlocks(data, data)
	return nil
}
