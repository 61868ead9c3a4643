// Copyright (C) 2025 The Edgefield Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package uapolicy

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// Algorithm URIs reported in SignatureData and identity tokens.
const (
	AlgRSASHA256     = "http://www.w3.org/2001/04/xmldsig-more#rsa-sha256"
	AlgRSAPSSSHA256  = "http://opcfoundation.org/UA/security/rsa-pss-sha2-256"
	AlgRSAOAEP       = "http://www.w3.org/2001/04/xmlenc#rsa-oaep"
	AlgRSAOAEPSHA256 = "http://opcfoundation.org/UA/security/rsa-oaep-sha2-256"
)

// SignSession signs data (certificate ∥ nonce) with the session signature
// scheme of the policy, returning the signature and its algorithm URI.
func (p *Policy) SignSession(key *rsa.PrivateKey, data []byte) ([]byte, string, error) {
	if p.IsNone() {
		return nil, "", nil
	}
	digest := sha256.Sum256(data)
	switch p.SignScheme {
	case asymSignPKCS1v15SHA256:
		sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, digest[:])
		return sig, AlgRSASHA256, err
	case asymSignPSSSHA256:
		sig, err := rsa.SignPSS(rand.Reader, key, crypto.SHA256, digest[:], &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthEqualsHash})
		return sig, AlgRSAPSSSHA256, err
	default:
		return nil, "", fmt.Errorf("%w: %s", ErrUnknownPolicy, p.URI)
	}
}

// VerifySession checks a session signature made by the peer.
func (p *Policy) VerifySession(key *rsa.PublicKey, data, sig []byte) error {
	if p.IsNone() {
		return nil
	}
	digest := sha256.Sum256(data)
	switch p.SignScheme {
	case asymSignPKCS1v15SHA256:
		if err := rsa.VerifyPKCS1v15(key, crypto.SHA256, digest[:], sig); err != nil {
			return ErrSignatureInvalid
		}
		return nil
	case asymSignPSSSHA256:
		if err := rsa.VerifyPSS(key, crypto.SHA256, digest[:], sig, &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthEqualsHash}); err != nil {
			return ErrSignatureInvalid
		}
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownPolicy, p.URI)
	}
}

// EncryptSecret encrypts a user token secret (password or issued token) to
// the server public key using the legacy length-prefixed layout: a uint32
// length of secret ∥ nonce, the secret, then the nonce, encrypted in RSA
// blocks. It returns the ciphertext and the algorithm URI for the token.
func (p *Policy) EncryptSecret(key *rsa.PublicKey, secret, nonce []byte) ([]byte, string, error) {
	if p.IsNone() {
		return secret, "", nil
	}

	plain := make([]byte, 0, 4+len(secret)+len(nonce))
	plain = binary.LittleEndian.AppendUint32(plain, uint32(len(secret)+len(nonce)))
	plain = append(plain, secret...)
	plain = append(plain, nonce...)

	var (
		blockSize int
		alg       string
	)
	switch p.EncryptScheme {
	case asymEncryptOAEPSHA1:
		blockSize = key.Size() - 2*sha1.Size - 2
		alg = AlgRSAOAEP
	case asymEncryptOAEPSHA256:
		blockSize = key.Size() - 2*sha256.Size - 2
		alg = AlgRSAOAEPSHA256
	default:
		return nil, "", fmt.Errorf("%w: %s", ErrUnknownPolicy, p.URI)
	}

	var out []byte
	for off := 0; off < len(plain); off += blockSize {
		end := off + blockSize
		if end > len(plain) {
			end = len(plain)
		}
		var ct []byte
		var err error
		switch p.EncryptScheme {
		case asymEncryptOAEPSHA1:
			ct, err = rsa.EncryptOAEP(sha1.New(), rand.Reader, key, plain[off:end], nil)
		case asymEncryptOAEPSHA256:
			ct, err = rsa.EncryptOAEP(sha256.New(), rand.Reader, key, plain[off:end], nil)
		}
		if err != nil {
			return nil, "", err
		}
		out = append(out, ct...)
	}
	return out, alg, nil
}
