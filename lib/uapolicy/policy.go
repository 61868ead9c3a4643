// Copyright (C) 2025 The Edgefield Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package uapolicy implements the security policies of the secure
// conversation: asymmetric operations for the OpenSecureChannel handshake,
// symmetric operations for MSG chunks, and the P-SHA256 key derivation that
// turns the exchanged nonces into the per-direction key sets.
package uapolicy

import (
	"errors"
	"fmt"
)

// Security policy URIs.
const (
	PolicyURINone             = "http://opcfoundation.org/UA/SecurityPolicy#None"
	PolicyURIBasic256Sha256   = "http://opcfoundation.org/UA/SecurityPolicy#Basic256Sha256"
	PolicyURIAes128Sha256Oaep = "http://opcfoundation.org/UA/SecurityPolicy#Aes128_Sha256_RsaOaep"
	PolicyURIAes256Sha256Pss  = "http://opcfoundation.org/UA/SecurityPolicy#Aes256_Sha256_RsaPss"
)

var ErrUnknownPolicy = errors.New("uapolicy: unknown security policy")

// asymSignScheme and asymEncryptScheme pick the RSA variants of a policy.
type asymSignScheme int

const (
	asymSignNone asymSignScheme = iota
	asymSignPKCS1v15SHA256
	asymSignPSSSHA256
)

type asymEncryptScheme int

const (
	asymEncryptNone asymEncryptScheme = iota
	asymEncryptOAEPSHA1
	asymEncryptOAEPSHA256
)

// Policy is the capability set of one security policy: algorithm selection
// plus the derived key geometry.
type Policy struct {
	URI string

	SignScheme    asymSignScheme
	EncryptScheme asymEncryptScheme

	NonceLength         int
	SymEncryptionKeyLen int
	SymSignatureKeyLen  int
	SymSignatureLen     int
	SymBlockSize        int
}

var policies = map[string]*Policy{
	PolicyURINone: {
		URI: PolicyURINone,
	},
	PolicyURIBasic256Sha256: {
		URI:                 PolicyURIBasic256Sha256,
		SignScheme:          asymSignPKCS1v15SHA256,
		EncryptScheme:       asymEncryptOAEPSHA1,
		NonceLength:         32,
		SymEncryptionKeyLen: 32,
		SymSignatureKeyLen:  32,
		SymSignatureLen:     32,
		SymBlockSize:        16,
	},
	PolicyURIAes128Sha256Oaep: {
		URI:                 PolicyURIAes128Sha256Oaep,
		SignScheme:          asymSignPSSSHA256,
		EncryptScheme:       asymEncryptOAEPSHA1,
		NonceLength:         32,
		SymEncryptionKeyLen: 16,
		SymSignatureKeyLen:  32,
		SymSignatureLen:     32,
		SymBlockSize:        16,
	},
	PolicyURIAes256Sha256Pss: {
		URI:                 PolicyURIAes256Sha256Pss,
		SignScheme:          asymSignPSSSHA256,
		EncryptScheme:       asymEncryptOAEPSHA256,
		NonceLength:         32,
		SymEncryptionKeyLen: 32,
		SymSignatureKeyLen:  32,
		SymSignatureLen:     32,
		SymBlockSize:        16,
	},
}

// Lookup returns the policy for a URI.
func Lookup(uri string) (*Policy, error) {
	p, ok := policies[uri]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, uri)
	}
	return p, nil
}

// SupportedURIs lists the policy URIs this implementation understands.
func SupportedURIs() []string {
	return []string{PolicyURINone, PolicyURIBasic256Sha256, PolicyURIAes128Sha256Oaep, PolicyURIAes256Sha256Pss}
}

// IsNone reports whether the policy carries no security at all.
func (p *Policy) IsNone() bool { return p.URI == PolicyURINone }
