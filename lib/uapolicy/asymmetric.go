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
	"crypto/x509"
	"fmt"
)

// AsymmetricCipher performs the RSA operations of the OpenSecureChannel
// handshake: encrypt-to-peer, decrypt-with-own-key, sign and verify.
type AsymmetricCipher struct {
	policy    *Policy
	localKey  *rsa.PrivateKey
	remoteKey *rsa.PublicKey
}

// NewAsymmetricCipher builds the handshake cipher. For policy None both keys
// may be nil.
func NewAsymmetricCipher(p *Policy, localKey *rsa.PrivateKey, remoteKey *rsa.PublicKey) (*AsymmetricCipher, error) {
	if !p.IsNone() {
		if localKey == nil {
			return nil, fmt.Errorf("uapolicy: policy %s requires a private key", p.URI)
		}
		if remoteKey == nil {
			return nil, fmt.Errorf("uapolicy: policy %s requires the peer public key", p.URI)
		}
	}
	return &AsymmetricCipher{policy: p, localKey: localKey, remoteKey: remoteKey}, nil
}

// PublicKeyFromCertificate extracts the RSA public key of a DER certificate.
func PublicKeyFromCertificate(der []byte) (*rsa.PublicKey, error) {
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("uapolicy: parse certificate: %w", err)
	}
	pk, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("uapolicy: certificate carries %T, want RSA", cert.PublicKey)
	}
	return pk, nil
}

// Thumbprint is the SHA-1 digest of a DER certificate, carried in the
// asymmetric security header to name the receiver certificate.
func Thumbprint(der []byte) []byte {
	if len(der) == 0 {
		return nil
	}
	sum := sha1.Sum(der)
	return sum[:]
}

// SignatureLength is the RSA signature size for the local key.
func (a *AsymmetricCipher) SignatureLength() int {
	if a.policy.IsNone() {
		return 0
	}
	return a.localKey.Size()
}

// RemoteSignatureLength is the RSA signature size for the peer key.
func (a *AsymmetricCipher) RemoteSignatureLength() int {
	if a.policy.IsNone() {
		return 0
	}
	return a.remoteKey.Size()
}

// PlaintextBlockSize is the RSA plaintext chunk accepted by Encrypt.
func (a *AsymmetricCipher) PlaintextBlockSize() int {
	if a.policy.IsNone() {
		return 1
	}
	switch a.policy.EncryptScheme {
	case asymEncryptOAEPSHA1:
		return a.remoteKey.Size() - 2*sha1.Size - 2
	case asymEncryptOAEPSHA256:
		return a.remoteKey.Size() - 2*sha256.Size - 2
	default:
		return 1
	}
}

// CipherTextBlockSize is the RSA ciphertext block emitted per plaintext
// block.
func (a *AsymmetricCipher) CipherTextBlockSize() int {
	if a.policy.IsNone() {
		return 1
	}
	return a.remoteKey.Size()
}

// ExtraPaddingByte reports whether the padding size needs a second byte,
// required once the receiver key exceeds 2048 bits.
func (a *AsymmetricCipher) ExtraPaddingByte() bool {
	return !a.policy.IsNone() && a.remoteKey.Size() > 256
}

// Encrypt encrypts data to the peer in RSA blocks. len(data) must be a
// multiple of PlaintextBlockSize.
func (a *AsymmetricCipher) Encrypt(data []byte) ([]byte, error) {
	if a.policy.IsNone() {
		return data, nil
	}
	pbs := a.PlaintextBlockSize()
	if len(data)%pbs != 0 {
		return nil, fmt.Errorf("uapolicy: asymmetric encrypt length %d not a multiple of %d", len(data), pbs)
	}
	var out []byte
	for off := 0; off < len(data); off += pbs {
		var ct []byte
		var err error
		switch a.policy.EncryptScheme {
		case asymEncryptOAEPSHA1:
			ct, err = rsa.EncryptOAEP(sha1.New(), rand.Reader, a.remoteKey, data[off:off+pbs], nil)
		case asymEncryptOAEPSHA256:
			ct, err = rsa.EncryptOAEP(sha256.New(), rand.Reader, a.remoteKey, data[off:off+pbs], nil)
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnknownPolicy, a.policy.URI)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, ct...)
	}
	return out, nil
}

// Decrypt decrypts data sent to the local key.
func (a *AsymmetricCipher) Decrypt(data []byte) ([]byte, error) {
	if a.policy.IsNone() {
		return data, nil
	}
	cbs := a.localKey.Size()
	if len(data)%cbs != 0 {
		return nil, fmt.Errorf("uapolicy: asymmetric decrypt length %d not a multiple of %d", len(data), cbs)
	}
	var out []byte
	for off := 0; off < len(data); off += cbs {
		var pt []byte
		var err error
		switch a.policy.EncryptScheme {
		case asymEncryptOAEPSHA1:
			pt, err = rsa.DecryptOAEP(sha1.New(), rand.Reader, a.localKey, data[off:off+cbs], nil)
		case asymEncryptOAEPSHA256:
			pt, err = rsa.DecryptOAEP(sha256.New(), rand.Reader, a.localKey, data[off:off+cbs], nil)
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnknownPolicy, a.policy.URI)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, pt...)
	}
	return out, nil
}

// Sign signs data with the local private key per the policy's signature
// scheme.
func (a *AsymmetricCipher) Sign(data []byte) ([]byte, error) {
	if a.policy.IsNone() {
		return nil, nil
	}
	digest := sha256.Sum256(data)
	switch a.policy.SignScheme {
	case asymSignPKCS1v15SHA256:
		return rsa.SignPKCS1v15(rand.Reader, a.localKey, crypto.SHA256, digest[:])
	case asymSignPSSSHA256:
		return rsa.SignPSS(rand.Reader, a.localKey, crypto.SHA256, digest[:], &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthEqualsHash})
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownPolicy, a.policy.URI)
	}
}

// Verify checks a signature made by the peer.
func (a *AsymmetricCipher) Verify(data, sig []byte) error {
	if a.policy.IsNone() {
		return nil
	}
	digest := sha256.Sum256(data)
	switch a.policy.SignScheme {
	case asymSignPKCS1v15SHA256:
		if err := rsa.VerifyPKCS1v15(a.remoteKey, crypto.SHA256, digest[:], sig); err != nil {
			return ErrSignatureInvalid
		}
		return nil
	case asymSignPSSSHA256:
		if err := rsa.VerifyPSS(a.remoteKey, crypto.SHA256, digest[:], sig, &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthEqualsHash}); err != nil {
			return ErrSignatureInvalid
		}
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownPolicy, a.policy.URI)
	}
}
