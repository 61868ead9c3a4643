// Copyright (C) 2025 The Edgefield Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package uapolicy

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"testing"
)

func testNonces() (client, server []byte) {
	client = make([]byte, 32)
	server = make([]byte, 32)
	for i := 0; i < 32; i++ {
		client[i] = byte(i + 1)  // 01 02 .. 20
		server[i] = byte(i + 33) // 21 22 .. 40
	}
	return client, server
}

func TestDeriveKeySetGeometry(t *testing.T) {
	clientNonce, serverNonce := testNonces()
	for _, uri := range []string{PolicyURIBasic256Sha256, PolicyURIAes128Sha256Oaep, PolicyURIAes256Sha256Pss} {
		p, err := Lookup(uri)
		if err != nil {
			t.Fatal(err)
		}
		ks := p.DeriveKeySet(clientNonce, serverNonce, 42)
		for _, keys := range []Keys{ks.Client, ks.Server} {
			if len(keys.Signing) != p.SymSignatureKeyLen {
				t.Errorf("%s: signing key %d, want %d", uri, len(keys.Signing), p.SymSignatureKeyLen)
			}
			if len(keys.Encryption) != p.SymEncryptionKeyLen {
				t.Errorf("%s: encryption key %d, want %d", uri, len(keys.Encryption), p.SymEncryptionKeyLen)
			}
			if len(keys.IV) != p.SymBlockSize {
				t.Errorf("%s: iv %d, want %d", uri, len(keys.IV), p.SymBlockSize)
			}
		}
	}
}

func TestDeriveKeySetDeterministic(t *testing.T) {
	clientNonce, serverNonce := testNonces()
	p, _ := Lookup(PolicyURIBasic256Sha256)

	a := p.DeriveKeySet(clientNonce, serverNonce, 42)
	b := p.DeriveKeySet(clientNonce, serverNonce, 42)
	if !bytes.Equal(a.Client.Signing, b.Client.Signing) ||
		!bytes.Equal(a.Client.Encryption, b.Client.Encryption) ||
		!bytes.Equal(a.Client.IV, b.Client.IV) {
		t.Fatal("derivation is not deterministic")
	}

	// Swapping the nonces swaps the directions.
	sw := p.DeriveKeySet(serverNonce, clientNonce, 42)
	if !bytes.Equal(sw.Client.Signing, a.Server.Signing) || !bytes.Equal(sw.Server.Signing, a.Client.Signing) {
		t.Fatal("swapped nonces must swap client/server keys")
	}

	// Different inputs give different keys.
	other := append([]byte(nil), clientNonce...)
	other[0] ^= 0xFF
	d := p.DeriveKeySet(other, serverNonce, 42)
	if bytes.Equal(d.Client.Signing, a.Client.Signing) {
		t.Fatal("different nonces must give different keys")
	}
}

func TestPaddingRoundTrip(t *testing.T) {
	const blockSize = 16
	for length := 0; length <= 4*blockSize; length++ {
		data := make([]byte, length)
		for i := range data {
			data[i] = byte(i)
		}
		padded := AddPadding(append([]byte(nil), data...), blockSize)
		if len(padded)%blockSize != 0 {
			t.Fatalf("len %d: padded length %d not a multiple of %d", length, len(padded), blockSize)
		}
		got, err := RemovePadding(padded, blockSize)
		if err != nil {
			t.Fatalf("len %d: %v", length, err)
		}
		if !bytes.Equal(got, data) {
			t.Fatalf("len %d: round trip mismatch", length)
		}
	}
}

func TestPaddingRejectsCorruption(t *testing.T) {
	padded := AddPadding(make([]byte, 10), 16)
	padded[len(padded)-2] ^= 0x01
	if _, err := RemovePadding(padded, 16); err == nil {
		t.Fatal("expected error for corrupted padding byte")
	}
}

func TestSymmetricSignEncryptRoundTrip(t *testing.T) {
	clientNonce, serverNonce := testNonces()
	for _, uri := range []string{PolicyURIBasic256Sha256, PolicyURIAes128Sha256Oaep, PolicyURIAes256Sha256Pss} {
		p, _ := Lookup(uri)
		ks := p.DeriveKeySet(clientNonce, serverNonce, 1)
		enc, err := NewSymmetricCipher(p, ks.Client)
		if err != nil {
			t.Fatal(err)
		}
		dec, err := NewSymmetricCipher(p, ks.Client)
		if err != nil {
			t.Fatal(err)
		}

		body := []byte("the quick brown fox jumps over the lazy dog")

		// Pad, sign, encrypt; then decrypt, verify, strip, the way the
		// channel pipeline does.
		padded := AddPadding(append([]byte(nil), body...), p.SymBlockSize)
		sig := enc.Sign(padded)
		frame := append(padded, sig...)
		if len(frame)%p.SymBlockSize != 0 {
			// The signature length is a multiple of the block size for
			// all supported policies, keeping the frame aligned.
			t.Fatalf("%s: frame %d not block aligned", uri, len(frame))
		}
		if err := enc.Encrypt(frame); err != nil {
			t.Fatal(err)
		}
		if bytes.Contains(frame, body) {
			t.Fatalf("%s: ciphertext leaks plaintext", uri)
		}
		if err := dec.Decrypt(frame); err != nil {
			t.Fatal(err)
		}
		gotSig := frame[len(frame)-dec.SignatureLength():]
		gotPadded := frame[:len(frame)-dec.SignatureLength()]
		if err := dec.Verify(gotPadded, gotSig); err != nil {
			t.Fatalf("%s: %v", uri, err)
		}
		gotBody, err := RemovePadding(gotPadded, p.SymBlockSize)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(gotBody, body) {
			t.Fatalf("%s: body mismatch", uri)
		}
	}
}

func TestSymmetricVerifyRejectsTamper(t *testing.T) {
	clientNonce, serverNonce := testNonces()
	p, _ := Lookup(PolicyURIBasic256Sha256)
	ks := p.DeriveKeySet(clientNonce, serverNonce, 1)
	sc, _ := NewSymmetricCipher(p, ks.Client)

	data := []byte("payload")
	sig := sc.Sign(data)
	data[0] ^= 0x01
	if err := sc.Verify(data, sig); err == nil {
		t.Fatal("expected signature mismatch")
	}
}

func TestAsymmetricRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping RSA keygen in short mode")
	}
	localKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	remoteKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	for _, uri := range []string{PolicyURIBasic256Sha256, PolicyURIAes128Sha256Oaep, PolicyURIAes256Sha256Pss} {
		p, _ := Lookup(uri)
		// Client side encrypts to the server key and signs with its own.
		client, err := NewAsymmetricCipher(p, localKey, &remoteKey.PublicKey)
		if err != nil {
			t.Fatal(err)
		}
		// Server side decrypts with its key and verifies the client's.
		server, err := NewAsymmetricCipher(p, remoteKey, &localKey.PublicKey)
		if err != nil {
			t.Fatal(err)
		}

		plain := make([]byte, client.PlaintextBlockSize())
		for i := range plain {
			plain[i] = byte(i)
		}
		ct, err := client.Encrypt(plain)
		if err != nil {
			t.Fatalf("%s: %v", uri, err)
		}
		if len(ct) != client.CipherTextBlockSize() {
			t.Fatalf("%s: ciphertext %d, want %d", uri, len(ct), client.CipherTextBlockSize())
		}
		pt, err := server.Decrypt(ct)
		if err != nil {
			t.Fatalf("%s: %v", uri, err)
		}
		if !bytes.Equal(pt, plain) {
			t.Fatalf("%s: decrypt mismatch", uri)
		}

		sig, err := client.Sign(plain)
		if err != nil {
			t.Fatal(err)
		}
		if err := server.Verify(plain, sig); err != nil {
			t.Fatalf("%s: %v", uri, err)
		}
		plain[0] ^= 0xFF
		if err := server.Verify(plain, sig); err == nil {
			t.Fatalf("%s: tampered message verified", uri)
		}
	}
}
