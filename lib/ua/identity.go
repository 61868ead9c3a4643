// Copyright (C) 2025 The Edgefield Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package ua

// AnonymousIdentityToken carries only the policy id of the anonymous token
// policy selected from the endpoint.
type AnonymousIdentityToken struct {
	PolicyID string
}

func (t *AnonymousIdentityToken) encode(w *Writer) {
	w.WriteString(t.PolicyID)
}

// ExtensionObject wraps the token for the ActivateSession request.
func (t *AnonymousIdentityToken) ExtensionObject() ExtensionObject {
	return NewExtensionObject(IDAnonymousIdentityToken, t)
}

// UserNameIdentityToken carries a user name and a password that is either
// plaintext (policy None) or encrypted with the server certificate public
// key and the freshly echoed server nonce.
type UserNameIdentityToken struct {
	PolicyID            string
	UserName            string
	Password            []byte
	EncryptionAlgorithm string
}

func (t *UserNameIdentityToken) encode(w *Writer) {
	w.WriteString(t.PolicyID)
	w.WriteString(t.UserName)
	w.WriteByteString(t.Password)
	w.WriteString(t.EncryptionAlgorithm)
}

func (t *UserNameIdentityToken) ExtensionObject() ExtensionObject {
	return NewExtensionObject(IDUserNameIdentityToken, t)
}

// X509IdentityToken carries the user certificate; the proof of possession
// travels separately as the user token signature.
type X509IdentityToken struct {
	PolicyID        string
	CertificateData []byte
}

func (t *X509IdentityToken) encode(w *Writer) {
	w.WriteString(t.PolicyID)
	w.WriteByteString(t.CertificateData)
}

func (t *X509IdentityToken) ExtensionObject() ExtensionObject {
	return NewExtensionObject(IDX509IdentityToken, t)
}
