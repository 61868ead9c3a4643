// Copyright (C) 2025 The Edgefield Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package rand implements cryptographically secure randomness for nonces,
// request handles and session names.
package rand

import (
	"crypto/rand"
	"io"
)

// Reader is the source of all randomness in this package.
var Reader = rand.Reader

var defaultSecureSource = newSecureSource()

// Bytes returns n cryptographically random bytes. It panics if the system
// source fails, as there is no reasonable way to continue without
// randomness.
func Bytes(n int) []byte {
	b := make([]byte, n)
	if _, err := io.ReadFull(Reader, b); err != nil {
		panic("rand: system random source failed: " + err.Error())
	}
	return b
}

// Uint64 returns a random uint64.
func Uint64() uint64 {
	return defaultSecureSource.Uint64()
}

// Uint32 returns a random uint32.
func Uint32() uint32 {
	return uint32(Uint64())
}

// Intn returns a random int in [0, n).
func Intn(n int) int {
	if n <= 0 {
		panic("rand: Intn with non-positive n")
	}
	return int(Uint64() % uint64(n))
}

const randomCharset = "2345679abcdefghijkmnopqrstuvwxyzACDEFGHJKLMNPQRSTUVWXYZ"

// String returns a random string of the given length drawn from an
// unambiguous alphanumeric alphabet.
func String(l int) string {
	bs := make([]byte, l)
	for i := range bs {
		bs[i] = randomCharset[Intn(len(randomCharset))]
	}
	return string(bs)
}
