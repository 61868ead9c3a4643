// Copyright (C) 2025 The Edgefield Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package uapolicy

import (
	"errors"
	"fmt"
)

var ErrPaddingInvalid = errors.New("uapolicy: invalid cipher padding")

// AddPadding appends OPC UA cipher-block padding: P bytes of value P
// followed by a PaddingSize trailer byte, chosen so that len(data)+P+1 is a
// multiple of blockSize. blockSize must be ≤ 256 for the single-byte form.
func AddPadding(data []byte, blockSize int) []byte {
	if blockSize <= 1 {
		return data
	}
	p := blockSize - (len(data)+1)%blockSize
	if p == blockSize {
		p = 0
	}
	for i := 0; i < p; i++ {
		data = append(data, byte(p))
	}
	return append(data, byte(p))
}

// RemovePadding strips and verifies padding added by AddPadding. Every
// padding byte must equal the declared size.
func RemovePadding(data []byte, blockSize int) ([]byte, error) {
	if blockSize <= 1 {
		return data, nil
	}
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, fmt.Errorf("%w: length %d not a multiple of %d", ErrPaddingInvalid, len(data), blockSize)
	}
	p := int(data[len(data)-1])
	if p+1 > len(data) {
		return nil, fmt.Errorf("%w: padding size %d exceeds data", ErrPaddingInvalid, p)
	}
	for _, b := range data[len(data)-1-p : len(data)-1] {
		if int(b) != p {
			return nil, fmt.Errorf("%w: padding byte 0x%02x, want 0x%02x", ErrPaddingInvalid, b, p)
		}
	}
	return data[:len(data)-1-p], nil
}
