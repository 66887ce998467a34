// Copyright (C) 2014 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package sbf

import (
	"crypto/md5"
	"fmt"

	"golang.org/x/crypto/md4"
)

// HashFunction names the digest algorithm used to compute probe
// indices. Only the uniform distribution of the first 64 bits of the
// digest matters; collision resistance is irrelevant here.
type HashFunction int

const (
	// HashMD5 is the default hash function.
	HashMD5 HashFunction = iota
	// HashMD4 is the optional alternative hash function.
	HashMD4
)

func (h HashFunction) String() string {
	switch h {
	case HashMD5:
		return "MD5"
	case HashMD4:
		return "MD4"
	default:
		return fmt.Sprintf("HashFunction(%d)", int(h))
	}
}

// digest hashes buf under h, returning the full-width digest. Callers
// that only need index material read the first 8 bytes themselves.
func digest(h HashFunction, buf []byte) ([]byte, error) {
	switch h {
	case HashMD5:
		sum := md5.Sum(buf)
		return sum[:], nil
	case HashMD4:
		sum := md4.New()
		if _, err := sum.Write(buf); err != nil {
			return nil, err
		}
		return sum.Sum(nil), nil
	default:
		return nil, fmt.Errorf("sbf: %w: unknown hash function %v", ErrInvalidArgument, h)
	}
}
