// Copyright (C) 2014 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package sbf

import (
	"encoding/binary"

	"golang.org/x/sync/errgroup"
)

// indices computes the K cell indices that content maps to under the
// filter's salt table:
//
//  1. content is truncated or zero-padded to exactly saltLength bytes.
//  2. the buffer is XORed byte-wise with each salt.
//  3. the result is hashed with the configured algorithm.
//  4. the first 8 bytes of the digest are read as a native-endian
//     uint64 and reduced mod the cell count.
//
// Probes are independent of one another and are fanned out across
// goroutines as an optimisation; it carries no behavioral contract, and
// the result is identical, element for element, to a sequential loop.
func (f *SBF[W]) indices(content []byte) ([]int, error) {
	k := len(f.salts)
	out := make([]int, k)

	g := new(errgroup.Group)
	for j := 0; j < k; j++ {
		j := j
		g.Go(func() error {
			i, err := f.probeIndex(content, f.salts[j])
			if err != nil {
				return err
			}
			out[j] = i
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (f *SBF[W]) probeIndex(content []byte, s salt) (int, error) {
	buf := make([]byte, len(s))
	n := copy(buf, content) // truncates if content is longer than the salt
	_ = n                   // remaining bytes of buf are already zero (padding)

	for i := range buf {
		buf[i] ^= s[i]
	}

	d, err := digest(f.hashFunction, buf)
	if err != nil {
		return 0, err
	}

	value := binary.NativeEndian.Uint64(d[:8])
	return int(value % uint64(len(f.filter))), nil
}
