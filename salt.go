// Copyright (C) 2014 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package sbf

import "crypto/rand"

// salt is one probe's XOR mask, always exactly maxInputSize bytes.
type salt []byte

// newSalts draws k independent salts of length l from a cryptographically
// seeded source, so that two filters sharing (cells, probes, saltLength,
// algorithm) but different salts produce statistically independent index
// streams.
func newSalts(k, l int) ([]salt, error) {
	salts := make([]salt, k)
	for i := range salts {
		s := make(salt, l)
		if l > 0 {
			if _, err := rand.Read(s); err != nil {
				return nil, err
			}
		}
		salts[i] = s
	}
	return salts, nil
}
