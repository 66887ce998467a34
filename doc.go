// Copyright (C) 2014 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package sbf implements a Spatial Bloom Filter: a probabilistic
// membership structure that, given content previously inserted under
// one of a finite set of disjoint labeled areas, reports which area
// (if any) the content most likely belongs to.
//
// Unlike a classic Bloom filter's boolean answer, each cell of the
// filter holds an area identifier rather than a single bit. Insertion
// writes the maximum of the existing and new area identifier into
// every cell a probe touches (higher-numbered areas win ties and
// overwrites); lookup returns the minimum area identifier seen across
// all of a content's probes. A returned zero means "not present".
//
// The filter is a plain value-ish struct: construction draws the salt
// table once from a cryptographically seeded source and never touches
// it again. Check is read-only and safe for concurrent use by itself;
// Insert mutates shared state and is not internally synchronized:
// callers sharing an SBF across goroutines must serialize Insert
// against all other Insert and Check calls themselves (package
// syncutil provides a convenience wrapper for this).
package sbf
