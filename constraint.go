// Copyright (C) 2014 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package sbf

// Cell is the set of integer types usable as a filter's cell width: an
// unsigned integer type chosen by the caller, commonly an 8- or 16-bit
// cell. Unlike golang.org/x/exp/constraints.Unsigned, this deliberately
// excludes uint and uintptr: their width is platform-dependent, which
// would make the cell range (and therefore the maximum area count)
// vary across machines for the same type parameter, a portability
// footgun on top of the one already present in native-endian index
// computation.
type Cell interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}
