// Copyright (C) 2014 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package sbf

import "errors"

// ErrIndexOutOfBounds is returned by getCell/putCell and by construction when a
// cell index, or a size argument that must become one, cannot be
// represented.
var ErrIndexOutOfBounds = errors.New("sbf: index out of bounds")

// ErrInvalidArgument is returned for constructor and Insert arguments
// that the original implementation left as undefined behavior (a zero
// cell count, a zero probe count, an area identifier of zero or beyond
// the configured area count). This port tightens those cases into
// explicit errors instead of reproducing the undefined behavior.
var ErrInvalidArgument = errors.New("sbf: invalid argument")
