// Copyright (C) 2014 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package syncutil

import "github.com/bertof/go-sbf"

// Guarded pairs a filter with the RWMutex its single-writer/
// multi-reader contract requires. The filter itself stays lock-free
// (see the sbf package doc); Guarded is the opt-in convenience for
// callers who don't already serialize access some other way.
type Guarded[W sbf.Cell] struct {
	mu RWMutex
	f  *sbf.SBF[W]
}

// NewGuarded wraps an existing filter for concurrent use.
func NewGuarded[W sbf.Cell](f *sbf.SBF[W]) *Guarded[W] {
	return &Guarded[W]{mu: NewRWMutex(), f: f}
}

// Insert takes the write lock and inserts content at area.
func (g *Guarded[W]) Insert(content []byte, area W) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.f.Insert(content, area)
}

// Check takes a read lock and reports the minimum area content maps to.
func (g *Guarded[W]) Check(content []byte) (W, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.f.Check(content)
}

// With runs fn with the read lock held, for batched reads or access to
// Metrics/accessors not otherwise exposed by Guarded.
func (g *Guarded[W]) With(fn func(*sbf.SBF[W])) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	fn(g.f)
}
