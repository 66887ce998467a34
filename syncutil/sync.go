// Copyright (C) 2014 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package syncutil wraps sync.RWMutex with optional hold-time logging,
// and provides Guarded, a convenience wrapper pairing a filter with the
// external lock its single-writer/multi-reader contract requires (see
// the sbf package doc).
package syncutil

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/bertof/go-sbf/logger"
)

var l = logger.DefaultLogger.NewFacility("sync", "wrapped sync primitives")

// threshold is the wait or hold time at or above which a lock logs a
// debug message. Varied
// in tests; production code never changes it.
var threshold = 100 * time.Millisecond

var debug = false

// RWMutex is the interface common to sync.RWMutex and the
// debug-instrumented wrapper returned by NewRWMutex when tracing is on.
type RWMutex interface {
	sync.Locker
	RLock()
	RUnlock()
}

// NewRWMutex returns a sync.RWMutex, or a logging wrapper around one
// when debugging has been turned on with SetDebug.
func NewRWMutex() RWMutex {
	if debug {
		return &loggedRWMutex{}
	}
	return &sync.RWMutex{}
}

type loggedRWMutex struct {
	sync.RWMutex
	start  time.Time
	holder string
}

func (m *loggedRWMutex) Lock() {
	t0 := time.Now()
	m.RWMutex.Lock()
	m.start = time.Now()
	m.holder = caller()

	if duration := time.Since(t0); duration >= threshold {
		l.Debugf("RWMutex took %v to lock (%s)", duration, m.holder)
	}
}

func (m *loggedRWMutex) Unlock() {
	holdTime := time.Since(m.start)
	m.RWMutex.Unlock()

	if holdTime >= threshold {
		l.Debugf("RWMutex held for %v (locked at %s)", holdTime, m.holder)
	}
}

func (m *loggedRWMutex) RLock() {
	t0 := time.Now()
	m.RWMutex.RLock()

	if duration := time.Since(t0); duration >= threshold {
		l.Debugf("RWMutex took %v to rlock (%s)", duration, caller())
	}
}

func (m *loggedRWMutex) RUnlock() {
	m.RWMutex.RUnlock()
}

func caller() string {
	_, file, line, ok := runtime.Caller(2)
	if !ok {
		return "unknown"
	}
	return fmt.Sprintf("%s:%d", file, line)
}

// SetDebug chooses which kind of RWMutex NewRWMutex returns from now
// on, and turns the "sync" logging facility on or off. Existing
// instances keep their type, but a logging wrapper built earlier only
// emits messages while the facility is on.
func SetDebug(enabled bool) {
	debug = enabled
	l.SetDebug(enabled)
}
