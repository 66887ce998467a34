// Copyright (C) 2015 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package syncutil

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	sbf "github.com/bertof/go-sbf"
	"github.com/bertof/go-sbf/logger"
)

const (
	logThreshold = 100 * time.Millisecond
	shortWait    = 5 * time.Millisecond
	longWait     = 125 * time.Millisecond
)

var skipTimingTests = false

func init() {
	for i := 0; i < 25; i++ {
		t0 := time.Now()
		time.Sleep(shortWait)
		if time.Since(t0) > logThreshold {
			skipTimingTests = true
			return
		}
	}
}

func TestTypes(t *testing.T) {
	debug = false

	_, ok := NewRWMutex().(*sync.RWMutex)
	require.True(t, ok, "wrong type with debug off")

	SetDebug(true)
	_, ok = NewRWMutex().(*loggedRWMutex)
	require.True(t, ok, "wrong type with debug on")
	SetDebug(false)
}

func TestRWMutex(t *testing.T) {
	if skipTimingTests {
		t.Skip("insufficient timer accuracy")
	}

	SetDebug(true)
	threshold = logThreshold
	defer func() {
		SetDebug(false)
		threshold = 100 * time.Millisecond
	}()

	var msgmut sync.Mutex
	var messages []string
	logger.DefaultLogger.AddHandler(logger.LevelDebug, func(_ logger.LogLevel, message string) {
		msgmut.Lock()
		messages = append(messages, message)
		msgmut.Unlock()
	})

	mut := NewRWMutex()
	mut.Lock()
	time.Sleep(shortWait)
	mut.Unlock()

	msgmut.Lock()
	n := len(messages)
	msgmut.Unlock()
	require.Zero(t, n, "a short hold should not log")

	mut.Lock()
	time.Sleep(longWait)
	mut.Unlock()

	msgmut.Lock()
	defer msgmut.Unlock()
	require.Len(t, messages, 1)
	require.True(t, strings.Contains(messages[0], "held for"))
}

func TestGuardedInsertCheck(t *testing.T) {
	f, err := sbf.New[uint8](100, 3, 8, sbf.HashMD5, 2)
	require.NoError(t, err)

	g := NewGuarded[uint8](f)
	require.NoError(t, g.Insert([]byte("hello"), 1))

	area, err := g.Check([]byte("hello"))
	require.NoError(t, err)
	require.EqualValues(t, 1, area)

	var members uint64
	g.With(func(inner *sbf.SBF[uint8]) {
		members, _ = inner.Metrics.AreaMembers(1)
	})
	require.EqualValues(t, 1, members)
}

func TestGuardedConcurrentAccess(t *testing.T) {
	f, err := sbf.New[uint8](200, 3, 8, sbf.HashMD5, 3)
	require.NoError(t, err)
	g := NewGuarded[uint8](f)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			area := uint8(i%3) + 1
			require.NoError(t, g.Insert([]byte{byte(i)}, area))
		}(i)
	}
	wg.Wait()

	for i := 0; i < 20; i++ {
		area, err := g.Check([]byte{byte(i)})
		require.NoError(t, err)
		require.True(t, area >= 1 && area <= 3)
	}
}
