// Copyright (C) 2014 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLevelHandlers(t *testing.T) {
	l := New()
	l.SetFlags(0)

	var debug, info, warn int
	l.AddHandler(LevelDebug, countingHandler(&debug))
	l.AddHandler(LevelInfo, countingHandler(&info))
	l.AddHandler(LevelWarn, countingHandler(&warn))

	l.Debugf("test %d", 0)
	l.Infof("test %d", 1)
	l.Warnf("test %d", 2)

	require.Equal(t, 3, debug, "debug handler sees every level")
	require.Equal(t, 2, info, "info handler sees info and warn")
	require.Equal(t, 1, warn, "warn handler sees only warn")
}

func countingHandler(counter *int) Handler {
	return func(LogLevel, string) {
		*counter++
	}
}

func TestFacilityDebugGating(t *testing.T) {
	l := New()
	l.SetFlags(0)

	var msgs int
	l.AddHandler(LevelDebug, func(lvl LogLevel, msg string) {
		msgs++
	})

	f0 := l.NewFacility("f0", "facility zero")
	f1 := l.NewFacility("f1", "facility one")

	f0.SetDebug(true)
	f1.SetDebug(false)

	f0.Debugln("should be counted")
	f1.Debugln("should not be counted")

	require.Equal(t, 1, msgs)
	require.True(t, f0.IsDebug())
	require.False(t, f1.IsDebug())
}

func TestFacilitiesSorted(t *testing.T) {
	l := New()
	l.NewFacility("zeta", "")
	l.NewFacility("alpha", "")

	require.Equal(t, []string{"alpha", "zeta"}, l.Facilities())
}
