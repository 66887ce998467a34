// Copyright (C) 2014 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package persist

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	sbf "github.com/bertof/go-sbf"
)

func TestSaveLoadRoundtrip(t *testing.T) {
	f, err := sbf.New[uint32](500, 4, 12, sbf.HashMD5, 3)
	require.NoError(t, err)
	require.NoError(t, f.Insert([]byte("alpha"), 1))
	require.NoError(t, f.Insert([]byte("beta"), 2))

	var buf bytes.Buffer
	require.NoError(t, Save(&buf, f))

	restored, err := Load(&buf)
	require.NoError(t, err)

	require.Equal(t, f.Len(), restored.Len())
	require.Equal(t, f.Probes(), restored.Probes())
	require.EqualValues(t, f.AreaCount(), restored.AreaCount())
	require.Equal(t, f.RawCells(), restored.RawCells())
	require.Equal(t, f.Salts(), restored.Salts())

	area, err := restored.Check([]byte("alpha"))
	require.NoError(t, err)
	require.EqualValues(t, 1, area)
}

func TestLoadRejectsBadMagic(t *testing.T) {
	_, err := Load(bytes.NewReader([]byte{0, 0, 0, 0, 0, 0, 0, 0}))
	require.Error(t, err)
}

func TestLoadRejectsEndianMismatch(t *testing.T) {
	f, err := sbf.New[uint32](100, 3, 8, sbf.HashMD5, 2)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Save(&buf, f))

	raw := buf.Bytes()
	// Endian field is the last uint32 of the fixed header, which
	// follows magic(4)+version(4)+5 header uint32s before it.
	offset := 4 + 4 + 5*4
	raw[offset] ^= 0xFF

	_, err = Load(bytes.NewReader(raw))
	require.ErrorIs(t, err, ErrEndianMismatch)
}

func TestMetricsSaveLoadRoundtrip(t *testing.T) {
	f, err := sbf.New[uint32](300, 4, 8, sbf.HashMD5, 2)
	require.NoError(t, err)
	require.NoError(t, f.Insert([]byte("x"), 1))
	require.NoError(t, f.Insert([]byte("y"), 2))
	f.Metrics.SetAreaFPP()

	var buf bytes.Buffer
	require.NoError(t, SaveMetrics(&buf, f.Metrics))

	restored, err := LoadMetrics(&buf)
	require.NoError(t, err)

	members, ok := restored.AreaMembers(1)
	require.True(t, ok)
	require.EqualValues(t, 1, members)

	fpp, ok := restored.AreaFPP(1)
	require.True(t, ok)
	origFPP, _ := f.Metrics.AreaFPP(1)
	require.Equal(t, origFPP, fpp)
}
