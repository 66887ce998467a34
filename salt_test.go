// Copyright (C) 2014 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package sbf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewSaltsShape(t *testing.T) {
	salts, err := newSalts(4, 16)
	require.NoError(t, err)
	require.Len(t, salts, 4)
	for _, s := range salts {
		require.Len(t, s, 16)
	}
}

func TestNewSaltsIndependent(t *testing.T) {
	saltsA, err := newSalts(8, 32)
	require.NoError(t, err)
	saltsB, err := newSalts(8, 32)
	require.NoError(t, err)

	// Astronomically unlikely to collide if drawn from a real CSPRNG;
	// this is a sanity check, not a statistical proof.
	identical := true
	for i := range saltsA {
		if string(saltsA[i]) != string(saltsB[i]) {
			identical = false
			break
		}
	}
	require.False(t, identical, "two independently constructed salt tables must differ")
}

func TestNewSaltsZeroLength(t *testing.T) {
	salts, err := newSalts(3, 0)
	require.NoError(t, err)
	require.Len(t, salts, 3)
	for _, s := range salts {
		require.Len(t, s, 0)
	}
}
