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

func TestDigestDeterministic(t *testing.T) {
	for _, h := range []HashFunction{HashMD5, HashMD4} {
		a, err := digest(h, []byte("hello, filter"))
		require.NoError(t, err)
		b, err := digest(h, []byte("hello, filter"))
		require.NoError(t, err)
		require.Equal(t, a, b)
		require.True(t, len(a) >= 8)
	}
}

func TestDigestDiffersByAlgorithm(t *testing.T) {
	md5sum, err := digest(HashMD5, []byte("same input"))
	require.NoError(t, err)
	md4sum, err := digest(HashMD4, []byte("same input"))
	require.NoError(t, err)
	require.NotEqual(t, md5sum, md4sum)
}

func TestDigestUnknownAlgorithm(t *testing.T) {
	_, err := digest(HashFunction(99), []byte("x"))
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestHashFunctionString(t *testing.T) {
	require.Equal(t, "MD5", HashMD5.String())
	require.Equal(t, "MD4", HashMD4.String())
}
