// Copyright (C) 2014 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package persist saves and restores a filter's cell array and salt
// table to a compact binary form, and its metrics snapshot to JSON.
//
// Restoring the full HSBF structure to and from disk was part of the
// original implementation (lib.rs's write_to_disk/read_hash_salts).
// It's restored here too, since any long-lived filter needs it.
package persist

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/calmh/xdr"

	sbf "github.com/bertof/go-sbf"
	"github.com/bertof/go-sbf/logger"
)

var l = logger.DefaultLogger.NewFacility("persist", "filter snapshot persistence")

// magic identifies a go-sbf binary snapshot; version allows the format
// to evolve without silently misreading an incompatible file.
const (
	magic         = 0x53424600 // "SBF\0"
	formatVersion = 1
)

// nativeEndianID distinguishes host byte order on read: it is
// 0x04030201 on a little-endian host and 0x01020304 on a big-endian one.
var nativeEndianID = binary.NativeEndian.Uint32([]byte{0x01, 0x02, 0x03, 0x04})

// ErrEndianMismatch is returned by Load when a snapshot was written on
// a host with different native byte order. The index-digest
// interpretation in the sbf package is deliberately native-endian
// (see its index computation), so a filter's cell contents are not
// portable across architectures with different endianness even
// though the snapshot format itself is big-endian on the wire.
var ErrEndianMismatch = errors.New("persist: snapshot written with different native byte order, cannot restore salts safely")

// Header describes the shape of a persisted filter, enough to
// reconstruct an sbf.SBF[uint32] with NewWithoutMetrics and then
// restore its raw cell contents and salts.
type Header struct {
	Cells        uint32
	Probes       uint32
	SaltLength   uint32
	AreaCount    uint32
	HashFunction uint32
	Endian       uint32
}

func (h Header) encodeXDR(xw *xdr.Writer) (int, error) {
	var n int
	for _, v := range []uint32{h.Cells, h.Probes, h.SaltLength, h.AreaCount, h.HashFunction, h.Endian} {
		m, err := xw.WriteUint32(v)
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

func (h *Header) decodeXDR(xr *xdr.Reader) error {
	h.Cells = xr.ReadUint32()
	h.Probes = xr.ReadUint32()
	h.SaltLength = xr.ReadUint32()
	h.AreaCount = xr.ReadUint32()
	h.HashFunction = xr.ReadUint32()
	h.Endian = xr.ReadUint32()
	return xr.Error()
}

// Save writes a binary snapshot of f: header, raw cell values, and
// the salt table, in that order.
func Save(w io.Writer, f *sbf.SBF[uint32]) error {
	xw := xdr.NewWriter(w)

	h := Header{
		Cells:        uint32(f.Len()),
		Probes:       uint32(f.Probes()),
		SaltLength:   0, // filled in below from the first salt, if any
		AreaCount:    uint32(f.AreaCount()),
		HashFunction: uint32(f.HashFunctionUsed()),
		Endian:       nativeEndianID,
	}
	salts := f.Salts()
	if len(salts) > 0 {
		h.SaltLength = uint32(len(salts[0]))
	}

	if _, err := xw.WriteUint32(magic); err != nil {
		return err
	}
	if _, err := xw.WriteUint32(formatVersion); err != nil {
		return err
	}
	if _, err := h.encodeXDR(xw); err != nil {
		return err
	}

	cells := f.RawCells()
	buf := make([]byte, 4*len(cells))
	for i, c := range cells {
		binary.BigEndian.PutUint32(buf[i*4:], c)
	}
	if _, err := xw.WriteBytes(buf); err != nil {
		return err
	}

	for _, s := range salts {
		if _, err := xw.WriteBytes(s); err != nil {
			return err
		}
	}

	l.Debugf("saved snapshot: %d cells, %d salts", len(cells), len(salts))
	return xw.Error()
}

// Load reconstructs a filter from a snapshot written by Save. The
// restored filter has no metrics attached (use sbf.NewWithoutMetrics
// semantics); call LoadMetrics separately to restore counters saved
// alongside it.
func Load(r io.Reader) (*sbf.SBF[uint32], error) {
	xr := xdr.NewReader(r)

	if got := xr.ReadUint32(); got != magic {
		return nil, fmt.Errorf("persist: bad magic %#x", got)
	}
	if got := xr.ReadUint32(); got != formatVersion {
		return nil, fmt.Errorf("persist: unsupported format version %d", got)
	}

	var h Header
	if err := h.decodeXDR(xr); err != nil {
		return nil, err
	}
	if h.Endian != nativeEndianID {
		return nil, ErrEndianMismatch
	}

	cellBytes := xr.ReadBytes()
	if err := xr.Error(); err != nil {
		return nil, err
	}
	cells := make([]uint32, h.Cells)
	for i := range cells {
		cells[i] = binary.BigEndian.Uint32(cellBytes[i*4:])
	}

	salts := make([][]byte, h.Probes)
	for i := range salts {
		salts[i] = xr.ReadBytes()
		if err := xr.Error(); err != nil {
			return nil, err
		}
	}

	f, err := sbf.NewWithoutMetrics[uint32](int(h.Cells), int(h.Probes), int(h.SaltLength), sbf.HashFunction(h.HashFunction), h.AreaCount)
	if err != nil {
		return nil, err
	}
	if err := f.Restore(cells, salts); err != nil {
		return nil, err
	}

	l.Debugf("loaded snapshot: %d cells, %d salts", len(cells), len(salts))
	return f, nil
}

// SaveMetrics writes m as JSON. Unlike the cell/salt snapshot, the
// metrics subsystem isn't native-endian-sensitive (every field is a
// plain float64/int64 count), so JSON is the simpler, human-readable
// choice here rather than a second XDR structure.
func SaveMetrics(w io.Writer, m *sbf.Metrics) error {
	enc := json.NewEncoder(w)
	return enc.Encode(m)
}

// LoadMetrics restores a metrics snapshot written by SaveMetrics.
func LoadMetrics(r io.Reader) (*sbf.Metrics, error) {
	var m sbf.Metrics
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, err
	}
	return &m, nil
}
