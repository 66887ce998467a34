// Copyright (C) 2014 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package sbf

import (
	"fmt"
	"math"
)

// SBF is a Spatial Bloom Filter over M cells of width W, addressed by
// K independent salted probes. Zero is reserved for "empty"; non-zero
// cell values name one of the filter's areaCount disjoint areas.
//
// The zero value is not usable; construct with New or NewOptimal.
type SBF[W Cell] struct {
	filter       []W
	salts        []salt
	hashFunction HashFunction
	maxInputSize int
	areaCount    W

	// Metrics is nil when the filter was constructed with
	// NewWithoutMetrics, and non-nil otherwise. Its methods do not
	// accept a nil receiver, so callers check f.Metrics first.
	Metrics *Metrics
}

// maxCellValue returns the largest value representable by W.
func maxCellValue[W Cell]() uint64 {
	var zero W
	return uint64(^zero)
}

// New constructs an empty filter with cells cells, probes salted
// hashes per lookup, salts of length saltLength, using the named hash
// function. areaCount must be representable in W and is used to size
// the metrics counters, which are active by default; use
// NewWithoutMetrics to opt out of the bookkeeping entirely, mirroring
// the original implementation's optional "metrics" build feature.
func New[W Cell](cells int, probes int, saltLength int, hashFunction HashFunction, areaCount W) (*SBF[W], error) {
	return newSBF[W](cells, probes, saltLength, hashFunction, areaCount, true)
}

// NewWithoutMetrics is New without the metrics bookkeeping: Insert
// skips all counter updates and f.Metrics is nil.
func NewWithoutMetrics[W Cell](cells int, probes int, saltLength int, hashFunction HashFunction, areaCount W) (*SBF[W], error) {
	return newSBF[W](cells, probes, saltLength, hashFunction, areaCount, false)
}

func newSBF[W Cell](cells int, probes int, saltLength int, hashFunction HashFunction, areaCount W, withMetrics bool) (*SBF[W], error) {
	if cells <= 0 {
		return nil, fmt.Errorf("sbf: %w: cells must be positive, got %d", ErrInvalidArgument, cells)
	}
	if probes < 1 {
		return nil, fmt.Errorf("sbf: %w: probes must be at least 1, got %d", ErrInvalidArgument, probes)
	}
	if saltLength < 0 {
		return nil, fmt.Errorf("sbf: %w: saltLength must be non-negative, got %d", ErrInvalidArgument, saltLength)
	}
	if uint64(areaCount) == 0 {
		return nil, fmt.Errorf("sbf: %w: areaCount must be at least 1", ErrInvalidArgument)
	}
	if uint64(areaCount) > maxCellValue[W]() {
		return nil, fmt.Errorf("sbf: %w: areaCount %d does not fit in the chosen cell width", ErrIndexOutOfBounds, areaCount)
	}

	salts, err := newSalts(probes, saltLength)
	if err != nil {
		return nil, err
	}

	f := &SBF[W]{
		filter:       make([]W, cells),
		salts:        salts,
		hashFunction: hashFunction,
		maxInputSize: saltLength,
		areaCount:    areaCount,
	}
	if withMetrics {
		f.Metrics = newMetrics(cells, probes, int(areaCount))
	}

	l.Debugf("new filter: cells=%d probes=%d saltLength=%d hash=%v areas=%d metrics=%v", cells, probes, saltLength, hashFunction, areaCount, withMetrics)

	return f, nil
}

// NewOptimal chooses a cell count and probe count from the classical
// Bloom-filter sizing formulas and delegates to New:
//
//	M = ceil(-n * ln(p) / ln(2)^2)
//	K = ceil((M / n) * ln(2))
//
// These formulas are only approximately appropriate for the spatial
// variant; they guarantee sane sizing, not a hard FPP bound.
func NewOptimal[W Cell](expectedInserts int, targetFPP float64, saltLength int, hashFunction HashFunction, areaCount W) (*SBF[W], error) {
	if expectedInserts <= 0 {
		return nil, fmt.Errorf("sbf: %w: expectedInserts must be positive, got %d", ErrInvalidArgument, expectedInserts)
	}
	if targetFPP <= 0 || targetFPP >= 1 {
		return nil, fmt.Errorf("sbf: %w: targetFPP must be in (0, 1), got %v", ErrInvalidArgument, targetFPP)
	}

	n := float64(expectedInserts)
	m := math.Ceil(-n * math.Log(targetFPP) / (math.Ln2 * math.Ln2))
	k := int(math.Ceil(m / n * math.Ln2))
	if k < 1 {
		l.Warnf("new_optimal: computed probe count %d < 1 for n=%d p=%v, clamping to 1", k, expectedInserts, targetFPP)
		k = 1
	}

	return New(int(m), k, saltLength, hashFunction, areaCount)
}

// Check reports which area content most likely belongs to, or zero if
// it is (probably) absent. Because of the probabilistic nature of the
// structure, a non-zero result can be a false positive.
func (f *SBF[W]) Check(content []byte) (W, error) {
	idx, err := f.indices(content)
	if err != nil {
		return 0, err
	}

	var min W
	for i, cellIdx := range idx {
		v, err := f.getCell(cellIdx)
		if err != nil {
			return 0, err
		}
		if i == 0 || v < min {
			min = v
		}
	}
	return min, nil
}

// Insert records content as belonging to area, overwriting any cell
// that currently names a lower-priority (or unmarked) area and leaving
// higher-priority cells untouched: this is the filter's monotone write
// rule. area must be in [1, areaCount].
//
// Insert is not internally synchronized; callers sharing an SBF across
// goroutines must serialize Insert against all Insert and Check calls
// (see package syncutil).
func (f *SBF[W]) Insert(content []byte, area W) error {
	if uint64(area) == 0 || uint64(area) > uint64(f.areaCount) {
		return fmt.Errorf("sbf: %w: area %d out of range [1, %d]", ErrInvalidArgument, area, f.areaCount)
	}

	idx, err := f.indices(content)
	if err != nil {
		return err
	}

	for _, cellIdx := range idx {
		if err := f.applyWrite(cellIdx, area); err != nil {
			return err
		}
	}

	if f.Metrics != nil {
		f.Metrics.members++
		f.Metrics.areaMembers[int(area)]++
	}

	return nil
}

// applyWrite implements the monotone write rule for a single probed
// cell and updates the collision counters.
func (f *SBF[W]) applyWrite(cellIdx int, area W) error {
	cur, err := f.getCell(cellIdx)
	if err != nil {
		return err
	}

	switch {
	case cur == 0:
		if err := f.putCell(cellIdx, area); err != nil {
			return err
		}
		if f.Metrics != nil {
			f.Metrics.areaCells[int(area)]++
		}
	case cur < area:
		if err := f.putCell(cellIdx, area); err != nil {
			return err
		}
		if f.Metrics != nil {
			f.Metrics.areaCells[int(cur)]--
			f.Metrics.areaCells[int(area)]++
			f.Metrics.collisions++
			l.Debugf("insert: cross-area collision at cell %d: %d -> %d", cellIdx, cur, area)
		}
	case cur == area:
		if f.Metrics != nil {
			f.Metrics.collisions++
			f.Metrics.areaSelfCollisions[int(area)]++
			l.Debugf("insert: self-collision at cell %d for area %d", cellIdx, area)
		}
	default: // cur > area
		if f.Metrics != nil {
			f.Metrics.collisions++
		}
	}
	return nil
}

// Len returns the number of cells in the filter (M).
func (f *SBF[W]) Len() int { return len(f.filter) }

// Probes returns the number of salted hashes per lookup (K).
func (f *SBF[W]) Probes() int { return len(f.salts) }

// AreaCount returns the configured number of disjoint areas (A).
func (f *SBF[W]) AreaCount() W { return f.areaCount }

// HashFunctionUsed returns the configured hash algorithm.
func (f *SBF[W]) HashFunctionUsed() HashFunction { return f.hashFunction }

// RawCells returns a copy of the filter's cell array, for snapshotting
// by package persist. Mutating the returned slice has no effect on f.
func (f *SBF[W]) RawCells() []W {
	cp := make([]W, len(f.filter))
	copy(cp, f.filter)
	return cp
}

// Salts returns a copy of the filter's salt table, for snapshotting by
// package persist.
func (f *SBF[W]) Salts() [][]byte {
	cp := make([][]byte, len(f.salts))
	for i, s := range f.salts {
		cp[i] = append([]byte(nil), s...)
	}
	return cp
}

// Restore overwrites f's cell array and salt table in place. It exists
// for package persist to rebuild a filter from a snapshot; cells and
// salts must match the lengths f was constructed with.
func (f *SBF[W]) Restore(cells []W, salts [][]byte) error {
	if len(cells) != len(f.filter) {
		return fmt.Errorf("sbf: %w: snapshot has %d cells, filter has %d", ErrInvalidArgument, len(cells), len(f.filter))
	}
	if len(salts) != len(f.salts) {
		return fmt.Errorf("sbf: %w: snapshot has %d salts, filter has %d", ErrInvalidArgument, len(salts), len(f.salts))
	}
	copy(f.filter, cells)
	for i, s := range salts {
		f.salts[i] = append(f.salts[i][:0], s...)
	}
	return nil
}
