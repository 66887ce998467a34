// Copyright (C) 2014 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package sbf

import (
	"encoding/json"
	"math"
)

// notComputed is the sentinel written into derived-storage vectors
// until the corresponding Set* estimator runs.
const notComputed = -1.0

// Metrics holds the live population counters (C6) updated by Insert
// and the derived estimators (C7) computed on demand from them and
// from the filter's own parameters. All vectors are indexed by area
// identifier directly (1..=areaCount); index 0 is allocated but never
// written, since area 0 is the "not present" sentinel, not a real area.
//
// Estimators are pure reads of the filter array and the counters; they
// write only to their own derived-storage vector, never to the filter
// or to the C6 counters.
type Metrics struct {
	cells      int
	hashNumber int
	areaNumber int

	members    uint64
	collisions uint64
	safeness   float64

	areaMembers        []uint64
	areaCells          []uint64
	areaSelfCollisions []uint64
	areaExpectedCells  []int64

	areaFPP        []float64
	areaPriorFPP   []float64
	areaISEP       []float64
	areaPriorISEP  []float64
	areaPriorSafeP []float64
}

func newMetrics(cells, hashNumber, areaNumber int) *Metrics {
	fvec := func() []float64 {
		v := make([]float64, areaNumber+1)
		for i := range v {
			v[i] = notComputed
		}
		return v
	}
	ivec := func() []int64 {
		v := make([]int64, areaNumber+1)
		for i := range v {
			v[i] = notComputed
		}
		return v
	}
	return &Metrics{
		cells:              cells,
		hashNumber:         hashNumber,
		areaNumber:         areaNumber,
		safeness:           notComputed,
		areaMembers:        make([]uint64, areaNumber+1),
		areaCells:          make([]uint64, areaNumber+1),
		areaSelfCollisions: make([]uint64, areaNumber+1),
		areaExpectedCells:  ivec(),
		areaFPP:            fvec(),
		areaPriorFPP:       fvec(),
		areaISEP:           fvec(),
		areaPriorISEP:      fvec(),
		areaPriorSafeP:     fvec(),
	}
}

func (m *Metrics) inRange(area int) bool { return area >= 1 && area <= m.areaNumber }

// Members returns the total number of successful inserts.
func (m *Metrics) Members() uint64 { return m.members }

// Collisions returns the number of probe-cell writes that found a
// pre-existing non-zero value, of any kind (cross-area or self).
func (m *Metrics) Collisions() uint64 { return m.collisions }

// AreaMembers returns the number of inserts recorded against area, or
// false if area is out of range.
func (m *Metrics) AreaMembers(area int) (uint64, bool) {
	if !m.inRange(area) {
		return 0, false
	}
	return m.areaMembers[area], true
}

// AreaCells returns the number of cells currently occupied by area.
func (m *Metrics) AreaCells(area int) (uint64, bool) {
	if !m.inRange(area) {
		return 0, false
	}
	return m.areaCells[area], true
}

// AreaSelfCollisions returns the number of writes to area that found a
// cell already holding that same area.
func (m *Metrics) AreaSelfCollisions(area int) (uint64, bool) {
	if !m.inRange(area) {
		return 0, false
	}
	return m.areaSelfCollisions[area], true
}

// sumAreaCellsFrom sums areaCells[from..=areaNumber].
func (m *Metrics) sumAreaCellsFrom(from int) uint64 {
	var sum uint64
	for b := from; b <= m.areaNumber; b++ {
		sum += m.areaCells[b]
	}
	return sum
}

// sumAreaMembersFrom sums areaMembers[from..=areaNumber].
func (m *Metrics) sumAreaMembersFrom(from int) uint64 {
	var sum uint64
	for b := from; b <= m.areaNumber; b++ {
		sum += m.areaMembers[b]
	}
	return sum
}

// FilterSparsity returns 1 - (sum of non-zero area cells) / K.
//
// This divides by the probe count K, not the cell count M, which is
// dimensionally odd (the result can fall outside [0,1]) but matches
// the original Rust implementation's formula verbatim, and callers
// comparing against it depend on that.
func (m *Metrics) FilterSparsity() float64 {
	sum := m.sumAreaCellsFrom(1)
	return 1 - float64(sum)/float64(m.hashNumber)
}

// FilterFPP returns the posterior false positive probability over the
// entire filter (not area-specific).
func (m *Metrics) FilterFPP() float64 {
	sum := m.sumAreaCellsFrom(1)
	p := float64(sum) / float64(m.cells)
	return math.Pow(p, float64(m.hashNumber))
}

// FilterPriorFPP returns the prior (expected, pre-measurement) false
// positive probability over the entire filter.
func (m *Metrics) FilterPriorFPP() float64 {
	p := 1 - 1/float64(m.cells)
	p = 1 - math.Pow(p, float64(m.hashNumber)*float64(m.members))
	return math.Pow(p, float64(m.hashNumber))
}

// ExpectedAreaEmersion returns the expected emersion of area, derived
// purely from filter parameters and the members of higher-priority
// areas (those with index > area), without looking at the actual cell
// array occupancy.
func (m *Metrics) ExpectedAreaEmersion(area int) float64 {
	higher := m.sumAreaMembersFrom(area + 1)
	p := 1 - 1/float64(m.cells)
	return math.Pow(p, float64(m.hashNumber)*float64(higher))
}

// AreaEmersion returns the empirical emersion of area: the fraction of
// its writing budget (members * K - self-collisions) that produced
// distinct occupied cells. The second return is false when emersion is
// undefined (no cells occupied yet, or K == 0).
func (m *Metrics) AreaEmersion(area int) (float64, bool) {
	if !m.inRange(area) {
		return 0, false
	}
	if m.areaCells[area] == 0 || m.hashNumber == 0 {
		return 0, false
	}
	a := float64(m.areaCells[area])
	b := float64(m.areaMembers[area])*float64(m.hashNumber) - float64(m.areaSelfCollisions[area])
	return a / b, true
}

// SetAreaFPP computes the posterior area-specific false positive
// probability for every area, descending from the highest-priority
// area down to area 1, subtracting the contribution already
// attributed to higher-priority areas and clamping at zero.
func (m *Metrics) SetAreaFPP() {
	for a := m.areaNumber; a >= 1; a-- {
		c := m.sumAreaCellsFrom(a)
		p := math.Pow(float64(c)/float64(m.cells), float64(m.hashNumber))
		m.areaFPP[a] = p
		for j := a; j <= m.areaNumber-1; j++ {
			m.areaFPP[a] -= m.areaFPP[j+1]
		}
		if m.areaFPP[a] < 0 {
			m.areaFPP[a] = 0
		}
	}
}

// SetPriorAreaFPP computes the prior area-specific false positive
// probability for every area, with the same descending
// subtract-and-clamp accumulation as SetAreaFPP.
//
// The source this is ported from assigns its raw per-area value into
// area_fpp instead of area_prior_fpp before the subtraction loop,
// which would silently corrupt area_fpp whenever both setters are
// used together. That is corrected here: the raw value and the
// subtraction loop both operate on areaPriorFPP (see DESIGN.md, Open
// Question 1).
func (m *Metrics) SetPriorAreaFPP() {
	for a := m.areaNumber; a >= 1; a-- {
		c := m.sumAreaMembersFrom(a)
		p := 1 - 1/float64(m.cells)
		p = 1 - math.Pow(p, float64(m.hashNumber)*float64(c))
		p = math.Pow(p, float64(m.hashNumber))
		m.areaPriorFPP[a] = p
		for j := a; j <= m.areaNumber-1; j++ {
			m.areaPriorFPP[a] -= m.areaPriorFPP[j+1]
		}
		if m.areaPriorFPP[a] < 0 {
			m.areaPriorFPP[a] = 0
		}
	}
}

// SetAreaISEP computes the posterior area-specific inter-set error
// probability for every area. When AreaEmersion is undefined for an
// area, -1 is used in its place, exactly as in the original formula.
func (m *Metrics) SetAreaISEP() {
	for a := m.areaNumber; a >= 1; a-- {
		emersion, ok := m.AreaEmersion(a)
		if !ok {
			emersion = -1
		}
		m.areaISEP[a] = math.Pow(1-emersion, float64(m.hashNumber))
	}
}

// SetPriorAreaISEP computes the prior area-specific inter-set error
// probability and the prior area-specific safeness probability for
// every area, and the overall filter safeness as their product.
func (m *Metrics) SetPriorAreaISEP() {
	safeness := 1.0
	for a := m.areaNumber; a >= 1; a-- {
		nFill := m.sumAreaMembersFrom(a + 1) // strictly higher-priority areas only
		members := float64(m.areaMembers[a])

		p1 := 1 - 1/float64(m.cells)
		p1 = 1 - math.Pow(p1, float64(m.hashNumber)*float64(nFill))
		p1 = math.Pow(p1, members)

		p2 := math.Pow(1-p1, members)

		safeness *= p2

		m.areaPriorISEP[a] = p1
		m.areaPriorSafeP[a] = p2
	}
	m.safeness = safeness
}

// SetExpectedAreaCells computes the expected number of occupied cells
// for every area. Unlike SetPriorAreaISEP's n_fill, this sum over
// members is inclusive of area itself.
func (m *Metrics) SetExpectedAreaCells() {
	for a := m.areaNumber; a >= 1; a-- {
		nFill := m.sumAreaMembersFrom(a)
		p1 := 1 - 1/float64(m.cells)
		p2 := math.Pow(p1, float64(m.hashNumber)*float64(nFill))
		m.areaExpectedCells[a] = int64(float64(m.cells) * p1 * p2)
	}
}

// Safeness returns the overall filter safeness computed by the most
// recent SetPriorAreaISEP call, or the not-yet-computed sentinel.
func (m *Metrics) Safeness() float64 { return m.safeness }

func (m *Metrics) AreaFPP(area int) (float64, bool)        { return m.derivedF(m.areaFPP, area) }
func (m *Metrics) AreaPriorFPP(area int) (float64, bool)   { return m.derivedF(m.areaPriorFPP, area) }
func (m *Metrics) AreaISEP(area int) (float64, bool)       { return m.derivedF(m.areaISEP, area) }
func (m *Metrics) AreaPriorISEP(area int) (float64, bool)  { return m.derivedF(m.areaPriorISEP, area) }
func (m *Metrics) AreaPriorSafeP(area int) (float64, bool) { return m.derivedF(m.areaPriorSafeP, area) }

func (m *Metrics) ExpectedAreaCells(area int) (int64, bool) {
	if !m.inRange(area) {
		return 0, false
	}
	return m.areaExpectedCells[area], true
}

func (m *Metrics) derivedF(vec []float64, area int) (float64, bool) {
	if !m.inRange(area) {
		return 0, false
	}
	return vec[area], true
}

// metricsSnapshot mirrors Metrics with exported fields, purely so the
// persist package can round-trip a snapshot through encoding/json
// without this package needing to export its counters as a public API.
type metricsSnapshot struct {
	Cells      int `json:"cells"`
	HashNumber int `json:"hashNumber"`
	AreaNumber int `json:"areaNumber"`

	Members    uint64  `json:"members"`
	Collisions uint64  `json:"collisions"`
	Safeness   float64 `json:"safeness"`

	AreaMembers        []uint64 `json:"areaMembers"`
	AreaCells          []uint64 `json:"areaCells"`
	AreaSelfCollisions []uint64 `json:"areaSelfCollisions"`
	AreaExpectedCells  []int64  `json:"areaExpectedCells"`

	AreaFPP        []float64 `json:"areaFPP"`
	AreaPriorFPP   []float64 `json:"areaPriorFPP"`
	AreaISEP       []float64 `json:"areaISEP"`
	AreaPriorISEP  []float64 `json:"areaPriorISEP"`
	AreaPriorSafeP []float64 `json:"areaPriorSafeP"`
}

func (m *Metrics) MarshalJSON() ([]byte, error) {
	return json.Marshal(metricsSnapshot{
		Cells:              m.cells,
		HashNumber:         m.hashNumber,
		AreaNumber:         m.areaNumber,
		Members:            m.members,
		Collisions:         m.collisions,
		Safeness:           m.safeness,
		AreaMembers:        m.areaMembers,
		AreaCells:          m.areaCells,
		AreaSelfCollisions: m.areaSelfCollisions,
		AreaExpectedCells:  m.areaExpectedCells,
		AreaFPP:            m.areaFPP,
		AreaPriorFPP:       m.areaPriorFPP,
		AreaISEP:           m.areaISEP,
		AreaPriorISEP:      m.areaPriorISEP,
		AreaPriorSafeP:     m.areaPriorSafeP,
	})
}

func (m *Metrics) UnmarshalJSON(data []byte) error {
	var s metricsSnapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*m = Metrics{
		cells:              s.Cells,
		hashNumber:         s.HashNumber,
		areaNumber:         s.AreaNumber,
		members:            s.Members,
		collisions:         s.Collisions,
		safeness:           s.Safeness,
		areaMembers:        s.AreaMembers,
		areaCells:          s.AreaCells,
		areaSelfCollisions: s.AreaSelfCollisions,
		areaExpectedCells:  s.AreaExpectedCells,
		areaFPP:            s.AreaFPP,
		areaPriorFPP:       s.AreaPriorFPP,
		areaISEP:           s.AreaISEP,
		areaPriorISEP:      s.AreaPriorISEP,
		areaPriorSafeP:     s.AreaPriorSafeP,
	}
	return nil
}
