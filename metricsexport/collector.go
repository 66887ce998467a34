// Copyright (C) 2024 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package metricsexport exposes a filter's Metrics as a
// prometheus.Collector, so a running service can scrape population
// counters and derived estimators without polling them by hand.
package metricsexport

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	sbf "github.com/bertof/go-sbf"
)

func areaLabel(a uint64) string { return strconv.FormatUint(a, 10) }

const namePrefix = "sbf_"

var (
	membersDesc    = prometheus.NewDesc(namePrefix+"members_total", "Total successful inserts.", nil, nil)
	collisionsDesc = prometheus.NewDesc(namePrefix+"collisions_total", "Total probe-cell writes that found a non-zero cell.", nil, nil)
	sparsityDesc   = prometheus.NewDesc(namePrefix+"sparsity", "Filter sparsity: 1 minus occupied cells over probe count.", nil, nil)
	fppDesc        = prometheus.NewDesc(namePrefix+"fpp", "Posterior false positive probability over the whole filter.", nil, nil)
	priorFPPDesc   = prometheus.NewDesc(namePrefix+"prior_fpp", "Prior false positive probability over the whole filter.", nil, nil)
	safenessDesc   = prometheus.NewDesc(namePrefix+"safeness", "Overall filter safeness from the most recent SetPriorAreaISEP call.", nil, nil)

	areaMembersDesc = prometheus.NewDesc(namePrefix+"area_members_total", "Inserts recorded against an area.", []string{"area"}, nil)
	areaCellsDesc   = prometheus.NewDesc(namePrefix+"area_cells", "Cells currently occupied by an area.", []string{"area"}, nil)
	areaFPPDesc     = prometheus.NewDesc(namePrefix+"area_fpp", "Posterior area-specific false positive probability.", []string{"area"}, nil)
)

// Collector adapts a filter's Metrics to prometheus.Collector. The
// estimator setters (SetAreaFPP, SetPriorAreaFPP, ...) are the
// caller's responsibility to invoke on whatever cadence makes sense;
// Collect only reads whatever was last computed, matching how the
// teacher's own metricsSet separates recalc from Collect.
type Collector[W sbf.Cell] struct {
	f *sbf.SBF[W]
}

// New wraps f for Prometheus scraping. f must have been constructed
// with metrics enabled (sbf.New, not sbf.NewWithoutMetrics); Collect
// emits no samples for a filter with f.Metrics == nil.
func New[W sbf.Cell](f *sbf.SBF[W]) *Collector[W] {
	return &Collector[W]{f: f}
}

func (c *Collector[W]) Describe(ch chan<- *prometheus.Desc) {
	ch <- membersDesc
	ch <- collisionsDesc
	ch <- sparsityDesc
	ch <- fppDesc
	ch <- priorFPPDesc
	ch <- safenessDesc
	ch <- areaMembersDesc
	ch <- areaCellsDesc
	ch <- areaFPPDesc
}

func (c *Collector[W]) Collect(ch chan<- prometheus.Metric) {
	m := c.f.Metrics
	if m == nil {
		return
	}

	ch <- prometheus.MustNewConstMetric(membersDesc, prometheus.CounterValue, float64(m.Members()))
	ch <- prometheus.MustNewConstMetric(collisionsDesc, prometheus.CounterValue, float64(m.Collisions()))
	ch <- prometheus.MustNewConstMetric(sparsityDesc, prometheus.GaugeValue, m.FilterSparsity())
	ch <- prometheus.MustNewConstMetric(fppDesc, prometheus.GaugeValue, m.FilterFPP())
	ch <- prometheus.MustNewConstMetric(priorFPPDesc, prometheus.GaugeValue, m.FilterPriorFPP())
	ch <- prometheus.MustNewConstMetric(safenessDesc, prometheus.GaugeValue, m.Safeness())

	areaCount := uint64(c.f.AreaCount())
	for a := uint64(1); a <= areaCount; a++ {
		areaStr := areaLabel(a)

		if v, ok := m.AreaMembers(int(a)); ok {
			ch <- prometheus.MustNewConstMetric(areaMembersDesc, prometheus.CounterValue, float64(v), areaStr)
		}
		if v, ok := m.AreaCells(int(a)); ok {
			ch <- prometheus.MustNewConstMetric(areaCellsDesc, prometheus.GaugeValue, float64(v), areaStr)
		}
		if v, ok := m.AreaFPP(int(a)); ok {
			ch <- prometheus.MustNewConstMetric(areaFPPDesc, prometheus.GaugeValue, v, areaStr)
		}
	}
}
