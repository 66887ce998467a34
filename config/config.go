// Copyright (C) 2014 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package config implements reading and writing of declarative YAML
// descriptors for spatial Bloom filters, and building a live filter
// from one.
package config

import (
	"fmt"
	"io"
	"reflect"
	"strconv"

	"gopkg.in/yaml.v3"

	sbf "github.com/bertof/go-sbf"
	"github.com/bertof/go-sbf/logger"
)

var l = logger.DefaultLogger.NewFacility("config", "filter descriptor loading")

// Descriptor is the on-disk (YAML) description of a filter, either
// explicitly sized or optimally sized from an expected load.
type Descriptor struct {
	// Optimal, when set, takes priority: Cells and Probes are derived
	// from ExpectedInserts/TargetFPP via sbf.NewOptimal.
	Optimal         bool    `yaml:"optimal"`
	ExpectedInserts int     `yaml:"expectedInserts,omitempty"`
	TargetFPP       float64 `yaml:"targetFPP,omitempty"`

	Cells        int    `yaml:"cells,omitempty"`
	Probes       int    `yaml:"probes" default:"4"`
	SaltLength   int    `yaml:"saltLength" default:"16"`
	HashFunction string `yaml:"hashFunction" default:"md5"`
	AreaCount    int    `yaml:"areaCount" default:"1"`

	// Metrics is a pointer so that an absent "metrics:" key in the
	// YAML document (which should default to true) is distinguishable
	// from an explicit "metrics: false".
	Metrics *bool `yaml:"metrics,omitempty"`
}

// MetricsEnabled reports whether the descriptor wants the metrics
// subsystem active, defaulting to true when unspecified.
func (d Descriptor) MetricsEnabled() bool {
	return d.Metrics == nil || *d.Metrics
}

func setDefaults(data interface{}) error {
	s := reflect.ValueOf(data).Elem()
	t := s.Type()

	for i := 0; i < s.NumField(); i++ {
		f := s.Field(i)
		tag := t.Field(i).Tag

		v := tag.Get("default")
		if len(v) == 0 {
			continue
		}

		switch f.Interface().(type) {
		case string:
			if f.String() == "" {
				f.SetString(v)
			}
		case int:
			if f.Int() == 0 {
				n, err := strconv.ParseInt(v, 10, 64)
				if err != nil {
					return err
				}
				f.SetInt(n)
			}
		default:
			panic(f.Type())
		}
	}
	return nil
}

// Load parses a YAML filter descriptor and fills in defaults for any
// field the document left unset.
func Load(r io.Reader) (Descriptor, error) {
	var d Descriptor
	if err := yaml.NewDecoder(r).Decode(&d); err != nil && err != io.EOF {
		return Descriptor{}, err
	}

	if err := setDefaults(&d); err != nil {
		return Descriptor{}, err
	}

	l.Debugf("loaded descriptor: %+v", d)
	return d, nil
}

// Save writes d as a YAML document.
func Save(w io.Writer, d Descriptor) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return err
	}
	return enc.Close()
}

func (d Descriptor) hashFunction() (sbf.HashFunction, error) {
	switch d.HashFunction {
	case "", "md5":
		return sbf.HashMD5, nil
	case "md4":
		return sbf.HashMD4, nil
	default:
		return 0, fmt.Errorf("config: unknown hash function %q", d.HashFunction)
	}
}

// Build constructs a filter from d. The cell width is fixed to uint16,
// which comfortably covers any area count a YAML descriptor is likely
// to specify; callers needing a narrower or wider cell should call
// sbf.New/sbf.NewOptimal directly.
func (d Descriptor) Build() (*sbf.SBF[uint16], error) {
	hf, err := d.hashFunction()
	if err != nil {
		return nil, err
	}

	if d.AreaCount <= 0 {
		return nil, fmt.Errorf("config: areaCount must be positive, got %d", d.AreaCount)
	}
	areaCount := uint16(d.AreaCount)

	var f *sbf.SBF[uint16]
	if d.Optimal {
		if d.ExpectedInserts <= 0 || d.TargetFPP <= 0 {
			return nil, fmt.Errorf("config: optimal descriptor requires expectedInserts and targetFPP")
		}
		f, err = sbf.NewOptimal[uint16](d.ExpectedInserts, d.TargetFPP, d.SaltLength, hf, areaCount)
	} else {
		if d.Cells <= 0 {
			return nil, fmt.Errorf("config: cells must be positive, got %d", d.Cells)
		}
		if d.MetricsEnabled() {
			f, err = sbf.New[uint16](d.Cells, d.Probes, d.SaltLength, hf, areaCount)
		} else {
			f, err = sbf.NewWithoutMetrics[uint16](d.Cells, d.Probes, d.SaltLength, hf, areaCount)
		}
	}
	if err != nil {
		return nil, err
	}

	l.Infof("built filter: cells=%d probes=%d areas=%d hash=%s", f.Len(), f.Probes(), f.AreaCount(), hf)
	return f, nil
}
