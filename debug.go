// Copyright (C) 2014 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package sbf

import (
	"os"
	"strings"

	"github.com/bertof/go-sbf/logger"
)

var l = logger.DefaultLogger.NewFacility("sbf", "spatial Bloom filter core")

func init() {
	trace := os.Getenv("SBFTRACE")
	l.SetDebug(strings.Contains(trace, "sbf") || trace == "all")
}
