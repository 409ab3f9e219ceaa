// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 The hpgl authors
//
// hpgl - HPGL Plotter Driver
//
// A CLI tool for driving HP Graphics Language pen plotters over
// RS-232-C serial links, directly or through a WebSocket bridge.

package main

import (
	"os"

	"github.com/djipco/hpgl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
