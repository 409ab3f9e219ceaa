// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 The hpgl authors

package hpgl

import (
	"errors"
	"math"
)

// Unit selects the measurement system for caller-facing coordinates.
type Unit int

// Supported measurement systems.
const (
	Metric   Unit = iota // centimetres
	Imperial             // inches
)

func (u Unit) String() string {
	if u == Imperial {
		return "imperial"
	}
	return "metric"
}

// millimetres returns the millimetre equivalent of one caller unit.
func (u Unit) millimetres() float64 {
	if u == Imperial {
		return 25.4
	}
	return 10
}

// ErrResolutionUnknown is returned when a conversion is requested
// before the device resolution has been fetched during handshake.
var ErrResolutionUnknown = errors.New("hpgl: device resolution not resolved")

// ToPlotterUnits converts a value in the given unit system to plotter
// units, rounded to the nearest integer. The resolution is the device's
// reported plotter units per millimetre.
func ToPlotterUnits(v float64, u Unit, resolution float64) (int, error) {
	if resolution <= 0 {
		return 0, ErrResolutionUnknown
	}
	return int(math.Round(v * u.millimetres() * resolution)), nil
}

// FromPlotterUnits converts a plotter-unit distance back to the given
// unit system.
func FromPlotterUnits(v float64, u Unit, resolution float64) (float64, error) {
	if resolution <= 0 {
		return 0, ErrResolutionUnknown
	}
	return v / resolution / u.millimetres(), nil
}
