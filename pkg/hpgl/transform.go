// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 The hpgl authors

package hpgl

// Orientation selects how the logical page maps onto the sheet.
type Orientation int

// Page orientations.
const (
	Landscape Orientation = iota
	Portrait
)

func (o Orientation) String() string {
	if o == Portrait {
		return "portrait"
	}
	return "landscape"
}

// ParseOrientation resolves a textual orientation name.
func ParseOrientation(s string) (Orientation, bool) {
	switch s {
	case "landscape":
		return Landscape, true
	case "portrait":
		return Portrait, true
	}
	return Landscape, false
}

// Point is a coordinate pair in caller units (top-left origin, y-down).
type Point struct {
	X, Y float64
}

// Frame maps logical coordinates onto a sheet of paper in a given
// orientation. HPGL's native origin is bottom-left with y growing up;
// the drawing API exposes the screen convention (top-left, y-down), so
// every coordinate-consuming instruction passes through this transform.
type Frame struct {
	Paper       Paper
	Orientation Orientation
}

// Margins returns the active orientation's margins.
func (f Frame) Margins() Margins {
	if f.Orientation == Portrait {
		return f.Paper.PortraitMargins
	}
	return f.Paper.LandscapeMargins
}

// ToAbsolute converts a plotter-unit point from the logical top-left
// y-down space to the device's coordinate system: margins are
// compensated, then one axis is mirrored depending on orientation.
func (f Frame) ToAbsolute(x, y int) (int, int) {
	m := f.Margins()
	x -= m.Left
	y -= m.Top
	if f.Orientation == Portrait {
		return f.Paper.Short - x, y
	}
	return x, f.Paper.Short - y
}

// ToLogical inverts ToAbsolute, recovering the logical point from a
// device-space point under the same paper and orientation.
func (f Frame) ToLogical(x, y int) (int, int) {
	m := f.Margins()
	if f.Orientation == Portrait {
		x = f.Paper.Short - x
	} else {
		y = f.Paper.Short - y
	}
	return x + m.Left, y + m.Top
}

// ToRelative converts a displacement vector. Vectors are translation
// invariant, so only the orientation's mirrored axis is negated.
func (f Frame) ToRelative(dx, dy int) (int, int) {
	if f.Orientation == Portrait {
		return -dx, dy
	}
	return dx, -dy
}

// PlottableArea returns the drawable extent in plotter units for the
// active orientation, margins excluded. Width runs along the logical
// x axis, height along logical y.
func (f Frame) PlottableArea() (width, height int) {
	m := f.Margins()
	if f.Orientation == Portrait {
		return f.Paper.Short - m.Left - m.Right, f.Paper.Long - m.Top - m.Bottom
	}
	return f.Paper.Long - m.Left - m.Right, f.Paper.Short - m.Top - m.Bottom
}
