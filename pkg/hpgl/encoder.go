// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 The hpgl authors

package hpgl

import (
	"fmt"
	"math"
	"strconv"
)

// Encoder formats drawing intents into wire instructions for a resolved
// device. It owns the unit conversion and coordinate transform for one
// session's paper, orientation and unit system.
type Encoder struct {
	profile *Profile
	frame   Frame
	unit    Unit
}

// NewEncoder binds an encoder to a resolved profile and frame.
func NewEncoder(profile *Profile, frame Frame, unit Unit) *Encoder {
	return &Encoder{profile: profile, frame: frame, unit: unit}
}

// Frame returns the encoder's active frame.
func (e *Encoder) Frame() Frame {
	return e.frame
}

// caps returns the live capabilities, failing when the handshake has
// not resolved them yet.
func (e *Encoder) caps() (Capabilities, error) {
	c, ok := e.profile.Caps()
	if !ok {
		return Capabilities{}, ErrResolutionUnknown
	}
	return c, nil
}

// devicePoint converts a caller-unit logical point to device
// coordinates.
func (e *Encoder) devicePoint(p Point) (int, int, error) {
	c, err := e.caps()
	if err != nil {
		return 0, 0, err
	}
	x, err := ToPlotterUnits(p.X, e.unit, c.ResolutionX)
	if err != nil {
		return 0, 0, err
	}
	y, err := ToPlotterUnits(p.Y, e.unit, c.ResolutionY)
	if err != nil {
		return 0, 0, err
	}
	x, y = e.frame.ToAbsolute(x, y)
	return x, y, nil
}

// MoveTo lifts the pen and moves it to the given logical point.
func (e *Encoder) MoveTo(p Point) ([]Instruction, error) {
	x, y, err := e.devicePoint(p)
	if err != nil {
		return nil, err
	}
	return []Instruction{New(InstrPenUp, Int(float64(x)), Int(float64(y)))}, nil
}

// LinesOptions adjust line drawing. Pattern selects the LT line type;
// values outside [MinLinePattern, MaxLinePattern] silently fall back to
// the solid default.
type LinesOptions struct {
	Pattern int
}

// Lines encodes a polyline through the given logical points: a line
// type instruction, pen down, one or more absolute plot instructions,
// pen up. The point list is chunked greedily so that no single plot
// instruction exceeds the device's input buffer capacity; chunk
// boundaries never reorder or drop points.
func (e *Encoder) Lines(points []Point, opt LinesOptions) ([]Instruction, error) {
	if len(points) == 0 {
		return nil, nil
	}
	c, err := e.caps()
	if err != nil {
		return nil, err
	}

	pattern := opt.Pattern
	if pattern < MinLinePattern || pattern > MaxLinePattern {
		pattern = DefaultLinePattern
	}

	coords := make([]string, 0, len(points))
	for _, p := range points {
		x, y, err := e.devicePoint(p)
		if err != nil {
			return nil, err
		}
		coords = append(coords, strconv.Itoa(x)+","+strconv.Itoa(y))
	}

	chunks, err := chunkCoordinates(coords, len(InstrPlotAbsolute), c.BufferSize)
	if err != nil {
		return nil, err
	}

	instructions := []Instruction{
		New(InstrLineType, Int(float64(pattern))),
		New(InstrPenDown),
	}
	for _, chunk := range chunks {
		instructions = append(instructions, New(InstrPlotAbsolute, Raw(chunk)))
	}
	instructions = append(instructions, New(InstrPenUp))
	return instructions, nil
}

// chunkCoordinates splits comma-joined coordinate pairs so that each
// instruction (prefix + parameters + one terminator byte) fits within
// capacity. Pairs are added to the current chunk until the next
// addition would overflow, then a new chunk starts.
func chunkCoordinates(coords []string, prefixLen, capacity int) ([]string, error) {
	var chunks []string
	current := ""
	budget := capacity - prefixLen - 1 // terminator byte
	for _, pair := range coords {
		need := len(pair)
		if current != "" {
			need++ // joining comma
		}
		if len(current)+need > budget {
			if current == "" {
				return nil, fmt.Errorf("hpgl: coordinate pair %q cannot fit device buffer (%d bytes)", pair, capacity)
			}
			chunks = append(chunks, current)
			current = pair
			continue
		}
		if current == "" {
			current = pair
		} else {
			current += "," + pair
		}
	}
	if current != "" {
		chunks = append(chunks, current)
	}
	return chunks, nil
}

// Circle encodes a circle of the given radius (caller units) around
// the current pen position. A chord angle in degrees controls smoothness;
// non-positive values use the device default of 5 degrees.
func (e *Encoder) Circle(radius, chordAngle float64) ([]Instruction, error) {
	c, err := e.caps()
	if err != nil {
		return nil, err
	}
	r, err := ToPlotterUnits(radius, e.unit, c.ResolutionX)
	if err != nil {
		return nil, err
	}
	if chordAngle <= 0 {
		chordAngle = 5
	}
	return []Instruction{New(InstrCircle, Int(float64(r)), Int(chordAngle))}, nil
}

// Rectangle encodes a rectangle of the given width and height (caller
// units) drawn from the current pen position. Both dimensions must be
// positive.
func (e *Encoder) Rectangle(width, height float64) ([]Instruction, error) {
	if width == 0 {
		return nil, fmt.Errorf("hpgl: rectangle width missing")
	}
	if width < 0 || height <= 0 {
		return nil, fmt.Errorf("hpgl: invalid rectangle dimensions %gx%g", width, height)
	}
	c, err := e.caps()
	if err != nil {
		return nil, err
	}
	w, err := ToPlotterUnits(width, e.unit, c.ResolutionX)
	if err != nil {
		return nil, err
	}
	h, err := ToPlotterUnits(height, e.unit, c.ResolutionY)
	if err != nil {
		return nil, err
	}
	dx, dy := e.frame.ToRelative(w, h)
	return []Instruction{New(InstrEdgeRectangle, Int(float64(dx)), Int(float64(dy)))}, nil
}

// Base character cell size in centimetres, scaled by LabelOptions.Scale.
const (
	baseCharWidth  = 0.187
	baseCharHeight = 0.269
)

// LabelOptions adjust text rendering.
type LabelOptions struct {
	Charset  Charset
	Scale    float64 // character size multiplier, 1 when zero
	Rotation float64 // degrees, counterclockwise
	Slant    float64 // degrees from vertical
}

// Text encodes a text label: charset select and activate, character
// size, rotation direction, slant, then the transliterated label body.
// The label instruction is terminated by ETX rather than a semicolon,
// a fixed protocol rule.
//
// In portrait orientation 180 degrees are added to the rotation so the
// text stays upright under the mirrored axis.
func (e *Encoder) Text(text string, opt LabelOptions) ([]Instruction, error) {
	if _, err := e.caps(); err != nil {
		return nil, err
	}
	scale := opt.Scale
	if scale <= 0 {
		scale = 1
	}

	rotation := opt.Rotation
	if e.frame.Orientation == Portrait {
		rotation += 180
	}
	rad := rotation * math.Pi / 180
	slantRad := opt.Slant * math.Pi / 180

	return []Instruction{
		New(InstrCharset, Int(float64(opt.Charset))),
		New(InstrSelectStandard),
		New(InstrCharSize, Dec(baseCharWidth*scale), Dec(baseCharHeight*scale)),
		New(InstrDirection, Dec(math.Cos(rad)), Dec(math.Sin(rad))),
		New(InstrSlant, Dec(math.Tan(slantRad))),
		Label(EncodeText(text, opt.Charset)),
	}, nil
}

// Velocity encodes a pen velocity instruction, in cm/s. Values outside
// (0, MaxVelocity] fall back to the device maximum.
func (e *Encoder) Velocity(v float64) []Instruction {
	if v <= 0 || v > MaxVelocity {
		v = MaxVelocity
	}
	return []Instruction{New(InstrVelocity, Dec(v))}
}

// SelectPen encodes a pen select instruction. Pen 0 stows the pen.
func (e *Encoder) SelectPen(n int) []Instruction {
	return []Instruction{New(InstrSelectPen, Int(float64(n)))}
}
