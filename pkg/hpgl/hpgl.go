// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 The hpgl authors

// Package hpgl implements the Hewlett-Packard Graphics Language wire
// protocol spoken by pen plotters over RS-232-C serial links.
//
// The package covers instruction encoding (numeric clamping, point-list
// chunking, label text with charset transliteration), unit conversion
// between metric/imperial and plotter units, the coordinate transform
// from screen-style top-left/y-down space to the device's bottom-left
// origin, device capability profiles, and decoding of the status and
// link-error words the device reports back.
//
// Session concerns (command queueing, flow control, handshake) live in
// the plotter package; this package is pure data and encoding.
package hpgl

// Control characters used on the wire.
const (
	ESC byte = 0x1B // prefixes RS-232-C device-control sequences
	ETX byte = 0x03 // terminates label instructions
	CR  byte = 0x0D // terminates device responses
	BS  byte = 0x08 // backspace, used in composite charset sequences
)

// RS-232-C device-control sequences. Single-letter forms need no
// terminator; parameterized forms are terminated by ':'.
const (
	EscLinkError     = "\x1B.E" // reply: ASCII decimal error code
	EscBufferSpace   = "\x1B.B" // reply: free input-buffer bytes
	EscBufferSize    = "\x1B.L" // reply: total input-buffer capacity
	EscIdentify      = "\x1B.A" // reply: model identification string
	EscStatus        = "\x1B.O" // reply: extended status word
	EscAbortGraphics = "\x1B.J" // discards partial device instructions
	EscAbortDevice   = "\x1B.K" // aborts all buffered device instructions
	EscReset         = "\x1B.R" // resets RS-232-C interface conditions
)

// HPGL instruction mnemonics referenced by the encoder and the
// connection sequencer. Each is a two-letter code followed by optional
// comma-separated parameters and a ';' terminator (ETX for LB).
const (
	InstrInitialize     = "IN"
	InstrPenUp          = "PU"
	InstrPenDown        = "PD"
	InstrPlotAbsolute   = "PA"
	InstrCircle         = "CI"
	InstrEdgeRectangle  = "ER"
	InstrLabel          = "LB"
	InstrCharset        = "CS"
	InstrSelectStandard = "SS"
	InstrCharSize       = "SI"
	InstrDirection      = "DI"
	InstrSlant          = "SL"
	InstrLineType       = "LT"
	InstrVelocity       = "VS"
	InstrSelectPen      = "SP"
	InstrRotate         = "RO"
	InstrInputPoints    = "IP"
	InstrPageSize       = "PS"
	InstrOutputIdent    = "OI"
	InstrOutputFactors  = "OF"
	InstrOutputError    = "OE"
)

// Numeric parameter limits defined by the language.
const (
	MinInteger = -32768
	MaxInteger = 32767

	MinDecimal = -128.0
	MaxDecimal = 127.9999
)

// Line pattern range accepted by the LT instruction. Out-of-range
// patterns fall back to DefaultLinePattern (solid).
const (
	MinLinePattern     = 0
	MaxLinePattern     = 7
	DefaultLinePattern = 7
)

// Pen velocity limits for the VS instruction, in cm/s. Out-of-range
// requests fall back to MaxVelocity.
const (
	MaxVelocity = 38.1
)
