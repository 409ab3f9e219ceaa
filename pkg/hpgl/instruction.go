// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 The hpgl authors

package hpgl

import (
	"math"
	"strconv"
	"strings"
)

// Terminator is the byte appended to an instruction on the wire.
type Terminator byte

// Instruction terminators. TermNone is used for single-letter RS-232-C
// escape sequences, which the device delimits by length alone.
const (
	TermInstruction Terminator = ';'
	TermLabel       Terminator = Terminator(ETX)
	TermEscape      Terminator = ':'
	TermNone        Terminator = 0
)

// HPGLInteger rounds v to the nearest integer and clamps it to the
// parameter range accepted by integer-valued instructions.
func HPGLInteger(v float64) int {
	n := int(math.Round(v))
	if n < MinInteger {
		return MinInteger
	}
	if n > MaxInteger {
		return MaxInteger
	}
	return n
}

// HPGLDecimal clamps v to the decimal parameter range and formats it
// with exactly four fractional digits, as the wire protocol expects.
func HPGLDecimal(v float64) string {
	if v < MinDecimal {
		v = MinDecimal
	}
	if v > MaxDecimal {
		v = MaxDecimal
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}

// Param is a single typed instruction parameter. Parameters serialize
// to wire text only at the transmit boundary, so the clamping rules
// stay testable independent of string formatting.
type Param interface {
	wire() string
}

type intParam int

func (p intParam) wire() string { return strconv.Itoa(int(p)) }

type decParam float64

func (p decParam) wire() string { return HPGLDecimal(float64(p)) }

type rawParam string

func (p rawParam) wire() string { return string(p) }

// Int builds an integer parameter, clamped to the HPGL integer range.
func Int(v float64) Param { return intParam(HPGLInteger(v)) }

// Dec builds a decimal parameter, clamped and formatted with four
// fractional digits at serialization time.
func Dec(v float64) Param { return decParam(v) }

// Raw builds a verbatim text parameter (label bodies, select codes).
func Raw(s string) Param { return rawParam(s) }

// Instruction is one device instruction: a mnemonic, typed parameters,
// and the terminator the device expects for that instruction family.
type Instruction struct {
	Mnemonic string
	Params   []Param
	Term     Terminator
}

// New builds a ';'-terminated HPGL instruction.
func New(mnemonic string, params ...Param) Instruction {
	return Instruction{Mnemonic: mnemonic, Params: params, Term: TermInstruction}
}

// Label builds an LB instruction carrying already-transliterated text,
// terminated by ETX per the protocol rule for label instructions.
func Label(text string) Instruction {
	return Instruction{Mnemonic: InstrLabel, Params: []Param{Raw(text)}, Term: TermLabel}
}

// String serializes the instruction to its wire form, terminator
// included. Label parameters are emitted verbatim, everything else is
// comma-separated.
func (in Instruction) String() string {
	var b strings.Builder
	b.WriteString(in.Mnemonic)
	for i, p := range in.Params {
		if i > 0 && in.Mnemonic != InstrLabel {
			b.WriteByte(',')
		}
		b.WriteString(p.wire())
	}
	if in.Term != TermNone {
		b.WriteByte(byte(in.Term))
	}
	return b.String()
}

// Len reports the encoded length in bytes, terminator included. The
// flow controller compares this against the device's free buffer space.
func (in Instruction) Len() int {
	return len(in.String())
}

// Join serializes a sequence of instructions into one wire string.
func Join(instructions []Instruction) string {
	var b strings.Builder
	for _, in := range instructions {
		b.WriteString(in.String())
	}
	return b.String()
}
