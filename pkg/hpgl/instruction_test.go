package hpgl

import (
	"strconv"
	"strings"
	"testing"
)

func TestHPGLInteger(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want int
	}{
		{"zero", 0, 0},
		{"identity in range", 12345, 12345},
		{"negative identity", -20000, -20000},
		{"rounds nearest", 10.6, 11},
		{"rounds negative", -10.6, -11},
		{"clamps high", 40000, 32767},
		{"clamps low", -40000, -32768},
		{"max boundary", 32767, 32767},
		{"min boundary", -32768, -32768},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HPGLInteger(tt.in)
			if got != tt.want {
				t.Errorf("HPGLInteger(%v) = %d, want %d", tt.in, got, tt.want)
			}
			if got < MinInteger || got > MaxInteger {
				t.Errorf("HPGLInteger(%v) = %d, outside [%d, %d]", tt.in, got, MinInteger, MaxInteger)
			}
		})
	}
}

func TestHPGLDecimal(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want string
	}{
		{"zero", 0, "0.0000"},
		{"in range", 38.1, "38.1000"},
		{"negative", -12.5, "-12.5000"},
		{"clamps high", 500, "127.9999"},
		{"clamps low", -500, "-128.0000"},
		{"max boundary", 127.9999, "127.9999"},
		{"truncates extra digits", 1.23456789, "1.2346"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HPGLDecimal(tt.in)
			if got != tt.want {
				t.Errorf("HPGLDecimal(%v) = %q, want %q", tt.in, got, tt.want)
			}

			// Parsed back, the value must lie within the decimal range
			// and carry exactly four fractional digits.
			parsed, err := strconv.ParseFloat(got, 64)
			if err != nil {
				t.Fatalf("output %q does not parse: %v", got, err)
			}
			if parsed < MinDecimal || parsed > MaxDecimal {
				t.Errorf("parsed value %v outside [%v, %v]", parsed, MinDecimal, MaxDecimal)
			}
			dot := strings.IndexByte(got, '.')
			if dot < 0 || len(got)-dot-1 != 4 {
				t.Errorf("output %q does not have exactly 4 fractional digits", got)
			}
		})
	}
}

func TestInstructionString(t *testing.T) {
	tests := []struct {
		name  string
		instr Instruction
		want  string
	}{
		{"no params", New(InstrPenUp), "PU;"},
		{"int params", New(InstrPlotAbsolute, Int(100), Int(-200)), "PA100,-200;"},
		{"decimal params", New(InstrVelocity, Dec(38.1)), "VS38.1000;"},
		{"clamped param", New(InstrPlotAbsolute, Int(99999), Int(0)), "PA32767,0;"},
		{"label uses ETX", Label("HELLO"), "LBHELLO\x03"},
		{"raw param", New(InstrPlotAbsolute, Raw("1,2,3,4")), "PA1,2,3,4;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.instr.String()
			if got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
			if tt.instr.Len() != len(tt.want) {
				t.Errorf("Len() = %d, want %d", tt.instr.Len(), len(tt.want))
			}
		})
	}
}

func TestJoin(t *testing.T) {
	got := Join([]Instruction{New(InstrPenDown), New(InstrPlotAbsolute, Int(1), Int(2)), New(InstrPenUp)})
	want := "PD;PA1,2;PU;"
	if got != want {
		t.Errorf("Join() = %q, want %q", got, want)
	}
}
