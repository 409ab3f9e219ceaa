package hpgl

import (
	"strconv"
	"strings"
	"testing"
)

// FuzzHPGLDecimal checks the clamping and formatting contract for
// arbitrary inputs: the output always parses, always lies within the
// decimal range, and always carries exactly four fractional digits.
func FuzzHPGLDecimal(f *testing.F) {
	f.Add(0.0)
	f.Add(127.9999)
	f.Add(-128.0)
	f.Add(1e18)
	f.Add(-1e18)
	f.Add(0.00005)

	f.Fuzz(func(t *testing.T, v float64) {
		if v != v { // NaN has no defined wire form
			t.Skip()
		}
		got := HPGLDecimal(v)
		parsed, err := strconv.ParseFloat(got, 64)
		if err != nil {
			t.Fatalf("HPGLDecimal(%v) = %q does not parse: %v", v, got, err)
		}
		if parsed < MinDecimal || parsed > MaxDecimal {
			t.Errorf("HPGLDecimal(%v) = %q, outside [%v, %v]", v, got, MinDecimal, MaxDecimal)
		}
		dot := strings.IndexByte(got, '.')
		if dot < 0 || len(got)-dot-1 != 4 {
			t.Errorf("HPGLDecimal(%v) = %q, not 4 fractional digits", v, got)
		}
	})
}

// FuzzHPGLInteger checks clamping for arbitrary inputs.
func FuzzHPGLInteger(f *testing.F) {
	f.Add(0.0)
	f.Add(32767.4)
	f.Add(-32768.4)
	f.Add(1e18)

	f.Fuzz(func(t *testing.T, v float64) {
		if v != v {
			t.Skip()
		}
		got := HPGLInteger(v)
		if got < MinInteger || got > MaxInteger {
			t.Errorf("HPGLInteger(%v) = %d, outside range", v, got)
		}
		if v >= MinInteger && v <= MaxInteger && v == float64(int(v)) && got != int(v) {
			t.Errorf("HPGLInteger(%v) = %d, want identity for in-range integers", v, got)
		}
	})
}

// FuzzResponseDecoder feeds arbitrary byte streams through the decoder
// and checks it never loses bytes: the completed responses plus the
// buffered remainder must account for every non-terminator byte.
func FuzzResponseDecoder(f *testing.F) {
	f.Add([]byte("512\r"))
	f.Add([]byte("7475A\r\n0\r"))
	f.Add([]byte{0x00, 0x0D, 0x0A, 0xFF})
	f.Add([]byte("no terminator"))

	f.Fuzz(func(t *testing.T, data []byte) {
		d := NewResponseDecoder()
		responses := d.Decode(data)

		kept := 0
		for _, r := range responses {
			kept += len(r)
		}
		kept += d.Buffered()

		expected := 0
		for _, b := range data {
			if b != CR && b != '\n' {
				expected++
			}
		}
		if kept != expected {
			t.Errorf("decoder kept %d bytes of %d", kept, expected)
		}
	})
}
