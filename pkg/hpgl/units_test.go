package hpgl

import (
	"math"
	"testing"
)

func TestToPlotterUnits(t *testing.T) {
	tests := []struct {
		name       string
		value      float64
		unit       Unit
		resolution float64
		want       int
	}{
		{"one centimetre at 40/mm", 1, Metric, 40, 400},
		{"one inch at 40/mm", 1, Imperial, 40, 1016},
		{"fractional metric", 2.54, Metric, 40, 1016},
		{"zero", 0, Metric, 40, 0},
		{"negative", -1, Metric, 40, -400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToPlotterUnits(tt.value, tt.unit, tt.resolution)
			if err != nil {
				t.Fatalf("ToPlotterUnits: %v", err)
			}
			if got != tt.want {
				t.Errorf("ToPlotterUnits(%v, %v, %v) = %d, want %d", tt.value, tt.unit, tt.resolution, got, tt.want)
			}
		})
	}
}

func TestToPlotterUnitsUnresolvedResolution(t *testing.T) {
	if _, err := ToPlotterUnits(1, Metric, 0); err != ErrResolutionUnknown {
		t.Errorf("expected ErrResolutionUnknown, got %v", err)
	}
	if _, err := FromPlotterUnits(400, Metric, -1); err != ErrResolutionUnknown {
		t.Errorf("expected ErrResolutionUnknown, got %v", err)
	}
}

func TestUnitRoundTrip(t *testing.T) {
	for _, unit := range []Unit{Metric, Imperial} {
		for _, v := range []float64{0, 0.5, 1, 2.54, 12.7, 29.7} {
			pu, err := ToPlotterUnits(v, unit, 40)
			if err != nil {
				t.Fatalf("ToPlotterUnits: %v", err)
			}
			back, err := FromPlotterUnits(float64(pu), unit, 40)
			if err != nil {
				t.Fatalf("FromPlotterUnits: %v", err)
			}
			// Rounding to whole plotter units loses at most half a unit.
			tolerance := 0.5 / (40 * unit.millimetres())
			if math.Abs(back-v) > tolerance+1e-9 {
				t.Errorf("%v %v: round trip gave %v", v, unit, back)
			}
		}
	}
}
