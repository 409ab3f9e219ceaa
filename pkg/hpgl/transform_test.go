package hpgl

import "testing"

func TestToAbsolute(t *testing.T) {
	paper := Paper{
		Name:             "A4",
		Long:             11880,
		Short:            8400,
		LandscapeMargins: Margins{Top: 80, Right: 430, Bottom: 80, Left: 430},
		PortraitMargins:  Margins{Top: 430, Right: 80, Bottom: 430, Left: 80},
	}

	tests := []struct {
		name         string
		orientation  Orientation
		x, y         int
		wantX, wantY int
	}{
		{"landscape origin", Landscape, 430, 80, 0, 8400},
		{"landscape flips y", Landscape, 430, 8480, 0, 0},
		{"landscape interior", Landscape, 1430, 1080, 1000, 7400},
		{"portrait origin", Portrait, 80, 430, 8400, 0},
		{"portrait flips x", Portrait, 8480, 430, 0, 0},
		{"portrait interior", Portrait, 1080, 1430, 7400, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Frame{Paper: paper, Orientation: tt.orientation}
			gotX, gotY := f.ToAbsolute(tt.x, tt.y)
			if gotX != tt.wantX || gotY != tt.wantY {
				t.Errorf("ToAbsolute(%d, %d) = (%d, %d), want (%d, %d)",
					tt.x, tt.y, gotX, gotY, tt.wantX, tt.wantY)
			}
		})
	}
}

// ToAbsolute composed with ToLogical must recover the original point
// for every paper in every profile, in both orientations.
func TestCoordinateRoundTrip(t *testing.T) {
	points := [][2]int{{0, 0}, {100, 200}, {5000, 3000}, {-50, 9000}}

	for model, profile := range knownProfiles {
		for _, paper := range profile.Papers {
			for _, orientation := range []Orientation{Landscape, Portrait} {
				f := Frame{Paper: paper, Orientation: orientation}
				for _, p := range points {
					ax, ay := f.ToAbsolute(p[0], p[1])
					lx, ly := f.ToLogical(ax, ay)
					if lx != p[0] || ly != p[1] {
						t.Errorf("%s/%s/%s: (%d,%d) -> (%d,%d) -> (%d,%d)",
							model, paper.Name, orientation, p[0], p[1], ax, ay, lx, ly)
					}
				}
			}
		}
	}
}

func TestToRelative(t *testing.T) {
	f := Frame{Paper: paperA4}

	f.Orientation = Landscape
	if dx, dy := f.ToRelative(10, 20); dx != 10 || dy != -20 {
		t.Errorf("landscape ToRelative(10, 20) = (%d, %d), want (10, -20)", dx, dy)
	}

	f.Orientation = Portrait
	if dx, dy := f.ToRelative(10, 20); dx != -10 || dy != 20 {
		t.Errorf("portrait ToRelative(10, 20) = (%d, %d), want (-10, 20)", dx, dy)
	}
}

func TestPlottableArea(t *testing.T) {
	f := Frame{Paper: paperA4, Orientation: Landscape}
	w, h := f.PlottableArea()
	if w != 11880-430-430 || h != 8400-80-80 {
		t.Errorf("landscape area = (%d, %d)", w, h)
	}

	f.Orientation = Portrait
	w, h = f.PlottableArea()
	if w != 8400-80-80 || h != 11880-430-430 {
		t.Errorf("portrait area = (%d, %d)", w, h)
	}
}

func TestParseOrientation(t *testing.T) {
	if o, ok := ParseOrientation("portrait"); !ok || o != Portrait {
		t.Errorf("ParseOrientation(portrait) = %v, %v", o, ok)
	}
	if o, ok := ParseOrientation("landscape"); !ok || o != Landscape {
		t.Errorf("ParseOrientation(landscape) = %v, %v", o, ok)
	}
	if _, ok := ParseOrientation("sideways"); ok {
		t.Error("ParseOrientation(sideways) should fail")
	}
}
