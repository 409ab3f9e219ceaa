// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 The hpgl authors

package hpgl

// Margins are the non-plottable borders of a sheet, in plotter units,
// expressed in the logical (top-left origin) frame.
type Margins struct {
	Top    int
	Right  int
	Bottom int
	Left   int
}

// Paper describes one sheet size a model can load. Extents are the full
// sheet in plotter units at 40 units/mm; Long runs along the larger
// dimension, Short along the smaller.
type Paper struct {
	Name             string
	Long             int
	Short            int
	LandscapeMargins Margins
	PortraitMargins  Margins

	// PageSizeCode is the PS instruction parameter selecting this
	// sheet, for models that require explicit page-size selection.
	// Empty when the model auto-detects.
	PageSizeCode string
}

// Capabilities are the live device properties fetched during handshake.
// They are unknown until the connection sequencer resolves them; no
// instruction requiring them may be encoded before that, other than the
// fixed bootstrap queries used to fetch them.
type Capabilities struct {
	BufferSize  int     // input buffer capacity in bytes
	ResolutionX float64 // plotter units per millimetre, x axis
	ResolutionY float64 // plotter units per millimetre, y axis
}

// Profile describes a plotter model's static capability table plus the
// live capabilities once resolved.
type Profile struct {
	Model        string
	Instructions []string
	Papers       []Paper

	// DefaultCaps are the conservative values assumed when the live
	// device does not answer the capability queries.
	DefaultCaps Capabilities

	caps *Capabilities
}

// Resolve records the live capabilities fetched from the device.
func (p *Profile) Resolve(c Capabilities) {
	p.caps = &c
}

// Caps returns the live capabilities, or false while unresolved.
func (p *Profile) Caps() (Capabilities, bool) {
	if p.caps == nil {
		return Capabilities{}, false
	}
	return *p.caps, true
}

// Supports reports whether the model implements the given mnemonic.
func (p *Profile) Supports(mnemonic string) bool {
	for _, m := range p.Instructions {
		if m == mnemonic {
			return true
		}
	}
	return false
}

// Paper looks up a sheet size by name.
func (p *Profile) Paper(name string) (Paper, bool) {
	for _, paper := range p.Papers {
		if paper.Name == name {
			return paper, true
		}
	}
	return Paper{}, false
}

// PaperNames lists the sheet sizes the model accepts.
func (p *Profile) PaperNames() []string {
	names := make([]string, 0, len(p.Papers))
	for _, paper := range p.Papers {
		names = append(names, paper.Name)
	}
	return names
}

// Sheet extents in plotter units at 40 units/mm.
var (
	paperA = Paper{ // ANSI A, 11 x 8.5 in
		Name:             "A",
		Long:             11176,
		Short:            8636,
		LandscapeMargins: Margins{Top: 80, Right: 380, Bottom: 80, Left: 380},
		PortraitMargins:  Margins{Top: 380, Right: 80, Bottom: 380, Left: 80},
	}
	paperB = Paper{ // ANSI B, 17 x 11 in
		Name:             "B",
		Long:             17272,
		Short:            11176,
		LandscapeMargins: Margins{Top: 80, Right: 380, Bottom: 80, Left: 380},
		PortraitMargins:  Margins{Top: 380, Right: 80, Bottom: 380, Left: 80},
		PageSizeCode:     "0",
	}
	paperA4 = Paper{ // ISO A4, 297 x 210 mm
		Name:             "A4",
		Long:             11880,
		Short:            8400,
		LandscapeMargins: Margins{Top: 80, Right: 430, Bottom: 80, Left: 430},
		PortraitMargins:  Margins{Top: 430, Right: 80, Bottom: 430, Left: 80},
	}
	paperA3 = Paper{ // ISO A3, 420 x 297 mm
		Name:             "A3",
		Long:             16840,
		Short:            11880,
		LandscapeMargins: Margins{Top: 80, Right: 430, Bottom: 80, Left: 430},
		PortraitMargins:  Margins{Top: 430, Right: 80, Bottom: 430, Left: 80},
		PageSizeCode:     "0",
	}
)

var fullInstructionSet = []string{
	InstrInitialize, InstrPenUp, InstrPenDown, InstrPlotAbsolute,
	InstrCircle, InstrEdgeRectangle, InstrLabel, InstrCharset,
	InstrSelectStandard, InstrCharSize, InstrDirection, InstrSlant,
	InstrLineType, InstrVelocity, InstrSelectPen, InstrRotate,
	InstrInputPoints, InstrOutputIdent, InstrOutputFactors,
	InstrOutputError,
}

// knownProfiles is the per-model capability table, keyed by the model
// string the device reports to the OI query.
var knownProfiles = map[string]Profile{
	"7440A": { // ColorPro
		Model: "7440A",
		Instructions: []string{
			InstrInitialize, InstrPenUp, InstrPenDown, InstrPlotAbsolute,
			InstrLabel, InstrCharset, InstrSelectStandard, InstrCharSize,
			InstrDirection, InstrSlant, InstrLineType, InstrVelocity,
			InstrSelectPen, InstrOutputIdent, InstrOutputError,
		},
		Papers:      []Paper{paperA, paperA4},
		DefaultCaps: Capabilities{BufferSize: 60, ResolutionX: 40, ResolutionY: 40},
	},
	"7470A": {
		Model: "7470A",
		Instructions: []string{
			InstrInitialize, InstrPenUp, InstrPenDown, InstrPlotAbsolute,
			InstrCircle, InstrLabel, InstrCharset, InstrSelectStandard,
			InstrCharSize, InstrDirection, InstrSlant, InstrLineType,
			InstrVelocity, InstrSelectPen, InstrOutputIdent,
			InstrOutputFactors, InstrOutputError,
		},
		Papers:      []Paper{paperA, paperA4},
		DefaultCaps: Capabilities{BufferSize: 255, ResolutionX: 40, ResolutionY: 40},
	},
	"7475A": {
		Model:        "7475A",
		Instructions: append(append([]string{}, fullInstructionSet...), InstrPageSize),
		Papers:       []Paper{paperA, paperB, paperA4, paperA3},
		DefaultCaps:  Capabilities{BufferSize: 1024, ResolutionX: 40, ResolutionY: 40},
	},
	"7550A": {
		Model:        "7550A",
		Instructions: append(append([]string{}, fullInstructionSet...), InstrPageSize),
		Papers:       []Paper{paperA, paperB, paperA4, paperA3},
		DefaultCaps:  Capabilities{BufferSize: 12800, ResolutionX: 40, ResolutionY: 40},
	},
}

// ProfileFor resolves the capability profile for a model string. An
// unknown model falls back to the generic profile rather than failing:
// the device is still usable with conservative defaults.
func ProfileFor(model string) *Profile {
	if p, ok := knownProfiles[model]; ok {
		prof := p
		return &prof
	}
	return GenericProfile()
}

// GenericProfile is the conservative fallback used for models missing
// from the capability table: a small buffer and the minimal drawing
// instruction set every HPGL device implements.
func GenericProfile() *Profile {
	return &Profile{
		Model: "generic",
		Instructions: []string{
			InstrInitialize, InstrPenUp, InstrPenDown, InstrPlotAbsolute,
			InstrLabel, InstrCharset, InstrSelectStandard, InstrCharSize,
			InstrDirection, InstrSlant, InstrLineType, InstrVelocity,
			InstrSelectPen,
		},
		Papers:      []Paper{paperA, paperA4},
		DefaultCaps: Capabilities{BufferSize: 60, ResolutionX: 40, ResolutionY: 40},
	}
}
