package hpgl

import (
	"strings"
	"testing"
)

func TestDecodeLinkError(t *testing.T) {
	tests := []struct {
		code    int
		wantNil bool
		wantMsg string
	}{
		{0, true, ""},
		{10, false, "output request"},
		{11, false, "escape sequence"},
		{12, false, "device control"},
		{13, false, "out of range"},
		{14, false, "too many parameters"},
		{15, false, "framing"},
		{16, false, "overflow"},
		{42, false, "unknown error"},
		{-1, false, "unknown error"},
	}

	for _, tt := range tests {
		err := DecodeLinkError(tt.code)
		if tt.wantNil {
			if err != nil {
				t.Errorf("DecodeLinkError(%d) = %v, want nil", tt.code, err)
			}
			continue
		}
		if err == nil {
			t.Errorf("DecodeLinkError(%d) = nil, want error", tt.code)
			continue
		}
		if err.Code != tt.code {
			t.Errorf("DecodeLinkError(%d).Code = %d", tt.code, err.Code)
		}
		if !strings.Contains(err.Message, tt.wantMsg) {
			t.Errorf("DecodeLinkError(%d).Message = %q, want substring %q", tt.code, err.Message, tt.wantMsg)
		}
	}
}

func TestDecodeStatus(t *testing.T) {
	tests := []struct {
		name string
		word int
		want Status
	}{
		{"zero", 0, Status{}},
		{"ready with empty buffer", 0x18, Status{BufferEmpty: true, Ready: true}},
		{"roll paper", 0x01, Status{RollPaperLoaded: true}},
		{"cover open", 0x40, Status{CoverOpen: true}},
		{"all flags", 0x1FF, Status{
			RollPaperLoaded: true, CleanPaper: true, PaperAdvanced: true,
			BufferEmpty: true, Ready: true, ViewEngaged: true,
			CoverOpen: true, EmulateMode: true, ExpandMode: true,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DecodeStatus(tt.word); got != tt.want {
				t.Errorf("DecodeStatus(%#x) = %+v, want %+v", tt.word, got, tt.want)
			}
		})
	}
}
