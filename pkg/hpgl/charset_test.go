package hpgl

import "testing"

func TestEncodeText(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		charset Charset
		want    string
	}{
		{"ansi identity", "Hello, plotter!", CharsetANSI, "Hello, plotter!"},
		{"ansi accents pass through", "café", CharsetANSI, "café"},
		{"french single code", "café", CharsetFrench, "caf\x7B"},
		{"french reassigned block", "àçé", CharsetFrench, "\x40\x5C\x7B"},
		{"french composite circumflex", "tête", CharsetFrench, "te\x08^te"},
		{"french composite diaeresis", "Noël", CharsetFrench, "Noe\x08\x7El"},
		{"german umlauts", "Grüße", CharsetGerman, "Gr\x7D\x7Ee"},
		{"untranslated pass through", "abc", CharsetFrench, "abc"},
		{"unknown charset is identity", "café", Charset(99), "café"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EncodeText(tt.text, tt.charset)
			if got != tt.want {
				t.Errorf("EncodeText(%q, %d) = %q, want %q", tt.text, tt.charset, got, tt.want)
			}
		})
	}
}

func TestKnownCharset(t *testing.T) {
	for _, cs := range []Charset{CharsetANSI, CharsetFrench, CharsetGerman} {
		if !KnownCharset(cs) {
			t.Errorf("charset %d should be known", cs)
		}
	}
	if KnownCharset(Charset(99)) {
		t.Error("charset 99 should not be known")
	}
}
