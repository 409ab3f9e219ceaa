// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 The hpgl authors

package hpgl

import "strings"

// Charset identifies a device character set selectable with CS.
type Charset int

// Character sets with transliteration tables. CharsetANSI is the
// device default and needs no substitution.
const (
	CharsetANSI   Charset = 0
	CharsetGerman Charset = 31
	CharsetFrench Charset = 33
)

// charsetTables maps characters to the raw byte codes the device's
// alternate sets assign them. Some entries are composite sequences:
// base letter, backspace, then a diacritic overlay code.
var charsetTables = map[Charset]map[rune][]byte{
	CharsetANSI: nil,

	// ISO 646 French (NF Z 62-010) reassigns part of the ASCII range
	// to accented letters; characters without a dedicated code are
	// overstruck with a circumflex or diaeresis.
	CharsetFrench: {
		'à': {0x40},
		'°': {0x5B},
		'ç': {0x5C},
		'§': {0x5D},
		'é': {0x7B},
		'ù': {0x7C},
		'è': {0x7D},
		'¨': {0x7E},
		'â': {'a', BS, '^'},
		'ê': {'e', BS, '^'},
		'î': {'i', BS, '^'},
		'ô': {'o', BS, '^'},
		'û': {'u', BS, '^'},
		'ë': {'e', BS, 0x7E},
		'ï': {'i', BS, 0x7E},
		'ü': {'u', BS, 0x7E},
	},

	// ISO 646 German (DIN 66003).
	CharsetGerman: {
		'§': {0x40},
		'Ä': {0x5B},
		'Ö': {0x5C},
		'Ü': {0x5D},
		'ä': {0x7B},
		'ö': {0x7C},
		'ü': {0x7D},
		'ß': {0x7E},
	},
}

// KnownCharset reports whether a transliteration table exists for cs.
func KnownCharset(cs Charset) bool {
	_, ok := charsetTables[cs]
	return ok
}

// EncodeText substitutes each character present in the charset's table
// with its device byte code(s). Characters without a table entry pass
// through unchanged, and charset 0 is the identity transform.
func EncodeText(text string, cs Charset) string {
	table := charsetTables[cs]
	if table == nil {
		return text
	}
	var b strings.Builder
	for _, r := range text {
		if sub, ok := table[r]; ok {
			b.Write(sub)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
