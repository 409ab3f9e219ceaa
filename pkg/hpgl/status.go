// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 The hpgl authors

package hpgl

import "fmt"

// LinkError is a nonzero RS-232-C error condition reported by the
// ESC.E query.
type LinkError struct {
	Code    int
	Message string
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("hpgl: link error %d: %s", e.Code, e.Message)
}

var linkErrorMessages = map[int]string{
	10: "output request received before previous output finished",
	11: "invalid byte received after escape sequence initiator",
	12: "invalid byte received while parsing a device control instruction",
	13: "parameter out of range",
	14: "too many parameters received",
	15: "framing, parity or overrun error",
	16: "input buffer overflow",
}

// DecodeLinkError maps a numeric RS-232-C error code to a named
// condition. Code 0 means no error and yields nil; unknown codes map
// to a generic unknown-error condition rather than being dropped.
func DecodeLinkError(code int) *LinkError {
	if code == 0 {
		return nil
	}
	msg, ok := linkErrorMessages[code]
	if !ok {
		msg = "unknown error"
	}
	return &LinkError{Code: code, Message: msg}
}

// Status word bit masks, as documented for the ESC.O extended status
// query.
const (
	statusRollPaperLoaded = 1 << 0
	statusCleanPaper      = 1 << 1
	statusPaperAdvanced   = 1 << 2
	statusBufferEmpty     = 1 << 3
	statusReady           = 1 << 4
	statusViewEngaged     = 1 << 5
	statusCoverOpen       = 1 << 6
	statusEmulateMode     = 1 << 7
	statusExpandMode      = 1 << 8
)

// Status is the unpacked device status word.
type Status struct {
	RollPaperLoaded bool
	CleanPaper      bool
	PaperAdvanced   bool // paper advance used since last status check
	BufferEmpty     bool
	Ready           bool
	ViewEngaged     bool
	CoverOpen       bool
	EmulateMode     bool
	ExpandMode      bool
}

// DecodeStatus unpacks a status word into named flags.
func DecodeStatus(word int) Status {
	return Status{
		RollPaperLoaded: word&statusRollPaperLoaded != 0,
		CleanPaper:      word&statusCleanPaper != 0,
		PaperAdvanced:   word&statusPaperAdvanced != 0,
		BufferEmpty:     word&statusBufferEmpty != 0,
		Ready:           word&statusReady != 0,
		ViewEngaged:     word&statusViewEngaged != 0,
		CoverOpen:       word&statusCoverOpen != 0,
		EmulateMode:     word&statusEmulateMode != 0,
		ExpandMode:      word&statusExpandMode != 0,
	}
}
