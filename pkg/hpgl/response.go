// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 The hpgl authors

package hpgl

// ResponseDecoder accumulates bytes from the single shared inbound
// stream and emits one logical response whenever a carriage return is
// observed. Device responses are ASCII and may arrive split across any
// number of read events; the channel carries no framing beyond the CR,
// so exactly one response may be outstanding at a time.
type ResponseDecoder struct {
	buf []byte
}

// NewResponseDecoder creates an empty response decoder.
func NewResponseDecoder() *ResponseDecoder {
	return &ResponseDecoder{buf: make([]byte, 0, 32)}
}

// DecodeByte feeds one inbound byte through the decoder. It returns
// the completed response and true when b terminates one; otherwise the
// byte is buffered. Line feeds are discarded, some devices emit CR LF.
func (d *ResponseDecoder) DecodeByte(b byte) (string, bool) {
	switch b {
	case CR:
		resp := string(d.buf)
		d.buf = d.buf[:0]
		return resp, true
	case '\n':
		return "", false
	}
	d.buf = append(d.buf, b)
	return "", false
}

// Decode feeds a chunk of inbound bytes, returning any responses
// completed within it.
func (d *ResponseDecoder) Decode(p []byte) []string {
	var out []string
	for _, b := range p {
		if resp, ok := d.DecodeByte(b); ok {
			out = append(out, resp)
		}
	}
	return out
}

// Reset discards any partially accumulated response.
func (d *ResponseDecoder) Reset() {
	d.buf = d.buf[:0]
}

// Buffered reports the number of bytes awaiting a terminator.
func (d *ResponseDecoder) Buffered() int {
	return len(d.buf)
}
