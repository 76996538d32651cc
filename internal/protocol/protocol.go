// Package protocol implements the newline-delimited JSON framing
// spoken between the quiz server and its clients.
package protocol

import (
	"bytes"
	"encoding/json"
)

// DefaultMaxLineBytes bounds the size of a single inbound line so a
// peer cannot grow the carry-over buffer without ever sending a
// delimiter.
const DefaultMaxLineBytes = 8 << 10

// Message is one decoded protocol message. Raw holds the complete
// JSON document for a second, type-directed unmarshal.
type Message struct {
	Type string
	Raw  json.RawMessage
}

// Encode marshals v and appends the line delimiter.
func Encode(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// Decoder splits an incoming byte stream into protocol messages,
// keeping the trailing partial line between calls to Feed.
//
// The zero value is ready to use.
type Decoder struct {
	// MaxLineBytes caps the length of a single line. Zero means
	// DefaultMaxLineBytes.
	MaxLineBytes int

	buf     []byte
	discard bool
}

// Feed appends chunk to the carry-over buffer and returns every
// complete message found in it. Malformed lines are skipped; a
// framing problem never tears down a connection.
func (d *Decoder) Feed(chunk []byte) []Message {
	d.buf = append(d.buf, chunk...)

	var msgs []Message
	for {
		i := bytes.IndexByte(d.buf, '\n')
		if i < 0 {
			break
		}
		line := d.buf[:i]
		d.buf = d.buf[i+1:]

		if d.discard {
			// Tail of an overlong line, drop it.
			d.discard = false
			continue
		}
		if msg, ok := decodeLine(line); ok {
			msgs = append(msgs, msg)
		}
	}

	if !d.discard && len(d.buf) > d.maxLineBytes() {
		d.buf = nil
		d.discard = true
	}

	return msgs
}

// Buffered returns the size of the carried-over partial line.
func (d *Decoder) Buffered() int {
	return len(d.buf)
}

func (d *Decoder) maxLineBytes() int {
	if d.MaxLineBytes > 0 {
		return d.MaxLineBytes
	}
	return DefaultMaxLineBytes
}

func decodeLine(line []byte) (Message, bool) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(line, &env); err != nil {
		return Message{}, false
	}

	// Raw must outlive the decoder's internal buffer.
	raw := make(json.RawMessage, len(line))
	copy(raw, line)

	return Message{Type: env.Type, Raw: raw}, true
}
