package twitchirc

import (
	"bytes"
)

// maxPendingLineSize bounds the partial line kept between reads.
const maxPendingLineSize = 1 * 1024 * 1024 // 1MiB

// Decoder splits a byte stream into IRC lines. A read may end in the middle of a
// line, the remainder is kept until the next Feed.
// A Decoder is owned by a single receive loop and is not safe for concurrent use.
type Decoder struct {
	pending []byte

	// discarding skips the rest of a line that outgrew maxPendingLineSize
	discarding bool
}

// Feed consumes data and returns every line completed by it, in order.
// Empty lines are skipped. A partial line outgrowing maxPendingLineSize is
// dropped up to and including its newline.
func (d *Decoder) Feed(data []byte) []Message {
	if d.discarding {
		idx := bytes.IndexByte(data, '\n')
		if idx == -1 {
			return nil
		}

		data = data[idx+1:]
		d.discarding = false
	}

	d.pending = append(d.pending, data...)

	var messages []Message
	for {
		idx := bytes.IndexByte(d.pending, '\n')
		if idx == -1 {
			break
		}

		line := bytes.TrimRight(d.pending[:idx], "\r")
		d.pending = d.pending[idx+1:]

		if len(line) == 0 {
			continue
		}

		messages = append(messages, ParseLine(string(line)))
	}

	if len(d.pending) > maxPendingLineSize {
		d.pending = nil
		d.discarding = true
	}

	// release the consumed prefix of the backing array
	if len(d.pending) == 0 {
		d.pending = nil
	}

	return messages
}

// Pending returns the number of buffered bytes of an incomplete line.
func (d *Decoder) Pending() int {
	return len(d.pending)
}

// Reset drops any partial line, used when the underlying connection is replaced.
func (d *Decoder) Reset() {
	d.pending = nil
	d.discarding = false
}
