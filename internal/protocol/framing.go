package protocol

import (
	"bytes"
	"errors"
)

// ErrLineTooLong is reported once for each line that exceeds the limit.
var ErrLineTooLong = errors.New("line too long")

// LineBuffer accumulates bytes from a stream and yields complete
// newline-terminated lines. A read may carry part of a line or several lines.
type LineBuffer struct {
	buf      []byte
	max      int
	overflow bool // discarding until the next terminator
}

// NewLineBuffer returns a buffer that rejects lines longer than max bytes.
// max <= 0 means no limit.
func NewLineBuffer(max int) *LineBuffer {
	return &LineBuffer{max: max}
}

// Feed appends data and returns every line it completed, without the
// terminator or a trailing carriage return. The returned error is
// [ErrLineTooLong] if some line in data overflowed; the overflowing line is
// dropped and the lines around it are still returned.
func (b *LineBuffer) Feed(data []byte) ([]string, error) {
	var lines []string
	var err error

	for len(data) > 0 {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			if !b.overflow {
				b.buf = append(b.buf, data...)
				if b.max > 0 && len(b.buf) > b.max {
					b.buf = b.buf[:0]
					b.overflow = true
					err = ErrLineTooLong
				}
			}
			break
		}

		chunk := data[:i]
		data = data[i+1:]

		if b.overflow {
			b.overflow = false
			continue
		}

		b.buf = append(b.buf, chunk...)
		if b.max > 0 && len(b.buf) > b.max {
			b.buf = b.buf[:0]
			err = ErrLineTooLong
			continue
		}

		lines = append(lines, string(bytes.TrimSuffix(b.buf, []byte{'\r'})))
		b.buf = b.buf[:0]
	}

	return lines, err
}

// Pending returns the number of buffered bytes of an unfinished line.
func (b *LineBuffer) Pending() int {
	return len(b.buf)
}
