package cscope

import (
	"bytes"
	"io"

	"gitlab.com/tozd/go/errors"
)

// DefaultMaxLineLength matches the line buffer of the cscope reader this tool replaces
const DefaultMaxLineLength = 1024

// cursor reads newline-terminated records from an in-memory buffer
type cursor struct {
	data    []byte
	off     int
	maxLen  int
	lastLen int // bytes consumed by the last NextLine, -1 when nothing can be un-read
}

func newCursor(data []byte, off, maxLen int) *cursor {
	if maxLen <= 0 {
		maxLen = DefaultMaxLineLength
	}
	return &cursor{data: data, off: off, maxLen: maxLen, lastLen: -1}
}

// NextLine returns the next record without its terminator.
// io.EOF is returned once the offset reaches the end of the buffer.
func (c *cursor) NextLine() (string, error) {
	if c.off >= len(c.data) {
		c.lastLen = -1
		return "", io.EOF
	}

	rest := c.data[c.off:]
	n := bytes.IndexByte(rest, '\n')
	consumed := n + 1
	if n < 0 {
		n = len(rest)
		consumed = n
	}

	if n > c.maxLen {
		return "", errors.Errorf("%w: %d bytes at offset %d (limit %d)", ErrLineTooLong, n, c.off, c.maxLen)
	}

	line := string(rest[:n])
	c.off += consumed
	c.lastLen = consumed
	return line, nil
}

// Unread moves the offset back over the last record returned by NextLine.
// It can only be used once per NextLine.
func (c *cursor) Unread() {
	if c.lastLen < 0 {
		panic("cscope: Unread without a preceding NextLine")
	}
	c.off -= c.lastLen
	c.lastLen = -1
}

// Offset returns the current byte offset
func (c *cursor) Offset() int {
	return c.off
}

// Done reports whether the cursor has consumed the whole buffer
func (c *cursor) Done() bool {
	return c.off >= len(c.data)
}
