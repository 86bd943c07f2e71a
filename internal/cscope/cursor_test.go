package cscope

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursor_NextLine(t *testing.T) {
	c := newCursor([]byte("one\n\nthree\nlast"), 0, 16)

	for _, want := range []string{"one", "", "three", "last"} {
		line, err := c.NextLine()
		require.NoError(t, err)
		assert.Equal(t, want, line)
	}

	_, err := c.NextLine()
	assert.ErrorIs(t, err, io.EOF)
	assert.True(t, c.Done())
}

func TestCursor_StartsAtOffset(t *testing.T) {
	c := newCursor([]byte("skip\nkeep\n"), 5, 16)

	line, err := c.NextLine()
	require.NoError(t, err)
	assert.Equal(t, "keep", line)
	assert.Equal(t, 10, c.Offset())
}

func TestCursor_Unread(t *testing.T) {
	c := newCursor([]byte("\t@a.c\n\t@b.c\n"), 0, 16)

	first, err := c.NextLine()
	require.NoError(t, err)
	second, err := c.NextLine()
	require.NoError(t, err)
	assert.Equal(t, "\t@b.c", second)

	c.Unread()
	assert.Equal(t, len(first)+1, c.Offset())

	again, err := c.NextLine()
	require.NoError(t, err)
	assert.Equal(t, second, again)
}

func TestCursor_UnreadTwicePanics(t *testing.T) {
	c := newCursor([]byte("a\nb\n"), 0, 16)
	_, err := c.NextLine()
	require.NoError(t, err)

	c.Unread()
	assert.Panics(t, func() { c.Unread() })
}

func TestCursor_LineTooLong(t *testing.T) {
	c := newCursor([]byte("short\nthis line is too long\n"), 0, 8)

	line, err := c.NextLine()
	require.NoError(t, err)
	assert.Equal(t, "short", line)

	_, err = c.NextLine()
	assert.ErrorIs(t, err, ErrLineTooLong)
	assert.Equal(t, 6, c.Offset(), "offset must not move past a rejected line")
}

func TestCursor_DefaultLimit(t *testing.T) {
	c := newCursor(nil, 0, 0)
	assert.Equal(t, DefaultMaxLineLength, c.maxLen)

	_, err := c.NextLine()
	assert.ErrorIs(t, err, io.EOF)
}
