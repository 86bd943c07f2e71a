package cscope

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	slogctx "github.com/veqryn/slog-context"
)

func TestReadHeader(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Header
	}{
		{
			name: "plain",
			line: "cscope 15 /src 0000000100",
			want: Header{Version: 15, Dir: "/src", Trailer: 100},
		},
		{
			name: "padded fields",
			line: "cscope 15 /home/dev/src               0000000100",
			want: Header{Version: 15, Dir: "/home/dev/src", Trailer: 100},
		},
		{
			name: "compression and prefix match",
			line: "cscope 15 /src -c -T 0000000100",
			want: Header{Version: 15, Dir: "/src", Compressed: true, PrefixMatch: true, Trailer: 100},
		},
		{
			name: "inverted index with symbol count",
			line: "cscope 15 /src -q 0000000042 0000000100",
			want: Header{Version: 15, Dir: "/src", InvertedIndex: true, InvertedSymbols: 42, Trailer: 100},
		},
		{
			name: "inverted index without symbol count",
			line: "cscope 15 /src -T -q 0000000100",
			want: Header{Version: 15, Dir: "/src", PrefixMatch: true, InvertedIndex: true, Trailer: 100},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCursor([]byte(tt.line+"\nrest\n"), 0, DefaultMaxLineLength)
			h, err := readHeader(c)
			require.NoError(t, err)

			tt.want.SymsStart = len(tt.line) + 1
			assert.Equal(t, tt.want, h)
		})
	}
}

func TestReadHeader_Malformed(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"missing tag", "15 /src 0000000100"},
		{"wrong tag", "ctags 15 /src 0000000100"},
		{"tag prefix only", "cscopex 15 /src 0000000100"},
		{"blank line", "   "},
		{"bad version", "cscope fifteen /src 0000000100"},
		{"missing version", "cscope"},
		{"missing dir", "cscope 15"},
		{"missing trailer", "cscope 15 /src -c"},
		{"unknown option", "cscope 15 /src -z 0000000100"},
		{"option after offset", "cscope 15 /src 0000000100 -c"},
		{"garbage offset", "cscope 15 /src 0x64"},
		{"two numbers without -q", "cscope 15 /src 0000000042 0000000100"},
		{"too many numbers", "cscope 15 /src -q 1 2 0000000100"},
		{"offset inside header", "cscope 15 /src 0000000003"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := readHeader(newCursor([]byte(tt.line+"\n"), 0, DefaultMaxLineLength))
			assert.ErrorIs(t, err, ErrMalformedHeader)
		})
	}
}

func TestReadHeader_EmptyInput(t *testing.T) {
	_, err := readHeader(newCursor(nil, 0, DefaultMaxLineLength))
	assert.ErrorIs(t, err, ErrTruncatedInput)
}

// database joins a header pointing at the given trailer text
func database(symbols, trailer string) []byte {
	head := func(off int) string { return fmt.Sprintf("cscope 15 /src %010d\n", off) }
	off := len(head(0)) + len(symbols)
	return []byte(head(off) + symbols + trailer)
}

func TestReadTrailer(t *testing.T) {
	data := database("\t@\n", "1\n/view\n2\na.c\nb.c\n2\n14\n/usr/include\nlocal/inc\n")

	s, err := Parse(context.Background(), data)
	require.NoError(t, err)

	assert.Equal(t, []string{"/view"}, s.Trailer.ViewPaths)
	assert.Equal(t, []string{"a.c", "b.c"}, s.Trailer.Sources)
	assert.Equal(t, 14, s.Trailer.IncludeSize)
	assert.Equal(t, []string{"/usr/include", "local/inc"}, s.Trailer.Includes)
}

func TestReadTrailer_UnreadableIncludeSize(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := slogctx.NewCtx(context.Background(), logger)

	s, err := Parse(ctx, database("", "0\n0\n1\nsize?\nstdio.h\n"))
	require.NoError(t, err)

	assert.Equal(t, 0, s.Trailer.IncludeSize)
	assert.Equal(t, []string{"stdio.h"}, s.Trailer.Includes)
	assert.Contains(t, logs.String(), "ignoring unreadable include size")
}

func TestReadTrailer_EmptyLists(t *testing.T) {
	s, err := Parse(context.Background(), database("", "0\n0\n0\n0\n"))
	require.NoError(t, err)

	assert.Empty(t, s.Trailer.ViewPaths)
	assert.Empty(t, s.Trailer.Sources)
	assert.Empty(t, s.Trailer.Includes)
	assert.Empty(t, s.Files)
}

func TestReadTrailer_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"missing list entries", database("", "2\n/only-one\n"), ErrTruncatedInput},
		{"missing source list", database("", "0\n"), ErrTruncatedInput},
		{"missing include size line", database("", "0\n0\n1\n"), ErrTruncatedInput},
		{"missing includes", database("", "0\n0\n1\n4\n"), ErrTruncatedInput},
		{"empty trailer", database("", ""), ErrTruncatedInput},
		{"non numeric count", database("", "zero\n"), ErrMalformedHeader},
		{"negative count", database("", "0\n-1\n"), ErrMalformedHeader},
		{"offset past end", []byte("cscope 15 /src 0000009999\n\t@\n"), ErrTruncatedInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Parse(context.Background(), tt.data)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, s)
		})
	}
}
