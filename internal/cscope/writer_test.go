package cscope

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleStore() *Store {
	return &Store{
		Header: Header{Version: 15, Dir: "/work", Compressed: true, InvertedIndex: true, InvertedSymbols: 7},
		Trailer: Trailer{
			Sources:  []string{"a.c", "b.c"},
			Includes: []string{"a.h"},
		},
		Files: []*File{
			{Name: "a.c", Mark: MarkFile, Functions: []*Function{
				{
					Symbol: Symbol{Name: "f", Kind: FunctionDefinition, Line: 1, File: 0},
					Calls: []Symbol{
						{Name: "g", Kind: FunctionCall, Line: 2, File: 0},
						{Name: "h", Kind: FunctionCall, Line: 3, File: 0},
					},
				},
			}},
			{Name: "b.c", Mark: MarkFile, Functions: []*Function{
				{
					Symbol: Symbol{Name: "g", Kind: FunctionDefinition, Line: 10, File: 1},
					Calls:  []Symbol{{Name: "h", Kind: FunctionCall, Line: 11, File: 1}},
				},
			}},
		},
	}
}

func TestWrite_ParsesBack(t *testing.T) {
	in := sampleStore()

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, in))

	out, err := Parse(context.Background(), buf.Bytes())
	require.NoError(t, err)

	assert.Equal(t, in.Files, out.Files)
	assert.Equal(t, in.Trailer.Sources, out.Trailer.Sources)
	assert.Equal(t, in.Trailer.Includes, out.Trailer.Includes)
	assert.Equal(t, 4, out.Trailer.IncludeSize)
	assert.True(t, out.Header.Compressed)
	assert.Equal(t, 7, out.Header.InvertedSymbols)
	assert.Equal(t, "/work", out.Header.Dir)
	assert.Equal(t, buf.Len()-len("0\n2\na.c\nb.c\n1\n4\na.h\n"), out.Header.Trailer)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cscope.out")

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleStore()))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	s, err := Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, Stats{Files: 2, Functions: 2, Calls: 3}, s.Stats())
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "nope.out"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cscope.out")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	_, err := Load(context.Background(), path)
	assert.ErrorIs(t, err, ErrTruncatedInput)
}
