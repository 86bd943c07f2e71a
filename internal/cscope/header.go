package cscope

import (
	"context"
	"io"
	"strconv"
	"strings"

	slogctx "github.com/veqryn/slog-context"
	"gitlab.com/tozd/go/errors"
)

const headerTag = "cscope"

// readHeader parses the first line of the database:
//
//	cscope <version> <dir> [-c] [-T] [-q [<symbols>]] <trailer offset>
func readHeader(c *cursor) (Header, error) {
	var h Header

	line, err := c.NextLine()
	if errors.Is(err, io.EOF) {
		return h, errors.Errorf("%w: missing header line", ErrTruncatedInput)
	}
	if err != nil {
		return h, errors.Errorf("header: %w", err)
	}

	// Symbols start right after the header line
	h.SymsStart = c.Offset()

	fields := strings.Fields(line)
	if len(fields) == 0 || fields[0] != headerTag {
		return h, errors.Errorf("%w: not a cscope database", ErrMalformedHeader)
	}
	if len(fields) < 2 {
		return h, errors.Errorf("%w: missing version", ErrMalformedHeader)
	}
	h.Version, err = strconv.Atoi(fields[1])
	if err != nil {
		return h, errors.Errorf("%w: invalid version %q", ErrMalformedHeader, fields[1])
	}
	if len(fields) < 3 {
		return h, errors.Errorf("%w: missing source directory", ErrMalformedHeader)
	}
	h.Dir = fields[2]

	// Options come first, numbers last
	var nums []int
	for _, tok := range fields[3:] {
		if len(nums) == 0 && len(tok) == 2 && tok[0] == '-' {
			switch tok[1] {
			case 'c':
				h.Compressed = true
			case 'T':
				h.PrefixMatch = true
			case 'q':
				h.InvertedIndex = true
			default:
				return h, errors.Errorf("%w: unrecognized option %q", ErrMalformedHeader, tok)
			}
			continue
		}

		n, err := strconv.Atoi(tok)
		if err != nil || n < 0 {
			return h, errors.Errorf("%w: unexpected token %q", ErrMalformedHeader, tok)
		}
		nums = append(nums, n)
	}

	switch {
	case len(nums) == 1:
		h.Trailer = nums[0]
	case len(nums) == 2 && h.InvertedIndex:
		h.InvertedSymbols = nums[0]
		h.Trailer = nums[1]
	case len(nums) == 0:
		return h, errors.Errorf("%w: missing trailer offset", ErrMalformedHeader)
	default:
		return h, errors.Errorf("%w: unexpected numeric fields %v", ErrMalformedHeader, nums)
	}

	if h.Trailer < h.SymsStart {
		return h, errors.Errorf("%w: trailer offset %d precedes symbol data at %d", ErrMalformedHeader, h.Trailer, h.SymsStart)
	}

	return h, nil
}

// readTrailer parses the view path, source and include lists found at the trailer offset
func readTrailer(ctx context.Context, data []byte, h Header, maxLen int) (Trailer, error) {
	var t Trailer

	if h.Trailer > len(data) {
		return t, errors.Errorf("%w: trailer offset %d beyond end of %d-byte database", ErrTruncatedInput, h.Trailer, len(data))
	}
	c := newCursor(data, h.Trailer, maxLen)

	var err error
	if t.ViewPaths, err = readList(ctx, c, "viewpath"); err != nil {
		return t, err
	}
	if t.Sources, err = readList(ctx, c, "source"); err != nil {
		return t, err
	}

	n, err := readCount(c, "include")
	if err != nil {
		return t, err
	}

	// cscope writes the total size of the include names before the list
	sizeLine, err := trailerLine(c, "include size")
	if err != nil {
		return t, err
	}
	// Only Write uses the size, so an unreadable one is kept as 0
	if t.IncludeSize, err = strconv.Atoi(strings.TrimSpace(sizeLine)); err != nil {
		slogctx.Debug(ctx, "ignoring unreadable include size", "line", sizeLine, "error", err)
		t.IncludeSize = 0
	}

	t.Includes = make([]string, 0, n)
	for i := 0; i < n; i++ {
		line, err := trailerLine(c, "include")
		if err != nil {
			return t, err
		}
		slogctx.Debug(ctx, "trailer entry", "list", "include", "index", i+1, "count", n, "path", line)
		t.Includes = append(t.Includes, line)
	}

	return t, nil
}

func readList(ctx context.Context, c *cursor, what string) ([]string, error) {
	n, err := readCount(c, what)
	if err != nil {
		return nil, err
	}

	list := make([]string, 0, n)
	for i := 0; i < n; i++ {
		line, err := trailerLine(c, what)
		if err != nil {
			return nil, err
		}
		slogctx.Debug(ctx, "trailer entry", "list", what, "index", i+1, "count", n, "path", line)
		list = append(list, line)
	}
	return list, nil
}

func readCount(c *cursor, what string) (int, error) {
	line, err := trailerLine(c, what+" count")
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || n < 0 {
		return 0, errors.Errorf("%w: invalid %s count %q", ErrMalformedHeader, what, line)
	}
	return n, nil
}

func trailerLine(c *cursor, what string) (string, error) {
	line, err := c.NextLine()
	if errors.Is(err, io.EOF) {
		return "", errors.Errorf("%w: trailer ended before %s", ErrTruncatedInput, what)
	}
	if err != nil {
		return "", errors.Errorf("trailer %s: %w", what, err)
	}
	return line, nil
}
