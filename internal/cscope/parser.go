package cscope

import (
	"context"
	"io"
	"strconv"
	"strings"

	slogctx "github.com/veqryn/slog-context"
	"gitlab.com/tozd/go/errors"
)

// Option configures Parse
type Option func(*options)

type options struct {
	maxLineLength int
}

// WithMaxLineLength sets the longest record the parser accepts.
// Longer records fail the parse with ErrLineTooLong.
func WithMaxLineLength(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxLineLength = n
		}
	}
}

// Parse builds a Store from the raw bytes of a cscope database.
// The returned store does not reference data.
func Parse(ctx context.Context, data []byte, opts ...Option) (*Store, error) {
	o := options{maxLineLength: DefaultMaxLineLength}
	for _, opt := range opts {
		opt(&o)
	}

	header, err := readHeader(newCursor(data, 0, o.maxLineLength))
	if err != nil {
		return nil, err
	}

	trailer, err := readTrailer(ctx, data, header, o.maxLineLength)
	if err != nil {
		return nil, err
	}

	p := &parser{
		ctx:   ctx,
		cur:   newCursor(data[:header.Trailer], header.SymsStart, o.maxLineLength),
		store: &Store{Header: header, Trailer: trailer},
	}
	if err := p.run(); err != nil {
		return nil, err
	}

	st := p.store.Stats()
	slogctx.Debug(ctx, "parsed cscope database",
		"version", header.Version,
		"files", st.Files,
		"functions", st.Functions,
		"calls", st.Calls,
	)
	return p.store, nil
}

// parser walks the symbol region one file section at a time
type parser struct {
	ctx   context.Context
	cur   *cursor
	store *Store
}

func (p *parser) run() error {
	for !p.cur.Done() {
		line, err := p.cur.NextLine()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return errors.Errorf("file header: %w", err)
		}

		file := newFile(line)
		if err := p.loadFile(file, len(p.store.Files)); err != nil {
			return errors.Errorf("file %q: %w", file.Name, err)
		}

		// Nameless sections are an artifact of the format (cscope ends the symbol data with one)
		if file.Name == "" {
			continue
		}
		p.store.Files = append(p.store.Files, file)
	}
	return nil
}

// newFile builds a File from a <mark><path> line
func newFile(line string) *File {
	s := trimLeftSpace(line)
	if s == "" {
		return &File{}
	}
	return &File{Mark: s[0], Name: s[1:]}
}

// loadFile reads the line-number blocks of one file until the next file header
func (p *parser) loadFile(file *File, idx int) error {
	slogctx.Debug(p.ctx, "loading file", "file", file.Name)

	// Blank separator after the file name
	line, err := p.cur.NextLine()
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return err
	}
	if trimLeftSpace(line) != "" {
		p.cur.Unread()
	}

	var current *Function
	for {
		line, err := p.cur.NextLine()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		s := trimLeftSpace(line)
		if strings.HasPrefix(s, string(MarkFile)) {
			// Next file: leave its header for run
			p.cur.Unread()
			return nil
		}

		current, err = p.loadSymbols(file, idx, current, leadingInt(s))
		if err != nil {
			return err
		}
	}
}

// loadSymbols reads the symbol lines recorded for one source line:
//
//	<optional mark><symbol>
//	<non-symbol text>
//	...
//	<empty line>
//
// It returns the definition that subsequent calls belong to.
func (p *parser) loadSymbols(file *File, idx int, current *Function, lineno int) (*Function, error) {
	for {
		line, err := p.cur.NextLine()
		if errors.Is(err, io.EOF) {
			return current, nil
		}
		if err != nil {
			return current, err
		}
		if line == "" {
			return current, nil
		}

		// Spaces are padding, a tab introduces a mark
		s := strings.TrimLeft(line, " ")
		if len(s) < 2 || s[0] != '\t' || !IsMark(s[1]) {
			continue
		}

		mark, name := s[1], s[2:]
		if mark != MarkFunctionDef && mark != MarkFunctionCall {
			continue
		}
		if name == "" || isPunctMark(name) {
			continue
		}

		switch mark {
		case MarkFunctionCall:
			// Calls outside any definition are usually macro expansions
			if current != nil {
				current.Calls = append(current.Calls, Symbol{
					Name: name,
					Kind: FunctionCall,
					Line: lineno,
					File: idx,
				})
			}
		case MarkFunctionDef:
			current = &Function{Symbol: Symbol{
				Name: name,
				Kind: FunctionDefinition,
				Line: lineno,
				File: idx,
			}}
			file.Functions = append(file.Functions, current)
		}

		// <non-symbol text>
		if _, err := p.cur.NextLine(); err != nil {
			if errors.Is(err, io.EOF) {
				return current, nil
			}
			return current, err
		}
	}
}

// isPunctMark reports whether name is a lone punctuation mark such as the
// second '$' of "\t$$". Lettered marks are valid one-letter function names.
func isPunctMark(name string) bool {
	if len(name) != 1 || !IsMark(name[0]) {
		return false
	}
	c := name[0]
	return (c < 'a' || c > 'z') && (c < 'A' || c > 'Z')
}

func trimLeftSpace(s string) string {
	return strings.TrimLeft(s, " \t\r\v\f")
}

// leadingInt parses the decimal digits at the start of s, 0 when there are none
func leadingInt(s string) int {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}
