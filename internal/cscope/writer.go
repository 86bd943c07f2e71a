package cscope

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"gitlab.com/tozd/go/errors"
)

// Write encodes s in the cscope cross-reference layout. The header trailer
// offset is recomputed; s.Header.SymsStart and s.Header.Trailer are ignored.
// Every symbol is written as its own line-number block.
func Write(w io.Writer, s *Store) error {
	var syms bytes.Buffer
	for _, f := range s.Files {
		fmt.Fprintf(&syms, "\t%c%s\n\n", fileMark(f), f.Name)
		for _, fn := range f.Functions {
			fmt.Fprintf(&syms, "%d \n\t%c%s\n()\n\n", fn.Line, MarkFunctionDef, fn.Name)
			for _, call := range fn.Calls {
				fmt.Fprintf(&syms, "%d \n\t%c%s\n();\n\n", call.Line, MarkFunctionCall, call.Name)
			}
		}
	}
	// cscope closes the symbol data with a nameless file
	fmt.Fprintf(&syms, "\t%c\n", MarkFile)

	header := formatHeader(s.Header, 0)
	trailer := len(header) + syms.Len()
	header = formatHeader(s.Header, trailer)

	var buf bytes.Buffer
	buf.WriteString(header)
	buf.Write(syms.Bytes())
	writeList(&buf, s.Trailer.ViewPaths)
	writeList(&buf, s.Trailer.Sources)

	incSize := s.Trailer.IncludeSize
	if incSize == 0 {
		for _, inc := range s.Trailer.Includes {
			incSize += len(inc) + 1
		}
	}
	fmt.Fprintf(&buf, "%d\n%d\n", len(s.Trailer.Includes), incSize)
	for _, inc := range s.Trailer.Includes {
		buf.WriteString(inc)
		buf.WriteByte('\n')
	}

	if _, err := w.Write(buf.Bytes()); err != nil {
		return errors.Errorf("write cscope database: %w", err)
	}
	return nil
}

func fileMark(f *File) byte {
	if f.Mark == 0 {
		return MarkFile
	}
	return f.Mark
}

// formatHeader pads the trailer offset to ten digits like cscope does, so the
// header length does not depend on the offset
func formatHeader(h Header, trailer int) string {
	version := h.Version
	if version == 0 {
		version = 15
	}
	dir := h.Dir
	if dir == "" {
		dir = "."
	}

	out := "cscope " + strconv.Itoa(version) + " " + dir
	if h.Compressed {
		out += " -c"
	}
	if h.PrefixMatch {
		out += " -T"
	}
	if h.InvertedIndex {
		out += fmt.Sprintf(" -q %010d", h.InvertedSymbols)
	}
	return out + fmt.Sprintf(" %010d\n", trailer)
}

func writeList(buf *bytes.Buffer, list []string) {
	fmt.Fprintf(buf, "%d\n", len(list))
	for _, s := range list {
		buf.WriteString(s)
		buf.WriteByte('\n')
	}
}
