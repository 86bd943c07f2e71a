package cscope

// Kind represents the kind of a recorded symbol occurrence
type Kind uint8

const (
	FunctionDefinition Kind = iota + 1
	FunctionCall
)

// Mark bytes used by the cscope cross-reference format
const (
	MarkFile         = '@'
	MarkFunctionDef  = '$'
	MarkFunctionCall = '`'
)

// marks is every mark byte the database may place after a tab.
// Only MarkFunctionDef and MarkFunctionCall produce symbols.
const marks = "@$`}#)~=;ceglmpstu"

// IsMark reports whether c is a recognized mark byte
func IsMark(c byte) bool {
	for i := 0; i < len(marks); i++ {
		if marks[i] == c {
			return true
		}
	}
	return false
}

func (k Kind) String() string {
	switch k {
	case FunctionDefinition:
		return "definition"
	case FunctionCall:
		return "call"
	default:
		return "unknown"
	}
}

// Symbol is one occurrence of a function name in the database
type Symbol struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
	Line int    `json:"line"`
	File int    `json:"file"` // index into Store.Files
}

// Function is a function definition together with the calls its body makes
type Function struct {
	Symbol
	Calls []Symbol `json:"calls"`
}

// File is one source file section of the database
type File struct {
	Name      string      `json:"name"`
	Mark      byte        `json:"mark"`
	Functions []*Function `json:"functions"`
}

// Header is the database prolog
type Header struct {
	Version         int    `json:"version"`
	Dir             string `json:"dir"`
	Compressed      bool   `json:"compressed"`     // -c
	PrefixMatch     bool   `json:"prefix_match"`   // -T
	InvertedIndex   bool   `json:"inverted_index"` // -q
	InvertedSymbols int    `json:"inverted_symbols"`
	SymsStart       int    `json:"syms_start"`
	Trailer         int    `json:"trailer"`
}

// Trailer is the database epilog
type Trailer struct {
	ViewPaths   []string `json:"view_paths"`
	Sources     []string `json:"sources"`
	IncludeSize int      `json:"include_size"`
	Includes    []string `json:"includes"`
}

// Store holds every file parsed from a database. It is not modified after Parse returns.
type Store struct {
	Header  Header  `json:"header"`
	Trailer Trailer `json:"trailer"`
	Files   []*File `json:"files"`
}

// FileOf returns the file that owns sym, or nil if the index is out of range
func (s *Store) FileOf(sym Symbol) *File {
	if sym.File < 0 || sym.File >= len(s.Files) {
		return nil
	}
	return s.Files[sym.File]
}

// Stats counts what the store holds
type Stats struct {
	Files     int
	Functions int
	Calls     int
}

// Stats returns counts of files, function definitions and calls
func (s *Store) Stats() Stats {
	st := Stats{Files: len(s.Files)}
	for _, f := range s.Files {
		st.Functions += len(f.Functions)
		for _, fn := range f.Functions {
			st.Calls += len(fn.Calls)
		}
	}
	return st
}
