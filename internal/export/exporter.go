package export

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"time"

	"gitlab.com/tozd/go/errors"

	"github.com/zheng/csgraph/internal/display"
	"github.com/zheng/csgraph/internal/graph"
)

// Exporter generates a Markdown overview of a call graph
type Exporter struct {
	db *graph.Database

	callers map[string][]string
}

// NewExporter creates a new exporter
func NewExporter(db *graph.Database) *Exporter {
	e := &Exporter{db: db, callers: make(map[string][]string)}
	for _, name := range db.Names() {
		callees, _ := db.Callees(name)
		for _, c := range callees {
			e.callers[c] = append(e.callers[c], name)
		}
	}
	return e
}

// ExportOptions configures the export behavior
type ExportOptions struct {
	ProjectName    string
	IncludeMermaid bool
	DiagramLimit   int // most-called functions drawn in the diagram
	Generated      time.Time
}

// DefaultExportOptions returns default export options
func DefaultExportOptions() ExportOptions {
	return ExportOptions{
		ProjectName:    "Project",
		IncludeMermaid: true,
		DiagramLimit:   20,
	}
}

// Export writes the complete report
func (e *Exporter) Export(w io.Writer, opts ExportOptions) error {
	bw := bufio.NewWriter(w)

	generated := opts.Generated
	if generated.IsZero() {
		generated = time.Now()
	}

	fmt.Fprintf(bw, "# %s call graph\n\n", opts.ProjectName)
	fmt.Fprintf(bw, "> Generated: %s\n", generated.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(bw, "> Functions: %d | Calls: %d\n\n", e.db.Len(), e.db.EdgeCount())

	if opts.IncludeMermaid && e.db.Len() > 0 {
		e.writeDiagram(bw, opts.DiagramLimit)
	}

	fmt.Fprintf(bw, "---\n\n## Files\n\n")
	files, byFile := e.groupByFile()
	for _, file := range files {
		e.writeFileSection(bw, file, byFile[file])
	}

	e.writeImpactTable(bw)

	if err := bw.Flush(); err != nil {
		return errors.Errorf("write report: %w", err)
	}
	return nil
}

// groupByFile returns file names in first-seen order and the functions defined in each
func (e *Exporter) groupByFile() ([]string, map[string][]string) {
	var files []string
	byFile := make(map[string][]string)
	for _, name := range e.db.Names() {
		loc, _ := e.db.Location(name)
		if _, ok := byFile[loc.File]; !ok {
			files = append(files, loc.File)
		}
		byFile[loc.File] = append(byFile[loc.File], name)
	}
	return files, byFile
}

// writeDiagram draws the calls between the most-called functions
func (e *Exporter) writeDiagram(w io.Writer, limit int) {
	key := make(map[string]bool)
	for _, s := range e.hotSpots() {
		if len(key) >= limit {
			break
		}
		key[s.name] = true
	}
	if len(key) == 0 {
		return
	}

	fmt.Fprintf(w, "## Most-called functions\n\n```mermaid\nflowchart TB\n")
	for _, name := range e.db.Names() {
		if !key[name] {
			continue
		}
		callees, _ := e.db.Callees(name)
		for _, c := range callees {
			if key[c] {
				fmt.Fprintf(w, "    %s[\"%s\"] --> %s[\"%s\"]\n", display.NodeID(name), name, display.NodeID(c), c)
			}
		}
	}
	fmt.Fprintf(w, "```\n\n")
}

// writeFileSection writes a table of the functions defined in one file
func (e *Exporter) writeFileSection(w io.Writer, file string, functions []string) {
	fmt.Fprintf(w, "### %s\n\n", file)
	fmt.Fprintf(w, "| Function | Line | Called by | Calls |\n")
	fmt.Fprintf(w, "|----------|------|-----------|-------|\n")

	sorted := append([]string(nil), functions...)
	sort.Strings(sorted)
	for _, name := range sorted {
		loc, _ := e.db.Location(name)
		callees, _ := e.db.Callees(name)
		fmt.Fprintf(w, "| `%s` | %d | %d | %d |\n", name, loc.Line, len(e.callers[name]), len(callees))
	}
	fmt.Fprintf(w, "\n")
}

type hotSpot struct {
	name    string
	callers int
	callees int
}

// hotSpots lists called functions, most callers first
func (e *Exporter) hotSpots() []hotSpot {
	var stats []hotSpot
	for name, callers := range e.callers {
		callees, _ := e.db.Callees(name)
		stats = append(stats, hotSpot{name, len(callers), len(callees)})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].callers != stats[j].callers {
			return stats[i].callers > stats[j].callers
		}
		return stats[i].name < stats[j].name
	})
	return stats
}

// writeImpactTable writes a summary table for impact analysis
func (e *Exporter) writeImpactTable(w io.Writer) {
	fmt.Fprintf(w, "---\n\n## Change impact\n\n")
	fmt.Fprintf(w, "| Function | Location | Called by | Calls | Risk |\n")
	fmt.Fprintf(w, "|----------|----------|-----------|-------|------|\n")

	for _, s := range e.hotSpots() {
		loc := "-"
		if l, ok := e.db.Location(s.name); ok {
			loc = l.String()
		}
		fmt.Fprintf(w, "| `%s` | %s | %d | %d | %s |\n", s.name, loc, s.callers, s.callees, risk(s.callers))
	}
}

func risk(callers int) string {
	switch {
	case callers >= 5:
		return "high"
	case callers >= 3:
		return "medium"
	default:
		return "low"
	}
}
