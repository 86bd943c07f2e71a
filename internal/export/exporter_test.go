package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zheng/csgraph/internal/cscope"
	"github.com/zheng/csgraph/internal/graph"
)

func sampleDB() *graph.Database {
	mk := func(name string, line int, calls ...string) *cscope.Function {
		fn := &cscope.Function{Symbol: cscope.Symbol{Name: name, Kind: cscope.FunctionDefinition, Line: line}}
		for _, c := range calls {
			fn.Calls = append(fn.Calls, cscope.Symbol{Name: c, Kind: cscope.FunctionCall, Line: line + 1})
		}
		return fn
	}

	s := &cscope.Store{Files: []*cscope.File{
		{Name: "main.c", Functions: []*cscope.Function{
			mk("main", 3, "a", "b", "c", "log"),
			mk("a", 10, "log", "c"),
		}},
		{Name: "util.c", Functions: []*cscope.Function{
			mk("b", 1, "log", "c"),
			mk("c", 8, "log"),
			mk("d", 12, "log"),
		}},
	}}
	return graph.FromStore(s)
}

func TestExport(t *testing.T) {
	var buf bytes.Buffer
	opts := DefaultExportOptions()
	opts.ProjectName = "demo"
	opts.Generated = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, NewExporter(sampleDB()).Export(&buf, opts))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "# demo call graph\n\n> Generated: 2024-05-01 12:00:00\n> Functions: 5 | Calls: 10\n"))
	assert.Contains(t, out, "### main.c\n")
	assert.Contains(t, out, "### util.c\n")
	assert.Contains(t, out, "| `main` | 3 | 0 | 4 |\n")
	assert.Contains(t, out, "| `c` | 8 | 3 | 1 |\n")

	assert.Contains(t, out, "| `log` | - | 5 | 0 | high |\n")
	assert.Contains(t, out, "| `c` | util.c:8 | 3 | 1 | medium |\n")
	assert.Contains(t, out, "| `a` | main.c:10 | 1 | 2 | low |\n")
	assert.NotContains(t, out, "| `main` | main.c:3")

	assert.Contains(t, out, "```mermaid\nflowchart TB\n")
	assert.Contains(t, out, "    n_a[\"a\"] --> n_log[\"log\"]\n")
}

func TestExport_HotSpotOrder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewExporter(sampleDB()).Export(&buf, DefaultExportOptions()))
	out := buf.String()

	impact := out[strings.Index(out, "## Change impact"):]
	assert.Less(t, strings.Index(impact, "`log`"), strings.Index(impact, "`c`"))
	assert.Less(t, strings.Index(impact, "`c`"), strings.Index(impact, "`a`"))
}

func TestExport_DiagramLimit(t *testing.T) {
	var buf bytes.Buffer
	opts := DefaultExportOptions()
	opts.DiagramLimit = 1

	require.NoError(t, NewExporter(sampleDB()).Export(&buf, opts))
	assert.NotContains(t, buf.String(), "-->")
}

func TestExport_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewExporter(graph.FromStore(&cscope.Store{})).Export(&buf, DefaultExportOptions()))

	assert.Contains(t, buf.String(), "> Functions: 0 | Calls: 0\n")
	assert.NotContains(t, buf.String(), "mermaid")
}
