package impact

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zheng/csgraph/internal/cscope"
	"github.com/zheng/csgraph/internal/graph"
)

// sample call graph, all in main.c:
//
//	main -> parse_args, run
//	run -> step, log_msg
//	step -> log_msg, step
//	parse_args -> log_msg
func sample(t *testing.T) *Analyzer {
	t.Helper()

	defs := []struct {
		name  string
		line  int
		calls []string
	}{
		{"main", 3, []string{"parse_args", "run"}},
		{"run", 10, []string{"step", "log_msg"}},
		{"step", 20, []string{"log_msg", "step"}},
		{"parse_args", 30, []string{"log_msg"}},
	}

	file := &cscope.File{Name: "main.c", Mark: cscope.MarkFile}
	for _, d := range defs {
		fn := &cscope.Function{Symbol: cscope.Symbol{Name: d.name, Kind: cscope.FunctionDefinition, Line: d.line}}
		for i, c := range d.calls {
			fn.Calls = append(fn.Calls, cscope.Symbol{Name: c, Kind: cscope.FunctionCall, Line: d.line + i + 1})
		}
		file.Functions = append(file.Functions, fn)
	}

	db := graph.FromStore(&cscope.Store{Files: []*cscope.File{file}})
	tr, err := graph.NewTraverser(db)
	require.NoError(t, err)
	t.Cleanup(tr.Close)

	return NewAnalyzer(db, tr)
}

func names(entries []Entry) []string {
	var out []string
	for _, e := range entries {
		out = append(out, e.Name)
	}
	return out
}

func TestAnalyzeImpact(t *testing.T) {
	a := sample(t)

	r, err := a.AnalyzeImpact(context.Background(), "step", 3, 2)
	require.NoError(t, err)

	assert.Equal(t, "step", r.Target)
	require.NotNil(t, r.Location)
	assert.Equal(t, "main.c:20", r.Location.String())

	assert.Equal(t, []string{"run"}, names(r.DirectCallers))
	assert.Equal(t, []string{"main"}, names(r.IndirectCallers))
	assert.Equal(t, []string{"log_msg"}, names(r.DirectCallees))
	assert.Empty(t, r.IndirectCallees)

	assert.Equal(t, 2, r.IndirectCallers[0].Depth)
	assert.Nil(t, r.DirectCallees[0].Location)
}

func TestAnalyzeImpact_UndefinedCallee(t *testing.T) {
	a := sample(t)

	r, err := a.AnalyzeImpact(context.Background(), "log_msg", 1, 1)
	require.NoError(t, err)

	assert.Nil(t, r.Location)
	assert.Equal(t, []string{"run", "step", "parse_args"}, names(r.DirectCallers))
	assert.Empty(t, r.DirectCallees)
}

func TestAnalyzeImpact_Pattern(t *testing.T) {
	a := sample(t)

	r, err := a.AnalyzeImpact(context.Background(), "parse_*", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, "parse_args", r.Target)

	_, err = a.AnalyzeImpact(context.Background(), "*", 1, 1)
	assert.ErrorIs(t, err, ErrAmbiguousName)

	_, err = a.AnalyzeImpact(context.Background(), "nothing*", 1, 1)
	assert.ErrorIs(t, err, ErrFunctionNotFound)
}

func TestFormatMarkdown(t *testing.T) {
	a := sample(t)
	r, err := a.AnalyzeImpact(context.Background(), "run", 2, 1)
	require.NoError(t, err)

	md := r.FormatMarkdown()
	assert.Contains(t, md, "## Change impact: run\n")
	assert.Contains(t, md, "**Location:** main.c:10")
	assert.Contains(t, md, "| main | main.c:3 | 1 |")
	assert.Contains(t, md, "| log_msg | - | 1 |")
	assert.NotContains(t, md, "Indirect callers")
}

func TestFormatTree(t *testing.T) {
	a := sample(t)
	r, err := a.AnalyzeImpact(context.Background(), "main", 1, 1)
	require.NoError(t, err)

	assert.Equal(t,
		"Target\n"+
			"main.c:3   main\n"+
			"\n"+
			"Callers\n"+
			"└── (none)\n"+
			"\n"+
			"Callees (2)\n"+
			"├── main.c:30  parse_args\n"+
			"└── main.c:10  run\n",
		r.FormatTree())
}

func TestSummary(t *testing.T) {
	a := sample(t)
	r, err := a.AnalyzeImpact(context.Background(), "step", 2, 2)
	require.NoError(t, err)

	assert.Equal(t, "Target: step, Direct Callers: 1, Indirect Callers: 1, Direct Callees: 1, Indirect Callees: 0", r.Summary())
}
