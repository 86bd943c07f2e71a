package impact

import (
	"context"
	"fmt"
	"strings"

	"github.com/gobwas/glob"
	"gitlab.com/tozd/go/errors"

	"github.com/zheng/csgraph/internal/graph"
)

var (
	ErrFunctionNotFound = errors.Base("function not found")
	ErrAmbiguousName    = errors.Base("ambiguous function name")
)

// Analyzer performs impact analysis on the call graph
type Analyzer struct {
	db *graph.Database
	tr *graph.Traverser
}

// NewAnalyzer creates a new impact analyzer. tr must traverse db.
func NewAnalyzer(db *graph.Database, tr *graph.Traverser) *Analyzer {
	return &Analyzer{db: db, tr: tr}
}

// Entry is one function affected by a change
type Entry struct {
	Name     string          `json:"name"`
	Depth    int             `json:"depth"`
	Location *graph.Location `json:"location,omitempty"`
}

// Report represents the impact analysis of a function change
type Report struct {
	Target          string          `json:"target"`
	Location        *graph.Location `json:"location,omitempty"`
	DirectCallers   []Entry         `json:"direct_callers"`
	IndirectCallers []Entry         `json:"indirect_callers"`
	DirectCallees   []Entry         `json:"direct_callees"`
	IndirectCallees []Entry         `json:"indirect_callees"`
}

// AnalyzeImpact collects the distinct functions within upstreamDepth callers
// and downstreamDepth callees of name. A name containing glob characters is
// resolved against the defined functions first and must match exactly one.
func (a *Analyzer) AnalyzeImpact(ctx context.Context, name string, upstreamDepth, downstreamDepth int) (*Report, error) {
	target, err := a.resolve(name)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Target:   target,
		Location: a.location(target),
	}

	callers, err := a.tr.Query(ctx, target, graph.Callers, upstreamDepth)
	if err != nil {
		return nil, errors.Errorf("failed to get upstream callers: %w", err)
	}
	report.DirectCallers, report.IndirectCallers = a.split(target, callers, func(e graph.Edge) string { return e.From })

	callees, err := a.tr.Query(ctx, target, graph.Callees, downstreamDepth)
	if err != nil {
		return nil, errors.Errorf("failed to get downstream callees: %w", err)
	}
	report.DirectCallees, report.IndirectCallees = a.split(target, callees, func(e graph.Edge) string { return e.To })

	return report, nil
}

func (a *Analyzer) resolve(name string) (string, error) {
	if !strings.ContainsAny(name, "*?[{") || a.db.Has(name) {
		return name, nil
	}

	g, err := glob.Compile(name)
	if err != nil {
		return "", errors.Errorf("invalid pattern %q: %w", name, err)
	}

	var matches []string
	for _, n := range a.db.Names() {
		if g.Match(n) {
			matches = append(matches, n)
		}
	}
	switch len(matches) {
	case 0:
		return "", errors.Errorf("%w: %s", ErrFunctionNotFound, name)
	case 1:
		return matches[0], nil
	default:
		return "", errors.Errorf("%w, found %d matches: %s", ErrAmbiguousName, len(matches), strings.Join(matches, ", "))
	}
}

func (a *Analyzer) location(name string) *graph.Location {
	if loc, ok := a.db.Location(name); ok {
		return &loc
	}
	return nil
}

// split separates the functions reached by edges into direct (depth 1) and
// indirect ones. Each function is listed once, at its shallowest depth.
func (a *Analyzer) split(target string, edges []graph.Edge, reached func(graph.Edge) string) (direct, indirect []Entry) {
	seen := map[string]bool{target: true}
	for _, e := range edges {
		n := reached(e)
		if seen[n] {
			continue
		}
		seen[n] = true

		entry := Entry{Name: n, Depth: e.Depth, Location: a.location(n)}
		if e.Depth == 1 {
			direct = append(direct, entry)
		} else {
			indirect = append(indirect, entry)
		}
	}
	return direct, indirect
}

func (e Entry) loc() string {
	if e.Location == nil {
		return "-"
	}
	return e.Location.String()
}

// FormatMarkdown formats the impact report as markdown
func (r *Report) FormatMarkdown() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("## Change impact: %s\n\n", r.Target))
	if r.Location != nil {
		sb.WriteString(fmt.Sprintf("**Location:** %s\n\n", r.Location))
	} else {
		sb.WriteString("**Location:** _not defined in the database_\n\n")
	}

	writeTable := func(title, empty string, entries []Entry) {
		if len(entries) == 0 {
			if empty != "" {
				sb.WriteString(fmt.Sprintf("### %s\n\n_%s_\n\n", title, empty))
			}
			return
		}
		sb.WriteString(fmt.Sprintf("### %s\n\n", title))
		sb.WriteString("| Function | Location | Depth |\n")
		sb.WriteString("|----------|----------|-------|\n")
		for _, e := range entries {
			sb.WriteString(fmt.Sprintf("| %s | %s | %d |\n", e.Name, e.loc(), e.Depth))
		}
		sb.WriteString("\n")
	}

	writeTable("Direct callers (check whether they need updating)", "No direct callers", r.DirectCallers)
	writeTable("Indirect callers (may be affected)", "", r.IndirectCallers)
	writeTable("Direct callees", "No callees", r.DirectCallees)
	writeTable("Indirect callees", "", r.IndirectCallees)

	return sb.String()
}

// FormatTree formats the impact report as an aligned text tree
func (r *Report) FormatTree() string {
	var sb strings.Builder

	allCallers := append(append([]Entry{}, r.DirectCallers...), r.IndirectCallers...)
	allCallees := append(append([]Entry{}, r.DirectCallees...), r.IndirectCallees...)

	targetLoc := "-"
	if r.Location != nil {
		targetLoc = r.Location.String()
	}
	maxWidth := len(targetLoc)
	for _, e := range append(append([]Entry{}, allCallers...), allCallees...) {
		if w := len(e.loc()); w > maxWidth {
			maxWidth = w
		}
	}

	sb.WriteString("Target\n")
	sb.WriteString(fmt.Sprintf("%-*s  %s\n\n", maxWidth, targetLoc, r.Target))

	writeList := func(title string, entries []Entry) {
		if len(entries) == 0 {
			sb.WriteString(title + "\n")
			sb.WriteString("└── (none)\n")
			return
		}
		sb.WriteString(fmt.Sprintf("%s (%d)\n", title, len(entries)))
		for i, e := range entries {
			prefix := "├──"
			if i == len(entries)-1 {
				prefix = "└──"
			}
			sb.WriteString(fmt.Sprintf("%s %-*s  %s\n", prefix, maxWidth, e.loc(), e.Name))
		}
	}

	writeList("Callers", allCallers)
	sb.WriteString("\n")
	writeList("Callees", allCallees)

	return sb.String()
}

// Summary returns a brief summary of the impact report
func (r *Report) Summary() string {
	return fmt.Sprintf(
		"Target: %s, Direct Callers: %d, Indirect Callers: %d, Direct Callees: %d, Indirect Callees: %d",
		r.Target,
		len(r.DirectCallers),
		len(r.IndirectCallers),
		len(r.DirectCallees),
		len(r.IndirectCallees),
	)
}
