package display

import (
	"fmt"
	"strings"

	"github.com/zheng/csgraph/internal/graph"
)

// Locator returns the location shown next to a function in a tree, or "" if unknown
type Locator func(name string) string

// DatabaseLocator looks locations up in db
func DatabaseLocator(db *graph.Database) Locator {
	return func(name string) string {
		if loc, ok := db.Location(name); ok {
			return loc.String()
		}
		return ""
	}
}

// CalcTreeMaxWidth calculates the widest function name and the deepest level of the tree
func CalcTreeMaxWidth(tree []*graph.TreeNode, maxWidth *int, currentDepth int, maxDepth *int) {
	if currentDepth > *maxDepth {
		*maxDepth = currentDepth
	}
	for _, node := range tree {
		if w := len(node.Name); w > *maxWidth {
			*maxWidth = w
		}
		if len(node.Children) > 0 {
			CalcTreeMaxWidth(node.Children, maxWidth, currentDepth+1, maxDepth)
		}
	}
}

// FormatCallTree renders a traversal forest with box-drawing characters.
// Locations line up in one column.
func FormatCallTree(tree []*graph.TreeNode, locate Locator) string {
	maxWidth, maxDepth := 0, 0
	CalcTreeMaxWidth(tree, &maxWidth, 0, &maxDepth)
	return formatLevel(tree, locate, "", maxWidth, maxDepth, 0)
}

func formatLevel(tree []*graph.TreeNode, locate Locator, indent string, maxWidth, maxDepth, currentDepth int) string {
	var sb strings.Builder
	for i, node := range tree {
		isLast := i == len(tree)-1
		prefix := "├──"
		if isLast {
			prefix = "└──"
		}

		loc := ""
		if locate != nil {
			loc = locate(node.Name)
		}
		if loc == "" {
			sb.WriteString(fmt.Sprintf("%s%s %s\n", indent, prefix, node.Name))
		} else {
			padding := maxWidth + (maxDepth-currentDepth)*4
			sb.WriteString(fmt.Sprintf("%s%s %-*s  %s\n", indent, prefix, padding, node.Name, loc))
		}

		if len(node.Children) > 0 {
			childIndent := indent + "│   "
			if isLast {
				childIndent = indent + "    "
			}
			sb.WriteString(formatLevel(node.Children, locate, childIndent, maxWidth, maxDepth, currentDepth+1))
		}
	}
	return sb.String()
}
