package commands

import (
	"strings"

	"github.com/temirov/repo2txt/internal/types"
)

const (
	treeIndentUnit      = "    "
	treeBranchConnector = "├── "
	treeDirectorySuffix = "/"
)

// TreeBuilder renders directory trees using configured options.
type TreeBuilder struct {
	Rules types.IgnoreRuleSet
	Warn  func(path string, err error)
}

// RenderTree produces the indented tree for root. See TreeBuilder.Render.
func RenderTree(root string, rules types.IgnoreRuleSet) (string, error) {
	builder := TreeBuilder{Rules: rules}
	return builder.Render(root)
}

// Render returns one line per visited entry joined by newlines, without a
// trailing newline. Directories render as "<indent>├── <name>/" and files as
// "<indent>├── <name>", where indent is four spaces per level of depth and the
// root is the first line at depth zero.
func (treeBuilder *TreeBuilder) Render(root string) (string, error) {
	var lines []string
	traversalError := Traverse(root, TraversalOptions{Rules: treeBuilder.Rules, Warn: treeBuilder.Warn}, func(entry PathEntry) error {
		lines = append(lines, formatTreeLine(entry))
		return nil
	})
	if traversalError != nil {
		return "", traversalError
	}
	return strings.Join(lines, "\n"), nil
}

func formatTreeLine(entry PathEntry) string {
	var builder strings.Builder
	builder.WriteString(strings.Repeat(treeIndentUnit, entry.Depth))
	builder.WriteString(treeBranchConnector)
	builder.WriteString(entry.Name)
	if entry.IsDir {
		builder.WriteString(treeDirectorySuffix)
	}
	return builder.String()
}
