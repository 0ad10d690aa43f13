// Package treeview renders a trace result as an ASCII tree, one branch
// per citing paper with its citation contexts grouped by section.
package treeview

import (
	"fmt"
	"io"
	"strings"

	"github.com/SasiMitraB/CitationConstellation/internal/latex"
	"github.com/SasiMitraB/CitationConstellation/internal/reference"
)

// Result is the outcome of tracing one citing paper. Either Contexts
// holds the located citations, or Status explains why there are none.
type Result struct {
	Paper    reference.Paper `json:"paper"`
	Contexts []latex.Context `json:"contexts,omitempty"`
	Status   string          `json:"status,omitempty"`
}

type node struct {
	name     string
	children []*node
}

func (n *node) add(name string) *node {
	child := &node{name: name}
	n.children = append(n.children, child)
	return child
}

// getOrCreate returns the existing child with the given name, creating
// it when absent. Repeated citations in the same section share a branch.
func (n *node) getOrCreate(name string) *node {
	for _, child := range n.children {
		if child.name == name {
			return child
		}
	}
	return n.add(name)
}

// Render writes the citation tree for a root paper and its traced
// citing papers to w.
func Render(w io.Writer, root reference.Paper, results []Result) {
	tree := &node{name: rootLabel(root)}
	for _, res := range results {
		tree.children = append(tree.children, buildPaperNode(res))
	}
	renderNode(w, tree, "", true, true)
}

func rootLabel(p reference.Paper) string {
	id := p.ArXivID
	if id == "" {
		id = p.DOI
	}
	if id == "" {
		id = "No ID"
	}
	return fmt.Sprintf("%s (%d) [%s]", p.Title, p.Year, id)
}

func buildPaperNode(res Result) *node {
	paperNode := &node{name: fmt.Sprintf("%s (%d)", res.Paper.Title, res.Paper.Year)}

	if len(res.Paper.Authors) > 0 {
		authors := reference.TruncateAuthors(res.Paper.Authors, 3)
		paperNode.add("Authors: " + strings.Join(authors, ", "))
	}
	if url := res.Paper.URL(); url != "" {
		paperNode.add("Link: " + url)
	}

	if res.Status != "" {
		paperNode.add("Status: " + res.Status)
		return paperNode
	}

	for _, ctx := range res.Contexts {
		if ctx.Section == "" {
			paperNode.getOrCreate("Cited in: Unknown Section")
			continue
		}
		cur := paperNode.getOrCreate("Section: " + ctx.Section)
		if ctx.Subsection != "" {
			cur = cur.getOrCreate("Subsection: " + ctx.Subsection)
			if ctx.Subsubsection != "" {
				cur.getOrCreate("Subsubsection: " + ctx.Subsubsection)
			}
		}
	}
	return paperNode
}

func renderNode(w io.Writer, n *node, prefix string, isRoot, isLast bool) {
	if isRoot {
		fmt.Fprintln(w, n.name)
	} else {
		connector := "├── "
		if isLast {
			connector = "└── "
		}
		fmt.Fprintln(w, prefix+connector+n.name)
	}

	childPrefix := prefix
	if !isRoot {
		if isLast {
			childPrefix += "    "
		} else {
			childPrefix += "│   "
		}
	}
	for i, child := range n.children {
		renderNode(w, child, childPrefix, false, i == len(n.children)-1)
	}
}
