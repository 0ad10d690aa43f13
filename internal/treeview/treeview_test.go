package treeview

import (
	"strings"
	"testing"

	"github.com/SasiMitraB/CitationConstellation/internal/latex"
	"github.com/SasiMitraB/CitationConstellation/internal/reference"
)

func TestRenderGroupsContextsBySection(t *testing.T) {
	root := reference.Paper{Title: "Root Paper", Year: 2020, ArXivID: "2001.00001"}
	results := []Result{
		{
			Paper: reference.Paper{Title: "Citer", Year: 2021, Authors: []string{"Smith, A."}, ArXivID: "2101.00002"},
			Contexts: []latex.Context{
				{Section: "Introduction"},
				{Section: "Methods", Subsection: "Sampling"},
				{Section: "Methods", Subsection: "Sampling", Subsubsection: "Priors"},
			},
		},
	}

	var sb strings.Builder
	Render(&sb, root, results)
	out := sb.String()

	if !strings.HasPrefix(out, "Root Paper (2020) [2001.00001]\n") {
		t.Errorf("root line wrong:\n%s", out)
	}
	for _, want := range []string{
		"Citer (2021)",
		"Authors: Smith, A.",
		"Link: https://arxiv.org/abs/2101.00002",
		"Section: Introduction",
		"Section: Methods",
		"Subsection: Sampling",
		"Subsubsection: Priors",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	// Both Methods contexts share one Section branch.
	if strings.Count(out, "Section: Methods") != 1 {
		t.Errorf("Section: Methods should appear once:\n%s", out)
	}
	if strings.Count(out, "Subsection: Sampling") != 1 {
		t.Errorf("Subsection: Sampling should appear once:\n%s", out)
	}
}

func TestRenderStatusLeaf(t *testing.T) {
	root := reference.Paper{Title: "Root", Year: 2019, DOI: "10.1234/root"}
	results := []Result{
		{
			Paper:  reference.Paper{Title: "Unavailable", Year: 2022},
			Status: "Source not available",
		},
	}

	var sb strings.Builder
	Render(&sb, root, results)
	out := sb.String()

	if !strings.Contains(out, "Status: Source not available") {
		t.Errorf("missing status leaf:\n%s", out)
	}
	if !strings.Contains(out, "[10.1234/root]") {
		t.Errorf("root should fall back to DOI:\n%s", out)
	}
}

func TestRenderUnknownSection(t *testing.T) {
	results := []Result{
		{
			Paper:    reference.Paper{Title: "Citer", Year: 2021},
			Contexts: []latex.Context{{}, {}},
		},
	}

	var sb strings.Builder
	Render(&sb, reference.Paper{Title: "Root", Year: 2020}, results)
	out := sb.String()

	if strings.Count(out, "Cited in: Unknown Section") != 1 {
		t.Errorf("sectionless contexts should collapse to one leaf:\n%s", out)
	}
	if !strings.Contains(out, "[No ID]") {
		t.Errorf("root without identifiers should say No ID:\n%s", out)
	}
}

func TestRenderConnectors(t *testing.T) {
	results := []Result{
		{Paper: reference.Paper{Title: "First", Year: 2021}, Status: "No in-text citations found"},
		{Paper: reference.Paper{Title: "Second", Year: 2022}, Status: "Source not available"},
	}

	var sb strings.Builder
	Render(&sb, reference.Paper{Title: "Root", Year: 2020}, results)
	lines := strings.Split(strings.TrimRight(sb.String(), "\n"), "\n")

	if !strings.HasPrefix(lines[1], "├── First") {
		t.Errorf("first paper should use a tee connector, got %q", lines[1])
	}
	last := lines[len(lines)-1]
	if !strings.HasPrefix(last, "    └── Status:") {
		t.Errorf("last leaf should be indented under the last branch, got %q", last)
	}
}
