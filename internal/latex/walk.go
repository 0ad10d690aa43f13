package latex

import "strings"

// Heading macro names, in nesting order.
const (
	macroSection       = "section"
	macroSubsection    = "subsection"
	macroSubsubsection = "subsubsection"
)

// Context is a snapshot of the section nesting at the point a citation
// was found. Empty strings mark levels with no open heading.
type Context struct {
	Section       string `json:"section,omitempty"`
	Subsection    string `json:"subsection,omitempty"`
	Subsubsection string `json:"subsubsection,omitempty"`
}

// UnknownSection labels a citation that appears before any heading.
const UnknownSection = "Unknown Section"

// Label renders the context as "Section > Subsection > Subsubsection",
// omitting absent levels.
func (c Context) Label() string {
	var parts []string
	for _, s := range []string{c.Section, c.Subsection, c.Subsubsection} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return UnknownSection
	}
	return strings.Join(parts, " > ")
}

// sectionCursor tracks the innermost open heading path during a walk.
// It is not a stack: a sibling heading at the same or a higher level
// overwrites and clears everything deeper.
type sectionCursor struct {
	section       string
	subsection    string
	subsubsection string
}

func (s *sectionCursor) enter(level, title string) {
	switch level {
	case macroSection:
		s.section = title
		s.subsection = ""
		s.subsubsection = ""
	case macroSubsection:
		s.subsection = title
		s.subsubsection = ""
	case macroSubsubsection:
		s.subsubsection = title
	}
}

func (s *sectionCursor) snapshot() Context {
	return Context{
		Section:       s.section,
		Subsection:    s.subsection,
		Subsubsection: s.subsubsection,
	}
}

// FindCitations walks the tree in pre-order and returns one Context per
// macro invocation that cites any of the target keys. A macro counts as
// a citation when its name contains "cite"; the broad match is
// deliberate so custom wrappers like \citealt or \defcitealias-style
// macros are caught. An empty result means the keys are never cited,
// which is a normal outcome.
func FindCitations(nodes []*Node, targetKeys map[string]bool) []Context {
	found := []Context{}
	cursor := &sectionCursor{}
	walk(nodes, targetKeys, cursor, &found)
	return found
}

func walk(nodes []*Node, targetKeys map[string]bool, cursor *sectionCursor, found *[]Context) {
	for _, n := range nodes {
		if n == nil {
			continue
		}

		if n.Kind == NodeMacro {
			switch n.Name {
			case macroSection, macroSubsection, macroSubsubsection:
				cursor.enter(n.Name, lastArgText(n))
			}

			if strings.Contains(n.Name, "cite") && citesAny(n, targetKeys) {
				*found = append(*found, cursor.snapshot())
			}

			walk(n.Args, targetKeys, cursor, found)
			continue
		}

		walk(n.Children, targetKeys, cursor, found)
	}
}

// lastArgText returns the text content of the last non-absent argument
// slot. Scanning backward biases toward the mandatory argument over a
// starred or optional prefix slot.
func lastArgText(n *Node) string {
	for i := len(n.Args) - 1; i >= 0; i-- {
		arg := n.Args[i]
		if arg == nil {
			continue
		}
		if arg.Kind == NodeText {
			return strings.TrimSpace(arg.Text)
		}
		return TextContent([]*Node{arg})
	}
	return ""
}

// citesAny reports whether any comma-separated key in the macro's key
// argument is in targetKeys.
func citesAny(n *Node, targetKeys map[string]bool) bool {
	keysArg := lastArgText(n)
	if keysArg == "" {
		return false
	}
	for _, key := range strings.Split(keysArg, ",") {
		if targetKeys[strings.TrimSpace(key)] {
			return true
		}
	}
	return false
}
