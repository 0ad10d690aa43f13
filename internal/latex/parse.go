package latex

import (
	"fmt"
	"strings"
)

// NodeKind distinguishes the variants of a parsed LaTeX node.
type NodeKind int

const (
	// NodeText is a literal text run.
	NodeText NodeKind = iota
	// NodeGroup is a brace-delimited group.
	NodeGroup
	// NodeMacro is a \name invocation with zero or more argument slots.
	NodeMacro
	// NodeEnv is a \begin{name}...\end{name} environment.
	NodeEnv
)

// Node is one node of the parsed document tree. Which fields are
// populated depends on Kind:
//
//   - NodeText:  Text
//   - NodeGroup: Children
//   - NodeMacro: Name, Args (a nil slot is an unsupplied optional argument)
//   - NodeEnv:   Name, Children
type Node struct {
	Kind     NodeKind
	Text     string
	Name     string
	Args     []*Node
	Children []*Node
}

// maxNestingDepth bounds group/environment recursion so a pathological
// document fails cleanly instead of exhausting the stack.
const maxNestingDepth = 500

var errTooDeep = fmt.Errorf("latex: nesting exceeds %d levels", maxNestingDepth)

// Parse turns flattened LaTeX source into a node tree. Parsing is best
// effort: unmatched closing braces and stray \end commands are treated
// as literal text, and a group left open at end of input simply closes
// there. Only pathologically deep nesting returns an error; that error
// is fatal for the document.
func Parse(text string) ([]*Node, error) {
	p := &parser{src: text}
	nodes, err := p.parseNodes("", 0)
	if err != nil {
		return nil, err
	}
	return nodes, nil
}

type parser struct {
	src string
	pos int
}

// parseNodes consumes nodes until end of input, an unmatched '}' (when
// inside a group), or \end{closeEnv} (when inside an environment).
func (p *parser) parseNodes(closeEnv string, depth int) ([]*Node, error) {
	if depth > maxNestingDepth {
		return nil, errTooDeep
	}

	var nodes []*Node
	var text strings.Builder

	flush := func() {
		if text.Len() > 0 {
			nodes = append(nodes, &Node{Kind: NodeText, Text: text.String()})
			text.Reset()
		}
	}

	for p.pos < len(p.src) {
		c := p.src[p.pos]

		switch c {
		case '%':
			// Comment runs to end of line.
			p.skipToLineEnd()

		case '{':
			flush()
			p.pos++
			children, err := p.parseNodes("", depth+1)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, &Node{Kind: NodeGroup, Children: children})

		case '}':
			if closeEnv == "" && depth > 0 {
				// End of the enclosing group.
				p.pos++
				flush()
				return nodes, nil
			}
			// Unmatched close brace: keep as literal text.
			text.WriteByte(c)
			p.pos++

		case '\\':
			name, ok := p.peekMacroName()
			if !ok {
				// Escaped symbol like \% or \&, kept as a symbol
				// macro with no arguments.
				flush()
				if p.pos+1 < len(p.src) {
					nodes = append(nodes, &Node{Kind: NodeMacro, Name: string(p.src[p.pos+1])})
					p.pos += 2
				} else {
					text.WriteByte(c)
					p.pos++
				}
				continue
			}

			if name == "end" {
				save := p.pos
				p.pos += 1 + len(name)
				envName := p.readBracedName()
				if closeEnv != "" && envName == closeEnv {
					flush()
					return nodes, nil
				}
				// Stray \end: keep the raw text and move on.
				text.WriteString(p.src[save:p.pos])
				continue
			}

			flush()
			if name == "begin" {
				p.pos += 1 + len(name)
				envName := p.readBracedName()
				children, err := p.parseNodes(envName, depth+1)
				if err != nil {
					return nil, err
				}
				nodes = append(nodes, &Node{Kind: NodeEnv, Name: envName, Children: children})
				continue
			}

			p.pos += 1 + len(name)
			args, err := p.parseArgs(depth)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, &Node{Kind: NodeMacro, Name: name, Args: args})

		default:
			text.WriteByte(c)
			p.pos++
		}
	}

	flush()
	// Inside an unterminated group or environment: close at end of
	// input rather than failing.
	return nodes, nil
}

// parseArgs consumes the argument slots following a macro: an optional
// star, any [optional] groups, and at most one {mandatory} group. A
// consumed star is recorded as a nil slot so the slot ordering matches
// the starred macro forms. Scanning stops after the mandatory group, so
// a bare {...} group later in the running text parses as a sibling
// group instead of being swallowed as another argument.
func (p *parser) parseArgs(depth int) ([]*Node, error) {
	var args []*Node

	if p.pos < len(p.src) && p.src[p.pos] == '*' {
		p.pos++
		args = append(args, nil)
	}

	for {
		start := p.pos
		p.skipArgSpaces()

		if p.pos < len(p.src) && p.src[p.pos] == '{' {
			p.pos++
			children, err := p.parseNodes("", depth+1)
			if err != nil {
				return nil, err
			}
			args = append(args, &Node{Kind: NodeGroup, Children: children})
			return args, nil
		}

		if p.pos < len(p.src) && p.src[p.pos] == '[' {
			if arg, ok := p.readOptionalArg(); ok {
				args = append(args, arg)
				continue
			}
		}

		p.pos = start
		return args, nil
	}
}

// readOptionalArg reads a [...] argument as flat text. Optional
// arguments never carry the structure we care about, so nested parsing
// is not needed; an unclosed bracket is left for the text scanner.
func (p *parser) readOptionalArg() (*Node, bool) {
	end := strings.IndexByte(p.src[p.pos:], ']')
	if end < 0 {
		return nil, false
	}
	content := p.src[p.pos+1 : p.pos+end]
	if strings.ContainsAny(content, "\n{") {
		// A newline or group opener inside brackets usually means
		// this is not an argument at all.
		return nil, false
	}
	p.pos += end + 1
	return &Node{Kind: NodeGroup, Children: []*Node{{Kind: NodeText, Text: content}}}, true
}

// peekMacroName returns the letter run following the backslash at the
// current position, without advancing. ok is false for symbol macros.
func (p *parser) peekMacroName() (string, bool) {
	i := p.pos + 1
	for i < len(p.src) && isLetter(p.src[i]) {
		i++
	}
	if i == p.pos+1 {
		return "", false
	}
	return p.src[p.pos+1 : i], true
}

// readBracedName reads a {name} immediately following \begin or \end,
// tolerating missing braces by returning an empty name.
func (p *parser) readBracedName() string {
	p.skipSpaces()
	if p.pos >= len(p.src) || p.src[p.pos] != '{' {
		return ""
	}
	end := strings.IndexByte(p.src[p.pos:], '}')
	if end < 0 {
		return ""
	}
	name := strings.TrimSpace(p.src[p.pos+1 : p.pos+end])
	p.pos += end + 1
	return name
}

func (p *parser) skipSpaces() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

// skipArgSpaces skips the whitespace between a macro and its argument,
// crossing at most one newline. A blank line is a paragraph break and
// ends argument scanning.
func (p *parser) skipArgSpaces() {
	sawNewline := false
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t':
			p.pos++
		case '\n':
			if sawNewline {
				return
			}
			sawNewline = true
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) skipToLineEnd() {
	for p.pos < len(p.src) && p.src[p.pos] != '\n' {
		p.pos++
	}
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// TextContent extracts the literal text beneath a node, descending
// through groups and environments but not into macro arguments.
func TextContent(nodes []*Node) string {
	var sb strings.Builder
	for _, n := range nodes {
		if n == nil {
			continue
		}
		switch n.Kind {
		case NodeText:
			sb.WriteString(n.Text)
		case NodeGroup, NodeEnv:
			sb.WriteString(TextContent(n.Children))
		}
	}
	return strings.TrimSpace(sb.String())
}
