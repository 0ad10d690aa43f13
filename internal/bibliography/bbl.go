package bibliography

import (
	"os"
	"regexp"
	"strings"
)

// Item is one free-text bibliography record extracted from a .bbl file:
// the citation key plus the rendered reference text, normalized for
// matching (commands and braces stripped, whitespace collapsed,
// lower-cased).
type Item struct {
	Key  string
	Text string
}

var (
	// bibitemRe matches \bibitem{key} or \bibitem[label]{key}.
	bibitemRe = regexp.MustCompile(`\\bibitem(?:\[[^\]]*\])?\{([^}]+)\}`)
	// commandRe matches any \command name for stripping.
	commandRe = regexp.MustCompile(`\\[a-zA-Z]+`)
)

// ParseBblFile extracts bibliography items from a rendered .bbl file.
// Each item's text runs to the next \bibitem or end of file.
func ParseBblFile(path string) ([]Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseBbl(strings.ToValidUTF8(string(data), "�")), nil
}

func parseBbl(content string) []Item {
	locs := bibitemRe.FindAllStringSubmatchIndex(content, -1)

	var items []Item
	for i, loc := range locs {
		key := strings.TrimSpace(content[loc[2]:loc[3]])

		end := len(content)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		body := content[loc[1]:end]

		// \end{thebibliography} would otherwise leak into the last item;
		// command stripping below removes it anyway, braces included.
		items = append(items, Item{Key: key, Text: normalizeBblText(body)})
	}
	return items
}

// normalizeBblText strips markup from rendered reference text so that
// DOIs, titles, author names and years survive as plain words.
// e.g. "\dodoi{10.123/x}" keeps "10.123/x".
func normalizeBblText(text string) string {
	text = commandRe.ReplaceAllString(text, " ")
	text = strings.Map(func(r rune) rune {
		if r == '{' || r == '}' {
			return -1
		}
		return r
	}, text)
	text = strings.Join(strings.Fields(text), " ")
	return strings.ToLower(text)
}
