// Package bibliography resolves which citation key a paper's
// bibliography uses for a given target paper. Structured .bib files are
// searched first, then rendered .bbl files.
package bibliography

import (
	"os"
	"regexp"
	"strings"
)

// Entry is one structured bibliography record: a citation key plus a
// weakly typed field map (title, author, year, doi, ...).
type Entry struct {
	Key    string
	Fields map[string]string
}

// Field returns a field value by name, case-insensitive. Empty string
// when absent.
func (e Entry) Field(name string) string {
	return e.Fields[strings.ToLower(name)]
}

// searchText builds the combined free-text form of the entry used for
// substring matching.
func (e Entry) searchText() string {
	parts := []string{e.Field("title"), e.Field("author"), e.Field("year"), e.Field("doi")}
	return strings.ToLower(strings.Join(parts, " "))
}

// entryStartRe matches the head of a BibTeX entry: @type{key,
var entryStartRe = regexp.MustCompile(`@(\w+)\s*\{\s*([^,\s]+)\s*,`)

// fieldStartRe matches the head of a field assignment within an entry.
var fieldStartRe = regexp.MustCompile(`(?i)([a-zA-Z][a-zA-Z0-9_-]*)\s*=\s*`)

// ParseBibFile parses a .bib file into entries, preserving file order.
// @comment/@preamble/@string blocks are skipped. Parsing is lenient:
// a malformed entry ends wherever the next entry starts.
func ParseBibFile(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseBib(strings.ToValidUTF8(string(data), "�")), nil
}

func parseBib(content string) []Entry {
	starts := entryStartRe.FindAllStringSubmatchIndex(content, -1)

	var entries []Entry
	for i, loc := range starts {
		entryType := strings.ToLower(content[loc[2]:loc[3]])
		switch entryType {
		case "comment", "preamble", "string":
			continue
		}

		end := len(content)
		if i+1 < len(starts) {
			end = starts[i+1][0]
		}

		entries = append(entries, Entry{
			Key:    content[loc[4]:loc[5]],
			Fields: parseFields(content[loc[1]:end]),
		})
	}
	return entries
}

// parseFields extracts name = value pairs from an entry body. Values
// may be brace-delimited (nested braces allowed), quoted, or bare.
func parseFields(body string) map[string]string {
	fields := make(map[string]string)

	pos := 0
	for pos < len(body) {
		m := fieldStartRe.FindStringSubmatchIndex(body[pos:])
		if m == nil {
			break
		}
		name := strings.ToLower(body[pos+m[2] : pos+m[3]])
		value, next := scanFieldValue(body, pos+m[1])
		// First occurrence wins; later junk cannot overwrite a field.
		if _, seen := fields[name]; !seen {
			fields[name] = strings.TrimSpace(value)
		}
		pos = next
	}
	return fields
}

// scanFieldValue reads a field value starting at pos and returns the
// value plus the position just past it.
func scanFieldValue(body string, pos int) (string, int) {
	if pos >= len(body) {
		return "", pos
	}

	switch body[pos] {
	case '{':
		depth := 0
		for i := pos; i < len(body); i++ {
			switch body[i] {
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					return body[pos+1 : i], i + 1
				}
			}
		}
		return body[pos+1:], len(body)

	case '"':
		if end := strings.IndexByte(body[pos+1:], '"'); end >= 0 {
			return body[pos+1 : pos+1+end], pos + end + 2
		}
		return body[pos+1:], len(body)

	default:
		// Bare value (numbers, string macros) up to comma or close brace.
		end := strings.IndexAny(body[pos:], ",}\n")
		if end < 0 {
			return body[pos:], len(body)
		}
		return body[pos : pos+end], pos + end
	}
}
