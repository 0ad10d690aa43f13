package reference

import "strings"

// FirstAuthorSurname returns the lowercased surname of the first author
// in the list. Names in "Last, First" form use the part before the
// comma; anything else is taken whole. Empty string if there are no
// authors.
func FirstAuthorSurname(authors []string) string {
	if len(authors) == 0 {
		return ""
	}
	name := authors[0]
	if idx := strings.Index(name, ","); idx >= 0 {
		name = name[:idx]
	}
	return strings.ToLower(strings.TrimSpace(name))
}

// TruncateAuthors returns at most n author names, with a trailing "..."
// entry when the list was longer.
func TruncateAuthors(authors []string, n int) []string {
	if len(authors) <= n {
		return authors
	}
	out := make([]string, 0, n+1)
	out = append(out, authors[:n]...)
	return append(out, "...")
}
