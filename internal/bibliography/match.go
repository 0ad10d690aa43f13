package bibliography

import (
	"strconv"
	"strings"

	"github.com/SasiMitraB/CitationConstellation/internal/reference"
)

// titlePrefixLen bounds the title comparison: long titles get mangled
// by line wrapping and brace protection past this point.
const titlePrefixLen = 50

// matcher holds the pre-normalized target fields used to test candidate
// bibliography records.
type matcher struct {
	doi         string // normalized, lowercase; "" when absent
	titlePrefix string // first 50 chars, lowercase; "" when absent
	surname     string // first author's surname, lowercase; "" when absent
	year        string // "" when absent
}

func newMatcher(target reference.Target) matcher {
	m := matcher{
		doi:     reference.NormalizeDOI(target.DOI),
		surname: reference.FirstAuthorSurname(target.Authors),
	}
	if target.Title != "" {
		title := strings.ToLower(target.Title)
		if r := []rune(title); len(r) > titlePrefixLen {
			title = string(r[:titlePrefixLen])
		}
		m.titlePrefix = title
	}
	if target.Year != 0 {
		m.year = strconv.Itoa(target.Year)
	}
	return m
}

// matches tests a candidate against the target with tiered precedence:
// DOI containment beats title containment beats author-surname plus
// year co-occurrence. candidateDOI and candidateTitle are the
// structured fields when available; candidateText is the combined or
// rendered text, already lower-cased by the caller.
func (m matcher) matches(candidateText, candidateDOI, candidateTitle string) bool {
	// 1. Strongest: DOI.
	if m.doi != "" {
		if candidateDOI != "" && strings.Contains(strings.ToLower(candidateDOI), m.doi) {
			return true
		}
		if strings.Contains(candidateText, m.doi) {
			return true
		}
	}

	// 2. Strong: title prefix.
	if m.titlePrefix != "" {
		if candidateTitle != "" {
			clean := strings.ToLower(candidateTitle)
			clean = strings.ReplaceAll(clean, "{", "")
			clean = strings.ReplaceAll(clean, "}", "")
			if strings.Contains(clean, m.titlePrefix) {
				return true
			}
		}
		if strings.Contains(candidateText, m.titlePrefix) {
			return true
		}
	}

	// 3. Fuzzy: first-author surname and year both present somewhere.
	if m.surname != "" && m.year != "" {
		if strings.Contains(candidateText, m.surname) && strings.Contains(candidateText, m.year) {
			return true
		}
	}

	return false
}
