// Package ident classifies user-supplied paper identifiers.
package ident

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Kind enumerates the identifier types the resolver understands.
type Kind string

const (
	KindArXiv    Kind = "arxiv"
	KindDOI      Kind = "doi"
	KindBibcode  Kind = "ads_bibcode"
	KindOpenAlex Kind = "openalex"
)

// ID is a classified paper identifier.
type ID struct {
	Kind  Kind
	Value string
}

func (id ID) String() string {
	return fmt.Sprintf("%s:%s", id.Kind, id.Value)
}

// Identifier patterns, tried in order. OpenAlex and ADS URLs are
// checked before DOI/arXiv because those URLs can embed digit runs
// that look like the shorter identifier forms.
var (
	openAlexURLRe = regexp.MustCompile(`(?i)openalex\.org/(?:works/)?(W\d+)`)
	openAlexIDRe  = regexp.MustCompile(`^(?i)(W\d+)$`)
	adsURLRe      = regexp.MustCompile(`(?i)ui\.adsabs\.harvard\.edu/abs/([^/\s]+)`)
	doiRe         = regexp.MustCompile(`(?i)(10\.\d{4,9}/[-._;()/:A-Z0-9]+)`)
	arxivRe       = regexp.MustCompile(`(\d{4}\.\d{4,5}(?:v\d+)?)`)
)

// Resolve parses an input string into a known paper identifier:
// OpenAlex work URL or ID, ADS abstract URL, DOI (bare, doi: or
// doi.org form), or arXiv ID (bare or arxiv.org URL).
func Resolve(input string) (ID, error) {
	input = strings.TrimSpace(input)

	if m := openAlexURLRe.FindStringSubmatch(input); m != nil {
		return ID{Kind: KindOpenAlex, Value: strings.ToUpper(m[1])}, nil
	}

	if m := adsURLRe.FindStringSubmatch(input); m != nil {
		bibcode, err := url.PathUnescape(m[1])
		if err != nil {
			bibcode = m[1]
		}
		return ID{Kind: KindBibcode, Value: bibcode}, nil
	}

	if m := doiRe.FindStringSubmatch(input); m != nil {
		return ID{Kind: KindDOI, Value: m[1]}, nil
	}

	if m := arxivRe.FindStringSubmatch(input); m != nil {
		return ID{Kind: KindArXiv, Value: m[1]}, nil
	}

	if m := openAlexIDRe.FindStringSubmatch(input); m != nil {
		return ID{Kind: KindOpenAlex, Value: strings.ToUpper(m[1])}, nil
	}

	return ID{}, fmt.Errorf("could not resolve %q to a known paper identifier (DOI, arXiv, ADS, OpenAlex)", input)
}
