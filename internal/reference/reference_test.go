package reference

import "testing"

func TestNormalizeDOI(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare DOI", "10.1234/Test", "10.1234/test"},
		{"https prefix", "https://doi.org/10.1234/test", "10.1234/test"},
		{"http prefix", "http://doi.org/10.1234/test", "10.1234/test"},
		{"doi colon prefix", "doi:10.1234/test", "10.1234/test"},
		{"surrounding whitespace", "  10.1234/test ", "10.1234/test"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeDOI(tt.in); got != tt.want {
				t.Errorf("NormalizeDOI(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFirstAuthorSurname(t *testing.T) {
	tests := []struct {
		name    string
		authors []string
		want    string
	}{
		{"last comma first", []string{"Smith, John", "Doe, Jane"}, "smith"},
		{"bare name", []string{"Smith"}, "smith"},
		{"no comma full name", []string{"John Smith"}, "john smith"},
		{"empty list", nil, ""},
		{"whitespace trimmed", []string{"  van der Berg , Hans"}, "van der berg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FirstAuthorSurname(tt.authors); got != tt.want {
				t.Errorf("FirstAuthorSurname(%v) = %q, want %q", tt.authors, got, tt.want)
			}
		})
	}
}

func TestPaperURL(t *testing.T) {
	p := Paper{ArXivID: "2103.02607", DOI: "10.1093/mnras/stab1234"}
	if got := p.URL(); got != "https://arxiv.org/abs/2103.02607" {
		t.Errorf("URL() = %q, want arXiv link", got)
	}

	p.ArXivID = ""
	if got := p.URL(); got != "https://doi.org/10.1093/mnras/stab1234" {
		t.Errorf("URL() = %q, want DOI link", got)
	}

	p.DOI = ""
	if got := p.URL(); got != "" {
		t.Errorf("URL() = %q, want empty", got)
	}
}
