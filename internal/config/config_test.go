package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DefaultSource != SourceADS {
		t.Errorf("DefaultSource = %q, want ads", cfg.DefaultSource)
	}
	if cfg.Sources.ADS.MaxResults != 25 || cfg.Sources.OpenAlex.RatePerSecond != 10 {
		t.Errorf("default source settings wrong: %+v", cfg.Sources)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	content := `default_source: openalex
data_dir: /tmp/constellation
sources:
  openalex:
    polite_pool_email: me@example.org
    max_results: 10
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DefaultSource != SourceOpenAlex {
		t.Errorf("DefaultSource = %q", cfg.DefaultSource)
	}
	if cfg.DataDir != "/tmp/constellation" {
		t.Errorf("DataDir = %q", cfg.DataDir)
	}
	if cfg.Sources.OpenAlex.Mailto != "me@example.org" {
		t.Errorf("Mailto = %q", cfg.Sources.OpenAlex.Mailto)
	}
	if cfg.Sources.OpenAlex.MaxResults != 10 {
		t.Errorf("MaxResults = %d", cfg.Sources.OpenAlex.MaxResults)
	}
	// Unspecified sections keep their defaults.
	if cfg.Sources.ADS.MaxRetries != 3 {
		t.Errorf("ADS MaxRetries = %d, want default 3", cfg.Sources.ADS.MaxRetries)
	}
}

func TestLoadInvalidSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	if err := os.WriteFile(path, []byte("default_source: wrong\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid default_source")
	}
}

func TestEnvExpansion(t *testing.T) {
	t.Setenv("CONSTELLATION_TEST_TOKEN", "secret123")

	path := filepath.Join(t.TempDir(), "cfg.yaml")
	content := `default_source: ads
sources:
  ads:
    api_token: ${CONSTELLATION_TEST_TOKEN}
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Sources.ADS.APIToken != "secret123" {
		t.Errorf("APIToken = %q, want expanded env value", cfg.Sources.ADS.APIToken)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")

	cfg := Default()
	cfg.DefaultSource = SourceOpenAlex
	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.DefaultSource != SourceOpenAlex {
		t.Errorf("DefaultSource = %q after round trip", loaded.DefaultSource)
	}
}
