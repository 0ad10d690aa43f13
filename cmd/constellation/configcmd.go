package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/SasiMitraB/CitationConstellation/internal/config"
)

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	Long: fmt.Sprintf(`Write a default %s to the home directory.

The generated file references API credentials as ${VAR} environment
expansions, so tokens stay out of the file itself.`, config.ConfigFileName),
	Args: cobra.NoArgs,
	Run:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	Run:   runConfigShow,
}

func runConfigInit(cmd *cobra.Command, args []string) {
	path := config.Path()
	if path == "" {
		exitWithError(ExitConfigError, "cannot determine home directory")
	}
	if _, err := os.Stat(path); err == nil {
		exitWithError(ExitConfigError, "config file already exists at %s", path)
	}

	if err := config.Default().Save(path); err != nil {
		exitWithError(ExitError, "writing config: %v", err)
	}

	if humanOutput {
		outputHuman("Wrote %s\n", path)
	} else {
		outputJSON(StatusResponse{Status: "created", Path: path})
	}
}

// sourceView is the config show representation of one source, with the
// credential masked.
type sourceView struct {
	APIToken      string  `json:"api_token,omitempty"`
	Mailto        string  `json:"polite_pool_email,omitempty"`
	RatePerSecond float64 `json:"rate_limit_per_second"`
	MaxRetries    int     `json:"max_retries"`
	MaxResults    int     `json:"max_results"`
}

type configView struct {
	DefaultSource string                `json:"default_source"`
	DataDir       string                `json:"data_dir"`
	Sources       map[string]sourceView `json:"sources"`
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()

	if !humanOutput {
		view := configView{
			DefaultSource: cfg.DefaultSource,
			DataDir:       cfg.DataDir,
			Sources:       map[string]sourceView{},
		}
		for name, sc := range map[string]config.SourceConfig{
			config.SourceADS:      cfg.Sources.ADS,
			config.SourceOpenAlex: cfg.Sources.OpenAlex,
		} {
			v := sourceView{
				Mailto:        sc.Mailto,
				RatePerSecond: sc.RatePerSecond,
				MaxRetries:    sc.MaxRetries,
				MaxResults:    sc.MaxResults,
			}
			if sc.APIToken != "" {
				v.APIToken = maskToken(sc.APIToken)
			}
			view.Sources[name] = v
		}
		outputJSON(view)
		return
	}

	outputHuman("default_source: %s\n", cfg.DefaultSource)
	outputHuman("data_dir:       %s\n", cfg.DataDir)
	for _, s := range []struct {
		name string
		sc   config.SourceConfig
	}{
		{config.SourceADS, cfg.Sources.ADS},
		{config.SourceOpenAlex, cfg.Sources.OpenAlex},
	} {
		outputHuman("\n[%s]\n", s.name)
		if s.sc.APIToken != "" {
			outputHuman("  api_token:   %s\n", maskToken(s.sc.APIToken))
		}
		if s.sc.Mailto != "" {
			outputHuman("  mailto:      %s\n", s.sc.Mailto)
		}
		outputHuman("  rate/s:      %g\n", s.sc.RatePerSecond)
		outputHuman("  max_results: %d\n", s.sc.MaxResults)
	}
}

// maskToken hides all but the last four characters of a credential.
func maskToken(token string) string {
	if len(token) <= 4 {
		return "****"
	}
	return "****" + token[len(token)-4:]
}
