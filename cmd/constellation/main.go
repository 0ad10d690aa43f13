// Package main provides the constellation CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

func main() {
	// API tokens may live in a local .env instead of the shell env.
	godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		// Print the error since we have SilenceErrors: true
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "constellation",
	Short: "Trace where a paper gets cited inside the papers that cite it",
	Long: `constellation locates the exact sections where a target paper is
cited within the papers that cite it.

Given a paper identifier (arXiv ID, DOI, ADS bibcode, OpenAlex ID, or a
local PDF), it fetches the citing papers from ADS or OpenAlex, downloads
each citing paper's arXiv LaTeX source, resolves the target's BibTeX key
in that source, and reports every \cite-family occurrence with its
section, subsection, and subsubsection.

All commands output JSON by default; pass --human for a tree view.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.Version = Version
}
