package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/SasiMitraB/CitationConstellation/internal/ads"
	"github.com/SasiMitraB/CitationConstellation/internal/arxiv"
	"github.com/SasiMitraB/CitationConstellation/internal/bibliography"
	"github.com/SasiMitraB/CitationConstellation/internal/config"
	"github.com/SasiMitraB/CitationConstellation/internal/ident"
	"github.com/SasiMitraB/CitationConstellation/internal/latex"
	"github.com/SasiMitraB/CitationConstellation/internal/openalex"
	"github.com/SasiMitraB/CitationConstellation/internal/pdf"
	"github.com/SasiMitraB/CitationConstellation/internal/reference"
	"github.com/SasiMitraB/CitationConstellation/internal/storage"
	"github.com/SasiMitraB/CitationConstellation/internal/treeview"
)

// Per-paper trace statuses. A status replaces the context list; it is
// reported, never fatal.
const (
	statusNoSource    = "Source not available"
	statusKeyNotFound = "Citation key not found in bibliography"
	statusNoCitations = "No in-text citations found"
)

var (
	traceSource      string
	traceLimit       int
	traceKeepSources bool
)

var traceCmd = &cobra.Command{
	Use:   "trace <identifier|pdf>",
	Short: "Locate a paper's citations inside the papers that cite it",
	Long: `Trace where a paper is cited within each paper that cites it.

The identifier may be an arXiv ID, DOI, ADS bibcode, OpenAlex work ID,
a URL containing any of these, or a path to a local PDF (identified by
the DOI on its first pages, or by a title search when there is none).

Examples:
  constellation trace 2103.02607
  constellation trace 10.1093/sysbio/syy032 --human
  constellation trace paper.pdf --source openalex --limit 10`,
	Args: cobra.ExactArgs(1),
	Run:  runTrace,
}

func init() {
	traceCmd.Flags().StringVar(&traceSource, "source", "", "Citation data source: ads or openalex (default from config)")
	traceCmd.Flags().IntVar(&traceLimit, "limit", 0, "Maximum citing papers to trace (default from config)")
	traceCmd.Flags().BoolVar(&traceKeepSources, "keep-sources", false, "Keep downloaded LaTeX sources after tracing")
	rootCmd.AddCommand(traceCmd)
}

// TraceResponse is the JSON result of a trace run.
type TraceResponse struct {
	Source  string            `json:"source"`
	Paper   reference.Paper   `json:"paper"`
	Results []treeview.Result `json:"results"`
}

// citationSource fetches paper metadata and citing papers from one
// bibliographic API.
type citationSource interface {
	PaperMetadata(ctx context.Context, id ident.ID) (reference.Paper, error)
	SearchTitle(ctx context.Context, title string) (reference.Paper, error)
	CitingPapers(ctx context.Context, paper reference.Paper, limit int) ([]reference.Paper, error)
}

type adsSource struct{ client *ads.Client }

func (s adsSource) PaperMetadata(ctx context.Context, id ident.ID) (reference.Paper, error) {
	return s.client.PaperMetadata(ctx, id)
}

func (s adsSource) SearchTitle(ctx context.Context, title string) (reference.Paper, error) {
	return s.client.SearchTitle(ctx, title)
}

func (s adsSource) CitingPapers(ctx context.Context, paper reference.Paper, limit int) ([]reference.Paper, error) {
	if paper.Bibcode == "" {
		return nil, fmt.Errorf("ADS returned no bibcode for this paper")
	}
	return s.client.Citations(ctx, paper.Bibcode, limit)
}

type openAlexSource struct{ client *openalex.Client }

func (s openAlexSource) PaperMetadata(ctx context.Context, id ident.ID) (reference.Paper, error) {
	return s.client.PaperMetadata(ctx, id)
}

func (s openAlexSource) SearchTitle(ctx context.Context, title string) (reference.Paper, error) {
	return s.client.SearchTitle(ctx, title)
}

func (s openAlexSource) CitingPapers(ctx context.Context, paper reference.Paper, limit int) ([]reference.Paper, error) {
	if paper.OpenAlexID == "" {
		return nil, fmt.Errorf("OpenAlex returned no work ID for this paper")
	}
	return s.client.Citations(ctx, paper.OpenAlexID, limit)
}

func runTrace(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()

	sourceName := traceSource
	if sourceName == "" {
		sourceName = cfg.DefaultSource
	}
	src := mustBuildSource(cfg, sourceName)

	ctx := context.Background()
	id := resolveInput(ctx, src, args[0])

	limit := traceLimit
	if limit <= 0 {
		limit = cfg.Source(sourceName).MaxResults
	}
	if limit <= 0 {
		limit = ads.DefaultCitationsLimit
	}

	db := mustOpenCache(cfg)
	defer db.Close()

	root, err := cachedPaper(ctx, db, src, id)
	if err != nil {
		exitWithError(ExitDataError, "fetching paper for %s: %v", id, err)
	}
	progress("Tracing citations of %q (%d)", root.Title, root.Year)

	citing, err := cachedCitations(ctx, db, src, id, root, limit)
	if err != nil {
		exitWithError(ExitError, "fetching citing papers: %v", err)
	}
	progress("Found %d citing papers", len(citing))

	target := reference.TargetFor(root)
	sourcesDir := filepath.Join(cfg.DataDir, "sources")

	results := make([]treeview.Result, 0, len(citing))
	for i, paper := range citing {
		progress("[%d/%d] %s", i+1, len(citing), paper.Title)
		results = append(results, tracePaper(ctx, paper, target, sourcesDir))
	}

	if !traceKeepSources {
		os.RemoveAll(sourcesDir)
	}

	if humanOutput {
		treeview.Render(os.Stdout, root, results)
		return
	}
	outputJSON(TraceResponse{Source: sourceName, Paper: root, Results: results})
}

// tracePaper downloads one citing paper's LaTeX source and locates the
// target's citations in it. Failures become a status on the result so
// one bad paper never aborts the batch.
func tracePaper(ctx context.Context, paper reference.Paper, target reference.Target, sourcesDir string) treeview.Result {
	res := treeview.Result{Paper: paper}

	if paper.ArXivID == "" {
		res.Status = statusNoSource
		return res
	}

	downloader := arxiv.NewDownloader("")
	tarPath, err := downloader.DownloadSource(ctx, paper.ArXivID, sourcesDir)
	if err != nil {
		res.Status = statusNoSource
		return res
	}

	srcDir, err := arxiv.ExtractSource(tarPath, filepath.Join(sourcesDir, paper.ArXivID))
	if err != nil {
		res.Status = fmt.Sprintf("Error: %v", err)
		return res
	}

	mainFile, err := arxiv.FindMainTex(srcDir)
	if err != nil {
		res.Status = statusNoSource
		return res
	}

	raw, err := os.ReadFile(mainFile)
	if err != nil {
		res.Status = fmt.Sprintf("Error: %v", err)
		return res
	}
	flat := latex.Flatten(filepath.Dir(mainFile), string(raw))

	key, ok := bibliography.ResolveKey(srcDir, target)
	if !ok {
		res.Status = statusKeyNotFound
		return res
	}

	nodes, err := latex.Parse(flat)
	if err != nil {
		res.Status = fmt.Sprintf("Error: %v", err)
		return res
	}

	contexts := latex.FindCitations(nodes, map[string]bool{key: true})
	if len(contexts) == 0 {
		res.Status = statusNoCitations
		return res
	}
	res.Contexts = contexts
	return res
}

// resolveInput classifies the command-line argument. A path to an
// existing PDF is bootstrapped from the file's first pages.
func resolveInput(ctx context.Context, src citationSource, input string) ident.ID {
	if st, err := os.Stat(input); err == nil && !st.IsDir() && strings.EqualFold(filepath.Ext(input), ".pdf") {
		return resolvePDF(ctx, src, input)
	}

	id, err := ident.Resolve(input)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}
	return id
}

// resolvePDF identifies the paper behind a local PDF: by the DOI on its
// first pages when present, otherwise by a title search against the
// configured source.
func resolvePDF(ctx context.Context, src citationSource, path string) ident.ID {
	doi, err := pdf.ExtractDOI(path)
	if err != nil {
		exitWithError(ExitDataError, "reading %s: %v", path, err)
	}
	if doi != "" {
		progress("Found DOI %s in %s", doi, filepath.Base(path))
		return ident.ID{Kind: ident.KindDOI, Value: doi}
	}

	title, err := pdf.ExtractTitle(path)
	if err != nil || title == "" {
		exitWithError(ExitDataError, "no DOI or usable title found in %s", path)
	}
	progress("No DOI in %s, searching for title %q", filepath.Base(path), title)

	paper, err := src.SearchTitle(ctx, title)
	if err != nil {
		exitWithError(ExitDataError, "searching for %q: %v", title, err)
	}
	id, ok := paperID(paper)
	if !ok {
		exitWithError(ExitDataError, "search result for %q carries no usable identifier", title)
	}
	return id
}

// paperID picks the strongest identifier off fetched metadata, in an
// order every source can look up again.
func paperID(p reference.Paper) (ident.ID, bool) {
	switch {
	case p.DOI != "":
		return ident.ID{Kind: ident.KindDOI, Value: p.DOI}, true
	case p.OpenAlexID != "":
		return ident.ID{Kind: ident.KindOpenAlex, Value: p.OpenAlexID}, true
	case p.Bibcode != "":
		return ident.ID{Kind: ident.KindBibcode, Value: p.Bibcode}, true
	case p.ArXivID != "":
		return ident.ID{Kind: ident.KindArXiv, Value: p.ArXivID}, true
	}
	return ident.ID{}, false
}

func mustLoadConfig() *config.Config {
	cfg, err := config.Load(config.Path())
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg
}

func mustBuildSource(cfg *config.Config, name string) citationSource {
	sc := cfg.Source(name)
	switch name {
	case config.SourceADS:
		opts := []ads.ClientOption{}
		if sc.APIToken != "" {
			opts = append(opts, ads.WithToken(sc.APIToken))
		}
		if sc.RatePerSecond > 0 {
			opts = append(opts, ads.WithRateLimit(sc.RatePerSecond))
		}
		if sc.MaxRetries > 0 {
			opts = append(opts, ads.WithMaxRetries(sc.MaxRetries))
		}
		client := ads.NewClient(opts...)
		if !client.HasToken() {
			exitWithError(ExitConfigError, "ADS API token not set\n\nExport ADS_API_TOKEN or run 'constellation config init' and edit %s", config.ConfigFileName)
		}
		return adsSource{client: client}
	case config.SourceOpenAlex:
		opts := []openalex.ClientOption{}
		if sc.Mailto != "" {
			opts = append(opts, openalex.WithMailto(sc.Mailto))
		}
		if sc.RatePerSecond > 0 {
			opts = append(opts, openalex.WithRateLimit(sc.RatePerSecond))
		}
		return openAlexSource{client: openalex.NewClient(opts...)}
	default:
		exitWithError(ExitConfigError, "unknown source %q (want %s or %s)", name, config.SourceADS, config.SourceOpenAlex)
		return nil
	}
}

func mustOpenCache(cfg *config.Config) *storage.DB {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		exitWithError(ExitError, "creating data dir: %v", err)
	}
	db, err := storage.OpenDB(filepath.Join(cfg.DataDir, "cache.db"))
	if err != nil {
		exitWithError(ExitError, "opening cache: %v", err)
	}
	return db
}

func cachedPaper(ctx context.Context, db *storage.DB, src citationSource, id ident.ID) (reference.Paper, error) {
	if paper, ok, err := db.GetPaper(id.String()); err == nil && ok {
		return paper, nil
	}
	paper, err := src.PaperMetadata(ctx, id)
	if err != nil {
		return reference.Paper{}, err
	}
	if err := db.PutPaper(id.String(), paper); err != nil {
		progress("warning: %v", err)
	}
	return paper, nil
}

func cachedCitations(ctx context.Context, db *storage.DB, src citationSource, id ident.ID, root reference.Paper, limit int) ([]reference.Paper, error) {
	if papers, ok, err := db.GetCitations(id.String()); err == nil && ok {
		if len(papers) > limit {
			papers = papers[:limit]
		}
		return papers, nil
	}
	papers, err := src.CitingPapers(ctx, root, limit)
	if err != nil {
		return nil, err
	}
	if err := db.PutCitations(id.String(), papers); err != nil {
		progress("warning: %v", err)
	}
	return papers, nil
}
