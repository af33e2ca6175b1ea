package main

import (
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/truthscan/internal/config"
	"github.com/sells-group/truthscan/internal/crawl"
	"github.com/sells-group/truthscan/internal/extract"
	"github.com/sells-group/truthscan/internal/fetch"
	"github.com/sells-group/truthscan/internal/pipeline"
	"github.com/sells-group/truthscan/internal/report"
)

var (
	extractMaxPages int
	extractMaxDepth int
	extractOutDir   string
	extractNoRender bool
)

var extractCmd = &cobra.Command{
	Use:   "extract <url>",
	Short: "Crawl a site and write its truth record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		startURL := args[0]

		if extractMaxPages > 0 {
			cfg.Crawl.MaxPages = extractMaxPages
		}
		if extractMaxDepth >= 0 {
			cfg.Crawl.MaxDepth = extractMaxDepth
		}
		if extractOutDir != "" {
			cfg.OutputDir = extractOutDir
		}
		if extractNoRender {
			cfg.Crawl.UseRenderFallback = false
		}

		crawler, fetcher, cleanup, err := buildCrawler()
		if err != nil {
			return err
		}
		defer cleanup()

		taxonomy, err := loadTaxonomy()
		if err != nil {
			return err
		}

		p := pipeline.New(cfg, crawler, taxonomy)
		record, result, err := p.Run(ctx, startURL)
		if err != nil {
			return err
		}

		writer, err := report.NewWriter(cfg.OutputDir, record.Domain)
		if err != nil {
			return err
		}

		// Mirror the logo into the output directory and point the record at
		// the local copy when the download succeeds.
		logo := record.Fields[extract.FieldLogoURL]
		if logoURL, ok := logo.Value.(string); ok && logoURL != "" {
			rel, err := writer.DownloadAsset(ctx, logoURL, "logo")
			if err != nil {
				zap.L().Warn("logo download failed", zap.String("url", logoURL), zap.Error(err))
			} else {
				logo.Value = rel
				record.Fields[extract.FieldLogoURL] = logo
			}
		}

		if _, err := writer.WriteTruthJSON(record); err != nil {
			return err
		}
		if _, err := writer.WriteSummaryCSV(record.Fields); err != nil {
			return err
		}
		if _, err := writer.WriteCrawlJSON(buildCrawlReport(result, fetcher.Stats())); err != nil {
			return err
		}

		zap.L().Info("extraction complete",
			zap.String("business_id", record.BusinessID),
			zap.Int("pages_visited", record.PagesVisited),
			zap.String("output", writer.Dir()))
		return nil
	},
}

// buildCrawler wires the fetch cache, polite fetcher and optional render
// fallback into a crawler. The returned cleanup closes the cache.
func buildCrawler() (*crawl.Crawler, *fetch.Fetcher, func(), error) {
	cachePath := cfg.Crawl.CachePath
	if cachePath == "" {
		cachePath = filepath.Join(cfg.OutputDir, ".cache", "http.db")
	}
	cache, err := fetch.OpenCache(cachePath, cfg.Crawl.CacheTTL())
	if err != nil {
		return nil, nil, nil, eris.Wrap(err, "open fetch cache")
	}

	fetcher := fetch.NewFetcher(cfg.Crawl, cache)

	var renderer crawl.Renderer
	if cfg.Crawl.UseRenderFallback {
		ua := ""
		if len(cfg.Crawl.UserAgents) > 0 {
			ua = cfg.Crawl.UserAgents[0]
		}
		renderer = crawl.NewChromeRenderer(cfg.Crawl.RenderTimeout, ua)
	}

	crawler := crawl.NewCrawler(cfg.Crawl, fetcher, renderer)
	cleanup := func() {
		if err := cache.Close(); err != nil {
			zap.L().Warn("closing fetch cache", zap.Error(err))
		}
	}
	return crawler, fetcher, cleanup, nil
}

func loadTaxonomy() (config.Taxonomy, error) {
	if cfg.TaxonomyPath == "" {
		return config.DefaultTaxonomy(), nil
	}
	taxonomy, err := config.LoadTaxonomy(cfg.TaxonomyPath)
	if err != nil {
		return nil, eris.Wrap(err, "load taxonomy")
	}
	return taxonomy, nil
}

func init() {
	extractCmd.Flags().IntVar(&extractMaxPages, "max-pages", 0, "override crawl.max_pages")
	extractCmd.Flags().IntVar(&extractMaxDepth, "max-depth", -1, "override crawl.max_depth")
	extractCmd.Flags().StringVar(&extractOutDir, "output", "", "override output directory")
	extractCmd.Flags().BoolVar(&extractNoRender, "no-render", false, "disable the headless render fallback")
	rootCmd.AddCommand(extractCmd)
}
