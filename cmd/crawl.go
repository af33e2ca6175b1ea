package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/truthscan/internal/crawl"
	"github.com/sells-group/truthscan/internal/model"
	"github.com/sells-group/truthscan/internal/report"
)

var crawlOutDir string

var crawlCmd = &cobra.Command{
	Use:   "crawl <url>",
	Short: "Crawl a site and write the visit log without extracting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if crawlOutDir != "" {
			cfg.OutputDir = crawlOutDir
		}

		crawler, fetcher, cleanup, err := buildCrawler()
		if err != nil {
			return err
		}
		defer cleanup()

		result, err := crawler.Crawl(ctx, args[0])
		if err != nil {
			return err
		}

		writer, err := report.NewWriter(cfg.OutputDir, result.Domain)
		if err != nil {
			return err
		}
		path, err := writer.WriteCrawlJSON(buildCrawlReport(result, fetcher.Stats()))
		if err != nil {
			return err
		}

		zap.L().Info("crawl complete",
			zap.Int("pages", len(result.Pages)),
			zap.Int("failed", len(result.FailedURLs)),
			zap.String("output", path))
		return nil
	},
}

func buildCrawlReport(result *crawl.Result, stats model.FetchStats) model.CrawlReport {
	failed := result.FailedURLs
	if failed == nil {
		failed = []string{}
	}
	return model.CrawlReport{
		StartURL:   result.StartURL,
		Domain:     result.Domain,
		FetchStats: stats,
		FailedURLs: failed,
		Pages:      result.PageRecords(),
	}
}

func init() {
	crawlCmd.Flags().StringVar(&crawlOutDir, "output", "", "override output directory")
	rootCmd.AddCommand(crawlCmd)
}
