package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/truthscan/internal/config"
	"github.com/sells-group/truthscan/internal/crawl"
	"github.com/sells-group/truthscan/internal/model"
)

func TestBuildCrawlReport(t *testing.T) {
	result := &crawl.Result{
		StartURL: "https://acme.example/",
		Domain:   "acme.example",
		Pages: []crawl.Page{
			{CrawledPage: model.CrawledPage{URL: "https://acme.example/", Success: true, StatusCode: 200}},
			{CrawledPage: model.CrawledPage{URL: "https://acme.example/broken", Success: false, StatusCode: 500}},
		},
		FailedURLs: []string{"https://acme.example/broken"},
	}
	stats := model.FetchStats{PagesAttempted: 2, PagesSuccessful: 1, PagesFailed: 1}

	report := buildCrawlReport(result, stats)
	assert.Equal(t, "https://acme.example/", report.StartURL)
	assert.Equal(t, "acme.example", report.Domain)
	assert.Equal(t, 2, report.PagesAttempted)
	require.Len(t, report.Pages, 2)
	assert.Equal(t, []string{"https://acme.example/broken"}, report.FailedURLs)
}

func TestBuildCrawlReport_NilFailedURLs(t *testing.T) {
	report := buildCrawlReport(&crawl.Result{Domain: "acme.example"}, model.FetchStats{})
	// crawl.json always carries a failed_urls array, even when empty.
	assert.NotNil(t, report.FailedURLs)
	assert.Empty(t, report.FailedURLs)
}

func TestLoadTaxonomy_DefaultWhenUnconfigured(t *testing.T) {
	orig := cfg
	defer func() { cfg = orig }()
	cfg = &config.Config{}

	taxonomy, err := loadTaxonomy()
	require.NoError(t, err)
	assert.NotEmpty(t, taxonomy)
}

func TestRootCommandWiring(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["extract"])
	assert.True(t, names["crawl"])
}
