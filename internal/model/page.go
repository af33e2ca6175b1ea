package model

// FetchResult is the outcome of a single polite fetch. Ordinary network and
// HTTP failures are reported here as values, never as errors.
type FetchResult struct {
	URL         string `json:"url"`
	Success     bool   `json:"success"`
	StatusCode  int    `json:"status_code,omitempty"`
	Content     string `json:"-"`
	ContentType string `json:"content_type,omitempty"`
	Error       string `json:"error,omitempty"`
	ElapsedMS   int64  `json:"elapsed_ms"`
	FromCache   bool   `json:"from_cache"`
}

// FetchStats accumulates politeness bookkeeping for one fetcher instance.
type FetchStats struct {
	PagesAttempted  int   `json:"pages_attempted"`
	PagesSuccessful int   `json:"pages_successful"`
	PagesFailed     int   `json:"pages_failed"`
	PagesCached     int   `json:"pages_cached"`
	TotalBytes      int64 `json:"total_bytes"`
	TotalTimeMS     int64 `json:"total_time_ms"`
}

// CrawledPage is one visited URL, success or failure. Exactly one is created
// per normalized URL; failed pages carry no document.
type CrawledPage struct {
	URL        string `json:"url"`
	Title      string `json:"title"`
	Success    bool   `json:"success"`
	StatusCode int    `json:"status_code,omitempty"`
	Depth      int    `json:"depth"`
	ElapsedMS  int64  `json:"elapsed_ms"`
	FromCache  bool   `json:"from_cache"`
}

// CrawlResult holds the pages of one crawl invocation in visit order.
type CrawlResult struct {
	StartURL   string        `json:"start_url"`
	Domain     string        `json:"domain"`
	Pages      []CrawledPage `json:"pages"`
	FailedURLs []string      `json:"failed_urls"`
}

// SuccessfulPages returns only the pages that fetched and parsed.
func (r *CrawlResult) SuccessfulPages() []CrawledPage {
	var out []CrawledPage
	for _, p := range r.Pages {
		if p.Success {
			out = append(out, p)
		}
	}
	return out
}
