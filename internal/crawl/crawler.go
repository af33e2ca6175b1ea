// Package crawl discovers a site's pages breadth-first within page and
// depth budgets, biasing the budget toward fact-dense pages.
package crawl

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/truthscan/internal/config"
	"github.com/sells-group/truthscan/internal/fetch"
	"github.com/sells-group/truthscan/internal/htmldoc"
	"github.com/sells-group/truthscan/internal/model"
)

// Fetcher is the page retrieval dependency. *fetch.Fetcher satisfies
// it; tests substitute stubs.
type Fetcher interface {
	Fetch(ctx context.Context, url string) model.FetchResult
}

// Renderer retrieves a page through a headless browser. Used only for
// the first page when it looks like an empty client-rendered shell.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// Page is one crawled URL plus its parsed document. Doc is nil for
// failed or non-HTML pages.
type Page struct {
	model.CrawledPage
	Doc *htmldoc.Document
}

// Result holds everything one crawl produced, in visit order.
type Result struct {
	StartURL   string
	Domain     string
	Pages      []Page
	FailedURLs []string
}

// SuccessfulPages returns the pages that fetched and parsed cleanly.
func (r *Result) SuccessfulPages() []Page {
	var out []Page
	for _, p := range r.Pages {
		if p.Success && p.Doc != nil {
			out = append(out, p)
		}
	}
	return out
}

// PageRecords converts the crawl to the serializable page list.
func (r *Result) PageRecords() []model.CrawledPage {
	out := make([]model.CrawledPage, len(r.Pages))
	for i, p := range r.Pages {
		out[i] = p.CrawledPage
	}
	return out
}

// Extensions and path prefixes that never lead to extractable HTML.
var skipExtensions = []string{
	".pdf", ".jpg", ".jpeg", ".png", ".gif", ".svg", ".webp", ".ico",
	".zip", ".gz", ".tar", ".rar",
	".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx",
	".mp3", ".mp4", ".avi", ".mov", ".webm",
	".css", ".js", ".json", ".xml",
}

var skipPathPrefixes = []string{
	"/wp-admin", "/admin", "/login", "/signin", "/register",
	"/cart", "/checkout", "/search", "/account",
}

type queueEntry struct {
	url   string
	depth int
}

// Crawler walks one site breadth-first. Not safe for concurrent use;
// one instance drives one crawl at a time.
type Crawler struct {
	cfg      config.CrawlConfig
	fetcher  Fetcher
	renderer Renderer
}

func NewCrawler(cfg config.CrawlConfig, fetcher Fetcher, renderer Renderer) *Crawler {
	return &Crawler{cfg: cfg, fetcher: fetcher, renderer: renderer}
}

// Crawl visits up to max_pages pages starting from startURL, following
// only same-site HTML links up to max_depth. Context cancellation or
// deadline expiry stops the walk and returns the partial result.
func (c *Crawler) Crawl(ctx context.Context, startURL string) (*Result, error) {
	start, err := fetch.NormalizeURL(startURL, startURL)
	if err != nil {
		return nil, eris.Wrap(err, "crawl: invalid start url")
	}
	domain := fetch.RegistrableDomain(start)
	if domain == "" {
		return nil, eris.Errorf("crawl: cannot determine domain of %s", start)
	}

	res := &Result{StartURL: start, Domain: domain}
	queue := []queueEntry{{url: start, depth: 0}}
	visited := map[string]bool{}
	queued := map[string]bool{start: true}

	for len(queue) > 0 && len(res.Pages) < c.cfg.MaxPages {
		if ctx.Err() != nil {
			zap.L().Warn("crawl deadline reached, returning partial result",
				zap.Int("pages", len(res.Pages)))
			break
		}

		entry := queue[0]
		queue = queue[1:]
		if visited[entry.url] {
			continue
		}
		visited[entry.url] = true

		page := c.visit(ctx, entry, len(res.Pages) == 0)
		res.Pages = append(res.Pages, page)
		if !page.Success {
			res.FailedURLs = append(res.FailedURLs, page.URL)
			continue
		}
		if page.Doc == nil || entry.depth >= c.cfg.MaxDepth {
			continue
		}

		for _, link := range c.orderedLinks(page.Doc) {
			if visited[link] || queued[link] || !c.eligible(link, start) {
				continue
			}
			queued[link] = true
			queue = append(queue, queueEntry{url: link, depth: entry.depth + 1})
		}
	}

	zap.L().Info("crawl finished",
		zap.String("domain", domain),
		zap.Int("pages", len(res.Pages)),
		zap.Int("failed", len(res.FailedURLs)))
	return res, nil
}

func (c *Crawler) visit(ctx context.Context, entry queueEntry, firstPage bool) Page {
	fr := c.fetcher.Fetch(ctx, entry.url)
	page := Page{CrawledPage: model.CrawledPage{
		URL:        entry.url,
		Success:    fr.Success,
		StatusCode: fr.StatusCode,
		Depth:      entry.depth,
		ElapsedMS:  fr.ElapsedMS,
		FromCache:  fr.FromCache,
	}}
	if !fr.Success {
		zap.L().Debug("page fetch failed",
			zap.String("url", entry.url), zap.String("error", fr.Error))
		return page
	}
	if fr.ContentType != "" && !strings.Contains(fr.ContentType, "html") {
		return page
	}

	doc, err := htmldoc.Parse(fr.Content, entry.url)
	if err != nil {
		zap.L().Warn("page parse failed", zap.String("url", entry.url), zap.Error(err))
		page.Success = false
		return page
	}

	if firstPage && c.cfg.UseRenderFallback && c.renderer != nil && doc.IsEmptyShellPage() {
		doc = c.renderFallback(ctx, entry.url, doc)
	}

	page.Doc = doc
	page.Title = doc.Title()
	return page
}

// renderFallback re-fetches an empty-shell first page through the
// headless renderer. Failure keeps the static document.
func (c *Crawler) renderFallback(ctx context.Context, url string, static *htmldoc.Document) *htmldoc.Document {
	zap.L().Info("first page looks like an empty shell, rendering", zap.String("url", url))
	html, err := c.renderer.Render(ctx, url)
	if err != nil {
		zap.L().Warn("render fallback failed, keeping static content",
			zap.String("url", url), zap.Error(err))
		return static
	}
	rendered, err := htmldoc.Parse(html, url)
	if err != nil {
		zap.L().Warn("rendered content unparseable, keeping static content",
			zap.String("url", url), zap.Error(err))
		return static
	}
	return rendered
}

// orderedLinks returns a page's outbound links with priority-keyword
// URLs first, then navigation links, then the rest. The ordering
// spends the page budget on the pages most likely to hold facts.
func (c *Crawler) orderedLinks(doc *htmldoc.Document) []string {
	nav := map[string]bool{}
	for _, l := range doc.NavigationLinks() {
		nav[l] = true
	}

	var priority, navLinks, rest []string
	for _, link := range doc.AllLinks() {
		lower := strings.ToLower(link)
		isPriority := false
		for _, p := range c.cfg.PriorityPatterns {
			if strings.Contains(lower, p) {
				isPriority = true
				break
			}
		}
		switch {
		case isPriority:
			priority = append(priority, link)
		case nav[link]:
			navLinks = append(navLinks, link)
		default:
			rest = append(rest, link)
		}
	}
	return append(append(priority, navLinks...), rest...)
}

func (c *Crawler) eligible(link, start string) bool {
	if !fetch.SameSite(link, start) {
		return false
	}
	lower := strings.ToLower(link)
	path := lower
	if i := strings.Index(lower, "://"); i >= 0 {
		if j := strings.IndexByte(lower[i+3:], '/'); j >= 0 {
			path = lower[i+3+j:]
		} else {
			path = "/"
		}
	}
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	for _, ext := range skipExtensions {
		if strings.HasSuffix(path, ext) {
			return false
		}
	}
	for _, prefix := range skipPathPrefixes {
		if strings.HasPrefix(path, prefix) {
			return false
		}
	}
	return true
}
