package fetch

import (
	"context"
	"io"
	"math/rand/v2"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/truthscan/internal/config"
	"github.com/sells-group/truthscan/internal/model"
)

// Retryable server responses. Mirrors the usual transient set: rate
// limiting plus gateway/overload errors.
var retryStatuses = map[int]bool{429: true, 500: true, 502: true, 503: true, 504: true}

const (
	initialBackoff = 500 * time.Millisecond
	maxBackoff     = 30 * time.Second
	maxBodyBytes   = 10 << 20
)

// attempt is one pass through the wire (or the cache): status, body
// and whether the cache answered.
type attempt struct {
	statusCode  int
	contentType string
	body        []byte
	fromCache   bool
	err         error
}

// doFunc is one stage of the fetch pipeline. Stages wrap each other:
// robots -> cache -> rate limit -> retry -> HTTP.
type doFunc func(ctx context.Context, url string) attempt

// Fetcher performs polite page fetches: robots.txt checks, response
// caching, rate limiting, and retries with exponential backoff, in
// that order. A nil cache disables caching.
type Fetcher struct {
	cfg      config.CrawlConfig
	client   *http.Client
	robots   *RobotsAgent
	cache    *Cache
	limiter  *rate.Limiter
	pipeline doFunc

	mu    sync.Mutex
	stats model.FetchStats
}

func NewFetcher(cfg config.CrawlConfig, cache *Cache) *Fetcher {
	if len(cfg.UserAgents) == 0 {
		cfg.UserAgents = []string{"truthscan/1.0"}
	}
	f := &Fetcher{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		robots:  NewRobotsAgent(cfg.UserAgents[0], cfg.RespectRobots, cfg.Timeout),
		cache:   cache,
		limiter: rate.NewLimiter(rate.Every(cfg.RateLimitDelay), 1),
	}
	f.pipeline = f.withCache(f.withRateLimit(f.withRetry(f.doRequest)))
	return f
}

// Fetch retrieves a URL through the politeness pipeline and records
// stats. Success means HTTP 200; everything else, including robots
// denials, is reported as a failed result with the reason in Error.
func (f *Fetcher) Fetch(ctx context.Context, url string) model.FetchResult {
	start := time.Now()
	res := model.FetchResult{URL: url}

	if !f.robots.Allowed(ctx, url) {
		res.Error = "blocked by robots.txt"
		res.ElapsedMS = time.Since(start).Milliseconds()
		f.record(res)
		zap.L().Debug("robots.txt disallows url", zap.String("url", url))
		return res
	}

	at := f.pipeline(ctx, url)
	res.StatusCode = at.statusCode
	res.ContentType = at.contentType
	res.FromCache = at.fromCache
	res.ElapsedMS = time.Since(start).Milliseconds()

	switch {
	case at.err != nil:
		res.Error = at.err.Error()
	case at.statusCode == http.StatusOK:
		res.Success = true
		res.Content = string(at.body)
	default:
		res.Error = "unexpected status " + http.StatusText(at.statusCode)
	}
	f.record(res)
	return res
}

// Stats returns a snapshot of the politeness bookkeeping so far.
func (f *Fetcher) Stats() model.FetchStats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stats
}

func (f *Fetcher) record(res model.FetchResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stats.PagesAttempted++
	if res.Success {
		f.stats.PagesSuccessful++
	} else {
		f.stats.PagesFailed++
	}
	if res.FromCache {
		f.stats.PagesCached++
	}
	f.stats.TotalBytes += int64(len(res.Content))
	f.stats.TotalTimeMS += res.ElapsedMS
}

func (f *Fetcher) withCache(next doFunc) doFunc {
	return func(ctx context.Context, url string) attempt {
		if f.cache == nil {
			return next(ctx, url)
		}
		if hit, ok := f.cache.Get(ctx, url); ok {
			return attempt{
				statusCode:  hit.StatusCode,
				contentType: hit.ContentType,
				body:        hit.Body,
				fromCache:   true,
			}
		}
		at := next(ctx, url)
		if at.err == nil {
			f.cache.Put(ctx, url, cachedResponse{
				StatusCode:  at.statusCode,
				ContentType: at.contentType,
				Body:        at.body,
			})
		}
		return at
	}
}

func (f *Fetcher) withRateLimit(next doFunc) doFunc {
	return func(ctx context.Context, url string) attempt {
		if err := f.limiter.Wait(ctx); err != nil {
			return attempt{err: err}
		}
		return next(ctx, url)
	}
}

func (f *Fetcher) withRetry(next doFunc) doFunc {
	return func(ctx context.Context, url string) attempt {
		var at attempt
		backoff := initialBackoff
		for i := 0; i <= f.cfg.RetryAttempts; i++ {
			if i > 0 {
				zap.L().Debug("retrying fetch",
					zap.String("url", url),
					zap.Int("attempt", i),
					zap.Duration("backoff", backoff))
				select {
				case <-ctx.Done():
					return attempt{err: ctx.Err()}
				case <-time.After(backoff):
				}
				backoff = min(time.Duration(float64(backoff)*f.cfg.RetryBackoff), maxBackoff)
			}
			at = next(ctx, url)
			if at.err == nil && !retryStatuses[at.statusCode] {
				return at
			}
		}
		return at
	}
}

func (f *Fetcher) doRequest(ctx context.Context, url string) attempt {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return attempt{err: err}
	}
	req.Header.Set("User-Agent", f.userAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return attempt{err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return attempt{err: err}
	}
	ct := resp.Header.Get("Content-Type")
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return attempt{
		statusCode:  resp.StatusCode,
		contentType: strings.TrimSpace(ct),
		body:        body,
	}
}

func (f *Fetcher) userAgent() string {
	return f.cfg.UserAgents[rand.IntN(len(f.cfg.UserAgents))]
}
