package fetch

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
	"go.uber.org/zap"
)

// RobotsAgent answers robots.txt allow/deny questions with a per-host
// cache. Any failure to fetch or parse a robots.txt fails open: the
// crawl proceeds as if the site had no robots file.
type RobotsAgent struct {
	client    *http.Client
	userAgent string
	respect   bool

	mu    sync.Mutex
	hosts map[string]*robotstxt.Group
}

func NewRobotsAgent(userAgent string, respect bool, timeout time.Duration) *RobotsAgent {
	return &RobotsAgent{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		respect:   respect,
		hosts:     map[string]*robotstxt.Group{},
	}
}

// Allowed reports whether the agent may fetch the given URL. Disabled
// agents and unparseable URLs always allow.
func (a *RobotsAgent) Allowed(ctx context.Context, rawURL string) bool {
	if !a.respect {
		return true
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return true
	}
	g := a.group(ctx, u.Scheme+"://"+u.Host)
	if g == nil {
		return true
	}
	return g.Test(u.Path)
}

func (a *RobotsAgent) group(ctx context.Context, origin string) *robotstxt.Group {
	a.mu.Lock()
	g, ok := a.hosts[origin]
	a.mu.Unlock()
	if ok {
		return g
	}

	g = a.fetchGroup(ctx, origin)

	a.mu.Lock()
	a.hosts[origin] = g
	a.mu.Unlock()
	return g
}

func (a *RobotsAgent) fetchGroup(ctx context.Context, origin string) *robotstxt.Group {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/robots.txt", nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", a.userAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		zap.L().Debug("robots.txt fetch failed, allowing all",
			zap.String("origin", origin), zap.Error(err))
		return nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		return nil
	}
	robots, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		zap.L().Debug("robots.txt parse failed, allowing all",
			zap.String("origin", origin), zap.Error(err))
		return nil
	}
	return robots.FindGroup(a.userAgent)
}
