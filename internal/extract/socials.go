package extract

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/sells-group/truthscan/internal/htmldoc"
	"github.com/sells-group/truthscan/internal/model"
)

// platformConfig describes how to recognize one social platform's
// profile URLs and which paths are share widgets rather than profiles.
type platformConfig struct {
	domains        []string
	profilePattern *regexp.Regexp
	skipPaths      []string
}

var socialPlatforms = map[string]platformConfig{
	"facebook": {
		domains:        []string{"facebook.com", "fb.com"},
		profilePattern: regexp.MustCompile(`(?i)facebook\.com/(?:profile\.php\?id=\d+|[a-zA-Z0-9.]+)/?$`),
		skipPaths:      []string{"/sharer", "/share", "/dialog", "/plugins"},
	},
	"instagram": {
		domains:        []string{"instagram.com"},
		profilePattern: regexp.MustCompile(`(?i)instagram\.com/[a-zA-Z0-9._]+/?$`),
		skipPaths:      []string{"/p/", "/tv/", "/reel/", "/stories/"},
	},
	"linkedin": {
		domains:        []string{"linkedin.com"},
		profilePattern: regexp.MustCompile(`(?i)linkedin\.com/(company|in)/[a-zA-Z0-9-]+/?$`),
		skipPaths:      []string{"/sharing", "/share"},
	},
	"x": {
		domains:        []string{"twitter.com", "x.com"},
		profilePattern: regexp.MustCompile(`(?i)(?:twitter|x)\.com/[a-zA-Z0-9_]+/?$`),
		skipPaths:      []string{"/share", "/intent", "/status/"},
	},
	"youtube": {
		domains:        []string{"youtube.com"},
		profilePattern: regexp.MustCompile(`(?i)youtube\.com/(?:channel|c|user|@)/?[a-zA-Z0-9_-]+/?$`),
		skipPaths:      []string{"/watch", "/playlist", "/shorts"},
	},
	"tiktok": {
		domains:        []string{"tiktok.com"},
		profilePattern: regexp.MustCompile(`(?i)tiktok\.com/@[a-zA-Z0-9._]+/?$`),
		skipPaths:      []string{"/video/"},
	},
	"yelp": {
		domains:        []string{"yelp.com"},
		profilePattern: regexp.MustCompile(`(?i)yelp\.com/biz/[a-zA-Z0-9-]+`),
		skipPaths:      nil,
	},
	"pinterest": {
		domains:        []string{"pinterest.com"},
		profilePattern: regexp.MustCompile(`(?i)pinterest\.com/[a-zA-Z0-9_]+/?$`),
		skipPaths:      []string{"/pin/", "/search/"},
	},
}

// SocialsExtractor finds social profile links and normalizes them
// (https, lowercase host, twitter folded into x, no trailing slash).
type SocialsExtractor struct{}

func NewSocialsExtractor() *SocialsExtractor { return &SocialsExtractor{} }

func (e *SocialsExtractor) Name() string { return "socials" }

func (e *SocialsExtractor) Extract(doc *htmldoc.Document) (Buckets, error) {
	var domainPatterns []string
	for _, cfg := range socialPlatforms {
		domainPatterns = append(domainPatterns, cfg.domains...)
	}

	buckets := Buckets{}
	seen := map[string]bool{}
	for _, link := range doc.SocialLinks(domainPatterns) {
		platform := identifyPlatform(link)
		if platform == "" || !isProfileURL(platform, link) {
			continue
		}
		normalized := normalizeSocialURL(platform, link)
		if normalized == "" || seen[normalized] {
			continue
		}
		seen[normalized] = true
		buckets.Add(FieldSocials+"."+platform, model.Candidate{
			Value:        normalized,
			SourceWeight: 0.85,
			MethodWeight: 0.9,
			Provenance:   prov(doc, "a[href*='"+platform+"']"),
		})
	}
	return buckets, nil
}

func identifyPlatform(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Host)
	for platform, cfg := range socialPlatforms {
		for _, domain := range cfg.domains {
			if strings.Contains(host, domain) {
				return platform
			}
		}
	}
	return ""
}

func isProfileURL(platform, rawURL string) bool {
	cfg := socialPlatforms[platform]
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	path := strings.ToLower(u.Path)
	for _, skip := range cfg.skipPaths {
		if strings.Contains(path, skip) {
			return false
		}
	}
	return cfg.profilePattern.MatchString(rawURL)
}

func normalizeSocialURL(platform, rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Host)
	if platform == "x" {
		host = strings.Replace(host, "twitter.com", "x.com", 1)
	}
	return "https://" + host + strings.TrimRight(u.Path, "/")
}
