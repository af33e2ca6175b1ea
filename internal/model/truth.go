package model

import (
	"strings"
	"time"
)

// CandidateRecord is the transparency view of one candidate with its derived
// score, as serialized into the truth record.
type CandidateRecord struct {
	Value      any          `json:"value"`
	Score      float64      `json:"score"`
	Provenance []Provenance `json:"provenance"`
	Notes      string       `json:"notes,omitempty"`
}

// TruthRecord is the final auditable output of one extraction run: the
// resolved fields plus the full candidate list behind each of them.
type TruthRecord struct {
	BusinessID   string                       `json:"business_id"`
	Domain       string                       `json:"domain"`
	CrawledAt    time.Time                    `json:"crawled_at"`
	PagesVisited int                          `json:"pages_visited"`
	Fields       map[string]FieldResult       `json:"fields"`
	Candidates   map[string][]CandidateRecord `json:"candidates"`
}

// BusinessID derives a stable identifier from a registrable domain:
// dots become dashes and a leading www prefix is dropped.
func BusinessID(domain string) string {
	id := strings.ReplaceAll(domain, ".", "-")
	return strings.TrimPrefix(id, "www-")
}

// CrawlReport is the crawl.json payload: crawl metadata plus fetch
// statistics and the per-page visit log.
type CrawlReport struct {
	StartURL string `json:"start_url"`
	Domain   string `json:"domain"`
	FetchStats
	FailedURLs []string      `json:"failed_urls"`
	Pages      []CrawledPage `json:"pages"`
}
