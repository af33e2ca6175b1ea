// Package pipeline coordinates crawling, candidate extraction, field
// resolution and assembly of the final truth record.
package pipeline

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/truthscan/internal/config"
	"github.com/sells-group/truthscan/internal/crawl"
	"github.com/sells-group/truthscan/internal/extract"
	"github.com/sells-group/truthscan/internal/model"
	"github.com/sells-group/truthscan/internal/resolve"
)

// extractWorkers bounds concurrent per-page extraction.
const extractWorkers = 4

// Crawler is the crawl dependency of the pipeline.
type Crawler interface {
	Crawl(ctx context.Context, startURL string) (*crawl.Result, error)
}

// Pipeline runs one full extraction: crawl, per-page extraction,
// cross-page merging, resolution.
type Pipeline struct {
	cfg      config.ExtractionConfig
	crawler  Crawler
	resolver *resolve.Resolver
	taxonomy config.Taxonomy
	colors   *extract.ColorsExtractor
}

// New builds a pipeline around an already-configured crawler.
func New(cfg *config.Config, crawler Crawler, taxonomy config.Taxonomy) *Pipeline {
	return &Pipeline{
		cfg:      cfg.Extraction,
		crawler:  crawler,
		resolver: resolve.New(cfg.Extraction, cfg.GeocodeToken),
		taxonomy: taxonomy,
		colors:   extract.NewColorsExtractor(),
	}
}

// Run crawls the site and produces the truth record plus the crawl result
// for reporting. It fails only when not a single page could be crawled.
func (p *Pipeline) Run(ctx context.Context, startURL string) (*model.TruthRecord, *crawl.Result, error) {
	zap.L().Info("starting extraction", zap.String("url", startURL))

	result, err := p.crawler.Crawl(ctx, startURL)
	if err != nil {
		return nil, nil, eris.Wrap(err, "pipeline: crawl")
	}

	pages := result.SuccessfulPages()
	if len(pages) == 0 {
		return nil, result, eris.New("pipeline: no pages crawled successfully")
	}
	zap.L().Info("crawl finished",
		zap.Int("pages", len(pages)),
		zap.Int("failed", len(result.FailedURLs)))

	buckets := p.extractCandidates(ctx, pages)
	buckets[extract.FieldServices] = mergeServiceCandidates(buckets[extract.FieldServices])
	p.extractColors(ctx, pages[0], buckets)

	fields := p.resolveFields(ctx, buckets)

	record := &model.TruthRecord{
		BusinessID:   model.BusinessID(result.Domain),
		Domain:       result.Domain,
		CrawledAt:    time.Now().UTC(),
		PagesVisited: len(pages),
		Fields:       fields,
		Candidates:   candidateRecords(buckets),
	}
	return record, result, nil
}

// extractCandidates runs every applicable extractor over every parsed page
// and merges the per-page buckets. A failing extractor skips that page for
// that extractor only.
func (p *Pipeline) extractCandidates(ctx context.Context, pages []crawl.Page) extract.Buckets {
	always := []extract.Extractor{
		extract.NewStructuredDataExtractor(p.cfg),
		extract.NewBrandNameExtractor(p.cfg),
		extract.NewContactExtractor(p.cfg),
		extract.NewSocialsExtractor(),
		extract.NewLogoExtractor(),
		extract.NewImagesExtractor(),
	}
	services := extract.NewServicesExtractor(p.cfg, p.taxonomy)
	textBits := extract.NewTextBitsExtractor(p.cfg)

	var mu sync.Mutex
	merged := extract.Buckets{}

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(extractWorkers)

	for _, page := range pages {
		if page.Doc == nil {
			continue
		}
		g.Go(func() error {
			extractors := make([]extract.Extractor, 0, len(always)+2)
			extractors = append(extractors, always...)
			if pageMatches(page, "service", "about", "home", "work") {
				extractors = append(extractors, services)
			}
			if pageMatches(page, "about", "home") {
				extractors = append(extractors, textBits)
			}

			local := extract.Buckets{}
			for _, ex := range extractors {
				b, err := ex.Extract(page.Doc)
				if err != nil {
					zap.L().Warn("extractor failed",
						zap.String("extractor", ex.Name()),
						zap.String("url", page.URL),
						zap.Error(err))
					continue
				}
				local.Merge(b)
			}

			mu.Lock()
			merged.Merge(local)
			mu.Unlock()
			return nil
		})
	}
	// Workers never return errors; Wait only synchronizes.
	_ = g.Wait()

	return merged
}

// pageMatches reports whether the page URL contains any keyword, treating
// the start page as matching everything.
func pageMatches(page crawl.Page, keywords ...string) bool {
	if page.Depth == 0 {
		return true
	}
	lower := strings.ToLower(page.URL)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// extractColors runs color extraction against the homepage, handing it the
// current best logo URL so the palette can be sampled from the logo image.
func (p *Pipeline) extractColors(ctx context.Context, homepage crawl.Page, buckets extract.Buckets) {
	if homepage.Doc == nil {
		return
	}
	logoURL := ""
	if logos := buckets[extract.FieldLogoURL]; len(logos) > 0 {
		best := resolve.ScoreCandidates(logos)[0]
		if s, ok := best.Value.(string); ok {
			logoURL = s
		}
	}
	b, err := p.colors.ExtractWithLogo(ctx, homepage.Doc, logoURL)
	if err != nil {
		zap.L().Warn("color extraction failed", zap.Error(err))
		return
	}
	buckets.Merge(b)
}

// mergeServiceCandidates unions service lists found on different pages into
// one candidate carrying the best contributor's weights. Competing partial
// lists would otherwise shadow each other at resolution.
func mergeServiceCandidates(candidates []model.Candidate) []model.Candidate {
	if len(candidates) < 2 {
		return candidates
	}

	seen := map[string]bool{}
	var union []string
	best := candidates[0]
	for _, c := range candidates {
		names, ok := c.Value.([]string)
		if !ok {
			continue
		}
		for _, name := range names {
			if !seen[name] {
				seen[name] = true
				union = append(union, name)
			}
		}
		if c.SourceWeight*c.MethodWeight > best.SourceWeight*best.MethodWeight {
			best = c
		}
	}
	if len(union) == 0 {
		return candidates
	}
	sort.Strings(union)

	return []model.Candidate{{
		Value:        union,
		SourceWeight: best.SourceWeight,
		MethodWeight: best.MethodWeight,
		Provenance:   best.Provenance,
		Notes:        "merged from " + strconv.Itoa(len(candidates)) + " pages",
	}}
}

func (p *Pipeline) resolveFields(ctx context.Context, buckets extract.Buckets) map[string]model.FieldResult {
	byPlatform := map[string][]model.Candidate{}
	for key, cands := range buckets {
		if platform, ok := strings.CutPrefix(key, extract.FieldSocials+"."); ok {
			byPlatform[platform] = cands
		}
	}

	return map[string]model.FieldResult{
		extract.FieldBrandName:  p.resolver.BrandName(buckets[extract.FieldBrandName]),
		extract.FieldAddress:    p.resolver.Address(buckets[extract.FieldAddress]),
		extract.FieldEmail:      p.resolver.Email(ctx, buckets[extract.FieldEmail]),
		extract.FieldPhone:      p.resolver.Phone(buckets[extract.FieldPhone]),
		extract.FieldSocials:    p.resolver.Socials(byPlatform),
		extract.FieldServices:   p.resolver.Services(buckets[extract.FieldServices]),
		extract.FieldColors:     p.resolver.Colors(buckets[extract.FieldColors]),
		extract.FieldLogoURL:    p.resolver.Logo(buckets[extract.FieldLogoURL]),
		extract.FieldBackground: p.resolver.Text(buckets[extract.FieldBackground]),
		extract.FieldSlogan:     p.resolver.Text(buckets[extract.FieldSlogan]),
		extract.FieldImages:     p.resolver.Images(buckets[extract.FieldImages]),
	}
}

// candidateRecords converts the raw buckets into the transparency block of
// the truth record.
func candidateRecords(buckets extract.Buckets) map[string][]model.CandidateRecord {
	out := make(map[string][]model.CandidateRecord, len(buckets))
	for field, cands := range buckets {
		records := make([]model.CandidateRecord, 0, len(cands))
		for _, c := range cands {
			prov := c.Provenance
			if prov == nil {
				prov = []model.Provenance{}
			}
			records = append(records, model.CandidateRecord{
				Value:      c.Value,
				Score:      c.Score(),
				Provenance: prov,
				Notes:      c.Notes,
			})
		}
		out[field] = records
	}
	return out
}
