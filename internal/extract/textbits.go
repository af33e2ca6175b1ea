package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sells-group/truthscan/internal/config"
	"github.com/sells-group/truthscan/internal/htmldoc"
	"github.com/sells-group/truthscan/internal/model"
)

// TextBitsExtractor pulls two short text fields: a background blurb
// (about/hero paragraph or meta description) and a slogan (header
// tagline, hero heading, or title segment).
type TextBitsExtractor struct {
	cfg config.ExtractionConfig
}

func NewTextBitsExtractor(cfg config.ExtractionConfig) *TextBitsExtractor {
	return &TextBitsExtractor{cfg: cfg}
}

func (e *TextBitsExtractor) Name() string { return "text_bits" }

func (e *TextBitsExtractor) Extract(doc *htmldoc.Document) (Buckets, error) {
	buckets := Buckets{}
	buckets.Add(FieldBackground, e.background(doc)...)
	buckets.Add(FieldSlogan, e.slogan(doc)...)
	return buckets, nil
}

var (
	heroClassRe    = regexp.MustCompile(`(?i)hero|intro|banner`)
	taglineClassRe = regexp.MustCompile(`(?i)tagline|slogan|motto`)
	titleSplitRe   = regexp.MustCompile(`[|–—-]`)
)

func (e *TextBitsExtractor) background(doc *htmldoc.Document) []model.Candidate {
	maxWords := e.cfg.BackgroundWords
	if maxWords <= 0 {
		maxWords = 50
	}

	var candidates []model.Candidate
	seen := map[string]bool{}
	add := func(text string, sw, mw float64, path, notes string) {
		words := strings.Fields(text)
		if len(words) > maxWords {
			words = words[:maxWords]
		}
		truncated := strings.Join(words, " ")
		if truncated == "" || seen[truncated] {
			return
		}
		seen[truncated] = true
		candidates = append(candidates, model.Candidate{
			Value:        truncated,
			SourceWeight: sw,
			MethodWeight: mw,
			Provenance:   prov(doc, path),
			Notes:        notes,
		})
	}

	// First substantial paragraph of each about section.
	matched := 0
	doc.Find("section, article, div").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !sectionMatchesAny(s, []string{"about", "who we are", "our story", "about us"}) {
			return true
		}
		matched++
		s.Find("p").EachWithBreak(func(_ int, p *goquery.Selection) bool {
			text := strings.TrimSpace(p.Text())
			if len(strings.Fields(text)) >= 10 {
				add(text, 0.75, 0.7, "about_section.p", "")
				return false
			}
			return true
		})
		return matched < 2
	})

	// Hero/intro copy.
	matched = 0
	doc.Find("section, div").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		class, _ := s.Attr("class")
		if !heroClassRe.MatchString(class) {
			return true
		}
		matched++
		s.Find("p").EachWithBreak(func(_ int, p *goquery.Selection) bool {
			text := strings.TrimSpace(p.Text())
			if len(strings.Fields(text)) >= 10 {
				add(text, 0.65, 0.7, "hero_section.p", "")
				return false
			}
			return true
		})
		return matched < 2
	})

	if meta := doc.MetaContent("description"); meta != "" {
		add(meta, 0.6, 0.8, "meta[name='description']", "from meta description")
	}

	return candidates
}

func (e *TextBitsExtractor) slogan(doc *htmldoc.Document) []model.Candidate {
	maxWords := e.cfg.SloganWords
	if maxWords <= 0 {
		maxWords = 8
	}

	var candidates []model.Candidate
	seen := map[string]bool{}
	add := func(text string, sw, mw float64, path, notes string) {
		if text == "" || seen[text] {
			return
		}
		seen[text] = true
		candidates = append(candidates, model.Candidate{
			Value:        text,
			SourceWeight: sw,
			MethodWeight: mw,
			Provenance:   prov(doc, path),
			Notes:        notes,
		})
	}

	doc.Find("header").Find("p, span, div").Each(func(_ int, s *goquery.Selection) {
		class, _ := s.Attr("class")
		if !taglineClassRe.MatchString(class) {
			return
		}
		text := strings.TrimSpace(s.Text())
		if text != "" && len(strings.Fields(text)) <= maxWords && !isCTA(text) {
			add(text, 0.8, 0.8, "header.tagline", "")
		}
	})

	doc.Find("section, div").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		class, _ := s.Attr("class")
		if !heroClassRe.MatchString(class) {
			return true
		}
		s.Find("h2, h3, p").Each(func(_ int, el *goquery.Selection) {
			text := strings.TrimSpace(el.Text())
			wc := len(strings.Fields(text))
			if wc >= 3 && wc <= maxWords && !isCTA(text) {
				add(text, 0.7, 0.75, "hero.heading", "")
			}
		})
		return false
	})

	if title := doc.Title(); title != "" {
		for _, part := range titleSplitRe.Split(title, -1) {
			text := strings.TrimSpace(part)
			wc := len(strings.Fields(text))
			if wc >= 2 && wc <= maxWords && !isCTA(text) {
				add(text, 0.6, 0.7, "title", "from page title")
			}
		}
	}

	return candidates
}

func sectionMatchesAny(s *goquery.Selection, keywords []string) bool {
	id, _ := s.Attr("id")
	class, _ := s.Attr("class")
	haystack := strings.ToLower(id + " " + class)
	heading := strings.ToLower(s.ChildrenFiltered("h1, h2, h3").First().Text())
	for _, kw := range keywords {
		if strings.Contains(haystack, kw) || (heading != "" && strings.Contains(heading, kw)) {
			return true
		}
	}
	return false
}

var ctaMarkers = []string{
	"call now", "contact us", "get started", "learn more",
	"book now", "schedule", "request", "get a quote",
	"click here", "read more", "view", "see",
}

func isCTA(text string) bool {
	lower := strings.ToLower(text)
	for _, cta := range ctaMarkers {
		if strings.Contains(lower, cta) {
			return true
		}
	}
	return false
}
