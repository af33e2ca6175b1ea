package extract

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/sells-group/truthscan/internal/config"
	"github.com/sells-group/truthscan/internal/htmldoc"
	"github.com/sells-group/truthscan/internal/model"

	"github.com/PuerkitoBio/goquery"
)

// BrandNameExtractor mines the page title, og:title and headers for
// the business name, screening everything through a plausibility
// filter.
type BrandNameExtractor struct {
	cfg config.ExtractionConfig
}

func NewBrandNameExtractor(cfg config.ExtractionConfig) *BrandNameExtractor {
	return &BrandNameExtractor{cfg: cfg}
}

func (e *BrandNameExtractor) Name() string { return "brand_name" }

var titleSeparators = []string{" – ", " — ", " - ", " | ", " :: "}

var titlePageNames = map[string]bool{
	"home": true, "contact": true, "about": true, "services": true,
	"portfolio": true, "about us": true, "contact us": true, "our services": true,
}

func (e *BrandNameExtractor) Extract(doc *htmldoc.Document) (Buckets, error) {
	buckets := Buckets{}
	buckets.Add(FieldBrandName, e.fromTitle(doc)...)
	buckets.Add(FieldBrandName, e.fromOGTitle(doc)...)
	buckets.Add(FieldBrandName, e.fromHeader(doc)...)
	return buckets, nil
}

// fromTitle splits the title on the first separator found and screens
// each segment. The trailing segment usually holds the brand, so it
// gets a small weight boost.
func (e *BrandNameExtractor) fromTitle(doc *htmldoc.Document) []model.Candidate {
	title := doc.Title()
	if title == "" {
		return nil
	}

	var candidates []model.Candidate
	for _, sep := range titleSeparators {
		if !strings.Contains(title, sep) {
			continue
		}
		parts := strings.Split(title, sep)
		for i, part := range parts {
			part = strings.TrimSpace(part)
			if len(part) < 3 || len(part) > 100 || titlePageNames[strings.ToLower(part)] {
				continue
			}
			if !looksLikeBusinessName(part) {
				continue
			}
			sw := 0.65
			if i == len(parts)-1 {
				sw += 0.1
			}
			candidates = append(candidates, model.Candidate{
				Value:        part,
				SourceWeight: sw,
				MethodWeight: 0.7,
				Provenance:   prov(doc, "title"),
				Notes:        "from page title",
			})
		}
		break
	}

	if len(candidates) == 0 && len(title) >= 3 && len(title) <= 100 && looksLikeBusinessName(title) {
		candidates = append(candidates, model.Candidate{
			Value:        title,
			SourceWeight: 0.6,
			MethodWeight: 0.7,
			Provenance:   prov(doc, "title"),
			Notes:        "full page title",
		})
	}
	return candidates
}

func (e *BrandNameExtractor) fromOGTitle(doc *htmldoc.Document) []model.Candidate {
	ogTitle := doc.MetaContent("og:title")
	if len(ogTitle) < 3 || !looksLikeBusinessName(ogTitle) {
		return nil
	}
	return []model.Candidate{{
		Value:        ogTitle,
		SourceWeight: 0.8,
		MethodWeight: 0.9,
		Provenance:   prov(doc, "meta[property='og:title']"),
	}}
}

// fromHeader prefers the header h1 and logo alt text; when the page
// has neither it falls back to the first few h1s anywhere.
func (e *BrandNameExtractor) fromHeader(doc *htmldoc.Document) []model.Candidate {
	var candidates []model.Candidate
	seen := map[string]bool{}

	h1 := strings.TrimSpace(doc.Find("header h1").First().Text())
	if len(h1) >= 3 && looksLikeBusinessName(h1) {
		seen[h1] = true
		candidates = append(candidates, model.Candidate{
			Value:        h1,
			SourceWeight: 0.85,
			MethodWeight: 0.8,
			Provenance:   prov(doc, "header h1"),
		})
	}

	doc.Find("header img").Each(func(_ int, s *goquery.Selection) {
		alt, _ := s.Attr("alt")
		alt = strings.TrimSpace(alt)
		if len(alt) < 3 || seen[alt] {
			return
		}
		class, _ := s.Attr("class")
		id, _ := s.Attr("id")
		if !strings.Contains(strings.ToLower(class), "logo") && !strings.Contains(strings.ToLower(id), "logo") {
			return
		}
		if looksLikeBusinessName(alt) {
			seen[alt] = true
			candidates = append(candidates, model.Candidate{
				Value:        alt,
				SourceWeight: 0.8,
				MethodWeight: 0.75,
				Provenance:   prov(doc, "header img[logo].alt"),
				Notes:        "from logo alt text",
			})
		}
	})

	if len(candidates) > 0 {
		return candidates
	}

	doc.Find("h1").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if i >= 3 {
			return false
		}
		text := strings.TrimSpace(s.Text())
		if len(text) >= 3 && !seen[text] && looksLikeBusinessName(text) {
			seen[text] = true
			candidates = append(candidates, model.Candidate{
				Value:        text,
				SourceWeight: 0.75,
				MethodWeight: 0.8,
				Provenance:   prov(doc, "h1"),
				Notes:        "from h1 tag",
			})
		}
		return true
	})
	return candidates
}

var (
	phonePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\d{3}[-.\s]?\d{3}[-.\s]?\d{4}`),
		regexp.MustCompile(`\(\d{3}\)\s*\d{3}[-.\s]?\d{4}`),
		regexp.MustCompile(`\+\d{1,3}\s*\d{3}`),
		regexp.MustCompile(`(?i)call.*\d{3}`),
		regexp.MustCompile(`\d{3}.*\d{3}.*\d{4}`),
	}
	hasDigitRe = regexp.MustCompile(`\d`)
)

var ctaPhrases = []string{
	"call us", "contact us", "click here", "learn more", "get started",
	"schedule", "book now", "free estimate", "request", "sign up",
	"subscribe", "follow us", "join us", "visit us", "find us",
	"call now", "call today", "click to", "tap to", "reach us",
}

var navTerms = map[string]bool{
	"home": true, "about": true, "about us": true, "contact": true,
	"contact us": true, "services": true, "portfolio": true, "gallery": true,
	"blog": true, "news": true, "careers": true, "team": true,
	"our services": true, "our work": true, "our team": true, "get in touch": true,
	"facebook": true, "instagram": true, "twitter": true, "linkedin": true,
	"youtube": true, "tiktok": true, "yelp": true,
}

var commonWords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "about": true,
	"from": true, "this": true, "that": true, "what": true, "when": true,
	"where": true, "why": true, "how": true, "welcome": true, "get": true,
	"learn": true, "find": true, "your": true, "our": true, "we": true,
	"you": true, "are": true, "is": true, "will": true, "can": true,
}

// looksLikeBusinessName screens a text fragment for name plausibility.
// It rejects phone numbers, emails, URLs, call-to-action copy, bare
// navigation words, digit/punctuation-heavy strings and sentence-like
// text.
func looksLikeBusinessName(text string) bool {
	lower := strings.ToLower(text)

	for _, re := range phonePatterns {
		if re.MatchString(text) {
			return false
		}
	}
	for _, kw := range []string{"call", "phone", "tel:", "telephone"} {
		if strings.Contains(lower, kw) && hasDigitRe.MatchString(text) {
			return false
		}
	}
	if strings.Contains(text, "@") || strings.Contains(lower, "email") {
		return false
	}
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") ||
		strings.HasPrefix(lower, "www.") || strings.Contains(lower, ".com") {
		return false
	}
	for _, phrase := range ctaPhrases {
		if strings.Contains(lower, phrase) {
			return false
		}
	}
	if navTerms[lower] {
		return false
	}

	var digits, alnum, letters, capitals int
	for _, r := range text {
		if unicode.IsDigit(r) {
			digits++
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			alnum++
		}
		if unicode.IsLetter(r) {
			letters++
		}
		if unicode.IsUpper(r) {
			capitals++
		}
	}
	n := len([]rune(text))
	if n == 0 || float64(digits)/float64(n) > 0.3 || float64(alnum)/float64(n) < 0.6 {
		return false
	}

	words := strings.Fields(lower)
	if len(words) > 3 {
		common := 0
		for _, w := range words {
			if commonWords[w] {
				common++
			}
		}
		if float64(common)/float64(len(words)) > 0.4 {
			return false
		}
	}
	if len(words) > 10 {
		return false
	}
	// Single short words are navigation labels, not names.
	if len(words) == 1 && n <= 6 {
		return false
	}

	return capitals > 0 && letters > 0 && n >= 3 && n <= 100
}
