package extract

import (
	"fmt"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sells-group/truthscan/internal/config"
	"github.com/sells-group/truthscan/internal/htmldoc"
	"github.com/sells-group/truthscan/internal/model"
)

// ServicesExtractor mines service names from section lists, headings,
// navigation and footer text, then maps them onto the canonical
// taxonomy. Taxonomy-mapped names beat raw ones.
type ServicesExtractor struct {
	cfg      config.ExtractionConfig
	taxonomy config.Taxonomy
}

func NewServicesExtractor(cfg config.ExtractionConfig, taxonomy config.Taxonomy) *ServicesExtractor {
	return &ServicesExtractor{cfg: cfg, taxonomy: taxonomy}
}

func (e *ServicesExtractor) Name() string { return "services" }

var serviceSectionKeywords = []string{
	"service", "services", "what we do", "our services", "we offer",
	"specialty", "specialties", "expertise", "capabilities", "offerings",
	"lawn", "landscaping", "plumbing", "hvac", "electrical", "cleaning",
	"repair", "installation", "maintenance", "inspection",
}

func (e *ServicesExtractor) Extract(doc *htmldoc.Document) (Buckets, error) {
	maxServices := e.cfg.ServicesMax
	if maxServices <= 0 {
		maxServices = 8
	}

	raw := e.findServiceText(doc)
	cleaned := cleanRawServices(raw)
	mapped := e.mapToTaxonomy(cleaned)

	buckets := Buckets{}
	if len(mapped) > 0 {
		if len(mapped) > maxServices {
			mapped = mapped[:maxServices]
		}
		buckets.Add(FieldServices, model.Candidate{
			Value:        mapped,
			SourceWeight: 0.85,
			MethodWeight: 0.9,
			Provenance:   prov(doc, "services_section.taxonomy"),
			Notes:        fmt.Sprintf("canonical: %d services", len(mapped)),
		})
	} else if len(cleaned) > 0 {
		if len(cleaned) > maxServices {
			cleaned = cleaned[:maxServices]
		}
		buckets.Add(FieldServices, model.Candidate{
			Value:        cleaned,
			SourceWeight: 0.6,
			MethodWeight: 0.7,
			Provenance:   prov(doc, "services_section.raw"),
			Notes:        fmt.Sprintf("raw: %d services", len(cleaned)),
		})
	}
	return buckets, nil
}

var serviceActionWords = []string{
	"repair", "install", "clean", "maintain", "inspect", "fix", "replace", "upgrade",
}

var servicePhraseMarkers = []string{
	"we provide", "we offer", "services include", "we specialize",
}

func (e *ServicesExtractor) findServiceText(doc *htmldoc.Document) []string {
	var services []string
	seen := map[string]bool{}
	add := func(text string) {
		text = strings.TrimSpace(text)
		lower := strings.ToLower(text)
		if text == "" || seen[lower] {
			return
		}
		seen[lower] = true
		services = append(services, text)
	}

	// Sections whose id, class or heading mentions services.
	matched := 0
	doc.Find("section, article, div").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !sectionMatchesServices(s) {
			return true
		}
		matched++

		s.Find("ul li, ol li").Each(func(_ int, li *goquery.Selection) {
			if text := strings.TrimSpace(li.Text()); text != "" && len(text) < 100 {
				add(text)
			}
		})
		s.Find("h2, h3, h4").Each(func(_ int, h *goquery.Selection) {
			if text := strings.TrimSpace(h.Text()); text != "" && len(text) < 100 {
				add(text)
			}
		})
		s.Find("p").Each(func(_ int, p *goquery.Selection) {
			text := strings.TrimSpace(p.Text())
			if len(text) <= 10 || len(text) >= 200 {
				return
			}
			lower := strings.ToLower(text)
			for _, marker := range servicePhraseMarkers {
				if strings.Contains(lower, marker) {
					for _, sentence := range strings.Split(text, ".") {
						sentence = strings.TrimSpace(sentence)
						if len(sentence) > 5 && len(sentence) < 80 {
							add(sentence)
						}
					}
					break
				}
			}
		})
		return matched < 5
	})

	// Navigation entries that read like services.
	doc.Find("nav a").Each(func(_ int, a *goquery.Selection) {
		text := strings.TrimSpace(a.Text())
		if text == "" || len(text) >= 50 {
			return
		}
		href, _ := a.Attr("href")
		lower := strings.ToLower(text)
		words := len(strings.Fields(text))
		looksService := strings.Contains(strings.ToLower(href), "service") ||
			(words >= 2 && words <= 5)
		if !looksService {
			for _, w := range serviceActionWords[:5] {
				if strings.Contains(lower, w) {
					looksService = true
					break
				}
			}
		}
		if looksService {
			add(text)
		}
	})

	// Buttons and links naming a service action.
	doc.Find("button, a").Each(func(_ int, el *goquery.Selection) {
		text := strings.TrimSpace(el.Text())
		if len(text) <= 5 || len(text) >= 50 {
			return
		}
		lower := strings.ToLower(text)
		for _, w := range serviceActionWords {
			if strings.Contains(lower, w) {
				add(text)
				break
			}
		}
	})

	// Footers often carry a short service list.
	doc.Find("footer li").Each(func(_ int, li *goquery.Selection) {
		text := strings.TrimSpace(li.Text())
		if len(text) > 3 && len(text) < 50 && len(strings.Fields(text)) <= 4 {
			add(text)
		}
	})

	return services
}

func sectionMatchesServices(s *goquery.Selection) bool {
	id, _ := s.Attr("id")
	class, _ := s.Attr("class")
	haystack := strings.ToLower(id + " " + class)
	heading := strings.ToLower(s.ChildrenFiltered("h1, h2, h3").First().Text())
	for _, kw := range serviceSectionKeywords {
		if strings.Contains(haystack, kw) || (heading != "" && strings.Contains(heading, kw)) {
			return true
		}
	}
	return false
}

// mapToTaxonomy matches cleaned service strings against the taxonomy
// synonyms and returns the canonical names, best matches first.
func (e *ServicesExtractor) mapToTaxonomy(services []string) []string {
	scores := map[string]float64{}
	var order []string

	for _, text := range services {
		lower := strings.ToLower(text)
		for canonical, synonyms := range e.taxonomy {
			for _, synonym := range synonyms {
				if !strings.Contains(lower, synonym) && !strings.Contains(synonym, lower) {
					continue
				}
				var score float64
				switch {
				case synonym == lower:
					score = 1.0
				case strings.Contains(synonym, lower):
					score = 0.9
				default:
					score = 0.8
				}
				if prev, ok := scores[canonical]; !ok {
					scores[canonical] = score
					order = append(order, canonical)
				} else if score > prev {
					scores[canonical] = score
				}
				break
			}
		}
	}

	// Stable order: by score descending, insertion order for ties.
	sort.SliceStable(order, func(i, j int) bool {
		return scores[order[i]] > scores[order[j]]
	})
	return order
}

var sentenceStarters = []string{
	"we ", "our ", "i ", "my ", "they ", "you ", "it ",
	"this ", "that ", "then ", "which ", "who ", "when ",
	"where ", "why ", "how ", "the ", "a ", "an ",
}

var navExactTerms = map[string]bool{
	"services": true, "service": true, "home": true, "contact": true,
	"about": true, "portfolio": true, "gallery": true, "blog": true,
	"news": true, "privacy": true, "terms": true, "sitemap": true,
	"our work": true, "work": true, "hours of operation": true,
	"hours": true, "operation": true, "open": true, "closed": true,
}

var serviceSkipPatterns = []string{
	"contact us", "about us", "home page",
	"more", "read", "learn", "click", "here", "now", "today",
	"call", "phone", "tel", "address", "email",
	"get in touch", "reach out", "send us", "message us",
	"follow us", "like us", "share", "subscribe", "sign up", "book now",
	"facebook", "instagram", "twitter", "linkedin", "youtube", "tiktok",
	"your message", "has been sent", "thank you", "submit", "send",
	"back to", "return to", "go to", "view", "see", "show",
	"welcome", "hello",
}

// cleanRawServices filters mined text down to plausible service names:
// short noun phrases that are not sentences, navigation labels, CTAs
// or contact fragments. Shorter names sort first since they are
// usually headings rather than prose.
func cleanRawServices(raw []string) []string {
	var cleaned []string
	seen := map[string]bool{}

	for _, service := range raw {
		service = strings.Join(strings.Fields(service), " ")
		if len(service) < 3 || len(service) > 100 {
			continue
		}
		lower := strings.ToLower(service)
		spaced := " " + lower + " "

		sentenceLike := false
		for _, marker := range []string{
			" we ", " our ", " us ", " i ", " my ", " they ",
			" you ", " your ", " it ", " this ", " that ",
			" then ", " which ", " who ",
		} {
			if strings.Contains(spaced, marker) {
				sentenceLike = true
				break
			}
		}
		if sentenceLike {
			continue
		}

		startsLikeSentence := false
		for _, starter := range sentenceStarters {
			if strings.HasPrefix(lower, starter) {
				startsLikeSentence = true
				break
			}
		}
		if startsLikeSentence || navExactTerms[lower] {
			continue
		}

		skip := false
		for _, pattern := range serviceSkipPatterns {
			if strings.Contains(lower, pattern) {
				skip = true
				break
			}
		}
		if skip || strings.HasPrefix(lower, "http") || strings.HasPrefix(lower, "www") || strings.HasPrefix(lower, "@") {
			continue
		}

		alnum := 0
		for _, r := range service {
			if ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9') {
				alnum++
			}
		}
		if alnum < 3 || len(strings.Fields(service)) > 8 {
			continue
		}

		if !seen[lower] {
			seen[lower] = true
			cleaned = append(cleaned, service)
		}
	}

	sort.SliceStable(cleaned, func(i, j int) bool {
		return len(cleaned[i]) < len(cleaned[j])
	})
	return cleaned
}
