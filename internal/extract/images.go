package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sells-group/truthscan/internal/htmldoc"
	"github.com/sells-group/truthscan/internal/model"
)

// imageZone is one page region worth harvesting, with the selectors
// that find its images and the trust it confers.
type imageZone struct {
	name         string
	selectors    []string
	sourceWeight float64
}

var imageZones = []imageZone{
	{"hero", []string{".hero img", ".banner img", ".header img", ".jumbotron img", ".carousel img", ".slider img"}, 0.9},
	{"logo", []string{"img[itemprop='logo']", "img[class*='logo']", "img[id*='logo']", "header img", ".logo img", ".brand img"}, 0.95},
	{"gallery", []string{".gallery img", ".portfolio img", ".grid img", ".masonry img", ".lightbox img"}, 0.8},
	{"service", []string{".service img, .services img", ".work img", ".project img", ".offer img"}, 0.75},
	{"team", []string{".team img", ".staff img", ".about img", ".employee img", ".crew img", ".member img"}, 0.7},
	{"testimonial", []string{".testimonial img", ".review img", ".quote img", ".customer img", ".client img"}, 0.6},
	{"product", []string{".product img", ".item img", ".menu img", ".catalog img", ".store img"}, 0.7},
	{"footer", []string{"footer img"}, 0.5},
}

// ImagesExtractor harvests every image on a page grouped into zones
// (hero, logo, gallery, ...). Each image becomes its own candidate;
// the resolver aggregates them site-wide.
type ImagesExtractor struct{}

func NewImagesExtractor() *ImagesExtractor { return &ImagesExtractor{} }

func (e *ImagesExtractor) Name() string { return "images" }

func (e *ImagesExtractor) Extract(doc *htmldoc.Document) (Buckets, error) {
	buckets := Buckets{}
	seen := map[string]bool{}

	for _, zone := range imageZones {
		for _, selector := range zone.selectors {
			doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
				e.add(buckets, doc, s, zone.name, zone.sourceWeight, selector, seen)
			})
		}
	}

	// Anything uncategorized still gets recorded at low trust.
	doc.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
		e.add(buckets, doc, s, "unknown", 0.4, "img", seen)
	})

	return buckets, nil
}

func (e *ImagesExtractor) add(buckets Buckets, doc *htmldoc.Document, s *goquery.Selection, zone string, sw float64, path string, seen map[string]bool) {
	src, _ := s.Attr("src")
	if src == "" || strings.HasPrefix(strings.ToLower(src), "data:") {
		return
	}
	abs := doc.Resolve(src)
	if abs == "" || seen[abs] {
		return
	}
	seen[abs] = true

	alt, _ := s.Attr("alt")
	width := imgDim(s, "width")
	height := imgDim(s, "height")

	mw := 0.8
	noteParts := []string{zone}
	lower := strings.ToLower(abs)
	switch {
	case strings.HasSuffix(lower, ".svg"):
		mw = 1.0
		noteParts = append(noteParts, "svg")
	case strings.HasSuffix(lower, ".png"):
		mw = 0.9
		noteParts = append(noteParts, "png")
	case strings.HasSuffix(lower, ".webp"):
		mw = 0.85
		noteParts = append(noteParts, "webp")
	case strings.HasSuffix(lower, ".jpg"), strings.HasSuffix(lower, ".jpeg"):
		mw = 0.7
		noteParts = append(noteParts, "jpg")
	}
	if width > 0 && height > 0 {
		noteParts = append(noteParts, fmt.Sprintf("%dx%d", width, height))
		if width >= 100 && width <= 2000 && height >= 50 && height <= 2000 {
			mw = min(1.0, mw+0.05)
		}
	}
	if strings.TrimSpace(alt) != "" {
		mw = min(1.0, mw+0.05)
	}

	buckets.Add(FieldImages, model.Candidate{
		Value:        abs,
		SourceWeight: sw,
		MethodWeight: mw,
		Provenance:   prov(doc, path),
		Notes:        strings.Join(noteParts, " "),
	})
}
