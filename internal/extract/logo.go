package extract

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sells-group/truthscan/internal/htmldoc"
	"github.com/sells-group/truthscan/internal/model"
)

// LogoExtractor discovers logo images and scores them by how strongly
// the markup claims they are a logo, plus file-format quality.
type LogoExtractor struct{}

func NewLogoExtractor() *LogoExtractor { return &LogoExtractor{} }

func (e *LogoExtractor) Name() string { return "logo" }

func (e *LogoExtractor) Extract(doc *htmldoc.Document) (Buckets, error) {
	buckets := Buckets{}
	seen := map[string]bool{}

	add := func(src string, sw float64, path, alt string, width, height int) {
		if src == "" || seen[src] {
			return
		}
		seen[src] = true
		buckets.Add(FieldLogoURL, logoCandidate(doc, src, sw, path, alt, width, height))
	}

	doc.Find(`img[itemprop="logo"]`).Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		alt, _ := s.Attr("alt")
		add(doc.Resolve(src), 0.95, "img[itemprop='logo']", alt, imgDim(s, "width"), imgDim(s, "height"))
	})

	for _, img := range doc.Images([]string{"logo"}) {
		add(img.URL, 0.85, "img[class*='logo']", img.Alt, img.Width, img.Height)
	}

	doc.Find("header img").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		alt, _ := s.Attr("alt")
		add(doc.Resolve(src), 0.75, "header img", alt, imgDim(s, "width"), imgDim(s, "height"))
	})

	if og := doc.MetaContent("og:image"); og != "" {
		add(doc.Resolve(og), 0.6, "meta[property='og:image']", "", 0, 0)
	}

	return buckets, nil
}

// logoCandidate derives the method weight from format and dimension
// quality signals: vector beats raster, transparency-capable formats
// beat jpeg, plausible logo dimensions and logo alt text each add a
// little.
func logoCandidate(doc *htmldoc.Document, src string, sw float64, path, alt string, width, height int) model.Candidate {
	mw := 0.8
	var noteParts []string

	lower := strings.ToLower(src)
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
		if width >= 100 && width <= 1000 && height >= 50 && height <= 500 {
			mw = min(1.0, mw+0.05)
		}
	}
	if strings.Contains(strings.ToLower(alt), "logo") {
		mw = min(1.0, mw+0.05)
	}

	return model.Candidate{
		Value:        src,
		SourceWeight: sw,
		MethodWeight: mw,
		Provenance:   prov(doc, path),
		Notes:        strings.Join(noteParts, " "),
	}
}

func imgDim(s *goquery.Selection, attr string) int {
	v, _ := s.Attr(attr)
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0
	}
	return n
}
