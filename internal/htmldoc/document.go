// Package htmldoc wraps a parsed HTML page with the read-only queries
// the extractors need. All URL-returning methods resolve relative
// references against the page URL.
package htmldoc

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"github.com/sells-group/truthscan/internal/model"
)

// Document is an immutable query facade over one parsed page.
type Document struct {
	doc  *goquery.Document
	base *url.URL
	url  string
}

func Parse(content, pageURL string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, eris.Wrapf(err, "htmldoc: parse %s", pageURL)
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, eris.Wrapf(err, "htmldoc: parse page url %s", pageURL)
	}
	return &Document{doc: doc, base: base, url: pageURL}, nil
}

// URL returns the page URL the document was parsed from.
func (d *Document) URL() string { return d.url }

// Find exposes raw selector queries for extractors with page-specific
// needs not covered by the named helpers.
func (d *Document) Find(selector string) *goquery.Selection {
	return d.doc.Find(selector)
}

// Resolve makes a possibly-relative URL absolute against the page URL.
func (d *Document) Resolve(href string) string {
	u, err := d.base.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	u.Fragment = ""
	return u.String()
}

func (d *Document) Title() string {
	return collapseSpace(d.doc.Find("title").First().Text())
}

// MetaContent returns the content of the first meta tag whose name or
// property attribute equals key.
func (d *Document) MetaContent(key string) string {
	sel := d.doc.Find(`meta[name="` + key + `"], meta[property="` + key + `"]`).First()
	content, _ := sel.Attr("content")
	return strings.TrimSpace(content)
}

// AllLinks returns every same-document hyperlink as an absolute URL,
// skipping javascript/mailto/tel and bare-fragment hrefs. Order follows
// document order; duplicates are removed.
func (d *Document) AllLinks() []string {
	return d.collectLinks(d.doc.Find("a[href]"))
}

// NavigationLinks returns links found inside nav and header elements.
func (d *Document) NavigationLinks() []string {
	return d.collectLinks(d.doc.Find("nav a[href], header a[href], [role=navigation] a[href]"))
}

func (d *Document) collectLinks(sel *goquery.Selection) []string {
	var links []string
	seen := map[string]bool{}
	sel.Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}
		lower := strings.ToLower(href)
		for _, scheme := range []string{"javascript:", "mailto:", "tel:", "data:"} {
			if strings.HasPrefix(lower, scheme) {
				return
			}
		}
		abs := d.Resolve(href)
		if abs == "" || seen[abs] {
			return
		}
		seen[abs] = true
		links = append(links, abs)
	})
	return links
}

// FindSectionsByText returns the collapsed text of sections, divs and
// articles whose id, class or heading matches any of the patterns
// (case-insensitive substrings). Used for about/contact/service mining.
func (d *Document) FindSectionsByText(patterns []string) []string {
	lowered := make([]string, len(patterns))
	for i, p := range patterns {
		lowered[i] = strings.ToLower(p)
	}
	matchAny := func(s string) bool {
		s = strings.ToLower(s)
		for _, p := range lowered {
			if p != "" && strings.Contains(s, p) {
				return true
			}
		}
		return false
	}

	var texts []string
	d.doc.Find("section, article, div").Each(func(_ int, s *goquery.Selection) {
		id, _ := s.Attr("id")
		class, _ := s.Attr("class")
		matched := matchAny(id) || matchAny(class)
		if !matched {
			heading := s.ChildrenFiltered("h1, h2, h3").First().Text()
			matched = heading != "" && matchAny(heading)
		}
		if !matched {
			return
		}
		text := collapseSpace(s.Text())
		if text != "" {
			texts = append(texts, text)
		}
	})
	return texts
}

// StructuredDataScripts returns the raw contents of every JSON-LD
// script block on the page.
func (d *Document) StructuredDataScripts() []string {
	var scripts []string
	d.doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			scripts = append(scripts, text)
		}
	})
	return scripts
}

// TelLinks returns the numbers of every tel: anchor, scheme stripped.
func (d *Document) TelLinks() []string {
	var nums []string
	d.doc.Find(`a[href^="tel:"]`).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		num := strings.TrimSpace(strings.TrimPrefix(href, "tel:"))
		if num != "" {
			nums = append(nums, num)
		}
	})
	return nums
}

// MailtoLinks returns the addresses of every mailto: anchor, with any
// ?subject= style query dropped.
func (d *Document) MailtoLinks() []string {
	var addrs []string
	d.doc.Find(`a[href^="mailto:"]`).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		addr := strings.TrimPrefix(href, "mailto:")
		if i := strings.IndexByte(addr, '?'); i >= 0 {
			addr = addr[:i]
		}
		addr = strings.TrimSpace(addr)
		if addr != "" {
			addrs = append(addrs, addr)
		}
	})
	return addrs
}

// SocialLinks returns absolute hrefs whose host or path contains any
// of the given domain patterns.
func (d *Document) SocialLinks(domainPatterns []string) []string {
	var links []string
	seen := map[string]bool{}
	d.doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		lower := strings.ToLower(href)
		for _, p := range domainPatterns {
			if strings.Contains(lower, strings.ToLower(p)) {
				abs := d.Resolve(href)
				if abs != "" && !seen[abs] {
					seen[abs] = true
					links = append(links, abs)
				}
				return
			}
		}
	})
	return links
}

var cssVarRe = regexp.MustCompile(`(--[A-Za-z0-9_-]+)\s*:\s*([^;}{]+)`)

// CSSVariable is one custom property declaration.
type CSSVariable struct {
	Name  string
	Value string
}

// CSSVariables returns custom properties declared in inline style
// blocks and style attributes, in declaration order. First declaration
// of a name wins.
func (d *Document) CSSVariables() []CSSVariable {
	seen := map[string]bool{}
	var vars []CSSVariable
	scan := func(css string) {
		for _, m := range cssVarRe.FindAllStringSubmatch(css, -1) {
			name, value := m[1], strings.TrimSpace(m[2])
			if !seen[name] && value != "" {
				seen[name] = true
				vars = append(vars, CSSVariable{Name: name, Value: value})
			}
		}
	}
	d.doc.Find("style").Each(func(_ int, s *goquery.Selection) {
		scan(s.Text())
	})
	d.doc.Find("[style]").Each(func(_ int, s *goquery.Selection) {
		style, _ := s.Attr("style")
		scan(style)
	})
	return vars
}

// ImageInfo is one img tag with its attributes resolved.
type ImageInfo struct {
	URL    string
	Alt    string
	Class  string
	Width  int
	Height int
}

// Images returns the page's images, optionally filtered to those whose
// URL, alt text or class matches any pattern (case-insensitive
// substring). Empty patterns means all images.
func (d *Document) Images(patterns []string) []ImageInfo {
	var images []ImageInfo
	d.doc.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		abs := d.Resolve(src)
		if abs == "" || strings.HasPrefix(strings.ToLower(src), "data:") {
			return
		}
		alt, _ := s.Attr("alt")
		class, _ := s.Attr("class")
		img := ImageInfo{
			URL:    abs,
			Alt:    strings.TrimSpace(alt),
			Class:  class,
			Width:  attrInt(s, "width"),
			Height: attrInt(s, "height"),
		}
		if len(patterns) > 0 {
			haystack := strings.ToLower(abs + " " + img.Alt + " " + class)
			matched := false
			for _, p := range patterns {
				if strings.Contains(haystack, strings.ToLower(p)) {
					matched = true
					break
				}
			}
			if !matched {
				return
			}
		}
		images = append(images, img)
	})
	return images
}

// StructuredAddresses returns schema.org PostalAddress microdata found
// on the page.
func (d *Document) StructuredAddresses() []model.AddressValue {
	var addrs []model.AddressValue
	d.doc.Find(`[itemtype*="PostalAddress"]`).Each(func(_ int, s *goquery.Selection) {
		prop := func(name string) string {
			return collapseSpace(s.Find(`[itemprop="` + name + `"]`).First().Text())
		}
		addr := model.AddressValue{
			Street:  prop("streetAddress"),
			City:    prop("addressLocality"),
			Region:  prop("addressRegion"),
			Postal:  prop("postalCode"),
			Country: prop("addressCountry"),
		}
		if addr.ComponentCount() > 0 {
			addrs = append(addrs, addr)
		}
	})
	return addrs
}

// BodyText returns the page body's visible text with whitespace
// collapsed.
func (d *Document) BodyText() string {
	body := d.doc.Find("body").Clone()
	body.Find("script, style, noscript").Remove()
	return collapseSpace(body.Text())
}

var parkingPhrases = []string{
	"domain is for sale",
	"this domain is parked",
	"buy this domain",
	"coming soon",
	"under construction",
}

var spaRootIDs = map[string]bool{"root": true, "app": true, "__next": true, "___gatsby": true}

// IsEmptyShellPage reports whether the page has no useful static
// content: a near-empty body (which also covers body-less client-side
// redirect stubs), a bare SPA mount point, or parked-domain copy. A
// true result is the trigger for the render fallback.
func (d *Document) IsEmptyShellPage() bool {
	text := d.BodyText()
	if len(text) < 50 {
		return true
	}
	if d.hasBareSPARoot() {
		return true
	}
	if len(text) < 300 {
		lower := strings.ToLower(text)
		for _, phrase := range parkingPhrases {
			if strings.Contains(lower, phrase) {
				return true
			}
		}
	}
	return false
}

func (d *Document) hasBareSPARoot() bool {
	children := d.doc.Find("body").Children()
	found := false
	children.Each(func(_ int, s *goquery.Selection) {
		if goquery.NodeName(s) == "script" {
			return
		}
		id, _ := s.Attr("id")
		if spaRootIDs[id] && collapseSpace(s.Text()) == "" {
			found = true
		}
	})
	if !found {
		return false
	}
	// A lone empty mount div plus scripts means the real page is
	// client-rendered.
	nonScript := 0
	children.Each(func(_ int, s *goquery.Selection) {
		if goquery.NodeName(s) != "script" {
			nonScript++
		}
	})
	return nonScript == 1
}

func attrInt(s *goquery.Selection, name string) int {
	v, _ := s.Attr(name)
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0
	}
	return n
}

var spaceRe = regexp.MustCompile(`\s+`)

func collapseSpace(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}
