package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/sells-group/truthscan/internal/config"
	"github.com/sells-group/truthscan/internal/htmldoc"
	"github.com/sells-group/truthscan/internal/model"
)

var (
	emailRe = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	phoneRe = regexp.MustCompile(`(?:\+?1[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`)
	zipRe   = regexp.MustCompile(`\b\d{5}(?:-\d{4})?\b`)
)

// ContactExtractor finds emails, phone numbers and street addresses
// from links, contact sections and microdata.
type ContactExtractor struct {
	cfg config.ExtractionConfig
}

func NewContactExtractor(cfg config.ExtractionConfig) *ContactExtractor {
	return &ContactExtractor{cfg: cfg}
}

func (e *ContactExtractor) Name() string { return "contact" }

func (e *ContactExtractor) Extract(doc *htmldoc.Document) (Buckets, error) {
	buckets := Buckets{}
	buckets.Add(FieldEmail, e.emails(doc)...)
	buckets.Add(FieldPhone, e.phones(doc)...)
	buckets.Add(FieldAddress, e.addresses(doc)...)
	return buckets, nil
}

func (e *ContactExtractor) emails(doc *htmldoc.Document) []model.Candidate {
	var candidates []model.Candidate
	seen := map[string]bool{}
	add := func(email string, sw, mw float64, path string) {
		email = strings.ToLower(strings.TrimSpace(email))
		if email == "" || seen[email] {
			return
		}
		seen[email] = true
		candidates = append(candidates, model.Candidate{
			Value:        email,
			SourceWeight: sw,
			MethodWeight: mw,
			Provenance:   prov(doc, path),
		})
	}

	for _, email := range doc.MailtoLinks() {
		add(email, 0.9, 1.0, "a[href^='mailto:']")
	}

	sections := doc.FindSectionsByText([]string{"contact", "email", "reach"})
	for i, text := range sections {
		if i >= 3 {
			break
		}
		for _, email := range emailRe.FindAllString(text, -1) {
			add(email, 0.7, 0.7, "contact_section")
		}
	}

	if meta := doc.MetaContent("email"); meta != "" {
		add(meta, 0.85, 1.0, "meta[name='email']")
	}

	footer := doc.Find("footer").Text()
	for i, email := range emailRe.FindAllString(footer, -1) {
		if i >= 2 {
			break
		}
		add(email, 0.6, 0.7, "footer")
	}

	return candidates
}

func (e *ContactExtractor) phones(doc *htmldoc.Document) []model.Candidate {
	var candidates []model.Candidate
	seen := map[string]bool{}
	add := func(phone string, sw, mw float64, path string) {
		phone = collapsePhone(phone)
		if phone == "" || seen[phone] {
			return
		}
		seen[phone] = true
		candidates = append(candidates, model.Candidate{
			Value:        phone,
			SourceWeight: sw,
			MethodWeight: mw,
			Provenance:   prov(doc, path),
		})
	}

	for _, phone := range doc.TelLinks() {
		add(phone, 0.9, 1.0, "a[href^='tel:']")
	}

	sections := doc.FindSectionsByText([]string{"contact", "phone", "call", "reach"})
	for i, text := range sections {
		if i >= 3 {
			break
		}
		for _, phone := range phoneRe.FindAllString(text, -1) {
			add(phone, 0.7, 0.7, "contact_section")
		}
	}

	header := doc.Find("header").Text()
	for i, phone := range phoneRe.FindAllString(header, -1) {
		if i >= 2 {
			break
		}
		add(phone, 0.75, 0.7, "header")
	}

	return candidates
}

func (e *ContactExtractor) addresses(doc *htmldoc.Document) []model.Candidate {
	var candidates []model.Candidate

	for _, addr := range doc.StructuredAddresses() {
		addr.Formatted = formatAddress(addr)
		candidates = append(candidates, model.Candidate{
			Value:        addr,
			SourceWeight: e.cfg.SourceWeight("microdata", 0.95),
			MethodWeight: 1.0,
			Provenance:   prov(doc, "microdata.PostalAddress"),
		})
	}

	// Zip-anchored heuristic: a US postal code plus surrounding text
	// makes a rough formatted address.
	sections := doc.FindSectionsByText([]string{"contact", "address", "location", "visit"})
	for i, text := range sections {
		if i >= 2 {
			break
		}
		loc := zipRe.FindStringIndex(text)
		if loc == nil {
			continue
		}
		start := snapToRune(text, max(0, loc[0]-100))
		end := snapToRune(text, min(len(text), loc[1]+20))
		context := strings.TrimSpace(text[start:end])
		if len(context) > 200 {
			context = context[:snapToRune(context, 200)]
		}
		candidates = append(candidates, model.Candidate{
			Value: model.AddressValue{
				Postal:    text[loc[0]:loc[1]],
				Country:   "US",
				Formatted: context,
			},
			SourceWeight: 0.6,
			MethodWeight: 0.6,
			Provenance:   prov(doc, "contact_section.address_pattern"),
			Notes:        "heuristic extraction",
		})
	}

	return candidates
}

// snapToRune moves a byte offset left to the nearest rune boundary so
// slicing never splits a multi-byte character.
func snapToRune(s string, i int) int {
	for i > 0 && i < len(s) && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}

var phoneSpaceRe = regexp.MustCompile(`\s+`)

func collapsePhone(phone string) string {
	return phoneSpaceRe.ReplaceAllString(strings.TrimSpace(phone), " ")
}
